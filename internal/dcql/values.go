package dcql

import "strconv"

// StringifyValue renders a decoded JSON value the way the protocol
// parsers must before it reaches a RequestedClaim.Values entry: strings pass through, booleans render as
// "true"/"false", and numbers — which encoding/json always decodes to
// float64 — render using integer rendering even when the literal carried
// a fractional part. This last rule is a known narrowing: DCQL values in
// practice are strings or booleans, not fractional numbers.
func StringifyValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatInt(int64(t), 10)
	case nil:
		return ""
	default:
		return ""
	}
}
