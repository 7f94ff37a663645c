package reqenvelope

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ExtractJWSPayload handles a request's `request` field holding a
// compact JWS: the matcher never verifies the signature, it only needs
// the payload, so this splits on the two `.` separators and decodes the
// middle segment unverified. If either dot is missing, ok is false and
// the caller drops this request without treating it as fatal to the
// invocation.
func ExtractJWSPayload(compact string) (payload json.RawMessage, ok bool) {
	if strings.Count(compact, ".") != 2 {
		return nil, false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(compact, claims); err != nil {
		return nil, false
	}

	raw, err := json.Marshal(claims)
	if err != nil {
		return nil, false
	}
	return raw, true
}
