// Package merr provides the matcher's error taxonomy: a small
// Code/Detail wrapper, plus a classifier that recognizes the handful of
// concrete Go error types the CBOR/JSON decoders and validators can
// produce so host-sink diagnostics are structured. Classifying an error
// never changes whether the matcher emits or drops an entry — it only
// shapes what gets logged.
package merr

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-playground/validator/v10"
)

// Code enumerates the kinds of abort and drop a matcher invocation can
// produce.
type Code string

const (
	CodeCBORParse          Code = "cbor_parse_error"
	CodeJSONParse          Code = "json_parse_error"
	CodeUnsupportedProto   Code = "unsupported_protocol"
	CodeProtocolNotOptedIn Code = "protocol_not_in_database"
	CodeUnresolvedClaim    Code = "unresolved_claim"
	CodeCredentialSetFail  Code = "credential_set_unsatisfied"
	CodeDedupedDocument    Code = "deduped_document"
	CodeInternal           Code = "internal_error"
)

// Diagnostic is the matcher's structured observation record: one is
// produced for malformed CBOR/JSON, an unsupported protocol, and a
// deduped document. A request dropped because its protocol is not in
// the database, a claim that does not resolve, and an unsatisfied
// credential-set are logged as plain messages without a Diagnostic. It
// is carried only in-process and forwarded to the host log sink — constructing one never by itself changes whether an
// entry is emitted or dropped, that decision is made independently at
// the call site.
type Diagnostic struct {
	Code   Code
	Detail any
}

func (d *Diagnostic) Error() string {
	if d == nil {
		return ""
	}
	if d.Detail != nil {
		return fmt.Sprintf("%s: %+v", d.Code, d.Detail)
	}
	return string(d.Code)
}

// Fields renders d as structured key/value pairs for a Log.Info/Debug
// call, so the host log sink receives the Code alongside the message
// rather than only a flattened string.
func (d *Diagnostic) Fields() []any {
	if d == nil {
		return nil
	}
	if d.Detail != nil {
		return []any{"code", d.Code, "detail", d.Detail}
	}
	return []any{"code", d.Code}
}

// New creates a Diagnostic with no detail payload.
func New(code Code) *Diagnostic { return &Diagnostic{Code: code} }

// WithDetail creates a Diagnostic carrying a detail payload for logging.
func WithDetail(code Code, detail any) *Diagnostic { return &Diagnostic{Code: code, Detail: detail} }

// FromGoError classifies a raw Go error into a Diagnostic, recognizing
// the JSON, CBOR, and validator error types the decoders and parsers can
// produce.
func FromGoError(code Code, err error) *Diagnostic {
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return WithDetail(code, map[string]any{"kind": "json_syntax_error", "offset": syntaxErr.Offset, "error": syntaxErr.Error()})
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return WithDetail(code, map[string]any{"kind": "json_type_error", "field": typeErr.Field, "expected": typeErr.Type.String()})
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		details := make([]map[string]any, 0, len(valErrs))
		for _, e := range valErrs {
			details = append(details, map[string]any{
				"field":      e.Field(),
				"namespace":  e.Namespace(),
				"validation": e.Tag(),
			})
		}
		return WithDetail(code, details)
	}

	var cborTypeErr *cbor.UnmarshalTypeError
	if errors.As(err, &cborTypeErr) {
		return WithDetail(code, map[string]any{"kind": "cbor_type_error", "error": cborTypeErr.Error()})
	}

	var cborExtraErr *cbor.ExtraneousDataError
	if errors.As(err, &cborExtraErr) {
		return WithDetail(code, map[string]any{"kind": "cbor_extraneous_data_error", "error": cborExtraErr.Error()})
	}

	return WithDetail(code, err.Error())
}
