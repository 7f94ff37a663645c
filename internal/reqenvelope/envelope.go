// Package reqenvelope decodes the JSON request envelope and, where a
// request carries a JWS, extracts its unverified payload.
package reqenvelope

import (
	"encoding/json"
	"sync"

	"github.com/kaptinlin/jsonschema"

	"github.com/dc4eu/credmatcher/internal/merr"
)

// RawRequest is one element of the envelope's `requests` array: a
// protocol discriminator plus its opaque, protocol-specific data, left
// undecoded until the protocol package dispatches on Protocol.
type RawRequest struct {
	Protocol string          `json:"protocol"`
	Data     json.RawMessage `json:"data"`
}

// Envelope is the top-level request object.
type Envelope struct {
	Requests []RawRequest `json:"requests"`
}

// wireEnvelope mirrors Envelope but keeps each entry as an undecoded
// json.RawMessage, so every entry can be shape-checked with
// ValidateShape before being promoted to a RawRequest.
type wireEnvelope struct {
	Requests []json.RawMessage `json:"requests"`
}

// Decode parses the request envelope. A decode error here is not fatal
// to the invocation the way a credential-database decode failure is; the
// caller treats it as "zero requests to evaluate." Each entry is
// additionally checked against requestEntrySchema; an entry that fails
// the shape check is silently dropped and the rest of the envelope is
// still decoded.
func Decode(raw []byte) (*Envelope, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, merr.FromGoError(merr.CodeJSONParse, err)
	}

	env := &Envelope{Requests: make([]RawRequest, 0, len(wire.Requests))}
	for _, entry := range wire.Requests {
		if err := ValidateShape(entry); err != nil {
			continue
		}
		var rr RawRequest
		if err := json.Unmarshal(entry, &rr); err != nil {
			continue
		}
		env.Requests = append(env.Requests, rr)
	}
	return env, nil
}

// requestEntrySchema is compiled from an embedded literal rather than a
// file on disk, since the sandbox has no filesystem. It checks one
// requests[] entry, not the whole envelope: a schema failure on one
// entry drops only that entry rather than aborting decoding of the rest.
const requestEntrySchema = `{
  "type": "object",
  "properties": {
    "protocol": {"type": "string"},
    "data": {"type": "object"}
  },
  "required": ["protocol", "data"]
}`

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
)

func compiled() (*jsonschema.Schema, error) {
	var err error
	compiledOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiledSchema, err = compiler.Compile([]byte(requestEntrySchema))
	})
	return compiledSchema, err
}

// ValidateShape checks one requests[] entry (its raw JSON bytes, before
// any decode into a RawRequest) against its JSON Schema, so a malformed
// entry is reported with the schema violation rather than a generic
// unmarshal error. Only the entry that fails is dropped; it is the
// caller's job not to let one bad entry abort the rest of the envelope.
func ValidateShape(raw []byte) error {
	schema, err := compiled()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return merr.FromGoError(merr.CodeJSONParse, err)
	}
	result := schema.Validate(doc)
	if !result.IsValid() {
		return merr.WithDetail(merr.CodeJSONParse, formatSchemaErrors(result))
	}
	return nil
}

// formatSchemaErrors flattens a failed EvaluationResult into the
// location/message pairs merr.Diagnostic carries as its detail payload.
func formatSchemaErrors(result *jsonschema.EvaluationResult) []map[string]any {
	out := make([]map[string]any, 0)
	for _, d := range result.Details {
		if d.Valid {
			continue
		}
		msgs := map[string]any{}
		for _, e := range d.Errors {
			msgs[e.Code] = e.Error()
		}
		out = append(out, map[string]any{
			"location": d.InstanceLocation,
			"message":  msgs,
		})
	}
	return out
}
