// Package protocol implements per-protocol request parsing into a
// normalized DCQL query. Every protocol dialect — the legacy "preview"
// selector, the ISO 18013-7 mdoc-api deviceRequest, and native OpenID4VP
// — converges on the same dcql.Query shape so the resolution engine
// never needs to know which wire format a request arrived in.
package protocol

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dc4eu/credmatcher/internal/dcql"
	"github.com/dc4eu/credmatcher/internal/merr"
)

// Protocol string constants for the request protocols this module
// understands.
const (
	ProtocolPreview               = "preview"
	ProtocolISOMdoc               = "org.iso.mdoc"
	ProtocolISOMdocAlt            = "org-iso-mdoc"
	ProtocolAustroadsForwardingV2 = "austroads-request-forwarding-v2"
	ProtocolOpenID4VP             = "openid4vp"
	ProtocolOpenID4VPUnsigned     = "openid4vp-v1-unsigned"
	ProtocolOpenID4VPSigned       = "openid4vp-v1-signed"
)

type parseFunc func(data json.RawMessage) (*dcql.Query, error)

var dispatch = map[string]parseFunc{
	ProtocolPreview:               parsePreview,
	ProtocolISOMdoc:               parseMdocAPI,
	ProtocolISOMdocAlt:            parseMdocAPI,
	ProtocolAustroadsForwardingV2: parseMdocAPI,
	ProtocolOpenID4VP:             parseOpenID4VP,
	ProtocolOpenID4VPUnsigned:     parseOpenID4VP,
	ProtocolOpenID4VPSigned:       parseOpenID4VP,
}

// Parse dispatches a request's data payload to its protocol-specific
// parser. An unknown protocol, or any parse failure, is reported as an
// error and must be treated as "drop this request" by the caller — never
// fatal to the invocation.
func Parse(protocol string, data json.RawMessage) (*dcql.Query, error) {
	fn, ok := dispatch[protocol]
	if !ok {
		return nil, merr.New(merr.CodeUnsupportedProto)
	}
	return fn(data)
}

// newValidator reports struct-tag field names on validation error
// instead of Go field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// elementClaimID synthesizes a stable RequestedClaim.ID for the
// degenerate single-CredentialQuery DCQL the preview and mdoc-api
// dispatch branches build; neither wire format carries claim identifiers
// of its own, and no claim-sets are ever declared for these branches, so
// the ID is never referenced again.
func elementClaimID(i int) string {
	return "element-" + strconv.Itoa(i)
}
