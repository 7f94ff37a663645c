package protocol

import (
	"encoding/json"

	"github.com/dc4eu/credmatcher/internal/dcql"
	"github.com/dc4eu/credmatcher/internal/merr"
	"github.com/dc4eu/credmatcher/internal/reqenvelope"
)

// metaQueryWire carries the two format-specific constraints the matcher
// needs from a DCQL `meta` object: an mdoc doctype or a set of
// acceptable SD-JWT VCT values.
type metaQueryWire struct {
	VCTValues    []string `json:"vct_values,omitempty"`
	DoctypeValue string   `json:"doctype_value,omitempty"`
}

// claimQueryWire is the id/path/values shape DCQL §6.3 defines for a
// claim query; the matcher needs id and values to resolve claim-sets
// and value-restricted claims.
type claimQueryWire struct {
	ID     string   `json:"id,omitempty"`
	Path   []string `json:"path" validate:"required,min=1,dive,required"`
	Values []any    `json:"values,omitempty"`
}

// credentialQueryWire is the wire shape of one DCQL credential query.
type credentialQueryWire struct {
	ID        string           `json:"id" validate:"required"`
	Format    string           `json:"format" validate:"required"`
	Meta      metaQueryWire    `json:"meta"`
	Claims    []claimQueryWire `json:"claims,omitempty"`
	ClaimSets [][]string       `json:"claim_sets,omitempty"`
}

// credentialSetQueryWire is the wire shape of one DCQL credential-set
// query. Required is a pointer so a genuinely absent field can default
// to true (DCQL §6.2) without colliding with an explicit
// `"required":false`.
type credentialSetQueryWire struct {
	Options  [][]string `json:"options" validate:"required,min=1,dive,required,min=1,dive,required"`
	Required *bool      `json:"required,omitempty"`
}

type dcqlQueryWire struct {
	Credentials    []credentialQueryWire    `json:"credentials" validate:"required,min=1,dive,required"`
	CredentialSets []credentialSetQueryWire `json:"credential_sets,omitempty"`
}

// openid4vpData is the envelope's `data` object for the three openid4vp
// dialects. When `request` is present, the actual DCQL query is inside
// its (unverified) JWS payload rather than alongside it.
type openid4vpData struct {
	Request   *string        `json:"request,omitempty"`
	DCQLQuery *dcqlQueryWire `json:"dcql_query,omitempty"`
}

// parseOpenID4VP parses the openid4vp, openid4vp-v1-unsigned, and
// openid4vp-v1-signed dispatch branches: the DCQL query either sits
// directly in the request data or inside a signed request object's JWS
// payload.
func parseOpenID4VP(data json.RawMessage) (*dcql.Query, error) {
	var od openid4vpData
	if err := json.Unmarshal(data, &od); err != nil {
		return nil, merr.FromGoError(merr.CodeJSONParse, err)
	}

	wire := od.DCQLQuery
	if od.Request != nil {
		payload, ok := reqenvelope.ExtractJWSPayload(*od.Request)
		if !ok {
			return nil, merr.New(merr.CodeJSONParse)
		}
		var inner struct {
			DCQLQuery *dcqlQueryWire `json:"dcql_query"`
		}
		if err := json.Unmarshal(payload, &inner); err != nil {
			return nil, merr.FromGoError(merr.CodeJSONParse, err)
		}
		wire = inner.DCQLQuery
	}
	if wire == nil {
		return nil, merr.New(merr.CodeJSONParse)
	}
	if err := newValidator().Struct(wire); err != nil {
		return nil, merr.FromGoError(merr.CodeJSONParse, err)
	}

	return toQuery(wire), nil
}

func toQuery(wire *dcqlQueryWire) *dcql.Query {
	q := &dcql.Query{
		CredentialQueries: make([]dcql.CredentialQuery, 0, len(wire.Credentials)),
	}

	for _, cq := range wire.Credentials {
		claims := make([]dcql.RequestedClaim, 0, len(cq.Claims))
		for _, c := range cq.Claims {
			values := make([]string, 0, len(c.Values))
			for _, v := range c.Values {
				values = append(values, dcql.StringifyValue(v))
			}
			claims = append(claims, dcql.RequestedClaim{
				ID: c.ID,
				// intentToRetain is an ISO 18013-7 mdoc-api concept with
				// no DCQL equivalent; openid4vp-sourced claims always
				// resolve with it false.
				IntentToRetain: false,
				Path:           c.Path,
				Values:         values,
			})
		}

		claimSets := make([]dcql.ClaimSet, 0, len(cq.ClaimSets))
		for _, set := range cq.ClaimSets {
			claimSets = append(claimSets, dcql.ClaimSet{ClaimIdentifiers: set})
		}

		q.CredentialQueries = append(q.CredentialQueries, dcql.CredentialQuery{
			ID:              cq.ID,
			Format:          cq.Format,
			MdocDocType:     cq.Meta.DoctypeValue,
			VCTValues:       cq.Meta.VCTValues,
			RequestedClaims: claims,
			ClaimSets:       claimSets,
		})
	}

	for _, csq := range wire.CredentialSets {
		required := true
		if csq.Required != nil {
			required = *csq.Required
		}
		opts := make([]dcql.CredentialSetOption, 0, len(csq.Options))
		for _, o := range csq.Options {
			opts = append(opts, dcql.CredentialSetOption{CredentialIDs: o})
		}
		q.CredentialSets = append(q.CredentialSets, dcql.CredentialSetQuery{
			Required: required,
			Options:  opts,
		})
	}

	return q
}
