package protocol

import (
	"encoding/json"

	"github.com/dc4eu/credmatcher/internal/dcql"
	"github.com/dc4eu/credmatcher/internal/merr"
)

// previewField is one entry in the legacy preview selector's field list.
type previewField struct {
	Namespace      string `json:"namespace" validate:"required"`
	Name           string `json:"name" validate:"required"`
	IntentToRetain bool   `json:"intentToRetain"`
}

type previewSelector struct {
	Doctype string         `json:"doctype" validate:"required"`
	Fields  []previewField `json:"fields" validate:"required,min=1,dive"`
}

type previewData struct {
	Selector previewSelector `json:"selector" validate:"required"`
}

// parsePreview parses the legacy Android Identity Credential "preview"
// selector: each field contributes one mdoc data-element pair, assembled
// into a single degenerate CredentialQuery with no claim-sets and no
// CredentialSetQuery.
func parsePreview(data json.RawMessage) (*dcql.Query, error) {
	var pd previewData
	if err := json.Unmarshal(data, &pd); err != nil {
		return nil, merr.FromGoError(merr.CodeJSONParse, err)
	}
	if err := newValidator().Struct(pd); err != nil {
		return nil, merr.FromGoError(merr.CodeJSONParse, err)
	}

	claims := make([]dcql.RequestedClaim, 0, len(pd.Selector.Fields))
	for i, f := range pd.Selector.Fields {
		claims = append(claims, dcql.RequestedClaim{
			ID:             elementClaimID(i),
			Path:           []string{f.Namespace, f.Name},
			IntentToRetain: f.IntentToRetain,
		})
	}

	return &dcql.Query{
		CredentialQueries: []dcql.CredentialQuery{
			{
				ID:              "preview",
				Format:          dcql.FormatMsoMdoc,
				MdocDocType:     pd.Selector.Doctype,
				RequestedClaims: claims,
			},
		},
	}, nil
}
