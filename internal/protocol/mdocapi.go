package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/dc4eu/credmatcher/internal/credentialdb"
	"github.com/dc4eu/credmatcher/internal/dcql"
	"github.com/dc4eu/credmatcher/internal/merr"
)

// mdocAPIData is the JSON envelope the ISO 18013-7 mdoc-api dialects
// carry: a single base64url-encoded, CBOR-wrapped deviceRequest.
type mdocAPIData struct {
	DeviceRequest string `json:"deviceRequest" validate:"required"`
}

// deviceRequestWire mirrors the ISO 18013-5 deviceRequest top-level
// structure enough to reach the first docRequest's itemsRequest.
type deviceRequestWire struct {
	Version     string           `cbor:"version"`
	DocRequests []docRequestWire `cbor:"docRequests"`
}

type docRequestWire struct {
	ItemsRequest encodedItemsRequest `cbor:"itemsRequest"`
}

// encodedItemsRequest unwraps the CBOR tag-24 ("encoded CBOR") wrapper
// around an itemsRequest, the same read-through pattern this codebase
// family's pkg/mdoc/cbor.go uses for its EncodedCBORBytes type.
type encodedItemsRequest itemsRequestWire

func (e *encodedItemsRequest) UnmarshalCBOR(data []byte) error {
	var tag cbor.Tag
	if err := credentialdb.DecMode().Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("itemsRequest tag: %w", err)
	}
	content, ok := tag.Content.([]byte)
	if !ok {
		return fmt.Errorf("itemsRequest: expected byte string content")
	}
	var ir itemsRequestWire
	if err := credentialdb.DecMode().Unmarshal(content, &ir); err != nil {
		return fmt.Errorf("itemsRequest content: %w", err)
	}
	*e = encodedItemsRequest(ir)
	return nil
}

type itemsRequestWire struct {
	DocType    string                    `cbor:"docType"`
	NameSpaces map[string]map[string]bool `cbor:"nameSpaces"`
}

// parseMdocAPI parses the ISO 18013-7 mdoc-api dispatch branch: decode
// base64url -> CBOR, take the first docRequests entry, unwrap its tagged
// itemsRequest, and build the same degenerate DCQL shape the preview
// branch builds.
func parseMdocAPI(data json.RawMessage) (*dcql.Query, error) {
	var md mdocAPIData
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, merr.FromGoError(merr.CodeJSONParse, err)
	}
	if err := newValidator().Struct(md); err != nil {
		return nil, merr.FromGoError(merr.CodeJSONParse, err)
	}

	raw, err := decodeBase64URL(md.DeviceRequest)
	if err != nil {
		return nil, merr.FromGoError(merr.CodeCBORParse, err)
	}

	var dr deviceRequestWire
	if err := credentialdb.DecMode().Unmarshal(raw, &dr); err != nil {
		return nil, merr.FromGoError(merr.CodeCBORParse, err)
	}
	if len(dr.DocRequests) == 0 {
		return nil, merr.New(merr.CodeCBORParse)
	}

	ir := itemsRequestWire(dr.DocRequests[0].ItemsRequest)

	// Go map iteration order is randomized per run; sort both levels of
	// keys so claim order is a deterministic function of the input.
	namespaces := make([]string, 0, len(ir.NameSpaces))
	for ns := range ir.NameSpaces {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	var claims []dcql.RequestedClaim
	i := 0
	for _, ns := range namespaces {
		elements := ir.NameSpaces[ns]
		names := make([]string, 0, len(elements))
		for name := range elements {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			claims = append(claims, dcql.RequestedClaim{
				ID:             elementClaimID(i),
				Path:           []string{ns, name},
				IntentToRetain: elements[name],
			})
			i++
		}
	}

	return &dcql.Query{
		CredentialQueries: []dcql.CredentialQuery{
			{
				ID:              "mdoc-api",
				Format:          dcql.FormatMsoMdoc,
				MdocDocType:     ir.DocType,
				RequestedClaims: claims,
			},
		},
	}, nil
}

// decodeBase64URL accepts both padded and unpadded base64url: if padding
// is absent, the input is padded to a length congruent to 0 mod 4 before
// decoding.
func decodeBase64URL(s string) ([]byte, error) {
	if pad := len(s) % 4; pad != 0 {
		s += strings.Repeat("=", 4-pad)
	}
	return base64.URLEncoding.DecodeString(s)
}
