package protocol

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dc4eu/credmatcher/internal/dcql"
)

// S1: preview selector with two fields builds a single degenerate
// CredentialQuery carrying both as RequestedClaims.
func TestParsePreview_BuildsDegenerateQuery(t *testing.T) {
	data := json.RawMessage(`{
		"selector": {
			"doctype": "org.iso.18013.5.1.mDL",
			"fields": [
				{"namespace": "org.iso.18013.5.1", "name": "age_over_21", "intentToRetain": false},
				{"namespace": "org.iso.18013.5.1", "name": "portrait", "intentToRetain": false}
			]
		}
	}`)

	q, err := Parse(ProtocolPreview, data)
	require.NoError(t, err)
	require.Len(t, q.CredentialQueries, 1)
	cq := q.CredentialQueries[0]
	assert.Equal(t, dcql.FormatMsoMdoc, cq.Format)
	assert.Equal(t, "org.iso.18013.5.1.mDL", cq.MdocDocType)
	require.Len(t, cq.RequestedClaims, 2)
	assert.Equal(t, "org.iso.18013.5.1.age_over_21", cq.RequestedClaims[0].Key())
	assert.Empty(t, cq.ClaimSets)
}

// Pins the intentToRetain mapping: each field's own flag carries
// through to its RequestedClaim independently of the others, rather
// than all claims collapsing to the same value.
func TestParsePreview_IntentToRetainPinnedPerField(t *testing.T) {
	data := json.RawMessage(`{
		"selector": {
			"doctype": "org.iso.18013.5.1.mDL",
			"fields": [
				{"namespace": "org.iso.18013.5.1", "name": "age_over_21", "intentToRetain": false},
				{"namespace": "org.iso.18013.5.1", "name": "portrait", "intentToRetain": true}
			]
		}
	}`)

	q, err := Parse(ProtocolPreview, data)
	require.NoError(t, err)
	cq := q.CredentialQueries[0]
	require.Len(t, cq.RequestedClaims, 2)
	assert.False(t, cq.RequestedClaims[0].IntentToRetain)
	assert.True(t, cq.RequestedClaims[1].IntentToRetain)
}

func TestParsePreview_MissingDoctypeIsError(t *testing.T) {
	data := json.RawMessage(`{"selector": {"fields": [{"namespace": "a", "name": "b"}]}}`)
	_, err := Parse(ProtocolPreview, data)
	assert.Error(t, err)
}

func mdocAPIFixture(t *testing.T) string {
	t.Helper()
	itemsReqBytes, err := cbor.Marshal(map[string]any{
		"docType": "org.iso.18013.5.1.mDL",
		"nameSpaces": map[string]any{
			"org.iso.18013.5.1": map[string]any{"age_over_21": false},
		},
	})
	require.NoError(t, err)

	deviceRequestBytes, err := cbor.Marshal(map[string]any{
		"version": "1.0",
		"docRequests": []any{
			map[string]any{
				"itemsRequest": cbor.Tag{Number: 24, Content: itemsReqBytes},
			},
		},
	})
	require.NoError(t, err)

	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(deviceRequestBytes)
}

func TestParseMdocAPI_UnwrapsFirstDocRequest(t *testing.T) {
	encoded := mdocAPIFixture(t)
	data, err := json.Marshal(map[string]string{"deviceRequest": encoded})
	require.NoError(t, err)

	q, err := Parse(ProtocolISOMdoc, data)
	require.NoError(t, err)
	require.Len(t, q.CredentialQueries, 1)
	cq := q.CredentialQueries[0]
	assert.Equal(t, "org.iso.18013.5.1.mDL", cq.MdocDocType)
	require.Len(t, cq.RequestedClaims, 1)
	assert.Equal(t, "org.iso.18013.5.1.age_over_21", cq.RequestedClaims[0].Key())
}

// Pins the intentToRetain mapping for the mdoc-api path: the nameSpaces
// element's own bool carries through to its RequestedClaim, not a
// constant true or false regardless of input.
func TestParseMdocAPI_IntentToRetainPinnedPerElement(t *testing.T) {
	itemsReqBytes, err := cbor.Marshal(map[string]any{
		"docType": "org.iso.18013.5.1.mDL",
		"nameSpaces": map[string]any{
			"org.iso.18013.5.1": map[string]any{
				"age_over_21": false,
				"portrait":    true,
			},
		},
	})
	require.NoError(t, err)
	deviceRequestBytes, err := cbor.Marshal(map[string]any{
		"version": "1.0",
		"docRequests": []any{
			map[string]any{
				"itemsRequest": cbor.Tag{Number: 24, Content: itemsReqBytes},
			},
		},
	})
	require.NoError(t, err)
	encoded := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(deviceRequestBytes)
	data, err := json.Marshal(map[string]string{"deviceRequest": encoded})
	require.NoError(t, err)

	q, err := Parse(ProtocolISOMdoc, data)
	require.NoError(t, err)
	cq := q.CredentialQueries[0]
	require.Len(t, cq.RequestedClaims, 2)

	byKey := make(map[string]bool, 2)
	for _, rc := range cq.RequestedClaims {
		byKey[rc.Key()] = rc.IntentToRetain
	}
	assert.False(t, byKey["org.iso.18013.5.1.age_over_21"])
	assert.True(t, byKey["org.iso.18013.5.1.portrait"])
}

func TestParseMdocAPI_AliasProtocolsResolveToSameParser(t *testing.T) {
	encoded := mdocAPIFixture(t)
	data, err := json.Marshal(map[string]string{"deviceRequest": encoded})
	require.NoError(t, err)

	for _, proto := range []string{ProtocolISOMdoc, ProtocolISOMdocAlt, ProtocolAustroadsForwardingV2} {
		q, err := Parse(proto, data)
		require.NoError(t, err)
		assert.Equal(t, "org.iso.18013.5.1.mDL", q.CredentialQueries[0].MdocDocType)
	}
}

func TestParseMdocAPI_MalformedBase64IsError(t *testing.T) {
	data := json.RawMessage(`{"deviceRequest": "!!!not base64!!!"}`)
	_, err := Parse(ProtocolISOMdoc, data)
	assert.Error(t, err)
}

// S2: a DCQL value filter selects only credentials in the values set (the
// engine-level behavior is exercised in internal/dcql; here we check the
// wire is translated faithfully, including the value filter and the
// intentToRetain=false mapping).
func TestParseOpenID4VP_DirectDCQLQuery(t *testing.T) {
	data := json.RawMessage(`{
		"dcql_query": {
			"credentials": [
				{
					"id": "mdl",
					"format": "mso_mdoc",
					"meta": {"doctype_value": "org.iso.18013.5.1.mDL"},
					"claims": [
						{"id": "age", "path": ["org.iso.18013.5.1", "age_over_21"], "values": ["true"]}
					]
				}
			]
		}
	}`)

	q, err := Parse(ProtocolOpenID4VP, data)
	require.NoError(t, err)
	require.Len(t, q.CredentialQueries, 1)
	cq := q.CredentialQueries[0]
	assert.Equal(t, dcql.FormatMsoMdoc, cq.Format)
	assert.Equal(t, "org.iso.18013.5.1.mDL", cq.MdocDocType)
	require.Len(t, cq.RequestedClaims, 1)
	assert.Equal(t, []string{"true"}, cq.RequestedClaims[0].Values)
	assert.False(t, cq.RequestedClaims[0].IntentToRetain)
}

func TestParseOpenID4VP_CredentialSetsDefaultRequiredTrue(t *testing.T) {
	data := json.RawMessage(`{
		"dcql_query": {
			"credentials": [{"id": "c1", "format": "dc+sd-jwt", "meta": {"vct_values": ["urn:eudi:pid:1"]}}],
			"credential_sets": [{"options": [["c1"]]}]
		}
	}`)

	q, err := Parse(ProtocolOpenID4VP, data)
	require.NoError(t, err)
	require.Len(t, q.CredentialSets, 1)
	assert.True(t, q.CredentialSets[0].Required)
}

func TestParseOpenID4VP_JWSWrappedRequestIsExtracted(t *testing.T) {
	inner := map[string]any{
		"dcql_query": map[string]any{
			"credentials": []any{
				map[string]any{
					"id":     "c1",
					"format": "dc+sd-jwt",
					"meta":   map[string]any{"vct_values": []any{"urn:eudi:pid:1"}},
				},
			},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(inner))
	compact, err := token.SignedString([]byte("unverified"))
	require.NoError(t, err)

	data, err := json.Marshal(map[string]string{"request": compact})
	require.NoError(t, err)

	q, err := Parse(ProtocolOpenID4VPSigned, data)
	require.NoError(t, err)
	require.Len(t, q.CredentialQueries, 1)
	assert.Equal(t, []string{"urn:eudi:pid:1"}, q.CredentialQueries[0].VCTValues)
}

func TestParseOpenID4VP_MissingDCQLQueryIsError(t *testing.T) {
	_, err := Parse(ProtocolOpenID4VP, json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestParse_UnsupportedProtocolIsError(t *testing.T) {
	_, err := Parse("carrier-pigeon", json.RawMessage(`{}`))
	assert.Error(t, err)
}
