package credentialdb

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RoundTrip(t *testing.T) {
	db := &Database{
		Protocols: []string{"openid4vp", "preview"},
		Credentials: []Credential{
			{
				Title:    "Driving Licence",
				Subtitle: "Utopia DMV",
				Bitmap:   []byte{1, 2, 3},
				Mdoc: &MdocForm{
					DocumentID: "doc-1",
					DocType:    "org.iso.18013.5.1.mDL",
					Namespaces: map[string]map[string]Display{
						"org.iso.18013.5.1": {
							"age_over_21": {DisplayName: "Age 21+", Value: "true", MatchValue: "true"},
						},
					},
				},
			},
		},
	}

	raw, err := cborEncMode.Marshal(db)
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, db.Protocols, got.Protocols)
	require.Len(t, got.Credentials, 1)
	assert.Equal(t, "doc-1", got.Credentials[0].DocumentID())
	claim, ok := got.Credentials[0].Claim("org.iso.18013.5.1.age_over_21")
	require.True(t, ok)
	assert.Equal(t, "true", claim.MatchValue)
}

func TestDecode_MissingOptionalFieldsYieldEmptyDefaults(t *testing.T) {
	// Only mdoc present; sdjwt key absent entirely. Map keys may appear
	// in any order and missing optional fields must decode to nil.
	raw, err := cbor.Marshal(map[string]any{
		"credentials": []map[string]any{
			{
				"subtitle": "",
				"title":    "Badge",
				"bitmap":   []byte{},
				"mdoc": map[string]any{
					"docType":    "com.example.badge",
					"documentId": "doc-2",
					"namespaces": map[string]any{},
				},
			},
		},
		"protocols": []string{"preview"},
	})
	require.NoError(t, err)

	db, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, db.Credentials, 1)
	assert.Nil(t, db.Credentials[0].SDJWT)
	assert.Equal(t, "doc-2", db.Credentials[0].DocumentID())
}

// TestDecode_RoundTripPreservesRandomizedClaimData exercises the codec
// against generated rather than hand-picked values, guarding against
// decode logic that happens to only work for the fixed literals used
// elsewhere in this file.
func TestDecode_RoundTripPreservesRandomizedClaimData(t *testing.T) {
	documentID := gofakeit.UUID()
	givenName := gofakeit.FirstName()
	birthDate := gofakeit.Date().Format("2006-01-02")
	vct := "urn:eudi:pid:1"

	db := &Database{
		Protocols: []string{"openid4vp"},
		Credentials: []Credential{
			{
				Title: gofakeit.Company(),
				SDJWT: &SDJWTForm{
					DocumentID: documentID,
					VCT:        vct,
					Claims: map[string]Display{
						"given_name": {DisplayName: "Given name", Value: givenName, MatchValue: givenName},
						"birthdate":  {DisplayName: "Birthdate", Value: birthDate, MatchValue: birthDate},
					},
				},
			},
		},
	}

	raw, err := cborEncMode.Marshal(db)
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, got.Credentials, 1)
	assert.Equal(t, documentID, got.Credentials[0].DocumentID())

	claim, ok := got.Credentials[0].Claim("given_name")
	require.True(t, ok)
	assert.Equal(t, givenName, claim.MatchValue)

	claim, ok = got.Credentials[0].Claim("birthdate")
	require.True(t, ok)
	assert.Equal(t, birthDate, claim.Value)
}

func TestDecode_EmptyInputIsFatal(t *testing.T) {
	_, err := Decode(nil)
	assert.Error(t, err)
}

func TestDecode_MalformedCBORIsFatal(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
