package reqenvelope

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_ParsesMultipleRequestsInOrder(t *testing.T) {
	raw := []byte(`{"requests":[{"protocol":"preview","data":{"selector":{}}},{"protocol":"openid4vp","data":{"dcql_query":{}}}]}`)

	env, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, env.Requests, 2)
	assert.Equal(t, "preview", env.Requests[0].Protocol)
	assert.Equal(t, "openid4vp", env.Requests[1].Protocol)
}

func TestDecode_MalformedJSONIsError(t *testing.T) {
	_, err := Decode([]byte(`{"requests":`))
	assert.Error(t, err)
}

func TestValidateShape_RejectsEntryMissingDataField(t *testing.T) {
	err := ValidateShape([]byte(`{"protocol":"preview"}`))
	assert.Error(t, err)
}

func TestValidateShape_AcceptsWellFormedEntry(t *testing.T) {
	raw := []byte(`{"protocol":"preview","data":{}}`)
	assert.NoError(t, ValidateShape(raw))
}

func TestExtractJWSPayload_DecodesMiddleSegment(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"dcql_query": map[string]any{"credentials": []any{}}})
	compact, err := token.SignedString([]byte("does-not-matter-unverified"))
	require.NoError(t, err)

	payload, ok := ExtractJWSPayload(compact)
	require.True(t, ok)
	assert.Contains(t, string(payload), "dcql_query")
}

func TestExtractJWSPayload_MissingDotIsDiscarded(t *testing.T) {
	_, ok := ExtractJWSPayload("not-a-jws")
	assert.False(t, ok)
}

func TestExtractJWSPayload_TooManySegmentsIsDiscarded(t *testing.T) {
	_, ok := ExtractJWSPayload("a.b.c.d")
	assert.False(t, ok)
}
