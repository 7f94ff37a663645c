package credentialdb

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/dc4eu/credmatcher/internal/merr"
)

// cborDecMode and cborEncMode are configured the way this codebase
// family's pkg/mdoc/cbor.go configures its ISO 18013-5 codec: duplicate
// map keys are rejected (a well-formed credential database never
// contains them) and indefinite-length items are tolerated on decode, so
// the decoder isn't tripped up by map keys appearing out of canonical
// order or by encodings this subset doesn't otherwise care about.
var (
	cborDecMode cbor.DecMode
	cborEncMode cbor.EncMode
)

func init() {
	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	}
	mode, err := decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("credentialdb: invalid cbor decode options: %v", err))
	}
	cborDecMode = mode

	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}
	encMode, err := encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("credentialdb: invalid cbor encode options: %v", err))
	}
	cborEncMode = encMode
}

// Decode parses the credential-database byte string. A decode error is
// fatal to the invocation: the caller must treat a non-nil error as
// "produce no entries."
func Decode(data []byte) (*Database, error) {
	if len(data) == 0 {
		return nil, merr.New(merr.CodeCBORParse)
	}

	db := &Database{}
	if err := cborDecMode.Unmarshal(data, db); err != nil {
		return nil, merr.FromGoError(merr.CodeCBORParse, err)
	}

	return db, nil
}

// DecMode exposes the shared decode mode so internal/protocol can reuse
// it for the legacy mdoc-api deviceRequest path, which must apply the
// same tag-tolerant, duplicate-key-rejecting rules used for the
// credential database proper.
func DecMode() cbor.DecMode { return cborDecMode }
