// Package credentialdb implements the CBOR credential-database decoder
// and the in-memory credential model it produces.
package credentialdb

import "fmt"

// Display is the `[displayName, value, matchValue]` triple the
// credential database's wire format uses: a strict 3-element array of
// text strings, where MatchValue is what DCQL value-matching compares
// against.
type Display struct {
	DisplayName string
	Value       string
	MatchValue  string
}

// MarshalCBOR implements cbor.Marshaler for Display.
func (d Display) MarshalCBOR() ([]byte, error) {
	return cborEncMode.Marshal([3]string{d.DisplayName, d.Value, d.MatchValue})
}

// UnmarshalCBOR implements cbor.Unmarshaler for Display.
func (d *Display) UnmarshalCBOR(data []byte) error {
	var arr [3]string
	if err := cborDecMode.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("display triple: %w", err)
	}
	d.DisplayName, d.Value, d.MatchValue = arr[0], arr[1], arr[2]
	return nil
}

// MdocForm is a credential's ISO-mdoc representation.
type MdocForm struct {
	DocumentID string                        `cbor:"documentId"`
	DocType    string                         `cbor:"docType"`
	Namespaces map[string]map[string]Display `cbor:"namespaces"`
}

// SDJWTForm is a credential's SD-JWT-VC representation.
type SDJWTForm struct {
	DocumentID string             `cbor:"documentId"`
	VCT        string             `cbor:"vct"`
	Claims     map[string]Display `cbor:"claims"`
}

// Credential is one wallet-held document instance. It may carry an mdoc
// form, an SD-JWT form, or both, sharing one DocumentID.
type Credential struct {
	Title    string     `cbor:"title"`
	Subtitle string     `cbor:"subtitle"`
	Bitmap   []byte     `cbor:"bitmap"`
	Mdoc     *MdocForm  `cbor:"mdoc"`
	SDJWT    *SDJWTForm `cbor:"sdjwt"`

	// merged is the qualified-claim-name -> Display dictionary built once
	// at load time: claims from both forms are merged into a single
	// dictionary keyed by their qualified claim name.
	merged map[string]Display
}

// DocumentID returns the credential's identity for deduplication. Every
// well-formed credential carries at least one form.
func (c *Credential) DocumentID() string {
	if c.Mdoc != nil {
		return c.Mdoc.DocumentID
	}
	if c.SDJWT != nil {
		return c.SDJWT.DocumentID
	}
	return ""
}

// MdocDocType returns the mdoc doctype, or "" if the credential has no
// mdoc form.
func (c *Credential) MdocDocType() string {
	if c.Mdoc == nil {
		return ""
	}
	return c.Mdoc.DocType
}

// VCT returns the SD-JWT-VC type, or "" if the credential has no SD-JWT
// form.
func (c *Credential) VCT() string {
	if c.SDJWT == nil {
		return ""
	}
	return c.SDJWT.VCT
}

// Claim looks up a qualified claim name ("namespace.element" for mdoc,
// dot-path for SD-JWT) in the merged claim dictionary.
func (c *Credential) Claim(qualifiedName string) (Display, bool) {
	d, ok := c.buildMerged()[qualifiedName]
	return d, ok
}

func (c *Credential) buildMerged() map[string]Display {
	if c.merged != nil {
		return c.merged
	}
	merged := make(map[string]Display)
	if c.Mdoc != nil {
		for ns, elements := range c.Mdoc.Namespaces {
			for name, disp := range elements {
				merged[ns+"."+name] = disp
			}
		}
	}
	if c.SDJWT != nil {
		for name, disp := range c.SDJWT.Claims {
			merged[name] = disp
		}
	}
	c.merged = merged
	return merged
}

// Database is the top-level credential store the decoder produces.
type Database struct {
	Protocols   []string     `cbor:"protocols"`
	Credentials []Credential `cbor:"credentials"`
}

// HasProtocol reports whether protocol is among the wallet's opted-in
// protocols.
func (db *Database) HasProtocol(protocol string) bool {
	for _, p := range db.Protocols {
		if p == protocol {
			return true
		}
	}
	return false
}
