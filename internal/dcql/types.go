// Package dcql implements the two-phase Digital Credentials Query
// Language resolver: evaluate a normalized query against the credential
// database, then explode the result into concrete combinations. The
// query types (CredentialQuery, RequestedClaim, ClaimSet,
// CredentialSetQuery) are cut down to exactly the subset the matcher
// needs to evaluate a query, not build or sign one.
package dcql

import "github.com/dc4eu/credmatcher/internal/credentialdb"

// Format identifiers for the credential formats the matcher understands.
const (
	FormatMsoMdoc   = "mso_mdoc"
	FormatMsoMdocZK = "mso_mdoc_zk"
	FormatSDJWTVC   = "dc+sd-jwt"
)

// RequestedClaim names one claim a CredentialQuery asks a credential to
// disclose, optionally restricted to a set of acceptable values.
type RequestedClaim struct {
	ID             string
	Path           []string
	Values         []string
	IntentToRetain bool
}

// Key returns the dot-joined form of Path used as the key into a
// credential's merged claim dictionary.
func (c RequestedClaim) Key() string {
	return dotJoin(c.Path)
}

func dotJoin(path []string) string {
	if len(path) == 0 {
		return ""
	}
	out := path[0]
	for _, p := range path[1:] {
		out += "." + p
	}
	return out
}

// ClaimSet is an ordered list of RequestedClaim IDs, evaluated in order,
// first-satisfiable-wins.
type ClaimSet struct {
	ClaimIdentifiers []string
}

// CredentialQuery asks for one credential matching a format-specific
// filter (mdoc doctype or SD-JWT VCT) and a set of claims to disclose.
type CredentialQuery struct {
	ID              string
	Format          string
	MdocDocType     string
	VCTValues       []string
	RequestedClaims []RequestedClaim
	ClaimSets       []ClaimSet
}

// CredentialSetOption is one option within a CredentialSetQuery: a list
// of CredentialQuery IDs that together satisfy one use case.
type CredentialSetOption struct {
	CredentialIDs []string
}

// CredentialSetQuery groups CredentialQuery IDs into alternative options.
// When Required is set, at least one option must be satisfied.
type CredentialSetQuery struct {
	Required bool
	Options  []CredentialSetOption
}

// Query is the normalized DCQL query the protocol parsers hand to the
// engine, whichever wire protocol it came from. The engine is always the
// sole evaluator, regardless of which parser produced the Query.
type Query struct {
	CredentialQueries []CredentialQuery
	CredentialSets    []CredentialSetQuery
}

// MatchedClaim pairs a resolved RequestedClaim with the credential
// Display value it resolved to.
type MatchedClaim struct {
	Key            string
	Display        credentialdb.Display
	IntentToRetain bool
}

// Match is a (credential, disclosed-claims) pair: one credential that
// satisfied a CredentialQuery, with the claims it disclosed.
type Match struct {
	Credential *credentialdb.Credential
	Claims     []MatchedClaim
}

// Member is one CredentialQuery's matches within an option.
type Member struct {
	Matches []Match
}

// CredentialSetOptionResult is one satisfied combination of members
// within a CredentialSet.
type CredentialSetOptionResult struct {
	Members []Member
}

// CredentialSet is the resolved outcome for one CredentialSetQuery (or,
// for implicit queries with no credential-set section, the synthesized
// single-option set for one CredentialQuery).
type CredentialSet struct {
	Optional bool
	Options  []CredentialSetOptionResult
}

// Response is the full result of evaluating one DCQL query against the
// database.
type Response struct {
	CredentialSets []CredentialSet
}

// CombinationElement carries one member's matches within a Combination.
// An omitted credential-set contributes no elements; any other
// credential-set contributes one element per member of its chosen option.
type CombinationElement struct {
	Matches []Match
}

// Combination is one concrete pick exploded from the Response, the unit
// handed to the picker.
type Combination struct {
	CombinationNumber int
	Elements          []CombinationElement
}
