package dcql

import (
	"github.com/dc4eu/credmatcher/internal/credentialdb"
	"github.com/dc4eu/credmatcher/internal/policy"
)

// Evaluate runs the full resolution pipeline against db: meta-filter,
// per-credential claim resolution, credential-set resolution, and
// consolidation. It reports ok=false when the query as a whole fails to
// resolve, in which case the caller must emit nothing for this request.
func Evaluate(db *credentialdb.Database, q *Query, pol *policy.Policy) (*Response, bool) {
	responses := evaluateQueries(db, q, pol)

	var sets []CredentialSet
	if len(q.CredentialSets) == 0 {
		// Implicit semantics (DCQL §6.4.2): every CredentialQuery must
		// have at least one match, or the whole query fails.
		for _, cq := range q.CredentialQueries {
			matches := responses[cq.ID]
			if len(matches) == 0 {
				return nil, false
			}
			sets = append(sets, CredentialSet{
				Optional: false,
				Options: []CredentialSetOptionResult{
					{Members: []Member{{Matches: matches}}},
				},
			})
		}
	} else {
		for _, csq := range q.CredentialSets {
			var satisfied []CredentialSetOptionResult
			for _, opt := range csq.Options {
				members, ok := resolveOption(opt, responses)
				if ok {
					satisfied = append(satisfied, CredentialSetOptionResult{Members: members})
				}
			}
			if csq.Required && len(satisfied) == 0 {
				return nil, false
			}
			sets = append(sets, CredentialSet{Optional: !csq.Required, Options: satisfied})
		}
	}

	for i := range sets {
		sets[i] = consolidate(sets[i])
	}

	return &Response{CredentialSets: sets}, true
}

// resolveOption reports whether every credential-id in opt has a non-empty
// response, returning the ordered list of Members if so.
func resolveOption(opt CredentialSetOption, responses map[string][]Match) ([]Member, bool) {
	members := make([]Member, 0, len(opt.CredentialIDs))
	for _, id := range opt.CredentialIDs {
		matches := responses[id]
		if len(matches) == 0 {
			return nil, false
		}
		members = append(members, Member{Matches: matches})
	}
	return members, true
}

// evaluateQueries runs the meta-filter and per-credential claim
// resolution for every CredentialQuery in q, keyed by CredentialQuery.ID.
func evaluateQueries(db *credentialdb.Database, q *Query, pol *policy.Policy) map[string][]Match {
	responses := make(map[string][]Match, len(q.CredentialQueries))
	for _, cq := range q.CredentialQueries {
		subset := metaFilter(db, cq, pol)
		var matches []Match
		for _, cred := range subset {
			claims, ok := resolveCredentialClaims(cred, cq)
			if !ok {
				continue
			}
			matches = append(matches, Match{Credential: cred, Claims: claims})
		}
		responses[cq.ID] = matches
	}
	return responses
}

// metaFilter selects the credentials whose metadata matches cq's
// format-specific predicate: mdoc doctype, ZK-wrapped mdoc doctype (only
// when policy treats mso_mdoc_zk as mso_mdoc), or SD-JWT VCT.
func metaFilter(db *credentialdb.Database, cq CredentialQuery, pol *policy.Policy) []*credentialdb.Credential {
	var out []*credentialdb.Credential
	for i := range db.Credentials {
		cred := &db.Credentials[i]
		switch cq.Format {
		case FormatMsoMdoc:
			if cred.MdocDocType() == cq.MdocDocType {
				out = append(out, cred)
			}
		case FormatMsoMdocZK:
			if pol != nil && pol.TreatMsoMdocZKAsMsoMdoc && cred.MdocDocType() == cq.MdocDocType {
				out = append(out, cred)
			}
		case FormatSDJWTVC:
			vct := cred.VCT()
			if vct == "" {
				continue
			}
			for _, v := range cq.VCTValues {
				if v == vct {
					out = append(out, cred)
					break
				}
			}
		}
	}
	return out
}

// resolveCredentialClaims resolves one credential against one
// CredentialQuery: with no claim-sets, every requested claim must
// resolve; with claim-sets, the first set whose claims all resolve wins.
func resolveCredentialClaims(cred *credentialdb.Credential, cq CredentialQuery) ([]MatchedClaim, bool) {
	if len(cq.ClaimSets) == 0 {
		matched := make([]MatchedClaim, 0, len(cq.RequestedClaims))
		for _, rc := range cq.RequestedClaims {
			mc, ok := resolveClaim(cred, rc)
			if !ok {
				return nil, false
			}
			matched = append(matched, mc)
		}
		return matched, true
	}

	for _, set := range cq.ClaimSets {
		matched := make([]MatchedClaim, 0, len(set.ClaimIdentifiers))
		resolved := true
		for _, id := range set.ClaimIdentifiers {
			rc, found := findRequestedClaim(cq.RequestedClaims, id)
			if !found {
				resolved = false
				break
			}
			mc, ok := resolveClaim(cred, rc)
			if !ok {
				resolved = false
				break
			}
			matched = append(matched, mc)
		}
		if resolved {
			return matched, true
		}
	}
	return nil, false
}

func findRequestedClaim(claims []RequestedClaim, id string) (RequestedClaim, bool) {
	for _, c := range claims {
		if c.ID == id {
			return c, true
		}
	}
	return RequestedClaim{}, false
}

func resolveClaim(cred *credentialdb.Credential, rc RequestedClaim) (MatchedClaim, bool) {
	disp, ok := cred.Claim(rc.Key())
	if !ok {
		return MatchedClaim{}, false
	}
	if len(rc.Values) > 0 {
		found := false
		for _, v := range rc.Values {
			if v == disp.MatchValue {
				found = true
				break
			}
		}
		if !found {
			return MatchedClaim{}, false
		}
	}
	return MatchedClaim{Key: rc.Key(), Display: disp, IntentToRetain: rc.IntentToRetain}, true
}

// consolidate flattens single-member options within one CredentialSet
// into one synthetic option at the head, followed by the remaining
// multi-member options in original order. A no-op when fewer than two
// single-member options exist.
func consolidate(cs CredentialSet) CredentialSet {
	singleCount := 0
	for _, opt := range cs.Options {
		if len(opt.Members) == 1 {
			singleCount++
		}
	}
	if singleCount < 2 {
		return cs
	}

	var singleMatches []Match
	rest := make([]CredentialSetOptionResult, 0, len(cs.Options)-singleCount)
	for _, opt := range cs.Options {
		if len(opt.Members) == 1 {
			singleMatches = append(singleMatches, opt.Members[0].Matches...)
		} else {
			rest = append(rest, opt)
		}
	}

	merged := CredentialSetOptionResult{Members: []Member{{Matches: singleMatches}}}
	options := append([]CredentialSetOptionResult{merged}, rest...)
	return CredentialSet{Optional: cs.Optional, Options: options}
}

// Explode enumerates the Cartesian product across credential-sets in
// odometer order (last index varies fastest), where each optional set
// carries one extra "omit" index.
func Explode(resp *Response) []Combination {
	n := len(resp.CredentialSets)
	if n == 0 {
		return nil
	}

	counts := make([]int, n)
	total := 1
	for i, cs := range resp.CredentialSets {
		c := len(cs.Options)
		if cs.Optional {
			c++
		}
		counts[i] = c
		total *= c
	}
	if total == 0 {
		return nil
	}

	combos := make([]Combination, 0, total)
	indices := make([]int, n)
	for num := 0; num < total; num++ {
		var elements []CombinationElement
		for i, cs := range resp.CredentialSets {
			idx := indices[i]
			if idx == len(cs.Options) {
				continue // omit sentinel: contribute nothing
			}
			for _, member := range cs.Options[idx].Members {
				elements = append(elements, CombinationElement{Matches: member.Matches})
			}
		}
		combos = append(combos, Combination{CombinationNumber: num, Elements: elements})

		for i := n - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < counts[i] {
				break
			}
			indices[i] = 0
		}
	}
	return combos
}
