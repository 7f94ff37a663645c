// Package picker applies the host's capability-version dialect, the
// first-requested/first-served document dedup rule, and invokes the
// picker ABI.
package picker

import (
	"fmt"

	"github.com/dc4eu/credmatcher/internal/dcql"
	"github.com/dc4eu/credmatcher/internal/hostabi"
	"github.com/dc4eu/credmatcher/internal/logging"
	"github.com/dc4eu/credmatcher/internal/merr"
	"github.com/dc4eu/credmatcher/internal/policy"
)

// DedupSet tracks documentIds already emitted during one matcher
// invocation. It is scoped to the whole invocation, not to one request
// or one combination: a document already emitted for an earlier request
// is skipped for every later request too.
type DedupSet struct {
	seen map[string]struct{}
}

// NewDedupSet returns an empty dedup set.
func NewDedupSet() *DedupSet {
	return &DedupSet{seen: make(map[string]struct{})}
}

// MarkIfNew reports whether documentId has not been seen before, and
// records it as seen either way calling it is a no-op on repeat calls
// with the same id.
func (d *DedupSet) MarkIfNew(documentID string) bool {
	if _, ok := d.seen[documentID]; ok {
		return false
	}
	d.seen[documentID] = struct{}{}
	return true
}

// Emit applies the host's v1/v2 emission dialect to resp's exploded
// combinations, skipping any credential whose documentId has already
// been emitted this invocation. log receives a diagnostic for every
// document skipped as a duplicate.
func Emit(host hostabi.Picker, resp *dcql.Response, version uint32, protocol string, pol *policy.Policy, seen *DedupSet, log *logging.Log) {
	for _, combo := range dcql.Explode(resp) {
		if version >= 2 {
			emitSet(host, combo, protocol, seen, log)
		} else {
			emitFlat(host, combo, protocol, seen, pol, log)
		}
	}
}

func logDeduped(log *logging.Log, documentID string) {
	if log == nil {
		return
	}
	d := merr.New(merr.CodeDedupedDocument)
	log.Debug("document already emitted; skipped", append(d.Fields(), "documentId", documentID)...)
}

// emitFlat implements the v1 dialect: only the first match in the first
// element is emitted and further elements/matches are skipped.
// internal/policy.FirstMatchOnlyOnV1 makes that choice explicit rather
// than hard-coded; when false, every match fans out as its own flat
// entry instead.
func emitFlat(host hostabi.Picker, combo dcql.Combination, protocol string, seen *DedupSet, pol *policy.Policy, log *logging.Log) {
	if pol != nil && !pol.FirstMatchOnlyOnV1 {
		emitFlatFull(host, combo, protocol, seen, log)
		return
	}
	if len(combo.Elements) == 0 || len(combo.Elements[0].Matches) == 0 {
		return
	}
	match := combo.Elements[0].Matches[0]
	documentID := match.Credential.DocumentID()
	if !seen.MarkIfNew(documentID) {
		logDeduped(log, documentID)
		return
	}

	entryID := fmt.Sprintf("%d %s %s", combo.CombinationNumber, protocol, documentID)
	host.AddStringIdEntry(entryID, match.Credential.Bitmap, match.Credential.Title, match.Credential.Subtitle, "", "")
	for _, claim := range match.Claims {
		host.AddFieldForStringIdEntry(entryID, claim.Display.DisplayName, claim.Display.Value)
	}
}

// emitFlatFull fans every match in every element out as its own flat
// entry, used only when FirstMatchOnlyOnV1 is disabled.
func emitFlatFull(host hostabi.Picker, combo dcql.Combination, protocol string, seen *DedupSet, log *logging.Log) {
	for _, element := range combo.Elements {
		for _, match := range element.Matches {
			documentID := match.Credential.DocumentID()
			if !seen.MarkIfNew(documentID) {
				logDeduped(log, documentID)
				continue
			}
			entryID := fmt.Sprintf("%d %s %s", combo.CombinationNumber, protocol, documentID)
			host.AddStringIdEntry(entryID, match.Credential.Bitmap, match.Credential.Title, match.Credential.Subtitle, "", "")
			for _, claim := range match.Claims {
				host.AddFieldForStringIdEntry(entryID, claim.Display.DisplayName, claim.Display.Value)
			}
		}
	}
}

// emitSet implements the v2 dialect: full fan-out of every match in
// every element of the combination, grouped under one set.
func emitSet(host hostabi.Picker, combo dcql.Combination, protocol string, seen *DedupSet, log *logging.Log) {
	setID := fmt.Sprintf("%d %s", combo.CombinationNumber, protocol)

	type pending struct {
		documentID string
		match      dcql.Match
	}
	var entries []pending
	for _, element := range combo.Elements {
		for _, match := range element.Matches {
			documentID := match.Credential.DocumentID()
			if !seen.MarkIfNew(documentID) {
				logDeduped(log, documentID)
				continue
			}
			entries = append(entries, pending{documentID: documentID, match: match})
		}
	}
	if len(entries) == 0 {
		return
	}

	host.AddEntrySet(setID, uint32(len(entries)))
	for i, e := range entries {
		entryID := fmt.Sprintf("%d %s %s", combo.CombinationNumber, protocol, e.documentID)
		host.AddEntryToSet(entryID, e.match.Credential.Bitmap, e.match.Credential.Title, e.match.Credential.Subtitle, "", "", "", setID, uint32(i))
		for _, claim := range e.match.Claims {
			host.AddFieldToEntrySet(entryID, claim.Display.DisplayName, claim.Display.Value, setID, uint32(i))
		}
	}
}
