// Package policy holds the behavioral knobs that govern ambiguous corners
// of matching and emission, made explicit rather than hard-coded.
// Populated once via creasty/defaults: the sandbox has no environment
// and no filesystem, so Policy is compiled-in only, with no env-var or
// YAML load step.
package policy

import "github.com/creasty/defaults"

// Policy is compiled-in, never loaded from a file or environment
// variable.
type Policy struct {
	// FirstMatchOnlyOnV1 makes explicit that v1 (getWasmVersion < 2)
	// emission surfaces only the first element's first match.
	FirstMatchOnlyOnV1 bool `default:"true"`

	// TreatMsoMdocZKAsMsoMdoc routes the mso_mdoc_zk format through the
	// same doctype-equality meta-filter as mso_mdoc: it is a valid format
	// with no divergent matching semantics of its own.
	TreatMsoMdocZKAsMsoMdoc bool `default:"true"`
}

// New returns a Policy populated with its compiled-in defaults.
func New() (*Policy, error) {
	p := &Policy{}
	if err := defaults.Set(p); err != nil {
		return nil, err
	}
	return p, nil
}
