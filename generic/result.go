package generic

import (
	"fmt"
	"strings"

	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/tsdecl"
)

// Result is the outcome of one Rewrite. The source library is untouched;
// Render applies the collected edits to a copy of its text.
type Result struct {
	Library *tsdecl.Library

	// Marked lists declarations whose target field was rewritten, in source order
	Marked []string
	// Propagated lists declarations that gained T from a marked reference
	Propagated []string
	// Reconstrained lists declarations whose existing T constraint was
	// replaced with the current property names
	Reconstrained []string
	// Warnings lists compositions too deep to rewrite
	Warnings []Warning
	// Unreached lists declarations referencing a propagated declaration
	// without type arguments
	Unreached []string

	edits []tsdecl.Edit
}

// Render returns the rewritten library text. Declarations without edits are
// reproduced byte for byte.
func (r *Result) Render() (string, error) {
	return r.Library.Apply(r.edits)
}

// Changed reports whether rendering would differ from the source.
func (r *Result) Changed() bool {
	return len(r.edits) > 0
}

// Warning reports a nested union or intersection that mentions a marked
// declaration and was left unchanged.
type Warning struct {
	Declaration string
	Part        string   // source text of the offending operand
	Names       []string // marked names it mentions
}

// Error implements error. Warnings match errors.ErrUnsupportedComposition.
func (w Warning) Error() string {
	return fmt.Sprintf("unsupported composition in %s: %s mentions %s",
		w.Declaration, w.Part, strings.Join(w.Names, ", "))
}

// Err returns the warning as an error marked with errors.ErrUnsupportedComposition.
func (w Warning) Err() error {
	return errors.Mark(errors.New(w.Error()), errors.ErrUnsupportedComposition)
}
