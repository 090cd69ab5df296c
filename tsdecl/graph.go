package tsdecl

import (
	"sort"
	"strings"

	"github.com/teranos/notion-schema/errors"
)

// Kind classifies a declaration by the shape of its definition.
type Kind int

const (
	// KindOther is any definition the rewriter passes through untouched.
	KindOther Kind = iota
	// KindTypeLiteral is an object type: `type X = { ... }` or `interface X { ... }`.
	KindTypeLiteral
	// KindUnion is a top-level union of two or more parts.
	KindUnion
	// KindIntersection is a top-level intersection of two or more parts.
	KindIntersection
	// KindReference is a bare reference: `type X = Y` or `type X = Y<Z>`.
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindTypeLiteral:
		return "type-literal"
	case KindUnion:
		return "union"
	case KindIntersection:
		return "intersection"
	case KindReference:
		return "reference"
	default:
		return "other"
	}
}

// TypeParam is one declared type parameter.
type TypeParam struct {
	Name string
	Span Span
	// Constraint is the type after extends; zero when there is none.
	Constraint Span
	// LiteralConstraint is set when the constraint is string or a union of
	// string literals.
	LiteralConstraint bool
}

// Member is a property signature of a type literal.
type Member struct {
	Name     string // unquoted
	Optional bool
	Span     Span // the whole member, name through type
	TypeSpan Span // the type annotation; zero when the member has none
}

// Reference is a (possibly qualified) named type reference.
type Reference struct {
	Name    string // "A" or "ns.A"
	Span    Span   // name through closing '>' of any type arguments
	NameEnd int    // offset just past the name
	HasArgs bool
}

// Part is one operand of a top-level union or intersection.
type Part struct {
	Span Span
	// Ref is set when the part is a bare reference, parentheses aside.
	Ref *Reference
	// Nested is set when the part is itself a union or intersection.
	Nested bool
	// Mentions lists every type name referenced inside the part.
	Mentions []string
}

// MentionsName reports whether the part refers to name anywhere inside it.
func (p Part) MentionsName(name string) bool {
	for _, m := range p.Mentions {
		if m == name {
			return true
		}
	}
	return false
}

// Declaration is one top-level type alias or interface.
type Declaration struct {
	Name      string
	Keyword   string // "type" or "interface"
	Kind      Kind
	Exported  bool
	Span      Span // the whole statement, trailing ';' included
	NameSpan  Span
	BodySpan  Span // the defining type, or the '{...}' body of an interface
	Params    []TypeParam
	ParamSpan Span // '<...>' after the name; zero when there are no parameters

	Members []Member   // KindTypeLiteral
	Parts   []Part     // KindUnion, KindIntersection
	Ref     *Reference // KindReference
}

// HasParam reports whether the declaration declares a type parameter named name.
func (d *Declaration) HasParam(name string) bool {
	for _, p := range d.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Param returns the type parameter called name.
func (d *Declaration) Param(name string) (TypeParam, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return TypeParam{}, false
}

// MembersNamed returns the property members called name.
func (d *Declaration) MembersNamed(name string) []Member {
	var out []Member
	for _, m := range d.Members {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// Statement is one top-level statement in source order. Decl is nil for
// statements kept verbatim.
type Statement struct {
	Span Span
	Decl *Declaration
}

// Library is a parsed declaration library. It is never mutated after Load.
type Library struct {
	Source       string
	Statements   []Statement
	Declarations []*Declaration
	byName       map[string][]*Declaration
}

// Lookup returns the declarations with the given name. Interfaces may be
// declared more than once.
func (lib *Library) Lookup(name string) []*Declaration {
	return lib.byName[name]
}

// Names returns the declared names in first-declaration order.
func (lib *Library) Names() []string {
	seen := make(map[string]bool, len(lib.Declarations))
	names := make([]string, 0, len(lib.Declarations))
	for _, d := range lib.Declarations {
		if !seen[d.Name] {
			seen[d.Name] = true
			names = append(names, d.Name)
		}
	}
	return names
}

// Edit replaces the source bytes in Span with Text. An empty span inserts.
type Edit struct {
	Span Span
	Text string
}

// Apply returns the library source with edits applied. Edits may be given in
// any order but must not overlap; insertions at the same offset keep their
// given order.
func (lib *Library) Apply(edits []Edit) (string, error) {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Span.Start < sorted[j].Span.Start
	})

	var sb strings.Builder
	sb.Grow(len(lib.Source))
	cursor := 0
	for _, e := range sorted {
		if e.Span.Start < cursor || e.Span.End < e.Span.Start || e.Span.End > len(lib.Source) {
			return "", errors.AssertionFailedf("overlapping or out-of-range edit at offset %d", e.Span.Start)
		}
		sb.WriteString(lib.Source[cursor:e.Span.Start])
		sb.WriteString(e.Text)
		cursor = e.Span.End
	}
	sb.WriteString(lib.Source[cursor:])
	return sb.String(), nil
}
