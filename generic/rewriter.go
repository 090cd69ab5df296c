// Package generic threads a type parameter through a declaration library.
//
// Every object type declaring the target field (by default "properties") is
// marked: the field's type becomes T, or Partial<T> for request-shaped
// declarations, and the declaration gains `T extends <constraint>`. Then every
// declaration that is a bare reference to a marked name, or a union or
// intersection with such a member, passes T along.
//
// The rewrite runs exactly one marking sweep and one propagation sweep in
// source order. Declarations reached only through a propagated (not marked)
// declaration are reported in Result.Unreached rather than chased further.
package generic

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/logger"
	"github.com/teranos/notion-schema/tsdecl"
)

const (
	// DefaultTargetField is the member whose presence marks a declaration.
	DefaultTargetField = "properties"

	// TypeParam is the name of the threaded type parameter.
	TypeParam = "T"
)

// Options configures a Rewriter.
type Options struct {
	// TargetField defaults to DefaultTargetField
	TargetField string
	// Constraint lists the property names T ranges over, in order
	Constraint []string
	// ResponseShaped defaults to IsResponseShaped
	ResponseShaped func(name string) bool
}

// Rewriter marks and propagates the type parameter over a Library.
type Rewriter struct {
	opts       Options
	constraint string
	logger     *zap.SugaredLogger
}

// NewRewriter creates a rewriter. A nil logger disables logging.
func NewRewriter(opts Options, log *zap.SugaredLogger) *Rewriter {
	if opts.TargetField == "" {
		opts.TargetField = DefaultTargetField
	}
	if opts.ResponseShaped == nil {
		opts.ResponseShaped = IsResponseShaped
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Rewriter{
		opts:       opts,
		constraint: ConstraintExpr(opts.Constraint),
		logger:     log,
	}
}

// rewrite is the state of one Rewrite call. The library itself is never
// modified; all changes are collected as edits keyed by declaration.
type rewrite struct {
	*Rewriter
	lib    *tsdecl.Library
	result *Result

	marked     map[string]bool
	propagated map[string]bool
	withParam  map[*tsdecl.Declaration]bool
}

// Rewrite runs both sweeps over lib. It fails with errors.ErrTargetFieldAmbiguous
// when an object type declares the target field more than once.
func (r *Rewriter) Rewrite(lib *tsdecl.Library) (*Result, error) {
	rw := &rewrite{
		Rewriter:   r,
		lib:        lib,
		result:     &Result{Library: lib},
		marked:     make(map[string]bool),
		propagated: make(map[string]bool),
		withParam:  make(map[*tsdecl.Declaration]bool),
	}

	for _, decl := range lib.Declarations {
		if err := rw.mark(decl); err != nil {
			return nil, err
		}
	}
	for _, decl := range lib.Declarations {
		rw.propagate(decl)
	}
	rw.collectUnreached()

	r.logger.Infow("rewrote declaration library",
		logger.FieldTargetField, r.opts.TargetField,
		logger.FieldMarked, len(rw.result.Marked),
		logger.FieldPropagated, len(rw.result.Propagated),
		logger.FieldWarnings, len(rw.result.Warnings))

	return rw.result, nil
}

// mark rewrites the target field of an object type and adds the parameter.
func (rw *rewrite) mark(decl *tsdecl.Declaration) error {
	if decl.Kind != tsdecl.KindTypeLiteral {
		return nil
	}

	members := decl.MembersNamed(rw.opts.TargetField)
	switch len(members) {
	case 0:
		return nil
	case 1:
	default:
		return errors.WithHint(
			errors.Mark(
				errors.Newf("declaration %s has %d %q members", decl.Name, len(members), rw.opts.TargetField),
				errors.ErrTargetFieldAmbiguous,
			),
			"the declaration library changed shape; inspect the declaration before rewriting",
		)
	}

	wrapped := TypeParam
	if !rw.opts.ResponseShaped(decl.Name) {
		wrapped = "Partial<" + TypeParam + ">"
	}

	member := members[0]
	if member.TypeSpan.IsZero() {
		rw.edit(tsdecl.Span{Start: member.Span.End, End: member.Span.End}, ": "+wrapped)
	} else if member.TypeSpan.Text(rw.lib.Source) != wrapped {
		rw.edit(member.TypeSpan, wrapped)
	}
	rw.ensureParam(decl)

	if !rw.marked[decl.Name] {
		rw.marked[decl.Name] = true
		rw.result.Marked = append(rw.result.Marked, decl.Name)
	}
	rw.logger.Debugw("marked declaration",
		logger.FieldDeclaration, decl.Name,
		"wrapped", wrapped)
	return nil
}

// propagate passes T to bare references of marked declarations.
func (rw *rewrite) propagate(decl *tsdecl.Declaration) {
	changed := false
	reaches := false

	switch decl.Kind {
	case tsdecl.KindReference:
		reaches = rw.refersToMarked(decl.Ref)
		changed = rw.parameterize(decl.Ref)

	case tsdecl.KindUnion, tsdecl.KindIntersection:
		for _, part := range decl.Parts {
			if part.Ref != nil {
				if rw.refersToMarked(part.Ref) {
					reaches = true
				}
				if rw.parameterize(part.Ref) {
					changed = true
				}
				continue
			}
			if part.Nested {
				rw.warnNested(decl, part)
			}
		}
	}

	if !changed {
		// Propagated on an earlier run; keep its constraint current.
		if reaches && decl.HasParam(TypeParam) {
			rw.ensureParam(decl)
		}
		return
	}
	rw.ensureParam(decl)
	if !rw.marked[decl.Name] && !rw.propagated[decl.Name] {
		rw.propagated[decl.Name] = true
		rw.result.Propagated = append(rw.result.Propagated, decl.Name)
	}
	rw.logger.Debugw("propagated type parameter", logger.FieldDeclaration, decl.Name)
}

// parameterize appends <T> to a bare reference of a marked declaration.
// References that already carry type arguments are left alone.
func (rw *rewrite) parameterize(ref *tsdecl.Reference) bool {
	if ref == nil || ref.HasArgs || !rw.marked[ref.Name] {
		return false
	}
	rw.edit(tsdecl.Span{Start: ref.NameEnd, End: ref.NameEnd}, "<"+TypeParam+">")
	return true
}

func (rw *rewrite) refersToMarked(ref *tsdecl.Reference) bool {
	return ref != nil && rw.marked[ref.Name]
}

func (rw *rewrite) warnNested(decl *tsdecl.Declaration, part tsdecl.Part) {
	var names []string
	for _, m := range part.Mentions {
		if rw.marked[m] {
			names = append(names, m)
		}
	}
	if len(names) == 0 {
		return
	}

	w := Warning{
		Declaration: decl.Name,
		Part:        part.Span.Text(rw.lib.Source),
		Names:       names,
	}
	rw.result.Warnings = append(rw.result.Warnings, w)
	rw.logger.Warnw("unsupported composition, left unchanged",
		logger.FieldDeclaration, decl.Name,
		"part", w.Part,
		logger.FieldMarked, names)
}

// ensureParam declares `T extends <constraint>` unless the declaration
// already has a parameter named T. T goes first: a bare reference to a
// declaration with parameters only type-checks when they all have defaults,
// so Name<T> must bind T.
func (rw *rewrite) ensureParam(decl *tsdecl.Declaration) {
	if rw.withParam[decl] {
		return
	}
	rw.withParam[decl] = true

	if existing, ok := decl.Param(TypeParam); ok {
		rw.updateConstraint(decl, existing)
		return
	}

	param := fmt.Sprintf("%s extends %s", TypeParam, rw.constraint)
	if decl.ParamSpan.IsZero() {
		rw.edit(tsdecl.Span{Start: decl.NameSpan.End, End: decl.NameSpan.End}, "<"+param+">")
		return
	}
	open := decl.ParamSpan.Start + 1
	rw.edit(tsdecl.Span{Start: open, End: open}, param+", ")
}

// updateConstraint replaces a literal-union constraint on an existing T when
// the property names changed since the last rewrite. Hand-written constraints
// of any other shape are left alone, as is everything when no names are given.
func (rw *rewrite) updateConstraint(decl *tsdecl.Declaration, param tsdecl.TypeParam) {
	if len(rw.opts.Constraint) == 0 || !param.LiteralConstraint {
		return
	}
	current := param.Constraint.Text(rw.lib.Source)
	if current == rw.constraint {
		return
	}
	rw.edit(param.Constraint, rw.constraint)
	rw.result.Reconstrained = append(rw.result.Reconstrained, decl.Name)
	rw.logger.Debugw("replaced type parameter constraint",
		logger.FieldDeclaration, decl.Name,
		"previous", current)
}

// collectUnreached lists declarations with bare references to propagated
// declarations. Reaching them would take another sweep.
func (rw *rewrite) collectUnreached() {
	seen := make(map[string]bool)
	note := func(decl *tsdecl.Declaration, ref *tsdecl.Reference) {
		if ref == nil || ref.HasArgs || !rw.propagated[ref.Name] || seen[decl.Name] {
			return
		}
		seen[decl.Name] = true
		rw.result.Unreached = append(rw.result.Unreached, decl.Name)
		rw.logger.Debugw("reference to propagated declaration left for a later sweep",
			logger.FieldDeclaration, decl.Name,
			"references", ref.Name)
	}

	for _, decl := range rw.lib.Declarations {
		note(decl, decl.Ref)
		for _, part := range decl.Parts {
			note(decl, part.Ref)
		}
	}
}

func (rw *rewrite) edit(span tsdecl.Span, text string) {
	rw.result.edits = append(rw.result.edits, tsdecl.Edit{Span: span, Text: text})
}
