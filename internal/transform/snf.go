// Package transform implements the share-normal-form rewrite:
// a one-step rule, TransformOne, hoisting shareable subterms of Record,
// RecRecord, List and MetaValue nodes into fresh let-bindings, and a
// recursive driver, Transform, that applies the rule bottom-up over an
// entire term tree.
//
// Grounded line-for-line on transform_one/should_share/with_bindings in
// the original evaluator's share-normal-form pass.
package transform

import (
	"github.com/cwbudde/crucible/internal/term"
	"github.com/cwbudde/crucible/pkg/ident"
)

// binding is one (fresh identifier, hoisted term) pair accumulated while
// scanning a node's children, in the order they were generated.
type binding struct {
	id ident.Ident
	t  term.Term
}

// Transform applies TransformOne bottom-up over t: children are
// normalized first, so any Var introduced by a parent's hoisting is never
// itself a candidate for further hoisting (it is already Var, which
// should_share rejects).
func Transform(gen *ident.Generator, t term.Term) term.Term {
	return TransformOne(gen, transformChildren(gen, t))
}

// transformChildren recursively normalizes t's immediate children without
// touching t's own top-level shape — TransformOne does that.
func transformChildren(gen *ident.Generator, t term.Term) term.Term {
	switch n := t.(type) {
	case term.Fun:
		n.Body = Transform(gen, n.Body)
		return n
	case term.Let:
		n.Bound = Transform(gen, n.Bound)
		n.Body = Transform(gen, n.Body)
		return n
	case term.App:
		n.Fn = Transform(gen, n.Fn)
		n.Arg = Transform(gen, n.Arg)
		return n
	case term.Op1:
		n.Arg = Transform(gen, n.Arg)
		return n
	case term.Op2:
		n.Fst = Transform(gen, n.Fst)
		n.Snd = Transform(gen, n.Snd)
		return n
	case term.OpN:
		args := make([]term.Term, len(n.Args))
		for i, a := range n.Args {
			args[i] = Transform(gen, a)
		}
		n.Args = args
		return n
	case term.Record:
		n.Fields = mapTransform(gen, n.Fields)
		return n
	case term.RecRecord:
		n.Fields = mapTransform(gen, n.Fields)
		for i, df := range n.DynFields {
			df.Name = Transform(gen, df.Name)
			df.Value = Transform(gen, df.Value)
			n.DynFields[i] = df
		}
		return n
	case term.List:
		elems := make([]term.Term, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = Transform(gen, e)
		}
		n.Elems = elems
		return n
	case term.StrChunks:
		chunks := make([]term.Chunk, len(n.Chunks))
		for i, c := range n.Chunks {
			if c.IsExpr() {
				c.Expr = Transform(gen, c.Expr)
			}
			chunks[i] = c
		}
		n.Chunks = chunks
		return n
	case term.Promise:
		n.Body = Transform(gen, n.Body)
		return n
	case term.Assume:
		n.Body = Transform(gen, n.Body)
		return n
	case term.DefaultValue:
		n.Value = Transform(gen, n.Value)
		return n
	case term.Docstring:
		n.Value = Transform(gen, n.Value)
		return n
	case term.ContractWithDefault:
		n.Value = Transform(gen, n.Value)
		return n
	case term.MetaValue:
		if n.Value != nil {
			n.Value = Transform(gen, n.Value)
		}
		return n
	default:
		// Atoms, Var, Label, Sym, Enum, Contract, Import, ResolvedImport:
		// no children to recurse into.
		return t
	}
}

func mapTransform(gen *ident.Generator, fields *ident.Map[term.Term]) *ident.Map[term.Term] {
	out := ident.NewMap[term.Term]()
	fields.Range(func(id ident.Ident, v term.Term) bool {
		out.Set(id, Transform(gen, v))
		return true
	})
	return out
}

// TransformOne rewrites the top node only — callers apply it bottom-up via
// Transform. Record/List hoist every should_share child under a Normal
// binding; RecRecord hoists every non-constant child (even bare variables)
// under a Revertible binding; MetaValue hoists its .Value, if present and
// should_share, under a Normal binding. Every other node passes through
// unchanged.
func TransformOne(gen *ident.Generator, t term.Term) term.Term {
	switch n := t.(type) {
	case term.Record:
		fields, binds := hoistFields(gen, n.Fields, term.ShouldShare)
		n.Fields = fields
		return withBindings(n, binds, n.Pos(), term.Normal)
	case term.RecRecord:
		// CHANGE THIS CONDITION CAREFULLY: RecRecord wiring at evaluation
		// time assumes every field RHS is a generated variable or a
		// constant, never a user variable — so here we hoist on
		// !IsConstant, not on ShouldShare.
		fields, binds := hoistFields(gen, n.Fields, func(t term.Term) bool { return !term.IsConstant(t) })
		n.Fields = fields
		for i, df := range n.DynFields {
			if !term.IsConstant(df.Value) {
				fresh := gen.Fresh()
				binds = append(binds, binding{fresh, df.Value})
				df.Value = term.Var{ID: fresh}
			}
			n.DynFields[i] = df
		}
		return withBindings(n, binds, n.Pos(), term.Revertible)
	case term.List:
		elems := make([]term.Term, len(n.Elems))
		var binds []binding
		for i, e := range n.Elems {
			if term.ShouldShare(e) {
				fresh := gen.Fresh()
				binds = append(binds, binding{fresh, e})
				elems[i] = term.Var{ID: fresh}
			} else {
				elems[i] = e
			}
		}
		n.Elems = elems
		return withBindings(n, binds, n.Pos(), term.Normal)
	case term.MetaValue:
		if n.Value == nil || !term.ShouldShare(n.Value) {
			return n
		}
		fresh := gen.Fresh()
		inner := n
		inner.Value = term.Var{ID: fresh}
		return term.WithPos(term.Let{
			ID:      fresh,
			Bound:   n.Value,
			Body:    term.WithPos(inner, n.Pos().Inherit()),
			Binding: term.Normal,
		}, n.Pos())
	default:
		return t
	}
}

// hoistFields walks fields in insertion order, replacing every value that
// satisfies share with a fresh Var and accumulating (fresh, original)
// bindings, preserving field order in the rebuilt map.
func hoistFields(gen *ident.Generator, fields *ident.Map[term.Term], share func(term.Term) bool) (*ident.Map[term.Term], []binding) {
	out := ident.NewMap[term.Term]()
	var binds []binding
	fields.Range(func(id ident.Ident, v term.Term) bool {
		if share(v) {
			fresh := gen.Fresh()
			binds = append(binds, binding{fresh, v})
			out.Set(id, term.Var{ID: fresh})
		} else {
			out.Set(id, v)
		}
		return true
	})
	return out, binds
}

// withBindings wraps body in nested Let bindings, outside-in, one per
// accumulated binding. The innermost body's position is marked inherited;
// each wrapping Let keeps the original node's own position, exactly
// mirroring with_bindings's position handling.
func withBindings(body term.Term, binds []binding, pos term.Position, bt term.BindingType) term.Term {
	if len(binds) == 0 {
		return body
	}
	acc := term.WithPos(body, pos.Inherit())
	for i := len(binds) - 1; i >= 0; i-- {
		b := binds[i]
		acc = term.WithPos(term.Let{ID: b.id, Bound: b.t, Body: acc, Binding: bt}, pos)
	}
	return acc
}
