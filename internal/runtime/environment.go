// Package runtime implements the evaluator's shared mutable state: closures,
// thunks with weak-update discipline, environments and the machine's
// explicit stack.
package runtime

import (
	"github.com/cwbudde/crucible/internal/term"
	"github.com/cwbudde/crucible/pkg/ident"
)

// Closure pairs a term with the environment it should be evaluated in
//.
type Closure struct {
	Body term.Term
	Env  *Environment
}

// Binding is what an Environment maps an identifier to: a thunk together
// with the purely-diagnostic reason it was bound.
type Binding struct {
	Thunk *Thunk
	Kind  term.IdentKind
}

// Environment is a finite mapping from identifier to (thunk, id_kind)
//. Unlike the teacher's case-insensitive, single-map-per-scope
// design, environments here are immutable-by-convention persistent maps:
// Extend returns a new Environment sharing the parent's storage, since
// (I1) shadowing occurs by insertion, never mutation, and the evaluator
// routinely needs to capture "the environment at this point" inside a
// Closure while continuing to extend the live one.
type Environment struct {
	bindings *ident.Map[Binding]
	outer    *Environment
}

// NewEnvironment returns an empty root environment — the global_env the
// evaluator's entry point is given.
func NewEnvironment() *Environment {
	return &Environment{bindings: ident.NewMap[Binding]()}
}

// Extend returns a new environment with binding in scope, nested under e.
// e itself is never mutated, matching I1.
func (e *Environment) Extend(id ident.Ident, b Binding) *Environment {
	child := &Environment{bindings: ident.NewMap[Binding](), outer: e}
	child.bindings.Set(id, b)
	return child
}

// Get looks up id in this environment, then recursively in outer scopes.
func (e *Environment) Get(id ident.Ident) (Binding, bool) {
	for env := e; env != nil; env = env.outer {
		if b, ok := env.bindings.Get(id); ok {
			return b, true
		}
	}
	return Binding{}, false
}

// ExtendWith layers rec's own local frame on top of e: a lookup checks
// rec's bindings first, falling back to e. Used by RecRecord wiring to
// make an existing thunk's closure see its sibling fields (§4.4) without
// rebuilding the chain it already closes over.
func (e *Environment) ExtendWith(rec *Environment) *Environment {
	return &Environment{bindings: rec.bindings, outer: e}
}

// Clone returns a shallow copy of e's local frame, sharing the outer
// chain — used when a closure captures "the environment at this point"
// (App's argument capture, Op2's second-operand capture) and the caller
// will go on to extend its own environment afterwards without the capture
// observing later insertions.
func (e *Environment) Clone() *Environment {
	if e == nil {
		return nil
	}
	return &Environment{bindings: e.bindings.Clone(), outer: e.outer}
}

// MutateInPlace applies f to e's own local frame, observed by every
// existing reference to e. This is the one sanctioned environment mutation
// in the whole machine: RecRecord wiring's "extend the target thunk's
// environment with rec_env"), which must be visible to
// the thunk's single owning Closure, not a copy of it.
func (e *Environment) MutateInPlace(id ident.Ident, b Binding) {
	e.bindings.Set(id, b)
}
