package runtime

import "github.com/cwbudde/crucible/internal/term"

// Thunk is a shared, interior-mutable cell holding a closure.
// Multiple strong holders may alias the same Thunk; the stack only ever
// holds WeakThunk references, mirroring the reference evaluator's
// Rc::downgrade discipline even though Go's GC keeps the memory alive
// regardless of strong/weak distinctions.
//
// strong counts the one case this evaluator ever actually aliases a
// thunk under two names: RecRecord wiring reusing an existing generated
// variable's thunk for a sibling field (wireRecRecord's thunk.clone()
// equivalent). It is incremented there and nowhere else. The original
// evaluator also decrements on every scope exit, via Rust's ordinary Drop
// — a discipline with no single faithful call site once thunks are kept
// alive by Go's GC rather than by the count itself, and which this port
// does not attempt to reproduce. try_unique's sole-holder check is
// therefore exact for the alias it tracks, not a full refcounting GC.
type Thunk struct {
	closure    Closure
	strong     int
	revertible bool
	original   *Closure // set iff revertible; the pre-update closure
}

// NewThunk allocates a thunk for the given closure.
func NewThunk(c Closure) *Thunk {
	return &Thunk{closure: c, strong: 1}
}

// NewRevertibleThunk allocates a thunk that remembers its original closure
// so it can be restored by a later record merge. Used exclusively for RecRecord field bindings, whose
// BindingType the share-normal-form transform always sets to Revertible.
func NewRevertibleThunk(c Closure) *Thunk {
	orig := c
	return &Thunk{closure: c, strong: 1, revertible: true, original: &orig}
}

// IncRef registers another strong holder: called exactly once per
// RecRecord sibling alias, when wiring reuses an existing thunk instead
// of minting a fresh one.
func (t *Thunk) IncRef() *Thunk {
	if t != nil {
		t.strong++
	}
	return t
}

// Closure returns the thunk's current closure by value.
func (t *Thunk) Closure() Closure {
	return t.closure
}

// ExtendEnv layers rec on top of the thunk's own closure environment, so
// forcing it can resolve names rec provides (its RecRecord siblings)
// without losing anything already in scope. Used by RecRecord wiring to
// extend the target thunk's environment with rec_env in place (§4.4),
// rather than rebuilding the thunk from scratch.
func (t *Thunk) ExtendEnv(rec *Environment) {
	t.closure.Env = t.closure.Env.ExtendWith(rec)
}

// TryUnique returns (closure, true) if t has exactly one strong holder —
// the caller, which is expected to immediately discard t — or
// (Closure{}, false) if the thunk is shared and must be cloned from
// instead.
func (t *Thunk) TryUnique() (Closure, bool) {
	if t.strong <= 1 {
		return t.closure, true
	}
	return Closure{}, false
}

// Update overwrites the thunk's contents with c. Per spec invariant "A
// thunk whose body is a WHNF is never subject to an update after forcing",
// callers are expected to only call Update when ShouldUpdate(term) held at
// the point the update was scheduled.
func (t *Thunk) Update(c Closure) {
	t.closure = c
}

// Revertible reports whether this thunk remembers an original closure.
func (t *Thunk) Revertible() bool { return t.revertible }

// Original returns the closure the thunk was created with, for revertible
// thunks only. Callers must check Revertible first.
func (t *Thunk) Original() Closure {
	if t.original == nil {
		return t.closure
	}
	return *t.original
}

// Revert restores a revertible thunk to its original closure — used by the
// merge operator when it needs to re-derive a RecRecord field under a new
// recursive environment.
func (t *Thunk) Revert() {
	if t.original != nil {
		t.closure = *t.original
	}
}

// WeakThunk is a non-owning reference to a Thunk, the only kind of
// reference the Stack is allowed to hold — a structural mirror of the
// reference evaluator's Rc::downgrade, kept for the pending-update sites
// it documents even though Go's GC never actually reclaims a Thunk out
// from under a WeakThunk the way Rust's allocator would.
type WeakThunk struct {
	target *Thunk
}

// Downgrade produces a WeakThunk for t.
func Downgrade(t *Thunk) WeakThunk {
	return WeakThunk{target: t}
}

// Upgrade returns (thunk, true) unless t was never set.
func (w WeakThunk) Upgrade() (*Thunk, bool) {
	if w.target == nil {
		return nil, false
	}
	return w.target, true
}

// ShouldUpdate reports whether a just-reached term still needs its
// holding thunk updated: true unless t is already WHNF or is an enriched
// value. Enriched values are themselves WHNF,
// so the second check is redundant in practice; it is kept to mirror the
// reference machine's own should_update predicate exactly.
func ShouldUpdate(t term.Term) bool {
	return !t.IsWHNF() && !t.IsEnriched()
}
