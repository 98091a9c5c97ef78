package runtime

import (
	"testing"

	"github.com/cwbudde/crucible/internal/term"
	"github.com/cwbudde/crucible/pkg/ident"
)

func closureOf(t term.Term) Closure {
	return Closure{Body: t, Env: NewEnvironment()}
}

func TestNewThunkStartsWithOneStrongHolder(t *testing.T) {
	th := NewThunk(closureOf(term.NewNum(term.NoPos, 1)))
	c, ok := th.TryUnique()
	if !ok {
		t.Fatalf("a freshly created thunk must be unique")
	}
	if c.Body.(term.NumTerm).Value != 1 {
		t.Fatalf("expected the original closure body")
	}
}

func TestIncRefBreaksUniqueness(t *testing.T) {
	th := NewThunk(closureOf(term.NewNum(term.NoPos, 1)))
	th.IncRef()
	if _, ok := th.TryUnique(); ok {
		t.Fatalf("a thunk with two strong holders must not be unique")
	}
}

func TestWeakUpgradeSucceedsWhileStrongHolderRemains(t *testing.T) {
	th := NewThunk(closureOf(term.NewNull(term.NoPos)))
	weak := Downgrade(th)
	got, ok := weak.Upgrade()
	if !ok || got != th {
		t.Fatalf("expected upgrade to succeed and return the same thunk")
	}
}

func TestUpdateOverwritesClosure(t *testing.T) {
	th := NewThunk(closureOf(term.Var{ID: ident.New("x")}))
	newClosure := closureOf(term.NewNum(term.NoPos, 42))
	th.Update(newClosure)
	if th.Closure().Body.(term.NumTerm).Value != 42 {
		t.Fatalf("expected updated closure to be visible")
	}
}

func TestRevertibleThunkRemembersOriginal(t *testing.T) {
	orig := closureOf(term.NewNum(term.NoPos, 1))
	th := NewRevertibleThunk(orig)
	if !th.Revertible() {
		t.Fatalf("expected a revertible thunk")
	}
	th.Update(closureOf(term.NewNum(term.NoPos, 99)))
	if th.Closure().Body.(term.NumTerm).Value != 99 {
		t.Fatalf("expected the update to take effect")
	}
	th.Revert()
	if th.Closure().Body.(term.NumTerm).Value != 1 {
		t.Fatalf("expected Revert to restore the original closure")
	}
}

func TestNonRevertibleThunkOriginalFallsBackToCurrent(t *testing.T) {
	th := NewThunk(closureOf(term.NewNum(term.NoPos, 5)))
	if th.Original().Body.(term.NumTerm).Value != 5 {
		t.Fatalf("a non-revertible thunk's Original must return its current closure")
	}
}

func TestExtendEnvLetsTheThunkSeeNamesAddedLater(t *testing.T) {
	x := ident.New("x")
	th := NewThunk(Closure{Body: term.Var{ID: x}, Env: NewEnvironment()})

	rec := NewEnvironment()
	rec.MutateInPlace(x, Binding{Thunk: NewThunk(closureOf(term.NewNum(term.NoPos, 3))), Kind: term.KindRecord})
	th.ExtendEnv(rec)

	b, ok := th.Closure().Env.Get(x)
	if !ok || b.Thunk.Closure().Body.(term.NumTerm).Value != 3 {
		t.Fatalf("expected the thunk's environment to resolve x through the extension")
	}
}

func TestShouldUpdate(t *testing.T) {
	if ShouldUpdate(term.NewNum(term.NoPos, 1)) {
		t.Fatalf("a WHNF term should not require an update")
	}
	if !ShouldUpdate(term.Var{ID: ident.New("x")}) {
		t.Fatalf("a non-WHNF term should require an update")
	}
	if ShouldUpdate(term.DefaultValue{Value: term.NewNum(term.NoPos, 1)}) {
		t.Fatalf("an enriched value should not require an update")
	}
}
