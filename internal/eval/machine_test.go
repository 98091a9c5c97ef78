package eval

import (
	"testing"

	"github.com/cwbudde/crucible/internal/errors"
	"github.com/cwbudde/crucible/internal/label"
	"github.com/cwbudde/crucible/internal/runtime"
	"github.com/cwbudde/crucible/internal/term"
	"github.com/cwbudde/crucible/internal/transform"
	"github.com/cwbudde/crucible/pkg/ident"
)

func run(t *testing.T, body term.Term) term.Term {
	t.Helper()
	out, err := Eval(body, runtime.NewEnvironment(), DummyResolver{})
	if err != nil {
		t.Fatalf("unexpected eval error: %v", err)
	}
	return out
}

func TestEvalPlusOnTwoNumbers(t *testing.T) {
	out := run(t, term.Op2{Op: "plus", Fst: term.NewNum(term.NoPos, 2), Snd: term.NewNum(term.NoPos, 3)})
	n, ok := out.(term.NumTerm)
	if !ok || n.Value != 5 {
		t.Fatalf("expected 5, got %s", out)
	}
}

func TestEvalAppBetaReducesThroughFun(t *testing.T) {
	x := ident.New("x")
	fn := term.Fun{Param: x, Body: term.Op2{Op: "plus", Fst: term.Var{ID: x}, Snd: term.NewNum(term.NoPos, 1)}}
	app := term.App{Fn: fn, Arg: term.NewNum(term.NoPos, 41)}
	out := run(t, app)
	n, ok := out.(term.NumTerm)
	if !ok || n.Value != 42 {
		t.Fatalf("expected 42, got %s", out)
	}
}

func TestEvalLetBindsAndIsVisibleInBody(t *testing.T) {
	x := ident.New("x")
	letTerm := term.Let{ID: x, Bound: term.NewNum(term.NoPos, 10), Body: term.Op2{Op: "plus", Fst: term.Var{ID: x}, Snd: term.Var{ID: x}}}
	out := run(t, letTerm)
	n, ok := out.(term.NumTerm)
	if !ok || n.Value != 20 {
		t.Fatalf("expected 20, got %s", out)
	}
}

func TestEvalIteSelectsTrueBranchWithoutForcingElse(t *testing.T) {
	cond := term.NewBool(term.NoPos, true)
	thenBranch := term.NewNum(term.NoPos, 1)
	// A var to a nonexistent binding in the else branch: if it were ever
	// forced, evaluation would fail with an unbound-identifier error.
	elseBranch := term.Var{ID: ident.New("never_bound")}
	out := run(t, term.OpN{Op: "ite", Args: []term.Term{cond, thenBranch, elseBranch}})
	n, ok := out.(term.NumTerm)
	if !ok || n.Value != 1 {
		t.Fatalf("expected 1, got %s", out)
	}
}

func TestEvalIteSelectsFalseBranch(t *testing.T) {
	out := run(t, term.OpN{Op: "ite", Args: []term.Term{
		term.NewBool(term.NoPos, false),
		term.Var{ID: ident.New("never_bound")},
		term.NewNum(term.NoPos, 2),
	}})
	n, ok := out.(term.NumTerm)
	if !ok || n.Value != 2 {
		t.Fatalf("expected 2, got %s", out)
	}
}

func TestEvalBlameProducesAKindBlameError(t *testing.T) {
	l := label.New("Num", "x")
	body := term.Op1{Op: "blame", Arg: term.NewLabel(term.NoPos, l)}
	_, err := Eval(body, runtime.NewEnvironment(), DummyResolver{})
	if err == nil {
		t.Fatalf("expected a blame error")
	}
	ee, ok := err.(*errors.EvalError)
	if !ok {
		t.Fatalf("expected *errors.EvalError, got %T", err)
	}
	if ee.Kind != errors.KindBlame {
		t.Fatalf("expected KindBlame, got %s", ee.Kind)
	}
}

func TestEvalNumContractSuccess(t *testing.T) {
	l := label.New("Num", "")
	body := term.Assume{Ty: term.NumType{}, Label: l, Body: term.NewNum(term.NoPos, 7)}
	out := run(t, body)
	n, ok := out.(term.NumTerm)
	if !ok || n.Value != 7 {
		t.Fatalf("expected 7 to pass the Num contract, got %s", out)
	}
}

func TestEvalNumContractFailureBlames(t *testing.T) {
	l := label.New("Num", "")
	body := term.Assume{Ty: term.NumType{}, Label: l, Body: term.NewStr(term.NoPos, "not a number")}
	_, err := Eval(body, runtime.NewEnvironment(), DummyResolver{})
	if err == nil {
		t.Fatalf("expected a blame error for a string failing the Num contract")
	}
	ee, ok := err.(*errors.EvalError)
	if !ok || ee.Kind != errors.KindBlame {
		t.Fatalf("expected KindBlame, got %v", err)
	}
}

func TestEvalDefaultValueUnwrapsUnderStrictContext(t *testing.T) {
	dv := term.DefaultValue{Value: term.NewNum(term.NoPos, 9)}
	out := run(t, term.Op2{Op: "plus", Fst: dv, Snd: term.NewNum(term.NoPos, 1)})
	n, ok := out.(term.NumTerm)
	if !ok || n.Value != 10 {
		t.Fatalf("expected DefaultValue to unwrap to 9 under a strict op, got %s", out)
	}
}

func TestEvalDefaultValuePreservedUnderMerge(t *testing.T) {
	dv := term.DefaultValue{Value: term.NewNum(term.NoPos, 9)}
	out := run(t, term.Op2{Op: "merge", Fst: dv, Snd: term.NewNum(term.NoPos, 11)})
	n, ok := out.(term.NumTerm)
	if !ok || n.Value != 11 {
		t.Fatalf("expected the concrete right-hand side to win over a default, got %s", out)
	}
}

func TestEvalMergeOfTwoRecordsUnionsFields(t *testing.T) {
	fieldsA := ident.NewMap[term.Term]()
	fieldsA.Set(ident.New("a"), term.NewNum(term.NoPos, 1))
	recA := term.Record{Fields: fieldsA}

	fieldsB := ident.NewMap[term.Term]()
	fieldsB.Set(ident.New("b"), term.NewNum(term.NoPos, 2))
	recB := term.Record{Fields: fieldsB}

	out := run(t, term.Op2{Op: "merge", Fst: recA, Snd: recB})
	rec, ok := out.(term.Record)
	if !ok {
		t.Fatalf("expected a merged Record, got %T", out)
	}
	if rec.Fields.Len() != 2 {
		t.Fatalf("expected 2 fields in the merged record, got %d", rec.Fields.Len())
	}
}

func TestEvalMergeOfConflictingDefaultsBlames(t *testing.T) {
	a := term.DefaultValue{Value: term.NewNum(term.NoPos, 1)}
	b := term.DefaultValue{Value: term.NewNum(term.NoPos, 2)}
	_, err := Eval(term.Op2{Op: "merge", Fst: a, Snd: b}, runtime.NewEnvironment(), DummyResolver{})
	if err == nil {
		t.Fatalf("expected merging two conflicting defaults to blame")
	}
	ee, ok := err.(*errors.EvalError)
	if !ok || ee.Kind != errors.KindBlame {
		t.Fatalf("expected KindBlame, got %v", err)
	}
}

func TestEvalStringInterpolation(t *testing.T) {
	x := ident.New("x")
	chunks := term.StrChunks{Chunks: []term.Chunk{
		{Literal: "hello, "},
		{Expr: term.Var{ID: x}},
		{Literal: "!"},
	}}
	letTerm := term.Let{ID: x, Bound: term.NewStr(term.NoPos, "world"), Body: chunks}
	out := run(t, letTerm)
	s, ok := out.(term.StrTerm)
	if !ok || s.Value != "hello, world!" {
		t.Fatalf("expected %q, got %s", "hello, world!", out)
	}
}

// TestEvalRecRecordFieldsSeeEachOther wires a RecRecord whose "b" field is
// already in the shape the share-normal-form transform produces for a
// sibling reference: a generated variable, bound by an outer Revertible
// Let to the referenced field, rather than the raw expression.
func TestEvalRecRecordFieldsSeeEachOther(t *testing.T) {
	a := ident.New("a")
	b := ident.New("b")
	gen := ident.New("%0")

	fields := ident.NewMap[term.Term]()
	fields.Set(a, term.NewNum(term.NoPos, 1))
	fields.Set(b, term.Var{ID: gen})
	rr := term.RecRecord{Fields: fields}
	letTerm := term.Let{ID: gen, Bound: term.Var{ID: a}, Body: rr, Binding: term.Revertible}

	out := run(t, letTerm)
	rec, ok := out.(term.Record)
	if !ok {
		t.Fatalf("expected a Record after RecRecord wiring, got %T", out)
	}
	bFieldTerm, ok := rec.Fields.Get(b)
	if !ok {
		t.Fatalf("expected field b in the wired record")
	}
	bVar, ok := bFieldTerm.(term.Var)
	if !ok || bVar.ID != gen {
		t.Fatalf("expected field b to stay the generated variable, got %#v", bFieldTerm)
	}

	env := mustRecRecordEnv(t, letTerm)
	m := NewMachine(DummyResolver{}, nil)
	forcedB, err := m.Run(runtime.Closure{Body: bVar, Env: env})
	if err != nil {
		t.Fatalf("unexpected error forcing field b: %v", err)
	}
	n, ok := forcedB.(term.NumTerm)
	if !ok || n.Value != 1 {
		t.Fatalf("expected field b to resolve to 1 via field a, got %s", forcedB)
	}
}

// mustRecRecordEnv binds let's generated variable directly (bypassing
// Eval's top-level dispatch) and wires its RecRecord body, handing back
// the environment the generated variable resolves in — the same
// environment a later Var lookup against that variable would use — so a
// test can force an individual field reference against it in isolation.
func mustRecRecordEnv(t *testing.T, let term.Let) *runtime.Environment {
	t.Helper()
	rr, ok := let.Body.(term.RecRecord)
	if !ok {
		t.Fatalf("expected let's body to be a RecRecord, got %T", let.Body)
	}
	base := runtime.NewEnvironment()
	th := runtime.NewRevertibleThunk(runtime.Closure{Body: let.Bound, Env: base})
	env := base.Extend(let.ID, runtime.Binding{Thunk: th, Kind: term.KindLet})

	m := NewMachine(DummyResolver{}, nil)
	_, outEnv, err := m.wireRecRecord(rr, env)
	if err != nil {
		t.Fatalf("unexpected error wiring RecRecord: %v", err)
	}
	return outEnv
}

// TestEvalRecRecordFullPipelineSiblingReference runs the real
// share-normal-form transform over a sibling-referencing recursive
// record before evaluating it, so "b"'s right-hand side only becomes a
// generated variable through the transform itself rather than being
// hand-built already in that shape — the case that would surface a
// wiring bug the other RecRecord test cannot.
func TestEvalRecRecordFullPipelineSiblingReference(t *testing.T) {
	a := ident.New("a")
	b := ident.New("b")

	fields := ident.NewMap[term.Term]()
	fields.Set(a, term.NewNum(term.NoPos, 1))
	fields.Set(b, term.Var{ID: a})
	rr := term.RecRecord{Fields: fields}

	transformed := transform.Transform(&ident.Generator{}, rr)

	out, err := Eval(term.Op1{Op: "static_access", ID: "b", Arg: transformed}, runtime.NewEnvironment(), DummyResolver{})
	if err != nil {
		t.Fatalf("unexpected evaluation error: %v", err)
	}
	n, ok := out.(term.NumTerm)
	if !ok || n.Value != 1 {
		t.Fatalf("expected field b to resolve to 1 through its sibling reference, got %s", out)
	}
}

func TestEvalResolvedImportResolvesThroughMapResolver(t *testing.T) {
	resolver := MapResolver{
		1: term.NewNum(term.NoPos, 100),
	}
	out, err := Eval(term.ResolvedImport{FileID: 1}, runtime.NewEnvironment(), resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := out.(term.NumTerm)
	if !ok || n.Value != 100 {
		t.Fatalf("expected 100, got %s", out)
	}
}

func TestEvalUnresolvedImportIsInternalError(t *testing.T) {
	_, err := Eval(term.ResolvedImport{FileID: 99}, runtime.NewEnvironment(), DummyResolver{})
	if err == nil {
		t.Fatalf("expected an internal error for a missing resolver entry")
	}
}

func TestEvalUnboundVariableErrors(t *testing.T) {
	_, err := Eval(term.Var{ID: ident.New("nope")}, runtime.NewEnvironment(), DummyResolver{})
	if err == nil {
		t.Fatalf("expected an unbound-identifier error")
	}
	ee, ok := err.(*errors.EvalError)
	if !ok || ee.Kind != errors.KindUnboundIdentifier {
		t.Fatalf("expected KindUnboundIdentifier, got %v", err)
	}
}

func TestEvalApplyingANonFunctionErrors(t *testing.T) {
	_, err := Eval(term.App{Fn: term.NewNum(term.NoPos, 1), Arg: term.NewNum(term.NoPos, 2)}, runtime.NewEnvironment(), DummyResolver{})
	if err == nil {
		t.Fatalf("expected a not-a-function error")
	}
	ee, ok := err.(*errors.EvalError)
	if !ok || ee.Kind != errors.KindNotAFunc {
		t.Fatalf("expected KindNotAFunc, got %v", err)
	}
}

func TestEvalThunkIsSharedNotRecomputed(t *testing.T) {
	// A Let-bound thunk referenced twice must be forced once: express this
	// indirectly by checking the shared reference still yields the correct
	// value through two distinct use sites, which would only differ under a
	// broken update/never-recompute discipline if the second force somehow
	// observed a different, re-evaluated closure.
	x := ident.New("x")
	shared := term.Op2{Op: "plus", Fst: term.NewNum(term.NoPos, 1), Snd: term.NewNum(term.NoPos, 1)}
	body := term.Op2{Op: "plus", Fst: term.Var{ID: x}, Snd: term.Var{ID: x}}
	out := run(t, term.Let{ID: x, Bound: shared, Body: body})
	n, ok := out.(term.NumTerm)
	if !ok || n.Value != 4 {
		t.Fatalf("expected 4, got %s", out)
	}
}
