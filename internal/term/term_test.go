package term

import (
	"testing"

	"github.com/cwbudde/crucible/pkg/ident"
)

func TestAtomsAreWHNFAndNotEnriched(t *testing.T) {
	atoms := []Term{
		NewNull(NoPos),
		NewBool(NoPos, true),
		NewNum(NoPos, 3),
		NewStr(NoPos, "x"),
		Fun{Param: ident.New("x"), Body: NewNull(NoPos)},
		Record{Fields: ident.NewMap[Term]()},
		List{Elems: nil},
	}
	for _, a := range atoms {
		if !a.IsWHNF() {
			t.Fatalf("%s: expected IsWHNF true", a)
		}
		if a.IsEnriched() {
			t.Fatalf("%s: expected IsEnriched false", a)
		}
	}
}

func TestRedexesAreNotWHNF(t *testing.T) {
	redexes := []Term{
		Var{ID: ident.New("x")},
		Let{ID: ident.New("x"), Bound: NewNull(NoPos), Body: NewNull(NoPos)},
		App{Fn: NewNull(NoPos), Arg: NewNull(NoPos)},
		Op1{Op: "bool_not", Arg: NewBool(NoPos, true)},
		Op2{Op: "plus", Fst: NewNum(NoPos, 1), Snd: NewNum(NoPos, 2)},
		RecRecord{Fields: ident.NewMap[Term]()},
		StrChunks{Chunks: []Chunk{{Literal: "x"}}},
	}
	for _, r := range redexes {
		if r.IsWHNF() {
			t.Fatalf("%s: expected IsWHNF false", r)
		}
	}
}

func TestEnrichedValuesReportEnriched(t *testing.T) {
	enriched := []Term{
		DefaultValue{Value: NewNull(NoPos)},
		Docstring{Doc: "x", Value: NewNull(NoPos)},
		Contract{},
		ContractWithDefault{Value: NewNull(NoPos)},
	}
	for _, e := range enriched {
		if !e.IsEnriched() {
			t.Fatalf("%s: expected IsEnriched true", e)
		}
		if !e.IsWHNF() {
			t.Fatalf("%s: enriched values must also be WHNF", e)
		}
	}
}

func TestIsConstant(t *testing.T) {
	constant := []Term{
		NewNull(NoPos), NewBool(NoPos, true), NewNum(NoPos, 1), NewStr(NoPos, "s"),
		EnumTerm{Tag: ident.New("Foo")}, Fun{Param: ident.New("x"), Body: NewNull(NoPos)},
	}
	for _, c := range constant {
		if !IsConstant(c) {
			t.Fatalf("%s: expected IsConstant true", c)
		}
	}
	notConstant := []Term{
		Var{ID: ident.New("x")},
		App{Fn: NewNull(NoPos), Arg: NewNull(NoPos)},
		Record{Fields: ident.NewMap[Term]()},
	}
	for _, c := range notConstant {
		if IsConstant(c) {
			t.Fatalf("%s: expected IsConstant false", c)
		}
	}
}

func TestShouldShare(t *testing.T) {
	notShared := []Term{
		NewNull(NoPos), NewBool(NoPos, true), NewNum(NoPos, 1), NewStr(NoPos, "s"),
		LabelTerm{}, SymTerm{ID: 1}, Var{ID: ident.New("x")}, EnumTerm{Tag: ident.New("Foo")},
		Fun{Param: ident.New("x"), Body: NewNull(NoPos)},
	}
	for _, n := range notShared {
		if ShouldShare(n) {
			t.Fatalf("%s: expected ShouldShare false", n)
		}
	}
	shared := []Term{
		App{Fn: NewNull(NoPos), Arg: NewNull(NoPos)},
		Record{Fields: ident.NewMap[Term]()},
		List{Elems: []Term{NewNum(NoPos, 1)}},
	}
	for _, s := range shared {
		if !ShouldShare(s) {
			t.Fatalf("%s: expected ShouldShare true", s)
		}
	}
}

func TestWithPosRewritesPositionAndPreservesFields(t *testing.T) {
	n := NumTerm{base{NoPos}, 42}
	p := Position{Line: 5, Column: 1}
	got := WithPos(n, p)
	num, ok := got.(NumTerm)
	if !ok {
		t.Fatalf("expected NumTerm, got %T", got)
	}
	if num.Pos() != p {
		t.Fatalf("expected position %v, got %v", p, num.Pos())
	}
	if num.Value != 42 {
		t.Fatalf("expected value preserved, got %v", num.Value)
	}
}

func TestWithPosRewritesLabelTermPosition(t *testing.T) {
	d := DynField{Name: NewStr(NoPos, "k"), Value: NewNull(NoPos)}
	// DynField is not a Term, so WithPos's default branch cannot be reached
	// with it; instead check that WithPos rewrites the position of a
	// LabelTerm, one of the variants it handles.
	_ = d
	l := NewLabel(NoPos, nil)
	out := WithPos(l, Position{Line: 2, Column: 2})
	if out.Pos().Line != 2 {
		t.Fatalf("expected position rewritten on LabelTerm")
	}
}
