package eval

import (
	"fmt"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/cwbudde/crucible/internal/runtime"
	"github.com/cwbudde/crucible/internal/term"
	"github.com/cwbudde/crucible/pkg/ident"
)

// TestFixtures reduces a table of small term programs to weak head normal
// form and snapshots their string rendering, the same table-of-programs
// plus snaps.MatchSnapshot shape used for the reference interpreter's own
// fixture suite.
func TestFixtures(t *testing.T) {
	fixtures := []struct {
		name string
		body term.Term
	}{
		{
			name: "arithmetic",
			body: term.Op2{Op: "plus", Fst: term.NewNum(term.NoPos, 2), Snd: term.NewNum(term.NoPos, 3)},
		},
		{
			name: "let_binding",
			body: term.Let{
				ID: ident.New("x"),
				Bound: term.Op2{
					Op:  "mult",
					Fst: term.NewNum(term.NoPos, 6),
					Snd: term.NewNum(term.NoPos, 7),
				},
				Body:    term.Var{ID: ident.New("x")},
				Binding: term.Normal,
			},
		},
		{
			name: "static_field_access",
			body: func() term.Term {
				fields := ident.NewMap[term.Term]()
				fields.Set(ident.New("greeting"), term.NewStr(term.NoPos, "hello"))
				return term.Op1{Op: "static_access", ID: "greeting", Arg: term.Record{Fields: fields}}
			}(),
		},
		{
			name: "enum_embed",
			body: term.Op1{Op: "embed", ID: "Json", Arg: term.Null{}},
		},
		{
			name: "string_interpolation",
			body: term.StrChunks{
				Chunks: []term.Chunk{
					{Literal: "answer = "},
					{Expr: term.Op1{Op: "to_str", Arg: term.NewNum(term.NoPos, 42)}},
				},
			},
		},
		{
			name: "ite_false_branch",
			body: term.OpN{
				Op: "ite",
				Args: []term.Term{
					term.NewBool(term.NoPos, false),
					term.NewNum(term.NoPos, 1),
					term.NewNum(term.NoPos, 0),
				},
			},
		},
	}

	for _, fx := range fixtures {
		t.Run(fx.name, func(t *testing.T) {
			result, err := Eval(fx.body, runtime.NewEnvironment(), DummyResolver{})
			if err != nil {
				t.Fatalf("unexpected evaluation error: %v", err)
			}
			snaps.MatchSnapshot(t, fmt.Sprintf("%s_result", fx.name), result.String())
		})
	}
}
