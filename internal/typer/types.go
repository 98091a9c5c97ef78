// Package typer assigns principal type schemes to the primitive operators
// the evaluator dispatches on. It runs independently of evaluation: nothing
// here touches a runtime.Closure or a term.Term value, only the shape of
// types.
//
// Grounded line-for-line on the reference typechecker's get_uop_type/
// get_bop_type/get_nop_type (original_source/src/typecheck/operation.rs),
// with the unification scaffolding (Type/Subst/TVar, substitution
// application, free-variable collection) shaped after
// funvibe-funxy/internal/typesystem's Type/Subst/Apply pattern, scoped down
// to what operator typing needs: no kinds, no traits, row polymorphism only
// where Embed/StaticAccess/RecordMap require it.
package typer

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the typer's own type representation — distinct from term.Type
// (the evaluator's contract-bearing type annotations), since the typer
// reasons about principal type schemes with free variables, not about
// terms that build contract-checking functions.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeVars() []string
}

// Subst maps type-variable names to the type they stand for.
type Subst map[string]Type

// Compose returns the substitution equivalent to applying s2 then s1.
func (s1 Subst) Compose(s2 Subst) Subst {
	out := make(Subst, len(s1)+len(s2))
	for k, v := range s2 {
		out[k] = v.Apply(s1)
	}
	for k, v := range s1 {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// TVar is a unification type variable, allocated fresh by State.Fresh —
// never written by hand outside tests.
type TVar struct{ Name string }

func (t TVar) String() string { return t.Name }
func (t TVar) FreeVars() []string { return []string{t.Name} }
func (t TVar) Apply(s Subst) Type {
	if repl, ok := s[t.Name]; ok {
		if rv, ok := repl.(TVar); ok && rv.Name == t.Name {
			return t
		}
		return repl.Apply(subWithout(s, t.Name))
	}
	return t
}

// subWithout avoids infinite recursion when a substitution happens to map
// a variable back onto itself through a longer chain.
func subWithout(s Subst, name string) Subst {
	if _, ok := s[name]; !ok {
		return s
	}
	out := make(Subst, len(s)-1)
	for k, v := range s {
		if k != name {
			out[k] = v
		}
	}
	return out
}

// ---- base types ----

// TDyn is the unconstrained dynamic type: any value inhabits it.
type TDyn struct{}

func (TDyn) String() string      { return "Dyn" }
func (TDyn) Apply(Subst) Type     { return TDyn{} }
func (TDyn) FreeVars() []string  { return nil }

type TNum struct{}

func (TNum) String() string     { return "Num" }
func (TNum) Apply(Subst) Type    { return TNum{} }
func (TNum) FreeVars() []string { return nil }

type TBool struct{}

func (TBool) String() string     { return "Bool" }
func (TBool) Apply(Subst) Type    { return TBool{} }
func (TBool) FreeVars() []string { return nil }

type TStr struct{}

func (TStr) String() string     { return "Str" }
func (TStr) Apply(Subst) Type    { return TStr{} }
func (TStr) FreeVars() []string { return nil }

// TSym is the symbol type used by Wrap/Unwrap-style primitives in the
// original calculus; the evaluator core here never constructs a Sym value,
// but the type survives so a future extension's operator table can still
// reference it without a data-model change.
type TSym struct{}

func (TSym) String() string     { return "Sym" }
func (TSym) Apply(Subst) Type    { return TSym{} }
func (TSym) FreeVars() []string { return nil }

// ---- composite types ----

type TArrow struct{ Dom, Cod Type }

func (t TArrow) String() string { return fmt.Sprintf("%s -> %s", wrapArrowArg(t.Dom), t.Cod) }
func (t TArrow) Apply(s Subst) Type {
	return TArrow{Dom: t.Dom.Apply(s), Cod: t.Cod.Apply(s)}
}
func (t TArrow) FreeVars() []string {
	return append(t.Dom.FreeVars(), t.Cod.FreeVars()...)
}

func wrapArrowArg(t Type) string {
	if _, ok := t.(TArrow); ok {
		return "(" + t.String() + ")"
	}
	return t.String()
}

type TList struct{ Elem Type }

func (t TList) String() string      { return fmt.Sprintf("List %s", t.Elem) }
func (t TList) Apply(s Subst) Type  { return TList{Elem: t.Elem.Apply(s)} }
func (t TList) FreeVars() []string  { return t.Elem.FreeVars() }

// TRecordOf is Nickel's "dyn_record" shape, `{ _ : a }`: a record whose
// every field (statically unknown in number and name) has element type a.
// Used by RecordMap's domain/codomain.
type TRecordOf struct{ Elem Type }

func (t TRecordOf) String() string     { return fmt.Sprintf("{ _ : %s }", t.Elem) }
func (t TRecordOf) Apply(s Subst) Type { return TRecordOf{Elem: t.Elem.Apply(s)} }
func (t TRecordOf) FreeVars() []string { return t.Elem.FreeVars() }

// TRecord is a record type with some statically known fields plus an
// optional open row variable for the remaining (unknown) fields —
// StaticAccess's `{id: a | r}`.
type TRecord struct {
	Fields map[string]Type
	Row    Type // nil: closed record with exactly Fields
}

func (t TRecord) String() string {
	names := make([]string, 0, len(t.Fields))
	for k := range t.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%s: %s", k, t.Fields[k])
	}
	suffix := ""
	if t.Row != nil {
		suffix = " | " + t.Row.String()
	}
	return "{" + strings.Join(parts, ", ") + suffix + "}"
}

func (t TRecord) Apply(s Subst) Type {
	fields := make(map[string]Type, len(t.Fields))
	for k, v := range t.Fields {
		fields[k] = v.Apply(s)
	}
	var row Type
	if t.Row != nil {
		row = t.Row.Apply(s)
	}
	return TRecord{Fields: fields, Row: row}
}

func (t TRecord) FreeVars() []string {
	var out []string
	names := make([]string, 0, len(t.Fields))
	for k := range t.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		out = append(out, t.Fields[k].FreeVars()...)
	}
	if t.Row != nil {
		out = append(out, t.Row.FreeVars()...)
	}
	return out
}

// TEnum is a row-typed enum, e.g. `<Json, Yaml, Toml>` (closed, Row == nil)
// or Embed's `<id | r>` (open, Row a TVar).
type TEnum struct {
	Tags []string
	Row  Type
}

func (t TEnum) String() string {
	suffix := ""
	if t.Row != nil {
		suffix = " | " + t.Row.String()
	}
	return "<" + strings.Join(t.Tags, ", ") + suffix + ">"
}

func (t TEnum) Apply(s Subst) Type {
	var row Type
	if t.Row != nil {
		row = t.Row.Apply(s)
	}
	return TEnum{Tags: t.Tags, Row: row}
}

func (t TEnum) FreeVars() []string {
	if t.Row != nil {
		return t.Row.FreeVars()
	}
	return nil
}

// recordShape, known field shape produced by StrMatch's result type:
// {match: Str, index: Num, groups: List Str}.
func strMatchResultType() Type {
	return TRecord{Fields: map[string]Type{
		"match":  TStr{},
		"index":  TNum{},
		"groups": TList{Elem: TStr{}},
	}}
}
