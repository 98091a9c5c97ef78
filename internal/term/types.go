package term

import (
	"fmt"
	"strings"

	"github.com/cwbudde/crucible/pkg/ident"
)

// Type is a contract-bearing static type annotation attached to Promise,
// Assume, Contract and ContractWithDefault nodes. Its only operational
// behavior the evaluator needs is Contract: "a function from label and
// value to value that either returns the value or blames" (glossary).
type Type interface {
	String() string
	// Contract builds the term-level contract-checking function: a
	// two-argument curried function `fun l => fun x => ...` that the
	// machine applies first to a Label, then to the candidate value.
	Contract() Term
}

// DynType is the unconstrained type: its contract always succeeds.
type DynType struct{}

func (DynType) String() string { return "Dyn" }
func (DynType) Contract() Term {
	x := ident.New("%contract_x")
	l := ident.New("%contract_l")
	return Fun{Param: l, Body: Fun{Param: x, Body: Var{ID: x}}}
}

// primitiveContract builds `fun l => fun x => ite(checkOp(x), x, blame(l))`
// for a unary is-predicate operator, shared by all the base scalar types.
func primitiveContract(checkOp string) Term {
	x := ident.New("%contract_x")
	l := ident.New("%contract_l")
	cond := Op1{Op: checkOp, Arg: Var{ID: x}}
	onFail := Op1{Op: "blame", Arg: Var{ID: l}}
	body := OpN{Op: "ite", Args: []Term{cond, Var{ID: x}, onFail}}
	return Fun{Param: l, Body: Fun{Param: x, Body: body}}
}

type NumType struct{}

func (NumType) String() string { return "Num" }
func (NumType) Contract() Term { return primitiveContract("is_num") }

type BoolType struct{}

func (BoolType) String() string { return "Bool" }
func (BoolType) Contract() Term { return primitiveContract("is_bool") }

type StrType struct{}

func (StrType) String() string { return "Str" }
func (StrType) Contract() Term { return primitiveContract("is_str") }

type ListType struct{ Elem Type }

func (t ListType) String() string { return fmt.Sprintf("List %s", t.Elem) }
func (t ListType) Contract() Term { return primitiveContract("is_list") }

// RecordType is a closed or open record type; the contract only checks the
// outer shape (is_record) — per-field contract propagation belongs to the
// merge/record-contract machinery, which is out of this core's boundary
// scenarios.
type RecordType struct {
	Fields map[string]Type
	Open   bool
}

func (t RecordType) String() string {
	parts := make([]string, 0, len(t.Fields))
	for name, fty := range t.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", name, fty))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (RecordType) Contract() Term { return primitiveContract("is_record") }

// ArrowType is a function type. Its contract only checks that the value is
// itself a function; wrapping domain/codomain contracts around
// applications is a higher-order-contract concern the ten boundary
// scenarios never exercise, so it is left as a shape check.
type ArrowType struct {
	Dom, Cod Type
}

func (t ArrowType) String() string { return fmt.Sprintf("%s -> %s", t.Dom, t.Cod) }
func (ArrowType) Contract() Term   { return primitiveContract("is_fun") }
