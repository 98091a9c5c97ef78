package typer

import (
	"github.com/cwbudde/crucible/internal/errors"
)

// Op names a primitive operator the same way the evaluator's OpRegistry
// dispatch tags do (internal/eval/operators.go) — is_num, plus, merge, and
// so on — so a test or caller can go from "the evaluator just rejected
// this op" straight to "what type would the typer have given it" without a
// translation table. ID carries the payload for the two operators whose
// Rust definition embeds an identifier in the operator tag itself
// (Embed(id), StaticAccess(id)); every other operator leaves it empty.
type Op struct {
	Tag string
	ID  string
}

// evaluationOnly lists the operators spec.md §4.5 says "must never be
// presented to the typer": Switch and ChunksConcat are produced only by
// the evaluator's own rewriting (string-interpolation desugaring, enum
// case dispatch), Assume is the post-typecheck contract-application form
// MergeContract backs, and MergeContract itself is the evaluator's
// internal merge-of-contracts helper — none of the four has a meaningful
// static type distinct from the surface form the typechecker actually
// sees.
var evaluationOnly = map[string]bool{
	"switch":         true,
	"chunks_concat":  true,
	"assume":         true,
	"merge_contract": true,
}

func checkNotEvaluationOnly(op string) error {
	if evaluationOnly[op] {
		return errors.TypingOp(op, "evaluation-only operator; requesting its type is an internal error")
	}
	return nil
}

// GetUnaryOpType returns (input, output) for a unary operator, mirroring
// get_uop_type's per-arity signature.
func GetUnaryOpType(state *State, op Op) (Type, Type, error) {
	if err := checkNotEvaluationOnly(op.Tag); err != nil {
		return nil, nil, err
	}
	switch op.Tag {
	case "is_num", "is_bool", "is_str", "is_fun", "is_list", "is_record":
		return state.Fresh(), TBool{}, nil
	case "bool_not":
		return TBool{}, TBool{}, nil
	case "blame":
		return TDyn{}, state.Fresh(), nil
	case "embed":
		if op.ID == "" {
			return nil, nil, errors.TypingOp(op.Tag, "embed requires an enum tag identifier")
		}
		row := state.Fresh()
		state.Constrain(row, op.ID)
		return TEnum{Row: row}, TEnum{Tags: []string{op.ID}, Row: row}, nil
	case "static_access":
		if op.ID == "" {
			return nil, nil, errors.TypingOp(op.Tag, "static_access requires a field identifier")
		}
		row := state.Fresh()
		res := state.Fresh()
		return TRecord{Fields: map[string]Type{op.ID: res}, Row: row}, res, nil
	case "list_head":
		elem := state.Fresh()
		return TList{Elem: elem}, elem, nil
	case "list_tail":
		elem := state.Fresh()
		return TList{Elem: elem}, TList{Elem: elem}, nil
	case "list_length":
		return TList{Elem: state.Fresh()}, TNum{}, nil
	case "fields_of":
		// Open Question (spec.md §9): the reference typechecker carries a
		// disabled row-typed signature in a comment
		// (`{rows} -> List`); the live one is the relaxed Dyn -> List Str
		// this preserves, unrestricted to any particular record shape.
		return TDyn{}, TList{Elem: TStr{}}, nil
	case "values_of":
		return TDyn{}, TList{Elem: TDyn{}}, nil
	case "str_trim", "str_uppercase", "str_lowercase":
		return TStr{}, TStr{}, nil
	case "str_chars":
		return TStr{}, TList{Elem: TStr{}}, nil
	case "char_code":
		return TStr{}, TNum{}, nil
	case "char_from_code":
		return TNum{}, TStr{}, nil
	case "str_length":
		return TStr{}, TNum{}, nil
	case "to_str":
		return TDyn{}, TStr{}, nil
	case "num_from_str":
		return TStr{}, TNum{}, nil
	default:
		return nil, nil, errors.TypingOp(op.Tag, "unknown unary operator")
	}
}

// GetBinaryOpType returns (fst, snd, output) for a binary operator.
func GetBinaryOpType(state *State, op Op) (Type, Type, Type, error) {
	if err := checkNotEvaluationOnly(op.Tag); err != nil {
		return nil, nil, nil, err
	}
	switch op.Tag {
	case "plus", "sub", "mult", "div", "modulo", "pow":
		return TNum{}, TNum{}, TNum{}, nil
	case "less_than", "less_or_eq", "greater_than", "greater_or_eq":
		return TNum{}, TNum{}, TBool{}, nil
	case "bool_and", "bool_or":
		return TBool{}, TBool{}, TBool{}, nil
	case "str_concat":
		return TStr{}, TStr{}, TStr{}, nil
	case "str_contains", "str_is_match":
		return TStr{}, TStr{}, TBool{}, nil
	case "str_match":
		return TStr{}, TStr{}, strMatchResultType(), nil
	case "str_split":
		return TStr{}, TStr{}, TList{Elem: TStr{}}, nil
	case "eq":
		return state.Fresh(), state.Fresh(), TBool{}, nil
	case "list_map":
		a, b := state.Fresh(), state.Fresh()
		return TList{Elem: a}, TArrow{Dom: a, Cod: b}, TList{Elem: b}, nil
	case "list_gen":
		a := state.Fresh()
		return TNum{}, TArrow{Dom: TNum{}, Cod: a}, TList{Elem: a}, nil
	case "record_map":
		a, b := state.Fresh(), state.Fresh()
		fn := TArrow{Dom: TStr{}, Cod: TArrow{Dom: a, Cod: b}}
		return TRecordOf{Elem: a}, fn, TRecordOf{Elem: b}, nil
	case "seq":
		b := state.Fresh()
		return state.Fresh(), b, b, nil
	case "deep_seq":
		b := state.Fresh()
		return state.Fresh(), b, b, nil
	case "list_concat":
		elem := state.Fresh()
		return TList{Elem: elem}, TList{Elem: elem}, TList{Elem: elem}, nil
	case "list_elem_at":
		elem := state.Fresh()
		return TList{Elem: elem}, TNum{}, elem, nil
	case "merge":
		return TDyn{}, TDyn{}, TDyn{}, nil
	case "hash":
		return hashAlgoType(), TStr{}, TStr{}, nil
	case "serialize":
		return encodingType(), state.Fresh(), TStr{}, nil
	case "deserialize":
		return encodingType(), TStr{}, TDyn{}, nil
	default:
		return nil, nil, nil, errors.TypingOp(op.Tag, "unknown binary operator")
	}
}

// GetNaryOpType returns (inputs, output) for an n-ary operator.
func GetNaryOpType(state *State, op Op) ([]Type, Type, error) {
	if err := checkNotEvaluationOnly(op.Tag); err != nil {
		return nil, nil, err
	}
	switch op.Tag {
	case "ite":
		branch := state.Fresh()
		return []Type{TBool{}, branch, branch}, branch, nil
	case "str_replace", "str_replace_regex":
		return []Type{TStr{}, TStr{}, TStr{}}, TStr{}, nil
	case "str_substr":
		return []Type{TStr{}, TNum{}, TNum{}}, TStr{}, nil
	default:
		return nil, nil, errors.TypingOp(op.Tag, "unknown n-ary operator")
	}
}

func hashAlgoType() Type {
	return TEnum{Tags: []string{"Md5", "Sha1", "Sha256", "Sha512"}}
}

func encodingType() Type {
	return TEnum{Tags: []string{"Json", "Yaml", "Toml"}}
}
