package eval

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/crucible/internal/errors"
	"github.com/cwbudde/crucible/internal/label"
	"github.com/cwbudde/crucible/internal/term"
	"github.com/cwbudde/crucible/pkg/ident"
)

// OpRegistry supplies the concrete runtime bodies for primitive operators
//. Unary/Binary/Nary all receive already-forced (WHNF)
// operands, except for operators the machine special-cases for their own
// laziness (Ite; see machine.go) which never reach the registry.
type OpRegistry interface {
	Unary(op, id string, pos term.Position, v term.Term) (term.Term, error)
	Binary(op string, pos term.Position, a, b term.Term) (term.Term, error)
	Nary(op string, pos term.Position, args []term.Term) (term.Term, error)
}

// IsStrictOp reports whether an operator forces its operands under a
// strict enriched-value context. Every binary operator is
// strict except Merge, which must observe DefaultValue/Docstring wrappers
// as final values rather than unwrapping them while forcing its operands.
func IsStrictOp(op string) bool {
	return op != "merge"
}

// DefaultOpRegistry implements exactly the operators exercised by the ten
// boundary scenarios and the stated laws, plus the handful of
// everyday arithmetic/string/list/record primitives a configuration
// language core is expected to dispatch through. Operators whose body is a
// pure data-format or hashing concern delegate to the domain-stack
// libraries named in SPEC_FULL §5.
type DefaultOpRegistry struct {
	// Codec is consulted for Serialize/Deserialize/Hash; nil disables
	// those operators (each returns a "no codec configured" error
	// instead), which keeps this registry usable in tests that never
	// touch document codecs.
	Codec Codec
}

func asNum(t term.Term) (float64, bool) {
	n, ok := t.(term.NumTerm)
	return n.Value, ok
}

func asStr(t term.Term) (string, bool) {
	s, ok := t.(term.StrTerm)
	return s.Value, ok
}

func asBool(t term.Term) (bool, bool) {
	b, ok := t.(term.BoolTerm)
	return b.Value, ok
}

func typeError(op string, pos term.Position, t term.Term) error {
	return errors.Other(fmt.Sprintf("%s: unexpected argument of type %T (%s)", op, t, t), pos)
}

func (r *DefaultOpRegistry) Unary(op, id string, pos term.Position, v term.Term) (term.Term, error) {
	switch op {
	case "embed":
		if id == "" {
			return nil, errors.Other("embed: missing tag identifier", pos)
		}
		return term.EnumTerm{Tag: ident.New(id)}, nil
	case "static_access":
		if id == "" {
			return nil, errors.Other("static_access: missing field identifier", pos)
		}
		rec, ok := v.(term.Record)
		if !ok {
			return nil, typeError(op, pos, v)
		}
		field, ok := rec.Fields.Get(ident.New(id))
		if !ok {
			return nil, errors.Other(fmt.Sprintf("static_access: record has no field %q", id), pos)
		}
		return field, nil
	case "blame":
		lt, ok := v.(term.LabelTerm)
		if !ok {
			return nil, typeError(op, pos, v)
		}
		return nil, errors.Blame(lt.Label, pos)
	case "is_num":
		_, ok := v.(term.NumTerm)
		return term.NewBool(pos, ok), nil
	case "is_bool":
		_, ok := v.(term.BoolTerm)
		return term.NewBool(pos, ok), nil
	case "is_str":
		_, ok := v.(term.StrTerm)
		return term.NewBool(pos, ok), nil
	case "is_fun":
		_, ok := v.(term.Fun)
		return term.NewBool(pos, ok), nil
	case "is_list":
		_, ok := v.(term.List)
		return term.NewBool(pos, ok), nil
	case "is_record":
		_, ok := v.(term.Record)
		return term.NewBool(pos, ok), nil
	case "bool_not":
		b, ok := asBool(v)
		if !ok {
			return nil, typeError(op, pos, v)
		}
		return term.NewBool(pos, !b), nil
	case "str_uppercase":
		s, ok := asStr(v)
		if !ok {
			return nil, typeError(op, pos, v)
		}
		return term.NewStr(pos, strings.ToUpper(s)), nil
	case "str_lowercase":
		s, ok := asStr(v)
		if !ok {
			return nil, typeError(op, pos, v)
		}
		return term.NewStr(pos, strings.ToLower(s)), nil
	case "str_trim":
		s, ok := asStr(v)
		if !ok {
			return nil, typeError(op, pos, v)
		}
		return term.NewStr(pos, strings.TrimSpace(s)), nil
	case "str_length":
		s, ok := asStr(v)
		if !ok {
			return nil, typeError(op, pos, v)
		}
		return term.NewNum(pos, float64(len([]rune(s)))), nil
	case "str_chars":
		s, ok := asStr(v)
		if !ok {
			return nil, typeError(op, pos, v)
		}
		runes := []rune(s)
		elems := make([]term.Term, len(runes))
		for i, c := range runes {
			elems[i] = term.NewStr(pos, string(c))
		}
		return term.List{Elems: elems}, nil
	case "num_from_str":
		s, ok := asStr(v)
		if !ok {
			return nil, typeError(op, pos, v)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, errors.Other(fmt.Sprintf("cannot parse %q as a number", s), pos)
		}
		return term.NewNum(pos, f), nil
	case "to_str":
		return term.NewStr(pos, v.String()), nil
	case "list_head":
		l, ok := v.(term.List)
		if !ok || len(l.Elems) == 0 {
			return nil, typeError(op, pos, v)
		}
		return l.Elems[0], nil
	case "list_tail":
		l, ok := v.(term.List)
		if !ok || len(l.Elems) == 0 {
			return nil, typeError(op, pos, v)
		}
		return term.List{Elems: l.Elems[1:]}, nil
	case "list_length":
		l, ok := v.(term.List)
		if !ok {
			return nil, typeError(op, pos, v)
		}
		return term.NewNum(pos, float64(len(l.Elems))), nil
	case "fields_of":
		rec, ok := v.(term.Record)
		if !ok {
			return nil, typeError(op, pos, v)
		}
		var elems []term.Term
		rec.Fields.Range(func(id ident.Ident, _ term.Term) bool {
			elems = append(elems, term.NewStr(pos, id.String()))
			return true
		})
		return term.List{Elems: elems}, nil
	case "values_of":
		rec, ok := v.(term.Record)
		if !ok {
			return nil, typeError(op, pos, v)
		}
		var elems []term.Term
		rec.Fields.Range(func(_ ident.Ident, val term.Term) bool {
			elems = append(elems, val)
			return true
		})
		return term.List{Elems: elems}, nil
	default:
		if r.Codec != nil {
			if t, err, handled := r.Codec.Unary(op, pos, v); handled {
				return t, err
			}
		}
		return nil, errors.Other(fmt.Sprintf("unknown unary operator %q", op), pos)
	}
}

func (r *DefaultOpRegistry) Binary(op string, pos term.Position, a, b term.Term) (term.Term, error) {
	switch op {
	case "plus", "sub", "mult", "div", "modulo", "pow",
		"less_than", "less_or_eq", "greater_than", "greater_or_eq":
		x, ok1 := asNum(a)
		y, ok2 := asNum(b)
		if !ok1 || !ok2 {
			return nil, typeError(op, pos, a)
		}
		return numericBinOp(op, pos, x, y)
	case "bool_and":
		x, ok1 := asBool(a)
		y, ok2 := asBool(b)
		if !ok1 || !ok2 {
			return nil, typeError(op, pos, a)
		}
		return term.NewBool(pos, x && y), nil
	case "bool_or":
		x, ok1 := asBool(a)
		y, ok2 := asBool(b)
		if !ok1 || !ok2 {
			return nil, typeError(op, pos, a)
		}
		return term.NewBool(pos, x || y), nil
	case "str_concat":
		x, ok1 := asStr(a)
		y, ok2 := asStr(b)
		if !ok1 || !ok2 {
			return nil, typeError(op, pos, a)
		}
		return term.NewStr(pos, x+y), nil
	case "str_contains":
		x, ok1 := asStr(a)
		y, ok2 := asStr(b)
		if !ok1 || !ok2 {
			return nil, typeError(op, pos, a)
		}
		return term.NewBool(pos, strings.Contains(x, y)), nil
	case "str_split":
		x, ok1 := asStr(a)
		y, ok2 := asStr(b)
		if !ok1 || !ok2 {
			return nil, typeError(op, pos, a)
		}
		parts := strings.Split(x, y)
		elems := make([]term.Term, len(parts))
		for i, p := range parts {
			elems[i] = term.NewStr(pos, p)
		}
		return term.List{Elems: elems}, nil
	case "str_substr":
		return nil, errors.Other("str_substr requires (str, start, end): use the nary form", pos)
	case "eq":
		return term.NewBool(pos, structurallyEqual(a, b)), nil
	case "seq":
		// a has already been forced to WHNF by the machine; its value is
		// discarded and b is returned to continue evaluation.
		return b, nil
	case "deep_seq":
		return b, nil
	case "list_concat":
		la, ok1 := a.(term.List)
		lb, ok2 := b.(term.List)
		if !ok1 || !ok2 {
			return nil, typeError(op, pos, a)
		}
		out := make([]term.Term, 0, len(la.Elems)+len(lb.Elems))
		out = append(out, la.Elems...)
		out = append(out, lb.Elems...)
		return term.List{Elems: out}, nil
	case "list_elem_at":
		la, ok1 := a.(term.List)
		idx, ok2 := asNum(b)
		if !ok1 || !ok2 || int(idx) < 0 || int(idx) >= len(la.Elems) {
			return nil, typeError(op, pos, a)
		}
		return la.Elems[int(idx)], nil
	case "merge":
		return mergeValues(pos, a, b)
	case "hash":
		if r.Codec == nil {
			return nil, errors.Other("hash: no codec configured", pos)
		}
		return r.Codec.Hash(pos, a, b)
	case "serialize":
		if r.Codec == nil {
			return nil, errors.Other("serialize: no codec configured", pos)
		}
		return r.Codec.Serialize(pos, a, b)
	case "deserialize":
		if r.Codec == nil {
			return nil, errors.Other("deserialize: no codec configured", pos)
		}
		return r.Codec.Deserialize(pos, a, b)
	default:
		return nil, errors.Other(fmt.Sprintf("unknown binary operator %q", op), pos)
	}
}

func (r *DefaultOpRegistry) Nary(op string, pos term.Position, args []term.Term) (term.Term, error) {
	switch op {
	case "str_substr":
		if len(args) != 3 {
			return nil, errors.Other("str_substr expects 3 arguments", pos)
		}
		s, ok1 := asStr(args[0])
		start, ok2 := asNum(args[1])
		end, ok3 := asNum(args[2])
		if !ok1 || !ok2 || !ok3 {
			return nil, typeError(op, pos, args[0])
		}
		runes := []rune(s)
		lo, hi := int(start), int(end)
		if lo < 0 || hi > len(runes) || lo > hi {
			return nil, errors.Other("str_substr: index out of range", pos)
		}
		return term.NewStr(pos, string(runes[lo:hi])), nil
	default:
		return nil, errors.Other(fmt.Sprintf("unknown n-ary operator %q", op), pos)
	}
}

func numericBinOp(op string, pos term.Position, x, y float64) (term.Term, error) {
	switch op {
	case "plus":
		return term.NewNum(pos, x+y), nil
	case "sub":
		return term.NewNum(pos, x-y), nil
	case "mult":
		return term.NewNum(pos, x*y), nil
	case "div":
		if y == 0 {
			return nil, errors.Other("division by zero", pos)
		}
		return term.NewNum(pos, x/y), nil
	case "modulo":
		if y == 0 {
			return nil, errors.Other("modulo by zero", pos)
		}
		return term.NewNum(pos, math.Mod(x, y)), nil
	case "pow":
		return term.NewNum(pos, math.Pow(x, y)), nil
	case "less_than":
		return term.NewBool(pos, x < y), nil
	case "less_or_eq":
		return term.NewBool(pos, x <= y), nil
	case "greater_than":
		return term.NewBool(pos, x > y), nil
	case "greater_or_eq":
		return term.NewBool(pos, x >= y), nil
	default:
		return nil, errors.Other(fmt.Sprintf("unknown numeric operator %q", op), pos)
	}
}

// structurallyEqual implements Eq : forall a b. a -> b -> Bool over the atomic and composite shapes the boundary scenarios and
// laws exercise. Any other term (a function, a label, an enum tag, ...)
// compares unequal to everything, itself included.
func structurallyEqual(a, b term.Term) bool {
	switch x := a.(type) {
	case term.NumTerm:
		y, ok := b.(term.NumTerm)
		return ok && x.Value == y.Value
	case term.StrTerm:
		y, ok := b.(term.StrTerm)
		return ok && x.Value == y.Value
	case term.BoolTerm:
		y, ok := b.(term.BoolTerm)
		return ok && x.Value == y.Value
	case term.Null:
		_, ok := b.(term.Null)
		return ok
	case term.List:
		y, ok := b.(term.List)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !structurallyEqual(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case term.Record:
		y, ok := b.(term.Record)
		if !ok || x.Fields.Len() != y.Fields.Len() {
			return false
		}
		eq := true
		x.Fields.Range(func(id ident.Ident, v term.Term) bool {
			yv, ok := y.Fields.Get(id)
			if !ok || !structurallyEqual(v, yv) {
				eq = false
				return false
			}
			return true
		})
		return eq
	default:
		return false
	}
}

// mergeValues implements Merge : Dyn -> Dyn -> Dyn, including
// the enriched-default-value rules boundary scenarios 7 and 8 and the
// "merge of two defaults with distinct concrete values errors with a
// blame" law require. Both a and b have already been forced under a
// non-strict context, so a DefaultValue here is a genuine enriched value,
// not an unwrapped one.
func mergeValues(pos term.Position, a, b term.Term) (term.Term, error) {
	ad, aIsDefault := a.(term.DefaultValue)
	bd, bIsDefault := b.(term.DefaultValue)

	switch {
	case aIsDefault && bIsDefault:
		if structurallyEqual(ad.Value, bd.Value) {
			return a, nil
		}
		l := label.New("Merge", "")
		return nil, errors.Blame(l, pos)
	case aIsDefault && !bIsDefault:
		// a concrete value on the right always wins over a default.
		return b, nil
	case !aIsDefault && bIsDefault:
		return a, nil
	}

	// Neither side is a default: structural merge for records, otherwise
	// the two sides must already agree.
	ar, aIsRec := a.(term.Record)
	br, bIsRec := b.(term.Record)
	if aIsRec && bIsRec {
		return mergeRecords(pos, ar, br)
	}
	if structurallyEqual(a, b) {
		return a, nil
	}
	l := label.New("Merge", "")
	return nil, errors.Blame(l, pos)
}

func mergeRecords(pos term.Position, a, b term.Record) (term.Term, error) {
	out := ident.NewMap[term.Term]()
	a.Fields.Range(func(id ident.Ident, v term.Term) bool {
		out.Set(id, v)
		return true
	})
	var mergeErr error
	b.Fields.Range(func(id ident.Ident, v term.Term) bool {
		if existing, ok := out.Get(id); ok {
			merged, err := mergeValues(pos, existing, v)
			if err != nil {
				mergeErr = err
				return false
			}
			out.Set(id, merged)
		} else {
			out.Set(id, v)
		}
		return true
	})
	if mergeErr != nil {
		return nil, mergeErr
	}
	return term.Record{Fields: out, Attrs: a.Attrs}, nil
}
