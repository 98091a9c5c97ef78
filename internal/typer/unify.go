package typer

import "fmt"

// UnifyError reports two types that cannot be made equal.
type UnifyError struct {
	A, B   Type
	Reason string
}

func (e *UnifyError) Error() string {
	return fmt.Sprintf("cannot unify %s with %s: %s", e.A, e.B, e.Reason)
}

// Unify attempts to find the most general substitution making a and b
// equal, shaped after funvibe-funxy's Unify/Bind pair but scoped to the
// closed set of shapes the operator typer ever produces: no aliases, no
// unions, no higher-kinded application.
func Unify(a, b Type) (Subst, error) {
	if va, ok := a.(TVar); ok {
		return bind(va, b)
	}
	if vb, ok := b.(TVar); ok {
		return bind(vb, a)
	}

	switch ta := a.(type) {
	case TDyn:
		if _, ok := b.(TDyn); ok {
			return Subst{}, nil
		}
	case TNum:
		if _, ok := b.(TNum); ok {
			return Subst{}, nil
		}
	case TBool:
		if _, ok := b.(TBool); ok {
			return Subst{}, nil
		}
	case TStr:
		if _, ok := b.(TStr); ok {
			return Subst{}, nil
		}
	case TSym:
		if _, ok := b.(TSym); ok {
			return Subst{}, nil
		}
	case TArrow:
		tb, ok := b.(TArrow)
		if !ok {
			break
		}
		s1, err := Unify(ta.Dom, tb.Dom)
		if err != nil {
			return nil, err
		}
		s2, err := Unify(ta.Cod.Apply(s1), tb.Cod.Apply(s1))
		if err != nil {
			return nil, err
		}
		return s2.Compose(s1), nil
	case TList:
		tb, ok := b.(TList)
		if !ok {
			break
		}
		return Unify(ta.Elem, tb.Elem)
	case TRecordOf:
		tb, ok := b.(TRecordOf)
		if !ok {
			break
		}
		return Unify(ta.Elem, tb.Elem)
	case TRecord:
		tb, ok := b.(TRecord)
		if !ok {
			break
		}
		return unifyRecords(ta, tb)
	case TEnum:
		tb, ok := b.(TEnum)
		if !ok {
			break
		}
		return unifyEnums(ta, tb)
	}

	return nil, &UnifyError{A: a, B: b, Reason: "shape mismatch"}
}

func bind(v TVar, t Type) (Subst, error) {
	if tv, ok := t.(TVar); ok && tv.Name == v.Name {
		return Subst{}, nil
	}
	for _, fv := range t.FreeVars() {
		if fv == v.Name {
			return nil, &UnifyError{A: v, B: t, Reason: "occurs check failed"}
		}
	}
	return Subst{v.Name: t}, nil
}

func unifyRecords(a, b TRecord) (Subst, error) {
	s := Subst{}
	seen := map[string]bool{}
	for name, ta := range a.Fields {
		tb, ok := b.Fields[name]
		if !ok {
			return nil, &UnifyError{A: a, B: b, Reason: fmt.Sprintf("field %q missing", name)}
		}
		seen[name] = true
		fs, err := Unify(ta.Apply(s), tb.Apply(s))
		if err != nil {
			return nil, err
		}
		s = fs.Compose(s)
	}
	for name := range b.Fields {
		if !seen[name] {
			return nil, &UnifyError{A: a, B: b, Reason: fmt.Sprintf("unexpected field %q", name)}
		}
	}
	if a.Row == nil && b.Row == nil {
		return s, nil
	}
	if a.Row == nil || b.Row == nil {
		return nil, &UnifyError{A: a, B: b, Reason: "open/closed row mismatch"}
	}
	rs, err := Unify(a.Row.Apply(s), b.Row.Apply(s))
	if err != nil {
		return nil, err
	}
	return rs.Compose(s), nil
}

func unifyEnums(a, b TEnum) (Subst, error) {
	tagsEqual := len(a.Tags) == len(b.Tags)
	if tagsEqual {
		bset := make(map[string]bool, len(b.Tags))
		for _, t := range b.Tags {
			bset[t] = true
		}
		for _, t := range a.Tags {
			if !bset[t] {
				tagsEqual = false
				break
			}
		}
	}
	if !tagsEqual {
		return nil, &UnifyError{A: a, B: b, Reason: "enum tags differ"}
	}
	if a.Row == nil && b.Row == nil {
		return Subst{}, nil
	}
	if a.Row == nil || b.Row == nil {
		return nil, &UnifyError{A: a, B: b, Reason: "open/closed row mismatch"}
	}
	return Unify(a.Row, b.Row)
}
