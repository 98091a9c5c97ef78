package typer

import "testing"

func TestUnifyVarWithConcreteType(t *testing.T) {
	s, err := Unify(TVar{Name: "a"}, TNum{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s["a"].String() != "Num" {
		t.Fatalf("expected a := Num, got %v", s)
	}
}

func TestUnifyOccursCheckFails(t *testing.T) {
	a := TVar{Name: "a"}
	listOfA := TList{Elem: a}
	if _, err := Unify(a, listOfA); err == nil {
		t.Fatalf("expected an occurs-check failure unifying a with List a")
	}
}

func TestUnifyArrowsRecursively(t *testing.T) {
	lhs := TArrow{Dom: TVar{Name: "a"}, Cod: TNum{}}
	rhs := TArrow{Dom: TStr{}, Cod: TVar{Name: "b"}}
	s, err := Unify(lhs, rhs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s["a"].String() != "Str" {
		t.Fatalf("expected a := Str, got %v", s["a"])
	}
	if s["b"].String() != "Num" {
		t.Fatalf("expected b := Num, got %v", s["b"])
	}
}

func TestUnifyShapeMismatchFails(t *testing.T) {
	if _, err := Unify(TNum{}, TBool{}); err == nil {
		t.Fatalf("expected Num and Bool to fail unification")
	}
}

func TestUnifyRecordsRequireSameFieldSet(t *testing.T) {
	a := TRecord{Fields: map[string]Type{"x": TNum{}}}
	b := TRecord{Fields: map[string]Type{"x": TNum{}, "y": TStr{}}}
	if _, err := Unify(a, b); err == nil {
		t.Fatalf("expected closed records with different field sets to fail")
	}
}

func TestUnifyRecordsWithMatchingOpenRows(t *testing.T) {
	a := TRecord{Fields: map[string]Type{"x": TNum{}}, Row: TVar{Name: "r1"}}
	b := TRecord{Fields: map[string]Type{"x": TNum{}}, Row: TVar{Name: "r2"}}
	s, err := Unify(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s["r1"] == nil && s["r2"] == nil {
		t.Fatalf("expected the two row variables to be unified: %v", s)
	}
}

func TestUnifyEnumsCompareTagSetsAndRows(t *testing.T) {
	closed1 := TEnum{Tags: []string{"Json", "Yaml"}}
	closed2 := TEnum{Tags: []string{"Yaml", "Json"}}
	if _, err := Unify(closed1, closed2); err != nil {
		t.Fatalf("expected tag-set equality regardless of order: %v", err)
	}

	closed3 := TEnum{Tags: []string{"Json"}}
	if _, err := Unify(closed1, closed3); err == nil {
		t.Fatalf("expected different tag sets to fail")
	}
}

func TestSubstComposeAppliesInOrder(t *testing.T) {
	s1 := Subst{"a": TVar{Name: "b"}}
	s2 := Subst{"b": TNum{}}
	composed := s1.Compose(s2)
	applied := TVar{Name: "a"}.Apply(composed)
	if applied.String() != "Num" {
		t.Fatalf("expected a to resolve through b to Num, got %s", applied)
	}
}
