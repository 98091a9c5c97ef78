package eval

import (
	"testing"

	"github.com/cwbudde/crucible/internal/term"
	"github.com/cwbudde/crucible/pkg/ident"
)

func enumTag(tag string) term.Term {
	return term.EnumTerm{Tag: ident.New(tag)}
}

func TestSerializeDeserializeJSONRoundTrip(t *testing.T) {
	c := DocumentCodec{}
	fields := ident.NewMap[term.Term]()
	fields.Set(ident.New("name"), term.NewStr(term.NoPos, "crucible"))
	fields.Set(ident.New("count"), term.NewNum(term.NoPos, 3))
	rec := term.Record{Fields: fields}

	raw, err := c.Serialize(term.NoPos, enumTag("Json"), rec)
	if err != nil {
		t.Fatalf("unexpected serialize error: %v", err)
	}
	s, ok := raw.(term.StrTerm)
	if !ok {
		t.Fatalf("expected a string result, got %T", raw)
	}

	back, err := c.Deserialize(term.NoPos, enumTag("Json"), s)
	if err != nil {
		t.Fatalf("unexpected deserialize error: %v", err)
	}
	recBack, ok := back.(term.Record)
	if !ok {
		t.Fatalf("expected a Record after deserializing, got %T", back)
	}
	name, ok := recBack.Fields.Get(ident.New("name"))
	if !ok || name.(term.StrTerm).Value != "crucible" {
		t.Fatalf("expected name=crucible to round-trip, got %#v", name)
	}
}

func TestSerializeDeserializeYamlRoundTrip(t *testing.T) {
	c := DocumentCodec{}
	lst := term.List{Elems: []term.Term{term.NewNum(term.NoPos, 1), term.NewNum(term.NoPos, 2)}}
	raw, err := c.Serialize(term.NoPos, enumTag("Yaml"), lst)
	if err != nil {
		t.Fatalf("unexpected serialize error: %v", err)
	}
	back, err := c.Deserialize(term.NoPos, enumTag("Yaml"), raw)
	if err != nil {
		t.Fatalf("unexpected deserialize error: %v", err)
	}
	backLst, ok := back.(term.List)
	if !ok || len(backLst.Elems) != 2 {
		t.Fatalf("expected a 2-element list back, got %#v", back)
	}
}

func TestDeserializeInvalidJSONErrors(t *testing.T) {
	c := DocumentCodec{}
	if _, err := c.Deserialize(term.NoPos, enumTag("Json"), term.NewStr(term.NoPos, "{not json")); err == nil {
		t.Fatalf("expected an error for invalid JSON")
	}
}

func TestHashProducesStableHexDigest(t *testing.T) {
	c := DocumentCodec{}
	out, err := c.Hash(term.NoPos, enumTag("Sha256"), term.NewStr(term.NoPos, "hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := out.(term.StrTerm)
	if !ok {
		t.Fatalf("expected a string digest, got %T", out)
	}
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if s.Value != want {
		t.Fatalf("got %s, want %s", s.Value, want)
	}
}

func TestHashRejectsUnknownAlgorithm(t *testing.T) {
	c := DocumentCodec{}
	if _, err := c.Hash(term.NoPos, enumTag("Bogus"), term.NewStr(term.NoPos, "x")); err == nil {
		t.Fatalf("expected an error for an unsupported hash algorithm")
	}
}
