package eval

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	yaml "github.com/goccy/go-yaml"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/cwbudde/crucible/internal/errors"
	"github.com/cwbudde/crucible/internal/term"
	"github.com/cwbudde/crucible/pkg/ident"
)

// DocumentCodec implements Codec for the Json and Yaml encodings named by
//'s `Serialize`/`Deserialize`/`Hash` table, backed by the
// domain-stack document libraries (SPEC_FULL §5): goccy/go-yaml for YAML,
// and tidwall/{gjson,sjson} for JSON's read and write paths respectively.
type DocumentCodec struct{}

func (DocumentCodec) Unary(op string, pos term.Position, v term.Term) (term.Term, error, bool) {
	return nil, nil, false
}

func formatTag(t term.Term) (string, bool) {
	e, ok := t.(term.EnumTerm)
	if !ok {
		return "", false
	}
	return e.Tag.String(), true
}

func (DocumentCodec) Serialize(pos term.Position, format, value term.Term) (term.Term, error) {
	tag, ok := formatTag(format)
	if !ok {
		return nil, errors.Other("serialize: expected an encoding tag (`Json, `Yaml, `Toml)", pos)
	}
	switch tag {
	case "Json":
		raw, err := encodeJSON(value)
		if err != nil {
			return nil, errors.Other(fmt.Sprintf("serialize: %s", err), pos)
		}
		return term.NewStr(pos, raw), nil
	case "Yaml":
		generic := termToValue(value)
		raw, err := yaml.Marshal(generic)
		if err != nil {
			return nil, errors.Other(fmt.Sprintf("serialize: %s", err), pos)
		}
		return term.NewStr(pos, string(raw)), nil
	default:
		return nil, errors.Other(fmt.Sprintf("serialize: unsupported encoding %q", tag), pos)
	}
}

func (DocumentCodec) Deserialize(pos term.Position, format, src term.Term) (term.Term, error) {
	tag, ok := formatTag(format)
	if !ok {
		return nil, errors.Other("deserialize: expected an encoding tag (`Json, `Yaml, `Toml)", pos)
	}
	s, ok := asStr(src)
	if !ok {
		return nil, errors.Other("deserialize: expected a string source", pos)
	}
	switch tag {
	case "Json":
		if !gjson.Valid(s) {
			return nil, errors.Other("deserialize: invalid JSON", pos)
		}
		return valueToTerm(pos, gjson.Parse(s).Value()), nil
	case "Yaml":
		var generic any
		if err := yaml.Unmarshal([]byte(s), &generic); err != nil {
			return nil, errors.Other(fmt.Sprintf("deserialize: %s", err), pos)
		}
		return valueToTerm(pos, generic), nil
	default:
		return nil, errors.Other(fmt.Sprintf("deserialize: unsupported encoding %q", tag), pos)
	}
}

func (DocumentCodec) Hash(pos term.Position, algo, value term.Term) (term.Term, error) {
	tag, ok := formatTag(algo)
	if !ok {
		return nil, errors.Other("hash: expected an algorithm tag (`Md5, `Sha1, `Sha256, `Sha512)", pos)
	}
	s, ok := asStr(value)
	if !ok {
		return nil, errors.Other("hash: expected a string value", pos)
	}
	var sum []byte
	switch tag {
	case "Md5":
		h := md5.Sum([]byte(s))
		sum = h[:]
	case "Sha1":
		h := sha1.Sum([]byte(s))
		sum = h[:]
	case "Sha256":
		h := sha256.Sum256([]byte(s))
		sum = h[:]
	case "Sha512":
		h := sha512.Sum512([]byte(s))
		sum = h[:]
	default:
		return nil, errors.Other(fmt.Sprintf("hash: unsupported algorithm %q", tag), pos)
	}
	return term.NewStr(pos, hex.EncodeToString(sum)), nil
}

// termToValue converts a forced term into the generic Go shape
// goccy/go-yaml's Marshal expects (map[string]any, []any, scalars).
func termToValue(t term.Term) any {
	switch n := t.(type) {
	case term.Null:
		return nil
	case term.BoolTerm:
		return n.Value
	case term.NumTerm:
		return n.Value
	case term.StrTerm:
		return n.Value
	case term.List:
		out := make([]any, len(n.Elems))
		for i, e := range n.Elems {
			out[i] = termToValue(e)
		}
		return out
	case term.Record:
		out := make(map[string]any, n.Fields.Len())
		n.Fields.Range(func(id ident.Ident, v term.Term) bool {
			out[id.String()] = termToValue(v)
			return true
		})
		return out
	default:
		return n.String()
	}
}

// valueToTerm is termToValue's inverse, used for both Yaml and Json
// deserialization once each library has handed back a generic Go value.
func valueToTerm(pos term.Position, v any) term.Term {
	switch x := v.(type) {
	case nil:
		return term.NewNull(pos)
	case bool:
		return term.NewBool(pos, x)
	case float64:
		return term.NewNum(pos, x)
	case int:
		return term.NewNum(pos, float64(x))
	case int64:
		return term.NewNum(pos, float64(x))
	case uint64:
		return term.NewNum(pos, float64(x))
	case string:
		return term.NewStr(pos, x)
	case []any:
		elems := make([]term.Term, len(x))
		for i, e := range x {
			elems[i] = valueToTerm(pos, e)
		}
		return term.List{Elems: elems}
	case map[string]any:
		fields := ident.NewMap[term.Term]()
		for k, fv := range x {
			fields.Set(ident.New(k), valueToTerm(pos, fv))
		}
		return term.Record{Fields: fields}
	default:
		return term.NewStr(pos, fmt.Sprintf("%v", x))
	}
}

// encodeJSON renders a forced term as JSON text, assembling composite
// values key-by-key with sjson.SetRaw rather than reflection-based
// marshaling — the same incremental-document-building style sjson is
// designed for.
func encodeJSON(t term.Term) (string, error) {
	switch n := t.(type) {
	case term.Null:
		return "null", nil
	case term.BoolTerm:
		return strconv.FormatBool(n.Value), nil
	case term.NumTerm:
		return strconv.FormatFloat(n.Value, 'g', -1, 64), nil
	case term.StrTerm:
		return strconv.Quote(n.Value), nil
	case term.List:
		parts := make([]string, len(n.Elems))
		for i, e := range n.Elems {
			raw, err := encodeJSON(e)
			if err != nil {
				return "", err
			}
			parts[i] = raw
		}
		return "[" + strings.Join(parts, ",") + "]", nil
	case term.Record:
		acc := "{}"
		var err error
		n.Fields.Range(func(id ident.Ident, v term.Term) bool {
			var raw string
			raw, err = encodeJSON(v)
			if err != nil {
				return false
			}
			acc, err = sjson.SetRaw(acc, id.String(), raw)
			return err == nil
		})
		if err != nil {
			return "", err
		}
		return acc, nil
	default:
		return strconv.Quote(t.String()), nil
	}
}
