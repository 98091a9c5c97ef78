// Package resolver implements a file-backed eval.Resolver: a narrow
// external collaborator that loads a YAML or JSON document from disk and
// converts it into a term tree the evaluator can import, caching the
// result by file id once resolved.
//
// Grounded on internal/eval's DocumentCodec conversion helpers
// (valueToTerm's scalar/list/record shape), reused here for the opposite
// direction of the same Serialize/Deserialize boundary: turning an
// on-disk document into the Record the evaluator's ResolvedImport node
// expects, rather than a runtime value into a document string.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	yaml "github.com/goccy/go-yaml"
	"github.com/tidwall/gjson"

	"github.com/cwbudde/crucible/internal/term"
	"github.com/cwbudde/crucible/pkg/ident"
)

// DocumentResolver implements eval.Resolver by mapping integer file ids to
// paths registered with Register, loading and parsing each path lazily on
// first Get and caching the resulting term thereafter.
//
// Not safe for concurrent Register calls; Get is safe to call concurrently
// once every path has been registered (the spec's own execution model is
// single-threaded end to end, but the cache uses a mutex rather than
// assume that from inside this package).
type DocumentResolver struct {
	mu    sync.Mutex
	paths map[int]string
	cache map[int]term.Term
}

// NewDocumentResolver returns an empty resolver ready for Register calls.
func NewDocumentResolver() *DocumentResolver {
	return &DocumentResolver{
		paths: make(map[int]string),
		cache: make(map[int]term.Term),
	}
}

// Register associates fileID with the document at path, to be loaded the
// first time Get(fileID) is called. The pipeline that builds
// ResolvedImport nodes is expected to call Register for every import it
// resolves before evaluation begins.
func (r *DocumentResolver) Register(fileID int, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[fileID] = path
}

// Get implements eval.Resolver. A path that fails to read or parse
// resolves as (nil, false): the caller sees the same "unresolved import"
// internal error an absent registration would produce, since by this
// point in the pipeline an unreadable document is also a bug further up
// the resolution chain, not a user-facing distinction worth its own
// EvalErrorKind.
func (r *DocumentResolver) Get(fileID int) (term.Term, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.cache[fileID]; ok {
		return t, true
	}
	path, ok := r.paths[fileID]
	if !ok {
		return nil, false
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	t, err := ParseDocument(path, raw)
	if err != nil {
		return nil, false
	}
	r.cache[fileID] = t
	return t, true
}

// ParseDocument converts raw document bytes into a term tree, dispatching
// on path's extension: ".json" parses via gjson, anything else (".yaml",
// ".yml", or no recognized extension) via goccy/go-yaml — the same
// default a YAML-first configuration language should take, since valid
// YAML is a superset of JSON syntax for scalars and most documents.
func ParseDocument(path string, raw []byte) (term.Term, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		s := string(raw)
		if !gjson.Valid(s) {
			return nil, fmt.Errorf("resolver: %s: invalid JSON", path)
		}
		return valueToTerm(gjson.Parse(s).Value()), nil
	default:
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("resolver: %s: %w", path, err)
		}
		return valueToTerm(generic), nil
	}
}

// valueToTerm mirrors internal/eval's codec conversion of the same name:
// scalars become atoms, YAML/JSON mappings become Records, sequences
// become Lists.
func valueToTerm(v any) term.Term {
	switch x := v.(type) {
	case nil:
		return term.NewNull(term.NoPos)
	case bool:
		return term.NewBool(term.NoPos, x)
	case float64:
		return term.NewNum(term.NoPos, x)
	case int:
		return term.NewNum(term.NoPos, float64(x))
	case int64:
		return term.NewNum(term.NoPos, float64(x))
	case uint64:
		return term.NewNum(term.NoPos, float64(x))
	case string:
		return term.NewStr(term.NoPos, x)
	case []any:
		elems := make([]term.Term, len(x))
		for i, e := range x {
			elems[i] = valueToTerm(e)
		}
		return term.List{Elems: elems}
	case map[string]any:
		fields := ident.NewMap[term.Term]()
		for k, fv := range x {
			fields.Set(ident.New(k), valueToTerm(fv))
		}
		return term.Record{Fields: fields}
	default:
		return term.NewStr(term.NoPos, fmt.Sprintf("%v", x))
	}
}
