package eval

import "github.com/cwbudde/crucible/internal/term"

// Resolver is the narrow import-resolution boundary the evaluator depends
// on: "resolver.get(file_id) -> Option<RichTerm>". Absence is a
// fatal internal error — the pipeline that builds ResolvedImport nodes
// must have resolved and cached every import before evaluation starts.
type Resolver interface {
	Get(fileID int) (term.Term, bool)
}

// DummyResolver never resolves anything; used by tests that are known not
// to touch imports, mirroring
// the reference machine's own DummyResolver test fixture.
type DummyResolver struct{}

func (DummyResolver) Get(int) (term.Term, bool) { return nil, false }

// MapResolver resolves file ids from an in-memory table — used by tests
// that assemble the resolved-term graph by hand.
type MapResolver map[int]term.Term

func (m MapResolver) Get(id int) (term.Term, bool) {
	t, ok := m[id]
	return t, ok
}
