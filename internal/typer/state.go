package typer

import "fmt"

// State is the unification state provider spec.md §6 calls for: a
// fresh-variable generator plus a row-constraint table, both mutated as
// operator schemes are built (Embed registers a "must not already contain
// this tag" constraint on the row variable it just minted).
type State struct {
	next        int
	constraints map[string][]string // row TVar name -> excluded tags
}

// NewState returns a State with its variable counter at zero and an empty
// constraint table, scoped to one
// typer run — nothing here persists across calls, mirroring spec.md §9's
// "the generator's counter is process-scoped but need not persist across
// eval calls" note for the evaluator's own fresh-identifier generator.
func NewState() *State {
	return &State{constraints: make(map[string][]string)}
}

// Fresh allocates a new, previously unused type variable.
func (s *State) Fresh() TVar {
	v := TVar{Name: fmt.Sprintf("t%d", s.next)}
	s.next++
	return v
}

// Constrain records that row variable v must not already contain tag —
// called by Embed(id) on a freshly allocated row, which per spec.md §4.5
// can never fail ("constraining a freshly created variable should never
// fail").
func (s *State) Constrain(v TVar, tag string) {
	for _, existing := range s.constraints[v.Name] {
		if existing == tag {
			return
		}
	}
	s.constraints[v.Name] = append(s.constraints[v.Name], tag)
}

// Excluded reports the tags row variable v is constrained to exclude.
func (s *State) Excluded(v TVar) []string {
	return s.constraints[v.Name]
}

// IsExcluded reports whether v is constrained against tag.
func (s *State) IsExcluded(v TVar, tag string) bool {
	for _, t := range s.constraints[v.Name] {
		if t == tag {
			return true
		}
	}
	return false
}
