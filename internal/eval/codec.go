package eval

import "github.com/cwbudde/crucible/internal/term"

// Codec backs the data-format and hashing operators (Serialize,
// Deserialize, Hash —) that are a pure function of an encoding
// tag and a value, not of the evaluator's control flow. Kept separate from
// DefaultOpRegistry's hand-written arithmetic/string bodies so those
// concerns can each be grounded on their own library.
type Codec interface {
	// Unary lets a codec also claim unary operator tags (none currently
	// does; reserved so future codec-backed unary ops — e.g. a bare
	// `ToJson` shorthand — don't need a registry change). handled reports
	// whether op was recognized at all.
	Unary(op string, pos term.Position, v term.Term) (result term.Term, err error, handled bool)
	Serialize(pos term.Position, format, value term.Term) (term.Term, error)
	Deserialize(pos term.Position, format, src term.Term) (term.Term, error)
	Hash(pos term.Position, algo, value term.Term) (term.Term, error)
}
