package term

import (
	"fmt"
	"strings"

	"github.com/cwbudde/crucible/internal/label"
	"github.com/cwbudde/crucible/pkg/ident"
)

// Term is the sealed interface implemented by every node of the term model
//. Nodes classify themselves: IsWHNF and IsEnriched let the
// evaluator dispatch without a second type switch at every call site.
type Term interface {
	// Pos returns the term's source position (possibly inherited, possibly
	// unset for a synthetic node).
	Pos() Position
	// String renders the term for diagnostics and golden tests.
	String() string
	// IsWHNF reports whether this term is already in weak head normal
	// form: no further machine step would change its outermost shape.
	IsWHNF() bool
	// IsEnriched reports whether this term is one of the enriched-value
	// wrappers (DefaultValue, Docstring, Contract, ContractWithDefault).
	IsEnriched() bool
	termNode()
}

// BindingType distinguishes an ordinary let-binding from one whose original
// closure must be remembered for record-merge reversion.
type BindingType int

const (
	// Normal bindings are never reverted; once updated to WHNF the
	// original closure is gone.
	Normal BindingType = iota
	// Revertible bindings (always produced for RecRecord fields by the
	// share-normal-form transform) remember their original closure so a
	// later merge can re-derive the field under a new recursive
	// environment.
	Revertible
)

func (b BindingType) String() string {
	if b == Revertible {
		return "revertible"
	}
	return "normal"
}

// IdentKind records why an identifier was bound, purely for diagnostics
// (call-stack frames) — it never affects evaluation.
type IdentKind int

const (
	KindLet IdentKind = iota
	KindLam
	KindRecord
)

func (k IdentKind) String() string {
	switch k {
	case KindLam:
		return "lambda"
	case KindRecord:
		return "record"
	default:
		return "let"
	}
}

// base is embedded by every Term implementation to carry its position.
type base struct {
	P Position
}

func (b base) Pos() Position   { return b.P }
func (base) IsEnriched() bool  { return false }

// ---- atoms ----

type Null struct{ base }

func (Null) termNode()     {}
func (Null) IsWHNF() bool  { return true }
func (Null) String() string { return "null" }

type BoolTerm struct {
	base
	Value bool
}

func (BoolTerm) termNode()    {}
func (BoolTerm) IsWHNF() bool { return true }
func (t BoolTerm) String() string {
	if t.Value {
		return "true"
	}
	return "false"
}

type NumTerm struct {
	base
	Value float64
}

func (NumTerm) termNode()    {}
func (NumTerm) IsWHNF() bool { return true }
func (t NumTerm) String() string {
	return fmt.Sprintf("%g", t.Value)
}

type StrTerm struct {
	base
	Value string
}

func (StrTerm) termNode()    {}
func (StrTerm) IsWHNF() bool { return true }
func (t StrTerm) String() string {
	return fmt.Sprintf("%q", t.Value)
}

// LabelTerm embeds a blame label as a term-level atom, produced when a
// Promise/Assume pushes its label argument onto the stack.
type LabelTerm struct {
	base
	Label *label.Label
}

func (LabelTerm) termNode()    {}
func (LabelTerm) IsWHNF() bool { return true }
func (t LabelTerm) String() string {
	if t.Label == nil {
		return "<label>"
	}
	return t.Label.String()
}

// SymTerm is an opaque generated symbol, used internally by contracts that
// need an unforgeable marker (never produced by a parser).
type SymTerm struct {
	base
	ID uint64
}

func (SymTerm) termNode()    {}
func (SymTerm) IsWHNF() bool { return true }
func (t SymTerm) String() string {
	return fmt.Sprintf("sym#%d", t.ID)
}

// EnumTerm is an enum tag, e.g. `` `Json `` in a Serialize/Deserialize call.
type EnumTerm struct {
	base
	Tag ident.Ident
}

func (EnumTerm) termNode()    {}
func (EnumTerm) IsWHNF() bool { return true }
func (t EnumTerm) String() string {
	return "`" + t.Tag.String()
}

// ---- variables, functions, application, let ----

type Var struct {
	base
	ID ident.Ident
}

func (Var) termNode()     {}
func (Var) IsWHNF() bool  { return false }
func (t Var) String() string { return t.ID.String() }

type Fun struct {
	base
	Param ident.Ident
	Body  Term
}

func (Fun) termNode()    {}
func (Fun) IsWHNF() bool { return true }
func (t Fun) String() string {
	return fmt.Sprintf("fun %s => %s", t.Param, t.Body)
}

type Let struct {
	base
	ID      ident.Ident
	Bound   Term
	Body    Term
	Binding BindingType
}

func (Let) termNode()    {}
func (Let) IsWHNF() bool { return false }
func (t Let) String() string {
	return fmt.Sprintf("let %s = %s in %s", t.ID, t.Bound, t.Body)
}

type App struct {
	base
	Fn  Term
	Arg Term
}

func (App) termNode()    {}
func (App) IsWHNF() bool { return false }
func (t App) String() string {
	return fmt.Sprintf("(%s %s)", t.Fn, t.Arg)
}

// ---- primitive operator application ----

// Op1 applies a unary primitive operator to Arg. ID carries the payload for
// the two operators that embed an identifier in the operator tag itself
// (Embed, StaticAccess); every other operator leaves it empty.
type Op1 struct {
	base
	Op  string
	ID  string
	Arg Term
}

func (Op1) termNode()    {}
func (Op1) IsWHNF() bool { return false }
func (t Op1) String() string {
	if t.ID != "" {
		return fmt.Sprintf("%s(%s, %s)", t.Op, t.ID, t.Arg)
	}
	return fmt.Sprintf("%s(%s)", t.Op, t.Arg)
}

type Op2 struct {
	base
	Op       string
	Fst, Snd Term
}

func (Op2) termNode()    {}
func (Op2) IsWHNF() bool { return false }
func (t Op2) String() string {
	return fmt.Sprintf("%s(%s, %s)", t.Op, t.Fst, t.Snd)
}

type OpN struct {
	base
	Op   string
	Args []Term
}

func (OpN) termNode()    {}
func (OpN) IsWHNF() bool { return false }
func (t OpN) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", t.Op, strings.Join(parts, ", "))
}

// ---- records and lists ----

// RecordAttrs carries non-field metadata (currently just open/closed, for
// future record-contract extensions — the evaluator itself never consults
// it).
type RecordAttrs struct {
	Open bool
}

type Record struct {
	base
	Fields *ident.Map[Term]
	Attrs  RecordAttrs
}

func (Record) termNode()    {}
func (Record) IsWHNF() bool { return true }
func (t Record) String() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	first := true
	t.Fields.Range(func(id ident.Ident, v Term) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%s = %s", id, v)
		return true
	})
	sb.WriteString(" }")
	return sb.String()
}

// DynField is a Record/RecRecord field whose name is itself computed, e.g.
// `{ "%s" = ... }` with an interpolated key. RecRecord wiring evaluates the
// name expression in the recursive environment and requires it to yield a
// string.
type DynField struct {
	Name  Term
	Value Term
}

// RecRecord is a *recursive* record: fields may reference one another. It
// only ever exists before evaluation begins (I4) — the machine rewrites it
// into a Record once it has wired each field's thunk environment.
type RecRecord struct {
	base
	Fields    *ident.Map[Term]
	DynFields []DynField
	Attrs     RecordAttrs
}

func (RecRecord) termNode()    {}
func (RecRecord) IsWHNF() bool { return false }
func (t RecRecord) String() string {
	var sb strings.Builder
	sb.WriteString("{ rec ")
	first := true
	t.Fields.Range(func(id ident.Ident, v Term) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%s = %s", id, v)
		return true
	})
	sb.WriteString(" }")
	return sb.String()
}

type List struct {
	base
	Elems []Term
}

func (List) termNode()    {}
func (List) IsWHNF() bool { return true }
func (t List) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ---- string interpolation ----

// Chunk is either a literal fragment or an embedded expression, listed in
// source (i.e. left-to-right evaluation) order.
type Chunk struct {
	Literal string
	Expr    Term // nil when this chunk is a plain literal
}

func (c Chunk) IsExpr() bool { return c.Expr != nil }

type StrChunks struct {
	base
	Chunks []Chunk
}

func (StrChunks) termNode()    {}
func (StrChunks) IsWHNF() bool { return false }
func (t StrChunks) String() string {
	var sb strings.Builder
	sb.WriteString(`"`)
	for _, c := range t.Chunks {
		if c.IsExpr() {
			fmt.Fprintf(&sb, "%%{%s}", c.Expr)
		} else {
			sb.WriteString(c.Literal)
		}
	}
	sb.WriteString(`"`)
	return sb.String()
}

// ---- contracts ----

type Promise struct {
	base
	Ty    Type
	Label *label.Label
	Body  Term
}

func (Promise) termNode()    {}
func (Promise) IsWHNF() bool { return false }
func (t Promise) String() string {
	return fmt.Sprintf("promise(%s, %s)", t.Ty, t.Body)
}

type Assume struct {
	base
	Ty    Type
	Label *label.Label
	Body  Term
}

func (Assume) termNode()    {}
func (Assume) IsWHNF() bool { return false }
func (t Assume) String() string {
	return fmt.Sprintf("assume(%s, %s)", t.Ty, t.Body)
}

// ---- enriched values ----

type DefaultValue struct {
	base
	Value Term
}

func (DefaultValue) termNode()     {}
func (DefaultValue) IsWHNF() bool  { return true }
func (DefaultValue) IsEnriched() bool { return true }
func (t DefaultValue) String() string {
	return fmt.Sprintf("default(%s)", t.Value)
}

type Docstring struct {
	base
	Doc   string
	Value Term
}

func (Docstring) termNode()     {}
func (Docstring) IsWHNF() bool  { return true }
func (Docstring) IsEnriched() bool { return true }
func (t Docstring) String() string {
	return fmt.Sprintf("doc(%q, %s)", t.Doc, t.Value)
}

// Contract is an enriched value standing for a field declared with a
// contract but no default: `{ x | Num }` before assignment. Reading it
// under a strict context without a value present is an error.
type Contract struct {
	base
	Ty    Type
	Label *label.Label
}

func (Contract) termNode()     {}
func (Contract) IsWHNF() bool  { return true }
func (Contract) IsEnriched() bool { return true }
func (t Contract) String() string {
	return fmt.Sprintf("contract(%s)", t.Ty)
}

type ContractWithDefault struct {
	base
	Ty    Type
	Label *label.Label
	Value Term
}

func (ContractWithDefault) termNode()     {}
func (ContractWithDefault) IsWHNF() bool  { return true }
func (ContractWithDefault) IsEnriched() bool { return true }
func (t ContractWithDefault) String() string {
	return fmt.Sprintf("contract(%s, default=%s)", t.Ty, t.Value)
}

// MetaValue bundles a value with its documentation and pending contracts.
// The share-normal-form transform keeps the node, only hoisting a
// shareable value into an outer let; the machine has no dispatch case of
// its own for MetaValue.
type MetaValue struct {
	base
	Value     Term // nil if the field has no value yet
	Contracts []Type
	Doc       string
}

func (MetaValue) termNode()    {}
func (MetaValue) IsWHNF() bool { return false }
func (t MetaValue) String() string {
	if t.Value == nil {
		return "metavalue(<no value>)"
	}
	return fmt.Sprintf("metavalue(%s)", t.Value)
}

// ---- imports ----

type Import struct {
	base
	Path string
}

func (Import) termNode()    {}
func (Import) IsWHNF() bool { return false }
func (t Import) String() string {
	return fmt.Sprintf("import %q", t.Path)
}

// ResolvedImport references an already-resolved import by the file id the
// resolver assigned it.
type ResolvedImport struct {
	base
	FileID int
}

func (ResolvedImport) termNode()    {}
func (ResolvedImport) IsWHNF() bool { return false }
func (t ResolvedImport) String() string {
	return fmt.Sprintf("resolved_import(%d)", t.FileID)
}

// ---- constructors (each takes the position to attach; WithPos below
// re-positions an existing term) ----

func NewNull(pos Position) Term                  { return Null{base{pos}} }
func NewBool(pos Position, v bool) Term          { return BoolTerm{base{pos}, v} }
func NewNum(pos Position, v float64) Term        { return NumTerm{base{pos}, v} }
func NewStr(pos Position, v string) Term         { return StrTerm{base{pos}, v} }
func NewLabel(pos Position, l *label.Label) Term       { return LabelTerm{base{pos}, l} }
func NewVar(pos Position, id ident.Ident) Term   { return Var{base{pos}, id} }

// IsConstant reports whether t is one of the atoms the share-normal-form
// transform's RecRecord rule treats as safe to leave in place without
// hoisting: Null, Bool, Num, Str, Enum, Fun.
func IsConstant(t Term) bool {
	switch t.(type) {
	case Null, BoolTerm, NumTerm, StrTerm, EnumTerm, Fun:
		return true
	default:
		return false
	}
}

// ShouldShare reports whether t must be hoisted into a let-binding by the
// share-normal-form transform: true unless t is one of
// Null | Bool | Num | Str | Label | Sym | Var | Enum | Fun.
func ShouldShare(t Term) bool {
	switch t.(type) {
	case Null, BoolTerm, NumTerm, StrTerm, LabelTerm, SymTerm, Var, EnumTerm, Fun:
		return false
	default:
		return true
	}
}

// WithPos returns a copy of t carrying position p, used by rewrites (the
// share-normal-form transform's with_bindings, RecRecord wiring) that need
// to attach a position — typically an inherited one — to a node they did
// not originally parse.
func WithPos(t Term, p Position) Term {
	switch n := t.(type) {
	case Null:
		n.P = p
		return n
	case BoolTerm:
		n.P = p
		return n
	case NumTerm:
		n.P = p
		return n
	case StrTerm:
		n.P = p
		return n
	case LabelTerm:
		n.P = p
		return n
	case SymTerm:
		n.P = p
		return n
	case EnumTerm:
		n.P = p
		return n
	case Var:
		n.P = p
		return n
	case Fun:
		n.P = p
		return n
	case Let:
		n.P = p
		return n
	case App:
		n.P = p
		return n
	case Op1:
		n.P = p
		return n
	case Op2:
		n.P = p
		return n
	case OpN:
		n.P = p
		return n
	case Record:
		n.P = p
		return n
	case RecRecord:
		n.P = p
		return n
	case List:
		n.P = p
		return n
	case StrChunks:
		n.P = p
		return n
	case Promise:
		n.P = p
		return n
	case Assume:
		n.P = p
		return n
	case DefaultValue:
		n.P = p
		return n
	case Docstring:
		n.P = p
		return n
	case Contract:
		n.P = p
		return n
	case ContractWithDefault:
		n.P = p
		return n
	case MetaValue:
		n.P = p
		return n
	case Import:
		n.P = p
		return n
	case ResolvedImport:
		n.P = p
		return n
	default:
		return t
	}
}
