package runtime

import (
	"github.com/cwbudde/crucible/internal/term"
	"github.com/cwbudde/crucible/pkg/ident"
)

// OpContKind distinguishes the shapes an operator continuation can take
//.
type OpContKind int

const (
	ContOp1 OpContKind = iota
	ContOp2First
	ContOp2Second
	ContOpN
	ContStrChunks
)

// OpCont is the payload of a pending operator continuation.
type OpCont struct {
	Kind OpContKind
	Op   string
	ID   string // set for Op1 operators that carry an identifier (embed, static_access)
	Pos  term.Position

	// Op2First / Op2Second
	Other      Closure   // Op2First: the not-yet-evaluated second operand
	FirstVal   term.Term // Op2Second: the evaluated first operand
	PrevStrict bool

	// OpN
	NArgs []term.Term // remaining unevaluated arguments
	NDone []term.Term // already-evaluated arguments, in order

	// ContStrChunks: remaining chunks still to be folded in, and the
	// string accumulated so far from already-forced chunks.
	Chunks []term.Chunk
	Acc    string
	Env    *Environment // environment the remaining chunks close over
}

// Elem is one frame of the machine's explicit stack.
type Elem struct {
	// exactly one of the following is meaningful, selected by Kind
	Kind ElemKind

	Arg      Closure
	ArgPos   term.Position
	Weak     WeakThunk
	Cont     OpCont
	ContPos  term.Position
	CallLen  int // call-stack depth at the time the continuation was pushed
}

type ElemKind int

const (
	ElemArg ElemKind = iota
	ElemThunkUpdate
	ElemOpCont
)

// Stack is the machine's explicit side stack: pending arguments, pending
// thunk updates, and operator continuations, all in one LIFO sequence —
// matching the reference machine, where all three share a single Vec so
// that "is_top_thunk"/"is_top_cont" checks only ever look at the top frame.
type Stack struct {
	frames []Elem
}

func NewStack() *Stack { return &Stack{} }

func (s *Stack) PushArg(c Closure, pos term.Position) {
	s.frames = append(s.frames, Elem{Kind: ElemArg, Arg: c, ArgPos: pos})
}

func (s *Stack) PushThunkUpdate(w WeakThunk) {
	s.frames = append(s.frames, Elem{Kind: ElemThunkUpdate, Weak: w})
}

func (s *Stack) PushOpCont(cont OpCont, callLen int, pos term.Position) {
	s.frames = append(s.frames, Elem{Kind: ElemOpCont, Cont: cont, CallLen: callLen, ContPos: pos})
}

func (s *Stack) Len() int { return len(s.frames) }

func (s *Stack) top() (Elem, bool) {
	if len(s.frames) == 0 {
		return Elem{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// IsTopThunkUpdate reports whether the top frame is a pending thunk
// update.
func (s *Stack) IsTopThunkUpdate() bool {
	e, ok := s.top()
	return ok && e.Kind == ElemThunkUpdate
}

// IsTopOpCont reports whether the top frame is an operator continuation.
func (s *Stack) IsTopOpCont() bool {
	e, ok := s.top()
	return ok && e.Kind == ElemOpCont
}

// PopArg pops a pending argument. If the top frame isn't one, the stack
// is left unchanged and ok is false.
func (s *Stack) PopArg() (Closure, term.Position, bool) {
	e, ok := s.top()
	if !ok || e.Kind != ElemArg {
		return Closure{}, term.Position{}, false
	}
	s.frames = s.frames[:len(s.frames)-1]
	return e.Arg, e.ArgPos, true
}

// PopThunkUpdate pops one pending thunk-update frame.
func (s *Stack) PopThunkUpdate() (WeakThunk, bool) {
	e, ok := s.top()
	if !ok || e.Kind != ElemThunkUpdate {
		return WeakThunk{}, false
	}
	s.frames = s.frames[:len(s.frames)-1]
	return e.Weak, true
}

// PopOpCont pops one operator-continuation frame.
func (s *Stack) PopOpCont() (OpCont, term.Position, int, bool) {
	e, ok := s.top()
	if !ok || e.Kind != ElemOpCont {
		return OpCont{}, term.Position{}, 0, false
	}
	s.frames = s.frames[:len(s.frames)-1]
	return e.Cont, e.ContPos, e.CallLen, true
}

// CountArgs reports how many consecutive Arg frames sit on top of the
// stack (Fun's dispatch only ever needs to know "is there at least one").
func (s *Stack) CountArgs() int {
	n := 0
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind != ElemArg {
			break
		}
		n++
	}
	return n
}

// DrainThunkUpdates pops every consecutive ThunkUpdate frame from the top
// of the stack, overwriting each still-live target with c.
// Dead weak references are silently skipped.
func (s *Stack) DrainThunkUpdates(c Closure) {
	for {
		w, ok := s.PopThunkUpdate()
		if !ok {
			return
		}
		if t, live := w.Upgrade(); live {
			t.Update(c)
		}
	}
}

// CallStackElemKind distinguishes the two call-stack frame shapes.
type CallStackElemKind int

const (
	CallApp CallStackElemKind = iota
	CallVar
)

type CallStackElem struct {
	Kind CallStackElemKind
	Pos  term.Position

	// CallVar only:
	IdentKind term.IdentKind
	ID        ident.Ident
}

// CallStack records App/Var frames purely for error reporting, exactly as
///§7 describe.
type CallStack struct {
	Elems []CallStackElem
}

func (cs *CallStack) PushApp(pos term.Position) {
	cs.Elems = append(cs.Elems, CallStackElem{Kind: CallApp, Pos: pos})
}

func (cs *CallStack) PushVar(kind term.IdentKind, id ident.Ident, pos term.Position) {
	cs.Elems = append(cs.Elems, CallStackElem{Kind: CallVar, IdentKind: kind, ID: id, Pos: pos})
}

func (cs *CallStack) TruncateTo(n int) {
	if n < len(cs.Elems) {
		cs.Elems = cs.Elems[:n]
	}
}

func (cs *CallStack) Len() int { return len(cs.Elems) }

// Snapshot returns a copy of the call stack's frames, safe to attach to an
// error without aliasing future mutation.
func (cs *CallStack) Snapshot() []CallStackElem {
	out := make([]CallStackElem, len(cs.Elems))
	copy(out, cs.Elems)
	return out
}
