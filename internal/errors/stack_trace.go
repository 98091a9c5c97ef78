package errors

import (
	"fmt"
	"strings"

	"github.com/cwbudde/crucible/internal/runtime"
	"github.com/cwbudde/crucible/internal/term"
)

// StackFrame is one rendered frame of a BlameError's attached call stack
//, adapted from a runtime.CallStackElem into a human-readable
// line.
type StackFrame struct {
	Position *term.Position
	Label    string
}

// String renders a frame as "label [line: N, column: M]", or just the
// label when no position was recorded (a synthetic App/Var frame).
func (sf StackFrame) String() string {
	if sf.Position == nil || !sf.Position.IsSet() {
		return sf.Label
	}
	return fmt.Sprintf("%s [line: %d, column: %d]", sf.Label, sf.Position.Line, sf.Position.Column)
}

// StackTrace is a complete call stack, oldest frame first — the same
// order runtime.CallStack accumulates frames in.
type StackTrace []StackFrame

// FromCallStack renders a snapshot of runtime call-stack elements into a
// StackTrace suitable for attaching to a BlameError report.
func FromCallStack(elems []runtime.CallStackElem) StackTrace {
	st := make(StackTrace, len(elems))
	for i, e := range elems {
		pos := e.Pos
		var label string
		switch e.Kind {
		case runtime.CallApp:
			label = "<application>"
		case runtime.CallVar:
			label = fmt.Sprintf("%s (%s)", e.ID, e.IdentKind)
		}
		st[i] = StackFrame{Position: &pos, Label: label}
	}
	return st
}

// String prints frames newest-first, one per line — the order a human
// reads a stack trace in.
func (st StackTrace) String() string {
	if len(st) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := len(st) - 1; i >= 0; i-- {
		sb.WriteString(st[i].String())
		if i > 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Top returns the most recently pushed frame, or nil if the trace is empty.
func (st StackTrace) Top() *StackFrame {
	if len(st) == 0 {
		return nil
	}
	return &st[len(st)-1]
}

// Depth returns the number of frames in the trace.
func (st StackTrace) Depth() int {
	return len(st)
}
