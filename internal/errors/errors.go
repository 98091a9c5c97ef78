// Package errors defines the evaluator and typer error taxonomies and their diagnostic rendering. The taxonomy and call-stack
// attachment are new to this domain; the source-context/caret rendering
// is adapted from the teacher's own CompilerError (errors.go), generalized
// from lexer.Position to the term model's own Position.
package errors

import (
	"fmt"
	"strings"

	"github.com/cwbudde/crucible/internal/runtime"
	"github.com/cwbudde/crucible/internal/term"
	"github.com/cwbudde/crucible/pkg/ident"
)

// EvalErrorKind is one of the five evaluator error taxa.
type EvalErrorKind int

const (
	KindUnboundIdentifier EvalErrorKind = iota
	KindBlame
	KindNotAFunc
	KindOther
	KindInternal
)

func (k EvalErrorKind) String() string {
	switch k {
	case KindUnboundIdentifier:
		return "unbound identifier"
	case KindBlame:
		return "contract violation"
	case KindNotAFunc:
		return "not a function"
	case KindInternal:
		return "internal error"
	default:
		return "error"
	}
}

// LabelDescriptor is the subset of a *label.Label an EvalError needs to
// render a blame, kept narrow here so this package does not have to
// depend on internal/label.
type LabelDescriptor interface {
	String() string
}

// EvalError is the evaluator's single error type, tagged by Kind. Errors
// are non-recoverable inside one Eval call:
// there is no local-recovery API at this layer.
type EvalError struct {
	Kind EvalErrorKind
	Pos  term.Position

	ID        ident.Ident     // KindUnboundIdentifier
	Label     LabelDescriptor // KindBlame
	CallStack []runtime.CallStackElem

	Applied term.Term // KindNotAFunc
	Arg     term.Term

	Message string // KindOther / KindInternal

	wrapped error
}

func (e *EvalError) Error() string {
	switch e.Kind {
	case KindUnboundIdentifier:
		return fmt.Sprintf("%s: unbound identifier %q", e.Pos, e.ID)
	case KindBlame:
		descr := ""
		if e.Label != nil {
			descr = e.Label.String()
		}
		return fmt.Sprintf("%s: blame: %s", e.Pos, descr)
	case KindNotAFunc:
		return fmt.Sprintf("%s: not a function: %s applied to %s", e.Pos, e.Applied, e.Arg)
	case KindInternal:
		return fmt.Sprintf("%s: internal error: %s", e.Pos, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
}

func (e *EvalError) Unwrap() error { return e.wrapped }

// Trace renders e's attached call stack (set only for KindBlame, and only
// once the error has propagated past the first Op1(Blame) frame).
func (e *EvalError) Trace() StackTrace {
	return FromCallStack(e.CallStack)
}

func UnboundIdentifier(id ident.Ident, pos term.Position) *EvalError {
	return &EvalError{Kind: KindUnboundIdentifier, ID: id, Pos: pos}
}

func Blame(label LabelDescriptor, pos term.Position) *EvalError {
	return &EvalError{Kind: KindBlame, Label: label, Pos: pos}
}

func NotAFunc(applied, arg term.Term, pos term.Position) *EvalError {
	return &EvalError{Kind: KindNotAFunc, Applied: applied, Arg: arg, Pos: pos}
}

func Other(message string, pos term.Position) *EvalError {
	return &EvalError{Kind: KindOther, Message: message, Pos: pos}
}

func Internal(message string, pos term.Position) *EvalError {
	return &EvalError{Kind: KindInternal, Message: message, Pos: pos}
}

// WithCallStack returns e with CallStack attached if it doesn't have one
// yet — used when propagating a BlameError past the first Op1(Blame)
// frame.
func (e *EvalError) WithCallStack(cs []runtime.CallStackElem) *EvalError {
	if e.Kind != KindBlame || e.CallStack != nil {
		return e
	}
	cp := *e
	cp.CallStack = cs
	return &cp
}

// Format renders e with a source line and a caret pointing at Pos.Column,
// the same presentation the teacher's CompilerError gives DWScript
// diagnostics. If color is true, ANSI codes highlight the caret and
// message (the CLI's --no-color flag and a go-isatty terminal check
// control this).
func (e *EvalError) Format(source, file string, color bool) string {
	var sb strings.Builder

	if file != "" {
		fmt.Fprintf(&sb, "%s in %s:%s\n", e.Kind, file, e.Pos)
	} else {
		fmt.Fprintf(&sb, "%s at %s\n", e.Kind, e.Pos)
	}

	if e.Pos.IsSet() {
		if line := sourceLine(source, e.Pos.Line); line != "" {
			prefix := fmt.Sprintf("%4d | ", e.Pos.Line)
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", len(prefix)+e.Pos.Column-1))
			if color {
				sb.WriteString("\033[1;31m")
			}
			sb.WriteString("^")
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		}
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Error())
	if color {
		sb.WriteString("\033[0m")
	}

	if trace := e.Trace(); trace.Depth() > 0 {
		sb.WriteString("\n")
		sb.WriteString(trace.String())
	}

	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// --- typer taxonomy ---

// TypecheckErrorKind enumerates the typer's own error taxa.
type TypecheckErrorKind int

const (
	TCUnboundIdentifier TypecheckErrorKind = iota
	TCTypingOp
	TCRowKindMismatch
	TCUnification
)

type TypecheckError struct {
	Kind    TypecheckErrorKind
	Op      string
	Reason  string
	ID      ident.Ident
	Pos     term.Position
	Message string
}

func (e *TypecheckError) Error() string {
	switch e.Kind {
	case TCUnboundIdentifier:
		return fmt.Sprintf("%s: unbound identifier %q", e.Pos, e.ID)
	case TCTypingOp:
		return fmt.Sprintf("cannot type operator %q: %s", e.Op, e.Reason)
	case TCRowKindMismatch:
		return fmt.Sprintf("row kind mismatch: %s", e.Reason)
	default:
		return e.Message
	}
}

func TypingOp(op, reason string) *TypecheckError {
	return &TypecheckError{Kind: TCTypingOp, Op: op, Reason: reason}
}

func RowKindMismatch(reason string) *TypecheckError {
	return &TypecheckError{Kind: TCRowKindMismatch, Reason: reason}
}

func TCUnbound(id ident.Ident, pos term.Position) *TypecheckError {
	return &TypecheckError{Kind: TCUnboundIdentifier, ID: id, Pos: pos}
}

func Unification(message string) *TypecheckError {
	return &TypecheckError{Kind: TCUnification, Message: message}
}
