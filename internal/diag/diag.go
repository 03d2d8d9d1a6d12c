// Package diag implements the two error taxonomies used throughout the
// backend: user errors, produced by the front end and reported with a
// source position, and programmer errors (faults), which are violated
// structural invariants and abort the process.
package diag

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Pos is a position in a source file, used only by user-facing errors.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// UserError is a lexical or parse error with a source span. The front end
// accumulates these; main() reports them and exits non-zero.
type UserError struct {
	Pos Pos
	Msg string
}

func (e *UserError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// NewUserError builds a UserError at the given position.
func NewUserError(pos Pos, format string, args ...interface{}) *UserError {
	return &UserError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Report prints a list of user errors to stderr in the teacher's
// diagnostic style, color-coding the severity the way a front end
// accumulating multiple errors would.
func Report(errs []*UserError) {
	bold := color.New(color.FgRed, color.Bold)
	for _, e := range errs {
		bold.Fprintf(os.Stderr, "error: ")
		fmt.Fprintf(os.Stderr, "%s\n", e.Error())
	}
}

// Fault represents a violated structural invariant, an unknown node kind,
// a malformed rule file, or any other programmer error. Faults are never
// recovered; Fail panics with one immediately.
type Fault struct {
	Msg string
}

func (f *Fault) Error() string {
	return f.Msg
}

// Fail raises a Fault. Call sites use this for assertion failures inside
// the graph, optimizer, selector, scheduler and emitter — conditions that
// can only be caused by a bug in this program or its caller, never by
// user input.
func Fail(format string, args ...interface{}) {
	panic(&Fault{Msg: fmt.Sprintf(format, args...)})
}

// Assert raises a Fault if cond is false.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		Fail(format, args...)
	}
}

// StructuralError is raised when a node is constructed with an input that
// does not belong to the flag class its slot requires (e.g. a non-control
// node passed as a ctrl input).
type StructuralError struct{ Msg string }

func (e *StructuralError) Error() string { return e.Msg }

// FailStructural raises a StructuralError.
func FailStructural(format string, args ...interface{}) {
	panic(&StructuralError{Msg: fmt.Sprintf(format, args...)})
}

// IndexError is raised when an input index is out of range for a node's
// fixed arity.
type IndexError struct{ Msg string }

func (e *IndexError) Error() string { return e.Msg }

// FailIndex raises an IndexError.
func FailIndex(format string, args ...interface{}) {
	panic(&IndexError{Msg: fmt.Sprintf(format, args...)})
}
