package reduce

import (
	"fmt"

	"skein/internal/term"
)

// Code identifies the type of runtime failure.
type Code int

// Stable failure codes - do not change values.
const (
	CodeNotFunction   Code = 1001 // RD1001: applied a non-function
	CodeNotBoolean    Code = 1002 // RD1002: dispatch on a non-boolean
	CodeTypeMismatch  Code = 1003 // RD1003: operand of the wrong shape
	CodeDivZero       Code = 1004 // RD1004: division or modulo by zero
	CodeOverflow      Code = 1005 // RD1005: arithmetic left the small range
	CodeBigArith      Code = 1006 // RD1006: big-integer operand under arithmetic
	CodeMissingAttr   Code = 1007 // RD1007: selected attribute absent
	CodeWithUnbound   Code = 1008 // RD1008: with-scope miss
	CodeUnexpectedArg Code = 1009 // RD1009: strict pattern met an unknown attribute
	CodeAssertFailed  Code = 1010 // RD1010: assertion failure consumed
	CodeIncomparable  Code = 1011 // RD1011: functions are not comparable
	CodeUnboundSlot   Code = 1012 // RD1012: binder slot read before any write
	CodeStepBudget    Code = 1013 // RD1013: rewrite budget exhausted
	CodeDepthLimit    Code = 1014 // RD1014: work stack exceeded the depth limit
	CodeCopyBudget    Code = 1015 // RD1015: knot expansion exceeded the copy budget
	CodeArenaFull     Code = 1016 // RD1016: term arena exhausted
	CodeCorrupt       Code = 1017 // RD1017: malformed graph reached the engine
	CodeDecode        Code = 1018 // RD1018: result does not decode to a host value
	CodeStaleValue    Code = 1019 // RD1019: value handle outlived its arena generation
	CodeFuncResult    Code = 1020 // RD1020: result is a function or superposition
)

// String returns the code as "RD1004" format.
func (c Code) String() string {
	return fmt.Sprintf("RD%d", c)
}

// Error is a clean runtime failure. The facade turns it into a false
// tryEvaluate answer; it never carries partial results.
type Error struct {
	Code    Code
	Message string
	Steps   uint64 // rewrites fired before the failure
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("runtime %s: %s", e.Code, e.Message)
}

// errorBuilder constructs Error values stamped with the machine's
// step counter.
type errorBuilder struct {
	m *Machine
}

func (eb *errorBuilder) makeError(code Code, msg string) *Error {
	var steps uint64
	if eb.m != nil {
		steps = eb.m.steps
	}
	return &Error{Code: code, Message: msg, Steps: steps}
}

func (eb *errorBuilder) notFunction(got string) *Error {
	return eb.makeError(CodeNotFunction, fmt.Sprintf("attempt to call a %s", got))
}

func (eb *errorBuilder) notBoolean(got string) *Error {
	return eb.makeError(CodeNotBoolean, fmt.Sprintf("expected a boolean, got %s", got))
}

func (eb *errorBuilder) typeMismatch(expected, got string) *Error {
	return eb.makeError(CodeTypeMismatch, fmt.Sprintf("expected %s, got %s", expected, got))
}

func (eb *errorBuilder) divZero() *Error {
	return eb.makeError(CodeDivZero, "division by zero")
}

func (eb *errorBuilder) overflow(op string) *Error {
	return eb.makeError(CodeOverflow, fmt.Sprintf("%s result outside the small integer range", op))
}

func (eb *errorBuilder) bigArith(op string) *Error {
	return eb.makeError(CodeBigArith, fmt.Sprintf("big integer operand under %s", op))
}

func (eb *errorBuilder) missingAttr(name string) *Error {
	return eb.makeError(CodeMissingAttr, fmt.Sprintf("attribute %q missing", name))
}

func (eb *errorBuilder) withUnbound(name string) *Error {
	return eb.makeError(CodeWithUnbound, fmt.Sprintf("variable %q not in the with scope", name))
}

func (eb *errorBuilder) unexpectedArg(name string) *Error {
	return eb.makeError(CodeUnexpectedArg, fmt.Sprintf("unexpected argument attribute %q", name))
}

func (eb *errorBuilder) requiredArg(name string) *Error {
	return eb.makeError(CodeMissingAttr, fmt.Sprintf("function called without required argument %q", name))
}

func (eb *errorBuilder) assertFailed() *Error {
	return eb.makeError(CodeAssertFailed, "assertion failed")
}

func (eb *errorBuilder) incomparable() *Error {
	return eb.makeError(CodeIncomparable, "functions cannot be compared")
}

func (eb *errorBuilder) unboundSlot(loc term.Loc) *Error {
	return eb.makeError(CodeUnboundSlot, fmt.Sprintf("slot %d read before binding", loc))
}

func (eb *errorBuilder) stepBudget(limit uint64) *Error {
	return eb.makeError(CodeStepBudget, fmt.Sprintf("rewrite budget of %d exhausted", limit))
}

func (eb *errorBuilder) depthLimit(limit int) *Error {
	return eb.makeError(CodeDepthLimit, fmt.Sprintf("work stack exceeded %d frames", limit))
}

func (eb *errorBuilder) copyBudget(limit uint64) *Error {
	return eb.makeError(CodeCopyBudget, fmt.Sprintf("knot expansion exceeded %d cells", limit))
}

func (eb *errorBuilder) arenaFull(limit uint32) *Error {
	return eb.makeError(CodeArenaFull, fmt.Sprintf("term arena limit of %d cells reached", limit))
}

func (eb *errorBuilder) corrupt(what string) *Error {
	return eb.makeError(CodeCorrupt, fmt.Sprintf("malformed graph: %s", what))
}

func (eb *errorBuilder) decode(what string) *Error {
	return eb.makeError(CodeDecode, fmt.Sprintf("result does not decode: %s", what))
}
