package compile

import "fmt"

// Code identifies why a tree was rejected or failed to compile.
type Code int

// Stable rejection codes - do not change values.
const (
	CodeUnsupported Code = 2001 // CP2001: construct has no term encoding
	CodeMalformed   Code = 2002 // CP2002: node shape does not match its kind
	CodeTooDeep     Code = 2003 // CP2003: nesting beyond the compile depth limit
	CodeTooLarge    Code = 2004 // CP2004: tree or code image beyond the size limit
	CodeUnbound     Code = 2005 // CP2005: identifier not in scope
	CodeDuplicate   Code = 2006 // CP2006: one name bound twice in a group
	CodeCapture     Code = 2007 // CP2007: recursive group reaches outside itself
)

// String returns the code as "CP2001" format.
func (c Code) String() string {
	return fmt.Sprintf("CP%d", c)
}

// Error explains why an expression stays on the host's own evaluator. The
// capability predicate and the compiler proper both return it; neither
// ever leaves partial state behind.
type Error struct {
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("compile %s: %s", e.Code, e.Message)
}

func errUnsupported(what string) *Error {
	return &Error{Code: CodeUnsupported, Message: what + " is outside the compiled subset"}
}

func errMalformed(what string) *Error {
	return &Error{Code: CodeMalformed, Message: what}
}

func errTooDeep(limit int) *Error {
	return &Error{Code: CodeTooDeep, Message: fmt.Sprintf("nesting deeper than %d", limit)}
}

func errTooLarge(what string) *Error {
	return &Error{Code: CodeTooLarge, Message: what}
}

func errUnbound(name string) *Error {
	return &Error{Code: CodeUnbound, Message: fmt.Sprintf("undefined variable %q", name)}
}

func errDuplicate(name string) *Error {
	return &Error{Code: CodeDuplicate, Message: fmt.Sprintf("attribute %q already defined", name)}
}

func errCapture(msg string) *Error {
	return &Error{Code: CodeCapture, Message: msg}
}
