// Package value exposes reduced results as host-side handles. A handle
// names one arena cell of one machine run; extraction forces exactly
// what the host asks for and nothing more. Handles go stale the moment
// their machine loads another program or resets.
package value

import (
	"fmt"

	"skein/internal/codec"
	"skein/internal/reduce"
	"skein/internal/term"
)

// Kind identifies the head shape of a forced value.
type Kind uint8

const (
	// KInvalid marks an unforceable or failed handle.
	KInvalid Kind = iota
	// KInt is an integer in either width encoding.
	KInt
	// KFloat is a 64-bit float.
	KFloat
	// KBool is a boolean.
	KBool
	// KNull is the null value.
	KNull
	// KString is a string.
	KString
	// KList is a list.
	KList
	// KAttrs is an attribute set.
	KAttrs
	// KFunc is a function or superposition, which cannot cross to a host.
	KFunc
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KInvalid:
		return "invalid"
	case KInt:
		return "int"
	case KFloat:
		return "float"
	case KBool:
		return "bool"
	case KNull:
		return "null"
	case KString:
		return "string"
	case KList:
		return "list"
	case KAttrs:
		return "attrset"
	case KFunc:
		return "function"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is a handle onto one cell of a machine's arena.
type Value struct {
	m   *reduce.Machine
	loc term.Loc
	gen uint32
}

// At wraps the cell at loc. The handle pins the current heap
// generation; Load or Reset on the machine invalidates it.
func At(m *reduce.Machine, loc term.Loc) Value {
	return Value{m: m, loc: loc, gen: m.Heap().Gen()}
}

// live rejects handles whose arena has moved on.
func (v Value) live() *reduce.Error {
	if v.m == nil {
		return &reduce.Error{Code: reduce.CodeStaleValue, Message: "zero value handle"}
	}
	if g := v.m.Heap().Gen(); g != v.gen {
		return &reduce.Error{
			Code:    reduce.CodeStaleValue,
			Message: fmt.Sprintf("handle from generation %d used in generation %d", v.gen, g),
		}
	}
	return nil
}

// force reduces the handle's cell to weak head normal form. The machine
// treats the assertion failure marker as an ordinary value; crossing to
// the host is where it becomes an error.
func (v Value) force() (term.Term, error) {
	if err := v.live(); err != nil {
		return term.Term{}, err
	}
	t, err := v.m.WHNF(v.loc)
	if err != nil {
		return term.Term{}, err
	}
	if t.Tag == term.TagCtr && t.CtrKind() == term.CtFail {
		return term.Term{}, &reduce.Error{
			Code:    reduce.CodeAssertFailed,
			Message: "assertion failed",
			Steps:   v.m.Steps(),
		}
	}
	return t, nil
}

// Kind forces the handle and reports its head shape.
func (v Value) Kind() (Kind, error) {
	t, err := v.force()
	if err != nil {
		return KInvalid, err
	}
	return kindOf(t), nil
}

func kindOf(t term.Term) Kind {
	switch t.Tag {
	case term.TagNum:
		return KInt
	case term.TagLam, term.TagSup:
		return KFunc
	case term.TagCtr:
		switch t.CtrKind() {
		case term.CtTrue, term.CtFalse:
			return KBool
		case term.CtNull:
			return KNull
		case term.CtBigPos, term.CtBigNeg:
			return KInt
		case term.CtFloat:
			return KFloat
		case term.CtList:
			return KList
		case term.CtAttrs:
			return KAttrs
		case term.CtStr:
			return KString
		}
	}
	return KInvalid
}

func describe(t term.Term) string {
	if k := kindOf(t); k != KInvalid {
		return k.String()
	}
	return t.Tag.String()
}

func (v Value) decodeErr(want string, t term.Term) *reduce.Error {
	return &reduce.Error{
		Code:    reduce.CodeDecode,
		Message: fmt.Sprintf("result does not decode: expected %s, got %s", want, describe(t)),
		Steps:   v.m.Steps(),
	}
}

// forceLimbs reduces the limb cells of a wide scalar. Literals carry
// them reduced, but a dup copy can leave them pending.
func (v Value) forceLimbs(t term.Term) error {
	if t.Tag != term.TagCtr {
		return nil
	}
	switch t.CtrKind() {
	case term.CtBigPos, term.CtBigNeg, term.CtFloat:
		if _, err := v.m.WHNF(t.Loc()); err != nil {
			return err
		}
		_, err := v.m.WHNF(t.Loc() + 1)
		return err
	}
	return nil
}

// Int decodes an integer result of either width.
func (v Value) Int() (int64, error) {
	t, err := v.force()
	if err != nil {
		return 0, err
	}
	if err := v.forceLimbs(t); err != nil {
		return 0, err
	}
	n, ok := codec.DecodeInt(v.m.Heap(), t)
	if !ok {
		return 0, v.decodeErr("integer", t)
	}
	return n, nil
}

// Float decodes a float result.
func (v Value) Float() (float64, error) {
	t, err := v.force()
	if err != nil {
		return 0, err
	}
	if err := v.forceLimbs(t); err != nil {
		return 0, err
	}
	f, ok := codec.DecodeFloat(v.m.Heap(), t)
	if !ok {
		return 0, v.decodeErr("float", t)
	}
	return f, nil
}

// Bool decodes a boolean result.
func (v Value) Bool() (bool, error) {
	t, err := v.force()
	if err != nil {
		return false, err
	}
	if t.Tag == term.TagCtr {
		switch t.CtrKind() {
		case term.CtTrue:
			return true, nil
		case term.CtFalse:
			return false, nil
		}
	}
	return false, v.decodeErr("boolean", t)
}

// IsNull reports whether the result is null.
func (v Value) IsNull() (bool, error) {
	t, err := v.force()
	if err != nil {
		return false, err
	}
	return t.Tag == term.TagCtr && t.CtrKind() == term.CtNull, nil
}
