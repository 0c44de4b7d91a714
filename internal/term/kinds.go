package term

import "fmt"

// OpKind selects the operator of a TagOp2 term.
type OpKind uint8

const (
	OpAdd OpKind = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpLt
	OpLe
	OpEq
	OpGe
	OpGt
	OpNe
	// OpCat splices two list spines.
	OpCat
	// OpUpd merges two attrsets, right operand winning.
	OpUpd
)

// String returns the surface spelling of the operator.
func (op OpKind) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpXor:
		return "^"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpEq:
		return "=="
	case OpGe:
		return ">="
	case OpGt:
		return ">"
	case OpNe:
		return "!="
	case OpCat:
		return "++"
	case OpUpd:
		return "//"
	default:
		return fmt.Sprintf("OpKind(%d)", op)
	}
}

// IsCompare reports whether the operator yields a boolean.
func (op OpKind) IsCompare() bool {
	switch op {
	case OpLt, OpLe, OpEq, OpGe, OpGt, OpNe:
		return true
	default:
		return false
	}
}

// MatKind selects the dispatch behavior of a TagMat node.
type MatKind uint8

const (
	// MatIf dispatches [cond, then, else] on a boolean constructor.
	MatIf MatKind = iota
	// MatSel projects one attribute out of [set]; aux is the name id.
	MatSel
	// MatSelOr projects out of [set, default]; aux is the name id.
	MatSelOr
	// MatHas tests attribute presence on [set]; aux is the name id.
	MatHas
	// MatWith resolves a dynamic variable against [scope]; aux is the name id.
	MatWith
	// MatChk guards [set, body] against a compiled pattern; aux is the pattern id.
	MatChk
)

// Arity returns the number of operand cells the dispatch kind owns.
func (k MatKind) Arity() int {
	switch k {
	case MatIf:
		return 3
	case MatSelOr, MatChk:
		return 2
	case MatSel, MatHas, MatWith:
		return 1
	default:
		return 0
	}
}

// String returns a short name for the dispatch kind.
func (k MatKind) String() string {
	switch k {
	case MatIf:
		return "if"
	case MatSel:
		return "sel"
	case MatSelOr:
		return "selor"
	case MatHas:
		return "has"
	case MatWith:
		return "with"
	case MatChk:
		return "chk"
	default:
		return fmt.Sprintf("MatKind(%d)", k)
	}
}

// CtorKind identifies one of the fixed-arity constructors.
type CtorKind uint8

const (
	// CtFalse is boolean false. The kind value 0 is the boolean's integer identity.
	CtFalse CtorKind = iota
	// CtTrue is boolean true, kind value 1.
	CtTrue
	// CtNull is the null value.
	CtNull
	// CtBigPos holds a non-negative 64-bit magnitude in [lo, hi] limbs.
	CtBigPos
	// CtBigNeg holds a negative value's magnitude in [lo, hi] limbs.
	CtBigNeg
	// CtFloat holds IEEE-754 double bits in [lo, hi] limbs.
	CtFloat
	// CtNil terminates a list spine.
	CtNil
	// CtCons is one list spine node: [head, tail].
	CtCons
	// CtList is a list value: [length, spine]. Length is cached and never
	// recomputed from the spine.
	CtList
	// CtAttrs is an attrset value: [spine].
	CtAttrs
	// CtBind is one attrset spine node: [value, tail]; aux is the name id.
	CtBind
	// CtStr is a string value: [byte length, word spine].
	CtStr
	// CtFail is the assertion-failure poison value.
	CtFail
)

// Arity returns the number of field cells the constructor owns.
func (k CtorKind) Arity() int {
	switch k {
	case CtFalse, CtTrue, CtNull, CtNil, CtFail:
		return 0
	case CtAttrs:
		return 1
	case CtBigPos, CtBigNeg, CtFloat, CtCons, CtList, CtBind, CtStr:
		return 2
	default:
		return 0
	}
}

// String returns a short name for the constructor kind.
func (k CtorKind) String() string {
	switch k {
	case CtFalse:
		return "false"
	case CtTrue:
		return "true"
	case CtNull:
		return "null"
	case CtBigPos:
		return "bigpos"
	case CtBigNeg:
		return "bigneg"
	case CtFloat:
		return "float"
	case CtNil:
		return "nil"
	case CtCons:
		return "cons"
	case CtList:
		return "list"
	case CtAttrs:
		return "attrs"
	case CtBind:
		return "bind"
	case CtStr:
		return "str"
	case CtFail:
		return "fail"
	default:
		return fmt.Sprintf("CtorKind(%d)", k)
	}
}
