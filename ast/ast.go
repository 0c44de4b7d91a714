// Package ast defines the expression tree the backend accepts. The host
// evaluator owns parsing and builds these nodes for the subtrees it wants
// evaluated on the fast path; this package is the stable boundary between
// the two.
//
// The tree is deliberately smaller than a full language front end: names
// are plain strings, attribute paths are static, and positions stay on the
// host side. Anything the tree cannot express is by definition outside the
// fast path.
package ast

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	// ExprInt is a 64-bit integer literal.
	ExprInt ExprKind = iota
	// ExprFloat is a float literal.
	ExprFloat
	// ExprBool is a boolean literal.
	ExprBool
	// ExprString is a plain string literal.
	ExprString
	// ExprInterp is a string built from interpolated parts.
	ExprInterp
	// ExprNull is the null literal.
	ExprNull
	// ExprPath is a path literal. The compiler never accepts one, but the
	// host must be able to hand over subtrees that contain them and get a
	// precise rejection.
	ExprPath
	// ExprVar is a variable reference.
	ExprVar
	// ExprList is a list literal.
	ExprList
	// ExprAttrs is an attribute set literal, recursive or plain.
	ExprAttrs
	// ExprLet is a let expression. Bindings are mutually recursive.
	ExprLet
	// ExprLambda is a function, with a simple parameter or a pattern.
	ExprLambda
	// ExprApply is a function application.
	ExprApply
	// ExprBinary is a binary operator application.
	ExprBinary
	// ExprUnary is a unary operator application.
	ExprUnary
	// ExprIf is a conditional.
	ExprIf
	// ExprAssert is an assertion guarding a body.
	ExprAssert
	// ExprWith brings an attribute set into scope as a fallback.
	ExprWith
	// ExprSelect projects an attribute path, optionally with a default.
	ExprSelect
	// ExprHasAttr tests an attribute path.
	ExprHasAttr
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprInt:
		return "Int"
	case ExprFloat:
		return "Float"
	case ExprBool:
		return "Bool"
	case ExprString:
		return "String"
	case ExprInterp:
		return "Interp"
	case ExprNull:
		return "Null"
	case ExprPath:
		return "Path"
	case ExprVar:
		return "Var"
	case ExprList:
		return "List"
	case ExprAttrs:
		return "Attrs"
	case ExprLet:
		return "Let"
	case ExprLambda:
		return "Lambda"
	case ExprApply:
		return "Apply"
	case ExprBinary:
		return "Binary"
	case ExprUnary:
		return "Unary"
	case ExprIf:
		return "If"
	case ExprAssert:
		return "Assert"
	case ExprWith:
		return "With"
	case ExprSelect:
		return "Select"
	case ExprHasAttr:
		return "HasAttr"
	default:
		return "Unknown"
	}
}

// Expr is one expression node.
type Expr struct {
	Kind ExprKind
	Data ExprData // kind-specific payload
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// IntData holds data for ExprInt.
type IntData struct {
	Value int64
}

func (IntData) exprData() {}

// FloatData holds data for ExprFloat.
type FloatData struct {
	Value float64
}

func (FloatData) exprData() {}

// BoolData holds data for ExprBool.
type BoolData struct {
	Value bool
}

func (BoolData) exprData() {}

// StringData holds data for ExprString.
type StringData struct {
	Value string
}

func (StringData) exprData() {}

// InterpData holds data for ExprInterp. Parts evaluate to strings and are
// concatenated left to right.
type InterpData struct {
	Parts []*Expr
}

func (InterpData) exprData() {}

// NullData holds data for ExprNull.
type NullData struct{}

func (NullData) exprData() {}

// PathData holds data for ExprPath.
type PathData struct {
	Value string
}

func (PathData) exprData() {}

// VarData holds data for ExprVar.
type VarData struct {
	Name string
}

func (VarData) exprData() {}

// ListData holds data for ExprList.
type ListData struct {
	Elems []*Expr
}

func (ListData) exprData() {}

// AttrBind is one static-name binding in an attrset or let. FromOuter
// marks an inherit: the value resolves in the scope surrounding the
// binding group instead of inside it, so `let inherit x; in x` picks up
// the outer x rather than looping.
type AttrBind struct {
	Name      string
	Value     *Expr
	FromOuter bool
}

// DynBind is a binding whose name is computed. The compiler rejects trees
// containing one; the field exists so the host can hand such trees over.
type DynBind struct {
	Name  *Expr
	Value *Expr
}

// AttrsData holds data for ExprAttrs.
type AttrsData struct {
	Rec     bool
	Binds   []AttrBind
	Dynamic []DynBind
}

func (AttrsData) exprData() {}

// LetData holds data for ExprLet.
type LetData struct {
	Binds []AttrBind
	Body  *Expr
}

func (LetData) exprData() {}

// PatternField is one field of a lambda pattern. A nil Default marks a
// required argument.
type PatternField struct {
	Name    string
	Default *Expr
}

// Pattern describes a set-pattern lambda parameter.
type Pattern struct {
	Fields   []PatternField
	Ellipsis bool
}

// LambdaData holds data for ExprLambda. Param is the simple parameter
// name, or the @-binding when Pattern is set; it may be empty for a pure
// pattern lambda.
type LambdaData struct {
	Param   string
	Pattern *Pattern
	Body    *Expr
}

func (LambdaData) exprData() {}

// ApplyData holds data for ExprApply.
type ApplyData struct {
	Fn  *Expr
	Arg *Expr
}

func (ApplyData) exprData() {}

// BinOp enumerates binary operators.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	// OpAnd and OpOr short-circuit; OpImpl is logical implication.
	OpAnd
	OpOr
	OpImpl
	// OpConcat joins lists, OpUpdate merges attrsets.
	OpConcat
	OpUpdate
)

// String returns the surface spelling of the operator.
func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpImpl:
		return "->"
	case OpConcat:
		return "++"
	case OpUpdate:
		return "//"
	default:
		return "BinOp(?)"
	}
}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op    BinOp
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// UnOp enumerates unary operators.
type UnOp uint8

const (
	// OpNeg is arithmetic negation.
	OpNeg UnOp = iota
	// OpNot is boolean negation.
	OpNot
)

// String returns the surface spelling of the operator.
func (op UnOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNot:
		return "!"
	default:
		return "UnOp(?)"
	}
}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      UnOp
	Operand *Expr
}

func (UnaryData) exprData() {}

// IfData holds data for ExprIf.
type IfData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (IfData) exprData() {}

// AssertData holds data for ExprAssert.
type AssertData struct {
	Cond *Expr
	Body *Expr
}

func (AssertData) exprData() {}

// WithData holds data for ExprWith.
type WithData struct {
	Scope *Expr
	Body  *Expr
}

func (WithData) exprData() {}

// SelectData holds data for ExprSelect. Path is a static attribute path;
// a non-nil Default applies when any step of the path is absent.
type SelectData struct {
	Object  *Expr
	Path    []string
	Default *Expr
}

func (SelectData) exprData() {}

// HasAttrData holds data for ExprHasAttr.
type HasAttrData struct {
	Object *Expr
	Path   []string
}

func (HasAttrData) exprData() {}
