package ast

// Constructors for building trees by hand. The host side typically lowers
// its own AST through these.

// Int returns an integer literal.
func Int(v int64) *Expr { return &Expr{Kind: ExprInt, Data: IntData{Value: v}} }

// Float returns a float literal.
func Float(v float64) *Expr { return &Expr{Kind: ExprFloat, Data: FloatData{Value: v}} }

// Bool returns a boolean literal.
func Bool(v bool) *Expr { return &Expr{Kind: ExprBool, Data: BoolData{Value: v}} }

// Str returns a plain string literal.
func Str(s string) *Expr { return &Expr{Kind: ExprString, Data: StringData{Value: s}} }

// Interp returns a string built from interpolated parts.
func Interp(parts ...*Expr) *Expr {
	return &Expr{Kind: ExprInterp, Data: InterpData{Parts: parts}}
}

// Null returns the null literal.
func Null() *Expr { return &Expr{Kind: ExprNull, Data: NullData{}} }

// Path returns a path literal.
func Path(p string) *Expr { return &Expr{Kind: ExprPath, Data: PathData{Value: p}} }

// Var returns a variable reference.
func Var(name string) *Expr { return &Expr{Kind: ExprVar, Data: VarData{Name: name}} }

// List returns a list literal.
func List(elems ...*Expr) *Expr {
	return &Expr{Kind: ExprList, Data: ListData{Elems: elems}}
}

// Bind pairs a name with a value for attrsets and lets.
func Bind(name string, value *Expr) AttrBind {
	return AttrBind{Name: name, Value: value}
}

// Inherit binds a name to the variable of the same name in the enclosing
// scope.
func Inherit(name string) AttrBind {
	return AttrBind{Name: name, Value: Var(name), FromOuter: true}
}

// InheritFrom binds a name to the attribute of the same name on src. The
// src expression resolves in the enclosing scope.
func InheritFrom(src *Expr, name string) AttrBind {
	return AttrBind{Name: name, Value: Select(src, name), FromOuter: true}
}

// Attrs returns a plain attribute set literal.
func Attrs(binds ...AttrBind) *Expr {
	return &Expr{Kind: ExprAttrs, Data: AttrsData{Binds: binds}}
}

// RecAttrs returns a recursive attribute set literal.
func RecAttrs(binds ...AttrBind) *Expr {
	return &Expr{Kind: ExprAttrs, Data: AttrsData{Rec: true, Binds: binds}}
}

// Let returns a let expression. Bindings may reference each other.
func Let(body *Expr, binds ...AttrBind) *Expr {
	return &Expr{Kind: ExprLet, Data: LetData{Binds: binds, Body: body}}
}

// Lambda returns a function with a simple parameter.
func Lambda(param string, body *Expr) *Expr {
	return &Expr{Kind: ExprLambda, Data: LambdaData{Param: param, Body: body}}
}

// PatternLambda returns a function with a set pattern. param is the
// @-binding and may be empty.
func PatternLambda(param string, pat *Pattern, body *Expr) *Expr {
	return &Expr{Kind: ExprLambda, Data: LambdaData{Param: param, Pattern: pat, Body: body}}
}

// Apply applies fn to the arguments left to right.
func Apply(fn *Expr, args ...*Expr) *Expr {
	out := fn
	for _, arg := range args {
		out = &Expr{Kind: ExprApply, Data: ApplyData{Fn: out, Arg: arg}}
	}
	return out
}

// Binary returns a binary operator application.
func Binary(op BinOp, left, right *Expr) *Expr {
	return &Expr{Kind: ExprBinary, Data: BinaryData{Op: op, Left: left, Right: right}}
}

// Unary returns a unary operator application.
func Unary(op UnOp, operand *Expr) *Expr {
	return &Expr{Kind: ExprUnary, Data: UnaryData{Op: op, Operand: operand}}
}

// If returns a conditional.
func If(cond, then, els *Expr) *Expr {
	return &Expr{Kind: ExprIf, Data: IfData{Cond: cond, Then: then, Else: els}}
}

// Assert returns an assertion guarding a body.
func Assert(cond, body *Expr) *Expr {
	return &Expr{Kind: ExprAssert, Data: AssertData{Cond: cond, Body: body}}
}

// With brings scope's attributes into the body as a fallback scope.
func With(scope, body *Expr) *Expr {
	return &Expr{Kind: ExprWith, Data: WithData{Scope: scope, Body: body}}
}

// Select projects an attribute path.
func Select(obj *Expr, path ...string) *Expr {
	return &Expr{Kind: ExprSelect, Data: SelectData{Object: obj, Path: path}}
}

// SelectOr projects an attribute path with a default for absent steps.
func SelectOr(obj *Expr, def *Expr, path ...string) *Expr {
	return &Expr{Kind: ExprSelect, Data: SelectData{Object: obj, Path: path, Default: def}}
}

// Has tests an attribute path.
func Has(obj *Expr, path ...string) *Expr {
	return &Expr{Kind: ExprHasAttr, Data: HasAttrData{Object: obj, Path: path}}
}
