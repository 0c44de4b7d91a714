package compile

import (
	"fmt"

	"skein/ast"
	"skein/internal/codec"
)

// Compile-time bounds. Trees beyond them are rejected up front so hosts
// fall back before any codegen work happens.
const (
	// MaxDepth bounds expression nesting.
	MaxDepth = 10_000
	// MaxNodes bounds the node count of one tree. It also keeps interned
	// names and pattern ids inside the 24-bit aux space.
	MaxNodes = 1 << 20
	// MaxCells bounds the emitted code image.
	MaxCells = 1 << 22
)

// CanCompile reports whether a tree stays inside the compiled subset.
// The check is purely structural and never consults scope, so an
// accepted tree can still fail to compile, for an unbound name say. A
// nil result means the shape is acceptable.
func CanCompile(e *ast.Expr) error {
	chk := checker{}
	if cerr := chk.expr(e, 0); cerr != nil {
		return cerr
	}
	return nil
}

type checker struct {
	nodes int
}

func (c *checker) expr(e *ast.Expr, depth int) *Error {
	if e == nil {
		return errMalformed("missing expression node")
	}
	if depth >= MaxDepth {
		return errTooDeep(MaxDepth)
	}
	c.nodes++
	if c.nodes > MaxNodes {
		return errTooLarge(fmt.Sprintf("tree larger than %d nodes", MaxNodes))
	}

	switch e.Kind {
	case ast.ExprInt:
		_, err := payloadOf[ast.IntData](e)
		return err

	case ast.ExprFloat:
		_, err := payloadOf[ast.FloatData](e)
		return err

	case ast.ExprBool:
		_, err := payloadOf[ast.BoolData](e)
		return err

	case ast.ExprString:
		_, err := payloadOf[ast.StringData](e)
		return err

	case ast.ExprNull:
		_, err := payloadOf[ast.NullData](e)
		return err

	case ast.ExprPath:
		return errUnsupported("path literal")

	case ast.ExprInterp:
		d, err := payloadOf[ast.InterpData](e)
		if err != nil {
			return err
		}
		for _, p := range d.Parts {
			if err := c.expr(p, depth+1); err != nil {
				return err
			}
		}
		return nil

	case ast.ExprVar:
		d, err := payloadOf[ast.VarData](e)
		if err != nil {
			return err
		}
		if d.Name == "" {
			return errMalformed("variable without a name")
		}
		return nil

	case ast.ExprList:
		d, err := payloadOf[ast.ListData](e)
		if err != nil {
			return err
		}
		for _, el := range d.Elems {
			if err := c.expr(el, depth+1); err != nil {
				return err
			}
		}
		return nil

	case ast.ExprAttrs:
		d, err := payloadOf[ast.AttrsData](e)
		if err != nil {
			return err
		}
		if len(d.Dynamic) > 0 {
			return errUnsupported("dynamic attribute name")
		}
		return c.binds(d.Binds, depth)

	case ast.ExprLet:
		d, err := payloadOf[ast.LetData](e)
		if err != nil {
			return err
		}
		if err := c.binds(d.Binds, depth); err != nil {
			return err
		}
		return c.expr(d.Body, depth+1)

	case ast.ExprLambda:
		d, err := payloadOf[ast.LambdaData](e)
		if err != nil {
			return err
		}
		if d.Pattern == nil {
			if d.Param == "" {
				return errMalformed("lambda without a parameter")
			}
		} else {
			for _, f := range d.Pattern.Fields {
				if f.Name == "" {
					return errMalformed("pattern field without a name")
				}
				if f.Default != nil {
					if err := c.expr(f.Default, depth+1); err != nil {
						return err
					}
				}
			}
		}
		return c.expr(d.Body, depth+1)

	case ast.ExprApply:
		d, err := payloadOf[ast.ApplyData](e)
		if err != nil {
			return err
		}
		if err := c.expr(d.Fn, depth+1); err != nil {
			return err
		}
		return c.expr(d.Arg, depth+1)

	case ast.ExprBinary:
		d, err := payloadOf[ast.BinaryData](e)
		if err != nil {
			return err
		}
		if d.Op > ast.OpUpdate {
			return errMalformed(fmt.Sprintf("unknown binary operator %d", d.Op))
		}
		switch d.Op {
		case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
			// Float literals are fine on their own, but arithmetic on one
			// belongs to the host evaluator, and an integer literal beyond
			// the small range only ever fails in the machine. Only the
			// visible cases are caught here; a float arriving through a
			// name is promoted at run time instead.
			if floatOperand(d.Left) || floatOperand(d.Right) {
				return errUnsupported("float arithmetic")
			}
			if wideOperand(d.Left) || wideOperand(d.Right) {
				return errUnsupported("arithmetic on a wide integer literal")
			}
		}
		if err := c.expr(d.Left, depth+1); err != nil {
			return err
		}
		return c.expr(d.Right, depth+1)

	case ast.ExprUnary:
		d, err := payloadOf[ast.UnaryData](e)
		if err != nil {
			return err
		}
		if d.Op > ast.OpNot {
			return errMalformed(fmt.Sprintf("unknown unary operator %d", d.Op))
		}
		if d.Op == ast.OpNeg && wideOperand(d.Operand) {
			return errUnsupported("arithmetic on a wide integer literal")
		}
		return c.expr(d.Operand, depth+1)

	case ast.ExprIf:
		d, err := payloadOf[ast.IfData](e)
		if err != nil {
			return err
		}
		if err := c.expr(d.Cond, depth+1); err != nil {
			return err
		}
		if err := c.expr(d.Then, depth+1); err != nil {
			return err
		}
		return c.expr(d.Else, depth+1)

	case ast.ExprAssert:
		d, err := payloadOf[ast.AssertData](e)
		if err != nil {
			return err
		}
		if err := c.expr(d.Cond, depth+1); err != nil {
			return err
		}
		return c.expr(d.Body, depth+1)

	case ast.ExprWith:
		d, err := payloadOf[ast.WithData](e)
		if err != nil {
			return err
		}
		if err := c.expr(d.Scope, depth+1); err != nil {
			return err
		}
		return c.expr(d.Body, depth+1)

	case ast.ExprSelect:
		d, err := payloadOf[ast.SelectData](e)
		if err != nil {
			return err
		}
		if err := c.path(d.Path); err != nil {
			return err
		}
		if err := c.expr(d.Object, depth+1); err != nil {
			return err
		}
		if d.Default != nil {
			return c.expr(d.Default, depth+1)
		}
		return nil

	case ast.ExprHasAttr:
		d, err := payloadOf[ast.HasAttrData](e)
		if err != nil {
			return err
		}
		if err := c.path(d.Path); err != nil {
			return err
		}
		return c.expr(d.Object, depth+1)

	default:
		return errUnsupported(fmt.Sprintf("%s node", e.Kind))
	}
}

func (c *checker) binds(binds []ast.AttrBind, depth int) *Error {
	for _, b := range binds {
		if b.Name == "" {
			return errMalformed("binding without a name")
		}
		if err := c.expr(b.Value, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) path(path []string) *Error {
	if len(path) == 0 {
		return errMalformed("empty attribute path")
	}
	for _, p := range path {
		if p == "" {
			return errMalformed("empty attribute path segment")
		}
	}
	return nil
}

// floatOperand reports whether e is a float literal, possibly under a
// negation.
func floatOperand(e *ast.Expr) bool {
	if e == nil {
		return false
	}
	if e.Kind == ast.ExprFloat {
		return true
	}
	if e.Kind == ast.ExprUnary {
		if d, ok := e.Data.(ast.UnaryData); ok && d.Op == ast.OpNeg {
			return floatOperand(d.Operand)
		}
	}
	return false
}

// wideOperand reports whether e is an integer literal outside the small
// range, possibly under a negation. Such a literal still encodes and
// compares fine; it is only the integer operators that cannot touch it.
func wideOperand(e *ast.Expr) bool {
	if e == nil {
		return false
	}
	if e.Kind == ast.ExprInt {
		if d, ok := e.Data.(ast.IntData); ok {
			return !codec.FitsSmall(d.Value)
		}
	}
	if e.Kind == ast.ExprUnary {
		if d, ok := e.Data.(ast.UnaryData); ok && d.Op == ast.OpNeg {
			return wideOperand(d.Operand)
		}
	}
	return false
}
