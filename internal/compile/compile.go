package compile

import (
	"fmt"

	"skein/ast"
	"skein/internal/codec"
	"skein/internal/intern"
	"skein/internal/spine"
	"skein/internal/term"
)

// Compile lowers a tree into a frozen program. Failures are always a
// *Error; no partial program ever escapes.
func Compile(root *ast.Expr) (prog *Program, err error) {
	if cerr := CanCompile(root); cerr != nil {
		return nil, cerr
	}
	if cerr := checkScope(root, nil, 0); cerr != nil {
		return nil, cerr
	}
	c := &compiler{
		heap:  term.NewHeap(1024, MaxCells),
		names: intern.NewTable(),
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*term.HeapOverflowError); ok {
				prog = nil
				err = errTooLarge(fmt.Sprintf("code image larger than %d cells", MaxCells))
				return
			}
			panic(r)
		}
	}()
	rootT, cerr := c.expr(root)
	if cerr != nil {
		return nil, cerr
	}
	rootLoc := c.heap.Store(rootT)
	return &Program{
		Code:     c.heap.Snapshot(),
		Root:     rootLoc,
		Names:    c.names.Names(),
		Patterns: c.patterns,
		Required: c.required,
		Open:     c.open,
		Labels:   c.labels,
	}, nil
}

// compiler carries the state of one Compile call.
type compiler struct {
	heap  *term.Heap
	names *intern.Table

	env   *scope
	withs []*withFrame

	labels   uint32
	patterns [][]uint32
	required [][]uint32
	open     []bool
}

// payloadOf projects a node's payload, guarding against trees the host
// assembled by hand with mismatched kinds.
func payloadOf[T ast.ExprData](e *ast.Expr) (T, *Error) {
	d, ok := e.Data.(T)
	if !ok {
		var zero T
		return zero, errMalformed(fmt.Sprintf("%s node carries %T", e.Kind, e.Data))
	}
	return d, nil
}

// freshLabel mints a dup label. Labels are program-scoped and the
// machine never mints its own, so reusing a program cannot collide.
func (c *compiler) freshLabel() uint32 {
	l := c.labels
	c.labels++
	return l
}

// split returns k independent uses of t, chaining k-1 dup blocks.
func (c *compiler) split(t term.Term, k int) []term.Term {
	if k <= 0 {
		return nil
	}
	outs := make([]term.Term, 0, k)
	for len(outs) < k-1 {
		a, b := c.heap.NewDupBlock(c.freshLabel(), t)
		outs = append(outs, a)
		t = b
	}
	return append(outs, t)
}

func (c *compiler) expr(e *ast.Expr) (term.Term, *Error) {
	switch e.Kind {
	case ast.ExprInt:
		d, err := payloadOf[ast.IntData](e)
		if err != nil {
			return term.Term{}, err
		}
		return codec.EncodeInt(c.heap, d.Value), nil

	case ast.ExprFloat:
		d, err := payloadOf[ast.FloatData](e)
		if err != nil {
			return term.Term{}, err
		}
		return codec.EncodeFloat(c.heap, d.Value), nil

	case ast.ExprBool:
		d, err := payloadOf[ast.BoolData](e)
		if err != nil {
			return term.Term{}, err
		}
		return term.MakeBool(d.Value), nil

	case ast.ExprString:
		d, err := payloadOf[ast.StringData](e)
		if err != nil {
			return term.Term{}, err
		}
		return spine.BuildString(c.heap, d.Value), nil

	case ast.ExprInterp:
		d, err := payloadOf[ast.InterpData](e)
		if err != nil {
			return term.Term{}, err
		}
		return c.interp(d)

	case ast.ExprNull:
		return term.MakeNull(), nil

	case ast.ExprVar:
		d, err := payloadOf[ast.VarData](e)
		if err != nil {
			return term.Term{}, err
		}
		return c.variable(d.Name)

	case ast.ExprList:
		d, err := payloadOf[ast.ListData](e)
		if err != nil {
			return term.Term{}, err
		}
		return c.list(d)

	case ast.ExprAttrs:
		d, err := payloadOf[ast.AttrsData](e)
		if err != nil {
			return term.Term{}, err
		}
		if d.Rec {
			return c.recAttrs(d)
		}
		return c.attrs(d)

	case ast.ExprLet:
		d, err := payloadOf[ast.LetData](e)
		if err != nil {
			return term.Term{}, err
		}
		return c.let(d)

	case ast.ExprLambda:
		d, err := payloadOf[ast.LambdaData](e)
		if err != nil {
			return term.Term{}, err
		}
		return c.lambda(d)

	case ast.ExprApply:
		d, err := payloadOf[ast.ApplyData](e)
		if err != nil {
			return term.Term{}, err
		}
		fn, cerr := c.expr(d.Fn)
		if cerr != nil {
			return term.Term{}, cerr
		}
		arg, cerr := c.expr(d.Arg)
		if cerr != nil {
			return term.Term{}, cerr
		}
		return c.heap.NewApp(fn, arg), nil

	case ast.ExprBinary:
		d, err := payloadOf[ast.BinaryData](e)
		if err != nil {
			return term.Term{}, err
		}
		return c.binary(d)

	case ast.ExprUnary:
		d, err := payloadOf[ast.UnaryData](e)
		if err != nil {
			return term.Term{}, err
		}
		return c.unary(d)

	case ast.ExprIf:
		d, err := payloadOf[ast.IfData](e)
		if err != nil {
			return term.Term{}, err
		}
		cond, cerr := c.expr(d.Cond)
		if cerr != nil {
			return term.Term{}, cerr
		}
		thn, cerr := c.expr(d.Then)
		if cerr != nil {
			return term.Term{}, cerr
		}
		els, cerr := c.expr(d.Else)
		if cerr != nil {
			return term.Term{}, cerr
		}
		return c.heap.NewMat(term.MatIf, 0, cond, thn, els), nil

	case ast.ExprAssert:
		d, err := payloadOf[ast.AssertData](e)
		if err != nil {
			return term.Term{}, err
		}
		cond, cerr := c.expr(d.Cond)
		if cerr != nil {
			return term.Term{}, cerr
		}
		body, cerr := c.expr(d.Body)
		if cerr != nil {
			return term.Term{}, cerr
		}
		fail := c.heap.NewCtr(term.CtFail, 0)
		return c.heap.NewMat(term.MatIf, 0, cond, body, fail), nil

	case ast.ExprWith:
		d, err := payloadOf[ast.WithData](e)
		if err != nil {
			return term.Term{}, err
		}
		return c.with(d)

	case ast.ExprSelect:
		d, err := payloadOf[ast.SelectData](e)
		if err != nil {
			return term.Term{}, err
		}
		return c.selectPath(d)

	case ast.ExprHasAttr:
		d, err := payloadOf[ast.HasAttrData](e)
		if err != nil {
			return term.Term{}, err
		}
		return c.hasPath(d)

	default:
		return term.Term{}, errUnsupported(fmt.Sprintf("%s node", e.Kind))
	}
}

// variable resolves a name: static scope first, then the with chain.
func (c *compiler) variable(name string) (term.Term, *Error) {
	if b := c.env.lookup(name); b != nil {
		if b.kind == bindKnot {
			return term.MakeRef(b.slot), nil
		}
		return b.take(), nil
	}
	if len(c.withs) == 0 {
		return term.Term{}, errUnbound(name)
	}
	return c.dynamic(name), nil
}

// dynamic builds the fallback cascade for a name no static frame binds.
// The innermost with is consulted first; the outermost one compiles to
// the erroring dispatch directly, so a miss everywhere reports the name.
func (c *compiler) dynamic(name string) term.Term {
	aux := c.names.Intern(name).Aux()

	outer := c.withs[0]
	cell := c.heap.Store(term.Era())
	outer.sites = append(outer.sites, cell)
	t := term.MakeMat(term.MatWith, aux, cell)

	for _, f := range c.withs[1:] {
		hasCell := c.heap.Store(term.Era())
		selCell := c.heap.Store(term.Era())
		f.sites = append(f.sites, hasCell, selCell)
		t = c.heap.NewMat(term.MatIf, 0,
			term.MakeMat(term.MatHas, aux, hasCell),
			term.MakeMat(term.MatSel, aux, selCell),
			t)
	}
	return t
}

// with compiles the body first so the frame knows exactly how many uses
// of the scope value to split off. A body without dynamic lookups never
// evaluates the scope at all.
func (c *compiler) with(d ast.WithData) (term.Term, *Error) {
	frame := &withFrame{}
	c.withs = append(c.withs, frame)
	body, err := c.expr(d.Body)
	c.withs = c.withs[:len(c.withs)-1]
	if err != nil {
		return term.Term{}, err
	}
	if len(frame.sites) == 0 {
		return body, nil
	}
	scopeT, err := c.expr(d.Scope)
	if err != nil {
		return term.Term{}, err
	}
	for i, out := range c.split(scopeT, len(frame.sites)) {
		c.heap.Set(frame.sites[i], out)
	}
	return body, nil
}

func (c *compiler) list(d ast.ListData) (term.Term, *Error) {
	elems := make([]term.Term, len(d.Elems))
	for i, el := range d.Elems {
		t, err := c.expr(el)
		if err != nil {
			return term.Term{}, err
		}
		elems[i] = t
	}
	return spine.BuildList(c.heap, elems), nil
}

func (c *compiler) attrs(d ast.AttrsData) (term.Term, *Error) {
	seen := make(map[string]bool, len(d.Binds))
	binds := make([]spine.Bind, 0, len(d.Binds))
	for _, b := range d.Binds {
		if seen[b.Name] {
			return term.Term{}, errDuplicate(b.Name)
		}
		seen[b.Name] = true
		v, err := c.expr(b.Value)
		if err != nil {
			return term.Term{}, err
		}
		binds = append(binds, spine.Bind{Aux: c.names.Intern(b.Name).Aux(), Value: v})
	}
	return spine.BuildAttrs(c.heap, binds), nil
}

// interp concatenates the parts onto the empty string, so a lone
// non-string part still fails the way surface coercion does.
func (c *compiler) interp(d ast.InterpData) (term.Term, *Error) {
	out := spine.BuildString(c.heap, "")
	for _, p := range d.Parts {
		t, err := c.expr(p)
		if err != nil {
			return term.Term{}, err
		}
		out = c.heap.NewOp2(term.OpAdd, out, t)
	}
	return out, nil
}

var binOps = map[ast.BinOp]term.OpKind{
	ast.OpAdd:    term.OpAdd,
	ast.OpSub:    term.OpSub,
	ast.OpMul:    term.OpMul,
	ast.OpDiv:    term.OpDiv,
	ast.OpLt:     term.OpLt,
	ast.OpLe:     term.OpLe,
	ast.OpGt:     term.OpGt,
	ast.OpGe:     term.OpGe,
	ast.OpEq:     term.OpEq,
	ast.OpNe:     term.OpNe,
	ast.OpConcat: term.OpCat,
	ast.OpUpdate: term.OpUpd,
}

func (c *compiler) binary(d ast.BinaryData) (term.Term, *Error) {
	switch d.Op {
	case ast.OpAnd, ast.OpOr, ast.OpImpl:
		return c.shortCircuit(d)
	}
	op, ok := binOps[d.Op]
	if !ok {
		return term.Term{}, errUnsupported(fmt.Sprintf("operator %s", d.Op))
	}
	lhs, err := c.expr(d.Left)
	if err != nil {
		return term.Term{}, err
	}
	rhs, err := c.expr(d.Right)
	if err != nil {
		return term.Term{}, err
	}
	return c.heap.NewOp2(op, lhs, rhs), nil
}

// shortCircuit lowers the lazy boolean operators onto dispatch. The
// taken branch re-dispatches the second operand, so a non-boolean there
// fails exactly when the surface language forces it.
func (c *compiler) shortCircuit(d ast.BinaryData) (term.Term, *Error) {
	lhs, err := c.expr(d.Left)
	if err != nil {
		return term.Term{}, err
	}
	rhs, err := c.expr(d.Right)
	if err != nil {
		return term.Term{}, err
	}
	check := c.heap.NewMat(term.MatIf, 0, rhs, term.MakeBool(true), term.MakeBool(false))
	switch d.Op {
	case ast.OpAnd:
		return c.heap.NewMat(term.MatIf, 0, lhs, check, term.MakeBool(false)), nil
	case ast.OpOr:
		return c.heap.NewMat(term.MatIf, 0, lhs, term.MakeBool(true), check), nil
	default: // ast.OpImpl
		return c.heap.NewMat(term.MatIf, 0, lhs, check, term.MakeBool(true)), nil
	}
}

func (c *compiler) unary(d ast.UnaryData) (term.Term, *Error) {
	operand, err := c.expr(d.Operand)
	if err != nil {
		return term.Term{}, err
	}
	switch d.Op {
	case ast.OpNeg:
		return c.heap.NewOp2(term.OpSub, term.MakeNum(0), operand), nil
	case ast.OpNot:
		return c.heap.NewMat(term.MatIf, 0, operand, term.MakeBool(false), term.MakeBool(true)), nil
	default:
		return term.Term{}, errUnsupported(fmt.Sprintf("unary operator %s", d.Op))
	}
}

// selectPath compiles a static attribute path. With a default, the
// intermediate steps fall through an empty set so a miss at any depth
// lands on the default.
func (c *compiler) selectPath(d ast.SelectData) (term.Term, *Error) {
	obj, err := c.expr(d.Object)
	if err != nil {
		return term.Term{}, err
	}
	if d.Default == nil {
		for _, name := range d.Path {
			obj = c.heap.NewMat(term.MatSel, c.names.Intern(name).Aux(), obj)
		}
		return obj, nil
	}
	def, err := c.expr(d.Default)
	if err != nil {
		return term.Term{}, err
	}
	last := len(d.Path) - 1
	for _, name := range d.Path[:last] {
		obj = c.heap.NewMat(term.MatSelOr, c.names.Intern(name).Aux(), obj, spine.EmptyAttrs(c.heap))
	}
	return c.heap.NewMat(term.MatSelOr, c.names.Intern(d.Path[last]).Aux(), obj, def), nil
}

// hasPath tests the last step after defaulting the earlier ones through
// an empty set, which makes a non-set or a miss along the way false
// rather than an error.
func (c *compiler) hasPath(d ast.HasAttrData) (term.Term, *Error) {
	obj, err := c.expr(d.Object)
	if err != nil {
		return term.Term{}, err
	}
	last := len(d.Path) - 1
	for _, name := range d.Path[:last] {
		obj = c.heap.NewMat(term.MatSelOr, c.names.Intern(name).Aux(), obj, spine.EmptyAttrs(c.heap))
	}
	return c.heap.NewMat(term.MatHas, c.names.Intern(d.Path[last]).Aux(), obj), nil
}

// lambda compiles a function. The binder slot exists before the body
// does, so body uses can point straight at it.
func (c *compiler) lambda(d ast.LambdaData) (term.Term, *Error) {
	if d.Pattern != nil {
		return c.patternLambda(d)
	}
	slot := c.heap.ReserveLam()
	frame := newScope(c.env)
	frame.vars[d.Param] = &binding{outs: c.split(slot.Var(), uses(d.Body, d.Param))}
	c.env = frame
	body, err := c.expr(d.Body)
	c.env = frame.parent
	if err != nil {
		return term.Term{}, err
	}
	return slot.Bind(body), nil
}
