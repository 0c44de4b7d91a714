package reduce

import (
	"strings"

	"skein/internal/codec"
	"skein/internal/spine"
	"skein/internal/term"
)

// ruleRef expands a recursive knot: the definition is deep-copied out of
// the knot cell so the original stays intact for later unrollings.
func (m *Machine) ruleRef(loc term.Loc, t term.Term) *Error {
	def := m.heap.Get(t.Loc())
	if def.Tag == term.TagEra {
		return m.eb.unboundSlot(t.Loc())
	}
	copied, err := m.copyTerm(def)
	if err != nil {
		return err
	}
	m.heap.Set(loc, copied)
	return m.count("ref")
}

// ruleAppLam is beta reduction: the argument term moves into the binder
// slot and the application cell becomes the body.
func (m *Machine) ruleAppLam(loc term.Loc, t, fn term.Term) *Error {
	arg := m.heap.Get(t.Loc() + 1)
	m.heap.Set(fn.Loc(), arg)
	m.heap.Set(loc, m.heap.Get(fn.Loc()+1))
	return m.count("app-lam")
}

// ruleAppSup applies a superposed function: the argument is dup'd under
// the superposition's own label and both halves get applied.
func (m *Machine) ruleAppSup(loc term.Loc, t, fn term.Term) *Error {
	arg := m.heap.Get(t.Loc() + 1)
	left := m.heap.Get(fn.Loc())
	right := m.heap.Get(fn.Loc() + 1)
	a0, a1 := m.heap.NewDupBlock(fn.Ext, arg)
	app0 := m.heap.NewApp(left, a0)
	app1 := m.heap.NewApp(right, a1)
	m.heap.Set(loc, m.heap.NewSup(fn.Ext, app0, app1))
	return m.count("app-sup")
}

// ruleDup splits the block's expression, now in weak head form, into two
// halves. Both outputs are written into the block and the visited use
// takes its own side.
func (m *Machine) ruleDup(loc term.Loc, t, e term.Term) *Error {
	block := t.Loc()
	label := t.Ext
	var out0, out1 term.Term
	rule := "dup-ctr"

	switch {
	case e.Tag == term.TagNum:
		out0, out1 = e, e
		rule = "dup-num"

	case e.Tag == term.TagLam:
		// The binder splits into a superposition of two fresh binders
		// and the body is re-dup'd under the same label.
		body := m.heap.Get(e.Loc() + 1)
		l0 := m.heap.ReserveLam()
		l1 := m.heap.ReserveLam()
		b0, b1 := m.heap.NewDupBlock(label, body)
		out0 = l0.Bind(b0)
		out1 = l1.Bind(b1)
		m.heap.Set(e.Loc(), m.heap.NewSup(label, l0.Var(), l1.Var()))
		rule = "dup-lam"

	case e.Tag == term.TagSup && e.Ext == label:
		// Same label: this dup made that superposition, each side
		// takes its half back.
		out0 = m.heap.Get(e.Loc())
		out1 = m.heap.Get(e.Loc() + 1)
		rule = "dup-sup"

	case e.Tag == term.TagSup:
		// Foreign label: the two pairs pass through each other.
		x := m.heap.Get(e.Loc())
		y := m.heap.Get(e.Loc() + 1)
		x0, x1 := m.heap.NewDupBlock(label, x)
		y0, y1 := m.heap.NewDupBlock(label, y)
		out0 = m.heap.NewSup(e.Ext, x0, y0)
		out1 = m.heap.NewSup(e.Ext, x1, y1)
		rule = "dup-sup"

	case e.Tag == term.TagCtr:
		n := e.CtrKind().Arity()
		if n == 0 {
			out0, out1 = e, e
			break
		}
		f0 := make([]term.Term, n)
		f1 := make([]term.Term, n)
		for i := 0; i < n; i++ {
			d0, d1 := m.heap.NewDupBlock(label, m.heap.Get(e.Loc()+term.Loc(i)))
			f0[i] = d0
			f1[i] = d1
		}
		out0 = m.heap.NewCtr(e.CtrKind(), e.Aux(), f0...)
		out1 = m.heap.NewCtr(e.CtrKind(), e.Aux(), f1...)

	default:
		return m.eb.corrupt("dup of " + e.Tag.String())
	}

	m.heap.Set(block, out0)
	m.heap.Set(block+1, out1)
	if t.Tag == term.TagDup0 {
		m.heap.Set(loc, out0)
	} else {
		m.heap.Set(loc, out1)
	}
	return m.count(rule)
}

// ruleOp2Sup commutes a primitive with a superposed operand: the other
// operand is dup'd under the superposition's label and the operator is
// applied on both sides.
func (m *Machine) ruleOp2Sup(loc term.Loc, t, lhs, rhs term.Term, supOnLeft bool) *Error {
	sup, other := lhs, rhs
	if !supOnLeft {
		sup, other = rhs, lhs
	}
	a := m.heap.Get(sup.Loc())
	b := m.heap.Get(sup.Loc() + 1)
	o0, o1 := m.heap.NewDupBlock(sup.Ext, other)
	var r0, r1 term.Term
	if supOnLeft {
		r0 = m.heap.NewOp2(t.Op(), a, o0)
		r1 = m.heap.NewOp2(t.Op(), b, o1)
	} else {
		r0 = m.heap.NewOp2(t.Op(), o0, a)
		r1 = m.heap.NewOp2(t.Op(), o1, b)
	}
	m.heap.Set(loc, m.heap.NewSup(sup.Ext, r0, r1))
	return m.count("op2-sup")
}

// ruleMatSup commutes a dispatch with a superposed scrutinee. Every other
// operand is dup'd under the superposition's label.
func (m *Machine) ruleMatSup(loc term.Loc, t, sup term.Term) *Error {
	kind := t.MatKind()
	n := kind.Arity()
	ops0 := make([]term.Term, n)
	ops1 := make([]term.Term, n)
	ops0[0] = m.heap.Get(sup.Loc())
	ops1[0] = m.heap.Get(sup.Loc() + 1)
	for i := 1; i < n; i++ {
		d0, d1 := m.heap.NewDupBlock(sup.Ext, m.heap.Get(t.Loc()+term.Loc(i)))
		ops0[i] = d0
		ops1[i] = d1
	}
	m0 := m.heap.NewMat(kind, t.Aux(), ops0...)
	m1 := m.heap.NewMat(kind, t.Aux(), ops1...)
	m.heap.Set(loc, m.heap.NewSup(sup.Ext, m0, m1))
	return m.count("mat-sup")
}

// ruleMat dispatches on a weak-head scrutinee. A non-zero pending location
// means a spine cell must reduce first; the caller pushes it and retries.
func (m *Machine) ruleMat(loc term.Loc, t, scrut term.Term) (term.Loc, *Error) {
	switch t.MatKind() {
	case term.MatIf:
		if scrut.Tag == term.TagCtr {
			switch scrut.CtrKind() {
			case term.CtTrue:
				m.heap.Set(loc, m.heap.Get(t.Loc()+1))
				return term.NoLoc, m.count("mat-if")
			case term.CtFalse:
				m.heap.Set(loc, m.heap.Get(t.Loc()+2))
				return term.NoLoc, m.count("mat-if")
			}
		}
		return term.NoLoc, m.eb.notBoolean(describe(scrut))

	case term.MatSel:
		if !isAttrs(scrut) {
			return term.NoLoc, m.eb.typeMismatch("attrset", describe(scrut))
		}
		v, pending, found, err := m.attrFind(scrut, t.Aux())
		if err != nil || pending != term.NoLoc {
			return pending, err
		}
		if !found {
			return term.NoLoc, m.eb.missingAttr(m.prog.Name(t.Aux()))
		}
		m.heap.Set(loc, v)
		return term.NoLoc, m.count("mat-sel")

	case term.MatSelOr:
		// Selection with a default never fails: a non-set scrutinee or
		// a missing name both take the default.
		if !isAttrs(scrut) {
			m.heap.Set(loc, m.heap.Get(t.Loc()+1))
			return term.NoLoc, m.count("mat-selor")
		}
		v, pending, found, err := m.attrFind(scrut, t.Aux())
		if err != nil || pending != term.NoLoc {
			return pending, err
		}
		if !found {
			v = m.heap.Get(t.Loc() + 1)
		}
		m.heap.Set(loc, v)
		return term.NoLoc, m.count("mat-selor")

	case term.MatHas:
		if !isAttrs(scrut) {
			m.heap.Set(loc, term.MakeBool(false))
			return term.NoLoc, m.count("mat-has")
		}
		_, pending, found, err := m.attrFind(scrut, t.Aux())
		if err != nil || pending != term.NoLoc {
			return pending, err
		}
		m.heap.Set(loc, term.MakeBool(found))
		return term.NoLoc, m.count("mat-has")

	case term.MatWith:
		if !isAttrs(scrut) {
			return term.NoLoc, m.eb.typeMismatch("attrset", describe(scrut))
		}
		v, pending, found, err := m.attrFind(scrut, t.Aux())
		if err != nil || pending != term.NoLoc {
			return pending, err
		}
		if !found {
			return term.NoLoc, m.eb.withUnbound(m.prog.Name(t.Aux()))
		}
		m.heap.Set(loc, v)
		return term.NoLoc, m.count("mat-with")

	case term.MatChk:
		if !isAttrs(scrut) {
			return term.NoLoc, m.eb.typeMismatch("attrset", describe(scrut))
		}
		if pending := m.attrSpinePending(scrut); pending != term.NoLoc {
			return pending, nil
		}
		if err := m.checkPattern(t.Aux(), scrut); err != nil {
			return term.NoLoc, err
		}
		m.heap.Set(loc, m.heap.Get(t.Loc()+1))
		return term.NoLoc, m.count("mat-chk")
	}
	return term.NoLoc, m.eb.corrupt("dispatch kind " + t.MatKind().String())
}

// checkPattern verifies a forced attrset spine against a compiled pattern:
// no bind outside the allowed set, no required name missing.
func (m *Machine) checkPattern(id uint32, scrut term.Term) *Error {
	var present []uint32
	cur := scrut.Loc()
	for {
		cell := m.heap.Get(cur)
		if cell.Tag != term.TagCtr {
			return m.eb.corrupt("attrset spine holds " + cell.Tag.String())
		}
		if cell.CtrKind() == term.CtNil {
			break
		}
		if cell.CtrKind() != term.CtBind {
			return m.eb.corrupt("attrset spine holds " + cell.CtrKind().String())
		}
		if !m.prog.PatternOpen(id) && !m.prog.PatternAllows(id, cell.Aux()) {
			return m.eb.unexpectedArg(m.prog.Name(cell.Aux()))
		}
		present = append(present, cell.Aux())
		cur = cell.Loc() + 1
	}
	for _, req := range m.prog.PatternRequired(id) {
		ok := false
		for _, p := range present {
			if p == req {
				ok = true
				break
			}
		}
		if !ok {
			return m.eb.requiredArg(m.prog.Name(req))
		}
	}
	return nil
}

// attrFind looks up a name in an attrset spine. It returns the bound value
// term, or the first spine cell that still needs reduction, or found=false
// on the nil terminator. Duplicate names resolve to the first occurrence.
func (m *Machine) attrFind(scrut term.Term, aux uint32) (term.Term, term.Loc, bool, *Error) {
	cur := scrut.Loc()
	for {
		cell := m.heap.Get(cur)
		if !cell.IsWeakHead() {
			return term.Term{}, cur, false, nil
		}
		if cell.Tag != term.TagCtr {
			return term.Term{}, term.NoLoc, false, m.eb.corrupt("attrset spine holds " + cell.Tag.String())
		}
		switch cell.CtrKind() {
		case term.CtNil:
			return term.Term{}, term.NoLoc, false, nil
		case term.CtBind:
			if cell.Aux() == aux {
				return m.heap.Get(cell.Loc()), term.NoLoc, true, nil
			}
			cur = cell.Loc() + 1
		default:
			return term.Term{}, term.NoLoc, false, m.eb.corrupt("attrset spine holds " + cell.CtrKind().String())
		}
	}
}

// attrSpinePending returns the first attrset spine cell that is not yet in
// weak head form, or NoLoc when the whole spine is forced. Bound values
// stay untouched.
func (m *Machine) attrSpinePending(scrut term.Term) term.Loc {
	cur := scrut.Loc()
	for {
		cell := m.heap.Get(cur)
		if !cell.IsWeakHead() {
			return cur
		}
		if cell.Tag != term.TagCtr || cell.CtrKind() != term.CtBind {
			return term.NoLoc
		}
		cur = cell.Loc() + 1
	}
}

// listSpinePending returns the first unforced cell among a list's length
// and spine nodes. Element heads stay untouched.
func (m *Machine) listSpinePending(l term.Term) term.Loc {
	if !m.heap.Get(l.Loc()).IsWeakHead() {
		return l.Loc()
	}
	cur := l.Loc() + 1
	for {
		cell := m.heap.Get(cur)
		if !cell.IsWeakHead() {
			return cur
		}
		if cell.Tag != term.TagCtr || cell.CtrKind() != term.CtCons {
			return term.NoLoc
		}
		cur = cell.Loc() + 1
	}
}

// strPending returns the first unforced cell of a string: its length, a
// spine node, or a packed word.
func (m *Machine) strPending(s term.Term) term.Loc {
	if !m.heap.Get(s.Loc()).IsWeakHead() {
		return s.Loc()
	}
	cur := s.Loc() + 1
	for {
		cell := m.heap.Get(cur)
		if !cell.IsWeakHead() {
			return cur
		}
		if cell.Tag != term.TagCtr || cell.CtrKind() != term.CtCons {
			return term.NoLoc
		}
		if head := cell.Loc(); !m.heap.Get(head).IsWeakHead() {
			return head
		}
		cur = cell.Loc() + 1
	}
}

// scalarPending returns an unforced limb cell of a big integer or float.
func (m *Machine) scalarPending(t term.Term) term.Loc {
	if t.Tag != term.TagCtr {
		return term.NoLoc
	}
	switch t.CtrKind() {
	case term.CtBigPos, term.CtBigNeg, term.CtFloat:
		if !m.heap.Get(t.Loc()).IsWeakHead() {
			return t.Loc()
		}
		if !m.heap.Get(t.Loc() + 1).IsWeakHead() {
			return t.Loc() + 1
		}
	}
	return term.NoLoc
}

// op2Pending returns the cell a primitive still needs in weak head form
// before its rule can fire, or NoLoc when the rule may go ahead. Shape
// errors are left for the rule to report.
func (m *Machine) op2Pending(t, lhs, rhs term.Term) term.Loc {
	op := t.Op()
	switch {
	case op == term.OpEq || op == term.OpNe:
		// Deep equality forces what it needs itself.
		return term.NoLoc

	case op == term.OpCat:
		if isList(lhs) {
			if p := m.listSpinePending(lhs); p != term.NoLoc {
				return p
			}
		}
		if isList(rhs) {
			// Only the cached length; the right spine stays lazy.
			if !m.heap.Get(rhs.Loc()).IsWeakHead() {
				return rhs.Loc()
			}
		}
		return term.NoLoc

	case op == term.OpUpd:
		if isAttrs(lhs) {
			if p := m.attrSpinePending(lhs); p != term.NoLoc {
				return p
			}
		}
		if isAttrs(rhs) {
			if p := m.attrSpinePending(rhs); p != term.NoLoc {
				return p
			}
		}
		return term.NoLoc

	case op == term.OpAdd && isStr(lhs) && isStr(rhs):
		if p := m.strPending(lhs); p != term.NoLoc {
			return p
		}
		return m.strPending(rhs)

	default:
		// Arithmetic and ordering work on scalars; force the limbs.
		if p := m.scalarPending(lhs); p != term.NoLoc {
			return p
		}
		if p := m.scalarPending(rhs); p != term.NoLoc {
			return p
		}
		if op.IsCompare() && isStr(lhs) && isStr(rhs) {
			if p := m.strPending(lhs); p != term.NoLoc {
				return p
			}
			return m.strPending(rhs)
		}
		return term.NoLoc
	}
}

// ruleOp2 fires a primitive whose operands are weak heads with forced limbs.
func (m *Machine) ruleOp2(loc term.Loc, t, lhs, rhs term.Term) *Error {
	op := t.Op()
	switch {
	case op == term.OpEq || op == term.OpNe:
		return m.ruleEq(loc, t, op)
	case op == term.OpCat:
		return m.ruleCat(loc, lhs, rhs)
	case op == term.OpUpd:
		return m.ruleUpd(loc, lhs, rhs)
	case op.IsCompare():
		return m.ruleCompare(loc, op, lhs, rhs)
	case op == term.OpAdd && isStr(lhs) && isStr(rhs):
		return m.ruleConcatStr(loc, lhs, rhs)
	default:
		return m.ruleArith(loc, op, lhs, rhs)
	}
}

func (m *Machine) ruleEq(loc term.Loc, t term.Term, op term.OpKind) *Error {
	eq, err := m.valueEq(t.Loc(), t.Loc()+1)
	if err != nil {
		return err
	}
	if op == term.OpNe {
		eq = !eq
	}
	m.heap.Set(loc, term.MakeBool(eq))
	return m.count("op2-eq")
}

// ruleArith does integer arithmetic. One float operand turns the whole
// operation into a float one; big operands are out of the integer range
// this engine computes in and fail cleanly.
func (m *Machine) ruleArith(loc term.Loc, op term.OpKind, lhs, rhs term.Term) *Error {
	if isFloat(lhs) || isFloat(rhs) {
		return m.ruleArithFloat(loc, op, lhs, rhs)
	}
	if isBig(lhs) || isBig(rhs) {
		return m.eb.bigArith(op.String())
	}
	if lhs.Tag != term.TagNum {
		return m.eb.typeMismatch("integer", describe(lhs))
	}
	if rhs.Tag != term.TagNum {
		return m.eb.typeMismatch("integer", describe(rhs))
	}
	a := int64(lhs.Num())
	b := int64(rhs.Num())
	var r int64
	switch op {
	case term.OpAdd:
		r = a + b
	case term.OpSub:
		r = a - b
	case term.OpMul:
		r = a * b
	case term.OpDiv:
		if b == 0 {
			return m.eb.divZero()
		}
		r = a / b
	case term.OpMod:
		if b == 0 {
			return m.eb.divZero()
		}
		r = a % b
	case term.OpAnd:
		r = a & b
	case term.OpOr:
		r = a | b
	case term.OpXor:
		r = a ^ b
	case term.OpShl:
		if b < 0 || b > 63 {
			return m.eb.overflow(op.String())
		}
		r = a << uint(b)
	case term.OpShr:
		if b < 0 || b > 63 {
			return m.eb.overflow(op.String())
		}
		r = a >> uint(b)
	default:
		return m.eb.corrupt("operator " + op.String())
	}
	if !codec.FitsSmall(r) {
		return m.eb.overflow(op.String())
	}
	m.heap.Set(loc, term.MakeNum(int32(r))) //nolint:gosec // G115: range checked above
	return m.count("op2-int")
}

func (m *Machine) ruleArithFloat(loc term.Loc, op term.OpKind, lhs, rhs term.Term) *Error {
	a, ok := m.operandFloat(lhs)
	if !ok {
		return m.eb.typeMismatch("number", describe(lhs))
	}
	b, ok := m.operandFloat(rhs)
	if !ok {
		return m.eb.typeMismatch("number", describe(rhs))
	}
	var r float64
	switch op {
	case term.OpAdd:
		r = a + b
	case term.OpSub:
		r = a - b
	case term.OpMul:
		r = a * b
	case term.OpDiv:
		if b == 0 {
			return m.eb.divZero()
		}
		r = a / b
	default:
		return m.eb.typeMismatch("integer", "float")
	}
	m.heap.Set(loc, codec.EncodeFloat(m.heap, r))
	return m.count("op2-float")
}

func (m *Machine) ruleCompare(loc term.Loc, op term.OpKind, lhs, rhs term.Term) *Error {
	var res bool
	switch {
	case isStr(lhs) && isStr(rhs):
		sa, ok := spine.DecodeString(m.heap, lhs)
		if !ok {
			return m.eb.decode("string operand")
		}
		sb, ok := spine.DecodeString(m.heap, rhs)
		if !ok {
			return m.eb.decode("string operand")
		}
		res = cmpOrder(op, strings.Compare(sa, sb))
	case (isFloat(lhs) || isFloat(rhs)) && isNumber(lhs) && isNumber(rhs):
		a, ok := m.operandFloat(lhs)
		if !ok {
			return m.eb.decode("float operand")
		}
		b, ok := m.operandFloat(rhs)
		if !ok {
			return m.eb.decode("float operand")
		}
		switch op {
		case term.OpLt:
			res = a < b
		case term.OpLe:
			res = a <= b
		case term.OpGe:
			res = a >= b
		default:
			res = a > b
		}
	case isNumber(lhs) && isNumber(rhs):
		a, ok := codec.DecodeInt(m.heap, lhs)
		if !ok {
			return m.eb.decode("integer operand")
		}
		b, ok := codec.DecodeInt(m.heap, rhs)
		if !ok {
			return m.eb.decode("integer operand")
		}
		switch op {
		case term.OpLt:
			res = a < b
		case term.OpLe:
			res = a <= b
		case term.OpGe:
			res = a >= b
		default:
			res = a > b
		}
	default:
		return m.eb.incomparable()
	}
	m.heap.Set(loc, term.MakeBool(res))
	return m.count("op2-cmp")
}

func cmpOrder(op term.OpKind, c int) bool {
	switch op {
	case term.OpLt:
		return c < 0
	case term.OpLe:
		return c <= 0
	case term.OpGe:
		return c >= 0
	default:
		return c > 0
	}
}

func (m *Machine) ruleConcatStr(loc term.Loc, lhs, rhs term.Term) *Error {
	sa, ok := spine.DecodeString(m.heap, lhs)
	if !ok {
		return m.eb.decode("string operand")
	}
	sb, ok := spine.DecodeString(m.heap, rhs)
	if !ok {
		return m.eb.decode("string operand")
	}
	m.heap.Set(loc, spine.BuildString(m.heap, sa+sb))
	return m.count("op2-strcat")
}

// ruleCat splices two lists. The left spine is rebuilt cell by cell; the
// right list's spine is shared as the tail and stays unreduced.
func (m *Machine) ruleCat(loc term.Loc, lhs, rhs term.Term) *Error {
	if !isList(lhs) {
		return m.eb.typeMismatch("list", describe(lhs))
	}
	if !isList(rhs) {
		return m.eb.typeMismatch("list", describe(rhs))
	}
	lenL, ok := spine.ListLen(m.heap, lhs)
	if !ok {
		return m.eb.decode("list length")
	}
	lenR, ok := spine.ListLen(m.heap, rhs)
	if !ok {
		return m.eb.decode("list length")
	}
	total := lenL + lenR
	if !codec.FitsSmall(total) {
		return m.eb.overflow(term.OpCat.String())
	}
	heads := make([]term.Term, 0, lenL)
	cur := lhs.Loc() + 1
	for {
		cell := m.heap.Get(cur)
		if cell.Tag != term.TagCtr {
			return m.eb.corrupt("list spine holds " + cell.Tag.String())
		}
		if cell.CtrKind() == term.CtNil {
			break
		}
		if cell.CtrKind() != term.CtCons {
			return m.eb.corrupt("list spine holds " + cell.CtrKind().String())
		}
		heads = append(heads, m.heap.Get(cell.Loc()))
		cur = cell.Loc() + 1
	}
	tail := m.heap.Get(rhs.Loc() + 1)
	for i := len(heads) - 1; i >= 0; i-- {
		tail = m.heap.NewCtr(term.CtCons, 0, heads[i], tail)
	}
	m.heap.Set(loc, spine.MakeListFrom(m.heap, int32(total), tail)) //nolint:gosec // G115: range checked above
	return m.count("op2-cat")
}

// ruleUpd merges two attrsets. The right side is collected first so its
// binds shadow the left's; shadowed names are dropped rather than kept as
// dead spine nodes.
func (m *Machine) ruleUpd(loc term.Loc, lhs, rhs term.Term) *Error {
	if !isAttrs(lhs) {
		return m.eb.typeMismatch("attrset", describe(lhs))
	}
	if !isAttrs(rhs) {
		return m.eb.typeMismatch("attrset", describe(rhs))
	}
	var binds []spine.Bind
	seen := make(map[uint32]struct{})
	collect := func(s term.Term) *Error {
		cur := s.Loc()
		for {
			cell := m.heap.Get(cur)
			if cell.Tag != term.TagCtr {
				return m.eb.corrupt("attrset spine holds " + cell.Tag.String())
			}
			switch cell.CtrKind() {
			case term.CtNil:
				return nil
			case term.CtBind:
				if _, dup := seen[cell.Aux()]; !dup {
					seen[cell.Aux()] = struct{}{}
					binds = append(binds, spine.Bind{Aux: cell.Aux(), Value: m.heap.Get(cell.Loc())})
				}
				cur = cell.Loc() + 1
			default:
				return m.eb.corrupt("attrset spine holds " + cell.CtrKind().String())
			}
		}
	}
	if err := collect(rhs); err != nil {
		return err
	}
	if err := collect(lhs); err != nil {
		return err
	}
	m.heap.Set(loc, spine.BuildAttrs(m.heap, binds))
	return m.count("op2-upd")
}

func (m *Machine) operandFloat(t term.Term) (float64, bool) {
	switch {
	case t.Tag == term.TagNum:
		return float64(t.Num()), true
	case isFloat(t):
		return codec.DecodeFloat(m.heap, t)
	case isBig(t):
		v, ok := codec.DecodeInt(m.heap, t)
		if !ok {
			return 0, false
		}
		return float64(v), true
	}
	return 0, false
}

func isAttrs(t term.Term) bool {
	return t.Tag == term.TagCtr && t.CtrKind() == term.CtAttrs
}

func isList(t term.Term) bool {
	return t.Tag == term.TagCtr && t.CtrKind() == term.CtList
}

func isStr(t term.Term) bool {
	return t.Tag == term.TagCtr && t.CtrKind() == term.CtStr
}

func isFloat(t term.Term) bool {
	return t.Tag == term.TagCtr && t.CtrKind() == term.CtFloat
}

func isBig(t term.Term) bool {
	if t.Tag != term.TagCtr {
		return false
	}
	k := t.CtrKind()
	return k == term.CtBigPos || k == term.CtBigNeg
}

func isNumber(t term.Term) bool {
	return t.Tag == term.TagNum || isBig(t) || isFloat(t)
}
