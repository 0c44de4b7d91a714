package reduce

import (
	"skein/internal/codec"
	"skein/internal/spine"
	"skein/internal/term"
)

type eqPair struct {
	a, b term.Loc
}

// Equality classes. Values in different classes are unequal, never an
// error, except for shapes that do not compare at all.
const (
	eqNone = iota
	eqNum
	eqBool
	eqNull
	eqStr
	eqList
	eqAttrs
)

func eqClass(t term.Term) int {
	if isNumber(t) {
		return eqNum
	}
	if t.Tag != term.TagCtr {
		return eqNone
	}
	switch t.CtrKind() {
	case term.CtTrue, term.CtFalse:
		return eqBool
	case term.CtNull:
		return eqNull
	case term.CtStr:
		return eqStr
	case term.CtList:
		return eqList
	case term.CtAttrs:
		return eqAttrs
	default:
		return eqNone
	}
}

// valueEq decides deep structural equality of the values at two cells,
// forcing both sides as it descends. Integers and floats compare by
// numeric value, attrsets compare order-insensitively, and functions do
// not compare at all. Each visited pair is charged as one step.
func (m *Machine) valueEq(a, b term.Loc) (bool, *Error) {
	stack := []eqPair{{a, b}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := m.count("eq"); err != nil {
			return false, err
		}
		if err := m.whnf(p.a); err != nil {
			return false, err
		}
		if err := m.whnf(p.b); err != nil {
			return false, err
		}
		ta := m.heap.Get(p.a)
		tb := m.heap.Get(p.b)
		if isFail(ta) || isFail(tb) {
			return false, m.eb.assertFailed()
		}
		if ta.Tag == term.TagLam || tb.Tag == term.TagLam || ta.Tag == term.TagSup || tb.Tag == term.TagSup {
			return false, m.eb.incomparable()
		}
		ca, cb := eqClass(ta), eqClass(tb)
		if ca == eqNone || cb == eqNone {
			return false, m.eb.incomparable()
		}
		if ca != cb {
			return false, nil
		}
		switch ca {
		case eqNum:
			same, err := m.eqNumbers(ta, tb)
			if err != nil {
				return false, err
			}
			if !same {
				return false, nil
			}
		case eqBool:
			if ta.CtrKind() != tb.CtrKind() {
				return false, nil
			}
		case eqNull:
			// Both null.
		case eqStr:
			same, err := m.eqStrings(ta, tb)
			if err != nil {
				return false, err
			}
			if !same {
				return false, nil
			}
		case eqList:
			pairs, same, err := m.eqListPairs(ta, tb)
			if err != nil {
				return false, err
			}
			if !same {
				return false, nil
			}
			stack = append(stack, pairs...)
		case eqAttrs:
			pairs, same, err := m.eqAttrPairs(ta, tb)
			if err != nil {
				return false, err
			}
			if !same {
				return false, nil
			}
			stack = append(stack, pairs...)
		}
	}
	return true, nil
}

func (m *Machine) eqNumbers(ta, tb term.Term) (bool, *Error) {
	if err := m.forceLimbs(ta); err != nil {
		return false, err
	}
	if err := m.forceLimbs(tb); err != nil {
		return false, err
	}
	if isFloat(ta) || isFloat(tb) {
		fa, ok := m.operandFloat(ta)
		if !ok {
			return false, m.eb.decode("float operand")
		}
		fb, ok := m.operandFloat(tb)
		if !ok {
			return false, m.eb.decode("float operand")
		}
		return fa == fb, nil
	}
	va, ok := codec.DecodeInt(m.heap, ta)
	if !ok {
		return false, m.eb.decode("integer operand")
	}
	vb, ok := codec.DecodeInt(m.heap, tb)
	if !ok {
		return false, m.eb.decode("integer operand")
	}
	return va == vb, nil
}

func (m *Machine) eqStrings(ta, tb term.Term) (bool, *Error) {
	if err := m.forceStr(ta); err != nil {
		return false, err
	}
	if err := m.forceStr(tb); err != nil {
		return false, err
	}
	sa, ok := spine.DecodeString(m.heap, ta)
	if !ok {
		return false, m.eb.decode("string operand")
	}
	sb, ok := spine.DecodeString(m.heap, tb)
	if !ok {
		return false, m.eb.decode("string operand")
	}
	return sa == sb, nil
}

// eqListPairs compares two lists shallowly and returns the element cell
// pairs left to compare. A false result means the lists already differ.
func (m *Machine) eqListPairs(ta, tb term.Term) ([]eqPair, bool, *Error) {
	if err := m.forceListSpine(ta); err != nil {
		return nil, false, err
	}
	if err := m.forceListSpine(tb); err != nil {
		return nil, false, err
	}
	la, ok := spine.ListLen(m.heap, ta)
	if !ok {
		return nil, false, m.eb.decode("list length")
	}
	lb, ok := spine.ListLen(m.heap, tb)
	if !ok {
		return nil, false, m.eb.decode("list length")
	}
	if la != lb {
		return nil, false, nil
	}
	var pairs []eqPair
	ca, cb := ta.Loc()+1, tb.Loc()+1
	for {
		xa := m.heap.Get(ca)
		xb := m.heap.Get(cb)
		if xa.Tag != term.TagCtr || xb.Tag != term.TagCtr {
			return nil, false, m.eb.decode("list spine")
		}
		if xa.CtrKind() == term.CtNil || xb.CtrKind() == term.CtNil {
			return pairs, xa.CtrKind() == xb.CtrKind(), nil
		}
		if xa.CtrKind() != term.CtCons || xb.CtrKind() != term.CtCons {
			return nil, false, m.eb.decode("list spine")
		}
		pairs = append(pairs, eqPair{xa.Loc(), xb.Loc()})
		ca = xa.Loc() + 1
		cb = xb.Loc() + 1
	}
}

// eqAttrPairs compares two attrsets shallowly by name set and returns the
// bound value cell pairs left to compare.
func (m *Machine) eqAttrPairs(ta, tb term.Term) ([]eqPair, bool, *Error) {
	if err := m.forceAttrSpine(ta); err != nil {
		return nil, false, err
	}
	if err := m.forceAttrSpine(tb); err != nil {
		return nil, false, err
	}
	ma, err := m.attrMap(ta)
	if err != nil {
		return nil, false, err
	}
	mb, err := m.attrMap(tb)
	if err != nil {
		return nil, false, err
	}
	if len(ma) != len(mb) {
		return nil, false, nil
	}
	var pairs []eqPair
	for k, va := range ma {
		vb, ok := mb[k]
		if !ok {
			return nil, false, nil
		}
		pairs = append(pairs, eqPair{va, vb})
	}
	return pairs, true, nil
}

// attrMap collects name to value-cell bindings from a forced attrset
// spine. The first occurrence of a name wins.
func (m *Machine) attrMap(t term.Term) (map[uint32]term.Loc, *Error) {
	out := make(map[uint32]term.Loc)
	cur := t.Loc()
	for {
		cell := m.heap.Get(cur)
		if cell.Tag != term.TagCtr {
			return nil, m.eb.decode("attrset spine")
		}
		switch cell.CtrKind() {
		case term.CtNil:
			return out, nil
		case term.CtBind:
			if _, dup := out[cell.Aux()]; !dup {
				out[cell.Aux()] = cell.Loc()
			}
			cur = cell.Loc() + 1
		default:
			return nil, m.eb.decode("attrset spine")
		}
	}
}

// forceLimbs reduces both limb cells of a big integer or float.
func (m *Machine) forceLimbs(t term.Term) *Error {
	if t.Tag != term.TagCtr {
		return nil
	}
	switch t.CtrKind() {
	case term.CtBigPos, term.CtBigNeg, term.CtFloat:
		if err := m.whnf(t.Loc()); err != nil {
			return err
		}
		return m.whnf(t.Loc() + 1)
	}
	return nil
}

// forceStr reduces a string's length, spine, and word cells in one pass.
func (m *Machine) forceStr(s term.Term) *Error {
	if err := m.whnf(s.Loc()); err != nil {
		return err
	}
	cur := s.Loc() + 1
	for {
		if err := m.whnf(cur); err != nil {
			return err
		}
		cell := m.heap.Get(cur)
		if cell.Tag != term.TagCtr || cell.CtrKind() != term.CtCons {
			return nil
		}
		if err := m.whnf(cell.Loc()); err != nil {
			return err
		}
		cur = cell.Loc() + 1
	}
}

// forceListSpine reduces a list's length and spine cells, leaving the
// element heads alone.
func (m *Machine) forceListSpine(l term.Term) *Error {
	if err := m.whnf(l.Loc()); err != nil {
		return err
	}
	cur := l.Loc() + 1
	for {
		if err := m.whnf(cur); err != nil {
			return err
		}
		cell := m.heap.Get(cur)
		if cell.Tag != term.TagCtr || cell.CtrKind() != term.CtCons {
			return nil
		}
		cur = cell.Loc() + 1
	}
}

// forceAttrSpine reduces an attrset's spine cells, leaving bound values
// alone.
func (m *Machine) forceAttrSpine(t term.Term) *Error {
	cur := t.Loc()
	for {
		if err := m.whnf(cur); err != nil {
			return err
		}
		cell := m.heap.Get(cur)
		if cell.Tag != term.TagCtr || cell.CtrKind() != term.CtBind {
			return nil
		}
		cur = cell.Loc() + 1
	}
}
