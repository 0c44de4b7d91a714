package term

// LamSlot is a lambda reserved before its body exists. The body is built
// against Var() and then sealed with Bind, which is what lets a binder be
// referenced from inside the subgraph that will become its own body.
type LamSlot struct {
	h    *Heap
	base Loc // [slot, body]
}

// ReserveLam allocates a lambda's cells with both left as pending.
func (h *Heap) ReserveLam() LamSlot {
	return LamSlot{h: h, base: h.Store(Era(), Era())}
}

// Slot returns the binder slot location. Beta reduction writes the argument
// here; Var uses resolve through it.
func (s LamSlot) Slot() Loc {
	return s.base
}

// Var returns a use of the binder.
func (s LamSlot) Var() Term {
	return MakeVar(s.base)
}

// Bind seals the lambda with its finished body and returns the lambda term.
func (s LamSlot) Bind(body Term) Term {
	s.h.Set(s.base+1, body)
	return MakeLam(s.base)
}

// KnotSlot is a recursive binding reserved before its definition exists.
// Ref() terms may appear inside the definition; Tie closes the knot.
type KnotSlot struct {
	h    *Heap
	cell Loc
}

// ReserveKnot allocates one pending cell for a recursive definition.
func (h *Heap) ReserveKnot() KnotSlot {
	return KnotSlot{h: h, cell: h.Store(Era())}
}

// Slot returns the knot cell location.
func (s KnotSlot) Slot() Loc {
	return s.cell
}

// Ref returns a copy-on-read use of the knot.
func (s KnotSlot) Ref() Term {
	return MakeRef(s.cell)
}

// Tie writes the finished definition into the knot cell.
func (s KnotSlot) Tie(def Term) {
	s.h.Set(s.cell, def)
}

// NewApp stores fn applied to arg.
func (h *Heap) NewApp(fn, arg Term) Term {
	return MakeApp(h.Store(fn, arg))
}

// NewOp2 stores a binary primitive over two operands.
func (h *Heap) NewOp2(op OpKind, lhs, rhs Term) Term {
	return MakeOp2(op, h.Store(lhs, rhs))
}

// NewSup stores a superposition of two halves under a dup label.
func (h *Heap) NewSup(label uint32, left, right Term) Term {
	return MakeSup(label, h.Store(left, right))
}

// NewMat stores a dispatch node over its operand cells.
func (h *Heap) NewMat(kind MatKind, aux uint32, operands ...Term) Term {
	if len(operands) != kind.Arity() {
		panic(&CorruptGraphError{Loc: NoLoc})
	}
	return MakeMat(kind, aux, h.Store(operands...))
}

// NewCtr stores a constructor over its field cells.
func (h *Heap) NewCtr(kind CtorKind, aux uint32, fields ...Term) Term {
	if len(fields) != kind.Arity() {
		panic(&CorruptGraphError{Loc: NoLoc})
	}
	if len(fields) == 0 {
		return MakeCtr(kind, aux, NoLoc)
	}
	return MakeCtr(kind, aux, h.Store(fields...))
}

// NewDupBlock stores a dup block [out0, out1, expr] and returns its two
// output terms. The pending Era outputs mark the block as not yet split.
func (h *Heap) NewDupBlock(label uint32, expr Term) (Term, Term) {
	base := h.Store(Era(), Era(), expr)
	return MakeDup(0, label, base), MakeDup(1, label, base)
}
