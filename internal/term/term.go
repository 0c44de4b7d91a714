// Package term defines the graph node representation and the arena heap
// that backs compilation and reduction.
package term

import "fmt"

// Loc addresses one heap cell. Locations are 1-based; 0 is never a valid
// cell, so the zero Loc doubles as "no location".
type Loc uint32

// NoLoc is the invalid location.
const NoLoc Loc = 0

// Tag identifies the shape of a Term.
type Tag uint8

const (
	// TagEmpty marks a cell that was reserved but not yet written.
	TagEmpty Tag = iota
	// TagEra marks an erased subgraph or a consumed dup output.
	TagEra
	// TagNum is a numeric literal; Pay holds the 32-bit two's-complement pattern.
	TagNum
	// TagVar is the use of a lambda binder; Pay is the binder slot location.
	TagVar
	// TagRef is the use of a recursive knot; Pay is the knot slot location.
	TagRef
	// TagLam is a lambda; Pay points at [slot, body].
	TagLam
	// TagApp is an application; Pay points at [fn, arg].
	TagApp
	// TagSup is a superposition; Ext is the dup label, Pay points at [left, right].
	TagSup
	// TagDup0 is the first output of a dup block; Ext is the label, Pay points at the block.
	TagDup0
	// TagDup1 is the second output of a dup block.
	TagDup1
	// TagOp2 is a binary primitive; Ext is the OpKind, Pay points at [lhs, rhs].
	TagOp2
	// TagMat is a dispatch node; Ext packs MatKind and an aux id, Pay points at the operands.
	TagMat
	// TagCtr is a constructor; Ext packs CtorKind and an aux id, Pay points at the fields.
	TagCtr
)

// String returns a short name for the tag.
func (t Tag) String() string {
	switch t {
	case TagEmpty:
		return "empty"
	case TagEra:
		return "era"
	case TagNum:
		return "num"
	case TagVar:
		return "var"
	case TagRef:
		return "ref"
	case TagLam:
		return "lam"
	case TagApp:
		return "app"
	case TagSup:
		return "sup"
	case TagDup0:
		return "dup0"
	case TagDup1:
		return "dup1"
	case TagOp2:
		return "op2"
	case TagMat:
		return "mat"
	case TagCtr:
		return "ctr"
	default:
		return fmt.Sprintf("Tag(%d)", t)
	}
}

// Term is one graph node. Terms are copied by value; sharing identity lives
// in heap cells, never in the struct itself.
type Term struct {
	Tag Tag
	Ext uint32
	Pay uint32
}

// Ext packing for TagMat and TagCtr: the kind sits in the top byte and a
// 24-bit aux id (attribute name, pattern id) in the rest.
const (
	auxBits = 24
	// MaxAux is the largest id that fits in the aux field.
	MaxAux = 1<<auxBits - 1
)

func packExt(kind uint8, aux uint32) uint32 {
	return uint32(kind)<<auxBits | aux&MaxAux
}

// Loc returns the payload as a cell location.
func (t Term) Loc() Loc {
	return Loc(t.Pay)
}

// Aux returns the low 24 bits of Ext for TagMat and TagCtr terms.
func (t Term) Aux() uint32 {
	return t.Ext & MaxAux
}

// MatKind returns the dispatch kind of a TagMat term.
func (t Term) MatKind() MatKind {
	return MatKind(t.Ext >> auxBits)
}

// CtrKind returns the constructor kind of a TagCtr term.
func (t Term) CtrKind() CtorKind {
	return CtorKind(t.Ext >> auxBits)
}

// Op returns the operator of a TagOp2 term.
func (t Term) Op() OpKind {
	return OpKind(t.Ext)
}

// Num returns the integer payload of a TagNum term.
func (t Term) Num() int32 {
	return asInt32(t.Pay)
}

// NumBits returns the raw 32-bit payload of a TagNum term.
func (t Term) NumBits() uint32 {
	return t.Pay
}

// IsWeakHead reports whether the term needs no further reduction at its head.
// Weak heads are numbers, constructors, lambdas, and superpositions.
func (t Term) IsWeakHead() bool {
	switch t.Tag {
	case TagNum, TagCtr, TagLam, TagSup:
		return true
	default:
		return false
	}
}

// MakeNum builds a numeric literal term.
func MakeNum(v int32) Term {
	return Term{Tag: TagNum, Pay: asUint32(v)}
}

// MakeNumBits builds a numeric literal carrying a raw 32-bit pattern.
// Big-integer and float limbs use this form.
func MakeNumBits(u uint32) Term {
	return Term{Tag: TagNum, Pay: u}
}

// MakeVar builds a use of the binder slot at loc.
func MakeVar(slot Loc) Term {
	return Term{Tag: TagVar, Pay: uint32(slot)}
}

// MakeRef builds a use of the knot slot at loc.
func MakeRef(slot Loc) Term {
	return Term{Tag: TagRef, Pay: uint32(slot)}
}

// MakeLam builds a lambda whose [slot, body] cells start at loc.
func MakeLam(cells Loc) Term {
	return Term{Tag: TagLam, Pay: uint32(cells)}
}

// MakeApp builds an application whose [fn, arg] cells start at loc.
func MakeApp(cells Loc) Term {
	return Term{Tag: TagApp, Pay: uint32(cells)}
}

// MakeSup builds a superposition with the given dup label.
func MakeSup(label uint32, cells Loc) Term {
	return Term{Tag: TagSup, Ext: label, Pay: uint32(cells)}
}

// MakeDup builds one output of the dup block at loc. side selects Dup0 or Dup1.
func MakeDup(side uint8, label uint32, block Loc) Term {
	tag := TagDup0
	if side != 0 {
		tag = TagDup1
	}
	return Term{Tag: tag, Ext: label, Pay: uint32(block)}
}

// MakeOp2 builds a binary primitive whose [lhs, rhs] cells start at loc.
func MakeOp2(op OpKind, cells Loc) Term {
	return Term{Tag: TagOp2, Ext: uint32(op), Pay: uint32(cells)}
}

// MakeMat builds a dispatch node. aux carries the attribute name or pattern
// id for the kinds that use one.
func MakeMat(kind MatKind, aux uint32, cells Loc) Term {
	return Term{Tag: TagMat, Ext: packExt(uint8(kind), aux), Pay: uint32(cells)}
}

// MakeCtr builds a constructor term. aux carries the attribute name for
// CtBind and is zero otherwise.
func MakeCtr(kind CtorKind, aux uint32, cells Loc) Term {
	return Term{Tag: TagCtr, Ext: packExt(uint8(kind), aux), Pay: uint32(cells)}
}

// MakeBool builds the boolean constructors. CtFalse and CtTrue are the kind
// values 0 and 1, so the kind itself is the integer identity of the boolean.
func MakeBool(v bool) Term {
	if v {
		return MakeCtr(CtTrue, 0, NoLoc)
	}
	return MakeCtr(CtFalse, 0, NoLoc)
}

// MakeNull builds the null constructor.
func MakeNull() Term {
	return MakeCtr(CtNull, 0, NoLoc)
}

// Era is the erasure term.
func Era() Term {
	return Term{Tag: TagEra}
}
