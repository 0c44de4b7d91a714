package ast

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"io"
	"math"
)

// Fingerprint returns a stable content hash of a tree. Structurally equal
// trees with equal literals hash the same, which is what lets compiled
// programs be cached across sessions keyed by expression.
func Fingerprint(e *Expr) [sha256.Size]byte {
	w := fpWriter{h: sha256.New()}
	w.expr(e)
	var out [sha256.Size]byte
	copy(out[:], w.h.Sum(nil))
	return out
}

type fpWriter struct {
	h   hash.Hash
	buf [binary.MaxVarintLen64]byte
}

func (f *fpWriter) byte(b byte) {
	f.buf[0] = b
	f.h.Write(f.buf[:1])
}

func (f *fpWriter) uvarint(v uint64) {
	n := binary.PutUvarint(f.buf[:], v)
	f.h.Write(f.buf[:n])
}

func (f *fpWriter) varint(v int64) {
	n := binary.PutVarint(f.buf[:], v)
	f.h.Write(f.buf[:n])
}

func (f *fpWriter) str(s string) {
	f.uvarint(uint64(len(s)))
	io.WriteString(f.h, s)
}

func (f *fpWriter) bool(b bool) {
	if b {
		f.byte(1)
	} else {
		f.byte(0)
	}
}

// expr writes a canonical encoding of the node. A nil child gets its own
// marker so optional fields cannot collide with adjacent ones.
func (f *fpWriter) expr(e *Expr) {
	if e == nil {
		f.byte(0xFF)
		return
	}
	f.byte(byte(e.Kind))
	switch d := e.Data.(type) {
	case IntData:
		f.varint(d.Value)
	case FloatData:
		f.uvarint(math.Float64bits(d.Value))
	case BoolData:
		f.bool(d.Value)
	case StringData:
		f.str(d.Value)
	case InterpData:
		f.uvarint(uint64(len(d.Parts)))
		for _, p := range d.Parts {
			f.expr(p)
		}
	case NullData:
	case PathData:
		f.str(d.Value)
	case VarData:
		f.str(d.Name)
	case ListData:
		f.uvarint(uint64(len(d.Elems)))
		for _, el := range d.Elems {
			f.expr(el)
		}
	case AttrsData:
		f.bool(d.Rec)
		f.binds(d.Binds)
		f.uvarint(uint64(len(d.Dynamic)))
		for _, dyn := range d.Dynamic {
			f.expr(dyn.Name)
			f.expr(dyn.Value)
		}
	case LetData:
		f.binds(d.Binds)
		f.expr(d.Body)
	case LambdaData:
		f.str(d.Param)
		if d.Pattern == nil {
			f.byte(0)
		} else {
			f.byte(1)
			f.bool(d.Pattern.Ellipsis)
			f.uvarint(uint64(len(d.Pattern.Fields)))
			for _, fld := range d.Pattern.Fields {
				f.str(fld.Name)
				f.expr(fld.Default)
			}
		}
		f.expr(d.Body)
	case ApplyData:
		f.expr(d.Fn)
		f.expr(d.Arg)
	case BinaryData:
		f.byte(byte(d.Op))
		f.expr(d.Left)
		f.expr(d.Right)
	case UnaryData:
		f.byte(byte(d.Op))
		f.expr(d.Operand)
	case IfData:
		f.expr(d.Cond)
		f.expr(d.Then)
		f.expr(d.Else)
	case AssertData:
		f.expr(d.Cond)
		f.expr(d.Body)
	case WithData:
		f.expr(d.Scope)
		f.expr(d.Body)
	case SelectData:
		f.expr(d.Object)
		f.uvarint(uint64(len(d.Path)))
		for _, p := range d.Path {
			f.str(p)
		}
		f.expr(d.Default)
	case HasAttrData:
		f.expr(d.Object)
		f.uvarint(uint64(len(d.Path)))
		for _, p := range d.Path {
			f.str(p)
		}
	}
}

func (f *fpWriter) binds(binds []AttrBind) {
	f.uvarint(uint64(len(binds)))
	for _, b := range binds {
		f.str(b.Name)
		f.bool(b.FromOuter)
		f.expr(b.Value)
	}
}
