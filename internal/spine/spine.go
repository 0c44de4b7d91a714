// Package spine builds and reads the constructor encodings of lists,
// attribute sets, and strings.
//
// Builders produce fully constructed spines, so everything here is
// allocation followed by plain reads. Walking a spine that may still
// contain unreduced cells is the engine's job; the readers in this package
// expect weak-head-normal spine cells and report false otherwise.
package spine

import (
	"fmt"

	"fortio.org/safecast"
	"skein/internal/term"
)

// Bind is one attrset binding for BuildAttrs. Aux is the interned name id.
type Bind struct {
	Aux   uint32
	Value term.Term
}

// BuildList builds a list value over elems: a cons spine consed
// right-to-left under a cached length field.
func BuildList(h *term.Heap, elems []term.Term) term.Term {
	tail := term.MakeCtr(term.CtNil, 0, term.NoLoc)
	for i := len(elems) - 1; i >= 0; i-- {
		tail = h.NewCtr(term.CtCons, 0, elems[i], tail)
	}
	n, err := safecast.Conv[int32](len(elems))
	if err != nil {
		panic(fmt.Errorf("spine: list length overflow: %w", err))
	}
	return h.NewCtr(term.CtList, 0, term.MakeNum(n), tail)
}

// EmptyList builds the canonical empty list.
func EmptyList(h *term.Heap) term.Term {
	return BuildList(h, nil)
}

// MakeListFrom assembles a list value from a prebuilt spine and a known
// length. The engine's concat rule uses it after splicing.
func MakeListFrom(h *term.Heap, length int32, spineTerm term.Term) term.Term {
	return h.NewCtr(term.CtList, 0, term.MakeNum(length), spineTerm)
}

// ListLen reads the cached length of a list value. It never walks the
// spine; a list whose length cell is not an immediate literal is
// non-conforming.
func ListLen(h *term.Heap, t term.Term) (int64, bool) {
	if t.Tag != term.TagCtr || t.CtrKind() != term.CtList {
		return 0, false
	}
	if !h.Valid(t.Loc()) {
		return 0, false
	}
	lenCell := h.Get(t.Loc())
	if lenCell.Tag != term.TagNum {
		return 0, false
	}
	return int64(lenCell.Num()), true
}

// WalkLen counts the cons cells of a fully constructed spine. Used by
// invariant checks to compare against the cached length.
func WalkLen(h *term.Heap, spineTerm term.Term) (int64, bool) {
	var n int64
	t := spineTerm
	for {
		if t.Tag != term.TagCtr {
			return 0, false
		}
		switch t.CtrKind() {
		case term.CtNil:
			return n, true
		case term.CtCons, term.CtBind:
			n++
			if !h.Valid(t.Loc() + 1) {
				return 0, false
			}
			t = h.Get(t.Loc() + 1)
		default:
			return 0, false
		}
	}
}

// BuildAttrs builds an attrset value. Binds keep their given order; lookup
// takes the first match, which is what lets an update prepend the winning
// spine. Duplicate names are the caller's responsibility to reject.
func BuildAttrs(h *term.Heap, binds []Bind) term.Term {
	tail := term.MakeCtr(term.CtNil, 0, term.NoLoc)
	for i := len(binds) - 1; i >= 0; i-- {
		tail = h.NewCtr(term.CtBind, binds[i].Aux, binds[i].Value, tail)
	}
	return h.NewCtr(term.CtAttrs, 0, tail)
}

// EmptyAttrs builds the canonical empty attrset.
func EmptyAttrs(h *term.Heap) term.Term {
	return BuildAttrs(h, nil)
}

// MakeAttrsFrom wraps a prebuilt binding spine into an attrset value.
func MakeAttrsFrom(h *term.Heap, spineTerm term.Term) term.Term {
	return h.NewCtr(term.CtAttrs, 0, spineTerm)
}

// AttrNames collects the name ids of a fully constructed binding spine in
// order, without touching the bound values.
func AttrNames(h *term.Heap, spineTerm term.Term) ([]uint32, bool) {
	var names []uint32
	t := spineTerm
	for {
		if t.Tag != term.TagCtr {
			return nil, false
		}
		switch t.CtrKind() {
		case term.CtNil:
			return names, true
		case term.CtBind:
			names = append(names, t.Aux())
			if !h.Valid(t.Loc() + 1) {
				return nil, false
			}
			t = h.Get(t.Loc() + 1)
		default:
			return nil, false
		}
	}
}
