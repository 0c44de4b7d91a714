// Package testkit holds structural checkers shared by tests. They walk
// whole arenas, so production code never calls them.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"skein/internal/compile"
	"skein/internal/term"
)

// CheckHeapInvariants runs a minimal set of arena invariants over every
// live cell:
// 1) no cell is left reserved-but-unwritten
// 2) every cell-bearing term points at enough valid cells for its shape
// 3) dispatch and constructor payloads match their kind's arity
func CheckHeapInvariants(h *term.Heap) error {
	if h == nil {
		return fmt.Errorf("nil heap")
	}
	for loc := term.Loc(1); uint32(loc) <= h.Len(); loc++ {
		if err := checkTerm(h, h.Get(loc)); err != nil {
			return fmt.Errorf("cell %d: %w", loc, err)
		}
	}
	return nil
}

// CheckProgramInvariants verifies a frozen program image:
// 1) the root names a cell inside the image
// 2) the image passes the heap invariants once loaded
// 3) every aux id resolves in the program's name or pattern tables
func CheckProgramInvariants(p *compile.Program) error {
	if p == nil {
		return fmt.Errorf("nil program")
	}
	if len(p.Patterns) != len(p.Required) || len(p.Patterns) != len(p.Open) {
		return fmt.Errorf("pattern tables disagree: %d allowed, %d required, %d open",
			len(p.Patterns), len(p.Required), len(p.Open))
	}
	size, err := safecast.Conv[uint32](len(p.Code))
	if err != nil {
		return fmt.Errorf("code size overflow: %w", err)
	}
	if p.Root == term.NoLoc || uint32(p.Root) > size {
		return fmt.Errorf("root %d outside image of %d cells", p.Root, size)
	}

	h := term.NewHeap(0, 0)
	h.Load(p.Code)
	if err := CheckHeapInvariants(h); err != nil {
		return err
	}
	for loc := term.Loc(1); uint32(loc) <= h.Len(); loc++ {
		if err := checkAux(p, h.Get(loc)); err != nil {
			return fmt.Errorf("cell %d: %w", loc, err)
		}
	}
	return nil
}

func checkTerm(h *term.Heap, t term.Term) error {
	switch t.Tag {
	case term.TagEmpty:
		return fmt.Errorf("reserved cell never written")
	case term.TagEra, term.TagNum:
		return nil
	case term.TagVar, term.TagRef:
		return checkCells(h, t, 1)
	case term.TagLam, term.TagApp, term.TagSup, term.TagOp2:
		return checkCells(h, t, 2)
	case term.TagDup0, term.TagDup1:
		return checkCells(h, t, 3)
	case term.TagMat:
		return checkCells(h, t, t.MatKind().Arity())
	case term.TagCtr:
		return checkCells(h, t, t.CtrKind().Arity())
	default:
		return fmt.Errorf("unknown tag %v", t.Tag)
	}
}

func checkCells(h *term.Heap, t term.Term, arity int) error {
	if arity == 0 {
		return nil
	}
	base := t.Loc()
	if base == term.NoLoc {
		return fmt.Errorf("%v term with no cells", t.Tag)
	}
	span, err := safecast.Conv[term.Loc](arity)
	if err != nil {
		return fmt.Errorf("arity overflow: %w", err)
	}
	for off := term.Loc(0); off < span; off++ {
		if !h.Valid(base + off) {
			return fmt.Errorf("%v term cell %d beyond arena", t.Tag, base+off)
		}
	}
	return nil
}

// checkAux resolves name and pattern ids against the program tables.
// Dispatch kinds that carry no aux are skipped.
func checkAux(p *compile.Program, t term.Term) error {
	switch t.Tag {
	case term.TagMat:
		switch t.MatKind() {
		case term.MatSel, term.MatSelOr, term.MatHas, term.MatWith:
			if int(t.Aux()) >= len(p.Names) {
				return fmt.Errorf("%v name id %d outside table of %d", t.MatKind(), t.Aux(), len(p.Names))
			}
		case term.MatChk:
			if int(t.Aux()) >= len(p.Patterns) {
				return fmt.Errorf("pattern id %d outside table of %d", t.Aux(), len(p.Patterns))
			}
		}
	case term.TagCtr:
		if t.CtrKind() == term.CtBind && int(t.Aux()) >= len(p.Names) {
			return fmt.Errorf("attribute id %d outside table of %d", t.Aux(), len(p.Names))
		}
	}
	return nil
}
