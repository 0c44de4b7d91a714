package term

import (
	"fmt"

	"fortio.org/safecast"
)

// HeapOverflowError is panicked when an allocation would exceed the cell
// limit. The engine boundary recovers it into a clean failure.
type HeapOverflowError struct {
	Limit uint32
}

func (e *HeapOverflowError) Error() string {
	return fmt.Sprintf("term arena overflow: limit %d cells", e.Limit)
}

// CorruptGraphError is panicked on access through an invalid location.
// It indicates a compiler or engine bug, not a user-level failure.
type CorruptGraphError struct {
	Loc Loc
}

func (e *CorruptGraphError) Error() string {
	return fmt.Sprintf("invalid cell location %d", e.Loc)
}

// Heap is the append-only term arena. Compilation only appends; reduction
// overwrites existing cells in place. Locations are 1-based.
//
// Reset discards every cell at once and bumps the generation counter so
// stale handles into the previous generation can be detected.
type Heap struct {
	cells []Term
	limit uint32
	gen   uint32
}

// NewHeap returns a heap with the given initial capacity hint and cell
// limit. A zero limit means the full 32-bit location space.
func NewHeap(capHint uint, limit uint32) *Heap {
	if limit == 0 {
		limit = ^uint32(0)
	}
	return &Heap{
		cells: make([]Term, 0, capHint),
		limit: limit,
	}
}

// Alloc reserves n contiguous cells and returns the location of the first.
func (h *Heap) Alloc(n int) Loc {
	if uint64(len(h.cells))+uint64(n) > uint64(h.limit) {
		panic(&HeapOverflowError{Limit: h.limit})
	}
	base, err := safecast.Conv[uint32](len(h.cells) + 1)
	if err != nil {
		panic(&HeapOverflowError{Limit: h.limit})
	}
	for i := 0; i < n; i++ {
		h.cells = append(h.cells, Term{})
	}
	return Loc(base)
}

// Store reserves len(terms) contiguous cells, writes the terms, and returns
// the location of the first.
func (h *Heap) Store(terms ...Term) Loc {
	base := h.Alloc(len(terms))
	for i, t := range terms {
		h.cells[int(base)-1+i] = t
	}
	return base
}

// Valid reports whether loc addresses a live cell.
func (h *Heap) Valid(loc Loc) bool {
	return loc != 0 && int(loc) <= len(h.cells)
}

// Get returns a copy of the cell at loc.
func (h *Heap) Get(loc Loc) Term {
	if loc == 0 || int(loc) > len(h.cells) {
		panic(&CorruptGraphError{Loc: loc})
	}
	return h.cells[loc-1]
}

// Set overwrites the cell at loc.
func (h *Heap) Set(loc Loc, t Term) {
	if loc == 0 || int(loc) > len(h.cells) {
		panic(&CorruptGraphError{Loc: loc})
	}
	h.cells[loc-1] = t
}

// Len returns the number of live cells.
func (h *Heap) Len() uint32 {
	n, err := safecast.Conv[uint32](len(h.cells))
	if err != nil {
		panic(&HeapOverflowError{Limit: h.limit})
	}
	return n
}

// Gen returns the current generation. It increases on every Reset.
func (h *Heap) Gen() uint32 {
	return h.gen
}

// Limit returns the cell limit.
func (h *Heap) Limit() uint32 {
	return h.limit
}

// Reset discards all cells, keeping the backing storage, and invalidates
// every outstanding location by bumping the generation.
func (h *Heap) Reset() {
	h.cells = h.cells[:0]
	h.gen++
}

// Load replaces the heap contents with a frozen code image. Used to
// instantiate a compiled program for one reduction run.
func (h *Heap) Load(code []Term) {
	h.Reset()
	if uint64(len(code)) > uint64(h.limit) {
		panic(&HeapOverflowError{Limit: h.limit})
	}
	h.cells = append(h.cells, code...)
}

// Snapshot returns a copy of the live cells. The heap is not affected.
func (h *Heap) Snapshot() []Term {
	return append([]Term(nil), h.cells...)
}
