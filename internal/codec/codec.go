// Package codec implements the fixed-width numeric encodings over terms:
// 64-bit integers as either an immediate 32-bit literal or a signed pair of
// magnitude limbs, and IEEE-754 doubles as a pair of bit limbs.
//
// Decoding never panics: any non-conforming term yields ok == false, which
// callers treat as a clean failure distinct from a crash.
package codec

import (
	"math"

	"skein/internal/term"
)

// FitsSmall reports whether v is representable as an immediate TagNum
// payload. The same boundary gates the compiler's literal check and both
// encode paths, so the two representations can never overlap.
func FitsSmall(v int64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

// EncodeInt builds the term encoding of v. Small values become immediate
// literals and allocate nothing; the rest become a two-limb magnitude
// constructor signed by its kind.
func EncodeInt(h *term.Heap, v int64) term.Term {
	if FitsSmall(v) {
		return term.MakeNum(int32(v))
	}
	kind := term.CtBigPos
	var mag uint64
	if v < 0 {
		kind = term.CtBigNeg
		mag = negMagnitude(v)
	} else {
		mag = uint64(v)
	}
	lo := term.MakeNumBits(uint32(mag))
	hi := term.MakeNumBits(uint32(mag >> 32))
	return h.NewCtr(kind, 0, lo, hi)
}

// DecodeInt recovers an int64 from its term encoding. ok is false for any
// term that is not a conforming integer encoding, including magnitudes
// outside the int64 range and the never-encoded negative zero.
func DecodeInt(h *term.Heap, t term.Term) (int64, bool) {
	switch t.Tag {
	case term.TagNum:
		return int64(t.Num()), true
	case term.TagCtr:
		switch t.CtrKind() {
		case term.CtBigPos:
			mag, ok := limbs(h, t)
			if !ok || mag > math.MaxInt64 {
				return 0, false
			}
			return int64(mag), true
		case term.CtBigNeg:
			mag, ok := limbs(h, t)
			if !ok || mag == 0 || mag > 1<<63 {
				return 0, false
			}
			if mag == 1<<63 {
				return math.MinInt64, true
			}
			return -int64(mag), true
		}
	}
	return 0, false
}

// IsInt reports whether t is a conforming integer encoding.
func IsInt(h *term.Heap, t term.Term) bool {
	_, ok := DecodeInt(h, t)
	return ok
}

// EncodeFloat builds the two-limb double encoding of f. The bits pass
// through untouched, so NaN payloads and signed zeros survive a round trip.
func EncodeFloat(h *term.Heap, f float64) term.Term {
	bits := math.Float64bits(f)
	lo := term.MakeNumBits(uint32(bits))
	hi := term.MakeNumBits(uint32(bits >> 32))
	return h.NewCtr(term.CtFloat, 0, lo, hi)
}

// DecodeFloat recovers a float64 from its term encoding.
func DecodeFloat(h *term.Heap, t term.Term) (float64, bool) {
	if t.Tag != term.TagCtr || t.CtrKind() != term.CtFloat {
		return 0, false
	}
	bits, ok := limbs(h, t)
	if !ok {
		return 0, false
	}
	return math.Float64frombits(bits), true
}

// limbs reads the [lo, hi] field cells of a two-limb constructor.
func limbs(h *term.Heap, t term.Term) (uint64, bool) {
	base := t.Loc()
	if !h.Valid(base) || !h.Valid(base+1) {
		return 0, false
	}
	lo := h.Get(base)
	hi := h.Get(base + 1)
	if lo.Tag != term.TagNum || hi.Tag != term.TagNum {
		return 0, false
	}
	return uint64(lo.NumBits()) | uint64(hi.NumBits())<<32, true
}

// negMagnitude returns |v| for a negative v without overflowing on the
// smallest representable value.
func negMagnitude(v int64) uint64 {
	u := uint64(-(v + 1))
	return u + 1
}
