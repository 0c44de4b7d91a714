package codec

import (
	"math"
	"testing"

	"skein/internal/term"
)

func TestFitsSmallBoundary(t *testing.T) {
	cases := []struct {
		v    int64
		want bool
	}{
		{0, true},
		{1, true},
		{-1, true},
		{math.MaxInt32, true},
		{math.MinInt32, true},
		{math.MaxInt32 + 1, false},
		{math.MinInt32 - 1, false},
		{math.MaxInt64, false},
		{math.MinInt64, false},
	}
	for _, tc := range cases {
		if got := FitsSmall(tc.v); got != tc.want {
			t.Errorf("FitsSmall(%d) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestIntRoundTrip(t *testing.T) {
	values := []int64{
		0, 1, -1, 7, -7,
		math.MaxInt32, math.MinInt32,
		math.MaxInt32 + 1, math.MinInt32 - 1,
		1 << 40, -(1 << 40),
		math.MaxInt64, math.MinInt64,
		math.MaxInt64 - 1, math.MinInt64 + 1,
	}
	for _, v := range values {
		h := term.NewHeap(8, 0)
		enc := EncodeInt(h, v)
		got, ok := DecodeInt(h, enc)
		if !ok {
			t.Errorf("DecodeInt(EncodeInt(%d)) failed", v)
			continue
		}
		if got != v {
			t.Errorf("round trip %d -> %d", v, got)
		}
	}
}

func TestEncodingSelection(t *testing.T) {
	h := term.NewHeap(8, 0)

	small := EncodeInt(h, math.MaxInt32)
	if small.Tag != term.TagNum {
		t.Errorf("MaxInt32 encoded as %v, want immediate", small.Tag)
	}

	big := EncodeInt(h, math.MaxInt32+1)
	if big.Tag != term.TagCtr || big.CtrKind() != term.CtBigPos {
		t.Errorf("MaxInt32+1 encoded as %v, want CtBigPos", big)
	}

	neg := EncodeInt(h, math.MinInt32-1)
	if neg.Tag != term.TagCtr || neg.CtrKind() != term.CtBigNeg {
		t.Errorf("MinInt32-1 encoded as %v, want CtBigNeg", neg)
	}
}

func TestDecodeRejectsNonConforming(t *testing.T) {
	h := term.NewHeap(8, 0)

	// Magnitude above MaxInt64 under a positive constructor.
	overPos := h.NewCtr(term.CtBigPos, 0, term.MakeNumBits(0), term.MakeNumBits(1<<31))
	if _, ok := DecodeInt(h, overPos); ok {
		t.Error("decoded positive magnitude 2^63")
	}

	// Magnitude above 2^63 under a negative constructor.
	overNeg := h.NewCtr(term.CtBigNeg, 0, term.MakeNumBits(1), term.MakeNumBits(1<<31))
	if _, ok := DecodeInt(h, overNeg); ok {
		t.Error("decoded negative magnitude 2^63+1")
	}

	// Negative zero is never produced by the encoder.
	negZero := h.NewCtr(term.CtBigNeg, 0, term.MakeNumBits(0), term.MakeNumBits(0))
	if _, ok := DecodeInt(h, negZero); ok {
		t.Error("decoded negative zero")
	}

	// Non-literal limb.
	lam := h.ReserveLam()
	bad := h.NewCtr(term.CtBigPos, 0, lam.Bind(term.MakeNum(0)), term.MakeNumBits(1))
	if _, ok := DecodeInt(h, bad); ok {
		t.Error("decoded constructor with non-literal limb")
	}

	// Wrong shape entirely.
	if _, ok := DecodeInt(h, term.MakeBool(true)); ok {
		t.Error("decoded a boolean constructor")
	}
}

func TestMinInt64Magnitude(t *testing.T) {
	h := term.NewHeap(8, 0)
	enc := EncodeInt(h, math.MinInt64)
	if enc.CtrKind() != term.CtBigNeg {
		t.Fatalf("MinInt64 kind = %v, want CtBigNeg", enc.CtrKind())
	}
	lo := h.Get(enc.Loc()).NumBits()
	hi := h.Get(enc.Loc() + 1).NumBits()
	if lo != 0 || hi != 1<<31 {
		t.Errorf("MinInt64 limbs = %#x, %#x, want 0, 0x80000000", lo, hi)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	values := []float64{0, 1.5, -2.25, math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(1), math.Inf(-1)}
	for _, f := range values {
		h := term.NewHeap(4, 0)
		got, ok := DecodeFloat(h, EncodeFloat(h, f))
		if !ok || got != f {
			t.Errorf("float round trip %g -> %g (ok=%v)", f, got, ok)
		}
	}

	h := term.NewHeap(4, 0)
	got, ok := DecodeFloat(h, EncodeFloat(h, math.NaN()))
	if !ok || !math.IsNaN(got) {
		t.Errorf("NaN round trip = %g (ok=%v)", got, ok)
	}

	zero, _ := DecodeFloat(h, EncodeFloat(h, math.Copysign(0, -1)))
	if math.Signbit(zero) != true {
		t.Error("negative zero lost its sign")
	}
}
