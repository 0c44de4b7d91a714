package reduce_test

import (
	"errors"
	"math"
	"sort"
	"testing"

	"skein/internal/codec"
	"skein/internal/compile"
	"skein/internal/reduce"
	"skein/internal/spine"
	"skein/internal/term"
	"skein/internal/testkit"
)

// buildProg freezes a hand-built graph into a program rooted at the cell
// the build function returns.
func buildProg(t *testing.T, names []string, build func(h *term.Heap) term.Loc) *compile.Program {
	t.Helper()
	h := term.NewHeap(64, 0)
	root := build(h)
	return &compile.Program{Code: h.Snapshot(), Root: root, Names: names}
}

func runWHNF(t *testing.T, p *compile.Program, lim reduce.Limits) (term.Term, *reduce.Machine, error) {
	t.Helper()
	m := reduce.NewMachine(lim, nil)
	m.Load(p)
	out, err := m.WHNF(p.Root)
	if err == nil {
		if ierr := testkit.CheckHeapInvariants(m.Heap()); ierr != nil {
			t.Fatalf("heap after reduction: %v", ierr)
		}
	}
	return out, m, err
}

func wantNum(t *testing.T, got term.Term, want int32) {
	t.Helper()
	if got.Tag != term.TagNum {
		t.Fatalf("head = %v, want num", got.Tag)
	}
	if got.Num() != want {
		t.Fatalf("num = %d, want %d", got.Num(), want)
	}
}

func wantBool(t *testing.T, got term.Term, want bool) {
	t.Helper()
	if got.Tag != term.TagCtr || (got.CtrKind() != term.CtTrue && got.CtrKind() != term.CtFalse) {
		t.Fatalf("head = %v/%v, want boolean", got.Tag, got.Ext)
	}
	if (got.CtrKind() == term.CtTrue) != want {
		t.Fatalf("bool = %v, want %v", got.CtrKind() == term.CtTrue, want)
	}
}

func wantCode(t *testing.T, err error, code reduce.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil error", code)
	}
	var rerr *reduce.Error
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *reduce.Error, got %T: %v", err, err)
	}
	if rerr.Code != code {
		t.Fatalf("code = %v, want %v", rerr.Code, code)
	}
}

// decodeIntList forces a list at loc and decodes its integer elements.
func decodeIntList(t *testing.T, m *reduce.Machine, loc term.Loc) []int64 {
	t.Helper()
	head, err := m.WHNF(loc)
	if err != nil {
		t.Fatalf("whnf list: %v", err)
	}
	if head.Tag != term.TagCtr || head.CtrKind() != term.CtList {
		t.Fatalf("head = %v, want list", head)
	}
	if _, err := m.WHNF(head.Loc()); err != nil {
		t.Fatalf("whnf length: %v", err)
	}
	ln, ok := spine.ListLen(m.Heap(), head)
	if !ok {
		t.Fatal("list length not reduced")
	}
	var out []int64
	cur := head.Loc() + 1
	for {
		cell, err := m.WHNF(cur)
		if err != nil {
			t.Fatalf("whnf spine: %v", err)
		}
		if cell.CtrKind() == term.CtNil {
			break
		}
		if cell.CtrKind() != term.CtCons {
			t.Fatalf("spine cell = %v, want cons", cell)
		}
		elem, err := m.WHNF(cell.Loc())
		if err != nil {
			t.Fatalf("whnf element: %v", err)
		}
		v, ok := codec.DecodeInt(m.Heap(), elem)
		if !ok {
			t.Fatalf("element does not decode: %v", elem)
		}
		out = append(out, v)
		cur = cell.Loc() + 1
	}
	if int64(len(out)) != ln {
		t.Fatalf("cached length %d, walked %d", ln, len(out))
	}
	return out
}

func TestLiteralIsAlreadyNormal(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		return h.Store(term.MakeNum(42))
	})
	out, m, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	wantNum(t, out, 42)
	if m.Steps() != 0 {
		t.Errorf("steps = %d, want 0", m.Steps())
	}
}

func TestBetaIdentity(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		id := h.ReserveLam()
		fn := id.Bind(id.Var())
		return h.Store(h.NewApp(fn, term.MakeNum(42)))
	})
	out, _, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	wantNum(t, out, 42)
}

func TestCurriedApplication(t *testing.T) {
	// (a: b: c: d: (a+b)+(c+d)) 1 2 3 4
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		la := h.ReserveLam()
		lb := h.ReserveLam()
		lc := h.ReserveLam()
		ld := h.ReserveLam()
		sum := h.NewOp2(term.OpAdd,
			h.NewOp2(term.OpAdd, la.Var(), lb.Var()),
			h.NewOp2(term.OpAdd, lc.Var(), ld.Var()))
		fn := la.Bind(lb.Bind(lc.Bind(ld.Bind(sum))))
		app := h.NewApp(h.NewApp(h.NewApp(h.NewApp(fn, term.MakeNum(1)), term.MakeNum(2)), term.MakeNum(3)), term.MakeNum(4))
		return h.Store(app)
	})
	out, _, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	wantNum(t, out, 10)
}

func TestUnusedArgumentNeverForced(t *testing.T) {
	// (x: 1) (1/0) reduces to 1 because the argument is never needed.
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		k := h.ReserveLam()
		fn := k.Bind(term.MakeNum(1))
		bomb := h.NewOp2(term.OpDiv, term.MakeNum(1), term.MakeNum(0))
		return h.Store(h.NewApp(fn, bomb))
	})
	out, _, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	wantNum(t, out, 1)
}

func TestSharedBindingComputedOnce(t *testing.T) {
	// let x = 2+3 in x+x+x: one computation feeds three uses through a
	// dup chain, and the shared cell ends up memoized in place.
	var exprCell term.Loc
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		x := h.NewOp2(term.OpAdd, term.MakeNum(2), term.MakeNum(3))
		d0, d1 := h.NewDupBlock(1, x)
		exprCell = d0.Loc() + 2
		d2, d3 := h.NewDupBlock(2, d1)
		sum := h.NewOp2(term.OpAdd, h.NewOp2(term.OpAdd, d0, d2), d3)
		return h.Store(sum)
	})
	out, m, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	wantNum(t, out, 15)
	memo := m.Heap().Get(exprCell)
	if memo.Tag != term.TagNum || memo.Num() != 5 {
		t.Errorf("shared cell = %v, want memoized num 5", memo)
	}
}

func TestMemoizedSecondForce(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		return h.Store(h.NewOp2(term.OpMul, term.MakeNum(6), term.MakeNum(7)))
	})
	out, m, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	wantNum(t, out, 42)
	before := m.Steps()
	out2, err := m.WHNF(p.Root)
	if err != nil {
		t.Fatalf("second whnf: %v", err)
	}
	wantNum(t, out2, 42)
	if m.Steps() != before {
		t.Errorf("second force took %d extra steps", m.Steps()-before)
	}
}

func TestApplySuperposedFunction(t *testing.T) {
	// ((x: x+1) | (x: x-1)) 10 reduces to a superposition of 11 and 9.
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		li := h.ReserveLam()
		inc := li.Bind(h.NewOp2(term.OpAdd, li.Var(), term.MakeNum(1)))
		ld := h.ReserveLam()
		dec := ld.Bind(h.NewOp2(term.OpSub, ld.Var(), term.MakeNum(1)))
		sup := h.NewSup(7, inc, dec)
		return h.Store(h.NewApp(sup, term.MakeNum(10)))
	})
	out, m, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	if out.Tag != term.TagSup || out.Ext != 7 {
		t.Fatalf("head = %v ext %d, want sup with label 7", out.Tag, out.Ext)
	}
	left, err := m.WHNF(out.Loc())
	if err != nil {
		t.Fatalf("left half: %v", err)
	}
	wantNum(t, left, 11)
	right, err := m.WHNF(out.Loc() + 1)
	if err != nil {
		t.Fatalf("right half: %v", err)
	}
	wantNum(t, right, 9)
}

func TestDupLambda(t *testing.T) {
	// Copying the identity function gives two independently applicable
	// functions.
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		id := h.ReserveLam()
		fn := id.Bind(id.Var())
		f0, f1 := h.NewDupBlock(3, fn)
		sum := h.NewOp2(term.OpAdd,
			h.NewApp(f0, term.MakeNum(10)),
			h.NewApp(f1, term.MakeNum(20)))
		return h.Store(sum)
	})
	out, _, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	wantNum(t, out, 30)
}

func TestDupSupSameLabelAnnihilates(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		s := h.NewSup(5, term.MakeNum(1), term.MakeNum(2))
		d0, d1 := h.NewDupBlock(5, s)
		return h.Store(h.NewOp2(term.OpAdd, d0, d1))
	})
	out, _, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	wantNum(t, out, 3)
}

func TestDupSupForeignLabelCommutes(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		s := h.NewSup(5, term.MakeNum(1), term.MakeNum(2))
		d0, _ := h.NewDupBlock(9, s)
		return h.Store(d0)
	})
	out, m, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	if out.Tag != term.TagSup || out.Ext != 5 {
		t.Fatalf("head = %v ext %d, want sup with the original label", out.Tag, out.Ext)
	}
	left, err := m.WHNF(out.Loc())
	if err != nil {
		t.Fatalf("left half: %v", err)
	}
	wantNum(t, left, 1)
	right, err := m.WHNF(out.Loc() + 1)
	if err != nil {
		t.Fatalf("right half: %v", err)
	}
	wantNum(t, right, 2)
}

func TestDupList(t *testing.T) {
	var rb term.Loc
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		xs := spine.BuildList(h, []term.Term{term.MakeNum(1), term.MakeNum(2)})
		d0, d1 := h.NewDupBlock(4, xs)
		rb = h.Store(d1)
		return h.Store(d0)
	})
	_, m, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	if got := decodeIntList(t, m, p.Root); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("first copy = %v, want [1 2]", got)
	}
	if got := decodeIntList(t, m, rb); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("second copy = %v, want [1 2]", got)
	}
}

func TestIntArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   term.OpKind
		a, b int32
		want int32
	}{
		{"add", term.OpAdd, 2, 3, 5},
		{"sub", term.OpSub, 2, 3, -1},
		{"mul", term.OpMul, -4, 3, -12},
		{"div truncates toward zero", term.OpDiv, 7, -2, -3},
		{"mod follows dividend", term.OpMod, 7, -2, 1},
		{"and", term.OpAnd, 6, 3, 2},
		{"or", term.OpOr, 6, 3, 7},
		{"xor", term.OpXor, 6, 3, 5},
		{"shl", term.OpShl, 1, 10, 1024},
		{"shr", term.OpShr, -8, 1, -4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildProg(t, nil, func(h *term.Heap) term.Loc {
				return h.Store(h.NewOp2(tt.op, term.MakeNum(tt.a), term.MakeNum(tt.b)))
			})
			out, _, err := runWHNF(t, p, reduce.Limits{})
			if err != nil {
				t.Fatalf("whnf: %v", err)
			}
			wantNum(t, out, tt.want)
		})
	}
}

func TestArithmeticFailures(t *testing.T) {
	tests := []struct {
		name  string
		build func(h *term.Heap) term.Loc
		code  reduce.Code
	}{
		{
			"division by zero",
			func(h *term.Heap) term.Loc {
				return h.Store(h.NewOp2(term.OpDiv, term.MakeNum(1), term.MakeNum(0)))
			},
			reduce.CodeDivZero,
		},
		{
			"modulo by zero",
			func(h *term.Heap) term.Loc {
				return h.Store(h.NewOp2(term.OpMod, term.MakeNum(1), term.MakeNum(0)))
			},
			reduce.CodeDivZero,
		},
		{
			"addition overflow",
			func(h *term.Heap) term.Loc {
				return h.Store(h.NewOp2(term.OpAdd, term.MakeNum(math.MaxInt32), term.MakeNum(1)))
			},
			reduce.CodeOverflow,
		},
		{
			"subtraction overflow",
			func(h *term.Heap) term.Loc {
				return h.Store(h.NewOp2(term.OpSub, term.MakeNum(math.MinInt32), term.MakeNum(1)))
			},
			reduce.CodeOverflow,
		},
		{
			"multiplication overflow",
			func(h *term.Heap) term.Loc {
				return h.Store(h.NewOp2(term.OpMul, term.MakeNum(math.MaxInt32), term.MakeNum(2)))
			},
			reduce.CodeOverflow,
		},
		{
			"big operand",
			func(h *term.Heap) term.Loc {
				big := codec.EncodeInt(h, 1<<40)
				return h.Store(h.NewOp2(term.OpAdd, big, term.MakeNum(1)))
			},
			reduce.CodeBigArith,
		},
		{
			"boolean operand",
			func(h *term.Heap) term.Loc {
				return h.Store(h.NewOp2(term.OpAdd, term.MakeBool(true), term.MakeNum(1)))
			},
			reduce.CodeTypeMismatch,
		},
		{
			"string plus integer",
			func(h *term.Heap) term.Loc {
				return h.Store(h.NewOp2(term.OpAdd, spine.BuildString(h, "a"), term.MakeNum(1)))
			},
			reduce.CodeTypeMismatch,
		},
		{
			"function operand",
			func(h *term.Heap) term.Loc {
				id := h.ReserveLam()
				return h.Store(h.NewOp2(term.OpAdd, id.Bind(id.Var()), term.MakeNum(1)))
			},
			reduce.CodeTypeMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildProg(t, nil, tt.build)
			_, _, err := runWHNF(t, p, reduce.Limits{})
			wantCode(t, err, tt.code)
		})
	}
}

func TestFloatArithmetic(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		return h.Store(h.NewOp2(term.OpAdd, term.MakeNum(1), codec.EncodeFloat(h, 2.5)))
	})
	out, m, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	f, ok := codec.DecodeFloat(m.Heap(), out)
	if !ok {
		t.Fatalf("result does not decode as float: %v", out)
	}
	if f != 3.5 {
		t.Errorf("1 + 2.5 = %v, want 3.5", f)
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		name  string
		build func(h *term.Heap) (term.Term, term.Term)
		op    term.OpKind
		want  bool
	}{
		{
			"int lt",
			func(h *term.Heap) (term.Term, term.Term) { return term.MakeNum(1), term.MakeNum(2) },
			term.OpLt, true,
		},
		{
			"int le equal",
			func(h *term.Heap) (term.Term, term.Term) { return term.MakeNum(2), term.MakeNum(2) },
			term.OpLe, true,
		},
		{
			"int gt false",
			func(h *term.Heap) (term.Term, term.Term) { return term.MakeNum(3), term.MakeNum(4) },
			term.OpGt, false,
		},
		{
			"big magnitudes",
			func(h *term.Heap) (term.Term, term.Term) {
				return codec.EncodeInt(h, 1<<40), codec.EncodeInt(h, 1<<41)
			},
			term.OpLt, true,
		},
		{
			"negative big against small",
			func(h *term.Heap) (term.Term, term.Term) {
				return codec.EncodeInt(h, -(1 << 40)), term.MakeNum(0)
			},
			term.OpLt, true,
		},
		{
			"int against float",
			func(h *term.Heap) (term.Term, term.Term) {
				return term.MakeNum(1), codec.EncodeFloat(h, 1.5)
			},
			term.OpLt, true,
		},
		{
			"nan is unordered",
			func(h *term.Heap) (term.Term, term.Term) {
				return codec.EncodeFloat(h, math.NaN()), term.MakeNum(1)
			},
			term.OpLt, false,
		},
		{
			"strings lexicographic",
			func(h *term.Heap) (term.Term, term.Term) {
				return spine.BuildString(h, "abc"), spine.BuildString(h, "abd")
			},
			term.OpLt, true,
		},
		{
			"string ge",
			func(h *term.Heap) (term.Term, term.Term) {
				return spine.BuildString(h, "b"), spine.BuildString(h, "ab")
			},
			term.OpGe, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildProg(t, nil, func(h *term.Heap) term.Loc {
				a, b := tt.build(h)
				return h.Store(h.NewOp2(tt.op, a, b))
			})
			out, _, err := runWHNF(t, p, reduce.Limits{})
			if err != nil {
				t.Fatalf("whnf: %v", err)
			}
			wantBool(t, out, tt.want)
		})
	}
}

func TestIncomparableOperands(t *testing.T) {
	tests := []struct {
		name  string
		build func(h *term.Heap) (term.Term, term.Term)
	}{
		{
			"booleans have no order",
			func(h *term.Heap) (term.Term, term.Term) { return term.MakeBool(true), term.MakeBool(false) },
		},
		{
			"lists have no order here",
			func(h *term.Heap) (term.Term, term.Term) {
				return spine.BuildList(h, []term.Term{term.MakeNum(1)}),
					spine.BuildList(h, []term.Term{term.MakeNum(2)})
			},
		},
		{
			"int against string",
			func(h *term.Heap) (term.Term, term.Term) { return term.MakeNum(1), spine.BuildString(h, "a") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildProg(t, nil, func(h *term.Heap) term.Loc {
				a, b := tt.build(h)
				return h.Store(h.NewOp2(term.OpLt, a, b))
			})
			_, _, err := runWHNF(t, p, reduce.Limits{})
			wantCode(t, err, reduce.CodeIncomparable)
		})
	}
}

func TestDeepEquality(t *testing.T) {
	names := []string{"", "a", "b"}
	tests := []struct {
		name  string
		build func(h *term.Heap) (term.Term, term.Term)
		want  bool
	}{
		{
			"equal ints",
			func(h *term.Heap) (term.Term, term.Term) { return term.MakeNum(5), term.MakeNum(5) },
			true,
		},
		{
			"unequal ints",
			func(h *term.Heap) (term.Term, term.Term) { return term.MakeNum(5), term.MakeNum(6) },
			false,
		},
		{
			"int equals float",
			func(h *term.Heap) (term.Term, term.Term) {
				return term.MakeNum(1), codec.EncodeFloat(h, 1.0)
			},
			true,
		},
		{
			"int is not boolean",
			func(h *term.Heap) (term.Term, term.Term) { return term.MakeNum(1), term.MakeBool(true) },
			false,
		},
		{
			"nulls",
			func(h *term.Heap) (term.Term, term.Term) { return term.MakeNull(), term.MakeNull() },
			true,
		},
		{
			"equal strings",
			func(h *term.Heap) (term.Term, term.Term) {
				return spine.BuildString(h, "ab"), spine.BuildString(h, "ab")
			},
			true,
		},
		{
			"unequal strings",
			func(h *term.Heap) (term.Term, term.Term) {
				return spine.BuildString(h, "ab"), spine.BuildString(h, "ac")
			},
			false,
		},
		{
			"nested lists",
			func(h *term.Heap) (term.Term, term.Term) {
				inner1 := spine.BuildList(h, []term.Term{term.MakeNum(2)})
				inner2 := spine.BuildList(h, []term.Term{term.MakeNum(2)})
				return spine.BuildList(h, []term.Term{term.MakeNum(1), inner1}),
					spine.BuildList(h, []term.Term{term.MakeNum(1), inner2})
			},
			true,
		},
		{
			"different lengths",
			func(h *term.Heap) (term.Term, term.Term) {
				return spine.BuildList(h, []term.Term{term.MakeNum(1)}),
					spine.BuildList(h, []term.Term{term.MakeNum(1), term.MakeNum(2)})
			},
			false,
		},
		{
			"attrs ignore order",
			func(h *term.Heap) (term.Term, term.Term) {
				x := spine.BuildAttrs(h, []spine.Bind{
					{Aux: 1, Value: term.MakeNum(1)},
					{Aux: 2, Value: term.MakeNum(2)},
				})
				y := spine.BuildAttrs(h, []spine.Bind{
					{Aux: 2, Value: term.MakeNum(2)},
					{Aux: 1, Value: term.MakeNum(1)},
				})
				return x, y
			},
			true,
		},
		{
			"attrs differ by value",
			func(h *term.Heap) (term.Term, term.Term) {
				x := spine.BuildAttrs(h, []spine.Bind{{Aux: 1, Value: term.MakeNum(1)}})
				y := spine.BuildAttrs(h, []spine.Bind{{Aux: 1, Value: term.MakeNum(2)}})
				return x, y
			},
			false,
		},
		{
			"big integers",
			func(h *term.Heap) (term.Term, term.Term) {
				return codec.EncodeInt(h, 1<<40), codec.EncodeInt(h, 1<<40)
			},
			true,
		},
		{
			"nan differs from itself",
			func(h *term.Heap) (term.Term, term.Term) {
				return codec.EncodeFloat(h, math.NaN()), codec.EncodeFloat(h, math.NaN())
			},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildProg(t, names, func(h *term.Heap) term.Loc {
				a, b := tt.build(h)
				return h.Store(h.NewOp2(term.OpEq, a, b))
			})
			out, _, err := runWHNF(t, p, reduce.Limits{})
			if err != nil {
				t.Fatalf("whnf: %v", err)
			}
			wantBool(t, out, tt.want)

			ne := buildProg(t, names, func(h *term.Heap) term.Loc {
				a, b := tt.build(h)
				return h.Store(h.NewOp2(term.OpNe, a, b))
			})
			out, _, err = runWHNF(t, ne, reduce.Limits{})
			if err != nil {
				t.Fatalf("whnf negated: %v", err)
			}
			wantBool(t, out, !tt.want)
		})
	}
}

func TestFunctionsDoNotCompare(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		f := h.ReserveLam()
		g := h.ReserveLam()
		return h.Store(h.NewOp2(term.OpEq, f.Bind(f.Var()), g.Bind(g.Var())))
	})
	_, _, err := runWHNF(t, p, reduce.Limits{})
	wantCode(t, err, reduce.CodeIncomparable)
}

func TestIfDispatch(t *testing.T) {
	t.Run("true takes then", func(t *testing.T) {
		p := buildProg(t, nil, func(h *term.Heap) term.Loc {
			return h.Store(h.NewMat(term.MatIf, 0, term.MakeBool(true), term.MakeNum(1), term.MakeNum(2)))
		})
		out, _, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		wantNum(t, out, 1)
	})
	t.Run("false takes else", func(t *testing.T) {
		p := buildProg(t, nil, func(h *term.Heap) term.Loc {
			return h.Store(h.NewMat(term.MatIf, 0, term.MakeBool(false), term.MakeNum(1), term.MakeNum(2)))
		})
		out, _, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		wantNum(t, out, 2)
	})
	t.Run("untaken branch stays lazy", func(t *testing.T) {
		p := buildProg(t, nil, func(h *term.Heap) term.Loc {
			bomb := h.NewOp2(term.OpDiv, term.MakeNum(1), term.MakeNum(0))
			return h.Store(h.NewMat(term.MatIf, 0, term.MakeBool(true), term.MakeNum(1), bomb))
		})
		out, _, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		wantNum(t, out, 1)
	})
	t.Run("non-boolean condition", func(t *testing.T) {
		p := buildProg(t, nil, func(h *term.Heap) term.Loc {
			return h.Store(h.NewMat(term.MatIf, 0, term.MakeNum(5), term.MakeNum(1), term.MakeNum(2)))
		})
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeNotBoolean)
	})
}

func TestAttrSelect(t *testing.T) {
	names := []string{"", "x", "y"}
	attrs := func(h *term.Heap) term.Term {
		return spine.BuildAttrs(h, []spine.Bind{{Aux: 1, Value: term.MakeNum(7)}})
	}
	t.Run("present", func(t *testing.T) {
		p := buildProg(t, names, func(h *term.Heap) term.Loc {
			return h.Store(h.NewMat(term.MatSel, 1, attrs(h)))
		})
		out, _, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		wantNum(t, out, 7)
	})
	t.Run("missing", func(t *testing.T) {
		p := buildProg(t, names, func(h *term.Heap) term.Loc {
			return h.Store(h.NewMat(term.MatSel, 2, attrs(h)))
		})
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeMissingAttr)
	})
	t.Run("not a set", func(t *testing.T) {
		p := buildProg(t, names, func(h *term.Heap) term.Loc {
			return h.Store(h.NewMat(term.MatSel, 1, term.MakeNum(3)))
		})
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeTypeMismatch)
	})
	t.Run("default on miss", func(t *testing.T) {
		p := buildProg(t, names, func(h *term.Heap) term.Loc {
			return h.Store(h.NewMat(term.MatSelOr, 2, attrs(h), term.MakeNum(9)))
		})
		out, _, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		wantNum(t, out, 9)
	})
	t.Run("default on non-set", func(t *testing.T) {
		p := buildProg(t, names, func(h *term.Heap) term.Loc {
			return h.Store(h.NewMat(term.MatSelOr, 1, term.MakeNum(3), term.MakeNum(9)))
		})
		out, _, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		wantNum(t, out, 9)
	})
	t.Run("default unused when present", func(t *testing.T) {
		p := buildProg(t, names, func(h *term.Heap) term.Loc {
			bomb := h.NewOp2(term.OpDiv, term.MakeNum(1), term.MakeNum(0))
			return h.Store(h.NewMat(term.MatSelOr, 1, attrs(h), bomb))
		})
		out, _, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		wantNum(t, out, 7)
	})
}

func TestHasAttr(t *testing.T) {
	names := []string{"", "x", "y"}
	tests := []struct {
		name string
		aux  uint32
		set  func(h *term.Heap) term.Term
		want bool
	}{
		{
			"present", 1,
			func(h *term.Heap) term.Term {
				return spine.BuildAttrs(h, []spine.Bind{{Aux: 1, Value: term.MakeNum(1)}})
			},
			true,
		},
		{
			"absent", 2,
			func(h *term.Heap) term.Term {
				return spine.BuildAttrs(h, []spine.Bind{{Aux: 1, Value: term.MakeNum(1)}})
			},
			false,
		},
		{
			"non-set is never a hit", 1,
			func(h *term.Heap) term.Term { return term.MakeNum(3) },
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildProg(t, names, func(h *term.Heap) term.Loc {
				return h.Store(h.NewMat(term.MatHas, tt.aux, tt.set(h)))
			})
			out, _, err := runWHNF(t, p, reduce.Limits{})
			if err != nil {
				t.Fatalf("whnf: %v", err)
			}
			wantBool(t, out, tt.want)
		})
	}
}

func TestWithScope(t *testing.T) {
	names := []string{"", "x", "y", "z"}
	t.Run("two lookups resolve and add", func(t *testing.T) {
		// with {x=1; y=2;}; x+y
		p := buildProg(t, names, func(h *term.Heap) term.Loc {
			scope := spine.BuildAttrs(h, []spine.Bind{
				{Aux: 1, Value: term.MakeNum(1)},
				{Aux: 2, Value: term.MakeNum(2)},
			})
			s0, s1 := h.NewDupBlock(1, scope)
			sum := h.NewOp2(term.OpAdd,
				h.NewMat(term.MatWith, 1, s0),
				h.NewMat(term.MatWith, 2, s1))
			return h.Store(sum)
		})
		out, _, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		wantNum(t, out, 3)
	})
	t.Run("unbound name", func(t *testing.T) {
		p := buildProg(t, names, func(h *term.Heap) term.Loc {
			scope := spine.BuildAttrs(h, []spine.Bind{{Aux: 1, Value: term.MakeNum(1)}})
			return h.Store(h.NewMat(term.MatWith, 3, scope))
		})
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeWithUnbound)
	})
	t.Run("scope must be a set", func(t *testing.T) {
		p := buildProg(t, names, func(h *term.Heap) term.Loc {
			return h.Store(h.NewMat(term.MatWith, 1, term.MakeNum(5)))
		})
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeTypeMismatch)
	})
}

func TestPatternCheck(t *testing.T) {
	names := []string{"", "a", "b", "c"}
	prog := func(t *testing.T, build func(h *term.Heap) term.Loc) *compile.Program {
		t.Helper()
		p := buildProg(t, names, build)
		p.Patterns = [][]uint32{{1, 2}}
		p.Required = [][]uint32{{1}}
		p.Open = []bool{false}
		return p
	}
	t.Run("subset passes", func(t *testing.T) {
		p := prog(t, func(h *term.Heap) term.Loc {
			set := spine.BuildAttrs(h, []spine.Bind{{Aux: 1, Value: term.MakeNum(1)}})
			return h.Store(h.NewMat(term.MatChk, 0, set, term.MakeNum(42)))
		})
		out, _, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		wantNum(t, out, 42)
	})
	t.Run("unexpected attribute", func(t *testing.T) {
		p := prog(t, func(h *term.Heap) term.Loc {
			set := spine.BuildAttrs(h, []spine.Bind{
				{Aux: 1, Value: term.MakeNum(1)},
				{Aux: 3, Value: term.MakeNum(3)},
			})
			return h.Store(h.NewMat(term.MatChk, 0, set, term.MakeNum(42)))
		})
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeUnexpectedArg)
	})
	t.Run("missing required attribute", func(t *testing.T) {
		p := prog(t, func(h *term.Heap) term.Loc {
			set := spine.BuildAttrs(h, []spine.Bind{{Aux: 2, Value: term.MakeNum(2)}})
			return h.Store(h.NewMat(term.MatChk, 0, set, term.MakeNum(42)))
		})
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeMissingAttr)
	})
	t.Run("argument must be a set", func(t *testing.T) {
		p := prog(t, func(h *term.Heap) term.Loc {
			return h.Store(h.NewMat(term.MatChk, 0, term.MakeNum(7), term.MakeNum(42)))
		})
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeTypeMismatch)
	})
	t.Run("ellipsis admits extras", func(t *testing.T) {
		p := prog(t, func(h *term.Heap) term.Loc {
			set := spine.BuildAttrs(h, []spine.Bind{
				{Aux: 1, Value: term.MakeNum(1)},
				{Aux: 3, Value: term.MakeNum(3)},
			})
			return h.Store(h.NewMat(term.MatChk, 0, set, term.MakeNum(42)))
		})
		p.Open = []bool{true}
		out, _, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		wantNum(t, out, 42)
	})
	t.Run("ellipsis still wants required names", func(t *testing.T) {
		p := prog(t, func(h *term.Heap) term.Loc {
			set := spine.BuildAttrs(h, []spine.Bind{{Aux: 3, Value: term.MakeNum(3)}})
			return h.Store(h.NewMat(term.MatChk, 0, set, term.MakeNum(42)))
		})
		p.Open = []bool{true}
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeMissingAttr)
	})
}

func TestRecursiveKnot(t *testing.T) {
	// rec { a = b + 1; b = 10; }.a
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		kb := h.ReserveKnot()
		ka := h.ReserveKnot()
		kb.Tie(term.MakeNum(10))
		ka.Tie(h.NewOp2(term.OpAdd, kb.Ref(), term.MakeNum(1)))
		return h.Store(ka.Ref())
	})
	out, _, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	wantNum(t, out, 11)
}

func TestRecursiveFunction(t *testing.T) {
	// sum = n: if n < 1 then 0 else n + sum (n - 1); sum 4
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		k := h.ReserveKnot()
		l := h.ReserveLam()
		d0, d1 := h.NewDupBlock(1, l.Var())
		d2, d3 := h.NewDupBlock(2, d1)
		cond := h.NewOp2(term.OpLt, d0, term.MakeNum(1))
		rec := h.NewApp(k.Ref(), h.NewOp2(term.OpSub, d2, term.MakeNum(1)))
		body := h.NewMat(term.MatIf, 0, cond, term.MakeNum(0), h.NewOp2(term.OpAdd, d3, rec))
		k.Tie(l.Bind(body))
		return h.Store(h.NewApp(k.Ref(), term.MakeNum(4)))
	})
	out, _, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	wantNum(t, out, 10)
}

func TestSelfReferenceHitsStepBudget(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		k := h.ReserveKnot()
		k.Tie(k.Ref())
		return h.Store(k.Ref())
	})
	_, _, err := runWHNF(t, p, reduce.Limits{MaxSteps: 50})
	wantCode(t, err, reduce.CodeStepBudget)
}

func TestKnotCopyBudget(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		k := h.ReserveKnot()
		elems := make([]term.Term, 100)
		for i := range elems {
			elems[i] = term.MakeNum(int32(i))
		}
		k.Tie(spine.BuildList(h, elems))
		return h.Store(k.Ref())
	})
	_, _, err := runWHNF(t, p, reduce.Limits{MaxNodes: 16})
	wantCode(t, err, reduce.CodeCopyBudget)
}

func TestOmegaHitsStepBudget(t *testing.T) {
	// (x: x x) (x: x x)
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		l := h.ReserveLam()
		d0, d1 := h.NewDupBlock(7, l.Var())
		omega := l.Bind(h.NewApp(d0, d1))
		o0, o1 := h.NewDupBlock(8, omega)
		return h.Store(h.NewApp(o0, o1))
	})
	_, _, err := runWHNF(t, p, reduce.Limits{MaxSteps: 1000})
	wantCode(t, err, reduce.CodeStepBudget)
}

func TestDepthLimit(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		acc := term.MakeNum(1)
		for i := 0; i < 500; i++ {
			acc = h.NewOp2(term.OpAdd, acc, term.MakeNum(0))
		}
		return h.Store(acc)
	})
	_, _, err := runWHNF(t, p, reduce.Limits{MaxDepth: 100})
	wantCode(t, err, reduce.CodeDepthLimit)
}

func TestArenaLimit(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		k := h.ReserveKnot()
		k.Tie(h.NewOp2(term.OpAdd, k.Ref(), term.MakeNum(1)))
		return h.Store(k.Ref())
	})
	_, _, err := runWHNF(t, p, reduce.Limits{MaxTerms: 256, MaxSteps: 1 << 20})
	wantCode(t, err, reduce.CodeArenaFull)
}

func TestStringConcat(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		return h.Store(h.NewOp2(term.OpAdd, spine.BuildString(h, "foo"), spine.BuildString(h, "bar")))
	})
	out, m, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	s, ok := spine.DecodeString(m.Heap(), out)
	if !ok {
		t.Fatalf("result does not decode as string: %v", out)
	}
	if s != "foobar" {
		t.Errorf("concat = %q, want %q", s, "foobar")
	}
	if n, ok := spine.StrLen(m.Heap(), out); !ok || n != 6 {
		t.Errorf("length = %d/%v, want 6", n, ok)
	}
}

func TestListConcat(t *testing.T) {
	// [1 2 3] ++ [4 5]
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		a := spine.BuildList(h, []term.Term{term.MakeNum(1), term.MakeNum(2), term.MakeNum(3)})
		b := spine.BuildList(h, []term.Term{term.MakeNum(4), term.MakeNum(5)})
		return h.Store(h.NewOp2(term.OpCat, a, b))
	})
	out, m, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	if out.Tag != term.TagCtr || out.CtrKind() != term.CtList {
		t.Fatalf("head = %v, want list", out)
	}
	got := decodeIntList(t, m, p.Root)
	want := []int64{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("concat = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("concat = %v, want %v", got, want)
		}
	}
}

func TestListConcatKeepsElementsLazy(t *testing.T) {
	var bombCell term.Loc
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		bomb := h.NewOp2(term.OpDiv, term.MakeNum(1), term.MakeNum(0))
		a := spine.BuildList(h, []term.Term{term.MakeNum(1)})
		b := spine.BuildList(h, []term.Term{bomb, term.MakeNum(5)})
		out := h.Store(h.NewOp2(term.OpCat, a, b))
		bombCell = b.Loc() + 1 // first cons cell of the right spine
		return out
	})
	out, m, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("splice must not force elements: %v", err)
	}
	if _, err := m.WHNF(out.Loc()); err != nil {
		t.Fatalf("whnf length: %v", err)
	}
	if n, ok := spine.ListLen(m.Heap(), out); !ok || n != 3 {
		t.Fatalf("length = %d/%v, want 3", n, ok)
	}
	cons, err := m.WHNF(bombCell)
	if err != nil {
		t.Fatalf("whnf right spine: %v", err)
	}
	_, err = m.WHNF(cons.Loc())
	wantCode(t, err, reduce.CodeDivZero)
}

func TestEmptyListConcat(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		a := spine.EmptyList(h)
		b := spine.BuildList(h, []term.Term{term.MakeNum(1)})
		return h.Store(h.NewOp2(term.OpCat, a, b))
	})
	_, m, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	if got := decodeIntList(t, m, p.Root); len(got) != 1 || got[0] != 1 {
		t.Errorf("concat = %v, want [1]", got)
	}
}

func TestAttrUpdate(t *testing.T) {
	names := []string{"", "a", "b", "c"}
	build := func(h *term.Heap) term.Term {
		l := spine.BuildAttrs(h, []spine.Bind{
			{Aux: 1, Value: term.MakeNum(1)},
			{Aux: 2, Value: term.MakeNum(2)},
		})
		r := spine.BuildAttrs(h, []spine.Bind{
			{Aux: 2, Value: term.MakeNum(3)},
			{Aux: 3, Value: term.MakeNum(4)},
		})
		return h.NewOp2(term.OpUpd, l, r)
	}
	t.Run("right side wins", func(t *testing.T) {
		p := buildProg(t, names, func(h *term.Heap) term.Loc {
			return h.Store(h.NewMat(term.MatSel, 2, build(h)))
		})
		out, _, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		wantNum(t, out, 3)
	})
	t.Run("left side survives", func(t *testing.T) {
		p := buildProg(t, names, func(h *term.Heap) term.Loc {
			return h.Store(h.NewMat(term.MatSel, 1, build(h)))
		})
		out, _, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		wantNum(t, out, 1)
	})
	t.Run("merged name set", func(t *testing.T) {
		p := buildProg(t, names, func(h *term.Heap) term.Loc {
			return h.Store(build(h))
		})
		out, m, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		got, ok := spine.AttrNames(m.Heap(), m.Heap().Get(out.Loc()))
		if !ok {
			t.Fatal("merged spine not fully reduced")
		}
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		want := []uint32{1, 2, 3}
		if len(got) != len(want) {
			t.Fatalf("names = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("names = %v, want %v", got, want)
			}
		}
	})
	t.Run("operands must be sets", func(t *testing.T) {
		p := buildProg(t, names, func(h *term.Heap) term.Loc {
			r := spine.EmptyAttrs(h)
			return h.Store(h.NewOp2(term.OpUpd, term.MakeNum(1), r))
		})
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeTypeMismatch)
	})
}

func TestBigIntegerLiteral(t *testing.T) {
	for _, v := range []int64{1 << 40, -(1 << 40), math.MaxInt64, math.MinInt64} {
		p := buildProg(t, nil, func(h *term.Heap) term.Loc {
			return h.Store(codec.EncodeInt(h, v))
		})
		out, m, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf %d: %v", v, err)
		}
		got, ok := codec.DecodeInt(m.Heap(), out)
		if !ok {
			t.Fatalf("value %d does not decode: %v", v, out)
		}
		if got != v {
			t.Errorf("decode = %d, want %d", got, v)
		}
	}
}

func TestAssertFailurePoison(t *testing.T) {
	fail := func(h *term.Heap) term.Term {
		return h.NewMat(term.MatIf, 0, term.MakeBool(false), term.MakeNum(1), h.NewCtr(term.CtFail, 0))
	}
	t.Run("surfaces at arithmetic", func(t *testing.T) {
		p := buildProg(t, nil, func(h *term.Heap) term.Loc {
			return h.Store(h.NewOp2(term.OpAdd, fail(h), term.MakeNum(1)))
		})
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeAssertFailed)
	})
	t.Run("surfaces at application", func(t *testing.T) {
		p := buildProg(t, nil, func(h *term.Heap) term.Loc {
			return h.Store(h.NewApp(fail(h), term.MakeNum(1)))
		})
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeAssertFailed)
	})
	t.Run("surfaces at dispatch", func(t *testing.T) {
		p := buildProg(t, nil, func(h *term.Heap) term.Loc {
			return h.Store(h.NewMat(term.MatIf, 0, fail(h), term.MakeNum(1), term.MakeNum(2)))
		})
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeAssertFailed)
	})
	t.Run("surfaces at equality", func(t *testing.T) {
		p := buildProg(t, nil, func(h *term.Heap) term.Loc {
			return h.Store(h.NewOp2(term.OpEq, fail(h), term.MakeNum(1)))
		})
		_, _, err := runWHNF(t, p, reduce.Limits{})
		wantCode(t, err, reduce.CodeAssertFailed)
	})
	t.Run("passing through is not an error", func(t *testing.T) {
		p := buildProg(t, nil, func(h *term.Heap) term.Loc {
			return h.Store(fail(h))
		})
		out, _, err := runWHNF(t, p, reduce.Limits{})
		if err != nil {
			t.Fatalf("whnf: %v", err)
		}
		if out.Tag != term.TagCtr || out.CtrKind() != term.CtFail {
			t.Fatalf("head = %v, want the failure marker", out)
		}
	})
}

func TestStepsAccumulate(t *testing.T) {
	p := buildProg(t, nil, func(h *term.Heap) term.Loc {
		return h.Store(h.NewOp2(term.OpAdd, term.MakeNum(1), h.NewOp2(term.OpAdd, term.MakeNum(2), term.MakeNum(3))))
	})
	_, m, err := runWHNF(t, p, reduce.Limits{})
	if err != nil {
		t.Fatalf("whnf: %v", err)
	}
	if m.Steps() == 0 {
		t.Error("steps did not accumulate")
	}
	m.Load(p)
	if m.Steps() != 0 {
		t.Error("load did not reset steps")
	}
}
