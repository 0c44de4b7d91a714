// Package reduce implements the graph reduction machine: a work-stack
// interpreter that rewrites term graphs to weak head normal form under
// explicit step, depth, and allocation limits.
//
// Reduction is destructive. The machine loads a frozen program image into
// its own arena and overwrites cells in place as redexes fire; the program
// itself is never touched. Anything the caller does not force is never
// visited.
package reduce

import (
	"skein/internal/compile"
	"skein/internal/term"
	"skein/internal/trace"
)

// Limits bound one evaluation. Zero fields take the defaults.
type Limits struct {
	MaxTerms uint32 // arena cells
	MaxSteps uint64 // rewrites per evaluation
	MaxDepth int    // work stack frames
	MaxNodes uint64 // cells one knot expansion may copy
}

// Default limits. Sized so ordinary expressions never meet them while
// divergent ones fail in well under a second.
const (
	DefaultMaxTerms = 1 << 24
	DefaultMaxSteps = 4_000_000
	DefaultMaxDepth = 100_000
	DefaultMaxNodes = 1 << 20
)

// WithDefaults fills zero fields with the default limits.
func (l Limits) WithDefaults() Limits {
	if l.MaxTerms == 0 {
		l.MaxTerms = DefaultMaxTerms
	}
	if l.MaxSteps == 0 {
		l.MaxSteps = DefaultMaxSteps
	}
	if l.MaxDepth == 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxNodes == 0 {
		l.MaxNodes = DefaultMaxNodes
	}
	return l
}

// Machine reduces one program at a time. It is single-threaded; run
// several machines for parallel evaluation, never one machine from
// several goroutines.
type Machine struct {
	heap   *term.Heap
	prog   *compile.Program
	limits Limits
	steps  uint64
	tracer trace.Tracer
	span   uint64 // parent span for rule events
	eb     *errorBuilder
}

// NewMachine creates a machine with the given limits and tracer.
func NewMachine(limits Limits, tracer trace.Tracer) *Machine {
	if tracer == nil {
		tracer = trace.Nop
	}
	limits = limits.WithDefaults()
	m := &Machine{
		heap:   term.NewHeap(1024, limits.MaxTerms),
		limits: limits,
		tracer: tracer,
	}
	m.eb = &errorBuilder{m: m}
	return m
}

// Load instantiates a program for one run: the arena is reset and the
// frozen code image copied in. Outstanding value handles from the previous
// run become stale.
func (m *Machine) Load(prog *compile.Program) {
	m.prog = prog
	m.steps = 0
	m.heap.Load(prog.Code)
}

// Heap exposes the arena for extraction and invariant checks.
func (m *Machine) Heap() *term.Heap {
	return m.heap
}

// Program returns the loaded program.
func (m *Machine) Program() *compile.Program {
	return m.prog
}

// Steps returns the rewrites fired since Load.
func (m *Machine) Steps() uint64 {
	return m.steps
}

// SetParentSpan attaches rule trace events to an enclosing span.
func (m *Machine) SetParentSpan(id uint64) {
	m.span = id
}

// Run reduces the loaded program's root to weak head normal form.
func (m *Machine) Run() (term.Term, error) {
	return m.WHNF(m.prog.Root)
}

// WHNF reduces the cell at loc to weak head normal form in place and
// returns the head term. On failure the cell contents are unspecified but
// the heap stays structurally intact.
func (m *Machine) WHNF(loc term.Loc) (out term.Term, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch p := r.(type) {
		case *term.HeapOverflowError:
			out, err = term.Term{}, m.eb.arenaFull(p.Limit)
		case *term.CorruptGraphError:
			out, err = term.Term{}, m.eb.corrupt(p.Error())
		default:
			panic(r)
		}
	}()
	if rerr := m.whnf(loc); rerr != nil {
		return term.Term{}, rerr
	}
	return m.heap.Get(loc), nil
}

// whnf is the driver loop. The stack holds cells whose head is still
// needed; the top is inspected, and each visit either pops a finished
// cell, pushes a child that must reduce first, or fires one rewrite on
// the top cell. Rewrites always overwrite the visited cell, so revisiting
// re-dispatches on the rewritten head.
func (m *Machine) whnf(root term.Loc) *Error {
	stack := make([]term.Loc, 0, 64)
	stack = append(stack, root)

	push := func(loc term.Loc) *Error {
		if len(stack) >= m.limits.MaxDepth {
			return m.eb.depthLimit(m.limits.MaxDepth)
		}
		stack = append(stack, loc)
		return nil
	}

	for len(stack) > 0 {
		loc := stack[len(stack)-1]
		t := m.heap.Get(loc)

		switch t.Tag {
		case term.TagNum, term.TagCtr, term.TagLam, term.TagSup:
			stack = stack[:len(stack)-1]

		case term.TagVar:
			slot := t.Loc()
			s := m.heap.Get(slot)
			if s.Tag == term.TagEra {
				return m.eb.unboundSlot(slot)
			}
			if !s.IsWeakHead() {
				if err := push(slot); err != nil {
					return err
				}
				continue
			}
			// The slot now holds a memoized head; the single use
			// takes it over.
			m.heap.Set(loc, s)
			if err := m.count("var"); err != nil {
				return err
			}

		case term.TagRef:
			if err := m.ruleRef(loc, t); err != nil {
				return err
			}

		case term.TagApp:
			fnLoc := t.Loc()
			fn := m.heap.Get(fnLoc)
			if !fn.IsWeakHead() {
				if err := push(fnLoc); err != nil {
					return err
				}
				continue
			}
			switch {
			case fn.Tag == term.TagLam:
				if err := m.ruleAppLam(loc, t, fn); err != nil {
					return err
				}
			case fn.Tag == term.TagSup:
				if err := m.ruleAppSup(loc, t, fn); err != nil {
					return err
				}
			case isFail(fn):
				return m.eb.assertFailed()
			default:
				return m.eb.notFunction(describe(fn))
			}

		case term.TagDup0, term.TagDup1:
			block := t.Loc()
			side := term.Loc(0)
			if t.Tag == term.TagDup1 {
				side = 1
			}
			out := m.heap.Get(block + side)
			if out.Tag != term.TagEra {
				// Block already split; take this side's half.
				m.heap.Set(loc, out)
				continue
			}
			exprLoc := block + 2
			e := m.heap.Get(exprLoc)
			if !e.IsWeakHead() {
				if err := push(exprLoc); err != nil {
					return err
				}
				continue
			}
			if err := m.ruleDup(loc, t, e); err != nil {
				return err
			}

		case term.TagOp2:
			lhsLoc, rhsLoc := t.Loc(), t.Loc()+1
			lhs := m.heap.Get(lhsLoc)
			if !lhs.IsWeakHead() {
				if err := push(lhsLoc); err != nil {
					return err
				}
				continue
			}
			rhs := m.heap.Get(rhsLoc)
			if !rhs.IsWeakHead() {
				if err := push(rhsLoc); err != nil {
					return err
				}
				continue
			}
			if lhs.Tag == term.TagSup {
				if err := m.ruleOp2Sup(loc, t, lhs, rhs, true); err != nil {
					return err
				}
				continue
			}
			if rhs.Tag == term.TagSup {
				if err := m.ruleOp2Sup(loc, t, lhs, rhs, false); err != nil {
					return err
				}
				continue
			}
			if isFail(lhs) || isFail(rhs) {
				return m.eb.assertFailed()
			}
			if p := m.op2Pending(t, lhs, rhs); p != term.NoLoc {
				if err := push(p); err != nil {
					return err
				}
				continue
			}
			if err := m.ruleOp2(loc, t, lhs, rhs); err != nil {
				return err
			}

		case term.TagMat:
			scrutLoc := t.Loc()
			scrut := m.heap.Get(scrutLoc)
			if !scrut.IsWeakHead() {
				if err := push(scrutLoc); err != nil {
					return err
				}
				continue
			}
			if scrut.Tag == term.TagSup {
				if err := m.ruleMatSup(loc, t, scrut); err != nil {
					return err
				}
				continue
			}
			if isFail(scrut) {
				return m.eb.assertFailed()
			}
			pending, err := m.ruleMat(loc, t, scrut)
			if err != nil {
				return err
			}
			if pending != term.NoLoc {
				if perr := push(pending); perr != nil {
					return perr
				}
			}

		case term.TagEra:
			return m.eb.corrupt("erased cell forced")

		default:
			return m.eb.corrupt("empty cell forced")
		}
	}
	return nil
}

// count charges one rewrite against the step budget and emits the rule
// event when rule tracing is on.
func (m *Machine) count(rule string) *Error {
	m.steps++
	if m.steps > m.limits.MaxSteps {
		return m.eb.stepBudget(m.limits.MaxSteps)
	}
	if m.tracer.Enabled() && m.tracer.Level().ShouldEmit(trace.ScopeRule) {
		trace.Point(m.tracer, trace.ScopeRule, m.span, "rule:"+rule, "")
	}
	return nil
}

func isFail(t term.Term) bool {
	return t.Tag == term.TagCtr && t.CtrKind() == term.CtFail
}

// describe names a weak head for error messages.
func describe(t term.Term) string {
	switch t.Tag {
	case term.TagNum:
		return "integer"
	case term.TagLam:
		return "function"
	case term.TagSup:
		return "superposition"
	case term.TagCtr:
		switch t.CtrKind() {
		case term.CtTrue, term.CtFalse:
			return "boolean"
		case term.CtNull:
			return "null"
		case term.CtBigPos, term.CtBigNeg:
			return "integer"
		case term.CtFloat:
			return "float"
		case term.CtList, term.CtCons, term.CtNil:
			return "list"
		case term.CtAttrs, term.CtBind:
			return "attrset"
		case term.CtStr:
			return "string"
		case term.CtFail:
			return "failure"
		}
	}
	return t.Tag.String()
}
