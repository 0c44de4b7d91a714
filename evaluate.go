package skein

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"skein/ast"
	"skein/internal/compile"
	"skein/internal/observ"
	"skein/internal/reduce"
	"skein/internal/trace"
	"skein/value"
)

// Sentinels for the two ways an attempt can end without a value. Both
// wrap the underlying cause, so errors.As still reaches the concrete
// compile or reduce error.
var (
	// ErrRejected marks expressions outside the compiled subset.
	ErrRejected = errors.New("expression not evaluable on the fast path")
	// ErrRuntime marks clean evaluation failures. The host falls back
	// and recomputes with its own semantics.
	ErrRuntime = errors.New("fast path evaluation failed")
)

// CanEvaluate reports whether an expression stays on the fast path: the
// shape is compilable and every name resolves against its own binders,
// an enclosing with, or an encodable scope value.
func (e *Engine) CanEvaluate(node *ast.Expr, scope Scope) bool {
	wrapped, err := injectScope(node, scope)
	if err != nil {
		return false
	}
	if err := compile.CanCompile(wrapped); err != nil {
		return false
	}
	return compile.CheckScope(wrapped) == nil
}

// TryEvaluate evaluates on the fast path if it can. A false answer
// promises the host nothing it must undo happened; it reruns the
// expression on its own evaluator.
func (e *Engine) TryEvaluate(node *ast.Expr, scope Scope) (value.Value, bool) {
	v, err := e.Evaluate(node, scope)
	if err != nil {
		return value.Value{}, false
	}
	return v, true
}

// Evaluate compiles and reduces an expression against a scope of host
// constants. The returned handle reads from this engine's arena, so it
// stays usable until the next Evaluate, Run, or Reset on the engine.
func (e *Engine) Evaluate(node *ast.Expr, scope Scope) (value.Value, error) {
	span := trace.Begin(e.tracer, trace.ScopeEngine, "evaluate", 0)
	e.timer.Reset()

	prog, err := e.compilePhases(node, scope, span.ID())
	if err != nil {
		e.fallbacks.Add(1)
		span.End(err.Error())
		return value.Value{}, err
	}
	v, err := e.runPhases(prog, span.ID())
	if err != nil {
		e.fallbacks.Add(1)
		span.End(err.Error())
		return value.Value{}, err
	}
	e.evaluations.Add(1)
	span.End("")
	return v, nil
}

// Compile builds a reusable program without running it. Hosts that
// evaluate the same expression repeatedly compile once and Run many
// times, possibly on different engines.
func (e *Engine) Compile(node *ast.Expr, scope Scope) (*Program, error) {
	span := trace.Begin(e.tracer, trace.ScopeEngine, "compile", 0)
	e.timer.Reset()

	prog, err := e.compilePhases(node, scope, span.ID())
	if err != nil {
		e.fallbacks.Add(1)
		span.End(err.Error())
		return nil, err
	}
	span.End("")
	return prog, nil
}

// Run reduces a previously compiled program.
func (e *Engine) Run(prog *Program) (value.Value, error) {
	if prog == nil {
		return value.Value{}, fmt.Errorf("%w: nil program", ErrRejected)
	}
	span := trace.Begin(e.tracer, trace.ScopeEngine, "run", 0)
	e.timer.Reset()

	v, err := e.runPhases(prog, span.ID())
	if err != nil {
		e.fallbacks.Add(1)
		span.End(err.Error())
		return value.Value{}, err
	}
	e.evaluations.Add(1)
	span.End("")
	return v, nil
}

// compilePhases runs the predicate and compile phases, consulting the
// cache when one is attached.
func (e *Engine) compilePhases(node *ast.Expr, scope Scope, parent uint64) (*Program, error) {
	idx := e.timer.Begin(observ.PhasePredicate)
	wrapped, err := injectScope(node, scope)
	if err == nil {
		err = compile.CanCompile(wrapped)
	}
	if err != nil {
		e.timer.End(idx, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	e.timer.End(idx, "")

	idx = e.timer.Begin(observ.PhaseCompile)
	var key [sha256.Size]byte
	haveKey := false
	if e.cache != nil {
		key = ast.Fingerprint(wrapped)
		haveKey = true
		if prog, ok := e.cache.Get(key); ok {
			e.timer.End(idx, "cache hit")
			return prog, nil
		}
	}
	prog, err := compile.Compile(wrapped)
	if err != nil {
		e.timer.End(idx, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	e.compilations.Add(1)
	if haveKey {
		if perr := e.cache.Put(key, prog); perr != nil {
			trace.Point(e.tracer, trace.ScopePhase, parent, "cache:put", perr.Error())
		}
	}
	e.timer.End(idx, fmt.Sprintf("%d cells", prog.Cells()))
	return prog, nil
}

// runPhases loads, reduces, and wraps the root. Extraction rejects
// function heads; they have no host representation.
func (e *Engine) runPhases(prog *Program, parent uint64) (value.Value, error) {
	idx := e.timer.Begin(observ.PhaseReduce)
	e.machine.SetParentSpan(parent)
	e.machine.Load(prog)
	if _, err := e.machine.Run(); err != nil {
		e.timer.End(idx, err.Error())
		return value.Value{}, fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	e.timer.End(idx, fmt.Sprintf("%d steps", e.machine.Steps()))

	idx = e.timer.Begin(observ.PhaseExtract)
	v := value.At(e.machine, prog.Root)
	k, err := v.Kind()
	if err != nil {
		e.timer.End(idx, err.Error())
		return value.Value{}, fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	if k == value.KFunc {
		e.timer.End(idx, "function result")
		ferr := &reduce.Error{
			Code:    reduce.CodeFuncResult,
			Message: "result is a function",
			Steps:   e.machine.Steps(),
		}
		return value.Value{}, fmt.Errorf("%w: %w", ErrRuntime, ferr)
	}
	e.timer.End(idx, k.String())
	return v, nil
}
