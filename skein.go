// Package skein evaluates a lazy expression subset on a graph reduction
// machine, as a fast path in front of a slower host evaluator.
//
// Hosts lower their syntax into ast trees, ask CanEvaluate, and call
// TryEvaluate. A false answer is always safe: it means the expression is
// outside the compiled subset or failed cleanly, nothing observable
// happened, and the host's own evaluator remains the source of truth.
// A true answer hands back a value.Value handle whose contents decode
// to native Go data on demand.
//
// One Engine owns one arena and runs one evaluation at a time. For
// concurrency, run several engines; EvaluateBatch does exactly that.
package skein

import (
	"sync/atomic"

	"skein/internal/compile"
	"skein/internal/observ"
	"skein/internal/reduce"
	"skein/internal/trace"
)

// Program is a compiled expression image, reusable across runs and
// engines. The alias lets hosts hold programs without reaching into
// internal packages.
type Program = compile.Program

// Limits re-exports the machine budgets for configuration.
type Limits = reduce.Limits

// Engine drives the evaluation pipeline: predicate, compile, reduce,
// extract. It is single-threaded apart from Stats.
type Engine struct {
	limits  reduce.Limits
	tracer  trace.Tracer
	cache   *ProgramCache
	machine *reduce.Machine
	timer   *observ.Timer

	compilations atomic.Uint64
	evaluations  atomic.Uint64
	fallbacks    atomic.Uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimits sets the machine budgets. Zero fields keep the defaults.
func WithLimits(l Limits) Option {
	return func(e *Engine) { e.limits = l }
}

// WithTracer attaches a tracer. It must be goroutine-safe if the engine
// set built from these options runs concurrently.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithCache attaches a compiled-program cache. The cache is safe to
// share between engines.
func WithCache(c *ProgramCache) Option {
	return func(e *Engine) { e.cache = c }
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		tracer: trace.Nop,
		timer:  observ.NewTimer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.limits = e.limits.WithDefaults()
	e.machine = reduce.NewMachine(e.limits, e.tracer)
	return e
}

// Reset drops the arena. Every outstanding value handle from this
// engine goes stale.
func (e *Engine) Reset() {
	e.machine.Heap().Reset()
}

// Stats are monotonic counters over an engine's lifetime.
type Stats struct {
	// Compilations counts programs actually compiled; cache hits do not
	// count.
	Compilations uint64
	// Evaluations counts evaluations that produced a value.
	Evaluations uint64
	// Fallbacks counts attempts the host had to redo itself, whether
	// rejected up front or failed during reduction.
	Fallbacks uint64
}

// Stats returns a snapshot. Safe to call from other goroutines while
// the engine runs.
func (e *Engine) Stats() Stats {
	return Stats{
		Compilations: e.compilations.Load(),
		Evaluations:  e.evaluations.Load(),
		Fallbacks:    e.fallbacks.Load(),
	}
}

// LastTimings reports the phase breakdown of the most recent Evaluate,
// Compile, or Run call.
func (e *Engine) LastTimings() observ.Report {
	return e.timer.Report()
}
