// Package trace provides the tracing subsystem for the evaluation engine.
//
// Tracing covers the facade operations, the compile/reduce phases, and
// individual rewrite rules, to help diagnose rejected expressions, runtime
// fallbacks, and reduction blowups.
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to an output
//   - RingTracer: circular buffer keeping the rewrites before a failure
//   - MultiTracer: fan-out to several tracers
//
// # Levels
//
// Verbosity is controlled by levels:
//
//   - LevelOff: no tracing
//   - LevelError: only failure dumps
//   - LevelPhase: engine operations and phase boundaries
//   - LevelRule: every rewrite rule fired
//   - LevelDebug: everything
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeEngine: facade operations (evaluate, compile, batch)
//   - ScopePhase: predicate, compile, reduce, extract phases
//   - ScopeRule: one rewrite rule
//
// # Context propagation
//
// Batch evaluation propagates the tracer to its workers via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePhase, "reduce", parentID)
//	defer span.End("")
package trace
