package skein

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"skein/ast"
)

// BatchResult carries one expression's outcome. Data is the decoded
// native value rather than a handle: workers reuse their arenas across
// items, so handles would go stale as the batch progresses.
type BatchResult struct {
	Data any
	Err  error
}

// EvaluateBatch evaluates expressions concurrently against a shared
// scope. Each worker owns a private engine, so arenas never need locks;
// results come back in input order. jobs bounds concurrency, zero or
// negative using GOMAXPROCS. Per-item failures land in the result slot
// and the batch keeps going; only context cancellation aborts it.
func EvaluateBatch(ctx context.Context, nodes []*ast.Expr, scope Scope, jobs int, opts ...Option) ([]BatchResult, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if jobs > len(nodes) {
		jobs = len(nodes)
	}

	engines := make(chan *Engine, jobs)
	for i := 0; i < jobs; i++ {
		engines <- New(opts...)
	}

	results := make([]BatchResult, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, node := range nodes {
		i, node := i, node // per-iteration copies; go.mod predates Go 1.22 loop scoping
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			eng := <-engines
			defer func() { engines <- eng }()

			v, err := eng.Evaluate(node, scope)
			if err != nil {
				results[i] = BatchResult{Err: err}
				return nil
			}
			data, err := v.Decode()
			results[i] = BatchResult{Data: data, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
