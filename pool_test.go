package skein_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"skein"
	"skein/ast"
)

func TestEvaluateBatchOrder(t *testing.T) {
	nodes := make([]*ast.Expr, 8)
	for i := range nodes {
		nodes[i] = ast.Binary(ast.OpMul, ast.Int(int64(i)), ast.Int(int64(i)))
	}
	results, err := skein.EvaluateBatch(context.Background(), nodes, nil, 3)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(results) != len(nodes) {
		t.Fatalf("got %d results, want %d", len(results), len(nodes))
	}
	for i, res := range results {
		if res.Err != nil {
			t.Fatalf("item %d: %v", i, res.Err)
		}
		if got := res.Data.(int64); got != int64(i*i) {
			t.Errorf("item %d = %d, want %d", i, got, i*i)
		}
	}
}

func TestEvaluateBatchMixed(t *testing.T) {
	nodes := []*ast.Expr{
		add(ast.Int(1), ast.Int(2)),
		ast.Binary(ast.OpDiv, ast.Int(1), ast.Int(0)),
		add(ast.Var("x"), ast.Int(3)),
		ast.Attrs(ast.Bind("a", ast.Int(1))),
	}
	scope := skein.Scope{"x": 7}
	results, err := skein.EvaluateBatch(context.Background(), nodes, scope, 2)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	if results[0].Err != nil || results[0].Data.(int64) != 3 {
		t.Errorf("item 0 = %v, %v", results[0].Data, results[0].Err)
	}
	if !errors.Is(results[1].Err, skein.ErrRuntime) {
		t.Errorf("item 1 err = %v, want ErrRuntime", results[1].Err)
	}
	if results[1].Data != nil {
		t.Errorf("item 1 data = %v, want nil", results[1].Data)
	}
	if results[2].Err != nil || results[2].Data.(int64) != 10 {
		t.Errorf("item 2 = %v, %v", results[2].Data, results[2].Err)
	}
	want := map[string]any{"a": int64(1)}
	if results[3].Err != nil || !reflect.DeepEqual(results[3].Data, want) {
		t.Errorf("item 3 = %#v, %v", results[3].Data, results[3].Err)
	}
}

func TestEvaluateBatchDefaults(t *testing.T) {
	// Zero jobs falls back to GOMAXPROCS; oversized jobs clamp to the
	// item count. Both just work.
	nodes := []*ast.Expr{ast.Int(1), ast.Int(2)}
	for _, jobs := range []int{0, 16} {
		results, err := skein.EvaluateBatch(context.Background(), nodes, nil, jobs)
		if err != nil {
			t.Fatalf("jobs=%d: %v", jobs, err)
		}
		for i, res := range results {
			if res.Err != nil || res.Data.(int64) != int64(i+1) {
				t.Errorf("jobs=%d item %d = %v, %v", jobs, i, res.Data, res.Err)
			}
		}
	}
}

func TestEvaluateBatchEmpty(t *testing.T) {
	results, err := skein.EvaluateBatch(context.Background(), nil, nil, 4)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if results != nil {
		t.Fatalf("results = %v, want nil", results)
	}
}

func TestEvaluateBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	nodes := []*ast.Expr{ast.Int(1), ast.Int(2), ast.Int(3)}
	_, err := skein.EvaluateBatch(ctx, nodes, nil, 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
