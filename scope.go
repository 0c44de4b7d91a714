package skein

import (
	"fmt"
	"sort"

	"skein/ast"
	"skein/internal/compile"
)

// Scope supplies host-materialized constants for free variables. Values
// must already be native data (nil, bool, int variants, float64,
// string, []any, map[string]any); anything else keeps the expression
// off the fast path rather than guessing an encoding.
type Scope map[string]any

// injectScope binds the free names the scope can supply in a wrapper
// let, so scoped expressions compile exactly like closed ones and keep
// the lexical-before-with resolution order a real binding would have.
// Bind order is sorted, which keeps fingerprints stable for the cache.
func injectScope(node *ast.Expr, scope Scope) (*ast.Expr, error) {
	if len(scope) == 0 {
		return node, nil
	}
	var binds []ast.AttrBind
	for _, name := range compile.FreeNames(node) {
		hv, ok := scope[name]
		if !ok {
			continue
		}
		lit, err := encodeNative(hv)
		if err != nil {
			return nil, fmt.Errorf("scope value %q: %w", name, err)
		}
		binds = append(binds, ast.Bind(name, lit))
	}
	if len(binds) == 0 {
		return node, nil
	}
	return ast.Let(node, binds...), nil
}

// encodeNative lowers one host value to a literal tree.
func encodeNative(v any) (*ast.Expr, error) {
	switch x := v.(type) {
	case nil:
		return ast.Null(), nil
	case bool:
		return ast.Bool(x), nil
	case int:
		return ast.Int(int64(x)), nil
	case int32:
		return ast.Int(int64(x)), nil
	case int64:
		return ast.Int(x), nil
	case float64:
		return ast.Float(x), nil
	case string:
		return ast.Str(x), nil
	case []any:
		elems := make([]*ast.Expr, len(x))
		for i, el := range x {
			lit, err := encodeNative(el)
			if err != nil {
				return nil, err
			}
			elems[i] = lit
		}
		return ast.List(elems...), nil
	case map[string]any:
		names := make([]string, 0, len(x))
		for name := range x {
			names = append(names, name)
		}
		sort.Strings(names)
		binds := make([]ast.AttrBind, len(names))
		for i, name := range names {
			lit, err := encodeNative(x[name])
			if err != nil {
				return nil, err
			}
			binds[i] = ast.Bind(name, lit)
		}
		return ast.Attrs(binds...), nil
	default:
		return nil, fmt.Errorf("value of type %T has no literal form", v)
	}
}
