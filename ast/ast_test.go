package ast_test

import (
	"testing"

	"skein/ast"
)

func TestApplyLeftFold(t *testing.T) {
	e := ast.Apply(ast.Var("f"), ast.Int(1), ast.Int(2), ast.Int(3))
	// ((f 1) 2) 3
	outer, ok := e.Data.(ast.ApplyData)
	if !ok {
		t.Fatalf("outer node = %s, want apply", e.Kind)
	}
	if v, ok := outer.Arg.Data.(ast.IntData); !ok || v.Value != 3 {
		t.Fatalf("outermost arg = %+v, want 3", outer.Arg.Data)
	}
	mid, ok := outer.Fn.Data.(ast.ApplyData)
	if !ok {
		t.Fatalf("middle node = %s, want apply", outer.Fn.Kind)
	}
	inner, ok := mid.Fn.Data.(ast.ApplyData)
	if !ok {
		t.Fatalf("inner node = %s, want apply", mid.Fn.Kind)
	}
	if v, ok := inner.Fn.Data.(ast.VarData); !ok || v.Name != "f" {
		t.Fatalf("callee = %+v, want var f", inner.Fn.Data)
	}
}

func TestApplyNoArgs(t *testing.T) {
	fn := ast.Var("f")
	if got := ast.Apply(fn); got != fn {
		t.Fatalf("apply with no arguments should return the callee unchanged")
	}
}

func TestInheritDesugar(t *testing.T) {
	b := ast.Inherit("x")
	if b.Name != "x" || !b.FromOuter {
		t.Fatalf("inherit bind = %+v, want outer-scoped x", b)
	}
	v, ok := b.Value.Data.(ast.VarData)
	if !ok || v.Name != "x" {
		t.Fatalf("inherit value = %+v, want var x", b.Value.Data)
	}

	src := ast.Var("lib")
	b = ast.InheritFrom(src, "y")
	if !b.FromOuter {
		t.Fatalf("inherit-from must resolve src in the outer scope")
	}
	sel, ok := b.Value.Data.(ast.SelectData)
	if !ok {
		t.Fatalf("inherit-from value = %s, want select", b.Value.Kind)
	}
	if sel.Object != src || len(sel.Path) != 1 || sel.Path[0] != "y" || sel.Default != nil {
		t.Fatalf("inherit-from select = %+v", sel)
	}
}

func TestSelectBuilders(t *testing.T) {
	obj := ast.Var("s")
	e := ast.Select(obj, "a", "b")
	sel := e.Data.(ast.SelectData)
	if len(sel.Path) != 2 || sel.Path[0] != "a" || sel.Path[1] != "b" {
		t.Fatalf("path = %v", sel.Path)
	}
	if sel.Default != nil {
		t.Fatalf("plain select must not carry a default")
	}

	def := ast.Int(7)
	e = ast.SelectOr(obj, def, "a")
	if got := e.Data.(ast.SelectData).Default; got != def {
		t.Fatalf("default = %v, want the supplied node", got)
	}
}

func TestEnumStrings(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{ast.ExprInt.String(), "Int"},
		{ast.ExprLambda.String(), "Lambda"},
		{ast.OpAdd.String(), "+"},
		{ast.OpImpl.String(), "->"},
		{ast.OpUpdate.String(), "//"},
		{ast.OpNot.String(), "!"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("String() = %q, want %q", tc.got, tc.want)
		}
	}
}

func letXPlus(n int64) *ast.Expr {
	return ast.Let(
		ast.Binary(ast.OpAdd, ast.Var("x"), ast.Int(n)),
		ast.Bind("x", ast.Int(5)),
	)
}

func TestFingerprintDeterministic(t *testing.T) {
	a := ast.Fingerprint(letXPlus(3))
	b := ast.Fingerprint(letXPlus(3))
	if a != b {
		t.Fatalf("equal trees hashed differently: %x vs %x", a, b)
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	pat := func(ellipsis bool, def *ast.Expr) *ast.Expr {
		return ast.PatternLambda("", &ast.Pattern{
			Fields:   []ast.PatternField{{Name: "a", Default: def}},
			Ellipsis: ellipsis,
		}, ast.Var("a"))
	}
	cases := []struct {
		name string
		a, b *ast.Expr
	}{
		{"literal value", ast.Int(1), ast.Int(2)},
		{"literal sign", ast.Int(1), ast.Int(-1)},
		{"kind", ast.Int(5), ast.Str("5")},
		{"int vs float", ast.Int(1), ast.Float(1)},
		{"string content", ast.Str("a"), ast.Str("b")},
		{"var name", ast.Var("x"), ast.Var("y")},
		{"list order", ast.List(ast.Int(1), ast.Int(2)), ast.List(ast.Int(2), ast.Int(1))},
		{"list nesting", ast.List(ast.Str("ab")), ast.List(ast.Str("a"), ast.Str("b"))},
		{"rec flag", ast.Attrs(ast.Bind("a", ast.Int(1))), ast.RecAttrs(ast.Bind("a", ast.Int(1)))},
		{"operator", ast.Binary(ast.OpAdd, ast.Int(1), ast.Int(2)), ast.Binary(ast.OpSub, ast.Int(1), ast.Int(2))},
		{"operand order", ast.Binary(ast.OpSub, ast.Int(1), ast.Int(2)), ast.Binary(ast.OpSub, ast.Int(2), ast.Int(1))},
		{"select default", ast.Select(ast.Var("s"), "a"), ast.SelectOr(ast.Var("s"), ast.Int(0), "a")},
		{"select vs has", ast.Select(ast.Var("s"), "a"), ast.Has(ast.Var("s"), "a")},
		{"pattern ellipsis", pat(false, nil), pat(true, nil)},
		{"inherit flag", ast.Let(ast.Var("x"), ast.Bind("x", ast.Var("x"))), ast.Let(ast.Var("x"), ast.Inherit("x"))},
		{"pattern default", pat(false, nil), pat(false, ast.Int(0))},
		{"lambda vs pattern", ast.Lambda("a", ast.Var("a")), pat(false, nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if ast.Fingerprint(tc.a) == ast.Fingerprint(tc.b) {
				t.Fatalf("distinct trees hashed the same")
			}
		})
	}
}
