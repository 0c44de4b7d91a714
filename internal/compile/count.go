package compile

import (
	"slices"

	"skein/ast"
)

// uses counts the free occurrences of name in e. The shadow rules here
// mirror the emitters exactly; a disagreement between the two corrupts
// supply sizing, so any scoping change needs its twin on the other side.
func uses(e *ast.Expr, name string) int {
	if e == nil || name == "" {
		return 0
	}
	switch d := e.Data.(type) {
	case ast.VarData:
		if d.Name == name {
			return 1
		}
		return 0

	case ast.InterpData:
		n := 0
		for _, p := range d.Parts {
			n += uses(p, name)
		}
		return n

	case ast.ListData:
		n := 0
		for _, el := range d.Elems {
			n += uses(el, name)
		}
		return n

	case ast.AttrsData:
		if !d.Rec {
			n := 0
			for _, b := range d.Binds {
				n += uses(b.Value, name)
			}
			for _, dyn := range d.Dynamic {
				n += uses(dyn.Name, name) + uses(dyn.Value, name)
			}
			return n
		}
		return groupUses(d.Binds, nil, name)

	case ast.LetData:
		return groupUses(d.Binds, d.Body, name)

	case ast.LambdaData:
		shadow := d.Param == name
		if d.Pattern != nil {
			for _, f := range d.Pattern.Fields {
				if f.Name == name {
					shadow = true
				}
			}
		}
		if shadow {
			return 0
		}
		n := 0
		if d.Pattern != nil {
			for _, f := range d.Pattern.Fields {
				n += uses(f.Default, name)
			}
		}
		return n + uses(d.Body, name)

	case ast.ApplyData:
		return uses(d.Fn, name) + uses(d.Arg, name)

	case ast.BinaryData:
		return uses(d.Left, name) + uses(d.Right, name)

	case ast.UnaryData:
		return uses(d.Operand, name)

	case ast.IfData:
		return uses(d.Cond, name) + uses(d.Then, name) + uses(d.Else, name)

	case ast.AssertData:
		return uses(d.Cond, name) + uses(d.Body, name)

	case ast.WithData:
		// Dynamic scope never shadows a static binder.
		return uses(d.Scope, name) + uses(d.Body, name)

	case ast.SelectData:
		return uses(d.Object, name) + uses(d.Default, name)

	case ast.HasAttrData:
		return uses(d.Object, name)

	default:
		return 0
	}
}

// groupUses counts inside one recursive binding group. Group names
// shadow the definitions and the body, except that inherit values
// resolve in the surrounding scope.
func groupUses(binds []ast.AttrBind, body *ast.Expr, name string) int {
	shadowed := false
	for _, b := range binds {
		if b.Name == name {
			shadowed = true
			break
		}
	}
	n := 0
	for _, b := range binds {
		if b.FromOuter {
			n += uses(b.Value, name)
		} else if !shadowed {
			n += uses(b.Value, name)
		}
	}
	if !shadowed {
		n += uses(body, name)
	}
	return n
}

// refs reports whether e has a free occurrence of name.
func refs(e *ast.Expr, name string) bool {
	return uses(e, name) > 0
}

// freeInfo summarizes the free surface of one definition: every free
// name in first-occurrence order, and whether the definition opens a
// with scope anywhere.
type freeInfo struct {
	names   []string
	seen    map[string]bool
	hasWith bool
}

func (fi *freeInfo) add(name string) {
	if !fi.seen[name] {
		fi.seen[name] = true
		fi.names = append(fi.names, name)
	}
}

// freeOf collects the free surface of e.
func freeOf(e *ast.Expr) *freeInfo {
	fi := &freeInfo{seen: make(map[string]bool)}
	collectFree(e, nil, fi)
	return fi
}

func collectFree(e *ast.Expr, bound map[string]bool, fi *freeInfo) {
	if e == nil {
		return
	}
	switch d := e.Data.(type) {
	case ast.VarData:
		if !bound[d.Name] {
			fi.add(d.Name)
		}

	case ast.InterpData:
		for _, p := range d.Parts {
			collectFree(p, bound, fi)
		}

	case ast.ListData:
		for _, el := range d.Elems {
			collectFree(el, bound, fi)
		}

	case ast.AttrsData:
		if !d.Rec {
			for _, b := range d.Binds {
				collectFree(b.Value, bound, fi)
			}
			for _, dyn := range d.Dynamic {
				collectFree(dyn.Name, bound, fi)
				collectFree(dyn.Value, bound, fi)
			}
			return
		}
		collectGroupFree(d.Binds, nil, bound, fi)

	case ast.LetData:
		collectGroupFree(d.Binds, d.Body, bound, fi)

	case ast.LambdaData:
		names := []string{}
		if d.Param != "" {
			names = append(names, d.Param)
		}
		if d.Pattern != nil {
			for _, f := range d.Pattern.Fields {
				names = append(names, f.Name)
			}
		}
		inner := extend(bound, names...)
		if d.Pattern != nil {
			for _, f := range d.Pattern.Fields {
				collectFree(f.Default, inner, fi)
			}
		}
		collectFree(d.Body, inner, fi)

	case ast.ApplyData:
		collectFree(d.Fn, bound, fi)
		collectFree(d.Arg, bound, fi)

	case ast.BinaryData:
		collectFree(d.Left, bound, fi)
		collectFree(d.Right, bound, fi)

	case ast.UnaryData:
		collectFree(d.Operand, bound, fi)

	case ast.IfData:
		collectFree(d.Cond, bound, fi)
		collectFree(d.Then, bound, fi)
		collectFree(d.Else, bound, fi)

	case ast.AssertData:
		collectFree(d.Cond, bound, fi)
		collectFree(d.Body, bound, fi)

	case ast.WithData:
		fi.hasWith = true
		collectFree(d.Scope, bound, fi)
		collectFree(d.Body, bound, fi)

	case ast.SelectData:
		collectFree(d.Object, bound, fi)
		collectFree(d.Default, bound, fi)

	case ast.HasAttrData:
		collectFree(d.Object, bound, fi)
	}
}

func collectGroupFree(binds []ast.AttrBind, body *ast.Expr, bound map[string]bool, fi *freeInfo) {
	names := make([]string, len(binds))
	for i, b := range binds {
		names[i] = b.Name
	}
	inner := extend(bound, names...)
	for _, b := range binds {
		if b.FromOuter {
			collectFree(b.Value, bound, fi)
		} else {
			collectFree(b.Value, inner, fi)
		}
	}
	collectFree(body, inner, fi)
}

func extend(bound map[string]bool, names ...string) map[string]bool {
	out := make(map[string]bool, len(bound)+len(names))
	for k := range bound {
		out[k] = true
	}
	for _, n := range names {
		out[n] = true
	}
	return out
}

// checkScope rejects variables nothing can supply. Hosts resolve names
// statically before evaluating anything, and the fast path must agree
// with them about which programs evaluate at all, so an unresolvable
// name rejects the whole tree even inside a binding nothing forces.
func checkScope(e *ast.Expr, bound map[string]bool, withs int) *Error {
	if e == nil {
		return nil
	}
	switch d := e.Data.(type) {
	case ast.VarData:
		if !bound[d.Name] && withs == 0 {
			return errUnbound(d.Name)
		}

	case ast.InterpData:
		for _, p := range d.Parts {
			if err := checkScope(p, bound, withs); err != nil {
				return err
			}
		}

	case ast.ListData:
		for _, el := range d.Elems {
			if err := checkScope(el, bound, withs); err != nil {
				return err
			}
		}

	case ast.AttrsData:
		if !d.Rec {
			for _, b := range d.Binds {
				if err := checkScope(b.Value, bound, withs); err != nil {
					return err
				}
			}
			for _, dyn := range d.Dynamic {
				if err := checkScope(dyn.Name, bound, withs); err != nil {
					return err
				}
				if err := checkScope(dyn.Value, bound, withs); err != nil {
					return err
				}
			}
			return nil
		}
		return checkGroupScope(d.Binds, nil, bound, withs)

	case ast.LetData:
		return checkGroupScope(d.Binds, d.Body, bound, withs)

	case ast.LambdaData:
		names := []string{}
		if d.Param != "" {
			names = append(names, d.Param)
		}
		if d.Pattern != nil {
			for _, f := range d.Pattern.Fields {
				names = append(names, f.Name)
			}
		}
		inner := extend(bound, names...)
		if d.Pattern != nil {
			for _, f := range d.Pattern.Fields {
				if err := checkScope(f.Default, inner, withs); err != nil {
					return err
				}
			}
		}
		return checkScope(d.Body, inner, withs)

	case ast.ApplyData:
		if err := checkScope(d.Fn, bound, withs); err != nil {
			return err
		}
		return checkScope(d.Arg, bound, withs)

	case ast.BinaryData:
		if err := checkScope(d.Left, bound, withs); err != nil {
			return err
		}
		return checkScope(d.Right, bound, withs)

	case ast.UnaryData:
		return checkScope(d.Operand, bound, withs)

	case ast.IfData:
		if err := checkScope(d.Cond, bound, withs); err != nil {
			return err
		}
		if err := checkScope(d.Then, bound, withs); err != nil {
			return err
		}
		return checkScope(d.Else, bound, withs)

	case ast.AssertData:
		if err := checkScope(d.Cond, bound, withs); err != nil {
			return err
		}
		return checkScope(d.Body, bound, withs)

	case ast.WithData:
		if err := checkScope(d.Scope, bound, withs); err != nil {
			return err
		}
		return checkScope(d.Body, bound, withs+1)

	case ast.SelectData:
		if err := checkScope(d.Object, bound, withs); err != nil {
			return err
		}
		return checkScope(d.Default, bound, withs)

	case ast.HasAttrData:
		return checkScope(d.Object, bound, withs)
	}
	return nil
}

// FreeNames returns the names e does not bind itself, sorted. Hosts use
// it to decide which environment values an expression needs injected.
func FreeNames(e *ast.Expr) []string {
	fi := freeOf(e)
	names := slices.Clone(fi.names)
	slices.Sort(names)
	return names
}

// CheckScope reports whether every variable resolves statically or sits
// under a with. Compile runs the same check; this entry point lets a
// host screen an expression without paying for codegen.
func CheckScope(e *ast.Expr) error {
	if err := checkScope(e, nil, 0); err != nil {
		return err
	}
	return nil
}

func checkGroupScope(binds []ast.AttrBind, body *ast.Expr, bound map[string]bool, withs int) *Error {
	names := make([]string, len(binds))
	for i, b := range binds {
		names[i] = b.Name
	}
	inner := extend(bound, names...)
	for _, b := range binds {
		env := inner
		if b.FromOuter {
			env = bound
		}
		if err := checkScope(b.Value, env, withs); err != nil {
			return err
		}
	}
	return checkScope(body, inner, withs)
}
