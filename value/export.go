package value

import (
	"fmt"
	"sort"

	"skein/internal/reduce"
	"skein/internal/spine"
	"skein/internal/term"
)

// maxExportDepth bounds Decode recursion. Knot-built results can nest
// arbitrarily deep before any budget inside the machine trips.
const maxExportDepth = 10_000

// Str decodes a string result. The word spine is forced cell by cell
// first; copies made by sharing can leave words pending.
func (v Value) Str() (string, error) {
	t, err := v.force()
	if err != nil {
		return "", err
	}
	if t.Tag != term.TagCtr || t.CtrKind() != term.CtStr {
		return "", v.decodeErr("string", t)
	}
	if _, err := v.m.WHNF(t.Loc()); err != nil {
		return "", err
	}
	cur := t.Loc() + 1
	for {
		cell, err := v.m.WHNF(cur)
		if err != nil {
			return "", err
		}
		if cell.Tag != term.TagCtr {
			return "", v.decodeErr("string", t)
		}
		if cell.CtrKind() == term.CtNil {
			break
		}
		if cell.CtrKind() != term.CtCons {
			return "", v.decodeErr("string", t)
		}
		if _, err := v.m.WHNF(cell.Loc()); err != nil {
			return "", err
		}
		cur = cell.Loc() + 1
	}
	s, ok := spine.DecodeString(v.m.Heap(), t)
	if !ok {
		return "", v.decodeErr("string", t)
	}
	return s, nil
}

// Len reports the element count of a list or the byte length of a
// string. Only the cached length cell is forced, never the contents.
func (v Value) Len() (int64, error) {
	t, err := v.force()
	if err != nil {
		return 0, err
	}
	if t.Tag == term.TagCtr && (t.CtrKind() == term.CtList || t.CtrKind() == term.CtStr) {
		if _, err := v.m.WHNF(t.Loc()); err != nil {
			return 0, err
		}
		if t.CtrKind() == term.CtList {
			if n, ok := spine.ListLen(v.m.Heap(), t); ok {
				return n, nil
			}
		} else if n, ok := spine.StrLen(v.m.Heap(), t); ok {
			return n, nil
		}
	}
	return 0, v.decodeErr("list or string", t)
}

// Index returns the i'th list element as a new handle. Spine cells up
// to i are forced; the elements themselves are not.
func (v Value) Index(i int) (Value, error) {
	t, err := v.force()
	if err != nil {
		return Value{}, err
	}
	if t.Tag != term.TagCtr || t.CtrKind() != term.CtList {
		return Value{}, v.decodeErr("list", t)
	}
	if i < 0 {
		return Value{}, &reduce.Error{
			Code:    reduce.CodeDecode,
			Message: fmt.Sprintf("list index %d out of range", i),
			Steps:   v.m.Steps(),
		}
	}
	cur := t.Loc() + 1
	for k := 0; ; k++ {
		cell, err := v.m.WHNF(cur)
		if err != nil {
			return Value{}, err
		}
		if cell.Tag != term.TagCtr {
			return Value{}, v.decodeErr("list", t)
		}
		if cell.CtrKind() == term.CtNil {
			return Value{}, &reduce.Error{
				Code:    reduce.CodeDecode,
				Message: fmt.Sprintf("list index %d out of range", i),
				Steps:   v.m.Steps(),
			}
		}
		if cell.CtrKind() != term.CtCons {
			return Value{}, v.decodeErr("list", t)
		}
		if k == i {
			return At(v.m, cell.Loc()), nil
		}
		cur = cell.Loc() + 1
	}
}

// Attr projects the named attribute as a new handle. Lookup takes the
// first match in spine order, the same rule the engine's selection uses,
// so updated sets resolve identically here and inside the machine.
func (v Value) Attr(name string) (Value, error) {
	t, err := v.force()
	if err != nil {
		return Value{}, err
	}
	if t.Tag != term.TagCtr || t.CtrKind() != term.CtAttrs {
		return Value{}, v.decodeErr("attrset", t)
	}
	cur := t.Loc()
	for {
		cell, err := v.m.WHNF(cur)
		if err != nil {
			return Value{}, err
		}
		if cell.Tag != term.TagCtr {
			return Value{}, v.decodeErr("attrset", t)
		}
		if cell.CtrKind() == term.CtNil {
			return Value{}, &reduce.Error{
				Code:    reduce.CodeMissingAttr,
				Message: fmt.Sprintf("attribute %q missing", name),
				Steps:   v.m.Steps(),
			}
		}
		if cell.CtrKind() != term.CtBind {
			return Value{}, v.decodeErr("attrset", t)
		}
		if v.m.Program().Name(cell.Aux()) == name {
			return At(v.m, cell.Loc()), nil
		}
		cur = cell.Loc() + 1
	}
}

// Names lists the attribute names the way lookup sees them: a name
// shadowed by an update appears once. Sorted for stable host iteration.
func (v Value) Names() ([]string, error) {
	t, err := v.force()
	if err != nil {
		return nil, err
	}
	if t.Tag != term.TagCtr || t.CtrKind() != term.CtAttrs {
		return nil, v.decodeErr("attrset", t)
	}
	seen := make(map[uint32]bool)
	var names []string
	cur := t.Loc()
	for {
		cell, err := v.m.WHNF(cur)
		if err != nil {
			return nil, err
		}
		if cell.Tag != term.TagCtr {
			return nil, v.decodeErr("attrset", t)
		}
		if cell.CtrKind() == term.CtNil {
			break
		}
		if cell.CtrKind() != term.CtBind {
			return nil, v.decodeErr("attrset", t)
		}
		if !seen[cell.Aux()] {
			seen[cell.Aux()] = true
			names = append(names, v.m.Program().Name(cell.Aux()))
		}
		cur = cell.Loc() + 1
	}
	sort.Strings(names)
	return names, nil
}

// Decode exports the whole result as native Go data: int64, float64,
// bool, string, nil for null, []any for lists, map[string]any for
// attribute sets. Everything reachable is forced. A function anywhere
// in the result fails the export; it has no host representation.
func (v Value) Decode() (any, error) {
	return v.decode(0)
}

func (v Value) decode(depth int) (any, error) {
	if depth >= maxExportDepth {
		return nil, &reduce.Error{
			Code:    reduce.CodeDecode,
			Message: fmt.Sprintf("result nests deeper than %d", maxExportDepth),
			Steps:   v.m.Steps(),
		}
	}
	t, err := v.force()
	if err != nil {
		return nil, err
	}
	switch kindOf(t) {
	case KInt:
		return v.Int()
	case KFloat:
		return v.Float()
	case KBool:
		return v.Bool()
	case KNull:
		return nil, nil
	case KString:
		return v.Str()
	case KList:
		out := []any{}
		cur := t.Loc() + 1
		for {
			cell, err := v.m.WHNF(cur)
			if err != nil {
				return nil, err
			}
			if cell.Tag != term.TagCtr {
				return nil, v.decodeErr("list", t)
			}
			if cell.CtrKind() == term.CtNil {
				return out, nil
			}
			if cell.CtrKind() != term.CtCons {
				return nil, v.decodeErr("list", t)
			}
			elem, err := At(v.m, cell.Loc()).decode(depth + 1)
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
			cur = cell.Loc() + 1
		}
	case KAttrs:
		out := map[string]any{}
		cur := t.Loc()
		for {
			cell, err := v.m.WHNF(cur)
			if err != nil {
				return nil, err
			}
			if cell.Tag != term.TagCtr {
				return nil, v.decodeErr("attrset", t)
			}
			if cell.CtrKind() == term.CtNil {
				return out, nil
			}
			if cell.CtrKind() != term.CtBind {
				return nil, v.decodeErr("attrset", t)
			}
			name := v.m.Program().Name(cell.Aux())
			if _, shadowed := out[name]; !shadowed {
				elem, err := At(v.m, cell.Loc()).decode(depth + 1)
				if err != nil {
					return nil, err
				}
				out[name] = elem
			}
			cur = cell.Loc() + 1
		}
	case KFunc:
		return nil, &reduce.Error{
			Code:    reduce.CodeFuncResult,
			Message: "result contains a function",
			Steps:   v.m.Steps(),
		}
	default:
		return nil, v.decodeErr("exportable value", t)
	}
}
