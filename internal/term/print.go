package term

import (
	"fmt"
	"io"
	"strings"
)

const dumpDepthCap = 64

// Dump writes a compact textual rendering of the graph under root. Shared
// cells are printed once and referenced as @loc afterwards; depth is capped
// so partially reduced or cyclic graphs stay printable.
func Dump(w io.Writer, h *Heap, root Term) {
	p := &printer{h: h, seen: make(map[Loc]bool)}
	p.term(w, root, 0)
}

// Sprint renders the graph under root into a string. Intended for trace
// detail and test failure messages.
func Sprint(h *Heap, root Term) string {
	var sb strings.Builder
	Dump(&sb, h, root)
	return sb.String()
}

type printer struct {
	h    *Heap
	seen map[Loc]bool
}

func (p *printer) term(w io.Writer, t Term, depth int) {
	if depth > dumpDepthCap {
		io.WriteString(w, "...")
		return
	}
	switch t.Tag {
	case TagEmpty:
		io.WriteString(w, "<empty>")
	case TagEra:
		io.WriteString(w, "*")
	case TagNum:
		fmt.Fprintf(w, "%d", t.Num())
	case TagVar:
		fmt.Fprintf(w, "x@%d", t.Loc())
	case TagRef:
		fmt.Fprintf(w, "ref@%d", t.Loc())
	case TagLam:
		fmt.Fprintf(w, "(lam @%d ", t.Loc())
		p.cell(w, t.Loc()+1, depth+1)
		io.WriteString(w, ")")
	case TagApp:
		io.WriteString(w, "(app ")
		p.cell(w, t.Loc(), depth+1)
		io.WriteString(w, " ")
		p.cell(w, t.Loc()+1, depth+1)
		io.WriteString(w, ")")
	case TagSup:
		fmt.Fprintf(w, "(sup #%d ", t.Ext)
		p.cell(w, t.Loc(), depth+1)
		io.WriteString(w, " ")
		p.cell(w, t.Loc()+1, depth+1)
		io.WriteString(w, ")")
	case TagDup0, TagDup1:
		side := 0
		if t.Tag == TagDup1 {
			side = 1
		}
		fmt.Fprintf(w, "(dup%d #%d @%d)", side, t.Ext, t.Loc())
	case TagOp2:
		fmt.Fprintf(w, "(%s ", t.Op())
		p.cell(w, t.Loc(), depth+1)
		io.WriteString(w, " ")
		p.cell(w, t.Loc()+1, depth+1)
		io.WriteString(w, ")")
	case TagMat:
		fmt.Fprintf(w, "(%s", t.MatKind())
		if aux := t.Aux(); aux != 0 {
			fmt.Fprintf(w, ":%d", aux)
		}
		for i := 0; i < t.MatKind().Arity(); i++ {
			io.WriteString(w, " ")
			p.cell(w, t.Loc()+Loc(i), depth+1)
		}
		io.WriteString(w, ")")
	case TagCtr:
		kind := t.CtrKind()
		if kind.Arity() == 0 {
			io.WriteString(w, kind.String())
			return
		}
		fmt.Fprintf(w, "{%s", kind)
		if kind == CtBind {
			fmt.Fprintf(w, ":%d", t.Aux())
		}
		for i := 0; i < kind.Arity(); i++ {
			io.WriteString(w, " ")
			p.cell(w, t.Loc()+Loc(i), depth+1)
		}
		io.WriteString(w, "}")
	default:
		fmt.Fprintf(w, "<%s>", t.Tag)
	}
}

func (p *printer) cell(w io.Writer, loc Loc, depth int) {
	if !p.h.Valid(loc) {
		fmt.Fprintf(w, "!@%d", loc)
		return
	}
	if p.seen[loc] {
		fmt.Fprintf(w, "@%d", loc)
		return
	}
	p.seen[loc] = true
	p.term(w, p.h.Get(loc), depth)
}
