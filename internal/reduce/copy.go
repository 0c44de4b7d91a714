package reduce

import "skein/internal/term"

// blockCells returns how many payload cells a term owns.
func blockCells(t term.Term) int {
	switch t.Tag {
	case term.TagLam, term.TagApp, term.TagSup, term.TagOp2:
		return 2
	case term.TagDup0, term.TagDup1:
		return 3
	case term.TagMat:
		return t.MatKind().Arity()
	case term.TagCtr:
		return t.CtrKind().Arity()
	default:
		return 0
	}
}

type fillJob struct {
	src, dst term.Loc
}

// copyTerm deep-copies the graph reachable from t into fresh cells. Cell
// sharing is preserved through the memo table, so a shared subgraph stays
// shared inside the copy and a binder use lands on the copied slot. Ref
// leaves are copied untouched, which is what makes recursion unroll one
// knot level per force instead of diverging here. The walk is iterative,
// so definition depth never hits the Go stack, and every copied cell is
// charged against the MaxNodes budget.
func (m *Machine) copyTerm(t term.Term) (term.Term, *Error) {
	memo := make(map[term.Loc]term.Loc)
	var jobs []fillJob
	var copied uint64

	translate := func(t term.Term) (term.Term, *Error) {
		switch t.Tag {
		case term.TagNum, term.TagEra, term.TagRef:
			return t, nil
		case term.TagVar:
			slot, ok := memo[t.Loc()]
			if !ok {
				// Binders dominate their uses in frozen code, so a
				// miss means the definition was not closed.
				return term.Term{}, m.eb.corrupt("binder use outside its definition")
			}
			return term.MakeVar(slot), nil
		}
		n := blockCells(t)
		if n == 0 {
			return t, nil
		}
		src := t.Loc()
		dst, ok := memo[src]
		if !ok {
			copied += uint64(n)
			if copied > m.limits.MaxNodes {
				return term.Term{}, m.eb.copyBudget(m.limits.MaxNodes)
			}
			dst = m.heap.Alloc(n)
			memo[src] = dst
			for i := 0; i < n; i++ {
				jobs = append(jobs, fillJob{src: src + term.Loc(i), dst: dst + term.Loc(i)})
			}
		}
		out := t
		out.Pay = uint32(dst)
		return out, nil
	}

	root, err := translate(t)
	if err != nil {
		return term.Term{}, err
	}
	for len(jobs) > 0 {
		j := jobs[len(jobs)-1]
		jobs = jobs[:len(jobs)-1]
		nt, terr := translate(m.heap.Get(j.src))
		if terr != nil {
			return term.Term{}, terr
		}
		m.heap.Set(j.dst, nt)
	}
	return root, nil
}
