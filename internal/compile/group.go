package compile

import (
	"fmt"
	"slices"

	"skein/ast"
	"skein/internal/dag"
	"skein/internal/spine"
	"skein/internal/term"
)

// member is one binding of a group under compilation. dep is the tree
// scanned for references to sibling members; emit produces the bound
// term once every earlier component is in scope.
type member struct {
	name    string
	dep     *ast.Expr
	outer   bool // value resolves outside the group (inherit)
	noCycle bool // definition embeds terms a knot copy cannot carry
	emit    func() (term.Term, *Error)
}

// extraUses reports uses of a member name beyond the sibling
// definitions: a let body, an attrset result, a lambda body.
type extraUses func(name string) int

// groupTotals computes how many uses each member must supply across the
// sibling definitions and the group's consumer.
func groupTotals(members []member, extra extraUses) []int {
	totals := make([]int, len(members))
	for i, m := range members {
		n := extra(m.name)
		for _, other := range members {
			if other.outer {
				continue
			}
			n += uses(other.dep, m.name)
		}
		totals[i] = n
	}
	return totals
}

// compileGroup binds members in dependency order, then runs inner under
// the finished frame. Acyclic members get exact dup supplies; cyclic
// components become copy-on-read knots, which must stay closed over the
// group.
func (c *compiler) compileGroup(members []member, extra extraUses, inner func() (term.Term, *Error)) (term.Term, *Error) {
	if len(members) == 0 {
		return inner()
	}
	byName := make(map[string]int, len(members))
	for i, m := range members {
		if _, dup := byName[m.name]; dup {
			return term.Term{}, errDuplicate(m.name)
		}
		byName[m.name] = i
	}

	g := dag.NewGraph(len(members))
	for i, m := range members {
		if m.outer {
			continue
		}
		for name, j := range byName {
			if refs(m.dep, name) {
				g.AddEdge(dag.BindID(i), dag.BindID(j)) //nolint:gosec // G115: bounded by MaxNodes.
			}
		}
	}
	totals := groupTotals(members, extra)

	frame := newScope(c.env)
	c.env = frame
	defer func() { c.env = frame.parent }()

	for _, comp := range dag.Analyze(g) {
		if comp.Cyclic {
			if err := c.bindCycle(members, comp, g, frame); err != nil {
				return term.Term{}, err
			}
			continue
		}
		i := int(comp.Members[0])
		if err := c.bindSingle(members[i], totals[i], frame); err != nil {
			return term.Term{}, err
		}
	}
	return inner()
}

// bindSingle compiles one non-recursive member and splits it across its
// counted uses. A member nobody references is dead and never emitted.
func (c *compiler) bindSingle(m member, total int, frame *scope) *Error {
	if total == 0 {
		return nil
	}
	def, err := c.memberDef(m)
	if err != nil {
		return err
	}
	frame.vars[m.name] = &binding{outs: c.split(def, total)}
	return nil
}

// memberDef emits a member definition, hiding the group frame for
// inherits so their values resolve in the surrounding scope.
func (c *compiler) memberDef(m member) (term.Term, *Error) {
	if !m.outer {
		return m.emit()
	}
	saved := c.env
	c.env = saved.parent
	def, err := m.emit()
	c.env = saved
	return def, err
}

// bindCycle ties one strongly connected component as knots. Knot bodies
// are copied on every read, and a copy cannot follow binder uses into
// cells it does not own, so the component and everything it references
// inside the group must stay closed over the group.
func (c *compiler) bindCycle(members []member, comp dag.Component, g *dag.Graph, frame *scope) *Error {
	for _, id := range comp.Members {
		if members[id].noCycle {
			return errCapture(fmt.Sprintf("pattern field %q has a cyclic default", members[id].name))
		}
	}
	group := make(map[string]bool, len(members))
	for _, m := range members {
		group[m.name] = true
	}
	if err := c.checkClosed(members, comp, g, group); err != nil {
		return err
	}
	knots := make([]term.KnotSlot, len(comp.Members))
	for i, id := range comp.Members {
		knots[i] = c.heap.ReserveKnot()
		frame.vars[members[id].name] = &binding{kind: bindKnot, slot: knots[i].Slot()}
	}
	for i, id := range comp.Members {
		def, err := members[id].emit()
		if err != nil {
			return err
		}
		knots[i].Tie(def)
	}
	return nil
}

// checkClosed walks the definitions reachable from a cyclic component
// and rejects anything a knot copy could not carry: values captured
// from outside the group, or dynamic scope under an enclosing with.
func (c *compiler) checkClosed(members []member, comp dag.Component, g *dag.Graph, group map[string]bool) *Error {
	seen := make([]bool, len(members))
	queue := make([]dag.BindID, 0, len(comp.Members))
	for _, id := range comp.Members {
		seen[id] = true
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		m := members[id]
		if m.outer {
			return errCapture(fmt.Sprintf("recursive binding group inherits %q from outside", m.name))
		}
		fi := freeOf(m.dep)
		if fi.hasWith && len(c.withs) > 0 {
			return errCapture(fmt.Sprintf("recursive binding %q opens a with scope under another one", m.name))
		}
		for _, name := range fi.names {
			if group[name] {
				continue
			}
			b := c.env.lookup(name)
			switch {
			case b == nil && len(c.withs) > 0:
				return errCapture(fmt.Sprintf("recursive binding %q resolves %q through a with scope", m.name, name))
			case b == nil:
				return errUnbound(name)
			case b.kind != bindKnot:
				return errCapture(fmt.Sprintf("recursive binding %q captures %q", m.name, name))
			}
		}
		for _, to := range g.Edges[id] {
			if !seen[to] {
				seen[to] = true
				queue = append(queue, to)
			}
		}
	}
	return nil
}

func (c *compiler) let(d ast.LetData) (term.Term, *Error) {
	members := make([]member, len(d.Binds))
	for i, b := range d.Binds {
		b := b // per-iteration copy; emit runs after the loop and go.mod predates Go 1.22 loop scoping
		members[i] = member{
			name:  b.Name,
			dep:   b.Value,
			outer: b.FromOuter,
			emit:  func() (term.Term, *Error) { return c.expr(b.Value) },
		}
	}
	return c.compileGroup(members,
		func(name string) int { return uses(d.Body, name) },
		func() (term.Term, *Error) { return c.expr(d.Body) })
}

// recAttrs binds the group, then assembles the attrset from one use of
// each member, in source order.
func (c *compiler) recAttrs(d ast.AttrsData) (term.Term, *Error) {
	members := make([]member, len(d.Binds))
	for i, b := range d.Binds {
		b := b // per-iteration copy; emit runs after the loop and go.mod predates Go 1.22 loop scoping
		members[i] = member{
			name:  b.Name,
			dep:   b.Value,
			outer: b.FromOuter,
			emit:  func() (term.Term, *Error) { return c.expr(b.Value) },
		}
	}
	return c.compileGroup(members,
		func(string) int { return 1 },
		func() (term.Term, *Error) {
			binds := make([]spine.Bind, len(d.Binds))
			for i, b := range d.Binds {
				use, err := c.variable(b.Name)
				if err != nil {
					return term.Term{}, err
				}
				binds[i] = spine.Bind{Aux: c.names.Intern(b.Name).Aux(), Value: use}
			}
			return spine.BuildAttrs(c.heap, binds), nil
		})
}

// patternLambda lowers a set pattern. The argument value feeds the
// pattern check plus one projection per live field; defaults see their
// sibling fields, so the fields form a binding group of their own.
func (c *compiler) patternLambda(d ast.LambdaData) (term.Term, *Error) {
	patID, perr := c.addPattern(d.Pattern)
	if perr != nil {
		return term.Term{}, perr
	}
	slot := c.heap.ReserveLam()

	arg := &binding{}
	members := make([]member, 0, len(d.Pattern.Fields)+1)
	for _, f := range d.Pattern.Fields {
		f := f // per-iteration copy; emit runs after the loop and go.mod predates Go 1.22 loop scoping
		aux := c.names.Intern(f.Name).Aux()
		members = append(members, member{
			name:    f.Name,
			dep:     f.Default,
			noCycle: true,
			emit: func() (term.Term, *Error) {
				if f.Default == nil {
					return c.heap.NewMat(term.MatSel, aux, arg.take()), nil
				}
				def, err := c.expr(f.Default)
				if err != nil {
					return term.Term{}, err
				}
				return c.heap.NewMat(term.MatSelOr, aux, arg.take(), def), nil
			},
		})
	}
	if d.Param != "" {
		members = append(members, member{
			name:    d.Param,
			noCycle: true,
			emit:    func() (term.Term, *Error) { return arg.take(), nil },
		})
	}

	extra := func(name string) int { return uses(d.Body, name) }
	argK := 1
	for _, total := range groupTotals(members, extra) {
		if total > 0 {
			argK++
		}
	}
	arg.outs = c.split(slot.Var(), argK)

	out, cerr := c.compileGroup(members, extra, func() (term.Term, *Error) {
		body, err := c.expr(d.Body)
		if err != nil {
			return term.Term{}, err
		}
		return c.heap.NewMat(term.MatChk, patID, arg.take(), body), nil
	})
	if cerr != nil {
		return term.Term{}, cerr
	}
	if len(arg.outs) != 0 {
		panic(fmt.Sprintf("compile: %d argument uses left over", len(arg.outs)))
	}
	return slot.Bind(out), nil
}

// addPattern interns a pattern into the program tables.
func (c *compiler) addPattern(p *ast.Pattern) (uint32, *Error) {
	allowed := make([]uint32, 0, len(p.Fields))
	required := make([]uint32, 0, len(p.Fields))
	for _, f := range p.Fields {
		aux := c.names.Intern(f.Name).Aux()
		allowed = append(allowed, aux)
		if f.Default == nil {
			required = append(required, aux)
		}
	}
	slices.Sort(allowed)
	slices.Sort(required)
	id := len(c.patterns)
	if id >= term.MaxAux {
		return 0, errTooLarge("pattern table exceeds aux space")
	}
	c.patterns = append(c.patterns, allowed)
	c.required = append(c.required, required)
	c.open = append(c.open, p.Ellipsis)
	return uint32(id), nil //nolint:gosec // G115: bounded by MaxAux above.
}
