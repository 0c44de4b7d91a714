// Package dag analyzes the reference graph of one binding group and
// returns its strongly connected components in dependency order, each one
// tagged as acyclic or cyclic. Code generation binds components in the
// returned order and switches to the recursive strategy for cyclic ones.
package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// BindID indexes a binding within its group, in source order.
type BindID uint32

// Graph holds the reference edges of one binding group.
// Edges[from] lists the bindings that from's definition references.
type Graph struct {
	Edges [][]BindID
}

// NewGraph returns a graph over n bindings with no edges.
func NewGraph(n int) *Graph {
	return &Graph{Edges: make([][]BindID, n)}
}

// AddEdge records that from's definition references to. Duplicate edges
// are collapsed.
func (g *Graph) AddEdge(from, to BindID) {
	for _, w := range g.Edges[from] {
		if w == to {
			return
		}
	}
	g.Edges[from] = append(g.Edges[from], to)
}

// Component is one strongly connected component of the group.
type Component struct {
	Members []BindID // ascending
	Cyclic  bool     // multi-member, or a single binding referencing itself
}

// Analyze returns the components in dependency order: every edge out of a
// later component lands in an earlier one, so binding the components in
// order always has definitions available before their uses. The order is
// deterministic for a given graph.
func Analyze(g *Graph) []Component {
	n := len(g.Edges)
	if n == 0 {
		return nil
	}
	if _, err := safecast.Conv[int32](n); err != nil {
		panic(fmt.Errorf("dag: binding group overflow: %w", err))
	}
	for from := range g.Edges {
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}

	t := &tarjan{
		g:       g,
		index:   make([]int32, n),
		lowlink: make([]int32, n),
		onStack: make([]bool, n),
	}
	for v := range t.index {
		t.index[v] = -1
	}
	for v := 0; v < n; v++ {
		if t.index[v] == -1 {
			t.connect(BindID(uint32(v))) //nolint:gosec // G115: n checked above.
		}
	}
	return t.out
}

type tarjan struct {
	g       *Graph
	index   []int32
	lowlink []int32
	onStack []bool
	stack   []BindID
	next    int32
	out     []Component
}

type frame struct {
	v  BindID
	ei int
}

// connect runs one Tarjan root iteratively; binding groups are user-sized,
// so the traversal carries its own stack.
func (t *tarjan) connect(root BindID) {
	t.visit(root)
	frames := []frame{{v: root}}

	for len(frames) > 0 {
		f := &frames[len(frames)-1]
		edges := t.g.Edges[f.v]

		if f.ei < len(edges) {
			w := edges[f.ei]
			f.ei++
			switch {
			case t.index[w] == -1:
				t.visit(w)
				frames = append(frames, frame{v: w})
			case t.onStack[w]:
				if t.index[w] < t.lowlink[f.v] {
					t.lowlink[f.v] = t.index[w]
				}
			}
			continue
		}

		v := f.v
		if t.lowlink[v] == t.index[v] {
			t.pop(v)
		}
		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			parent := frames[len(frames)-1].v
			if t.lowlink[v] < t.lowlink[parent] {
				t.lowlink[parent] = t.lowlink[v]
			}
		}
	}
}

func (t *tarjan) visit(v BindID) {
	t.index[v] = t.next
	t.lowlink[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true
}

// pop collects the finished component rooted at v.
func (t *tarjan) pop(v BindID) {
	var members []BindID
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		members = append(members, w)
		if w == v {
			break
		}
	}
	slices.Sort(members)

	cyclic := len(members) > 1
	if !cyclic {
		for _, w := range t.g.Edges[members[0]] {
			if w == members[0] {
				cyclic = true
				break
			}
		}
	}
	t.out = append(t.out, Component{Members: members, Cyclic: cyclic})
}
