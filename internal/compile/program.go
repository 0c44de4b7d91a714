// Package compile turns host expression trees into term programs: it
// decides compilability, counts uses, inserts duplication, orders binding
// groups, and emits the frozen code image the reduction machine runs.
package compile

import (
	"fmt"
	"sort"

	"skein/internal/term"
)

// Program is a frozen compiled expression. Running one never mutates it,
// so a program may be evaluated repeatedly and shared across machines.
type Program struct {
	// Code is the term image. A machine copies it into its own arena
	// before reducing, since reduction overwrites cells in place.
	Code []term.Term
	// Root locates the cell holding the result term.
	Root term.Loc
	// Names maps interned name ids to their spellings; index 0 is the
	// reserved empty name.
	Names []string
	// Patterns holds, per pattern id, the sorted name ids a strict
	// pattern lambda accepts.
	Patterns [][]uint32
	// Required holds, per pattern id, the sorted name ids that must be
	// present in the argument. Always a subset of Patterns[id].
	Required [][]uint32
	// Open marks ellipsis patterns, which admit attributes beyond
	// Patterns[id].
	Open []bool
	// Labels is the number of dup labels the compiler minted. Machines
	// never mint labels, so reusing a program can never collide.
	Labels uint32
}

// Name returns the spelling of a name id, or a placeholder for ids the
// program does not know.
func (p *Program) Name(aux uint32) string {
	if p == nil || aux == 0 || int(aux) >= len(p.Names) {
		return fmt.Sprintf("name#%d", aux)
	}
	return p.Names[aux]
}

// PatternAllows reports whether pattern id admits the given attribute name.
func (p *Program) PatternAllows(id, aux uint32) bool {
	if p == nil || int(id) >= len(p.Patterns) {
		return false
	}
	allowed := p.Patterns[id]
	i := sort.Search(len(allowed), func(i int) bool { return allowed[i] >= aux })
	return i < len(allowed) && allowed[i] == aux
}

// PatternRequired returns the sorted name ids pattern id insists on.
func (p *Program) PatternRequired(id uint32) []uint32 {
	if p == nil || int(id) >= len(p.Required) {
		return nil
	}
	return p.Required[id]
}

// PatternOpen reports whether pattern id carries an ellipsis.
func (p *Program) PatternOpen(id uint32) bool {
	return p != nil && int(id) < len(p.Open) && p.Open[id]
}

// Cells returns the code image size.
func (p *Program) Cells() int {
	if p == nil {
		return 0
	}
	return len(p.Code)
}
