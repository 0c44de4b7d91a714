package compile

import "skein/internal/term"

// bindKind distinguishes how a variable use materializes.
type bindKind uint8

const (
	// bindShared hands out pre-split halves of a dup chain, one per
	// counted use.
	bindShared bindKind = iota
	// bindKnot mints a fresh copy-on-read reference per use.
	bindKnot
)

// binding is one name visible to the code under compilation.
type binding struct {
	kind bindKind
	outs []term.Term // bindShared: remaining uses, consumed in order
	slot term.Loc    // bindKnot: the knot cell
}

// take consumes the next use of a shared binding. Running dry means the
// counting walk and the emitters disagree about scoping, which is a bug,
// not an input error.
func (b *binding) take() term.Term {
	if len(b.outs) == 0 {
		panic("compile: use supply exhausted")
	}
	t := b.outs[0]
	b.outs = b.outs[1:]
	return t
}

// scope is one frame of the static environment.
type scope struct {
	parent *scope
	vars   map[string]*binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]*binding, 4)}
}

// lookup resolves a name through the frame chain.
func (s *scope) lookup(name string) *binding {
	for f := s; f != nil; f = f.parent {
		if b, ok := f.vars[name]; ok {
			return b
		}
	}
	return nil
}

// withFrame records one dynamic scope. The cascade cells that will hold
// a use of the scope value are collected while the body compiles and
// patched with dup chain halves afterwards, which sizes the chain
// exactly without a counting pre-pass.
type withFrame struct {
	sites []term.Loc
}
