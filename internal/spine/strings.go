package spine

import (
	"fmt"

	"fortio.org/safecast"
	"skein/internal/term"
)

// Strings pack four bytes per word, little-endian, the last word
// zero-padded. The byte length rides in the first field so it never has to
// be recomputed from the spine.

// BuildString builds the string value for s.
func BuildString(h *term.Heap, s string) term.Term {
	tail := term.MakeCtr(term.CtNil, 0, term.NoLoc)
	words := packWords(s)
	for i := len(words) - 1; i >= 0; i-- {
		tail = h.NewCtr(term.CtCons, 0, term.MakeNumBits(words[i]), tail)
	}
	n, err := safecast.Conv[int32](len(s))
	if err != nil {
		panic(fmt.Errorf("spine: string length overflow: %w", err))
	}
	return h.NewCtr(term.CtStr, 0, term.MakeNum(n), tail)
}

// DecodeString reads a fully constructed string value back into a Go
// string. Word count must match the byte length exactly.
func DecodeString(h *term.Heap, t term.Term) (string, bool) {
	if t.Tag != term.TagCtr || t.CtrKind() != term.CtStr {
		return "", false
	}
	if !h.Valid(t.Loc()) {
		return "", false
	}
	lenCell := h.Get(t.Loc())
	if lenCell.Tag != term.TagNum || lenCell.Num() < 0 {
		return "", false
	}
	n := int(lenCell.Num())

	var words []uint32
	cell := h.Get(t.Loc() + 1)
	for {
		if cell.Tag != term.TagCtr {
			return "", false
		}
		if cell.CtrKind() == term.CtNil {
			break
		}
		if cell.CtrKind() != term.CtCons || !h.Valid(cell.Loc()+1) {
			return "", false
		}
		word := h.Get(cell.Loc())
		if word.Tag != term.TagNum {
			return "", false
		}
		words = append(words, word.NumBits())
		cell = h.Get(cell.Loc() + 1)
	}
	if len(words) != (n+3)/4 {
		return "", false
	}

	buf := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		buf = append(buf, byte(words[i/4]>>(8*uint(i%4))))
	}
	return string(buf), true
}

// StrLen reads the cached byte length of a string value.
func StrLen(h *term.Heap, t term.Term) (int64, bool) {
	if t.Tag != term.TagCtr || t.CtrKind() != term.CtStr {
		return 0, false
	}
	if !h.Valid(t.Loc()) {
		return 0, false
	}
	lenCell := h.Get(t.Loc())
	if lenCell.Tag != term.TagNum || lenCell.Num() < 0 {
		return 0, false
	}
	return int64(lenCell.Num()), true
}

func packWords(s string) []uint32 {
	if len(s) == 0 {
		return nil
	}
	words := make([]uint32, (len(s)+3)/4)
	for i := 0; i < len(s); i++ {
		words[i/4] |= uint32(s[i]) << (8 * uint(i%4))
	}
	return words
}
