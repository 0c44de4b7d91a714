// Package intern provides stable dense ids for attribute and variable
// names. Ids fit the 24-bit aux field of dispatch and binding terms, so a
// name comparison during spine search is one integer compare.
package intern

import (
	"fmt"

	"fortio.org/safecast"
	"skein/internal/term"
)

// NameID identifies an interned name. 0 is reserved as "no name".
type NameID uint32

// NoName is the reserved invalid id.
const NoName NameID = 0

// Table interns names for one program.
type Table struct {
	byName map[string]NameID
	names  []string
}

// NewTable returns an empty table with id 0 reserved.
func NewTable() *Table {
	t := &Table{byName: make(map[string]NameID, 64)}
	t.names = append(t.names, "")
	return t
}

// FromNames rebuilds a table from a frozen name list, as stored in a
// program snapshot. The first entry must be the reserved empty name.
func FromNames(names []string) (*Table, error) {
	if len(names) == 0 || names[0] != "" {
		return nil, fmt.Errorf("intern: malformed name list")
	}
	t := &Table{
		byName: make(map[string]NameID, len(names)),
		names:  append([]string(nil), names...),
	}
	for i := 1; i < len(names); i++ {
		id := NameID(uint32(i)) //nolint:gosec // G115: bounded by MaxAux below.
		if _, dup := t.byName[names[i]]; dup {
			return nil, fmt.Errorf("intern: duplicate name %q", names[i])
		}
		t.byName[names[i]] = id
	}
	if len(names) > term.MaxAux {
		return nil, fmt.Errorf("intern: name list exceeds aux space")
	}
	return t, nil
}

// Intern ensures name has a stable id.
func (t *Table) Intern(name string) NameID {
	if id, ok := t.byName[name]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(t.names))
	if err != nil || n > term.MaxAux {
		panic(fmt.Errorf("intern: name table overflow at %q", name))
	}
	id := NameID(n)
	t.names = append(t.names, name)
	t.byName[name] = id
	return id
}

// Get returns the id of an already interned name, or NoName.
func (t *Table) Get(name string) NameID {
	return t.byName[name]
}

// Lookup returns the name for an id.
func (t *Table) Lookup(id NameID) (string, bool) {
	if id == NoName || int(id) >= len(t.names) {
		return "", false
	}
	return t.names[id], true
}

// Len returns the number of interned names, counting the reserved slot.
func (t *Table) Len() int {
	return len(t.names)
}

// Names returns a copy of the frozen name list for snapshotting.
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Aux converts an id into the aux field encoding.
func (id NameID) Aux() uint32 {
	return uint32(id)
}
