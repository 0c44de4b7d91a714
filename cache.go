package skein

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"skein/internal/term"
)

// cacheSchema versions the snapshot layout. Bump when the program or
// cell encoding changes; older entries then read as misses.
const cacheSchema uint16 = 1

// ProgramCache stores compiled programs keyed by expression
// fingerprint: a memory layer for repeats within a process, one msgpack
// snapshot per program on disk for reuse across processes. Safe for
// concurrent use, and a nil cache is a no-op.
type ProgramCache struct {
	mu  sync.RWMutex
	dir string
	mem map[[sha256.Size]byte]*Program
}

// OpenProgramCache initializes a cache rooted at dir. An empty dir
// picks the standard user cache location.
func OpenProgramCache(dir string) (*ProgramCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "skein")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ProgramCache{dir: dir, mem: make(map[[sha256.Size]byte]*Program)}, nil
}

func (c *ProgramCache) pathFor(key [sha256.Size]byte) string {
	return filepath.Join(c.dir, hex.EncodeToString(key[:])+".mp")
}

// Get returns the cached program for a fingerprint. Disk problems read
// as misses; a cache can only ever cost a recompile.
func (c *ProgramCache) Get(key [sha256.Size]byte) (*Program, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	prog, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		return prog, true
	}

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		return nil, false
	}
	defer f.Close()
	var snap programSnapshot
	if err := msgpack.NewDecoder(f).Decode(&snap); err != nil {
		return nil, false
	}
	prog, ok = snap.program()
	if !ok {
		return nil, false
	}
	c.mu.Lock()
	c.mem[key] = prog
	c.mu.Unlock()
	return prog, true
}

// Put stores a program under a fingerprint, atomically replacing any
// previous snapshot.
func (c *ProgramCache) Put(key [sha256.Size]byte, prog *Program) error {
	if c == nil || prog == nil {
		return nil
	}
	c.mu.Lock()
	c.mem[key] = prog
	c.mu.Unlock()

	f, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(f).Encode(snapshotProgram(prog)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), c.pathFor(key)); err != nil {
		os.Remove(f.Name())
		return err
	}
	return nil
}

// DropAll invalidates everything, memory and disk.
func (c *ProgramCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem = make(map[[sha256.Size]byte]*Program)
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// programSnapshot is the disk form of a compiled program. Cells flatten
// into parallel arrays; a map per cell would triple the snapshot size.
type programSnapshot struct {
	Schema   uint16
	Root     uint32
	Labels   uint32
	Names    []string
	Patterns [][]uint32
	Required [][]uint32
	Open     []bool
	Tags     []uint8
	Exts     []uint32
	Pays     []uint32
}

func snapshotProgram(p *Program) *programSnapshot {
	s := &programSnapshot{
		Schema:   cacheSchema,
		Root:     uint32(p.Root),
		Labels:   p.Labels,
		Names:    p.Names,
		Patterns: p.Patterns,
		Required: p.Required,
		Open:     p.Open,
		Tags:     make([]uint8, len(p.Code)),
		Exts:     make([]uint32, len(p.Code)),
		Pays:     make([]uint32, len(p.Code)),
	}
	for i, t := range p.Code {
		s.Tags[i] = uint8(t.Tag)
		s.Exts[i] = t.Ext
		s.Pays[i] = t.Pay
	}
	return s
}

// program validates and rebuilds a snapshot. Anything that fails a
// check reads as a miss; the machine's own graph guards cover what
// shape checks here cannot.
func (s *programSnapshot) program() (*Program, bool) {
	if s.Schema != cacheSchema {
		return nil, false
	}
	n := len(s.Tags)
	if len(s.Exts) != n || len(s.Pays) != n {
		return nil, false
	}
	if len(s.Required) != len(s.Patterns) || len(s.Open) != len(s.Patterns) {
		return nil, false
	}
	if s.Root == 0 || uint64(s.Root) > uint64(n) {
		return nil, false
	}
	code := make([]term.Term, n)
	for i := range code {
		code[i] = term.Term{Tag: term.Tag(s.Tags[i]), Ext: s.Exts[i], Pay: s.Pays[i]}
	}
	return &Program{
		Code:     code,
		Root:     term.Loc(s.Root),
		Names:    s.Names,
		Patterns: s.Patterns,
		Required: s.Required,
		Open:     s.Open,
		Labels:   s.Labels,
	}, true
}
