package preamble

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"lantern/internal/canon"
	"lantern/internal/diag"
	"lantern/internal/frontend"
	"lantern/internal/headers"
	"lantern/internal/lexer"
	"lantern/internal/macros"
	"lantern/internal/pp"
	"lantern/internal/sema"
	"lantern/internal/vfs"
)

// storeSchemaVersion меняется при любом изменении формата payload
const storeSchemaVersion uint16 = 2

// Store keeps snapshots on disk keyed by PrecompiledPrefix.Hash.
// Thread-safe for concurrent access.
type Store struct {
	mu  sync.RWMutex
	dir string
}

type statRecord struct {
	Name    string
	Size    int64
	ModTime time.Time
}

type edgeRecord struct {
	From string
	To   []string
}

type payload struct {
	Schema uint16

	Path       string
	Hash       string
	BoundsSize uint32
	BoundsEOL  bool

	Macros  []pp.MacroDefinition
	Symbols []sema.Symbol

	Includes    []headers.Inclusion
	Edges       []edgeRecord
	MacroRanges []macros.Occurrence
	Diags       []diag.Diagnostic
	CanonPaths  map[string]string
	Stats       []statRecord
}

// OpenStore opens (creating if needed) a store under dir. An empty dir
// selects $XDG_CACHE_HOME/lantern/preamble.
func OpenStore(dir string) (*Store, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "lantern", "preamble")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory holding the entries.
func (s *Store) Dir() string { return s.dir }

func (s *Store) pathFor(hash string) string {
	// подкаталог по первым двум символам, чтобы не держать всё в одной папке
	if len(hash) < 2 {
		return filepath.Join(s.dir, hash+".mp")
	}
	return filepath.Join(s.dir, hash[:2], hash+".mp")
}

// Put serializes a snapshot.
func (s *Store) Put(snap *Snapshot) error {
	if s == nil || snap == nil || snap.Prefix == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pathFor(snap.Prefix.Hash)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Warningf("failed to remove temp file %s: %s", tmp, rmErr)
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(toPayload(snap)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// атомарная замена
	return os.Rename(tmp, p)
}

// Get loads the snapshot stored under hash. A missing entry or one written
// by another schema version is reported as not found.
func (s *Store) Get(hash string, inv *frontend.Invocation) (*Snapshot, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.pathFor(hash))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()
	var pl payload
	if err := msgpack.NewDecoder(f).Decode(&pl); err != nil {
		return nil, false, err
	}
	if pl.Schema != storeSchemaVersion || pl.Hash != hash {
		return nil, false, nil
	}
	return fromPayload(&pl, inv), true, nil
}

// DropAll removes every entry.
func (s *Store) DropAll() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(s.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

func toPayload(snap *Snapshot) *payload {
	pl := &payload{
		Schema:      storeSchemaVersion,
		Path:        snap.Path,
		Hash:        snap.Prefix.Hash,
		BoundsSize:  snap.Prefix.Bounds.Size,
		BoundsEOL:   snap.Prefix.Bounds.EndsAtStartOfLine,
		Symbols:     snap.Prefix.Symbols,
		Includes:    snap.Includes.MainFileIncludes,
		MacroRanges: snap.Macros.Ranges,
		Diags:       snap.Diags,
		CanonPaths:  snap.CanonIncludes.PathMappings(),
	}
	for _, m := range snap.Prefix.Macros {
		pl.Macros = append(pl.Macros, *m)
	}
	for _, from := range snap.Includes.Files() {
		if to := snap.Includes.Includes(from); len(to) > 0 {
			pl.Edges = append(pl.Edges, edgeRecord{From: from, To: to})
		}
	}
	for _, name := range snap.StatCache.Keys() {
		st, _ := snap.StatCache.Lookup(name)
		pl.Stats = append(pl.Stats, statRecord{Name: name, Size: st.Size, ModTime: st.ModTime})
	}
	return pl
}

func fromPayload(pl *payload, inv *frontend.Invocation) *Snapshot {
	prefix := &PrecompiledPrefix{
		Bounds:  lexer.Bounds{Size: pl.BoundsSize, EndsAtStartOfLine: pl.BoundsEOL},
		Symbols: pl.Symbols,
		Hash:    pl.Hash,
	}
	for i := range pl.Macros {
		prefix.Macros = append(prefix.Macros, &pl.Macros[i])
	}
	includes := headers.NewIncludeStructure()
	includes.MainFileIncludes = pl.Includes
	for _, e := range pl.Edges {
		for _, to := range e.To {
			includes.AddEdge(e.From, to)
		}
	}
	mm := macros.New()
	for _, o := range pl.MacroRanges {
		mm.Add(o)
	}
	canonical := canon.New()
	canonical.AddSystemHeadersMapping(inv.Lang)
	for path, h := range pl.CanonPaths {
		canonical.AddMapping(path, h)
	}
	stats := vfs.NewStatCache(0)
	for _, st := range pl.Stats {
		stats.Restore(vfs.Status{Name: st.Name, Size: st.Size, ModTime: st.ModTime})
	}
	return &Snapshot{
		Path:          pl.Path,
		Prefix:        prefix,
		Includes:      includes,
		Macros:        mm,
		Diags:         pl.Diags,
		CanonIncludes: canonical,
		StatCache:     stats,
	}
}
