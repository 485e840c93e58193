package pp

import (
	"path"
	"path/filepath"
	"strings"
	"unsafe"

	"lantern/internal/vfs"
)

// LookupResult is a resolved include.
type LookupResult struct {
	Entry        *vfs.FileEntry
	SearchPath   string
	RelativePath string
	Kind         CharacteristicKind
}

type lookupKey struct {
	name     string
	angled   bool
	includer string
}

type searchDir struct {
	path string
	kind CharacteristicKind
}

// HeaderSearch resolves include names. Quoted names are looked up next to
// the including file first, then in -I directories, then in -isystem ones;
// angled names skip the includer directory.
type HeaderSearch struct {
	files *vfs.FileManager
	dirs  []searchDir
	cache map[lookupKey]lookupEntry
	hits  int
}

type lookupEntry struct {
	res LookupResult
	ok  bool
}

func NewHeaderSearch(files *vfs.FileManager, userDirs, systemDirs []string) *HeaderSearch {
	hs := &HeaderSearch{files: files, cache: make(map[lookupKey]lookupEntry)}
	for _, d := range userDirs {
		hs.dirs = append(hs.dirs, searchDir{path: vfs.Clean(d), kind: User})
	}
	for _, d := range systemDirs {
		hs.dirs = append(hs.dirs, searchDir{path: vfs.Clean(d), kind: System})
	}
	return hs
}

// SearchDirs returns the configured directories in lookup order.
func (hs *HeaderSearch) SearchDirs() []string {
	out := make([]string, len(hs.dirs))
	for i, d := range hs.dirs {
		out[i] = d.path
	}
	return out
}

// IsSystemDir reports whether dir was given with -isystem.
func (hs *HeaderSearch) IsSystemDir(dir string) bool {
	dir = vfs.Clean(dir)
	for _, d := range hs.dirs {
		if d.path == dir {
			return d.kind == System
		}
	}
	return false
}

// Lookup resolves name as written. includerDir is the directory of the
// including buffer ("" for synthetic buffers); includerKind is inherited by
// files found next to the includer.
func (hs *HeaderSearch) Lookup(name string, angled bool, includerDir string, includerKind CharacteristicKind) (LookupResult, bool) {
	key := lookupKey{name: name, angled: angled, includer: includerDir}
	if e, ok := hs.cache[key]; ok {
		hs.hits++
		return e.res, e.ok
	}
	res, ok := hs.lookup(name, angled, includerDir, includerKind)
	hs.cache[key] = lookupEntry{res: res, ok: ok}
	return res, ok
}

func (hs *HeaderSearch) lookup(name string, angled bool, includerDir string, includerKind CharacteristicKind) (LookupResult, bool) {
	if filepath.IsAbs(name) {
		if e, err := hs.files.GetFile(name); err == nil {
			return LookupResult{Entry: e, SearchPath: "", RelativePath: name, Kind: User}, true
		}
		return LookupResult{}, false
	}
	if !angled && includerDir != "" {
		if e, err := hs.files.GetFile(path.Join(includerDir, name)); err == nil {
			return LookupResult{Entry: e, SearchPath: includerDir, RelativePath: name, Kind: includerKind}, true
		}
	}
	for _, d := range hs.dirs {
		if e, err := hs.files.GetFile(path.Join(d.path, name)); err == nil {
			return LookupResult{Entry: e, SearchPath: d.path, RelativePath: name, Kind: d.kind}, true
		}
	}
	return LookupResult{}, false
}

// SuggestPathToFile returns the shortest spelling that would include file
// from the configured directories, and whether that directory is a system one.
func (hs *HeaderSearch) SuggestPathToFile(file, mainDir string) (spelled string, system bool) {
	file = vfs.Clean(file)
	best := ""
	for _, d := range hs.dirs {
		if rel, ok := relUnder(file, d.path); ok && (best == "" || len(rel) < len(best)) {
			best, system = rel, d.kind == System
		}
	}
	if mainDir != "" {
		if rel, ok := relUnder(file, vfs.Clean(mainDir)); ok && (best == "" || len(rel) < len(best)) {
			best, system = rel, false
		}
	}
	if best == "" {
		return file, false
	}
	return best, system
}

func relUnder(file, dir string) (string, bool) {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	if !strings.HasPrefix(file, prefix) {
		return "", false
	}
	return file[len(prefix):], true
}

// MemoryUsage approximates the bytes held by the lookup cache.
func (hs *HeaderSearch) MemoryUsage() uint64 {
	var n uint64
	for k := range hs.cache {
		n += uint64(len(k.name)+len(k.includer)) + uint64(unsafe.Sizeof(lookupEntry{}))
	}
	for _, d := range hs.dirs {
		n += uint64(len(d.path))
	}
	return n
}
