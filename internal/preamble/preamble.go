// Package preamble builds and caches the analyzed head of a main file so
// that later builds of the same file only reprocess what follows it.
//
// A Snapshot is immutable once Build returns it. Any number of concurrent
// builds may read the same snapshot; it stays alive as long as one of them
// holds it. Builds that want to extend a snapshot's tables Clone them.
package preamble

import (
	"crypto/sha256"
	"encoding/hex"
	"unsafe"

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

// PrecompiledPrefix is the reusable parse state of the preamble region.
type PrecompiledPrefix struct {
	Bounds  lexer.Bounds
	Macros  []*pp.MacroDefinition
	Symbols []sema.Symbol
	// Hash digests the preamble text and the invocation fingerprint.
	Hash string
}

// Handle returns the view of the prefix a front-end session resumes from.
func (p *PrecompiledPrefix) Handle() *frontend.Prefix {
	if p == nil {
		return nil
	}
	return &frontend.Prefix{Bounds: p.Bounds, Macros: p.Macros, Symbols: p.Symbols}
}

// Snapshot is the published result of a preamble build.
type Snapshot struct {
	Path          string
	Prefix        *PrecompiledPrefix
	Includes      *headers.IncludeStructure
	Macros        *macros.MainFileMacros
	Diags         []diag.Diagnostic
	CanonIncludes *canon.CanonicalIncludes
	StatCache     *vfs.StatCache
}

// Digest keys a preamble by its text and the invocation it was built with.
func Digest(head []byte, inv *frontend.Invocation) string {
	h := sha256.New()
	h.Write([]byte(inv.Fingerprint()))
	h.Write([]byte{0})
	h.Write(head)
	return hex.EncodeToString(h.Sum(nil))
}

// CanReuse reports whether the snapshot still describes the head of
// content under inv. With a non-nil fsys it also checks that no file the
// preamble included changed size or modification time since it was built.
func (s *Snapshot) CanReuse(content []byte, inv *frontend.Invocation, fsys vfs.FileSystem) bool {
	if s == nil || s.Prefix == nil || inv == nil {
		return false
	}
	b := lexer.ComputePreambleBounds(content)
	if b != s.Prefix.Bounds || int(b.Size) > len(content) {
		return false
	}
	if Digest(content[:b.Size], inv) != s.Prefix.Hash {
		return false
	}
	if fsys == nil {
		return true
	}
	for _, name := range s.Includes.Files() {
		if name == s.Path {
			continue
		}
		was, ok := s.StatCache.Lookup(name)
		if !ok {
			continue
		}
		now, err := fsys.Stat(name)
		if err != nil || now.Size != was.Size || !now.ModTime.Equal(was.ModTime) {
			log.Debugf("preamble of %s is stale: %s changed", s.Path, name)
			return false
		}
	}
	return true
}

// DependsOn reports whether the preamble entered the file at path. The
// main file itself is not a dependency.
func (s *Snapshot) DependsOn(path string) bool {
	path = vfs.Clean(path)
	if path == s.Path {
		return false
	}
	for _, name := range s.Includes.Files() {
		if name == path {
			return true
		}
	}
	return false
}

// MemoryUsage approximates the bytes the snapshot keeps alive.
func (s *Snapshot) MemoryUsage() uint64 {
	if s == nil {
		return 0
	}
	n := uint64(unsafe.Sizeof(*s))
	if s.Prefix != nil {
		for _, m := range s.Prefix.Macros {
			n += uint64(len(m.Name)) + uint64(len(m.Body))*uint64(unsafe.Sizeof(m.Body[0]))
		}
		for _, sym := range s.Prefix.Symbols {
			n += uint64(len(sym.Name)+len(sym.Type)) + uint64(unsafe.Sizeof(sym))
		}
	}
	n += s.Includes.MemoryUsage() + s.Macros.MemoryUsage() + s.CanonIncludes.MemoryUsage()
	n += uint64(cap(s.Diags)) * uint64(unsafe.Sizeof(diag.Diagnostic{}))
	return n
}
