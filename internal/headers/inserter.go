package headers

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"lantern/internal/diag"
	"lantern/internal/pp"
	"lantern/internal/source"
	"lantern/internal/vfs"

	"fortio.org/safecast"
)

// IncludeInserter decides whether and how to add an #include to the main
// file.
type IncludeInserter struct {
	fileName string
	code     []byte
	search   *pp.HeaderSearch
	buildDir string

	resolved map[string]bool
	written  map[string]bool
	last     *Inclusion
}

// NewIncludeInserter creates an inserter for fileName with content code.
// search may be nil, then only verbatim headers can be spelled.
func NewIncludeInserter(fileName string, code []byte, search *pp.HeaderSearch, buildDir string) *IncludeInserter {
	return &IncludeInserter{
		fileName: vfs.Clean(fileName),
		code:     code,
		search:   search,
		buildDir: buildDir,
		resolved: make(map[string]bool),
		written:  make(map[string]bool),
	}
}

// AddExisting tells the inserter about an include already in the file.
func (ii *IncludeInserter) AddExisting(inc Inclusion) {
	if inc.Resolved != "" {
		ii.resolved[vfs.Clean(inc.Resolved)] = true
	}
	ii.written[inc.Written] = true
	if ii.last == nil || inc.HashOffset > ii.last.HashOffset {
		c := inc
		ii.last = &c
	}
}

// CalculateIncludePath spells header as it would appear after #include.
// Literal spellings ("<x.h>", "\"x.h\"") are returned unchanged; absolute
// paths are made relative to the closest search directory.
func (ii *IncludeInserter) CalculateIncludePath(header string) (string, bool) {
	if IsLiteralInclude(header) {
		return header, true
	}
	if !path.IsAbs(header) || ii.search == nil {
		return "", false
	}
	spelled, system := ii.search.SuggestPathToFile(header, path.Dir(ii.fileName))
	if spelled == vfs.Clean(header) {
		return "", false
	}
	if system {
		return "<" + spelled + ">", true
	}
	return `"` + spelled + `"`, true
}

// ShouldInsertInclude reports whether the symbol declared in
// declaringHeader needs inserted (a spelled include) to become visible.
func (ii *IncludeInserter) ShouldInsertInclude(declaringHeader, inserted string) bool {
	if declaringHeader != "" && !IsLiteralInclude(declaringHeader) {
		h := vfs.Clean(declaringHeader)
		if h == ii.fileName || ii.resolved[h] {
			return false
		}
	}
	return !ii.written[inserted]
}

// Insert returns the edit adding `#include verbatim` after the last
// existing include, or at the top of the file.
func (ii *IncludeInserter) Insert(verbatim string) diag.FixEdit {
	off := uint32(0)
	if ii.last != nil {
		off = ii.lineEnd(ii.last.HashOffset)
	}
	lc := ii.position(off)
	return diag.FixEdit{
		Range: diag.Range{
			Path:     ii.fileName,
			StartOff: off,
			EndOff:   off,
			Start:    lc,
			End:      lc,
		},
		NewText: "#include " + verbatim + "\n",
	}
}

// lineEnd returns the offset just past the newline ending the line at off.
func (ii *IncludeInserter) lineEnd(off uint32) uint32 {
	if int(off) >= len(ii.code) {
		return u32(len(ii.code))
	}
	i := bytes.IndexByte(ii.code[off:], '\n')
	if i < 0 {
		return u32(len(ii.code))
	}
	return off + u32(i) + 1
}

func (ii *IncludeInserter) position(off uint32) source.LineCol {
	if int(off) > len(ii.code) {
		off = u32(len(ii.code))
	}
	before := ii.code[:off]
	line := u32(bytes.Count(before, []byte{'\n'})) + 1
	col := off + 1
	if i := bytes.LastIndexByte(before, '\n'); i >= 0 {
		col = off - u32(i)
	}
	return source.LineCol{Line: line, Col: col}
}

// StripIncludeQuotes returns the header name inside a spelling.
func StripIncludeQuotes(spelled string) string {
	return strings.Trim(spelled, `<>"`)
}

func u32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("headers: offset overflow: %w", err))
	}
	return v
}
