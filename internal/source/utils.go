package source

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"

	"fortio.org/safecast"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// normalizeCRLF turns every "\r\n" into "\n". A lone '\r' is kept.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !bytes.Contains(content, []byte("\r\n")) {
		return content, false
	}
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n")), true
}

func removeBOM(content []byte) ([]byte, bool) {
	return bytes.CutPrefix(content, utf8BOM)
}

// buildLineIndex records the offset of every '\n'.
func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for off := 0; ; {
		i := bytes.IndexByte(content[off:], '\n')
		if i < 0 {
			return out
		}
		off += i
		out = append(out, uint32(off)) //nolint:gosec // буферы меньше 4 GiB
		off++
	}
}

// toLineCol resolves off against a line index. Both results are 1-based
// and columns count bytes.
func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// число переводов строки строго до off
	k, _ := slices.BinarySearch(lineIdx, off)
	var lineStart uint32
	if k > 0 {
		lineStart = lineIdx[k-1] + 1
	}
	line, err := safecast.Conv[uint32](k + 1)
	if err != nil {
		panic(fmt.Errorf("line overflow: %w", err))
	}
	return LineCol{Line: line, Col: off - lineStart + 1}
}

// normalizePath is the key files are indexed by.
func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
