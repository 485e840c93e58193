package lsp

import (
	"unicode/utf8"

	"fortio.org/safecast"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// applyChanges applies whole-document and ranged changes in order.
func applyChanges(text string, changes []any) string {
	for _, change := range changes {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				text = c.Text
				continue
			}
			start := offsetForPosition(text, c.Range.Start)
			end := offsetForPosition(text, c.Range.End)
			if end < start {
				end = start
			}
			text = text[:start] + c.Text + text[end:]
		}
	}
	return text
}

// offsetForPosition converts a UTF-16 based position to a byte offset,
// clamped to the text.
func offsetForPosition(text string, pos protocol.Position) int {
	line := protocol.UInteger(0)
	i := 0
	for i < len(text) && line < pos.Line {
		if text[i] == '\n' {
			line++
		}
		i++
	}
	if line < pos.Line {
		return len(text)
	}
	units := protocol.UInteger(0)
	for i < len(text) && text[i] != '\n' {
		r, size := utf8.DecodeRuneInString(text[i:])
		need := protocol.UInteger(1)
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		i += size
	}
	return i
}

// positionForOffset converts a byte offset to a UTF-16 based position.
func positionForOffset(text string, off uint32) protocol.Position {
	n := len(text)
	if int(off) < n {
		n = int(off)
	}
	var pos protocol.Position
	lineStart := 0
	for i := 0; i < n; i++ {
		if text[i] == '\n' {
			pos.Line++
			lineStart = i + 1
		}
	}
	units := 0
	for i := lineStart; i < n; {
		r, size := utf8.DecodeRuneInString(text[i:n])
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		i += size
	}
	pos.Character = toUInteger(units)
	return pos
}

func rangeForOffsets(text string, start, end uint32) protocol.Range {
	if end < start {
		end = start
	}
	return protocol.Range{Start: positionForOffset(text, start), End: positionForOffset(text, end)}
}

func rangesOverlap(a, b protocol.Range) bool {
	return !before(a.End, b.Start) && !before(b.End, a.Start)
}

func before(a, b protocol.Position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Character < b.Character)
}

func toUInteger(n int) protocol.UInteger {
	v, err := safecast.Conv[protocol.UInteger](n)
	if err != nil {
		return ^protocol.UInteger(0)
	}
	return v
}
