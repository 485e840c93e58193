package lexer

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"lantern/internal/source"
)

// Cursor is a byte position in a buffer. Lexers started inside a buffer
// (preamble scans, directive re-lexing) share the same cursor type.
type Cursor struct {
	File *source.File
	Off  uint32
	// Limit is the exclusive upper bound for Off.
	Limit uint32
}

// NewCursor creates a cursor at the start of f.
func NewCursor(f *source.File) Cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return Cursor{File: f, Limit: limit}
}

// NewCursorAt creates a cursor positioned at off, clamped to the end of f.
func NewCursorAt(f *source.File, off uint32) Cursor {
	c := NewCursor(f)
	c.Off = min(off, c.Limit)
	return c
}

// EOF reports whether the cursor reached Limit.
func (c *Cursor) EOF() bool { return c.Off >= c.Limit }

// PeekAt returns the byte k positions ahead of the cursor.
func (c *Cursor) PeekAt(k uint32) (byte, bool) {
	if c.Off+k >= c.Limit {
		return 0, false
	}
	return c.File.Content[c.Off+k], true
}

// Peek returns the current byte or 0 at EOF.
func (c *Cursor) Peek() byte {
	b, _ := c.PeekAt(0)
	return b
}

// Peek2 returns the current and the next byte.
func (c *Cursor) Peek2() (b0, b1 byte, ok bool) {
	if b1, ok = c.PeekAt(1); !ok {
		return 0, 0, false
	}
	return c.File.Content[c.Off], b1, true
}

// Peek3 returns the current byte and the two after it.
func (c *Cursor) Peek3() (b0, b1, b2 byte, ok bool) {
	if b2, ok = c.PeekAt(2); !ok {
		return 0, 0, 0, false
	}
	return c.File.Content[c.Off], c.File.Content[c.Off+1], b2, true
}

// HasPrefix reports whether the unread input starts with s.
func (c *Cursor) HasPrefix(s string) bool {
	if c.EOF() {
		return s == ""
	}
	return strings.HasPrefix(string(c.File.Content[c.Off:c.Limit]), s)
}

// Bump consumes one byte and returns it; 0 at EOF.
func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.File.Content[c.Off]
	c.Off++
	return b
}

// Eat consumes the next byte if it is b.
func (c *Cursor) Eat(b byte) bool {
	if c.Peek() == b && !c.EOF() {
		c.Off++
		return true
	}
	return false
}

// EatString consumes s if the input starts with it.
func (c *Cursor) EatString(s string) bool {
	if s == "" || !c.HasPrefix(s) {
		return false
	}
	c.Off += uint32(len(s))
	return true
}

// Mark is a saved offset, used to build the span of a token.
type Mark uint32

func (c *Cursor) Mark() Mark { return Mark(c.Off) }

// SpanFrom is the span between m and the cursor.
func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{File: c.File.ID, Start: uint32(m), End: c.Off}
}

// Reset moves the cursor back to m.
func (c *Cursor) Reset(m Mark) { c.Off = uint32(m) }
