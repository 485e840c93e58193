package source

import "fmt"

// Span is a half-open byte range [Start, End) inside one buffer.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

// Valid reports whether the span points into a buffer.
func (s Span) Valid() bool { return s.File != NoFile }

func (s Span) Empty() bool { return s.Start == s.End }

func (s Span) Len() uint32 { return s.End - s.Start }

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Contains reports whether other lies fully inside s.
func (s Span) Contains(other Span) bool {
	return s.File == other.File && other.Start >= s.Start && other.End <= s.End
}

// ContainsOffset reports whether off falls in s; an empty span contains
// its own start, which is where a caret for it is drawn.
func (s Span) ContainsOffset(off uint32) bool {
	if s.Empty() {
		return off == s.Start
	}
	return off >= s.Start && off < s.End
}

// Overlaps reports whether s and other share at least one byte of the same
// buffer.
func (s Span) Overlaps(other Span) bool {
	return s.File == other.File && s.Start < other.End && other.Start < s.End
}

// Cover is the smallest span holding both s and other. Spans of different
// buffers are not merged: s is returned.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	return Span{File: s.File, Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

// StartPoint collapses the span to its start.
func (s Span) StartPoint() Span {
	return Span{File: s.File, Start: s.Start, End: s.Start}
}
