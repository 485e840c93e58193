package diag

import (
	"lantern/internal/source"
)

// Origin says which layer produced a diagnostic.
type Origin uint8

const (
	OriginFrontend Origin = iota
	OriginTidy
	OriginDriver
)

func (o Origin) String() string {
	switch o {
	case OriginTidy:
		return "clang-tidy"
	case OriginDriver:
		return "driver"
	}
	return "clang"
}

// Range is a resolved location. It names the file by path so that results
// stay meaningful after the session that produced them is gone.
type Range struct {
	Path     string
	StartOff uint32
	EndOff   uint32
	Start    source.LineCol
	End      source.LineCol
}

// IsZero reports a location-less range (command line diagnostics).
func (r Range) IsZero() bool {
	return r.Path == ""
}

type Note struct {
	Range Range
	Msg   string
}

type FixEdit struct {
	Range   Range
	NewText string
}

type Fix struct {
	Title string
	Edits []FixEdit
}

// Diagnostic is the result record handed to callers of a build.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Range    Range
	Origin   Origin
	// CheckName is set for diagnostics emitted by secondary checks.
	CheckName      string `msgpack:",omitempty"`
	InsideMainFile bool
	Notes          []Note `msgpack:",omitempty"`
	Fixes          []Fix  `msgpack:",omitempty"`
}

// Name is the identifier shown to users: the check name or the code name.
func (d *Diagnostic) Name() string {
	if d.CheckName != "" {
		return d.CheckName
	}
	return d.Code.Name()
}

// SpanEdit is a fix-it edit in session coordinates.
type SpanEdit struct {
	Span    source.Span
	NewText string
}

type SpanFix struct {
	Title string
	Edits []SpanEdit
}

type SpanNote struct {
	Span source.Span
	Msg  string
}

// Info is an in-flight diagnostic as seen by a Consumer.
type Info struct {
	Code    Code
	Span    source.Span
	Message string
	Notes   []SpanNote
	Fixes   []SpanFix
	sources *source.FileSet
}

// Sources returns the file set the span refers to; may be nil.
func (i *Info) Sources() *source.FileSet {
	return i.sources
}

// ResolveRange converts a session span into a Range.
func ResolveRange(fs *source.FileSet, sp source.Span) Range {
	if fs == nil {
		return Range{}
	}
	f := fs.Get(sp.File)
	if f == nil {
		return Range{}
	}
	start, end := fs.Resolve(sp)
	return Range{
		Path:     f.Path,
		StartOff: sp.Start,
		EndOff:   sp.End,
		Start:    start,
		End:      end,
	}
}
