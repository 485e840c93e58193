package diag

import (
	"unsafe"

	"lantern/internal/source"
)

// LevelAdjuster maps the raw level of a diagnostic to the reported one.
// It runs once per diagnostic, when the diagnostic is emitted.
type LevelAdjuster func(level Severity, info *Info) Severity

// FixContributor may attach extra fixes to a diagnostic at emission time.
type FixContributor func(level Severity, info *Info) []Fix

// CheckNamer maps a code to the name of the check that owns it ("" for none).
type CheckNamer interface {
	CheckName(c Code) string
}

// Store is the Consumer that captures a session's diagnostics as results.
type Store struct {
	adjuster    LevelAdjuster
	contributor FixContributor
	diags       []Diagnostic
	lastDropped bool
	active      bool
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SetLevelAdjuster(fn LevelAdjuster)   { s.adjuster = fn }
func (s *Store) SetFixContributor(fn FixContributor) { s.contributor = fn }

func (s *Store) BeginSourceFile() { s.active = true }

// EndSourceFile closes the last diagnostic group.
func (s *Store) EndSourceFile() {
	s.active = false
	s.lastDropped = false
}

func (s *Store) HandleDiagnostic(level Severity, info *Info) {
	if s.adjuster != nil {
		level = s.adjuster(level, info)
	}
	if level == SevIgnored {
		s.lastDropped = true
		return
	}
	// отдельная заметка продолжает предыдущую диагностику
	if level == SevNote {
		if !s.lastDropped && len(s.diags) > 0 {
			last := &s.diags[len(s.diags)-1]
			last.Notes = append(last.Notes, Note{Range: ResolveRange(info.sources, info.Span), Msg: info.Message})
		}
		return
	}
	s.lastDropped = false

	d := Diagnostic{
		Severity:       level,
		Code:           info.Code,
		Message:        info.Message,
		Range:          ResolveRange(info.sources, info.Span),
		Origin:         OriginFrontend,
		InsideMainFile: info.sources != nil && info.sources.IsInsideMainFile(info.Span),
	}
	for _, n := range info.Notes {
		d.Notes = append(d.Notes, Note{Range: ResolveRange(info.sources, n.Span), Msg: n.Msg})
	}
	for _, f := range info.Fixes {
		d.Fixes = append(d.Fixes, resolveFix(info.sources, f))
	}
	if s.contributor != nil && level >= SevWarning {
		d.Fixes = append(d.Fixes, s.contributor(level, info)...)
	}
	s.diags = append(s.diags, d)
}

// Take returns the captured diagnostics and resets the store. Diagnostics
// whose code belongs to a check are tagged with its name.
func (s *Store) Take(namer CheckNamer) []Diagnostic {
	out := s.diags
	s.diags = nil
	if namer != nil {
		for i := range out {
			if name := namer.CheckName(out[i].Code); name != "" {
				out[i].CheckName = name
				out[i].Origin = OriginTidy
			}
		}
	}
	return out
}

// Len is the number of diagnostics captured so far.
func (s *Store) Len() int { return len(s.diags) }

func (s *Store) MemoryUsage() uint64 {
	return uint64(cap(s.diags)) * uint64(unsafe.Sizeof(Diagnostic{}))
}

func resolveFix(fs *source.FileSet, f SpanFix) Fix {
	out := Fix{Title: f.Title, Edits: make([]FixEdit, 0, len(f.Edits))}
	for _, e := range f.Edits {
		out.Edits = append(out.Edits, FixEdit{Range: ResolveRange(fs, e.Span), NewText: e.NewText})
	}
	return out
}
