package diagfmt

import (
	"encoding/json"
	"io"

	"lantern/internal/diag"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// FixEditJSON представляет одно редактирование для JSON
type FixEditJSON struct {
	Location    LocationJSON `json:"location"`
	NewText     string       `json:"new_text"`
	BeforeLines []string     `json:"before_lines,omitempty"`
	AfterLines  []string     `json:"after_lines,omitempty"`
}

// FixJSON представляет предложение по исправлению для JSON
type FixJSON struct {
	Title string        `json:"title"`
	Edits []FixEditJSON `json:"edits,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	Origin   string       `json:"origin"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
	Fixes    []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func makeLocation(r diag.Range, opts JSONOpts) LocationJSON {
	loc := LocationJSON{
		File:      formatPath(r.Path, opts.PathMode, opts.BaseDir),
		StartByte: r.StartOff,
		EndByte:   r.EndOff,
	}
	if r.IsZero() {
		loc.File = ""
	}
	if opts.IncludePositions {
		loc.StartLine = r.Start.Line
		loc.StartCol = r.Start.Col
		loc.EndLine = r.End.Line
		loc.EndCol = r.End.Col
	}
	return loc
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
// Превью правок строятся по файлам из r; r может быть nil.
func BuildDiagnosticsOutput(diags []diag.Diagnostic, r Reader, opts JSONOpts) DiagnosticsOutput {
	src := newSourceCache(r)
	n := len(diags)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	out := make([]DiagnosticJSON, 0, n)
	for i := range n {
		d := &diags[i]
		dj := DiagnosticJSON{
			Severity: d.Severity.Label(),
			Code:     d.Code.ID(),
			Name:     d.Name(),
			Origin:   d.Origin.String(),
			Message:  d.Message,
			Location: makeLocation(d.Range, opts),
		}
		if opts.IncludeNotes && len(d.Notes) > 0 {
			dj.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				dj.Notes[j] = NoteJSON{Message: note.Msg, Location: makeLocation(note.Range, opts)}
			}
		}
		if opts.IncludeFixes && len(d.Fixes) > 0 {
			dj.Fixes = make([]FixJSON, 0, len(d.Fixes))
			for _, f := range d.Fixes {
				fj := FixJSON{Title: f.Title, Edits: make([]FixEditJSON, len(f.Edits))}
				for k, e := range f.Edits {
					ej := FixEditJSON{Location: makeLocation(e.Range, opts), NewText: e.NewText}
					if opts.IncludePreviews {
						if p, err := buildFixEditPreview(src.get(e.Range.Path), e); err == nil {
							ej.BeforeLines = p.before
							ej.AfterLines = p.after
						}
					}
					fj.Edits[k] = ej
				}
				dj.Fixes = append(dj.Fixes, fj)
			}
		}
		out = append(out, dj)
	}
	return DiagnosticsOutput{Diagnostics: out, Count: len(out)}
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, diags []diag.Diagnostic, r Reader, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(diags, r, opts))
}
