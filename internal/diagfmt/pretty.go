package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"lantern/internal/diag"
)

type palette struct {
	fatal, err, warn, note *color.Color
	bold, caret, fix, dim  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		fatal: color.New(color.FgRed, color.Bold, color.Underline),
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgMagenta, color.Bold),
		note:  color.New(color.FgCyan, color.Bold),
		bold:  color.New(color.Bold),
		caret: color.New(color.FgGreen, color.Bold),
		fix:   color.New(color.FgGreen),
		dim:   color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{p.fatal, p.err, p.warn, p.note, p.bold, p.caret, p.fix, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevFatal:
		return p.fatal
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.note
}

// Pretty форматирует диагностики в человекочитаемый вид:
//
//	<path>:<line>:<col>: <severity>: <message> [<name>]
//
// затем строки контекста с подчёркиванием ^~~~ по диапазону, заметки и
// исправления. Исходники читаются через r; без них печатается только
// заголовок. В конце выводится сводка, как у компилятора.
func Pretty(w io.Writer, diags []diag.Diagnostic, r Reader, opts PrettyOpts) error {
	pw := &prettyWriter{w: w, opts: opts, pal: newPalette(opts.Color), src: newSourceCache(r)}
	var warnings, errors int
	for i := range diags {
		d := &diags[i]
		switch {
		case d.Severity >= diag.SevError:
			errors++
		case d.Severity == diag.SevWarning:
			warnings++
		case d.Severity == diag.SevIgnored:
			continue
		}
		pw.diagnostic(d)
	}
	if summary := summarize(warnings, errors); summary != "" {
		pw.printf("%s\n", summary)
	}
	return pw.err
}

func summarize(warnings, errors int) string {
	plural := func(n int, what string) string {
		if n == 1 {
			return "1 " + what
		}
		return strconv.Itoa(n) + " " + what + "s"
	}
	switch {
	case warnings > 0 && errors > 0:
		return plural(warnings, "warning") + " and " + plural(errors, "error") + " generated."
	case warnings > 0:
		return plural(warnings, "warning") + " generated."
	case errors > 0:
		return plural(errors, "error") + " generated."
	}
	return ""
}

type prettyWriter struct {
	w    io.Writer
	opts PrettyOpts
	pal  palette
	src  *sourceCache
	err  error
}

func (pw *prettyWriter) printf(format string, args ...any) {
	if pw.err != nil {
		return
	}
	_, pw.err = fmt.Fprintf(pw.w, format, args...)
}

func (pw *prettyWriter) location(r diag.Range) string {
	path := formatPath(r.Path, pw.opts.PathMode, pw.opts.BaseDir)
	if r.IsZero() {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, r.Start.Line, r.Start.Col)
}

func (pw *prettyWriter) diagnostic(d *diag.Diagnostic) {
	pal := pw.pal
	pw.printf("%s: %s %s",
		pal.bold.Sprint(pw.location(d.Range)),
		pal.severity(d.Severity).Sprint(d.Severity.Label()+":"),
		pal.bold.Sprint(d.Message))
	pw.printf(" %s\n", pal.dim.Sprint("["+d.Name()+"]"))
	pw.snippet(d.Range)

	if pw.opts.ShowNotes {
		for _, n := range d.Notes {
			pw.printf("%s: %s %s\n", pal.bold.Sprint(pw.location(n.Range)), pal.note.Sprint("note:"), n.Msg)
			pw.snippet(n.Range)
		}
	}
	if pw.opts.ShowFixes || pw.opts.ShowPreview {
		for _, f := range d.Fixes {
			pw.printf("  %s %s\n", pal.fix.Sprint("fix:"), f.Title)
			if pw.opts.ShowPreview {
				pw.preview(f)
			}
		}
	}
}

func (pw *prettyWriter) tabWidth() int {
	if pw.opts.TabWidth == 0 {
		return 4
	}
	return int(pw.opts.TabWidth)
}

// expandTabs replaces tabs so that columns line up with the caret line.
func (pw *prettyWriter) expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	tw := pw.tabWidth()
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tw - col%tw
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return b.String()
}

func (pw *prettyWriter) clip(s string) string {
	if pw.opts.Width == 0 {
		return s
	}
	return runewidth.Truncate(s, int(pw.opts.Width), "…")
}

func (pw *prettyWriter) snippet(r diag.Range) {
	if r.IsZero() || r.Start.Line == 0 {
		return
	}
	f := pw.src.get(r.Path)
	if f == nil {
		return
	}
	first := r.Start.Line
	if ctx := uint32(max(pw.opts.Context, 0)); first > ctx {
		first -= ctx
	} else {
		first = 1
	}
	gutter := len(strconv.FormatUint(uint64(r.Start.Line), 10))
	for ln := first; ln <= r.Start.Line; ln++ {
		pw.printf(" %*d | %s\n", gutter, ln, pw.clip(pw.expandTabs(f.GetLine(ln))))
	}

	line := f.GetLine(r.Start.Line)
	startCol := clampCol(line, r.Start.Col)
	endCol := startCol + 1
	if r.End.Line == r.Start.Line && r.End.Col > r.Start.Col {
		endCol = clampCol(line, r.End.Col)
	}
	pad := runewidth.StringWidth(pw.expandTabs(line[:startCol]))
	width := max(runewidth.StringWidth(pw.expandTabs(line[:min(endCol, len(line))]))-pad, 1)
	marker := "^" + strings.Repeat("~", width-1)
	pw.printf(" %s | %s%s\n", strings.Repeat(" ", gutter), strings.Repeat(" ", pad), pw.pal.caret.Sprint(marker))
}

// clampCol turns a 1-based column into a byte index inside line.
func clampCol(line string, col uint32) int {
	if col == 0 {
		return 0
	}
	return min(int(col-1), len(line))
}

func (pw *prettyWriter) preview(f diag.Fix) {
	for _, e := range f.Edits {
		file := pw.src.get(e.Range.Path)
		if file == nil {
			continue
		}
		p, err := buildFixEditPreview(file, e)
		if err != nil {
			continue
		}
		pw.printf("    %s\n", pw.pal.dim.Sprint(formatPath(e.Range.Path, pw.opts.PathMode, pw.opts.BaseDir)))
		for _, l := range p.before {
			pw.printf("    %s\n", pw.pal.err.Sprint("-"+pw.expandTabs(l)))
		}
		for _, l := range p.after {
			pw.printf("    %s\n", pw.pal.fix.Sprint("+"+pw.expandTabs(l)))
		}
	}
}
