package tidy

import (
	"strings"

	"lantern/internal/diag"
	"lantern/internal/source"
)

type nolintKind uint8

const (
	nolintLine nolintKind = iota
	nolintNextLine
	nolintBegin
	nolintEnd
)

// ShouldSuppressDiagnostic reports whether a NOLINT comment covers the
// diagnostic of a check. The comment forms are
//
//	// NOLINT                    this line, every check
//	// NOLINT(check-a,bugprone-*) this line, listed checks
//	// NOLINTNEXTLINE(...)       the following line
//	// NOLINTBEGIN(...) ... // NOLINTEND(...)
//
// Without checkMacroExpansion only buffers of the main file are read.
func ShouldSuppressDiagnostic(level diag.Severity, info *diag.Info, ctx *Context, checkMacroExpansion bool) bool {
	if level == diag.SevIgnored || info == nil || ctx == nil {
		return false
	}
	name := ctx.CheckName(info.Code)
	if name == "" {
		return false
	}
	fs := info.Sources()
	if fs == nil {
		return false
	}
	if !checkMacroExpansion && !fs.IsInsideMainFile(info.Span) {
		return false
	}
	f := fs.Get(info.Span.File)
	if f == nil {
		return false
	}
	line := f.Position(info.Span.Start).Line
	if suppressedBy(f.GetLine(line), nolintLine, name) {
		return true
	}
	if line > 1 && suppressedBy(f.GetLine(line-1), nolintNextLine, name) {
		return true
	}
	return insideNolintBlock(f, line, name)
}

// suppressedBy looks for a marker of kind in text that names check.
func suppressedBy(text string, kind nolintKind, check string) bool {
	marker := markerFor(kind)
	for rest := text; ; {
		i := strings.Index(rest, marker)
		if i < 0 {
			return false
		}
		after := rest[i+len(marker):]
		rest = after
		// NOLINT не должен совпадать с началом NOLINTNEXTLINE
		if kind == nolintLine && (strings.HasPrefix(after, "NEXTLINE") ||
			strings.HasPrefix(after, "BEGIN") || strings.HasPrefix(after, "END")) {
			continue
		}
		if nolintNames(after, check) {
			return true
		}
	}
}

func markerFor(kind nolintKind) string {
	switch kind {
	case nolintNextLine:
		return "NOLINTNEXTLINE"
	case nolintBegin:
		return "NOLINTBEGIN"
	case nolintEnd:
		return "NOLINTEND"
	}
	return "NOLINT"
}

// nolintNames reports whether the argument list following a marker covers
// check. No list covers everything.
func nolintNames(after, check string) bool {
	if !strings.HasPrefix(after, "(") {
		return true
	}
	end := strings.IndexByte(after, ')')
	if end < 0 {
		return true
	}
	list, err := ParseGlobList(after[1:end])
	if err != nil {
		log.Debugf("NOLINT list %q: %s", after[1:end], err)
	}
	return list.Contains(check)
}

// insideNolintBlock scans lines before line for unclosed NOLINTBEGIN.
func insideNolintBlock(f *source.File, line uint32, check string) bool {
	depth := 0
	for l := uint32(1); l <= line; l++ {
		text := f.GetLine(l)
		if !strings.Contains(text, "NOLINT") {
			continue
		}
		if suppressedBy(text, nolintBegin, check) {
			depth++
		}
		if l < line && suppressedBy(text, nolintEnd, check) && depth > 0 {
			depth--
		}
	}
	return depth > 0
}
