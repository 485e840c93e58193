package tidy

import (
	"path"
	"slices"
	"strings"

	"lantern/internal/diag"
	"lantern/internal/fix"
	"lantern/internal/pp"
	"lantern/internal/source"
)

func registerLLVM(r *Registry) {
	r.Register("llvm-include-order", func(name string, ctx *Context) Check {
		return &includeOrderCheck{Base: NewBase(name, ctx)}
	})
}

// includeOrderCheck wants each block of adjacent includes ordered: the
// main module header, then quoted headers, then angled ones, each group
// sorted case-insensitively. It reports at the end of the main file.
type includeOrderCheck struct {
	Base
}

type includeEntry struct {
	spelled  string // "a.h" or <a.h>
	name     string
	hash     source.Span
	line     uint32
	priority int
}

type includeOrderListener struct {
	pp.EmptyCallbacks
	check    *includeOrderCheck
	sources  *source.FileSet
	includes []includeEntry
}

func (c *includeOrderCheck) RegisterPPCallbacks(sources *source.FileSet, p *pp.Preprocessor) {
	p.AddCallbacks(&includeOrderListener{check: c, sources: sources})
}

func (l *includeOrderListener) InclusionDirective(d pp.InclusionDirective) {
	if !l.sources.IsInsideMainFile(d.Hash.Span) {
		return
	}
	f := l.sources.Get(d.Hash.Span.File)
	e := includeEntry{
		spelled: d.FilenameTok.Text,
		name:    d.FileName,
		hash:    d.Hash.Span,
		line:    f.Position(d.Hash.Span.Start).Line,
	}
	e.priority = includePriority(e, f.Path)
	l.includes = append(l.includes, e)
}

func includePriority(e includeEntry, mainPath string) int {
	stem := strings.TrimSuffix(path.Base(mainPath), path.Ext(mainPath))
	name := strings.TrimSuffix(path.Base(e.name), path.Ext(e.name))
	switch {
	case !strings.HasPrefix(e.spelled, "<") && name == stem:
		return 0
	case !strings.HasPrefix(e.spelled, "<"):
		return 1
	}
	return 2
}

func (l *includeOrderListener) EndOfMainFile() {
	incs := l.includes
	l.includes = nil
	for start := 0; start < len(incs); {
		end := start + 1
		for end < len(incs) && incs[end].line == incs[end-1].line+1 {
			end++
		}
		l.checkBlock(incs[start:end])
		start = end
	}
}

func includeLess(a, b includeEntry) int {
	if a.priority != b.priority {
		return a.priority - b.priority
	}
	return strings.Compare(strings.ToLower(a.name), strings.ToLower(b.name))
}

func (l *includeOrderListener) checkBlock(block []includeEntry) {
	sorted := slices.Clone(block)
	slices.SortStableFunc(sorted, includeLess)
	first := -1
	for i := range block {
		if block[i].spelled != sorted[i].spelled {
			first = i
			break
		}
	}
	if first < 0 {
		return
	}
	f := l.sources.Get(block[0].hash.File)
	var edits []diag.SpanEdit
	for i := range block {
		if block[i].spelled == sorted[i].spelled {
			continue
		}
		start := f.LineStart(block[i].line)
		text := strings.TrimRight(f.GetLine(sorted[i].line), "\r")
		span := source.Span{File: f.ID, Start: start, End: start + u32(len(f.GetLine(block[i].line)))}
		edits = append(edits, fix.Replace(span, text))
	}
	l.check.Diag(block[first].hash, "#includes are not sorted properly").
		WithFix("sort includes", edits...).
		Emit()
}
