package diag

import (
	"fmt"

	"lantern/internal/source"
)

// Consumer receives diagnostics from an Engine.
type Consumer interface {
	BeginSourceFile()
	HandleDiagnostic(level Severity, info *Info)
	EndSourceFile()
}

// IgnoreDiagnostics drops everything. Installed as the client once a
// build has captured what it needs.
type IgnoreDiagnostics struct{}

func (IgnoreDiagnostics) BeginSourceFile()                  {}
func (IgnoreDiagnostics) HandleDiagnostic(Severity, *Info) {}
func (IgnoreDiagnostics) EndSourceFile()                    {}

type customKey struct {
	sev    Severity
	format string
}

// Engine is the diagnostics hub of one session: producers report codes,
// the engine formats messages and hands them to its client.
type Engine struct {
	sources   *source.FileSet
	client    Consumer
	custom    []customKey
	customIdx map[customKey]Code
	errors    int
	warnings  int
	fatal     bool
}

func NewEngine(sources *source.FileSet) *Engine {
	return &Engine{
		sources:   sources,
		customIdx: make(map[customKey]Code),
	}
}

func (e *Engine) SetSources(fs *source.FileSet) { e.sources = fs }
func (e *Engine) Sources() *source.FileSet      { return e.sources }

// SetClient replaces the consumer. A nil client drops diagnostics.
func (e *Engine) SetClient(c Consumer) { e.client = c }
func (e *Engine) Client() Consumer     { return e.client }

// CustomCode returns a code for a runtime defined diagnostic. Identical
// (severity, format) pairs share a code.
func (e *Engine) CustomCode(sev Severity, format string) Code {
	key := customKey{sev: sev, format: format}
	if c, ok := e.customIdx[key]; ok {
		return c
	}
	c := CustomBase + Code(len(e.custom))
	e.custom = append(e.custom, key)
	e.customIdx[key] = c
	return c
}

// DefaultSeverity returns the level a code is reported at before any adjustment.
func (e *Engine) DefaultSeverity(c Code) Severity {
	if c.IsCustom() {
		if i := int(c - CustomBase); i < len(e.custom) {
			return e.custom[i].sev
		}
		return SevWarning
	}
	if info, ok := codeTable[c]; ok {
		return info.sev
	}
	return SevError
}

func (e *Engine) format(c Code) string {
	if c.IsCustom() {
		if i := int(c - CustomBase); i < len(e.custom) {
			return e.custom[i].format
		}
	}
	return c.Title()
}

// Report starts a diagnostic; the message is the code template applied to args.
func (e *Engine) Report(c Code, sp source.Span, args ...any) *ReportBuilder {
	msg := e.format(c)
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &ReportBuilder{
		engine: e,
		info: Info{
			Code:    c,
			Span:    sp,
			Message: msg,
			sources: e.sources,
		},
	}
}

func (e *Engine) NumErrors() int   { return e.errors }
func (e *Engine) NumWarnings() int { return e.warnings }

// HasFatalErrorOccurred: after a fatal error everything but notes is dropped.
func (e *Engine) HasFatalErrorOccurred() bool { return e.fatal }

func (e *Engine) emit(info *Info) {
	level := e.DefaultSeverity(info.Code)
	if e.fatal && level != SevNote {
		return
	}
	switch {
	case level >= SevError:
		e.errors++
		if level == SevFatal {
			e.fatal = true
		}
	case level == SevWarning:
		e.warnings++
	}
	if e.client != nil {
		e.client.HandleDiagnostic(level, info)
	}
}

// ReportBuilder accumulates diagnostic details before emitting to the engine.
type ReportBuilder struct {
	engine  *Engine
	info    Info
	emitted bool
}

// WithNote appends a note; notes travel with the diagnostic.
func (b *ReportBuilder) WithNote(sp source.Span, msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.info.Notes = append(b.info.Notes, SpanNote{Span: sp, Msg: msg})
	return b
}

// WithFix appends a fix-it.
func (b *ReportBuilder) WithFix(title string, edits ...SpanEdit) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.info.Fixes = append(b.info.Fixes, SpanFix{Title: title, Edits: edits})
	return b
}

// Emit sends the diagnostic to the engine exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	b.emitted = true
	if b.engine != nil {
		b.engine.emit(&b.info)
	}
}

// Info returns the accumulated diagnostic without emitting.
func (b *ReportBuilder) Info() Info {
	if b == nil {
		return Info{}
	}
	return b.info
}
