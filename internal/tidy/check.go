package tidy

import (
	"fmt"

	"lantern/internal/diag"
	"lantern/internal/lang"
	"lantern/internal/pp"
	"lantern/internal/source"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("lantern.tidy")

// Check is one named lint check instance.
type Check interface {
	Name() string
	// IsLanguageVersionSupported is asked once per build; an unsupported
	// check is neither registered nor able to report.
	IsLanguageVersionSupported(opts lang.Options) bool
}

// PPCallbacksRegistrar is implemented by checks that listen to the
// preprocessor.
type PPCallbacksRegistrar interface {
	RegisterPPCallbacks(sources *source.FileSet, p *pp.Preprocessor)
}

// MatcherRegistrar is implemented by checks that match tree nodes.
type MatcherRegistrar interface {
	RegisterMatchers(f *MatchFinder)
}

// Factory creates a check bound to a build's Context.
type Factory func(name string, ctx *Context) Check

// Base carries what every check needs. Checks embed it.
type Base struct {
	name string
	ctx  *Context
}

func NewBase(name string, ctx *Context) Base { return Base{name: name, ctx: ctx} }

func (b *Base) Name() string      { return b.name }
func (b *Base) Context() *Context { return b.ctx }

// IsLanguageVersionSupported accepts every language; checks override it.
func (b *Base) IsLanguageVersionSupported(lang.Options) bool { return true }

// Diag reports a warning owned by the check.
func (b *Base) Diag(sp source.Span, format string, args ...any) *diag.ReportBuilder {
	return b.DiagLevel(diag.SevWarning, sp, format, args...)
}

// DiagLevel reports at sev.
func (b *Base) DiagLevel(sev diag.Severity, sp source.Span, format string, args ...any) *diag.ReportBuilder {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return b.ctx.report(b.name, sev, sp, msg)
}

// Option reads "<check>.key".
func (b *Base) Option(key, def string) string { return b.ctx.Option(b.name, key, def) }

func (b *Base) IntOption(key string, def int) int { return b.ctx.IntOption(b.name, key, def) }
