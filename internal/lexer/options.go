package lexer

import (
	"lantern/internal/diag"
	"lantern/internal/source"
)

// Reporter: тонкий интерфейс; лексер только вызывает его с кодом и аргументами.
type Reporter interface {
	Report(code diag.Code, span source.Span, args ...any)
}

// EngineReporter forwards lexer errors to a diagnostics engine.
type EngineReporter struct {
	Engine *diag.Engine
}

func (r EngineReporter) Report(code diag.Code, span source.Span, args ...any) {
	if r.Engine != nil {
		r.Engine.Report(code, span, args...).Emit()
	}
}

// CommentFunc receives every comment the lexer skips.
type CommentFunc func(span source.Span, text string)

type Options struct {
	Reporter  Reporter    // может быть nil: тогда ошибки игнорируем (но продолжаем лексить)
	OnComment CommentFunc // может быть nil
}

func (lx *Lexer) report(code diag.Code, sp source.Span, args ...any) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, sp, args...)
	}
}
