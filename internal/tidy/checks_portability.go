package tidy

import (
	"lantern/internal/pp"
	"lantern/internal/source"
)

func registerPortability(r *Registry) {
	r.Register("portability-restrict-system-includes", func(name string, ctx *Context) Check {
		c := &restrictIncludesCheck{Base: NewBase(name, ctx)}
		var err error
		if c.allowed, err = ParseGlobList(c.Option("Includes", "**")); err != nil {
			log.Warningf("%s.Includes: %s", name, err)
		}
		return c
	})
}

// restrictIncludesCheck flags angled includes in the main file whose path
// is not selected by the Includes option (a glob list over header paths,
// e.g. "-**,stdio.h,sys/*.h").
type restrictIncludesCheck struct {
	Base
	allowed GlobList
}

type restrictIncludesListener struct {
	pp.EmptyCallbacks
	check   *restrictIncludesCheck
	sources *source.FileSet
}

func (c *restrictIncludesCheck) RegisterPPCallbacks(sources *source.FileSet, p *pp.Preprocessor) {
	p.AddCallbacks(&restrictIncludesListener{check: c, sources: sources})
}

func (l *restrictIncludesListener) InclusionDirective(d pp.InclusionDirective) {
	if !d.Angled || !l.sources.IsInsideMainFile(d.Hash.Span) {
		return
	}
	if l.check.allowed.Contains(d.FileName) {
		return
	}
	l.check.Diag(d.FilenameTok.Span, "system include %s not allowed", d.FileName).Emit()
}
