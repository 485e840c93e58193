package tidy

import (
	"unicode/utf8"

	"lantern/internal/ast"
)

func registerReadability(r *Registry) {
	r.Register("readability-identifier-length", func(name string, ctx *Context) Check {
		c := &identifierLengthCheck{Base: NewBase(name, ctx)}
		c.minVar = c.IntOption("MinimumVariableNameLength", 3)
		c.minParam = c.IntOption("MinimumParameterNameLength", 3)
		var err error
		if c.ignoredVars, err = ParseGlobList(c.Option("IgnoredVariableNames", "i,j,k,_")); err != nil {
			log.Warningf("%s.IgnoredVariableNames: %s", name, err)
		}
		if c.ignoredParams, err = ParseGlobList(c.Option("IgnoredParameterNames", "n")); err != nil {
			log.Warningf("%s.IgnoredParameterNames: %s", name, err)
		}
		return c
	})
}

// identifierLengthCheck flags local variables and parameters with names
// shorter than the configured minimum.
type identifierLengthCheck struct {
	Base
	minVar, minParam           int
	ignoredVars, ignoredParams GlobList
}

func (c *identifierLengthCheck) RegisterMatchers(f *MatchFinder) {
	f.AddStmtMatcher(ast.StmtDecl, func(r MatchResult) {
		for _, id := range r.Stmt().Decls {
			d := r.Context.Decl(id)
			if d == nil || d.Kind != ast.DeclVar || d.Name == "" || d.FromMacro {
				continue
			}
			if utf8.RuneCountInString(d.Name) < c.minVar && !c.ignoredVars.Contains(d.Name) {
				c.Diag(d.NameSpan, "variable name '%s' is too short, expected at least %d characters", d.Name, c.minVar).Emit()
			}
		}
	})
	f.AddDeclMatcher(ast.DeclParam, func(r MatchResult) {
		d := r.Decl()
		if d.Name == "" || d.FromMacro {
			return
		}
		if utf8.RuneCountInString(d.Name) < c.minParam && !c.ignoredParams.Contains(d.Name) {
			c.Diag(d.NameSpan, "parameter name '%s' is too short, expected at least %d characters", d.Name, c.minParam).Emit()
		}
	})
}
