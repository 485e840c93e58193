package tidy

import (
	"strings"

	"lantern/internal/ast"
	"lantern/internal/fix"
)

func registerBugprone(r *Registry) {
	r.Register("bugprone-reserved-identifier", func(name string, ctx *Context) Check {
		return &reservedIdentifierCheck{Base: NewBase(name, ctx)}
	})
}

// reservedIdentifierCheck flags declarations named with a double
// underscore or an underscore followed by an uppercase letter.
type reservedIdentifierCheck struct {
	Base
}

var reservedKinds = []ast.DeclKind{
	ast.DeclVar, ast.DeclFunction, ast.DeclRecord, ast.DeclTypedef, ast.DeclField, ast.DeclParam,
}

func (c *reservedIdentifierCheck) RegisterMatchers(f *MatchFinder) {
	for _, k := range reservedKinds {
		f.AddDeclMatcher(k, c.check)
	}
}

func (c *reservedIdentifierCheck) check(r MatchResult) {
	d := r.Decl()
	if d.Implicit || d.FromMacro || d.Name == "" {
		return
	}
	if !isReserved(d.Name) {
		return
	}
	fixed := strings.TrimLeft(d.Name, "_")
	b := c.Diag(d.NameSpan, "declaration uses identifier '%s', which is a reserved identifier", d.Name)
	if fixed != "" && d.NameSpan.Valid() {
		b = b.WithFix("remove leading underscores", fix.Replace(d.NameSpan, fixed))
	}
	b.Emit()
}

func isReserved(name string) bool {
	if strings.HasPrefix(name, "__") {
		return true
	}
	return len(name) >= 2 && name[0] == '_' && name[1] >= 'A' && name[1] <= 'Z'
}
