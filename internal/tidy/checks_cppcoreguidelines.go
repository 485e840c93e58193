package tidy

import (
	"lantern/internal/ast"
	"lantern/internal/lang"
)

func registerCppCoreGuidelines(r *Registry) {
	r.Register("cppcoreguidelines-avoid-goto", func(name string, ctx *Context) Check {
		return &avoidGotoCheck{Base: NewBase(name, ctx)}
	})
}

// avoidGotoCheck flags every goto in C++ code, with a note at its label.
type avoidGotoCheck struct {
	Base
}

func (c *avoidGotoCheck) IsLanguageVersionSupported(o lang.Options) bool { return o.CPlusPlus }

func (c *avoidGotoCheck) RegisterMatchers(f *MatchFinder) {
	f.AddDeclMatcher(ast.DeclFunction, func(r MatchResult) {
		fn := r.Decl()
		if !fn.Body.IsValid() {
			return
		}
		labels := make(map[string]*ast.Stmt)
		var gotos []*ast.Stmt
		r.Context.InspectDecl(r.Node.Decl, func(n ast.Node) bool {
			if n.Kind != ast.NodeStmt {
				return true
			}
			s := r.Context.Stmt(n.Stmt)
			switch s.Kind {
			case ast.StmtLabel:
				labels[s.Label] = s
			case ast.StmtGoto:
				gotos = append(gotos, s)
			}
			return true
		})
		for _, g := range gotos {
			b := c.Diag(g.Span, "avoid using 'goto' for flow control")
			if l, ok := labels[g.Label]; ok {
				b = b.WithNote(l.Span, "label defined here")
			}
			b.Emit()
		}
	})
}
