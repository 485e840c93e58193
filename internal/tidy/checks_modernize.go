package tidy

import (
	"strings"

	"lantern/internal/ast"
	"lantern/internal/fix"
	"lantern/internal/lang"
)

func registerModernize(r *Registry) {
	r.Register("modernize-use-nullptr", func(name string, ctx *Context) Check {
		c := &useNullptrCheck{Base: NewBase(name, ctx)}
		c.nullMacros = strings.Split(c.Option("NullMacros", "NULL"), ",")
		return c
	})
}

// useNullptrCheck flags 0 and NULL used as pointers: initializers of
// pointer variables and the operands of comparisons or assignments whose
// other side is a pointer variable.
type useNullptrCheck struct {
	Base
	nullMacros []string
}

func (c *useNullptrCheck) IsLanguageVersionSupported(o lang.Options) bool { return o.CPlusPlus11 }

func (c *useNullptrCheck) RegisterMatchers(f *MatchFinder) {
	f.AddDeclMatcher(ast.DeclVar, func(r MatchResult) {
		d := r.Decl()
		if d.Init.IsValid() && isPointerType(d.Type) {
			c.checkNull(r.Context, d.Init)
		}
	})
	f.AddExprMatcher(ast.ExprBinary, func(r MatchResult) {
		e := r.Expr()
		switch e.Value {
		case "==", "!=", "=":
		default:
			return
		}
		if len(e.Operands) != 2 {
			return
		}
		lhs, rhs := e.Operands[0], e.Operands[1]
		if c.isPointerRef(r.Context, lhs) {
			c.checkNull(r.Context, rhs)
		}
		if e.Value != "=" && c.isPointerRef(r.Context, rhs) {
			c.checkNull(r.Context, lhs)
		}
	})
}

func isPointerType(t string) bool {
	return strings.Contains(t, "*")
}

func (c *useNullptrCheck) isPointerRef(ctx *ast.Context, id ast.ExprID) bool {
	e := ctx.Expr(stripParens(ctx, id))
	if e == nil || e.Kind != ast.ExprDeclRef || !e.Decl.IsValid() {
		return false
	}
	return isPointerType(ctx.Decl(e.Decl).Type)
}

func stripParens(ctx *ast.Context, id ast.ExprID) ast.ExprID {
	for {
		e := ctx.Expr(id)
		if e == nil || e.Kind != ast.ExprParen || len(e.Operands) != 1 {
			return id
		}
		id = e.Operands[0]
	}
}

func (c *useNullptrCheck) checkNull(ctx *ast.Context, id ast.ExprID) {
	e := ctx.Expr(id)
	if e == nil {
		return
	}
	if e.FromMacro {
		for _, m := range c.nullMacros {
			if strings.TrimSpace(m) == e.MacroName {
				c.report(e)
				return
			}
		}
		return
	}
	inner := ctx.Expr(stripParens(ctx, id))
	if inner != nil && inner.Kind == ast.ExprIntLit && inner.Value == "0" {
		c.report(e)
	}
}

func (c *useNullptrCheck) report(e *ast.Expr) {
	c.Diag(e.Span, "use nullptr").
		WithFix("replace with nullptr", fix.Replace(e.Span, "nullptr")).
		Emit()
}
