package tidy

import (
	"lantern/internal/ast"
	"lantern/internal/source"
)

// MatchResult is handed to a callback for every matching node.
type MatchResult struct {
	Node    ast.Node
	Context *ast.Context
	Sources *source.FileSet
}

func (r MatchResult) Decl() *ast.Decl { return r.Context.Decl(r.Node.Decl) }
func (r MatchResult) Stmt() *ast.Stmt { return r.Context.Stmt(r.Node.Stmt) }
func (r MatchResult) Expr() *ast.Expr { return r.Context.Expr(r.Node.Expr) }

// MatchCallback receives matches.
type MatchCallback func(r MatchResult)

type matcher struct {
	kind     ast.NodeKind
	declKind ast.DeclKind
	stmtKind ast.StmtKind
	exprKind ast.ExprKind
	cb       MatchCallback
}

func (m *matcher) matches(ctx *ast.Context, n ast.Node) bool {
	if m.kind != n.Kind {
		return false
	}
	switch n.Kind {
	case ast.NodeDecl:
		d := ctx.Decl(n.Decl)
		return d != nil && d.Kind == m.declKind
	case ast.NodeStmt:
		s := ctx.Stmt(n.Stmt)
		return s != nil && s.Kind == m.stmtKind
	case ast.NodeExpr:
		e := ctx.Expr(n.Expr)
		return e != nil && e.Kind == m.exprKind
	}
	return false
}

// MatchFinder collects node matchers and runs them in one walk.
type MatchFinder struct {
	matchers []matcher
}

func NewMatchFinder() *MatchFinder { return &MatchFinder{} }

func (f *MatchFinder) AddDeclMatcher(kind ast.DeclKind, cb MatchCallback) {
	f.matchers = append(f.matchers, matcher{kind: ast.NodeDecl, declKind: kind, cb: cb})
}

func (f *MatchFinder) AddStmtMatcher(kind ast.StmtKind, cb MatchCallback) {
	f.matchers = append(f.matchers, matcher{kind: ast.NodeStmt, stmtKind: kind, cb: cb})
}

func (f *MatchFinder) AddExprMatcher(kind ast.ExprKind, cb MatchCallback) {
	f.matchers = append(f.matchers, matcher{kind: ast.NodeExpr, exprKind: kind, cb: cb})
}

// Len is the number of registered matchers.
func (f *MatchFinder) Len() int { return len(f.matchers) }

// MatchAST walks the traversal scope of ctx once, calling every matcher in
// registration order at each node.
func (f *MatchFinder) MatchAST(ctx *ast.Context) {
	if len(f.matchers) == 0 {
		return
	}
	ctx.Inspect(func(n ast.Node) bool {
		for i := range f.matchers {
			m := &f.matchers[i]
			if m.matches(ctx, n) {
				m.cb(MatchResult{Node: n, Context: ctx, Sources: ctx.Sources()})
			}
		}
		return true
	})
}
