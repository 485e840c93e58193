package ast

import (
	"fmt"
	"io"
	"strings"
	"unsafe"

	"lantern/internal/source"
)

type Hints struct{ Decls, Stmts, Exprs uint }

// Context owns the arenas of one translation unit. Everything else refers
// to its nodes by ID, so the Context must outlive every holder of an ID.
type Context struct {
	Decls *Decls
	Stmts *Stmts
	Exprs *Exprs

	sources  *source.FileSet
	topLevel []DeclID
	scope    []DeclID
	scoped   bool
}

func NewContext(sources *source.FileSet, hints Hints) *Context {
	if hints.Decls == 0 {
		hints.Decls = 1 << 7
	}
	if hints.Stmts == 0 {
		hints.Stmts = 1 << 8
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 8
	}
	return &Context{
		Decls:   NewDecls(hints.Decls),
		Stmts:   NewStmts(hints.Stmts),
		Exprs:   NewExprs(hints.Exprs),
		sources: sources,
	}
}

func (c *Context) Sources() *source.FileSet { return c.sources }

func (c *Context) Decl(id DeclID) *Decl { return c.Decls.Get(id) }
func (c *Context) Stmt(id StmtID) *Stmt { return c.Stmts.Get(id) }
func (c *Context) Expr(id ExprID) *Expr { return c.Exprs.Get(id) }

// AddTopLevel appends a declaration of the translation unit.
func (c *Context) AddTopLevel(id DeclID) { c.topLevel = append(c.topLevel, id) }

// TopLevel returns every top-level declaration, including those from headers.
func (c *Context) TopLevel() []DeclID { return c.topLevel }

// SetTraversalScope restricts Inspect to decls and what they contain.
func (c *Context) SetTraversalScope(decls []DeclID) {
	c.scope = append([]DeclID(nil), decls...)
	c.scoped = true
}

// TraversalScope returns the roots Inspect starts from: the scope set by
// SetTraversalScope, or every top-level decl.
func (c *Context) TraversalScope() []DeclID {
	if c.scoped {
		return c.scope
	}
	return c.topLevel
}

type NodeKind uint8

const (
	NodeDecl NodeKind = iota
	NodeStmt
	NodeExpr
)

// Node refers to one node of any kind.
type Node struct {
	Kind NodeKind
	Decl DeclID
	Stmt StmtID
	Expr ExprID
}

// Span returns the source range of the node.
func (c *Context) Span(n Node) source.Span {
	switch n.Kind {
	case NodeDecl:
		if d := c.Decl(n.Decl); d != nil {
			return d.Span
		}
	case NodeStmt:
		if s := c.Stmt(n.Stmt); s != nil {
			return s.Span
		}
	case NodeExpr:
		if e := c.Expr(n.Expr); e != nil {
			return e.Span
		}
	}
	return source.Span{}
}

// Inspect walks the traversal scope depth first. If fn returns false the
// children of that node are skipped.
func (c *Context) Inspect(fn func(Node) bool) {
	for _, id := range c.TraversalScope() {
		c.walkDecl(id, fn)
	}
}

// InspectDecl walks one declaration regardless of the traversal scope.
func (c *Context) InspectDecl(id DeclID, fn func(Node) bool) {
	c.walkDecl(id, fn)
}

func (c *Context) walkDecl(id DeclID, fn func(Node) bool) {
	d := c.Decl(id)
	if d == nil || !fn(Node{Kind: NodeDecl, Decl: id}) {
		return
	}
	for _, ch := range d.Children {
		c.walkDecl(ch, fn)
	}
	if d.Init.IsValid() {
		c.walkExpr(d.Init, fn)
	}
	if d.Body.IsValid() {
		c.walkStmt(d.Body, fn)
	}
}

func (c *Context) walkStmt(id StmtID, fn func(Node) bool) {
	s := c.Stmt(id)
	if s == nil || !fn(Node{Kind: NodeStmt, Stmt: id}) {
		return
	}
	for _, d := range s.Decls {
		c.walkDecl(d, fn)
	}
	if s.Init.IsValid() {
		c.walkStmt(s.Init, fn)
	}
	for _, e := range []ExprID{s.Cond, s.Expr, s.Inc} {
		if e.IsValid() {
			c.walkExpr(e, fn)
		}
	}
	for _, ch := range s.Children {
		c.walkStmt(ch, fn)
	}
	for _, ch := range []StmtID{s.Then, s.Else, s.Body} {
		if ch.IsValid() {
			c.walkStmt(ch, fn)
		}
	}
}

func (c *Context) walkExpr(id ExprID, fn func(Node) bool) {
	e := c.Expr(id)
	if e == nil || !fn(Node{Kind: NodeExpr, Expr: id}) {
		return
	}
	if e.Callee.IsValid() {
		c.walkExpr(e.Callee, fn)
	}
	for _, op := range e.Operands {
		c.walkExpr(op, fn)
	}
}

// AllocatedBytes approximates the memory held by the arenas.
func (c *Context) AllocatedBytes() uint64 {
	n := c.Decls.Arena.Bytes() + c.Stmts.Arena.Bytes() + c.Exprs.Arena.Bytes()
	n += c.Decls.stringBytes()
	for i := range c.Exprs.Arena.data {
		e := &c.Exprs.Arena.data[i]
		n += uint64(len(e.Value)) + uint64(cap(e.Operands))*uint64(unsafe.Sizeof(ExprID(0)))
	}
	for i := range c.Stmts.Arena.data {
		s := &c.Stmts.Arena.data[i]
		n += uint64(cap(s.Children))*4 + uint64(cap(s.Decls))*4
	}
	return n + uint64(cap(c.topLevel)+cap(c.scope))*4
}

// Dump writes the traversal scope as an indented tree.
func (c *Context) Dump(w io.Writer) error {
	d := dumper{c: c, w: w}
	for _, id := range c.TraversalScope() {
		d.decl(id, 0)
	}
	return d.err
}

type dumper struct {
	c   *Context
	w   io.Writer
	err error
}

func (d *dumper) line(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (d *dumper) loc(sp source.Span) string {
	fs := d.c.sources
	if fs == nil || sp.File == source.NoFile {
		return "<invalid>"
	}
	f := fs.Get(sp.File)
	if f == nil {
		return "<invalid>"
	}
	lc := f.Position(sp.Start)
	name := f.Path
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return fmt.Sprintf("%s:%d:%d", name, lc.Line, lc.Col)
}

func (d *dumper) decl(id DeclID, depth int) {
	x := d.c.Decl(id)
	if x == nil {
		return
	}
	extra := ""
	if x.Implicit {
		extra += " implicit"
	}
	if x.IsTemplateInstantiation() {
		extra += " instantiation"
	}
	if x.Type != "" {
		extra += fmt.Sprintf(" '%s'", x.Type)
	}
	d.line(depth, "%s %s <%s>%s", x.Kind, x.Name, d.loc(x.Location()), extra)
	for _, ch := range x.Children {
		d.decl(ch, depth+1)
	}
	if x.Init.IsValid() {
		d.expr(x.Init, depth+1)
	}
	if x.Body.IsValid() {
		d.stmt(x.Body, depth+1)
	}
}

func (d *dumper) stmt(id StmtID, depth int) {
	s := d.c.Stmt(id)
	if s == nil {
		return
	}
	if s.Label != "" {
		d.line(depth, "%s %s", s.Kind, s.Label)
	} else {
		d.line(depth, "%s", s.Kind)
	}
	for _, dd := range s.Decls {
		d.decl(dd, depth+1)
	}
	if s.Init.IsValid() {
		d.stmt(s.Init, depth+1)
	}
	for _, e := range []ExprID{s.Cond, s.Expr, s.Inc} {
		if e.IsValid() {
			d.expr(e, depth+1)
		}
	}
	for _, ch := range s.Children {
		d.stmt(ch, depth+1)
	}
	for _, ch := range []StmtID{s.Then, s.Else, s.Body} {
		if ch.IsValid() {
			d.stmt(ch, depth+1)
		}
	}
}

func (d *dumper) expr(id ExprID, depth int) {
	e := d.c.Expr(id)
	if e == nil {
		return
	}
	if e.Value != "" {
		d.line(depth, "%s %s", e.Kind, e.Value)
	} else {
		d.line(depth, "%s", e.Kind)
	}
	if e.Callee.IsValid() {
		d.expr(e.Callee, depth+1)
	}
	for _, op := range e.Operands {
		d.expr(op, depth+1)
	}
}
