package parser

import (
	"lantern/internal/ast"
	"lantern/internal/diag"
	"lantern/internal/token"
)

// parseCompound parses `{ ... }`. newScope is false for function bodies,
// whose outermost block shares the scope of the parameters.
func (p *Parser) parseCompound(newScope bool) ast.StmtID {
	open, ok := p.expect(token.LBrace)
	if !ok {
		p.recoverStatement()
		return ast.NoStmtID
	}
	if newScope {
		p.sema.PushBlockScope()
	}
	var children []ast.StmtID
	for !p.at(token.RBrace) && !p.at(token.EOF) && !p.stop {
		if s := p.parseStatement(); s.IsValid() {
			children = append(children, s)
		}
	}
	p.expect(token.RBrace)
	if newScope {
		p.sema.PopScope()
	}
	return p.ctx.Stmts.New(ast.Stmt{
		Kind:     ast.StmtCompound,
		Span:     p.spanFrom(open.Span),
		Children: children,
	})
}

func (p *Parser) parseStatement() ast.StmtID {
	t := p.peek()
	switch t.Kind {
	case token.LBrace:
		return p.parseCompound(true)
	case token.Semicolon:
		p.advance()
		return p.ctx.Stmts.New(ast.Stmt{Kind: ast.StmtNull, Span: t.Span})
	case token.KwReturn:
		p.advance()
		var e ast.ExprID
		if !p.at(token.Semicolon) {
			e = p.parseExpr()
		}
		p.endStatement()
		return p.ctx.Stmts.New(ast.Stmt{Kind: ast.StmtReturn, Span: p.spanFrom(t.Span), Expr: e})
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		p.advance()
		cond := p.parseParenExpr()
		body := p.parseStatement()
		return p.ctx.Stmts.New(ast.Stmt{Kind: ast.StmtWhile, Span: p.spanFrom(t.Span), Cond: cond, Body: body})
	case token.KwFor:
		return p.parseFor()
	case token.KwGoto:
		p.advance()
		label, _ := p.expect(token.Ident)
		p.endStatement()
		id := p.ctx.Stmts.New(ast.Stmt{Kind: ast.StmtGoto, Span: p.spanFrom(t.Span), Label: label.Text})
		if label.Text != "" {
			p.sema.NoteGoto(label.Text, id)
		}
		return id
	case token.KwBreak, token.KwContinue:
		p.advance()
		p.endStatement()
		kind := ast.StmtBreak
		if t.Kind == token.KwContinue {
			kind = ast.StmtContinue
		}
		return p.ctx.Stmts.New(ast.Stmt{Kind: kind, Span: p.spanFrom(t.Span)})
	case token.Ident:
		if p.peekN(1).Kind == token.Colon {
			p.advance()
			p.advance()
			p.sema.DeclareLabel(t.Text, ast.NoDeclID)
			var body ast.StmtID
			if !p.at(token.RBrace) {
				body = p.parseStatement()
			}
			return p.ctx.Stmts.New(ast.Stmt{Kind: ast.StmtLabel, Span: p.spanFrom(t.Span), Label: t.Text, Body: body})
		}
	case token.KwElse, token.RParen, token.RBracket:
		p.report(diag.SynExpectedStatement, t.Span)
		p.advance()
		return ast.NoStmtID
	}
	if p.startsDecl() {
		return p.parseDeclStmt()
	}
	e := p.parseExpr()
	if !e.IsValid() {
		p.recoverStatement()
		return ast.NoStmtID
	}
	p.endStatement()
	return p.ctx.Stmts.New(ast.Stmt{Kind: ast.StmtExpr, Span: p.spanFrom(t.Span), Expr: e})
}

func (p *Parser) parseDeclStmt() ast.StmtID {
	start := p.peek().Span
	decls := p.parseDeclaration(false, nil)
	return p.ctx.Stmts.New(ast.Stmt{Kind: ast.StmtDecl, Span: p.spanFrom(start), Decls: decls})
}

// endStatement expects the terminating ';' and resyncs when it is missing.
func (p *Parser) endStatement() {
	if _, ok := p.expect(token.Semicolon); !ok {
		p.recoverStatement()
	}
}

func (p *Parser) parseParenExpr() ast.ExprID {
	if _, ok := p.expect(token.LParen); !ok {
		return ast.NoExprID
	}
	e := p.parseExpr()
	if _, ok := p.expect(token.RParen); !ok {
		p.skipUntil(token.RParen, token.LBrace, token.Semicolon)
		p.accept(token.RParen)
	}
	return e
}

func (p *Parser) parseIf() ast.StmtID {
	kw := p.advance()
	cond := p.parseParenExpr()
	then := p.parseStatement()
	var els ast.StmtID
	if _, ok := p.accept(token.KwElse); ok {
		els = p.parseStatement()
	}
	return p.ctx.Stmts.New(ast.Stmt{
		Kind: ast.StmtIf,
		Span: p.spanFrom(kw.Span),
		Cond: cond,
		Then: then,
		Else: els,
	})
}

func (p *Parser) parseFor() ast.StmtID {
	kw := p.advance()
	if _, ok := p.expect(token.LParen); !ok {
		p.recoverStatement()
		return ast.NoStmtID
	}
	p.sema.PushBlockScope()
	defer p.sema.PopScope()

	var init ast.StmtID
	switch {
	case p.at(token.Semicolon):
		p.advance()
	case p.startsDecl():
		init = p.parseDeclStmt()
	default:
		start := p.peek().Span
		e := p.parseExpr()
		p.expect(token.Semicolon)
		init = p.ctx.Stmts.New(ast.Stmt{Kind: ast.StmtExpr, Span: p.spanFrom(start), Expr: e})
	}
	var cond, inc ast.ExprID
	if !p.at(token.Semicolon) {
		cond = p.parseExpr()
	}
	p.expect(token.Semicolon)
	if !p.at(token.RParen) {
		inc = p.parseExpr()
	}
	p.expect(token.RParen)
	body := p.parseStatement()
	return p.ctx.Stmts.New(ast.Stmt{
		Kind: ast.StmtFor,
		Span: p.spanFrom(kw.Span),
		Init: init,
		Cond: cond,
		Inc:  inc,
		Body: body,
	})
}
