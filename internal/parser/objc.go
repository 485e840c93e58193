package parser

import (
	"lantern/internal/ast"
	"lantern/internal/diag"
	"lantern/internal/source"
	"lantern/internal/token"
)

// atKeyword reports whether the next tokens are `@word`.
func (p *Parser) atKeyword(word string) bool {
	return p.at(token.At) && p.peekN(1).Kind == token.Ident && p.peekN(1).Text == word
}

// parseObjC parses an Objective-C container. Methods of an @implementation
// are handed to the consumer as groups of their own after the container.
func (p *Parser) parseObjC() []ast.DeclID {
	at := p.advance()
	kw := p.peek()
	if kw.Kind != token.Ident {
		p.report(diag.SynExpectedDecl, at.Span)
		p.recoverStatement()
		return nil
	}
	p.advance()
	switch kw.Text {
	case "class":
		var group []ast.DeclID
		for {
			name, ok := p.expect(token.Ident)
			if !ok {
				break
			}
			id := p.ctx.Decls.New(ast.Decl{
				Kind:     ast.DeclObjCContainer,
				Name:     name.Text,
				Span:     p.spanFrom(at.Span),
				NameSpan: name.Span,
				Tag:      "@class",
			})
			if !p.sema.IsKnown(name.Text) {
				p.sema.Declare(id)
			}
			group = append(group, id)
			if _, ok := p.accept(token.Comma); !ok {
				break
			}
		}
		p.endStatement()
		return group
	case "interface", "protocol", "implementation":
		return p.parseObjCContainer(at, "@"+kw.Text)
	}
	p.report(diag.SynExpectedDecl, at.Span)
	p.recoverStatement()
	return nil
}

func (p *Parser) parseObjCContainer(at token.Token, tag string) []ast.DeclID {
	name, _ := p.expect(token.Ident)
	id := p.ctx.Decls.New(ast.Decl{
		Kind:         ast.DeclObjCContainer,
		Name:         name.Text,
		NameSpan:     name.Span,
		Tag:          tag,
		IsDefinition: true,
	})
	// : Super, (Category), <Protocols>
	if _, ok := p.accept(token.Colon); ok {
		p.accept(token.Ident)
	}
	if _, ok := p.accept(token.LParen); ok {
		p.accept(token.Ident)
		p.expect(token.RParen)
	}
	if p.at(token.Lt) {
		p.parseTemplateArgs()
	}
	if tag != "@implementation" {
		p.sema.Declare(id)
	}
	if _, ok := p.accept(token.LBrace); ok {
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			p.parseMember(id)
		}
		p.expect(token.RBrace)
	}

	var methods []ast.DeclID
	for !p.atKeyword("end") {
		t := p.peek()
		switch {
		case t.Kind == token.EOF || p.atKeyword("interface") || p.atKeyword("implementation"):
			p.report(diag.SynMissingObjCEnd, p.diagSpan())
			return p.finishObjCContainer(id, at.Span, methods)
		case t.Kind == token.Minus || t.Kind == token.Plus:
			m := p.parseObjCMethod(id, name.Text, tag == "@implementation")
			if m.IsValid() {
				methods = append(methods, m)
			}
		case p.atKeyword("property"), p.atKeyword("synthesize"), p.atKeyword("dynamic"):
			p.recoverStatement()
		case p.atKeyword("optional"), p.atKeyword("required"):
			p.advance()
			p.advance()
		default:
			p.report(diag.SynExpectedDecl, t.Span)
			p.advance()
			p.recoverStatement()
		}
	}
	p.advance() // @
	p.advance() // end
	return p.finishObjCContainer(id, at.Span, methods)
}

func (p *Parser) finishObjCContainer(id ast.DeclID, start source.Span, methods []ast.DeclID) []ast.DeclID {
	d := p.ctx.Decl(id)
	d.Span = p.spanFrom(start)
	if d.Tag != "@implementation" {
		d.Children = append(d.Children, methods...)
		return []ast.DeclID{id}
	}
	p.deliver([]ast.DeclID{id})
	for _, m := range methods {
		if p.stop {
			break
		}
		p.deliver([]ast.DeclID{m})
	}
	return nil
}

// parseObjCMethod parses `- (type) part:(type)arg ... ;` or with a body.
func (p *Parser) parseObjCMethod(container ast.DeclID, class string, impl bool) ast.DeclID {
	sign := p.advance()
	ret := "id"
	if _, ok := p.accept(token.LParen); ok {
		ret = p.parseTypeName()
		p.expect(token.RParen)
	}
	first, ok := p.expect(token.Ident)
	if !ok {
		p.recoverStatement()
		return ast.NoDeclID
	}
	selector := first.Text
	var params []ast.DeclID
	if p.at(token.Colon) {
		selector = ""
		part := first
		for {
			p.advance() // :
			selector += part.Text + ":"
			typ := "id"
			if _, ok := p.accept(token.LParen); ok {
				typ = p.parseTypeName()
				p.expect(token.RParen)
			}
			arg, ok := p.expect(token.Ident)
			if !ok {
				break
			}
			params = append(params, p.ctx.Decls.New(ast.Decl{
				Kind:     ast.DeclParam,
				Name:     arg.Text,
				Span:     arg.Span,
				NameSpan: arg.Span,
				Type:     typ,
			}))
			if !(p.at(token.Ident) && p.peekN(1).Kind == token.Colon) {
				break
			}
			part = p.advance()
		}
	}
	id := p.ctx.Decls.New(ast.Decl{
		Kind:         ast.DeclObjCMethod,
		Name:         selector,
		NameSpan:     first.Span,
		Type:         ret,
		Parent:       container,
		Children:     params,
		ObjCInstance: sign.Kind == token.Minus,
		IsDefinition: impl && p.at(token.LBrace),
	})
	if impl && p.at(token.LBrace) {
		p.sema.PushIvarScope(p.sema.InterfaceIvars(class))
		p.sema.PushFunctionScope()
		p.sema.DeclareImplicit("self", class+" *")
		p.sema.DeclareImplicit("_cmd", "SEL")
		for _, param := range params {
			p.sema.Declare(param)
		}
		body := p.parseCompound(false)
		p.sema.PopScope()
		p.sema.PopScope()
		p.ctx.Decl(id).Body = body
	} else {
		p.endStatement()
	}
	p.ctx.Decl(id).Span = p.spanFrom(sign.Span)
	return id
}

// parseObjCMessage parses `[receiver selector:arg ...]`.
func (p *Parser) parseObjCMessage() ast.ExprID {
	open := p.advance()
	var recv ast.ExprID
	if t := p.peek(); t.Kind == token.Ident && p.sema.IsTypeName(t.Text) {
		p.advance()
		recv = p.newExpr(ast.Expr{Kind: ast.ExprDeclRef, Span: t.Span, Value: t.Text, Decl: p.sema.LookupDecl(t.Text)}, t)
	} else {
		recv = p.parseExpr()
	}
	if !recv.IsValid() {
		p.skipUntil(token.RBracket)
		p.accept(token.RBracket)
		return ast.NoExprID
	}
	ops := []ast.ExprID{recv}
	selector := ""
	first, ok := p.expect(token.Ident)
	if ok {
		selector = first.Text
		if p.at(token.Colon) {
			selector = ""
			part := first
			for {
				p.advance() // :
				selector += part.Text + ":"
				if arg := p.parseAssign(); arg.IsValid() {
					ops = append(ops, arg)
				}
				if !(p.at(token.Ident) && p.peekN(1).Kind == token.Colon) {
					break
				}
				part = p.advance()
			}
		}
	}
	if _, ok := p.expect(token.RBracket); !ok {
		p.skipUntil(token.RBracket)
		p.accept(token.RBracket)
	}
	return p.newExpr(ast.Expr{
		Kind:     ast.ExprObjCMessage,
		Span:     p.spanFrom(open.Span),
		Value:    selector,
		Operands: ops,
	}, open)
}
