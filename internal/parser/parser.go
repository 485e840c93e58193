package parser

import (
	"lantern/internal/ast"
	"lantern/internal/diag"
	"lantern/internal/lang"
	"lantern/internal/sema"
	"lantern/internal/source"
	"lantern/internal/token"
)

// TokenSource supplies preprocessed tokens.
type TokenSource interface {
	Lex() token.Token
}

// Consumer receives the parser's output: top-level declaration groups in
// source order, then the finished translation unit. Returning false from
// HandleTopLevelDecl stops parsing.
type Consumer interface {
	HandleTopLevelDecl(group []ast.DeclID) bool
	HandleTranslationUnit(ctx *ast.Context)
}

// Parser: состояние парсера на одну единицу трансляции
type Parser struct {
	src      TokenSource
	sema     *sema.Sema
	ctx      *ast.Context
	lang     lang.Options
	consumer Consumer

	ahead []token.Token
	last  source.Span // span последнего съеденного токена
	stop  bool
}

func New(src TokenSource, sm *sema.Sema, consumer Consumer) *Parser {
	return &Parser{
		src:      src,
		sema:     sm,
		ctx:      sm.Context(),
		lang:     sm.LangOptions(),
		consumer: consumer,
	}
}

// ParseTranslationUnit parses until EOF, hands every top-level group to
// the consumer, then the pending template instantiations, then the unit.
func (p *Parser) ParseTranslationUnit() {
	for !p.stop && !p.at(token.EOF) {
		group := p.parseExternalDeclaration()
		p.deliver(group)
	}
	p.sema.ActOnEndOfTranslationUnit()
	for _, id := range p.sema.TakePendingInstantiations() {
		if p.stop {
			break
		}
		p.ctx.AddTopLevel(id)
		if p.consumer != nil && !p.consumer.HandleTopLevelDecl([]ast.DeclID{id}) {
			p.stop = true
		}
	}
	if p.consumer != nil {
		p.consumer.HandleTranslationUnit(p.ctx)
	}
}

func (p *Parser) deliver(group []ast.DeclID) {
	if len(group) == 0 {
		return
	}
	for _, id := range group {
		p.ctx.AddTopLevel(id)
	}
	if p.consumer != nil && !p.consumer.HandleTopLevelDecl(group) {
		p.stop = true
	}
}

func (p *Parser) peekN(n int) token.Token {
	for len(p.ahead) <= n {
		t := p.src.Lex()
		p.ahead = append(p.ahead, t)
		if t.Kind == token.EOF {
			for len(p.ahead) <= n {
				p.ahead = append(p.ahead, t)
			}
		}
	}
	return p.ahead[n]
}

func (p *Parser) peek() token.Token { return p.peekN(0) }

func (p *Parser) at(k token.Kind) bool { return p.peek().Kind == k }

// advance: съедает следующий токен и обновляет last
func (p *Parser) advance() token.Token {
	t := p.peek()
	if t.Kind == token.EOF {
		return t
	}
	p.ahead = p.ahead[1:]
	p.last = t.Span
	return t
}

func (p *Parser) accept(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

// expect reports "expected 'x'" right after the previous token.
func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.report(diag.SynExpectedToken, p.diagSpan(), k.String())
	return token.Token{Kind: token.Invalid, Span: p.diagSpan()}, false
}

// diagSpan: лучший span для диагностики отсутствующего токена
func (p *Parser) diagSpan() source.Span {
	if p.last.File != source.NoFile {
		return source.Span{File: p.last.File, Start: p.last.End, End: p.last.End}
	}
	return p.peek().Span
}

func (p *Parser) report(code diag.Code, sp source.Span, args ...any) {
	if d := p.sema.Diagnostics(); d != nil {
		d.Report(code, sp, args...).Emit()
	}
}

// spanFrom covers start..last consumed token.
func (p *Parser) spanFrom(start source.Span) source.Span {
	if p.last.File != start.File || p.last.End < start.Start {
		return start
	}
	return source.Span{File: start.File, Start: start.Start, End: p.last.End}
}

// skipUntil drops tokens until one of kinds at bracket depth zero. Balanced
// braces are skipped whole; an unmatched '}' stops the skip.
func (p *Parser) skipUntil(kinds ...token.Kind) {
	depth := 0
	for {
		t := p.peek()
		if t.Kind == token.EOF {
			return
		}
		if depth == 0 {
			for _, k := range kinds {
				if t.Kind == k {
					return
				}
			}
		}
		switch t.Kind {
		case token.LBrace, token.LParen, token.LBracket:
			depth++
		case token.RBrace, token.RParen, token.RBracket:
			if depth == 0 {
				return
			}
			depth--
		}
		p.advance()
	}
}

// recoverStatement skips to the end of the broken statement.
func (p *Parser) recoverStatement() {
	for {
		p.skipUntil(token.Semicolon, token.RBrace)
		if !p.at(token.RParen) && !p.at(token.RBracket) {
			break
		}
		p.advance()
	}
	p.accept(token.Semicolon)
}
