package parser

import (
	"strings"

	"lantern/internal/ast"
	"lantern/internal/diag"
	"lantern/internal/source"
	"lantern/internal/token"
)

// приоритеты бинарных операторов, больше: сильнее
const (
	precNone = iota
	precComma
	precAssign
	precCond
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
)

func binaryPrec(k token.Kind) int {
	switch k {
	case token.PipePipe:
		return precOr
	case token.AmpAmp:
		return precAnd
	case token.Pipe:
		return precBitOr
	case token.Caret:
		return precBitXor
	case token.Amp:
		return precBitAnd
	case token.EqEq, token.BangEq:
		return precEquality
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		return precRelational
	case token.Shl, token.Shr:
		return precShift
	case token.Plus, token.Minus:
		return precAdditive
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative
	}
	return precNone
}

func isAssignOp(k token.Kind) bool {
	switch k {
	case token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign,
		token.SlashAssign, token.PercentAssign, token.AmpAssign, token.PipeAssign,
		token.CaretAssign, token.ShlAssign, token.ShrAssign:
		return true
	}
	return false
}

// newExpr allocates e, stamping macro origin from tok and template dependence.
func (p *Parser) newExpr(e ast.Expr, tok token.Token) ast.ExprID {
	if tok.Has(token.FromMacro) {
		e.FromMacro = true
		e.MacroName = tok.Macro
	}
	e.Dependent = e.Dependent || p.sema.InTemplate()
	return p.ctx.Exprs.New(e)
}

func (p *Parser) exprSpan(id ast.ExprID) source.Span {
	if e := p.ctx.Expr(id); e != nil {
		return e.Span
	}
	return p.last
}

// parseExpr parses a full expression including the comma operator.
func (p *Parser) parseExpr() ast.ExprID {
	first := p.peek()
	lhs := p.parseAssign()
	for lhs.IsValid() && p.at(token.Comma) {
		p.advance()
		rhs := p.parseAssign()
		if !rhs.IsValid() {
			return lhs
		}
		lhs = p.newExpr(ast.Expr{
			Kind:     ast.ExprBinary,
			Span:     p.spanFrom(p.exprSpan(lhs)),
			Value:    ",",
			Operands: []ast.ExprID{lhs, rhs},
		}, first)
	}
	return lhs
}

func (p *Parser) parseAssign() ast.ExprID {
	first := p.peek()
	lhs := p.parseConditional()
	if !lhs.IsValid() || !isAssignOp(p.peek().Kind) {
		return lhs
	}
	op := p.advance()
	rhs := p.parseAssign()
	if !rhs.IsValid() {
		return lhs
	}
	return p.newExpr(ast.Expr{
		Kind:     ast.ExprBinary,
		Span:     p.spanFrom(p.exprSpan(lhs)),
		Value:    op.Kind.String(),
		Operands: []ast.ExprID{lhs, rhs},
	}, first)
}

func (p *Parser) parseConditional() ast.ExprID {
	first := p.peek()
	cond := p.parseBinary(precOr)
	if !cond.IsValid() || !p.at(token.Question) {
		return cond
	}
	p.advance()
	a := p.parseExpr()
	p.expect(token.Colon)
	b := p.parseConditional()
	return p.newExpr(ast.Expr{
		Kind:     ast.ExprBinary,
		Span:     p.spanFrom(p.exprSpan(cond)),
		Value:    "?:",
		Operands: []ast.ExprID{cond, a, b},
	}, first)
}

// parseBinary: precedence climbing, все операторы левоассоциативны
func (p *Parser) parseBinary(minPrec int) ast.ExprID {
	first := p.peek()
	lhs := p.parseUnary()
	for lhs.IsValid() {
		prec := binaryPrec(p.peek().Kind)
		if prec == precNone || prec < minPrec {
			return lhs
		}
		op := p.advance()
		rhs := p.parseBinary(prec + 1)
		if !rhs.IsValid() {
			return lhs
		}
		lhs = p.newExpr(ast.Expr{
			Kind:     ast.ExprBinary,
			Span:     p.spanFrom(p.exprSpan(lhs)),
			Value:    op.Kind.String(),
			Operands: []ast.ExprID{lhs, rhs},
		}, first)
	}
	return lhs
}

// startsTypeName reports whether the token after '(' begins a type, making
// the parenthesis a cast.
func (p *Parser) startsTypeName(t token.Token) bool {
	switch {
	case t.Kind.IsTypeSpecifier(), t.Kind == token.KwConst, t.Kind == token.KwVolatile:
		return true
	case t.Kind == token.Ident:
		return p.sema.IsTypeName(t.Text)
	}
	return false
}

func (p *Parser) parseUnary() ast.ExprID {
	t := p.peek()
	switch t.Kind {
	case token.Bang, token.Minus, token.Plus, token.Tilde, token.Star, token.Amp,
		token.PlusPlus, token.MinusMinus:
		p.advance()
		operand := p.parseUnary()
		if !operand.IsValid() {
			return ast.NoExprID
		}
		return p.newExpr(ast.Expr{
			Kind:     ast.ExprUnary,
			Span:     p.spanFrom(t.Span),
			Value:    t.Kind.String(),
			Operands: []ast.ExprID{operand},
		}, t)
	case token.KwSizeof:
		p.advance()
		if p.at(token.LParen) && p.startsTypeName(p.peekN(1)) {
			p.advance()
			typ := p.parseTypeName()
			p.expect(token.RParen)
			return p.newExpr(ast.Expr{Kind: ast.ExprUnary, Span: p.spanFrom(t.Span), Value: "sizeof(" + typ + ")"}, t)
		}
		operand := p.parseUnary()
		var ops []ast.ExprID
		if operand.IsValid() {
			ops = []ast.ExprID{operand}
		}
		return p.newExpr(ast.Expr{Kind: ast.ExprUnary, Span: p.spanFrom(t.Span), Value: "sizeof", Operands: ops}, t)
	case token.LParen:
		if p.startsTypeName(p.peekN(1)) {
			p.advance()
			typ := p.parseTypeName()
			p.expect(token.RParen)
			operand := p.parseUnary()
			if !operand.IsValid() {
				return ast.NoExprID
			}
			return p.newExpr(ast.Expr{
				Kind:     ast.ExprUnary,
				Span:     p.spanFrom(t.Span),
				Value:    "(" + typ + ")",
				Operands: []ast.ExprID{operand},
			}, t)
		}
	}
	return p.parsePostfix(p.parsePrimary())
}

// parseTypeName parses a type inside a cast or sizeof.
func (p *Parser) parseTypeName() string {
	spec, ok := p.parseDeclSpec(false, nil)
	if !ok {
		return ""
	}
	d := p.parseDeclarator(true)
	return d.typeOf(spec.typ)
}

func (p *Parser) parsePostfix(base ast.ExprID) ast.ExprID {
	for base.IsValid() {
		t := p.peek()
		switch t.Kind {
		case token.LParen:
			base = p.parseCall(base)
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBracket)
			ops := []ast.ExprID{base}
			if idx.IsValid() {
				ops = append(ops, idx)
			}
			base = p.newExpr(ast.Expr{Kind: ast.ExprIndex, Span: p.spanFrom(p.exprSpan(base)), Operands: ops}, t)
		case token.Dot, token.Arrow:
			p.advance()
			name, ok := p.expect(token.Ident)
			if !ok {
				return base
			}
			base = p.newExpr(ast.Expr{
				Kind:     ast.ExprMember,
				Span:     p.spanFrom(p.exprSpan(base)),
				Value:    t.Kind.String() + name.Text,
				Operands: []ast.ExprID{base},
			}, name)
		case token.PlusPlus, token.MinusMinus:
			p.advance()
			base = p.newExpr(ast.Expr{
				Kind:     ast.ExprUnary,
				Span:     p.spanFrom(p.exprSpan(base)),
				Value:    "post" + t.Kind.String(),
				Operands: []ast.ExprID{base},
			}, t)
		default:
			return base
		}
	}
	return base
}

// parseCall parses the argument list of callee. Calls to function
// templates without explicit arguments deduce them from the arguments.
func (p *Parser) parseCall(callee ast.ExprID) ast.ExprID {
	open := p.advance()
	var args []ast.ExprID
	for !p.at(token.RParen) && !p.at(token.EOF) {
		a := p.parseAssign()
		if !a.IsValid() {
			p.skipUntil(token.RParen, token.Semicolon)
			break
		}
		args = append(args, a)
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen)
	if ce := p.ctx.Expr(callee); ce != nil && ce.Kind == ast.ExprDeclRef && len(ce.TemplateArgs) == 0 {
		if d := p.ctx.Decl(ce.Decl); d != nil && d.Kind == ast.DeclFunctionTemplate {
			if targs, ok := p.deduce(d, args); ok {
				if inst := p.sema.InstantiateFunctionTemplate(ce.Decl, targs, ce.Span); inst.IsValid() {
					ce.Decl = inst
					ce.TemplateArgs = targs
				}
			}
		}
	}
	return p.newExpr(ast.Expr{
		Kind:     ast.ExprCall,
		Span:     p.spanFrom(p.exprSpan(callee)),
		Callee:   callee,
		Operands: args,
	}, open)
}

// deduce matches template parameters against argument types position by
// position. Every parameter must be deduced.
func (p *Parser) deduce(tmpl *ast.Decl, args []ast.ExprID) ([]string, bool) {
	paramTypes := p.patternParamTypes(tmpl)
	out := make([]string, len(tmpl.TemplateParams))
	for i, pt := range paramTypes {
		if i >= len(args) {
			break
		}
		for j, tp := range tmpl.TemplateParams {
			if out[j] != "" {
				continue
			}
			for _, f := range strings.Fields(pt) {
				if strings.Trim(f, "*&") == tp {
					out[j] = p.exprType(args[i])
				}
			}
		}
	}
	for _, a := range out {
		if a == "" {
			return nil, false
		}
	}
	return out, true
}

func (p *Parser) patternParamTypes(tmpl *ast.Decl) []string {
	pattern := p.ctx.Decl(tmpl.Template)
	if pattern == nil {
		return nil
	}
	if len(pattern.Children) > 0 {
		out := make([]string, 0, len(pattern.Children))
		for _, ch := range pattern.Children {
			out = append(out, p.ctx.Decl(ch).Type)
		}
		return out
	}
	// шаблон из преамбулы: типы параметров только в строке типа
	open := strings.IndexByte(pattern.Type, '(')
	end := strings.LastIndexByte(pattern.Type, ')')
	if open < 0 || end <= open+1 {
		return nil
	}
	return strings.Split(pattern.Type[open+1:end], ", ")
}

// exprType is the spelled type of simple expressions, "" when unknown.
func (p *Parser) exprType(id ast.ExprID) string {
	e := p.ctx.Expr(id)
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ast.ExprIntLit:
		return "int"
	case ast.ExprFloatLit:
		if strings.HasSuffix(strings.ToLower(e.Value), "f") && !strings.HasPrefix(e.Value, "0x") {
			return "float"
		}
		return "double"
	case ast.ExprCharLit:
		return "char"
	case ast.ExprBoolLit:
		return "bool"
	case ast.ExprStringLit:
		return "const char *"
	case ast.ExprDeclRef:
		if d := p.ctx.Decl(e.Decl); d != nil {
			return strings.TrimPrefix(d.Type, "const ")
		}
	case ast.ExprParen:
		if len(e.Operands) == 1 {
			return p.exprType(e.Operands[0])
		}
	}
	return ""
}

func (p *Parser) parsePrimary() ast.ExprID {
	t := p.peek()
	switch t.Kind {
	case token.NumericLit:
		p.advance()
		kind := ast.ExprIntLit
		if isFloatLiteral(t.Text) {
			kind = ast.ExprFloatLit
		}
		return p.newExpr(ast.Expr{Kind: kind, Span: t.Span, Value: t.Text}, t)
	case token.CharLit:
		p.advance()
		return p.newExpr(ast.Expr{Kind: ast.ExprCharLit, Span: t.Span, Value: t.Text}, t)
	case token.StringLit:
		p.advance()
		text := t.Text
		for p.at(token.StringLit) {
			text += " " + p.advance().Text
		}
		return p.newExpr(ast.Expr{Kind: ast.ExprStringLit, Span: p.spanFrom(t.Span), Value: text}, t)
	case token.KwTrue, token.KwFalse:
		p.advance()
		return p.newExpr(ast.Expr{Kind: ast.ExprBoolLit, Span: t.Span, Value: t.Text}, t)
	case token.KwNullptr:
		p.advance()
		return p.newExpr(ast.Expr{Kind: ast.ExprNullPtr, Span: t.Span, Value: t.Text}, t)
	case token.LParen:
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RParen)
		if !inner.IsValid() {
			return ast.NoExprID
		}
		return p.newExpr(ast.Expr{Kind: ast.ExprParen, Span: p.spanFrom(t.Span), Operands: []ast.ExprID{inner}}, t)
	case token.Ident:
		return p.parseName()
	case token.LBracket:
		if p.lang.ObjC {
			return p.parseObjCMessage()
		}
	case token.At:
		if p.lang.ObjC && p.peekN(1).Kind == token.StringLit {
			p.advance()
			s := p.advance()
			return p.newExpr(ast.Expr{Kind: ast.ExprStringLit, Span: p.spanFrom(t.Span), Value: "@" + s.Text}, t)
		}
	}
	p.report(diag.SynExpectedExpression, t.Span)
	return ast.NoExprID
}

// parseName parses an identifier reference, including `name<args>` calls
// of function templates.
func (p *Parser) parseName() ast.ExprID {
	t := p.advance()
	if p.at(token.Lt) && p.sema.IsTemplateName(t.Text) {
		args := p.parseTemplateArgs()
		tmpl := p.sema.TemplateDecl(t.Text)
		ref := tmpl
		if inst := p.sema.InstantiateFunctionTemplate(tmpl, args, t.Span); inst.IsValid() {
			ref = inst
		}
		return p.newExpr(ast.Expr{
			Kind:         ast.ExprDeclRef,
			Span:         p.spanFrom(t.Span),
			Value:        t.Text,
			Decl:         ref,
			TemplateArgs: args,
		}, t)
	}
	call := p.at(token.LParen)
	if p.sema.IsTypeName(t.Text) && call {
		// functional cast T(x)
		return p.newExpr(ast.Expr{Kind: ast.ExprDeclRef, Span: t.Span, Value: t.Text, Decl: p.sema.LookupDecl(t.Text)}, t)
	}
	id, _ := p.sema.ResolveName(t.Text, t.Span, call)
	if p.sema.IsTemplateName(t.Text) {
		id = p.sema.TemplateDecl(t.Text)
	}
	return p.newExpr(ast.Expr{Kind: ast.ExprDeclRef, Span: t.Span, Value: t.Text, Decl: id}, t)
}

func isFloatLiteral(s string) bool {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strings.ContainsAny(s, ".pP")
	}
	return strings.ContainsAny(s, ".eE")
}
