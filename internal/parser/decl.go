package parser

import (
	"strings"

	"lantern/internal/ast"
	"lantern/internal/diag"
	"lantern/internal/source"
	"lantern/internal/token"
)

// declSpec: разобранные спецификаторы объявления
type declSpec struct {
	typ     string
	storage ast.StorageClass
	typedef bool
	inline  bool
	// record is set when the specifier defined a struct/union/class body.
	record    ast.DeclID
	start     source.Span
	fromMacro bool
	macro     string
}

// declarator is one declared name with its pointer, array and function parts.
type declarator struct {
	name       string
	nameSpan   source.Span
	nameTok    token.Token
	ptr        string
	array      string
	isFunc     bool
	params     []ast.DeclID
	paramTypes []string
	variadic   bool
	// owner is the record of an out-of-line member definition (Foo::bar).
	owner ast.DeclID
}

func (d *declarator) typeOf(base string) string {
	t := base
	if d.ptr != "" {
		t += " " + d.ptr
	}
	if d.isFunc {
		params := append([]string(nil), d.paramTypes...)
		if d.variadic {
			params = append(params, "...")
		}
		return t + " (" + strings.Join(params, ", ") + ")"
	}
	return t + d.array
}

// startsDecl reports whether the upcoming tokens begin a declaration.
// Inside bodies a lone unknown identifier starts an expression; two
// identifiers in a row are read as an unknown type followed by a name.
func (p *Parser) startsDecl() bool {
	t := p.peek()
	switch {
	case t.Kind == token.KwTypedef || t.Kind == token.KwTypename:
		return true
	case t.Kind.IsTypeSpecifier() || t.Kind.IsQualifier():
		return true
	case t.Kind == token.Ident:
		if p.sema.IsTypeName(t.Text) {
			next := p.peekN(1).Kind
			return next != token.LParen && next != token.ColonColon
		}
		return p.peekN(1).Kind == token.Ident
	}
	return false
}

// parseDeclSpec reads storage classes, qualifiers and the base type.
// topLevel allows `Unknown *name` to be read as a declaration.
func (p *Parser) parseDeclSpec(topLevel bool, templateParams []string) (declSpec, bool) {
	first := p.peek()
	spec := declSpec{
		start:     first.Span,
		fromMacro: first.Has(token.FromMacro),
		macro:     first.Macro,
	}
	var quals, words []string
	base := ""
	seen := false
loop:
	for {
		t := p.peek()
		switch {
		case t.Kind == token.KwTypedef:
			spec.typedef = true
		case t.Kind == token.KwStatic:
			spec.storage = ast.StorageStatic
		case t.Kind == token.KwExtern:
			spec.storage = ast.StorageExtern
		case t.Kind == token.KwInline:
			spec.inline = true
		case t.Kind == token.KwConst || t.Kind == token.KwVolatile:
			quals = append(quals, t.Text)
		case t.Kind == token.KwStruct || t.Kind == token.KwUnion || t.Kind == token.KwClass:
			if base != "" || len(words) > 0 {
				break loop
			}
			base = p.parseRecordSpecifier(&spec, templateParams)
			seen = true
			continue
		case t.Kind.IsTypeSpecifier():
			if base != "" {
				break loop
			}
			words = append(words, t.Text)
		case t.Kind == token.KwTypename:
			p.advance()
			if name, ok := p.accept(token.Ident); ok {
				base = name.Text
				seen = true
			}
			continue
		case t.Kind == token.Ident:
			if base != "" || len(words) > 0 {
				break loop
			}
			if p.sema.IsTypeName(t.Text) {
				p.advance()
				base = t.Text
				if p.at(token.Lt) {
					base += "<" + strings.Join(p.parseTemplateArgs(), ", ") + ">"
				}
				seen = true
				continue
			}
			next := p.peekN(1).Kind
			if next == token.Ident || topLevel && (next == token.Star || next == token.Amp) {
				p.advance()
				p.sema.UnknownTypeName(t.Text, t.Span)
				base = t.Text
				seen = true
				continue
			}
			break loop
		default:
			break loop
		}
		seen = true
		p.advance()
	}
	if !seen {
		return spec, false
	}
	if base == "" {
		base = strings.Join(words, " ")
		if base == "" {
			base = "int"
		}
	}
	if len(quals) > 0 {
		base = strings.Join(quals, " ") + " " + base
	}
	spec.typ = base
	return spec, true
}

// parseRecordSpecifier parses `struct Name`, `struct Name { ... }` or an
// anonymous body and returns the spelled type.
func (p *Parser) parseRecordSpecifier(spec *declSpec, templateParams []string) string {
	kw := p.advance()
	name := ""
	var nameSpan source.Span
	if t, ok := p.accept(token.Ident); ok {
		name, nameSpan = t.Text, t.Span
	}
	typ := kw.Text
	if name != "" {
		typ += " " + name
	}
	if !p.at(token.LBrace) {
		if name != "" && !p.sema.IsKnown(name) {
			// forward declaration: struct X;
			id := p.ctx.Decls.New(ast.Decl{
				Kind:     ast.DeclRecord,
				Name:     name,
				Span:     p.spanFrom(kw.Span),
				NameSpan: nameSpan,
				Tag:      kw.Text,
			})
			p.sema.Declare(id)
			if p.at(token.Semicolon) {
				spec.record = id
			}
		}
		return typ
	}
	id := p.ctx.Decls.New(ast.Decl{
		Kind:           ast.DeclRecord,
		Name:           name,
		NameSpan:       nameSpan,
		Tag:            kw.Text,
		IsDefinition:   true,
		TemplateParams: templateParams,
		FromMacro:      kw.Has(token.FromMacro),
		MacroName:      kw.Macro,
	})
	p.sema.Declare(id)
	p.advance() // {
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		p.parseMember(id)
	}
	p.expect(token.RBrace)
	rec := p.ctx.Decl(id)
	rec.Span = p.spanFrom(kw.Span)
	spec.record = id
	return typ
}

// parseMember parses one member declaration of a record body.
func (p *Parser) parseMember(record ast.DeclID) {
	if _, ok := p.accept(token.Semicolon); ok {
		return
	}
	// public: / private: / protected:
	if p.at(token.Ident) && p.peekN(1).Kind == token.Colon {
		p.advance()
		p.advance()
		return
	}
	spec, ok := p.parseDeclSpec(false, nil)
	if !ok {
		p.report(diag.SynExpectedDecl, p.peek().Span)
		p.recoverStatement()
		return
	}
	if spec.record.IsValid() {
		p.ctx.Decl(spec.record).Parent = record
	}
	for {
		d := p.parseDeclarator(false)
		if d.name == "" {
			break
		}
		if d.isFunc {
			fn := p.ctx.Decls.New(ast.Decl{
				Kind:         ast.DeclFunction,
				Name:         d.name,
				NameSpan:     d.nameSpan,
				Type:         d.typeOf(spec.typ),
				Storage:      spec.storage,
				Parent:       record,
				Children:     d.params,
				IsDefinition: p.at(token.LBrace),
			})
			rec := p.ctx.Decl(record)
			rec.Children = append(rec.Children, fn)
			if p.at(token.LBrace) {
				p.parseFunctionBody(fn, record, d)
				p.ctx.Decl(fn).Span = p.spanFrom(spec.start)
				return
			}
			p.ctx.Decl(fn).Span = p.spanFrom(spec.start)
		} else {
			f := p.ctx.Decls.New(ast.Decl{
				Kind:      ast.DeclField,
				Name:      d.name,
				Span:      p.spanFrom(spec.start),
				NameSpan:  d.nameSpan,
				Type:      d.typeOf(spec.typ),
				Parent:    record,
				FromMacro: d.nameTok.Has(token.FromMacro),
				MacroName: d.nameTok.Macro,
			})
			rec := p.ctx.Decl(record)
			rec.Children = append(rec.Children, f)
		}
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	if _, ok := p.expect(token.Semicolon); !ok {
		p.recoverStatement()
	}
}

// parseDeclarator reads pointers, the name and array/function suffixes.
// With abstract set the name may be missing (parameters, casts).
func (p *Parser) parseDeclarator(abstract bool) declarator {
	var d declarator
	var ptr []string
	for {
		t := p.peek()
		switch t.Kind {
		case token.Star, token.Amp, token.AmpAmp:
			ptr = append(ptr, t.Kind.String())
			p.advance()
			continue
		case token.KwConst, token.KwVolatile:
			if len(ptr) > 0 {
				ptr = append(ptr, t.Text)
				p.advance()
				continue
			}
		}
		break
	}
	d.ptr = strings.Join(ptr, " ")
	d.ptr = strings.ReplaceAll(d.ptr, "* *", "**")

	if t, ok := p.accept(token.Ident); ok {
		// Owner::member
		if p.at(token.ColonColon) && p.peekN(1).Kind == token.Ident {
			if owner := p.sema.LookupDecl(t.Text); owner.IsValid() {
				if od := p.ctx.Decl(owner); od != nil && od.Kind == ast.DeclRecord {
					d.owner = owner
				}
			}
			p.advance()
			t = p.advance()
		}
		d.name, d.nameSpan, d.nameTok = t.Text, t.Span, t
	} else if !abstract {
		p.report(diag.SynExpectedToken, p.diagSpan(), "identifier")
		p.recoverStatement()
		return d
	}

	for {
		switch {
		case p.at(token.LBracket):
			p.advance()
			size := ""
			if !p.at(token.RBracket) {
				e := p.parseExpr()
				if ex := p.ctx.Expr(e); ex != nil {
					size = ex.Value
				}
			}
			p.expect(token.RBracket)
			d.array += "[" + size + "]"
			continue
		case p.at(token.LParen) && !d.isFunc:
			p.advance()
			d.isFunc = true
			p.parseParams(&d)
			p.expect(token.RParen)
			for p.at(token.KwConst) || p.at(token.KwVolatile) {
				p.advance()
			}
			continue
		}
		break
	}
	return d
}

// parseParams fills the parameter list of a function declarator.
func (p *Parser) parseParams(d *declarator) {
	if p.at(token.RParen) {
		return
	}
	if p.at(token.KwVoid) && p.peekN(1).Kind == token.RParen {
		p.advance()
		return
	}
	for {
		if _, ok := p.accept(token.Ellipsis); ok {
			d.variadic = true
			return
		}
		start := p.peek().Span
		spec, ok := p.parseDeclSpec(true, nil)
		if !ok {
			p.report(diag.SynExpectedToken, p.peek().Span, "type")
			p.skipUntil(token.RParen)
			return
		}
		pd := p.parseDeclarator(true)
		typ := pd.typeOf(spec.typ)
		id := p.ctx.Decls.New(ast.Decl{
			Kind:     ast.DeclParam,
			Name:     pd.name,
			Span:     p.spanFrom(start),
			NameSpan: pd.nameSpan,
			Type:     typ,
		})
		d.params = append(d.params, id)
		d.paramTypes = append(d.paramTypes, typ)
		if _, ok := p.accept(token.Comma); !ok {
			return
		}
	}
}

// parseTemplateArgs reads `<a, b>` and returns the spelled arguments.
// A closing `>>` is split so nested argument lists close correctly.
func (p *Parser) parseTemplateArgs() []string {
	p.advance() // <
	var args []string
	var cur []string
	depth := 0
	for {
		t := p.peek()
		switch t.Kind {
		case token.EOF, token.Semicolon, token.LBrace:
			return args
		case token.Lt:
			depth++
		case token.Shr:
			if depth == 0 {
				// половину >> оставляем внешнему списку
				p.ahead[0].Kind = token.Gt
				p.ahead[0].Text = ">"
				return append(args, strings.Join(cur, " "))
			}
			depth -= 2
			if depth < 0 {
				// закрывает вложенный список и наш
				cur = append(cur, ">")
				p.advance()
				return append(args, strings.Join(cur, " "))
			}
		case token.Gt:
			if depth == 0 {
				p.advance()
				if len(cur) > 0 {
					args = append(args, strings.Join(cur, " "))
				}
				return args
			}
			depth--
		case token.Comma:
			if depth == 0 {
				args = append(args, strings.Join(cur, " "))
				cur = nil
				p.advance()
				continue
			}
		}
		cur = append(cur, t.Text)
		p.advance()
	}
}

// parseDeclaration parses a simple declaration: specifiers followed by a
// comma separated list of declarators. Functions with a body end the
// declaration.
func (p *Parser) parseDeclaration(topLevel bool, templateParams []string) []ast.DeclID {
	start := p.peek()
	spec, ok := p.parseDeclSpec(topLevel, templateParams)
	if !ok {
		p.report(diag.SynExpectedDecl, start.Span)
		p.advance()
		p.recoverStatement()
		return nil
	}
	var group []ast.DeclID
	if spec.record.IsValid() {
		group = append(group, spec.record)
	}
	if _, ok := p.accept(token.Semicolon); ok {
		return group
	}
	for {
		d := p.parseDeclarator(false)
		if d.name == "" {
			return group
		}
		if d.isFunc && !spec.typedef {
			id, fn := p.functionDecl(spec, d, templateParams)
			group = append(group, id)
			if p.at(token.LBrace) {
				p.parseFunctionBody(fn, d.owner, d)
				p.ctx.Decl(fn).Span = p.spanFrom(spec.start)
				if id != fn {
					p.ctx.Decl(id).Span = p.ctx.Decl(fn).Span
				}
				return group
			}
		} else {
			group = append(group, p.objectDecl(spec, d))
		}
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	if _, ok := p.expect(token.Semicolon); !ok {
		p.recoverStatement()
	}
	return group
}

// functionDecl creates and declares a function. With template parameters
// the function is wrapped into a FunctionTemplate which is what gets
// declared and returned first.
func (p *Parser) functionDecl(spec declSpec, d declarator, templateParams []string) (ast.DeclID, ast.DeclID) {
	fn := p.ctx.Decls.New(ast.Decl{
		Kind:           ast.DeclFunction,
		Name:           d.name,
		Span:           p.spanFrom(spec.start),
		NameSpan:       d.nameSpan,
		Type:           d.typeOf(spec.typ),
		Storage:        spec.storage,
		Children:       d.params,
		Parent:         d.owner,
		IsDefinition:   p.at(token.LBrace),
		TemplateParams: templateParams,
		FromMacro:      spec.fromMacro || d.nameTok.Has(token.FromMacro),
		MacroName:      firstNonEmpty(spec.macro, d.nameTok.Macro),
	})
	if templateParams == nil {
		if !d.owner.IsValid() {
			p.sema.Declare(fn)
		}
		return fn, fn
	}
	tmpl := p.ctx.Decls.New(ast.Decl{
		Kind:           ast.DeclFunctionTemplate,
		Name:           d.name,
		Span:           p.spanFrom(spec.start),
		NameSpan:       d.nameSpan,
		Template:       fn,
		TemplateParams: templateParams,
		Children:       []ast.DeclID{fn},
		IsDefinition:   p.at(token.LBrace),
	})
	f := p.ctx.Decl(fn)
	f.Template = tmpl
	f.Parent = tmpl
	p.sema.Declare(tmpl)
	return tmpl, fn
}

// objectDecl creates a variable or typedef, parsing its initializer.
func (p *Parser) objectDecl(spec declSpec, d declarator) ast.DeclID {
	kind := ast.DeclVar
	if spec.typedef {
		kind = ast.DeclTypedef
	}
	id := p.ctx.Decls.New(ast.Decl{
		Kind:         kind,
		Name:         d.name,
		NameSpan:     d.nameSpan,
		Type:         d.typeOf(spec.typ),
		Storage:      spec.storage,
		IsDefinition: spec.storage != ast.StorageExtern,
		FromMacro:    spec.fromMacro || d.nameTok.Has(token.FromMacro),
		MacroName:    firstNonEmpty(spec.macro, d.nameTok.Macro),
	})
	if kind == ast.DeclVar {
		if _, ok := p.accept(token.Assign); ok {
			p.ctx.Decl(id).Init = p.parseInitializer()
		}
	}
	p.ctx.Decl(id).Span = p.spanFrom(spec.start)
	// инициализатор видит только предыдущие имена, объявляем после
	p.sema.Declare(id)
	return id
}

// parseInitializer parses `expr` or a braced list.
func (p *Parser) parseInitializer() ast.ExprID {
	if !p.at(token.LBrace) {
		return p.parseAssign()
	}
	open := p.advance()
	var elems []ast.ExprID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		// .field = value
		if p.at(token.Dot) && p.peekN(1).Kind == token.Ident {
			p.advance()
			p.advance()
			p.expect(token.Assign)
		}
		elems = append(elems, p.parseInitializer())
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RBrace)
	return p.ctx.Exprs.New(ast.Expr{
		Kind:     ast.ExprInitList,
		Span:     p.spanFrom(open.Span),
		Operands: elems,
	})
}

// parseFunctionBody parses `{ ... }` of fn with its parameters in scope.
// Member functions also see the members of owner and an implicit this.
func (p *Parser) parseFunctionBody(fn, owner ast.DeclID, d declarator) {
	if owner.IsValid() {
		p.sema.PushRecordScope(owner)
	}
	p.sema.PushFunctionScope()
	if owner.IsValid() {
		p.sema.DeclareImplicit("this", p.ctx.Decl(owner).Tag+" "+p.ctx.Decl(owner).Name+" *")
	}
	for _, param := range d.params {
		p.sema.Declare(param)
	}
	body := p.parseCompound(false)
	p.sema.PopScope()
	if owner.IsValid() {
		p.sema.PopScope()
	}
	p.ctx.Decl(fn).Body = body
}

// parseTemplate parses `template <typename T, ...>` and the declaration it
// introduces.
func (p *Parser) parseTemplate() []ast.DeclID {
	p.advance() // template
	if _, ok := p.expect(token.Lt); !ok {
		p.recoverStatement()
		return nil
	}
	var params []string
	for !p.at(token.Gt) && !p.at(token.EOF) {
		switch p.peek().Kind {
		case token.KwTypename, token.KwClass:
			p.advance()
		default:
			// non-type parameter: int N
			p.parseDeclSpec(false, nil)
		}
		if t, ok := p.expect(token.Ident); ok {
			params = append(params, t.Text)
		} else {
			p.skipUntil(token.Gt)
			break
		}
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.Gt)
	if params == nil {
		params = []string{}
	}
	p.sema.EnterTemplate(params)
	group := p.parseDeclaration(true, params)
	p.sema.ExitTemplate()
	return group
}

// parseLinkageSpec parses `extern "C" { ... }` and `extern "C" decl`.
func (p *Parser) parseLinkageSpec() []ast.DeclID {
	kw := p.advance()
	langTok := p.advance()
	id := p.ctx.Decls.New(ast.Decl{
		Kind: ast.DeclLinkageSpec,
		Tag:  strings.Trim(langTok.Text, `"`),
	})
	var children []ast.DeclID
	if _, ok := p.accept(token.LBrace); ok {
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			children = append(children, p.parseExternalDeclaration()...)
		}
		p.expect(token.RBrace)
	} else {
		children = p.parseExternalDeclaration()
	}
	d := p.ctx.Decl(id)
	d.Children = children
	d.Span = p.spanFrom(kw.Span)
	return []ast.DeclID{id}
}

// parseExternalDeclaration parses one top-level construct.
func (p *Parser) parseExternalDeclaration() []ast.DeclID {
	t := p.peek()
	switch {
	case t.Kind == token.Semicolon:
		p.advance()
		return nil
	case t.Kind == token.RBrace:
		p.report(diag.SynUnbalancedBrace, t.Span)
		p.advance()
		return nil
	case t.Kind == token.KwTemplate:
		return p.parseTemplate()
	case t.Kind == token.KwExtern && p.peekN(1).Kind == token.StringLit:
		return p.parseLinkageSpec()
	case t.Kind == token.At && p.lang.ObjC:
		return p.parseObjC()
	}
	return p.parseDeclaration(true, nil)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
