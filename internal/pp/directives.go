package pp

import (
	"strings"

	"lantern/internal/diag"
	"lantern/internal/lexer"
	"lantern/internal/source"
	"lantern/internal/token"
)

func (p *Preprocessor) handleDirective(f *frame, hash token.Token) {
	p.numDirectives++
	lx := f.lx
	lx.SetDirectiveMode(true)
	defer lx.SetDirectiveMode(false)

	name := lx.Next()
	if name.Kind == token.EOD {
		return // пустая директива
	}
	if !name.IdentLike() {
		// "# 1 "file"" линейные маркеры молча пропускаем
		if !f.skip && name.Kind != token.NumericLit {
			p.report(diag.PPInvalidDirective, name.Span)
		}
		lx.SkipToEndOfDirective()
		return
	}

	switch name.Text {
	case "if":
		p.handleIf(f, name)
		return
	case "ifdef", "ifndef":
		p.handleIfdef(f, name, name.Text == "ifndef")
		return
	case "elif":
		p.handleElif(f, name)
		return
	case "else":
		p.handleElse(f, name)
		return
	case "endif":
		p.handleEndif(f, name)
		return
	}
	if f.skip {
		lx.SkipToEndOfDirective()
		return
	}

	switch name.Text {
	case "include", "import", "include_next":
		p.handleInclude(f, hash, name)
	case "define":
		p.handleDefine(f)
	case "undef":
		p.handleUndef(f)
	case "pragma":
		p.handlePragma(f, hash)
	case "error":
		p.report(diag.PPErrorDirective, name.Span, strings.TrimSpace(lx.SkipLine()))
	case "warning":
		p.report(diag.PPWarningDirective, name.Span, strings.TrimSpace(lx.SkipLine()))
	case "line", "ident", "sccs":
		lx.SkipToEndOfDirective()
	default:
		p.report(diag.PPInvalidDirective, name.Span)
		lx.SkipToEndOfDirective()
	}
}

// expectEnd reports trailing tokens of a directive and drops them.
func (p *Preprocessor) expectEnd(lx *lexer.Lexer, directive string) {
	t := lx.Next()
	if t.Kind == token.EOD || t.Kind == token.EOF {
		return
	}
	p.report(diag.PPExtraTokens, t.Span, directive)
	lx.SkipToEndOfDirective()
}

func (p *Preprocessor) handleInclude(f *frame, hash, kw token.Token) {
	lx := f.lx
	ft := lx.LexIncludeFilename()
	if ft.Kind != token.HeaderName || len(ft.Text) < 3 {
		if ft.Kind != token.Invalid {
			p.report(diag.PPExpectedFilename, ft.Span)
		}
		lx.SkipToEndOfDirective()
		return
	}
	p.expectEnd(lx, kw.Text)

	written := ft.Text[1 : len(ft.Text)-1]
	angled := ft.Text[0] == '<'
	includer := dirOf(f.file)
	res, found := p.search.Lookup(written, angled, includer, f.kind)
	if !found && p.cb != nil {
		if rec := p.cb.FileNotFound(written); rec != "" {
			res, found = p.search.Lookup(rec, angled, includer, f.kind)
		}
	}

	d := InclusionDirective{
		Hash:        hash,
		Include:     kw,
		FileName:    written,
		Angled:      angled,
		FilenameTok: ft,
		Kind:        res.Kind,
	}
	if found {
		d.File = res.Entry
		d.SearchPath = res.SearchPath
		d.RelativePath = res.RelativePath
	}
	if p.cb != nil {
		p.cb.InclusionDirective(d)
	}
	if !found {
		p.report(diag.PPFileNotFound, ft.Span, written)
		return
	}
	p.numIncludes++

	name := res.Entry.Name
	if p.once[name] {
		if p.cb != nil {
			p.cb.FileSkipped(res.Entry, ft, res.Kind)
		}
		return
	}
	if kw.Text == "import" {
		p.once[name] = true
	}
	if len(p.stack) >= MaxIncludeDepth {
		p.report(diag.PPIncludeTooDeep, ft.Span)
		return
	}
	data, err := p.files.GetBuffer(res.Entry)
	if err != nil {
		p.report(diag.PPFileNotFound, ft.Span, written)
		return
	}
	id := p.sources.Add(name, data, 0)
	nf := p.sources.Get(id)
	p.fileChanged(source.Span{File: id}, EnterFile, res.Kind, f.file.ID)
	p.push(&frame{file: nf, lx: p.newLexer(nf, 0), entry: res.Entry, kind: res.Kind})
}

func (p *Preprocessor) handleDefine(f *frame) {
	lx := f.lx
	nameTok := lx.Next()
	if nameTok.Kind == token.EOD {
		p.report(diag.PPMacroNameMissing, nameTok.Span)
		return
	}
	if !nameTok.IdentLike() || nameTok.Text == "defined" {
		p.report(diag.PPMacroNameNotIdentifier, nameTok.Span)
		lx.SkipToEndOfDirective()
		return
	}
	def := &MacroDefinition{
		Name:    nameTok.Text,
		Span:    nameTok.Span,
		Builtin: p.sources.IsBuiltin(f.file.ID),
	}
	t := lx.Next()
	if t.Kind == token.LParen && !t.Has(token.LeadingSpace) {
		def.FunctionLike = true
		if !p.parseParams(lx, def) {
			lx.SkipToEndOfDirective()
			return
		}
		t = lx.Next()
	}
	for t.Kind != token.EOD && t.Kind != token.EOF {
		t.Flags &^= token.StartOfLine
		def.Body = append(def.Body, t)
		t = lx.Next()
	}
	p.macros[def.Name] = def
	if p.cb != nil {
		p.cb.MacroDefined(nameTok, def)
	}
}

// parseParams reads "a, b, ...)" after the opening parenthesis.
func (p *Preprocessor) parseParams(lx *lexer.Lexer, def *MacroDefinition) bool {
	t := lx.Next()
	if t.Kind == token.RParen {
		return true
	}
	for {
		switch {
		case t.Kind == token.Ellipsis:
			def.Variadic = true
			def.Params = append(def.Params, "__VA_ARGS__")
			t = lx.Next()
			if t.Kind != token.RParen {
				p.report(diag.SynExpectedToken, t.Span, ")")
				return false
			}
			return true
		case t.IdentLike():
			def.Params = append(def.Params, t.Text)
		default:
			p.report(diag.PPMacroNameNotIdentifier, t.Span)
			return false
		}
		t = lx.Next()
		if t.Kind == token.Ellipsis {
			def.Variadic = true
			t = lx.Next()
			if t.Kind != token.RParen {
				p.report(diag.SynExpectedToken, t.Span, ")")
				return false
			}
			return true
		}
		switch t.Kind {
		case token.RParen:
			return true
		case token.Comma:
			t = lx.Next()
		default:
			p.report(diag.SynExpectedToken, t.Span, ")")
			return false
		}
	}
}

func (p *Preprocessor) handleUndef(f *frame) {
	lx := f.lx
	nameTok := lx.Next()
	if nameTok.Kind == token.EOD {
		p.report(diag.PPMacroNameMissing, nameTok.Span)
		return
	}
	if !nameTok.IdentLike() {
		p.report(diag.PPMacroNameNotIdentifier, nameTok.Span)
		lx.SkipToEndOfDirective()
		return
	}
	p.expectEnd(lx, "undef")
	old := p.macros[nameTok.Text]
	if p.cb != nil {
		p.cb.MacroUndefined(nameTok, old)
	}
	delete(p.macros, nameTok.Text)
}

func (p *Preprocessor) handlePragma(f *frame, hash token.Token) {
	lx := f.lx
	first := lx.Next()
	switch first.Text {
	case "once":
		if f.file.ID == p.sources.MainFile() {
			p.report(diag.PPPragmaOnceInMainFile, first.Span)
		} else if f.entry != nil {
			p.once[f.entry.Name] = true
		}
	case "GCC", "clang":
		if second := lx.Next(); second.Text == "system_header" && f.file.ID != p.sources.MainFile() {
			f.kind = System
			p.fileChanged(hash.Span, SystemHeaderPragma, System, source.NoFile)
		}
	}
	lx.SkipToEndOfDirective()
}

func (p *Preprocessor) pushCond(f *frame, loc source.Span, cond bool) {
	c := condFrame{loc: loc, wasSkipping: f.skip, taken: true}
	if !f.skip {
		c.taken = cond
		f.skip = !cond
	}
	f.conds = append(f.conds, c)
}

func (p *Preprocessor) handleIfdef(f *frame, name token.Token, negate bool) {
	lx := f.lx
	if f.skip {
		lx.SkipToEndOfDirective()
		p.pushCond(f, name.Span, false)
		return
	}
	mt := lx.Next()
	cond := false
	switch {
	case mt.Kind == token.EOD:
		p.report(diag.PPMacroNameMissing, mt.Span)
	case !mt.IdentLike():
		p.report(diag.PPMacroNameNotIdentifier, mt.Span)
		lx.SkipToEndOfDirective()
	default:
		cond = p.macros[mt.Text] != nil
		p.expectEnd(lx, name.Text)
	}
	if negate {
		cond = !cond
	}
	p.pushCond(f, name.Span, cond)
}

func (p *Preprocessor) handleIf(f *frame, name token.Token) {
	if f.skip {
		f.lx.SkipToEndOfDirective()
		p.pushCond(f, name.Span, false)
		return
	}
	p.pushCond(f, name.Span, p.evalCondition(f, name))
}

func (p *Preprocessor) handleElif(f *frame, name token.Token) {
	lx := f.lx
	if len(f.conds) == 0 {
		if !f.skip {
			p.report(diag.PPUnmatchedEndif, name.Span, "elif")
		}
		lx.SkipToEndOfDirective()
		return
	}
	c := &f.conds[len(f.conds)-1]
	if c.sawElse {
		p.report(diag.PPUnmatchedElse, name.Span, "elif")
	}
	if c.wasSkipping || c.taken {
		f.skip = true
		lx.SkipToEndOfDirective()
		return
	}
	f.skip = false
	v := p.evalCondition(f, name)
	c.taken = v
	f.skip = !v
}

func (p *Preprocessor) handleElse(f *frame, name token.Token) {
	lx := f.lx
	if len(f.conds) == 0 {
		p.report(diag.PPUnmatchedEndif, name.Span, "else")
		lx.SkipToEndOfDirective()
		return
	}
	c := &f.conds[len(f.conds)-1]
	if c.sawElse {
		p.report(diag.PPUnmatchedElse, name.Span, "else")
	}
	c.sawElse = true
	if c.wasSkipping {
		lx.SkipToEndOfDirective()
		return
	}
	f.skip = c.taken
	c.taken = true
	if f.skip {
		lx.SkipToEndOfDirective()
		return
	}
	p.expectEnd(lx, "else")
}

func (p *Preprocessor) handleEndif(f *frame, name token.Token) {
	lx := f.lx
	if len(f.conds) == 0 {
		p.report(diag.PPUnmatchedEndif, name.Span, "endif")
		lx.SkipToEndOfDirective()
		return
	}
	c := f.conds[len(f.conds)-1]
	f.conds = f.conds[:len(f.conds)-1]
	wasSkipping := f.skip
	f.skip = c.wasSkipping
	if wasSkipping {
		lx.SkipToEndOfDirective()
		return
	}
	p.expectEnd(lx, "endif")
}
