package pp

import (
	"strings"

	"lantern/internal/diag"
	"lantern/internal/lexer"
	"lantern/internal/source"
	"lantern/internal/token"
)

// ptok is a token with the set of macros it must not expand again.
type ptok struct {
	tok  token.Token
	hide []string
}

func (t ptok) hidden(name string) bool {
	for _, h := range t.hide {
		if h == name {
			return true
		}
	}
	return false
}

func unionHide(a []string, name string) []string {
	for _, h := range a {
		if h == name {
			return a
		}
	}
	out := make([]string, len(a), len(a)+1)
	copy(out, a)
	return append(out, name)
}

// expander rescans tokens: its queue holds expansion results, src supplies
// tokens once the queue is empty.
type expander struct {
	p     *Preprocessor
	queue []ptok
	src   func() token.Token
}

func (e *expander) read() ptok {
	if len(e.queue) > 0 {
		t := e.queue[0]
		e.queue = e.queue[1:]
		return t
	}
	return ptok{tok: e.src()}
}

func (e *expander) unread(t ptok) {
	e.queue = append([]ptok{t}, e.queue...)
}

// expand replaces pt if it names a macro. It returns false when pt is to be
// delivered as is.
func (e *expander) expand(pt ptok) bool {
	p := e.p
	def := p.macros[pt.tok.Text]
	if def == nil || pt.hidden(def.Name) {
		return false
	}
	end := pt.tok.Span.End
	var args [][]ptok
	if def.FunctionLike {
		nx := e.read()
		if nx.tok.Kind != token.LParen {
			e.unread(nx)
			return false
		}
		var ok bool
		args, end, ok = e.collectArgs(def)
		if !ok {
			p.report(diag.PPMacroArgsUnterminated, pt.tok.Span)
			return true
		}
	}
	p.numExpansions++
	repl := p.substitute(def, pt, args)
	if len(repl) > 0 {
		e.queue = append(repl, e.queue...)
	}
	if p.cb != nil && !pt.tok.Has(token.FromMacro) {
		sp := pt.tok.Span
		if end > sp.End {
			sp.End = end
		}
		p.cb.MacroExpands(pt.tok, def, sp)
	}
	return true
}

// collectArgs reads the arguments after '('. It returns the offset just past
// the closing parenthesis.
func (e *expander) collectArgs(def *MacroDefinition) ([][]ptok, uint32, bool) {
	var args [][]ptok
	var cur []ptok
	depth := 1
	for {
		t := e.read()
		switch t.tok.Kind {
		case token.EOF, token.EOD:
			if t.tok.Kind == token.EOD {
				e.unread(t)
			}
			return nil, 0, false
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				if len(cur) > 0 || len(args) > 0 || len(def.Params) > 0 {
					args = append(args, cur)
				}
				return args, t.tok.Span.End, true
			}
		case token.Comma:
			if depth == 1 && !(def.Variadic && len(args) == len(def.Params)-1) {
				args = append(args, cur)
				cur = nil
				continue
			}
		}
		cur = append(cur, t)
	}
}

// expandList fully expands a token list in isolation (macro arguments,
// #if conditions).
func (p *Preprocessor) expandList(in []ptok) []ptok {
	e := expander{p: p, queue: append([]ptok(nil), in...), src: func() token.Token {
		return token.Token{Kind: token.EOD}
	}}
	var out []ptok
	for {
		pt := e.read()
		if pt.tok.Kind == token.EOD {
			return out
		}
		if pt.tok.Kind == token.Ident && e.expand(pt) {
			continue
		}
		out = append(out, pt)
	}
}

// substitute builds the replacement list of one invocation. Every produced
// token is located at the invocation and flagged FromMacro.
func (p *Preprocessor) substitute(def *MacroDefinition, inv ptok, args [][]ptok) []ptok {
	hide := unionHide(inv.hide, def.Name)
	outer := inv.tok.Macro
	if outer == "" {
		outer = def.Name
	}
	argOf := func(t token.Token) ([]ptok, bool) {
		if t.Kind != token.Ident {
			return nil, false
		}
		i := def.paramIndex(t.Text)
		if i < 0 {
			return nil, false
		}
		if i < len(args) {
			return args[i], true
		}
		return nil, true
	}

	var out []ptok
	body := def.Body
	for i := 0; i < len(body); i++ {
		b := body[i]
		switch {
		case b.Kind == token.Hash && def.FunctionLike && i+1 < len(body):
			if arg, ok := argOf(body[i+1]); ok {
				out = append(out, ptok{tok: stringize(arg)})
				i++
				continue
			}
		case b.Kind == token.HashHash && len(out) > 0 && i+1 < len(body):
			rhs := []ptok{{tok: body[i+1]}}
			if arg, ok := argOf(body[i+1]); ok {
				rhs = arg
			}
			i++
			if len(rhs) == 0 {
				continue
			}
			out[len(out)-1] = ptok{tok: paste(out[len(out)-1].tok, rhs[0].tok)}
			out = append(out, rhs[1:]...)
			continue
		}
		if arg, ok := argOf(b); ok {
			raw := i+1 < len(body) && body[i+1].Kind == token.HashHash
			if raw {
				out = append(out, arg...)
			} else {
				out = append(out, p.expandList(arg)...)
			}
			continue
		}
		out = append(out, ptok{tok: b})
	}

	res := make([]ptok, len(out))
	for i, t := range out {
		tok := t.tok
		tok.Span = inv.tok.Span
		tok.Flags = (tok.Flags &^ token.StartOfLine) | token.FromMacro
		if i == 0 {
			tok.Flags = (tok.Flags &^ token.LeadingSpace) | (inv.tok.Flags & (token.StartOfLine | token.LeadingSpace))
		}
		tok.Macro = outer
		h := hide
		for _, x := range t.hide {
			h = unionHide(h, x)
		}
		res[i] = ptok{tok: tok, hide: h}
	}
	return res
}

func stringize(arg []ptok) token.Token {
	var sb strings.Builder
	sb.WriteByte('"')
	for i, t := range arg {
		if i > 0 && t.tok.Has(token.LeadingSpace) {
			sb.WriteByte(' ')
		}
		text := t.tok.Text
		if t.tok.Kind == token.StringLit || t.tok.Kind == token.CharLit {
			text = strings.ReplaceAll(text, `\`, `\\`)
			text = strings.ReplaceAll(text, `"`, `\"`)
		}
		sb.WriteString(text)
	}
	sb.WriteByte('"')
	return token.Token{Kind: token.StringLit, Text: sb.String()}
}

// paste implements ##: the spellings are joined and relexed.
func paste(lhs, rhs token.Token) token.Token {
	text := lhs.Text + rhs.Text
	f := &source.File{Content: []byte(text)}
	t := lexer.New(f, lexer.Options{}).Next()
	if int(t.Span.End) != len(text) {
		t.Kind = token.Invalid
	}
	t.Text = text
	t.Flags = lhs.Flags
	return t
}
