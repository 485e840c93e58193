package pp

import (
	"errors"
	"strconv"
	"strings"

	"lantern/internal/diag"
	"lantern/internal/token"
)

var errBadExpr = errors.New("bad preprocessor expression")

// evalCondition reads the rest of an #if/#elif line and evaluates it.
func (p *Preprocessor) evalCondition(f *frame, name token.Token) bool {
	lx := f.lx
	var raw []ptok
	for {
		t := lx.Next()
		if t.Kind == token.EOD || t.Kind == token.EOF {
			break
		}
		if t.Kind == token.Ident && t.Text == "defined" {
			v, ok := p.lexDefined(f)
			if !ok {
				p.report(diag.PPMacroNameMissing, t.Span)
				lx.SkipToEndOfDirective()
				return false
			}
			raw = append(raw, ptok{tok: token.Token{Kind: token.NumericLit, Text: v, Span: t.Span}})
			continue
		}
		raw = append(raw, ptok{tok: t})
	}
	if len(raw) == 0 {
		p.report(diag.PPInvalidCondExpr, name.Span)
		return false
	}
	toks := p.expandList(raw)
	ev := &condEval{toks: toks}
	v, err := ev.parse(0)
	if err == nil && ev.pos != len(ev.toks) {
		err = errBadExpr
	}
	if err != nil {
		sp := name.Span
		if ev.pos < len(ev.toks) {
			sp = ev.toks[ev.pos].tok.Span
		}
		p.report(diag.PPInvalidCondExpr, sp)
		return false
	}
	return v != 0
}

func (p *Preprocessor) lexDefined(f *frame) (string, bool) {
	lx := f.lx
	t := lx.Next()
	paren := t.Kind == token.LParen
	if paren {
		t = lx.Next()
	}
	if !t.IdentLike() {
		return "", false
	}
	if paren {
		if c := lx.Next(); c.Kind != token.RParen {
			return "", false
		}
	}
	if p.macros[t.Text] != nil {
		return "1", true
	}
	return "0", true
}

type condEval struct {
	toks []ptok
	pos  int
}

func (e *condEval) peek() token.Kind {
	if e.pos < len(e.toks) {
		return e.toks[e.pos].tok.Kind
	}
	return token.EOD
}

func binaryPrec(k token.Kind) int {
	switch k {
	case token.Question:
		return 1
	case token.PipePipe:
		return 2
	case token.AmpAmp:
		return 3
	case token.Pipe:
		return 4
	case token.Caret:
		return 5
	case token.Amp:
		return 6
	case token.EqEq, token.BangEq:
		return 7
	case token.Lt, token.Gt, token.LtEq, token.GtEq:
		return 8
	case token.Shl, token.Shr:
		return 9
	case token.Plus, token.Minus:
		return 10
	case token.Star, token.Slash, token.Percent:
		return 11
	}
	return 0
}

// parse is a precedence climbing evaluator over int64.
func (e *condEval) parse(minPrec int) (int64, error) {
	lhs, err := e.unary()
	if err != nil {
		return 0, err
	}
	for {
		k := e.peek()
		prec := binaryPrec(k)
		if prec == 0 || prec <= minPrec {
			return lhs, nil
		}
		e.pos++
		if k == token.Question {
			a, err := e.parse(0)
			if err != nil {
				return 0, err
			}
			if e.peek() != token.Colon {
				return 0, errBadExpr
			}
			e.pos++
			b, err := e.parse(0)
			if err != nil {
				return 0, err
			}
			if lhs != 0 {
				lhs = a
			} else {
				lhs = b
			}
			continue
		}
		rhs, err := e.parse(prec)
		if err != nil {
			return 0, err
		}
		lhs, err = applyBinary(k, lhs, rhs)
		if err != nil {
			return 0, err
		}
	}
}

func applyBinary(k token.Kind, a, b int64) (int64, error) {
	switch k {
	case token.PipePipe:
		return boolInt(a != 0 || b != 0), nil
	case token.AmpAmp:
		return boolInt(a != 0 && b != 0), nil
	case token.Pipe:
		return a | b, nil
	case token.Caret:
		return a ^ b, nil
	case token.Amp:
		return a & b, nil
	case token.EqEq:
		return boolInt(a == b), nil
	case token.BangEq:
		return boolInt(a != b), nil
	case token.Lt:
		return boolInt(a < b), nil
	case token.Gt:
		return boolInt(a > b), nil
	case token.LtEq:
		return boolInt(a <= b), nil
	case token.GtEq:
		return boolInt(a >= b), nil
	case token.Shl:
		return a << uint64(b&63), nil
	case token.Shr:
		return a >> uint64(b&63), nil
	case token.Plus:
		return a + b, nil
	case token.Minus:
		return a - b, nil
	case token.Star:
		return a * b, nil
	case token.Slash, token.Percent:
		if b == 0 {
			return 0, errBadExpr
		}
		if k == token.Slash {
			return a / b, nil
		}
		return a % b, nil
	}
	return 0, errBadExpr
}

func (e *condEval) unary() (int64, error) {
	if e.pos >= len(e.toks) {
		return 0, errBadExpr
	}
	t := e.toks[e.pos].tok
	e.pos++
	switch t.Kind {
	case token.Bang:
		v, err := e.unary()
		return boolInt(v == 0), err
	case token.Minus:
		v, err := e.unary()
		return -v, err
	case token.Plus:
		return e.unary()
	case token.Tilde:
		v, err := e.unary()
		return ^v, err
	case token.LParen:
		v, err := e.parse(0)
		if err != nil {
			return 0, err
		}
		if e.peek() != token.RParen {
			return 0, errBadExpr
		}
		e.pos++
		return v, nil
	case token.NumericLit:
		return parseIntLiteral(t.Text)
	case token.CharLit:
		return charValue(t.Text), nil
	case token.KwTrue:
		return 1, nil
	case token.KwFalse:
		return 0, nil
	}
	if t.IdentLike() {
		// неизвестные идентификаторы в #if равны нулю
		return 0, nil
	}
	e.pos--
	return 0, errBadExpr
}

func parseIntLiteral(text string) (int64, error) {
	s := strings.TrimRight(strings.ToLower(text), "ul")
	s = strings.ReplaceAll(s, "'", "")
	if s == "" {
		return 0, errBadExpr
	}
	if len(s) > 1 && s[0] == '0' && s[1] != 'x' && s[1] != 'b' {
		s = "0o" + s[1:]
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(s, 0, 64)
		if uerr != nil {
			return 0, errBadExpr
		}
		return int64(u), nil // #nosec G115 -- wraps like unsigned arithmetic in #if
	}
	return v, nil
}

func charValue(text string) int64 {
	s := strings.TrimPrefix(text, "L")
	s = strings.TrimPrefix(s, "u8")
	s = strings.TrimPrefix(s, "u")
	s = strings.TrimPrefix(s, "U")
	if v, err := strconv.Unquote(s); err == nil && v != "" {
		return int64([]rune(v)[0])
	}
	if len(s) >= 3 {
		return int64(s[1])
	}
	return 0
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
