package lexer

import (
	"lantern/internal/diag"
	"lantern/internal/token"
)

type punct struct {
	text string
	kind token.Kind
}

// Longest first: "<<=" must win over "<<" and "<".
var multiCharPuncts = []punct{
	{"...", token.Ellipsis},
	{"<<=", token.ShlAssign},
	{">>=", token.ShrAssign},
	{"::", token.ColonColon},
	{"->", token.Arrow},
	{"##", token.HashHash},
	{"++", token.PlusPlus},
	{"--", token.MinusMinus},
	{"+=", token.PlusAssign},
	{"-=", token.MinusAssign},
	{"*=", token.StarAssign},
	{"/=", token.SlashAssign},
	{"%=", token.PercentAssign},
	{"&&", token.AmpAmp},
	{"&=", token.AmpAssign},
	{"||", token.PipePipe},
	{"|=", token.PipeAssign},
	{"^=", token.CaretAssign},
	{"==", token.EqEq},
	{"!=", token.BangEq},
	{"<=", token.LtEq},
	{">=", token.GtEq},
	{"<<", token.Shl},
	{">>", token.Shr},
}

var singleCharPuncts = [256]token.Kind{
	'(': token.LParen, ')': token.RParen,
	'{': token.LBrace, '}': token.RBrace,
	'[': token.LBracket, ']': token.RBracket,
	';': token.Semicolon, ',': token.Comma,
	':': token.Colon, '?': token.Question,
	'.': token.Dot, '#': token.Hash, '@': token.At,
	'+': token.Plus, '-': token.Minus,
	'*': token.Star, '/': token.Slash, '%': token.Percent,
	'&': token.Amp, '|': token.Pipe, '^': token.Caret,
	'~': token.Tilde, '!': token.Bang, '=': token.Assign,
	'<': token.Lt, '>': token.Gt,
}

// scanOperatorOrPunct lexes one punctuator with maximal munch. A byte that
// starts no punctuator becomes an Invalid token covering its whole rune.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
	}

	for _, p := range multiCharPuncts {
		if lx.cursor.EatString(p.text) {
			return emit(p.kind)
		}
	}
	ch := lx.cursor.Bump()
	if k := singleCharPuncts[ch]; k != token.Invalid {
		return emit(k)
	}
	if ch >= utf8RuneSelf {
		lx.cursor.Reset(start)
		lx.bumpRune()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.report(diag.LexUnknownChar, sp, lx.text(sp))
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}
