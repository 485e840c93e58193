package lexer

import (
	"lantern/internal/diag"
	"lantern/internal/token"
)

// LexIncludeFilename lexes the operand of #include. `<...>` and `"..."` come
// back as one HeaderName token spelled with its delimiters; anything else is
// returned as an ordinary token (e.g. a macro name).
func (lx *Lexer) LexIncludeFilename() token.Token {
	if lx.look != nil {
		return lx.Next()
	}
	flags, eod := lx.skipTrivia()
	if eod || lx.cursor.EOF() {
		return token.Token{Kind: token.EOD, Span: lx.emptySpan()}
	}
	var closing byte
	switch lx.cursor.Peek() {
	case '<':
		closing = '>'
	case '"':
		closing = '"'
	default:
		tok := lx.Next()
		tok.Flags |= flags
		return tok
	}
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == '\n' {
			break
		}
		lx.cursor.Bump()
		if b == closing {
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.HeaderName, Span: sp, Text: lx.text(sp), Flags: flags}
		}
	}
	sp := lx.cursor.SpanFrom(start)
	lx.report(diag.LexUnterminatedHeaderName, sp)
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp), Flags: flags}
}
