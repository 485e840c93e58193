package lexer

import (
	"lantern/internal/diag"
	"lantern/internal/token"
)

// scanQuoted сканирует "..." или '...' с escape-последовательностями.
func (lx *Lexer) scanQuoted(quote byte, kind token.Kind) token.Token {
	return lx.scanPrefixedQuoted(0, quote, kind)
}

func (lx *Lexer) scanPrefixedQuoted(prefix int, quote byte, kind token.Kind) token.Token {
	start := lx.cursor.Mark()
	for range prefix {
		lx.cursor.Bump()
	}
	lx.cursor.Bump() // открывающая кавычка
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == quote {
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
		}
		if b == '\\' {
			lx.cursor.Bump()
			if lx.cursor.EOF() {
				break
			}
			lx.cursor.Bump()
			continue
		}
		if b == '\n' {
			break
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	code := diag.LexUnterminatedString
	if quote == '\'' {
		code = diag.LexUnterminatedChar
	}
	lx.report(code, sp)
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}
