package lexer

import (
	"golang.org/x/text/unicode/norm"

	"lantern/internal/token"
)

const utf8RuneSelf = 0x80

// scanIdentOrKeyword сканирует идентификатор и проверяет через LookupKeyword.
// Не-ASCII идентификаторы нормализуются в NFC, чтобы "é" из разных
// редакторов давал одно имя.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	ascii := true

	r, sz := lx.peekRune()
	if sz == 0 || (r < utf8RuneSelf && !isIdentStartByte(byte(r))) || (r >= utf8RuneSelf && !isIdentStartRune(r)) {
		return lx.scanOperatorOrPunct()
	}
	for {
		r, sz = lx.peekRune()
		if sz == 0 {
			break
		}
		if r < utf8RuneSelf {
			if !isIdentContinueByte(byte(r)) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		if !isIdentContinueRune(r) {
			break
		}
		ascii = false
		lx.bumpRune()
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)

	// префиксы строковых литералов: L"..", u8"..", u'..', U".."
	if q := lx.cursor.Peek(); (q == '"' || q == '\'') && isLiteralPrefix(text) {
		kind := token.StringLit
		if q == '\'' {
			kind = token.CharLit
		}
		lx.cursor.Reset(start)
		return lx.scanPrefixedQuoted(len(text), q, kind)
	}

	if !ascii {
		text = norm.NFC.String(text)
	}
	if k, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}

func isLiteralPrefix(s string) bool {
	switch s {
	case "L", "u", "U", "u8":
		return true
	}
	return false
}
