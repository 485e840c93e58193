package lexer

import (
	"lantern/internal/token"
)

// scanNumber сканирует pp-number: цифры, буквы, '_', '.', экспоненты с
// знаком (e+, E-, p+, P-) и разделитель '\''. Классификацию (int/float,
// суффиксы) делает парсер по тексту.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case isIdentContinueByte(b) || b == '.':
			lx.cursor.Bump()
			if (b == 'e' || b == 'E' || b == 'p' || b == 'P') && (lx.cursor.Peek() == '+' || lx.cursor.Peek() == '-') {
				lx.cursor.Bump()
			}
		case b == '\'':
			// 1'000'000
			if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '\'' && isIdentContinueByte(b1) {
				lx.cursor.Bump()
				continue
			}
			return lx.emitNumber(start)
		default:
			return lx.emitNumber(start)
		}
	}
	return lx.emitNumber(start)
}

func (lx *Lexer) emitNumber(start Mark) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.NumericLit, Span: sp, Text: lx.text(sp)}
}
