package lexer

import (
	"lantern/internal/diag"
	"lantern/internal/token"
)

// skipTrivia пропускает пробелы, переводы строк и комментарии перед токеном.
// Возвращает флаги для следующего токена; eod=true если в режиме директивы
// встретили конец строки.
func (lx *Lexer) skipTrivia() (flags token.Flags, eod bool) {
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v':
			lx.cursor.Bump()
			flags |= token.LeadingSpace

		case b == '\n':
			if lx.directive {
				// перевод строки не съедаем: его увидит следующий Next вне директивы
				return flags, true
			}
			lx.cursor.Bump()
			lx.lineStart = true
			flags &^= token.LeadingSpace

		case b == '\\':
			// склейка строк
			b0, b1, ok := lx.cursor.Peek2()
			if ok && b0 == '\\' && b1 == '\n' {
				lx.cursor.Bump()
				lx.cursor.Bump()
				flags |= token.LeadingSpace
				continue
			}
			if b0, b1, b2, ok := lx.cursor.Peek3(); ok && b0 == '\\' && b1 == '\r' && b2 == '\n' {
				lx.cursor.Bump()
				lx.cursor.Bump()
				lx.cursor.Bump()
				flags |= token.LeadingSpace
				continue
			}
			return lx.finishFlags(flags), false

		case b == '/':
			if !lx.scanComment() {
				return lx.finishFlags(flags), false
			}
			flags |= token.LeadingSpace

		default:
			return lx.finishFlags(flags), false
		}
	}
	return lx.finishFlags(flags), false
}

func (lx *Lexer) finishFlags(flags token.Flags) token.Flags {
	if lx.lineStart {
		flags |= token.StartOfLine
		lx.lineStart = false
	}
	return flags
}

// scanComment съедает // ... или /* ... */ и отдаёт текст обработчику.
func (lx *Lexer) scanComment() bool {
	start := lx.cursor.Mark()
	b0, b1, ok := lx.cursor.Peek2()
	if !ok || b0 != '/' || (b1 != '/' && b1 != '*') {
		return false
	}
	lx.cursor.Bump()
	lx.cursor.Bump()
	if b1 == '/' {
		for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
			lx.cursor.Bump()
		}
	} else {
		closed := false
		for !lx.cursor.EOF() {
			if c0, c1, ok := lx.cursor.Peek2(); ok && c0 == '*' && c1 == '/' {
				lx.cursor.Bump()
				lx.cursor.Bump()
				closed = true
				break
			}
			lx.cursor.Bump()
		}
		if !closed {
			lx.report(diag.LexUnterminatedBlockComment, lx.cursor.SpanFrom(start))
		}
	}
	sp := lx.cursor.SpanFrom(start)
	if lx.opts.OnComment != nil {
		lx.opts.OnComment(sp, lx.text(sp))
	}
	return true
}
