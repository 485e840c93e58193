package lexer

import (
	"lantern/internal/source"
	"lantern/internal/token"
)

// Lexer is a raw lexer over one buffer: no macro expansion and no directive
// handling, just tokens with StartOfLine/LeadingSpace flags. The
// preprocessor drives it and switches it into directive mode after '#'.
type Lexer struct {
	file      *source.File
	cursor    Cursor
	opts      Options
	look      *token.Token // 1 элементный буфер
	directive bool         // перевод строки завершает директиву
	lineStart bool
}

// New creates a lexer at the start of the file.
func New(file *source.File, opts Options) *Lexer {
	return NewAt(file, 0, opts)
}

// NewAt creates a lexer that starts at byte offset off. The first token is
// treated as if it started a line when off is 0 or follows a newline.
func NewAt(file *source.File, off uint32, opts Options) *Lexer {
	c := NewCursorAt(file, off)
	return &Lexer{
		file:      file,
		cursor:    c,
		opts:      opts,
		lineStart: c.Off == 0 || file.Content[c.Off-1] == '\n',
	}
}

// File returns the buffer being lexed.
func (lx *Lexer) File() *source.File { return lx.file }

// Offset returns the current byte offset.
func (lx *Lexer) Offset() uint32 {
	if lx.look != nil {
		return lx.look.Span.Start
	}
	return lx.cursor.Off
}

// SetDirectiveMode switches directive parsing on or off. In directive mode
// the end of the line yields an EOD token.
func (lx *Lexer) SetDirectiveMode(on bool) {
	lx.directive = on
}

// InDirective reports whether the lexer is in directive mode.
func (lx *Lexer) InDirective() bool { return lx.directive }

// Next возвращает следующий значимый токен. После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	flags, eod := lx.skipTrivia()
	if eod {
		sp := lx.emptySpan()
		return token.Token{Kind: token.EOD, Span: sp}
	}
	if lx.cursor.EOF() {
		if lx.directive {
			return token.Token{Kind: token.EOD, Span: lx.emptySpan()}
		}
		return token.Token{Kind: token.EOF, Span: lx.emptySpan(), Flags: flags}
	}

	ch := lx.cursor.Peek()
	var tok token.Token
	switch {
	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		tok = lx.scanIdentOrKeyword()
	case isDec(ch):
		tok = lx.scanNumber()
	case ch == '.' && lx.isNumberAfterDot():
		tok = lx.scanNumber()
	case ch == '"':
		tok = lx.scanQuoted('"', token.StringLit)
	case ch == '\'':
		tok = lx.scanQuoted('\'', token.CharLit)
	default:
		tok = lx.scanOperatorOrPunct()
	}
	tok.Flags |= flags
	return tok
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// SkipToEndOfDirective consumes the rest of the current directive line
// and returns how many tokens were dropped.
func (lx *Lexer) SkipToEndOfDirective() int {
	n := 0
	for {
		t := lx.Next()
		if t.Kind == token.EOD || t.Kind == token.EOF {
			return n
		}
		n++
	}
}

// SkipLine drops everything up to (not including) the next newline without
// tokenizing it. Used for the bodies of #error and skipped conditional blocks.
func (lx *Lexer) SkipLine() string {
	lx.look = nil
	start := lx.cursor.Off
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == '\n' {
			break
		}
		if b == '\\' {
			if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '\\' && b1 == '\n' {
				lx.cursor.Bump()
				lx.cursor.Bump()
				continue
			}
		}
		lx.cursor.Bump()
	}
	return string(lx.file.Content[start:lx.cursor.Off])
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}
