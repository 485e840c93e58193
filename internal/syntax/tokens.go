// Package syntax records the tokens of a session: the expanded stream the
// parser saw and the spelled tokens of the main file.
package syntax

import (
	"sort"
	"unsafe"

	"lantern/internal/lexer"
	"lantern/internal/pp"
	"lantern/internal/source"
	"lantern/internal/token"
)

// TokenBuffer is immutable once returned by Consume.
type TokenBuffer struct {
	expanded []token.Token
	spelled  []token.Token
	mainFile source.FileID
}

// Expanded returns every token the preprocessor produced, macros expanded,
// ending with EOF.
func (b *TokenBuffer) Expanded() []token.Token { return b.expanded }

// Spelled returns the raw tokens of the main file as written.
func (b *TokenBuffer) Spelled() []token.Token { return b.spelled }

// ExpandedIn returns the expanded tokens whose spans lie inside sp.
func (b *TokenBuffer) ExpandedIn(sp source.Span) []token.Token {
	var out []token.Token
	for _, t := range b.expanded {
		if t.Kind == token.EOF || t.Span.File != sp.File {
			continue
		}
		if t.Span.Start >= sp.Start && t.Span.End <= sp.End {
			out = append(out, t)
		}
	}
	return out
}

// SpelledAt returns the spelled main-file token starting at off.
func (b *TokenBuffer) SpelledAt(off uint32) (token.Token, bool) {
	i := sort.Search(len(b.spelled), func(i int) bool { return b.spelled[i].Span.Start >= off })
	if i < len(b.spelled) && b.spelled[i].Span.Start == off {
		return b.spelled[i], true
	}
	return token.Token{}, false
}

// MemoryUsage approximates the bytes held by both token arrays.
func (b *TokenBuffer) MemoryUsage() uint64 {
	sz := uint64(unsafe.Sizeof(token.Token{}))
	return uint64(cap(b.expanded)+cap(b.spelled)) * sz
}

// TokenCollector watches a preprocessor until Consume is called.
type TokenCollector struct {
	p        *pp.Preprocessor
	expanded []token.Token
	consumed bool
}

// NewTokenCollector starts recording the tokens p returns from Lex.
func NewTokenCollector(p *pp.Preprocessor) *TokenCollector {
	c := &TokenCollector{p: p}
	p.SetTokenWatcher(func(t token.Token) {
		c.expanded = append(c.expanded, t)
	})
	return c
}

// Consume stops recording and builds the buffer. It must be called once,
// after the main file has been parsed.
func (c *TokenCollector) Consume() *TokenBuffer {
	if c.consumed {
		panic("syntax: TokenCollector consumed twice")
	}
	c.consumed = true
	c.p.SetTokenWatcher(nil)
	sources := c.p.Sources()
	b := &TokenBuffer{expanded: c.expanded, mainFile: sources.MainFile()}
	c.expanded = nil
	if f := sources.Get(b.mainFile); f != nil {
		b.spelled = spell(f)
	}
	return b
}

// spell lexes f raw; directives are kept as plain tokens.
func spell(f *source.File) []token.Token {
	lx := lexer.New(f, lexer.Options{})
	var out []token.Token
	for {
		t := lx.Next()
		if t.Kind == token.EOF {
			return out
		}
		out = append(out, t)
	}
}
