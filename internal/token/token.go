package token

import (
	"lantern/internal/source"
)

// Flags carries per-token lexical facts.
type Flags uint8

const (
	// StartOfLine: first token on its physical line.
	StartOfLine Flags = 1 << iota
	// LeadingSpace: whitespace or a comment precedes the token.
	LeadingSpace
	// FromMacro: the token was produced by expanding a macro.
	FromMacro
)

// Token represents a single source token with its location.
type Token struct {
	Kind  Kind
	Span  source.Span
	Text  string
	Flags Flags
	// Macro is the name of the outermost macro this token was expanded from.
	Macro string `msgpack:",omitempty"`
}

func (t Token) Is(k Kind) bool { return t.Kind == k }

func (t Token) Has(f Flags) bool { return t.Flags&f != 0 }

func (t Token) AtStartOfLine() bool { return t.Flags&StartOfLine != 0 }

// IsLiteral reports whether the token is a numeric, character, string or boolean literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case NumericLit, CharLit, StringLit, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool { return t.Kind.IsKeyword() }

// IdentLike reports whether the token is spelled like an identifier
// (identifier or keyword); directives such as #include and #if use this.
func (t Token) IdentLike() bool { return t.Kind == Ident || t.Kind.IsKeyword() }
