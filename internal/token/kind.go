package token

// Kind represents the category of a source token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF
	// EOD ends a preprocessor directive (the newline in directive mode).
	EOD

	Ident
	NumericLit
	CharLit
	StringLit
	// HeaderName is `<foo.h>` or `"foo.h"` lexed after #include.
	HeaderName

	// пунктуация и операторы
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semicolon
	Comma
	Colon
	ColonColon
	Question
	Dot
	Ellipsis
	Arrow
	Hash
	HashHash
	At
	Plus
	PlusPlus
	PlusAssign
	Minus
	MinusMinus
	MinusAssign
	Star
	StarAssign
	Slash
	SlashAssign
	Percent
	PercentAssign
	Amp
	AmpAmp
	AmpAssign
	Pipe
	PipePipe
	PipeAssign
	Caret
	CaretAssign
	Tilde
	Bang
	BangEq
	Assign
	EqEq
	Lt
	LtEq
	Shl
	ShlAssign
	Gt
	GtEq
	Shr
	ShrAssign

	// ключевые слова
	kwBegin
	KwAuto
	KwBool
	KwBreak
	KwChar
	KwClass
	KwConst
	KwContinue
	KwDouble
	KwElse
	KwExtern
	KwFalse
	KwFloat
	KwFor
	KwGoto
	KwIf
	KwInline
	KwInt
	KwLong
	KwNullptr
	KwReturn
	KwShort
	KwSigned
	KwSizeof
	KwStatic
	KwStruct
	KwTemplate
	KwTrue
	KwTypedef
	KwTypename
	KwUnion
	KwUnsigned
	KwVoid
	KwVolatile
	KwWhile
	kwEnd
)

var kindNames = [...]string{
	Invalid:       "Invalid",
	EOF:           "EOF",
	EOD:           "EOD",
	Ident:         "Ident",
	NumericLit:    "NumericLit",
	CharLit:       "CharLit",
	StringLit:     "StringLit",
	HeaderName:    "HeaderName",
	LParen:        "(",
	RParen:        ")",
	LBrace:        "{",
	RBrace:        "}",
	LBracket:      "[",
	RBracket:      "]",
	Semicolon:     ";",
	Comma:         ",",
	Colon:         ":",
	ColonColon:    "::",
	Question:      "?",
	Dot:           ".",
	Ellipsis:      "...",
	Arrow:         "->",
	Hash:          "#",
	HashHash:      "##",
	At:            "@",
	Plus:          "+",
	PlusPlus:      "++",
	PlusAssign:    "+=",
	Minus:         "-",
	MinusMinus:    "--",
	MinusAssign:   "-=",
	Star:          "*",
	StarAssign:    "*=",
	Slash:         "/",
	SlashAssign:   "/=",
	Percent:       "%",
	PercentAssign: "%=",
	Amp:           "&",
	AmpAmp:        "&&",
	AmpAssign:     "&=",
	Pipe:          "|",
	PipePipe:      "||",
	PipeAssign:    "|=",
	Caret:         "^",
	CaretAssign:   "^=",
	Tilde:         "~",
	Bang:          "!",
	BangEq:        "!=",
	Assign:        "=",
	EqEq:          "==",
	Lt:            "<",
	LtEq:          "<=",
	Shl:           "<<",
	ShlAssign:     "<<=",
	Gt:            ">",
	GtEq:          ">=",
	Shr:           ">>",
	ShrAssign:     ">>=",
}

func (k Kind) String() string {
	if k.IsKeyword() {
		return keywordSpelling[k]
	}
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsKeyword reports whether k is one of the reserved words.
func (k Kind) IsKeyword() bool {
	return k > kwBegin && k < kwEnd
}

// IsTypeSpecifier reports whether k starts a builtin type specifier.
func (k Kind) IsTypeSpecifier() bool {
	switch k {
	case KwAuto, KwBool, KwChar, KwDouble, KwFloat, KwInt, KwLong, KwShort,
		KwSigned, KwUnsigned, KwVoid, KwStruct, KwUnion, KwClass:
		return true
	}
	return false
}

// IsQualifier reports whether k is a declaration qualifier or storage class.
func (k Kind) IsQualifier() bool {
	switch k {
	case KwConst, KwVolatile, KwStatic, KwExtern, KwInline:
		return true
	}
	return false
}
