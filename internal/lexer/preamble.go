package lexer

import (
	"fmt"

	"fortio.org/safecast"

	"lantern/internal/source"
	"lantern/internal/token"
)

// Bounds describes the preamble region of a main file: the leading run of
// comments and #include / #import / #define / #undef / #pragma directives.
// Conditional directives end the preamble.
type Bounds struct {
	Size              uint32
	EndsAtStartOfLine bool
}

// ComputePreambleBounds lexes the head of content and returns its preamble.
func ComputePreambleBounds(content []byte) Bounds {
	limit, err := safecast.Conv[uint32](len(content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	f := &source.File{Content: content}
	lx := &Lexer{file: f, cursor: Cursor{File: f, Limit: limit}, lineStart: true}

	var b Bounds
	for {
		tok := lx.Next()
		if tok.Kind != token.Hash || !tok.AtStartOfLine() {
			return b
		}
		lx.SetDirectiveMode(true)
		name := lx.Next()
		switch {
		case name.Kind == token.EOD:
			// пустая директива "#"
		case !isPreambleDirective(name.Text):
			return b
		case isIncludeDirective(name.Text):
			lx.LexIncludeFilename()
			lx.SkipToEndOfDirective()
		default:
			lx.SkipToEndOfDirective()
		}
		lx.SetDirectiveMode(false)
		off := lx.cursor.Off
		if off < limit {
			b = Bounds{Size: off + 1, EndsAtStartOfLine: true}
		} else {
			b = Bounds{Size: off, EndsAtStartOfLine: false}
		}
	}
}

func isPreambleDirective(name string) bool {
	switch name {
	case "include", "import", "include_next", "define", "undef", "pragma":
		return true
	}
	return false
}

// isIncludeDirective reports whether a directive name introduces a file.
func isIncludeDirective(name string) bool {
	switch name {
	case "include", "import", "include_next":
		return true
	}
	return false
}

// IsIncludeDirective is exported for the preprocessor and replay.
func IsIncludeDirective(name string) bool { return isIncludeDirective(name) }
