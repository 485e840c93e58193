package pp

import (
	"strings"
	"unsafe"

	"lantern/internal/source"
	"lantern/internal/token"
)

// MacroDefinition is one #define. Definitions are shared by pointer between
// the preprocessor and listeners and are never modified after creation.
type MacroDefinition struct {
	Name         string
	Params       []string
	FunctionLike bool
	Variadic     bool
	Body         []token.Token
	// Span is the location of the macro name in its #define.
	Span source.Span
	// Builtin marks macros from <built-in> and <command-line>.
	Builtin bool
}

// paramIndex returns the parameter position of name, or -1.
func (d *MacroDefinition) paramIndex(name string) int {
	if !d.FunctionLike {
		return -1
	}
	if d.Variadic && name == "__VA_ARGS__" {
		return len(d.Params) - 1
	}
	for i, p := range d.Params {
		if p == name {
			return i
		}
	}
	return -1
}

// Spelling renders the definition the way it would be written after #define.
func (d *MacroDefinition) Spelling() string {
	var sb strings.Builder
	sb.WriteString(d.Name)
	if d.FunctionLike {
		sb.WriteByte('(')
		for i, p := range d.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			if d.Variadic && i == len(d.Params)-1 && p == "__VA_ARGS__" {
				sb.WriteString("...")
				continue
			}
			sb.WriteString(p)
		}
		sb.WriteByte(')')
	}
	for _, t := range d.Body {
		sb.WriteByte(' ')
		sb.WriteString(t.Text)
	}
	return sb.String()
}

func (d *MacroDefinition) memory() uint64 {
	n := uint64(unsafe.Sizeof(*d)) + uint64(len(d.Name))
	for _, p := range d.Params {
		n += uint64(len(p))
	}
	n += uint64(cap(d.Body)) * uint64(unsafe.Sizeof(token.Token{}))
	return n
}

// Prefix is what the preprocessor needs from a precompiled preamble: where
// the main file resumes and which macros were live at that point.
type Prefix struct {
	Size   uint32
	Macros []*MacroDefinition
}
