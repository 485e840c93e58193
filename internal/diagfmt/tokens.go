package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"lantern/internal/source"
	"lantern/internal/token"
)

type TokenOutput struct {
	Kind  string `json:"kind"`
	Text  string `json:"text,omitempty"`
	File  string `json:"file,omitempty"`
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
	Line  uint32 `json:"line,omitempty"`
	Col   uint32 `json:"col,omitempty"`
	Macro string `json:"macro,omitempty"`
}

func tokenOutput(tok token.Token, fs *source.FileSet) TokenOutput {
	out := TokenOutput{
		Kind:  tok.Kind.String(),
		Text:  tok.Text,
		Start: tok.Span.Start,
		End:   tok.Span.End,
		Macro: tok.Macro,
	}
	if fs != nil {
		if f := fs.Get(tok.Span.File); f != nil {
			out.File = f.Path
			pos := f.Position(tok.Span.Start)
			out.Line, out.Col = pos.Line, pos.Col
		}
	}
	return out
}

// FormatTokensPretty выводит токены в человекочитаемом формате
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	for i, tok := range tokens {
		o := tokenOutput(tok, fs)
		line := fmt.Sprintf("%3d: %-15s", i+1, o.Kind)
		if o.Text != "" {
			line += fmt.Sprintf(" %q", o.Text)
		}
		if o.Line != 0 {
			line += fmt.Sprintf(" at %d:%d", o.Line, o.Col)
		}
		if o.Macro != "" {
			line += fmt.Sprintf(" (expanded from %s)", o.Macro)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON выводит токены в JSON формате
func FormatTokensJSON(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		output = append(output, tokenOutput(tok, fs))
		if tok.Kind == token.EOF {
			break
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
