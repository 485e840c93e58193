package syntax

import (
	"strings"
	"testing"

	"lantern/internal/diag"
	"lantern/internal/lang"
	"lantern/internal/pp"
	"lantern/internal/source"
	"lantern/internal/token"
	"lantern/internal/vfs"
)

func texts(ts []token.Token) string {
	var parts []string
	for _, t := range ts {
		if t.Kind == token.EOF {
			parts = append(parts, "<eof>")
			continue
		}
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}

func TestCollectorRecordsExpandedAndSpelled(t *testing.T) {
	main := "#define N 2\nint a = N;\n"
	fs := vfs.NewMemFS()
	sources := source.NewFileSet()
	id := sources.AddVirtual("/w/m.c", []byte(main))
	sources.SetMainFile(id)
	p := pp.New(pp.Options{Lang: lang.C()}, sources, vfs.NewFileManager(fs), diag.NewEngine(sources))
	if err := p.EnterMainSourceFile(nil); err != nil {
		t.Fatal(err)
	}
	c := NewTokenCollector(p)
	for p.Lex().Kind != token.EOF {
	}
	buf := c.Consume()

	if got := texts(buf.Expanded()); got != "int a = 2 ; <eof>" {
		t.Fatalf("expanded = %q", got)
	}
	if got := texts(buf.Spelled()); got != "# define N 2 int a = N ;" {
		t.Fatalf("spelled = %q", got)
	}
	if tok, ok := buf.SpelledAt(20); !ok || tok.Text != "N" {
		t.Fatalf("SpelledAt(20) = %+v, %v", tok, ok)
	}
	in := buf.ExpandedIn(source.Span{File: id, Start: 12, End: 17})
	if got := texts(in); got != "int a" {
		t.Fatalf("ExpandedIn = %q", got)
	}
	if buf.MemoryUsage() == 0 {
		t.Fatalf("no memory accounted")
	}

	// после Consume наблюдатель снят
	p.Lex()
	if len(buf.Expanded()) != 6 {
		t.Fatalf("buffer changed after consume")
	}
}
