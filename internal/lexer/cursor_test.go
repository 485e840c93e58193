package lexer

import (
	"testing"

	"lantern/internal/source"
)

func createFile(content string) *source.File {
	fs := source.NewFileSet()
	id := fs.AddVirtual("/test/a.c", []byte(content))
	return fs.Get(id)
}

func TestCursorWalk(t *testing.T) {
	c := NewCursor(createFile("ab\n"))
	var got []byte
	for !c.EOF() {
		got = append(got, c.Bump())
	}
	if string(got) != "ab\n" || c.Bump() != 0 || c.Peek() != 0 {
		t.Fatalf("walk = %q", got)
	}
}

func TestCursorAtClampsOffset(t *testing.T) {
	f := createFile("abc")
	if c := NewCursorAt(f, 1); c.Peek() != 'b' {
		t.Fatalf("Peek = %c", c.Peek())
	}
	if c := NewCursorAt(f, 99); !c.EOF() {
		t.Fatal("offset past the end must clamp to EOF")
	}
}

func TestCursorMarkSpan(t *testing.T) {
	f := createFile("hello world")
	c := NewCursor(f)
	c.Bump()
	m := c.Mark()
	for range 4 {
		c.Bump()
	}
	sp := c.SpanFrom(m)
	if sp.File != f.ID || sp.Start != 1 || sp.End != 5 {
		t.Fatalf("span = %+v", sp)
	}
	c.Reset(m)
	if !c.Eat('e') || c.Eat('x') {
		t.Fatal("Eat after Reset mismatch")
	}
}

func TestCursorPrefixes(t *testing.T) {
	c := NewCursor(createFile("<<=x"))
	if !c.HasPrefix("<<") || c.HasPrefix("<=") {
		t.Fatal("HasPrefix mismatch")
	}
	if c.EatString("<=") || !c.EatString("<<=") || c.Peek() != 'x' {
		t.Fatalf("EatString left cursor at %d", c.Off)
	}
	if _, ok := c.PeekAt(1); ok {
		t.Fatal("PeekAt past the end")
	}
	c.Bump()
	if !c.HasPrefix("") || c.EatString("") {
		t.Fatal("empty prefix at EOF")
	}
}
