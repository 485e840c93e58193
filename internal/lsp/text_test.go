package lsp

import (
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

func pos(line, char protocol.UInteger) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

func TestApplyChanges(t *testing.T) {
	text := "int a;\nint b;\n"
	got := applyChanges(text, []any{
		protocol.TextDocumentContentChangeEvent{
			Range: &protocol.Range{Start: pos(1, 4), End: pos(1, 5)},
			Text:  "bb",
		},
		protocol.TextDocumentContentChangeEvent{
			Range: &protocol.Range{Start: pos(0, 0), End: pos(0, 0)},
			Text:  "// x\n",
		},
	})
	if want := "// x\nint a;\nint bb;\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	whole := applyChanges(got, []any{protocol.TextDocumentContentChangeEventWhole{Text: "void f(void);\n"}})
	if whole != "void f(void);\n" {
		t.Fatalf("whole change = %q", whole)
	}
}

func TestOffsetsUseUTF16(t *testing.T) {
	// "é": два байта и одна единица UTF-16, "😀": четыре байта и две единицы
	text := "é😀x\nend"
	cases := []struct {
		pos protocol.Position
		off int
	}{
		{pos(0, 0), 0},
		{pos(0, 1), 2},
		{pos(0, 3), 6},
		{pos(0, 4), 7},
		{pos(0, 99), 7},
		{pos(1, 2), 10},
		{pos(7, 0), len(text)},
	}
	for _, c := range cases {
		if got := offsetForPosition(text, c.pos); got != c.off {
			t.Errorf("offsetForPosition(%+v) = %d, want %d", c.pos, got, c.off)
		}
	}
	if got := positionForOffset(text, 6); got != pos(0, 3) {
		t.Errorf("positionForOffset(6) = %+v", got)
	}
	if got := positionForOffset(text, 100); got != pos(1, 3) {
		t.Errorf("positionForOffset(past end) = %+v", got)
	}
}

func TestRangesOverlap(t *testing.T) {
	a := protocol.Range{Start: pos(1, 4), End: pos(1, 7)}
	if !rangesOverlap(a, protocol.Range{Start: pos(1, 7), End: pos(1, 7)}) {
		t.Error("touching end should overlap")
	}
	if rangesOverlap(a, protocol.Range{Start: pos(2, 0), End: pos(2, 1)}) {
		t.Error("next line should not overlap")
	}
}

func TestURIRoundTrip(t *testing.T) {
	uri := pathToURI("/w/dir with space/main.c")
	if uri != "file:///w/dir%20with%20space/main.c" {
		t.Fatalf("uri = %q", uri)
	}
	if got := uriToPath(uri); got != "/w/dir with space/main.c" {
		t.Fatalf("path = %q", got)
	}
	if got := uriToPath("untitled:Untitled-1"); got != "" {
		t.Fatalf("non-file uri mapped to %q", got)
	}
}
