package index

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestMemIndexFindProviders(t *testing.T) {
	m := NewMemIndex(
		Symbol{Name: "puts", Kind: "function", Header: "<stdio.h>", Path: "/usr/include/stdio.h", Line: 10},
		Symbol{Name: "puts", Kind: "function", Header: `"compat.h"`, Path: "/w/compat.h", Line: 3},
		Symbol{Name: "size_t", Kind: "typedef", Header: "<stddef.h>", Path: "/usr/include/stddef.h", Line: 1},
	)
	got, err := m.FindProviders(context.Background(), "puts", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Header != "<stdio.h>" {
		t.Fatalf("providers = %+v", got)
	}
	if got, _ := m.FindProviders(context.Background(), "nothing", 5); len(got) != 0 {
		t.Fatalf("unexpected providers %+v", got)
	}
	if m.Queries() != 2 {
		t.Fatalf("queries = %d", m.Queries())
	}
	m.RemoveFile("/usr/include/stdio.h")
	if !reflect.DeepEqual(m.Names(), []string{"puts", "size_t"}) || m.Len() != 2 {
		t.Fatalf("after remove: %v (%d)", m.Names(), m.Len())
	}
}

func TestBleveIndexMemOnly(t *testing.T) {
	idx, err := OpenBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	err = idx.Add(
		Symbol{Name: "widget_new", Kind: "function", Header: `"widget.h"`, Path: "/w/widget.h", Line: 4},
		Symbol{Name: "widget", Kind: "struct", Header: `"widget.h"`, Path: "/w/widget.h", Line: 1},
		Symbol{Name: "widget", Kind: "struct", Header: "/w/old/widget.h", Path: "/w/old/widget.h", Line: 7},
	)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := idx.Count(); err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	got, err := idx.FindProviders(context.Background(), "widget", 10)
	if err != nil {
		t.Fatal(err)
	}
	// сортировка по пути, затем по строке
	want := []Symbol{
		{Name: "widget", Kind: "struct", Header: "/w/old/widget.h", Path: "/w/old/widget.h", Line: 7},
		{Name: "widget", Kind: "struct", Header: `"widget.h"`, Path: "/w/widget.h", Line: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("providers = %+v", got)
	}
	if err := idx.RemoveFile("/w/old/widget.h"); err != nil {
		t.Fatal(err)
	}
	got, _ = idx.FindProviders(context.Background(), "widget", 10)
	if len(got) != 1 || got[0].Path != "/w/widget.h" {
		t.Fatalf("after remove: %+v", got)
	}
}

func TestBleveIndexOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "symbols.bleve")
	idx, err := OpenBleveIndex(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Add(Symbol{Name: "abs", Kind: "function", Header: "<stdlib.h>", Path: "/usr/include/stdlib.h", Line: 2}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}
	idx, err = OpenBleveIndex(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	got, err := idx.FindProviders(context.Background(), "abs", 1)
	if err != nil || len(got) != 1 || got[0].Header != "<stdlib.h>" {
		t.Fatalf("reopened index: %+v, %v", got, err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuilderHonoursGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "build/\n")
	writeFile(t, filepath.Join(root, "include", "foo.h"), "int foo(int x);\nstatic int hidden;\ntypedef int foo_t;\n")
	writeFile(t, filepath.Join(root, "include", "pub", "detail.h"), "// IWYU pragma: private, include \"pub.h\"\nstruct widget { int w; };\n")
	writeFile(t, filepath.Join(root, "build", "gen.h"), "int generated;\n")
	writeFile(t, filepath.Join(root, "src", "main.c"), "int main(void) { return 0; }\n")

	b, err := NewBuilder(BuilderOptions{Roots: []string{root}, Jobs: 2})
	if err != nil {
		t.Fatal(err)
	}
	files, err := b.Collect()
	if err != nil {
		t.Fatal(err)
	}
	wantFiles := []string{
		filepath.ToSlash(filepath.Join(root, "include", "foo.h")),
		filepath.ToSlash(filepath.Join(root, "include", "pub", "detail.h")),
	}
	if !reflect.DeepEqual(files, wantFiles) {
		t.Fatalf("collected %v", files)
	}

	m := NewMemIndex()
	stats, err := b.Run(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Files != 2 || stats.Failed != 0 || stats.Symbols != 3 {
		t.Fatalf("stats = %+v", stats)
	}
	if !reflect.DeepEqual(m.Names(), []string{"foo", "foo_t", "widget"}) {
		t.Fatalf("names = %v", m.Names())
	}
	w, _ := m.FindProviders(context.Background(), "widget", 1)
	if len(w) != 1 || w[0].Header != `"pub.h"` || w[0].Kind != "struct" || w[0].Line != 2 {
		t.Fatalf("widget = %+v", w)
	}
	f, _ := m.FindProviders(context.Background(), "foo", 1)
	if len(f) != 1 || f[0].Header != wantFiles[0] {
		t.Fatalf("foo = %+v", f)
	}
}

func TestBuilderRejectsBadPattern(t *testing.T) {
	if _, err := NewBuilder(BuilderOptions{Patterns: []string{"[unclosed"}}); err == nil {
		t.Fatal("invalid pattern accepted")
	}
}
