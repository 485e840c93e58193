package source

import (
	"testing"
)

func TestFileSetReservesNoFile(t *testing.T) {
	fs := NewFileSet()
	if fs.Get(NoFile) != nil {
		t.Fatal("NoFile must not resolve to a buffer")
	}
	id := fs.AddVirtual("/tmp/a.c", []byte("int a;\n"))
	if id == NoFile {
		t.Fatal("first buffer got NoFile id")
	}
	if fs.Len() != 1 {
		t.Fatalf("Len = %d, want 1", fs.Len())
	}
}

func TestFileSetMainFile(t *testing.T) {
	fs := NewFileSet()
	main := fs.AddVirtual("/w/main.cc", []byte("int x;\n"))
	hdr := fs.AddVirtual("/w/a.h", []byte("int y;\n"))
	builtin := fs.AddBuiltin(BuiltinBufferName, []byte("#define __STDC__ 1\n"))
	fs.SetMainFile(main)

	if !fs.IsInsideMainFile(Span{File: main, Start: 0, End: 3}) {
		t.Error("span in main file not recognised")
	}
	if fs.IsInsideMainFile(Span{File: hdr}) {
		t.Error("header span reported inside main file")
	}
	if fs.IsInsideMainFile(Span{}) {
		t.Error("location-less span reported inside main file")
	}
	if !fs.IsBuiltin(builtin) || fs.IsBuiltin(main) {
		t.Error("IsBuiltin mismatch")
	}
	if got := fs.BufferName(builtin); got != "<built-in>" {
		t.Errorf("BufferName = %q", got)
	}
}

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("x.c", []byte("ab\ncd\nef"))
	start, end := fs.Resolve(Span{File: id, Start: 3, End: 5})
	if start != (LineCol{Line: 2, Col: 1}) || end != (LineCol{Line: 2, Col: 3}) {
		t.Fatalf("Resolve = %v %v", start, end)
	}
	f := fs.Get(id)
	if got := f.GetLine(3); got != "ef" {
		t.Errorf("GetLine(3) = %q", got)
	}
	if got := f.LineStart(2); got != 3 {
		t.Errorf("LineStart(2) = %d", got)
	}
}

func TestFileSetGetLatest(t *testing.T) {
	fs := NewFileSet()
	first := fs.AddVirtual("dir/../a.h", []byte("1"))
	second := fs.AddVirtual("a.h", []byte("2"))
	if first == second {
		t.Fatal("each Add must produce a new id")
	}
	id, ok := fs.GetLatest("a.h")
	if !ok || id != second {
		t.Fatalf("GetLatest = %d,%v want %d", id, ok, second)
	}
}

func TestFileSetMemoryGrows(t *testing.T) {
	fs := NewFileSet()
	before := fs.ContentCacheSize() + fs.DataStructureSizes()
	fs.AddVirtual("a.c", make([]byte, 4096))
	after := fs.ContentCacheSize() + fs.DataStructureSizes()
	if after <= before {
		t.Fatalf("memory estimate did not grow: %d -> %d", before, after)
	}
}
