package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lantern/internal/diag"
	"lantern/internal/vfs"
)

func edit(path string, start, end uint32, text string) diag.FixEdit {
	return diag.FixEdit{Range: diag.Range{Path: path, StartOff: start, EndOff: end}, NewText: text}
}

func diagnostic(path string, start uint32, name string, fixes ...diag.Fix) diag.Diagnostic {
	return diag.Diagnostic{
		Severity:  diag.SevWarning,
		Message:   name,
		CheckName: name,
		Range:     diag.Range{Path: path, StartOff: start, EndOff: start + 1},
		Fixes:     fixes,
	}
}

type memWriter struct {
	fs      *vfs.MemFS
	written map[string]string
}

func newMemWriter(fs *vfs.MemFS) *memWriter {
	return &memWriter{fs: fs, written: make(map[string]string)}
}

func (w *memWriter) write(path string, data []byte) error {
	w.written[path] = string(data)
	w.fs.AddFile(path, string(data))
	return nil
}

func TestApplyAllKeepsOffsetsStable(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.AddFile("/w/main.c", "int *p = 0;\nint __x;\n")
	diags := []diag.Diagnostic{
		diagnostic("/w/main.c", 9, "modernize-use-nullptr",
			diag.Fix{Title: "replace with nullptr", Edits: []diag.FixEdit{edit("/w/main.c", 9, 10, "nullptr")}}),
		diagnostic("/w/main.c", 16, "bugprone-reserved-identifier",
			diag.Fix{Title: "remove leading underscores", Edits: []diag.FixEdit{edit("/w/main.c", 16, 19, "x")}}),
	}
	w := newMemWriter(fs)
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll, Write: w.write})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 2 || len(res.FileChanges) != 1 || res.FileChanges[0].EditCount != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := w.written["/w/main.c"]; got != "int *p = nullptr;\nint x;\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestApplyOnceAndByID(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.AddFile("/w/a.c", "abc\n")
	diags := []diag.Diagnostic{
		diagnostic("/w/a.c", 0, "first", diag.Fix{Title: "x", Edits: []diag.FixEdit{edit("/w/a.c", 0, 1, "X")}}),
		diagnostic("/w/a.c", 2, "second", diag.Fix{Title: "z", Edits: []diag.FixEdit{edit("/w/a.c", 2, 3, "Z")}}),
	}
	w := newMemWriter(fs)
	if _, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeOnce, Write: w.write}); err != nil {
		t.Fatal(err)
	}
	if w.written["/w/a.c"] != "Xbc\n" {
		t.Fatalf("once: %q", w.written["/w/a.c"])
	}

	ids := Candidates(diags)
	if len(ids) != 2 || ids[1] != "second-a.c-2-0" {
		t.Fatalf("ids = %v", ids)
	}
	w = newMemWriter(fs)
	if _, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: ids[1], Write: w.write}); err != nil {
		t.Fatal(err)
	}
	// файл уже содержит первую правку
	if w.written["/w/a.c"] != "XbZ\n" {
		t.Fatalf("by id: %q", w.written["/w/a.c"])
	}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "nope", Write: w.write})
	if !errors.Is(err, ErrNoFixes) || len(res.Skipped) != 1 || res.Skipped[0].Reason != "fix id not found" {
		t.Fatalf("unknown id: %v %+v", err, res)
	}
}

func TestConflictingFixIsSkipped(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.AddFile("/w/a.c", "abcdef\n")
	diags := []diag.Diagnostic{
		diagnostic("/w/a.c", 0, "one", diag.Fix{Title: "one", Edits: []diag.FixEdit{edit("/w/a.c", 0, 4, "1")}}),
		diagnostic("/w/a.c", 2, "two", diag.Fix{Title: "two", Edits: []diag.FixEdit{edit("/w/a.c", 2, 6, "2")}}),
	}
	w := newMemWriter(fs)
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll, Write: w.write})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || len(res.Skipped) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if w.written["/w/a.c"] != "1ef\n" {
		t.Fatalf("content = %q", w.written["/w/a.c"])
	}
}

func TestAlternativesApplyOnce(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.AddFile("/w/a.c", "int f(void) { return widget; }\n")
	d := diagnostic("/w/a.c", 21, "undeclared_identifier",
		diag.Fix{Title: `Include "widget.h" for symbol widget`, Edits: []diag.FixEdit{edit("/w/a.c", 0, 0, "#include \"widget.h\"\n")}},
		diag.Fix{Title: `Include <widget.h> for symbol widget`, Edits: []diag.FixEdit{edit("/w/a.c", 0, 0, "#include <widget.h>\n")}},
	)
	w := newMemWriter(fs)
	res, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll, Write: w.write})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || w.written["/w/a.c"] != "#include \"widget.h\"\nint f(void) { return widget; }\n" {
		t.Fatalf("result %+v, content %q", res, w.written["/w/a.c"])
	}
}

func TestGatherCandidatesSkipsEmptyAndDuplicate(t *testing.T) {
	d := diagnostic("/w/a.c", 0, "x",
		diag.Fix{Title: "empty"},
		diag.Fix{Title: "nowhere", Edits: []diag.FixEdit{{NewText: "?"}}},
	)
	cands, skips := gatherCandidates([]diag.Diagnostic{d, d})
	if len(cands) != 0 || len(skips) != 4 {
		t.Fatalf("cands %d, skips %+v", len(cands), skips)
	}

	ok := diagnostic("/w/a.c", 0, "x", diag.Fix{Title: "one", Edits: []diag.FixEdit{edit("/w/a.c", 0, 1, "y")}})
	cands, skips = gatherCandidates([]diag.Diagnostic{ok, ok})
	if len(cands) != 1 || len(skips) != 1 || skips[0].Reason != "duplicate fix id" {
		t.Fatalf("cands %d, skips %+v", len(cands), skips)
	}
}

func TestWriteAtomicKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.c")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteAtomic(path, []byte("new")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "new" {
		t.Fatalf("read %q, %v", data, err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Mode().Perm() != 0o600 {
		t.Fatalf("mode %v, %v", info.Mode(), err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary file left behind: %v", entries)
	}
}
