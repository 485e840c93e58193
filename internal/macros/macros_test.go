package macros

import (
	"reflect"
	"testing"

	"lantern/internal/diag"
	"lantern/internal/lang"
	"lantern/internal/pp"
	"lantern/internal/source"
	"lantern/internal/token"
	"lantern/internal/vfs"
)

func TestCollectMainFileMacros(t *testing.T) {
	main := "#include \"a.h\"\n#define TWICE(x) ((x) * 2)\nint v = TWICE(LIMIT);\n#undef TWICE\n"
	fs := vfs.NewMemFS()
	fs.AddFile("/w/main.c", main)
	fs.AddFile("/w/a.h", "#define LIMIT 4\n#define HIDDEN 1\nint h = HIDDEN;\n")
	sources := source.NewFileSet()
	sources.SetMainFile(sources.AddVirtual("/w/main.c", []byte(main)))
	p := pp.New(pp.Options{Lang: lang.C()}, sources, vfs.NewFileManager(fs), diag.NewEngine(sources))
	m := New()
	p.AddCallbacks(CollectMainFileMacros(sources, m))
	if err := p.EnterMainSourceFile(nil); err != nil {
		t.Fatal(err)
	}
	for p.Lex().Kind != token.EOF {
	}

	if !reflect.DeepEqual(m.Names, []string{"TWICE", "LIMIT"}) {
		t.Fatalf("names = %v", m.Names)
	}
	if len(m.Ranges) != 4 {
		t.Fatalf("ranges = %+v", m.Ranges)
	}
	for _, r := range m.Ranges {
		if got := main[r.Start:r.End]; got != r.Name {
			t.Errorf("range %+v covers %q", r, got)
		}
	}
}

func TestAddDedupAndClone(t *testing.T) {
	m := New()
	m.Add(Occurrence{Name: "A", Start: 1, End: 2})
	m.Add(Occurrence{Name: "A", Start: 1, End: 2})
	m.Add(Occurrence{Name: "A", Start: 5, End: 6})
	if len(m.Ranges) != 2 || len(m.Names) != 1 {
		t.Fatalf("m = %+v", m)
	}
	c := m.Clone()
	c.Add(Occurrence{Name: "B", Start: 9, End: 10})
	if m.Has("B") || !c.Has("B") || !c.Has("A") {
		t.Fatalf("clone not independent")
	}

	var zero MainFileMacros
	zero.Add(Occurrence{Name: "Z"})
	if !zero.Has("Z") {
		t.Fatalf("zero value unusable")
	}
}
