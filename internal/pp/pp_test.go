package pp

import (
	"fmt"
	"strings"
	"testing"

	"lantern/internal/diag"
	"lantern/internal/lang"
	"lantern/internal/source"
	"lantern/internal/token"
	"lantern/internal/vfs"
)

type diagRecorder struct {
	msgs []string
}

func (r *diagRecorder) BeginSourceFile() {}
func (r *diagRecorder) EndSourceFile()   {}
func (r *diagRecorder) HandleDiagnostic(level diag.Severity, info *diag.Info) {
	r.msgs = append(r.msgs, level.Label()+": "+info.Message)
}

// eventLog записывает события в читаемом виде; встроенные макросы пропускаем.
type eventLog struct {
	EmptyCallbacks
	sources *source.FileSet
	events  []string
}

func (l *eventLog) name(id source.FileID) string {
	n := l.sources.BufferName(id)
	if i := strings.LastIndex(n, "/"); i >= 0 {
		return n[i+1:]
	}
	return n
}

func (l *eventLog) FileChanged(loc source.Span, reason FileChangeReason, _ CharacteristicKind, prev source.FileID) {
	switch reason {
	case EnterFile:
		l.events = append(l.events, "enter "+l.name(loc.File))
	case ExitFile:
		l.events = append(l.events, "exit "+l.name(prev))
	}
}

func (l *eventLog) InclusionDirective(d InclusionDirective) {
	found := "found"
	if d.File == nil {
		found = "missing"
	}
	l.events = append(l.events, fmt.Sprintf("include %s %s", d.FilenameTok.Text, found))
}

func (l *eventLog) FileSkipped(_ *vfs.FileEntry, tok token.Token, _ CharacteristicKind) {
	l.events = append(l.events, "skip "+tok.Text)
}

func (l *eventLog) FileNotFound(name string) string {
	l.events = append(l.events, "notfound "+name)
	return ""
}

func (l *eventLog) MacroDefined(tok token.Token, def *MacroDefinition) {
	if !def.Builtin {
		l.events = append(l.events, "define "+tok.Text)
	}
}

func (l *eventLog) MacroExpands(tok token.Token, _ *MacroDefinition, _ source.Span) {
	l.events = append(l.events, "expand "+tok.Text)
}

func (l *eventLog) EndOfMainFile() {
	l.events = append(l.events, "eof")
}

func newTestPP(files map[string]string, mainPath string, opts Options) (*Preprocessor, *diagRecorder) {
	fs := vfs.NewMemFS()
	for p, c := range files {
		fs.AddFile(p, c)
	}
	sources := source.NewFileSet()
	id := sources.AddVirtual(mainPath, []byte(files[mainPath]))
	sources.SetMainFile(id)
	eng := diag.NewEngine(sources)
	rec := &diagRecorder{}
	eng.SetClient(rec)
	if opts.Lang.Std == "" {
		opts.Lang = lang.CXX(17)
	}
	return New(opts, sources, vfs.NewFileManager(fs), eng), rec
}

func lexAll(p *Preprocessor) string {
	var parts []string
	for {
		t := p.Lex()
		if t.Kind == token.EOF {
			return strings.Join(parts, " ")
		}
		parts = append(parts, t.Text)
	}
}

func TestEventOrderAndIncludes(t *testing.T) {
	files := map[string]string{
		"/p/main.cpp": "#include \"a.h\"\n#define N 3\nint x = N;\n",
		"/p/a.h":      "#pragma once\nint a;\n",
	}
	p, rec := newTestPP(files, "/p/main.cpp", Options{})
	log := &eventLog{sources: p.Sources()}
	p.AddCallbacks(log)
	if err := p.EnterMainSourceFile(nil); err != nil {
		t.Fatal(err)
	}
	got := lexAll(p)
	if got != "int a ; int x = 3 ;" {
		t.Fatalf("tokens = %q", got)
	}
	p.EndSourceFile()
	p.EndSourceFile()

	want := []string{
		"enter main.cpp",
		"enter <built-in>",
		"enter <command-line>",
		"exit <command-line>",
		"exit <built-in>",
		`include "a.h" found`,
		"enter a.h",
		"exit a.h",
		"define N",
		"expand N",
		"eof",
	}
	if strings.Join(log.events, "\n") != strings.Join(want, "\n") {
		t.Fatalf("events:\n%s\nwant:\n%s", strings.Join(log.events, "\n"), strings.Join(want, "\n"))
	}
	if len(rec.msgs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", rec.msgs)
	}
}

func TestPragmaOnceSkipsSecondInclude(t *testing.T) {
	files := map[string]string{
		"/p/main.c": "#include \"a.h\"\n#include \"a.h\"\n",
		"/p/a.h":    "#pragma once\nint a;\n",
	}
	p, _ := newTestPP(files, "/p/main.c", Options{Lang: lang.C()})
	log := &eventLog{sources: p.Sources()}
	p.AddCallbacks(log)
	_ = p.EnterMainSourceFile(nil)
	if got := lexAll(p); got != "int a ;" {
		t.Fatalf("tokens = %q", got)
	}
	last := log.events[len(log.events)-1]
	if last != `skip "a.h"` {
		t.Fatalf("last event = %q, events %v", last, log.events)
	}
}

func TestMissingIncludeReported(t *testing.T) {
	files := map[string]string{"/p/main.cpp": "#include <nope.h>\nint x;\n"}
	p, rec := newTestPP(files, "/p/main.cpp", Options{})
	log := &eventLog{sources: p.Sources()}
	p.AddCallbacks(log)
	_ = p.EnterMainSourceFile(nil)
	if got := lexAll(p); got != "int x ;" {
		t.Fatalf("tokens = %q", got)
	}
	if len(rec.msgs) != 1 || rec.msgs[0] != "error: 'nope.h' file not found" {
		t.Fatalf("diags = %v", rec.msgs)
	}
	joined := strings.Join(log.events, ",")
	if !strings.Contains(joined, "notfound nope.h,include <nope.h> missing") {
		t.Fatalf("events = %v", log.events)
	}
}

func TestFunctionLikeMacros(t *testing.T) {
	src := "#define ADD(a, b) ((a) + (b))\n" +
		"#define STR(x) #x\n" +
		"#define CAT(a, b) a ## b\n" +
		"#define LOG(fmt, ...) printf(fmt, __VA_ARGS__)\n" +
		"int v = ADD(1, 2);\n" +
		"const char *s = STR(hello world);\n" +
		"int CAT(foo, bar) = 0;\n" +
		"LOG(\"%d\", 1, 2);\n" +
		"int ADD = 1;\n"
	p, rec := newTestPP(map[string]string{"/p/m.cpp": src}, "/p/m.cpp", Options{})
	_ = p.EnterMainSourceFile(nil)
	want := `int v = ( ( 1 ) + ( 2 ) ) ; const char * s = "hello world" ; int foobar = 0 ; printf ( "%d" , 1 , 2 ) ; int ADD = 1 ;`
	if got := lexAll(p); got != want {
		t.Fatalf("tokens:\n got %q\nwant %q", got, want)
	}
	if len(rec.msgs) != 0 {
		t.Fatalf("diags = %v", rec.msgs)
	}
}

func TestRecursiveMacroStops(t *testing.T) {
	src := "#define A B\n#define B A\nA;\n"
	p, _ := newTestPP(map[string]string{"/p/m.c": src}, "/p/m.c", Options{Lang: lang.C()})
	_ = p.EnterMainSourceFile(nil)
	if got := lexAll(p); got != "A ;" {
		t.Fatalf("tokens = %q", got)
	}
}

func TestExpandedTokensCarryMacroOrigin(t *testing.T) {
	src := "#define ZERO 0\nint z = ZERO;\n"
	p, _ := newTestPP(map[string]string{"/p/m.c": src}, "/p/m.c", Options{Lang: lang.C()})
	_ = p.EnterMainSourceFile(nil)
	for {
		tok := p.Lex()
		if tok.Kind == token.EOF {
			t.Fatal("expansion not found")
		}
		if tok.Text == "0" {
			if !tok.Has(token.FromMacro) || tok.Macro != "ZERO" {
				t.Fatalf("token = %+v", tok)
			}
			if got := string(p.Sources().Get(tok.Span.File).Content[tok.Span.Start:tok.Span.End]); got != "ZERO" {
				t.Fatalf("expansion located at %q", got)
			}
			return
		}
	}
}

func TestConditionals(t *testing.T) {
	src := "#if 0\nint dead;\n#else\nint live1;\n#endif\n" +
		"#ifdef NOPE\nint dead2;\n#elif defined(__cplusplus) && __cplusplus >= 201103L\nint live2;\n#else\nint dead3;\n#endif\n" +
		"#ifndef GUARD\n#define GUARD\nint live3;\n#endif\n" +
		"#if 1\n#if 0\nint dead4;\n#else\nint live4;\n#endif\n#endif\n" +
		"#if (2 + 3) * 2 == 10 ? 1 : 0\nint live5;\n#endif\n"
	p, rec := newTestPP(map[string]string{"/p/m.cpp": src}, "/p/m.cpp", Options{})
	_ = p.EnterMainSourceFile(nil)
	if got := lexAll(p); got != "int live1 ; int live2 ; int live3 ; int live4 ; int live5 ;" {
		t.Fatalf("tokens = %q", got)
	}
	if len(rec.msgs) != 0 {
		t.Fatalf("diags = %v", rec.msgs)
	}
}

func TestConditionalErrors(t *testing.T) {
	src := "#endif\n#ifdef X\nint a;\n"
	p, rec := newTestPP(map[string]string{"/p/m.c": src}, "/p/m.c", Options{Lang: lang.C()})
	_ = p.EnterMainSourceFile(nil)
	lexAll(p)
	want := []string{
		"error: #endif without #if",
		"error: unterminated conditional directive",
	}
	if strings.Join(rec.msgs, "|") != strings.Join(want, "|") {
		t.Fatalf("diags = %v", rec.msgs)
	}
}

func TestCommandLineDefines(t *testing.T) {
	src := "int a = FOO; int b = BAR;\n#ifdef __lantern__\nint c;\n#endif\n"
	p, _ := newTestPP(map[string]string{"/p/m.c": src}, "/p/m.c",
		Options{Lang: lang.C(), Defines: []string{"FOO", "BAR=7", "GONE"}, Undefines: []string{"GONE"}})
	_ = p.EnterMainSourceFile(nil)
	if got := lexAll(p); got != "int a = 1 ; int b = 7 ; int c ;" {
		t.Fatalf("tokens = %q", got)
	}
	if p.Macro("GONE") != nil {
		t.Fatal("undefine from command line ignored")
	}
}

func TestPrefixResumesAfterPreamble(t *testing.T) {
	main := "#include \"a.h\"\n#define N 4\nint x = N;\n"
	files := map[string]string{"/p/main.cpp": main, "/p/a.h": "int a;\n"}
	p, _ := newTestPP(files, "/p/main.cpp", Options{})
	log := &eventLog{sources: p.Sources()}
	p.AddCallbacks(log)

	size := uint32(strings.Index(main, "int x"))
	n := &MacroDefinition{Name: "N", Body: []token.Token{{Kind: token.NumericLit, Text: "4"}}}
	if err := p.EnterMainSourceFile(&Prefix{Size: size, Macros: []*MacroDefinition{n}}); err != nil {
		t.Fatal(err)
	}
	if got := lexAll(p); got != "int x = 4 ;" {
		t.Fatalf("tokens = %q", got)
	}
	for _, e := range log.events {
		if strings.HasPrefix(e, "include") || strings.HasPrefix(e, "define") {
			t.Fatalf("prefix event leaked into live stream: %q", e)
		}
	}
}

func TestAddCallbacksNewestFirst(t *testing.T) {
	var order []string
	p, _ := newTestPP(map[string]string{"/p/m.c": ""}, "/p/m.c", Options{Lang: lang.C()})
	p.AddCallbacks(&orderProbe{name: "old", out: &order})
	p.AddCallbacks(&orderProbe{name: "new", out: &order})
	p.EndSourceFile()
	if strings.Join(order, ",") != "new,old" {
		t.Fatalf("order = %v", order)
	}
}

type orderProbe struct {
	EmptyCallbacks
	name string
	out  *[]string
}

func (o *orderProbe) EndOfMainFile() { *o.out = append(*o.out, o.name) }

func TestHeaderSearchOrder(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.AddFile("/src/x.h", "")
	fs.AddFile("/inc/x.h", "")
	fs.AddFile("/sys/y.h", "")
	hs := NewHeaderSearch(vfs.NewFileManager(fs), []string{"/inc"}, []string{"/sys"})

	r, ok := hs.Lookup("x.h", false, "/src", User)
	if !ok || r.Entry.Name != "/src/x.h" {
		t.Fatalf("quoted lookup = %+v %v", r, ok)
	}
	r, ok = hs.Lookup("x.h", true, "/src", User)
	if !ok || r.Entry.Name != "/inc/x.h" || r.Kind != User {
		t.Fatalf("angled lookup = %+v %v", r, ok)
	}
	r, ok = hs.Lookup("y.h", true, "/src", User)
	if !ok || r.Kind != System || r.SearchPath != "/sys" {
		t.Fatalf("system lookup = %+v %v", r, ok)
	}
	if spelled, sys := hs.SuggestPathToFile("/sys/y.h", "/src"); spelled != "y.h" || !sys {
		t.Fatalf("suggest = %q %v", spelled, sys)
	}
}

func TestReleaseStopsLexing(t *testing.T) {
	p, _ := newTestPP(map[string]string{"/p/m.c": "int a;"}, "/p/m.c", Options{Lang: lang.C()})
	_ = p.EnterMainSourceFile(nil)
	before := p.MemoryUsage()
	p.Release()
	if tok := p.Lex(); tok.Kind != token.EOF {
		t.Fatalf("token after release = %v", tok.Kind)
	}
	if before == 0 {
		t.Fatal("memory usage not reported")
	}
}
