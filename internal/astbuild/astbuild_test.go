package astbuild

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"lantern/internal/ast"
	"lantern/internal/diag"
	"lantern/internal/frontend"
	"lantern/internal/index"
	"lantern/internal/lang"
	"lantern/internal/pp"
	"lantern/internal/source"
	"lantern/internal/preamble"
	"lantern/internal/tidy"
	"lantern/internal/token"
	"lantern/internal/vfs"
)

var headerFiles = map[string]string{
	"/w/a.h":           "#include \"c.h\"\nint a;\n",
	"/w/c.h":           "int c;\n",
	"/w/b.h":           "int b;\n",
	"/usr/inc/sys/z.h": "int z;\n",
}

type fixture struct {
	fs       *vfs.MemFS
	inv      *frontend.Invocation
	invDiags []diag.Diagnostic
	content  []byte
}

func newFixture(t *testing.T, main, content string, args ...string) fixture {
	t.Helper()
	fs := vfs.NewMemFS()
	for name, text := range headerFiles {
		fs.AddFile(name, text)
	}
	fs.AddFile(main, content)
	inv, invDiags := frontend.ParseInvocation(append(append([]string{"-isystem", "/usr/inc"}, args...), main))
	return fixture{fs: fs, inv: inv, invDiags: invDiags, content: []byte(content)}
}

func (f fixture) snapshot(t *testing.T) *preamble.Snapshot {
	t.Helper()
	snap, err := preamble.Build(context.Background(), f.inv, f.content, f.fs)
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func (f fixture) build(t *testing.T, snap *preamble.Snapshot, idx index.SymbolIndex, opts Options) *ParsedAST {
	t.Helper()
	inputs := Inputs{FS: f.fs, Contents: f.content, Index: idx, Opts: opts}
	a, err := BuildAST(context.Background(), f.inv.MainFile, f.inv, f.invDiags, inputs, snap)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(a.Close)
	return a
}

func declNames(a *ParsedAST) []string {
	var out []string
	for _, id := range a.LocalTopLevelDecls() {
		out = append(out, a.Context().Decl(id).Name)
	}
	return out
}

func fromChecks(ds []diag.Diagnostic) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range ds {
		if d.Origin == diag.OriginTidy {
			out = append(out, d)
		}
	}
	return out
}

const includesMain = "#include \"b.h\"\n#include \"a.h\"\n#include <sys/z.h>\nint main(void) { return a + b + z; }\n"

var includeChecks = Options{
	EnableChecks: true,
	Tidy: tidy.Options{
		Checks:       "-*,llvm-include-order,portability-restrict-system-includes",
		CheckOptions: map[string]string{"portability-restrict-system-includes.Includes": "-**"},
	},
}

func TestBuildIsIdempotent(t *testing.T) {
	f := newFixture(t, "/w/main.c", includesMain)
	snap := f.snapshot(t)
	first := f.build(t, snap, nil, includeChecks)
	second := f.build(t, snap, nil, includeChecks)
	if !reflect.DeepEqual(first.Diagnostics(), second.Diagnostics()) {
		t.Fatalf("diagnostics differ:\n%+v\n%+v", first.Diagnostics(), second.Diagnostics())
	}
	if !reflect.DeepEqual(declNames(first), declNames(second)) {
		t.Fatalf("decls differ: %v vs %v", declNames(first), declNames(second))
	}
	if !reflect.DeepEqual(first.IncludeStructure().MainFileIncludes, second.IncludeStructure().MainFileIncludes) {
		t.Fatalf("includes differ")
	}
	// снапшот не меняется от сборок
	if len(snap.Includes.MainFileIncludes) != 3 {
		t.Fatalf("snapshot includes changed: %+v", snap.Includes.MainFileIncludes)
	}
}

func TestLocalDeclsStayInMainFile(t *testing.T) {
	src := "#include \"a.h\"\ntemplate <typename T> T id(T v) { return v; }\nint main() { return id(a) + id(2); }\n"
	f := newFixture(t, "/w/main.cc", src)
	snap := f.snapshot(t)
	for _, tc := range []struct {
		name string
		snap *preamble.Snapshot
	}{{"cold", nil}, {"warm", snap}} {
		a := f.build(t, tc.snap, nil, Options{})
		if got := declNames(a); !reflect.DeepEqual(got, []string{"id", "main"}) {
			t.Errorf("%s: decls = %v", tc.name, got)
		}
		ctx := a.Context()
		sources := ctx.Sources()
		for _, id := range a.LocalTopLevelDecls() {
			d := ctx.Decl(id)
			if !sources.IsInsideMainFile(d.Location()) || d.IsTemplateInstantiation() {
				t.Errorf("%s: %s escaped the main file scope", tc.name, d.Name)
			}
			if d.Location().Start < snap.Prefix.Bounds.Size {
				t.Errorf("%s: %s lies in the preamble", tc.name, d.Name)
			}
		}
		if !reflect.DeepEqual(ctx.TraversalScope(), a.LocalTopLevelDecls()) {
			t.Errorf("%s: traversal scope = %v", tc.name, ctx.TraversalScope())
		}
	}
}

func TestReplayMatchesColdBuild(t *testing.T) {
	f := newFixture(t, "/w/main.c", includesMain)
	cold := fromChecks(f.build(t, nil, nil, includeChecks).Diagnostics())
	warm := fromChecks(f.build(t, f.snapshot(t), nil, includeChecks).Diagnostics())
	if len(cold) != 2 {
		t.Fatalf("cold build check diagnostics = %+v", cold)
	}
	if !reflect.DeepEqual(cold, warm) {
		t.Fatalf("replayed build differs:\ncold %+v\nwarm %+v", cold, warm)
	}
}

type includeLog struct {
	pp.EmptyCallbacks
	events []string
}

func (l *includeLog) InclusionDirective(d pp.InclusionDirective) {
	l.events = append(l.events, fmt.Sprintf("include %s %s", d.Include.Text, d.FilenameTok.Text))
}

func (l *includeLog) FileSkipped(file *vfs.FileEntry, tok token.Token, _ pp.CharacteristicKind) {
	l.events = append(l.events, "skip "+file.Name)
}

func (l *includeLog) FileNotFound(name string) string {
	l.events = append(l.events, "missing "+name)
	return ""
}

func TestReplayPreambleEvents(t *testing.T) {
	src := "#include \"a.h\"\n#include \"gone.h\"\n#include <sys/z.h>\nint x;\n"
	f := newFixture(t, "/w/main.c", src)
	snap := f.snapshot(t)

	ci, err := frontend.Prepare(f.inv, snap.Prefix.Handle(), f.content, f.fs, diag.NewStore())
	if err != nil {
		t.Fatal(err)
	}
	action := frontend.NewSyntaxOnlyAction()
	if err := action.BeginSourceFile(ci); err != nil {
		t.Fatal(err)
	}
	session := frontend.NewSession(ci, action)
	defer session.Close()

	if AttachReplayPreamble(snap.Includes.MainFileIncludes, ci.PP) != nil {
		t.Fatal("replay attached without listeners")
	}
	rec := &includeLog{}
	ci.PP.AddCallbacks(rec)
	replay := AttachReplayPreamble(snap.Includes.MainFileIncludes, ci.PP)
	if err := action.Execute(); err != nil {
		t.Fatal(err)
	}
	session.EndOfInput()
	want := []string{
		`include include "a.h"`, "skip /w/a.h",
		"missing gone.h",
		"include include <sys/z.h>", "skip /usr/inc/sys/z.h",
	}
	if !replay.Replayed() || !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("events = %q", rec.events)
	}
	// c.h подключается из a.h: в снапшоте есть ребро, но повтора нет
	if got := snap.Includes.Includes("/w/a.h"); !reflect.DeepEqual(got, []string{"/w/c.h"}) {
		t.Fatalf("a.h includes = %v", got)
	}
}

func TestWarningsAsErrorsBeatsNolint(t *testing.T) {
	src := "int __a; // NOLINT\nint __b; // NOLINTNEXTLINE\nint __c;\n"
	f := newFixture(t, "/w/main.c", src)
	opts := Options{EnableChecks: true, Tidy: tidy.Options{Checks: "-*,bugprone-reserved-identifier"}}
	if got := fromChecks(f.build(t, nil, nil, opts).Diagnostics()); len(got) != 1 || got[0].Range.Start.Line != 2 {
		t.Fatalf("suppressed build = %+v", got)
	}
	opts.Tidy.WarningsAsErrors = "bugprone-*"
	got := fromChecks(f.build(t, nil, nil, opts).Diagnostics())
	if len(got) != 3 {
		t.Fatalf("escalated build = %+v", got)
	}
	for _, d := range got {
		if d.Severity != diag.SevError || d.CheckName != "bugprone-reserved-identifier" {
			t.Errorf("diag = %+v", d)
		}
	}
}

// cxxMacroCheck reports every macro defined in the main file, C++ only.
type cxxMacroCheck struct {
	tidy.Base
	attached *int
}

func (c *cxxMacroCheck) IsLanguageVersionSupported(o lang.Options) bool { return o.CPlusPlus }

func (c *cxxMacroCheck) RegisterPPCallbacks(sources *source.FileSet, p *pp.Preprocessor) {
	*c.attached++
	p.AddCallbacks(&cxxMacroListener{check: c, sources: sources})
}

type cxxMacroListener struct {
	pp.EmptyCallbacks
	check   *cxxMacroCheck
	sources *source.FileSet
}

func (l *cxxMacroListener) MacroDefined(tok token.Token, _ *pp.MacroDefinition) {
	if l.sources.IsInsideMainFile(tok.Span) {
		l.check.Diag(tok.Span, "macro %s", tok.Text).Emit()
	}
}

func TestUnsupportedCheckIsSkipped(t *testing.T) {
	attached := 0
	reg := tidy.NewRegistry()
	reg.Register("misc-cxx-macro", func(name string, ctx *tidy.Context) tidy.Check {
		return &cxxMacroCheck{Base: tidy.NewBase(name, ctx), attached: &attached}
	})
	opts := Options{EnableChecks: true, Registry: reg, Tidy: tidy.Options{Checks: "-*,misc-cxx-macro"}}
	src := "#define ONLY 1\nint x = ONLY;\n"

	c := newFixture(t, "/w/main.c", src)
	if got := fromChecks(c.build(t, nil, nil, opts).Diagnostics()); len(got) != 0 || attached != 0 {
		t.Fatalf("C build: attached %d, diags %+v", attached, got)
	}
	cxx := newFixture(t, "/w/main.cc", src)
	got := fromChecks(cxx.build(t, nil, nil, opts).Diagnostics())
	if attached != 1 || len(got) != 1 || got[0].CheckName != "misc-cxx-macro" {
		t.Fatalf("C++ build: attached %d, diags %+v", attached, got)
	}
}

func TestIncludeFixesAreRateLimited(t *testing.T) {
	var b strings.Builder
	b.WriteString("#include \"a.h\"\nint f(void) {\n  return a")
	idx := index.NewMemIndex()
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&b, " + n%d", i)
		name := fmt.Sprintf("n%d", i)
		_ = idx.Add(index.Symbol{Name: name, Header: fmt.Sprintf("<%s.h>", name), Path: "/usr/inc/" + name + ".h"})
	}
	b.WriteString(";\n}\n")
	f := newFixture(t, "/w/main.c", b.String())

	a := f.build(t, f.snapshot(t), idx, Options{SuggestMissingIncludes: true})
	var fixed, unfixed int
	for _, d := range a.Diagnostics() {
		if d.Code != diag.SemaUndeclaredIdentifier {
			continue
		}
		if len(d.Fixes) == 1 && strings.HasPrefix(d.Fixes[0].Title, "Include <n") {
			fixed++
		} else {
			unfixed++
		}
	}
	if fixed != 5 || unfixed != 2 || idx.Queries() != 5 {
		t.Fatalf("fixed %d, unfixed %d, queries %d", fixed, unfixed, idx.Queries())
	}
	// без индекса фиксы не предлагаются
	plain := f.build(t, nil, nil, Options{SuggestMissingIncludes: true})
	for _, d := range plain.Diagnostics() {
		if len(d.Fixes) != 0 {
			t.Fatalf("fix without an index: %+v", d)
		}
	}
}

func TestFatalInput(t *testing.T) {
	f := newFixture(t, "/w/main.c", "int x;\n")
	inputs := Inputs{FS: f.fs}
	inv, _ := frontend.ParseInvocation([]string{"/w/absent.c"})
	a, err := BuildAST(context.Background(), "/w/absent.c", inv, nil, inputs, nil)
	if a != nil || !errors.Is(err, frontend.ErrNoInput) || !errors.Is(err, ErrSessionCreation) {
		t.Fatalf("missing input: %v, %v", a, err)
	}
	if _, err := BuildAST(context.Background(), "/w/main.c", nil, nil, inputs, nil); !errors.Is(err, ErrSessionCreation) {
		t.Fatalf("nil invocation: %v", err)
	}
	if _, err := Build(context.Background(), &frontend.Invocation{}, nil, nil, nil, f.fs, nil, Options{}); !errors.Is(err, ErrSessionCreation) {
		t.Fatalf("empty invocation: %v", err)
	}
}

func TestFatalInputWithPreamble(t *testing.T) {
	f := newFixture(t, "/w/main.c", includesMain)
	snap := f.snapshot(t)
	if _, ok := snap.StatCache.Lookup("/w/main.c"); ok {
		t.Fatal("main file in the preamble stat cache")
	}
	f.fs.Remove("/w/main.c")
	inputs := Inputs{FS: f.fs, Contents: f.content}
	a, err := BuildAST(context.Background(), f.inv.MainFile, f.inv, f.invDiags, inputs, snap)
	if a != nil || !errors.Is(err, frontend.ErrNoInput) || !errors.Is(err, ErrSessionCreation) {
		t.Fatalf("removed main file: %v, %v", a, err)
	}
}

func TestMismatchedPreambleIsNotUsed(t *testing.T) {
	old := newFixture(t, "/w/main.c", includesMain)
	snap := old.snapshot(t)
	// другая шапка: смещения снапшота уже не совпадают
	f := newFixture(t, "/w/main.c", "#include \"a.h\"\nint main(void) { return a + c; }\n")
	a := f.build(t, snap, nil, Options{})
	if a.Preamble() != nil {
		t.Fatal("mismatched snapshot was used")
	}
	if got := declNames(a); !reflect.DeepEqual(got, []string{"main"}) {
		t.Fatalf("decls = %v", got)
	}
	if got := a.IncludeStructure().MainFileIncludes; len(got) != 1 || got[0].Written != `"a.h"` {
		t.Fatalf("includes = %+v", got)
	}
	for _, d := range a.Diagnostics() {
		if d.Severity >= diag.SevError {
			t.Fatalf("unexpected error: %+v", d)
		}
	}
}

func TestUsedBytesGrowsWithInput(t *testing.T) {
	small := newFixture(t, "/w/main.c", "int x;\n")
	var b strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, "int f%d(int v) { return v + %d; }\n", i, i)
	}
	large := newFixture(t, "/w/main.c", b.String())
	s := small.build(t, nil, nil, Options{}).UsedBytes()
	l := large.build(t, nil, nil, Options{}).UsedBytes()
	if s == 0 || l <= s {
		t.Fatalf("used bytes: small %d, large %d", s, l)
	}
}

func TestDiagnosticsMergeOrder(t *testing.T) {
	src := "#include \"gone.h\"\nint main(void) { return missing; }\n"
	f := newFixture(t, "/w/main.c", src, "--bogus")
	if len(f.invDiags) != 1 {
		t.Fatalf("invocation diags = %+v", f.invDiags)
	}
	snap := f.snapshot(t)
	a := f.build(t, snap, nil, Options{})
	var codes []diag.Code
	for _, d := range a.Diagnostics() {
		codes = append(codes, d.Code)
	}
	want := []diag.Code{f.invDiags[0].Code, diag.PPFileNotFound, diag.SemaUndeclaredIdentifier}
	if !reflect.DeepEqual(codes, want) {
		t.Fatalf("codes = %v", codes)
	}
}

func TestCloseTearsDownOnce(t *testing.T) {
	f := newFixture(t, "/w/main.c", includesMain)
	a := f.build(t, f.snapshot(t), nil, includeChecks)
	var out bytes.Buffer
	if err := a.Dump(&out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "FunctionDecl main <main.c:4:5>") {
		t.Fatalf("dump:\n%s", out.String())
	}
	p := a.Preprocessor()
	if p == nil || !p.Ended() {
		t.Fatal("preprocessor did not see end of file")
	}
	a.Close()
	a.Close()
	if !a.Closed() || a.Context() != nil || a.Preprocessor() != nil || !p.Released() {
		t.Fatal("session still alive after Close")
	}
	if err := a.Dump(&out); !errors.Is(err, ErrClosed) {
		t.Fatalf("Dump after Close: %v", err)
	}
	// результаты остаются доступны
	if len(a.Diagnostics()) == 0 || a.Tokens() == nil {
		t.Fatal("results dropped by Close")
	}
}

func TestConsumerKeepsParseOrder(t *testing.T) {
	src := "@interface Counter { int value; }\n- (int)get;\n@end\n@implementation Counter\n- (int)get { return value; }\n@end\nint after;\n"
	f := newFixture(t, "/w/main.m", src)
	a := f.build(t, nil, nil, Options{})
	var kinds []ast.DeclKind
	for _, id := range a.LocalTopLevelDecls() {
		kinds = append(kinds, a.Context().Decl(id).Kind)
	}
	want := []ast.DeclKind{ast.DeclObjCContainer, ast.DeclObjCContainer, ast.DeclVar}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("kinds = %v", kinds)
	}
}
