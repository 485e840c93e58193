package parser

import (
	"reflect"
	"strings"
	"testing"

	"lantern/internal/ast"
	"lantern/internal/diag"
	"lantern/internal/lang"
	"lantern/internal/lexer"
	"lantern/internal/sema"
	"lantern/internal/source"
	"lantern/internal/token"
)

type lexSource struct{ lx *lexer.Lexer }

func (s lexSource) Lex() token.Token { return s.lx.Next() }

type recorder struct {
	msgs []string
}

func (r *recorder) BeginSourceFile() {}
func (r *recorder) EndSourceFile()   {}
func (r *recorder) HandleDiagnostic(level diag.Severity, info *diag.Info) {
	r.msgs = append(r.msgs, level.Label()+": "+info.Message)
}

type groupLog struct {
	ctx    *ast.Context
	groups [][]string
	limit  int
	done   bool
}

func (g *groupLog) HandleTopLevelDecl(group []ast.DeclID) bool {
	var names []string
	for _, id := range group {
		names = append(names, g.ctx.Decl(id).Name)
	}
	g.groups = append(g.groups, names)
	return g.limit == 0 || len(g.groups) < g.limit
}

func (g *groupLog) HandleTranslationUnit(*ast.Context) { g.done = true }

type unresolved struct{ names []string }

func (u *unresolved) NoteUnresolvedName(n sema.UnresolvedName) {
	u.names = append(u.names, n.Name)
}

type result struct {
	ctx    *ast.Context
	log    *groupLog
	diags  []string
	misses []string
}

func parse(t *testing.T, src string, opts lang.Options, limit int) result {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("/w/main.cpp", []byte(src))
	fs.SetMainFile(id)
	eng := diag.NewEngine(fs)
	rec := &recorder{}
	eng.SetClient(rec)
	ctx := ast.NewContext(fs, ast.Hints{})
	sm := sema.New(ctx, eng, opts)
	miss := &unresolved{}
	sm.SetExternalSource(miss)
	log := &groupLog{ctx: ctx, limit: limit}
	New(lexSource{lexer.New(fs.Get(id), lexer.Options{})}, sm, log).ParseTranslationUnit()
	if !log.done {
		t.Fatalf("HandleTranslationUnit not called")
	}
	return result{ctx: ctx, log: log, diags: rec.msgs, misses: miss.names}
}

func findTop(ctx *ast.Context, name string) *ast.Decl {
	for _, id := range ctx.TopLevel() {
		if d := ctx.Decl(id); d.Name == name {
			return d
		}
	}
	return nil
}

func TestTopLevelGroupsInOrder(t *testing.T) {
	r := parse(t, "int a, b;\nstruct P { int x; };\nint f(int y) { return y; }\n", lang.C(), 0)
	want := [][]string{{"a", "b"}, {"P"}, {"f"}}
	if !reflect.DeepEqual(r.log.groups, want) {
		t.Fatalf("groups = %v, want %v", r.log.groups, want)
	}
	if len(r.diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", r.diags)
	}
}

func TestMissingDeclarationsNotifyExternalSource(t *testing.T) {
	r := parse(t, "Foo make(void);\nint f(void) { return helper(1) + z; }\n", lang.C(), 0)
	want := []string{
		"error: unknown type name 'Foo'",
		"error: use of undeclared identifier 'helper'",
		"error: use of undeclared identifier 'z'",
	}
	if !reflect.DeepEqual(r.diags, want) {
		t.Fatalf("diags = %v", r.diags)
	}
	if !reflect.DeepEqual(r.misses, []string{"Foo", "helper", "z"}) {
		t.Fatalf("external source saw %v", r.misses)
	}
}

func TestUnusedLocalsAndLabels(t *testing.T) {
	src := "void f(void) {\n  int unused;\n  int used = 1;\n  used++;\n  goto out;\n}\n"
	r := parse(t, src, lang.C(), 0)
	want := []string{
		"warning: unused variable 'unused'",
		"error: use of undeclared label 'out'",
	}
	if !reflect.DeepEqual(r.diags, want) {
		t.Fatalf("diags = %v", r.diags)
	}
}

func TestRedefinitionHasNote(t *testing.T) {
	r := parse(t, "int x = 1;\nint x = 2;\nextern int y;\nint y;\n", lang.C(), 0)
	if !reflect.DeepEqual(r.diags, []string{"error: redefinition of 'x'"}) {
		t.Fatalf("diags = %v", r.diags)
	}
}

func TestTemplateInstantiationsComeLast(t *testing.T) {
	src := "template <typename T> T id(T v) { return v; }\n" +
		"int main() { return id<int>(1) + id(2) + id(3.0); }\n"
	r := parse(t, src, lang.CXX(17), 0)
	if len(r.diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", r.diags)
	}
	want := [][]string{{"id"}, {"main"}, {"id"}, {"id"}}
	if !reflect.DeepEqual(r.log.groups, want) {
		t.Fatalf("groups = %v", r.log.groups)
	}
	top := r.ctx.TopLevel()
	var args []string
	for _, id := range top {
		d := r.ctx.Decl(id)
		if d.IsTemplateInstantiation() {
			args = append(args, strings.Join(d.TemplateArgs, ","))
			if d.Type == "" || strings.Contains(d.Type, "T") {
				t.Errorf("instantiation type %q not substituted", d.Type)
			}
		}
	}
	if !reflect.DeepEqual(args, []string{"int", "double"}) {
		t.Fatalf("instantiation args = %v", args)
	}
	tmpl := findTop(r.ctx, "id")
	if tmpl == nil || tmpl.Kind != ast.DeclFunctionTemplate {
		t.Fatalf("first id is %+v", tmpl)
	}
}

func TestNestedTemplateArgumentsSplitShift(t *testing.T) {
	src := "template <typename T> struct Box { T v; };\nBox<Box<int>> b;\n"
	r := parse(t, src, lang.CXX(11), 0)
	if len(r.diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", r.diags)
	}
	d := findTop(r.ctx, "b")
	if d == nil || d.Type != "Box<Box < int >>" {
		t.Fatalf("b = %+v", d)
	}
}

func TestObjCImplementationMethodsAreSeparateGroups(t *testing.T) {
	src := "@interface Counter { int value; }\n- (int)get;\n- (void)add:(int)n by:(int)k;\n@end\n" +
		"@implementation Counter\n- (int)get { return value; }\n- (void)add:(int)n by:(int)k { value = value + n * k; }\n@end\n"
	opts := lang.C()
	opts.ObjC = true
	r := parse(t, src, opts, 0)
	if len(r.diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", r.diags)
	}
	want := [][]string{{"Counter"}, {"Counter"}, {"get"}, {"add:by:"}}
	if !reflect.DeepEqual(r.log.groups, want) {
		t.Fatalf("groups = %v", r.log.groups)
	}
}

func TestMissingObjCEnd(t *testing.T) {
	opts := lang.C()
	opts.ObjC = true
	r := parse(t, "@interface A\n- (void)run;\n", opts, 0)
	if !reflect.DeepEqual(r.diags, []string{"error: missing '@end'"}) {
		t.Fatalf("diags = %v", r.diags)
	}
}

func TestConsumerStopsParsing(t *testing.T) {
	r := parse(t, "int a;\nint b;\nint c;\n", lang.C(), 1)
	if len(r.log.groups) != 1 {
		t.Fatalf("groups = %v", r.log.groups)
	}
}

func TestRecoveryAfterSyntaxError(t *testing.T) {
	r := parse(t, "int f(void) { return (1 + ; }\nint g;\n", lang.C(), 0)
	if len(r.diags) == 0 || r.diags[0] != "error: expected expression" {
		t.Fatalf("diags = %v", r.diags)
	}
	last := r.log.groups[len(r.log.groups)-1]
	if !reflect.DeepEqual(last, []string{"g"}) {
		t.Fatalf("groups = %v", r.log.groups)
	}
}

func TestMethodBodiesSeeMembers(t *testing.T) {
	src := "struct S {\n  int n;\n  int get() { return n; }\n  void set(int v);\n};\nvoid S::set(int v) { n = v; this->n = v; }\n"
	r := parse(t, src, lang.CXX(17), 0)
	if len(r.diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", r.diags)
	}
}
