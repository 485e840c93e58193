package sema

import (
	"reflect"
	"testing"

	"lantern/internal/ast"
	"lantern/internal/diag"
	"lantern/internal/lang"
	"lantern/internal/source"
)

type recorder struct{ msgs []string }

func (r *recorder) BeginSourceFile() {}
func (r *recorder) EndSourceFile()   {}
func (r *recorder) HandleDiagnostic(level diag.Severity, info *diag.Info) {
	r.msgs = append(r.msgs, level.Label()+": "+info.Message)
}

func newSema(opts lang.Options) (*Sema, *recorder) {
	fs := source.NewFileSet()
	eng := diag.NewEngine(fs)
	rec := &recorder{}
	eng.SetClient(rec)
	return New(ast.NewContext(fs, ast.Hints{}), eng, opts), rec
}

func TestExportImportRoundTrip(t *testing.T) {
	sm, _ := newSema(lang.CXX(17))
	ctx := sm.Context()
	sm.Declare(ctx.Decls.New(ast.Decl{Kind: ast.DeclTypedef, Name: "size_t", Type: "unsigned long", IsDefinition: true}))
	sm.Declare(ctx.Decls.New(ast.Decl{Kind: ast.DeclFunction, Name: "puts", Type: "int (const char *)"}))
	sm.Declare(ctx.Decls.New(ast.Decl{Kind: ast.DeclFunctionTemplate, Name: "max", TemplateParams: []string{"T"}, IsDefinition: true}))

	syms := sm.ExportSymbols()
	var names []string
	for _, s := range syms {
		names = append(names, s.Name)
	}
	// __builtin_va_list неявный и не экспортируется
	if !reflect.DeepEqual(names, []string{"size_t", "puts", "max"}) {
		t.Fatalf("exported %v", names)
	}

	next, _ := newSema(lang.CXX(17))
	next.ImportSymbols(syms)
	if !next.IsTypeName("size_t") || !next.IsTemplateName("max") || !next.IsKnown("puts") {
		t.Fatalf("imported symbols not visible")
	}
	if next.LookupDecl("puts").IsValid() {
		t.Fatalf("imported names have no declaration")
	}
	if s, ok := next.LookupSymbol("puts"); !ok || s.Type != "int (const char *)" {
		t.Fatalf("LookupSymbol = %+v, %v", s, ok)
	}
}

func TestTemplateStandInForImportedTemplate(t *testing.T) {
	sm, _ := newSema(lang.CXX(17))
	sm.ImportSymbols([]Symbol{{Name: "max", Kind: ast.DeclFunctionTemplate, Type: "T (T, T)", IsTemplate: true, TemplateParams: []string{"T"}}})
	tmpl := sm.TemplateDecl("max")
	if !tmpl.IsValid() || sm.TemplateDecl("max") != tmpl {
		t.Fatalf("stand-in not created once: %v", tmpl)
	}
	inst := sm.InstantiateFunctionTemplate(tmpl, []string{"int"}, source.Span{})
	d := sm.Context().Decl(inst)
	if d == nil || !d.IsTemplateInstantiation() || d.Type != "int (int, int)" {
		t.Fatalf("instantiation = %+v", d)
	}
	if again := sm.InstantiateFunctionTemplate(tmpl, []string{"int"}, source.Span{}); again != inst {
		t.Fatalf("instantiation not reused")
	}
	if got := sm.TakePendingInstantiations(); len(got) != 1 || got[0] != inst {
		t.Fatalf("pending = %v", got)
	}
	if got := sm.TakePendingInstantiations(); len(got) != 0 {
		t.Fatalf("pending not cleared: %v", got)
	}
}

func TestNoInstantiationInsideTemplate(t *testing.T) {
	sm, _ := newSema(lang.CXX(17))
	ctx := sm.Context()
	tmpl := ctx.Decls.New(ast.Decl{Kind: ast.DeclFunctionTemplate, Name: "f", TemplateParams: []string{"T"}})
	sm.Declare(tmpl)
	sm.EnterTemplate([]string{"U"})
	if sm.InstantiateFunctionTemplate(tmpl, []string{"U"}, source.Span{}).IsValid() {
		t.Fatalf("dependent instantiation created")
	}
	sm.ExitTemplate()
	if sm.InTemplate() {
		t.Fatalf("still in template")
	}
}

func TestUndeclaredNameGoesToExternalSourceFirst(t *testing.T) {
	sm, rec := newSema(lang.C())
	var seen []UnresolvedName
	sm.SetExternalSource(externalFunc(func(n UnresolvedName) {
		seen = append(seen, n)
		if len(rec.msgs) != 0 {
			t.Errorf("diagnostic emitted before external source ran")
		}
	}))
	if _, ok := sm.ResolveName("printf", source.Span{}, true); ok {
		t.Fatalf("printf resolved")
	}
	if len(seen) != 1 || !seen[0].Call || seen[0].Name != "printf" {
		t.Fatalf("external saw %+v", seen)
	}
	if _, ok := sm.ResolveName("__builtin_expect", source.Span{}, true); !ok {
		t.Fatalf("builtins resolve")
	}
}

type externalFunc func(UnresolvedName)

func (f externalFunc) NoteUnresolvedName(n UnresolvedName) { f(n) }

func TestUnusedVariableOnlyInFunctions(t *testing.T) {
	sm, rec := newSema(lang.C())
	ctx := sm.Context()
	sm.Declare(ctx.Decls.New(ast.Decl{Kind: ast.DeclVar, Name: "global"}))
	sm.PushFunctionScope()
	sm.Declare(ctx.Decls.New(ast.Decl{Kind: ast.DeclVar, Name: "tmp"}))
	sm.Declare(ctx.Decls.New(ast.Decl{Kind: ast.DeclVar, Name: "kept"}))
	sm.ResolveName("kept", source.Span{}, false)
	sm.PopScope()
	sm.ActOnEndOfTranslationUnit()
	if !reflect.DeepEqual(rec.msgs, []string{"warning: unused variable 'tmp'"}) {
		t.Fatalf("diags = %v", rec.msgs)
	}
}

func TestObjCImplicitTypes(t *testing.T) {
	opts := lang.C()
	opts.ObjC = true
	sm, _ := newSema(opts)
	for _, name := range []string{"id", "SEL", "BOOL"} {
		if !sm.IsTypeName(name) {
			t.Errorf("%s is not a type", name)
		}
	}
	if _, ok := sm.ResolveName("nil", source.Span{}, false); !ok {
		t.Errorf("nil unresolved")
	}
}
