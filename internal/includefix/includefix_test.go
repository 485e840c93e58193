package includefix

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"lantern/internal/diag"
	"lantern/internal/frontend"
	"lantern/internal/headers"
	"lantern/internal/index"
	"lantern/internal/vfs"
)

const haveH = "int known;\n"

// build разбирает /w/main.c с подключённым фиксером
func build(t *testing.T, main string, idx index.SymbolIndex, limit int) ([]diag.Diagnostic, *IncludeFixer) {
	t.Helper()
	fs := vfs.NewMemFS()
	fs.AddFile("/w/main.c", main)
	fs.AddFile("/w/have.h", haveH)
	fs.AddFile("/w/inc/widget.h", "typedef struct widget { int id; } widget;\n")
	inv, idiags := frontend.ParseInvocation([]string{"-I/w/inc", "/w/main.c"})
	if len(idiags) != 0 {
		t.Fatalf("invocation: %+v", idiags)
	}
	store := diag.NewStore()
	ci, err := frontend.Prepare(inv, nil, []byte(main), fs, store)
	if err != nil {
		t.Fatal(err)
	}
	action := frontend.NewSyntaxOnlyAction()
	if err := action.BeginSourceFile(ci); err != nil {
		t.Fatal(err)
	}
	session := frontend.NewSession(ci, action)
	defer session.Close()

	inserter := headers.NewIncludeInserter("/w/main.c", []byte(main), ci.PP.HeaderSearch(), "/w")
	if strings.HasPrefix(main, `#include "have.h"`) {
		inserter.AddExisting(headers.Inclusion{Written: `"have.h"`, Resolved: "/w/have.h"})
	}
	fixer := New(context.Background(), "/w/main.c", inserter, idx, limit)
	ci.Sema.SetExternalSource(fixer.UnresolvedNameRecorder())
	store.SetFixContributor(fixer.Fix)

	if err := action.Execute(); err != nil {
		t.Fatal(err)
	}
	session.EndOfInput()
	return store.Take(nil), fixer
}

func titles(d diag.Diagnostic) []string {
	var out []string
	for _, f := range d.Fixes {
		out = append(out, f.Title)
	}
	return out
}

func TestFixesMissingIncludes(t *testing.T) {
	main := "#include \"have.h\"\nint f(void) {\n  widget w;\n  return count + helper(1) + count + known;\n}\n"
	idx := index.NewMemIndex(
		index.Symbol{Name: "widget", Kind: "typedef", Header: "/w/inc/widget.h", Path: "/w/inc/widget.h"},
		index.Symbol{Name: "count", Kind: "variable", Header: `"count.h"`, Path: "/w/count.h"},
		index.Symbol{Name: "helper", Kind: "function", Header: "/w/have.h", Path: "/w/have.h"},
	)
	all, fixer := build(t, main, idx, 0)
	// остальные диагностики (unused variable 'w') фиксов не получают
	var diags []diag.Diagnostic
	for _, d := range all {
		switch d.Code {
		case diag.SemaUnknownTypeName, diag.SemaUndeclaredIdentifier, diag.SemaUndeclaredFunction:
			diags = append(diags, d)
		default:
			if len(d.Fixes) != 0 {
				t.Errorf("unexpected fix on %s: %v", d.Code.Name(), titles(d))
			}
		}
	}
	if len(diags) != 4 {
		t.Fatalf("diagnostics = %+v", all)
	}
	want := []struct {
		code   diag.Code
		titles []string
	}{
		{diag.SemaUnknownTypeName, []string{`Include "widget.h" for symbol widget`}},
		{diag.SemaUndeclaredIdentifier, []string{`Include "count.h" for symbol count`}},
		// have.h уже подключён
		{diag.SemaUndeclaredFunction, nil},
		{diag.SemaUndeclaredIdentifier, []string{`Include "count.h" for symbol count`}},
	}
	for i, w := range want {
		d := diags[i]
		if d.Code != w.code || fmt.Sprint(titles(d)) != fmt.Sprint(w.titles) {
			t.Errorf("diag %d = %s %v, want %s %v", i, d.Code.Name(), titles(d), w.code.Name(), w.titles)
		}
	}
	edit := diags[0].Fixes[0].Edits[0]
	if edit.NewText != "#include \"widget.h\"\n" || edit.Range.StartOff != 18 || edit.Range.Start.Line != 2 {
		t.Fatalf("edit = %+v", edit)
	}
	// повторное имя берётся из кеша
	if fixer.Requests() != 3 || idx.Queries() != 3 {
		t.Fatalf("requests = %d, queries = %d", fixer.Requests(), idx.Queries())
	}
}

func TestRequestLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("int f(void) {\n  return 0")
	idx := index.NewMemIndex()
	for i := 1; i <= 7; i++ {
		name := fmt.Sprintf("v%d", i)
		fmt.Fprintf(&b, " + %s", name)
		_ = idx.Add(index.Symbol{Name: name, Header: fmt.Sprintf(`"%s.h"`, name), Path: "/w/" + name + ".h"})
	}
	b.WriteString(";\n}\n")

	diags, fixer := build(t, b.String(), idx, DefaultRequestLimit)
	if len(diags) != 7 {
		t.Fatalf("diagnostics = %d", len(diags))
	}
	fixed := 0
	for i, d := range diags {
		if len(d.Fixes) > 0 {
			fixed++
			if i >= DefaultRequestLimit {
				t.Errorf("diag %d fixed past the limit", i)
			}
		}
	}
	if fixed != DefaultRequestLimit || idx.Queries() != DefaultRequestLimit || fixer.Requests() != DefaultRequestLimit {
		t.Fatalf("fixed %d, queries %d, requests %d", fixed, idx.Queries(), fixer.Requests())
	}
}

type failingIndex struct{ calls int }

func (f *failingIndex) FindProviders(context.Context, string, int) ([]index.Symbol, error) {
	f.calls++
	return nil, errors.New("index unavailable")
}

func TestIndexFailureLeavesDiagnostic(t *testing.T) {
	idx := &failingIndex{}
	diags, _ := build(t, "int f(void) { return missing + missing; }\n", idx, 0)
	if len(diags) != 2 {
		t.Fatalf("diagnostics = %+v", diags)
	}
	for _, d := range diags {
		if d.Severity != diag.SevError || len(d.Fixes) != 0 {
			t.Fatalf("diagnostic changed: %+v", d)
		}
	}
	if idx.calls != 1 {
		t.Fatalf("failed lookup repeated %d times", idx.calls)
	}
}

func TestIgnoresOtherDiagnostics(t *testing.T) {
	f := New(context.Background(), "/w/main.c", headers.NewIncludeInserter("/w/main.c", nil, nil, "/w"), index.NewMemIndex(), 0)
	if got := f.Fix(diag.SevError, &diag.Info{Code: diag.PPFileNotFound}); got != nil {
		t.Fatalf("fixes for file-not-found: %+v", got)
	}
	// без записанного имени фиксов нет
	if got := f.Fix(diag.SevError, &diag.Info{Code: diag.SemaUndeclaredIdentifier}); got != nil {
		t.Fatalf("fixes without a recorded name: %+v", got)
	}
	if f.Requests() != 0 {
		t.Fatalf("requests = %d", f.Requests())
	}
}
