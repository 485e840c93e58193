package diag

import (
	"testing"

	"lantern/internal/source"
)

type recordingConsumer struct {
	levels []Severity
	msgs   []string
}

func (r *recordingConsumer) BeginSourceFile() {}
func (r *recordingConsumer) EndSourceFile()   {}
func (r *recordingConsumer) HandleDiagnostic(level Severity, info *Info) {
	r.levels = append(r.levels, level)
	r.msgs = append(r.msgs, info.Message)
}

func TestEngineFormatsAndCounts(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("/w/a.c", []byte("int x = y;\n"))
	e := NewEngine(fs)
	rec := &recordingConsumer{}
	e.SetClient(rec)

	e.Report(SemaUndeclaredIdentifier, source.Span{File: id, Start: 8, End: 9}, "y").Emit()
	e.Report(SemaUnusedVariable, source.Span{File: id, Start: 4, End: 5}, "x").Emit()

	if e.NumErrors() != 1 || e.NumWarnings() != 1 {
		t.Fatalf("counts = %d errors, %d warnings", e.NumErrors(), e.NumWarnings())
	}
	if rec.msgs[0] != "use of undeclared identifier 'y'" {
		t.Fatalf("message = %q", rec.msgs[0])
	}
	if rec.levels[1] != SevWarning {
		t.Fatalf("level = %v", rec.levels[1])
	}
}

func TestEngineCustomCodes(t *testing.T) {
	e := NewEngine(nil)
	a := e.CustomCode(SevWarning, "name '%s' is short")
	b := e.CustomCode(SevWarning, "name '%s' is short")
	c := e.CustomCode(SevError, "name '%s' is short")
	if a != b || a == c {
		t.Fatalf("custom codes = %d %d %d", a, b, c)
	}
	if !a.IsCustom() || e.DefaultSeverity(c) != SevError {
		t.Fatal("custom code metadata mismatch")
	}
}

func TestEngineStopsAfterFatal(t *testing.T) {
	e := NewEngine(nil)
	rec := &recordingConsumer{}
	e.SetClient(rec)
	e.Report(PPIncludeTooDeep, source.Span{}).Emit()
	e.Report(SemaUndeclaredIdentifier, source.Span{}, "x").Emit()
	if len(rec.levels) != 1 || !e.HasFatalErrorOccurred() {
		t.Fatalf("got %d diagnostics after fatal", len(rec.levels))
	}
}

func TestEmitOnce(t *testing.T) {
	e := NewEngine(nil)
	rec := &recordingConsumer{}
	e.SetClient(rec)
	b := e.Report(SemaRedefinition, source.Span{}, "f")
	b.Emit()
	b.Emit()
	if len(rec.levels) != 1 {
		t.Fatalf("emitted %d times", len(rec.levels))
	}
}
