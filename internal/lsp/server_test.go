package lsp

import (
	"strings"
	"sync"
	"testing"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"lantern/internal/config"
	"lantern/internal/diag"
	"lantern/internal/vfs"
)

type recorder struct {
	mu    sync.Mutex
	byURI map[protocol.DocumentUri][]protocol.PublishDiagnosticsParams
}

func (r *recorder) notify(method string, params any) {
	if method != protocol.ServerTextDocumentPublishDiagnostics {
		return
	}
	p := params.(protocol.PublishDiagnosticsParams)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byURI == nil {
		r.byURI = make(map[protocol.DocumentUri][]protocol.PublishDiagnosticsParams)
	}
	r.byURI[p.URI] = append(r.byURI[p.URI], p)
}

// last returns the most recent publish for uri.
func (r *recorder) last(t *testing.T, uri protocol.DocumentUri) []protocol.Diagnostic {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byURI[uri]
	if len(list) == 0 {
		t.Fatalf("nothing published for %s", uri)
	}
	return list[len(list)-1].Diagnostics
}

func (r *recorder) count(uri protocol.DocumentUri) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byURI[uri])
}

func newTestServer(t *testing.T) (*Server, *vfs.MemFS, *recorder) {
	t.Helper()
	fs := vfs.NewMemFS()
	fs.AddFile("/w/a.h", "int a;\n")
	fs.AddFile("/w/bad.h", "int b = ;\n")
	cfg := config.Default("/w")
	cfg.Tidy.Checks = "-*,bugprone-reserved-identifier"
	s := NewServer(ServerOptions{FS: fs, Config: cfg, NoWatch: true})
	rec := &recorder{}
	ctx := &glsp.Context{Notify: rec.notify}
	root := pathToURI("/w")
	if _, err := s.initialize(ctx, &protocol.InitializeParams{RootURI: &root}); err != nil {
		t.Fatal(err)
	}
	if err := s.initialized(ctx, &protocol.InitializedParams{}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.close)
	return s, fs, rec
}

func open(t *testing.T, s *Server, path, text string) protocol.DocumentUri {
	t.Helper()
	uri := pathToURI(path)
	err := s.didOpen(&glsp.Context{}, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "c", Version: 1, Text: text},
	})
	if err != nil {
		t.Fatal(err)
	}
	return uri
}

func TestOpenPublishesDiagnostics(t *testing.T) {
	s, _, rec := newTestServer(t)
	uri := open(t, s, "/w/main.c", "#include \"a.h\"\nint __x = a;\n")
	got := rec.last(t, uri)
	if len(got) != 1 {
		t.Fatalf("diagnostics = %+v", got)
	}
	d := got[0]
	want := protocol.Range{Start: protocol.Position{Line: 1, Character: 4}, End: protocol.Position{Line: 1, Character: 7}}
	if d.Range != want {
		t.Errorf("range = %+v", d.Range)
	}
	if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityWarning {
		t.Errorf("severity = %v", d.Severity)
	}
	if d.Code == nil || d.Code.Value != "bugprone-reserved-identifier" {
		t.Errorf("code = %+v", d.Code)
	}
	if d.Source == nil || *d.Source != diag.OriginTidy.String() {
		t.Errorf("source = %v", d.Source)
	}
}

func TestCodeActionFromAttachedFix(t *testing.T) {
	s, _, _ := newTestServer(t)
	uri := open(t, s, "/w/main.c", "#include \"a.h\"\nint __x = a;\n")
	res, err := s.codeAction(&glsp.Context{}, &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range:        protocol.Range{Start: protocol.Position{Line: 1, Character: 5}, End: protocol.Position{Line: 1, Character: 5}},
	})
	if err != nil {
		t.Fatal(err)
	}
	actions := res.([]protocol.CodeAction)
	if len(actions) != 1 {
		t.Fatalf("actions = %+v", actions)
	}
	a := actions[0]
	if a.Title != "remove leading underscores" || len(a.Diagnostics) != 1 {
		t.Fatalf("action = %+v", a)
	}
	edits := a.Edit.Changes[uri]
	if len(edits) != 1 || edits[0].NewText != "x" || edits[0].Range.Start.Character != 4 {
		t.Fatalf("edits = %+v", edits)
	}

	// вне диапазона ничего
	res, _ = s.codeAction(&glsp.Context{}, &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range:        protocol.Range{Start: protocol.Position{Line: 0, Character: 0}, End: protocol.Position{Line: 0, Character: 3}},
	})
	if actions := res.([]protocol.CodeAction); len(actions) != 0 {
		t.Fatalf("actions outside the range: %+v", actions)
	}
}

func TestIncrementalChange(t *testing.T) {
	s, _, rec := newTestServer(t)
	uri := open(t, s, "/w/main.c", "#include \"a.h\"\nint __x = a;\n")
	err := s.didChange(&glsp.Context{}, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEvent{
			Range: &protocol.Range{Start: protocol.Position{Line: 1, Character: 4}, End: protocol.Position{Line: 1, Character: 7}},
			Text:  "y",
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.last(t, uri); len(got) != 0 {
		t.Fatalf("diagnostics after the fix = %+v", got)
	}
	if text, _ := s.document(uri).snapshot(); text != "#include \"a.h\"\nint y = a;\n" {
		t.Fatalf("text = %q", text)
	}
}

func TestFailedBuildKeepsPreviousResult(t *testing.T) {
	s, _, rec := newTestServer(t)
	uri := open(t, s, "/w/scratch.c", "int __x;\n")
	published := rec.count(uri)
	doc := s.document(uri)

	// файл есть только в overlay: без него сборка невозможна
	s.overlay.Delete(doc.path)
	seq := doc.update("int y;\n", 2)
	s.runBuild(doc, seq)

	if rec.count(uri) != published {
		t.Fatal("failed build published diagnostics")
	}
	diags, text, ok := doc.diagnostics()
	if !ok || len(diags) != 1 || text != "int __x;\n" {
		t.Fatalf("previous result lost: %v %q %v", ok, text, diags)
	}
}

func TestStaleBuildIsDropped(t *testing.T) {
	s, _, rec := newTestServer(t)
	uri := open(t, s, "/w/main.c", "#include \"a.h\"\nint __x = a;\n")
	doc := s.document(uri)
	published := rec.count(uri)

	text, seq := doc.snapshot()
	doc.bump()
	s.runBuild(doc, seq)
	if rec.count(uri) != published {
		t.Fatal("stale build published")
	}

	res := s.driver().Build(s.ctx, doc.path, []byte(text))
	if doc.accept(seq, text, res) {
		t.Fatal("stale result accepted")
	}
	if !res.AST.Closed() {
		t.Fatal("stale result not closed")
	}
}

func TestHeaderChangeRebuildsDependents(t *testing.T) {
	s, fs, rec := newTestServer(t)
	uri := open(t, s, "/w/main.c", "#include \"a.h\"\nint main(void) { return a; }\n")
	if got := rec.last(t, uri); len(got) != 0 {
		t.Fatalf("clean file has diagnostics: %+v", got)
	}
	fs.AddFile("/w/a.h", "int b;\n")
	s.filesChanged([]string{"/w/a.h"})

	got := rec.last(t, uri)
	if len(got) != 1 || got[0].Severity == nil || *got[0].Severity != protocol.DiagnosticSeverityError {
		t.Fatalf("after header change = %+v", got)
	}
	if got[0].Range.Start.Line != 1 {
		t.Fatalf("range = %+v", got[0].Range)
	}
}

func TestHeaderErrorsPointAtInclude(t *testing.T) {
	s, _, rec := newTestServer(t)
	uri := open(t, s, "/w/main.c", "#include \"bad.h\"\nint main(void) { return 0; }\n")
	var found bool
	for _, d := range rec.last(t, uri) {
		if !strings.HasPrefix(d.Message, "in included file: ") {
			continue
		}
		found = true
		if d.Range.Start != (protocol.Position{Line: 0, Character: 9}) || d.Range.End != (protocol.Position{Line: 0, Character: 16}) {
			t.Errorf("range = %+v", d.Range)
		}
	}
	if !found {
		t.Fatalf("header error not reported: %+v", rec.last(t, uri))
	}
}

func TestCloseClearsDiagnostics(t *testing.T) {
	s, _, rec := newTestServer(t)
	uri := open(t, s, "/w/main.c", "int __x;\n")
	doc := s.document(uri)
	if err := s.didClose(&glsp.Context{}, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}); err != nil {
		t.Fatal(err)
	}
	if got := rec.last(t, uri); len(got) != 0 {
		t.Fatalf("diagnostics after close = %+v", got)
	}
	if s.document(uri) != nil {
		t.Fatal("document still open")
	}
	if _, _, ok := doc.diagnostics(); ok {
		t.Fatal("closed document kept its build")
	}
}
