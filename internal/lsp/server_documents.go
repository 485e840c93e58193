package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"lantern/internal/driver"
)

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	item := params.TextDocument
	path := uriToPath(item.URI)
	if path == "" {
		log.Debugf("ignoring non-file document %s", item.URI)
		return nil
	}
	doc := &document{uri: item.URI, path: path}
	doc.update(item.Text, item.Version)
	s.mu.Lock()
	if old := s.docs[item.URI]; old != nil {
		old.release()
	}
	s.docs[item.URI] = doc
	s.mu.Unlock()
	s.overlay.Set(path, []byte(item.Text))
	s.scheduleBuild(doc)
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	doc := s.document(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	text, _ := doc.snapshot()
	text = applyChanges(text, params.ContentChanges)
	doc.update(text, params.TextDocument.Version)
	s.overlay.Set(doc.path, []byte(text))
	s.invalidateDependents(doc.path)
	s.scheduleBuild(doc)
	return nil
}

func (s *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	doc := s.document(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	if params.Text == nil {
		return nil
	}
	if text, _ := doc.snapshot(); text == *params.Text {
		return nil
	}
	doc.replaceText(*params.Text)
	s.overlay.Set(doc.path, []byte(*params.Text))
	s.scheduleBuild(doc)
	return nil
}

func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.mu.Lock()
	doc := s.docs[uri]
	delete(s.docs, uri)
	s.mu.Unlock()
	if doc == nil {
		return nil
	}
	doc.release()
	s.overlay.Delete(doc.path)
	s.invalidateDependents(doc.path)
	s.clearDiagnostics(uri)
	return nil
}

func (s *Server) document(uri protocol.DocumentUri) *document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[uri]
}

// invalidateDependents drops the preambles that entered path and rebuilds
// the open documents they belonged to. path itself is not rebuilt.
func (s *Server) invalidateDependents(path string) {
	drv := s.driver()
	if drv == nil {
		return
	}
	for _, main := range drv.Cache().InvalidateDependents(path) {
		if main == path {
			continue
		}
		if doc := s.document(pathToURI(main)); doc != nil {
			doc.bump()
			s.scheduleBuild(doc)
		}
	}
}

// filesChanged handles header changes seen on disk.
func (s *Server) filesChanged(paths []string) {
	for _, p := range paths {
		log.Debugf("%s changed on disk", p)
		s.invalidateDependents(p)
	}
}

// watchIncludes adds the files a build entered to the watched set.
func (s *Server) watchIncludes(res *driver.Result) {
	s.mu.Lock()
	w := s.watcher
	s.mu.Unlock()
	if w == nil || res.AST == nil {
		return
	}
	var files []string
	for _, f := range res.AST.IncludeStructure().Files() {
		if f != res.Path {
			files = append(files, f)
		}
	}
	w.WatchFiles(files...)
}
