package lsp

import (
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"lantern/internal/diag"
	"lantern/internal/driver"
	"lantern/internal/headers"
)

// scheduleBuild builds doc after the debounce delay. A newer edit
// restarts the delay; with no delay the build runs synchronously.
func (s *Server) scheduleBuild(doc *document) {
	delay := s.opts.Debounce
	if delay == 0 {
		_, seq := doc.snapshot()
		s.runBuild(doc, seq)
		return
	}
	doc.mu.Lock()
	seq := doc.seq
	if doc.timer != nil {
		doc.timer.Stop()
	}
	doc.timer = time.AfterFunc(delay, func() { s.runBuild(doc, seq) })
	doc.mu.Unlock()
}

// runBuild builds doc as of seq and publishes the result. A failed build
// leaves the previous diagnostics in place.
func (s *Server) runBuild(doc *document, seq uint64) {
	drv := s.driver()
	if drv == nil {
		return
	}
	text, current := doc.snapshot()
	if current != seq {
		return
	}
	res := drv.Build(s.ctx, doc.path, []byte(text))
	if res.Fatal() {
		log.Errorf("build of %s failed, keeping previous diagnostics: %s", doc.path, res.Err)
		return
	}
	if !doc.accept(seq, text, res) {
		log.Debugf("dropping stale build of %s", doc.path)
		return
	}
	s.watchIncludes(res)
	list := s.convertDiagnostics(doc.path, text, res)
	doc.setPublished(list)
	s.publish(protocol.PublishDiagnosticsParams{URI: doc.uri, Diagnostics: list})
}

// convertDiagnostics maps diagnostics of a build of path to the protocol.
// Errors inside included files are reported at the main-file include
// that leads to them.
func (s *Server) convertDiagnostics(path, text string, res *driver.Result) []protocol.Diagnostic {
	list := make([]protocol.Diagnostic, 0, len(res.Diagnostics))
	var includes *headers.IncludeStructure
	if res.AST != nil {
		includes = res.AST.IncludeStructure()
	}
	for i := range res.Diagnostics {
		d := &res.Diagnostics[i]
		sev, ok := severityFor(d.Severity)
		if !ok {
			continue
		}
		var (
			rng     protocol.Range
			message = d.Message
		)
		switch {
		case d.Range.Path == path:
			rng = rangeForOffsets(text, d.Range.StartOff, d.Range.EndOff)
		case d.Range.IsZero():
			// ошибки командной строки привязываем к началу файла
		default:
			if d.Severity < diag.SevError {
				continue
			}
			inc, found := includeLeadingTo(includes, d.Range.Path)
			if found {
				rng = rangeForOffsets(text, inc.FilenameStart, inc.FilenameEnd)
			}
			message = "in included file: " + message
		}
		source := d.Origin.String()
		pd := protocol.Diagnostic{
			Range:    rng,
			Severity: &sev,
			Code:     &protocol.IntegerOrString{Value: d.Name()},
			Source:   &source,
			Message:  message,
		}
		for _, n := range d.Notes {
			if n.Range.IsZero() {
				continue
			}
			noteText := text
			if n.Range.Path != path {
				noteText = s.textOf(n.Range.Path)
			}
			pd.RelatedInformation = append(pd.RelatedInformation, protocol.DiagnosticRelatedInformation{
				Location: protocol.Location{
					URI:   pathToURI(n.Range.Path),
					Range: rangeForOffsets(noteText, n.Range.StartOff, n.Range.EndOff),
				},
				Message: n.Msg,
			})
		}
		list = append(list, pd)
	}
	return list
}

// includeLeadingTo finds the main-file include through which path was
// entered.
func includeLeadingTo(includes *headers.IncludeStructure, path string) (headers.Inclusion, bool) {
	if includes == nil {
		return headers.Inclusion{}, false
	}
	for _, inc := range includes.MainFileIncludes {
		if inc.Resolved == "" {
			continue
		}
		if _, ok := includes.IncludeDepth(inc.Resolved)[path]; ok {
			return inc, true
		}
	}
	return headers.Inclusion{}, false
}

func severityFor(s diag.Severity) (protocol.DiagnosticSeverity, bool) {
	switch s {
	case diag.SevError, diag.SevFatal:
		return protocol.DiagnosticSeverityError, true
	case diag.SevWarning:
		return protocol.DiagnosticSeverityWarning, true
	case diag.SevRemark:
		return protocol.DiagnosticSeverityInformation, true
	case diag.SevNote:
		return protocol.DiagnosticSeverityHint, true
	}
	return 0, false
}

// textOf returns the open text of path, or its contents on disk.
func (s *Server) textOf(path string) string {
	s.mu.Lock()
	doc := s.docs[pathToURI(path)]
	drv := s.drv
	s.mu.Unlock()
	if doc != nil {
		text, _ := doc.snapshot()
		return text
	}
	if drv == nil {
		return ""
	}
	data, err := drv.FS().ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// clearDiagnostics publishes an empty list for uri.
func (s *Server) clearDiagnostics(uri protocol.DocumentUri) {
	s.publish(protocol.PublishDiagnosticsParams{URI: uri, Diagnostics: []protocol.Diagnostic{}})
}
