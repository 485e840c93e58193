package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"lantern/internal/diag"
)

// codeAction offers the fixes attached to diagnostics of the latest good
// build that overlap the requested range.
func (s *Server) codeAction(ctx *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	doc := s.document(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	diags, text, ok := doc.diagnostics()
	if !ok {
		return nil, nil
	}
	published := doc.currentPublished()
	kind := protocol.CodeActionKindQuickFix
	var actions []protocol.CodeAction
	for i := range diags {
		d := &diags[i]
		if len(d.Fixes) == 0 || d.Range.Path != doc.path {
			continue
		}
		rng := rangeForOffsets(text, d.Range.StartOff, d.Range.EndOff)
		if !rangesOverlap(rng, params.Range) {
			continue
		}
		related := matchPublished(published, rng, d.Message)
		for _, fix := range d.Fixes {
			edit := s.workspaceEdit(doc.path, text, fix)
			if edit == nil {
				continue
			}
			preferred := len(d.Fixes) == 1
			actions = append(actions, protocol.CodeAction{
				Title:       fix.Title,
				Kind:        &kind,
				Diagnostics: related,
				IsPreferred: &preferred,
				Edit:        edit,
			})
		}
	}
	return actions, nil
}

// workspaceEdit converts a fix; edits of mainPath use text, the latest
// built contents.
func (s *Server) workspaceEdit(mainPath, text string, fix diag.Fix) *protocol.WorkspaceEdit {
	changes := make(map[protocol.DocumentUri][]protocol.TextEdit)
	for _, e := range fix.Edits {
		if e.Range.IsZero() {
			continue
		}
		fileText := text
		if e.Range.Path != mainPath {
			fileText = s.textOf(e.Range.Path)
		}
		uri := pathToURI(e.Range.Path)
		changes[uri] = append(changes[uri], protocol.TextEdit{
			Range:   rangeForOffsets(fileText, e.Range.StartOff, e.Range.EndOff),
			NewText: e.NewText,
		})
	}
	if len(changes) == 0 {
		return nil
	}
	return &protocol.WorkspaceEdit{Changes: changes}
}

func matchPublished(published []protocol.Diagnostic, rng protocol.Range, message string) []protocol.Diagnostic {
	for _, p := range published {
		if p.Range == rng && p.Message == message {
			return []protocol.Diagnostic{p}
		}
	}
	return nil
}
