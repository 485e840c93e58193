package preamble

import (
	"context"
	"fmt"

	"lantern/internal/canon"
	"lantern/internal/diag"
	"lantern/internal/frontend"
	"lantern/internal/headers"
	"lantern/internal/lexer"
	"lantern/internal/macros"
	"lantern/internal/pp"
	"lantern/internal/source"
	"lantern/internal/trace"
	"lantern/internal/vfs"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("lantern.preamble")

// Build processes the preamble region of content under inv. Only the
// region is handed to the front-end, so declarations after it cannot leak
// into the snapshot. Stats and reads go through a recording wrapper whose
// cache is published with the snapshot.
func Build(ctx context.Context, inv *frontend.Invocation, content []byte, fsys vfs.FileSystem) (*Snapshot, error) {
	_, span := trace.Start(ctx, trace.ScopePhase, "Preamble")
	defer span.End("")

	bounds := lexer.ComputePreambleBounds(content)
	head := content[:bounds.Size]
	stats := vfs.NewStatCache(0)
	store := diag.NewStore()
	ci, err := frontend.Prepare(inv, nil, head, vfs.ProducingFS(fsys, stats, inv.MainFile), store)
	if err != nil {
		return nil, err
	}
	action := frontend.NewSyntaxOnlyAction()
	if err := action.BeginSourceFile(ci); err != nil {
		log.Errorf("BeginSourceFile() failed when building preamble for %s: %s", inv.MainFile, err)
		return nil, err
	}
	session := frontend.NewSession(ci, action)
	defer session.Close()

	includes := headers.NewIncludeStructure()
	mainMacros := macros.New()
	canonical := canon.New()
	canonical.AddSystemHeadersMapping(inv.Lang)
	ci.PP.AddCallbacks(headers.CollectIncludeStructure(ci.Sources, includes))
	ci.PP.AddCallbacks(macros.CollectMainFileMacros(ci.Sources, mainMacros))
	ci.PP.AddCommentHandler(canon.CollectIWYUHeaderMaps(ci.Sources, canonical))

	if err := action.Execute(); err != nil {
		return nil, fmt.Errorf("preamble: %w", err)
	}
	session.EndOfInput()

	snap := &Snapshot{
		Path: ci.Sources.Get(ci.Sources.MainFile()).Path,
		Prefix: &PrecompiledPrefix{
			Bounds:  bounds,
			Macros:  exportMacros(ci.PP.Macros()),
			Symbols: ci.Sema.ExportSymbols(),
			Hash:    Digest(head, inv),
		},
		Includes:      includes,
		Macros:        mainMacros,
		Diags:         store.Take(nil),
		CanonIncludes: canonical,
		StatCache:     stats,
	}
	span.WithExtra("bytes", fmt.Sprint(bounds.Size))
	log.Debugf("built preamble for %s: %d bytes, %d includes, %d macros, %d symbols",
		snap.Path, bounds.Size, len(includes.MainFileIncludes), len(snap.Prefix.Macros), len(snap.Prefix.Symbols))
	return snap, nil
}

// exportMacros copies the user macros live at the end of the preamble.
// Builtin ones are left out: every session defines them again. Definition
// locations belong to the building session and are dropped.
func exportMacros(defs []*pp.MacroDefinition) []*pp.MacroDefinition {
	out := make([]*pp.MacroDefinition, 0, len(defs))
	for _, d := range defs {
		if d.Builtin {
			continue
		}
		c := *d
		c.Span.File = source.NoFile
		c.Body = append(c.Body[:0:0], d.Body...)
		for i := range c.Body {
			c.Body[i].Span.File = source.NoFile
		}
		out = append(out, &c)
	}
	return out
}
