// Package includefix attaches "add the missing #include" fixes to
// diagnostics about undeclared names, using a symbol index to find the
// header that provides the name.
package includefix

import (
	"context"
	"fmt"

	"github.com/tliron/commonlog"

	"lantern/internal/diag"
	"lantern/internal/headers"
	"lantern/internal/index"
	"lantern/internal/sema"
)

var log = commonlog.GetLogger("lantern.includefix")

// DefaultRequestLimit bounds the index queries of one build.
const DefaultRequestLimit = 5

// providersPerName is how many index results one name is looked up with.
const providersPerName = 3

// IncludeFixer serves one build. It is not safe for concurrent use.
type IncludeFixer struct {
	ctx      context.Context
	file     string
	inserter *headers.IncludeInserter
	index    index.SymbolIndex
	limit    int

	requests   int
	cache      map[string][]index.Symbol
	unresolved *sema.UnresolvedName
}

// New creates a fixer for file. limit <= 0 selects DefaultRequestLimit.
func New(ctx context.Context, file string, inserter *headers.IncludeInserter, idx index.SymbolIndex, limit int) *IncludeFixer {
	if limit <= 0 {
		limit = DefaultRequestLimit
	}
	return &IncludeFixer{
		ctx:      ctx,
		file:     file,
		inserter: inserter,
		index:    idx,
		limit:    limit,
		cache:    make(map[string][]index.Symbol),
	}
}

// Requests is the number of index queries made so far.
func (f *IncludeFixer) Requests() int { return f.requests }

type recorder struct{ f *IncludeFixer }

func (r recorder) NoteUnresolvedName(n sema.UnresolvedName) {
	r.f.unresolved = &n
}

// UnresolvedNameRecorder returns the sema external source that tells the
// fixer which name the next diagnostic is about.
func (f *IncludeFixer) UnresolvedNameRecorder() sema.ExternalSource {
	return recorder{f: f}
}

// Fix returns the include fixes for a diagnostic, or nil. Diagnostics
// outside the missing-declaration class, names the index does not know and
// lookups past the request budget all get nil.
func (f *IncludeFixer) Fix(level diag.Severity, info *diag.Info) []diag.Fix {
	if level < diag.SevError {
		return nil
	}
	switch info.Code {
	case diag.SemaUndeclaredIdentifier, diag.SemaUndeclaredFunction, diag.SemaUnknownTypeName:
	default:
		return nil
	}
	n := f.unresolved
	if n == nil || n.Span.File != info.Span.File || n.Span.Start != info.Span.Start {
		return nil
	}
	syms, ok := f.lookup(n.Name)
	if !ok {
		return nil
	}
	return f.fixesFor(n.Name, syms)
}

// lookup serves repeated names from the per-build cache; only cache misses
// count against the budget.
func (f *IncludeFixer) lookup(name string) ([]index.Symbol, bool) {
	if syms, ok := f.cache[name]; ok {
		return syms, true
	}
	if f.requests >= f.limit {
		log.Debugf("index request limit reached in %s, not looking up %s", f.file, name)
		return nil, false
	}
	f.requests++
	syms, err := f.index.FindProviders(f.ctx, name, providersPerName)
	if err != nil {
		log.Debugf("index lookup of %s failed: %s", name, err)
		syms = nil
	}
	f.cache[name] = syms
	return syms, true
}

func (f *IncludeFixer) fixesFor(name string, syms []index.Symbol) []diag.Fix {
	var fixes []diag.Fix
	seen := make(map[string]bool)
	for _, s := range syms {
		spelled, ok := f.inserter.CalculateIncludePath(s.Header)
		if !ok || seen[spelled] {
			continue
		}
		seen[spelled] = true
		if !f.inserter.ShouldInsertInclude(s.Path, spelled) {
			continue
		}
		fixes = append(fixes, diag.Fix{
			Title: fmt.Sprintf("Include %s for symbol %s", spelled, name),
			Edits: []diag.FixEdit{f.inserter.Insert(spelled)},
		})
	}
	return fixes
}
