// Package index answers "which header declares this name" for the
// missing-include fixer. Indexes are read-only from a build's point of view
// and may return nothing.
package index

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("lantern.index")

// Symbol is one declaration a header provides.
type Symbol struct {
	Name string
	Kind string
	// Header is what to include: a literal spelling ("<stdio.h>",
	// "\"pub.h\"") or the absolute path of the declaring file.
	Header string
	// Path is the file the declaration was found in.
	Path string
	Line uint32
}

// SymbolIndex finds the headers that declare a name.
type SymbolIndex interface {
	FindProviders(ctx context.Context, name string, limit int) ([]Symbol, error)
}

// Sink receives symbols while an index is being built.
type Sink interface {
	Add(syms ...Symbol) error
}

// MemIndex is a map-backed index. It counts the queries it answers.
type MemIndex struct {
	mu      sync.RWMutex
	byName  map[string][]Symbol
	queries atomic.Int64
}

func NewMemIndex(syms ...Symbol) *MemIndex {
	m := &MemIndex{byName: make(map[string][]Symbol)}
	_ = m.Add(syms...)
	return m
}

func (m *MemIndex) Add(syms ...Symbol) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range syms {
		m.byName[s.Name] = append(m.byName[s.Name], s)
	}
	return nil
}

// RemoveFile drops every symbol found in path.
func (m *MemIndex) RemoveFile(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, syms := range m.byName {
		kept := syms[:0]
		for _, s := range syms {
			if s.Path != path {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(m.byName, name)
		} else {
			m.byName[name] = kept
		}
	}
}

func (m *MemIndex) FindProviders(ctx context.Context, name string, limit int) ([]Symbol, error) {
	m.queries.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	syms := m.byName[name]
	if limit > 0 && len(syms) > limit {
		syms = syms[:limit]
	}
	return append([]Symbol(nil), syms...), nil
}

// Queries is the number of FindProviders calls so far.
func (m *MemIndex) Queries() int { return int(m.queries.Load()) }

// Len is the number of symbols held.
func (m *MemIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, syms := range m.byName {
		n += len(syms)
	}
	return n
}

// Names lists the indexed names in order.
func (m *MemIndex) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.byName))
	for name := range m.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
