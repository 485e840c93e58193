// Package macros collects the macro names referenced in the main file.
package macros

import (
	"sort"

	"lantern/internal/pp"
	"lantern/internal/source"
	"lantern/internal/token"
)

// Occurrence is one mention of a macro name in the main file, as byte
// offsets into the main file.
type Occurrence struct {
	Name  string
	Start uint32
	End   uint32
}

// MainFileMacros lists macro names defined, undefined or expanded in the
// main file. Each name+range pair is stored once.
type MainFileMacros struct {
	Names  []string
	Ranges []Occurrence

	names map[string]struct{}
	seen  map[Occurrence]struct{}
}

func New() *MainFileMacros {
	return &MainFileMacros{
		names: make(map[string]struct{}),
		seen:  make(map[Occurrence]struct{}),
	}
}

// Add records an occurrence; duplicates are ignored.
func (m *MainFileMacros) Add(o Occurrence) {
	if m.names == nil {
		m.names = make(map[string]struct{})
		m.seen = make(map[Occurrence]struct{})
		for _, n := range m.Names {
			m.names[n] = struct{}{}
		}
		for _, r := range m.Ranges {
			m.seen[r] = struct{}{}
		}
	}
	if _, ok := m.seen[o]; ok {
		return
	}
	m.seen[o] = struct{}{}
	m.Ranges = append(m.Ranges, o)
	if _, ok := m.names[o.Name]; !ok {
		m.names[o.Name] = struct{}{}
		m.Names = append(m.Names, o.Name)
	}
}

// Has reports whether name occurs in the main file.
func (m *MainFileMacros) Has(name string) bool {
	for _, n := range m.Names {
		if n == name {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (m *MainFileMacros) Clone() *MainFileMacros {
	out := New()
	if m == nil {
		return out
	}
	for _, r := range m.Ranges {
		out.Add(r)
	}
	for _, n := range m.Names {
		if _, ok := out.names[n]; !ok {
			out.names[n] = struct{}{}
			out.Names = append(out.Names, n)
		}
	}
	return out
}

// Sorted returns the occurrences ordered by offset.
func (m *MainFileMacros) Sorted() []Occurrence {
	out := append([]Occurrence(nil), m.Ranges...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MemoryUsage approximates the bytes held.
func (m *MainFileMacros) MemoryUsage() uint64 {
	var n uint64
	for _, s := range m.Names {
		n += uint64(len(s)) + 16
	}
	return n + uint64(len(m.Ranges))*32
}

type collector struct {
	pp.EmptyCallbacks
	sources *source.FileSet
	out     *MainFileMacros
}

// CollectMainFileMacros returns a listener adding main-file macro
// occurrences to out.
func CollectMainFileMacros(sources *source.FileSet, out *MainFileMacros) pp.Callbacks {
	return &collector{sources: sources, out: out}
}

func (c *collector) add(tok token.Token) {
	// имена из раскрытий других макросов не в счёт
	if tok.Has(token.FromMacro) || !c.sources.IsInsideMainFile(tok.Span) {
		return
	}
	c.out.Add(Occurrence{Name: tok.Text, Start: tok.Span.Start, End: tok.Span.End})
}

func (c *collector) MacroDefined(tok token.Token, _ *pp.MacroDefinition)   { c.add(tok) }
func (c *collector) MacroUndefined(tok token.Token, _ *pp.MacroDefinition) { c.add(tok) }
func (c *collector) MacroExpands(tok token.Token, _ *pp.MacroDefinition, _ source.Span) {
	c.add(tok)
}
