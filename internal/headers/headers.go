// Package headers records the include structure of a translation unit and
// computes edits that add new includes to the main file.
package headers

import (
	"sort"
	"strings"

	"lantern/internal/pp"
	"lantern/internal/source"
	"lantern/internal/vfs"
)

// Inclusion is one #include written in the main file. Offsets are byte
// offsets into the main file, so an Inclusion recorded while building a
// preamble stays valid in later sessions over the same prefix.
type Inclusion struct {
	// Written is the spelling including quotes or angle brackets.
	Written string
	// Resolved is the absolute path of the included file, "" if not found.
	Resolved string
	// Directive is "include", "import" or "include_next".
	Directive  string
	HashOffset uint32
	// HashLine is the 0-based line of the '#'.
	HashLine      uint32
	FilenameStart uint32
	FilenameEnd   uint32
	FileKind      pp.CharacteristicKind
	Angled        bool
}

// IncludeStructure holds the main-file includes and the include graph of
// every file entered during preprocessing.
type IncludeStructure struct {
	MainFileIncludes []Inclusion
	edges            map[string][]string
}

func NewIncludeStructure() *IncludeStructure {
	return &IncludeStructure{edges: make(map[string][]string)}
}

// Clone returns a deep copy; a snapshot's structure is cloned before a
// build appends to it.
func (s *IncludeStructure) Clone() *IncludeStructure {
	if s == nil {
		return NewIncludeStructure()
	}
	out := &IncludeStructure{
		MainFileIncludes: append([]Inclusion(nil), s.MainFileIncludes...),
		edges:            make(map[string][]string, len(s.edges)),
	}
	for k, v := range s.edges {
		out.edges[k] = append([]string(nil), v...)
	}
	return out
}

// AddEdge records that includer includes included.
func (s *IncludeStructure) AddEdge(includer, included string) {
	if s.edges == nil {
		s.edges = make(map[string][]string)
	}
	for _, e := range s.edges[includer] {
		if e == included {
			return
		}
	}
	s.edges[includer] = append(s.edges[includer], included)
}

// Includes returns the files directly included by path.
func (s *IncludeStructure) Includes(path string) []string {
	return s.edges[path]
}

// IncludeDepth maps every file reachable from root to its shortest
// include distance (root itself is 0).
func (s *IncludeStructure) IncludeDepth(root string) map[string]int {
	depth := map[string]int{root: 0}
	queue := []string{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range s.edges[cur] {
			if _, seen := depth[next]; seen {
				continue
			}
			depth[next] = depth[cur] + 1
			queue = append(queue, next)
		}
	}
	return depth
}

// Files lists every file that appears in the graph, sorted.
func (s *IncludeStructure) Files() []string {
	set := make(map[string]struct{})
	for k, vs := range s.edges {
		set[k] = struct{}{}
		for _, v := range vs {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MemoryUsage approximates the bytes held by the structure.
func (s *IncludeStructure) MemoryUsage() uint64 {
	var n uint64
	for i := range s.MainFileIncludes {
		inc := &s.MainFileIncludes[i]
		n += uint64(len(inc.Written)+len(inc.Resolved)+len(inc.Directive)) + 40
	}
	for k, v := range s.edges {
		n += uint64(len(k))
		for _, e := range v {
			n += uint64(len(e)) + 16
		}
	}
	return n
}

type collector struct {
	pp.EmptyCallbacks
	sources *source.FileSet
	out     *IncludeStructure
}

// CollectIncludeStructure returns a listener that appends main-file
// inclusions and include edges to out.
func CollectIncludeStructure(sources *source.FileSet, out *IncludeStructure) pp.Callbacks {
	return &collector{sources: sources, out: out}
}

func (c *collector) InclusionDirective(d pp.InclusionDirective) {
	resolved := ""
	if d.File != nil {
		resolved = d.File.Name
	}
	if c.sources.IsInsideMainFile(d.Hash.Span) {
		f := c.sources.Get(d.Hash.Span.File)
		c.out.MainFileIncludes = append(c.out.MainFileIncludes, Inclusion{
			Written:       d.FilenameTok.Text,
			Resolved:      resolved,
			Directive:     d.Include.Text,
			HashOffset:    d.Hash.Span.Start,
			HashLine:      f.Position(d.Hash.Span.Start).Line - 1,
			FilenameStart: d.FilenameTok.Span.Start,
			FilenameEnd:   d.FilenameTok.Span.End,
			FileKind:      d.Kind,
			Angled:        d.Angled,
		})
	}
	if resolved != "" {
		c.out.AddEdge(c.includerName(d.Hash.Span.File), resolved)
	}
}

func (c *collector) includerName(id source.FileID) string {
	if f := c.sources.Get(id); f != nil {
		return vfs.Clean(f.Path)
	}
	return c.sources.BufferName(id)
}

// IsLiteralInclude reports whether s is already a quoted or angled spelling.
func IsLiteralInclude(s string) bool {
	return strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") ||
		strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2
}
