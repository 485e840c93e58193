// Package canon maps implementation headers and well-known symbols to the
// header a user is expected to include.
package canon

import (
	"strings"

	"lantern/internal/lang"
	"lantern/internal/pp"
	"lantern/internal/source"
	"lantern/internal/vfs"
)

// maxSuffixComponents bounds the number of trailing path components tried
// against suffix mappings.
const maxSuffixComponents = 3

// CanonicalIncludes holds header remappings. A value is safe for concurrent
// reads once building is done; snapshots share one by pointer and sessions
// Clone before adding to it.
type CanonicalIncludes struct {
	fullPath map[string]string
	suffix   map[string]string
	symbols  map[string]string
	stdlib   bool
}

func New() *CanonicalIncludes {
	return &CanonicalIncludes{
		fullPath: make(map[string]string),
		suffix:   make(map[string]string),
		symbols:  make(map[string]string),
	}
}

// AddMapping maps the header at path to canonical ("<x.h>" or "\"x.h\"").
func (c *CanonicalIncludes) AddMapping(path, canonical string) {
	c.fullPath[vfs.Clean(path)] = canonical
}

// AddSuffixMapping maps every header whose path ends in suffix.
func (c *CanonicalIncludes) AddSuffixMapping(suffix, canonical string) {
	c.suffix[strings.Trim(suffix, "/")] = canonical
}

// AddSymbolMapping maps a qualified symbol name to a header.
func (c *CanonicalIncludes) AddSymbolMapping(name, canonical string) {
	c.symbols[name] = canonical
}

// MapHeader returns the header to include for a symbol named qualifiedName
// declared in path. Symbol mappings win over path mappings; the declaring
// path is returned unchanged when nothing matches.
func (c *CanonicalIncludes) MapHeader(path, qualifiedName string) string {
	if qualifiedName != "" {
		if h, ok := c.symbols[qualifiedName]; ok {
			return h
		}
	}
	path = vfs.Clean(path)
	if h, ok := c.fullPath[path]; ok {
		return h
	}
	parts := strings.Split(path, "/")
	for n := 1; n <= maxSuffixComponents && n <= len(parts); n++ {
		suffix := strings.Join(parts[len(parts)-n:], "/")
		if h, ok := c.suffix[suffix]; ok {
			return h
		}
	}
	return path
}

// Clone returns an independent copy.
func (c *CanonicalIncludes) Clone() *CanonicalIncludes {
	out := New()
	if c == nil {
		return out
	}
	for k, v := range c.fullPath {
		out.fullPath[k] = v
	}
	for k, v := range c.suffix {
		out.suffix[k] = v
	}
	for k, v := range c.symbols {
		out.symbols[k] = v
	}
	out.stdlib = c.stdlib
	return out
}

// PathMappings returns a copy of the full-path mappings, the ones collected
// from IWYU pragmas.
func (c *CanonicalIncludes) PathMappings() map[string]string {
	out := make(map[string]string, len(c.fullPath))
	for k, v := range c.fullPath {
		out[k] = v
	}
	return out
}

// Len returns the number of mappings of all kinds.
func (c *CanonicalIncludes) Len() int {
	return len(c.fullPath) + len(c.suffix) + len(c.symbols)
}

// MemoryUsage approximates the bytes held by the tables.
func (c *CanonicalIncludes) MemoryUsage() uint64 {
	var n uint64
	for _, m := range []map[string]string{c.fullPath, c.suffix, c.symbols} {
		for k, v := range m {
			n += uint64(len(k)+len(v)) + 32
		}
	}
	return n
}

// AddSystemHeadersMapping installs the standard library mappings for opts.
// Calling it again is a no-op.
func (c *CanonicalIncludes) AddSystemHeadersMapping(opts lang.Options) {
	if c.stdlib {
		return
	}
	c.stdlib = true
	for suffix, h := range cSuffixes {
		c.AddSuffixMapping(suffix, h)
	}
	for sym, h := range cSymbols {
		c.AddSymbolMapping(sym, h)
	}
	if !opts.CPlusPlus {
		return
	}
	for sym, h := range cxxSymbols {
		c.AddSymbolMapping(sym, h)
	}
	for suffix, h := range cxxSuffixes {
		c.AddSuffixMapping(suffix, h)
	}
}

type iwyuHandler struct {
	sources *source.FileSet
	out     *CanonicalIncludes
}

const iwyuPrivate = "IWYU pragma: private, include "

// CollectIWYUHeaderMaps returns a comment handler that turns
// `// IWYU pragma: private, include "public.h"` into a mapping from the
// commented header to the public one.
func CollectIWYUHeaderMaps(sources *source.FileSet, out *CanonicalIncludes) pp.CommentHandler {
	return &iwyuHandler{sources: sources, out: out}
}

func (h *iwyuHandler) HandleComment(span source.Span, text string) {
	body := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(text, "//"), "/*"))
	body = strings.TrimSpace(strings.TrimSuffix(body, "*/"))
	if !strings.HasPrefix(body, iwyuPrivate) {
		return
	}
	target := strings.TrimSpace(body[len(iwyuPrivate):])
	if i := strings.IndexAny(target, " \t"); i >= 0 {
		target = target[:i]
	}
	if len(target) < 3 {
		return
	}
	// без кавычек считаем include "x"
	if target[0] != '<' && target[0] != '"' {
		target = `"` + target + `"`
	}
	f := h.sources.Get(span.File)
	if f == nil || h.sources.IsBuiltin(span.File) {
		return
	}
	h.out.AddMapping(f.Path, target)
}
