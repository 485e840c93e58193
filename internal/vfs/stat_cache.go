package vfs

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultStatCacheSize bounds the number of remembered stat results.
const DefaultStatCacheSize = 4096

// StatCache remembers stat results seen while building a preamble. The
// producing wrapper fills it; after the snapshot is published it is only
// read, through ConsumingFS, which never changes entries or their recency.
type StatCache struct {
	entries *lru.Cache[string, Status]
}

func NewStatCache(size int) *StatCache {
	if size <= 0 {
		size = DefaultStatCacheSize
	}
	c, err := lru.New[string, Status](size)
	if err != nil {
		// lru.New падает только на size <= 0
		panic(err)
	}
	return &StatCache{entries: c}
}

// Len is the number of cached entries.
func (c *StatCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Lookup reads an entry without touching recency.
func (c *StatCache) Lookup(name string) (Status, bool) {
	if c == nil {
		return Status{}, false
	}
	return c.entries.Peek(Clean(name))
}

func (c *StatCache) record(name string, st Status) {
	c.entries.Add(Clean(name), st)
}

// Restore adds an entry loaded from disk. Only for caches that are not
// published yet.
func (c *StatCache) Restore(st Status) { c.record(st.Name, st) }

// Keys lists cached paths, oldest first.
func (c *StatCache) Keys() []string {
	if c == nil {
		return nil
	}
	return c.entries.Keys()
}

type producingFS struct {
	FileSystem
	cache *StatCache
	main  string
}

// ProducingFS wraps base so that successful stats and reads are recorded in
// cache. mainFile is never recorded: its status must be checked on every
// build.
func ProducingFS(base FileSystem, cache *StatCache, mainFile string) FileSystem {
	p := &producingFS{FileSystem: base, cache: cache}
	if mainFile != "" {
		p.main = Clean(mainFile)
	}
	return p
}

func (p *producingFS) skip(name string) bool {
	return p.main != "" && Clean(name) == p.main
}

func (p *producingFS) Stat(name string) (Status, error) {
	st, err := p.FileSystem.Stat(name)
	if err == nil && !p.skip(name) {
		p.cache.record(name, st)
	}
	return st, err
}

func (p *producingFS) ReadFile(name string) ([]byte, error) {
	data, err := p.FileSystem.ReadFile(name)
	if err == nil && !p.skip(name) {
		if _, ok := p.cache.Lookup(name); !ok {
			p.cache.record(name, Status{Name: Clean(name), Size: int64(len(data))})
		}
	}
	return data, err
}

type consumingFS struct {
	FileSystem
	cache *StatCache
}

// ConsumingFS answers Stat from cache when possible. Create one per build;
// the cache itself is never written through it.
func ConsumingFS(base FileSystem, cache *StatCache) FileSystem {
	if cache == nil {
		return base
	}
	return &consumingFS{FileSystem: base, cache: cache}
}

func (c *consumingFS) Stat(name string) (Status, error) {
	if st, ok := c.cache.Lookup(name); ok {
		return st, nil
	}
	return c.FileSystem.Stat(name)
}
