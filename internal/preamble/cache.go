package preamble

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"lantern/internal/frontend"
	"lantern/internal/lexer"
	"lantern/internal/vfs"
)

// DefaultCacheSize is the number of files whose snapshots stay in memory.
const DefaultCacheSize = 64

// Cache keeps the latest snapshot per main file, backed by an optional
// disk Store. Snapshots are handed out by pointer; the cache never changes
// one after insertion. Safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, *Snapshot]
	disk    *Store
}

// NewCache creates a cache of the given size over disk (may be nil).
func NewCache(size int, disk *Store) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *Snapshot](size)
	if err != nil {
		// lru.New падает только на size <= 0
		panic(err)
	}
	return &Cache{entries: c, disk: disk}
}

// Get returns the cached snapshot for inv.MainFile if it can be reused for
// content.
func (c *Cache) Get(inv *frontend.Invocation, content []byte, fsys vfs.FileSystem) (*Snapshot, bool) {
	snap, ok := c.entries.Get(vfs.Clean(inv.MainFile))
	if !ok || !snap.CanReuse(content, inv, fsys) {
		return nil, false
	}
	return snap, true
}

// Put publishes snap as the latest for its file.
func (c *Cache) Put(snap *Snapshot) {
	if snap == nil {
		return
	}
	c.entries.Add(snap.Path, snap)
}

// GetOrBuild returns a reusable snapshot from memory or disk, or builds a
// new one and publishes it to both.
func (c *Cache) GetOrBuild(ctx context.Context, inv *frontend.Invocation, content []byte, fsys vfs.FileSystem) (*Snapshot, error) {
	if snap, ok := c.Get(inv, content, fsys); ok {
		return snap, nil
	}
	if c.disk != nil {
		b := lexer.ComputePreambleBounds(content)
		hash := Digest(content[:b.Size], inv)
		snap, ok, err := c.disk.Get(hash, inv)
		if err != nil {
			log.Warningf("preamble store: %s", err)
		}
		if ok && snap.CanReuse(content, inv, fsys) {
			c.Put(snap)
			return snap, nil
		}
	}
	snap, err := Build(ctx, inv, content, fsys)
	if err != nil {
		return nil, err
	}
	c.Put(snap)
	if err := c.disk.Put(snap); err != nil {
		log.Warningf("preamble store: %s", err)
	}
	return snap, nil
}

// Invalidate forgets the snapshot of path.
func (c *Cache) Invalidate(path string) { c.entries.Remove(vfs.Clean(path)) }

// InvalidateDependents forgets every snapshot whose preamble entered the
// file at path and returns the main files affected.
func (c *Cache) InvalidateDependents(path string) []string {
	var out []string
	for _, key := range c.entries.Keys() {
		snap, ok := c.entries.Peek(key)
		if ok && snap.DependsOn(path) {
			c.entries.Remove(key)
			out = append(out, key)
		}
	}
	return out
}

// Len is the number of snapshots held in memory.
func (c *Cache) Len() int { return c.entries.Len() }
