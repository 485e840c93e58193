package diagfmt

import (
	"os"
	"path/filepath"

	"lantern/internal/source"
)

// Reader supplies file contents for source context. vfs.FileSystem
// implementations satisfy it.
type Reader interface {
	ReadFile(name string) ([]byte, error)
}

// sourceCache loads each file at most once per formatting call.
type sourceCache struct {
	r     Reader
	files *source.FileSet
	miss  map[string]bool
}

func newSourceCache(r Reader) *sourceCache {
	return &sourceCache{r: r, files: source.NewFileSet(), miss: make(map[string]bool)}
}

func (c *sourceCache) get(path string) *source.File {
	if c == nil || c.r == nil || path == "" || c.miss[path] {
		return nil
	}
	if f, ok := c.files.GetByPath(path); ok {
		return f
	}
	data, err := c.r.ReadFile(path)
	if err != nil {
		c.miss[path] = true
		return nil
	}
	return c.files.Get(c.files.Add(path, data, 0))
}

// formatPath renders path for display.
func formatPath(path string, mode PathMode, baseDir string) string {
	if path == "" {
		return "<command line>"
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeRelative:
		if baseDir == "" {
			baseDir, _ = os.Getwd()
		}
		if rel, err := filepath.Rel(baseDir, path); err == nil {
			return filepath.ToSlash(rel)
		}
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeAuto:
		if baseDir != "" {
			if rel, err := filepath.Rel(baseDir, path); err == nil && !filepath.IsAbs(rel) && len(rel) < len(path) && rel[0] != '.' {
				return filepath.ToSlash(rel)
			}
		}
	}
	return filepath.ToSlash(path)
}
