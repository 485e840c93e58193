// Package vfs is the filesystem layer a build reads through: a small
// interface with disk, in-memory and overlay implementations, a per-session
// FileManager and the stat cache shared through preamble snapshots.
package vfs

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotExist is returned for missing files by every implementation.
var ErrNotExist = fs.ErrNotExist

// Status is what Stat reports about a path.
type Status struct {
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// FileSystem is the view of the world a build reads through.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	Stat(name string) (Status, error)
	Getwd() (string, error)
	Chdir(dir string) error
}

// Clean normalizes a path the way every implementation keys it.
func Clean(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// OSFS reads the real disk. Its working directory is private to the value,
// so concurrent builds never race on the process cwd.
type OSFS struct {
	mu  sync.RWMutex
	cwd string
}

func NewOSFS() *OSFS {
	wd, _ := os.Getwd()
	return &OSFS{cwd: wd}
}

func (o *OSFS) abs(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return filepath.Join(o.cwd, name)
}

func (o *OSFS) ReadFile(name string) ([]byte, error) {
	// #nosec G304 -- paths come from the compile command and include search
	return os.ReadFile(o.abs(name))
}

func (o *OSFS) Stat(name string) (Status, error) {
	fi, err := os.Stat(o.abs(name))
	if err != nil {
		return Status{}, err
	}
	return Status{Name: Clean(o.abs(name)), Size: fi.Size(), ModTime: fi.ModTime(), IsDir: fi.IsDir()}, nil
}

func (o *OSFS) Getwd() (string, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.cwd == "" {
		return "", errors.New("vfs: working directory unknown")
	}
	return o.cwd, nil
}

func (o *OSFS) Chdir(dir string) error {
	target := o.abs(dir)
	fi, err := os.Stat(target)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return &fs.PathError{Op: "chdir", Path: dir, Err: errors.New("not a directory")}
	}
	o.mu.Lock()
	o.cwd = target
	o.mu.Unlock()
	return nil
}

// MemFS keeps files in memory. Directories exist implicitly for every
// parent of a file.
type MemFS struct {
	mu    sync.RWMutex
	files map[string]memFile
	cwd   string
	reads int
}

type memFile struct {
	data    []byte
	modTime time.Time
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string]memFile), cwd: "/"}
}

// AddFile stores content under an absolute path.
func (m *MemFS) AddFile(name string, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[Clean(name)] = memFile{data: []byte(content), modTime: time.Now()}
}

// Remove deletes a file.
func (m *MemFS) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, Clean(name))
}

// Reads is the number of successful ReadFile calls (tests use it to verify caching).
func (m *MemFS) Reads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads
}

// Paths lists stored files in order.
func (m *MemFS) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (m *MemFS) abs(name string) string {
	if path.IsAbs(filepath.ToSlash(name)) {
		return Clean(name)
	}
	return Clean(path.Join(m.cwd, filepath.ToSlash(name)))
}

func (m *MemFS) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[m.abs(name)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrNotExist}
	}
	m.reads++
	return f.data, nil
}

func (m *MemFS) Stat(name string) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := m.abs(name)
	if f, ok := m.files[p]; ok {
		return Status{Name: p, Size: int64(len(f.data)), ModTime: f.modTime}, nil
	}
	if m.isDir(p) {
		return Status{Name: p, IsDir: true}, nil
	}
	return Status{}, &fs.PathError{Op: "stat", Path: name, Err: ErrNotExist}
}

func (m *MemFS) isDir(p string) bool {
	if p == "/" {
		return true
	}
	prefix := strings.TrimSuffix(p, "/") + "/"
	for f := range m.files {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	return false
}

func (m *MemFS) Getwd() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cwd, nil
}

func (m *MemFS) Chdir(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.abs(dir)
	if !m.isDir(p) {
		return &fs.PathError{Op: "chdir", Path: dir, Err: ErrNotExist}
	}
	m.cwd = p
	return nil
}

// OverlayFS serves open editor buffers on top of another FileSystem.
type OverlayFS struct {
	base     FileSystem
	mu       sync.RWMutex
	overlays map[string][]byte
}

func NewOverlayFS(base FileSystem) *OverlayFS {
	return &OverlayFS{base: base, overlays: make(map[string][]byte)}
}

// Set replaces the content visible for name.
func (o *OverlayFS) Set(name string, content []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.overlays[Clean(name)] = content
}

// Delete drops an overlay; the base file becomes visible again.
func (o *OverlayFS) Delete(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.overlays, Clean(name))
}

func (o *OverlayFS) ReadFile(name string) ([]byte, error) {
	o.mu.RLock()
	data, ok := o.overlays[Clean(name)]
	o.mu.RUnlock()
	if ok {
		return data, nil
	}
	return o.base.ReadFile(name)
}

func (o *OverlayFS) Stat(name string) (Status, error) {
	o.mu.RLock()
	data, ok := o.overlays[Clean(name)]
	o.mu.RUnlock()
	if ok {
		return Status{Name: Clean(name), Size: int64(len(data))}, nil
	}
	return o.base.Stat(name)
}

func (o *OverlayFS) Getwd() (string, error) { return o.base.Getwd() }
func (o *OverlayFS) Chdir(dir string) error { return o.base.Chdir(dir) }
