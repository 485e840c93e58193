package vfs

import (
	"path/filepath"
	"unsafe"
)

// FileEntry is a file the session has looked up.
type FileEntry struct {
	Name string // нормализованный абсолютный путь
	Size int64
	Dir  string
}

// FileManager caches lookups for one session. Not safe for concurrent use:
// every build owns its own.
type FileManager struct {
	fs       FileSystem
	entries  map[string]*FileEntry
	missing  map[string]struct{}
	contents map[string][]byte
}

func NewFileManager(fs FileSystem) *FileManager {
	return &FileManager{
		fs:       fs,
		entries:  make(map[string]*FileEntry),
		missing:  make(map[string]struct{}),
		contents: make(map[string][]byte),
	}
}

// FileSystem returns the underlying filesystem.
func (m *FileManager) FileSystem() FileSystem { return m.fs }

// GetFile resolves name to an entry. Directories and missing files fail.
func (m *FileManager) GetFile(name string) (*FileEntry, error) {
	key := m.key(name)
	if e, ok := m.entries[key]; ok {
		return e, nil
	}
	if _, ok := m.missing[key]; ok {
		return nil, ErrNotExist
	}
	st, err := m.fs.Stat(key)
	if err != nil || st.IsDir {
		m.missing[key] = struct{}{}
		if err == nil {
			err = ErrNotExist
		}
		return nil, err
	}
	e := &FileEntry{Name: key, Size: st.Size, Dir: filepath.ToSlash(filepath.Dir(key))}
	m.entries[key] = e
	return e, nil
}

// GetBuffer returns the content of an entry, reading it at most once.
func (m *FileManager) GetBuffer(e *FileEntry) ([]byte, error) {
	if data, ok := m.contents[e.Name]; ok {
		return data, nil
	}
	data, err := m.fs.ReadFile(e.Name)
	if err != nil {
		return nil, err
	}
	m.contents[e.Name] = data
	return data, nil
}

func (m *FileManager) key(name string) string {
	if !filepath.IsAbs(name) {
		if wd, err := m.fs.Getwd(); err == nil {
			name = filepath.Join(wd, name)
		}
	}
	return Clean(name)
}

// MemoryUsage approximates the bytes held by the manager's tables.
func (m *FileManager) MemoryUsage() uint64 {
	var total uint64
	for k := range m.entries {
		total += uint64(len(k)) + uint64(unsafe.Sizeof(FileEntry{}))
	}
	for k := range m.missing {
		total += uint64(len(k))
	}
	// содержимое уже учтено в source.FileSet, считаем только ключи
	for k := range m.contents {
		total += uint64(len(k))
	}
	return total
}
