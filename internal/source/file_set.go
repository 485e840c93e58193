package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"fortio.org/safecast"
)

// FileSet is the source manager of one analysis session: it owns every
// buffer the session has seen and knows which one is the main file.
type FileSet struct {
	files    []File
	index    map[string]FileID // path -> id
	baseDir  string            // базовая директория для относительных путей
	mainFile FileID
}

// NewFileSet creates a new empty FileSet. ID 0 is reserved for NoFile.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 1, 8),
		index: make(map[string]FileID),
	}
}

// NewFileSetWithBase создаёт FileSet с заданной базовой директорией.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

// SetBaseDir устанавливает базовую директорию для относительных путей.
func (fileSet *FileSet) SetBaseDir(dir string) {
	fileSet.baseDir = dir
}

// BaseDir возвращает текущую базовую директорию.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Add stores a buffer, computes LineIdx and Hash, and returns a new FileID.
// It always creates a new FileID even if a file with the same path already
// exists: every inclusion of a header gets its own buffer.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	hash := sha256.Sum256(content)
	lineIdx := buildLineIndex(content)
	normalizedPath := path
	if flags&FileBuiltin == 0 {
		normalizedPath = normalizePath(path)
	}

	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: lineIdx,
		Hash:    hash,
		Flags:   flags,
	})
	fileSet.index[normalizedPath] = id
	return id
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return NoFile, err
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory buffer (editor contents, test) with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// AddBuiltin adds one of the synthetic buffers (<built-in>, <command-line>).
func (fileSet *FileSet) AddBuiltin(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual|FileBuiltin)
}

// Get returns the file metadata for the given ID, or nil for NoFile and unknown IDs.
func (fileSet *FileSet) Get(id FileID) *File {
	if id == NoFile || int(id) >= len(fileSet.files) {
		return nil
	}
	return &fileSet.files[id]
}

// Len returns the number of buffers (NoFile is not counted).
func (fileSet *FileSet) Len() int {
	return len(fileSet.files) - 1
}

// GetLatest returns the latest file ID for the given path, if it exists.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// GetByPath возвращает *File по пути, если был загружен в этот FileSet.
func (fileSet *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fileSet.index[normalizePath(path)]; ok {
		return &fileSet.files[id], true
	}
	return nil, false
}

// SetMainFile marks id as the main file of the session.
func (fileSet *FileSet) SetMainFile(id FileID) {
	fileSet.mainFile = id
}

// MainFile returns the main file ID or NoFile before SetMainFile.
func (fileSet *FileSet) MainFile() FileID {
	return fileSet.mainFile
}

// IsInsideMainFile reports whether the span points into the main buffer.
func (fileSet *FileSet) IsInsideMainFile(span Span) bool {
	return span.File != NoFile && span.File == fileSet.mainFile
}

// BufferName returns the identifier of a buffer: its path, or the synthetic
// name for <built-in> and <command-line>.
func (fileSet *FileSet) BufferName(id FileID) string {
	if f := fileSet.Get(id); f != nil {
		return f.Path
	}
	return ""
}

// IsBuiltin reports whether id is one of the synthetic predefines buffers.
func (fileSet *FileSet) IsBuiltin(id FileID) bool {
	f := fileSet.Get(id)
	return f != nil && f.Flags&FileBuiltin != 0
}

// Resolve converts a span into line and column positions.
// Spans without a file resolve to zero positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fileSet.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// ContentCacheSize is the number of bytes held by buffer contents and line tables.
func (fileSet *FileSet) ContentCacheSize() uint64 {
	var total uint64
	for i := range fileSet.files {
		total += uint64(cap(fileSet.files[i].Content))
		total += uint64(cap(fileSet.files[i].LineIdx)) * 4
	}
	return total
}

// DataStructureSizes approximates the bookkeeping overhead of the set itself.
func (fileSet *FileSet) DataStructureSizes() uint64 {
	var total uint64
	total += uint64(cap(fileSet.files)) * uint64(unsafe.Sizeof(File{}))
	for path := range fileSet.index {
		total += uint64(len(path)) + uint64(unsafe.Sizeof(FileID(0)))
	}
	return total
}

// GetLine возвращает строку с заданным номером (1-based) из файла.
// Если строка не существует, возвращает пустую строку.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}

	var start, end, lenLineIdx, lenContent uint32
	var err error
	lenLineIdx, err = safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}
	lenContent, err = safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}

	switch {
	case lineNum == 1:
		start = 0
	case (lineNum - 2) < lenLineIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}

	if (lineNum - 1) < lenLineIdx {
		end = f.LineIdx[lineNum-1]
	} else {
		end = lenContent
	}

	if start >= lenContent {
		return ""
	}
	if end > lenContent {
		end = lenContent
	}
	// CRLF буферы не нормализуются при Add, срезаем хвостовой \r
	if end > start && f.Content[end-1] == '\r' {
		end--
	}
	return string(f.Content[start:end])
}

// LineStart returns the byte offset of the first byte of a 1-based line.
func (f *File) LineStart(lineNum uint32) uint32 {
	if lineNum <= 1 || len(f.LineIdx) == 0 {
		return 0
	}
	if int(lineNum-2) >= len(f.LineIdx) {
		n, err := safecast.Conv[uint32](len(f.Content))
		if err != nil {
			panic(fmt.Errorf("content length overflow: %w", err))
		}
		return n
	}
	return f.LineIdx[lineNum-2] + 1
}

// Position resolves a byte offset in this file.
func (f *File) Position(off uint32) LineCol {
	return toLineCol(f.LineIdx, off)
}

// FormatPath форматирует путь к файлу в зависимости от режима.
// mode: "absolute", "relative", "basename", "auto"
func (f *File) FormatPath(mode, baseDir string) string {
	if f.Flags&FileBuiltin != 0 {
		return f.Path
	}
	switch mode {
	case "absolute":
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
		return f.Path

	case "relative":
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		if rel, err := filepath.Rel(baseDir, f.Path); err == nil {
			return filepath.ToSlash(rel)
		}
		return f.Path

	case "basename":
		return filepath.Base(f.Path)

	case "auto":
		if len(f.Path) < 40 || !filepath.IsAbs(f.Path) {
			return f.Path
		}
		return filepath.Base(f.Path)

	default:
		return f.Path
	}
}
