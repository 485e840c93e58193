package source

type (
	// FileID uniquely identifies a source buffer within a FileSet.
	FileID uint32 // просто ID источника
	// FileFlags encodes metadata about a source buffer.
	FileFlags uint8 // метаданные
)

// NoFile is the FileID of locations that do not point into any buffer
// (invocation diagnostics, synthesized nodes).
const NoFile FileID = 0

const (
	// FileVirtual indicates the file was added from memory (editor buffer, test).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска
	FileHadBOM
	FileNormalizedCRLF
	// FileBuiltin marks synthetic buffers such as <built-in> and <command-line>.
	FileBuiltin
)

// Names of the synthetic buffers the preprocessor enters before the main file.
const (
	BuiltinBufferName     = "<built-in>"
	CommandLineBufferName = "<command-line>"
)

// File captures metadata and content for a single source buffer.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
