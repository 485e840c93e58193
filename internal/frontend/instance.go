package frontend

import (
	"errors"
	"fmt"
	"unsafe"

	"lantern/internal/ast"
	"lantern/internal/diag"
	"lantern/internal/lexer"
	"lantern/internal/parser"
	"lantern/internal/pp"
	"lantern/internal/sema"
	"lantern/internal/source"
	"lantern/internal/vfs"
)

// ErrNoInput means the primary input could not be opened.
var ErrNoInput = errors.New("frontend: cannot open primary input")

// Prefix is the reusable state of an already processed file head: the
// main file resumes at Bounds.Size with Macros live and Symbols declared.
type Prefix struct {
	Bounds  lexer.Bounds
	Macros  []*pp.MacroDefinition
	Symbols []sema.Symbol
}

// Instance is one configured front-end: every layer a build needs, created
// empty by Prepare and filled in by an Action.
type Instance struct {
	Invocation *Invocation
	Sources    *source.FileSet
	Files      *vfs.FileManager
	Diags      *diag.Engine

	// set by Action.BeginSourceFile
	PP   *pp.Preprocessor
	AST  *ast.Context
	Sema *sema.Sema

	prefix   *Prefix
	content  []byte
	consumer parser.Consumer
}

// Prepare configures an instance for inv. content is the main file text
// to analyze; it takes precedence over what fsys holds for that path.
// With a non-nil prefix the head of content is not reprocessed.
func Prepare(inv *Invocation, prefix *Prefix, content []byte, fsys vfs.FileSystem, client diag.Consumer) (*Instance, error) {
	if inv == nil || inv.MainFile == "" {
		return nil, fmt.Errorf("frontend: invocation names no main file")
	}
	if fsys == nil {
		return nil, fmt.Errorf("frontend: no filesystem")
	}
	sources := source.NewFileSet()
	if inv.WorkingDir != "" {
		sources.SetBaseDir(inv.WorkingDir)
	}
	eng := diag.NewEngine(sources)
	eng.SetClient(client)
	return &Instance{
		Invocation: inv,
		Sources:    sources,
		Files:      vfs.NewFileManager(fsys),
		Diags:      eng,
		prefix:     prefix,
		content:    content,
	}, nil
}

// Prefix returns the precompiled prefix the instance resumes after, or nil.
func (ci *Instance) Prefix() *Prefix { return ci.prefix }

// SetConsumer installs the receiver of parsed top-level declarations. It
// must be called before Execute.
func (ci *Instance) SetConsumer(c parser.Consumer) { ci.consumer = c }

// Consumer returns the installed declaration consumer.
func (ci *Instance) Consumer() parser.Consumer { return ci.consumer }

func (ci *Instance) preprocessorOptions() pp.Options {
	inv := ci.Invocation
	return pp.Options{
		Lang:              inv.Lang,
		IncludeDirs:       inv.IncludeDirs,
		SystemIncludeDirs: inv.SystemIncludeDirs,
		Defines:           inv.Defines,
		Undefines:         inv.Undefines,
	}
}

// MemoryUsage sums the allocator totals of every live layer.
func (ci *Instance) MemoryUsage() uint64 {
	n := uint64(unsafe.Sizeof(*ci))
	n += ci.Sources.ContentCacheSize() + ci.Sources.DataStructureSizes()
	n += ci.Files.MemoryUsage()
	if ci.PP != nil {
		n += ci.PP.MemoryUsage()
	}
	if ci.AST != nil {
		n += ci.AST.AllocatedBytes()
	}
	if ci.Sema != nil {
		n += ci.Sema.MemoryUsage()
	}
	return n
}
