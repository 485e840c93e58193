package astbuild

import (
	"errors"
	"fmt"
	"io"
	"unsafe"

	"lantern/internal/ast"
	"lantern/internal/canon"
	"lantern/internal/diag"
	"lantern/internal/frontend"
	"lantern/internal/headers"
	"lantern/internal/macros"
	"lantern/internal/pp"
	"lantern/internal/preamble"
	"lantern/internal/syntax"
)

// ErrClosed is returned by operations on a closed ParsedAST.
var ErrClosed = errors.New("astbuild: ParsedAST is closed")

// ParsedAST is the result of a build. It owns the session the AST lives
// in: declaration IDs it hands out stay valid until Close.
//
// A ParsedAST is not safe for concurrent use.
type ParsedAST struct {
	path     string
	session  *frontend.Session
	ci       *frontend.Instance
	ast      *ast.Context
	preamble *preamble.Snapshot

	tokens     *syntax.TokenBuffer
	macros     *macros.MainFileMacros
	diags      []diag.Diagnostic
	includes   *headers.IncludeStructure
	canonical  *canon.CanonicalIncludes
	localDecls []ast.DeclID
	closed     bool
}

// Path is the main file the AST was built for.
func (a *ParsedAST) Path() string { return a.path }

// Context returns the AST, or nil after Close.
func (a *ParsedAST) Context() *ast.Context { return a.ast }

// Preprocessor returns the preprocessor, or nil after Close.
func (a *ParsedAST) Preprocessor() *pp.Preprocessor {
	if a.session == nil {
		return nil
	}
	return a.session.Preprocessor()
}

// LocalTopLevelDecls are the top-level declarations written in the main
// file after the preamble, in source order.
func (a *ParsedAST) LocalTopLevelDecls() []ast.DeclID { return a.localDecls }

// Macros are the macro names used or defined in the main file, preamble
// included.
func (a *ParsedAST) Macros() *macros.MainFileMacros { return a.macros }

// Diagnostics lists invocation diagnostics, then the preamble's, then the
// ones of this build.
func (a *ParsedAST) Diagnostics() []diag.Diagnostic { return a.diags }

func (a *ParsedAST) Tokens() *syntax.TokenBuffer { return a.tokens }

func (a *ParsedAST) IncludeStructure() *headers.IncludeStructure { return a.includes }

func (a *ParsedAST) CanonicalIncludes() *canon.CanonicalIncludes { return a.canonical }

// Preamble is the snapshot the build reused, or nil.
func (a *ParsedAST) Preamble() *preamble.Snapshot { return a.preamble }

// UsedBytes estimates the memory held by the AST, the session and the
// collected tables. The preamble is not counted.
func (a *ParsedAST) UsedBytes() uint64 {
	n := uint64(unsafe.Sizeof(*a))
	n += uint64(cap(a.localDecls)) * uint64(unsafe.Sizeof(ast.DeclID(0)))
	n += uint64(cap(a.diags)) * uint64(unsafe.Sizeof(diag.Diagnostic{}))
	for i := range a.diags {
		n += uint64(len(a.diags[i].Message)) + uint64(len(a.diags[i].Fixes)+len(a.diags[i].Notes))*uint64(unsafe.Sizeof(diag.Fix{}))
	}
	if a.ci != nil {
		n += a.ci.MemoryUsage()
	}
	n += a.tokens.MemoryUsage()
	n += a.includes.MemoryUsage() + a.macros.MemoryUsage() + a.canonical.MemoryUsage()
	return n
}

// Dump writes the main-file declarations of the AST to w.
func (a *ParsedAST) Dump(w io.Writer) error {
	if a.closed || a.ast == nil {
		return ErrClosed
	}
	if _, err := fmt.Fprintf(w, "TranslationUnitDecl %s\n", a.path); err != nil {
		return err
	}
	return a.ast.Dump(w)
}

// Close tears the session down. The preprocessor already had its end of
// file, so it is detached before the action ends and released last. Close
// is idempotent.
func (a *ParsedAST) Close() {
	if a == nil || a.closed {
		return
	}
	a.closed = true
	a.session.Close()
	a.ast = nil
	a.localDecls = nil
}

// Closed reports whether Close ran.
func (a *ParsedAST) Closed() bool { return a.closed }
