package pp

import (
	"lantern/internal/source"
	"lantern/internal/token"
	"lantern/internal/vfs"
)

// FileChangeReason says why the preprocessor moved between buffers.
type FileChangeReason uint8

const (
	EnterFile FileChangeReason = iota
	ExitFile
	SystemHeaderPragma
)

func (r FileChangeReason) String() string {
	switch r {
	case EnterFile:
		return "EnterFile"
	case ExitFile:
		return "ExitFile"
	case SystemHeaderPragma:
		return "SystemHeaderPragma"
	}
	return "FileChangeReason(?)"
}

// CharacteristicKind tells user headers from system headers.
type CharacteristicKind uint8

const (
	User CharacteristicKind = iota
	System
)

func (k CharacteristicKind) String() string {
	if k == System {
		return "system"
	}
	return "user"
}

// InclusionDirective describes one #include / #import as it was written.
type InclusionDirective struct {
	Hash        token.Token // '#'
	Include     token.Token // include, import, include_next
	FileName    string      // без кавычек и скобок
	Angled      bool
	FilenameTok token.Token // header-name token; its span is the filename range
	File        *vfs.FileEntry
	SearchPath  string
	// RelativePath is FileName relative to SearchPath.
	RelativePath string
	Kind         CharacteristicKind
}

// Callbacks observes the preprocessor. Implementations usually embed
// EmptyCallbacks and override what they need.
type Callbacks interface {
	// FileChanged fires on entering and leaving a buffer. For ExitFile, loc
	// points into the buffer control returns to and prev is the buffer left.
	FileChanged(loc source.Span, reason FileChangeReason, kind CharacteristicKind, prev source.FileID)
	InclusionDirective(d InclusionDirective)
	// FileSkipped fires when an include resolves to a file that is not
	// entered (e.g. #pragma once, #import).
	FileSkipped(file *vfs.FileEntry, filenameTok token.Token, kind CharacteristicKind)
	// FileNotFound may return a recovery path to look up instead.
	FileNotFound(fileName string) (recoveryPath string)
	MacroDefined(nameTok token.Token, def *MacroDefinition)
	MacroUndefined(nameTok token.Token, def *MacroDefinition)
	MacroExpands(nameTok token.Token, def *MacroDefinition, span source.Span)
	EndOfMainFile()
}

// EmptyCallbacks implements Callbacks with no-ops.
type EmptyCallbacks struct{}

func (EmptyCallbacks) FileChanged(source.Span, FileChangeReason, CharacteristicKind, source.FileID) {}
func (EmptyCallbacks) InclusionDirective(InclusionDirective)                                        {}
func (EmptyCallbacks) FileSkipped(*vfs.FileEntry, token.Token, CharacteristicKind)                  {}
func (EmptyCallbacks) FileNotFound(string) string                                                   { return "" }
func (EmptyCallbacks) MacroDefined(token.Token, *MacroDefinition)                                   {}
func (EmptyCallbacks) MacroUndefined(token.Token, *MacroDefinition)                                 {}
func (EmptyCallbacks) MacroExpands(token.Token, *MacroDefinition, source.Span)                      {}
func (EmptyCallbacks) EndOfMainFile()                                                               {}

// chained forwards every event to first, then to second.
type chained struct {
	first, second Callbacks
}

func (c *chained) FileChanged(loc source.Span, reason FileChangeReason, kind CharacteristicKind, prev source.FileID) {
	c.first.FileChanged(loc, reason, kind, prev)
	c.second.FileChanged(loc, reason, kind, prev)
}

func (c *chained) InclusionDirective(d InclusionDirective) {
	c.first.InclusionDirective(d)
	c.second.InclusionDirective(d)
}

func (c *chained) FileSkipped(file *vfs.FileEntry, tok token.Token, kind CharacteristicKind) {
	c.first.FileSkipped(file, tok, kind)
	c.second.FileSkipped(file, tok, kind)
}

// FileNotFound asks both; the first non-empty recovery path wins.
func (c *chained) FileNotFound(name string) string {
	a := c.first.FileNotFound(name)
	b := c.second.FileNotFound(name)
	if a != "" {
		return a
	}
	return b
}

func (c *chained) MacroDefined(tok token.Token, def *MacroDefinition) {
	c.first.MacroDefined(tok, def)
	c.second.MacroDefined(tok, def)
}

func (c *chained) MacroUndefined(tok token.Token, def *MacroDefinition) {
	c.first.MacroUndefined(tok, def)
	c.second.MacroUndefined(tok, def)
}

func (c *chained) MacroExpands(tok token.Token, def *MacroDefinition, sp source.Span) {
	c.first.MacroExpands(tok, def, sp)
	c.second.MacroExpands(tok, def, sp)
}

func (c *chained) EndOfMainFile() {
	c.first.EndOfMainFile()
	c.second.EndOfMainFile()
}

// CommentHandler sees every comment lexed in any buffer.
type CommentHandler interface {
	HandleComment(span source.Span, text string)
}

// CommentHandlerFunc adapts a function to CommentHandler.
type CommentHandlerFunc func(span source.Span, text string)

func (f CommentHandlerFunc) HandleComment(span source.Span, text string) { f(span, text) }
