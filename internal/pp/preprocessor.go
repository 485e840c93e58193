package pp

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unsafe"

	"lantern/internal/diag"
	"lantern/internal/lang"
	"lantern/internal/lexer"
	"lantern/internal/source"
	"lantern/internal/token"
	"lantern/internal/vfs"
)

// MaxIncludeDepth bounds nested includes.
const MaxIncludeDepth = 200

// Options configures a preprocessor.
type Options struct {
	Lang              lang.Options
	IncludeDirs       []string
	SystemIncludeDirs []string
	// Defines are -D values: "NAME" or "NAME=VALUE".
	Defines   []string
	Undefines []string
}

type condFrame struct {
	loc         source.Span
	wasSkipping bool // состояние до #if
	taken       bool // какая-то ветка уже выбрана
	sawElse     bool
}

type frame struct {
	file  *source.File
	lx    *lexer.Lexer
	entry *vfs.FileEntry
	kind  CharacteristicKind
	conds []condFrame
	skip  bool
	// onEOF may push another buffer; it returns true if it did.
	onEOF func() bool
}

// Preprocessor turns buffers into the token stream the parser consumes.
// One instance serves one session and is not safe for concurrent use.
type Preprocessor struct {
	opts     Options
	sources  *source.FileSet
	files    *vfs.FileManager
	diags    *diag.Engine
	search   *HeaderSearch
	cb       Callbacks
	comments []CommentHandler
	watcher  func(token.Token)

	macros map[string]*MacroDefinition
	once   map[string]bool
	stack  []*frame
	main   expander

	entered  bool
	ended    bool
	released bool
	eof      token.Token

	// статистика
	numDirectives int
	numExpansions int
	numIncludes   int
}

func New(opts Options, sources *source.FileSet, files *vfs.FileManager, diags *diag.Engine) *Preprocessor {
	p := &Preprocessor{
		opts:    opts,
		sources: sources,
		files:   files,
		diags:   diags,
		search:  NewHeaderSearch(files, opts.IncludeDirs, opts.SystemIncludeDirs),
		macros:  make(map[string]*MacroDefinition),
		once:    make(map[string]bool),
	}
	p.main = expander{p: p, src: p.lexPhysical}
	p.eof = token.Token{Kind: token.EOF}
	return p
}

func (p *Preprocessor) Sources() *source.FileSet      { return p.sources }
func (p *Preprocessor) FileManager() *vfs.FileManager { return p.files }
func (p *Preprocessor) HeaderSearch() *HeaderSearch   { return p.search }
func (p *Preprocessor) Diagnostics() *diag.Engine     { return p.diags }
func (p *Preprocessor) LangOptions() lang.Options     { return p.opts.Lang }

// AddCallbacks registers c in front of the current listener: c sees every
// event first, then the previously registered listener.
func (p *Preprocessor) AddCallbacks(c Callbacks) {
	if c == nil {
		return
	}
	if p.cb == nil {
		p.cb = c
		return
	}
	p.cb = &chained{first: c, second: p.cb}
}

// Callbacks returns the head of the listener chain, or nil.
func (p *Preprocessor) Callbacks() Callbacks { return p.cb }

// AddCommentHandler registers h for every comment lexed after this call.
func (p *Preprocessor) AddCommentHandler(h CommentHandler) {
	p.comments = append(p.comments, h)
}

// SetTokenWatcher installs fn to see every token returned by Lex. A nil fn
// removes the watcher.
func (p *Preprocessor) SetTokenWatcher(fn func(token.Token)) { p.watcher = fn }

// Macro returns the live definition of name, or nil.
func (p *Preprocessor) Macro(name string) *MacroDefinition { return p.macros[name] }

// Macros returns the live definitions sorted by name.
func (p *Preprocessor) Macros() []*MacroDefinition {
	out := make([]*MacroDefinition, 0, len(p.macros))
	for _, d := range p.macros {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EnterMainSourceFile starts the session on the main file of the source
// set. With a prefix, lexing resumes at prefix.Size and the prefix macros
// are imported without events.
func (p *Preprocessor) EnterMainSourceFile(prefix *Prefix) error {
	if p.entered {
		return fmt.Errorf("pp: main file already entered")
	}
	mainID := p.sources.MainFile()
	mf := p.sources.Get(mainID)
	if mf == nil {
		return fmt.Errorf("pp: no main file")
	}
	p.entered = true

	start := uint32(0)
	if prefix != nil {
		start = prefix.Size
		if n := uint32(len(mf.Content)); start > n {
			start = n
		}
		for _, d := range prefix.Macros {
			p.macros[d.Name] = d
		}
	}
	p.fileChanged(source.Span{File: mainID}, EnterFile, User, source.NoFile)
	p.push(&frame{file: mf, lx: p.newLexer(mf, start), kind: User})

	builtinID := p.sources.AddBuiltin(source.BuiltinBufferName, []byte(p.opts.Lang.Predefines()))
	builtin := p.sources.Get(builtinID)
	bf := &frame{file: builtin, lx: p.newLexer(builtin, 0), kind: User}
	cmdline := p.commandLineText()
	bf.onEOF = func() bool {
		bf.onEOF = nil
		id := p.sources.AddBuiltin(source.CommandLineBufferName, []byte(cmdline))
		f := p.sources.Get(id)
		p.fileChanged(source.Span{File: id}, EnterFile, User, builtinID)
		p.push(&frame{file: f, lx: p.newLexer(f, 0), kind: User})
		return true
	}
	p.fileChanged(source.Span{File: builtinID}, EnterFile, User, mainID)
	p.push(bf)
	return nil
}

func (p *Preprocessor) commandLineText() string {
	var sb strings.Builder
	for _, d := range p.opts.Defines {
		name, val, ok := strings.Cut(d, "=")
		if !ok {
			val = "1"
		}
		fmt.Fprintf(&sb, "#define %s %s\n", name, val)
	}
	for _, u := range p.opts.Undefines {
		fmt.Fprintf(&sb, "#undef %s\n", u)
	}
	return sb.String()
}

func (p *Preprocessor) newLexer(f *source.File, off uint32) *lexer.Lexer {
	return lexer.NewAt(f, off, lexer.Options{
		Reporter:  skipAwareReporter{p: p},
		OnComment: p.handleComment,
	})
}

type skipAwareReporter struct{ p *Preprocessor }

func (r skipAwareReporter) Report(code diag.Code, sp source.Span, args ...any) {
	if top := r.p.top(); top != nil && top.skip {
		return
	}
	r.p.report(code, sp, args...)
}

func (p *Preprocessor) handleComment(sp source.Span, text string) {
	for _, h := range p.comments {
		h.HandleComment(sp, text)
	}
}

func (p *Preprocessor) report(code diag.Code, sp source.Span, args ...any) {
	if p.diags != nil {
		p.diags.Report(code, sp, args...).Emit()
	}
}

func (p *Preprocessor) fileChanged(loc source.Span, reason FileChangeReason, kind CharacteristicKind, prev source.FileID) {
	if p.cb != nil {
		p.cb.FileChanged(loc, reason, kind, prev)
	}
}

func (p *Preprocessor) push(f *frame) { p.stack = append(p.stack, f) }

func (p *Preprocessor) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

// IncludeDepth is the number of buffers currently open.
func (p *Preprocessor) IncludeDepth() int { return len(p.stack) }

// Lex returns the next fully preprocessed token. After the end of the main
// file it keeps returning EOF.
func (p *Preprocessor) Lex() token.Token {
	for {
		pt := p.main.read()
		if pt.tok.Kind == token.Ident && p.main.expand(pt) {
			continue
		}
		if p.watcher != nil {
			p.watcher(pt.tok)
		}
		return pt.tok
	}
}

// lexPhysical returns the next token of the current buffer after directive
// handling, conditional skipping and buffer exits.
func (p *Preprocessor) lexPhysical() token.Token {
	for {
		f := p.top()
		if f == nil || p.released {
			return p.eof
		}
		tok := f.lx.Next()
		switch {
		case tok.Kind == token.EOF:
			if f.onEOF != nil && f.onEOF() {
				continue
			}
			p.closeConditionals(f)
			if len(p.stack) == 1 {
				p.eof = tok
				return tok
			}
			p.stack = p.stack[:len(p.stack)-1]
			parent := p.top()
			loc := source.Span{File: parent.file.ID, Start: parent.lx.Offset(), End: parent.lx.Offset()}
			p.fileChanged(loc, ExitFile, parent.kind, f.file.ID)
			continue
		case tok.Kind == token.Hash && tok.AtStartOfLine():
			p.handleDirective(f, tok)
			continue
		case f.skip:
			f.lx.SkipLine()
			continue
		}
		return tok
	}
}

func (p *Preprocessor) closeConditionals(f *frame) {
	for i := len(f.conds) - 1; i >= 0; i-- {
		p.report(diag.PPUnterminatedCond, f.conds[i].loc)
	}
	f.conds = nil
	f.skip = false
}

// EndSourceFile signals the end of the main file to the listeners. Only the
// first call has an effect.
func (p *Preprocessor) EndSourceFile() {
	if p.ended {
		return
	}
	p.ended = true
	if p.cb != nil {
		p.cb.EndOfMainFile()
	}
}

// Ended reports whether EndSourceFile has run.
func (p *Preprocessor) Ended() bool { return p.ended }

// Release drops lexers, macro tables and listeners. The preprocessor
// returns EOF afterwards.
func (p *Preprocessor) Release() {
	if p.released {
		return
	}
	p.released = true
	p.stack = nil
	p.macros = nil
	p.cb = nil
	p.comments = nil
	p.watcher = nil
	p.main.queue = nil
}

// Released reports whether Release has run.
func (p *Preprocessor) Released() bool { return p.released }

// Stats returns directive, expansion and include counters.
func (p *Preprocessor) Stats() (directives, expansions, includes int) {
	return p.numDirectives, p.numExpansions, p.numIncludes
}

// MemoryUsage approximates the bytes held by macro tables, open lexers and
// header search.
func (p *Preprocessor) MemoryUsage() uint64 {
	n := uint64(unsafe.Sizeof(*p))
	for name, d := range p.macros {
		n += uint64(len(name)) + d.memory()
	}
	for k := range p.once {
		n += uint64(len(k))
	}
	n += uint64(cap(p.stack)) * uint64(unsafe.Sizeof(frame{}))
	n += uint64(cap(p.main.queue)) * uint64(unsafe.Sizeof(ptok{}))
	return n + p.search.MemoryUsage()
}

func dirOf(f *source.File) string {
	if f == nil || f.Flags&source.FileBuiltin != 0 {
		return ""
	}
	return filepath.ToSlash(filepath.Dir(f.Path))
}
