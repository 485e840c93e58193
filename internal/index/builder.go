package index

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
	"golang.org/x/sync/errgroup"

	"lantern/internal/ast"
	"lantern/internal/canon"
	"lantern/internal/diag"
	"lantern/internal/frontend"
	"lantern/internal/vfs"
)

// DefaultHeaderPatterns select the files a Builder parses.
var DefaultHeaderPatterns = []string{"**/*.h", "**/*.hh", "**/*.hpp", "**/*.hxx"}

// directories never worth descending into
var skippedDirs = map[string]bool{
	".git": true, ".svn": true, ".hg": true, "node_modules": true,
	".cache": true, ".idea": true, ".vscode": true,
}

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	Roots []string
	// Patterns are doublestar globs matched against paths relative to the
	// root. Empty selects DefaultHeaderPatterns.
	Patterns []string
	// Args are compile flags each header is parsed with (include dirs,
	// defines, -std).
	Args        []string
	Jobs        int
	MaxFileSize int64
}

// BuildStats summarizes a Builder run.
type BuildStats struct {
	Files   int
	Symbols int
	Failed  int
}

// Builder parses header trees with the front-end and feeds their top-level
// declarations to a Sink.
type Builder struct {
	opts BuilderOptions
	fs   vfs.FileSystem
}

func NewBuilder(opts BuilderOptions) (*Builder, error) {
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultHeaderPatterns
	}
	for _, p := range opts.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.New("invalid glob pattern: " + p)
		}
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 1 << 20
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	return &Builder{opts: opts, fs: vfs.NewOSFS()}, nil
}

// Collect lists the headers under the roots, sorted.
func (b *Builder) Collect() ([]string, error) {
	var out []string
	for _, root := range b.opts.Roots {
		root, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		ignore := loadGitIgnore(root)
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if path == root {
					return nil
				}
				if skippedDirs[d.Name()] || ignored(ignore, rel, true) {
					return filepath.SkipDir
				}
				return nil
			}
			if ignored(ignore, rel, false) || !b.matches(rel) {
				return nil
			}
			info, err := d.Info()
			if err != nil || info.Size() > b.opts.MaxFileSize {
				return nil
			}
			out = append(out, filepath.ToSlash(path))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

func (b *Builder) matches(rel string) bool {
	for _, p := range b.opts.Patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Run parses every collected header and adds its declarations to sink.
// A header that fails to parse is counted and skipped.
func (b *Builder) Run(ctx context.Context, sink Sink) (BuildStats, error) {
	files, err := b.Collect()
	if err != nil {
		return BuildStats{}, err
	}
	var (
		mu    sync.Mutex
		stats = BuildStats{Files: len(files)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(b.opts.Jobs, len(files))))
	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			syms, err := b.parseHeader(path)
			if err != nil {
				log.Debugf("skipping %s: %s", path, err)
				mu.Lock()
				stats.Failed++
				mu.Unlock()
				return nil
			}
			if err := sink.Add(syms...); err != nil {
				return err
			}
			mu.Lock()
			stats.Symbols += len(syms)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	log.Infof("indexed %d symbols from %d headers (%d failed)", stats.Symbols, stats.Files, stats.Failed)
	return stats, nil
}

// parseHeader runs a syntax-only session over one header and returns the
// declarations it provides.
func (b *Builder) parseHeader(path string) ([]Symbol, error) {
	args := append(append([]string(nil), b.opts.Args...), path)
	inv, _ := frontend.ParseInvocation(args)
	ci, err := frontend.Prepare(inv, nil, nil, b.fs, diag.IgnoreDiagnostics{})
	if err != nil {
		return nil, err
	}
	action := frontend.NewSyntaxOnlyAction()
	if err := action.BeginSourceFile(ci); err != nil {
		return nil, err
	}
	session := frontend.NewSession(ci, action)
	defer session.Close()

	mapping := canon.New()
	mapping.AddSystemHeadersMapping(inv.Lang)
	ci.PP.AddCommentHandler(canon.CollectIWYUHeaderMaps(ci.Sources, mapping))
	if err := action.Execute(); err != nil {
		return nil, err
	}
	session.EndOfInput()
	return Declarations(ci.AST, mapping), nil
}

// Declarations returns the indexable top-level declarations of the main
// file of ctx: named, with external linkage, not compiler generated.
func Declarations(ctx *ast.Context, mapping *canon.CanonicalIncludes) []Symbol {
	sources := ctx.Sources()
	var out []Symbol
	var visit func(id ast.DeclID)
	visit = func(id ast.DeclID) {
		d := ctx.Decl(id)
		if d == nil || d.Implicit || d.IsTemplateInstantiation() {
			return
		}
		if d.Kind == ast.DeclLinkageSpec {
			for _, c := range d.Children {
				visit(c)
			}
			return
		}
		kind := symbolKind(d)
		if kind == "" || d.Name == "" || d.Storage == ast.StorageStatic {
			return
		}
		loc := d.Location()
		if !sources.IsInsideMainFile(loc) {
			return
		}
		f := sources.Get(loc.File)
		start, _ := sources.Resolve(loc)
		out = append(out, Symbol{
			Name:   d.Name,
			Kind:   kind,
			Header: mapping.MapHeader(f.Path, d.Name),
			Path:   f.Path,
			Line:   start.Line,
		})
	}
	for _, id := range ctx.TopLevel() {
		visit(id)
	}
	return out
}

func symbolKind(d *ast.Decl) string {
	switch d.Kind {
	case ast.DeclFunction, ast.DeclFunctionTemplate:
		return "function"
	case ast.DeclVar:
		return "variable"
	case ast.DeclRecord:
		return d.Tag
	case ast.DeclTypedef:
		return "typedef"
	case ast.DeclObjCContainer:
		return "interface"
	}
	return ""
}

func loadGitIgnore(root string) gitignore.GitIgnore {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()
	return gitignore.New(f, root, nil)
}

func ignored(gi gitignore.GitIgnore, rel string, isDir bool) bool {
	if gi == nil {
		return false
	}
	m := gi.Relative(strings.TrimPrefix(rel, "./"), isDir)
	return m != nil && m.Ignore()
}
