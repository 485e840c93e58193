// Package driver ties configuration, the preamble cache, the symbol index
// and astbuild together. The CLI, the language server and the MCP server
// all build files through a Driver.
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"lantern/internal/astbuild"
	"lantern/internal/config"
	"lantern/internal/diag"
	"lantern/internal/frontend"
	"lantern/internal/index"
	"lantern/internal/observ"
	"lantern/internal/preamble"
	"lantern/internal/vfs"
)

var log = commonlog.GetLogger("lantern.driver")

// Options tune a Driver beyond its configuration.
type Options struct {
	// Args replace the configured compile arguments when non-nil.
	Args []string
	// NoChecks disables tidy checks regardless of configuration.
	NoChecks bool
	// NoPreamble builds every file without a snapshot.
	NoPreamble bool
	// Timings records phase timings in each Result.
	Timings bool
	// Progress, when set, hears about every build of BuildAll.
	Progress Progress
}

// Progress receives the start and end of builds run by BuildAll. Calls
// come from the building goroutines.
type Progress interface {
	Started(path string)
	Finished(r *Result)
}

// Driver builds files of one project. Safe for concurrent use: builds of
// different files run in parallel and share the preamble cache.
type Driver struct {
	cfg   *config.Config
	fs    vfs.FileSystem
	cache *preamble.Cache
	store *preamble.Store
	idx   index.SymbolIndex
	bleve *index.BleveIndex
	opts  Options
}

// Result is one finished build. AST is nil when the build failed; Err then
// says why. The caller closes AST.
type Result struct {
	Path        string
	AST         *astbuild.ParsedAST
	Diagnostics []diag.Diagnostic
	// PreambleReused is set when a cached snapshot was used.
	PreambleReused bool
	Timing         *observ.Report
	Err            error
}

// New creates a driver over fsys. An index configured but missing on disk
// disables include fixes with a warning.
func New(cfg *config.Config, fsys vfs.FileSystem, opts Options) (*Driver, error) {
	if cfg == nil {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cfg = config.Default(wd)
	}
	if fsys == nil {
		fsys = vfs.NewOSFS()
	}
	d := &Driver{cfg: cfg, fs: fsys, opts: opts}

	size := cfg.Preamble.CacheSize
	if size == 0 {
		size = config.DefaultCacheSize
	}
	if dir := cfg.CacheDir(); dir != "" && !opts.NoPreamble {
		store, err := preamble.OpenStore(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open preamble cache %s: %w", dir, err)
		}
		d.store = store
	}
	d.cache = preamble.NewCache(size, d.store)

	if path := cfg.IndexPath(); path != "" {
		if _, err := os.Stat(path); err != nil {
			log.Warningf("index %s not available, include fixes disabled: %s", path, err)
		} else {
			bi, err := index.OpenBleveIndex(path)
			if err != nil {
				return nil, fmt.Errorf("failed to open index %s: %w", path, err)
			}
			d.bleve = bi
			d.idx = bi
		}
	}
	return d, nil
}

// WithIndex replaces the symbol index, for callers that keep one in memory.
func (d *Driver) WithIndex(idx index.SymbolIndex) *Driver {
	d.idx = idx
	return d
}

// Config is the configuration the driver was created with.
func (d *Driver) Config() *config.Config { return d.cfg }

// FS is the filesystem files are read from.
func (d *Driver) FS() vfs.FileSystem { return d.fs }

// Cache is the preamble cache shared by all builds.
func (d *Driver) Cache() *preamble.Cache { return d.cache }

// Invocation parses the compile command of path.
func (d *Driver) Invocation(path string) (*frontend.Invocation, []diag.Diagnostic) {
	args := d.cfg.CommandLine(path)
	if d.opts.Args != nil {
		args = append([]string{"clang"}, d.opts.Args...)
		args = append(args, path)
	}
	return frontend.ParseInvocation(args)
}

// BuildOptions are the astbuild options from configuration.
func (d *Driver) BuildOptions() astbuild.Options {
	return astbuild.Options{
		EnableChecks:           d.cfg.ChecksEnabled() && !d.opts.NoChecks,
		Tidy:                   d.cfg.TidyOptions(),
		SuggestMissingIncludes: d.cfg.SuggestMissingIncludes(),
	}
}

// ReadFile reads and builds path.
func (d *Driver) ReadFile(ctx context.Context, path string) *Result {
	path = absPath(path)
	content, err := d.fs.ReadFile(path)
	if err != nil {
		return &Result{Path: path, Err: fmt.Errorf("%w: %s: %w", frontend.ErrNoInput, path, err)}
	}
	return d.Build(ctx, path, content)
}

// Build builds path with the given contents, which may differ from what is
// on disk. A snapshot that cannot be built is logged and the file is built
// without one.
func (d *Driver) Build(ctx context.Context, path string, content []byte) *Result {
	path = absPath(path)
	res := &Result{Path: path}
	var timer *observ.Timer
	if d.opts.Timings {
		timer = observ.NewTimer()
	}
	inv, invDiags := d.Invocation(path)

	var snap *preamble.Snapshot
	if !d.opts.NoPreamble {
		if cached, ok := d.cache.Get(inv, content, d.fs); ok {
			snap = cached
			res.PreambleReused = true
		} else {
			done := timer.Track("preamble")
			built, err := d.cache.GetOrBuild(ctx, inv, content, d.fs)
			done()
			if err != nil {
				log.Warningf("couldn't build preamble of %s: %s", path, err)
			} else {
				snap = built
			}
		}
	}

	opts := d.BuildOptions()
	opts.Timer = timer
	inputs := astbuild.Inputs{FS: d.fs, Contents: content, Index: d.idx, Opts: opts}
	ast, err := astbuild.BuildAST(ctx, path, inv, invDiags, inputs, snap)
	if timer != nil {
		rep := timer.Report()
		res.Timing = &rep
	}
	if err != nil {
		res.Err = err
		return res
	}
	res.AST = ast
	res.Diagnostics = ast.Diagnostics()
	return res
}

// Close releases the index. Snapshots stay valid for results still held.
func (d *Driver) Close() error {
	var errs []error
	if d.bleve != nil {
		errs = append(errs, d.bleve.Close())
		d.bleve = nil
	}
	return errors.Join(errs...)
}

// Close tears down the AST of r, if any.
func (r *Result) Close() {
	if r != nil && r.AST != nil {
		r.AST.Close()
	}
}

// Fatal reports whether the build produced no AST.
func (r *Result) Fatal() bool { return r.Err != nil }

func absPath(p string) string {
	if !filepath.IsAbs(p) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
	}
	return vfs.Clean(p)
}
