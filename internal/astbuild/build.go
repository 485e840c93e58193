// Package astbuild turns one C-family file into a ParsedAST: a live
// front-end session over the file, reusing a preamble snapshot when one is
// given, with tidy checks and missing-include fixes applied to its
// diagnostics.
//
// Each build is synchronous. Builds of different files, or of successive
// versions of one file, may run concurrently and share a snapshot.
package astbuild

import (
	"context"
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"lantern/internal/canon"
	"lantern/internal/diag"
	"lantern/internal/frontend"
	"lantern/internal/headers"
	"lantern/internal/includefix"
	"lantern/internal/index"
	"lantern/internal/macros"
	"lantern/internal/observ"
	"lantern/internal/preamble"
	"lantern/internal/syntax"
	"lantern/internal/tidy"
	"lantern/internal/trace"
	"lantern/internal/vfs"
)

var log = commonlog.GetLogger("lantern.astbuild")

// ErrSessionCreation means no front-end session could be configured.
var ErrSessionCreation = errors.New("astbuild: cannot create front-end session")

// Options selects the optional parts of a build.
type Options struct {
	EnableChecks bool
	Tidy         tidy.Options
	// Registry supplies the checks; nil selects tidy.DefaultRegistry.
	Registry               *tidy.Registry
	SuggestMissingIncludes bool
	// Timer receives phase timings; may be nil.
	Timer *observ.Timer
}

// Inputs are what BuildAST needs besides the invocation.
type Inputs struct {
	FS       vfs.FileSystem
	Contents []byte
	Index    index.SymbolIndex
	Opts     Options
}

// BuildAST builds fileName from inputs. With a snapshot, file stats go
// through the snapshot's stat cache; the filesystem wrapper is created per
// build. A snapshot that no longer matches the head of the contents is not
// used. The working directory is entered by BeginSourceFile.
func BuildAST(ctx context.Context, fileName string, inv *frontend.Invocation, invDiags []diag.Diagnostic, inputs Inputs, snap *preamble.Snapshot) (*ParsedAST, error) {
	if inv == nil {
		return nil, fmt.Errorf("%w: no invocation for %s", ErrSessionCreation, fileName)
	}
	if inv.MainFile != vfs.Clean(fileName) {
		inv = inv.Clone()
		inv.MainFile = vfs.Clean(fileName)
	}
	if snap != nil && !snap.CanReuse(inputs.Contents, inv, nil) {
		log.Debugf("preamble of %s does not match its contents, building without it", fileName)
		snap = nil
	}
	fsys := inputs.FS
	if snap != nil && snap.StatCache != nil {
		fsys = vfs.ConsumingFS(fsys, snap.StatCache)
	}
	return Build(ctx, inv, invDiags, snap, inputs.Contents, fsys, inputs.Index, inputs.Opts)
}

// Build runs one build. A nil error always comes with a ParsedAST; problems
// in the source are reported as diagnostics, not errors.
func Build(ctx context.Context, inv *frontend.Invocation, invDiags []diag.Diagnostic, snap *preamble.Snapshot, content []byte,
	fsys vfs.FileSystem, idx index.SymbolIndex, opts Options) (*ParsedAST, error) {
	ctx, span := trace.Start(ctx, trace.ScopeBuild, "BuildAST")
	defer span.End("")
	timer := opts.Timer
	path := inv.MainFile

	var prefix *frontend.Prefix
	if snap != nil {
		prefix = snap.Prefix.Handle()
	}
	done := timer.Track("configure")
	store := diag.NewStore()
	ci, err := frontend.Prepare(inv, prefix, content, fsys, store)
	if err != nil {
		done()
		return nil, fmt.Errorf("%w: %w", ErrSessionCreation, err)
	}
	action := frontend.NewSyntaxOnlyAction()
	if err := action.BeginSourceFile(ci); err != nil {
		done()
		log.Errorf("BeginSourceFile() failed when building AST for %s: %s", path, err)
		return nil, fmt.Errorf("%w: %w", ErrSessionCreation, err)
	}
	session := frontend.NewSession(ci, action)
	done()

	// secondary checks register their listeners and matchers first
	var (
		tctx   *tidy.Context
		finder *tidy.MatchFinder
	)
	if opts.EnableChecks {
		_, initSpan := trace.Start(ctx, trace.ScopePhase, "ClangTidyInit")
		done = timer.Track("tidy init")
		tctx = tidy.NewContext(opts.Tidy)
		tctx.SetDiagnosticsEngine(ci.Diags)
		tctx.SetLangOptions(inv.Lang)
		tctx.SetCurrentFile(path)
		log.Debugf("tidy configuration for %s:\n%s", path, tidy.ConfigurationAsText(opts.Tidy))
		registry := opts.Registry
		if registry == nil {
			registry = tidy.DefaultRegistry()
		}
		finder = tidy.NewMatchFinder()
		checks := tidy.Attach(registry.CreateChecks(tctx), tctx, ci.Sources, ci.PP, finder)
		initSpan.WithExtra("checks", fmt.Sprint(len(checks)))
		initSpan.End("")
		done()
		store.SetLevelAdjuster(levelAdjuster(tctx))
	}

	if opts.SuggestMissingIncludes && idx != nil {
		if buildDir, err := fsys.Getwd(); err == nil {
			inserter := headers.NewIncludeInserter(path, content, ci.PP.HeaderSearch(), buildDir)
			if snap != nil {
				for _, inc := range snap.Includes.MainFileIncludes {
					inserter.AddExisting(inc)
				}
			}
			fixer := includefix.New(ctx, path, inserter, idx, includefix.DefaultRequestLimit)
			store.SetFixContributor(fixer.Fix)
			ci.Sema.SetExternalSource(fixer.UnresolvedNameRecorder())
		} else {
			log.Debugf("no build directory for %s, include fixes disabled: %s", path, err)
		}
	}

	// the replay sees only the listeners registered so far
	var (
		includes  *headers.IncludeStructure
		mainMacro *macros.MainFileMacros
		canonical *canon.CanonicalIncludes
	)
	if snap != nil {
		AttachReplayPreamble(snap.Includes.MainFileIncludes, ci.PP)
		includes = snap.Includes.Clone()
		mainMacro = snap.Macros.Clone()
		canonical = snap.CanonIncludes.Clone()
	} else {
		includes = headers.NewIncludeStructure()
		mainMacro = macros.New()
		canonical = canon.New()
		canonical.AddSystemHeadersMapping(inv.Lang)
	}
	ci.PP.AddCallbacks(headers.CollectIncludeStructure(ci.Sources, includes))
	ci.PP.AddCallbacks(macros.CollectMainFileMacros(ci.Sources, mainMacro))
	ci.PP.AddCommentHandler(canon.CollectIWYUHeaderMaps(ci.Sources, canonical))
	tokens := syntax.NewTokenCollector(ci.PP)
	consumer := NewDeclTrackingConsumer(ci.Sources, ci.AST)
	ci.SetConsumer(consumer)

	done = timer.Track("parse")
	if err := action.Execute(); err != nil {
		log.Errorf("Execute() failed when building AST for %s: %s", path, err)
	}
	done()

	// tokens are taken before checks run so nothing they lex is recorded
	tokBuf := tokens.Consume()
	local := consumer.TopLevelDecls()
	ci.AST.SetTraversalScope(local)
	if finder != nil {
		_, matchSpan := trace.Start(ctx, trace.ScopePhase, "ClangTidyMatch")
		done = timer.Track("tidy match")
		finder.MatchAST(ci.AST)
		done()
		matchSpan.End("")
	}

	// end of file reaches the preprocessor only: checks that flush at end
	// of file still need sema and the AST
	session.EndOfInput()
	ci.Diags.SetClient(diag.IgnoreDiagnostics{})
	store.EndSourceFile()

	var namer diag.CheckNamer
	if tctx != nil {
		namer = tctx
	}
	live := store.Take(namer)
	var pre []diag.Diagnostic
	if snap != nil {
		pre = snap.Diags
	}
	diags := make([]diag.Diagnostic, 0, len(invDiags)+len(pre)+len(live))
	diags = append(diags, invDiags...)
	diags = append(diags, pre...)
	diags = append(diags, live...)

	span.WithExtra("decls", fmt.Sprint(len(local)))
	span.WithExtra("diags", fmt.Sprint(len(diags)))
	return &ParsedAST{
		path:       path,
		session:    session,
		ci:         ci,
		ast:        ci.AST,
		preamble:   snap,
		tokens:     tokBuf,
		macros:     mainMacro,
		diags:      diags,
		includes:   includes,
		canonical:  canonical,
		localDecls: local,
	}, nil
}

// levelAdjuster applies check configuration to check diagnostics: a warning
// of a check listed in WarningsAsErrors becomes an error even under NOLINT;
// otherwise a NOLINT comment in the main file drops it.
func levelAdjuster(tctx *tidy.Context) diag.LevelAdjuster {
	return func(level diag.Severity, info *diag.Info) diag.Severity {
		name := tctx.CheckName(info.Code)
		if name == "" {
			return level
		}
		if level == diag.SevWarning && tctx.TreatAsError(name) {
			return diag.SevError
		}
		sources := info.Sources()
		if sources != nil && sources.IsInsideMainFile(info.Span) && tidy.ShouldSuppressDiagnostic(level, info, tctx, false) {
			return diag.SevIgnored
		}
		return level
	}
}
