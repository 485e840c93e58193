package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lantern/internal/config"
	"lantern/internal/diag"
	"lantern/internal/diagfmt"
	"lantern/internal/driver"
	"lantern/internal/fix"
	"lantern/internal/ui"
	"lantern/internal/version"
	"lantern/internal/vfs"
)

// errCheckFailed is returned when a file has errors; they are already on
// stdout, so main prints nothing more.
var errCheckFailed = errors.New("check failed")

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file|directory>...",
	Short: "Build files and report their diagnostics",
	Long:  `Build the AST of each file, run the configured tidy checks and report diagnostics. Directories are searched for C-family sources.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif|short)")
	checkCmd.Flags().Int("jobs", 0, "max parallel builds (0=auto)")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	checkCmd.Flags().Bool("fix", false, "apply the first available fix")
	checkCmd.Flags().Bool("fix-all", false, "apply all available fixes")
	checkCmd.Flags().String("fix-id", "", "apply the fix with a specific identifier")
	checkCmd.Flags().Bool("no-checks", false, "skip tidy checks")
	checkCmd.Flags().Bool("no-preamble", false, "build without preamble snapshots")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions and previews in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

type checkFlags struct {
	format     string
	jobs       int
	ui         uiMode
	fixMode    fix.ApplyMode
	fixID      string
	fixing     bool
	noChecks   bool
	noPreamble bool
	withNotes  bool
	suggest    bool
	fullPath   bool
	quiet      bool
	timings    bool
	args       []string
}

func readCheckFlags(cmd *cobra.Command) (checkFlags, error) {
	var (
		f   checkFlags
		err error
	)
	flags := cmd.Flags()
	if f.format, err = flags.GetString("format"); err != nil {
		return f, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch f.format {
	case "pretty", "json", "sarif", "short":
	default:
		return f, fmt.Errorf("unknown format: %s", f.format)
	}
	if f.jobs, err = flags.GetInt("jobs"); err != nil {
		return f, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiStr, err := flags.GetString("ui")
	if err != nil {
		return f, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if f.ui, err = readUIMode(uiStr); err != nil {
		return f, err
	}

	once, err := flags.GetBool("fix")
	if err != nil {
		return f, fmt.Errorf("failed to get fix flag: %w", err)
	}
	all, err := flags.GetBool("fix-all")
	if err != nil {
		return f, fmt.Errorf("failed to get fix-all flag: %w", err)
	}
	if f.fixID, err = flags.GetString("fix-id"); err != nil {
		return f, fmt.Errorf("failed to get fix-id flag: %w", err)
	}
	switch {
	case f.fixID != "" && (once || all):
		return f, fmt.Errorf("--fix-id cannot be combined with --fix or --fix-all")
	case once && all:
		return f, fmt.Errorf("--fix and --fix-all are mutually exclusive")
	case f.fixID != "":
		f.fixMode, f.fixing = fix.ApplyModeID, true
	case all:
		f.fixMode, f.fixing = fix.ApplyModeAll, true
	case once:
		f.fixMode, f.fixing = fix.ApplyModeOnce, true
	}

	for name, dst := range map[string]*bool{
		"no-checks":   &f.noChecks,
		"no-preamble": &f.noPreamble,
		"with-notes":  &f.withNotes,
		"suggest":     &f.suggest,
		"fullpath":    &f.fullPath,
	} {
		if *dst, err = flags.GetBool(name); err != nil {
			return f, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
	}

	root := cmd.Root().PersistentFlags()
	if f.quiet, err = root.GetBool("quiet"); err != nil {
		return f, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if f.timings, err = root.GetBool("timings"); err != nil {
		return f, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if root.Changed("arg") {
		if f.args, err = root.GetStringSlice("arg"); err != nil {
			return f, fmt.Errorf("failed to get arg flag: %w", err)
		}
	}
	return f, nil
}

// runCheck executes the "check" command: it builds every file, prints the
// diagnostics in the chosen format, applies fixes when asked and fails when
// any file has errors or could not be built.
func runCheck(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)

	flags, err := readCheckFlags(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	files, err := collectSources(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no source files found in %v", args)
	}
	cfg, err := config.Load(filepath.Dir(files[0]))
	if err != nil {
		return err
	}
	opts := driver.Options{
		Args:       flags.args,
		NoChecks:   flags.noChecks,
		NoPreamble: flags.noPreamble,
		Timings:    flags.timings,
	}

	ctx := cmd.Context()
	var (
		drv     *driver.Driver
		results []*driver.Result
	)
	if shouldUseTUI(flags.ui, flags.format, len(files)) {
		drv, results, err = runChecksWithUI(ctx, "checking", files, cfg, opts, flags.jobs)
	} else {
		drv, err = driver.New(cfg, vfs.NewOSFS(), opts)
		if err == nil {
			results, err = drv.BuildAll(ctx, files, flags.jobs, nil)
		}
	}
	if drv != nil {
		defer drv.Close()
	}
	defer func() {
		for _, r := range results {
			r.Close()
		}
	}()
	if err != nil {
		return err
	}

	failed := false
	var diags []diag.Diagnostic
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Fatal() {
			failed = true
			fmt.Fprintf(os.Stderr, "%s: fatal: %v\n", r.Path, r.Err)
			continue
		}
		diags = append(diags, r.Diagnostics...)
	}
	shown := diags
	if flags.quiet {
		shown = errorsOnly(diags)
	}
	if err := report(cmd, os.Stdout, results, shown, drv, flags); err != nil {
		return err
	}

	if flags.fixing {
		res, applyErr := fix.Apply(drv.FS(), diags, fix.ApplyOptions{Mode: flags.fixMode, TargetID: flags.fixID})
		if err := handleApplyResult(os.Stdout, res, applyErr); err != nil {
			return err
		}
	}
	if flags.timings {
		if err := printTimings(os.Stderr, results, cfg.Root); err != nil {
			return err
		}
	}

	if failed {
		return errCheckFailed
	}
	if _, errs := ui.Count(diags); errs > 0 && !flags.fixing {
		return errCheckFailed
	}
	return nil
}

// collectSources expands directories into the sources they contain and
// makes every path absolute.
func collectSources(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("check: %w", err)
		}
		if !info.IsDir() {
			files = append(files, abs)
			continue
		}
		found, err := driver.ListSources(abs)
		if err != nil {
			return nil, fmt.Errorf("check: %w", err)
		}
		files = append(files, found...)
	}
	return files, nil
}

func report(cmd *cobra.Command, out io.Writer, results []*driver.Result, diags []diag.Diagnostic, drv *driver.Driver, flags checkFlags) error {
	root := drv.Config().Root
	pathMode := diagfmt.PathModeRelative
	if flags.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	switch flags.format {
	case "pretty":
		return diagfmt.Pretty(out, diags, drv.FS(), diagfmt.PrettyOpts{
			Color:       useColor(cmd, os.Stdout),
			Context:     2,
			PathMode:    pathMode,
			BaseDir:     root,
			ShowNotes:   flags.withNotes,
			ShowFixes:   flags.suggest,
			ShowPreview: flags.suggest,
		})
	case "short":
		return printShort(out, diags, root, flags.fullPath)
	case "json":
		opts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			BaseDir:          root,
			IncludeNotes:     flags.withNotes,
			IncludeFixes:     flags.suggest,
			IncludePreviews:  flags.suggest,
		}
		output := make(map[string]diagfmt.DiagnosticsOutput, len(results))
		for _, r := range results {
			if r == nil || r.Fatal() {
				continue
			}
			ds := r.Diagnostics
			if flags.quiet {
				ds = errorsOnly(ds)
			}
			output[displayPath(r.Path, root)] = diagfmt.BuildDiagnosticsOutput(ds, drv.FS(), opts)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	case "sarif":
		return diagfmt.Sarif(out, diags, diagfmt.SarifRunMeta{
			ToolName:       "lantern",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args,
		})
	}
	return fmt.Errorf("unknown format: %s", flags.format)
}

// printShort writes one line per diagnostic:
//
//	path:line:col: severity: message [name]
func printShort(out io.Writer, diags []diag.Diagnostic, baseDir string, fullPath bool) error {
	for i := range diags {
		d := &diags[i]
		loc := "<command line>"
		if !d.Range.IsZero() {
			path := d.Range.Path
			if !fullPath {
				path = displayPath(path, baseDir)
			}
			loc = fmt.Sprintf("%s:%d:%d", path, d.Range.Start.Line, d.Range.Start.Col)
		}
		if _, err := fmt.Fprintf(out, "%s: %s: %s [%s]\n", loc, d.Severity.Label(), d.Message, d.Name()); err != nil {
			return err
		}
	}
	return nil
}

func errorsOnly(diags []diag.Diagnostic) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range diags {
		if d.Severity >= diag.SevError {
			out = append(out, d)
		}
	}
	return out
}
