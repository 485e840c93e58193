package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lantern/internal/config"
	"lantern/internal/diagfmt"
	"lantern/internal/driver"
	"lantern/internal/vfs"
)

var dumpASTCmd = &cobra.Command{
	Use:   "dump-ast [flags] <file>",
	Short: "Print the declarations written in a file",
	Long:  `Build a file and print the AST of its top-level declarations. Declarations from headers are not shown.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDumpAST,
}

var dumpTokensCmd = &cobra.Command{
	Use:   "dump-tokens [flags] <file>",
	Short: "Print the tokens of a file",
	Long:  `Build a file and print the tokens of its main buffer as spelled, or after macro expansion with --expanded`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDumpTokens,
}

func init() {
	dumpTokensCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	dumpTokensCmd.Flags().Bool("expanded", false, "print tokens after macro expansion")
}

// buildOne builds a single file for the dump commands. Diagnostics go to
// stderr; a failed build is returned as an error.
func buildOne(cmd *cobra.Command, path string) (*driver.Driver, *driver.Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(filepath.Dir(abs))
	if err != nil {
		return nil, nil, err
	}
	opts := driver.Options{}
	if cmd.Root().PersistentFlags().Changed("arg") {
		if opts.Args, err = cmd.Root().PersistentFlags().GetStringSlice("arg"); err != nil {
			return nil, nil, err
		}
	}
	drv, err := driver.New(cfg, vfs.NewOSFS(), opts)
	if err != nil {
		return nil, nil, err
	}
	res := drv.ReadFile(cmd.Context(), abs)
	if res.Fatal() {
		_ = drv.Close()
		return nil, nil, fmt.Errorf("build failed: %w", res.Err)
	}
	if errs := errorsOnly(res.Diagnostics); len(errs) > 0 {
		_ = diagfmt.Pretty(os.Stderr, errs, drv.FS(), diagfmt.PrettyOpts{
			Color:    useColor(cmd, os.Stderr),
			PathMode: diagfmt.PathModeRelative,
			BaseDir:  cfg.Root,
		})
	}
	return drv, res, nil
}

func runDumpAST(cmd *cobra.Command, args []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	drv, res, err := buildOne(cmd, args[0])
	if err != nil {
		return err
	}
	defer drv.Close()
	defer res.Close()
	return res.AST.Dump(os.Stdout)
}

func runDumpTokens(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	expanded, err := cmd.Flags().GetBool("expanded")
	if err != nil {
		return fmt.Errorf("failed to get expanded flag: %w", err)
	}

	drv, res, err := buildOne(cmd, args[0])
	if err != nil {
		return err
	}
	defer drv.Close()
	defer res.Close()

	tokens := res.AST.Tokens().Spelled()
	if expanded {
		tokens = res.AST.Tokens().Expanded()
	}
	sources := res.AST.Context().Sources()
	switch format {
	case "pretty":
		return diagfmt.FormatTokensPretty(os.Stdout, tokens, sources)
	case "json":
		return diagfmt.FormatTokensJSON(os.Stdout, tokens, sources)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
