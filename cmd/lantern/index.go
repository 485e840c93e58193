package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lantern/internal/config"
	"lantern/internal/index"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the symbol index used for include fixes",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build [flags] [directory]",
	Short: "Index the declarations of the project headers",
	Long:  `Parse every header under the configured index roots and store the declarations they provide in the index directory`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndexBuild,
}

var indexQueryCmd = &cobra.Command{
	Use:   "query [flags] <name>",
	Short: "List the headers that declare a name",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexQuery,
}

func init() {
	indexBuildCmd.Flags().Int("jobs", 0, "max parallel header parses (0=auto)")
	indexBuildCmd.Flags().String("out", "", "index directory (default: [index] path of the project)")
	indexQueryCmd.Flags().Int("limit", 10, "maximum number of results")
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexQueryCmd)
}

func loadProject(args []string) (*config.Config, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return config.Load(abs)
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject(args)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	if out == "" {
		out = cfg.IndexPath()
	}
	if out == "" {
		return fmt.Errorf("no index path: set [index] path in .lantern.toml or pass --out")
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	builder, err := index.NewBuilder(index.BuilderOptions{
		Roots:    cfg.IndexRoots(),
		Patterns: cfg.Index.Patterns,
		Args:     cfg.Compile.Args,
		Jobs:     jobs,
	})
	if err != nil {
		return err
	}
	idx, err := index.OpenBleveIndex(out)
	if err != nil {
		return fmt.Errorf("failed to open index %s: %w", out, err)
	}
	defer idx.Close()

	stats, err := builder.Run(cmd.Context(), idx)
	if err != nil {
		return err
	}
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	if !quiet {
		fmt.Fprintf(os.Stdout, "indexed %d symbols from %d headers into %s", stats.Symbols, stats.Files, out)
		if stats.Failed > 0 {
			fmt.Fprintf(os.Stdout, " (%d failed)", stats.Failed)
		}
		fmt.Fprintln(os.Stdout)
	}
	return nil
}

func runIndexQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject(nil)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to get limit flag: %w", err)
	}
	path := cfg.IndexPath()
	if path == "" {
		return fmt.Errorf("no index configured")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("index %s not built: run lantern index build", path)
	}
	idx, err := index.OpenBleveIndex(path)
	if err != nil {
		return err
	}
	defer idx.Close()
	syms, err := idx.FindProviders(cmd.Context(), args[0], limit)
	if err != nil {
		return err
	}
	for _, s := range syms {
		fmt.Fprintf(os.Stdout, "%s\t%s\n", s.Name, s.Header)
	}
	return nil
}
