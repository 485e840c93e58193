package main

import (
	"github.com/spf13/cobra"

	"lantern/internal/driver"
	"lantern/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the lantern language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func init() {
	lspCmd.Flags().Duration("debounce", lsp.DefaultDebounce, "delay between an edit and the rebuild it triggers")
	lspCmd.Flags().Bool("no-watch", false, "do not watch included headers for changes")
	lspCmd.Flags().Bool("no-checks", false, "skip tidy checks")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}
	noWatch, err := cmd.Flags().GetBool("no-watch")
	if err != nil {
		return err
	}
	noChecks, err := cmd.Flags().GetBool("no-checks")
	if err != nil {
		return err
	}
	server := lsp.NewServer(lsp.ServerOptions{
		Debounce: debounce,
		NoWatch:  noWatch,
		Driver:   driver.Options{NoChecks: noChecks},
	})
	return server.Run()
}
