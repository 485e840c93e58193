package main

import (
	"os"

	"github.com/spf13/cobra"

	"lantern/internal/config"
	"lantern/internal/driver"
	"lantern/internal/mcpserver"
	"lantern/internal/vfs"
)

var mcpCmd = &cobra.Command{
	Use:          "mcp",
	Short:        "Run an MCP server exposing diagnostics and fixes over stdio",
	SilenceUsage: true,
	RunE:         runMCP,
}

func init() {
	mcpCmd.Flags().String("root", "", "project root (default: current directory)")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return err
	}
	if root == "" {
		if root, err = os.Getwd(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	drv, err := driver.New(cfg, vfs.NewOSFS(), driver.Options{})
	if err != nil {
		return err
	}
	defer drv.Close()
	return mcpserver.Run(cmd.Context(), mcpserver.Setup(drv))
}
