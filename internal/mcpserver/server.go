// Package mcpserver exposes lantern builds as Model Context Protocol tools:
// diagnosing a file, dumping its declarations, and listing or applying the
// fixes attached to its diagnostics.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tliron/commonlog"

	"lantern/internal/driver"
	"lantern/internal/version"
)

var log = commonlog.GetLogger("lantern.mcp")

const instructions = `This server analyzes C, C++ and Objective-C files the way a compiler front end does, without generating code.

- Use lantern_diagnose to get compiler and clang-tidy style diagnostics for a file, optionally for unsaved contents.
- Use lantern_fixes to list the fixes attached to those diagnostics, then lantern_apply_fix to write one to disk.
- Use lantern_dump_ast to see the top-level declarations of the file.`

// Setup creates the MCP server with every tool registered.
func Setup(drv *driver.Driver) *mcp.Server {
	h := &Handlers{Driver: drv}
	s := mcp.NewServer(
		&mcp.Implementation{
			Name:    "lantern",
			Version: version.Version,
		},
		&mcp.ServerOptions{Instructions: instructions},
	)

	mcp.AddTool(s, &mcp.Tool{
		Name: "lantern_diagnose",
		Description: `Build one source file and return its diagnostics as JSON.

Paths are relative to the project root unless absolute. When content is given it replaces the file on disk for this build only.`,
	}, h.Diagnose)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "lantern_dump_ast",
		Description: "Build one source file and dump the declarations of its main file.",
	}, h.DumpAST)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "lantern_fixes",
		Description: "List the fixes attached to the diagnostics of a file, one per line as \"id: title\".",
	}, h.Fixes)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "lantern_apply_fix",
		Description: "Apply one fix, named by an id from lantern_fixes, and write the changed files.",
	}, h.ApplyFix)

	return s
}

// Run serves s over stdin/stdout until the client disconnects.
func Run(ctx context.Context, s *mcp.Server) error {
	log.Info("serving MCP over stdio")
	return s.Run(ctx, &mcp.StdioTransport{})
}
