package mcpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"lantern/internal/diag"
	"lantern/internal/diagfmt"
	"lantern/internal/driver"
	"lantern/internal/fix"
)

// FileArgs name the file a tool works on.
type FileArgs struct {
	FilePath string `json:"filePath" jsonschema:"Path of the source file, relative to the project root or absolute"`
	Content  string `json:"content,omitempty" jsonschema:"Unsaved contents to build instead of the file on disk"`
}

// ApplyFixArgs select one fix of a file.
type ApplyFixArgs struct {
	FilePath string `json:"filePath" jsonschema:"Path of the source file, relative to the project root or absolute"`
	FixID    string `json:"fixId" jsonschema:"Fix id as listed by lantern_fixes"`
}

// Handlers hold the dependencies of the tools.
type Handlers struct {
	Driver *driver.Driver
	// Write stores fixed files; fix.WriteAtomic by default.
	Write fix.WriteFunc
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func (h *Handlers) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return h.Driver.Config().Resolve(p)
}

// build runs one build for args. A nil result comes with the tool error to
// return.
func (h *Handlers) build(ctx context.Context, tool string, args FileArgs) (*driver.Result, *mcp.CallToolResult) {
	if args.FilePath == "" {
		log.Warningf("%s called with empty filePath", tool)
		return nil, errorResult("filePath parameter is required")
	}
	start := time.Now()
	path := h.resolve(args.FilePath)
	var res *driver.Result
	if args.Content != "" {
		res = h.Driver.Build(ctx, path, []byte(args.Content))
	} else {
		res = h.Driver.ReadFile(ctx, path)
	}
	if res.Fatal() {
		log.Infof("%s %s failed: %s", tool, path, res.Err)
		return nil, errorResult("%s", res.Err)
	}
	log.Infof("%s %s: %d diagnostics in %s", tool, path, len(res.Diagnostics), time.Since(start))
	return res, nil
}

// Diagnose handles lantern_diagnose.
func (h *Handlers) Diagnose(ctx context.Context, req *mcp.CallToolRequest, args FileArgs) (*mcp.CallToolResult, any, error) {
	res, failed := h.build(ctx, "lantern_diagnose", args)
	if failed != nil {
		return failed, nil, nil
	}
	defer res.Close()
	var buf bytes.Buffer
	err := diagfmt.JSON(&buf, res.Diagnostics, h.Driver.FS(), diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         diagfmt.PathModeRelative,
		BaseDir:          h.Driver.Config().Root,
		IncludeNotes:     true,
		IncludeFixes:     true,
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(buf.String()), nil, nil
}

// DumpAST handles lantern_dump_ast.
func (h *Handlers) DumpAST(ctx context.Context, req *mcp.CallToolRequest, args FileArgs) (*mcp.CallToolResult, any, error) {
	res, failed := h.build(ctx, "lantern_dump_ast", args)
	if failed != nil {
		return failed, nil, nil
	}
	defer res.Close()
	var buf bytes.Buffer
	if err := res.AST.Dump(&buf); err != nil {
		return nil, nil, err
	}
	return textResult(buf.String()), nil, nil
}

// Fixes handles lantern_fixes.
func (h *Handlers) Fixes(ctx context.Context, req *mcp.CallToolRequest, args FileArgs) (*mcp.CallToolResult, any, error) {
	res, failed := h.build(ctx, "lantern_fixes", args)
	if failed != nil {
		return failed, nil, nil
	}
	defer res.Close()
	titles := fixTitles(res.Diagnostics)
	ids := fix.Candidates(res.Diagnostics)
	if len(ids) == 0 {
		return textResult("No fixes available."), nil, nil
	}
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%s: %s\n", id, titles[id])
	}
	return textResult(b.String()), nil, nil
}

// ApplyFix handles lantern_apply_fix.
func (h *Handlers) ApplyFix(ctx context.Context, req *mcp.CallToolRequest, args ApplyFixArgs) (*mcp.CallToolResult, any, error) {
	if args.FixID == "" {
		return errorResult("fixId parameter is required"), nil, nil
	}
	res, failed := h.build(ctx, "lantern_apply_fix", FileArgs{FilePath: args.FilePath})
	if failed != nil {
		return failed, nil, nil
	}
	diags := res.Diagnostics
	res.Close()

	out, err := fix.Apply(h.Driver.FS(), diags, fix.ApplyOptions{
		Mode:     fix.ApplyModeID,
		TargetID: args.FixID,
		Write:    h.Write,
	})
	if errors.Is(err, fix.ErrNoFixes) {
		reason := "fix id not found"
		if len(out.Skipped) > 0 {
			reason = out.Skipped[len(out.Skipped)-1].Reason
		}
		return errorResult("%s: %s", args.FixID, reason), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	var b strings.Builder
	for _, a := range out.Applied {
		fmt.Fprintf(&b, "applied %s: %s\n", a.ID, a.Title)
	}
	for _, c := range out.FileChanges {
		fmt.Fprintf(&b, "%s: %d edit(s)\n", c.Path, c.EditCount)
	}
	return textResult(b.String()), nil, nil
}

func fixTitles(diags []diag.Diagnostic) map[string]string {
	titles := make(map[string]string)
	for i := range diags {
		d := &diags[i]
		for j, f := range d.Fixes {
			titles[fix.ID(d, j)] = f.Title
		}
	}
	return titles
}
