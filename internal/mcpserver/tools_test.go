package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"lantern/internal/config"
	"lantern/internal/driver"
	"lantern/internal/vfs"
)

func newTestHandlers(t *testing.T) (*Handlers, map[string]string) {
	t.Helper()
	fs := vfs.NewMemFS()
	fs.AddFile("/p/main.c", "int __x;\n")
	cfg := config.Default("/p")
	cfg.Tidy.Checks = "-*,bugprone-reserved-identifier"
	drv, err := driver.New(cfg, fs, driver.Options{})
	if err != nil {
		t.Fatalf("failed to create driver: %v", err)
	}
	t.Cleanup(func() { _ = drv.Close() })
	written := make(map[string]string)
	return &Handlers{
		Driver: drv,
		Write: func(path string, data []byte) error {
			written[path] = string(data)
			return nil
		},
	}, written
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if r == nil || len(r.Content) == 0 {
		t.Fatal("empty result")
	}
	return r.Content[0].(*mcp.TextContent).Text
}

func Test_Diagnose_EmptyFilePath(t *testing.T) {
	h, _ := newTestHandlers(t)
	result, _, err := h.Diagnose(context.Background(), nil, FileArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "filePath parameter is required") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func Test_Diagnose_MissingFile(t *testing.T) {
	h, _ := newTestHandlers(t)
	result, _, err := h.Diagnose(context.Background(), nil, FileArgs{FilePath: "absent.c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for a missing file")
	}
}

func Test_Diagnose_RelativePathAndContent(t *testing.T) {
	h, _ := newTestHandlers(t)
	result, _, err := h.Diagnose(context.Background(), nil, FileArgs{FilePath: "main.c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "bugprone-reserved-identifier") {
		t.Errorf("expected the reserved identifier warning, got:\n%s", text)
	}

	// несохранённое содержимое заменяет файл
	result, _, err = h.Diagnose(context.Background(), nil, FileArgs{FilePath: "main.c", Content: "int y;\n"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text := resultText(t, result); strings.Contains(text, "reserved") {
		t.Errorf("content override ignored:\n%s", text)
	}
}

func Test_DumpAST(t *testing.T) {
	h, _ := newTestHandlers(t)
	result, _, err := h.DumpAST(context.Background(), nil, FileArgs{FilePath: "/p/main.c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "__x") {
		t.Errorf("declaration missing from dump:\n%s", text)
	}
}

func Test_FixesAndApply(t *testing.T) {
	h, written := newTestHandlers(t)
	result, _, err := h.Fixes(context.Background(), nil, FileArgs{FilePath: "main.c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	const id = "bugprone-reserved-identifier-main.c-4-0"
	if text := resultText(t, result); text != id+": remove leading underscores\n" {
		t.Fatalf("fixes = %q", text)
	}

	result, _, err = h.ApplyFix(context.Background(), nil, ApplyFixArgs{FilePath: "main.c", FixID: id})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("apply failed: %s", resultText(t, result))
	}
	if got := written["/p/main.c"]; got != "int x;\n" {
		t.Fatalf("written = %q", got)
	}

	result, _, _ = h.ApplyFix(context.Background(), nil, ApplyFixArgs{FilePath: "main.c", FixID: "nope"})
	if !result.IsError || !strings.Contains(resultText(t, result), "fix id not found") {
		t.Fatalf("unknown id: %+v", result)
	}
	result, _, _ = h.ApplyFix(context.Background(), nil, ApplyFixArgs{FilePath: "main.c"})
	if !result.IsError {
		t.Fatal("expected IsError=true without fixId")
	}
}

func Test_SetupRegistersTools(t *testing.T) {
	h, _ := newTestHandlers(t)
	if Setup(h.Driver) == nil {
		t.Fatal("nil server")
	}
}
