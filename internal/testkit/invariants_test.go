package testkit

import (
	"context"
	"strings"
	"testing"

	"lantern/internal/astbuild"
	"lantern/internal/frontend"
	"lantern/internal/preamble"
	"lantern/internal/vfs"
)

func build(t *testing.T, withPreamble bool) *astbuild.ParsedAST {
	t.Helper()
	fs := vfs.NewMemFS()
	fs.AddFile("/w/a.h", "int a;\nint helper(int);\n")
	src := "#include \"a.h\"\nint x = ;\nint main(void) { return helper(a); }\nstatic int y;\n"
	fs.AddFile("/w/main.c", src)
	inv, invDiags := frontend.ParseInvocation([]string{"/w/main.c"})
	var snap *preamble.Snapshot
	if withPreamble {
		var err error
		snap, err = preamble.Build(context.Background(), inv, []byte(src), fs)
		if err != nil {
			t.Fatal(err)
		}
	}
	a, err := astbuild.BuildAST(context.Background(), inv.MainFile, inv, invDiags,
		astbuild.Inputs{FS: fs, Contents: []byte(src)}, snap)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestInvariantsHoldColdAndWarm(t *testing.T) {
	for _, warm := range []bool{false, true} {
		a := build(t, warm)
		if err := CheckASTInvariants(a); err != nil {
			t.Errorf("warm=%v: %v", warm, err)
		}
		a.Close()
	}
}

func TestInvariantsRejectClosed(t *testing.T) {
	a := build(t, false)
	a.Close()
	err := CheckASTInvariants(a)
	if err == nil || !strings.Contains(err.Error(), "closed") {
		t.Fatalf("err = %v", err)
	}
	if CheckASTInvariants(nil) == nil {
		t.Fatal("nil AST passed")
	}
}
