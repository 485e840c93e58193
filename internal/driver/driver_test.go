package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"

	"lantern/internal/config"
	"lantern/internal/diag"
	"lantern/internal/frontend"
	"lantern/internal/testkit"
	"lantern/internal/vfs"
)

const mainSource = "#include \"a.h\"\nint main(void) { return a; }\n"

func newDriver(t *testing.T, opts Options) (*Driver, *vfs.MemFS) {
	t.Helper()
	fs := vfs.NewMemFS()
	fs.AddFile("/p/a.h", "int a;\n")
	fs.AddFile("/p/main.c", mainSource)
	fs.AddFile("/p/other.c", "#include \"a.h\"\nint other(void) { return a + 1; }\n")
	d, err := New(config.Default("/p"), fs, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, fs
}

func codes(ds []diag.Diagnostic) []diag.Code {
	var out []diag.Code
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

func TestBuildReusesPreamble(t *testing.T) {
	d, _ := newDriver(t, Options{})
	ctx := context.Background()
	first := d.ReadFile(ctx, "/p/main.c")
	defer first.Close()
	if first.Fatal() {
		t.Fatal(first.Err)
	}
	if first.PreambleReused {
		t.Fatal("cold build reported a reused preamble")
	}
	// правка тела не трогает preamble
	second := d.Build(ctx, "/p/main.c", []byte(mainSource+"int extra;\n"))
	defer second.Close()
	if second.Fatal() || !second.PreambleReused {
		t.Fatalf("warm build: err %v, reused %v", second.Err, second.PreambleReused)
	}
	for _, r := range []*Result{first, second} {
		if err := testkit.CheckASTInvariants(r.AST); err != nil {
			t.Fatal(err)
		}
	}
	if !reflect.DeepEqual(codes(first.Diagnostics), codes(second.Diagnostics)) {
		t.Fatalf("diagnostics differ: %v vs %v", codes(first.Diagnostics), codes(second.Diagnostics))
	}
	if d.Cache().Len() != 1 {
		t.Fatalf("cache holds %d snapshots", d.Cache().Len())
	}
}

func TestMissingFileIsFatal(t *testing.T) {
	d, _ := newDriver(t, Options{})
	res := d.ReadFile(context.Background(), "/p/absent.c")
	if !res.Fatal() || res.AST != nil || !errors.Is(res.Err, frontend.ErrNoInput) {
		t.Fatalf("missing file: %+v", res)
	}
	res.Close()
}

func TestOptionsOverrideConfig(t *testing.T) {
	d, _ := newDriver(t, Options{NoChecks: true, Args: []string{"--bogus"}, Timings: true})
	res := d.ReadFile(context.Background(), "/p/main.c")
	defer res.Close()
	if res.Fatal() {
		t.Fatal(res.Err)
	}
	var sawArg bool
	for _, dg := range res.Diagnostics {
		if dg.Origin == diag.OriginTidy {
			t.Fatalf("check ran with NoChecks: %+v", dg)
		}
		if dg.Code == diag.DrvUnknownArgument {
			sawArg = true
		}
	}
	if !sawArg {
		t.Fatalf("override args ignored: %v", codes(res.Diagnostics))
	}
	if res.Timing == nil || len(res.Timing.Phases) == 0 {
		t.Fatal("no timings recorded")
	}
}

func TestNoPreamble(t *testing.T) {
	d, _ := newDriver(t, Options{NoPreamble: true})
	res := d.ReadFile(context.Background(), "/p/main.c")
	defer res.Close()
	if res.Fatal() || res.AST.Preamble() != nil || d.Cache().Len() != 0 {
		t.Fatalf("preamble used: %+v", res)
	}
}

func TestBuildAllKeepsOrder(t *testing.T) {
	d, _ := newDriver(t, Options{})
	paths := []string{"/p/other.c", "/p/main.c", "/p/absent.c"}
	var visited atomic.Int32
	results, err := d.BuildAll(context.Background(), paths, 2, func(r *Result) error {
		visited.Add(1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Fatalf("result %d is %s", i, r.Path)
		}
		r.Close()
	}
	if visited.Load() != 3 || !results[2].Fatal() || results[0].Fatal() {
		t.Fatalf("visited %d", visited.Load())
	}
}

func TestBuildAllStopsOnVisitError(t *testing.T) {
	d, _ := newDriver(t, Options{})
	stop := errors.New("stop")
	results, err := d.BuildAll(context.Background(), []string{"/p/main.c"}, 1, func(r *Result) error {
		r.Close()
		return stop
	})
	if !errors.Is(err, stop) || len(results) != 1 {
		t.Fatalf("err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.BuildAll(ctx, []string{"/p/main.c"}, 1, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled: %v", err)
	}
}

func TestListSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.c", "a.cpp", "inc/x.h", "sub/c.m", ".hidden/d.c"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := ListSources(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.cpp"), filepath.Join(dir, "b.c"), filepath.Join(dir, "sub/c.m")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sources = %v", got)
	}
}
