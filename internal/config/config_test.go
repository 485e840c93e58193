package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const project = `
[compile]
args = ["-std=c++17", "-Iinclude"]

[tidy]
checks = "-*,bugprone-*"
warnings_as_errors = "bugprone-*"

[tidy.options]
"portability-restrict-system-includes.Includes" = "-**,stdio.h"

[index]
path = ".lantern/index"

[preamble]
cache_dir = ".lantern/preamble"
`

func TestLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, FileName), project)
	nested := filepath.Join(root, "src", "net")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Root != root || cfg.Path != filepath.Join(root, FileName) {
		t.Fatalf("root %q path %q", cfg.Root, cfg.Path)
	}
	if cfg.IndexPath() != filepath.Join(root, ".lantern", "index") || cfg.CacheDir() != filepath.Join(root, ".lantern", "preamble") {
		t.Errorf("index %q cache %q", cfg.IndexPath(), cfg.CacheDir())
	}
	if cfg.Preamble.CacheSize != DefaultCacheSize || !cfg.ChecksEnabled() || !cfg.SuggestMissingIncludes() {
		t.Errorf("defaults lost: %+v", cfg)
	}
	opts := cfg.TidyOptions()
	if opts.Checks != "-*,bugprone-*" || opts.WarningsAsErrors != "bugprone-*" ||
		opts.CheckOptions["portability-restrict-system-includes.Includes"] != "-**,stdio.h" {
		t.Errorf("tidy options = %+v", opts)
	}
	want := []string{"clang", "-std=c++17", "-Iinclude", "-working-directory", root, "/p/a.cc"}
	if got := cfg.CommandLine("/p/a.cc"); !reflect.DeepEqual(got, want) {
		t.Errorf("command line = %q", got)
	}
	if got := cfg.IndexRoots(); !reflect.DeepEqual(got, []string{root}) {
		t.Errorf("index roots = %q", got)
	}
}

func TestLoadWithoutProjectFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" || cfg.Root != dir || cfg.IndexPath() != "" || cfg.SuggestMissingIncludes() {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Tidy.Checks != "*" {
		t.Errorf("checks = %q", cfg.Tidy.Checks)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, FileName), project)
	write(t, filepath.Join(root, ".env"), "LANTERN_CACHE_DIR=/tmp/pre\nLANTERN_INDEX=idx\n")

	// .env перекрывает toml, окружение перекрывает .env
	t.Setenv(EnvIndex, "/srv/index")
	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CacheDir() != "/tmp/pre" {
		t.Errorf("cache dir = %q", cfg.CacheDir())
	}
	if cfg.IndexPath() != "/srv/index" {
		t.Errorf("index = %q", cfg.IndexPath())
	}
}

func TestDisabledSections(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, FileName), "[tidy]\nenabled = false\n[index]\npath = \"i\"\nsuggest_missing_includes = false\n")
	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ChecksEnabled() || cfg.SuggestMissingIncludes() {
		t.Fatalf("sections not disabled: %+v", cfg)
	}
}

func TestBadProjectFile(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, FileName), "[preamble]\ncache_size = -1\n")
	if _, err := Load(root); err == nil {
		t.Fatal("negative cache size accepted")
	}
	write(t, filepath.Join(root, FileName), "[compile\n")
	if _, err := Load(root); err == nil {
		t.Fatal("broken TOML accepted")
	}
}
