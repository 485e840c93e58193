// Package config loads the project settings of lantern: .lantern.toml found
// above the analyzed file, a .env file next to it, and the process
// environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/tliron/commonlog"

	"lantern/internal/tidy"
)

var log = commonlog.GetLogger("lantern.config")

// Environment variables read by Load.
const (
	EnvCacheDir = "LANTERN_CACHE_DIR"
	EnvIndex    = "LANTERN_INDEX"
	EnvChecks   = "LANTERN_CHECKS"
)

// DefaultCacheSize is the number of preambles kept in memory.
const DefaultCacheSize = 32

type CompileConfig struct {
	Args             []string `toml:"args"`
	WorkingDirectory string   `toml:"working_directory"`
}

type TidyConfig struct {
	Enabled          *bool             `toml:"enabled"`
	Checks           string            `toml:"checks"`
	WarningsAsErrors string            `toml:"warnings_as_errors"`
	Options          map[string]string `toml:"options"`
}

type IndexConfig struct {
	Path                   string   `toml:"path"`
	Roots                  []string `toml:"roots"`
	Patterns               []string `toml:"patterns"`
	SuggestMissingIncludes *bool    `toml:"suggest_missing_includes"`
}

type PreambleConfig struct {
	CacheDir  string `toml:"cache_dir"`
	CacheSize int    `toml:"cache_size"`
}

// Config is the merged configuration of one project.
type Config struct {
	// Root is the directory relative paths are resolved against.
	Root string `toml:"-"`
	// Path is the .lantern.toml that was read, or "".
	Path     string         `toml:"-"`
	Compile  CompileConfig  `toml:"compile"`
	Tidy     TidyConfig     `toml:"tidy"`
	Index    IndexConfig    `toml:"index"`
	Preamble PreambleConfig `toml:"preamble"`
}

// Default is the configuration used without a project file.
func Default(root string) *Config {
	return &Config{
		Root:     root,
		Tidy:     TidyConfig{Checks: tidy.DefaultOptions().Checks},
		Preamble: PreambleConfig{CacheSize: DefaultCacheSize},
	}
}

// Load finds .lantern.toml above startDir and merges it with the .env file
// of the project root and the environment. Without a project file the
// defaults apply, rooted at startDir.
func Load(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		root, err := filepath.Abs(startDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve start directory: %w", err)
		}
		cfg := Default(root)
		if err := cfg.applyEnv(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads one project file.
func LoadFile(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		log.Warningf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if cfg.Preamble.CacheSize < 0 {
		return nil, fmt.Errorf("%s: [preamble].cache_size must not be negative", path)
	}
	if cfg.Preamble.CacheSize == 0 {
		cfg.Preamble.CacheSize = DefaultCacheSize
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from .env in Root, then from the process
// environment.
func (c *Config) applyEnv() error {
	env := map[string]string{}
	dotenv := filepath.Join(c.Root, ".env")
	if vals, err := godotenv.Read(dotenv); err == nil {
		env = vals
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", dotenv, err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := env[key]
		return v, ok
	}
	if v, ok := lookup(EnvCacheDir); ok {
		c.Preamble.CacheDir = v
	}
	if v, ok := lookup(EnvIndex); ok {
		c.Index.Path = v
	}
	if v, ok := lookup(EnvChecks); ok {
		c.Tidy.Checks = v
	}
	return nil
}

// Resolve makes p absolute against Root. Empty stays empty.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, filepath.FromSlash(p))
}

// CacheDir is the absolute preamble cache directory, or "" when disabled.
func (c *Config) CacheDir() string { return c.Resolve(c.Preamble.CacheDir) }

// IndexPath is the absolute index directory, or "" for none.
func (c *Config) IndexPath() string { return c.Resolve(c.Index.Path) }

// IndexRoots are the directories scanned by `index build`; Root by default.
func (c *Config) IndexRoots() []string {
	if len(c.Index.Roots) == 0 {
		return []string{c.Root}
	}
	out := make([]string, 0, len(c.Index.Roots))
	for _, r := range c.Index.Roots {
		out = append(out, c.Resolve(r))
	}
	return out
}

// ChecksEnabled reports whether tidy checks run; on by default.
func (c *Config) ChecksEnabled() bool {
	return c.Tidy.Enabled == nil || *c.Tidy.Enabled
}

// SuggestMissingIncludes reports whether include fixes are requested; on
// by default when an index is configured.
func (c *Config) SuggestMissingIncludes() bool {
	if c.Index.SuggestMissingIncludes != nil {
		return *c.Index.SuggestMissingIncludes
	}
	return c.Index.Path != ""
}

// TidyOptions converts the [tidy] section.
func (c *Config) TidyOptions() tidy.Options {
	opts := tidy.Options{
		Checks:           c.Tidy.Checks,
		WarningsAsErrors: c.Tidy.WarningsAsErrors,
	}
	if len(c.Tidy.Options) > 0 {
		opts.CheckOptions = make(map[string]string, len(c.Tidy.Options))
		for k, v := range c.Tidy.Options {
			opts.CheckOptions[k] = v
		}
	}
	return opts
}

// CommandLine is the compile command for file: the driver name, the
// configured arguments, the working directory and the file.
func (c *Config) CommandLine(file string) []string {
	args := make([]string, 0, len(c.Compile.Args)+4)
	args = append(args, "clang")
	args = append(args, c.Compile.Args...)
	wd := c.Compile.WorkingDirectory
	if wd == "" {
		wd = c.Root
	}
	args = append(args, "-working-directory", c.Resolve(wd))
	return append(args, file)
}
