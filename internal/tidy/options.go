package tidy

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Options configures which checks run and how.
type Options struct {
	// Checks is a comma separated glob list of enabled checks.
	Checks string
	// WarningsAsErrors lists checks whose warnings become errors.
	WarningsAsErrors string
	// CheckOptions holds "check-name.Key" settings.
	CheckOptions map[string]string
}

// DefaultOptions enables every bundled check.
func DefaultOptions() Options {
	return Options{Checks: "*"}
}

// ConfigurationAsText renders opts in the .clang-tidy layout, for logs.
func ConfigurationAsText(opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Checks: '%s'\n", opts.Checks)
	fmt.Fprintf(&b, "WarningsAsErrors: '%s'\n", opts.WarningsAsErrors)
	if len(opts.CheckOptions) > 0 {
		b.WriteString("CheckOptions:\n")
		for _, k := range slices.Sorted(maps.Keys(opts.CheckOptions)) {
			fmt.Fprintf(&b, "  - key: %s\n    value: '%s'\n", k, opts.CheckOptions[k])
		}
	}
	return b.String()
}

type globItem struct {
	pattern  string
	negative bool
}

// GlobList is a parsed comma separated list of globs. A leading '-'
// negates an item; the last item matching a name decides.
type GlobList struct {
	items []globItem
}

// ParseGlobList parses s. Invalid patterns are reported and skipped.
func ParseGlobList(s string) (GlobList, error) {
	var gl GlobList
	var bad []string
	for _, raw := range strings.Split(s, ",") {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}
		neg := strings.HasPrefix(item, "-")
		if neg {
			item = strings.TrimSpace(item[1:])
		}
		if !doublestar.ValidatePattern(item) {
			bad = append(bad, item)
			continue
		}
		gl.items = append(gl.items, globItem{pattern: item, negative: neg})
	}
	if len(bad) > 0 {
		return gl, fmt.Errorf("invalid glob pattern(s): %s", strings.Join(bad, ", "))
	}
	return gl, nil
}

// Contains reports whether name is selected by the list.
func (gl GlobList) Contains(name string) bool {
	for i := len(gl.items) - 1; i >= 0; i-- {
		it := gl.items[i]
		if ok, _ := doublestar.Match(it.pattern, name); ok {
			return !it.negative
		}
	}
	return false
}

// Empty reports whether the list has no items.
func (gl GlobList) Empty() bool { return len(gl.items) == 0 }
