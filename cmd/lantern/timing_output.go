package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"lantern/internal/driver"
	"lantern/internal/observ"
)

// printTimings writes the phase timings of each result followed by the sum
// per phase when more than one file was built.
func printTimings(out io.Writer, results []*driver.Result, baseDir string) error {
	if out == nil {
		return nil
	}
	var (
		order  []string
		totals = make(map[string]float64)
		all    float64
		count  int
	)
	for _, r := range results {
		if r == nil || r.Timing == nil {
			continue
		}
		count++
		if _, err := fmt.Fprintf(out, "%s: %.1f ms\n", displayPath(r.Path, baseDir), r.Timing.TotalMS); err != nil {
			return err
		}
		for _, p := range r.Timing.Phases {
			if _, err := fmt.Fprintf(out, "  %-24s %8.2f ms\n", p.Name, p.DurationMS); err != nil {
				return err
			}
			if _, seen := totals[p.Name]; !seen {
				order = append(order, p.Name)
			}
			totals[p.Name] += p.DurationMS
		}
		all += r.Timing.TotalMS
	}
	if count < 2 {
		return nil
	}
	sum := observ.Report{TotalMS: all}
	for _, name := range order {
		sum.Phases = append(sum.Phases, observ.PhaseReport{Name: name, DurationMS: totals[name]})
	}
	if _, err := fmt.Fprintf(out, "total (%d files): %.1f ms\n", count, sum.TotalMS); err != nil {
		return err
	}
	for _, p := range sum.Phases {
		if _, err := fmt.Fprintf(out, "  %-24s %8.2f ms\n", p.Name, p.DurationMS); err != nil {
			return err
		}
	}
	return nil
}

func displayPath(path, baseDir string) string {
	if baseDir == "" {
		return path
	}
	if rel, err := filepath.Rel(baseDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
