package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// SourceExtensions are the file suffixes ListSources picks up.
var SourceExtensions = []string{".c", ".cc", ".cpp", ".cxx", ".m", ".mm"}

// ListSources returns the sorted source files under dir.
func ListSources(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if isSource(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// детерминированный порядок
	sort.Strings(files)
	return files, nil
}

func isSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// BuildAll builds paths with at most jobs builds at once (GOMAXPROCS when
// jobs <= 0). Results come back in the order of paths; each is also passed
// to visit as soon as it finishes, from the building goroutine, so visit
// must be safe for concurrent use. An error from visit cancels the builds
// not yet started.
func (d *Driver) BuildAll(ctx context.Context, paths []string, jobs int, visit func(*Result) error) ([]*Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	// индексы уникальны для каждой горутины, мьютекс не нужен
	results := make([]*Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if d.opts.Progress != nil {
				d.opts.Progress.Started(path)
			}
			res := d.ReadFile(gctx, path)
			results[i] = res
			if d.opts.Progress != nil {
				d.opts.Progress.Finished(res)
			}
			if visit != nil {
				return visit(res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
