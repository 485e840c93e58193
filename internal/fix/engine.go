package fix

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tliron/commonlog"

	"lantern/internal/diag"
	"lantern/internal/vfs"
)

var log = commonlog.GetLogger("lantern.fix")

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	ApplyModeOnce ApplyMode = iota
	ApplyModeAll
	ApplyModeID
)

// WriteFunc stores the new content of a file.
type WriteFunc func(path string, data []byte) error

// ApplyOptions configures how fixes are selected and written.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// Write defaults to WriteAtomic.
	Write WriteFunc
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID          string
	Title       string
	Name        string
	Message     string
	PrimaryPath string
	EditCount   int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	Path      string
	EditCount int
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	id    string
	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

// ID names fix number idx of d. It is stable across builds of unchanged
// content.
func ID(d *diag.Diagnostic, idx int) string {
	return fmt.Sprintf("%s-%s-%d-%d", d.Name(), filepath.Base(d.Range.Path), d.Range.StartOff, idx)
}

// Candidates lists the IDs of the fixes attached to diagnostics, in the
// order Apply considers them.
func Candidates(diagnostics []diag.Diagnostic) []string {
	cands, _ := gatherCandidates(diagnostics)
	sortCandidates(cands)
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.id)
	}
	return out
}

// Apply collects fixes from diagnostics, selects a subset according to opts,
// and writes the edited files. Files are read through fsys.
func Apply(fsys vfs.FileSystem, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{
		Applied:     make([]AppliedFix, 0),
		Skipped:     make([]SkippedFix, 0),
		FileChanges: make([]FileChange, 0),
	}
	if fsys == nil {
		return result, fmt.Errorf("fix: file system is nil")
	}
	if opts.Write == nil {
		opts.Write = WriteAtomic
	}

	candidates, buildSkips := gatherCandidates(diagnostics)
	result.Skipped = append(result.Skipped, buildSkips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}

	sortCandidates(candidates)

	selected, selectionSkips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, selectionSkips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	applied, skippedDuringApply, changes, err := applyCandidates(fsys, selected, opts.Write)
	result.Applied = append(result.Applied, applied...)
	result.Skipped = append(result.Skipped, skippedDuringApply...)
	result.FileChanges = append(result.FileChanges, changes...)

	if err != nil {
		return result, err
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

// gatherCandidates turns every fix with edits into a candidate. Fixes with
// no edits, edits outside any file and repeated IDs are skipped.
func gatherCandidates(diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	cands := make([]candidate, 0)
	skips := make([]SkippedFix, 0)
	seen := make(map[string]bool)

	order := 0
	for i := range diagnostics {
		d := &diagnostics[i]
		for idx, f := range d.Fixes {
			id := ID(d, idx)
			switch {
			case len(f.Edits) == 0:
				skips = append(skips, SkippedFix{ID: id, Title: f.Title, Reason: "fix has no edits"})
				continue
			case !editsHavePaths(f.Edits):
				skips = append(skips, SkippedFix{ID: id, Title: f.Title, Reason: "edit has no file"})
				continue
			case seen[id]:
				skips = append(skips, SkippedFix{ID: id, Title: f.Title, Reason: "duplicate fix id"})
				continue
			}
			seen[id] = true
			cands = append(cands, candidate{id: id, diag: *d, fix: f, order: order})
			order++
		}
	}
	return cands, skips
}

func editsHavePaths(edits []diag.FixEdit) bool {
	for _, e := range edits {
		if e.Range.IsZero() {
			return false
		}
	}
	return true
}

// sortCandidates orders candidates by file, start, end and then insertion
// order.
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i].diag.Range, candidates[j].diag.Range
		if ri.Path != rj.Path {
			return ri.Path < rj.Path
		}
		if ri.StartOff != rj.StartOff {
			return ri.StartOff < rj.StartOff
		}
		if ri.EndOff != rj.EndOff {
			return ri.EndOff < rj.EndOff
		}
		return candidates[i].order < candidates[j].order
	})
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.id == opts.TargetID {
				return []candidate{cand}, nil
			}
		}
		return nil, []SkippedFix{{
			ID:     opts.TargetID,
			Reason: "fix id not found",
		}}
	case ApplyModeAll:
		// одна правка на диагностику: первая из альтернатив
		selected := make([]candidate, 0, len(candidates))
		skipped := make([]SkippedFix, 0)
		taken := make(map[string]bool)
		for _, cand := range candidates {
			key := fmt.Sprintf("%s:%d:%d:%s", cand.diag.Range.Path, cand.diag.Range.StartOff, cand.diag.Range.EndOff, cand.diag.Message)
			if taken[key] {
				skipped = append(skipped, SkippedFix{ID: cand.id, Title: cand.fix.Title, Reason: "alternative of an applied fix"})
				continue
			}
			taken[key] = true
			selected = append(selected, cand)
		}
		return selected, skipped
	case ApplyModeOnce:
		return candidates[:1], nil
	default:
		return nil, nil
	}
}

func applyCandidates(fsys vfs.FileSystem, selected []candidate, write WriteFunc) ([]AppliedFix, []SkippedFix, []FileChange, error) {
	buffers := make(map[string][]byte)
	appliedEdits := make(map[string][]diag.FixEdit)
	fileEditCount := make(map[string]int)

	applied := make([]AppliedFix, 0, len(selected))
	skipped := make([]SkippedFix, 0)

	for _, cand := range selected {
		buckets := groupEditsByFile(cand.fix.Edits)
		paths := make([]string, 0, len(buckets))
		for p := range buckets {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		stagedBuffers := make(map[string][]byte)
		stagedApplied := make(map[string][]diag.FixEdit)
		totalEdits := 0
		var skipReason string

		for _, path := range paths {
			edits := buckets[path]
			if conflictsWithExisting(appliedEdits[path], edits) || selfConflicting(edits) {
				skipReason = fmt.Sprintf("conflicts with previously applied edits in %s", path)
				break
			}

			base := buffers[path]
			if base == nil {
				data, err := fsys.ReadFile(path)
				if err != nil {
					skipReason = fmt.Sprintf("cannot read %s: %v", path, err)
					break
				}
				base = data
			}
			working := append([]byte(nil), base...)

			// с конца, чтобы смещения ещё не применённых правок не сдвигались
			sort.SliceStable(edits, func(i, j int) bool {
				if edits[i].Range.StartOff == edits[j].Range.StartOff {
					return edits[i].Range.EndOff > edits[j].Range.EndOff
				}
				return edits[i].Range.StartOff > edits[j].Range.StartOff
			})

			existingApplied := append([]diag.FixEdit(nil), appliedEdits[path]...)
			for _, edit := range edits {
				start := int(edit.Range.StartOff) + cumulativeDelta(existingApplied, int(edit.Range.StartOff))
				end := int(edit.Range.EndOff) + cumulativeDelta(existingApplied, int(edit.Range.EndOff))
				if start < 0 || end < start || end > len(working) {
					skipReason = "edit span out of range"
					break
				}
				suffix := append([]byte(nil), working[end:]...)
				working = append(append(working[:start], []byte(edit.NewText)...), suffix...)
			}
			if skipReason != "" {
				break
			}
			for _, edit := range edits {
				existingApplied = insertEditSorted(existingApplied, edit)
			}
			stagedBuffers[path] = working
			stagedApplied[path] = existingApplied
			totalEdits += len(edits)
		}

		if skipReason != "" {
			skipped = append(skipped, SkippedFix{ID: cand.id, Title: cand.fix.Title, Reason: skipReason})
			continue
		}

		for path, buf := range stagedBuffers {
			buffers[path] = buf
			appliedEdits[path] = stagedApplied[path]
			fileEditCount[path] += len(buckets[path])
		}

		applied = append(applied, AppliedFix{
			ID:          cand.id,
			Title:       cand.fix.Title,
			Name:        cand.diag.Name(),
			Message:     cand.diag.Message,
			PrimaryPath: cand.diag.Range.Path,
			EditCount:   totalEdits,
		})
	}

	if len(applied) == 0 {
		return applied, skipped, nil, nil
	}

	fileChanges := make([]FileChange, 0, len(buffers))
	for path, buf := range buffers {
		if err := write(path, buf); err != nil {
			return applied, skipped, fileChanges, fmt.Errorf("write %s: %w", path, err)
		}
		log.Debugf("applied %d edits to %s", fileEditCount[path], path)
		fileChanges = append(fileChanges, FileChange{Path: path, EditCount: fileEditCount[path]})
	}

	sort.SliceStable(fileChanges, func(i, j int) bool {
		return fileChanges[i].Path < fileChanges[j].Path
	})
	return applied, skipped, fileChanges, nil
}

// WriteAtomic replaces path with data through a temporary file in the same
// directory, keeping the file mode.
func WriteAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Chmod(name, mode); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}

func conflictsWithExisting(existing []diag.FixEdit, edits []diag.FixEdit) bool {
	for _, prev := range existing {
		for _, cand := range edits {
			if spansConflict(prev, cand) {
				return true
			}
		}
	}
	return false
}

func selfConflicting(edits []diag.FixEdit) bool {
	for i := range edits {
		for j := i + 1; j < len(edits); j++ {
			if spansConflict(edits[i], edits[j]) {
				return true
			}
		}
	}
	return false
}

// spansConflict reports whether two edits overlap. Ranges are half-open;
// two insertions never conflict, an insertion conflicts with a range that
// strictly contains its position.
func spansConflict(a, b diag.FixEdit) bool {
	aStart, aEnd := a.Range.StartOff, a.Range.EndOff
	bStart, bEnd := b.Range.StartOff, b.Range.EndOff

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart < aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart < bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

func groupEditsByFile(edits []diag.FixEdit) map[string][]diag.FixEdit {
	buckets := make(map[string][]diag.FixEdit)
	for _, edit := range edits {
		path := vfs.Clean(edit.Range.Path)
		buckets[path] = append(buckets[path], edit)
	}
	return buckets
}

func cumulativeDelta(edits []diag.FixEdit, pos int) int {
	delta := 0
	for _, e := range edits {
		eStart := int(e.Range.StartOff)
		if eStart > pos {
			break
		}
		eEnd := int(e.Range.EndOff)
		change := len(e.NewText) - (eEnd - eStart)
		if eEnd <= pos {
			delta += change
		}
	}
	return delta
}

func insertEditSorted(edits []diag.FixEdit, edit diag.FixEdit) []diag.FixEdit {
	insertIdx := sort.Search(len(edits), func(i int) bool {
		if edits[i].Range.StartOff == edit.Range.StartOff {
			return edits[i].Range.EndOff >= edit.Range.EndOff
		}
		return edits[i].Range.StartOff > edit.Range.StartOff
	})
	edits = append(edits, diag.FixEdit{})
	copy(edits[insertIdx+1:], edits[insertIdx:])
	edits[insertIdx] = edit
	return edits
}
