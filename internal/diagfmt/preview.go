package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"lantern/internal/diag"
	"lantern/internal/source"
)

type fixEditPreview struct {
	before []string
	after  []string
}

// buildFixEditPreview renders the whole lines touched by edit, before and
// after applying it.
func buildFixEditPreview(file *source.File, edit diag.FixEdit) (fixEditPreview, error) {
	if file == nil {
		return fixEditPreview{}, fmt.Errorf("no file for %s", edit.Range.Path)
	}
	lenContent, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return fixEditPreview{}, fmt.Errorf("len file content overflow: %w", err)
	}
	if edit.Range.StartOff > edit.Range.EndOff || edit.Range.EndOff > lenContent {
		return fixEditPreview{}, fmt.Errorf("edit range %d-%d out of range", edit.Range.StartOff, edit.Range.EndOff)
	}

	blockStart := file.LineStart(file.Position(edit.Range.StartOff).Line)
	blockEnd := edit.Range.EndOff
	for blockEnd < lenContent && file.Content[blockEnd] != '\n' {
		blockEnd++
	}
	if blockEnd < lenContent {
		blockEnd++
	}

	original := file.Content[blockStart:blockEnd]
	relStart := int(edit.Range.StartOff - blockStart)
	relEnd := int(edit.Range.EndOff - blockStart)

	after := make([]byte, 0, len(original)+len(edit.NewText))
	after = append(after, original[:relStart]...)
	after = append(after, edit.NewText...)
	after = append(after, original[relEnd:]...)

	return fixEditPreview{
		before: splitPreviewLines(original),
		after:  splitPreviewLines(after),
	}, nil
}

// splitPreviewLines drops the final newline so that a block of n lines
// yields n entries.
func splitPreviewLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
}
