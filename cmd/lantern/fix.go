package main

import (
	"errors"
	"fmt"
	"io"

	"lantern/internal/fix"
)

// handleApplyResult prints what fix.Apply did. Finding nothing to apply is
// not an error.
func handleApplyResult(out io.Writer, res *fix.ApplyResult, applyErr error) error {
	if res == nil {
		return applyErr
	}
	var printErr error

	if len(res.Applied) > 0 {
		_, printErr = fmt.Fprintf(out, "Applied %d fix(es):\n", len(res.Applied))
		if printErr != nil {
			return printErr
		}
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			_, printErr = fmt.Fprintf(out, "  %s [%s]: %s (%d edits)\n", item.Title, item.ID, location, item.EditCount)
			if printErr != nil {
				return printErr
			}
		}
	}

	if len(res.FileChanges) > 0 {
		if _, printErr = fmt.Fprintln(out, "Updated files:"); printErr != nil {
			return printErr
		}
		for _, change := range res.FileChanges {
			if _, printErr = fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount); printErr != nil {
				return printErr
			}
		}
	}

	if len(res.Skipped) > 0 {
		if _, printErr = fmt.Fprintln(out, "Skipped fixes:"); printErr != nil {
			return printErr
		}
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Title != "" {
				_, printErr = fmt.Fprintf(out, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				_, printErr = fmt.Fprintf(out, "  [%s]: %s\n", id, skip.Reason)
			}
			if printErr != nil {
				return printErr
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			_, printErr = fmt.Fprintln(out, "No applicable fixes found.")
			return printErr
		}
		return applyErr
	}

	if len(res.Applied) == 0 {
		_, printErr = fmt.Fprintln(out, "No fixes applied.")
	}
	return printErr
}
