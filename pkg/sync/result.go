package sync

import (
	"fmt"
	"strings"
)

// Result aggregates the outcome of a project sync.
type Result struct {
	// Cloned counts jobs that existed only in the source.
	Cloned int

	// Merged counts jobs that existed on both sides.
	Merged int

	// SkippedKeys is the union of unresolved document keys across the
	// project document and all job documents.
	SkippedKeys SkippedKeys

	// DryRun reports whether the sync only simulated its actions.
	DryRun bool
}

// HasChanges reports whether any job was cloned or merged.
func (r *Result) HasChanges() bool {
	return r.Cloned > 0 || r.Merged > 0
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	summary := fmt.Sprintf("Cloned %d and merged %d job(s)", r.Cloned, r.Merged)
	if r.SkippedKeys.Len() > 0 {
		summary += fmt.Sprintf(", skipped %d document key(s): %s",
			r.SkippedKeys.Len(), strings.Join(r.SkippedKeys.Sorted(), ", "))
	}
	if r.DryRun {
		summary += " (dry run)"
	}
	return summary
}
