package main

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// expandGlobs resolves each pattern against the working directory with
// doublestar's `**` support, the same glob engine standardbeagle-lci's file
// scanner and watcher use for include/exclude matching
// (internal/indexing/pipeline_types.go, internal/indexing/watcher.go).
// Patterns with no `*`/`?`/`[` are passed through unchanged even if the
// file doesn't exist yet, so a plain filename argument still reaches the
// "file not found" error from Database.Parse rather than a silent empty
// match here.
func expandGlobs(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("mmknife: invalid glob pattern %q", pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("mmknife: expanding %q: %w", pattern, err)
		}
		if len(matches) == 0 && !strings.ContainsAny(pattern, "*?[") {
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}
