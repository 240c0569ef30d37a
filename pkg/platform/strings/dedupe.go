// Package strings holds small slice helpers for user-supplied string lists.
package strings

import (
	"strings"
)

// DedupeAndTrim trims every element and drops blanks and repeats, keeping the
// first occurrence. A positive limit stops after that many elements. The
// result is nil when nothing survives.
//
//	DedupeAndTrim([]string{"  a.png ", "b.png", "a.png", "  "}, 0)
//	// []string{"a.png", "b.png"}
func DedupeAndTrim(values []string, limit int) []string {
	var result []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}
