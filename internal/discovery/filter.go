package discovery

import (
	"path/filepath"
	"strings"
)

// Filter filters header files and test names by wildcard pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName filters header paths by a pattern applied to the base name.
// Supports patterns like "*list_tests.h" or "*list*"
func (f *Filter) FilterByName(files []string, pattern string) []string {
	if pattern == "" {
		return files
	}

	var filtered []string
	for _, file := range files {
		if f.Match(filepath.Base(file), pattern) {
			filtered = append(filtered, file)
		}
	}
	return filtered
}

// Match reports whether name satisfies pattern. An empty pattern matches everything.
func (f *Filter) Match(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	// Try to match using filepath.Match (supports * and ? wildcards)
	if matched, err := filepath.Match(pattern, name); err == nil && matched {
		return true
	}

	// Fall back to matching the non-wildcard parts in order, so "*push*0" finds "push_front_0"
	if strings.Contains(pattern, "*") {
		rest := name
		hasNonEmptyPart := false
		for _, part := range strings.Split(pattern, "*") {
			if part == "" {
				continue
			}
			hasNonEmptyPart = true
			idx := strings.Index(rest, part)
			if idx < 0 {
				return false
			}
			rest = rest[idx+len(part):]
		}
		return hasNonEmptyPart
	}

	// No wildcards: simple contains check
	if !strings.Contains(pattern, "?") {
		return strings.Contains(name, pattern)
	}
	return false
}
