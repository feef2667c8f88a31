// Package driver synthesizes the C++ entry point that dispatches a test name
// to the matching test function.
package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ctp/internal/domain"
)

// ErrTemplateCorrupted means an anchor could not be located in the template.
var ErrTemplateCorrupted = errors.New("driver template corrupted")

// Synthesizer renders driver source for a selection of cases
type Synthesizer struct {
	template string
	baseDir  string
}

// NewSynthesizer creates a Synthesizer using the built-in template.
// Include paths are written relative to baseDir, where the driver lives.
func NewSynthesizer(baseDir string) *Synthesizer {
	return &Synthesizer{template: DefaultTemplate, baseDir: baseDir}
}

// WithTemplate swaps the template text.
func (s *Synthesizer) WithTemplate(template string) *Synthesizer {
	s.template = template
	return s
}

// LoadTemplate reads a custom template from disk.
func (s *Synthesizer) LoadTemplate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read driver template: %w", err)
	}
	s.template = string(data)
	return nil
}

// Synthesize returns the driver source for cases. Labels must be resolvable
// symbols and unique across the included headers; that is not checked here.
func (s *Synthesizer) Synthesize(cases []domain.CaseRef) (string, error) {
	lines := strings.Split(s.template, "\n")

	includeAt, bodyAt := -1, -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if includeAt < 0 && trimmed == TrampolineInclude {
			includeAt = i
		}
		if bodyAt < 0 && strings.Contains(trimmed, TableOpener) {
			if i+1 < len(lines) && strings.TrimSpace(lines[i+1]) == "" {
				bodyAt = i + 1
			}
		}
	}
	if includeAt < 0 {
		return "", fmt.Errorf("%w: missing %q", ErrTemplateCorrupted, TrampolineInclude)
	}
	if bodyAt < 0 {
		return "", fmt.Errorf("%w: missing empty body after %q", ErrTemplateCorrupted, TableOpener)
	}

	var includes []string
	seen := make(map[string]bool)
	for _, c := range cases {
		if seen[c.FilePath] {
			continue
		}
		seen[c.FilePath] = true
		includes = append(includes, fmt.Sprintf("#include %q", s.includePath(c.FilePath)))
	}

	entries := make([]string, 0, len(cases))
	for _, c := range cases {
		entries = append(entries, fmt.Sprintf("\t{ %q, %s },", c.Label, c.Label))
	}
	if len(entries) == 0 {
		entries = append(entries, lines[bodyAt])
	}

	out := make([]string, 0, len(lines)+len(includes)+len(entries))
	for i, line := range lines {
		if i == includeAt {
			out = append(out, includes...)
		}
		if i == bodyAt {
			out = append(out, entries...)
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n"), nil
}

func (s *Synthesizer) includePath(path string) string {
	if s.baseDir != "" {
		base, err := filepath.Abs(s.baseDir)
		if err == nil {
			if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
				return filepath.ToSlash(rel)
			}
		}
	}
	return filepath.ToSlash(path)
}

// Write stores driver source at path.
func Write(path, source string) error {
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		return fmt.Errorf("write driver: %w", err)
	}
	return nil
}
