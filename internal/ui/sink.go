package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"

	"ctp/internal/domain"
)

// ConsoleSink renders case transitions, either as a progress bar or as one line per case.
type ConsoleSink struct {
	mu          sync.Mutex
	out         io.Writer
	projectPath string
	progress    bool
	bar         *ProgressBar

	enqueued int
	passed   int
	failed   int
	skipped  int
}

// NewConsoleSink creates a sink printing to out. With progress set, a bar is
// drawn on stderr instead of per-case lines.
func NewConsoleSink(out io.Writer, projectPath string, progress bool) *ConsoleSink {
	return &ConsoleSink{out: out, projectPath: projectPath, progress: progress}
}

func (s *ConsoleSink) Enqueued(domain.CaseRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued++
}

func (s *ConsoleSink) Started(c domain.CaseRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureBar()
}

func (s *ConsoleSink) Passed(c domain.CaseRef, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passed++
	s.line(color.GreenString("✓ ")+"%s %s", c.Label, color.HiBlackString("(%s)", formatDuration(d)))
}

func (s *ConsoleSink) Failed(c domain.CaseRef, f domain.FailureReport, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
	msg := f.Message
	if msg == "" {
		msg = string(f.Stage)
	}
	s.line(color.RedString("✗ ")+"%s %s %s", c.Label, color.RedString("[%s]", f.Stage), msg)
}

func (s *ConsoleSink) Skipped(c domain.CaseRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
	s.line(color.YellowString("- ")+"%s %s", c.Label, color.YellowString("(skipped)"))
}

// Finish completes the progress bar, if one is drawn.
func (s *ConsoleSink) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		s.bar.Finish()
	}
}

func (s *ConsoleSink) ensureBar() {
	if s.progress && s.bar == nil {
		s.bar = NewProgressBar(s.enqueued)
	}
}

// line prints a per-case line, or advances the bar in progress mode.
func (s *ConsoleSink) line(format string, args ...interface{}) {
	if s.progress {
		s.ensureBar()
		s.bar.Update(s.passed, s.failed, s.skipped)
		return
	}
	fmt.Fprintf(s.out, format+"\n", args...)
}

func relPath(projectPath, path string) string {
	if projectPath == "" {
		return path
	}
	rel, err := filepath.Rel(projectPath, path)
	if err != nil {
		return path
	}
	return rel
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
