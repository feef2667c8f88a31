package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ctp/internal/domain"
)

var (
	// glibc: "a.out: unit_tests.h:14: void test_fail(): Assertion `1 == 0' failed."
	glibcAssertPattern = regexp.MustCompile("(?m)^[^:\\n]*: (.+?):(\\d+): (.*?): Assertion [`'](.+)' failed\\.\\s*$")
	// musl/BSD: "Assertion failed: 1 == 0 (unit_tests.h: test_fail: 14)"
	bsdAssertPattern = regexp.MustCompile(`(?m)^Assertion failed: (.+) \((.+?): (.+?): (\d+)\)\s*$`)
	// macOS: "Assertion failed: (1 == 0), function test_fail, file unit_tests.h, line 14."
	darwinAssertPattern = regexp.MustCompile(`(?m)^Assertion failed: \((.+)\), function (.+?), file (.+?), line (\d+)\.\s*$`)

	errorSummaryPattern = regexp.MustCompile(`ERROR SUMMARY: (\d+) errors? from (\d+) contexts?`)
	definitelyLost      = regexp.MustCompile(`definitely lost: ([\d,]+) bytes in ([\d,]+) blocks?`)
	invalidAccess       = regexp.MustCompile(`(?m)^==\d+== (Invalid (?:read|write|free)[^\n]*)`)
)

// Assertion is a failed assert(3) parsed from stderr
type Assertion struct {
	File       string
	Line       int
	Function   string
	Expression string
}

// MemoryReport summarizes the memory checker output
type MemoryReport struct {
	Errors          int
	Contexts        int
	DefinitelyLost  string
	FirstInvalidUse string
}

// DiagnosticsParser reads assert(3) and valgrind output
type DiagnosticsParser struct{}

// NewDiagnosticsParser creates a new DiagnosticsParser
func NewDiagnosticsParser() *DiagnosticsParser {
	return &DiagnosticsParser{}
}

// ParseAssertion returns the first failed assertion found in stderr.
func (p *DiagnosticsParser) ParseAssertion(stderr string) (Assertion, bool) {
	if m := glibcAssertPattern.FindStringSubmatch(stderr); m != nil {
		line, _ := strconv.Atoi(m[2])
		return Assertion{File: m[1], Line: line, Function: m[3], Expression: m[4]}, true
	}
	if m := bsdAssertPattern.FindStringSubmatch(stderr); m != nil {
		line, _ := strconv.Atoi(m[4])
		return Assertion{File: m[2], Line: line, Function: m[3], Expression: m[1]}, true
	}
	if m := darwinAssertPattern.FindStringSubmatch(stderr); m != nil {
		line, _ := strconv.Atoi(m[4])
		return Assertion{File: m[3], Line: line, Function: m[2], Expression: m[1]}, true
	}
	return Assertion{}, false
}

// ParseMemoryReport extracts the valgrind error summary.
func (p *DiagnosticsParser) ParseMemoryReport(output string) (MemoryReport, bool) {
	m := errorSummaryPattern.FindStringSubmatch(output)
	if m == nil {
		return MemoryReport{}, false
	}

	var report MemoryReport
	report.Errors, _ = strconv.Atoi(m[1])
	report.Contexts, _ = strconv.Atoi(m[2])
	if lost := definitelyLost.FindStringSubmatch(output); lost != nil {
		report.DefinitelyLost = fmt.Sprintf("%s bytes in %s blocks", lost[1], lost[2])
	}
	if inv := invalidAccess.FindStringSubmatch(output); inv != nil {
		report.FirstInvalidUse = strings.TrimSpace(inv[1])
	}
	return report, true
}

// ParseFailure fills Message, File and Line from the captured output when they are empty.
func (p *DiagnosticsParser) ParseFailure(report *domain.FailureReport) {
	switch report.Stage {
	case domain.StageExecute:
		if a, ok := p.ParseAssertion(report.Stderr); ok {
			report.File = a.File
			report.Line = a.Line
			if report.Message == "" {
				report.Message = fmt.Sprintf("assertion `%s' failed in %s", a.Expression, a.Function)
			}
		}
	case domain.StageMemoryCheck:
		m, ok := p.ParseMemoryReport(report.Stderr)
		if !ok || report.Message != "" {
			return
		}
		var parts []string
		parts = append(parts, fmt.Sprintf("%d memory error(s) from %d context(s)", m.Errors, m.Contexts))
		if m.FirstInvalidUse != "" {
			parts = append(parts, m.FirstInvalidUse)
		}
		if m.DefinitelyLost != "" {
			parts = append(parts, "definitely lost: "+m.DefinitelyLost)
		}
		report.Message = strings.Join(parts, "; ")
	}
}
