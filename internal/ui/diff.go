package ui

import "strings"

const noNewlineMarker = " (no newline)"

// DiffRow pairs the n-th line of the expected and actual output
type DiffRow struct {
	Line     int // one-based
	Expected string
	Actual   string
	Equal    bool
}

// DiffLines compares two outputs line by line. A line present on one side only
// is paired with an empty string; a missing final newline is shown explicitly.
func DiffLines(expected, actual string) []DiffRow {
	exp := splitLines(expected)
	act := splitLines(actual)

	n := len(exp)
	if len(act) > n {
		n = len(act)
	}

	rows := make([]DiffRow, 0, n)
	for i := 0; i < n; i++ {
		var e, a string
		var haveE, haveA bool
		if i < len(exp) {
			e, haveE = exp[i], true
		}
		if i < len(act) {
			a, haveA = act[i], true
		}
		rows = append(rows, DiffRow{
			Line:     i + 1,
			Expected: visibleLine(e, haveE),
			Actual:   visibleLine(a, haveA),
			Equal:    haveE && haveA && e == a,
		})
	}
	return rows
}

// splitLines keeps the newline on every line so a missing final newline is a difference.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func visibleLine(line string, present bool) string {
	if !present {
		return ""
	}
	if strings.HasSuffix(line, "\n") {
		return strings.TrimSuffix(line, "\n")
	}
	return line + noNewlineMarker
}
