package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ctp/internal/config"
	"ctp/internal/domain"
	"ctp/internal/tree"
)

// maxOutputLines bounds how much captured output the summary repeats.
const maxOutputLines = 15

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	out    io.Writer
}

// NewFormatter creates a new Formatter
func NewFormatter(cfg *config.Config) *Formatter {
	return &Formatter{
		config: cfg,
		out:    color.Output,
	}
}

// SetOutput redirects everything the formatter prints.
func (f *Formatter) SetOutput(w io.Writer) {
	f.out = w
}

// PrintSummary prints the result table followed by the details of each failure.
func (f *Formatter) PrintSummary(report *domain.RunReport) {
	passed, failed, skipped := report.Counts()

	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Test Results (%s)", formatDuration(report.Duration)))
	t.AppendHeader(table.Row{"Test", "File", "Duration", "Status", "Stage"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "File", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
	})

	for _, res := range report.Results {
		stage := ""
		if res.Verdict.Failure != nil {
			stage = string(res.Verdict.Failure.Stage)
			if res.Verdict.Failure.MemoryCheck && res.Verdict.Failure.Stage == domain.StageTimeout {
				stage += " (memory check)"
			}
		}
		t.AppendRow(table.Row{
			res.Case.Label,
			fmt.Sprintf("%s:%d", relPath(f.config.ProjectPath, res.Case.FilePath), res.Case.Range.Line+1),
			formatDuration(res.Verdict.Duration),
			outcomeString(res.Verdict.Outcome),
			stage,
		})
	}

	switch {
	case failed > 0:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case skipped > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(report.Duration),
		fmt.Sprintf("%d passed, %d failed, %d skipped", passed, failed, skipped),
		"",
	})
	t.Render()

	fmt.Fprintln(f.out)
	if report.BuildFailed {
		fmt.Fprintln(f.out, color.RedString("✗ Build failed, %d test(s) not run", len(report.NotRun)))
	} else if failed == 0 {
		fmt.Fprintln(f.out, color.GreenString("✓ All tests passed!"))
	} else {
		fmt.Fprintln(f.out, color.RedString("✗ %d test(s) failed", failed))
	}

	for _, res := range report.Failures() {
		fmt.Fprintln(f.out)
		f.PrintFailure(res)
	}
}

// PrintFailure prints the diagnostics of one failed case.
func (f *Formatter) PrintFailure(res domain.CaseResult) {
	failure := res.Verdict.Failure
	if failure == nil {
		return
	}

	fmt.Fprintln(f.out, color.RedString("✗ %s", res.Case.Label)+
		color.HiBlackString(" %s:%d", relPath(f.config.ProjectPath, res.Case.FilePath), res.Case.Range.Line+1))
	fmt.Fprintf(f.out, "  %s %s\n", color.YellowString("stage:"), failure.Stage)
	if failure.Message != "" {
		fmt.Fprintf(f.out, "  %s %s\n", color.YellowString("message:"), failure.Message)
	}
	if failure.File != "" && failure.Line > 0 {
		fmt.Fprintf(f.out, "  %s %s:%d\n", color.YellowString("location:"), failure.File, failure.Line)
	}
	if failure.ExitCode != nil {
		fmt.Fprintf(f.out, "  %s %d\n", color.YellowString("exit code:"), *failure.ExitCode)
	}

	if failure.Stage == domain.StageOutputDiff {
		f.PrintDiff(failure.Expected, failure.Actual)
		return
	}
	if failure.Stderr != "" {
		fmt.Fprintf(f.out, "  %s\n%s", color.YellowString("stderr:"), indent(tail(failure.Stderr, maxOutputLines)))
	}
	if failure.Stdout != "" && failure.Stage != domain.StageCompile {
		fmt.Fprintf(f.out, "  %s\n%s", color.YellowString("stdout:"), indent(tail(failure.Stdout, maxOutputLines)))
	}
}

// PrintDiff renders expected and actual output side by side, one row per line.
func (f *Formatter) PrintDiff(expected, actual string) {
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.AppendHeader(table.Row{"#", "Expected", "Actual"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
	})
	for _, row := range DiffLines(expected, actual) {
		exp, act := row.Expected, row.Actual
		if !row.Equal {
			exp = text.FgGreen.Sprint(exp)
			act = text.FgRed.Sprint(act)
		}
		t.AppendRow(table.Row{row.Line, exp, act})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

// FailedSet indexes the files and cases that failed in a saved report.
type FailedSet struct {
	files map[string]struct{}
	cases map[string]struct{}
}

// NewFailedSet builds the index from report. A nil report yields an empty set.
func NewFailedSet(report *domain.RunReport) FailedSet {
	s := FailedSet{
		files: make(map[string]struct{}),
		cases: make(map[string]struct{}),
	}
	if report == nil {
		return s
	}
	for _, res := range report.Failures() {
		s.files[res.Case.FilePath] = struct{}{}
		s.cases[caseKey(res.Case.FilePath, res.Case.Label)] = struct{}{}
	}
	return s
}

// File reports whether any case in path failed.
func (s FailedSet) File(path string) bool {
	_, ok := s.files[path]
	return ok
}

// Case reports whether the named case in path failed.
func (s FailedSet) Case(path, label string) bool {
	_, ok := s.cases[caseKey(path, label)]
	return ok
}

func caseKey(path, label string) string {
	return path + "::" + label
}

// PrintTree prints every file of t with its headings and cases. Entries that
// failed in the last run are marked with [F].
func (f *Formatter) PrintTree(t *tree.Tree, failed FailedSet, showCases bool) {
	files := t.Files()
	sort.SliceStable(files, func(i, j int) bool {
		a, _ := t.Node(files[i])
		b, _ := t.Node(files[j])
		return a.Path < b.Path
	})

	total := 0
	for _, id := range files {
		total += len(t.Cases(id))
	}
	fmt.Fprintln(f.out, color.GreenString("Found %d test file(s) with %d test case(s):\n", len(files), total))

	for i, id := range files {
		n, ok := t.Node(id)
		if !ok {
			continue
		}
		last := i == len(files)-1
		line := branch(last) + relPath(f.config.ProjectPath, n.Path)
		marker := ""
		if failed.File(n.Path) {
			marker = " " + color.RedString("[F]")
		}
		fmt.Fprintln(f.out, color.CyanString(line)+marker)

		if !showCases {
			continue
		}
		prefix := childPrefix("", last)
		switch {
		case n.Err != nil:
			fmt.Fprintf(f.out, "%s└── %s\n", prefix, color.RedString("(unreadable: %v)", n.Err))
		case len(n.Children) == 0:
			fmt.Fprintf(f.out, "%s└── %s\n", prefix, color.RedString("(no test cases found)"))
		default:
			f.printChildren(t, n.Children, prefix, failed)
		}
		if i < len(files)-1 {
			fmt.Fprintln(f.out)
		}
	}
}

func (f *Formatter) printChildren(t *tree.Tree, ids []tree.NodeID, prefix string, failed FailedSet) {
	for j, id := range ids {
		n, ok := t.Node(id)
		if !ok {
			continue
		}
		last := j == len(ids)-1
		switch n.Kind {
		case tree.KindHeading:
			fmt.Fprintf(f.out, "%s%s%s\n", prefix, branch(last), color.MagentaString(n.Label))
			f.printChildren(t, n.Children, childPrefix(prefix, last), failed)
		case tree.KindCase:
			marker := ""
			if failed.Case(n.Path, n.Label) {
				marker = " " + color.RedString("[F]")
			}
			fmt.Fprintf(f.out, "%s%s%s%s\n", prefix, branch(last), color.YellowString(n.Label), marker)
		case tree.KindFile:
		}
	}
}

func branch(last bool) string {
	if last {
		return "└── "
	}
	return "├── "
}

func childPrefix(prefix string, last bool) string {
	if last {
		return prefix + "    "
	}
	return prefix + "│   "
}

func outcomeString(o domain.Outcome) string {
	switch o {
	case domain.Passed:
		return "✓ passed"
	case domain.Failed:
		return "✗ failed"
	case domain.Skipped:
		return "- skipped"
	default:
		return string(o)
	}
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return fmt.Sprintf("... %d more line(s)\n", len(lines)-n) + strings.Join(lines[len(lines)-n:], "\n")
}

func indent(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
