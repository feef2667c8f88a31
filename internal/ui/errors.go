package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"ctp/internal/config"
	"ctp/internal/domain"
	"ctp/internal/storage"
)

// ErrorViewer displays test failures in an interactive TUI
type ErrorViewer struct {
	config *config.Config
}

// NewErrorViewer creates a new ErrorViewer
func NewErrorViewer(cfg *config.Config) *ErrorViewer {
	return &ErrorViewer{config: cfg}
}

// View lists the failed cases of the last run. Output mismatches show the
// expected and actual text in two panes.
func (ev *ErrorViewer) View(output *storage.Output) error {
	failures := output.Report.Failures()
	if len(failures) == 0 {
		color.Green("✓ No test failures found!")
		return nil
	}

	// Marks are kept for this session only.
	resolved := make(map[int]bool)

	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	listItemText := func(index int) string {
		res := failures[index]
		if resolved[index] {
			return fmt.Sprintf("[gray]✓ [yellow]%d.[gray] %s[white]", index+1, tview.Escape(res.Case.Label))
		}
		return fmt.Sprintf("[yellow]%d.[white] %s [red](%s)[white]", index+1, tview.Escape(res.Case.Label), res.Verdict.Failure.Stage)
	}

	for i := range failures {
		list.AddItem(listItemText(i), "", 0, nil)
	}

	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	expectedView := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	expectedView.SetBorder(true).SetTitle(" Expected ")
	actualView := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	actualView.SetBorder(true).SetTitle(" Actual ")

	diffPanes := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(expectedView, 0, 1, false).
		AddItem(actualView, 0, 1, false)

	rightSide := tview.NewFlex().SetDirection(tview.FlexRow)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	updateHeader := func() {
		open := 0
		for i := range failures {
			if !resolved[i] {
				open++
			}
		}
		headerView.SetText(fmt.Sprintf(" Test Failures (%d total, %d unresolved) | ↑↓ navigate, [yellow]R[white] mark resolved, → details, ← back, Ctrl+C exit ", len(failures), open))
	}

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(failures) {
			return
		}
		res := failures[index]
		statsView.SetText(ev.formatFailureStats(res))
		detailsView.SetText(formatFailureDetails(res)).ScrollToBeginning()

		rightSide.Clear()
		rightSide.AddItem(statsView, 2, 0, false)
		if res.Verdict.Failure.Stage == domain.StageOutputDiff {
			exp, act := formatDiffPanes(res.Verdict.Failure.Expected, res.Verdict.Failure.Actual)
			expectedView.SetText(exp).ScrollToBeginning()
			actualView.SetText(act).ScrollToBeginning()
			rightSide.AddItem(detailsView, 6, 0, false)
			rightSide.AddItem(diffPanes, 0, 1, false)
		} else {
			rightSide.AddItem(detailsView, 0, 1, false)
		}
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'r' || event.Rune() == 'R' {
				index := list.GetCurrentItem()
				if index >= 0 && index < len(failures) {
					resolved[index] = !resolved[index]
					list.SetItemText(index, listItemText(index), "")
					updateHeader()
				}
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	list.SetChangedFunc(func(int, string, string, rune) {
		updateDetails()
	})

	updateHeader()
	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// formatFailureDetails formats a failure using tview color tags.
func formatFailureDetails(res domain.CaseResult) string {
	failure := res.Verdict.Failure
	var b strings.Builder

	fmt.Fprintf(&b, "[red]✗ Test: %s[white]  [gray](%s)[white]\n", tview.Escape(res.Case.Label), formatDuration(res.Verdict.Duration))
	stage := string(failure.Stage)
	if failure.MemoryCheck && failure.Stage == domain.StageTimeout {
		stage += " (memory check)"
	}
	fmt.Fprintf(&b, "[yellow]Stage:[white] %s\n", stage)
	if failure.ExitCode != nil {
		fmt.Fprintf(&b, "[yellow]Exit code:[white] %d\n", *failure.ExitCode)
	}
	if failure.File != "" && failure.Line > 0 {
		fmt.Fprintf(&b, "[yellow]Location:[white] %s:%d\n", tview.Escape(failure.File), failure.Line)
	}
	if failure.Message != "" {
		fmt.Fprintf(&b, "[yellow]Message:[white] %s\n", tview.Escape(failure.Message))
	}

	if failure.Stage == domain.StageOutputDiff {
		return b.String()
	}
	if failure.Stderr != "" {
		fmt.Fprintf(&b, "\n[yellow]Stderr:[white]\n%s\n", tview.Escape(failure.Stderr))
	}
	if failure.Stdout != "" {
		fmt.Fprintf(&b, "\n[yellow]Stdout:[white]\n%s\n", tview.Escape(failure.Stdout))
	}
	return b.String()
}

// formatDiffPanes renders both sides with differing lines highlighted.
func formatDiffPanes(expected, actual string) (string, string) {
	var exp, act strings.Builder
	for _, row := range DiffLines(expected, actual) {
		e, a := tview.Escape(row.Expected), tview.Escape(row.Actual)
		if row.Equal {
			fmt.Fprintf(&exp, "[gray]%3d[white] %s\n", row.Line, e)
			fmt.Fprintf(&act, "[gray]%3d[white] %s\n", row.Line, a)
			continue
		}
		fmt.Fprintf(&exp, "[gray]%3d[green] %s[white]\n", row.Line, e)
		fmt.Fprintf(&act, "[gray]%3d[red] %s[white]\n", row.Line, a)
	}
	return exp.String(), act.String()
}

// formatFailureStats formats the header line for a failure
func (ev *ErrorViewer) formatFailureStats(res domain.CaseResult) string {
	path := relPath(ev.config.ProjectPath, res.Case.FilePath)
	if path == "" {
		path = "Unknown path"
	}
	return fmt.Sprintf("[cyan]path:[white] [yellow]%s:%d[white]::[yellow]%s[white]\n",
		tview.Escape(path), res.Case.Range.Line+1, tview.Escape(res.Case.Label))
}
