package domain

import "time"

// Outcome is the final state of one test
type Outcome string

const (
	Passed  Outcome = "passed"
	Failed  Outcome = "failed"
	Skipped Outcome = "skipped"
)

// Verdict is the reduced result of every stage run for one test
type Verdict struct {
	Outcome  Outcome        `json:"outcome"`
	Duration time.Duration  `json:"duration"`
	Failure  *FailureReport `json:"failure,omitempty"`
}

// DurationMs returns the verdict duration in whole milliseconds.
func (v Verdict) DurationMs() int64 {
	return v.Duration.Milliseconds()
}

// CaseResult pairs a case with its verdict
type CaseResult struct {
	Case    CaseRef `json:"case"`
	Verdict Verdict `json:"verdict"`
}

// RunReport is the outcome of one batch, in selection order
type RunReport struct {
	RunID       string        `json:"run_id"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	BuildFailed bool          `json:"build_failed"`
	Results     []CaseResult  `json:"results"`
	NotRun      []CaseRef     `json:"not_run,omitempty"`
}

// Counts returns passed, failed and skipped totals.
func (r *RunReport) Counts() (passed, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Verdict.Outcome {
		case Passed:
			passed++
		case Failed:
			failed++
		case Skipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Failures returns only the failed results.
func (r *RunReport) Failures() []CaseResult {
	var out []CaseResult
	for _, res := range r.Results {
		if res.Verdict.Outcome == Failed {
			out = append(out, res)
		}
	}
	return out
}

// Sink observes the lifecycle of every case in a run.
type Sink interface {
	Enqueued(c CaseRef)
	Started(c CaseRef)
	Passed(c CaseRef, d time.Duration)
	Failed(c CaseRef, f FailureReport, d time.Duration)
	Skipped(c CaseRef)
}
