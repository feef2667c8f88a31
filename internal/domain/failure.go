package domain

// Stage identifies which part of a test run produced a failure
type Stage string

const (
	StageCompile     Stage = "compile"
	StageExecute     Stage = "execute"
	StageTimeout     Stage = "timeout"
	StageMemoryCheck Stage = "memory_check"
	StageOutputDiff  Stage = "output_diff"
)

// FailureReport describes the first failing stage of a test
type FailureReport struct {
	Stage    Stage  `json:"stage"`
	Message  string `json:"message,omitempty"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode *int   `json:"exit_code,omitempty"`

	// Expected and Actual are set for output diffs so a viewer can render both sides.
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`

	// MemoryCheck is true when the failure came from the memory-checker run, including its timeouts.
	MemoryCheck bool `json:"memory_check,omitempty"`

	// Source location extracted from diagnostics, when available.
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// IntPtr is a helper for optional exit codes.
func IntPtr(v int) *int {
	return &v
}
