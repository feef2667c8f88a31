package execution

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// TimeoutExitCode is reported when a child is terminated for exceeding its
// bound: 128 + SIGTERM, the status `timeout --preserve-status` yields.
const TimeoutExitCode = 143

// killGrace is how long a terminated child may take to exit before it is killed.
const killGrace = 2 * time.Second

// ProcessSpec describes one child process invocation
type ProcessSpec struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration // zero means no bound
}

// ProcessResult is the structured outcome of a child process
type ProcessResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Err      error // set when the process could not be started or waited on
}

// Failed reports whether the process did not exit cleanly.
func (r ProcessResult) Failed() bool {
	return r.TimedOut || r.Err != nil || r.ExitCode != 0
}

// ProcessRunner runs a child process to completion
type ProcessRunner interface {
	Run(ctx context.Context, spec ProcessSpec) ProcessResult
}

// Runner executes child processes with os/exec
type Runner struct{}

// NewRunner creates a new Runner
func NewRunner() *Runner {
	return &Runner{}
}

// Run blocks until the child exits, is terminated on timeout, or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, spec ProcessSpec) ProcessResult {
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if spec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGrace

	err := cmd.Run()
	result := ProcessResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if spec.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		result.TimedOut = true
		result.ExitCode = TimeoutExitCode
		return result
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitCode(exitErr)
	default:
		result.ExitCode = -1
		result.Err = err
	}
	return result
}

type signalStatus interface {
	Signaled() bool
	Signal() syscall.Signal
}

// exitCode maps death-by-signal to the shell convention 128+signal.
func exitCode(err *exec.ExitError) int {
	code := err.ExitCode()
	if code != -1 {
		return code
	}
	if ws, ok := err.Sys().(signalStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return code
}
