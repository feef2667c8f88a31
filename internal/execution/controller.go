package execution

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ctp/internal/config"
	"ctp/internal/domain"
	"ctp/internal/parser"
)

// memoryCheckExitFlag forces the memory checker to exit non-zero on any defect.
const memoryCheckExitFlag = "--error-exitcode=1"

// RunConfig holds the per-test execution options
type RunConfig struct {
	Timeout            time.Duration
	MemoryCheckEnabled bool
	MemoryCheckTool    string
	MemoryCheckFlags   string
	MemoryCheckTimeout time.Duration

	// GoldenOutputLookup returns the expected stdout file for a test, if any.
	GoldenOutputLookup func(testName string) (string, bool)

	// DiffCapturePath receives the captured stdout of golden-compared tests. Empty disables it.
	DiffCapturePath string
	Dir             string
}

// NewRunConfig resolves the execution options from configuration
func NewRunConfig(cfg *config.Config) RunConfig {
	return RunConfig{
		Timeout:            cfg.Timeout(),
		MemoryCheckEnabled: cfg.MemoryCheckEnabled,
		MemoryCheckTool:    cfg.MemoryCheckTool,
		MemoryCheckFlags:   cfg.MemoryCheckFlags,
		MemoryCheckTimeout: cfg.MemoryCheckTimeout(),
		GoldenOutputLookup: cfg.GoldenOutputLookup,
		DiffCapturePath:    cfg.DiffTempPath(),
		Dir:                cfg.ProjectPath,
	}
}

// Controller runs one test through the execute, output diff and memory check stages
type Controller struct {
	runner ProcessRunner
	parser parser.Parser
	log    logrus.FieldLogger
}

// NewController creates a new Controller. p may be nil.
func NewController(runner ProcessRunner, p parser.Parser, log logrus.FieldLogger) *Controller {
	return &Controller{
		runner: runner,
		parser: p,
		log:    log.WithField("component", "controller"),
	}
}

// Execute stops at the first failing stage and reports it.
func (c *Controller) Execute(ctx context.Context, testName, executablePath string, cfg RunConfig) domain.Verdict {
	start := time.Now()
	failure := c.runStages(ctx, testName, executablePath, cfg)
	duration := time.Since(start)

	if failure == nil {
		return domain.Verdict{Outcome: domain.Passed, Duration: duration}
	}

	if c.parser != nil {
		c.parser.ParseFailure(failure)
	}
	if failure.Message == "" {
		failure.Message = fallbackMessage(failure)
	}

	c.log.WithFields(logrus.Fields{
		"test":  testName,
		"stage": failure.Stage,
	}).Debug("test failed")

	return domain.Verdict{Outcome: domain.Failed, Duration: duration, Failure: failure}
}

func (c *Controller) runStages(ctx context.Context, testName, executablePath string, cfg RunConfig) *domain.FailureReport {
	res := c.runner.Run(ctx, ProcessSpec{
		Name:    executablePath,
		Args:    []string{testName},
		Dir:     cfg.Dir,
		Timeout: cfg.Timeout,
	})
	if failure := executeFailure(res, cfg.Timeout); failure != nil {
		return failure
	}

	if failure := c.compareOutput(testName, res, cfg); failure != nil {
		return failure
	}

	if !cfg.MemoryCheckEnabled {
		return nil
	}
	return c.memoryCheck(ctx, testName, executablePath, cfg)
}

func executeFailure(res ProcessResult, bound time.Duration) *domain.FailureReport {
	switch {
	case res.TimedOut:
		return &domain.FailureReport{
			Stage:    domain.StageTimeout,
			Message:  fmt.Sprintf("test exceeded the time limit of %s", bound),
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			ExitCode: domain.IntPtr(TimeoutExitCode),
		}
	case res.Err != nil:
		return &domain.FailureReport{
			Stage:   domain.StageExecute,
			Message: fmt.Sprintf("failed to start test executable: %v", res.Err),
			Stdout:  res.Stdout,
			Stderr:  res.Stderr,
		}
	case res.ExitCode != 0:
		return &domain.FailureReport{
			Stage:    domain.StageExecute,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			ExitCode: domain.IntPtr(res.ExitCode),
		}
	}
	return nil
}

// compareOutput byte-compares stdout with the golden file. A missing golden file skips the stage.
func (c *Controller) compareOutput(testName string, res ProcessResult, cfg RunConfig) *domain.FailureReport {
	if cfg.GoldenOutputLookup == nil {
		return nil
	}
	goldenPath, ok := cfg.GoldenOutputLookup(testName)
	if !ok {
		return nil
	}

	if cfg.DiffCapturePath != "" {
		if err := os.WriteFile(cfg.DiffCapturePath, []byte(res.Stdout), 0644); err != nil {
			c.log.WithError(err).WithField("path", cfg.DiffCapturePath).Warn("Failed to write diff capture file")
		}
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		return &domain.FailureReport{
			Stage:    domain.StageOutputDiff,
			Message:  fmt.Sprintf("cannot read expected output %s: %v", goldenPath, err),
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			ExitCode: domain.IntPtr(res.ExitCode),
			Actual:   res.Stdout,
		}
	}

	if bytes.Equal(expected, []byte(res.Stdout)) {
		return nil
	}
	return &domain.FailureReport{
		Stage:    domain.StageOutputDiff,
		Message:  fmt.Sprintf("output does not match %s", goldenPath),
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		ExitCode: domain.IntPtr(res.ExitCode),
		Expected: string(expected),
		Actual:   res.Stdout,
	}
}

func (c *Controller) memoryCheck(ctx context.Context, testName, executablePath string, cfg RunConfig) *domain.FailureReport {
	args := strings.Fields(cfg.MemoryCheckFlags)
	args = append(args, memoryCheckExitFlag, executablePath, testName)

	res := c.runner.Run(ctx, ProcessSpec{
		Name:    cfg.MemoryCheckTool,
		Args:    args,
		Dir:     cfg.Dir,
		Timeout: cfg.MemoryCheckTimeout,
	})

	switch {
	case res.TimedOut:
		return &domain.FailureReport{
			Stage:       domain.StageTimeout,
			Message:     fmt.Sprintf("memory check exceeded the time limit of %s", cfg.MemoryCheckTimeout),
			Stdout:      res.Stdout,
			Stderr:      res.Stderr,
			ExitCode:    domain.IntPtr(TimeoutExitCode),
			MemoryCheck: true,
		}
	case res.Err != nil:
		return &domain.FailureReport{
			Stage:       domain.StageMemoryCheck,
			Message:     fmt.Sprintf("failed to start %s: %v", cfg.MemoryCheckTool, res.Err),
			Stdout:      res.Stdout,
			Stderr:      res.Stderr,
			MemoryCheck: true,
		}
	case res.ExitCode != 0:
		return &domain.FailureReport{
			Stage:       domain.StageMemoryCheck,
			Stdout:      res.Stdout,
			Stderr:      res.Stderr,
			ExitCode:    domain.IntPtr(res.ExitCode),
			MemoryCheck: true,
		}
	}
	return nil
}

func fallbackMessage(f *domain.FailureReport) string {
	code := "unknown"
	if f.ExitCode != nil {
		code = fmt.Sprint(*f.ExitCode)
	}
	switch f.Stage {
	case domain.StageMemoryCheck:
		return "memory check reported defects (exit status " + code + ")"
	default:
		return "test exited with status " + code
	}
}
