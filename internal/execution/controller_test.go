package execution

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ctp/internal/domain"
	"ctp/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testExe  = "/project/a.out"
	testTool = "valgrind"
)

func baseRunConfig(dir string) RunConfig {
	return RunConfig{
		Timeout:            5 * time.Second,
		MemoryCheckTool:    testTool,
		MemoryCheckFlags:   "--leak-check=full --track-origins=yes",
		MemoryCheckTimeout: 20 * time.Second,
		Dir:                dir,
		GoldenOutputLookup: func(string) (string, bool) { return "", false },
	}
}

func newTestController(r ProcessRunner) *Controller {
	return NewController(r, parser.NewDiagnosticsParser(), quietLogger())
}

func TestExecute_Passes(t *testing.T) {
	r := &fakeRunner{}
	c := newTestController(r)

	v := c.Execute(context.Background(), "test_add", testExe, baseRunConfig(t.TempDir()))

	assert.Equal(t, domain.Passed, v.Outcome)
	assert.Nil(t, v.Failure)
	require.Len(t, r.calls, 1)
	assert.Equal(t, testExe, r.calls[0].Name)
	assert.Equal(t, []string{"test_add"}, r.calls[0].Args)
	assert.Equal(t, 5*time.Second, r.calls[0].Timeout)
}

func TestExecute_TimeoutWinsOverMemoryCheck(t *testing.T) {
	r := &fakeRunner{respond: func(spec ProcessSpec) ProcessResult {
		if spec.Name == testTool {
			return ProcessResult{ExitCode: 1, Stderr: "==1== ERROR SUMMARY: 3 errors from 1 contexts"}
		}
		return ProcessResult{ExitCode: TimeoutExitCode, TimedOut: true}
	}}
	cfg := baseRunConfig(t.TempDir())
	cfg.MemoryCheckEnabled = true

	v := newTestController(r).Execute(context.Background(), "test_hang", testExe, cfg)

	require.Equal(t, domain.Failed, v.Outcome)
	require.NotNil(t, v.Failure)
	assert.Equal(t, domain.StageTimeout, v.Failure.Stage)
	assert.False(t, v.Failure.MemoryCheck)
	assert.Contains(t, v.Failure.Message, "5s")
	require.NotNil(t, v.Failure.ExitCode)
	assert.Equal(t, TimeoutExitCode, *v.Failure.ExitCode)
	assert.Empty(t, r.callsTo(testTool), "memory check must not run after a timeout")
}

func TestExecute_NonZeroExitParsesAssertion(t *testing.T) {
	r := &fakeRunner{respond: func(ProcessSpec) ProcessResult {
		return ProcessResult{
			ExitCode: 134,
			Stdout:   "partial\n",
			Stderr:   "a.out: unit_tests.h:14: void test_fail(): Assertion `1 == 0' failed.\n",
		}
	}}

	v := newTestController(r).Execute(context.Background(), "test_fail", testExe, baseRunConfig(t.TempDir()))

	require.Equal(t, domain.Failed, v.Outcome)
	f := v.Failure
	assert.Equal(t, domain.StageExecute, f.Stage)
	assert.Equal(t, "partial\n", f.Stdout)
	assert.Equal(t, "unit_tests.h", f.File)
	assert.Equal(t, 14, f.Line)
	assert.Contains(t, f.Message, "1 == 0")
	require.NotNil(t, f.ExitCode)
	assert.Equal(t, 134, *f.ExitCode)
}

func TestExecute_NonZeroExitWithoutDiagnostics(t *testing.T) {
	r := &fakeRunner{respond: func(ProcessSpec) ProcessResult {
		return ProcessResult{ExitCode: 3}
	}}

	v := newTestController(r).Execute(context.Background(), "test_exit", testExe, baseRunConfig(t.TempDir()))

	require.NotNil(t, v.Failure)
	assert.Equal(t, domain.StageExecute, v.Failure.Stage)
	assert.Equal(t, "test exited with status 3", v.Failure.Message)
}

func TestExecute_OutputDiff(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "test_print")
	require.NoError(t, os.WriteFile(golden, []byte("6\n"), 0644))
	capture := filepath.Join(dir, "tmp")

	r := &fakeRunner{respond: func(ProcessSpec) ProcessResult {
		return ProcessResult{Stdout: "5\n"}
	}}
	cfg := baseRunConfig(dir)
	cfg.MemoryCheckEnabled = true
	cfg.DiffCapturePath = capture
	cfg.GoldenOutputLookup = func(name string) (string, bool) {
		return golden, name == "test_print"
	}

	v := newTestController(r).Execute(context.Background(), "test_print", testExe, cfg)

	require.Equal(t, domain.Failed, v.Outcome)
	f := v.Failure
	assert.Equal(t, domain.StageOutputDiff, f.Stage)
	assert.Equal(t, "6\n", f.Expected)
	assert.Equal(t, "5\n", f.Actual)
	assert.Empty(t, r.callsTo(testTool), "memory check must not run after a diff failure")

	captured, err := os.ReadFile(capture)
	require.NoError(t, err)
	assert.Equal(t, "5\n", string(captured))
}

func TestExecute_OutputMatchesThenMemoryCheck(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "test_leak")
	require.NoError(t, os.WriteFile(golden, []byte("ok\n"), 0644))

	r := &fakeRunner{respond: func(spec ProcessSpec) ProcessResult {
		if spec.Name == testTool {
			return ProcessResult{
				ExitCode: 1,
				Stderr:   "==7== ERROR SUMMARY: 1 errors from 1 contexts (suppressed: 0 from 0)\n",
			}
		}
		return ProcessResult{Stdout: "ok\n"}
	}}
	cfg := baseRunConfig(dir)
	cfg.MemoryCheckEnabled = true
	cfg.GoldenOutputLookup = func(string) (string, bool) { return golden, true }

	v := newTestController(r).Execute(context.Background(), "test_leak", testExe, cfg)

	require.Equal(t, domain.Failed, v.Outcome)
	f := v.Failure
	assert.Equal(t, domain.StageMemoryCheck, f.Stage)
	assert.True(t, f.MemoryCheck)
	assert.Contains(t, f.Message, "1 memory error(s)")

	calls := r.callsTo(testTool)
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"--leak-check=full", "--track-origins=yes", "--error-exitcode=1", testExe, "test_leak"}, calls[0].Args)
	assert.Equal(t, 20*time.Second, calls[0].Timeout)
}

func TestExecute_MemoryCheckTimeout(t *testing.T) {
	r := &fakeRunner{respond: func(spec ProcessSpec) ProcessResult {
		if spec.Name == testTool {
			return ProcessResult{ExitCode: TimeoutExitCode, TimedOut: true}
		}
		return ProcessResult{}
	}}
	cfg := baseRunConfig(t.TempDir())
	cfg.MemoryCheckEnabled = true

	v := newTestController(r).Execute(context.Background(), "test_slow", testExe, cfg)

	require.NotNil(t, v.Failure)
	assert.Equal(t, domain.StageTimeout, v.Failure.Stage)
	assert.True(t, v.Failure.MemoryCheck)
	assert.Contains(t, v.Failure.Message, "memory check")
}

func TestExecute_MemoryCheckClean(t *testing.T) {
	r := &fakeRunner{}
	cfg := baseRunConfig(t.TempDir())
	cfg.MemoryCheckEnabled = true

	v := newTestController(r).Execute(context.Background(), "test_ok", testExe, cfg)

	assert.Equal(t, domain.Passed, v.Outcome)
	assert.Len(t, r.calls, 2)
}
