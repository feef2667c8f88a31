package execution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ctp/internal/config"
	"ctp/internal/domain"
	"ctp/internal/driver"
)

// Settings holds the batch-level options of a run
type Settings struct {
	DriverPath      string
	ExecutablePath  string
	DiffCapturePath string
	BuildTarget     string
	CleanTarget     string

	CleanupExecutable bool
	CleanupDriver     bool
	RunCleanCommand   bool

	// FailFast skips the remaining cases after the first failure.
	FailFast bool

	Run RunConfig
}

// NewSettings resolves batch settings from configuration
func NewSettings(cfg *config.Config) Settings {
	return Settings{
		DriverPath:        cfg.DriverPath(),
		ExecutablePath:    cfg.ExecutablePath(),
		DiffCapturePath:   cfg.DiffTempPath(),
		BuildTarget:       cfg.BuildTargetName,
		CleanTarget:       cfg.CleanTargetName,
		CleanupExecutable: cfg.CleanupExecutableAfterRun,
		CleanupDriver:     cfg.CleanupDriverAfterRun,
		RunCleanCommand:   cfg.RunCleanCommandOnExit,
		FailFast:          cfg.Flags.FailFast,
		Run:               NewRunConfig(cfg),
	}
}

// VerdictRecorder stores the verdict of a case, typically the test tree.
type VerdictRecorder interface {
	SetVerdict(ref domain.CaseRef, v domain.Verdict) bool
}

// Coordinator sequences driver synthesis, build and per-test execution for one batch
type Coordinator struct {
	settings Settings
	synth    *driver.Synthesizer
	builder  *Builder
	executor Executor
	sink     domain.Sink
	recorder VerdictRecorder
	log      logrus.FieldLogger
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(settings Settings, synth *driver.Synthesizer, builder *Builder, executor Executor, log logrus.FieldLogger) *Coordinator {
	return &Coordinator{
		settings: settings,
		synth:    synth,
		builder:  builder,
		executor: executor,
		sink:     noopSink{},
		log:      log.WithField("component", "coordinator"),
	}
}

// SetSink sets the observer notified of every case transition
func (c *Coordinator) SetSink(sink domain.Sink) {
	if sink == nil {
		sink = noopSink{}
	}
	c.sink = sink
}

// SetRecorder sets where verdicts are stored besides the report
func (c *Coordinator) SetRecorder(r VerdictRecorder) {
	c.recorder = r
}

// RunBatch runs the selected cases in order. Only a corrupted template or a failed
// write of the driver is returned as an error; a failed build ends the batch with a
// single compilation failure in the report. ctx is checked between tests only.
func (c *Coordinator) RunBatch(ctx context.Context, cases []domain.CaseRef) (*domain.RunReport, error) {
	report := &domain.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	if len(cases) == 0 {
		return report, nil
	}
	log := c.log.WithField("run_id", report.RunID)

	for _, tc := range cases {
		c.sink.Enqueued(tc)
	}

	source, err := c.synth.Synthesize(cases)
	if err != nil {
		return nil, fmt.Errorf("synthesize driver: %w", err)
	}
	if err := driver.Write(c.settings.DriverPath, source); err != nil {
		return nil, err
	}
	defer func() {
		if err := c.Cleanup(context.WithoutCancel(ctx)); err != nil {
			log.WithError(err).Warn("Cleanup failed")
		}
	}()

	// An in-flight test is never interrupted by cancellation.
	procCtx := context.WithoutCancel(ctx)

	if err := c.builder.Build(procCtx, c.settings.BuildTarget); err != nil {
		c.reportBuildFailure(report, cases, err)
		report.Duration = time.Since(report.StartedAt)
		log.WithError(err).Warn("Build failed, no tests executed")
		return report, nil
	}

	stop := false
	for _, tc := range cases {
		if stop || ctx.Err() != nil {
			c.record(report, tc, domain.Verdict{Outcome: domain.Skipped})
			c.sink.Skipped(tc)
			continue
		}

		c.sink.Started(tc)
		v := c.executor.Execute(procCtx, tc.Label, c.settings.ExecutablePath, c.settings.Run)
		c.record(report, tc, v)

		if v.Outcome == domain.Failed {
			c.sink.Failed(tc, *v.Failure, v.Duration)
			stop = c.settings.FailFast
		} else {
			c.sink.Passed(tc, v.Duration)
		}
	}

	report.Duration = time.Since(report.StartedAt)
	passed, failed, skipped := report.Counts()
	log.WithFields(logrus.Fields{
		"passed":  passed,
		"failed":  failed,
		"skipped": skipped,
	}).Info("Batch finished")
	return report, nil
}

func (c *Coordinator) reportBuildFailure(report *domain.RunReport, cases []domain.CaseRef, err error) {
	failure := domain.FailureReport{
		Stage:   domain.StageCompile,
		Message: err.Error(),
	}
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		failure.Stdout = buildErr.Stdout
		failure.Stderr = buildErr.Stderr
		if buildErr.Err == nil {
			failure.ExitCode = domain.IntPtr(buildErr.ExitCode)
		}
	}

	compilation := domain.CompilationCase(cases[0])
	report.BuildFailed = true
	report.Results = append(report.Results, domain.CaseResult{
		Case:    compilation,
		Verdict: domain.Verdict{Outcome: domain.Failed, Failure: &failure},
	})
	report.NotRun = append(report.NotRun, cases...)
	c.sink.Failed(compilation, failure, 0)
}

func (c *Coordinator) record(report *domain.RunReport, tc domain.CaseRef, v domain.Verdict) {
	report.Results = append(report.Results, domain.CaseResult{Case: tc, Verdict: v})
	if c.recorder != nil && !c.recorder.SetVerdict(tc, v) {
		c.log.WithField("test", tc.Label).Debug("Case was rescanned during the run, verdict not stored")
	}
}

// Cleanup removes the generated artifacts per the retention settings and
// optionally runs the clean target. The diff capture file is always removed.
func (c *Coordinator) Cleanup(ctx context.Context) error {
	var errs []error
	if c.settings.CleanupDriver {
		errs = append(errs, removeIfExists(c.settings.DriverPath))
	}
	if c.settings.CleanupExecutable {
		errs = append(errs, removeIfExists(c.settings.ExecutablePath))
	}
	if c.settings.DiffCapturePath != "" {
		errs = append(errs, removeIfExists(c.settings.DiffCapturePath))
	}
	if c.settings.RunCleanCommand {
		errs = append(errs, c.builder.Clean(ctx, c.settings.CleanTarget))
	}
	return errors.Join(errs...)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

type noopSink struct{}

func (noopSink) Enqueued(domain.CaseRef)                                    {}
func (noopSink) Started(domain.CaseRef)                                     {}
func (noopSink) Passed(domain.CaseRef, time.Duration)                       {}
func (noopSink) Failed(domain.CaseRef, domain.FailureReport, time.Duration) {}
func (noopSink) Skipped(domain.CaseRef)                                     {}
