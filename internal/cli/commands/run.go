package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ctp/internal/config"
	"ctp/internal/discovery"
	"ctp/internal/driver"
	"ctp/internal/execution"
	"ctp/internal/storage"
	"ctp/internal/tree"
	"ctp/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	parser    *discovery.Parser
	synth     *driver.Synthesizer
	builder   *execution.Builder
	executor  execution.Executor
	storage   storage.Storage
	formatter *ui.Formatter
	viewer    ui.Viewer
	log       logrus.FieldLogger
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	parser *discovery.Parser,
	synth *driver.Synthesizer,
	builder *execution.Builder,
	executor execution.Executor,
	st storage.Storage,
	formatter *ui.Formatter,
	viewer ui.Viewer,
	log logrus.FieldLogger,
) *RunCommand {
	return &RunCommand{
		config:    cfg,
		scanner:   scanner,
		parser:    parser,
		synth:     synth,
		builder:   builder,
		executor:  executor,
		storage:   st,
		formatter: formatter,
		viewer:    viewer,
		log:       log.WithField("component", "run"),
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, err := discoverTree(rc.config, rc.scanner, rc.parser, rc.log)
	if err != nil {
		return err
	}

	req := t.Select(tree.SelectOptions{
		NameFilter: rc.config.Flags.NameFilter,
		FileFilter: rc.config.Flags.FileFilter,
	})
	if len(req.Cases) == 0 {
		color.Yellow("No tests to execute")
		return nil
	}

	sink := ui.NewConsoleSink(cmd.OutOrStdout(), rc.config.ProjectPath, !rc.config.Flags.NoProgress)
	coordinator := execution.NewCoordinator(execution.NewSettings(rc.config), rc.synth, rc.builder, rc.executor, rc.log)
	coordinator.SetSink(sink)
	coordinator.SetRecorder(t)

	report, err := coordinator.RunBatch(ctx, req.Cases)
	sink.Finish()
	if err != nil {
		return err
	}

	if err := rc.storage.Save(report); err != nil {
		return fmt.Errorf("failed to save test results: %w", err)
	}

	rc.formatter.PrintSummary(report)

	_, failed, _ := report.Counts()
	if failed == 0 {
		return nil
	}
	if rc.config.Flags.OpenFailures {
		output, err := rc.storage.Load()
		if err != nil {
			return err
		}
		if err := rc.viewer.View(output); err != nil {
			return err
		}
	}
	cmd.SilenceUsage = true
	return fmt.Errorf("%d test(s) failed", failed)
}

// discoverTree scans the test path for headers and adds each as an unresolved file.
func discoverTree(cfg *config.Config, scanner *discovery.Scanner, parser *discovery.Parser, log logrus.FieldLogger) (*tree.Tree, error) {
	files, err := scanner.Scan(cfg.GetTestPath())
	if err != nil {
		return nil, err
	}

	t := tree.New(parser, log)
	for _, f := range files {
		t.AddFile(f)
	}
	log.WithField("files", len(files)).Debug("Discovered test headers")
	return t, nil
}
