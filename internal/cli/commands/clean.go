package commands

import (
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ctp/internal/config"
	"ctp/internal/driver"
	"ctp/internal/execution"
)

// CleanCommand handles the clean command
type CleanCommand struct {
	config  *config.Config
	synth   *driver.Synthesizer
	builder *execution.Builder
	log     logrus.FieldLogger
}

// NewCleanCommand creates a new CleanCommand
func NewCleanCommand(cfg *config.Config, synth *driver.Synthesizer, builder *execution.Builder, log logrus.FieldLogger) *CleanCommand {
	return &CleanCommand{
		config:  cfg,
		synth:   synth,
		builder: builder,
		log:     log,
	}
}

// Execute removes every generated artifact regardless of the retention settings.
// The clean target still runs only when run_clean_command_on_exit is set.
func (cc *CleanCommand) Execute(cmd *cobra.Command, args []string) error {
	settings := execution.NewSettings(cc.config)
	settings.CleanupDriver = true
	settings.CleanupExecutable = true

	coordinator := execution.NewCoordinator(settings, cc.synth, cc.builder, nil, cc.log)
	if err := coordinator.Cleanup(cmd.Context()); err != nil {
		return err
	}
	color.Green("✓ Removed generated files")
	return nil
}
