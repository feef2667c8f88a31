package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ctp/internal/config"
)

// InitCommand handles the init command
type InitCommand struct {
	config *config.Config
}

// NewInitCommand creates a new InitCommand
func NewInitCommand(cfg *config.Config) *InitCommand {
	return &InitCommand{config: cfg}
}

// Execute runs the command
func (ic *InitCommand) Execute(cmd *cobra.Command, args []string) error {
	path, err := config.WriteDefaultFile(ic.config.ProjectPath, ic.config.Flags.Force)
	if err != nil {
		return err
	}
	color.Green("✓ Wrote %s", path)
	return nil
}
