package commands

import (
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ctp/internal/config"
	"ctp/internal/discovery"
	"ctp/internal/domain"
	"ctp/internal/storage"
	"ctp/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	parser    *discovery.Parser
	filter    *discovery.Filter
	formatter *ui.Formatter
	storage   storage.Storage
	log       logrus.FieldLogger
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	parser *discovery.Parser,
	formatter *ui.Formatter,
	st storage.Storage,
	log logrus.FieldLogger,
) *ListCommand {
	return &ListCommand{
		config:    cfg,
		scanner:   scanner,
		parser:    parser,
		filter:    discovery.NewFilter(),
		formatter: formatter,
		storage:   st,
		log:       log.WithField("component", "list"),
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	t, err := discoverTree(lc.config, lc.scanner, lc.parser, lc.log)
	if err != nil {
		return err
	}

	for _, id := range t.Files() {
		n, _ := t.Node(id)
		if lc.config.Flags.FileFilter != "" && len(lc.filter.FilterByName([]string{n.Path}, lc.config.Flags.FileFilter)) == 0 {
			t.RemoveFile(n.Path)
			continue
		}
		if err := t.UpdateFromDisk(id); err != nil {
			lc.log.WithError(err).Warn("Skipping unreadable test header")
		}
	}

	if len(t.Files()) == 0 {
		color.Yellow("No tests found")
		return nil
	}

	// The last run is optional; a missing report only means nothing is marked.
	var last *domain.RunReport
	if output, err := lc.storage.Load(); err == nil {
		last = output.Report
	}

	lc.formatter.PrintTree(t, ui.NewFailedSet(last), lc.config.Flags.ShowTree)
	return nil
}
