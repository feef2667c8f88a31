package commands

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ctp/internal/cli"
	"ctp/internal/config"
	"ctp/internal/discovery"
	"ctp/internal/driver"
	"ctp/internal/execution"
	"ctp/internal/parser"
	"ctp/internal/storage"
	"ctp/internal/ui"
)

// Commands holds all CLI commands
type Commands struct {
	config *config.Config
	log    logrus.FieldLogger

	Run      *RunCommand
	List     *ListCommand
	Failures *FailuresCommand
	Init     *InitCommand
	Clean    *CleanCommand
}

// NewCommands creates the command set. Dependencies are wired by Prepare once
// the configuration of the selected project is known.
func NewCommands(cfg *config.Config, log logrus.FieldLogger) *Commands {
	return &Commands{config: cfg, log: log}
}

// Prepare loads the project configuration and wires every command
func (c *Commands) Prepare(flags *cli.Flags) error {
	projectPath := flags.ProjectPath
	if projectPath == "" {
		projectPath = config.DefaultProjectPath
	}
	if abs, err := filepath.Abs(projectPath); err == nil {
		projectPath = abs
	}

	loaded, err := config.Load(projectPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	*c.config = *loaded
	c.config.Flags = flags.ToConfigFlags()
	cfg := c.config

	scanner := discovery.NewScanner(cfg.PathsToIgnore, cfg.TestFileSuffix)
	testCaseParser := discovery.NewParser()
	runner := execution.NewRunner()
	builder := execution.NewBuilder(runner, cfg.BuildCommand, cfg.ProjectPath, c.log)
	controller := execution.NewController(runner, parser.NewDiagnosticsParser(), c.log)
	synth := driver.NewSynthesizer(cfg.ProjectPath)
	if cfg.DriverTemplateFile != "" {
		if err := synth.LoadTemplate(cfg.ResolvePath(cfg.DriverTemplateFile)); err != nil {
			return err
		}
	}
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(cfg)
	errorViewer := ui.NewErrorViewer(cfg)

	c.Run = NewRunCommand(cfg, scanner, testCaseParser, synth, builder, controller, jsonStorage, formatter, errorViewer, c.log)
	c.List = NewListCommand(cfg, scanner, testCaseParser, formatter, jsonStorage, c.log)
	c.Failures = NewFailuresCommand(cfg, jsonStorage, errorViewer)
	c.Init = NewInitCommand(cfg)
	c.Clean = NewCleanCommand(cfg, synth, builder, c.log)
	return nil
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags) {
	rootCmd.PersistentFlags().StringVarP(&flags.ProjectPath, "project", "C", config.DefaultProjectPath, "Project root holding ctp.yaml, the Makefile and the test headers")

	requireSettings := func(cmd *cobra.Command, args []string) error {
		return c.config.RequireRunSettings()
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Build and run C/C++ unit tests",
		Long: `Discover test functions in the project's test headers, synthesize a driver
that dispatches to them, build it with the configured build command and run
every selected test as its own process.`,
		PreRunE: requireSettings,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run.Execute(cmd, args)
		},
	}
	runCmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder where test detection should start")
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter test cases by name (supports wildcards, e.g. 'test_parse*')")
	runCmd.Flags().StringVar(&flags.FileFilter, "file", "", "Filter test headers by file name (supports wildcards, e.g. 'string_*')")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Skip the remaining tests after the first failure")
	runCmd.Flags().BoolVar(&flags.NoProgress, "no-progress", false, "Print one line per test instead of a progress bar")
	runCmd.Flags().BoolVar(&flags.OpenFailures, "open-failures", false, "Open the failures viewer when the run finishes with failures")
	rootCmd.AddCommand(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered tests",
		Long:  "Scan and list the test headers, and optionally their groups and cases, without building anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.List.Execute(cmd, args)
		},
	}
	listCmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder where test detection should start")
	listCmd.Flags().StringVar(&flags.FileFilter, "file", "", "Filter test headers by file name (supports wildcards)")
	listCmd.Flags().BoolVarP(&flags.TestCases, "test-cases", "c", false, "Show test groups and cases under each header")
	rootCmd.AddCommand(listCmd)

	failuresCmd := &cobra.Command{
		Use:   "failures",
		Short: "View test failures interactively",
		Long:  "Display the failures of the last run in an interactive viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Failures.Execute(cmd, args)
		},
	}
	rootCmd.AddCommand(failuresCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a ctp.yaml with default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Init.Execute(cmd, args)
		},
	}
	initCmd.Flags().BoolVar(&flags.Force, "force", false, "Overwrite an existing ctp.yaml")
	rootCmd.AddCommand(initCmd)

	cleanCmd := &cobra.Command{
		Use:     "clean",
		Short:   "Remove the generated driver, executable and diff file",
		PreRunE: requireSettings,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Clean.Execute(cmd, args)
		},
	}
	rootCmd.AddCommand(cleanCmd)
}
