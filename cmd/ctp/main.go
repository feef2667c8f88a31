package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ctp/internal/cli"
	"ctp/internal/cli/commands"
	"ctp/internal/config"
)

var version = "dev"

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg := config.New()
	var flags cli.Flags
	cmds := commands.NewCommands(cfg, log)

	rootCmd := &cobra.Command{
		Use:   "ctp",
		Short: "C/C++ unit test processor",
		Long: `Discovers void test functions in C/C++ test headers, generates a driver that
dispatches to them by name, builds it with make and runs each test in its own
process with a timeout, optional golden-output comparison and optional valgrind.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(flags.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", flags.LogLevel, err)
			}
			log.SetLevel(level)

			return cmds.Prepare(&flags)
		},
	}
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "warn",
		"log level ("+strings.Join(logLevels(), ", ")+")")

	cmds.Register(rootCmd, &flags)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func logLevels() []string {
	levels := make([]string, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		levels = append(levels, level.String())
	}
	return levels
}
