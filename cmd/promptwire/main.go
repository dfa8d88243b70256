package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/promptwire/promptwire/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "promptwire",
	Short: "Run provider-portable prompts from the command line",
	Long: `promptwire loads .prompt manifests (YAML frontmatter + template body),
assembles them with the given arguments and dispatches them through a
provider adapter.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
}

func newLogger() logging.Logger {
	level := logging.LogLevelWarn
	switch logLevel {
	case "debug":
		level = logging.LogLevelDebug
	case "info":
		level = logging.LogLevelInfo
	case "error":
		level = logging.LogLevelError
	}
	return logging.NewLogger(&logging.Config{Level: level, Format: "text"})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
