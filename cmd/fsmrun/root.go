package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "fsmrun",
	Short:         "Run declarative state machines",
	Long:          `fsmrun loads a YAML transition table, checks that it covers every state and event, and drives it with events from the command line or stdin.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
}

// newLogHandler builds the stderr handler used by every component.
func newLogHandler(cmd *cobra.Command) (slog.Handler, error) {
	name, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}), nil
}
