// Command flowpulse maintains process behaviour charts for flow metrics.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var version = "dev"

// errInvalid is returned by commands whose verdict is negative; main exits 1
// without printing it again.
var errInvalid = errors.New("invalid")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string

	root := &cobra.Command{
		Use:   "flowpulse",
		Short: "Process behaviour charts for flow metrics",
		Long: `flowpulse builds XmR process behaviour charts for flow metrics such as
throughput, cycle time, WIP and work item age. It derives natural process
limits from a baseline period and flags special causes in the display period.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogger(cmd, logLevel, logFormat)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format: json|text")

	root.AddCommand(newRunCmd(), newOnceCmd(), newCalculateCmd(), newValidateCmd())
	return root
}

// setupLogger installs the default slog logger. Logs go to stderr so command
// output on stdout stays machine-readable.
func setupLogger(cmd *cobra.Command, level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "json":
		h = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	case "text":
		h = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	default:
		return fmt.Errorf("invalid --log-format %q: want json|text", format)
	}
	slog.SetDefault(slog.New(h))
	return nil
}
