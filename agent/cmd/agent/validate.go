package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flowpulse/flowpulse/agent/internal/config"
	"github.com/flowpulse/flowpulse/pkg/baseline"
)

func newValidateCmd() *cobra.Command {
	var startArg, endArg, atArg string
	var cutoff int
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a baseline date range",
		Long: `Check whether a baseline date range is usable: both dates given, at least
14 days long, not in the future, and starting within the data cutoff.
Exits 1 when the baseline is invalid.

Examples:
  flowpulse validate --start 2026-01-05 --end 2026-02-01
  flowpulse validate --start 2025-06-01 --end 2025-07-01 --cutoff 365`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := optionalDate(startArg)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			end, err := optionalDate(endArg)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			now := time.Now()
			if atArg != "" {
				if now, err = config.ParseDate(atArg); err != nil {
					return fmt.Errorf("--at: %w", err)
				}
			}

			res := baseline.ValidateAt(start, end, cutoff, now)
			w := cmd.OutOrStdout()
			if res.IsValid {
				fmt.Fprintf(w, "%s baseline is valid\n", color.New(color.FgGreen).Sprint("✓"))
				return nil
			}
			fmt.Fprintf(w, "%s %s\n", color.New(color.FgRed).Sprint("✗"), res.ErrorMessage)
			return errInvalid
		},
	}
	cmd.Flags().StringVar(&startArg, "start", "", "baseline start date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&endArg, "end", "", "baseline end date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().IntVar(&cutoff, "cutoff", config.DefaultCutoffDays, "data cutoff in days")
	cmd.Flags().StringVar(&atArg, "at", "", "validate as of this time instead of now")
	return cmd
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := config.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
