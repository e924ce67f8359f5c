package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flowpulse/flowpulse/pkg/xmr"
)

func newCalculateCmd() *cobra.Command {
	var baselineArg, displayArg, format string
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Compute limits and special causes for literal series",
		Long: `Run the XmR engine on comma-separated series given on the command line.
Limits come from --baseline only; every --display value is classified.

Examples:
  flowpulse calculate --baseline 100,110,100,110 --display 105,140,99
  flowpulse calculate --baseline 10,20,30,40 --display 55 --format text`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			baseline, err := parseSeries(baselineArg)
			if err != nil {
				return fmt.Errorf("--baseline: %w", err)
			}
			display, err := parseSeries(displayArg)
			if err != nil {
				return fmt.Errorf("--display: %w", err)
			}

			res := xmr.Calculate(baseline, display)
			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			case "text":
				printResult(cmd.OutOrStdout(), display, res)
				return nil
			default:
				return fmt.Errorf("unknown --format %q: want json|text", format)
			}
		},
	}
	cmd.Flags().StringVar(&baselineArg, "baseline", "", "comma-separated baseline values")
	cmd.Flags().StringVar(&displayArg, "display", "", "comma-separated display values")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json|text")
	return cmd
}

// parseSeries parses "1, 2.5,3" into numbers. An empty string is an empty series.
func parseSeries(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []float64{}, nil
	}
	fields := strings.Split(s, ",")
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d %q is not a number", i+1, f)
		}
		out[i] = v
	}
	return out, nil
}

func printResult(w io.Writer, display []float64, res xmr.Result) {
	bold := color.New(color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(w, "%s %.4g\n", bold("Average:"), res.Average)
	fmt.Fprintf(w, "%s %.4g\n", bold("UNPL:   "), res.UpperNaturalProcessLimit)
	fmt.Fprintf(w, "%s %.4g\n", bold("LNPL:   "), res.LowerNaturalProcessLimit)
	for i, v := range display {
		causes := res.Classifications[i]
		if len(causes) == 0 {
			fmt.Fprintf(w, "  %3d  %10.4g\n", i, v)
			continue
		}
		names := make([]string, len(causes))
		for j, c := range causes {
			names[j] = c.String()
		}
		fmt.Fprintf(w, "  %3d  %10.4g  %s\n", i, v, red(strings.Join(names, ", ")))
	}
}
