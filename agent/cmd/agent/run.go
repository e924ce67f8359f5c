package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowpulse/flowpulse/agent/internal/config"
	"github.com/flowpulse/flowpulse/agent/internal/export"
	"github.com/flowpulse/flowpulse/agent/internal/runner"
)

func newRunCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Refresh charts continuously",
		Long: `Load the config, refresh every chart each refresh_interval, evaluate alert
rules and write the output file. The config file is watched: saving it
applies the new chart list, rules and output settings without a restart.

Examples:
  flowpulse run --config /etc/flowpulse/config.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			slog.Info("flowpulse starting",
				"version", version,
				"config", configPath,
				"charts", len(cfg.Agent.Charts),
				"refresh_interval", cfg.Agent.RefreshInterval,
			)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			r := runner.New(cfg)
			go func() {
				if err := config.Watch(ctx, configPath, r.Reload); err != nil {
					slog.Error("config watcher stopped", "err", err)
				}
			}()

			r.Run(ctx)
			slog.Info("flowpulse shutting down")
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	return cmd
}

func newOnceCmd() *cobra.Command {
	var configPath, format string
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Refresh every chart once and print the result",
		Long: `Load the config, refresh every chart a single time and print the charts to
stdout. The output file in the config is written as well.

Examples:
  flowpulse once --config config.yaml
  flowpulse once --config config.yaml --format json | jq '.charts[].status'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.Agent.Output.Format
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			r := runner.New(cfg)
			charts, err := r.Refresh(ctx)
			r.Wait()
			if err != nil {
				return err
			}
			if err := export.Write(cmd.OutOrStdout(), format, charts, time.Now()); err != nil {
				return fmt.Errorf("print charts: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	cmd.Flags().StringVar(&format, "format", "", "output format: prometheus|json (default: output.format from config)")
	return cmd
}
