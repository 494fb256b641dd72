package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"examslot-watcher/internal/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config and selectors files and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			selectors, err := config.LoadSelectors(cfg.SelectorsFile)
			if err != nil {
				return err
			}
			if err := cfg.CheckSelectors(selectors); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Config %s is valid\n", configPath)
			if cfg.SelectorsFile == "" {
				fmt.Fprintln(out, "✓ Using built-in selectors")
			} else {
				fmt.Fprintf(out, "✓ Selectors %s are valid\n", cfg.SelectorsFile)
			}

			fmt.Fprintf(out, "\n  Examination: %s\n", orDash(cfg.Search.ExaminationType))
			fmt.Fprintf(out, "  Locations:   %s\n", orDash(strings.Join(cfg.Search.Locations, ", ")))
			fmt.Fprintf(out, "  Vehicle:     %s\n", orDash(cfg.Search.VehicleType))
			fmt.Fprintf(out, "  Poll:        every %s, jitter %d%%, max attempts %s\n",
				cfg.GetPollInterval(), cfg.Poll.JitterPct, unbounded(cfg.Poll.MaxAttempts))
			fmt.Fprintf(out, "  No-times:    %q\n", selectors.Results.NoTimesText)

			var channels []string
			channels = append(channels, fmt.Sprintf("beep x%d", cfg.Alert.BeepCount))
			if cfg.Notify.Email.Enabled {
				channels = append(channels, "email "+strings.Join(cfg.Notify.Email.To, ","))
			}
			if cfg.Notify.Redis.Enabled {
				channels = append(channels, "redis "+cfg.Notify.Redis.Stream)
			}
			fmt.Fprintf(out, "  Alerts:      %s\n", strings.Join(channels, "; "))

			journal := "off"
			if cfg.Journal.Enabled {
				journal = cfg.Journal.Driver
			}
			fmt.Fprintf(out, "  Journal:     %s\n", journal)
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func unbounded(n int) string {
	if n <= 0 {
		return "unbounded"
	}
	return fmt.Sprintf("%d", n)
}
