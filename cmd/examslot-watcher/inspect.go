package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"examslot-watcher/internal/config"
	"examslot-watcher/internal/slots"
)

func newInspectCmd() *cobra.Command {
	var selectorsPath string

	cmd := &cobra.Command{
		Use:   "inspect <saved.html>",
		Short: "Parse a saved results page offline and print what the watcher would see",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selectors, err := config.LoadSelectors(selectorsPath)
			if err != nil {
				return err
			}

			html, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read page: %w", err)
			}

			result, err := slots.Parse(string(html), selectors.Results, slots.NewDateParser())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !result.Available() {
				fmt.Fprintln(out, "⚠ No available times (no-times message present)")
				return nil
			}

			fmt.Fprintf(out, "✓ Available times: %d slot(s) parsed\n", len(result.Slots))
			for i, s := range result.Slots {
				line := s.Label
				if s.HasStart {
					line += "  →  " + s.Start.Format("Mon 2006-01-02 15:04")
				}
				if s.Location != "" {
					line += "  @ " + s.Location
				}
				fmt.Fprintf(out, "  [%d] %s\n", i+1, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&selectorsPath, "selectors", "", "Selectors YAML (built-in selectors if empty)")
	return cmd
}
