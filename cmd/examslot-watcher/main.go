package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
	headless   bool
	once       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "examslot-watcher",
		Short: "Watch the Trafikverket booking site for open driving-exam slots",
		Long: `examslot-watcher logs in to fp.trafikverket.se (BankID is completed by you),
fills the search form with your criteria and re-checks it until free exam times
appear. When they do it beeps, sends the configured notifications and keeps the
browser open so you can book.

Example:
  examslot-watcher --config configs/config.yaml`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: loadEnvFile,
		RunE:              runWatch,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file with secrets (ignored if missing)")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "Run the browser headless (overrides browser.headless)")
	rootCmd.Flags().BoolVar(&once, "once", false, "Run a single search attempt and exit")

	rootCmd.AddCommand(newValidateCmd(), newInspectCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadEnvFile: .env не обязателен, если путь не задан явно
func loadEnvFile(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file") {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}
	return nil
}
