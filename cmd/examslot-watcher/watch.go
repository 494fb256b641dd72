package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"examslot-watcher/internal/alert"
	"examslot-watcher/internal/app"
	"examslot-watcher/internal/booking"
	"examslot-watcher/internal/browser"
	"examslot-watcher/internal/config"
	"examslot-watcher/internal/observability"
	"examslot-watcher/internal/storage"
	"examslot-watcher/internal/storage/mssql"
	"examslot-watcher/internal/storage/postgres"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if once {
		cfg.Poll.MaxAttempts = 1
	}

	selectors, err := config.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		return err
	}
	if err := cfg.CheckSelectors(selectors); err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.LoggerOptions())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Close() }()

	ctx, cancel := app.GracefulShutdown(cmd.Context(), logger)
	defer cancel()

	journal := openJournal(ctx, cfg, logger)
	defer func() {
		if err := journal.Close(); err != nil {
			logger.Warn("Failed to close journal", "error", err.Error())
		}
	}()

	notifier, closeNotifiers := buildNotifier(cfg, logger)
	defer closeNotifiers()

	fmt.Print("→ Launching browser... ")
	session, err := browser.Launch(ctx, cfg.BrowserOptions(), logger)
	if err != nil {
		fmt.Println("failed")
		return err
	}
	fmt.Println("done")
	defer func() {
		fmt.Println("→ Closing browser")
		if err := session.Close(); err != nil {
			logger.Warn("Failed to close browser", "error", err.Error())
		}
	}()

	prompter := app.NewConsolePrompter(os.Stdin, os.Stdout)
	client := booking.NewClient(session, prompter, cfg.BookingOptions(*selectors), logger)

	if err := client.Login(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\n⚠ Interrupted by user")
			return nil
		}
		return fmt.Errorf("login failed: %w", err)
	}
	prompter.Announce("YOU ARE NOW ON THE BOOKING PAGE")

	watcher := app.NewWatcher(client, notifier, journal, app.WatchOptions{
		Criteria:               cfg.Criteria(),
		Interval:               cfg.GetPollInterval(),
		JitterPct:              cfg.Poll.JitterPct,
		MaxAttempts:            cfg.Poll.MaxAttempts,
		MaxConsecutiveFailures: cfg.Poll.MaxConsecutiveFailures,
		KeepWatching:           cfg.Poll.KeepWatching,
		AutoBook:               cfg.Search.AutoBook,
	}, logger)

	stats, runErr := watcher.Run(ctx)
	printStats(stats)

	return finishRun(ctx, prompter, cfg.Alert.HoldBrowserOpen, stats, runErr)
}

// finishRun: после находки или остановки с ошибкой браузер остаётся открытым до ENTER
func finishRun(ctx context.Context, prompter booking.Prompter, hold bool, stats *app.RunStats, runErr error) error {
	switch {
	case runErr != nil && errors.Is(runErr, context.Canceled):
		fmt.Println("\n⚠ Interrupted by user")
		return nil
	case runErr != nil:
		prompter.Announce("SEARCH STOPPED: " + runErr.Error())
	case stats != nil && stats.SlotsFound > 0:
		prompter.Announce("AVAILABLE TIMES FOUND!")
	default:
		return nil
	}

	if hold {
		_ = prompter.WaitForEnter(ctx, "Press ENTER to close the browser...")
	}
	return runErr
}

// openJournal: журнал необязателен, ошибка подключения только логируется
func openJournal(ctx context.Context, cfg *config.Config, logger *observability.Logger) storage.Journal {
	if !cfg.Journal.Enabled {
		return storage.Nop{}
	}

	var (
		journal storage.Journal
		err     error
	)
	switch cfg.Journal.Driver {
	case "postgres":
		journal, err = postgres.NewRepository(ctx, cfg.Journal.DSN, cfg.GetCommandTimeout())
	default:
		journal, err = mssql.NewRepository(cfg.Journal.DSN, cfg.GetCommandTimeout(), logger)
	}
	if err != nil {
		logger.Warn("Journal disabled", "driver", cfg.Journal.Driver, "error", err.Error())
		return storage.Nop{}
	}

	if err := journal.EnsureSchema(ctx); err != nil {
		logger.Warn("Journal disabled", "driver", cfg.Journal.Driver, "error", err.Error())
		_ = journal.Close()
		return storage.Nop{}
	}

	logger.Info("Journal enabled", "driver", cfg.Journal.Driver)
	return journal
}

func buildNotifier(cfg *config.Config, logger *observability.Logger) (alert.Notifier, func()) {
	notifiers := alert.Multi{
		alert.NewBeeper(cfg.Alert.BeepCount, cfg.GetBeepSpacing(), logger),
	}
	closeFn := func() {}

	if e := cfg.Notify.Email; e.Enabled {
		notifiers = append(notifiers, alert.NewEmailNotifier(alert.EmailOptions{
			Host:          e.Host,
			Port:          e.Port,
			Username:      e.Username,
			Password:      e.Password,
			From:          e.From,
			To:            e.To,
			SubjectPrefix: e.SubjectPrefix,
		}, logger))
	}

	if r := cfg.Notify.Redis; r.Enabled {
		rn := alert.NewRedisNotifier(alert.RedisOptions{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Stream:   r.Stream,
			MaxLen:   r.MaxLen,
		}, logger)
		notifiers = append(notifiers, rn)
		closeFn = func() {
			if err := rn.Close(); err != nil {
				logger.Warn("Failed to close redis client", "error", err.Error())
			}
		}
	}

	return notifiers, closeFn
}

func printStats(stats *app.RunStats) {
	if stats == nil {
		return
	}
	fmt.Printf("\n✓ Attempts: %d (failed: %d)\n", stats.Attempts, stats.Failures)
	if stats.SlotsFound > 0 {
		fmt.Printf("✓ Slots found on %d attempt(s), alerts sent: %d\n", stats.SlotsFound, stats.Alerts)
	}
	if stats.Booked {
		fmt.Println("✓ Appointment booked")
	}
	if stats.LastResult != nil {
		for i, s := range stats.LastResult.Slots {
			fmt.Printf("  [%d] %s\n", i+1, s.Label)
		}
	}
	if stats.StoppedReason != "" {
		fmt.Printf("  Stopped: %s\n", stats.StoppedReason)
	}
}
