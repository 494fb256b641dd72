package alert

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	"examslot-watcher/internal/observability"
)

const bell = "\a"

type commandRunner func(ctx context.Context, name string, args ...string) error

// Beeper подаёт звуковой сигнал count раз с паузой spacing
type Beeper struct {
	count   int
	spacing time.Duration
	goos    string
	run     commandRunner
	out     io.Writer
	logger  *observability.Logger
}

func NewBeeper(count int, spacing time.Duration, logger *observability.Logger) *Beeper {
	return &Beeper{
		count:   count,
		spacing: spacing,
		goos:    runtime.GOOS,
		run:     runCommand,
		out:     os.Stdout,
		logger:  logger.With("component", "beeper"),
	}
}

func (b *Beeper) Notify(ctx context.Context, _ Event) error {
	for i := 0; i < b.count; i++ {
		if i > 0 {
			t := time.NewTimer(b.spacing)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		if err := b.beep(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *Beeper) beep(ctx context.Context) error {
	name, args := soundCommand(b.goos)
	if name != "" {
		err := b.run(ctx, name, args...)
		if err == nil {
			return nil
		}
		b.logger.Debug("Sound command failed, falling back to terminal bell", "command", name, "error", err.Error())
	}

	if _, err := io.WriteString(b.out, bell); err != nil {
		return fmt.Errorf("write terminal bell: %w", err)
	}
	return nil
}

// soundCommand возвращает системную команду звука, пустое имя означает только BEL
func soundCommand(goos string) (string, []string) {
	switch goos {
	case "darwin":
		return "afplay", []string{"/System/Library/Sounds/Glass.aiff"}
	case "windows":
		return "powershell", []string{"-NoProfile", "-Command", "[console]::beep(1000,500)"}
	default:
		return "", nil
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
