package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ConsolePrompter: ручные шаги оператора в терминале
type ConsolePrompter struct {
	out   io.Writer
	lines chan error
	once  sync.Once
	in    *bufio.Reader
}

func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{
		out:   out,
		lines: make(chan error),
		in:    bufio.NewReader(in),
	}
}

func (p *ConsolePrompter) Announce(message string) {
	bar := strings.Repeat("=", 60)
	_, _ = fmt.Fprintf(p.out, "\n%s\n%s\n%s\n\n", bar, message, bar)
}

// WaitForEnter блокирует до ENTER или отмены context.
// Чтение stdin идёт в одной горутине, строка после отмены достанется следующему вызову.
func (p *ConsolePrompter) WaitForEnter(ctx context.Context, message string) error {
	p.once.Do(func() { go p.readLines() })

	_, _ = fmt.Fprint(p.out, message)

	select {
	case err := <-p.lines:
		_, _ = fmt.Fprintln(p.out)
		return err
	case <-ctx.Done():
		_, _ = fmt.Fprintln(p.out)
		return ctx.Err()
	}
}

func (p *ConsolePrompter) readLines() {
	for {
		_, err := p.in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				err = fmt.Errorf("stdin closed: %w", err)
			}
			// После EOF каждый следующий вызов сразу получает ошибку
			for {
				p.lines <- err
			}
		}
		p.lines <- nil
	}
}
