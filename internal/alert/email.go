package alert

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"examslot-watcher/internal/observability"
)

type EmailOptions struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	To            []string
	SubjectPrefix string
}

type sendFunc func(mail *email.Email, addr string, auth smtp.Auth) error

// EmailNotifier отправляет сводку по SMTP
type EmailNotifier struct {
	opts   EmailOptions
	send   sendFunc
	logger *observability.Logger
}

func NewEmailNotifier(opts EmailOptions, logger *observability.Logger) *EmailNotifier {
	return &EmailNotifier{
		opts:   opts,
		send:   func(mail *email.Email, addr string, auth smtp.Auth) error { return mail.Send(addr, auth) },
		logger: logger.With("component", "email"),
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := email.NewEmail()
	mail.From = n.opts.From
	mail.To = append([]string(nil), n.opts.To...)
	mail.Subject = strings.TrimSpace(n.opts.SubjectPrefix + " " + event.Subject())
	mail.Text = []byte(event.Body())

	addr := fmt.Sprintf("%s:%d", n.opts.Host, n.opts.Port)

	var auth smtp.Auth
	if n.opts.Username != "" {
		auth = smtp.PlainAuth("", n.opts.Username, n.opts.Password, n.opts.Host)
	}

	err := n.send(mail, addr, auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = n.send(mail, addr, nil)
	}
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("Email notification sent", "to", strings.Join(mail.To, ","))
	return nil
}
