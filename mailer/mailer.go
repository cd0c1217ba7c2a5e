package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"gopkg.in/mail.v2"
)

// ErrUnavailable is returned while the breaker is open and sends are
// being refused without trying the server.
var ErrUnavailable = errors.New("mail server unavailable")

type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []string // file paths
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type SMTPMailer struct {
	from    string
	send    func(*mail.Message) error
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		d.Timeout = cfg.Timeout
	}
	return newSMTPMailer(cfg.From, func(m *mail.Message) error { return d.DialAndSend(m) })
}

func newSMTPMailer(from string, send func(*mail.Message) error) *SMTPMailer {
	settings := gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &SMTPMailer{
		from:    from,
		send:    send,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Send delivers msg through the breaker. When ctx ends first the call
// returns ctx.Err(); the dial itself is bounded by the dialer timeout.
func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	for _, path := range msg.Attachments {
		m.Attach(path)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, s.send(m)
		})
		done <- err
	}()

	select {
	case err := <-done:
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if err != nil {
			return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogMailer only logs. It stands in when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	slog.Info("Mail not sent, no SMTP server configured", "to", msg.To, "subject", msg.Subject)
	return nil
}
