package notifier

import (
	"context"
	"fmt"
	"time"

	"lodge/pkg/logger"
	"lodge/pkg/model"

	"github.com/wneessen/go-mail"
)

const (
	DefaultSMTPPort    = 587
	DefaultFromAddress = "no-reply@grasshopperlodge.com"
	DefaultSubject     = "New booking request — Grasshopper Lodge"
	DefaultSMTPTimeout = 10 * time.Second
)

type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool // implicit TLS instead of STARTTLS
	Username string
	Password string
	From     string
	To       string // falls back to Username
	Subject  string
	Timeout  time.Duration
}

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type SMTPNotifier struct {
	sender  mailSender
	from    string
	to      string
	subject string
	log     *logger.Logger
}

// NewSMTP returns a Nop notifier when no SMTP host is configured.
func NewSMTP(cfg SMTPConfig, log *logger.Logger) (Notifier, error) {
	if cfg.Host == "" {
		log.Info("SMTP host not configured, booking emails disabled")
		return Nop{}, nil
	}

	cfg = withDefaults(cfg)
	if cfg.To == "" {
		return nil, fmt.Errorf("no notification recipient: set NOTIFY_EMAIL or SMTP_USER")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	log.Info("SMTP notifications enabled",
		"host", cfg.Host,
		"port", cfg.Port,
		"secure", cfg.Secure,
		"to", cfg.To,
	)

	return newSMTPNotifier(client, cfg, log), nil
}

func newSMTPNotifier(sender mailSender, cfg SMTPConfig, log *logger.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		sender:  sender,
		from:    cfg.From,
		to:      cfg.To,
		subject: cfg.Subject,
		log:     log,
	}
}

func withDefaults(cfg SMTPConfig) SMTPConfig {
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.From == "" {
		cfg.From = DefaultFromAddress
	}
	if cfg.To == "" {
		cfg.To = cfg.Username
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSMTPTimeout
	}
	return cfg
}

func (n *SMTPNotifier) Notify(ctx context.Context, record model.BookingRecord) error {
	msg, err := n.message(record)
	if err != nil {
		return err
	}

	if err := n.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send booking email: %w", err)
	}

	n.log.Debug("Booking email sent", "to", n.to, "email", record.Email)
	return nil
}

func (n *SMTPNotifier) message(record model.BookingRecord) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", n.from, err)
	}
	if err := msg.To(n.to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", n.to, err)
	}
	msg.Subject(n.subject)
	msg.SetBodyString(mail.TypeTextPlain, FormatText(record))
	return msg, nil
}
