// Package mail delivers outbound e-mail for the server. Requests never
// talk to SMTP directly: they enqueue a Message on the Outbox and a pool of
// workers hands it to a Mailer.
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storefront/internal/logging"
	gomail "github.com/wneessen/go-mail"
)

type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig describes a STARTTLS submission server with plain auth.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer sends messages through an SMTP relay using go-mail.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPMailer{cfg: cfg}
}

// dialAndSend is a seam for testing the SMTP round trip.
var dialAndSend = func(ctx context.Context, c *gomail.Client, msgs ...*gomail.Msg) error {
	return c.DialAndSendWithContext(ctx, msgs...)
}

func (m *SMTPMailer) buildMsg(msg Message) (*gomail.Msg, error) {
	gm := gomail.NewMsg()
	if err := gm.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.cfg.From, err)
	}
	if err := gm.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	gm.Subject(msg.Subject)

	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		gm.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
		gm.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		gm.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	default:
		gm.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	}
	return gm, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	gm, err := m.buildMsg(msg)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(m.cfg.Timeout),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}

	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := dialAndSend(ctx, client, gm); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer writes messages to the logger instead of sending them. It is
// used when no SMTP host is configured. Bodies may carry reset links, so
// they are only logged at debug level.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(l logging.Logger) *LogMailer {
	return &LogMailer{logger: l.With("module", "log_mailer")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info(ctx, "mail not sent, no SMTP host configured",
		"to", msg.To, "subject", msg.Subject)
	m.logger.Debug(ctx, "unsent mail body", "to", msg.To, "body", msg.TextBody)
	return nil
}
