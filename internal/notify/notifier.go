// Package notify sends plain-text notification emails over SMTP with
// mandatory STARTTLS.
package notify

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/dataprocessor/internal/common"
	"github.com/dmitrijs2005/dataprocessor/internal/logging"
	"github.com/wneessen/go-mail"
)

type Options struct {
	Host     string
	Port     int
	Sender   string
	Password string
	// Timeout bounds dialling and each SMTP command.
	Timeout time.Duration
	// RootCAs verifies the server certificate; nil means the system pool.
	RootCAs *x509.CertPool
}

type Notifier struct {
	opts   Options
	logger logging.Logger
	now    func() time.Time
}

func New(opts Options, logger logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Notifier{opts: opts, logger: logger, now: time.Now}
}

// Send delivers one message to recipient. The connection must be upgraded
// with STARTTLS before authenticating; a server that does not offer it is
// refused.
func (n *Notifier) Send(ctx context.Context, recipient, subject, body string) error {
	if n.opts.Password == "" {
		n.logger.Warn(ctx, "SMTP password missing, email not sent")
		return fmt.Errorf("send email: %w", common.ErrConfigurationMissing)
	}

	msg, err := n.newMessage(recipient, subject, body)
	if err != nil {
		return fmt.Errorf("send email: %w: %w", common.ErrValidation, err)
	}

	client, err := n.newClient()
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	if err := deliver(ctx, client, msg); err != nil {
		n.logger.Error(ctx, "email failed", "recipient", recipient, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info(ctx, "email sent", "recipient", recipient)
	return nil
}

func (n *Notifier) newMessage(recipient, subject, body string) (*mail.Msg, error) {
	if strings.ContainsAny(subject, "\r\n") {
		return nil, fmt.Errorf("subject contains line breaks")
	}

	m := mail.NewMsg()
	if err := m.From(n.opts.Sender); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if err := m.To(recipient); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	m.Subject(subject)
	m.SetDateWithValue(n.now())
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

func (n *Notifier) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithPort(n.opts.Port),
		mail.WithTLSConfig(&tls.Config{
			ServerName: n.opts.Host,
			MinVersion: tls.VersionTLS12,
			RootCAs:    n.opts.RootCAs,
		}),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.opts.Sender),
		mail.WithPassword(n.opts.Password),
	}
	if n.opts.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(n.opts.Timeout))
	}

	client, err := mail.NewClient(n.opts.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: smtp client: %w", common.ErrValidation, err)
	}
	return client, nil
}

// deliver maps failures to reach, secure or authenticate against the server
// to common.ErrConnectivity and refusals of the message to
// common.ErrRemoteRejection.
func deliver(ctx context.Context, client *mail.Client, msg *mail.Msg) error {
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", common.ErrConnectivity, err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Send(msg); err != nil {
		return fmt.Errorf("%w: %w", common.ErrRemoteRejection, err)
	}
	return nil
}
