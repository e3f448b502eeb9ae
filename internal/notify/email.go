package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       []string
}

// EmailNotifier sends alerts by SMTP.
type EmailNotifier struct {
	cfg  EmailConfig
	log  logrus.FieldLogger
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewEmailNotifier creates an SMTP notifier.
func NewEmailNotifier(cfg EmailConfig, log logrus.FieldLogger) (*EmailNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if len(cfg.To) == 0 {
		return nil, errors.New("at least one alert recipient is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	return &EmailNotifier{
		cfg: cfg,
		log: log,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}, nil
}

// NotifyRisk sends one message to all recipients.
func (n *EmailNotifier) NotifyRisk(ctx context.Context, a Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = n.cfg.From
	e.To = n.cfg.To
	e.Subject = a.Subject()
	e.Text = []byte(a.Body())

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}

	if err := n.send(e, addr, auth); err != nil {
		n.log.WithError(err).WithField("account_id", a.AccountID).Error("failed to send risk alert")
		return fmt.Errorf("send risk alert: %w", err)
	}

	n.log.WithFields(logrus.Fields{"account_id": a.AccountID, "recipients": len(e.To)}).Info("risk alert sent")
	return nil
}

var _ Notifier = (*EmailNotifier)(nil)
