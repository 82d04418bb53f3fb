// Package alert sends operator notifications when something needs attention,
// such as a circuit breaker tripping on the embedding or LLM provider.
package alert

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/docgraph-io/docgraph/pkg/config"
)

// subjectPrefix tags outgoing mail so operator inboxes can filter alerts
// raised by this service from everything else on the host.
const subjectPrefix = "[docgraph] "

// Alerter defines an interface for sending alerts.
type Alerter interface {
	Alert(subject, message string) error
}

// EmailAlerter implements Alerter using SMTP.
type EmailAlerter struct {
	cfg config.AlertConfig
}

// NewEmailAlerter creates a new email alerter.
func NewEmailAlerter(cfg config.AlertConfig) *EmailAlerter {
	return &EmailAlerter{cfg: cfg}
}

// Alert sends an email with the given subject and message.
func (a *EmailAlerter) Alert(subject, message string) error {
	if !a.cfg.Enabled {
		return nil
	}

	auth := smtp.PlainAuth("", a.cfg.Username, a.cfg.Password, a.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", a.cfg.SMTPHost, a.cfg.SMTPPort)
	msg := buildMessage(a.cfg.To, subjectPrefix+subject, message)

	if err := smtp.SendMail(addr, auth, a.cfg.From, a.cfg.To, msg); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	return nil
}

// buildMessage renders the RFC 5322 wire form of the alert.
func buildMessage(to []string, subject, message string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ","))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("\r\n")
	b.WriteString(message)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// NoOpAlerter is a dummy alerter for when alerting is disabled.
type NoOpAlerter struct{}

// Alert implements Alerter.
func (n *NoOpAlerter) Alert(subject, message string) error {
	return nil
}

var (
	_ Alerter = (*EmailAlerter)(nil)
	_ Alerter = (*NoOpAlerter)(nil)
)
