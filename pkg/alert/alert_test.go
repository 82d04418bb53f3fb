package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docgraph-io/docgraph/pkg/config"
)

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage(
		[]string{"ops@example.com", "oncall@example.com"},
		subjectPrefix+"URGENT: Circuit Breaker Tripped - embedder",
		"Too many failures detected.",
	))

	assert.Contains(t, msg, "To: ops@example.com,oncall@example.com\r\n")
	assert.Contains(t, msg, "Subject: [docgraph] URGENT: Circuit Breaker Tripped - embedder\r\n")
	assert.Contains(t, msg, "\r\n\r\nToo many failures detected.\r\n")
}

func TestEmailAlerterDisabledSendsNothing(t *testing.T) {
	// No SMTP host is configured; a send attempt would fail loudly.
	alerter := NewEmailAlerter(config.AlertConfig{Enabled: false})
	assert.NoError(t, alerter.Alert("subject", "message"))
}

func TestNoOpAlerter(t *testing.T) {
	alerter := &NoOpAlerter{}
	assert.NoError(t, alerter.Alert("subject", "message"))
}
