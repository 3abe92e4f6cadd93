package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer writes outbound messages to the log instead of delivering them.
// Used when SMTP is disabled, typically local development.
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer builds a LogMailer around the given logger.
func NewLogMailer(log *zap.Logger) *LogMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogMailer{log: log}
}

// Send records the message and reports success.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("email suppressed (smtp disabled)",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
