package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/soiree-app/soiree/pkg/errors"
	"github.com/soiree-app/soiree/pkg/logger"
	"github.com/soiree-app/soiree/pkg/mail"
	"github.com/soiree-app/soiree/pkg/metrics"
)

// Recipient is one addressee of a bulk send.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"required,email"`
}

// SendResult reports the delivery outcome for a single recipient.
type SendResult struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BroadcastSummary aggregates a bulk send.
type BroadcastSummary struct {
	Sent    int          `json:"sent"`
	Failed  int          `json:"failed"`
	Results []SendResult `json:"results"`
}

// BroadcastService sends personalised reminder and thank-you emails to guests.
// Failures are collected per recipient and never retried here; resending is a
// dashboard concern.
type BroadcastService struct {
	mailer mail.Mailer
	from   string
}

// NewBroadcastService builds the service.
func NewBroadcastService(mailer mail.Mailer, from string) (*BroadcastService, error) {
	if mailer == nil {
		return nil, errors.New("broadcast service requires a mailer")
	}
	return &BroadcastService{mailer: mailer, from: from}, nil
}

// Send emails every recipient a greeting personalised with their first name.
// kind labels the metrics series (reminder|thankyou).
func (s *BroadcastService) Send(ctx context.Context, kind, subject, message string, recipients []Recipient) (*BroadcastSummary, error) {
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)

	if len(recipients) == 0 {
		return nil, apperrors.NewBadRequest("no recipients selected")
	}
	if subject == "" {
		return nil, apperrors.NewBadRequest("subject is required")
	}
	if message == "" {
		return nil, apperrors.NewBadRequest("message is required")
	}

	log := logger.WithModule("broadcast")
	summary := &BroadcastSummary{Results: make([]SendResult, 0, len(recipients))}

	for _, recipient := range recipients {
		msg := mail.Message{
			From:    s.from,
			To:      []string{recipient.Email},
			Subject: subject,
			Body:    broadcastBody(recipient.Name, message),
			HTML:    true,
		}

		if err := s.mailer.Send(ctx, msg); err != nil {
			log.Warn("broadcast delivery failed",
				zap.String("kind", kind),
				zap.String("email", recipient.Email),
				zap.Error(err),
			)
			metrics.EmailsSent.WithLabelValues(kind, "failure").Inc()
			summary.Failed++
			summary.Results = append(summary.Results, SendResult{
				Email:  recipient.Email,
				Status: "failed",
				Error:  err.Error(),
			})
			continue
		}

		metrics.EmailsSent.WithLabelValues(kind, "success").Inc()
		summary.Sent++
		summary.Results = append(summary.Results, SendResult{Email: recipient.Email, Status: "sent"})
	}

	return summary, nil
}

func broadcastBody(name, message string) string {
	firstName := "Guest"
	if fields := strings.Fields(strings.TrimSpace(name)); len(fields) > 0 {
		firstName = fields[0]
	}

	escaped := html.EscapeString(message)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")

	return fmt.Sprintf(`<div style="font-family:sans-serif;line-height:1.6;color:#333;max-width:600px;margin:0 auto;">
  <p>Hi %s,</p>
  <p>%s</p>
</div>`, html.EscapeString(firstName), escaped)
}
