package mail

import (
	"context"
	"fmt"
	"log/slog"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender defines the interface for delivering email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is a sender implementation that logs messages instead of
// delivering them. It stands in for a real provider in development.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that writes every message to the log.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message details and always succeeds. The body is logged
// too; reset links in development are only reachable this way.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "mail sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}

// ResetMessage builds the password-reset email for the given recipient.
func ResetMessage(to, resetURL string) Message {
	return Message{
		To:      to,
		Subject: "Your password reset token (valid for 10 minutes)",
		Body: fmt.Sprintf(
			"Forgot your password? Submit a PATCH request with your new password to %s.\nIf you didn't forget your password, please ignore this email.",
			resetURL),
	}
}
