// Package mailer delivers account emails. The storefront sends no real email:
// LogSender records each message in the service log.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/utafrali/plantstore/internal/domain"
)

// Message is an outgoing email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers email messages.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// LogSender is a Sender that logs messages and always succeeds.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a logging sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Name returns the name of this sender.
func (s *LogSender) Name() string {
	return "log"
}

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email sent",
		slog.String("sender", s.Name()),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}

// ActivationLink builds the account activation URL for user.
func ActivationLink(baseURL string, user *domain.User) string {
	q := url.Values{}
	q.Set("userId", user.ID)
	q.Set("token", user.ActivationToken)
	return baseURL + "/auth/activate?" + q.Encode()
}

// ActivationMessage builds the activation email for user.
func ActivationMessage(baseURL string, user *domain.User) Message {
	return Message{
		To:      user.Email,
		Subject: "Kích hoạt tài khoản của bạn",
		Body: fmt.Sprintf("Xin chào %s,\n\nVui lòng kích hoạt tài khoản bằng cách mở liên kết sau:\n%s\n",
			user.FullName, ActivationLink(baseURL, user)),
	}
}
