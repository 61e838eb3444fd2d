package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/habitify/reminders/internal/markdown"
	"github.com/habitify/reminders/internal/model"
)

type EmailSender struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
	md        *markdown.Parser
}

func NewEmailSender(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailSender {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailSender{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
		md:        markdown.NewParser(),
	}
}

func (s *EmailSender) Send(ctx context.Context, target Target, msg Message) error {
	if target.Address == "" {
		return fmt.Errorf("%s: missing address", model.ChannelEmail)
	}

	content, err := renderEmail(s.md, msg, s.appName, s.appURL)
	if err != nil {
		return err
	}

	if s.isDev {
		slog.Info("email sent (dev mode)", "type", msg.Data["type"], "to", target.Address, "subject", content.Subject)
		return nil
	}

	if s.client == nil || s.fromEmail == "" {
		return fmt.Errorf("%s: missing RESEND_API_KEY or EMAIL_FROM: %w", model.ChannelEmail, ErrNotConfigured)
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{target.Address},
		Subject: content.Subject,
		Html:    content.HTML,
		Text:    content.Text,
	}

	_, err = s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("%s: %w", model.ChannelEmail, err)
	}

	slog.Debug("email sent", "type", msg.Data["type"], "to", target.Address)
	return nil
}
