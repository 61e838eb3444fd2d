package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/habitify/reminders/internal/model"
)

// NtfySender publishes messages to an ntfy server using its JSON publish API.
type NtfySender struct {
	baseURL string
	appURL  string
	client  *http.Client
}

func NewNtfySender(baseURL, appURL string, client *http.Client) *NtfySender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &NtfySender{
		baseURL: strings.TrimRight(baseURL, "/"),
		appURL:  strings.TrimRight(appURL, "/"),
		client:  client,
	}
}

func (s *NtfySender) clickURL(msg Message) string {
	if s.appURL == "" || msg.URL == "" {
		return ""
	}
	return s.appURL + msg.URL
}

type ntfyPayload struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority int      `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Click    string   `json:"click,omitempty"`
}

func (s *NtfySender) Send(ctx context.Context, target Target, msg Message) error {
	if s.baseURL == "" {
		return fmt.Errorf("%s: missing NTFY_BASE_URL: %w", model.ChannelNtfy, ErrNotConfigured)
	}
	if target.Address == "" {
		return fmt.Errorf("%s: missing topic", model.ChannelNtfy)
	}

	body, err := json.Marshal(ntfyPayload{
		Topic:    target.Address,
		Title:    msg.Title,
		Message:  msg.Body,
		Priority: msg.Priority,
		Tags:     msg.Tags,
		Click:    s.clickURL(msg),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", model.ChannelNtfy, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Channel: model.ChannelNtfy, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	return nil
}

// UserTopic derives a user's personal topic: prefix, underscore, then the
// lowercased alphanumeric characters of the email's local part.
// It returns "" when prefix or email yield nothing usable.
func UserTopic(prefix, email string) string {
	local, _, _ := strings.Cut(email, "@")

	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	if prefix == "" || b.Len() == 0 {
		return ""
	}
	return prefix + "_" + b.String()
}
