package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/habitify/reminders/internal/model"
)

const (
	defaultPushIcon = "/pwa-192x192.png"
	pushTTLSeconds  = 60 * 60
)

// PushSender delivers Web Push messages signed with the app's VAPID key pair.
type PushSender struct {
	publicKey  string
	privateKey string
	subject    string
	client     *http.Client
}

func NewPushSender(publicKey, privateKey, subject string, client *http.Client) *PushSender {
	return &PushSender{
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
		client:     client,
	}
}

type pushPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Icon  string            `json:"icon"`
	Data  map[string]string `json:"data"`
}

func (s *PushSender) Send(ctx context.Context, target Target, msg Message) error {
	if s.publicKey == "" || s.privateKey == "" || s.subject == "" {
		return fmt.Errorf("%s: missing VAPID keys or subject: %w", model.ChannelPush, ErrNotConfigured)
	}
	sub := target.Subscription
	if sub == nil || sub.Endpoint == "" {
		return fmt.Errorf("%s: missing subscription", model.ChannelPush)
	}

	payload, err := json.Marshal(buildPushPayload(msg))
	if err != nil {
		return err
	}

	urgency := webpush.UrgencyNormal
	if msg.Priority >= PriorityUrgent {
		urgency = webpush.UrgencyHigh
	}

	opts := &webpush.Options{
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             pushTTLSeconds,
		Urgency:         urgency,
	}
	if s.client != nil {
		opts.HTTPClient = s.client
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Auth,
			P256dh: sub.P256dh,
		},
	}, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", model.ChannelPush, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Channel: model.ChannelPush, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	return nil
}

func buildPushPayload(msg Message) pushPayload {
	icon := msg.Icon
	if icon == "" {
		icon = defaultPushIcon
	}

	data := make(map[string]string, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["url"] = msg.URL
	if data["url"] == "" {
		data["url"] = "/"
	}

	return pushPayload{
		Title: msg.Title,
		Body:  msg.Body,
		Icon:  icon,
		Data:  data,
	}
}
