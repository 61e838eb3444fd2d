package notify

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitify/reminders/internal/markdown"
	"github.com/habitify/reminders/internal/model"
)

func TestUserTopic(t *testing.T) {
	tests := []struct {
		prefix string
		email  string
		want   string
	}{
		{"habitify", "Ada.Lovelace+test@example.com", "habitify_adalovelacetest"},
		{"habitify", "bob_99@example.com", "habitify_bob99"},
		{"habitify", "...@example.com", ""},
		{"", "ada@example.com", ""},
		{"habitify", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, UserTopic(tt.prefix, tt.email))
		})
	}
}

func TestNtfySender(t *testing.T) {
	var got ntfyPayload
	status := http.StatusOK

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(status)
		_, _ = io.WriteString(w, "nope")
	}))
	defer srv.Close()

	sender := NewNtfySender(srv.URL, "https://habitify.example", srv.Client())
	target := Target{Channel: model.ChannelNtfy, Address: "habitify_ada"}
	msg := Message{Title: "Read", Body: "Ten pages", URL: "/", Priority: PriorityHigh, Tags: []string{"bell"}}

	require.NoError(t, sender.Send(context.Background(), target, msg))
	assert.Equal(t, ntfyPayload{
		Topic:    "habitify_ada",
		Title:    "Read",
		Message:  "Ten pages",
		Priority: PriorityHigh,
		Tags:     []string{"bell"},
		Click:    "https://habitify.example/",
	}, got)

	t.Run("server error is transient", func(t *testing.T) {
		status = http.StatusInternalServerError
		err := sender.Send(context.Background(), target, msg)

		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
		assert.Equal(t, "nope", se.Body)
		assert.NotErrorIs(t, err, ErrGone)
	})

	t.Run("not configured", func(t *testing.T) {
		err := NewNtfySender("", "", nil).Send(context.Background(), target, msg)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func newSubscription(t *testing.T, endpoint string) *model.PushSubscription {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	return &model.PushSubscription{
		ID:       "sub-1",
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(auth),
	}
}

func TestPushSender(t *testing.T) {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	status := http.StatusCreated
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Contains(t, r.Header.Get("Authorization"), "vapid")
		assert.Equal(t, "aes128gcm", r.Header.Get("Content-Encoding"))
		w.WriteHeader(status)
	}))
	defer srv.Close()

	sender := NewPushSender(publicKey, privateKey, "https://habitify.example", srv.Client())
	target := Target{Channel: model.ChannelPush, Subscription: newSubscription(t, srv.URL+"/push/abc")}
	msg := Message{Title: "Read", Body: "Ten pages", Data: map[string]string{"habitId": "h1", "type": "reminder"}}

	require.NoError(t, sender.Send(context.Background(), target, msg))
	assert.Equal(t, 1, requests)

	for _, code := range []int{http.StatusGone, http.StatusNotFound} {
		status = code
		err := sender.Send(context.Background(), target, msg)
		assert.ErrorIs(t, err, ErrGone, "status %d", code)
	}

	status = http.StatusTooManyRequests
	err = sender.Send(context.Background(), target, msg)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGone)

	t.Run("not configured", func(t *testing.T) {
		err := NewPushSender("", "", "", nil).Send(context.Background(), target, msg)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestBuildPushPayload(t *testing.T) {
	p := buildPushPayload(Message{
		Title: "Streak at risk",
		Body:  "Keep it going",
		Data:  map[string]string{"type": "streak"},
	})

	assert.Equal(t, defaultPushIcon, p.Icon)
	assert.Equal(t, map[string]string{"type": "streak", "url": "/"}, p.Data)
}

func TestEmailSender(t *testing.T) {
	msg := Message{Title: "Read", Body: "Ten pages", URL: "/"}
	target := Target{Channel: model.ChannelEmail, Address: "ada@example.com"}

	t.Run("dev mode logs instead of sending", func(t *testing.T) {
		sender := NewEmailSender("re_key", "Habitify <noreply@habitify.example>", "https://habitify.example", "Habitify", true)
		assert.NoError(t, sender.Send(context.Background(), target, msg))
	})

	t.Run("missing api key", func(t *testing.T) {
		sender := NewEmailSender("", "noreply@habitify.example", "https://habitify.example", "Habitify", false)
		assert.ErrorIs(t, sender.Send(context.Background(), target, msg), ErrNotConfigured)
	})
}

func TestRenderEmail(t *testing.T) {
	content, err := renderEmail(markdown.NewParser(), Message{
		Title: "Streak: 7 days",
		Body:  "Don't break it now.",
		URL:   "/",
	}, "Habitify", "https://habitify.example")
	require.NoError(t, err)

	assert.Equal(t, "Streak: 7 days", content.Subject)
	assert.Contains(t, content.HTML, `<a href="https://habitify.example/">Open Habitify</a>`)
	assert.Contains(t, content.Text, "Don't break it now.")
	assert.Contains(t, content.Text, "https://habitify.example/")
}

type recordingNotifier struct {
	targets []Target
	err     error
}

func (n *recordingNotifier) Send(_ context.Context, target Target, _ Message) error {
	n.targets = append(n.targets, target)
	return n.err
}

func TestRouter(t *testing.T) {
	push := &recordingNotifier{}
	router := NewRouter(0, 1)
	router.Register(model.ChannelPush, push)

	require.NoError(t, router.Send(context.Background(), Target{Channel: model.ChannelPush}, Message{}))
	assert.Len(t, push.targets, 1)

	err := router.Send(context.Background(), Target{Channel: model.ChannelEmail}, Message{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	push.err = errors.New("boom")
	assert.EqualError(t, router.Send(context.Background(), Target{Channel: model.ChannelPush}, Message{}), "boom")
}

func TestRouterRateLimitHonorsContext(t *testing.T) {
	router := NewRouter(0.001, 1)
	router.Register(model.ChannelNtfy, &recordingNotifier{})

	require.NoError(t, router.Send(context.Background(), Target{Channel: model.ChannelNtfy}, Message{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := router.Send(ctx, Target{Channel: model.ChannelNtfy}, Message{})
	assert.Error(t, err)
}
