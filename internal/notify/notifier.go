// Package notify delivers reminder messages over email, ntfy topics and Web Push.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/habitify/reminders/internal/model"
)

var (
	// ErrNotConfigured means the channel lacks credentials or settings.
	// Retrying will not help until the deployment is fixed.
	ErrNotConfigured = errors.New("channel not configured")

	// ErrGone means the destination no longer exists (HTTP 404/410).
	ErrGone = errors.New("destination gone")
)

const (
	PriorityDefault = 3
	PriorityHigh    = 4
	PriorityUrgent  = 5
)

// Message is channel-independent notification content.
type Message struct {
	Title    string
	Body     string
	Icon     string
	URL      string
	Priority int
	Tags     []string
	// Data is attached to push payloads (habitId, type).
	Data map[string]string
}

// Target is one destination on one channel.
type Target struct {
	Channel model.Channel
	// Address is the email address or ntfy topic.
	Address string
	// Subscription is set for push targets.
	Subscription *model.PushSubscription
}

type Notifier interface {
	Send(ctx context.Context, target Target, msg Message) error
}

// StatusError is returned when a channel endpoint answers with a non-2xx status.
type StatusError struct {
	Channel    model.Channel
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Channel, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Channel, e.StatusCode, e.Body)
}

// Is makes 404 and 410 responses match ErrGone.
func (e *StatusError) Is(target error) bool {
	return target == ErrGone && (e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone)
}

// Router picks the sender for a target's channel and paces outgoing sends.
type Router struct {
	senders map[model.Channel]Notifier
	limiter *rate.Limiter
}

// NewRouter returns a router allowing perSecond sends with the given burst.
// perSecond <= 0 disables pacing.
func NewRouter(perSecond float64, burst int) *Router {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}

	return &Router{
		senders: make(map[model.Channel]Notifier),
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (r *Router) Register(ch model.Channel, n Notifier) {
	r.senders[ch] = n
}

func (r *Router) Send(ctx context.Context, target Target, msg Message) error {
	sender, ok := r.senders[target.Channel]
	if !ok {
		return fmt.Errorf("%s: %w", target.Channel, ErrNotConfigured)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit wait: %w", target.Channel, err)
	}

	return sender.Send(ctx, target, msg)
}
