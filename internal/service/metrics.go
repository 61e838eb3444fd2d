package service

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for reminder runs.
type Metrics struct {
	RunsTotal            *prometheus.CounterVec
	RunDuration          *prometheus.HistogramVec
	SendsTotal           *prometheus.CounterVec
	ExpiredSubscriptions prometheus.Counter
}

// NewMetrics registers the reminder metrics on the default registry once.
//
// Metrics:
//   - habitify_reminder_runs_total{kind}
//   - habitify_reminder_run_duration_seconds{kind}
//   - habitify_notifications_total{channel,kind,result}
//   - habitify_push_subscriptions_expired_total
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			RunsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "habitify",
					Name:      "reminder_runs_total",
					Help:      "Total number of reminder dispatch passes",
				},
				[]string{"kind"}, // "reminder" or "streak"
			),

			RunDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "habitify",
					Name:      "reminder_run_duration_seconds",
					Help:      "Duration of reminder dispatch passes in seconds",
					Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
				},
				[]string{"kind"},
			),

			SendsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "habitify",
					Name:      "notifications_total",
					Help:      "Notification send attempts by outcome",
				},
				[]string{"channel", "kind", "result"}, // result: "sent", "gone", "failed", "not_configured"
			),

			ExpiredSubscriptions: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "habitify",
					Name:      "push_subscriptions_expired_total",
					Help:      "Push subscriptions removed after the push service reported them gone",
				},
			),
		}
	})
	return globalMetrics
}
