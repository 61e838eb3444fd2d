package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

type Options struct {
	Development bool
	// Level overrides the default (debug in development, info otherwise).
	// Accepts slog level names such as "warn" or "debug+2".
	Level     string
	SentryDSN string
	Release   string
}

// Init installs the default slog logger: text in development, JSON otherwise.
// Errors are also sent to Sentry when a DSN is set. The returned func flushes
// buffered Sentry events and must run before exit.
func Init(opts Options) func() {
	level := slog.LevelInfo
	if opts.Development {
		level = slog.LevelDebug
	}
	if opts.Level != "" {
		// Config validation already rejected unknown names
		_ = level.UnmarshalText([]byte(opts.Level))
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var console slog.Handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	if opts.Development {
		console = slog.NewTextHandler(os.Stdout, handlerOpts)
	}

	if opts.SentryDSN == "" {
		slog.SetDefault(slog.New(console))
		return func() {}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         opts.SentryDSN,
		Release:     opts.Release,
		Environment: environment(opts.Development),
	})
	if err != nil {
		slog.SetDefault(slog.New(console))
		slog.Warn("sentry init failed, errors are only logged locally", "error", err)
		return func() {}
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(
		console,
		slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
	)))

	return func() { sentry.Flush(2 * time.Second) }
}

func environment(dev bool) string {
	if dev {
		return "development"
	}
	return "production"
}
