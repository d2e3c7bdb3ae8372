package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// New returns the service logger: JSON on stdout, debug level in local/dev.
func New(appEnv string) *slog.Logger {
	return NewWriter(appEnv, os.Stdout)
}

// NewWriter is New with an explicit destination.
func NewWriter(appEnv string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	})
	return slog.New(h).With("service", "catapult-platform")
}

// secretKeys are attribute keys whose values never reach the log.
var secretKeys = map[string]bool{
	"authorization": true,
	"api_secret":    true,
	"api_token":     true,
	"password":      true,
	"token":         true,
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[a.Key] {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// WithCall returns ctx with a logger tagged by the provider call id.
func WithCall(ctx context.Context, callID string) context.Context {
	if callID == "" {
		return ctx
	}
	return With(ctx, From(ctx).With("call_id", callID))
}
