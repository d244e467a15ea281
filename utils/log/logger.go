package log

import (
	"context"
	"os"

	"go.uber.org/zap"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "request_id"
	ClientIDKey  ctxKey = "client_id"
	PersonaKey   ctxKey = "conversation_type"
	SubjectKey   ctxKey = "subject"
)

var logger *zap.Logger

func init() {
	if os.Getenv("DEBUG") == "true" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
}

// SetLogger replaces the process logger. Tests use it to capture output.
func SetLogger(l *zap.Logger) {
	logger = l
}

func L() *zap.Logger {
	return logger
}

func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	for _, key := range []ctxKey{RequestIDKey, ClientIDKey, SubjectKey, PersonaKey} {
		if v := ctx.Value(key); v != nil {
			fields = append(fields, zap.Any(string(key), v))
		}
	}

	return logger.With(fields...)
}

// Preview shortens text for log lines.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
