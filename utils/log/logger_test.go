package log

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCtxAddsRequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := L()
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, ClientIDKey, "ip:203.0.113.7")
	ctx = context.WithValue(ctx, SubjectKey, "user-1")
	WithCtx(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-1" || fields["client_id"] != "ip:203.0.113.7" || fields["subject"] != "user-1" {
		t.Fatalf("fields = %v", fields)
	}
	if _, ok := fields["conversation_type"]; ok {
		t.Fatal("unset keys must not be logged")
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("héllo world", 5); got != "héllo..." {
		t.Fatalf("Preview = %q", got)
	}
	if got := Preview("short", 10); got != "short" {
		t.Fatalf("Preview = %q", got)
	}
}
