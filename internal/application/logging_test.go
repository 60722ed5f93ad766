package application

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/roombooking/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := zap.NewExample()
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}
	if got := defaultLogger(nil); got == nil {
		t.Fatalf("expected a no-op logger when none provided")
	}
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	baseCore, baseLogs := observer.New(zapcore.InfoLevel)
	ctxCore, ctxLogs := observer.New(zapcore.InfoLevel)

	ctx := logging.ContextWithLogger(context.Background(), zap.New(ctxCore))
	serviceLogger(ctx, zap.New(baseCore), "BookingService", "CreateBooking", zap.Int64("actor_id", 7)).Info("hello")

	if baseLogs.Len() != 0 {
		t.Fatalf("expected base logger to stay unused")
	}
	entries := ctxLogs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["service"] != "BookingService" || fields["operation"] != "CreateBooking" || fields["actor_id"] != int64(7) {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"":               nil,
		"validation":     newValidationError("title", "Title cannot exceed 200 characters"),
		"unexpected":     errors.New("boom"),
		"not_found":      ErrNotFound,
		"unauthorized":   ErrUnauthorized,
		"conflict":       ErrConflict,
		"infrastructure": ErrInfrastructure,
	}
	for want, err := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
	if outcomeLabel(nil) != "success" {
		t.Fatalf("expected success label for nil error")
	}
}
