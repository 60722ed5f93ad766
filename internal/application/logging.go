package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/roombooking/internal/logging"
)

func defaultLogger(logger *zap.Logger) *zap.Logger {
	if logger != nil {
		return logger
	}
	return zap.NewNop()
}

func serviceLogger(ctx context.Context, base *zap.Logger, serviceName, operation string, fields ...zap.Field) *zap.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(base)
	}

	pairs := make([]zap.Field, 0, len(fields)+2)
	pairs = append(pairs, zap.String("service", serviceName))
	if operation != "" {
		pairs = append(pairs, zap.String("operation", operation))
	}
	pairs = append(pairs, fields...)
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and typed errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInfrastructure):
		return "infrastructure"
	}
	return "unexpected"
}

// outcomeLabel is the metrics label for an operation result.
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	return ErrorKind(err)
}
