package http

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/example/roombooking/internal/logging"
)

func defaultLogger(logger *zap.Logger) *zap.Logger {
	if logger != nil {
		return logger
	}
	return zap.NewNop()
}

func handlerLogger(c echo.Context, fallback *zap.Logger, handlerName, operation string, fields ...zap.Field) *zap.Logger {
	logger := logging.FromContext(c.Request().Context())
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := make([]zap.Field, 0, len(fields)+2)
	pairs = append(pairs, zap.String("handler", handlerName))
	if operation != "" {
		pairs = append(pairs, zap.String("operation", operation))
	}
	pairs = append(pairs, fields...)
	return logger.With(pairs...)
}
