package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/example/roombooking/internal/logging"
	"github.com/example/roombooking/internal/metrics"
)

// HeaderUserID carries the authenticated actor. The upstream gateway is trusted to set it.
const HeaderUserID = "X-User-ID"

var (
	errMissingActor = echo.NewHTTPError(http.StatusUnauthorized, "X-User-ID header is required")
	errInvalidActor = echo.NewHTTPError(http.StatusUnauthorized, "X-User-ID header must be a positive integer")
)

// RequireActor resolves the acting user from the X-User-ID header and stores
// it in the request context.
func RequireActor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
			if raw == "" {
				return errMissingActor
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return errInvalidActor
			}

			req := c.Request()
			c.SetRequest(req.WithContext(ContextWithActor(req.Context(), id)))
			return next(c)
		}
	}
}

// RequestLogger attaches a request scoped logger to the context and logs the
// completed request at a level derived from its status.
func RequestLogger(base *zap.Logger) echo.MiddlewareFunc {
	base = defaultLogger(base)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			res := c.Response()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = res.Header().Get(echo.HeaderXRequestID)
			}

			logger := base.With(
				zap.String("request_id", requestID),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
			)
			c.SetRequest(req.WithContext(logging.ContextWithLogger(req.Context(), logger)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []zap.Field{
				zap.Int("status", res.Status),
				zap.Int64("size", res.Size),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			switch {
			case res.Status >= http.StatusInternalServerError:
				if err != nil {
					fields = append(fields, zap.Error(err))
				}
				logger.Error("request failed", fields...)
			case res.Status >= http.StatusBadRequest:
				logger.Warn("client error", fields...)
			default:
				logger.Info("request completed", fields...)
			}

			return err
		}
	}
}

// Prometheus records request counts and latency by route template.
func Prometheus(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			method := c.Request().Method

			m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
