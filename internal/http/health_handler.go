package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

// HealthHandler reports liveness of the process and its stores.
type HealthHandler struct {
	checks map[string]Pinger
	now    func() time.Time
	logger *zap.Logger
}

// NewHealthHandler builds a handler that runs every named check per request.
func NewHealthHandler(checks map[string]Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, now: time.Now, logger: defaultLogger(logger)}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check handles GET /healthz.
func (h *HealthHandler) Check(c echo.Context) error {
	resp := healthResponse{Status: "ok", Timestamp: h.now().UTC().Format(time.RFC3339)}
	status := http.StatusOK

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		resp.Checks = make(map[string]string, len(h.checks))
		for name, ping := range h.checks {
			if err := ping(ctx); err != nil {
				handlerLogger(c, h.logger, "HealthHandler", "Check").Warn("health check failed", zap.String("check", name), zap.Error(err))
				resp.Checks[name] = "unavailable"
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	return c.JSON(status, resp)
}
