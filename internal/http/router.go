package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/example/roombooking/internal/metrics"
)

type RouterConfig struct {
	Bookings *BookingHandler
	Rooms    *RoomHandler
	Health   *HealthHandler
	// Metrics enables the request instrumentation middleware when set.
	Metrics *metrics.Metrics
	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
	Logger         *zap.Logger
}

func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(cfg.Logger)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(RequestLogger(cfg.Logger))
	e.Use(middleware.Recover())
	if cfg.Metrics != nil {
		e.Use(Prometheus(cfg.Metrics))
	}

	if cfg.Health != nil {
		e.GET("/healthz", cfg.Health.Check)
	}
	if cfg.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.MetricsHandler))
	}

	if cfg.Bookings != nil {
		bookings := e.Group("/bookings")
		bookings.POST("", cfg.Bookings.Create, RequireActor())
		bookings.GET("", cfg.Bookings.List)
		bookings.GET("/:id", cfg.Bookings.Get)
		bookings.PATCH("/:id", cfg.Bookings.Update, RequireActor())
		bookings.PUT("/:id", cfg.Bookings.Update, RequireActor())
	}

	if cfg.Rooms != nil {
		e.GET("/rooms/available", cfg.Rooms.Available)
	}

	return e
}
