package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/example/roombooking/internal/application"
)

type availabilityService interface {
	AvailableResources(ctx context.Context, params application.AvailabilityParams) ([]application.Resource, error)
}

// RoomHandler serves room availability searches.
type RoomHandler struct {
	service availabilityService
	logger  *zap.Logger
}

func NewRoomHandler(service availabilityService, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{service: service, logger: defaultLogger(logger)}
}

type roomResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

type availabilityResponse struct {
	Start time.Time      `json:"start"`
	End   time.Time      `json:"end"`
	Rooms []roomResponse `json:"rooms"`
}

type availabilityQuery struct {
	Start    string `query:"start" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	End      string `query:"end" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Capacity string `query:"capacity" validate:"omitempty,number"`
}

var availabilityParams = map[string]struct{}{
	"start":    {},
	"end":      {},
	"capacity": {},
}

// Available handles GET /rooms/available.
func (h *RoomHandler) Available(c echo.Context) error {
	if h == nil || h.service == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "availability service not configured")
	}

	if err := rejectUnknownParams(c, availabilityParams); err != nil {
		return h.fail(c, err)
	}

	var q availabilityQuery
	if err := c.Bind(&q); err != nil {
		return err
	}
	if err := c.Validate(&q); err != nil {
		return h.fail(c, err)
	}

	start, _ := time.Parse(time.RFC3339, q.Start)
	end, _ := time.Parse(time.RFC3339, q.End)
	params := application.AvailabilityParams{Start: start, End: end}
	if q.Capacity != "" {
		capacity, err := strconv.Atoi(q.Capacity)
		if err != nil {
			return h.fail(c, &application.ValidationError{Fields: []application.FieldError{{Field: "capacity", Message: "Invalid capacity, value out of range"}}})
		}
		params.MinCapacity = capacity
	}

	rooms, err := h.service.AvailableResources(c.Request().Context(), params)
	if err != nil {
		return h.fail(c, err)
	}

	out := make([]roomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomResponse{ID: r.ID, Name: r.Name, Location: r.Location, Capacity: r.Capacity})
	}
	return c.JSON(http.StatusOK, availabilityResponse{Start: start, End: end, Rooms: out})
}

func (h *RoomHandler) fail(c echo.Context, err error) error {
	return respondError(c, handlerLogger(c, h.logger, "RoomHandler", "Available"), err, http.StatusNotFound)
}
