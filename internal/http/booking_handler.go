package http

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/example/roombooking/internal/application"
)

const (
	maxBodyBytes = 1 << 20
	dateLayout   = "2006-01-02"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error)
	UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (application.Booking, error)
	GetBooking(ctx context.Context, id int64) (application.Booking, error)
}

type bookingQueries interface {
	ListBookings(ctx context.Context, params application.ListBookingsParams) (application.BookingPage, error)
}

// BookingHandler serves the /bookings endpoints.
type BookingHandler struct {
	bookings bookingService
	queries  bookingQueries
	logger   *zap.Logger
}

func NewBookingHandler(bookings bookingService, queries bookingQueries, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, queries: queries, logger: defaultLogger(logger)}
}

type creatorResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type attendeeResponse struct {
	UserID     int64      `json:"userId"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	AcceptedAt *time.Time `json:"acceptedAt"`
}

type bookingResponse struct {
	ID          int64              `json:"id"`
	ResourceID  int64              `json:"resourceId"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
	Status      string             `json:"status"`
	Creator     creatorResponse    `json:"creator"`
	Attendees   []attendeeResponse `json:"attendees"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

type bookingPageResponse struct {
	Items           []bookingResponse `json:"items"`
	Page            int               `json:"page"`
	Limit           int               `json:"limit"`
	TotalCount      int               `json:"totalCount"`
	TotalPages      int               `json:"totalPages"`
	HasNextPage     bool              `json:"hasNextPage"`
	HasPreviousPage bool              `json:"hasPreviousPage"`
}

func toBookingResponse(b application.Booking) bookingResponse {
	attendees := make([]attendeeResponse, 0, len(b.Attendees))
	for _, a := range b.Attendees {
		attendees = append(attendees, attendeeResponse{
			UserID:     a.UserID,
			Name:       a.Name,
			Status:     string(a.Status),
			AcceptedAt: a.AcceptedAt,
		})
	}
	return bookingResponse{
		ID:          b.ID,
		ResourceID:  b.ResourceID,
		Title:       b.Title,
		Description: b.Description,
		Start:       b.Start,
		End:         b.End,
		Status:      string(b.Status),
		Creator:     creatorResponse{ID: b.Creator.ID, Name: b.Creator.Name},
		Attendees:   attendees,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// Create handles POST /bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	if h == nil || h.bookings == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "booking service not configured")
	}

	ctx := c.Request().Context()
	actorID, ok := ActorFromContext(ctx)
	if !ok {
		return errMissingActor
	}

	body, err := readBody(c)
	if err != nil {
		return err
	}
	input, err := application.DecodeBookingInput(body)
	if err != nil {
		return h.fail(c, "Create", err, http.StatusBadRequest)
	}

	booking, err := h.bookings.CreateBooking(ctx, application.CreateBookingParams{ActorID: actorID, Input: input})
	if err != nil {
		return h.fail(c, "Create", err, http.StatusBadRequest)
	}

	return c.JSON(http.StatusCreated, toBookingResponse(booking))
}

// Update handles PATCH and PUT /bookings/:id.
func (h *BookingHandler) Update(c echo.Context) error {
	if h == nil || h.bookings == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "booking service not configured")
	}

	ctx := c.Request().Context()
	actorID, ok := ActorFromContext(ctx)
	if !ok {
		return errMissingActor
	}

	id, err := bookingID(c)
	if err != nil {
		return h.fail(c, "Update", err, http.StatusBadRequest)
	}

	body, err := readBody(c)
	if err != nil {
		return err
	}
	patch, err := application.DecodeBookingPatch(body)
	if err != nil {
		return h.fail(c, "Update", err, http.StatusBadRequest)
	}

	booking, err := h.bookings.UpdateBooking(ctx, application.UpdateBookingParams{
		ActorID:   actorID,
		BookingID: id,
		Patch:     patch,
	})
	if err != nil {
		return h.fail(c, "Update", err, http.StatusBadRequest)
	}

	return c.JSON(http.StatusOK, toBookingResponse(booking))
}

// Get handles GET /bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	if h == nil || h.bookings == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "booking service not configured")
	}

	id, err := bookingID(c)
	if err != nil {
		return h.fail(c, "Get", err, http.StatusNotFound)
	}

	booking, err := h.bookings.GetBooking(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "Get", err, http.StatusNotFound)
	}

	return c.JSON(http.StatusOK, toBookingResponse(booking))
}

type listBookingsQuery struct {
	ResourceID string `query:"resourceId" validate:"omitempty,number"`
	CreatorID  string `query:"creatorId" validate:"omitempty,number"`
	Status     string `query:"status"`
	Date       string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	Start      string `query:"start" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	End        string `query:"end" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Page       string `query:"page" validate:"omitempty,number"`
	Limit      string `query:"limit" validate:"omitempty,number"`
	OrderBy    string `query:"order_by"`
}

var listBookingsParams = map[string]struct{}{
	"resourceId": {},
	"creatorId":  {},
	"status":     {},
	"date":       {},
	"start":      {},
	"end":        {},
	"page":       {},
	"limit":      {},
	"order_by":   {},
}

// List handles GET /bookings.
func (h *BookingHandler) List(c echo.Context) error {
	if h == nil || h.queries == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "booking queries not configured")
	}

	if err := rejectUnknownParams(c, listBookingsParams); err != nil {
		return h.fail(c, "List", err, http.StatusBadRequest)
	}

	var q listBookingsQuery
	if err := c.Bind(&q); err != nil {
		return err
	}
	if err := c.Validate(&q); err != nil {
		return h.fail(c, "List", err, http.StatusBadRequest)
	}
	params, err := q.params()
	if err != nil {
		return h.fail(c, "List", err, http.StatusBadRequest)
	}

	page, err := h.queries.ListBookings(c.Request().Context(), params)
	if err != nil {
		return h.fail(c, "List", err, http.StatusBadRequest)
	}

	items := make([]bookingResponse, 0, len(page.Items))
	for _, b := range page.Items {
		items = append(items, toBookingResponse(b))
	}
	return c.JSON(http.StatusOK, bookingPageResponse{
		Items:           items,
		Page:            page.Page,
		Limit:           page.Limit,
		TotalCount:      page.TotalCount,
		TotalPages:      page.TotalPages,
		HasNextPage:     page.HasNextPage,
		HasPreviousPage: page.HasPreviousPage,
	})
}

func (q listBookingsQuery) params() (application.ListBookingsParams, error) {
	vErr := &application.ValidationError{}
	params := application.ListBookingsParams{OrderBy: q.OrderBy}

	params.ResourceID = parseOptionalInt64(vErr, "resourceId", q.ResourceID)
	params.CreatorID = parseOptionalInt64(vErr, "creatorId", q.CreatorID)
	if page := parseOptionalInt64(vErr, "page", q.Page); page != nil {
		n := int(*page)
		params.Page = &n
	}
	if limit := parseOptionalInt64(vErr, "limit", q.Limit); limit != nil {
		n := int(*limit)
		params.Limit = &n
	}
	if s := strings.TrimSpace(q.Status); s != "" {
		status := application.BookingStatus(s)
		params.Status = &status
	}
	if q.Date != "" {
		if d, err := time.Parse(dateLayout, q.Date); err == nil {
			params.Date = &d
		}
	}
	if q.Start != "" {
		if t, err := time.Parse(time.RFC3339, q.Start); err == nil {
			params.Start = &t
		}
	}
	if q.End != "" {
		if t, err := time.Parse(time.RFC3339, q.End); err == nil {
			params.End = &t
		}
	}

	if vErr.HasErrors() {
		return application.ListBookingsParams{}, vErr
	}
	return params, nil
}

func (h *BookingHandler) fail(c echo.Context, operation string, err error, notFound int) error {
	return respondError(c, handlerLogger(c, h.logger, "BookingHandler", operation), err, notFound)
}

func bookingID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &application.ValidationError{Fields: []application.FieldError{{Field: "id", Message: "Invalid booking ID"}}}
	}
	return id, nil
}

func readBody(c echo.Context) ([]byte, error) {
	body := c.Request().Body
	if body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(body, maxBodyBytes+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Request body could not be read")
	}
	if len(data) > maxBodyBytes {
		return nil, echo.ErrStatusRequestEntityTooLarge
	}
	return data, nil
}

func rejectUnknownParams(c echo.Context, allowed map[string]struct{}) error {
	var unknown []string
	for name := range c.QueryParams() {
		if _, ok := allowed[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)

	vErr := &application.ValidationError{}
	for _, name := range unknown {
		vErr.Fields = append(vErr.Fields, application.FieldError{Field: name, Message: "Unknown query parameter " + name})
	}
	return vErr
}

func parseOptionalInt64(vErr *application.ValidationError, field, raw string) *int64 {
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		vErr.Fields = append(vErr.Fields, application.FieldError{Field: field, Message: "Invalid " + field + ", value out of range"})
		return nil
	}
	return &n
}
