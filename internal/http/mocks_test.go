package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/metrics"
)

type mockBookingService struct {
	mock.Mock
}

func (m *mockBookingService) CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(application.Booking), args.Error(1)
}

func (m *mockBookingService) UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (application.Booking, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(application.Booking), args.Error(1)
}

func (m *mockBookingService) GetBooking(ctx context.Context, id int64) (application.Booking, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(application.Booking), args.Error(1)
}

type mockBookingQueries struct {
	mock.Mock
}

func (m *mockBookingQueries) ListBookings(ctx context.Context, params application.ListBookingsParams) (application.BookingPage, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(application.BookingPage), args.Error(1)
}

type mockAvailabilityService struct {
	mock.Mock
}

func (m *mockAvailabilityService) AvailableResources(ctx context.Context, params application.AvailabilityParams) ([]application.Resource, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]application.Resource), args.Error(1)
}

type testServer struct {
	echo         *echo.Echo
	bookings     *mockBookingService
	queries      *mockBookingQueries
	availability *mockAvailabilityService
	registry     *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zaptest.NewLogger(t)
	registry := prometheus.NewRegistry()
	srv := &testServer{
		bookings:     new(mockBookingService),
		queries:      new(mockBookingQueries),
		availability: new(mockAvailabilityService),
		registry:     registry,
	}
	srv.echo = NewRouter(RouterConfig{
		Bookings:       NewBookingHandler(srv.bookings, srv.queries, logger),
		Rooms:          NewRoomHandler(srv.availability, logger),
		Health:         NewHealthHandler(nil, logger),
		Metrics:        metrics.NewWithRegistry(registry),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:         logger,
	})

	t.Cleanup(func() {
		srv.bookings.AssertExpectations(t)
		srv.queries.AssertExpectations(t)
		srv.availability.AssertExpectations(t)
	})
	return srv
}

func (s *testServer) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

var asActor = map[string]string{HeaderUserID: "100"}

func sampleBooking() application.Booking {
	start := time.Date(2030, 5, 6, 9, 0, 0, 0, time.UTC)
	accepted := time.Date(2030, 5, 1, 8, 0, 0, 0, time.UTC)
	return application.Booking{
		ID:         7,
		ResourceID: 1,
		Title:      "Planning",
		Start:      start,
		End:        start.Add(time.Hour),
		Status:     application.BookingStatusConfirmed,
		Creator:    application.Creator{ID: 100, Name: "Alice"},
		Attendees: []application.Attendee{
			{UserID: 101, Name: "Bob", Status: application.AttendeeStatusAccepted, AcceptedAt: &accepted},
			{UserID: 102, Name: "Carol", Status: application.AttendeeStatusInvited},
		},
		CreatedAt: accepted,
		UpdatedAt: accepted,
	}
}
