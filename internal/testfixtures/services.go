package testfixtures

import (
	"time"

	"go.uber.org/zap"

	"github.com/example/roombooking/internal/adapters"
	"github.com/example/roombooking/internal/application"
)

// ServiceFactory assists tests with constructing application services over a
// SQLite harness using a deterministic clock.
type ServiceFactory struct {
	Clock    *Clock
	Logger   *zap.Logger
	Location *time.Location
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:    NewClock(time.Time{}),
		Logger:   zap.NewNop(),
		Location: time.UTC,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.Logger == nil {
		factory.Logger = zap.NewNop()
	}
	if factory.Location == nil {
		factory.Location = time.UTC
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithLogger overrides the logger handed to every service.
func WithLogger(logger *zap.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// WithLocation overrides the zone used to expand calendar date filters.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = loc
	}
}

// Services groups the application services wired over one harness.
type Services struct {
	Bookings     *application.BookingService
	Queries      *application.BookingQueryService
	Availability *application.AvailabilityService
}

// NewServices wires every application service to the harness repositories.
// The booking service runs inside the harness transaction manager; extra
// options are applied after the defaults.
func (f *ServiceFactory) NewServices(h *SQLiteHarness, opts ...application.BookingServiceOption) Services {
	bookings := adapters.NewBookingRepository(h.Reservations)
	directory := adapters.NewDirectory(h.Directory, h.Directory)
	now := f.Clock.NowFunc()

	options := []application.BookingServiceOption{
		application.WithTransactor(h.Tx),
		application.WithClock(now),
		application.WithLogger(f.Logger),
	}
	options = append(options, opts...)

	return Services{
		Bookings:     application.NewBookingService(bookings, directory, directory, h.Sequences, options...),
		Queries:      application.NewBookingQueryService(bookings, f.Location, f.Logger),
		Availability: application.NewAvailabilityService(bookings, directory, now, f.Logger),
	}
}
