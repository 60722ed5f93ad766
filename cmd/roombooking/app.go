package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/roombooking/internal/adapters"
	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/config"
	httptransport "github.com/example/roombooking/internal/http"
	"github.com/example/roombooking/internal/metrics"
	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/persistence/redisstore"
	"github.com/example/roombooking/internal/persistence/sqlstore"
)

// app owns the wired handler and the connections behind it.
type app struct {
	handler http.Handler
	closers []func() error
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, registry *prometheus.Registry) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.closers = append(a.closers, store.Close)

	if err := store.Migrate(ctx, logger); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	directoryRepo := sqlstore.NewDirectoryRepository(store)
	reservations := sqlstore.NewReservationRepository(store)

	if cfg.DirectorySeedFile != "" {
		if err := applyDirectorySeed(ctx, cfg.DirectorySeedFile, directoryRepo); err != nil {
			return nil, err
		}
		logger.Info("directory seed applied", zap.String("file", cfg.DirectorySeedFile))
	}

	checks := map[string]httptransport.Pinger{"database": store.Ping}

	var client *redis.Client
	if cfg.Redis.Enabled() {
		client = redisstore.NewClient(redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		if err := redisstore.Ping(ctx, client); err != nil {
			return nil, err
		}
		checks["redis"] = func(ctx context.Context) error { return redisstore.Ping(ctx, client) }
	}

	sequence, err := newSequence(ctx, cfg.SequenceBackend, store, reservations, client)
	if err != nil {
		return nil, err
	}

	m := metrics.NewWithRegistry(registry)
	bookings := adapters.NewBookingRepository(reservations)
	directory := adapters.NewDirectory(directoryRepo, directoryRepo)

	options := []application.BookingServiceOption{
		application.WithTransactor(sqlstore.NewTxManager(store)),
		application.WithNotifier(application.NewLogNotifier(logger)),
		application.WithRecorder(m),
		application.WithLogger(logger),
	}
	if client != nil {
		options = append(options, application.WithResourceLocker(redisstore.NewRoomLocker(client, cfg.LockTTL)))
	}

	var resources application.ResourceDirectory = directory
	if cfg.DirectoryCacheTTL > 0 {
		resources = application.NewCachedResourceDirectory(directory, cfg.DirectoryCacheTTL, 0)
	}

	bookingService := application.NewBookingService(bookings, resources, directory, sequence, options...)
	queryService := application.NewBookingQueryService(bookings, cfg.Location(), logger)
	availabilityService := application.NewAvailabilityService(bookings, resources, nil, logger)

	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Bookings:       httptransport.NewBookingHandler(bookingService, queryService, logger),
		Rooms:          httptransport.NewRoomHandler(availabilityService, logger),
		Health:         httptransport.NewHealthHandler(checks, logger),
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Logger:         logger,
	})
	return a, nil
}

// newSequence selects the id allocator. Both backends are seeded with the
// highest stored reservation id so that switching backends never reissues ids.
func newSequence(ctx context.Context, backend string, store *sqlstore.Store, reservations *sqlstore.ReservationRepository, client *redis.Client) (persistence.SequenceRepository, error) {
	var sequence persistence.SequenceRepository
	switch backend {
	case "", "sql":
		sequence = sqlstore.NewSequenceRepository(store)
	case "redis":
		if client == nil {
			return nil, errors.New("redis sequence backend requires a redis address")
		}
		sequence = redisstore.NewSequence(client)
	default:
		return nil, fmt.Errorf("unknown sequence backend %q", backend)
	}

	highest, err := reservations.MaxID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read highest booking id: %w", err)
	}
	if err := sequence.Seed(ctx, application.BookingSequence, highest); err != nil {
		return nil, fmt.Errorf("seed booking sequence: %w", err)
	}
	return sequence, nil
}

func applyDirectorySeed(ctx context.Context, path string, repo *sqlstore.DirectoryRepository) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open directory seed: %w", err)
	}
	defer f.Close()

	seed, err := persistence.DecodeDirectorySeed(f)
	if err != nil {
		return err
	}
	return seed.Apply(ctx, repo, repo)
}
