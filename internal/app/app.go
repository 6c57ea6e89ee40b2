package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirinyoku/coachseat/internal/config"
	"github.com/kirinyoku/coachseat/internal/postgres"
	"github.com/kirinyoku/coachseat/internal/redis"
	"github.com/kirinyoku/coachseat/internal/repository"
	"github.com/kirinyoku/coachseat/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/coachseat/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/coachseat/internal/repository/redis"
	sqliterepo "github.com/kirinyoku/coachseat/internal/repository/sqlite"
	"github.com/kirinyoku/coachseat/internal/service"
	"github.com/kirinyoku/coachseat/internal/service/allocation"
	"github.com/kirinyoku/coachseat/internal/service/booking"
	"github.com/kirinyoku/coachseat/internal/sqlite"
	httpgin "github.com/kirinyoku/coachseat/internal/transport/http/gin"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    repository.Store
	rdb      *goredis.Client
	pubsub   *redisrepo.ChartPubSub
	services *service.Services
	server   *http.Server
}

// New opens the configured store, connects to redis when an address is
// set and makes sure the seat chart exists.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger, store: store}

	var (
		cache   *redisrepo.Cache
		limiter *redisrepo.SlidingWindowLimiter
		idem    httpgin.Idempotency
	)

	redisCfg := redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	if redisCfg.Enabled() {
		rdb, err := redis.New(ctx, redisCfg)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}

		a.rdb = rdb
		a.pubsub = redisrepo.NewChartPubSub(rdb)
		cache = redisrepo.NewCache(rdb)
		idem = redisrepo.NewIdempotencyStore(rdb, 2*time.Hour, 30*time.Second)

		if cfg.Booking.RateLimit > 0 {
			limiter = redisrepo.NewSlidingWindowLimiter(rdb, "bookings", cfg.Booking.RateLimit, cfg.Booking.RateLimitWindow)
		}
	} else {
		logger.Info("redis disabled, running without cache and notifications")
	}

	a.services = service.NewServices(store, cache, a.pubsub, limiter, logger, service.Config{
		Allocation: allocation.Config{KeepFallbackDuplicates: cfg.Allocation.KeepFallbackDuplicates},
		Booking:    booking.Config{MaxSeatsPerBooking: cfg.Booking.MaxSeats},
	})

	if err := a.services.Booking.Initialize(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to initialize seat chart: %w", err)
	}

	router := httpgin.NewRouter(a.services, idem, logger)

	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.New(ctx, postgres.Config{
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Name:     cfg.Postgres.Name,
			SSLMode:  cfg.Postgres.SSLMode,
			Migrate:  true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		return postgresrepo.NewStore(pool), nil

	case config.DriverSQLite:
		pool, err := sqlite.Open(sqlite.Config{Path: cfg.Store.SQLitePath, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite: %w", err)
		}
		return sqliterepo.NewStore(pool), nil

	case config.DriverMemory:
		return memory.NewStore(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (a *App) Services() *service.Services { return a.services }

// PubSub is nil when redis is disabled.
func (a *App) PubSub() *redisrepo.ChartPubSub { return a.pubsub }

func (a *App) Handler() http.Handler { return a.server.Handler }

// Run serves HTTP until ctx is cancelled or the process is interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "addr", a.server.Addr, "store", a.cfg.Store.Driver)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(ctx)
	})

	return g.Wait()
}

// Close releases the store and the redis client.
func (a *App) Close() error {
	var errs []error

	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}

	errs = append(errs, a.store.Close())

	return errors.Join(errs...)
}
