package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirinyoku/coachseat/internal/domain"
	"github.com/kirinyoku/coachseat/internal/idgen"
	"github.com/kirinyoku/coachseat/internal/repository"
	redisrepo "github.com/kirinyoku/coachseat/internal/repository/redis"
	"github.com/kirinyoku/coachseat/internal/service/allocation"
	"github.com/kirinyoku/coachseat/internal/uow"
)

const DefaultMaxSeatsPerBooking = 7

type Config struct {
	MaxSeatsPerBooking int
}

// ChartInvalidator drops cached chart views.
type ChartInvalidator interface {
	InvalidateChart(ctx context.Context) error
}

// ChangePublisher announces booked seats to other processes.
type ChangePublisher interface {
	PublishChartChanged(ctx context.Context, reference string, seats []int) error
}

type Limiter interface {
	Allow(ctx context.Context, id string) (redisrepo.Decision, error)
}

// Deps are the optional collaborators of the service. Nil fields are
// skipped.
type Deps struct {
	Cache   ChartInvalidator
	PubSub  ChangePublisher
	Limiter Limiter
	Logger  *slog.Logger
}

type Service struct {
	store  repository.Store
	engine *allocation.Engine
	uow    *uow.UoW
	deps   Deps
	cfg    Config
	now    func() time.Time
}

func New(store repository.Store, engine *allocation.Engine, deps Deps, cfg Config) *Service {
	if cfg.MaxSeatsPerBooking <= 0 {
		cfg.MaxSeatsPerBooking = DefaultMaxSeatsPerBooking
	}

	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	return &Service{
		store:  store,
		engine: engine,
		uow:    uow.NewUoW(store),
		deps:   deps,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Initialize makes sure the seat chart exists. Safe at every start.
func (s *Service) Initialize(ctx context.Context) error {
	const op = "service.booking.Initialize"

	created, err := s.store.Seats().Initialize(ctx)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if created > 0 {
		s.deps.Logger.Info("seat chart created", "seats", created)
		s.invalidate(ctx)
	}

	return nil
}

// CountAvailable returns how many seats can still be booked.
func (s *Service) CountAvailable(ctx context.Context) (int, error) {
	const op = "service.booking.CountAvailable"

	n, err := s.store.Seats().CountAvailable(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return n, nil
}

// Availability reports seat counts straight from the store.
func (s *Service) Availability(ctx context.Context) (domain.ChartCounts, error) {
	const op = "service.booking.Availability"

	available, err := s.store.Seats().CountAvailable(ctx)
	if err != nil {
		return domain.ChartCounts{}, fmt.Errorf("%s:%w", op, err)
	}

	return domain.ChartCounts{
		Available: available,
		Booked:    domain.TotalSeats - available,
		Total:     domain.TotalSeats,
	}, nil
}

// Book selects and books requested seats.
//
// Parameters:
//   - ctx: request-scoped context.
//   - requested: number of seats, 1..MaxSeatsPerBooking.
//   - clientKey: rate limit bucket; empty skips rate limiting.
//
// Returns:
//   - *domain.Booking: reference and the seats booked, in selection order.
//   - error: booking.ErrInvalidSeatCount for non-positive counts.
//   - error: booking.TooManySeatsError above the per-booking maximum.
//   - error: booking.ErrCoachFull when nothing is left.
//   - error: booking.InsufficientSeatsError when fewer seats are left.
//   - error: booking.RateLimitedError when clientKey is over its limit.
func (s *Service) Book(ctx context.Context, requested int, clientKey string) (*domain.Booking, error) {
	const op = "service.booking.Book"

	if requested <= 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidSeatCount)
	}

	if requested > s.cfg.MaxSeatsPerBooking {
		return nil, fmt.Errorf("%s:%w", op, TooManySeatsError{Requested: requested, Max: s.cfg.MaxSeatsPerBooking})
	}

	if s.deps.Limiter != nil && clientKey != "" {
		d, err := s.deps.Limiter.Allow(ctx, clientKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !d.Allowed {
			return nil, fmt.Errorf("%s:%w", op, RateLimitedError{RetryAfter: d.RetryAfter})
		}
	}

	reference, err := idgen.Booking()
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var picked []int

	err = s.uow.Do(ctx, func(
		ctx context.Context,
		seats repository.SeatRepository,
		after func(uow.AfterCommit),
	) error {
		available, err := seats.CountAvailable(ctx)
		if err != nil {
			return err
		}

		if available == 0 {
			return ErrCoachFull
		}

		if requested > available {
			return InsufficientSeatsError{Requested: requested, Available: available}
		}

		picked, err = s.engine.SelectSeats(ctx, seats, requested)
		if err != nil {
			return err
		}

		distinct := repository.Distinct(picked)
		if len(distinct) != len(picked) {
			s.deps.Logger.Warn("selection repeated seats",
				"reference", reference, "selected", picked)
		}

		affected, err := seats.MarkBooked(ctx, picked)
		if err != nil {
			return err
		}

		if int(affected) != len(distinct) {
			s.deps.Logger.Warn("booked fewer seats than selected",
				"reference", reference, "selected", len(distinct), "booked", affected)
		}

		after(func(ctx context.Context) {
			s.invalidate(ctx)
			s.publish(ctx, reference, picked)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.deps.Logger.Info("seats booked", "reference", reference, "seats", picked)

	return &domain.Booking{
		Reference: reference,
		Seats:     picked,
		BookedAt:  s.now().UTC(),
	}, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.deps.Cache == nil {
		return
	}

	if err := s.deps.Cache.InvalidateChart(ctx); err != nil {
		s.deps.Logger.Warn("failed to invalidate chart cache", "error", err)
	}
}

func (s *Service) publish(ctx context.Context, reference string, seats []int) {
	if s.deps.PubSub == nil {
		return
	}

	if err := s.deps.PubSub.PublishChartChanged(ctx, reference, seats); err != nil {
		s.deps.Logger.Warn("failed to publish chart change", "reference", reference, "error", err)
	}
}
