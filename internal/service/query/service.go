package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/coachseat/internal/domain"
	"github.com/kirinyoku/coachseat/internal/repository"
	redisrepo "github.com/kirinyoku/coachseat/internal/repository/redis"
)

type Config struct {
	ChartTTL  time.Duration
	CountsTTL time.Duration
}

type Service struct {
	store repository.Store
	cache *redisrepo.Cache
	cfg   Config
}

// New builds the read side. cache may be nil, in which case every call
// goes to the store.
func New(store repository.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.ChartTTL <= 0 {
		cfg.ChartTTL = 30 * time.Second
	}

	if cfg.CountsTTL <= 0 {
		cfg.CountsTTL = 15 * time.Second
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// Chart returns every seat grouped by row.
//
// Returns:
//   - *domain.Chart: rows 1..11 plus the seats no row spans.
//   - error: query.ErrNotInitialized if the store holds no seats.
func (s *Service) Chart(ctx context.Context) (*domain.Chart, error) {
	const op = "service.query.Chart"

	chart, err := cached(ctx, s, redisrepo.KeyChart(), s.cfg.ChartTTL, s.loadChart)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &chart, nil
}

// Row returns a single row of the chart.
func (s *Service) Row(ctx context.Context, index int) (*domain.Row, error) {
	const op = "service.query.Row"

	if _, _, ok := domain.RowRange(index); !ok {
		return nil, fmt.Errorf("%s:%w", op, ErrRowNotFound)
	}

	chart, err := s.Chart(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	row := chart.Rows[index-1]

	return &row, nil
}

// Counts returns available, booked and total seat counts.
func (s *Service) Counts(ctx context.Context) (*domain.ChartCounts, error) {
	const op = "service.query.Counts"

	counts, err := cached(ctx, s, redisrepo.KeyChartCounts(), s.cfg.CountsTTL,
		func(ctx context.Context) (domain.ChartCounts, error) {
			chart, err := s.loadChart(ctx)
			if err != nil {
				return domain.ChartCounts{}, err
			}

			return chart.Counts(), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &counts, nil
}

func (s *Service) loadChart(ctx context.Context) (domain.Chart, error) {
	seats, err := s.store.Seats().ListSeats(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotInitialized) {
			return domain.Chart{}, ErrNotInitialized
		}

		return domain.Chart{}, err
	}

	if len(seats) == 0 {
		return domain.Chart{}, ErrNotInitialized
	}

	return domain.BuildChart(seats), nil
}

func cached[T any](
	ctx context.Context,
	s *Service,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	if s.cache == nil {
		return loader(ctx)
	}

	return redisrepo.GetOrSetJSON(ctx, s.cache, key, ttl, loader)
}
