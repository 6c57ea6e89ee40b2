package service

import (
	"log/slog"

	"github.com/kirinyoku/coachseat/internal/repository"
	redisrepo "github.com/kirinyoku/coachseat/internal/repository/redis"
	"github.com/kirinyoku/coachseat/internal/service/allocation"
	"github.com/kirinyoku/coachseat/internal/service/booking"
	"github.com/kirinyoku/coachseat/internal/service/query"
)

type Services struct {
	Booking *booking.Service
	Query   *query.Service
}

type Config struct {
	Allocation allocation.Config
	Booking    booking.Config
	Query      query.Config
}

// NewServices wires the services over store. The redis collaborators are
// optional; pass nil for any of them to run without it.
func NewServices(
	store repository.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.ChartPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Services {
	deps := booking.Deps{Logger: logger}

	// Assigned one by one so a nil pointer never becomes a non-nil interface.
	if cache != nil {
		deps.Cache = cache
	}
	if pubsub != nil {
		deps.PubSub = pubsub
	}
	if limiter != nil {
		deps.Limiter = limiter
	}

	return &Services{
		Booking: booking.New(store, allocation.New(cfg.Allocation), deps, cfg.Booking),
		Query:   query.New(store, cache, cfg.Query),
	}
}
