package allocation

import (
	"context"
	"fmt"

	"github.com/kirinyoku/coachseat/internal/domain"
	"github.com/kirinyoku/coachseat/internal/repository"
)

// SeatReader is the part of the seat store the engine reads from.
type SeatReader interface {
	AvailableSeatsInRange(ctx context.Context, low, high int) ([]int, error)
	AllAvailableSeats(ctx context.Context) ([]int, error)
}

var _ SeatReader = (repository.SeatRepository)(nil)

type Config struct {
	// KeepFallbackDuplicates reproduces the historical fallback exactly:
	// the full rescan is appended as-is, so seats already collected from
	// the rows can appear twice before truncation.
	KeepFallbackDuplicates bool
}

// Engine picks seats for a booking: whole rows first, in row order, then a
// scan of everything still available. It never writes to the store.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// SelectSeats returns up to requested seat numbers.
//
// Parameters:
//   - ctx: request-scoped context.
//   - seats: store to read availability from; pass a transaction-bound
//     repository to read and book under one transaction.
//   - requested: number of seats wanted. Not validated; callers reject
//     non-positive counts.
//
// Returns:
//   - []int: selected seat numbers, shorter than requested when the coach
//     does not have enough available seats.
//   - error: if the store fails.
func (e *Engine) SelectSeats(ctx context.Context, seats SeatReader, requested int) ([]int, error) {
	const op = "service.allocation.SelectSeats"

	if requested <= 0 {
		return []int{}, nil
	}

	picked := make([]int, 0, requested)

	for row := 1; row <= domain.RowCount; row++ {
		low, high, _ := domain.RowRange(row)

		free, err := seats.AvailableSeatsInRange(ctx, low, high)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d:%w", op, row, err)
		}

		picked = append(picked, free...)
		if len(picked) >= requested {
			return picked[:requested], nil
		}
	}

	rest, err := seats.AllAvailableSeats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: fallback:%w", op, err)
	}

	if e.cfg.KeepFallbackDuplicates {
		picked = append(picked, rest...)
	} else {
		picked = appendMissing(picked, rest)
	}

	if len(picked) > requested {
		picked = picked[:requested]
	}

	return picked, nil
}

func appendMissing(dst, src []int) []int {
	have := make(map[int]struct{}, len(dst))
	for _, n := range dst {
		have[n] = struct{}{}
	}

	for _, n := range src {
		if _, ok := have[n]; ok {
			continue
		}
		have[n] = struct{}{}
		dst = append(dst, n)
	}

	return dst
}
