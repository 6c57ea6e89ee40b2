package repository

import (
	"context"

	"github.com/kirinyoku/coachseat/internal/domain"
)

// SeatRepository is the seat chart store. Every call is atomic on its own;
// nothing is held between calls.
type SeatRepository interface {
	// Initialize creates every seat as available when the chart holds no
	// seats yet. It returns the number of seats created, 0 when the chart
	// already existed.
	Initialize(ctx context.Context) (int64, error)
	// AvailableSeatsInRange returns available seat numbers in [low, high],
	// ascending.
	AvailableSeatsInRange(ctx context.Context, low, high int) ([]int, error)
	// AllAvailableSeats returns every available seat number, ascending.
	AllAvailableSeats(ctx context.Context) ([]int, error)
	CountAvailable(ctx context.Context) (int, error)
	// MarkBooked books the given seats as one batch. Unknown seat numbers
	// are skipped; the number of rows touched is returned.
	MarkBooked(ctx context.Context, seatNumbers []int) (int64, error)
	// ListSeats returns every seat with its status, ascending.
	ListSeats(ctx context.Context) ([]domain.Seat, error)
}

// Store hands out seat repositories, either bound to the backing storage
// directly or to a single transaction.
type Store interface {
	Seats() SeatRepository
	RunTx(ctx context.Context, fn func(ctx context.Context, seats SeatRepository) error) error
	Close() error
}

// Distinct drops repeated seat numbers, keeping first occurrences in order.
func Distinct(seatNumbers []int) []int {
	seen := make(map[int]struct{}, len(seatNumbers))
	out := make([]int, 0, len(seatNumbers))
	for _, n := range seatNumbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
