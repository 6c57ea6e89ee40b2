// Package memory keeps the seat chart in process memory. It backs the
// console when no database is configured and the unit tests of everything
// above the repository layer.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kirinyoku/coachseat/internal/domain"
	"github.com/kirinyoku/coachseat/internal/repository"
)

type state map[int]domain.SeatStatus

func (s state) clone() state {
	cp := make(state, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

type Store struct {
	mu    sync.Mutex
	seats state
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{seats: state{}}
}

func (s *Store) Seats() repository.SeatRepository {
	return &SeatRepo{store: s}
}

// RunTx gives fn a private copy of the chart and swaps it in only when fn
// succeeds. The store stays locked for the whole call.
func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, seats repository.SeatRepository) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.seats.clone()
	if err := fn(ctx, &SeatRepo{tx: work}); err != nil {
		return err
	}

	s.seats = work
	return nil
}

func (s *Store) Close() error { return nil }

// SeatRepo reads and writes either the shared chart under the store lock or
// the private copy of a running transaction.
type SeatRepo struct {
	store *Store
	tx    state
}

var _ repository.SeatRepository = (*SeatRepo)(nil)

func (r *SeatRepo) do(ctx context.Context, fn func(st state) state) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if r.tx != nil {
		next := fn(r.tx)
		if next != nil {
			for k, v := range next {
				r.tx[k] = v
			}
		}
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if next := fn(r.store.seats); next != nil {
		r.store.seats = next
	}
	return nil
}

func (r *SeatRepo) Initialize(ctx context.Context) (int64, error) {
	var created int64
	err := r.do(ctx, func(st state) state {
		if len(st) > 0 {
			return nil
		}
		next := make(state, domain.TotalSeats)
		for n := 1; n <= domain.TotalSeats; n++ {
			next[n] = domain.SeatAvailable
		}
		created = domain.TotalSeats
		return next
	})
	return created, err
}

func (r *SeatRepo) AvailableSeatsInRange(ctx context.Context, low, high int) ([]int, error) {
	out := []int{}
	err := r.do(ctx, func(st state) state {
		for n, status := range st {
			if n >= low && n <= high && status == domain.SeatAvailable {
				out = append(out, n)
			}
		}
		return nil
	})
	sort.Ints(out)
	return out, err
}

func (r *SeatRepo) AllAvailableSeats(ctx context.Context) ([]int, error) {
	out := []int{}
	err := r.do(ctx, func(st state) state {
		for n, status := range st {
			if status == domain.SeatAvailable {
				out = append(out, n)
			}
		}
		return nil
	})
	sort.Ints(out)
	return out, err
}

func (r *SeatRepo) CountAvailable(ctx context.Context) (int, error) {
	var n int
	err := r.do(ctx, func(st state) state {
		for _, status := range st {
			if status == domain.SeatAvailable {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *SeatRepo) MarkBooked(ctx context.Context, seatNumbers []int) (int64, error) {
	var affected int64
	err := r.do(ctx, func(st state) state {
		next := st.clone()
		for _, n := range repository.Distinct(seatNumbers) {
			if _, ok := next[n]; !ok {
				continue
			}
			next[n] = domain.SeatBooked
			affected++
		}
		return next
	})
	return affected, err
}

func (r *SeatRepo) ListSeats(ctx context.Context) ([]domain.Seat, error) {
	var out []domain.Seat
	err := r.do(ctx, func(st state) state {
		out = make([]domain.Seat, 0, len(st))
		for n, status := range st {
			out = append(out, domain.Seat{Number: n, Status: status})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, err
}
