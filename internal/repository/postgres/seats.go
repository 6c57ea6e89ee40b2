package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/coachseat/internal/domain"
	"github.com/kirinyoku/coachseat/internal/repository"
)

type SeatRepo struct {
	pool *pgxpool.Pool
	db   DB
}

var _ repository.SeatRepository = (*SeatRepo)(nil)

func (r *SeatRepo) With(db DB) *SeatRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SeatRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Initialize creates the seat chart when the seats table is empty.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//
// Returns:
//   - int64: number of seats created, 0 when the chart already existed.
//   - error: repository.ErrNotInitialized if the seats table is missing.
func (r *SeatRepo) Initialize(ctx context.Context) (int64, error) {
	const op = "postgresrepo.SeatRepo.Initialize"

	if r.db != nil {
		n, err := r.initializeCore(ctx, r.db)
		if err != nil {
			return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		return n, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer tx.Rollback(ctx)

	n, err := r.initializeCore(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return n, nil
}

// AvailableSeatsInRange lists available seat numbers in [low, high].
//
// Returns:
//   - []int: ascending seat numbers, empty when none are available.
//   - error: if the query fails.
func (r *SeatRepo) AvailableSeatsInRange(ctx context.Context, low, high int) ([]int, error) {
	const op = "postgresrepo.SeatRepo.AvailableSeatsInRange"

	rows, err := r.handle().Query(ctx,
		`SELECT seat_number
		 FROM seats
		 WHERE seat_number BETWEEN $1 AND $2 AND status = 'available'
		 ORDER BY seat_number`,
		low, high,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	out, err := collectSeatNumbers(rows)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

// AllAvailableSeats lists every available seat number, ascending.
func (r *SeatRepo) AllAvailableSeats(ctx context.Context) ([]int, error) {
	const op = "postgresrepo.SeatRepo.AllAvailableSeats"

	rows, err := r.handle().Query(ctx,
		`SELECT seat_number
		 FROM seats
		 WHERE status = 'available'
		 ORDER BY seat_number`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	out, err := collectSeatNumbers(rows)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *SeatRepo) CountAvailable(ctx context.Context) (int, error) {
	const op = "postgresrepo.SeatRepo.CountAvailable"

	var n int
	err := r.handle().QueryRow(ctx,
		`SELECT COUNT(*) FROM seats WHERE status = 'available'`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return n, nil
}

// MarkBooked sets the given seats to booked in a single statement, so the
// batch either applies fully or not at all.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - seatNumbers: seats to book; unknown numbers are ignored.
//
// Returns:
//   - int64: number of seat rows updated.
//   - error: if the update fails.
func (r *SeatRepo) MarkBooked(ctx context.Context, seatNumbers []int) (int64, error) {
	const op = "postgresrepo.SeatRepo.MarkBooked"

	if len(seatNumbers) == 0 {
		return 0, nil
	}

	tag, err := r.handle().Exec(ctx,
		`UPDATE seats
		 SET status = 'booked'
		 WHERE seat_number = ANY($1)`,
		seatNumbers,
	)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return tag.RowsAffected(), nil
}

func (r *SeatRepo) ListSeats(ctx context.Context) ([]domain.Seat, error) {
	const op = "postgresrepo.SeatRepo.ListSeats"

	rows, err := r.handle().Query(ctx,
		`SELECT seat_number, status
		 FROM seats
		 ORDER BY seat_number`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out := make([]domain.Seat, 0, domain.TotalSeats)
	for rows.Next() {
		var s domain.Seat
		var status string

		if err := rows.Scan(&s.Number, &status); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		s.Status = domain.SeatStatus(status)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *SeatRepo) initializeCore(ctx context.Context, db DB) (int64, error) {
	const op = "postgresrepo.SeatRepo.initializeCore"

	var existing int64
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM seats`).Scan(&existing); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if existing > 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for n := 1; n <= domain.TotalSeats; n++ {
		batch.Queue(
			`INSERT INTO seats(seat_number, status)
			 VALUES ($1, 'available')
			 ON CONFLICT (seat_number) DO NOTHING`,
			n,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return domain.TotalSeats, nil
}

func collectSeatNumbers(rows pgx.Rows) ([]int, error) {
	defer rows.Close()

	out := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}

	return out, rows.Err()
}
