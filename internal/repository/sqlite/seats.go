package sqliterepo

import (
	"context"
	"fmt"

	"github.com/kirinyoku/coachseat/internal/domain"
	"github.com/kirinyoku/coachseat/internal/repository"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// SeatRepo works either on pooled connections or on one connection bound
// by Store.RunTx.
type SeatRepo struct {
	pool *sqlitex.Pool
	conn *sqlite.Conn
}

var _ repository.SeatRepository = (*SeatRepo)(nil)

func (r *SeatRepo) acquire(ctx context.Context) (*sqlite.Conn, func(), error) {
	if r.conn != nil {
		return r.conn, func() {}, nil
	}

	conn, err := r.pool.Take(ctx)
	if err != nil {
		return nil, nil, err
	}

	return conn, func() { r.pool.Put(conn) }, nil
}

func (r *SeatRepo) Initialize(ctx context.Context) (n int64, err error) {
	const op = "sqliterepo.SeatRepo.Initialize"

	conn, release, err := r.acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}
	defer release()

	defer sqlitex.Save(conn)(&err)

	var existing int64
	err = sqlitex.Execute(conn, `SELECT COUNT(*) FROM seats`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			existing = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	if existing > 0 {
		return 0, nil
	}

	for seat := 1; seat <= domain.TotalSeats; seat++ {
		err = sqlitex.Execute(conn,
			`INSERT INTO seats (seat_number, status) VALUES (?, 'available')`,
			&sqlitex.ExecOptions{Args: []any{seat}},
		)
		if err != nil {
			return 0, fmt.Errorf("%s:%w", op, err)
		}
	}

	return domain.TotalSeats, nil
}

func (r *SeatRepo) AvailableSeatsInRange(ctx context.Context, low, high int) ([]int, error) {
	const op = "sqliterepo.SeatRepo.AvailableSeatsInRange"

	out, err := r.seatNumbers(ctx,
		`SELECT seat_number FROM seats
		 WHERE seat_number BETWEEN ? AND ? AND status = 'available'
		 ORDER BY seat_number`,
		low, high,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *SeatRepo) AllAvailableSeats(ctx context.Context) ([]int, error) {
	const op = "sqliterepo.SeatRepo.AllAvailableSeats"

	out, err := r.seatNumbers(ctx,
		`SELECT seat_number FROM seats
		 WHERE status = 'available'
		 ORDER BY seat_number`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *SeatRepo) CountAvailable(ctx context.Context) (int, error) {
	const op = "sqliterepo.SeatRepo.CountAvailable"

	conn, release, err := r.acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}
	defer release()

	var n int
	err = sqlitex.Execute(conn, `SELECT COUNT(*) FROM seats WHERE status = 'available'`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			n = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return n, nil
}

// MarkBooked updates the seats one by one under a savepoint; a failure
// part way rolls back the whole batch.
func (r *SeatRepo) MarkBooked(ctx context.Context, seatNumbers []int) (n int64, err error) {
	const op = "sqliterepo.SeatRepo.MarkBooked"

	if len(seatNumbers) == 0 {
		return 0, nil
	}

	conn, release, err := r.acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}
	defer release()

	defer sqlitex.Save(conn)(&err)

	var affected int64
	for _, seat := range repository.Distinct(seatNumbers) {
		err = sqlitex.Execute(conn,
			`UPDATE seats SET status = 'booked' WHERE seat_number = ?`,
			&sqlitex.ExecOptions{Args: []any{seat}},
		)
		if err != nil {
			return 0, fmt.Errorf("%s:%w", op, err)
		}
		affected += int64(conn.Changes())
	}

	return affected, nil
}

func (r *SeatRepo) ListSeats(ctx context.Context) ([]domain.Seat, error) {
	const op = "sqliterepo.SeatRepo.ListSeats"

	conn, release, err := r.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	defer release()

	out := make([]domain.Seat, 0, domain.TotalSeats)
	err = sqlitex.Execute(conn, `SELECT seat_number, status FROM seats ORDER BY seat_number`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, domain.Seat{
				Number: stmt.ColumnInt(0),
				Status: domain.SeatStatus(stmt.ColumnText(1)),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *SeatRepo) seatNumbers(ctx context.Context, query string, args ...any) ([]int, error) {
	conn, release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	out := []int{}
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, stmt.ColumnInt(0))
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
