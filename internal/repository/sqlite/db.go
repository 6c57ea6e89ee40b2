package sqliterepo

import (
	"context"
	"fmt"

	"github.com/kirinyoku/coachseat/internal/repository"
	"zombiezen.com/go/sqlite/sqlitex"
)

type Store struct {
	pool *sqlitex.Pool
}

var _ repository.Store = (*Store)(nil)

func NewStore(pool *sqlitex.Pool) *Store {
	return &Store{pool: pool}
}

// RunTx runs fn on a single connection inside BEGIN IMMEDIATE, so the
// write lock is taken before the first read.
func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, seats repository.SeatRepository) error,
) (err error) {
	const op = "sqliterepo.Store.RunTx"

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}
	defer s.pool.Put(conn)

	endTx, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer endTx(&err)

	return fn(ctx, &SeatRepo{conn: conn})
}

func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("sqliterepo.Store.Close:%w", err)
	}
	return nil
}

func (s *Store) SeatRepo() *SeatRepo              { return &SeatRepo{pool: s.pool} }
func (s *Store) Seats() repository.SeatRepository { return s.SeatRepo() }
