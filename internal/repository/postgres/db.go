package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/coachseat/internal/repository"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Store struct {
	pool   *pgxpool.Pool
	txOpts pgx.TxOptions
}

var _ repository.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		txOpts: pgx.TxOptions{
			IsoLevel:   pgx.Serializable,
			AccessMode: pgx.ReadWrite,
		},
	}
}

// WithTxOptions returns a copy of the store whose transactions use opts.
func (s *Store) WithTxOptions(opts pgx.TxOptions) *Store {
	cp := *s
	cp.txOpts = opts
	return &cp
}

// maxTxAttempts bounds how often RunTx replays a transaction that lost a
// serialization conflict.
const maxTxAttempts = 3

// RunTx runs fn in a transaction and commits it. Serialization failures and
// deadlocks replay fn from the start, so fn must not keep state between
// calls.
func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, seats repository.SeatRepository) error,
) error {
	const op = "postgresrepo.Store.RunTx"

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if err == nil || !IsRetryable(err) || ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Store) runTx(
	ctx context.Context,
	fn func(ctx context.Context, seats repository.SeatRepository) error,
) error {
	tx, err := s.pool.BeginTx(ctx, s.txOpts)
	if err != nil {
		return translateDBErr(err)
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, s.SeatRepo().With(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", translateDBErr(err))
	}

	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) SeatRepo() *SeatRepo              { return &SeatRepo{pool: s.pool} }
func (s *Store) Seats() repository.SeatRepository { return s.SeatRepo() }
