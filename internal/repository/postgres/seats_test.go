package postgresrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/coachseat/internal/postgres"
	"github.com/kirinyoku/coachseat/internal/repository"
	"github.com/kirinyoku/coachseat/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName      = "coachseat"
	dbUser      = "test_user"
	dbPassword  = "test_password"
	dbImageName = "postgres:17-alpine"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, dbImageName,
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername(dbUser),
		tcpostgres.WithPassword(dbPassword),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewFromDSN(ctx, dsn, 4, true)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func TestStore(t *testing.T) {
	pool := startPostgres(t)

	repotest.Run(t, func(t *testing.T) repository.Store {
		_, err := pool.Exec(context.Background(), `TRUNCATE seats RESTART IDENTITY`)
		require.NoError(t, err)

		return NewStore(pool)
	})
}

func TestMigrateIsRepeatable(t *testing.T) {
	pool := startPostgres(t)

	require.NoError(t, postgres.Migrate(pool))
}

func TestTranslateDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: repository.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, want: repository.ErrConflict},
		{name: "missing table", err: &pgconn.PgError{Code: pgerrcode.UndefinedTable}, want: repository.ErrNotInitialized},
		{name: "timeout passes through", err: context.DeadlineExceeded, want: context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateDBErr(tt.err), tt.want)
		})
	}

	assert.NoError(t, translateDBErr(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	assert.True(t, IsRetryable(errors.Join(errors.New("tx"), &pgconn.PgError{Code: pgerrcode.DeadlockDetected})))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.False(t, IsRetryable(context.Canceled))
}

func TestRunTxWithExpiredContext(t *testing.T) {
	pool := startPostgres(t)
	store := NewStore(pool).WithTxOptions(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	err := store.RunTx(ctx, func(ctx context.Context, seats repository.SeatRepository) error {
		return nil
	})
	require.Error(t, err)
}

func TestRunTxRetriesSerializationFailure(t *testing.T) {
	pool := startPostgres(t)
	store := NewStore(pool)

	calls := 0
	err := store.RunTx(context.Background(), func(ctx context.Context, seats repository.SeatRepository) error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = store.RunTx(context.Background(), func(ctx context.Context, seats repository.SeatRepository) error {
		calls++
		return &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
	})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, maxTxAttempts, calls)

	calls = 0
	err = store.RunTx(context.Background(), func(ctx context.Context, seats repository.SeatRepository) error {
		calls++
		return repository.ErrConflict
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, 1, calls)
}
