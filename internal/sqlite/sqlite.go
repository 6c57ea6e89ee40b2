// Package sqlite opens the file-backed seat chart database.
package sqlite

import (
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `
CREATE TABLE IF NOT EXISTS seats (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	seat_number INTEGER NOT NULL UNIQUE CHECK (seat_number BETWEEN 1 AND 80),
	status      TEXT    NOT NULL CHECK (status IN ('available', 'booked'))
);
`

type Config struct {
	// Path of the database file; created if missing. ":memory:" only
	// works with PoolSize 1, every in-memory connection is its own
	// database.
	Path     string
	PoolSize int
	Logger   *slog.Logger
}

// Open returns a connection pool with pragmas applied and the seats table
// created on every connection.
func Open(cfg Config) (*sqlitex.Pool, error) {
	const op = "sqlite.Open"

	if cfg.Path == "" {
		return nil, fmt.Errorf("%s: path is required", op)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConn,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: opening %s: %w", op, cfg.Path, err)
	}

	logger.Info("sqlite pool opened", "path", cfg.Path, "pool_size", poolSize)

	return pool, nil
}

func prepareConn(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}

	for _, p := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, p, nil); err != nil {
			return fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("sqlite: create schema: %w", err)
	}

	return nil
}
