package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a redis address was configured at all.
func (c Config) Enabled() bool {
	return c.Addr != ""
}

func New(ctx context.Context, cfg Config) (*redis.Client, error) {
	const op = "redis.New"

	if !cfg.Enabled() {
		return nil, fmt.Errorf("%s: no address configured", op)
	}

	client := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: "coachseat",
	})

	ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(ctxPing).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return client, nil
}
