package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Store      StoreConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Booking    BookingConfig
	Allocation AllocationConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type LogConfig struct {
	Level slog.Level
}

type StoreConfig struct {
	Driver     string
	SQLitePath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

type BookingConfig struct {
	MaxSeats        int
	RateLimit       int
	RateLimitWindow time.Duration
}

type AllocationConfig struct {
	KeepFallbackDuplicates bool
}

// New reads the configuration from the environment, after loading a .env
// file if there is one.
func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	cfg, err := fromEnv(os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cfg, nil
}

func fromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	serverPort, err := strconv.Atoi(get("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	serverCfg := ServerConfig{
		Host: get("SERVER_HOST", "localhost"),
		Port: serverPort,
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	driver := strings.ToLower(get("STORE_DRIVER", DriverSQLite))
	switch driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", driver)
	}

	storeCfg := StoreConfig{
		Driver:     driver,
		SQLitePath: get("SQLITE_PATH", "train_seats.db"),
	}

	var postgresCfg PostgresConfig
	if driver == DriverPostgres {
		postgresPort, err := strconv.Atoi(get("POSTGRES_PORT", "5432"))
		if err != nil {
			return nil, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
		}

		postgresCfg = PostgresConfig{
			User:     get("POSTGRES_USER", ""),
			Password: get("POSTGRES_PASSWORD", ""),
			Name:     get("POSTGRES_DB", ""),
			Host:     get("POSTGRES_HOST", "localhost"),
			Port:     postgresPort,
			SSLMode:  get("POSTGRES_SSLMODE", "disable"),
		}

		if postgresCfg.User == "" {
			return nil, fmt.Errorf("missing POSTGRES_USER")
		}

		if postgresCfg.Password == "" {
			return nil, fmt.Errorf("missing POSTGRES_PASSWORD")
		}

		if postgresCfg.Name == "" {
			return nil, fmt.Errorf("missing POSTGRES_DB")
		}
	}

	redisDB, err := strconv.Atoi(get("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	redisCfg := RedisConfig{
		Addr:     get("REDIS_ADDR", ""),
		Password: getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	maxSeats, err := strconv.Atoi(get("BOOKING_MAX_SEATS", "7"))
	if err != nil || maxSeats <= 0 {
		return nil, fmt.Errorf("invalid BOOKING_MAX_SEATS %q", getenv("BOOKING_MAX_SEATS"))
	}

	rateLimit, err := strconv.Atoi(get("BOOKING_RATE_LIMIT", "10"))
	if err != nil || rateLimit < 0 {
		return nil, fmt.Errorf("invalid BOOKING_RATE_LIMIT %q", getenv("BOOKING_RATE_LIMIT"))
	}

	window, err := time.ParseDuration(get("BOOKING_RATE_WINDOW", "1m"))
	if err != nil || window <= 0 {
		return nil, fmt.Errorf("invalid BOOKING_RATE_WINDOW %q", getenv("BOOKING_RATE_WINDOW"))
	}

	keepDuplicates, err := strconv.ParseBool(get("ALLOCATION_KEEP_DUPLICATES", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOCATION_KEEP_DUPLICATES: %w", err)
	}

	return &Config{
		Server:   serverCfg,
		Log:      LogConfig{Level: level},
		Store:    storeCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Booking: BookingConfig{
			MaxSeats:        maxSeats,
			RateLimit:       rateLimit,
			RateLimitWindow: window,
		},
		Allocation: AllocationConfig{KeepFallbackDuplicates: keepDuplicates},
	}, nil
}
