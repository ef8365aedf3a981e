package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `validate:"oneof=development production"`
	HTTPAddr string `validate:"required"`
	GRPCAddr string `validate:"required"`

	DBDriver          string        `validate:"oneof=mysql sqlite"`
	DBDSN             string        `validate:"required"`
	DBMaxOpenConns    int           `validate:"gte=1"`
	DBMaxIdleConns    int           `validate:"gte=0"`
	DBConnMaxLifetime time.Duration `validate:"gte=0"`

	CacheBackend string `validate:"oneof=redis memory"`
	RedisURL     string `validate:"required_if=CacheBackend redis"`

	LockRetries    int           `validate:"gte=1,lte=100"`
	RequestTimeout time.Duration `validate:"gt=0"`
	HealthInterval time.Duration `validate:"gt=0"`
}

// Load reads the configuration from the environment. Variables from a .env
// file in the working directory are loaded first and never override the
// real environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from the process environment only.
func FromEnv() (*Config, error) {
	var errs []error
	intVal := func(key string, def int) int {
		v, err := getInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durVal := func(key string, def time.Duration) time.Duration {
		v, err := getDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr: getEnv("GRPC_ADDR", ":50051"),

		DBDriver:          getEnv("DB_DRIVER", "mysql"),
		DBDSN:             getEnv("DB_DSN", "root:root@tcp(localhost:3306)/fitforfun?parseTime=true"),
		DBMaxOpenConns:    intVal("DB_MAX_OPEN_CONNS", 50),
		DBMaxIdleConns:    intVal("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: durVal("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		CacheBackend: getEnv("CACHE_BACKEND", "redis"),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),

		LockRetries:    intVal("LOCK_RETRIES", 5),
		RequestTimeout: durVal("REQUEST_TIMEOUT", 10*time.Second),
		HealthInterval: durVal("HEALTH_INTERVAL", 10*time.Second),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
