// Package config loads server settings from the environment. A .env file in
// the working directory, when present, is applied first without overriding
// variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/habitloop/internal/dateutil"
)

type Config struct {
	Port          string
	DBPath        string
	LogLevel      string
	LogFile       string
	Timezone      string
	Location      *time.Location
	SessionTTL    time.Duration
	EngineIdleTTL time.Duration
	// AuthRateLimit caps login and register attempts per client IP per minute.
	AuthRateLimit int
	S3            S3Config
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether archive uploads are configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Load reads .env (if any) and then the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is ignored.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	cfg := &Config{
		Port:     getenv("HABITLOOP_PORT", "8080"),
		DBPath:   getenv("HABITLOOP_DB_PATH", "habitloop.db"),
		LogLevel: getenv("HABITLOOP_LOG_LEVEL", "info"),
		LogFile:  os.Getenv("HABITLOOP_LOG_FILE"),
		Timezone: getenv("HABITLOOP_TIMEZONE", "Local"),
		S3: S3Config{
			Endpoint:  os.Getenv("HABITLOOP_S3_ENDPOINT"),
			Bucket:    os.Getenv("HABITLOOP_S3_BUCKET"),
			Region:    getenv("HABITLOOP_S3_REGION", "us-east-1"),
			AccessKey: os.Getenv("HABITLOOP_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("HABITLOOP_S3_SECRET_KEY"),
		},
	}

	loc, err := dateutil.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("HABITLOOP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.SessionTTL, err = durationEnv("HABITLOOP_SESSION_TTL", 720*time.Hour); err != nil {
		return nil, err
	}
	if cfg.EngineIdleTTL, err = durationEnv("HABITLOOP_ENGINE_IDLE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AuthRateLimit, err = intEnv("HABITLOOP_AUTH_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %d", key, n)
	}
	return n, nil
}
