package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP     HTTPConfig
	Auth     AuthConfig
	Advisory AdvisoryConfig
	Storage  StorageConfig
	Logging  LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// AuthConfig tunes the session core.
type AuthConfig struct {
	JWTSigningKey string
	// CheckLatency models the credential check round trip the dashboard
	// originally simulated. Zero disables it.
	CheckLatency time.Duration
	// ReserveDemoEmails makes registration reject seeded demo emails.
	ReserveDemoEmails bool
	// HashSecrets stores bcrypt hashes instead of verbatim secrets.
	HashSecrets bool
}

// AdvisoryConfig tunes the simulated prediction engine.
type AdvisoryConfig struct {
	// PredictionLatency models the inference round trip. Zero disables it.
	PredictionLatency time.Duration
}

// StorageConfig selects the durable stores.
type StorageConfig struct {
	// DataDir holds the local bbolt databases.
	DataDir string
	// DatabaseURL, when set, moves the user registry to PostgreSQL.
	DatabaseURL string
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string // text|json
}

const (
	defaultAddr            = ":8080"
	defaultShutdownTimeout = 10 * time.Second
	defaultDataDir         = "data"
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"

	// Development fallback; override in any real deployment.
	defaultJWTSigningKey = "dev-secret-key-change-in-production"
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            valueOrDefault("HARVESTMIND_ADDR", defaultAddr),
			ShutdownTimeout: defaultShutdownTimeout,
			AllowedOrigins:  splitCSV(os.Getenv("HARVESTMIND_ALLOWED_ORIGINS")),
		},
		Auth: AuthConfig{
			JWTSigningKey:     valueOrDefault("JWT_SIGNING_KEY", defaultJWTSigningKey),
			ReserveDemoEmails: parseBoolWithDefault("AUTH_RESERVE_DEMO_EMAILS", false),
			HashSecrets:       parseBoolWithDefault("AUTH_HASH_SECRETS", false),
		},
		Storage: StorageConfig{
			DataDir:     valueOrDefault("HARVESTMIND_DATA_DIR", defaultDataDir),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Logging: LoggingConfig{
			Level:  valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format: valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
		},
	}

	if v := os.Getenv("AUTH_CHECK_LATENCY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid AUTH_CHECK_LATENCY: %w", err)
		}
		cfg.Auth.CheckLatency = d
	}

	if v := os.Getenv("PREDICTION_LATENCY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PREDICTION_LATENCY: %w", err)
		}
		cfg.Advisory.PredictionLatency = d
	}

	if v := os.Getenv("HARVESTMIND_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HARVESTMIND_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.HTTP.ShutdownTimeout = d
	}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
