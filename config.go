package clinicauth

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// StoreConfig controls the Redis session store.
type StoreConfig struct {
	// KeyPrefix namespaces the three session keys. One prefix per logical
	// session.
	KeyPrefix string
	// TTL bounds how long a persisted session survives without being
	// rewritten. Zero disables expiry.
	TTL time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the emitting operation
	// when the buffer is full. Dropped counts are observable through
	// [Manager.AuditDropped].
	DropIfFull bool
}

// MetricsConfig controls counter collection.
type MetricsConfig struct {
	Enabled bool
}

// Config is the full Manager configuration. Zero value is not usable;
// start from [Builder] defaults and override.
type Config struct {
	Store   StoreConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

func defaultConfig() Config {
	return Config{
		Store: StoreConfig{
			KeyPrefix: "clinicauth:session",
			TTL:       30 * 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Validate reports the first configuration error found.
func (c Config) Validate() error {
	if c.Store.KeyPrefix == "" {
		return errors.New("store key prefix required")
	}
	if c.Store.TTL < 0 {
		return errors.New("store ttl must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}

// ConfigFromEnv builds a Config from environment variables, loading a
// .env file first when one is present (missing .env is not an error).
//
// Recognized variables:
//
//	CLINICAUTH_SESSION_PREFIX   store key prefix
//	CLINICAUTH_SESSION_TTL      Go duration, e.g. "720h"
//	CLINICAUTH_AUDIT_ENABLED    "true" / "false"
//	CLINICAUTH_AUDIT_BUFFER     integer buffer size
//	CLINICAUTH_METRICS_ENABLED  "true" / "false"
//
// Unset variables keep their defaults.
func ConfigFromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if v := os.Getenv("CLINICAUTH_SESSION_PREFIX"); v != "" {
		cfg.Store.KeyPrefix = v
	}
	if v := os.Getenv("CLINICAUTH_SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.New("invalid CLINICAUTH_SESSION_TTL: " + v)
		}
		cfg.Store.TTL = ttl
	}
	if v := os.Getenv("CLINICAUTH_AUDIT_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.New("invalid CLINICAUTH_AUDIT_ENABLED: " + v)
		}
		cfg.Audit.Enabled = enabled
	}
	if v := os.Getenv("CLINICAUTH_AUDIT_BUFFER"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, errors.New("invalid CLINICAUTH_AUDIT_BUFFER: " + v)
		}
		cfg.Audit.BufferSize = size
	}
	if v := os.Getenv("CLINICAUTH_METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.New("invalid CLINICAUTH_METRICS_ENABLED: " + v)
		}
		cfg.Metrics.Enabled = enabled
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
