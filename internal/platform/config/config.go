// Package config reads process configuration from the environment. A .env
// file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "taxdesk/pkg/platform/strings"
)

const devSigningKey = "dev-secret-key-change-in-production"

type Config struct {
	Server   Server
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Clients  ClientsConfig
	API      APIConfig
	// SeedDemoData loads the demo accounts and sample clients on startup.
	SeedDemoData bool
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        slog.Level
	JWTSigningKey   string
	SessionTTL      time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// Sign-in lockout: MaxLoginAttempts failures within LoginWindow lock the
	// email and client IP pair for LoginLockout.
	MaxLoginAttempts int
	LoginWindow      time.Duration
	LoginLockout     time.Duration
}

// DatabaseConfig selects PostgreSQL. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig selects the Redis session store. An empty URL keeps sessions
// in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the audit outbox relay when Brokers is non-empty.
type KafkaConfig struct {
	Brokers      []string
	AuditTopic   string
	PollInterval time.Duration
	BatchSize    int
}

type ClientsConfig struct {
	WorkflowPolicy    string
	RejectOverpayment bool
}

// APIConfig points the API client at a remote backend.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// FromEnv builds the configuration. Malformed values are errors; missing
// values take defaults suitable for local development.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	r := reader{}
	cfg := Config{
		Server: Server{
			Addr:            r.str("TAXDESK_ADDR", ":8080"),
			LogLevel:        r.level("LOG_LEVEL", slog.LevelInfo),
			JWTSigningKey:   r.str("JWT_SIGNING_KEY", devSigningKey),
			SessionTTL:      r.duration("SESSION_TTL", 8*time.Hour),
			RequestTimeout:  r.duration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),

			MaxLoginAttempts: r.int("LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:      r.duration("LOGIN_WINDOW", 15*time.Minute),
			LoginLockout:     r.duration("LOGIN_LOCKOUT", 15*time.Minute),
		},
		Database: DatabaseConfig{
			URL:             r.str("DATABASE_URL", ""),
			MaxOpenConns:    r.int("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    r.int("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: r.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          r.str("REDIS_URL", ""),
			PoolSize:     r.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:      r.list("KAFKA_BROKERS"),
			AuditTopic:   r.str("AUDIT_TOPIC", "taxdesk.audit"),
			PollInterval: r.duration("AUDIT_RELAY_INTERVAL", time.Second),
			BatchSize:    r.int("AUDIT_RELAY_BATCH", 100),
		},
		Clients: ClientsConfig{
			WorkflowPolicy:    r.str("WORKFLOW_POLICY", "unrestricted"),
			RejectOverpayment: r.bool("REJECT_OVERPAYMENT", false),
		},
		API: APIConfig{
			BaseURL: r.str("API_BASE_URL", "http://localhost:8080/api/v1"),
			Timeout: r.duration("API_TIMEOUT", 30*time.Second),
		},
		SeedDemoData: r.bool("SEED_DEMO_DATA", false),
	}
	if r.err != nil {
		return Config{}, r.err
	}
	if len(cfg.Server.JWTSigningKey) < 16 {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY must be at least 16 bytes")
	}
	return cfg, nil
}

// UsesDevSigningKey reports whether the built-in development key is active.
func (c Config) UsesDevSigningKey() bool {
	return c.Server.JWTSigningKey == devSigningKey
}

// reader keeps the first parse error so FromEnv can report it once.
type reader struct {
	err error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) fail(key, raw string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
}

func (r *reader) int(key string, def int) int {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *reader) bool(key string, def bool) bool {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *reader) level(key string, def slog.Level) slog.Level {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		r.fail(key, raw, err)
		return def
	}
	return lvl
}

func (r *reader) list(key string) []string {
	return pstrings.SplitList(r.str(key, ""))
}
