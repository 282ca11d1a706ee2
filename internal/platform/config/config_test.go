package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"TAXDESK_ADDR", "DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS", "JWT_SIGNING_KEY", "WORKFLOW_POLICY", "REJECT_OVERPAYMENT"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 8*time.Hour, cfg.Server.SessionTTL)
	assert.Empty(t, cfg.Database.URL)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, "unrestricted", cfg.Clients.WorkflowPolicy)
	assert.False(t, cfg.Clients.RejectOverpayment)
	assert.True(t, cfg.UsesDevSigningKey())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TAXDESK_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("WORKFLOW_POLICY", "forward_only")
	t.Setenv("REJECT_OVERPAYMENT", "true")
	t.Setenv("JWT_SIGNING_KEY", "0123456789abcdef0123")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, slog.LevelDebug, cfg.Server.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "forward_only", cfg.Clients.WorkflowPolicy)
	assert.True(t, cfg.Clients.RejectOverpayment)
	assert.False(t, cfg.UsesDevSigningKey())
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	t.Run("duration", func(t *testing.T) {
		t.Setenv("SESSION_TTL", "eight hours")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "SESSION_TTL")
	})
	t.Run("bool", func(t *testing.T) {
		t.Setenv("REJECT_OVERPAYMENT", "sometimes")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "REJECT_OVERPAYMENT")
	})
	t.Run("short signing key", func(t *testing.T) {
		t.Setenv("JWT_SIGNING_KEY", "short")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "at least 16 bytes")
	})
}
