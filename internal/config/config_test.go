package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "info", cfg.LogLevel)

	assert.Equal(t, 24*time.Hour, cfg.SchedulerInterval)
	assert.Equal(t, "UTC", cfg.SchedulerTimezone)
	assert.Equal(t, 500, cfg.SchedulerBatchSize)
	assert.Equal(t, 4, cfg.SchedulerConcurrency)

	assert.Equal(t, 30*time.Second, cfg.LivenessInterval)
	assert.Equal(t, 30*time.Second, cfg.RetryInterval)
	assert.Equal(t, 100, cfg.RetryBatchSize)

	assert.Equal(t, "mem://push", cfg.PushTopicURL)
	assert.Equal(t, "mem://email", cfg.EmailTopicURL)
	assert.False(t, cfg.RedisEnabled)

	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "marketplace", cfg.MetricsNamespace)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_INTERVAL_HOURS", "1")
	t.Setenv("SCHEDULER_TIMEZONE", "America/Sao_Paulo")
	t.Setenv("LIVENESS_INTERVAL_SECONDS", "10")
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("REDIS_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, time.Hour, cfg.SchedulerInterval)
	assert.Equal(t, "America/Sao_Paulo", cfg.SchedulerTimezone)
	assert.Equal(t, 10*time.Second, cfg.LivenessInterval)
	assert.Equal(t, "test-secret", cfg.AuthJWTSecret)
	assert.True(t, cfg.RedisEnabled)
}

func TestGetGinMode(t *testing.T) {
	tests := []struct {
		logLevel string
		expected string
	}{
		{"debug", "debug"},
		{"info", "release"},
		{"warn", "release"},
		{"error", "release"},
		{"unknown", "release"},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			assert.Equal(t, tt.expected, cfg.GetGinMode())
		})
	}
}
