package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.LockTimeout)
	assert.Equal(t, time.Hour, cfg.DefaultSlotInterval)
	assert.Len(t, cfg.PricingStrategies, 4)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("DEFAULT_SLOT_INTERVAL", "30m")
	t.Setenv("PRICING_STRATEGIES", "BasePrice:5")
	t.Setenv("PROJECTOR_WORKERS", "0")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Minute, cfg.DefaultSlotInterval)
	assert.Equal(t, []string{"BasePrice:5"}, cfg.PricingStrategies)
	assert.Equal(t, 1, cfg.ProjectorWorkers)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsZeroTimeout(t *testing.T) {
	t.Setenv("LOCK_TIMEOUT", "0s")
	_, err := Load()
	assert.Error(t, err)
}
