package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Booking.SeatLockTTL)
	assert.Equal(t, 30*time.Minute, cfg.Booking.SessionTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "inr", cfg.Payment.Currency)
	assert.Empty(t, cfg.Auth.OIDCIssuer)
	assert.True(t, cfg.Database.SeedData)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("SEAT_LOCK_TTL_MINUTES", "10")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("SEED_DEMO_DATA", "false")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Booking.SeatLockTTL)
	assert.Equal(t, 45*time.Minute, cfg.Booking.SessionTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 0, cfg.Redis.DB, "invalid values fall back to the default")
	assert.False(t, cfg.Database.SeedData)
}
