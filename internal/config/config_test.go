package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validTestConfig() *Config {
	return &Config{
		Port:               "8080",
		Env:                "development",
		DBHost:             "localhost",
		DBPort:             "5432",
		DBUser:             "user",
		DBPassword:         "password",
		DBName:             "bazaarhub",
		RedisURL:           "localhost:6379",
		SessionTTLHours:    24,
		RateLimitPerMinute: 60,
		RateLimitPerHour:   300,
		FeedPageSize:       10,
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validTestConfig().Validate())
}

func TestValidate_MissingPort(t *testing.T) {
	cfg := validTestConfig()
	cfg.Port = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_NegativeRateLimits(t *testing.T) {
	cfg := validTestConfig()
	cfg.RateLimitPerMinute = -1
	assert.Error(t, cfg.Validate())

	cfg = validTestConfig()
	cfg.RateLimitPerHour = -1
	assert.Error(t, cfg.Validate())
}

func TestValidate_NegativeFeedPageSize(t *testing.T) {
	cfg := validTestConfig()
	cfg.FeedPageSize = -1
	assert.Error(t, cfg.Validate())
}

func TestValidate_ProductionRequiresStrongDBPassword(t *testing.T) {
	cfg := validTestConfig()
	cfg.Env = "production"
	assert.Error(t, cfg.Validate(), "default password must be rejected in production")

	cfg.DBPassword = "s0mething-actually-secret"
	assert.NoError(t, cfg.Validate())
}
