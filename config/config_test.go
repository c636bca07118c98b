package config

import (
	"testing"
	"time"

	sniperrors "sjsage522/profitsniper/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "luxury", config.Profile)
	assert.Equal(t, 200.0, config.MinROIPercent)
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.Equal(t, "file", config.QueueBackend)
	assert.Equal(t, 1000, config.QueueCapacity)
	assert.Equal(t, 10000, config.SeenCapacity)
	assert.Equal(t, 150.0, config.DefaultRate)
	assert.Equal(t, 10*time.Minute, config.CycleTarget)
	assert.Equal(t, 3*time.Minute, config.CycleFloor)
	assert.Equal(t, "bin,auction", config.SearchFilters)

	// Test with environment variables
	t.Setenv("SNIPER_PROFILE", "grizzly")
	t.Setenv("MIN_ROI_PERCENT", "250")
	t.Setenv("MAX_PRICE_USD", "80.5")
	t.Setenv("QUEUE_BACKEND", "redis")
	t.Setenv("CYCLE_TARGET", "300")
	t.Setenv("PAGE_DELAY_MIN", "1500ms")
	t.Setenv("REDIS_DB", "2")

	config = LoadConfig()
	assert.Equal(t, "grizzly", config.Profile)
	assert.Equal(t, 250.0, config.MinROIPercent)
	assert.Equal(t, 80.5, config.MaxPriceUSD)
	assert.Equal(t, "redis", config.QueueBackend)
	assert.Equal(t, 300*time.Second, config.CycleTarget)
	assert.Equal(t, 1500*time.Millisecond, config.PageDelayMin)
	assert.Equal(t, 2, config.RedisDB)
}

func TestLoadConfigRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("MIN_ROI_PERCENT", "lots")
	t.Setenv("QUEUE_CAPACITY", "ten")
	t.Setenv("CYCLE_FLOOR", "soon")

	config := LoadConfig()
	config.NotifierURL = "http://localhost:8002"
	assert.Equal(t, 200.0, config.MinROIPercent)

	err := config.Validate()
	assert.Error(t, err)
	assert.True(t, sniperrors.IsType(err, sniperrors.ErrorTypeConfiguration))
	assert.Contains(t, err.Error(), "MIN_ROI_PERCENT=lots")
	assert.Contains(t, err.Error(), "QUEUE_CAPACITY=ten")
	assert.Contains(t, err.Error(), "CYCLE_FLOOR=soon")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := LoadConfig()
		c.NotifierURL = "http://localhost:8002"
		return c
	}

	assert.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing notifier", func(c *Config) { c.NotifierURL = "" }},
		{"bad notifier", func(c *Config) { c.NotifierURL = "not a url" }},
		{"unknown publisher", func(c *Config) { c.Publisher = "pigeon" }},
		{"unknown queue", func(c *Config) { c.QueueBackend = "kafka" }},
		{"zero roi", func(c *Config) { c.MinROIPercent = 0 }},
		{"inverted prices", func(c *Config) { c.MinPriceUSD = 50; c.MaxPriceUSD = 10 }},
		{"zero capacity", func(c *Config) { c.QueueCapacity = 0 }},
		{"zero pages", func(c *Config) { c.MaxPagesPerKeyword = 0 }},
		{"zero rate", func(c *Config) { c.DefaultRate = 0 }},
		{"inverted delays", func(c *Config) { c.PageDelayMin = 10 * time.Second; c.PageDelayMax = time.Second }},
		{"empty profile", func(c *Config) { c.Profile = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			assert.Error(t, err)
			assert.True(t, sniperrors.IsType(err, sniperrors.ErrorTypeConfiguration))
		})
	}
}

func TestValidateRedisPublisherNeedsNoNotifier(t *testing.T) {
	c := LoadConfig()
	c.Publisher = "redis"
	assert.NoError(t, c.Validate())
}
