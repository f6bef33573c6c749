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
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 20, cfg.Classifier.RealThreshold)
	assert.Equal(t, 2, cfg.Classifier.MinKeywords)
	assert.Equal(t, 3, cfg.Search.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Search.MaxBackoff)
	assert.Equal(t, 10*time.Second, cfg.Search.MaxTotal)
	assert.Equal(t, 24*time.Hour, cfg.Search.CacheTTL)
	assert.Equal(t, 2, cfg.Scraper.Concurrency)
	assert.Equal(t, 3, cfg.Discovery.TopK)
	assert.Equal(t, 5000, cfg.Discovery.MinHTML)
	assert.Equal(t, 10.0, cfg.Scraper.PriceMin)
	assert.Equal(t, 300.0, cfg.Scraper.PriceMax)
	assert.NotEmpty(t, cfg.Fetcher.UserAgents)
	assert.Contains(t, cfg.Classifier.AllowedTLDs, "com")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CLASSIFIER_REAL_THRESHOLD", "8")
	t.Setenv("BING_API_KEYS", "key-a, key-b,,key-c")
	t.Setenv("SCRAPER_CONCURRENCY", "3")
	t.Setenv("SEARCH_CACHE_TTL", "1h")
	t.Setenv("FETCH_RATE_PER_HOST", "0.5")
	t.Setenv("SCRAPER_USE_BROWSER", "true")
	t.Setenv("DISCOVERY_TOP_K", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Classifier.RealThreshold)
	assert.Equal(t, []string{"key-a", "key-b", "key-c"}, cfg.Search.BingKeys)
	assert.Equal(t, 3, cfg.Scraper.Concurrency)
	assert.Equal(t, time.Hour, cfg.Search.CacheTTL)
	assert.Equal(t, 0.5, cfg.Fetcher.RatePerHost)
	assert.True(t, cfg.Scraper.UseBrowser)
	assert.Equal(t, 3, cfg.Discovery.TopK, "invalid values fall back to the default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.Scraper.Concurrency = 0 }},
		{"zero search attempts", func(c *Config) { c.Search.MaxAttempts = 0 }},
		{"unbounded total backoff", func(c *Config) { c.Search.MaxTotal = 0 }},
		{"inverted price range", func(c *Config) { c.Scraper.PriceMin = 400 }},
		{"unknown cache backend", func(c *Config) { c.Search.CacheBackend = "memcached" }},
		{"redis cache without redis", func(c *Config) { c.Search.CacheBackend = "redis" }},
		{"zero top k", func(c *Config) { c.Discovery.TopK = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
