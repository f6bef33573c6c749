package search

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/salon-price-scout/internal/config"
	"github.com/maltedev/salon-price-scout/internal/models"
	"github.com/maltedev/salon-price-scout/internal/retry"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// FromConfig builds the configured providers behind one MultiClient. The Redis
// cache is only used when rdb is non-nil.
func FromConfig(cfg config.SearchConfig, client HTTPClient, rdb redis.Cmdable, logger *slog.Logger) (*MultiClient, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("no search providers configured")
	}

	var cache Cache = NewMemoryCache()
	if strings.EqualFold(cfg.CacheBackend, CacheRedis) && rdb != nil {
		cache = NewRedisCache(rdb, logger)
	}

	policy := retry.Policy{
		MaxAttempts:   cfg.MaxAttempts,
		BaseDelay:     cfg.BaseDelay,
		MaxDelay:      cfg.MaxBackoff,
		MaxTotal:      cfg.MaxTotal,
		JitterPercent: 20,
	}

	var clients []*Client
	for _, name := range cfg.Providers {
		var provider Provider
		switch models.SearchProvider(strings.ToLower(strings.TrimSpace(name))) {
		case models.ProviderBing:
			provider = NewBing(client, ProviderConfig{
				Endpoint:    cfg.BingEndpoint,
				APIKeys:     cfg.BingKeys,
				Timeout:     cfg.Timeout,
				Retry:       policy,
				MinInterval: cfg.MinInterval,
				MaxInterval: cfg.MaxInterval,
			}, logger)
		case models.ProviderBrave:
			provider = NewBrave(client, ProviderConfig{
				Endpoint:    cfg.BraveURL,
				APIKeys:     cfg.BraveKeys,
				Timeout:     cfg.Timeout,
				Retry:       policy,
				MinInterval: cfg.MinInterval,
				MaxInterval: cfg.MaxInterval,
			}, logger)
		default:
			return nil, fmt.Errorf("unknown search provider %q", name)
		}
		clients = append(clients, NewClient(provider, cache, cfg.CacheTTL, logger))
	}

	return NewMultiClient(models.SearchProvider(strings.ToLower(cfg.Primary)), logger, clients...), nil
}

// Providers lists the provider names the client queries, in order.
func (m *MultiClient) Providers() []models.SearchProvider {
	names := make([]models.SearchProvider, len(m.clients))
	for i, c := range m.clients {
		names[i] = c.Name()
	}
	return names
}
