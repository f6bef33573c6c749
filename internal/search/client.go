package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/maltedev/salon-price-scout/internal/classifier"
	"github.com/maltedev/salon-price-scout/internal/models"
)

// Client wraps one provider with the result cache and blocked-domain filtering.
type Client struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	logger   *slog.Logger
}

func NewClient(provider Provider, cache Cache, ttl time.Duration, logger *slog.Logger) *Client {
	return &Client{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		logger:   logger.With("component", "search", "provider", string(provider.Name())),
	}
}

func (c *Client) Name() models.SearchProvider {
	return c.provider.Name()
}

// Search returns non-blocked candidates. A provider without API keys yields no
// candidates and no error; exhausted retries are returned as an error.
func (c *Client) Search(ctx context.Context, query string, count int) ([]models.SearchCandidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	key := cacheKey(c.provider.Name(), count, query)
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, key); ok {
			c.logger.Debug("cache hit", "query", query, "results", len(cached))
			return cached, nil
		}
	}

	raw, err := c.provider.Search(ctx, query, count)
	if err != nil {
		if errors.Is(err, ErrNoAPIKeys) {
			c.logger.Warn("search provider has no API keys configured")
			return nil, nil
		}
		return nil, err
	}

	candidates := FilterBlocked(raw)
	c.logger.Info("search completed", "query", query, "results", len(raw), "usable", len(candidates))

	if c.cache != nil {
		c.cache.Set(ctx, key, candidates, c.ttl)
	}

	return candidates, nil
}

func cacheKey(provider models.SearchProvider, count int, query string) string {
	return fmt.Sprintf("%s:%d:%s", provider, count, query)
}

// FilterBlocked drops candidates with unparseable or hard-blocked URLs.
func FilterBlocked(candidates []models.SearchCandidate) []models.SearchCandidate {
	out := make([]models.SearchCandidate, 0, len(candidates))
	for _, cand := range candidates {
		host, err := classifier.NormalizeHost(cand.URL)
		if err != nil || classifier.IsBlockedHost(host) {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// MultiClient runs a query against several providers one after another and
// merges the results.
type MultiClient struct {
	clients []*Client
	primary models.SearchProvider
	logger  *slog.Logger
}

func NewMultiClient(primary models.SearchProvider, logger *slog.Logger, clients ...*Client) *MultiClient {
	return &MultiClient{
		clients: clients,
		primary: primary,
		logger:  logger.With("component", "multi_search"),
	}
}

// Search merges results by provider-local rank, deduplicated by URL. On equal rank the
// primary provider comes first. It fails only when every provider failed.
func (m *MultiClient) Search(ctx context.Context, query string, count int) ([]models.SearchCandidate, error) {
	var (
		merged []models.SearchCandidate
		errs   []error
		ok     int
	)

	for _, client := range m.clients {
		if ctx.Err() != nil {
			break
		}

		results, err := client.Search(ctx, query, count)
		if err != nil {
			m.logger.Warn("provider failed", "provider", string(client.Name()), "query", query, "error", err)
			errs = append(errs, err)
			continue
		}
		ok++
		merged = append(merged, results...)
	}

	if ok == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return Merge(merged, m.primary), nil
}

// Merge orders candidates by rank (primary provider first on ties) and removes
// duplicate URLs, keeping the first occurrence.
func Merge(candidates []models.SearchCandidate, primary models.SearchProvider) []models.SearchCandidate {
	sorted := make([]models.SearchCandidate, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rank != sorted[j].Rank {
			return sorted[i].Rank < sorted[j].Rank
		}
		return sorted[i].SourceProvider == primary && sorted[j].SourceProvider != primary
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]models.SearchCandidate, 0, len(sorted))
	for _, cand := range sorted {
		key := NormalizeURL(cand.URL)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cand)
	}
	return out
}

// NormalizeURL is the dedup key: lowercase host without www, no scheme, fragment
// or trailing slash.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.TrimSuffix(u.EscapedPath(), "/")
	key := host + path
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}
