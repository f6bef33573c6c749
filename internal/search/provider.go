// Package search queries web-search APIs for candidate business websites.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/maltedev/salon-price-scout/internal/models"
	"github.com/maltedev/salon-price-scout/internal/ratelimit"
	"github.com/maltedev/salon-price-scout/internal/retry"
)

var (
	ErrNoAPIKeys    = errors.New("no API keys configured")
	ErrRateLimited  = errors.New("rate limited by search provider")
	ErrExhausted    = errors.New("search attempts exhausted")
	ErrBadResponse  = errors.New("malformed search response")
	ErrUnauthorized = errors.New("search API key rejected")
)

// StatusError is a non-2xx, non-429 response from a provider.
type StatusError struct {
	Provider models.SearchProvider
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Code)
}

// HTTPClient matches net/http.Client Do signature for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider is one search backend.
type Provider interface {
	Name() models.SearchProvider
	Search(ctx context.Context, query string, count int) ([]models.SearchCandidate, error)
}

// Searcher is what discovery depends on; Client and MultiClient implement it.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]models.SearchCandidate, error)
}

// IsRetryable treats rate limits, 5xx and transport failures as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, ErrNoAPIKeys) || errors.Is(err, ErrBadResponse) || errors.Is(err, ErrUnauthorized) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500
	}

	return true
}

type ProviderConfig struct {
	Endpoint string
	APIKeys  []string
	Timeout  time.Duration
	Retry    retry.Policy
	// MinInterval and MaxInterval space consecutive requests; the window widens
	// after repeated rate limits.
	MinInterval time.Duration
	MaxInterval time.Duration
}

// result is the provider-neutral shape every response decoder produces.
type result struct {
	URL     string
	Title   string
	Snippet string
}

type decodeFunc func(body []byte) ([]result, error)

// APIProvider is a GET-with-subscription-key search backend. Bing and Brave differ only
// in header name and response shape.
type APIProvider struct {
	name      models.SearchProvider
	keyHeader string
	extra     http.Header
	decode    decodeFunc

	endpoint string
	timeout  time.Duration
	policy   retry.Policy
	keys     *keyRing
	pacer    *ratelimit.AdaptiveRateLimiter
	client   HTTPClient
	logger   *slog.Logger
}

func newAPIProvider(name models.SearchProvider, keyHeader string, decode decodeFunc, client HTTPClient, cfg ProviderConfig, logger *slog.Logger) *APIProvider {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &APIProvider{
		name:      name,
		keyHeader: keyHeader,
		extra:     http.Header{},
		decode:    decode,
		endpoint:  cfg.Endpoint,
		timeout:   cfg.Timeout,
		policy:    cfg.Retry,
		keys:      newKeyRing(cfg.APIKeys),
		pacer:     ratelimit.NewAdaptiveRateLimiter(cfg.MinInterval, cfg.MaxInterval),
		client:    client,
		logger:    logger.With("component", "search", "provider", string(name)),
	}
}

func (p *APIProvider) Name() models.SearchProvider {
	return p.name
}

// Search runs one query. A 429 rotates to the next API key before the retry.
// After the policy is exhausted the returned error matches ErrExhausted.
func (p *APIProvider) Search(ctx context.Context, query string, count int) ([]models.SearchCandidate, error) {
	if p.keys.len() == 0 {
		return nil, ErrNoAPIKeys
	}
	if count <= 0 {
		count = 10
	}

	var results []result
	err := retry.Do(ctx, p.policy, IsRetryable, func(ctx context.Context, attempt int) error {
		if err := p.pacer.Wait(ctx); err != nil {
			return err
		}
		key := p.keys.current()

		res, err := p.request(ctx, key, query, count)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				p.pacer.RecordError()
				p.keys.rotate()
				p.logger.Warn("rate limited, rotating API key", "attempt", attempt)
			} else {
				p.logger.Debug("search attempt failed", "query", query, "attempt", attempt, "error", err)
			}
			return err
		}

		p.pacer.RecordSuccess()
		results = res
		return nil
	})
	if err != nil {
		if IsRetryable(err) {
			return nil, fmt.Errorf("%s: %w: %w", p.name, ErrExhausted, err)
		}
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}

	candidates := make([]models.SearchCandidate, 0, len(results))
	for i, r := range results {
		candidates = append(candidates, models.SearchCandidate{
			URL:            r.URL,
			Title:          r.Title,
			Snippet:        r.Snippet,
			SourceProvider: p.name,
			Rank:           i + 1,
		})
	}

	return candidates, nil
}

func (p *APIProvider) request(ctx context.Context, key, query string, count int) ([]result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))

	endpoint := p.endpoint
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + params.Encode()
	} else {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(p.keyHeader, key)
	for k, vs := range p.extra {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Provider: p.name, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return p.decode(body)
}

func decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

// keyRing rotates through API keys. The cursor is the only shared mutable state.
type keyRing struct {
	mu     sync.Mutex
	keys   []string
	cursor int
}

func newKeyRing(keys []string) *keyRing {
	var clean []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			clean = append(clean, k)
		}
	}
	return &keyRing{keys: clean}
}

func (r *keyRing) len() int {
	return len(r.keys)
}

func (r *keyRing) current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys[r.cursor]
}

func (r *keyRing) rotate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = (r.cursor + 1) % len(r.keys)
}
