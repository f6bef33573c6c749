// Package fetcher retrieves raw HTML over plain HTTP. It never executes JavaScript.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/maltedev/salon-price-scout/internal/retry"
)

var (
	ErrStatus     = errors.New("unexpected status code")
	ErrNotHTML    = errors.New("response is not HTML")
	ErrInvalidURL = errors.New("invalid URL")
)

// StatusError carries the status code of a non-2xx response. It matches ErrStatus.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// HTTPClient is satisfied by *http.Client; tests substitute a round-tripper func.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	RatePerHost  float64
	UserAgents   []string
	MaxBodyBytes int64
}

func DefaultConfig() Config {
	return Config{
		Timeout:      15 * time.Second,
		MaxRetries:   2,
		RetryDelay:   time.Second,
		RatePerHost:  1,
		UserAgents:   []string{defaultUserAgent},
		MaxBodyBytes: 5 << 20,
	}
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Page is a fetched document. URL is the final URL after redirects.
type Page struct {
	URL        string
	HTML       string
	StatusCode int
}

type Fetcher struct {
	client HTTPClient
	cfg    Config
	logger *slog.Logger

	uaCursor atomic.Uint64

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

func New(client HTTPClient, cfg Config, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = []string{defaultUserAgent}
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Fetcher{
		client:   client,
		cfg:      cfg,
		logger:   logger.With("component", "fetcher"),
		limiters: make(map[string]*rate.Limiter),
	}
}

// TryFetch is Fetch for callers that treat an unreachable page as a normal branch:
// it returns nil instead of an error.
func (f *Fetcher) TryFetch(ctx context.Context, rawURL string) *Page {
	page, err := f.Fetch(ctx, rawURL)
	if err != nil {
		f.logger.Debug("fetch failed", "url", rawURL, "error", err)
		return nil
	}
	return page
}

// Fetch GETs rawURL with browser-like headers, retrying transient failures.
// Each attempt is bounded by the configured timeout.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	target, err := parseTarget(rawURL)
	if err != nil {
		return nil, err
	}

	policy := retry.Policy{
		MaxAttempts:   f.cfg.MaxRetries + 1,
		BaseDelay:     f.cfg.RetryDelay,
		MaxDelay:      4 * f.cfg.RetryDelay,
		JitterPercent: 20,
	}

	var page *Page
	err = retry.Do(ctx, policy, IsRetryable, func(ctx context.Context, attempt int) error {
		if err := f.wait(ctx, target.Host); err != nil {
			return err
		}

		p, err := f.fetchOnce(ctx, target.String())
		if err != nil {
			f.logger.Debug("fetch attempt failed", "url", target.String(), "attempt", attempt, "error", err)
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target.String(), err)
	}

	return page, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, target string) (*Page, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Code: resp.StatusCode, URL: target}
	}

	if !isHTML(resp.Header.Get("Content-Type")) {
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, resp.Header.Get("Content-Type"))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Page{
		URL:        finalURL,
		HTML:       string(body),
		StatusCode: resp.StatusCode,
	}, nil
}

func (f *Fetcher) setHeaders(req *http.Request) {
	ua := f.cfg.UserAgents[f.uaCursor.Add(1)%uint64(len(f.cfg.UserAgents))]

	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
}

func (f *Fetcher) wait(ctx context.Context, host string) error {
	if f.cfg.RatePerHost <= 0 {
		return nil
	}

	f.limitersMu.Lock()
	limiter, ok := f.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(f.cfg.RatePerHost), 1)
		f.limiters[host] = limiter
	}
	f.limitersMu.Unlock()

	return limiter.Wait(ctx)
}

// IsRetryable reports whether a fetch error is transient: network failures,
// per-attempt timeouts, 429 and 5xx responses.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrNotHTML) || errors.Is(err, ErrInvalidURL) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}

	return true
}

func parseTarget(rawURL string) (*url.URL, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" || raw == "#" || hasOpaqueScheme(raw) {
		return nil, ErrInvalidURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + strings.TrimPrefix(raw, "//")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

func hasOpaqueScheme(raw string) bool {
	lower := strings.ToLower(raw)
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:", "sms:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
