// Package discovery finds a business's own website from its name and address.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/salon-price-scout/internal/classifier"
	"github.com/maltedev/salon-price-scout/internal/fetcher"
	"github.com/maltedev/salon-price-scout/internal/models"
	"github.com/maltedev/salon-price-scout/internal/parser"
	"github.com/maltedev/salon-price-scout/internal/ratelimit"
	"github.com/maltedev/salon-price-scout/internal/search"
)

// JSRenderedPenalty is subtracted from the score of pages too small to hold their content.
const JSRenderedPenalty = 10

// PageFetcher returns nil when a page is unreachable.
type PageFetcher interface {
	TryFetch(ctx context.Context, url string) *fetcher.Page
}

type Config struct {
	TopK        int
	ResultCount int
	QueryDelay  time.Duration
	MinHTML     int
}

func DefaultConfig() Config {
	return Config{
		TopK:        3,
		ResultCount: 10,
		QueryDelay:  time.Second,
		MinHTML:     5000,
	}
}

type Engine struct {
	searcher   search.Searcher
	fetcher    PageFetcher
	classifier *classifier.Classifier
	cfg        Config
	logger     *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func New(searcher search.Searcher, fetcher PageFetcher, cls *classifier.Classifier, cfg Config, logger *slog.Logger) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	if cfg.ResultCount <= 0 {
		cfg.ResultCount = DefaultConfig().ResultCount
	}

	return &Engine{
		searcher:   searcher,
		fetcher:    fetcher,
		classifier: cls,
		cfg:        cfg,
		logger:     logger.With("component", "discovery"),
		sleep: func(ctx context.Context, d time.Duration) error {
			return ratelimit.Sleep(ctx, d, 0.3)
		},
	}
}

// BuildQueries returns query variants from most to least precise.
func BuildQueries(name, address, phone string) []string {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	if name == "" {
		return nil
	}

	stub := models.CompetitorStub{Name: name, Address: address}
	city := stub.City()

	var queries []string
	if address != "" {
		queries = append(queries, fmt.Sprintf("%s %s official website", name, address))
	}
	if city != "" {
		queries = append(queries, fmt.Sprintf("%s %s nail salon", name, city))
	} else {
		queries = append(queries, fmt.Sprintf("%s nail salon", name))
	}
	queries = append(queries, fmt.Sprintf("%s services pricing", name))
	if phone = strings.TrimSpace(phone); phone != "" {
		queries = append(queries, fmt.Sprintf("%s %s", name, phone))
	}

	return queries
}

// Discover searches sequentially until a query yields usable candidates, then accepts
// the first of the top-K candidates whose page classifies as a real business.
func (e *Engine) Discover(ctx context.Context, name, address, phone string) models.DiscoveredWebsite {
	log := e.logger.With("name", name)

	queries := BuildQueries(name, address, phone)
	if len(queries) == 0 {
		return failed(models.ReasonNoSearchResults)
	}

	candidates := e.searchCandidates(ctx, log, queries)
	if len(candidates) == 0 {
		log.Info("no usable search results")
		return failed(models.ReasonNoSearchResults)
	}

	if len(candidates) > e.cfg.TopK {
		candidates = candidates[:e.cfg.TopK]
	}

	for _, cand := range candidates {
		if result, ok := e.evaluate(ctx, log, cand); ok {
			return result
		}
	}

	log.Info("all candidates rejected", "candidates", len(candidates))
	return failed(models.ReasonAllCandidatesFail)
}

func (e *Engine) searchCandidates(ctx context.Context, log *slog.Logger, queries []string) []models.SearchCandidate {
	for i, query := range queries {
		if i > 0 {
			if err := e.sleep(ctx, e.cfg.QueryDelay); err != nil {
				return nil
			}
		}

		results, err := e.searcher.Search(ctx, query, e.cfg.ResultCount)
		if err != nil {
			log.Warn("search failed", "query", query, "error", err)
			continue
		}

		usable := e.usable(results)
		log.Debug("search query done", "query", query, "results", len(results), "usable", len(usable))
		if len(usable) > 0 {
			return usable
		}
	}
	return nil
}

// usable drops vetoed candidates and keeps one candidate per host.
func (e *Engine) usable(results []models.SearchCandidate) []models.SearchCandidate {
	seen := make(map[string]struct{})
	out := make([]models.SearchCandidate, 0, len(results))

	for _, cand := range results {
		verdict, ok := e.classifier.Prefilter(cand.URL)
		if !ok {
			continue
		}
		if _, dup := seen[verdict.Domain]; dup {
			continue
		}
		seen[verdict.Domain] = struct{}{}
		out = append(out, cand)
	}
	return out
}

func (e *Engine) evaluate(ctx context.Context, log *slog.Logger, cand models.SearchCandidate) (models.DiscoveredWebsite, bool) {
	page := e.fetcher.TryFetch(ctx, cand.URL)
	if page == nil {
		log.Debug("candidate unreachable", "url", cand.URL)
		return models.DiscoveredWebsite{}, false
	}

	verdict := e.classifier.Classify(page.URL, page.HTML)
	if !verdict.IsReal {
		log.Debug("candidate rejected", "url", page.URL, "score", verdict.Score, "reason", verdict.Reason)
		return models.DiscoveredWebsite{}, false
	}

	if classifier.HasDirectoryPatterns(page.HTML) {
		log.Debug("candidate looks like a directory", "url", page.URL)
		return models.DiscoveredWebsite{}, false
	}

	score := verdict.Score
	jsRendered := len(page.HTML) < e.cfg.MinHTML
	if jsRendered {
		score -= JSRenderedPenalty
	}

	result := models.DiscoveredWebsite{
		Homepage:   models.StringPtr(page.URL),
		Confidence: models.ConfidenceForScore(score),
		Score:      score,
		Success:    true,
		JSRendered: jsRendered,
	}

	links, err := parser.ExtractServiceLinks(page.HTML, page.URL)
	if err != nil {
		log.Debug("service link extraction failed", "url", page.URL, "error", err)
	}
	if services := parser.SelectBest(links); services != "" {
		result.ServicesPage = models.StringPtr(services)
		if menu := parser.SelectMenu(links, services); menu != "" {
			result.MenuPage = models.StringPtr(menu)
		}
	}

	log.Info("website discovered",
		"url", page.URL,
		"score", score,
		"confidence", string(result.Confidence),
		"js_rendered", jsRendered,
		"services_page", result.ServicesPage != nil,
	)

	return result, true
}

func failed(reason string) models.DiscoveredWebsite {
	return models.DiscoveredWebsite{
		Confidence: models.ConfidenceLow,
		Success:    false,
		Reason:     reason,
	}
}
