package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maltedev/salon-price-scout/internal/classifier"
	"github.com/maltedev/salon-price-scout/internal/estimator"
	"github.com/maltedev/salon-price-scout/internal/models"
	"github.com/maltedev/salon-price-scout/internal/parser"
)

type Config struct {
	MinDiscoveryScore int
	Concurrency       int
	Timeout           time.Duration
	PriceRange        models.PriceRange
}

func DefaultConfig() Config {
	return Config{
		MinDiscoveryScore: 25,
		Concurrency:       2,
		Timeout:           30 * time.Second,
		PriceRange:        models.DefaultPriceRange(),
	}
}

// Orchestrator decides per competitor whether to scrape, and falls back to the
// tier estimate whenever scraping yields nothing. It never fails a competitor.
type Orchestrator struct {
	scraper    Scraper
	classifier *classifier.Classifier
	cfg        Config
	logger     *slog.Logger
}

func NewOrchestrator(s Scraper, cls *classifier.Classifier, cfg Config, logger *slog.Logger) *Orchestrator {
	def := DefaultConfig()
	if cfg.Concurrency < 1 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.PriceRange.Max <= 0 {
		cfg.PriceRange = def.PriceRange
	}

	return &Orchestrator{
		scraper:    s,
		classifier: cls,
		cfg:        cfg,
		logger:     logger.With("component", "orchestrator"),
	}
}

// Decide applies the skip rules in order; the first match wins.
func (o *Orchestrator) Decide(url string, score *int) Decision {
	url = strings.TrimSpace(url)
	if url == "" || url == "#" {
		return Decision{Reason: models.ReasonNoURL}
	}

	if o.classifier.IsBlocked(url) {
		return Decision{Reason: models.ReasonBlockedDomain}
	}

	if _, err := classifier.NormalizeHost(url); err != nil {
		return Decision{Reason: models.ReasonInvalidURL}
	}

	if score != nil && *score < o.cfg.MinDiscoveryScore {
		return Decision{Reason: models.ReasonLowConfidence}
	}

	return Decision{ShouldScrape: true}
}

// ScrapeOne always returns a result: skipped, scraped or estimated.
func (o *Orchestrator) ScrapeOne(ctx context.Context, t Target) models.PriceResult {
	log := o.logger.With("name", t.Name, "url", t.URL)

	decision := o.Decide(t.URL, t.Score)
	if !decision.ShouldScrape {
		log.Info("skipping competitor", "reason", decision.Reason)
		result := models.NewSkippedResult(decision.Reason)
		result.URL = strings.TrimSpace(t.URL)
		if result.URL == "#" {
			result.URL = ""
		}
		return result
	}

	return o.scrape(ctx, log, t)
}

func (o *Orchestrator) scrape(ctx context.Context, log *slog.Logger, t Target) models.PriceResult {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	start := time.Now()
	page, err := o.scraper.Scrape(ctx, t.URL)
	if err != nil {
		log.Warn("scrape failed, using estimate", "error", err)
		return estimator.Result(t.PriceLevel, models.ReasonScrapeFailed, t.URL)
	}

	summary := parser.Aggregate(page.Services, o.cfg.PriceRange)
	if len(summary.Prices) == 0 {
		log.Info("no prices extracted, using estimate", "pages", len(page.Pages))
		return estimator.Result(t.PriceLevel, models.ReasonNoContent, page.URL)
	}

	result := models.PriceResult{
		Source:    models.SourceScraped,
		URL:       page.URL,
		ScrapedAt: time.Now(),
	}
	summary.Apply(&result)

	log.Info("prices scraped",
		"categories", len(summary.Prices),
		"services", summary.Services,
		"confidence", summary.Confidence,
		"rendered", page.Rendered,
		"duration", time.Since(start),
	)
	return result
}

// ScrapeBatch returns exactly one entry per competitor name. Skipped competitors
// are resolved up front; the rest are scraped with bounded concurrency.
func (o *Orchestrator) ScrapeBatch(ctx context.Context, targets []Target) map[string]models.PriceResult {
	results := make([]models.PriceResult, len(targets))

	var scrapable []int
	for i, t := range targets {
		if o.Decide(t.URL, t.Score).ShouldScrape {
			scrapable = append(scrapable, i)
			continue
		}
		results[i] = o.ScrapeOne(ctx, t)
	}

	o.logger.Info("batch partitioned",
		"total", len(targets),
		"scrapable", len(scrapable),
		"skipped", len(targets)-len(scrapable),
	)

	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for _, i := range scrapable {
		i := i
		g.Go(func() error {
			t := targets[i]
			results[i] = o.scrape(ctx, o.logger.With("name", t.Name, "url", t.URL), t)
			return nil
		})
	}
	g.Wait()

	out := make(map[string]models.PriceResult, len(targets))
	for i, t := range targets {
		out[t.Name] = results[i]
	}
	return out
}
