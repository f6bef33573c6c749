// Package pipeline turns a list of nearby competitors into a price result per
// competitor: it resolves each competitor's website, scrapes the resolved ones
// and hands the finished run to the configured sinks.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/salon-price-scout/internal/classifier"
	"github.com/maltedev/salon-price-scout/internal/models"
	"github.com/maltedev/salon-price-scout/internal/scraper"
)

type Discoverer interface {
	Discover(ctx context.Context, name, address, phone string) models.DiscoveredWebsite
}

type BatchScraper interface {
	ScrapeBatch(ctx context.Context, targets []scraper.Target) map[string]models.PriceResult
}

type RunStore interface {
	SaveRun(ctx context.Context, run *models.Run) error
}

type RunPublisher interface {
	PublishRun(ctx context.Context, run *models.Run) error
}

// Resolution is how a competitor's website was settled.
type Resolution struct {
	Target     scraper.Target
	Discovered *models.DiscoveredWebsite
	Resolved   bool
}

type Pipeline struct {
	discoverer Discoverer
	scraper    BatchScraper
	classifier *classifier.Classifier
	store      RunStore
	publisher  RunPublisher
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Pipeline)

func WithStore(store RunStore) Option {
	return func(p *Pipeline) { p.store = store }
}

func WithPublisher(publisher RunPublisher) Option {
	return func(p *Pipeline) { p.publisher = publisher }
}

func New(d Discoverer, s BatchScraper, cls *classifier.Classifier, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		discoverer: d,
		scraper:    s,
		classifier: cls,
		logger:     logger.With("component", "pipeline"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve settles the website to scrape. A known website that survives the
// classifier's URL checks is used as is and carries no discovery score;
// otherwise discovery runs.
func (p *Pipeline) Resolve(ctx context.Context, c models.CompetitorStub) Resolution {
	target := scraper.Target{Name: c.Name, PriceLevel: c.PriceLevel}

	if website := c.Website(); website != "" {
		if _, ok := p.classifier.Prefilter(website); ok {
			target.URL = website
			return Resolution{Target: target, Resolved: true}
		}
		p.logger.Info("known website rejected, discovering", "name", c.Name, "website", website)
	}

	if strings.TrimSpace(c.Name) == "" {
		return Resolution{Target: target}
	}

	found := p.discoverer.Discover(ctx, c.Name, c.Address, c.PhoneNumber())
	if !found.Success {
		return Resolution{Target: target, Discovered: &found}
	}

	target.URL = found.HomepageURL()
	score := found.Score
	target.Score = &score
	return Resolution{Target: target, Discovered: &found, Resolved: true}
}

// Run produces exactly one result per distinct competitor name. Discovery runs
// competitor by competitor; scraping is batched. Sink failures are logged only.
func (p *Pipeline) Run(ctx context.Context, competitors []models.CompetitorStub) *models.Run {
	run := models.NewRun(p.now())
	log := p.logger.With("run_id", run.ID)
	log.Info("run started", "competitors", len(competitors))

	var targets []scraper.Target
	unresolved := make(map[string]models.PriceResult)

	for _, c := range competitors {
		res := p.Resolve(ctx, c)
		if res.Resolved {
			targets = append(targets, res.Target)
			continue
		}

		reason := models.ReasonDiscoveryFailed
		if res.Discovered != nil && res.Discovered.Reason != "" {
			reason += ": " + res.Discovered.Reason
		}
		unresolved[c.Name] = models.NewSkippedResult(reason)
	}

	scraped := p.scraper.ScrapeBatch(ctx, targets)

	for _, c := range competitors {
		if result, ok := scraped[c.Name]; ok {
			run.Results[c.Name] = result
			continue
		}
		run.Results[c.Name] = unresolved[c.Name]
	}
	run.FinishedAt = p.now()

	counts := run.Counts()
	log.Info("run finished",
		"total", counts.Total,
		"scraped", counts.Scraped,
		"estimated", counts.Estimated,
		"skipped", counts.Skipped,
		"duration", run.Duration(),
	)

	p.emit(ctx, log, run)
	return run
}

func (p *Pipeline) emit(ctx context.Context, log *slog.Logger, run *models.Run) {
	if p.store != nil {
		if err := p.store.SaveRun(ctx, run); err != nil {
			log.Error("failed to persist run", "error", err)
		}
	}
	if p.publisher != nil {
		if err := p.publisher.PublishRun(ctx, run); err != nil {
			log.Error("failed to publish run", "error", err)
		}
	}
}
