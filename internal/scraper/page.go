package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maltedev/salon-price-scout/internal/browser"
	"github.com/maltedev/salon-price-scout/internal/models"
	"github.com/maltedev/salon-price-scout/internal/parser"
)

// PageScraper reads a site's homepage and, when needed, its services and menu
// pages over plain HTTP. Sites that only render prices client-side fall back to
// the browser renderer when one is configured.
type PageScraper struct {
	fetcher   Fetcher
	renderer  Renderer
	extractor *parser.Extractor
	minHTML   int
	logger    *slog.Logger
}

// NewPageScraper accepts a nil renderer; the rich path is then never taken.
func NewPageScraper(f Fetcher, r Renderer, extractor *parser.Extractor, minHTML int, logger *slog.Logger) *PageScraper {
	return &PageScraper{
		fetcher:   f,
		renderer:  r,
		extractor: extractor,
		minHTML:   minHTML,
		logger:    logger.With("component", "page_scraper"),
	}
}

func (s *PageScraper) Scrape(ctx context.Context, url string) (*PageResult, error) {
	log := s.logger.With("url", url)

	result, jsHeavy, err := s.scrapeStatic(ctx, log, url)
	if err != nil {
		if s.renderer == nil {
			return nil, fmt.Errorf("%w: %w", ErrPageFailed, err)
		}
		log.Info("static fetch failed, trying browser", "error", err)
		result = &PageResult{URL: url}
		jsHeavy = true
	}

	if parser.CountCategories(result.Services) >= parser.DefaultMinCategories || s.renderer == nil {
		return result, nil
	}
	if len(result.Services) > 0 && !jsHeavy {
		return result, nil
	}

	rendered, rerr := s.scrapeRendered(ctx, result.URL)
	if rerr != nil {
		log.Warn("browser render failed", "error", rerr)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPageFailed, rerr)
		}
		return result, nil
	}

	result.Rendered = true
	result.Pages = append(result.Pages, rendered.Pages...)
	result.Services = parser.Dedupe(append(result.Services, rendered.Services...))
	return result, nil
}

// scrapeStatic is the cheap path. The bool reports a page too small to hold its content.
func (s *PageScraper) scrapeStatic(ctx context.Context, log *slog.Logger, url string) (*PageResult, bool, error) {
	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, false, err
	}

	result := &PageResult{URL: page.URL, Pages: []string{page.URL}}
	result.Services = s.extract(log, page.URL, page.HTML)
	jsHeavy := len(page.HTML) < s.minHTML

	if parser.CountCategories(result.Services) >= parser.DefaultMinCategories {
		return result, jsHeavy, nil
	}

	links, err := parser.ExtractServiceLinks(page.HTML, page.URL)
	if err != nil {
		log.Debug("service links unavailable", "error", err)
	}

	best := parser.SelectBest(links)
	follow := []string{best, parser.SelectMenu(links, best)}

	for _, link := range follow {
		if link == "" {
			continue
		}
		sub, err := s.fetcher.Fetch(ctx, link)
		if err != nil {
			log.Debug("service page fetch failed", "link", link, "error", err)
			continue
		}

		result.Pages = append(result.Pages, sub.URL)
		result.Services = parser.Dedupe(append(result.Services, s.extract(log, sub.URL, sub.HTML)...))
		if len(sub.HTML) >= s.minHTML {
			jsHeavy = false
		}
		if parser.CountCategories(result.Services) >= parser.DefaultMinCategories {
			break
		}
	}

	log.Debug("static scrape done", "pages", len(result.Pages), "services", len(result.Services))
	return result, jsHeavy, nil
}

func (s *PageScraper) scrapeRendered(ctx context.Context, url string) (*PageResult, error) {
	var services []models.ExtractedService

	collect := func(pages []browser.RenderedPage) bool {
		last := pages[len(pages)-1]
		services = append(services, s.extractor.ExtractFromText(last.Text)...)
		services = append(services, s.extract(s.logger, last.URL, last.HTML)...)
		services = parser.Dedupe(services)
		return parser.CountCategories(services) >= parser.DefaultMinCategories
	}

	pages, err := s.renderer.Render(ctx, url, collect)
	if err != nil {
		return nil, err
	}

	result := &PageResult{URL: url, Services: services}
	for _, p := range pages {
		result.Pages = append(result.Pages, p.URL)
	}
	return result, nil
}

func (s *PageScraper) extract(log *slog.Logger, url, html string) []models.ExtractedService {
	services, err := s.extractor.Extract(html)
	if err != nil {
		log.Debug("extraction failed", "page", url, "error", err)
		return nil
	}
	return services
}
