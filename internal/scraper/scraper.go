package scraper

import (
	"context"
	"errors"

	"github.com/maltedev/salon-price-scout/internal/browser"
	"github.com/maltedev/salon-price-scout/internal/fetcher"
	"github.com/maltedev/salon-price-scout/internal/models"
)

var ErrPageFailed = errors.New("page could not be loaded")

// Target is one competitor handed to the orchestrator. Score is the discovery
// score and stays nil for websites that were known up front.
type Target struct {
	Name       string
	URL        string
	Score      *int
	PriceLevel *int
}

// Decision is the outcome of the skip rules applied before any network call.
type Decision struct {
	ShouldScrape bool
	Reason       string
}

// PageResult holds everything a site yielded across the pages that were read.
type PageResult struct {
	URL      string
	Pages    []string
	Services []models.ExtractedService
	Rendered bool
}

type Scraper interface {
	Scrape(ctx context.Context, url string) (*PageResult, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
}

type Renderer interface {
	Render(ctx context.Context, url string, done func([]browser.RenderedPage) bool) ([]browser.RenderedPage, error)
}
