// Package parser turns salon web pages into service links and priced service items.
package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/salon-price-scout/internal/models"
)

// Strategy is one structural extraction heuristic. Strategies are tried in order of
// decreasing reliability.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document) []models.ExtractedService
}

// DefaultMinCategories is how many distinct categories stop the strategy chain early.
const DefaultMinCategories = 2

type Extractor struct {
	strategies    []Strategy
	prices        *PriceMatcher
	minCategories int
}

type Option func(*Extractor)

// WithStrategies replaces the default strategy chain.
func WithStrategies(strategies ...Strategy) Option {
	return func(e *Extractor) {
		e.strategies = strategies
	}
}

func WithMinCategories(n int) Option {
	return func(e *Extractor) {
		e.minCategories = n
	}
}

// NewExtractor builds the default chain: table rows, list items, leaf elements, line pairs.
func NewExtractor(r models.PriceRange, opts ...Option) *Extractor {
	prices := NewPriceMatcher(r)
	e := &Extractor{
		strategies:    DefaultStrategies(prices),
		prices:        prices,
		minCategories: DefaultMinCategories,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func DefaultStrategies(prices *PriceMatcher) []Strategy {
	return []Strategy{
		&TableRowStrategy{Prices: prices},
		&ListItemStrategy{Prices: prices},
		&LeafElementStrategy{Prices: prices},
		&LinePairStrategy{Prices: prices},
	}
}

func (e *Extractor) PriceRange() models.PriceRange {
	return e.prices.Range()
}

// Extract runs the strategy chain over html and returns deduplicated services.
func (e *Extractor) Extract(html string) ([]models.ExtractedService, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript, template, svg").Remove()

	var all []models.ExtractedService
	for _, strategy := range e.strategies {
		all = append(all, strategy.Extract(doc)...)
		if CountCategories(all) >= e.minCategories {
			break
		}
	}

	return Dedupe(all), nil
}

// ExtractFromText runs the line-pair heuristic over already rendered page text.
func (e *Extractor) ExtractFromText(text string) []models.ExtractedService {
	lp := &LinePairStrategy{Prices: e.prices}
	return Dedupe(lp.FromLines(SplitLines(text)))
}

// CountCategories counts distinct tracked categories.
func CountCategories(services []models.ExtractedService) int {
	seen := make(map[models.ServiceType]struct{})
	for _, s := range services {
		if s.ServiceType.IsTracked() {
			seen[s.ServiceType] = struct{}{}
		}
	}
	return len(seen)
}

// Dedupe keeps the first service per lowercase name and price.
func Dedupe(services []models.ExtractedService) []models.ExtractedService {
	seen := make(map[string]struct{}, len(services))
	out := make([]models.ExtractedService, 0, len(services))
	for _, s := range services {
		key := fmt.Sprintf("%s|%.2f", strings.ToLower(s.ServiceName), s.Price)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
