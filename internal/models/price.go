package models

import (
	"time"
)

type ServiceType string

const (
	ServiceGel      ServiceType = "gel"
	ServicePedicure ServiceType = "pedicure"
	ServiceAcrylic  ServiceType = "acrylic"
	ServiceDip      ServiceType = "dip"
	ServiceManicure ServiceType = "manicure"
	ServiceOther    ServiceType = "other"
)

// TrackedServiceTypes are the categories that count towards extraction confidence.
var TrackedServiceTypes = []ServiceType{
	ServiceGel,
	ServicePedicure,
	ServiceAcrylic,
	ServiceDip,
	ServiceManicure,
}

func (t ServiceType) IsTracked() bool {
	for _, tracked := range TrackedServiceTypes {
		if t == tracked {
			return true
		}
	}
	return false
}

// ExtractedService is one detected line item on a pricing page.
type ExtractedService struct {
	ServiceName string      `json:"service_name"`
	ServiceType ServiceType `json:"service_type"`
	Price       float64     `json:"price"`
	Confidence  float64     `json:"confidence"`
	Source      string      `json:"source"`
}

// PriceRange is the sane bound every extracted price must satisfy.
type PriceRange struct {
	Min float64
	Max float64
}

func DefaultPriceRange() PriceRange {
	return PriceRange{Min: 10, Max: 300}
}

func (r PriceRange) Contains(price float64) bool {
	return price >= r.Min && price <= r.Max
}

type Provenance string

const (
	SourceScraped   Provenance = "scraped"
	SourceEstimated Provenance = "estimated"
	SourceSkipped   Provenance = "skipped"
)

// Reason codes attached to non-scraped results.
const (
	ReasonNoURL             = "no URL"
	ReasonBlockedDomain     = "blocked domain"
	ReasonLowConfidence     = "low-confidence website"
	ReasonNoContent         = "scrape produced no extractable content"
	ReasonScrapeFailed      = "scrape failed"
	ReasonDiscoveryFailed   = "website discovery failed"
	ReasonInvalidURL        = "invalid URL"
	ReasonNoSearchResults   = "no search results"
	ReasonAllCandidatesFail = "all candidates blocked or rejected"
)

// PriceResult is the final per-competitor output.
//
// A skipped result never carries prices. A scraped result carries at least one price.
type PriceResult struct {
	Gel             *float64   `json:"gel,omitempty"`
	Pedicure        *float64   `json:"pedicure,omitempty"`
	Acrylic         *float64   `json:"acrylic,omitempty"`
	Dip             *float64   `json:"dip,omitempty"`
	Manicure        *float64   `json:"manicure,omitempty"`
	Confidence      float64    `json:"confidence"`
	ConfidenceLevel Confidence `json:"confidence_level"`
	Source          Provenance `json:"source"`
	Reason          string     `json:"reason,omitempty"`
	URL             string     `json:"url,omitempty"`
	ServicesFound   int        `json:"services_found,omitempty"`
	ScrapedAt       time.Time  `json:"scraped_at"`
}

// NewSkippedResult builds a result without any price fields.
func NewSkippedResult(reason string) PriceResult {
	return PriceResult{
		Source:          SourceSkipped,
		Reason:          reason,
		ConfidenceLevel: ConfidenceLow,
		ScrapedAt:       time.Now(),
	}
}

// Set stores the representative price of a category. Untracked categories are ignored.
func (p *PriceResult) Set(t ServiceType, price float64) {
	v := price
	switch t {
	case ServiceGel:
		p.Gel = &v
	case ServicePedicure:
		p.Pedicure = &v
	case ServiceAcrylic:
		p.Acrylic = &v
	case ServiceDip:
		p.Dip = &v
	case ServiceManicure:
		p.Manicure = &v
	}
}

// Get returns the price of a category, if present.
func (p PriceResult) Get(t ServiceType) (float64, bool) {
	var v *float64
	switch t {
	case ServiceGel:
		v = p.Gel
	case ServicePedicure:
		v = p.Pedicure
	case ServiceAcrylic:
		v = p.Acrylic
	case ServiceDip:
		v = p.Dip
	case ServiceManicure:
		v = p.Manicure
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// PriceCount returns how many category prices are present.
func (p PriceResult) PriceCount() int {
	count := 0
	for _, t := range TrackedServiceTypes {
		if _, ok := p.Get(t); ok {
			count++
		}
	}
	return count
}

func (p PriceResult) Validate() []string {
	var errors []string

	switch p.Source {
	case SourceSkipped:
		if p.PriceCount() > 0 {
			errors = append(errors, "skipped result must not carry prices")
		}
		if p.Reason == "" {
			errors = append(errors, "reason is required")
		}
	case SourceEstimated:
		if p.Reason == "" {
			errors = append(errors, "reason is required")
		}
	case SourceScraped:
		if p.PriceCount() == 0 {
			errors = append(errors, "scraped result must carry at least one price")
		}
	default:
		errors = append(errors, "unknown source")
	}

	if p.Confidence < 0 || p.Confidence > 1 {
		errors = append(errors, "confidence must be between 0 and 1")
	}

	return errors
}

// ConfidenceLevelFor maps a 0-1 extraction confidence onto the three-step scale.
func ConfidenceLevelFor(confidence float64) Confidence {
	switch {
	case confidence >= 0.6:
		return ConfidenceHigh
	case confidence >= 0.3:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
