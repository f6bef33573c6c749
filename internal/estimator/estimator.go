// Package estimator supplies default prices from a coarse 1-4 price level.
package estimator

import (
	"time"

	"github.com/maltedev/salon-price-scout/internal/models"
)

const (
	DefaultTier = 2
	MinTier     = 1
	MaxTier     = 4
)

// Prices are the per-category defaults of one tier.
type Prices struct {
	Gel      float64 `json:"gel"`
	Pedicure float64 `json:"pedicure"`
	Acrylic  float64 `json:"acrylic"`
}

// Every column increases with the tier.
var tiers = map[int]Prices{
	1: {Gel: 30, Pedicure: 30, Acrylic: 35},
	2: {Gel: 40, Pedicure: 40, Acrylic: 45},
	3: {Gel: 50, Pedicure: 55, Acrylic: 60},
	4: {Gel: 65, Pedicure: 75, Acrylic: 80},
}

// Lookup returns the tier's prices; out-of-range tiers get the tier-2 values.
func Lookup(tier int) Prices {
	if p, ok := tiers[tier]; ok {
		return p
	}
	return tiers[DefaultTier]
}

// Estimate is Lookup for an optional price level.
func Estimate(priceLevel *int) Prices {
	if priceLevel == nil {
		return tiers[DefaultTier]
	}
	return Lookup(*priceLevel)
}

// Result builds an estimated PriceResult carrying the tier prices.
func Result(priceLevel *int, reason, url string) models.PriceResult {
	p := Estimate(priceLevel)

	result := models.PriceResult{
		Source:          models.SourceEstimated,
		Reason:          reason,
		URL:             url,
		ConfidenceLevel: models.ConfidenceLow,
		ScrapedAt:       time.Now(),
	}
	result.Set(models.ServiceGel, p.Gel)
	result.Set(models.ServicePedicure, p.Pedicure)
	result.Set(models.ServiceAcrylic, p.Acrylic)

	return result
}
