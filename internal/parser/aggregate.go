package parser

import (
	"sort"

	"github.com/maltedev/salon-price-scout/internal/models"
)

// Summary is the per-category view of extracted services.
type Summary struct {
	Prices     map[models.ServiceType]float64
	Services   int
	Confidence float64
}

// Aggregate filters services by range and takes the median price per tracked
// category. Confidence is the share of tracked categories with a price.
func Aggregate(services []models.ExtractedService, r models.PriceRange) Summary {
	byType := make(map[models.ServiceType][]float64)
	counted := 0

	for _, s := range services {
		if !s.ServiceType.IsTracked() || !r.Contains(s.Price) {
			continue
		}
		byType[s.ServiceType] = append(byType[s.ServiceType], s.Price)
		counted++
	}

	prices := make(map[models.ServiceType]float64, len(byType))
	for t, values := range byType {
		prices[t] = Median(values)
	}

	return Summary{
		Prices:     prices,
		Services:   counted,
		Confidence: float64(len(prices)) / float64(len(models.TrackedServiceTypes)),
	}
}

// Apply copies the category prices and confidence onto result.
func (s Summary) Apply(result *models.PriceResult) {
	for t, price := range s.Prices {
		result.Set(t, price)
	}
	result.Confidence = s.Confidence
	result.ConfidenceLevel = models.ConfidenceLevelFor(s.Confidence)
	result.ServicesFound = s.Services
}

// Median of values; the mean of the middle pair for even counts. 0 for none.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
