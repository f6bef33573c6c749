package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/salon-price-scout/internal/models"
)

func TestLookup_MonotonicByTier(t *testing.T) {
	for tier := MinTier; tier < MaxTier; tier++ {
		lower, higher := Lookup(tier), Lookup(tier+1)

		assert.LessOrEqual(t, lower.Gel, higher.Gel, "gel tier %d", tier)
		assert.LessOrEqual(t, lower.Pedicure, higher.Pedicure, "pedicure tier %d", tier)
		assert.LessOrEqual(t, lower.Acrylic, higher.Acrylic, "acrylic tier %d", tier)
	}
}

func TestEstimate_DefaultsToTierTwo(t *testing.T) {
	tierTwo := Lookup(2)

	tests := []struct {
		name  string
		level *int
	}{
		{"absent", nil},
		{"zero", models.IntPtr(0)},
		{"negative", models.IntPtr(-1)},
		{"too high", models.IntPtr(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tierTwo, Estimate(tt.level))
		})
	}

	assert.Equal(t, Prices{Gel: 65, Pedicure: 75, Acrylic: 80}, Estimate(models.IntPtr(4)))
}

func TestResult(t *testing.T) {
	result := Result(models.IntPtr(3), models.ReasonNoContent, "https://luxurynailsspa.com")

	assert.Equal(t, models.SourceEstimated, result.Source)
	assert.Equal(t, models.ReasonNoContent, result.Reason)
	require.NotNil(t, result.Gel)
	assert.Equal(t, 50.0, *result.Gel)
	assert.Equal(t, 55.0, *result.Pedicure)
	assert.Equal(t, 60.0, *result.Acrylic)
	assert.Nil(t, result.Dip)
	assert.Empty(t, result.Validate())
}
