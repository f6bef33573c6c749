package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRun_Counts(t *testing.T) {
	run := NewRun(time.Now())
	assert.NotEqual(t, uuid.Nil, run.ID)

	run.Results["Luxury Nails Spa"] = PriceResult{Source: SourceScraped, Gel: FloatPtr(38)}
	run.Results["Golden Nails"] = PriceResult{Source: SourceEstimated, Reason: ReasonNoContent}
	run.Results["Nail Bar"] = NewSkippedResult(ReasonNoURL)
	run.Results["Star Nails"] = NewSkippedResult(ReasonBlockedDomain)

	assert.Equal(t, RunCounts{Total: 4, Scraped: 1, Estimated: 1, Skipped: 2}, run.Counts())
}

func TestRun_Duration(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	run := NewRun(start)
	assert.Zero(t, run.Duration())

	run.FinishedAt = start.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, run.Duration())
}
