package models

import (
	"time"

	"github.com/google/uuid"
)

// Run is one batch pass over a competitor list.
type Run struct {
	ID         uuid.UUID              `json:"run_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Results    map[string]PriceResult `json:"results"`
}

// RunCounts tallies results by provenance.
type RunCounts struct {
	Total     int `json:"total"`
	Scraped   int `json:"scraped"`
	Estimated int `json:"estimated"`
	Skipped   int `json:"skipped"`
}

func NewRun(started time.Time) *Run {
	return &Run{
		ID:        uuid.New(),
		StartedAt: started,
		Results:   make(map[string]PriceResult),
	}
}

func (r *Run) Counts() RunCounts {
	counts := RunCounts{Total: len(r.Results)}
	for _, result := range r.Results {
		switch result.Source {
		case SourceScraped:
			counts.Scraped++
		case SourceEstimated:
			counts.Estimated++
		case SourceSkipped:
			counts.Skipped++
		}
	}
	return counts
}

func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
