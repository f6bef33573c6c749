package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maltedev/salon-price-scout/internal/models"
)

var ErrRunNotFound = errors.New("run not found")

// querier is the part of *pgxpool.Pool the run store uses.
type querier interface {
	txStarter
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// RunStore persists batch runs and their per-competitor results.
type RunStore struct {
	db querier
}

func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.pool}
}

// priceRow is the competitor_prices column order used by insert and select.
type priceRow struct {
	Competitor      string
	Source          string
	Reason          string
	URL             string
	Gel             *float64
	Pedicure        *float64
	Acrylic         *float64
	Dip             *float64
	Manicure        *float64
	Confidence      float64
	ConfidenceLevel string
	ServicesFound   int
	ScrapedAt       time.Time
}

func toRow(competitor string, r models.PriceResult) priceRow {
	return priceRow{
		Competitor:      competitor,
		Source:          string(r.Source),
		Reason:          r.Reason,
		URL:             r.URL,
		Gel:             r.Gel,
		Pedicure:        r.Pedicure,
		Acrylic:         r.Acrylic,
		Dip:             r.Dip,
		Manicure:        r.Manicure,
		Confidence:      r.Confidence,
		ConfidenceLevel: string(r.ConfidenceLevel),
		ServicesFound:   r.ServicesFound,
		ScrapedAt:       r.ScrapedAt,
	}
}

func (row priceRow) result() models.PriceResult {
	return models.PriceResult{
		Gel:             row.Gel,
		Pedicure:        row.Pedicure,
		Acrylic:         row.Acrylic,
		Dip:             row.Dip,
		Manicure:        row.Manicure,
		Confidence:      row.Confidence,
		ConfidenceLevel: models.Confidence(row.ConfidenceLevel),
		Source:          models.Provenance(row.Source),
		Reason:          row.Reason,
		URL:             row.URL,
		ServicesFound:   row.ServicesFound,
		ScrapedAt:       row.ScrapedAt,
	}
}

// SaveRun writes the run header and all of its results in one transaction.
func (s *RunStore) SaveRun(ctx context.Context, run *models.Run) error {
	counts := run.Counts()

	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO scrape_runs (id, started_at, finished_at, competitors, scraped, estimated, skipped)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			run.ID, run.StartedAt, run.FinishedAt,
			counts.Total, counts.Scraped, counts.Estimated, counts.Skipped,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		batch := &pgx.Batch{}
		for name, result := range run.Results {
			row := toRow(name, result)
			batch.Queue(`
				INSERT INTO competitor_prices (
					run_id, competitor, source, reason, url,
					gel, pedicure, acrylic, dip, manicure,
					confidence, confidence_level, services_found, scraped_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
				run.ID, row.Competitor, row.Source, row.Reason, row.URL,
				row.Gel, row.Pedicure, row.Acrylic, row.Dip, row.Manicure,
				row.Confidence, row.ConfidenceLevel, row.ServicesFound, row.ScrapedAt,
			)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert results: %w", err)
		}
		return nil
	})
}

func (s *RunStore) GetRun(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	run := &models.Run{ID: id, Results: make(map[string]models.PriceResult)}

	err := s.db.QueryRow(ctx,
		`SELECT started_at, finished_at FROM scrape_runs WHERE id = $1`, id,
	).Scan(&run.StartedAt, &run.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT competitor, source, reason, url,
			gel, pedicure, acrylic, dip, manicure,
			confidence, confidence_level, services_found, scraped_at
		FROM competitor_prices
		WHERE run_id = $1
		ORDER BY competitor`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row priceRow
		if err := rows.Scan(
			&row.Competitor, &row.Source, &row.Reason, &row.URL,
			&row.Gel, &row.Pedicure, &row.Acrylic, &row.Dip, &row.Manicure,
			&row.Confidence, &row.ConfidenceLevel, &row.ServicesFound, &row.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		run.Results[row.Competitor] = row.result()
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	return run, nil
}
