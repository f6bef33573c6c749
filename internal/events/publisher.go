package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/maltedev/salon-price-scout/internal/models"
)

type EventType string

const (
	EventTypeCompetitorPrice EventType = "COMPETITOR_PRICE_RESOLVED"
	EventTypeRunCompleted    EventType = "PRICE_RUN_COMPLETED"
)

const DefaultStream = "stream:competitor_prices"

// RedisClient is the subset of the Redis API the publisher needs.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// CompetitorPricePayload is published once per competitor of a run.
type CompetitorPricePayload struct {
	EventID    string             `json:"event_id"`
	EventType  string             `json:"event_type"`
	Timestamp  time.Time          `json:"timestamp"`
	RunID      string             `json:"run_id"`
	Competitor string             `json:"competitor"`
	Result     models.PriceResult `json:"result"`
}

// RunCompletedPayload closes a run on the stream.
type RunCompletedPayload struct {
	EventID    string           `json:"event_id"`
	EventType  string           `json:"event_type"`
	Timestamp  time.Time        `json:"timestamp"`
	RunID      string           `json:"run_id"`
	Counts     models.RunCounts `json:"counts"`
	DurationMS int64            `json:"duration_ms"`
}

// Publisher writes run results to a Redis stream.
type Publisher struct {
	redis  RedisClient
	stream string
	logger *slog.Logger
	now    func() time.Time
}

func NewPublisher(client RedisClient, stream string, logger *slog.Logger) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{
		redis:  client,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
		now:    time.Now,
	}
}

// PublishRun emits one message per competitor, in name order, followed by a
// completion message. Every message is attempted; the errors are joined.
func (p *Publisher) PublishRun(ctx context.Context, run *models.Run) error {
	names := make([]string, 0, len(run.Results))
	for name := range run.Results {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		payload := CompetitorPricePayload{
			EventID:    uuid.New().String(),
			EventType:  string(EventTypeCompetitorPrice),
			Timestamp:  p.now(),
			RunID:      run.ID.String(),
			Competitor: name,
			Result:     run.Results[name],
		}
		if err := p.publish(ctx, payload.EventType, payload.EventID, payload.RunID, name, payload); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	done := RunCompletedPayload{
		EventID:    uuid.New().String(),
		EventType:  string(EventTypeRunCompleted),
		Timestamp:  p.now(),
		RunID:      run.ID.String(),
		Counts:     run.Counts(),
		DurationMS: run.Duration().Milliseconds(),
	}
	if err := p.publish(ctx, done.EventType, done.EventID, done.RunID, "", done); err != nil {
		errs = append(errs, fmt.Errorf("run completed: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	p.logger.Info("run published",
		"run_id", run.ID,
		"stream", p.stream,
		"messages", len(names)+1,
	)
	return nil
}

func (p *Publisher) publish(ctx context.Context, eventType, eventID, runID, competitor string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":       string(data),
			"type":       eventType,
			"event_id":   eventID,
			"run_id":     runID,
			"competitor": competitor,
			"timestamp":  fmt.Sprintf("%d", p.now().UnixNano()),
		},
	}

	if _, err := p.redis.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}
