package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maltedev/salon-price-scout/internal/classifier"
	"github.com/maltedev/salon-price-scout/internal/database"
	"github.com/maltedev/salon-price-scout/internal/estimator"
	"github.com/maltedev/salon-price-scout/internal/fetcher"
	"github.com/maltedev/salon-price-scout/internal/models"
)

const (
	MaxBatchSize = 100
	maxBodyBytes = 1 << 20
	recentRuns   = 50
)

type BatchRunner interface {
	Run(ctx context.Context, competitors []models.CompetitorStub) *models.Run
}

type Discoverer interface {
	Discover(ctx context.Context, name, address, phone string) models.DiscoveredWebsite
}

type PageFetcher interface {
	TryFetch(ctx context.Context, url string) *fetcher.Page
}

type RunReader interface {
	GetRun(ctx context.Context, id uuid.UUID) (*models.Run, error)
}

// HealthCheck reports the state of one dependency; nil means healthy.
type HealthCheck func(ctx context.Context) error

type Handlers struct {
	runner     BatchRunner
	discoverer Discoverer
	classifier *classifier.Classifier
	fetcher    PageFetcher
	runs       RunReader
	checks     map[string]HealthCheck
	logger     *slog.Logger

	mu     sync.Mutex
	recent map[uuid.UUID]*models.Run
	order  []uuid.UUID
}

type Option func(*Handlers)

// WithRunReader lets GET /runs/{runID} fall back to persisted runs.
func WithRunReader(r RunReader) Option {
	return func(h *Handlers) { h.runs = r }
}

func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *Handlers) { h.checks[name] = check }
}

func NewHandlers(runner BatchRunner, discoverer Discoverer, cls *classifier.Classifier, f PageFetcher, logger *slog.Logger, opts ...Option) *Handlers {
	h := &Handlers{
		runner:     runner,
		discoverer: discoverer,
		classifier: cls,
		fetcher:    f,
		checks:     make(map[string]HealthCheck),
		logger:     logger.With("component", "api"),
		recent:     make(map[uuid.UUID]*models.Run),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// BatchRequest is the inbound competitor list.
type BatchRequest struct {
	Competitors []models.CompetitorStub `json:"competitors"`
}

type BatchResponse struct {
	RunID      uuid.UUID                     `json:"run_id"`
	StartedAt  time.Time                     `json:"started_at"`
	FinishedAt time.Time                     `json:"finished_at"`
	Counts     models.RunCounts              `json:"counts"`
	Results    map[string]models.PriceResult `json:"results"`
}

func newBatchResponse(run *models.Run) BatchResponse {
	return BatchResponse{
		RunID:      run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Counts:     run.Counts(),
		Results:    run.Results,
	}
}

// ScrapeBatch resolves prices for every competitor in the request.
func (h *Handlers) ScrapeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validateBatch(req.Competitors); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	run := h.runner.Run(r.Context(), req.Competitors)
	h.remember(run)

	h.respondJSON(w, http.StatusOK, newBatchResponse(run))
}

func validateBatch(competitors []models.CompetitorStub) error {
	if len(competitors) == 0 {
		return errors.New("competitors is required")
	}
	if len(competitors) > MaxBatchSize {
		return fmt.Errorf("at most %d competitors per batch", MaxBatchSize)
	}

	for i, c := range competitors {
		if problems := c.Validate(); len(problems) > 0 {
			return fmt.Errorf("competitors[%d]: %s", i, strings.Join(problems, ", "))
		}
	}
	if name, dup := models.DuplicateName(competitors); dup {
		return fmt.Errorf("duplicate competitor name %q", name)
	}
	return nil
}

type DiscoverRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (h *Handlers) Discover(w http.ResponseWriter, r *http.Request) {
	var req DiscoverRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		h.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	h.respondJSON(w, http.StatusOK, h.discoverer.Discover(r.Context(), req.Name, req.Address, req.Phone))
}

// ClassifyRequest classifies url; the page is fetched when html is empty.
type ClassifyRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

func (h *Handlers) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.URL) == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	html := req.HTML
	if html == "" {
		if _, ok := h.classifier.Prefilter(req.URL); ok {
			if page := h.fetcher.TryFetch(r.Context(), req.URL); page != nil {
				html = page.HTML
			}
		}
	}

	h.respondJSON(w, http.StatusOK, h.classifier.Classify(req.URL, html))
}

type EstimateResponse struct {
	Tier int `json:"tier"`
	estimator.Prices
}

func (h *Handlers) Estimate(w http.ResponseWriter, r *http.Request) {
	tier, err := strconv.Atoi(chi.URLParam(r, "tier"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "tier must be an integer")
		return
	}

	if tier < estimator.MinTier || tier > estimator.MaxTier {
		tier = estimator.DefaultTier
	}

	h.respondJSON(w, http.StatusOK, EstimateResponse{Tier: tier, Prices: estimator.Lookup(tier)})
}

func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	if run := h.lookup(id); run != nil {
		h.respondJSON(w, http.StatusOK, newBatchResponse(run))
		return
	}

	if h.runs == nil {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if errors.Is(err, database.ErrRunNotFound) {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load run", "run_id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	h.respondJSON(w, http.StatusOK, newBatchResponse(run))
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]string, len(h.checks))
	status := http.StatusOK
	overall := "ok"

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			components[name] = err.Error()
			overall = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	h.respondJSON(w, status, map[string]interface{}{
		"status":     overall,
		"components": components,
	})
}

func (h *Handlers) remember(run *models.Run) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.recent[run.ID] = run
	h.order = append(h.order, run.ID)
	if len(h.order) > recentRuns {
		delete(h.recent, h.order[0])
		h.order = h.order[1:]
	}
}

func (h *Handlers) lookup(id uuid.UUID) *models.Run {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.recent[id]
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
