// Package app wires configuration into the running component graph shared by
// the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/salon-price-scout/internal/browser"
	"github.com/maltedev/salon-price-scout/internal/classifier"
	"github.com/maltedev/salon-price-scout/internal/config"
	"github.com/maltedev/salon-price-scout/internal/database"
	"github.com/maltedev/salon-price-scout/internal/discovery"
	"github.com/maltedev/salon-price-scout/internal/events"
	"github.com/maltedev/salon-price-scout/internal/fetcher"
	"github.com/maltedev/salon-price-scout/internal/models"
	"github.com/maltedev/salon-price-scout/internal/parser"
	"github.com/maltedev/salon-price-scout/internal/pipeline"
	"github.com/maltedev/salon-price-scout/internal/scraper"
	"github.com/maltedev/salon-price-scout/internal/search"
)

type App struct {
	Config       *config.Config
	Classifier   *classifier.Classifier
	Fetcher      *fetcher.Fetcher
	Search       *search.MultiClient
	Discovery    *discovery.Engine
	Orchestrator *scraper.Orchestrator
	Pipeline     *pipeline.Pipeline

	DB        *database.DB
	Runs      *database.RunStore
	Redis     *redis.Client
	Publisher *events.Publisher
	Browser   *browser.Handle

	logger *slog.Logger
}

// New connects the optional backends and builds every component. Close releases
// whatever was opened, also after a failed New.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}

	if cfg.Redis.Enabled {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Publisher = events.NewPublisher(a.Redis, cfg.Redis.ResultsStream, logger)
	}

	if cfg.Database.Enabled {
		db, err := database.New(ctx, database.ConfigFrom(cfg.Database))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DB = db
		if err := db.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.Runs = database.NewRunStore(db)
	}

	httpClient := &http.Client{}

	a.Classifier = classifier.New(classifier.Config{
		RealThreshold: cfg.Classifier.RealThreshold,
		MinKeywords:   cfg.Classifier.MinKeywords,
		AllowedTLDs:   cfg.Classifier.AllowedTLDs,
	})

	a.Fetcher = fetcher.New(httpClient, fetcher.Config{
		Timeout:      cfg.Fetcher.Timeout,
		MaxRetries:   cfg.Fetcher.MaxRetries,
		RetryDelay:   cfg.Fetcher.RetryDelay,
		RatePerHost:  cfg.Fetcher.RatePerHost,
		UserAgents:   cfg.Fetcher.UserAgents,
		MaxBodyBytes: cfg.Fetcher.MaxBodyBytes,
	}, logger)

	var rdb redis.Cmdable
	if a.Redis != nil {
		rdb = a.Redis
	}
	multi, err := search.FromConfig(cfg.Search, httpClient, rdb, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Search = multi

	a.Discovery = discovery.New(a.Search, a.Fetcher, a.Classifier, discovery.Config{
		TopK:        cfg.Discovery.TopK,
		ResultCount: cfg.Search.ResultCount,
		QueryDelay:  cfg.Discovery.QueryDelay,
		MinHTML:     cfg.Discovery.MinHTML,
	}, logger)

	prices := models.PriceRange{Min: cfg.Scraper.PriceMin, Max: cfg.Scraper.PriceMax}

	var renderer scraper.Renderer
	if cfg.Scraper.UseBrowser {
		a.Browser = browser.NewHandle(browser.OptionsFromConfig(cfg.Browser), logger)
		renderer = browser.NewRenderer(a.Browser, logger)
	}

	pages := scraper.NewPageScraper(a.Fetcher, renderer, parser.NewExtractor(prices), cfg.Discovery.MinHTML, logger)
	a.Orchestrator = scraper.NewOrchestrator(pages, a.Classifier, scraper.Config{
		MinDiscoveryScore: cfg.Scraper.MinDiscoveryScore,
		Concurrency:       cfg.Scraper.Concurrency,
		Timeout:           cfg.Scraper.Timeout,
		PriceRange:        prices,
	}, logger)

	var opts []pipeline.Option
	if a.Runs != nil {
		opts = append(opts, pipeline.WithStore(a.Runs))
	}
	if a.Publisher != nil {
		opts = append(opts, pipeline.WithPublisher(a.Publisher))
	}
	a.Pipeline = pipeline.New(a.Discovery, a.Orchestrator, a.Classifier, logger, opts...)

	logger.Info("components ready",
		"providers", a.Search.Providers(),
		"database", a.DB != nil,
		"redis", a.Redis != nil,
		"browser", a.Browser != nil,
	)

	return a, nil
}

// HealthChecks returns one check per enabled backend.
func (a *App) HealthChecks() map[string]func(context.Context) error {
	checks := make(map[string]func(context.Context) error)
	if a.DB != nil {
		checks["database"] = a.DB.Ping
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

func (a *App) Close() error {
	var errs []error

	if a.Browser != nil {
		if err := a.Browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("browser: %w", err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	return errors.Join(errs...)
}
