package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/maltedev/salon-price-scout/internal/app"
	"github.com/maltedev/salon-price-scout/internal/config"
	"github.com/maltedev/salon-price-scout/internal/estimator"
	"github.com/maltedev/salon-price-scout/internal/logger"
	"github.com/maltedev/salon-price-scout/internal/models"
)

func main() {
	var (
		input    = flag.String("input", "", "Competitor JSON file to price (- for stdin)")
		discover = flag.Bool("discover", false, "Only discover the website of -name")
		classify = flag.String("classify", "", "Classify a URL as a real business website")
		htmlFile = flag.String("html", "", "HTML file to classify instead of fetching -classify")
		estimate = flag.Int("estimate", 0, "Print the estimated prices for a price tier (1-4)")
		name     = flag.String("name", "", "Business name for -discover")
		address  = flag.String("address", "", "Business address for -discover")
		phone    = flag.String("phone", "", "Business phone for -discover")
		noBrowse = flag.Bool("no-browser", false, "Disable the headless browser fallback")
	)
	flag.Parse()

	if *estimate != 0 {
		writeJSON(estimator.Lookup(*estimate))
		return
	}

	if *input == "" && !*discover && *classify == "" {
		fmt.Fprintln(os.Stderr, "Please provide -input, -discover or -classify")
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load(".env.local", ".env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *noBrowse {
		cfg.Scraper.UseBrowser = false
	}

	// stdout carries the result
	log := logger.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutdown signal received")
		cancel()
	}()

	components, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	err = run(ctx, components, *input, *discover, *classify, *htmlFile, *name, *address, *phone)
	if cerr := components.Close(); cerr != nil {
		log.Warn("cleanup failed", "error", cerr)
	}
	if err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, input string, discover bool, classifyURL, htmlFile, name, address, phone string) error {
	switch {
	case discover:
		if name == "" {
			return fmt.Errorf("-discover requires -name")
		}
		writeJSON(a.Discovery.Discover(ctx, name, address, phone))

	case classifyURL != "":
		html := ""
		if htmlFile != "" {
			data, err := os.ReadFile(htmlFile)
			if err != nil {
				return fmt.Errorf("failed to read html: %w", err)
			}
			html = string(data)
		} else if _, ok := a.Classifier.Prefilter(classifyURL); ok {
			if page := a.Fetcher.TryFetch(ctx, classifyURL); page != nil {
				html = page.HTML
			}
		}
		writeJSON(a.Classifier.Classify(classifyURL, html))

	default:
		competitors, err := readCompetitors(input)
		if err != nil {
			return err
		}
		batch := a.Pipeline.Run(ctx, competitors)
		writeJSON(struct {
			*models.Run
			Counts models.RunCounts `json:"counts"`
		}{batch, batch.Counts()})
	}

	return nil
}

// readCompetitors accepts a bare array or an object with a "competitors" key.
func readCompetitors(path string) ([]models.CompetitorStub, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var competitors []models.CompetitorStub
	if err := json.Unmarshal(data, &competitors); err != nil {
		var wrapped struct {
			Competitors []models.CompetitorStub `json:"competitors"`
		}
		if werr := json.Unmarshal(data, &wrapped); werr != nil {
			return nil, fmt.Errorf("failed to decode input: %w", err)
		}
		competitors = wrapped.Competitors
	}

	for i, c := range competitors {
		if errs := c.Validate(); len(errs) > 0 {
			return nil, fmt.Errorf("competitor %d: %v", i, errs)
		}
	}
	if name, dup := models.DuplicateName(competitors); dup {
		return nil, fmt.Errorf("duplicate competitor name %q", name)
	}

	return competitors, nil
}

func writeJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
		os.Exit(1)
	}
}
