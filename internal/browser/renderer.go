package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/maltedev/salon-price-scout/internal/config"
)

// ServicePaths are tried on the site origin after the homepage.
var ServicePaths = []string{"/services", "/menu", "/pricing", "/prices", "/service-menu"}

// expanderSelectors reveal collapsed price sections.
var expanderSelectors = []string{
	`button:has-text("View More")`,
	`button:has-text("See All")`,
	`a:has-text("View More")`,
	`a:has-text("See All")`,
	`button:has-text("Prices")`,
	`button:has-text("Menu")`,
	`[aria-expanded="false"]`,
	`.accordion-button.collapsed`,
	`details > summary`,
}

const (
	maxExpanderClicks = 10
	scrollSteps       = 5
	navigateAttempts  = 2
)

// RenderedPage is the DOM of one page after scripts ran.
type RenderedPage struct {
	URL  string
	HTML string
	Text string
}

// Renderer loads pages in a real browser for sites that build their menus client-side.
type Renderer struct {
	handle *Handle
	logger *slog.Logger
}

func NewRenderer(handle *Handle, logger *slog.Logger) *Renderer {
	return &Renderer{
		handle: handle,
		logger: logger.With("component", "renderer"),
	}
}

func OptionsFromConfig(cfg config.BrowserConfig) *Options {
	opts := DefaultOptions()
	opts.Headless = cfg.Headless
	if cfg.Timeout > 0 {
		opts.Timeout = cfg.Timeout
	}
	if cfg.ViewportWidth > 0 && cfg.ViewportHeight > 0 {
		opts.ViewportWidth = cfg.ViewportWidth
		opts.ViewportHeight = cfg.ViewportHeight
	}
	if cfg.AcceptLanguage != "" {
		opts.AcceptLanguage = cfg.AcceptLanguage
	}
	if cfg.TimezoneID != "" {
		opts.TimezoneID = cfg.TimezoneID
	}
	if cfg.Locale != "" {
		opts.Locale = cfg.Locale
	}
	return opts
}

// Render loads the homepage and then the service paths of its origin, stopping as
// soon as done reports that the pages collected so far are sufficient.
func (r *Renderer) Render(ctx context.Context, rawURL string, done func([]RenderedPage) bool) ([]RenderedPage, error) {
	targets, err := CandidateURLs(rawURL)
	if err != nil {
		return nil, err
	}

	b, err := r.handle.Get(ctx)
	if err != nil {
		return nil, err
	}

	page, err := b.NewPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()

	var pages []RenderedPage
	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		rendered, err := r.renderOne(ctx, b, page, target)
		if err != nil {
			if i == 0 && !errors.Is(err, errNotFound) {
				return nil, fmt.Errorf("render homepage: %w", err)
			}
			r.logger.Debug("render skipped", "url", target, "error", err)
			continue
		}

		pages = append(pages, rendered)
		if done != nil && done(pages) {
			break
		}
	}

	r.logger.Debug("render complete", "url", rawURL, "pages", len(pages))
	return pages, nil
}

func (r *Renderer) renderOne(ctx context.Context, b *Browser, page playwright.Page, target string) (RenderedPage, error) {
	if err := b.NavigateWithRetry(ctx, page, target, navigateAttempts); err != nil {
		return RenderedPage{}, err
	}

	page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	})

	b.ScrollToBottom(page, scrollSteps)
	clicked := r.expand(page)
	if clicked > 0 {
		page.WaitForTimeout(500)
	}

	html, err := page.Content()
	if err != nil {
		return RenderedPage{}, fmt.Errorf("failed to read page content: %w", err)
	}

	text, err := page.InnerText("body")
	if err != nil {
		r.logger.Debug("inner text unavailable", "url", target, "error", err)
	}

	return RenderedPage{URL: page.URL(), HTML: html, Text: text}, nil
}

func (r *Renderer) expand(page playwright.Page) int {
	clicked := 0
	for _, selector := range expanderSelectors {
		elements, err := page.Locator(selector).All()
		if err != nil {
			continue
		}
		for _, el := range elements {
			if clicked >= maxExpanderClicks {
				return clicked
			}
			visible, err := el.IsVisible()
			if err != nil || !visible {
				continue
			}
			if err := el.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(2000)}); err != nil {
				continue
			}
			clicked++
		}
	}
	return clicked
}

// CandidateURLs returns rawURL followed by each service path on its origin.
func CandidateURLs(rawURL string) ([]string, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}

	out := []string{u.String()}
	seen := map[string]struct{}{strings.TrimSuffix(u.Path, "/"): {}}
	for _, path := range ServicePaths {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		out = append(out, (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: path}).String())
	}
	return out, nil
}
