package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/salon-price-scout/internal/browser"
	"github.com/maltedev/salon-price-scout/internal/fetcher"
	"github.com/maltedev/salon-price-scout/internal/logger"
	"github.com/maltedev/salon-price-scout/internal/models"
	"github.com/maltedev/salon-price-scout/internal/parser"
)

type fakeFetcher struct {
	pages   map[string]string
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetcher.Page, error) {
	f.fetched = append(f.fetched, url)
	html, ok := f.pages[url]
	if !ok {
		return nil, &fetcher.StatusError{Code: 404, URL: url}
	}
	return &fetcher.Page{URL: url, HTML: html, StatusCode: 200}, nil
}

type fakeRenderer struct {
	pages []browser.RenderedPage
	err   error
	calls []string
}

func (r *fakeRenderer) Render(_ context.Context, url string, done func([]browser.RenderedPage) bool) ([]browser.RenderedPage, error) {
	r.calls = append(r.calls, url)
	if r.err != nil {
		return nil, r.err
	}
	var out []browser.RenderedPage
	for _, p := range r.pages {
		out = append(out, p)
		if done(out) {
			break
		}
	}
	return out, nil
}

const (
	homepageHTML = `<html><body><nav><a href="/services">Services</a><a href="/contact">Contact</a></nav>
<p>Welcome to Luxury Nails Spa</p></body></html>`

	servicesHTML = `<html><body><table>
<tr><td>Gel Manicure</td><td>$38</td></tr>
<tr><td>Spa Pedicure</td><td>$45</td></tr>
</table></body></html>`
)

func newPageScraper(f Fetcher, r Renderer, minHTML int) *PageScraper {
	return NewPageScraper(f, r, parser.NewExtractor(models.DefaultPriceRange()), minHTML, logger.Discard())
}

func TestPageScraper_FollowsServicesPage(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://luxurynailsspa.com/":         homepageHTML,
		"https://luxurynailsspa.com/services": servicesHTML,
	}}

	result, err := newPageScraper(f, nil, 0).Scrape(context.Background(), "https://luxurynailsspa.com/")
	require.NoError(t, err)

	assert.Equal(t, "https://luxurynailsspa.com/", result.URL)
	assert.Equal(t, []string{"https://luxurynailsspa.com/", "https://luxurynailsspa.com/services"}, result.Pages)
	assert.Equal(t, 2, parser.CountCategories(result.Services))
	assert.False(t, result.Rendered)
}

func TestPageScraper_HomepageWithPricesStopsEarly(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://luxurynailsspa.com/": `<html><body><a href="/services">Services</a>` + servicesHTML + `</body></html>`,
	}}

	result, err := newPageScraper(f, nil, 0).Scrape(context.Background(), "https://luxurynailsspa.com/")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://luxurynailsspa.com/"}, f.fetched)
	assert.Len(t, result.Pages, 1)
}

func TestPageScraper_FetchFailureWithoutRenderer(t *testing.T) {
	_, err := newPageScraper(&fakeFetcher{}, nil, 0).Scrape(context.Background(), "https://luxurynailsspa.com/")

	assert.ErrorIs(t, err, ErrPageFailed)
	assert.ErrorIs(t, err, fetcher.ErrStatus)
}

func TestPageScraper_RendersJavaScriptSites(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://luxurynailsspa.com/": `<html><body><div id="root"></div></body></html>`,
	}}
	r := &fakeRenderer{pages: []browser.RenderedPage{
		{URL: "https://luxurynailsspa.com/", Text: "Welcome"},
		{URL: "https://luxurynailsspa.com/services", Text: "Gel Manicure\n$38\nPedicure Deluxe\n$55"},
		{URL: "https://luxurynailsspa.com/menu", Text: "Acrylic Full Set\n$50"},
	}}

	result, err := newPageScraper(f, r, 5000).Scrape(context.Background(), "https://luxurynailsspa.com/")
	require.NoError(t, err)

	assert.True(t, result.Rendered)
	assert.Equal(t, []string{"https://luxurynailsspa.com/"}, r.calls)
	assert.Equal(t, 2, parser.CountCategories(result.Services))
	assert.NotContains(t, result.Pages, "https://luxurynailsspa.com/menu", "rendering stops once enough categories are found")
}

func TestPageScraper_RendererUsedWhenFetchFails(t *testing.T) {
	r := &fakeRenderer{pages: []browser.RenderedPage{
		{URL: "https://luxurynailsspa.com/", Text: "Gel Manicure $38\nPedicure $45"},
	}}

	result, err := newPageScraper(&fakeFetcher{}, r, 5000).Scrape(context.Background(), "https://luxurynailsspa.com/")
	require.NoError(t, err)

	assert.True(t, result.Rendered)
	assert.Equal(t, 2, parser.CountCategories(result.Services))
}

func TestPageScraper_RenderFailureKeepsStaticResult(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://luxurynailsspa.com/": `<html><body><p>Gel Manicure $38</p></body></html>`,
	}}
	r := &fakeRenderer{err: browser.ErrUnavailable}

	result, err := newPageScraper(f, r, 5000).Scrape(context.Background(), "https://luxurynailsspa.com/")
	require.NoError(t, err)

	assert.False(t, result.Rendered)
	assert.Equal(t, 1, parser.CountCategories(result.Services))
}

func TestPageScraper_BothPathsFail(t *testing.T) {
	r := &fakeRenderer{err: errors.New("navigation timeout")}

	_, err := newPageScraper(&fakeFetcher{}, r, 5000).Scrape(context.Background(), "https://luxurynailsspa.com/")
	assert.ErrorIs(t, err, ErrPageFailed)
}
