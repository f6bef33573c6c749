package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/salon-price-scout/internal/classifier"
	"github.com/maltedev/salon-price-scout/internal/discovery"
	"github.com/maltedev/salon-price-scout/internal/estimator"
	"github.com/maltedev/salon-price-scout/internal/fetcher"
	"github.com/maltedev/salon-price-scout/internal/logger"
	"github.com/maltedev/salon-price-scout/internal/models"
	"github.com/maltedev/salon-price-scout/internal/parser"
	"github.com/maltedev/salon-price-scout/internal/scraper"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query string, count int) ([]models.SearchCandidate, error) {
	args := m.Called(ctx, query, count)
	if v := args.Get(0); v != nil {
		return v.([]models.SearchCandidate), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveRun(ctx context.Context, run *models.Run) error {
	return m.Called(ctx, run).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishRun(ctx context.Context, run *models.Run) error {
	return m.Called(ctx, run).Error(0)
}

// fakeWeb serves canned pages to both discovery and the page scraper.
type fakeWeb struct {
	pages map[string]string
}

func (w *fakeWeb) Fetch(_ context.Context, url string) (*fetcher.Page, error) {
	html, ok := w.pages[url]
	if !ok {
		return nil, &fetcher.StatusError{Code: 404, URL: url}
	}
	return &fetcher.Page{URL: url, HTML: html, StatusCode: 200}, nil
}

func (w *fakeWeb) TryFetch(ctx context.Context, url string) *fetcher.Page {
	page, err := w.Fetch(ctx, url)
	if err != nil {
		return nil
	}
	return page
}

var salonHomepage = `<html><head><title>Luxury Nails Spa</title></head><body>
<nav><a href="/services">Services</a><a href="/menu">Menu</a><a href="/pricing">Pricing</a></nav>
<p>Manicure, pedicure and acrylic services. Book now or make an appointment.</p>
` + strings.Repeat("<p>Relax and enjoy the experience.</p>", 200) + `</body></html>`

const salonServices = `<html><body><h1>Our Services</h1><table>
<tr><td>Gel Manicure</td><td>$38</td></tr>
<tr><td>Classic Pedicure</td><td>$45</td></tr>
<tr><td>Acrylic Full Set</td><td>$50</td></tr>
</table></body></html>`

type harness struct {
	searcher  *MockSearcher
	store     *MockStore
	publisher *MockPublisher
	pipeline  *Pipeline
}

func newHarness(web *fakeWeb) *harness {
	log := logger.Discard()
	cls := classifier.New(classifier.DefaultConfig())

	discoveryCfg := discovery.DefaultConfig()
	discoveryCfg.QueryDelay = 0

	h := &harness{
		searcher:  &MockSearcher{},
		store:     &MockStore{},
		publisher: &MockPublisher{},
	}

	engine := discovery.New(h.searcher, web, cls, discoveryCfg, log)
	pages := scraper.NewPageScraper(web, nil, parser.NewExtractor(models.DefaultPriceRange()), 0, log)
	orchestrator := scraper.NewOrchestrator(pages, cls, scraper.DefaultConfig(), log)

	h.pipeline = New(engine, orchestrator, cls, log, WithStore(h.store), WithPublisher(h.publisher))
	return h
}

func TestResolve_BlockedKnownWebsiteFallsBackToDiscovery(t *testing.T) {
	web := &fakeWeb{pages: map[string]string{"https://luxurynailsspa.com/": salonHomepage}}
	h := newHarness(web)
	h.searcher.On("Search", mock.Anything, "Luxury Nails Spa 135 S Main St, Mount Vernon, OH official website", 10).
		Return([]models.SearchCandidate{
			{URL: "https://www.facebook.com/luxurynails", Rank: 1, SourceProvider: models.ProviderBing},
			{URL: "https://luxurynailsspa.com/", Rank: 2, SourceProvider: models.ProviderBing},
		}, nil).Once()

	res := h.pipeline.Resolve(context.Background(), models.CompetitorStub{
		Name:         "Luxury Nails Spa",
		Address:      "135 S Main St, Mount Vernon, OH",
		KnownWebsite: models.StringPtr("facebook.com/luxurynails"),
	})

	require.True(t, res.Resolved)
	require.NotNil(t, res.Discovered)
	assert.True(t, res.Discovered.Success)
	assert.Equal(t, "https://luxurynailsspa.com/", res.Discovered.HomepageURL())
	assert.Equal(t, "https://luxurynailsspa.com/", res.Target.URL)
	require.NotNil(t, res.Target.Score)
	assert.Equal(t, res.Discovered.Score, *res.Target.Score)
	h.searcher.AssertNumberOfCalls(t, "Search", 1)
}

func TestResolve_KnownWebsiteSkipsSearch(t *testing.T) {
	h := newHarness(&fakeWeb{})

	res := h.pipeline.Resolve(context.Background(), models.CompetitorStub{
		Name:         "Star Nails",
		KnownWebsite: models.StringPtr("https://starnailsstudio.com"),
	})

	assert.True(t, res.Resolved)
	assert.Nil(t, res.Discovered)
	assert.Nil(t, res.Target.Score)
	assert.Equal(t, "https://starnailsstudio.com", res.Target.URL)
	h.searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_EndToEnd(t *testing.T) {
	web := &fakeWeb{pages: map[string]string{
		"https://luxurynailsspa.com/":         salonHomepage,
		"https://luxurynailsspa.com/services": salonServices,
	}}
	h := newHarness(web)

	h.searcher.On("Search", mock.Anything, "Luxury Nails Spa 135 S Main St, Mount Vernon, OH official website", 10).
		Return([]models.SearchCandidate{
			{URL: "https://www.facebook.com/luxurynails", Rank: 1, SourceProvider: models.ProviderBing},
			{URL: "https://luxurynailsspa.com/", Rank: 2, SourceProvider: models.ProviderBing},
		}, nil).Once()
	h.searcher.On("Search", mock.Anything, mock.Anything, 10).Return([]models.SearchCandidate{}, nil)
	h.store.On("SaveRun", mock.Anything, mock.AnythingOfType("*models.Run")).Return(nil).Once()
	h.publisher.On("PublishRun", mock.Anything, mock.AnythingOfType("*models.Run")).Return(errors.New("redis down")).Once()

	competitors := []models.CompetitorStub{
		{
			Name:         "Luxury Nails Spa",
			Address:      "135 S Main St, Mount Vernon, OH",
			KnownWebsite: models.StringPtr("facebook.com/luxurynails"),
		},
		{Name: "Golden Nails", KnownWebsite: models.StringPtr("#")},
		{Name: "Star Nails", KnownWebsite: models.StringPtr("https://starnailsstudio.com"), PriceLevel: models.IntPtr(3)},
	}

	run := h.pipeline.Run(context.Background(), competitors)

	require.Len(t, run.Results, len(competitors))
	assert.False(t, run.FinishedAt.Before(run.StartedAt))

	luxury := run.Results["Luxury Nails Spa"]
	assert.Equal(t, models.SourceScraped, luxury.Source)
	assert.Equal(t, "https://luxurynailsspa.com/", luxury.URL)
	require.NotNil(t, luxury.Gel)
	assert.Equal(t, 38.0, *luxury.Gel)
	require.NotNil(t, luxury.Pedicure)
	assert.Equal(t, 45.0, *luxury.Pedicure)

	golden := run.Results["Golden Nails"]
	assert.Equal(t, models.SourceSkipped, golden.Source)
	assert.Equal(t, models.ReasonDiscoveryFailed+": "+models.ReasonNoSearchResults, golden.Reason)
	assert.Zero(t, golden.PriceCount())

	star := run.Results["Star Nails"]
	assert.Equal(t, models.SourceEstimated, star.Source)
	assert.Equal(t, models.ReasonScrapeFailed, star.Reason)
	assert.Equal(t, estimator.Lookup(3).Pedicure, *star.Pedicure)

	for name, result := range run.Results {
		assert.Empty(t, result.Validate(), name)
	}

	h.store.AssertExpectations(t)
	h.publisher.AssertExpectations(t)
}

func TestRun_WithoutSinks(t *testing.T) {
	h := newHarness(&fakeWeb{})
	p := New(h.pipeline.discoverer, h.pipeline.scraper, h.pipeline.classifier, logger.Discard())

	run := p.Run(context.Background(), []models.CompetitorStub{{Name: "", KnownWebsite: nil}})

	require.Len(t, run.Results, 1)
	assert.Equal(t, models.SourceSkipped, run.Results[""].Source)
	h.searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}
