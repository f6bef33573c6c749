package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/salon-price-scout/internal/models"
)

func findService(services []models.ExtractedService, t models.ServiceType) (models.ExtractedService, bool) {
	for _, s := range services {
		if s.ServiceType == t {
			return s, true
		}
	}
	return models.ExtractedService{}, false
}

func TestExtract_TableRow(t *testing.T) {
	html := `<html><body><table>
		<tr><th>Service</th><th>Price</th></tr>
		<tr><td>Gel Manicure</td><td>$38</td></tr>
	</table></body></html>`

	services, err := NewExtractor(models.DefaultPriceRange()).Extract(html)
	require.NoError(t, err)

	require.NotEmpty(t, services)
	assert.Equal(t, models.ExtractedService{
		ServiceName: "Gel Manicure",
		ServiceType: models.ServiceGel,
		Price:       38,
		Confidence:  0.9,
		Source:      SourceTableRow,
	}, services[0])
}

func TestExtract_LinePairIsRequiredForSplitMarkup(t *testing.T) {
	html := `<html><body><section class="menu">
		<div class="item"><div class="name">Pedicure Deluxe</div><div class="price">$55</div></div>
	</section></body></html>`

	r := models.DefaultPriceRange()
	prices := NewPriceMatcher(r)

	full, err := NewExtractor(r).Extract(html)
	require.NoError(t, err)
	pedicure, ok := findService(full, models.ServicePedicure)
	require.True(t, ok)
	assert.Equal(t, "Pedicure Deluxe", pedicure.ServiceName)
	assert.Equal(t, 55.0, pedicure.Price)
	assert.Equal(t, SourceLinePair, pedicure.Source)

	withoutLinePair := NewExtractor(r, WithStrategies(
		&TableRowStrategy{Prices: prices},
		&ListItemStrategy{Prices: prices},
		&LeafElementStrategy{Prices: prices},
	))
	partial, err := withoutLinePair.Extract(html)
	require.NoError(t, err)
	_, ok = findService(partial, models.ServicePedicure)
	assert.False(t, ok, "pedicure must only be recoverable by the line-pair strategy")
}

func TestExtract_ListItemsNeedDomainKeyword(t *testing.T) {
	html := `<html><body>
		<ul class="nav"><li>Gift Cards $25</li><li>Home</li></ul>
		<ul class="prices">
			<li>Classic Pedicure - $35</li>
			<li>Acrylic Full Set ... $45+</li>
		</ul>
	</body></html>`

	services, err := NewExtractor(models.DefaultPriceRange()).Extract(html)
	require.NoError(t, err)

	for _, s := range services {
		assert.NotContains(t, s.ServiceName, "Gift")
	}

	pedicure, ok := findService(services, models.ServicePedicure)
	require.True(t, ok)
	assert.Equal(t, "Classic Pedicure", pedicure.ServiceName)
	assert.Equal(t, SourceListItem, pedicure.Source)

	acrylic, ok := findService(services, models.ServiceAcrylic)
	require.True(t, ok)
	assert.Equal(t, 45.0, acrylic.Price)
}

func TestExtract_LeafElements(t *testing.T) {
	html := `<html><body>
		<p>Dip Powder Manicure <strong>from $40</strong></p>
		<p>Gel Polish Change $25</p>
		<h3>Call us at (740) 555-1234</h3>
	</body></html>`

	services, err := NewExtractor(models.DefaultPriceRange()).Extract(html)
	require.NoError(t, err)

	gel, ok := findService(services, models.ServiceGel)
	require.True(t, ok)
	assert.Equal(t, "Gel Polish Change", gel.ServiceName)
	assert.Equal(t, 25.0, gel.Price)
	assert.Equal(t, SourceLeafElement, gel.Source)

	dip, ok := findService(services, models.ServiceDip)
	require.True(t, ok)
	assert.Equal(t, 40.0, dip.Price)
}

func TestExtract_StopsAfterEnoughCategories(t *testing.T) {
	html := `<html><body>
		<table>
			<tr><td>Gel Manicure</td><td>$38</td></tr>
			<tr><td>Spa Pedicure</td><td>$45</td></tr>
		</table>
		<ul><li>Acrylic Full Set $50</li></ul>
	</body></html>`

	services, err := NewExtractor(models.DefaultPriceRange()).Extract(html)
	require.NoError(t, err)

	assert.Len(t, services, 2)
	for _, s := range services {
		assert.Equal(t, SourceTableRow, s.Source)
	}
}

func TestExtract_IgnoresScripts(t *testing.T) {
	html := `<html><body><script>var menu = "Gel Manicure $38";</script><p>Welcome</p></body></html>`

	services, err := NewExtractor(models.DefaultPriceRange()).Extract(html)
	require.NoError(t, err)
	assert.Empty(t, services)
}

func TestExtractFromText(t *testing.T) {
	text := "Our Menu\nGel Manicure\n$38\nSpa Pedicure $45\nAcrylic Fill\n$35 - $40\nOpen from 10 to 7"

	services := NewExtractor(models.DefaultPriceRange()).ExtractFromText(text)

	summary := Aggregate(services, models.DefaultPriceRange())
	assert.Equal(t, 38.0, summary.Prices[models.ServiceGel])
	assert.Equal(t, 45.0, summary.Prices[models.ServicePedicure])
	assert.Equal(t, 35.0, summary.Prices[models.ServiceAcrylic])
	assert.Len(t, services, 3)
}

func TestPriceMatcher_Find(t *testing.T) {
	m := NewPriceMatcher(models.DefaultPriceRange())

	tests := []struct {
		text  string
		price float64
		ok    bool
	}{
		{"Gel Manicure $38", 38, true},
		{"Gel Manicure $38.50", 38.5, true},
		{"Full set $45-$60", 45, true},
		{"Full set $45 - 60", 45, true},
		{"Pedicure starting at $30", 30, true},
		{"Pedicure starting from 32", 32, true},
		{"Pedicure from $29+", 29, true},
		{"Manicure 25.00", 25, true},
		{"Nail art $5", 0, false},
		{"Deluxe package $450", 0, false},
		{"Since 2015", 0, false},
		{"Call (740) 555-1234", 0, false},
		{"Open from 10 to 7", 0, false},
		{"Fill $5 or $35", 35, true},
		{"Nail art $5-$35", 0, false},
		{"Nail art $5 to $35, Gel Manicure $38", 38, true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			price, _, ok := m.Find(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.price, price)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		text string
		want models.ServiceType
	}{
		{"Gel Manicure", models.ServiceGel},
		{"Shellac Mani", models.ServiceGel},
		{"Gel Pedicure", models.ServicePedicure},
		{"Mani-Pedi Combo", models.ServicePedicure},
		{"Acrylic Fill", models.ServiceAcrylic},
		{"Fill-in", models.ServiceAcrylic},
		{"Pink & White Full Set", models.ServiceAcrylic},
		{"Color Fill", models.ServiceOther},
		{"Gel Fill", models.ServiceGel},
		{"Fill-in Gel", models.ServiceGel},
		{"Fill in Polish", models.ServiceOther},
		{"Fills Acrylic Tips", models.ServiceAcrylic},
		{"Dip Powder", models.ServiceDip},
		{"SNS Ombre", models.ServiceDip},
		{"Classic Manicure", models.ServiceManicure},
		{"Eyebrow Wax", models.ServiceOther},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.text))
		})
	}
}

func TestAggregate_MedianAfterRangeFilter(t *testing.T) {
	services := []models.ExtractedService{
		{ServiceType: models.ServiceGel, Price: 30},
		{ServiceType: models.ServiceGel, Price: 40},
		{ServiceType: models.ServiceGel, Price: 999},
		{ServiceType: models.ServicePedicure, Price: 50},
		{ServiceType: models.ServiceOther, Price: 20},
	}

	summary := Aggregate(services, models.DefaultPriceRange())

	assert.Equal(t, 35.0, summary.Prices[models.ServiceGel])
	assert.Equal(t, 50.0, summary.Prices[models.ServicePedicure])
	assert.Len(t, summary.Prices, 2)
	assert.Equal(t, 3, summary.Services)
	assert.InDelta(t, 0.4, summary.Confidence, 1e-9)

	var result models.PriceResult
	summary.Apply(&result)
	require.NotNil(t, result.Gel)
	assert.Equal(t, 35.0, *result.Gel)
	assert.Nil(t, result.Acrylic)
	assert.Equal(t, models.ConfidenceMedium, result.ConfidenceLevel)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 40.0, Median([]float64{50, 30, 40}))
	assert.Equal(t, 35.0, Median([]float64{40, 30}))
}
