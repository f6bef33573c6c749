package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homepageWithLinks = `<html><body>
<nav>
  <a href="/">Home</a>
  <a href="/about-us">About</a>
  <a href="/nail-menu">Menu</a>
  <a href="services.html">Services</a>
  <a href="https://www.luxurynailsspa.com/pricing#gel">Pricing</a>
  <a href="https://luxurynailsspa.com/pricing">Pricing again</a>
  <a href="#services">Jump</a>
  <a href="javascript:void(0)">Open</a>
  <a href="mailto:hello@luxurynailsspa.com">Mail</a>
  <a href="tel:+17405551234">Call</a>
  <a href="https://www.vagaro.com/luxurynails/services">Book</a>
</nav>
</body></html>`

func TestExtractServiceLinks(t *testing.T) {
	links, err := ExtractServiceLinks(homepageWithLinks, "https://luxurynailsspa.com/index.html")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://luxurynailsspa.com/nail-menu",
		"https://luxurynailsspa.com/services.html",
		"https://www.luxurynailsspa.com/pricing",
		"https://luxurynailsspa.com/pricing",
	}, links)
}

func TestExtractServiceLinks_InvalidBase(t *testing.T) {
	_, err := ExtractServiceLinks(homepageWithLinks, "not a url")
	assert.Error(t, err)
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name  string
		links []string
		want  string
	}{
		{"empty", nil, ""},
		{
			"services beats pricing and menu",
			[]string{"https://a.com/menu", "https://a.com/pricing", "https://a.com/our-services"},
			"https://a.com/our-services",
		},
		{
			"pricing beats menu",
			[]string{"https://a.com/nail-menu", "https://a.com/pricing"},
			"https://a.com/pricing",
		},
		{
			"falls back to first link",
			[]string{"https://a.com/nails-gallery", "https://a.com/manicure"},
			"https://a.com/nails-gallery",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectBest(tt.links))
		})
	}
}

func TestSelectMenu(t *testing.T) {
	links := []string{"https://a.com/services", "https://a.com/menu", "https://a.com/spa-menu"}

	assert.Equal(t, "https://a.com/menu", SelectMenu(links, "https://a.com/services"))
	assert.Equal(t, "https://a.com/spa-menu", SelectMenu(links, "https://a.com/menu"))
	assert.Equal(t, "", SelectMenu([]string{"https://a.com/services"}, ""))
}
