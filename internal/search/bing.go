package search

import (
	"log/slog"

	"github.com/maltedev/salon-price-scout/internal/models"
)

const DefaultBingEndpoint = "https://api.bing.microsoft.com/v7.0/search"

type bingResponse struct {
	WebPages struct {
		Value []struct {
			URL     string `json:"url"`
			Name    string `json:"name"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
}

// NewBing builds a Bing Web Search v7 adapter.
func NewBing(client HTTPClient, cfg ProviderConfig, logger *slog.Logger) *APIProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultBingEndpoint
	}
	p := newAPIProvider(models.ProviderBing, "Ocp-Apim-Subscription-Key", decodeBing, client, cfg, logger)
	p.extra.Set("X-Search-Location", "US")
	return p
}

func decodeBing(body []byte) ([]result, error) {
	var resp bingResponse
	if err := decodeJSON(body, &resp); err != nil {
		return nil, err
	}

	out := make([]result, 0, len(resp.WebPages.Value))
	for _, v := range resp.WebPages.Value {
		if v.URL == "" {
			continue
		}
		out = append(out, result{URL: v.URL, Title: v.Name, Snippet: v.Snippet})
	}
	return out, nil
}
