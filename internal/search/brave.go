package search

import (
	"log/slog"

	"github.com/maltedev/salon-price-scout/internal/models"
)

const DefaultBraveEndpoint = "https://api.search.brave.com/res/v1/web/search"

type braveResponse struct {
	Web struct {
		Results []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// NewBrave builds a Brave Search adapter.
func NewBrave(client HTTPClient, cfg ProviderConfig, logger *slog.Logger) *APIProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultBraveEndpoint
	}
	return newAPIProvider(models.ProviderBrave, "X-Subscription-Token", decodeBrave, client, cfg, logger)
}

func decodeBrave(body []byte) ([]result, error) {
	var resp braveResponse
	if err := decodeJSON(body, &resp); err != nil {
		return nil, err
	}

	out := make([]result, 0, len(resp.Web.Results))
	for _, r := range resp.Web.Results {
		if r.URL == "" {
			continue
		}
		out = append(out, result{URL: r.URL, Title: r.Title, Snippet: r.Description})
	}
	return out, nil
}
