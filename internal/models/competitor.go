package models

import (
	"strings"
)

// CompetitorStub is the input unit of a batch: a nearby business as returned by the places lookup.
type CompetitorStub struct {
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	Phone        *string `json:"phone,omitempty"`
	KnownWebsite *string `json:"website,omitempty"`
	PriceLevel   *int    `json:"price_level,omitempty"`
}

// Website returns the known website or "" when absent.
func (c CompetitorStub) Website() string {
	if c.KnownWebsite == nil {
		return ""
	}
	return strings.TrimSpace(*c.KnownWebsite)
}

// PhoneNumber returns the phone number or "" when absent.
func (c CompetitorStub) PhoneNumber() string {
	if c.Phone == nil {
		return ""
	}
	return strings.TrimSpace(*c.Phone)
}

// City guesses the city part of a US-style address ("135 S Main St, Mount Vernon, OH").
func (c CompetitorStub) City() string {
	parts := strings.Split(c.Address, ",")
	if len(parts) >= 3 {
		return strings.TrimSpace(parts[len(parts)-2])
	}
	if len(parts) == 2 {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func (c CompetitorStub) Validate() []string {
	var errors []string

	if strings.TrimSpace(c.Name) == "" {
		errors = append(errors, "name is required")
	}

	if c.PriceLevel != nil && (*c.PriceLevel < 1 || *c.PriceLevel > 4) {
		errors = append(errors, "price_level must be between 1 and 4")
	}

	return errors
}

// DuplicateName returns the first name that appears twice. Results are keyed by
// name, so a batch with duplicates would lose entries.
func DuplicateName(competitors []CompetitorStub) (string, bool) {
	seen := make(map[string]struct{}, len(competitors))
	for _, c := range competitors {
		if _, dup := seen[c.Name]; dup {
			return c.Name, true
		}
		seen[c.Name] = struct{}{}
	}
	return "", false
}

type SearchProvider string

const (
	ProviderBing  SearchProvider = "bing"
	ProviderBrave SearchProvider = "brave"
)

// SearchCandidate is one ranked result of a web search. Rank is 1-based and provider-local.
type SearchCandidate struct {
	URL            string         `json:"url"`
	Title          string         `json:"title"`
	Snippet        string         `json:"snippet"`
	SourceProvider SearchProvider `json:"source_provider"`
	Rank           int            `json:"rank"`
}

// DomainVerdict is the classifier output for a single URL.
type DomainVerdict struct {
	Domain                 string `json:"domain"`
	Score                  int    `json:"score"`
	IsReal                 bool   `json:"is_real"`
	Reason                 string `json:"reason"`
	UniquePositiveKeywords int    `json:"unique_positive_keywords"`
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceForScore maps a discovery score onto the three-step scale.
func ConfidenceForScore(score int) Confidence {
	switch {
	case score >= 40:
		return ConfidenceHigh
	case score >= 25:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// DiscoveredWebsite is the result of one discovery call. It is not mutated after construction.
type DiscoveredWebsite struct {
	Homepage     *string    `json:"homepage,omitempty"`
	ServicesPage *string    `json:"services_page,omitempty"`
	MenuPage     *string    `json:"menu_page,omitempty"`
	Confidence   Confidence `json:"confidence"`
	Score        int        `json:"score"`
	Success      bool       `json:"success"`
	JSRendered   bool       `json:"js_rendered,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}

// HomepageURL returns the homepage or "" when discovery failed.
func (d DiscoveredWebsite) HomepageURL() string {
	if d.Homepage == nil {
		return ""
	}
	return *d.Homepage
}

func StringPtr(s string) *string {
	return &s
}

func IntPtr(i int) *int {
	return &i
}

func FloatPtr(f float64) *float64 {
	return &f
}
