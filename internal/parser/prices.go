package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/maltedev/salon-price-scout/internal/models"
)

const maxServiceNameLength = 80

// PriceMatcher finds the representative price in a piece of text. Candidates outside
// the range are skipped, which drops phone fragments, years and quantities.
type PriceMatcher struct {
	r        models.PriceRange
	patterns []*regexp.Regexp
}

func NewPriceMatcher(r models.PriceRange) *PriceMatcher {
	return &PriceMatcher{
		r: r,
		patterns: []*regexp.Regexp{
			// $25-$35, $25 - 35, $25 to $35: lower bound
			regexp.MustCompile(`\$\s?(\d{1,3}(?:\.\d{1,2})?)\s?(?:-|–|—|to)\s?\$?\s?\d{1,3}(?:\.\d{1,2})?\+?`),
			// starting at $40, starts at 40
			regexp.MustCompile(`(?i)(?:starting\s+(?:at|from)|starts\s+at)\s+\$?\s?(\d{1,3}(?:\.\d{1,2})?)`),
			// from $40; a bare "from 10" is usually opening hours
			regexp.MustCompile(`(?i)\bfrom\s+\$\s?(\d{1,3}(?:\.\d{1,2})?)`),
			// $38, $38.00, $38+
			regexp.MustCompile(`\$\s?(\d{1,3}(?:\.\d{1,2})?)\+?`),
			// bare 38.00
			regexp.MustCompile(`\b(\d{2,3}\.\d{2})\b`),
		},
	}
}

func (m *PriceMatcher) Range() models.PriceRange {
	return m.r
}

// Find returns the first in-range price and the matched substring. A range whose
// lower bound is out of range is rejected as a whole, so its upper bound is
// never read as a plain price.
func (m *PriceMatcher) Find(text string) (float64, string, bool) {
	var rejected [][2]int
	for i, pattern := range m.patterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			if overlaps(rejected, loc[0], loc[1]) {
				continue
			}
			price, err := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
			if err != nil {
				continue
			}
			if m.r.Contains(price) {
				return price, text[loc[0]:loc[1]], true
			}
			if i == rangePattern {
				rejected = append(rejected, [2]int{loc[0], loc[1]})
			}
		}
	}
	return 0, "", false
}

// rangePattern is the index of the "$NN-$MM" pattern in PriceMatcher.patterns.
const rangePattern = 0

func overlaps(spans [][2]int, start, end int) bool {
	for _, span := range spans {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}

var (
	pedicurePattern = regexp.MustCompile(`\bpedi(?:cures?|s)?\b`)
	acrylicPattern  = regexp.MustCompile(`\b(?:acrylics?|full\s+set|pink\s*(?:&|and)\s*white)\b`)
	fillPattern     = regexp.MustCompile(`(?:\b([a-z]+)[\s-]+)?\bfill(?:s|-ins?|\s+ins?)?\b(?:[\s-]+([a-z]+))?`)
	dipPattern      = regexp.MustCompile(`\b(?:dip|dipping|powder|sns)\b`)
	gelPattern      = regexp.MustCompile(`\b(?:gel|gels|shellac|gel-x|gelx)\b`)
	manicurePattern = regexp.MustCompile(`\b(?:mani|manis|manicures?)\b`)
	domainPattern   = regexp.MustCompile(`\b(?:mani|manicures?|pedi|pedicures?|gel|gels|shellac|acrylics?|nails?|polish|dip|powder|sns|full\s+set|fills?)\b`)
)

// fill next to one of these ("color fill", "fill-in gel") is a polish refresh,
// not an acrylic fill.
var nonAcrylicFillWords = map[string]struct{}{
	"color":  {},
	"colour": {},
	"gel":    {},
	"polish": {},
}

// Categorize maps a service description onto a category. Precedence:
// pedicure, acrylic, dip, gel, manicure, other.
func Categorize(text string) models.ServiceType {
	lower := strings.ToLower(text)

	switch {
	case pedicurePattern.MatchString(lower):
		return models.ServicePedicure
	case acrylicPattern.MatchString(lower) || hasAcrylicFill(lower):
		return models.ServiceAcrylic
	case dipPattern.MatchString(lower):
		return models.ServiceDip
	case gelPattern.MatchString(lower):
		return models.ServiceGel
	case manicurePattern.MatchString(lower):
		return models.ServiceManicure
	default:
		return models.ServiceOther
	}
}

func hasAcrylicFill(lower string) bool {
	for _, match := range fillPattern.FindAllStringSubmatch(lower, -1) {
		_, before := nonAcrylicFillWords[match[1]]
		_, after := nonAcrylicFillWords[match[2]]
		if !before && !after {
			return true
		}
	}
	return false
}

// HasDomainKeyword reports whether text mentions nail services at all.
func HasDomainKeyword(text string) bool {
	return domainPattern.MatchString(strings.ToLower(text))
}

// CleanServiceName removes the price text and surrounding punctuation and truncates.
func CleanServiceName(text, priceMatch string) string {
	if priceMatch != "" {
		text = strings.Replace(text, priceMatch, " ", 1)
	}
	text = collapseSpace(text)
	text = strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(".:-–—|$•·*,", r)
	})

	runes := []rune(text)
	if len(runes) > maxServiceNameLength {
		text = strings.TrimSpace(string(runes[:maxServiceNameLength]))
	}
	return text
}

// isPlausibleName accepts letters-only service names of reasonable length.
func isPlausibleName(name string) bool {
	n := len([]rune(name))
	if n < 3 || n > 60 {
		return false
	}
	letters := 0
	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsSpace(r) || strings.ContainsRune("&-'/()+.,", r):
		default:
			return false
		}
	}
	return letters >= 3
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func newService(name string, t models.ServiceType, price, confidence float64, source string) models.ExtractedService {
	return models.ExtractedService{
		ServiceName: name,
		ServiceType: t,
		Price:       price,
		Confidence:  confidence,
		Source:      source,
	}
}
