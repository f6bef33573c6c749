// Package classifier decides whether a URL points at a business's own website
// or at directory, social or aggregator noise.
package classifier

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/salon-price-scout/internal/models"
)

// BlockedScore is the score reported for hard-blocked domains.
const BlockedScore = -999

// Verdict reason codes.
const (
	ReasonBlocked         = "blocked_domain"
	ReasonInvalidURL      = "invalid_url"
	ReasonInvalidTLD      = "invalid_tld"
	ReasonSuspiciousToken = "suspicious_token"
	ReasonGenericName     = "generic_name"
	ReasonNoContent       = "no_content"
	ReasonBelowThreshold  = "below_threshold"
	ReasonTooFewKeywords  = "too_few_keywords"
	ReasonReal            = "real_business"
)

var ErrInvalidURL = errors.New("invalid URL")

type Config struct {
	RealThreshold int
	MinKeywords   int
	AllowedTLDs   []string
}

func DefaultConfig() Config {
	return Config{
		RealThreshold: 20,
		MinKeywords:   2,
		AllowedTLDs:   []string{"com", "net", "org", "us", "biz", "co", "salon", "spa", "beauty", "nails"},
	}
}

type keyword struct {
	phrase  string
	weight  int
	pattern *regexp.Regexp
}

// Classifier holds only read-only tables after construction; Classify is a pure function
// of its inputs and safe for concurrent use.
type Classifier struct {
	cfg         Config
	allowedTLDs map[string]struct{}
	positive    []keyword
	negative    []keyword
}

func New(cfg Config) *Classifier {
	if cfg.RealThreshold == 0 && cfg.MinKeywords == 0 && len(cfg.AllowedTLDs) == 0 {
		cfg = DefaultConfig()
	}
	if len(cfg.AllowedTLDs) == 0 {
		cfg.AllowedTLDs = DefaultConfig().AllowedTLDs
	}

	tlds := make(map[string]struct{}, len(cfg.AllowedTLDs))
	for _, tld := range cfg.AllowedTLDs {
		tlds[strings.TrimPrefix(strings.ToLower(strings.TrimSpace(tld)), ".")] = struct{}{}
	}

	return &Classifier{
		cfg:         cfg,
		allowedTLDs: tlds,
		positive:    compileKeywords(positiveKeywords),
		negative:    compileKeywords(negativeKeywords),
	}
}

func (c *Classifier) Config() Config {
	return c.cfg
}

// Classify scores a URL and, when html is non-empty, its content.
//
// Hard-blocked and structurally invalid domains are vetoed before any content is looked at.
func (c *Classifier) Classify(rawURL, html string) models.DomainVerdict {
	verdict, ok := c.Prefilter(rawURL)
	if !ok {
		return verdict
	}

	if strings.TrimSpace(html) == "" {
		verdict.Reason = ReasonNoContent
		return verdict
	}

	text := VisibleText(html)

	for _, kw := range c.positive {
		if kw.pattern.MatchString(text) {
			verdict.Score += kw.weight
			verdict.UniquePositiveKeywords++
		}
	}
	for _, kw := range c.negative {
		if kw.pattern.MatchString(text) {
			verdict.Score += kw.weight
		}
	}

	switch {
	case verdict.Score < c.cfg.RealThreshold:
		verdict.Reason = ReasonBelowThreshold
	case verdict.UniquePositiveKeywords < c.cfg.MinKeywords:
		verdict.Reason = ReasonTooFewKeywords
	default:
		verdict.IsReal = true
		verdict.Reason = ReasonReal
	}

	return verdict
}

// Prefilter runs the content-independent checks. The returned bool is false when
// the URL is vetoed; the verdict then carries the reason.
func (c *Classifier) Prefilter(rawURL string) (models.DomainVerdict, bool) {
	host, err := NormalizeHost(rawURL)
	if err != nil {
		return models.DomainVerdict{Score: BlockedScore, Reason: ReasonInvalidURL}, false
	}

	verdict := models.DomainVerdict{Domain: host}

	if IsBlockedHost(host) {
		verdict.Score = BlockedScore
		verdict.Reason = ReasonBlocked
		return verdict, false
	}

	if reason := c.structuralReason(host); reason != "" {
		verdict.Reason = reason
		return verdict, false
	}

	return verdict, true
}

// IsBlocked reports whether the URL's host is on the static deny-list.
func (c *Classifier) IsBlocked(rawURL string) bool {
	host, err := NormalizeHost(rawURL)
	if err != nil {
		return false
	}
	return IsBlockedHost(host)
}

func (c *Classifier) structuralReason(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return ReasonInvalidTLD
	}

	tld := labels[len(labels)-1]
	if _, ok := c.allowedTLDs[tld]; !ok {
		return ReasonInvalidTLD
	}

	name := labels[len(labels)-2]
	if name == "" {
		return ReasonInvalidTLD
	}

	if _, generic := genericWords[name]; generic {
		return ReasonGenericName
	}

	if hasSuspiciousToken(name) {
		return ReasonSuspiciousToken
	}

	return ""
}

// NormalizeHost extracts the lowercase hostname without a leading "www.".
// Scheme-less input such as "facebook.com/luxurynails" is accepted.
func NormalizeHost(rawURL string) (string, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" || raw == "#" {
		return "", ErrInvalidURL
	}
	if i := strings.Index(raw, ":"); i > 0 && !strings.Contains(raw, "://") && !strings.Contains(raw[:i], ".") {
		// mailto:, tel:, javascript: and friends
		return "", ErrInvalidURL
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + strings.TrimPrefix(raw, "//")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}

	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	host = strings.TrimPrefix(host, "www.")
	if host == "" || strings.ContainsAny(host, " _") {
		return "", ErrInvalidURL
	}

	return host, nil
}

// IsBlockedHost reports whether host equals, or is a subdomain of, a deny-listed domain.
func IsBlockedHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, blocked := range blockedDomains {
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}

// HasDirectoryPatterns reports whether page text still reads like a directory listing.
func HasDirectoryPatterns(html string) bool {
	text := VisibleText(html)
	for _, pattern := range directoryPatterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}

// VisibleText returns the lowercase, whitespace-collapsed title, meta description and body text.
func VisibleText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapseSpace(strings.ToLower(html))
	}

	doc.Find("script, style, noscript, template").Remove()

	var b strings.Builder
	b.WriteString(doc.Find("title").First().Text())
	b.WriteString(" ")
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		b.WriteString(desc)
		b.WriteString(" ")
	}
	b.WriteString(doc.Find("body").Text())

	return collapseSpace(strings.ToLower(b.String()))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func hasSuspiciousToken(name string) bool {
	for _, tok := range longSuspiciousTokens {
		if strings.Contains(name, tok) {
			return true
		}
	}

	segments := strings.Split(name, "-")
	for _, tok := range shortSuspiciousTokens {
		for _, seg := range segments {
			if seg == tok {
				return true
			}
		}
		// "findnails", "nailsguide": the token glued to a generic word.
		if rest, ok := strings.CutPrefix(name, tok); ok && isGeneric(rest) {
			return true
		}
		if rest, ok := strings.CutSuffix(name, tok); ok && isGeneric(rest) {
			return true
		}
	}

	return false
}

func isGeneric(s string) bool {
	_, ok := genericWords[strings.Trim(s, "-")]
	return ok
}

func compileKeywords(table map[string]int) []keyword {
	out := make([]keyword, 0, len(table))
	for phrase, weight := range table {
		out = append(out, keyword{
			phrase:  phrase,
			weight:  weight,
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`),
		})
	}
	return out
}
