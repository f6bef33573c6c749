package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var serviceLinkKeywords = []string{
	"service", "services", "menu", "price", "pricing", "prices", "price-list",
	"nail", "nails", "manicure", "pedicure",
}

// linkPriority orders keywords for SelectBest, most specific first.
var linkPriority = []string{
	"services", "pricing", "price-list", "menu", "prices", "price", "service",
	"nails", "nail", "manicure", "pedicure",
}

// ExtractServiceLinks returns same-site links whose path looks like a services or
// pricing page, resolved against baseURL, in document order and deduplicated.
func ExtractServiceLinks(html, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	baseHost := siteHost(base.Hostname())
	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if skipHref(href) {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if siteHost(resolved.Hostname()) != baseHost {
			return
		}

		if !hasLinkKeyword(linkText(resolved)) {
			return
		}

		resolved.Fragment = ""
		resolved.RawFragment = ""
		abs := resolved.String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	return links, nil
}

// SelectBest returns the first link matching the highest-priority keyword, the
// first link when none matches, or "" for an empty list.
func SelectBest(links []string) string {
	if len(links) == 0 {
		return ""
	}
	for _, kw := range linkPriority {
		for _, link := range links {
			if strings.Contains(pathOf(link), kw) {
				return link
			}
		}
	}
	return links[0]
}

// SelectMenu returns the first menu link other than exclude, or "".
func SelectMenu(links []string, exclude string) string {
	for _, link := range links {
		if link != exclude && strings.Contains(pathOf(link), "menu") {
			return link
		}
	}
	return ""
}

func skipHref(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "sms:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func hasLinkKeyword(text string) bool {
	for _, kw := range serviceLinkKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// linkText is the part of a URL keywords are matched against. The host is left
// out since salon domains routinely contain "nails".
func linkText(u *url.URL) string {
	text := strings.ToLower(u.Path)
	if u.RawQuery != "" {
		text += "?" + strings.ToLower(u.RawQuery)
	}
	return text
}

func pathOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return strings.ToLower(link)
	}
	return linkText(u)
}

func siteHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
