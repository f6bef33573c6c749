package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/salon-price-scout/internal/models"
)

const (
	SourceTableRow    = "table-row"
	SourceListItem    = "list-item"
	SourceLeafElement = "leaf-element"
	SourceLinePair    = "line-pair"
)

// TableRowStrategy reads price tables: the first cell is the service name.
type TableRowStrategy struct {
	Prices *PriceMatcher
}

func (s *TableRowStrategy) Name() string { return SourceTableRow }

func (s *TableRowStrategy) Extract(doc *goquery.Document) []models.ExtractedService {
	var out []models.ExtractedService

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td, th")
		if cells.Length() == 0 {
			return
		}

		parts := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			parts = append(parts, cell.Text())
		})
		rowText := collapseSpace(strings.Join(parts, " "))

		price, match, ok := s.Prices.Find(rowText)
		if !ok {
			return
		}

		name := collapseSpace(cells.First().Text())
		if cells.Length() == 1 {
			name = CleanServiceName(rowText, match)
		}
		if !isPlausibleName(name) {
			return
		}

		t := Categorize(name)
		if t == models.ServiceOther {
			t = Categorize(rowText)
		}
		out = append(out, newService(name, t, price, 0.9, SourceTableRow))
	})

	return out
}

// ListItemStrategy reads <li> entries that carry both a price and a nail keyword,
// which keeps navigation menus out.
type ListItemStrategy struct {
	Prices *PriceMatcher
}

func (s *ListItemStrategy) Name() string { return SourceListItem }

func (s *ListItemStrategy) Extract(doc *goquery.Document) []models.ExtractedService {
	var out []models.ExtractedService

	doc.Find("li").Each(func(_ int, item *goquery.Selection) {
		if item.Find("li").Length() > 0 {
			return
		}

		text := collapseSpace(item.Text())
		if text == "" || len(text) > 200 || !HasDomainKeyword(text) {
			return
		}

		price, match, ok := s.Prices.Find(text)
		if !ok {
			return
		}

		name := CleanServiceName(text, match)
		if len(name) < 3 {
			return
		}
		out = append(out, newService(name, Categorize(text), price, 0.8, SourceListItem))
	})

	return out
}

// LeafElementStrategy looks at text-bearing elements with few children. Only the
// element's own text nodes count, so a name and a price in sibling elements are
// not joined here.
type LeafElementStrategy struct {
	Prices *PriceMatcher
}

const leafSelector = "h1, h2, h3, h4, h5, h6, p, span, div, dt, dd, strong, b, em, label"

func (s *LeafElementStrategy) Name() string { return SourceLeafElement }

func (s *LeafElementStrategy) Extract(doc *goquery.Document) []models.ExtractedService {
	var out []models.ExtractedService

	doc.Find(leafSelector).Each(func(_ int, el *goquery.Selection) {
		if el.Children().Length() > 3 {
			return
		}

		text := OwnText(el)
		if text == "" || len(text) > 200 || !HasDomainKeyword(text) {
			return
		}

		price, match, ok := s.Prices.Find(text)
		if !ok {
			return
		}

		name := CleanServiceName(text, match)
		if len(name) < 4 {
			if prev := collapseSpace(el.Prev().Text()); prev != "" && len(prev) <= maxServiceNameLength {
				name = CleanServiceName(prev, "")
			}
		}
		if len(name) < 3 {
			return
		}

		t := Categorize(text)
		if t == models.ServiceOther {
			t = Categorize(name)
		}
		out = append(out, newService(name, t, price, 0.6, SourceLeafElement))
	})

	return out
}

// LinePairStrategy works on visible text split into lines. A price line without
// a service keyword is paired with the line before it, which recovers names and
// prices rendered in separate elements.
type LinePairStrategy struct {
	Prices *PriceMatcher
}

func (s *LinePairStrategy) Name() string { return SourceLinePair }

func (s *LinePairStrategy) Extract(doc *goquery.Document) []models.ExtractedService {
	return s.FromLines(VisibleLines(doc))
}

func (s *LinePairStrategy) FromLines(lines []string) []models.ExtractedService {
	var out []models.ExtractedService

	for i, line := range lines {
		price, match, ok := s.Prices.Find(line)
		if !ok {
			continue
		}

		own := CleanServiceName(line, match)

		var name, context string
		switch {
		case HasDomainKeyword(own):
			name, context = own, own
		case i > 0:
			prev := lines[i-1]
			if _, _, prevPriced := s.Prices.Find(prev); prevPriced {
				continue
			}
			context = prev + " " + line
			if !HasDomainKeyword(context) {
				continue
			}
			name = CleanServiceName(prev, "")
		default:
			continue
		}

		if len(name) < 3 {
			continue
		}
		out = append(out, newService(name, Categorize(context), price, 0.5, SourceLinePair))
	}

	return out
}
