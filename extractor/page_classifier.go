package extractor

import (
	"math"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cartlens/models"
)

// Product-page gate: a fixed checklist of weighted signals summed against
// maxSignalPoints. Pages scoring below productPageThreshold are not product
// pages, which is a terminal classification rather than a low-confidence
// extraction.
const (
	maxSignalPoints      = 20
	productPageThreshold = 6
)

var purchaseActionRe = regexp.MustCompile(`(?i)add\s+to\s+(cart|bag|basket)|buy\s+now|checkout`)

type pageSignal struct {
	name    string
	points  int
	present func(doc *goquery.Document) bool
}

var productSignals = []pageSignal{
	{"schema.org product markup", 5, func(doc *goquery.Document) bool {
		return doc.Find(`[itemtype*='schema.org/Product']`).Length() > 0
	}},
	{"product structured data script", 5, func(doc *goquery.Document) bool {
		found := false
		doc.Find(`script[type='application/ld+json']`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if strings.Contains(s.Text(), `"Product"`) {
				found = true
			}
			return !found
		})
		return found
	}},
	{"product-identifying attributes", 3, func(doc *goquery.Document) bool {
		return doc.Find(`[data-product-id], [data-sku], [itemprop='sku'], [data-asin], #productTitle, #product-title`).Length() > 0
	}},
	{"visible price elements", 3, func(doc *goquery.Document) bool {
		found := false
		doc.Find(`[class*='price'], [id*='price'], [data-price], [itemprop='price']`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if isVisible(s) && len(TokensFromElement(s)) > 0 {
				found = true
			}
			return !found
		})
		return found
	}},
	{"purchase action control", 4, func(doc *goquery.Document) bool {
		found := false
		doc.Find("button, input[type='submit'], a[role='button'], [data-testid*='add-to-cart'], #add-to-cart").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			probe := s.Text() + " " + s.AttrOr("value", "") + " " + s.AttrOr("id", "") + " " + s.AttrOr("name", "") + " " + s.AttrOr("aria-label", "")
			if purchaseActionRe.MatchString(probe) {
				found = true
			}
			return !found
		})
		return found
	}},
	{"large product images", 2, func(doc *goquery.Document) bool {
		found := false
		doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !isVisible(s) {
				return true
			}
			src, ok := imageSource(s)
			if !ok {
				return true
			}
			lower := strings.ToLower(src)
			for _, marker := range imageExclusionMarkers {
				if strings.Contains(lower, marker) {
					return true
				}
			}
			if elementWidth(s) >= 200 && elementHeight(s) >= 200 {
				found = true
			}
			return !found
		})
		return found
	}},
	{"plausible title heading", 2, func(doc *goquery.Document) bool {
		found := false
		doc.Find("h1, h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			n := len([]rune(cleanText(s.Text())))
			if n > minNameLength && n < maxNameLength {
				found = true
			}
			return !found
		})
		return found
	}},
	{"quantity selector", 1, func(doc *goquery.Document) bool {
		return doc.Find(`select[name*='quantity'], input[name*='quantity'], select#quantity, [data-testid*='quantity']`).Length() > 0
	}},
	{"review or rating markup", 1, func(doc *goquery.Document) bool {
		return doc.Find(`[itemprop='aggregateRating'], [class*='rating'], [id*='review'], [class*='review']`).Length() > 0
	}},
	{"variant selector", 1, func(doc *goquery.Document) bool {
		return doc.Find(`select[name*='size'], select[name*='color'], [data-variant-picker], [class*='swatch']`).Length() > 0
	}},
}

// DetectProductPage scores a document against the product signal checklist.
func DetectProductPage(doc *goquery.Document) models.PageClassification {
	score := 0
	var indicators []string
	for _, sig := range productSignals {
		if sig.present(doc) {
			score += sig.points
			indicators = append(indicators, sig.name)
		}
	}
	return models.PageClassification{
		IsProductPage: score >= productPageThreshold,
		Confidence:    int(math.Round(100 * float64(score) / maxSignalPoints)),
		Score:         score,
		Indicators:    indicators,
	}
}
