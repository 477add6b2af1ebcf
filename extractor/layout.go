package extractor

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Layout annotation attributes stamped onto the DOM by the snapshot
// capturer. Pages submitted without annotations (e.g. raw extension
// snapshots) fall back to inline styles, then tag attributes, then
// defaults, via the ordered accessor strategies below.
const (
	attrTop       = "data-cl-top"
	attrLeft      = "data-cl-left"
	attrWidth     = "data-cl-w"
	attrHeight    = "data-cl-h"
	attrFontSize  = "data-cl-fs"
	attrZIndex    = "data-cl-z"
	attrHidden    = "data-cl-hidden"
	attrViewportW = "data-cl-vw"
	attrViewportH = "data-cl-vh"
)

const (
	defaultFontSize   = 16
	defaultViewportW  = 1920
	defaultViewportH  = 1080
)

// numericAccessor is one strategy for reading a numeric layout property off
// an element. Strategies are tried in order; the first that yields a value
// wins.
type numericAccessor func(s *goquery.Selection) (float64, bool)

func fromAnnotation(attr string) numericAccessor {
	return func(s *goquery.Selection) (float64, bool) {
		if v, ok := s.Attr(attr); ok {
			return parsePx(v)
		}
		return 0, false
	}
}

func fromInlineStyle(prop string) numericAccessor {
	return func(s *goquery.Selection) (float64, bool) {
		if v, ok := styleProperty(s, prop); ok {
			return parsePx(v)
		}
		return 0, false
	}
}

func fromTagAttr(attr string) numericAccessor {
	return func(s *goquery.Selection) (float64, bool) {
		if v, ok := s.Attr(attr); ok {
			return parsePx(v)
		}
		return 0, false
	}
}

func readNumeric(s *goquery.Selection, def float64, accessors ...numericAccessor) float64 {
	for _, acc := range accessors {
		if v, ok := acc(s); ok {
			return v
		}
	}
	return def
}

// elementTop returns the vertical document offset in CSS pixels, 0 when the
// snapshot carries no layout information.
func elementTop(s *goquery.Selection) float64 {
	return readNumeric(s, 0, fromAnnotation(attrTop), fromInlineStyle("top"))
}

func elementLeft(s *goquery.Selection) float64 {
	return readNumeric(s, 0, fromAnnotation(attrLeft), fromInlineStyle("left"))
}

func elementWidth(s *goquery.Selection) float64 {
	return readNumeric(s, 0, fromAnnotation(attrWidth), fromInlineStyle("width"), fromTagAttr("width"))
}

func elementHeight(s *goquery.Selection) float64 {
	return readNumeric(s, 0, fromAnnotation(attrHeight), fromInlineStyle("height"), fromTagAttr("height"))
}

func elementFontSize(s *goquery.Selection) float64 {
	return readNumeric(s, defaultFontSize, fromAnnotation(attrFontSize), fromInlineStyle("font-size"))
}

func elementZIndex(s *goquery.Selection) float64 {
	return readNumeric(s, 0, fromAnnotation(attrZIndex), fromInlineStyle("z-index"))
}

// isVisible reports whether an element is rendered: not display:none, not
// visibility:hidden, no hidden attribute or annotation. Elements without
// any layout information are assumed visible.
func isVisible(s *goquery.Selection) bool {
	if v, ok := s.Attr(attrHidden); ok && (v == "1" || v == "true") {
		return false
	}
	if _, ok := s.Attr("hidden"); ok {
		return false
	}
	if v, ok := styleProperty(s, "display"); ok && v == "none" {
		return false
	}
	if v, ok := styleProperty(s, "visibility"); ok && v == "hidden" {
		return false
	}
	return true
}

// hasLayout reports whether an element participates in layout: visible and
// attached to a parent node.
func hasLayout(s *goquery.Selection) bool {
	return isVisible(s) && s.Parent().Length() > 0
}

func viewportWidth(doc *goquery.Document) float64 {
	if v, ok := doc.Find("html").Attr(attrViewportW); ok {
		if w, ok := parsePx(v); ok && w > 0 {
			return w
		}
	}
	return defaultViewportW
}

func viewportHeight(doc *goquery.Document) float64 {
	if v, ok := doc.Find("html").Attr(attrViewportH); ok {
		if h, ok := parsePx(v); ok && h > 0 {
			return h
		}
	}
	return defaultViewportH
}

// styleProperty extracts one property value from an inline style attribute.
func styleProperty(s *goquery.Selection, prop string) (string, bool) {
	style, ok := s.Attr("style")
	if !ok {
		return "", false
	}
	for _, decl := range strings.Split(style, ";") {
		name, value, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), prop) {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

func parsePx(v string) (float64, bool) {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// imageSourceStrategy resolves an image URL from one place an e-commerce
// page might keep it: the plain src, a lazy-load data attribute, or a
// platform-specific dynamic-image JSON blob.
type imageSourceStrategy struct {
	name    string
	resolve func(s *goquery.Selection) (string, bool)
}

var imageSourceStrategies = []imageSourceStrategy{
	{"src", plainAttr("src")},
	{"data-src", plainAttr("data-src")},
	{"data-lazy-src", plainAttr("data-lazy-src")},
	{"data-original", plainAttr("data-original")},
	{"srcset", firstSrcsetURL("srcset")},
	{"data-srcset", firstSrcsetURL("data-srcset")},
	{"data-a-dynamic-image", dynamicImageJSON},
}

func plainAttr(attr string) func(s *goquery.Selection) (string, bool) {
	return func(s *goquery.Selection) (string, bool) {
		v := strings.TrimSpace(s.AttrOr(attr, ""))
		if v == "" || strings.HasPrefix(v, "data:") {
			return "", false
		}
		return v, true
	}
}

func firstSrcsetURL(attr string) func(s *goquery.Selection) (string, bool) {
	return func(s *goquery.Selection) (string, bool) {
		v := strings.TrimSpace(s.AttrOr(attr, ""))
		if v == "" {
			return "", false
		}
		first := strings.TrimSpace(strings.Split(v, ",")[0])
		url := strings.Fields(first)
		if len(url) == 0 || strings.HasPrefix(url[0], "data:") {
			return "", false
		}
		return url[0], true
	}
}

// dynamicImageJSON handles the Amazon-style attribute whose value is a JSON
// object keyed by image URL.
func dynamicImageJSON(s *goquery.Selection) (string, bool) {
	v := strings.TrimSpace(s.AttrOr("data-a-dynamic-image", ""))
	if v == "" {
		return "", false
	}
	var blob map[string][]float64
	if err := json.Unmarshal([]byte(v), &blob); err != nil {
		return "", false
	}
	// Pick the largest by declared width so the primary rendition wins.
	var best string
	var bestW float64
	for url, dims := range blob {
		if len(dims) > 0 && dims[0] > bestW {
			best, bestW = url, dims[0]
		}
	}
	if best == "" {
		for url := range blob {
			best = url
			break
		}
	}
	return best, best != ""
}

// imageSource resolves an element's image URL, trying each accessor
// strategy in sequence and stopping at the first success.
func imageSource(s *goquery.Selection) (string, bool) {
	for _, strat := range imageSourceStrategies {
		if url, ok := strat.resolve(s); ok {
			return url, true
		}
	}
	return "", false
}
