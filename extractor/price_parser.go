package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Plausibility bounds for extracted price values. Anything outside is
// noise: shipping labels, SKUs, truncated totals.
const (
	minPlausiblePrice = 0.50
	maxPlausiblePrice = 100000
)

// PriceToken is one currency-prefixed numeric substring found in text,
// paired with its normalized value.
type PriceToken struct {
	Raw   string
	Value float64
}

var (
	priceTokenRe    = regexp.MustCompile(`([$€£¥])\s?(\d+(?:[.,]\d+)*)`)
	decimalTailRe   = regexp.MustCompile(`[.,]\d{1,2}$`)
	digitRunRe      = regexp.MustCompile(`^\d{1,3}$`)
	embeddedRunRe   = regexp.MustCompile(`\d{1,3}`)
)

// plausiblePrice filters values no real product price would take.
func plausiblePrice(v float64) bool {
	return v >= minPlausiblePrice && v <= maxPlausiblePrice
}

// ParsePriceTokens extracts every plausible price token from a text string.
func ParsePriceTokens(text string) []PriceToken {
	var tokens []PriceToken
	for _, m := range priceTokenRe.FindAllStringSubmatch(text, -1) {
		value, ok := normalizeNumber(m[2])
		if !ok || !plausiblePrice(value) {
			continue
		}
		tokens = append(tokens, PriceToken{Raw: m[0], Value: value})
	}
	return tokens
}

// normalizeNumber converts a separator-bearing digit string to a float.
// When both comma and dot appear, commas are thousands separators and the
// dot is the decimal point. A lone separator followed by a short trailing
// group (1-2 digits) is a decimal point; otherwise it groups thousands.
func normalizeNumber(num string) (float64, bool) {
	hasComma := strings.Contains(num, ",")
	hasDot := strings.Contains(num, ".")

	switch {
	case hasComma && hasDot:
		num = strings.ReplaceAll(num, ",", "")
	case hasComma:
		num = resolveSingleSeparator(num, ",")
	case hasDot:
		num = resolveSingleSeparator(num, ".")
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func resolveSingleSeparator(num, sep string) string {
	idx := strings.LastIndex(num, sep)
	tail := num[idx+len(sep):]
	if len(tail) >= 1 && len(tail) <= 2 {
		// Decimal separator: keep the last occurrence, drop the rest.
		head := strings.ReplaceAll(num[:idx], sep, "")
		return head + "." + tail
	}
	return strings.ReplaceAll(num, sep, "")
}

// TokensFromElement extracts price tokens from an element, reconstructing
// split superscript cents: markup like $29<sup>99</sup> yields a single
// token "$29.99". Superscript-marked digit runs are removed before the main
// parse so they are not glued onto the integer part.
func TokensFromElement(s *goquery.Selection) []PriceToken {
	base := s.Clone()
	base.Find("sup").Remove()
	base.Find("[style]").Each(func(_ int, d *goquery.Selection) {
		style, _ := d.Attr("style")
		if superscriptStyle(style) && digitRunRe.MatchString(strings.TrimSpace(d.Text())) {
			d.Remove()
		}
	})

	tokens := ParsePriceTokens(base.Text())

	if len(tokens) == 1 && !decimalTailRe.MatchString(tokens[0].Raw) {
		if cents, ok := superscriptCents(s); ok {
			raw := tokens[0].Raw + "." + cents
			if value, ok := normalizeNumber(strings.TrimLeft(raw, "$€£¥ ")); ok && plausiblePrice(value) {
				tokens[0] = PriceToken{Raw: raw, Value: value}
			}
		}
	}

	return tokens
}

// superscriptCents probes for a split decimal part: first descendant
// elements carrying superscript markers, then the immediate next sibling
// when it is an explicit superscript or visually smaller. Returns the digit
// run zero-padded to two digits.
func superscriptCents(s *goquery.Selection) (string, bool) {
	var run string

	s.Find("sup").EachWithBreak(func(_ int, d *goquery.Selection) bool {
		run = embeddedRunRe.FindString(strings.TrimSpace(d.Text()))
		return run == ""
	})
	if run == "" {
		s.Find("[style]").EachWithBreak(func(_ int, d *goquery.Selection) bool {
			style, _ := d.Attr("style")
			if !superscriptStyle(style) {
				return true
			}
			if t := strings.TrimSpace(d.Text()); digitRunRe.MatchString(t) {
				run = t
			}
			return run == ""
		})
	}

	if run == "" {
		next := s.Next()
		if next.Length() > 0 && siblingLooksSuperscript(s, next) {
			if t := strings.TrimSpace(next.Text()); digitRunRe.MatchString(t) {
				run = t
			}
		}
	}

	if run == "" {
		return "", false
	}
	if len(run) == 1 {
		run = "0" + run
	}
	return run, true
}

func siblingLooksSuperscript(s, next *goquery.Selection) bool {
	if goquery.NodeName(next) == "sup" {
		return true
	}
	if style, ok := next.Attr("style"); ok && superscriptStyle(style) {
		return true
	}
	return elementFontSize(next) < elementFontSize(s)
}

func superscriptStyle(style string) bool {
	style = strings.ToLower(style)
	return strings.Contains(style, "vertical-align") || strings.Contains(style, "font-size")
}
