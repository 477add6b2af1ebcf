package extractor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cartlens/models"
)

// Variant marker attribute distinguishing a sale price from the
// pre-discount original within a price container.
const (
	variantMarkerAttr       = "data-variant"
	discountVariantSelector = `[data-variant="discount"]`
	originalVariantSelector = `[data-variant="original"]`
)

// Name text bounds, exclusive: anything at or below the minimum is a label
// or a fragment, anything at or above the maximum is a description block.
const (
	minNameLength = 10
	maxNameLength = 200
)

const maxPriceTextLength = 50

// Multi-price wrappers longer than this are page sections, not price
// containers.
const maxPriceContainerText = 80

var genericNameSelectors = []string{
	"h1",
	"[itemprop='name']",
	"[data-product-title]",
	".product-title",
	".product-name",
	".product__title",
	".product__name",
	"#product-title",
	"#product-name",
	"[class*='product-title']",
	"[id*='product-name']",
	"h2",
}

var imageExclusionMarkers = []string{"logo", "icon", "avatar", "spinner", "placeholder"}

var whitespaceRe = regexp.MustCompile(`\s+`)

// candidate pairs the outward FieldCandidate with the element it came
// from, so scoring can read layout off the live selection.
type candidate struct {
	models.FieldCandidate
	el *goquery.Selection
}

func cleanText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// scanNames enumerates name candidates under root for the given selector
// cascade. Candidates must be laid out and their text strictly between the
// name length bounds; they are deduplicated by generated selector.
func scanNames(root *goquery.Selection, source models.SearchRootLabel, selectors []string) []candidate {
	var out []candidate
	seen := map[string]bool{}

	for _, sel := range selectors {
		root.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := cleanText(s.Text())
			n := len([]rune(text))
			if n <= minNameLength || n >= maxNameLength {
				return
			}
			if !hasLayout(s) {
				return
			}
			gen := generateSelector(s)
			if seen[gen] {
				return
			}
			seen[gen] = true
			out = append(out, candidate{
				FieldCandidate: models.FieldCandidate{Selector: gen, RawText: s.Text(), Value: text, Source: source},
				el:             s,
			})
		})
	}
	return out
}

// scanConfiguredPrices collects price candidates from a site's configured
// selector, no heuristics involved.
func scanConfiguredPrices(root *goquery.Selection, source models.SearchRootLabel, selector string) []candidate {
	var out []candidate
	seen := map[string]bool{}

	root.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if !isVisible(s) {
			return
		}
		tokens := TokensFromElement(s)
		if len(tokens) == 0 {
			return
		}
		gen := generateSelector(s)
		if seen[gen] {
			return
		}
		seen[gen] = true
		out = append(out, candidate{
			FieldCandidate: models.FieldCandidate{
				Selector: gen,
				RawText:  cleanText(s.Text()),
				Value:    tokens[0].Raw,
				Source:   source,
				Note:     "site selector",
			},
			el: s,
		})
	})
	return out
}

// scanHeuristicPrices enumerates price candidates in three passes, in
// priority order: explicit discount variants, multi-price wrappers, then
// any remaining element with exactly one short visible price text.
// Candidates are deduplicated by generated selector, scoped per discount
// flag.
func scanHeuristicPrices(root *goquery.Selection, source models.SearchRootLabel) []candidate {
	var out []candidate
	seen := map[string]bool{}
	claimed := map[string]bool{}

	add := func(s *goquery.Selection, tok PriceToken, isDiscount bool, note string) {
		gen := generateSelector(s)
		key := fmt.Sprintf("%s|%t", gen, isDiscount)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, candidate{
			FieldCandidate: models.FieldCandidate{
				Selector:   gen,
				RawText:    cleanText(s.Text()),
				Value:      tok.Raw,
				Source:     source,
				IsDiscount: isDiscount,
				Note:       note,
			},
			el: s,
		})
	}

	// Pass 1: elements explicitly marked as the discount variant.
	root.Find(discountVariantSelector).Each(func(_ int, s *goquery.Selection) {
		tokens := TokensFromElement(s)
		if len(tokens) == 0 {
			return
		}
		add(s, lowestToken(tokens), true, "discount variant")
		claimed[generateSelector(s)] = true
	})

	// Pass 2: wrappers whose text holds two or more price tokens. The
	// minimum is the discount candidate, the maximum the original.
	root.Find("*").Each(func(_ int, s *goquery.Selection) {
		gen := generateSelector(s)
		if claimed[gen] || !isVisible(s) {
			return
		}
		if len(cleanText(s.Text())) > maxPriceContainerText {
			return
		}
		tokens := TokensFromElement(s)
		if len(tokens) < 2 || childHoldsMultipleTokens(s) {
			return
		}
		sortTokensAscending(tokens)
		add(s, tokens[0], true, "multi-price wrapper")
		add(s, tokens[len(tokens)-1], false, "multi-price wrapper")
		claimed[gen] = true
		s.Find("*").Each(func(_ int, d *goquery.Selection) {
			claimed[generateSelector(d)] = true
		})
	})

	// Pass 3: any element with exactly one short, visible price-bearing
	// text, skipping what passes 1-2 claimed and anything carrying a
	// variant marker (the original half of a pair pass 1 consumed).
	root.Find("*").Each(func(_ int, s *goquery.Selection) {
		if claimed[generateSelector(s)] {
			return
		}
		if _, marked := s.Attr(variantMarkerAttr); marked {
			return
		}
		if !isVisible(s) {
			return
		}
		text := cleanText(s.Text())
		if text == "" || len(text) >= maxPriceTextLength {
			return
		}
		tokens := TokensFromElement(s)
		if len(tokens) != 1 || childHoldsToken(s) {
			return
		}
		add(s, tokens[0], false, "")
	})

	return out
}

func lowestToken(tokens []PriceToken) PriceToken {
	low := tokens[0]
	for _, t := range tokens[1:] {
		if t.Value < low.Value {
			low = t
		}
	}
	return low
}

func sortTokensAscending(tokens []PriceToken) {
	sort.SliceStable(tokens, func(i, j int) bool { return tokens[i].Value < tokens[j].Value })
}

func childHoldsMultipleTokens(s *goquery.Selection) bool {
	found := false
	s.Children().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if len(TokensFromElement(c)) >= 2 {
			found = true
		}
		return !found
	})
	return found
}

func childHoldsToken(s *goquery.Selection) bool {
	found := false
	s.Children().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if len(TokensFromElement(c)) > 0 {
			found = true
		}
		return !found
	})
	return found
}

// scanImages enumerates visible images with a resolvable source that are
// either eager/high-priority with descriptive alt text or at least 200x200
// logical pixels. Obvious non-product sources are excluded.
func scanImages(root *goquery.Selection, source models.SearchRootLabel, selectors []string) []candidate {
	var out []candidate
	seen := map[string]bool{}

	for _, sel := range selectors {
		root.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if !isVisible(s) {
				return
			}
			src, ok := imageSource(s)
			if !ok {
				return
			}
			lower := strings.ToLower(src)
			for _, marker := range imageExclusionMarkers {
				if strings.Contains(lower, marker) {
					return
				}
			}
			if !imageEligible(s) {
				return
			}
			gen := generateSelector(s)
			if seen[gen] {
				return
			}
			seen[gen] = true
			out = append(out, candidate{
				FieldCandidate: models.FieldCandidate{Selector: gen, RawText: s.AttrOr("alt", ""), Value: src, Source: source},
				el:             s,
			})
		})
	}
	return out
}

func imageEligible(s *goquery.Selection) bool {
	alt := cleanText(s.AttrOr("alt", ""))
	priority := s.AttrOr("fetchpriority", "") == "high" || s.AttrOr("loading", "") == "eager"
	if priority && len([]rune(alt)) > 10 {
		return true
	}
	return elementWidth(s) >= 200 && elementHeight(s) >= 200
}

var hashClassRe = regexp.MustCompile(`^[A-Za-z0-9]{8,}$`)

// machineGeneratedClass reports whether a class token looks like a build
// hash (8+ alphanumerics containing a digit) rather than a human name.
func machineGeneratedClass(cls string) bool {
	return hashClassRe.MatchString(cls) && strings.ContainsAny(cls, "0123456789")
}

// generateSelector produces a stable selector for an element: identifier
// first, then tag plus the first non-hashed class token, then tag with a
// structural position when same-tag siblings make it ambiguous, then the
// bare tag. Regenerating against the same tree yields the same string.
func generateSelector(s *goquery.Selection) string {
	if id := strings.TrimSpace(s.AttrOr("id", "")); id != "" {
		return "#" + id
	}
	tag := goquery.NodeName(s)
	for _, cls := range strings.Fields(s.AttrOr("class", "")) {
		if machineGeneratedClass(cls) {
			continue
		}
		return tag + "." + cls
	}
	if s.Parent().ChildrenFiltered(tag).Length() > 1 {
		pos := s.PrevAllFiltered(tag).Length() + 1
		return fmt.Sprintf("%s:nth-of-type(%d)", tag, pos)
	}
	return tag
}
