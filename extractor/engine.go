package extractor

import (
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"cartlens/config"
	"cartlens/models"
)

// Engine extracts product data from rendered page snapshots. It is
// stateless apart from the injected selector table and safe for concurrent
// use.
type Engine struct {
	table *config.SelectorTable
	now   func() time.Time
}

func NewEngine(table *config.SelectorTable) *Engine {
	return &Engine{table: table, now: time.Now}
}

func (e *Engine) Table() *config.SelectorTable { return e.table }

// Classify runs the product-page gate alone, without extraction.
func (e *Engine) Classify(doc *goquery.Document) models.PageClassification {
	return DetectProductPage(doc)
}

// Extract runs the full pipeline against a rendered snapshot: domain
// lookup, product-page gate, mode dispatch, per-field extraction with
// heuristic fallback, and record assembly. Fields that cannot be resolved
// come back nil; only a record with no fields at all is an error.
func (e *Engine) Extract(doc *goquery.Document, pageURL string) (rec *models.ProductRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = &models.UnknownExtractionError{Err: fmt.Errorf("panic during extraction: %v", r)}
		}
	}()

	parsed, perr := url.Parse(pageURL)
	if perr != nil || parsed.Hostname() == "" {
		return nil, &models.UnknownExtractionError{Err: fmt.Errorf("invalid page url %q: %v", pageURL, perr)}
	}

	site, domain, ok := e.table.Lookup(parsed.Hostname())
	if !ok {
		return nil, &models.SiteNotSupportedError{
			Domain:         parsed.Hostname(),
			SupportedSites: e.table.Domains(),
			SitesByGroup:   e.table.FormatGroups(),
		}
	}

	cls := DetectProductPage(doc)
	if !cls.IsProductPage {
		return nil, &models.NotProductPageError{Confidence: cls.Confidence, Indicators: cls.Indicators}
	}

	// Guarded flagships require their configured title and price elements
	// to actually be present and laid out; a category or search page on
	// the same domain fails here even when it clears the classifier.
	if site.Mode == config.ModeGuarded && !guardSatisfied(doc, site) {
		return nil, &models.NotProductPageError{
			Confidence: cls.Confidence,
			Indicators: append(cls.Indicators, "configured title or price element missing"),
		}
	}

	roots := searchRoots(doc)

	name, hasName := e.bestName(roots, site)
	price, hasPrice := e.bestPrice(doc, roots, site, name, hasName)
	image, hasImage := e.bestImage(roots, site)

	record := &models.ProductRecord{
		Site:      domain,
		URL:       pageURL,
		Timestamp: e.now().UTC().Format(time.RFC3339),
	}
	if hasName {
		v := name.Value
		record.Name = &v
	}
	if hasPrice {
		v := price.Value
		record.Price = &v
		record.IsDiscounted = price.IsDiscount
	}
	if hasImage {
		v := image.Value
		record.Image = &v
	}
	if !record.HasAnyField() {
		return nil, &models.EmptyExtractionError{URL: pageURL}
	}
	return record, nil
}

// guardSatisfied checks that a guarded site's configured name and price
// selectors both match usable elements somewhere on the page.
func guardSatisfied(doc *goquery.Document, site config.SiteSelectors) bool {
	nameOK := false
	doc.Find(site.Name).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if hasLayout(s) && cleanText(s.Text()) != "" {
			nameOK = true
		}
		return !nameOK
	})
	if !nameOK {
		return false
	}

	priceOK := false
	doc.Find(site.Price).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(TokensFromElement(s)) > 0 {
			priceOK = true
		}
		return !priceOK
	})
	return priceOK
}

// bestName resolves the product name: configured selector first, then the
// generic heading cascade. Modal candidates outrank main-document ones.
func (e *Engine) bestName(roots []searchRoot, site config.SiteSelectors) (candidate, bool) {
	if site.Name != "" {
		if c, ok := pickBest(roots, func(r searchRoot) []candidate {
			return scoreNames(scanNames(r.sel, r.label, []string{site.Name}))
		}); ok {
			return c, true
		}
	}
	return pickBest(roots, func(r searchRoot) []candidate {
		return scoreNames(scanNames(r.sel, r.label, genericNameSelectors))
	})
}

// bestPrice resolves the price. Discount-aware sites run container
// resolution on the configured selector first; every site then falls
// through configured-selector extraction, the heuristic scanner, and
// finally the whole-page positional fallback.
func (e *Engine) bestPrice(doc *goquery.Document, roots []searchRoot, site config.SiteSelectors, name candidate, hasName bool) (candidate, bool) {
	if site.Mode == config.ModeDiscount && site.Price != "" {
		if c, ok := e.resolveDiscountPrice(roots, site.Price); ok {
			return c, true
		}
	}
	if site.Price != "" {
		if c, ok := pickBest(roots, func(r searchRoot) []candidate {
			return scorePrices(scanConfiguredPrices(r.sel, r.label, site.Price))
		}); ok {
			return c, true
		}
	}
	if c, ok := pickBest(roots, func(r searchRoot) []candidate {
		return scorePrices(scanHeuristicPrices(r.sel, r.label))
	}); ok {
		return c, true
	}
	return e.fallbackPrice(doc, name, hasName)
}

// resolveDiscountPrice runs the discount state machine over each
// configured price container, modal root first, and converts the first
// terminal resolution into a candidate.
func (e *Engine) resolveDiscountPrice(roots []searchRoot, selector string) (candidate, bool) {
	for _, root := range roots {
		var out candidate
		found := false
		root.sel.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			pair, state := resolveContainerPrice(s)
			switch state {
			case DiscountFound:
				out = candidate{
					FieldCandidate: models.FieldCandidate{
						Selector:   generateSelector(s),
						RawText:    cleanText(s.Text()),
						Value:      pair.Discount.Raw,
						Source:     root.label,
						IsDiscount: true,
						Note:       "discount resolution",
					},
					el: s,
				}
				found = true
			case OriginalFound:
				out = candidate{
					FieldCandidate: models.FieldCandidate{
						Selector: generateSelector(s),
						RawText:  cleanText(s.Text()),
						Value:    pair.Original.Raw,
						Source:   root.label,
						Note:     "discount resolution",
					},
					el: s,
				}
				found = true
			}
			return !found
		})
		if found {
			out.Score = scorePrice(out.el, &out.FieldCandidate, mustParseValue(out.Value))
			return out, true
		}
	}
	return candidate{}, false
}

// fallbackPrice is the whole-page positional scan used when nothing else
// produced a price: every visible element with exactly one short price
// token is ranked (lower is better) and the best one wins.
func (e *Engine) fallbackPrice(doc *goquery.Document, name candidate, hasName bool) (candidate, bool) {
	nameTop := 0.0
	if hasName {
		nameTop = elementTop(name.el)
	}

	var best candidate
	bestRank := 0.0
	found := false

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
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
		rank := rankFallbackPrice(doc, s, tokens[0].Value, nameTop, hasName)
		if !found || rank < bestRank {
			found = true
			bestRank = rank
			best = candidate{
				FieldCandidate: models.FieldCandidate{
					Selector: generateSelector(s),
					RawText:  text,
					Value:    tokens[0].Raw,
					Source:   models.SourceMain,
					Note:     "full-page fallback",
				},
				el: s,
			}
		}
	})
	return best, found
}

// bestImage resolves the product image: configured selector first, then
// any eligible img on the page.
func (e *Engine) bestImage(roots []searchRoot, site config.SiteSelectors) (candidate, bool) {
	if site.Image != "" {
		if c, ok := pickBest(roots, func(r searchRoot) []candidate {
			return scoreImages(scanImages(r.sel, r.label, []string{site.Image}))
		}); ok {
			return c, true
		}
	}
	return pickBest(roots, func(r searchRoot) []candidate {
		return scoreImages(scanImages(r.sel, r.label, []string{"img"}))
	})
}

// pickBest gathers candidates across all roots and returns the top-sorted
// one.
func pickBest(roots []searchRoot, scan func(searchRoot) []candidate) (candidate, bool) {
	var all []candidate
	for _, root := range roots {
		all = append(all, scan(root)...)
	}
	if len(all) == 0 {
		return candidate{}, false
	}
	sortCandidates(all)
	return all[0], true
}

func scoreNames(cands []candidate) []candidate {
	for i := range cands {
		cands[i].Score = scoreName(cands[i].el, cands[i].Value)
	}
	return cands
}

func scorePrices(cands []candidate) []candidate {
	for i := range cands {
		cands[i].Score = scorePrice(cands[i].el, &cands[i].FieldCandidate, mustParseValue(cands[i].Value))
	}
	return cands
}

func scoreImages(cands []candidate) []candidate {
	for i := range cands {
		cands[i].Score = scoreImage(cands[i].el, cands[i].Value)
	}
	return cands
}

// mustParseValue recovers the numeric value from a candidate's raw token
// text. Candidates always carry a token produced by the parser, so a
// failed re-parse just yields zero and the value-range bonuses stay off.
func mustParseValue(raw string) float64 {
	tokens := ParsePriceTokens(raw)
	if len(tokens) == 0 {
		return 0
	}
	return tokens[0].Value
}
