package config

import (
	"fmt"
	"sort"
	"strings"
)

// Extraction modes per registered site. Flagship sites get a hand-tuned
// path; everything else goes through the generic heuristics.
const (
	ModeGuarded  = "guarded"  // requires both a title and a price element before extracting
	ModeLenient  = "lenient"  // trusts the classifier gate, never re-blocks
	ModeDiscount = "discount" // runs discount resolution on the price container first
	ModeGeneric  = "generic"  // configured selectors with per-field heuristic fallback
)

// SiteSelectors holds the comma-joined selector groups for one registered
// domain. Empty selector strings are valid: the site is supported but each
// empty field relies entirely on the heuristic scanners.
type SiteSelectors struct {
	Name  string
	Price string
	Image string
	Mode  string
	// SampleURL is an optional product page used by the selector drift
	// auditor to verify the selectors still match.
	SampleURL string
}

// SelectorTable is the immutable domain-to-selectors mapping injected into
// the extraction engine at construction time. Lookups are pure functions of
// (domain, table); nothing mutates the table after load.
type SelectorTable struct {
	sites map[string]SiteSelectors
}

// DefaultTable returns the built-in selector table.
func DefaultTable() *SelectorTable {
	return &SelectorTable{sites: map[string]SiteSelectors{
		"amazon.com": {
			Name:      "#productTitle",
			Price:     "#corePrice_feature_div .a-price .a-offscreen, .a-price .a-offscreen, .a-price-whole",
			Image:     "#landingImage, #imgBlkFront",
			Mode:      ModeGuarded,
			SampleURL: "https://www.amazon.com/dp/B09V3KXJPB",
		},
		"ebay.com": {
			Name:      "h1.x-item-title__mainTitle span, .x-item-title span",
			Price:     ".x-price-primary span, [itemprop='price']",
			Image:     ".ux-image-carousel-item img, #icImg",
			Mode:      ModeLenient,
			SampleURL: "https://www.ebay.com/itm/334556789012",
		},
		"walmart.com": {
			Name:      "h1[itemprop='name'], #main-title",
			Price:     "[itemprop='price'], [data-testid='price-wrap'] span",
			Image:     "[data-testid='hero-image'] img",
			Mode:      ModeDiscount,
			SampleURL: "https://www.walmart.com/ip/123456789",
		},
		"etsy.com": {
			Name:  "h1[data-buy-box-listing-title], h1.wt-text-body-01",
			Price: "[data-buy-box-region='price'] .wt-text-title-larger, p.wt-text-title-larger",
			Image: ".listing-page-image img, [data-carousel-first-image] img",
			Mode:  ModeGeneric,
		},
		"bestbuy.com": {
			Name:  ".sku-title h1, h1.heading-5",
			Price: ".priceView-customer-price span, [data-testid='customer-price'] span",
			Image: ".primary-image, img.primary-image-grid",
			Mode:  ModeGeneric,
		},
		"target.com": {
			Name:  "h1[data-test='product-title']",
			Price: "[data-test='product-price']",
			Image: "[data-test='image-gallery-item-0'] img",
			Mode:  ModeGeneric,
		},
		// Registered with no selectors: supported, heuristics-only. This is
		// deliberately distinct from an unregistered domain.
		"aliexpress.com": {Mode: ModeGeneric},
		"shein.com":      {Mode: ModeGeneric},
	}}
}

// Lookup resolves a hostname to its selector configuration. Exact hostname
// match wins; otherwise the two-label registrable domain is tried, so
// "smile.amazon.com" resolves to "amazon.com". The returned string is the
// table key that matched.
func (t *SelectorTable) Lookup(hostname string) (SiteSelectors, string, bool) {
	host := strings.ToLower(hostname)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	if s, ok := t.sites[host]; ok {
		return s, host, true
	}

	labels := strings.Split(host, ".")
	if len(labels) > 2 {
		parent := strings.Join(labels[len(labels)-2:], ".")
		if s, ok := t.sites[parent]; ok {
			return s, parent, true
		}
	}

	return SiteSelectors{}, "", false
}

// Domains returns the sorted list of registered domains.
func (t *SelectorTable) Domains() []string {
	domains := make([]string, 0, len(t.sites))
	for d := range t.sites {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

// FormatGroups renders the supported-site list grouped by extraction mode,
// for the SITE_NOT_SUPPORTED error payload and the /sites endpoint.
func (t *SelectorTable) FormatGroups() string {
	groups := map[string][]string{}
	for domain, s := range t.sites {
		groups[s.Mode] = append(groups[s.Mode], domain)
	}

	modes := make([]string, 0, len(groups))
	for mode := range groups {
		modes = append(modes, mode)
	}
	sort.Strings(modes)

	var b strings.Builder
	for _, mode := range modes {
		sort.Strings(groups[mode])
		fmt.Fprintf(&b, "%s: %s\n", mode, strings.Join(groups[mode], ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Flagships returns the domains with a dedicated extraction path and a
// sample URL, for the selector drift auditor.
func (t *SelectorTable) Flagships() map[string]SiteSelectors {
	out := map[string]SiteSelectors{}
	for domain, s := range t.sites {
		if s.Mode != ModeGeneric && s.SampleURL != "" {
			out[domain] = s
		}
	}
	return out
}
