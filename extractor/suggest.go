package extractor

import (
	"github.com/PuerkitoBio/goquery"

	"cartlens/models"
)

const suggestionsPerField = 3

// SuggestSelectors runs the heuristic scanners without any site
// configuration and reports the top-scored selectors per field. The output
// is meant to seed a new selector table entry for an unregistered site.
func (e *Engine) SuggestSelectors(doc *goquery.Document) []models.SelectorSuggestion {
	roots := searchRoots(doc)
	var out []models.SelectorSuggestion

	names, _ := topCandidates(roots, func(r searchRoot) []candidate {
		return scoreNames(scanNames(r.sel, r.label, genericNameSelectors))
	})
	out = appendSuggestions(out, "name", names)

	prices, _ := topCandidates(roots, func(r searchRoot) []candidate {
		return scorePrices(scanHeuristicPrices(r.sel, r.label))
	})
	out = appendSuggestions(out, "price", prices)

	images, _ := topCandidates(roots, func(r searchRoot) []candidate {
		return scoreImages(scanImages(r.sel, r.label, []string{"img"}))
	})
	out = appendSuggestions(out, "image", images)

	return out
}

func topCandidates(roots []searchRoot, scan func(searchRoot) []candidate) ([]candidate, bool) {
	var all []candidate
	for _, root := range roots {
		all = append(all, scan(root)...)
	}
	if len(all) == 0 {
		return nil, false
	}
	sortCandidates(all)
	if len(all) > suggestionsPerField {
		all = all[:suggestionsPerField]
	}
	return all, true
}

func appendSuggestions(out []models.SelectorSuggestion, field string, cands []candidate) []models.SelectorSuggestion {
	for _, c := range cands {
		out = append(out, models.SelectorSuggestion{
			Field:    field,
			Selector: c.Selector,
			Score:    c.Score,
			Sample:   c.Value,
			Source:   c.Source,
		})
	}
	return out
}
