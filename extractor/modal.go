package extractor

import (
	"math"
	"sort"

	"github.com/PuerkitoBio/goquery"

	"cartlens/models"
)

// Selectors that catch dialogs, drawers and other foreground overlays.
var modalSelectors = []string{
	"dialog",
	"[role='dialog']",
	"[aria-modal='true']",
	"[class*='modal']",
	"[class*='popup']",
	"[class*='overlay']",
	"[class*='drawer']",
}

// searchRoot is one subtree boundary a scan runs against. Roots are
// ordered: the modal, when present, is searched first and its candidates
// always outrank main-document ones.
type searchRoot struct {
	label models.SearchRootLabel
	sel   *goquery.Selection
}

type modalCandidate struct {
	sel      *goquery.Selection
	zIndex   float64
	centered bool
	area     float64
}

// findActiveModal returns the top-ranked foreground overlay, or nil when no
// visible overlay qualifies. Ranking: stacking order first, then horizontal
// centeredness, then rendered area.
func findActiveModal(doc *goquery.Document) *goquery.Selection {
	vw := viewportWidth(doc)
	seen := map[string]bool{}
	var cands []modalCandidate

	for _, sel := range modalSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			key := generateSelector(s)
			if seen[key] {
				return
			}
			seen[key] = true

			if !hasLayout(s) {
				return
			}
			w, h := elementWidth(s), elementHeight(s)
			if w <= 0 || h <= 0 {
				return
			}
			center := elementLeft(s) + w/2
			cands = append(cands, modalCandidate{
				sel:      s,
				zIndex:   elementZIndex(s),
				centered: math.Abs(center-vw/2) <= 0.3*(vw/2),
				area:     w * h,
			})
		})
	}

	if len(cands) == 0 {
		return nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].zIndex != cands[j].zIndex {
			return cands[i].zIndex > cands[j].zIndex
		}
		if cands[i].centered != cands[j].centered {
			return cands[i].centered
		}
		return cands[i].area > cands[j].area
	})
	return cands[0].sel
}

// searchRoots returns the ordered scan roots for a document: the active
// modal first when one exists, then the full document.
func searchRoots(doc *goquery.Document) []searchRoot {
	roots := []searchRoot{}
	if modal := findActiveModal(doc); modal != nil {
		roots = append(roots, searchRoot{label: models.SourceModal, sel: modal})
	}
	roots = append(roots, searchRoot{label: models.SourceMain, sel: doc.Selection})
	return roots
}
