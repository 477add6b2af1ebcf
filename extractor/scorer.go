package extractor

import (
	"math"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cartlens/models"
)

// Confidence scores are clamped to this range. Direction is field-specific:
// name, image and the public price score are higher-is-better; the
// full-page fallback price ranking below is lower-is-better. The two price
// scales are deliberately separate and must not be unified.
const (
	scoreFloor = 0
	scoreCeil  = 10
	scoreBase  = 5
)

// NameWeights is the scoring table for name candidates.
type NameWeights struct {
	PrimaryHeading   float64 // h1
	SecondaryHeading float64 // h2, h3
	IDToken          float64 // id contains "title" or "name"
	ClassToken       float64 // class contains "title" or "name"
	SemanticAttr     float64 // itemprop/data product-title markup
	GoodLength       float64 // 20-100 chars
	HighOnPage       float64 // top offset < 500px
}

var defaultNameWeights = NameWeights{
	PrimaryHeading:   3,
	SecondaryHeading: 2,
	IDToken:          2,
	ClassToken:       1.5,
	SemanticAttr:     2,
	GoodLength:       1,
	HighOnPage:       1,
}

// PriceWeights is the scoring table for price candidates. The discount
// boosts are flat additions applied on top by the discount-aware paths.
type PriceWeights struct {
	TypicalValue   float64 // value within 5-5000
	IDToken        float64 // id contains "price"
	ClassToken     float64 // class contains "price"
	SemanticAttr   float64 // itemprop="price" / data-price markup
	LargeFont      float64 // font size > 20px
	HighOnPage     float64 // top offset < 800px
	ExclusionWord  float64 // text mentions shipping/was/save (negative)
	VariantBoost   float64 // explicit discount variant marker
	WrapperBoost   float64 // discount inferred from a multi-price wrapper
}

var defaultPriceWeights = PriceWeights{
	TypicalValue:  2,
	IDToken:       2,
	ClassToken:    1.5,
	SemanticAttr:  3,
	LargeFont:     1,
	HighOnPage:    1,
	ExclusionWord: -2,
	VariantBoost:  3,
	WrapperBoost:  2,
}

// ImageWeights is the scoring table for image candidates.
type ImageWeights struct {
	HighPriority  float64 // fetchpriority="high"
	EagerWithAlt  float64 // loading="eager" and alt > 10 chars
	LargeDims     float64 // both dimensions >= 400px
	IDToken       float64 // id contains "image" or "product"
	ClassToken    float64 // class contains "image" or "product"
	SemanticAttr  float64 // itemprop="image"
	LongAlt       float64 // alt > 20 chars, not containing "icon"
	HighOnPage    float64 // top offset < 600px
	BrandingInSrc float64 // source URL contains logo/icon/avatar (negative)
}

var defaultImageWeights = ImageWeights{
	HighPriority:  4,
	EagerWithAlt:  2,
	LargeDims:     2,
	IDToken:       2,
	ClassToken:    1.5,
	SemanticAttr:  2,
	LongAlt:       1.5,
	HighOnPage:    1,
	BrandingInSrc: -3,
}

var priceExclusionWords = []string{"shipping", "was", "save"}

func clampScore(v float64) float64 {
	return math.Max(scoreFloor, math.Min(scoreCeil, v))
}

func attrContainsAny(s *goquery.Selection, attr string, tokens ...string) bool {
	v := strings.ToLower(s.AttrOr(attr, ""))
	if v == "" {
		return false
	}
	for _, tok := range tokens {
		if strings.Contains(v, tok) {
			return true
		}
	}
	return false
}

// scoreName rates a name candidate, higher is better.
func scoreName(s *goquery.Selection, text string) float64 {
	w := defaultNameWeights
	score := float64(scoreBase)

	switch goquery.NodeName(s) {
	case "h1":
		score += w.PrimaryHeading
	case "h2", "h3":
		score += w.SecondaryHeading
	}
	if attrContainsAny(s, "id", "title", "name") {
		score += w.IDToken
	}
	if attrContainsAny(s, "class", "title", "name") {
		score += w.ClassToken
	}
	if strings.EqualFold(s.AttrOr("itemprop", ""), "name") || s.AttrOr("data-product-title", "") != "" {
		score += w.SemanticAttr
	}
	if n := len([]rune(text)); n >= 20 && n <= 100 {
		score += w.GoodLength
	}
	if elementTop(s) < 500 {
		score += w.HighOnPage
	}
	return clampScore(score)
}

// scorePrice rates a price candidate, higher is better. This is the
// public-facing confidence used for ranking and selector suggestions.
func scorePrice(s *goquery.Selection, c *models.FieldCandidate, value float64) float64 {
	w := defaultPriceWeights
	score := float64(scoreBase)

	if value >= 5 && value <= 5000 {
		score += w.TypicalValue
	}
	if attrContainsAny(s, "id", "price") {
		score += w.IDToken
	}
	if attrContainsAny(s, "class", "price") {
		score += w.ClassToken
	}
	if strings.EqualFold(s.AttrOr("itemprop", ""), "price") || s.AttrOr("data-price", "") != "" {
		score += w.SemanticAttr
	}
	if elementFontSize(s) > 20 {
		score += w.LargeFont
	}
	if elementTop(s) < 800 {
		score += w.HighOnPage
	}
	lower := strings.ToLower(c.RawText)
	for _, word := range priceExclusionWords {
		if strings.Contains(lower, word) {
			score += w.ExclusionWord
			break
		}
	}
	if c.IsDiscount {
		if c.Note == "discount variant" {
			score += w.VariantBoost
		} else {
			score += w.WrapperBoost
		}
	}
	return clampScore(score)
}

// scoreImage rates an image candidate, higher is better.
func scoreImage(s *goquery.Selection, src string) float64 {
	w := defaultImageWeights
	score := float64(scoreBase)
	alt := cleanText(s.AttrOr("alt", ""))
	altLen := len([]rune(alt))

	if s.AttrOr("fetchpriority", "") == "high" {
		score += w.HighPriority
	}
	if s.AttrOr("loading", "") == "eager" && altLen > 10 {
		score += w.EagerWithAlt
	}
	if elementWidth(s) >= 400 && elementHeight(s) >= 400 {
		score += w.LargeDims
	}
	if attrContainsAny(s, "id", "image", "product") {
		score += w.IDToken
	}
	if attrContainsAny(s, "class", "image", "product") {
		score += w.ClassToken
	}
	if strings.EqualFold(s.AttrOr("itemprop", ""), "image") {
		score += w.SemanticAttr
	}
	if altLen > 20 && !strings.Contains(strings.ToLower(alt), "icon") {
		score += w.LongAlt
	}
	if elementTop(s) < 600 {
		score += w.HighOnPage
	}
	lower := strings.ToLower(src)
	if strings.Contains(lower, "logo") || strings.Contains(lower, "icon") || strings.Contains(lower, "avatar") {
		score += w.BrandingInSrc
	}
	return clampScore(score)
}

// FallbackPriceWeights is the ranking table for the whole-page price scan.
// Lower is better: the base is the element's vertical offset and the
// adjustments pull likely prices up the page. This scale exists because the
// fallback picks one answer from unscored raw text across the entire
// document, where position and proximity to the name matter more than
// attributes. It is never reconciled with the attribute-based score above.
type FallbackPriceWeights struct {
	NearName      float64 // within 500px of the detected name element
	TypicalValue  float64 // value within 5-5000
	LargeFont     float64 // font size > 20px
	TinyValue     float64 // value < 5 (penalty)
	FarRight      float64 // left offset > 70% of viewport width (penalty)
}

var defaultFallbackWeights = FallbackPriceWeights{
	NearName:     -200,
	TypicalValue: -100,
	LargeFont:    -50,
	TinyValue:    300,
	FarRight:     150,
}

// rankFallbackPrice ranks a raw price element for the full-page fallback,
// lower is better.
func rankFallbackPrice(doc *goquery.Document, s *goquery.Selection, value float64, nameTop float64, nameKnown bool) float64 {
	w := defaultFallbackWeights
	rank := elementTop(s)

	if nameKnown && math.Abs(elementTop(s)-nameTop) < 500 {
		rank += w.NearName
	}
	if value >= 5 && value <= 5000 {
		rank += w.TypicalValue
	}
	if elementFontSize(s) > 20 {
		rank += w.LargeFont
	}
	if value < 5 {
		rank += w.TinyValue
	}
	if elementLeft(s) > 0.7*viewportWidth(doc) {
		rank += w.FarRight
	}
	return rank
}

// sortCandidates orders candidates for selection: modal-sourced before
// main-document regardless of score, then by score descending. The sort is
// stable so scanner priority breaks ties.
func sortCandidates(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Source != cands[j].Source {
			return cands[i].Source == models.SourceModal
		}
		return cands[i].Score > cands[j].Score
	})
}
