package extractor

import (
	"github.com/PuerkitoBio/goquery"
)

// ResolutionState is the terminal state of discount resolution for one
// price container.
type ResolutionState int

const (
	ResolutionNone ResolutionState = iota
	DiscountFound
	OriginalFound
)

func (s ResolutionState) String() string {
	switch s {
	case DiscountFound:
		return "DISCOUNT_FOUND"
	case OriginalFound:
		return "ORIGINAL_FOUND"
	default:
		return "NONE"
	}
}

// PricePair holds the discounted and original prices extracted from one
// container. Invariant: Discount.Value <= Original.Value whenever both are
// present; resolution re-selects the lower value as the discount if a
// partial match violated it.
type PricePair struct {
	Discount   *PriceToken
	Original   *PriceToken
	IsDiscount bool
}

// resolveContainerPrice walks the discount state machine for one price
// container:
//  1. an element explicitly tagged as the discount variant,
//  2. a wrapper holding two or more price tokens (minimum = discount),
//  3. an element explicitly tagged as the original variant,
//  4. direct extraction from the container text.
func resolveContainerPrice(container *goquery.Selection) (PricePair, ResolutionState) {
	// Step 1: explicit discount variant.
	if d := container.Find(discountVariantSelector).First(); d.Length() > 0 {
		if tokens := TokensFromElement(d); len(tokens) > 0 {
			tok := lowestToken(tokens)
			pair := PricePair{Discount: &tok, IsDiscount: true}
			if o := container.Find(originalVariantSelector).First(); o.Length() > 0 {
				if ot := TokensFromElement(o); len(ot) > 0 {
					hi := highestToken(ot)
					pair.Original = &hi
				}
			}
			return correctDiscount(pair, container), DiscountFound
		}
	}

	tokens := TokensFromElement(container)

	// Step 2: multi-price wrapper. Minimum is the discount, maximum the
	// original; middle values are dropped.
	if len(tokens) >= 2 {
		sortTokensAscending(tokens)
		lo, hi := tokens[0], tokens[len(tokens)-1]
		pair := PricePair{Discount: &lo, Original: &hi, IsDiscount: true}
		return correctDiscount(pair, container), DiscountFound
	}

	// Step 3: explicit original variant.
	if o := container.Find(originalVariantSelector).First(); o.Length() > 0 {
		if ot := TokensFromElement(o); len(ot) > 0 {
			hi := highestToken(ot)
			return PricePair{Original: &hi}, OriginalFound
		}
	}

	// Step 4: direct extraction from the container text.
	if len(tokens) == 1 {
		return PricePair{Original: &tokens[0]}, OriginalFound
	}
	return PricePair{}, ResolutionNone
}

// correctDiscount is the self-healing pass against partial or early
// matches: a flagged discount must be the minimum among all price tokens in
// the enclosing container, and never exceed the original.
func correctDiscount(pair PricePair, container *goquery.Selection) PricePair {
	if !pair.IsDiscount || pair.Discount == nil {
		return pair
	}
	all := TokensFromElement(container)
	if len(all) > 0 {
		low := lowestToken(all)
		if low.Value < pair.Discount.Value {
			pair.Discount = &low
		}
	}
	if pair.Original != nil && pair.Discount.Value > pair.Original.Value {
		pair.Discount, pair.Original = pair.Original, pair.Discount
	}
	return pair
}

func highestToken(tokens []PriceToken) PriceToken {
	high := tokens[0]
	for _, t := range tokens[1:] {
		if t.Value > high.Value {
			high = t
		}
	}
	return high
}
