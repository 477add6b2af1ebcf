package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveContainerPriceExplicitVariants(t *testing.T) {
	doc := parseDoc(t, `<div id="c">
		<span data-variant="discount">$136.00</span>
		<span data-variant="original">$160.00</span>
	</div>`)

	pair, state := resolveContainerPrice(doc.Find("#c"))
	assert.Equal(t, DiscountFound, state)
	require.NotNil(t, pair.Discount)
	require.NotNil(t, pair.Original)
	assert.Equal(t, float64(136), pair.Discount.Value)
	assert.Equal(t, float64(160), pair.Original.Value)
	assert.True(t, pair.IsDiscount)
}

func TestResolveContainerPriceMultiTokenWrapper(t *testing.T) {
	// No markers at all: the minimum is the discount, the maximum the
	// original.
	doc := parseDoc(t, `<div id="c">$160.00 $136.00</div>`)

	pair, state := resolveContainerPrice(doc.Find("#c"))
	assert.Equal(t, DiscountFound, state)
	require.NotNil(t, pair.Discount)
	require.NotNil(t, pair.Original)
	assert.Equal(t, float64(136), pair.Discount.Value)
	assert.Equal(t, "$136.00", pair.Discount.Raw)
	assert.Equal(t, float64(160), pair.Original.Value)
}

func TestResolveContainerPriceThreeTokensDropsMiddle(t *testing.T) {
	doc := parseDoc(t, `<div id="c">$160.00 $148.00 $136.00</div>`)

	pair, state := resolveContainerPrice(doc.Find("#c"))
	assert.Equal(t, DiscountFound, state)
	assert.Equal(t, float64(136), pair.Discount.Value)
	assert.Equal(t, float64(160), pair.Original.Value)
}

func TestResolveContainerPriceOriginalOnly(t *testing.T) {
	doc := parseDoc(t, `<div id="c"><span data-variant="original">$160.00</span></div>`)

	pair, state := resolveContainerPrice(doc.Find("#c"))
	assert.Equal(t, OriginalFound, state)
	require.NotNil(t, pair.Original)
	assert.Equal(t, float64(160), pair.Original.Value)
	assert.Nil(t, pair.Discount)
	assert.False(t, pair.IsDiscount)
}

func TestResolveContainerPriceSingleToken(t *testing.T) {
	doc := parseDoc(t, `<div id="c">$25.00</div>`)

	pair, state := resolveContainerPrice(doc.Find("#c"))
	assert.Equal(t, OriginalFound, state)
	require.NotNil(t, pair.Original)
	assert.Equal(t, float64(25), pair.Original.Value)
}

func TestResolveContainerPriceNone(t *testing.T) {
	doc := parseDoc(t, `<div id="c">out of stock</div>`)

	_, state := resolveContainerPrice(doc.Find("#c"))
	assert.Equal(t, ResolutionNone, state)
}

func TestCorrectDiscountReselectsMinimum(t *testing.T) {
	// The marked discount is not the lowest price in the container; the
	// correction pass must re-select the true minimum.
	doc := parseDoc(t, `<div id="c">
		<span data-variant="discount">$160.00</span>
		<span>$136.00</span>
	</div>`)

	pair, state := resolveContainerPrice(doc.Find("#c"))
	assert.Equal(t, DiscountFound, state)
	require.NotNil(t, pair.Discount)
	assert.Equal(t, float64(136), pair.Discount.Value)
}

func TestResolutionStateString(t *testing.T) {
	assert.Equal(t, "DISCOUNT_FOUND", DiscountFound.String())
	assert.Equal(t, "ORIGINAL_FOUND", OriginalFound.String())
	assert.Equal(t, "NONE", ResolutionNone.String())
}
