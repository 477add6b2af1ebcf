package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartlens/config"
	"cartlens/models"
)

func testEngine() *Engine {
	e := NewEngine(config.DefaultTable())
	e.now = func() time.Time { return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC) }
	return e
}

const productGate = `
	<div itemtype="https://schema.org/Product"></div>
	<button>Add to cart</button>
`

func TestExtractUnsupportedSite(t *testing.T) {
	doc := parseDoc(t, `<body>`+productGate+`<h1>Mechanical Keyboard with Brown Switches</h1></body>`)

	_, err := testEngine().Extract(doc, "https://example-shop.test/product/1")

	var siteErr *models.SiteNotSupportedError
	require.ErrorAs(t, err, &siteErr)
	assert.Equal(t, "example-shop.test", siteErr.Domain)
	assert.Equal(t, []string{
		"aliexpress.com", "amazon.com", "bestbuy.com", "ebay.com",
		"etsy.com", "shein.com", "target.com", "walmart.com",
	}, siteErr.SupportedSites)
	assert.Contains(t, siteErr.SitesByGroup, "guarded: amazon.com")
}

func TestExtractSubdomainResolvesToParent(t *testing.T) {
	doc := parseDoc(t, `<body>`+productGate+`
		<p>Padding text keeps the page body comfortably longer than any price container threshold.</p>
		<h1>Mechanical Keyboard with Brown Switches</h1>
		<span class="price">$89.99</span>
	</body>`)

	record, err := testEngine().Extract(doc, "https://m.shein.com/product/1")
	require.NoError(t, err)
	assert.Equal(t, "shein.com", record.Site)
}

func TestExtractInvalidURL(t *testing.T) {
	doc := parseDoc(t, `<body>`+productGate+`</body>`)

	_, err := testEngine().Extract(doc, "not a url")

	var unknownErr *models.UnknownExtractionError
	assert.ErrorAs(t, err, &unknownErr)
}

func TestExtractNotProductPage(t *testing.T) {
	doc := parseDoc(t, `<body><article><h1>Ten ways to organize your desk this spring</h1></article></body>`)

	_, err := testEngine().Extract(doc, "https://shein.com/blog/desks")

	var pageErr *models.NotProductPageError
	require.ErrorAs(t, err, &pageErr)
	assert.Less(t, pageErr.Confidence, 30)
}

func TestExtractShortHeadingYieldsNilName(t *testing.T) {
	doc := parseDoc(t, `<body>`+productGate+`
		<p>Padding text keeps the page body comfortably longer than any price container threshold.</p>
		<h1>Gadget</h1>
		<span class="price">$49.99</span>
	</body>`)

	record, err := testEngine().Extract(doc, "https://shein.com/product/1")
	require.NoError(t, err)
	assert.Nil(t, record.Name)
	require.NotNil(t, record.Price)
	assert.Equal(t, "$49.99", *record.Price)
	assert.False(t, record.IsDiscounted)
}

func TestExtractModalOutranksMainDocument(t *testing.T) {
	doc := parseDoc(t, `<body>`+productGate+`
		<p>Padding text keeps the page body comfortably longer than any price container threshold.</p>
		<h1 id="main-name">Mechanical Keyboard with Brown Switches</h1>
		<div class="modal" data-cl-z="999" data-cl-left="660" data-cl-w="600" data-cl-h="400">
			<h2 id="offer-name">Limited Bundle: Keyboard and Wrist Rest</h2>
			<span class="price">$119.00</span>
		</div>
	</body>`)

	record, err := testEngine().Extract(doc, "https://shein.com/product/1")
	require.NoError(t, err)
	require.NotNil(t, record.Name)
	assert.Equal(t, "Limited Bundle: Keyboard and Wrist Rest", *record.Name)
	require.NotNil(t, record.Price)
	assert.Equal(t, "$119.00", *record.Price)
}

func TestExtractDiscountAwareSite(t *testing.T) {
	doc := parseDoc(t, `<body>`+productGate+`
		<p>Padding text keeps the page body comfortably longer than any price container threshold.</p>
		<h1 itemprop="name">Stand Mixer with Stainless Steel Bowl</h1>
		<div itemprop="price">
			<span data-variant="discount">$136.00</span>
			<span data-variant="original">$160.00</span>
		</div>
		<img src="https://cdn.shop.test/mixer.jpg" data-cl-w="500" data-cl-h="500">
	</body>`)

	record, err := testEngine().Extract(doc, "https://www.walmart.com/ip/123")
	require.NoError(t, err)
	require.NotNil(t, record.Name)
	assert.Equal(t, "Stand Mixer with Stainless Steel Bowl", *record.Name)
	require.NotNil(t, record.Price)
	assert.Equal(t, "$136.00", *record.Price)
	assert.True(t, record.IsDiscounted)
	require.NotNil(t, record.Image)
	assert.Equal(t, "https://cdn.shop.test/mixer.jpg", *record.Image)
	assert.Equal(t, "walmart.com", record.Site)
	assert.Equal(t, "2026-08-23T12:00:00Z", record.Timestamp)
}

func TestExtractGuardedSiteBlocksWithoutConfiguredElements(t *testing.T) {
	// Clears the classifier gate but carries neither #productTitle nor a
	// configured price element: a category page on the flagship domain.
	doc := parseDoc(t, `<body>`+productGate+`
		<h1>Results for mechanical keyboards</h1>
		<span class="price">$49.99</span>
	</body>`)

	_, err := testEngine().Extract(doc, "https://www.amazon.com/s?k=keyboards")

	var pageErr *models.NotProductPageError
	require.ErrorAs(t, err, &pageErr)
	assert.Contains(t, pageErr.Indicators, "configured title or price element missing")
}

func TestExtractGuardedSiteSucceeds(t *testing.T) {
	doc := parseDoc(t, `<body>`+productGate+`
		<p>Padding text keeps the page body comfortably longer than any price container threshold.</p>
		<h1 id="productTitle">Mechanical Keyboard with Brown Switches</h1>
		<span class="a-price"><span class="a-offscreen">$89.99</span></span>
	</body>`)

	record, err := testEngine().Extract(doc, "https://www.amazon.com/dp/B000TEST")
	require.NoError(t, err)
	require.NotNil(t, record.Name)
	assert.Equal(t, "Mechanical Keyboard with Brown Switches", *record.Name)
	require.NotNil(t, record.Price)
	assert.Equal(t, "$89.99", *record.Price)
}

func TestExtractEmptyRecord(t *testing.T) {
	doc := parseDoc(t, `<body>`+productGate+`</body>`)

	_, err := testEngine().Extract(doc, "https://shein.com/product/1")

	var emptyErr *models.EmptyExtractionError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, "https://shein.com/product/1", emptyErr.URL)
}

func TestExtractPartialRecordIsSuccess(t *testing.T) {
	// Name only: price and image stay nil, the record still comes back.
	doc := parseDoc(t, `<body>`+productGate+`
		<h1>Mechanical Keyboard with Brown Switches</h1>
	</body>`)

	record, err := testEngine().Extract(doc, "https://shein.com/product/1")
	require.NoError(t, err)
	require.NotNil(t, record.Name)
	assert.Nil(t, record.Price)
	assert.Nil(t, record.Image)
}

func TestSuggestSelectors(t *testing.T) {
	doc := parseDoc(t, `<body>
		<p>Padding text keeps the page body comfortably longer than any price container threshold.</p>
		<h1 class="product-title">Mechanical Keyboard with Brown Switches</h1>
		<span class="price">$89.99</span>
		<img class="hero" src="https://cdn.shop.test/kb.jpg" data-cl-w="500" data-cl-h="500">
	</body>`)

	suggestions := testEngine().SuggestSelectors(doc)
	require.NotEmpty(t, suggestions)

	byField := map[string]models.SelectorSuggestion{}
	for _, s := range suggestions {
		if _, ok := byField[s.Field]; !ok {
			byField[s.Field] = s
		}
	}

	assert.Equal(t, "h1.product-title", byField["name"].Selector)
	assert.Equal(t, "span.price", byField["price"].Selector)
	assert.Equal(t, "img.hero", byField["image"].Selector)
}
