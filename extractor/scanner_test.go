package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartlens/models"
)

func TestScanNamesLengthBounds(t *testing.T) {
	tests := []struct {
		name    string
		heading string
		want    int
	}{
		{"too short", "Gadget", 0},
		{"exactly at minimum", "0123456789", 0},
		{"just above minimum", "01234567890", 1},
		{"normal product name", "Wireless Noise Cancelling Headphones", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, `<body><h1>`+tt.heading+`</h1></body>`)
			cands := scanNames(doc.Selection, models.SourceMain, genericNameSelectors)
			assert.Len(t, cands, tt.want)
		})
	}
}

func TestScanNamesSkipsHidden(t *testing.T) {
	doc := parseDoc(t, `<body>
		<h1 data-cl-hidden="1">Wireless Noise Cancelling Headphones</h1>
		<h1 style="display: none">Wireless Noise Cancelling Headphones II</h1>
	</body>`)
	cands := scanNames(doc.Selection, models.SourceMain, genericNameSelectors)
	assert.Empty(t, cands)
}

func TestScanNamesDeduplicates(t *testing.T) {
	// h1 matches both the tag cascade entry and the class-based entry; it
	// must surface once.
	doc := parseDoc(t, `<body><h1 class="product-title">Wireless Noise Cancelling Headphones</h1></body>`)
	cands := scanNames(doc.Selection, models.SourceMain, genericNameSelectors)
	require.Len(t, cands, 1)
	assert.Equal(t, "Wireless Noise Cancelling Headphones", cands[0].Value)
}

func TestScanHeuristicPricesDiscountVariantPass(t *testing.T) {
	doc := parseDoc(t, `<body>
		<p>This padding paragraph keeps the body text well over the wrapper length limit for containers.</p>
		<div id="price-box">
			<span data-variant="discount">$136.00</span>
			<span data-variant="original">$160.00</span>
		</div>
	</body>`)

	cands := scanHeuristicPrices(doc.Selection, models.SourceMain)
	require.NotEmpty(t, cands)
	assert.Equal(t, "$136.00", cands[0].Value)
	assert.True(t, cands[0].IsDiscount)
	assert.Equal(t, "discount variant", cands[0].Note)
}

func TestScanHeuristicPricesWrapperPass(t *testing.T) {
	doc := parseDoc(t, `<body>
		<p>This padding paragraph keeps the body text well over the wrapper length limit for containers.</p>
		<div id="price-box"><span>$160.00</span> <span>$136.00</span></div>
	</body>`)

	cands := scanHeuristicPrices(doc.Selection, models.SourceMain)

	var discount, original *models.FieldCandidate
	for i := range cands {
		if cands[i].Selector != "#price-box" {
			continue
		}
		if cands[i].IsDiscount {
			discount = &cands[i].FieldCandidate
		} else {
			original = &cands[i].FieldCandidate
		}
	}

	require.NotNil(t, discount)
	require.NotNil(t, original)
	assert.Equal(t, "$136.00", discount.Value)
	assert.Equal(t, "$160.00", original.Value)
	assert.Equal(t, "multi-price wrapper", discount.Note)
}

func TestScanHeuristicPricesSingleTokenPass(t *testing.T) {
	doc := parseDoc(t, `<body>
		<p>This padding paragraph keeps the body text well over the wrapper length limit for containers.</p>
		<div><span class="price">$49.99</span></div>
	</body>`)

	cands := scanHeuristicPrices(doc.Selection, models.SourceMain)
	require.Len(t, cands, 1)
	assert.Equal(t, "$49.99", cands[0].Value)
	assert.Equal(t, "span.price", cands[0].Selector)
	assert.False(t, cands[0].IsDiscount)
}

func TestScanHeuristicPricesSkipsLongText(t *testing.T) {
	doc := parseDoc(t, `<body>
		<p>This padding paragraph keeps the body text well over the wrapper length limit for containers.</p>
		<div class="blurb">Originally listed at $160.00 but now available for a limited time at just $136.00 while stocks last this season</div>
	</body>`)

	cands := scanHeuristicPrices(doc.Selection, models.SourceMain)
	assert.Empty(t, cands)
}

func TestScanImagesEligibility(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{
			"large annotated image",
			`<img src="https://cdn.shop.test/p.jpg" data-cl-w="400" data-cl-h="400">`,
			1,
		},
		{
			"eager with descriptive alt",
			`<img src="https://cdn.shop.test/p.jpg" loading="eager" alt="Wireless headphones in black">`,
			1,
		},
		{
			"high fetch priority with alt",
			`<img src="https://cdn.shop.test/p.jpg" fetchpriority="high" alt="Wireless headphones in black">`,
			1,
		},
		{
			"small image",
			`<img src="https://cdn.shop.test/p.jpg" data-cl-w="50" data-cl-h="50">`,
			0,
		},
		{
			"logo excluded",
			`<img src="https://cdn.shop.test/logo.png" data-cl-w="400" data-cl-h="400">`,
			0,
		},
		{
			"lazy-load source",
			`<img data-src="https://cdn.shop.test/p.jpg" data-cl-w="400" data-cl-h="400">`,
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, `<body>`+tt.html+`</body>`)
			cands := scanImages(doc.Selection, models.SourceMain, []string{"img"})
			assert.Len(t, cands, tt.want)
		})
	}
}

func TestScanImagesDynamicImageJSON(t *testing.T) {
	doc := parseDoc(t, `<body><img id="landing"
		data-a-dynamic-image='{"https://cdn.shop.test/small.jpg":[200,200],"https://cdn.shop.test/large.jpg":[800,800]}'
		data-cl-w="400" data-cl-h="400"></body>`)

	cands := scanImages(doc.Selection, models.SourceMain, []string{"img"})
	require.Len(t, cands, 1)
	assert.Equal(t, "https://cdn.shop.test/large.jpg", cands[0].Value)
}

func TestGenerateSelector(t *testing.T) {
	doc := parseDoc(t, `<body>
		<h1 id="main-title">A</h1>
		<span class="x9f3k2d81 price-now">B</span>
		<ul><li>one</li><li>two</li></ul>
		<article><p>only</p></article>
	</body>`)

	assert.Equal(t, "#main-title", generateSelector(doc.Find("h1")))
	assert.Equal(t, "span.price-now", generateSelector(doc.Find("span")), "hash class skipped")
	assert.Equal(t, "li:nth-of-type(2)", generateSelector(doc.Find("li").Last()))
	assert.Equal(t, "p", generateSelector(doc.Find("article p")))
}

func TestGenerateSelectorIdempotent(t *testing.T) {
	doc := parseDoc(t, `<body><div class="a1b2c3d4e5f6"><span class="price">$10</span></div></body>`)
	el := doc.Find("span.price")

	first := generateSelector(el)
	second := generateSelector(el)
	assert.Equal(t, first, second)

	// The generated selector must re-find the same element.
	refound := doc.Find(first)
	require.Equal(t, 1, refound.Length())
	assert.Equal(t, el.Text(), refound.Text())
}

func TestMachineGeneratedClass(t *testing.T) {
	assert.True(t, machineGeneratedClass("x9f3k2d81"))
	assert.True(t, machineGeneratedClass("a1b2c3d4e5f6"))
	assert.False(t, machineGeneratedClass("price"), "too short")
	assert.False(t, machineGeneratedClass("productTitle"), "no digits")
	assert.False(t, machineGeneratedClass("price-now-1"), "hyphen breaks the run")
}
