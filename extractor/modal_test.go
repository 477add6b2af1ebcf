package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartlens/models"
)

func TestFindActiveModalNone(t *testing.T) {
	doc := parseDoc(t, `<body><h1>Wireless Noise Cancelling Headphones</h1></body>`)
	assert.Nil(t, findActiveModal(doc))
}

func TestFindActiveModalIgnoresZeroSize(t *testing.T) {
	doc := parseDoc(t, `<body>
		<div class="modal" data-cl-w="0" data-cl-h="0">collapsed</div>
	</body>`)
	assert.Nil(t, findActiveModal(doc))
}

func TestFindActiveModalHighestZIndexWins(t *testing.T) {
	doc := parseDoc(t, `<body>
		<div id="low" class="modal" data-cl-z="10" data-cl-left="660" data-cl-w="600" data-cl-h="400">a</div>
		<div id="high" class="modal" data-cl-z="999" data-cl-left="660" data-cl-w="600" data-cl-h="400">b</div>
	</body>`)

	modal := findActiveModal(doc)
	require.NotNil(t, modal)
	assert.Equal(t, "high", modal.AttrOr("id", ""))
}

func TestFindActiveModalCenteredBreaksTies(t *testing.T) {
	// Same stacking order: the horizontally centered overlay wins over the
	// off-screen drawer.
	doc := parseDoc(t, `<body>
		<div id="drawer" class="drawer" data-cl-z="100" data-cl-left="1520" data-cl-w="400" data-cl-h="1080">a</div>
		<div id="dialog" role="dialog" data-cl-z="100" data-cl-left="660" data-cl-w="600" data-cl-h="400">b</div>
	</body>`)

	modal := findActiveModal(doc)
	require.NotNil(t, modal)
	assert.Equal(t, "dialog", modal.AttrOr("id", ""))
}

func TestFindActiveModalAreaBreaksRemainingTies(t *testing.T) {
	doc := parseDoc(t, `<body>
		<div id="small" class="popup" data-cl-z="50" data-cl-left="860" data-cl-w="200" data-cl-h="100">a</div>
		<div id="big" class="popup" data-cl-z="50" data-cl-left="660" data-cl-w="600" data-cl-h="400">b</div>
	</body>`)

	modal := findActiveModal(doc)
	require.NotNil(t, modal)
	assert.Equal(t, "big", modal.AttrOr("id", ""))
}

func TestSearchRootsOrder(t *testing.T) {
	doc := parseDoc(t, `<body>
		<div class="modal" data-cl-z="999" data-cl-left="660" data-cl-w="600" data-cl-h="400">offer</div>
		<h1>Wireless Noise Cancelling Headphones</h1>
	</body>`)

	roots := searchRoots(doc)
	require.Len(t, roots, 2)
	assert.Equal(t, models.SourceModal, roots[0].label)
	assert.Equal(t, models.SourceMain, roots[1].label)
}

func TestSearchRootsNoModal(t *testing.T) {
	doc := parseDoc(t, `<body><h1>Wireless Noise Cancelling Headphones</h1></body>`)

	roots := searchRoots(doc)
	require.Len(t, roots, 1)
	assert.Equal(t, models.SourceMain, roots[0].label)
}
