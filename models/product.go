package models

// SearchRootLabel identifies which subtree a candidate was found in.
// Modal candidates always outrank main-document candidates.
type SearchRootLabel string

const (
	SourceModal SearchRootLabel = "MODAL"
	SourceMain  SearchRootLabel = "MAIN"
)

// FieldCandidate is a DOM element proposed as a holder of one product field,
// together with the confidence score assigned to it.
type FieldCandidate struct {
	Selector   string          `json:"selector"`
	RawText    string          `json:"raw_text,omitempty"`
	Value      string          `json:"value"`
	Score      float64         `json:"score"`
	Source     SearchRootLabel `json:"source"`
	IsDiscount bool            `json:"is_discount,omitempty"`
	Note       string          `json:"note,omitempty"`
}

// PageClassification is the result of the product-page gate.
type PageClassification struct {
	IsProductPage bool     `json:"is_product_page"`
	Confidence    int      `json:"confidence"` // 0-100
	Score         int      `json:"score"`
	Indicators    []string `json:"indicators"`
}

// ProductRecord is the final extraction output. Any of the three product
// fields may be null when nothing was found; a record with all three null
// is never returned (the extraction fails instead).
type ProductRecord struct {
	Name         *string `json:"name"`
	Price        *string `json:"price"`
	Image        *string `json:"image"`
	Site         string  `json:"site"`
	URL          string  `json:"url"`
	Timestamp    string  `json:"timestamp"`
	IsDiscounted bool    `json:"is_discounted,omitempty"`
}

// HasAnyField reports whether at least one product field was resolved.
func (r *ProductRecord) HasAnyField() bool {
	return r.Name != nil || r.Price != nil || r.Image != nil
}

// SelectorSuggestion is one proposal from the selector-discovery tool.
// Suggestions feed the per-site selector table; they are never returned
// from the live extraction path.
type SelectorSuggestion struct {
	Field    string          `json:"field"` // "name", "price" or "image"
	Selector string          `json:"selector"`
	Score    float64         `json:"score"`
	Sample   string          `json:"sample"`
	Source   SearchRootLabel `json:"source"`
}
