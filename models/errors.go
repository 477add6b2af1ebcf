package models

import (
	"fmt"
	"strings"
)

// ErrorKind tags the closed set of extraction failure modes.
type ErrorKind string

const (
	KindSiteNotSupported ErrorKind = "SITE_NOT_SUPPORTED"
	KindNotProductPage   ErrorKind = "NOT_PRODUCT_PAGE"
	KindExtractionEmpty  ErrorKind = "EXTRACTION_EMPTY"
	KindUnknownError     ErrorKind = "UNKNOWN_ERROR"
)

// SiteNotSupportedError is returned when the page's domain has no entry in
// the selector table, not even via the parent-domain fallback.
type SiteNotSupportedError struct {
	Domain         string
	SupportedSites []string
	SitesByGroup   string
}

func (e *SiteNotSupportedError) Kind() ErrorKind { return KindSiteNotSupported }

func (e *SiteNotSupportedError) Error() string {
	return fmt.Sprintf("site %q is not supported (%d supported sites)", e.Domain, len(e.SupportedSites))
}

// NotProductPageError is returned when the classifier gate fails, or when a
// guarded flagship path cannot find its required elements.
type NotProductPageError struct {
	Confidence int
	Indicators []string
}

func (e *NotProductPageError) Kind() ErrorKind { return KindNotProductPage }

func (e *NotProductPageError) Error() string {
	return fmt.Sprintf("not a product page (confidence %d%%, indicators: %s)",
		e.Confidence, strings.Join(e.Indicators, ", "))
}

// EmptyExtractionError is returned when every field resolved to null after
// all fallbacks. A record with no usable fields has no value to the caller,
// so this is a hard failure rather than a partial success.
type EmptyExtractionError struct {
	URL string
}

func (e *EmptyExtractionError) Kind() ErrorKind { return KindExtractionEmpty }

func (e *EmptyExtractionError) Error() string {
	return fmt.Sprintf("no product fields could be extracted from %s", e.URL)
}

// UnknownExtractionError wraps any other failure (malformed configuration,
// broken structural assumptions).
type UnknownExtractionError struct {
	Err error
}

func (e *UnknownExtractionError) Kind() ErrorKind { return KindUnknownError }

func (e *UnknownExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *UnknownExtractionError) Unwrap() error { return e.Err }
