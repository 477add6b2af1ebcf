package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"cartlens/extractor"
	"cartlens/models"
	"cartlens/repository"
)

// Capturer renders a live page to annotated HTML. Nil when the browser
// could not be launched; live endpoints then return 503.
type Capturer interface {
	Capture(ctx context.Context, url string) (string, error)
}

type Handlers struct {
	engine   *extractor.Engine
	capturer Capturer
	siteRepo *repository.SiteRepository
	timeout  time.Duration
	started  time.Time
}

func NewHandlers(engine *extractor.Engine, capturer Capturer, siteRepo *repository.SiteRepository, timeout time.Duration) *Handlers {
	return &Handlers{
		engine:   engine,
		capturer: capturer,
		siteRepo: siteRepo,
		timeout:  timeout,
		started:  time.Now(),
	}
}

type extractRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

type liveExtractRequest struct {
	URL string `json:"url"`
}

// Extract runs the pipeline against a caller-provided rendered snapshot.
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" || req.HTML == "" {
		writeError(w, http.StatusBadRequest, "url and html are required")
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(req.HTML))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse HTML")
		return
	}

	h.runExtraction(w, doc, req.URL)
}

// ExtractLive captures the page in the headless browser first, then runs
// the same pipeline.
func (h *Handlers) ExtractLive(w http.ResponseWriter, r *http.Request) {
	var req liveExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if h.capturer == nil {
		writeError(w, http.StatusServiceUnavailable, "Browser capture not available")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	html, err := h.capturer.Capture(ctx, req.URL)
	if err != nil {
		log.Printf("Failed to capture %s: %v", req.URL, err)
		writeError(w, http.StatusBadGateway, "Failed to capture page")
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to parse captured page")
		return
	}

	h.runExtraction(w, doc, req.URL)
}

func (h *Handlers) runExtraction(w http.ResponseWriter, doc *goquery.Document, pageURL string) {
	start := time.Now()
	record, err := h.engine.Extract(doc, pageURL)
	duration := time.Since(start)

	if err != nil {
		h.audit(pageURL, nil, errorKind(err), duration)
		h.writeExtractionError(w, err)
		return
	}

	h.audit(pageURL, record, "", duration)
	writeJSON(w, http.StatusOK, record)
}

// audit persists one extraction outcome, best effort.
func (h *Handlers) audit(url string, record *models.ProductRecord, kind models.ErrorKind, duration time.Duration) {
	if h.siteRepo == nil {
		return
	}
	if err := h.siteRepo.RecordExtraction(url, record, kind, duration); err != nil {
		log.Printf("Failed to record extraction audit: %v", err)
	}
}

func errorKind(err error) models.ErrorKind {
	var kinder interface{ Kind() models.ErrorKind }
	if errors.As(err, &kinder) {
		return kinder.Kind()
	}
	return models.KindUnknownError
}

// writeExtractionError maps the typed extraction errors onto HTTP statuses
// and fixed payloads.
func (h *Handlers) writeExtractionError(w http.ResponseWriter, err error) {
	var siteErr *models.SiteNotSupportedError
	if errors.As(err, &siteErr) {
		if h.siteRepo != nil {
			if rerr := h.siteRepo.RecordUnsupportedSite(siteErr.Domain); rerr != nil {
				log.Printf("Failed to record unsupported site %s: %v", siteErr.Domain, rerr)
			}
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":           string(siteErr.Kind()),
			"message":         siteErr.Error(),
			"domain":          siteErr.Domain,
			"supported_sites": siteErr.SupportedSites,
			"sites_by_group":  siteErr.SitesByGroup,
		})
		return
	}

	var pageErr *models.NotProductPageError
	if errors.As(err, &pageErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":      string(pageErr.Kind()),
			"message":    pageErr.Error(),
			"confidence": pageErr.Confidence,
			"indicators": pageErr.Indicators,
		})
		return
	}

	var emptyErr *models.EmptyExtractionError
	if errors.As(err, &emptyErr) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error":   string(emptyErr.Kind()),
			"message": emptyErr.Error(),
			"url":     emptyErr.URL,
		})
		return
	}

	log.Printf("Extraction failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"error":   string(models.KindUnknownError),
		"message": err.Error(),
	})
}

// Detect runs the product-page classifier alone.
func (h *Handlers) Detect(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.HTML == "" {
		writeError(w, http.StatusBadRequest, "html is required")
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(req.HTML))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse HTML")
		return
	}

	writeJSON(w, http.StatusOK, h.engine.Classify(doc))
}

// Suggest reports the top heuristic selectors per field for a page, to
// seed a selector table entry for an unregistered site.
func (h *Handlers) Suggest(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.HTML == "" {
		writeError(w, http.StatusBadRequest, "html is required")
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(req.HTML))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse HTML")
		return
	}

	suggestions := h.engine.SuggestSelectors(doc)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"url":         req.URL,
		"suggestions": suggestions,
	})
}

// Sites lists the supported domains plus the most-requested unsupported
// ones when persistence is on.
func (h *Handlers) Sites(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"supported": h.engine.Table().Domains(),
		"groups":    h.engine.Table().FormatGroups(),
	}

	if h.siteRepo != nil {
		if requested, err := h.siteRepo.GetUnsupportedSites(20); err != nil {
			log.Printf("Failed to get unsupported sites: %v", err)
		} else if requested != nil {
			response["most_requested"] = requested
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// HealthCheck returns service health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"uptime":          time.Since(h.started).String(),
		"browser_capture": h.capturer != nil,
	})
}

// Status reports recent extraction statistics.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"uptime":          time.Since(h.started).String(),
		"supported_sites": len(h.engine.Table().Domains()),
		"browser_capture": h.capturer != nil,
	}

	if h.siteRepo != nil {
		if stats, err := h.siteRepo.GetExtractionStats(); err != nil {
			log.Printf("Failed to get extraction stats: %v", err)
		} else if stats != nil {
			response["last_24h"] = stats
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
