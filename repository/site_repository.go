package repository

import (
	"fmt"
	"time"

	"cartlens/database"
	"cartlens/models"
)

type SiteRepository struct{}

func NewSiteRepository() *SiteRepository {
	return &SiteRepository{}
}

// RecordUnsupportedSite bumps the request counter for a domain the
// selector table does not cover. The counts feed the decision of which
// site to register next.
func (r *SiteRepository) RecordUnsupportedSite(domain string) error {
	if database.DB == nil {
		return nil
	}

	query := `
		INSERT INTO unsupported_sites (domain, request_count, first_requested, last_requested)
		VALUES ($1, 1, $2, $2)
		ON CONFLICT (domain) DO UPDATE
		SET request_count = unsupported_sites.request_count + 1, last_requested = $2
	`

	if _, err := database.DB.Exec(query, domain, time.Now()); err != nil {
		return fmt.Errorf("failed to record unsupported site: %v", err)
	}
	return nil
}

// UnsupportedSiteCount holds one row of the unsupported-domain tally.
type UnsupportedSiteCount struct {
	Domain        string    `json:"domain"`
	RequestCount  int       `json:"request_count"`
	LastRequested time.Time `json:"last_requested"`
}

// GetUnsupportedSites returns the tally ordered by demand.
func (r *SiteRepository) GetUnsupportedSites(limit int) ([]UnsupportedSiteCount, error) {
	if database.DB == nil {
		return nil, nil
	}

	query := `
		SELECT domain, request_count, last_requested
		FROM unsupported_sites
		ORDER BY request_count DESC
		LIMIT $1
	`

	rows, err := database.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get unsupported sites: %v", err)
	}
	defer rows.Close()

	var sites []UnsupportedSiteCount
	for rows.Next() {
		var s UnsupportedSiteCount
		if err := rows.Scan(&s.Domain, &s.RequestCount, &s.LastRequested); err != nil {
			return nil, fmt.Errorf("failed to scan unsupported site: %v", err)
		}
		sites = append(sites, s)
	}
	return sites, nil
}

// RecordExtraction writes one audit row per extraction attempt. record may
// be nil on failure; errKind is empty on success.
func (r *SiteRepository) RecordExtraction(url string, record *models.ProductRecord, errKind models.ErrorKind, duration time.Duration) error {
	if database.DB == nil {
		return nil
	}

	query := `
		INSERT INTO extraction_audit (url, site, has_name, has_price, has_image, is_discounted, error_kind, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
	`

	site := ""
	hasName, hasPrice, hasImage, isDiscounted := false, false, false, false
	if record != nil {
		site = record.Site
		hasName = record.Name != nil
		hasPrice = record.Price != nil
		hasImage = record.Image != nil
		isDiscounted = record.IsDiscounted
	}

	_, err := database.DB.Exec(query, url, site, hasName, hasPrice, hasImage, isDiscounted, string(errKind), duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record extraction: %v", err)
	}
	return nil
}

// ExtractionStats summarizes recent audit rows for the /status endpoint.
type ExtractionStats struct {
	Total      int     `json:"total"`
	Failed     int     `json:"failed"`
	AvgMs      float64 `json:"avg_ms"`
	Discounted int     `json:"discounted"`
}

// GetExtractionStats aggregates audit rows from the last 24 hours.
func (r *SiteRepository) GetExtractionStats() (*ExtractionStats, error) {
	if database.DB == nil {
		return nil, nil
	}

	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE error_kind IS NOT NULL),
		       COALESCE(AVG(duration_ms), 0),
		       COUNT(*) FILTER (WHERE is_discounted)
		FROM extraction_audit
		WHERE created_at > NOW() - INTERVAL '24 hours'
	`

	var stats ExtractionStats
	err := database.DB.QueryRow(query).Scan(&stats.Total, &stats.Failed, &stats.AvgMs, &stats.Discounted)
	if err != nil {
		return nil, fmt.Errorf("failed to get extraction stats: %v", err)
	}
	return &stats, nil
}
