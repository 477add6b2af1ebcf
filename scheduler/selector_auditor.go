package scheduler

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/robfig/cron/v3"

	"cartlens/config"
	"cartlens/extractor"
	"cartlens/handlers"
)

// SelectorAuditor periodically loads each flagship site's sample product
// page and verifies the configured selectors still extract. Storefronts
// ship markup changes without notice; the audit log is how a stale
// selector entry gets noticed before users do.
type SelectorAuditor struct {
	cron     *cron.Cron
	engine   *extractor.Engine
	capturer handlers.Capturer
	schedule string
}

func NewSelectorAuditor(engine *extractor.Engine, capturer handlers.Capturer, schedule string) *SelectorAuditor {
	return &SelectorAuditor{
		cron:     cron.New(cron.WithSeconds()),
		engine:   engine,
		capturer: capturer,
		schedule: schedule,
	}
}

// Start schedules the audit. Without a browser there is nothing to audit.
func (sa *SelectorAuditor) Start() {
	if sa.capturer == nil {
		log.Println("Selector auditor disabled: no browser capture")
		return
	}

	_, err := sa.cron.AddFunc(sa.schedule, sa.auditAll)
	if err != nil {
		log.Printf("Failed to schedule selector auditor: %v", err)
		return
	}

	sa.cron.Start()
	log.Printf("Selector auditor scheduled (%s)", sa.schedule)
}

// Stop stops the scheduled audits
func (sa *SelectorAuditor) Stop() {
	if sa.cron != nil {
		sa.cron.Stop()
	}
}

// auditAll audits every flagship site concurrently.
func (sa *SelectorAuditor) auditAll() {
	flagships := sa.engine.Table().Flagships()
	if len(flagships) == 0 {
		return
	}

	log.Printf("Auditing selectors for %d flagship sites", len(flagships))
	for domain, site := range flagships {
		go sa.auditSite(domain, site)
	}
}

// auditSite loads one sample page and checks each configured selector
// still matches. Drift is logged per field, not fixed automatically.
func (sa *SelectorAuditor) auditSite(domain string, site config.SiteSelectors) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	html, err := sa.capturer.Capture(ctx, site.SampleURL)
	if err != nil {
		log.Printf("Selector audit: failed to capture %s sample page: %v", domain, err)
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Printf("Selector audit: failed to parse %s sample page: %v", domain, err)
		return
	}

	checks := []struct {
		field    string
		selector string
	}{
		{"name", site.Name},
		{"price", site.Price},
		{"image", site.Image},
	}

	drifted := 0
	for _, c := range checks {
		if c.selector == "" {
			continue
		}
		if doc.Find(c.selector).Length() == 0 {
			log.Printf("Selector audit: %s %s selector no longer matches: %s", domain, c.field, c.selector)
			drifted++
		}
	}

	if drifted == 0 {
		log.Printf("Selector audit: %s selectors OK", domain)
	}
}
