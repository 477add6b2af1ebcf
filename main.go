package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"strings"
	"time"

	"cartlens/config"
	"cartlens/database"
	"cartlens/extractor"
	"cartlens/handlers"
	"cartlens/middleware"
	"cartlens/repository"
	"cartlens/scheduler"
	"cartlens/snapshot"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

var startTime = time.Now()

// Metrics struct for basic monitoring
type Metrics struct {
	Timestamp   time.Time `json:"timestamp"`
	Uptime      string    `json:"uptime"`
	Goroutines  int       `json:"goroutines"`
	MemoryUsage string    `json:"memory_usage"`
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.LoadAppConfig()

	// Initialize database (optional: runs without persistence when unset)
	if err := database.InitDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	if err := database.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	siteRepo := repository.NewSiteRepository()

	// Launch the headless browser. Snapshot capture degrades gracefully:
	// without a browser the /extract endpoint still works on caller-provided
	// HTML, only /extract/live goes dark.
	var capturer handlers.Capturer
	if cfg.SnapshotEnabled {
		c, err := snapshot.NewCapturer()
		if err != nil {
			log.Printf("Warning: browser capture not available: %v", err)
		} else {
			capturer = c
			defer c.Close()
		}
	} else {
		log.Println("Browser capture disabled by configuration")
	}

	engine := extractor.NewEngine(config.DefaultTable())

	h := handlers.NewHandlers(engine, capturer, siteRepo, cfg.RequestTimeout)

	// Selector drift auditor
	auditor := scheduler.NewSelectorAuditor(engine, capturer, cfg.AuditSchedule)
	auditor.Start()
	defer auditor.Stop()

	// Setup router
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitRPS))

	// Health and monitoring endpoints
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/metrics", getMetrics).Methods("GET")
	r.HandleFunc("/status", h.Status).Methods("GET")

	// API v1 routes
	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/extract", h.Extract).Methods("POST")
	apiV1.HandleFunc("/extract/live", h.ExtractLive).Methods("POST")
	apiV1.HandleFunc("/detect", h.Detect).Methods("POST")
	apiV1.HandleFunc("/suggest", h.Suggest).Methods("POST")
	apiV1.HandleFunc("/sites", h.Sites).Methods("GET")

	// CORS configuration
	c := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	log.Printf("   GET  /health - Health check")
	log.Printf("   GET  /metrics - System metrics")
	log.Printf("   GET  /status - Extraction statistics")
	log.Printf("   POST /api/v1/extract - Extract product data from a snapshot")
	log.Printf("   POST /api/v1/extract/live - Capture and extract a live page")
	log.Printf("   POST /api/v1/detect - Classify a page as product or not")
	log.Printf("   POST /api/v1/suggest - Suggest selectors for a new site")
	log.Printf("   GET  /api/v1/sites - List supported sites")

	if err := http.ListenAndServe(addr, c.Handler(r)); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// getMetrics returns basic process metrics
func getMetrics(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	metrics := Metrics{
		Timestamp:   time.Now(),
		Uptime:      time.Since(startTime).String(),
		Goroutines:  runtime.NumGoroutine(),
		MemoryUsage: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics)
}
