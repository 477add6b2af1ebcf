package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitDatabase opens the connection pool. The database is optional: when
// dbURL is empty the repositories become no-ops and the service still
// serves extraction requests.
func InitDatabase(dbURL string) error {
	if dbURL == "" {
		log.Println("DATABASE_URL not set, running without persistence")
		return nil
	}

	var err error
	DB, err = sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}

	log.Println("Successfully connected to database")
	return nil
}

// CreateTables creates the necessary tables if they don't exist
func CreateTables() error {
	if DB == nil {
		return nil
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS unsupported_sites (
			domain TEXT PRIMARY KEY,
			request_count INTEGER NOT NULL DEFAULT 1,
			first_requested TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_requested TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS extraction_audit (
			id SERIAL PRIMARY KEY,
			url TEXT NOT NULL,
			site TEXT,
			has_name BOOLEAN NOT NULL DEFAULT FALSE,
			has_price BOOLEAN NOT NULL DEFAULT FALSE,
			has_image BOOLEAN NOT NULL DEFAULT FALSE,
			is_discounted BOOLEAN NOT NULL DEFAULT FALSE,
			error_kind VARCHAR(32),
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_extraction_audit_site ON extraction_audit(site)`,
		`CREATE INDEX IF NOT EXISTS idx_extraction_audit_created_at ON extraction_audit(created_at)`,
	}

	for _, query := range queries {
		if _, err := DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}

	log.Println("Database tables created successfully")
	return nil
}

// CloseDatabase closes the connection pool.
func CloseDatabase() {
	if DB != nil {
		DB.Close()
	}
}
