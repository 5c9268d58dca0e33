// Package database opens the SQLite price-and-dividend ledger and applies
// its schema migrations.
package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// Open opens the SQLite store at path and verifies the connection. Foreign
// keys are enabled per connection; the tax_credit cascade on entitlement
// deletion depends on them.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// API writers back off instead of failing while the nightly sync holds
	// the write lock.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// HealthCheck reports whether the store is reachable.
func HealthCheck(db *sql.DB) error {
	return db.Ping()
}
