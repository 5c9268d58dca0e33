// Package testutil provides shared helpers for setting up test databases and
// building test fixtures.
package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// A single connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA timezone = 'UTC'",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the production migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE stock (
			symbol VARCHAR(10) NOT NULL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			sector VARCHAR(50),
			corporate_tax_rate REAL,
			boi_support BOOLEAN NOT NULL DEFAULT FALSE
		);

		CREATE TABLE price_bar (
			symbol VARCHAR(10) NOT NULL,
			trading_date DATE NOT NULL,
			open_price REAL NOT NULL DEFAULT 0,
			high_price REAL NOT NULL DEFAULT 0,
			low_price REAL NOT NULL DEFAULT 0,
			close_price REAL NOT NULL DEFAULT 0,
			price_change REAL NOT NULL DEFAULT 0,
			percent_change REAL NOT NULL DEFAULT 0,
			volume_shares TEXT NOT NULL DEFAULT '0',
			volume_value TEXT NOT NULL DEFAULT '0',
			PRIMARY KEY (symbol, trading_date),
			FOREIGN KEY (symbol) REFERENCES stock (symbol)
		);

		CREATE TABLE market_holiday (
			holiday_date DATE NOT NULL PRIMARY KEY,
			description TEXT NOT NULL
		);

		CREATE TABLE "transaction" (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			symbol VARCHAR(10) NOT NULL,
			date DATE NOT NULL,
			type VARCHAR(4) NOT NULL,
			quantity INTEGER NOT NULL,
			price_per_share REAL NOT NULL,
			commission REAL NOT NULL DEFAULT 0,
			total_amount REAL NOT NULL,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (symbol) REFERENCES stock (symbol)
		);

		CREATE INDEX idx_transaction_user_symbol_date ON "transaction" (user_id, symbol, date);

		CREATE TABLE position (
			user_id VARCHAR(36) NOT NULL,
			symbol VARCHAR(10) NOT NULL,
			current_quantity INTEGER NOT NULL,
			total_invested REAL NOT NULL,
			average_cost REAL NOT NULL,
			last_transaction_date DATE NOT NULL,
			PRIMARY KEY (user_id, symbol),
			FOREIGN KEY (symbol) REFERENCES stock (symbol)
		);

		CREATE TABLE dividend (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			symbol VARCHAR(10) NOT NULL,
			announcement_date DATE NOT NULL,
			ex_dividend_date DATE NOT NULL,
			record_date DATE NOT NULL,
			payment_date DATE NOT NULL,
			dividend_per_share REAL NOT NULL,
			source_of_dividend TEXT,
			calculation_status VARCHAR(10) NOT NULL DEFAULT 'PENDING',
			calculated_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (symbol) REFERENCES stock (symbol)
		);

		CREATE TABLE prediction (
			symbol VARCHAR(10) NOT NULL,
			prediction_date TIMESTAMP NOT NULL,
			predicted_ex_dividend_date DATE NOT NULL,
			predicted_record_date DATE,
			predicted_payment_date DATE,
			predicted_dividend_per_share REAL NOT NULL DEFAULT 0,
			confidence_score REAL,
			prediction_horizon_days INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (symbol, predicted_ex_dividend_date),
			FOREIGN KEY (symbol) REFERENCES stock (symbol)
		);

		CREATE TABLE dividend_entitlement (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			status VARCHAR(10) NOT NULL,
			dividend_id VARCHAR(36),
			predicted_symbol VARCHAR(10),
			predicted_ex_date DATE,
			shares_held INTEGER NOT NULL,
			gross_dividend REAL NOT NULL,
			withholding_tax REAL NOT NULL,
			net_dividend REAL NOT NULL,
			payment_received_date DATE,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (dividend_id) REFERENCES dividend (id),
			CHECK (
				(dividend_id IS NOT NULL AND predicted_symbol IS NULL AND predicted_ex_date IS NULL)
				OR (dividend_id IS NULL AND predicted_symbol IS NOT NULL AND predicted_ex_date IS NOT NULL)
			)
		);

		CREATE UNIQUE INDEX idx_entitlement_user_dividend
			ON dividend_entitlement (user_id, dividend_id)
			WHERE dividend_id IS NOT NULL;

		CREATE UNIQUE INDEX idx_entitlement_user_prediction
			ON dividend_entitlement (user_id, predicted_symbol, predicted_ex_date)
			WHERE predicted_symbol IS NOT NULL;

		CREATE TABLE tax_credit (
			entitlement_id VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			tax_year INTEGER NOT NULL,
			corporate_tax_rate REAL NOT NULL,
			tax_credit_amount REAL NOT NULL,
			taxable_income REAL NOT NULL,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (entitlement_id) REFERENCES dividend_entitlement (id) ON DELETE CASCADE
		);
	`

	_, err := db.Exec(schema)
	return err
}

// CountRows returns the number of rows in a table.
// Useful for assertions in tests.
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var count int
	query := "SELECT COUNT(*) FROM " + table
	if err := db.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}

	return count
}

// AssertRowCount asserts that a table has the expected number of rows.
func AssertRowCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()

	actual := CountRows(t, db, table)
	if actual != expected {
		t.Errorf("Expected %d rows in %s, got %d", expected, table, actual)
	}
}
