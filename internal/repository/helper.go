package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx. The
// entitlement engine passes a *sql.Tx so its whole read-modify-write runs in
// one transactional scope; callers outside a transaction pass nil and the
// repository falls back to its own connection.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ParseTime parses a date string in "2006-01-02" or RFC3339 format.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse("2006-01-02", str)
	if err != nil {
		returnTime, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return returnTime.UTC(), nil
}

// day formats a calendar date for a DATE column.
func day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// stamp formats a timestamp for a TIMESTAMP column.
func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
