package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
)

// HolidayRepository provides data access methods for the market_holiday
// table. Holidays are inferred, not authoritative; they only prevent
// re-querying the provider for known non-trading weekdays.
type HolidayRepository struct {
	db *sql.DB
}

// NewHolidayRepository creates a new HolidayRepository with the provided database connection.
func NewHolidayRepository(db *sql.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// ListHolidays retrieves all recorded market holidays.
func (s *HolidayRepository) ListHolidays(ctx context.Context) ([]model.MarketHoliday, error) {
	query := `
		SELECT holiday_date, description
		FROM market_holiday
		ORDER BY holiday_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query market_holiday table: %w", err)
	}
	defer rows.Close()

	holidays := []model.MarketHoliday{}
	for rows.Next() {
		var dateStr string
		var h model.MarketHoliday

		if err := rows.Scan(&dateStr, &h.Description); err != nil {
			return nil, fmt.Errorf("failed to scan market_holiday table results: %w", err)
		}

		h.HolidayDate, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}

		holidays = append(holidays, h)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating market_holiday table: %w", err)
	}

	return holidays, nil
}

// UpsertHoliday records a holiday date. Safe to repeat: an existing date is
// left untouched, so repeated syncs never duplicate holiday rows.
func (s *HolidayRepository) UpsertHoliday(ctx context.Context, date time.Time, description string) error {
	query := `
		INSERT INTO market_holiday (holiday_date, description)
		VALUES (?, ?)
		ON CONFLICT (holiday_date) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, day(date), description); err != nil {
		return fmt.Errorf("failed to upsert market holiday: %w", err)
	}

	return nil
}
