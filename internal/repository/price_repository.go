package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
)

// PriceRepository provides data access methods for the price_bar table.
// Price bars are immutable once written; inserts use duplicate-skip semantics
// on the (symbol, trading_date) key.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

const priceBarColumns = `
	symbol, trading_date, open_price, high_price, low_price, close_price,
	price_change, percent_change, volume_shares, volume_value
`

// GetBars retrieves all price bars for symbol within [from,to], ascending by
// trading date.
func (s *PriceRepository) GetBars(ctx context.Context, symbol string, from, to time.Time) ([]model.PriceBar, error) {
	query := `
		SELECT ` + priceBarColumns + `
		FROM price_bar
		WHERE symbol = ?
		AND trading_date >= ?
		AND trading_date <= ?
		ORDER BY trading_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, symbol, day(from), day(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query price_bar table: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetAllBars retrieves every price bar for symbol, descending by trading date.
func (s *PriceRepository) GetAllBars(ctx context.Context, symbol string) ([]model.PriceBar, error) {
	query := `
		SELECT ` + priceBarColumns + `
		FROM price_bar
		WHERE symbol = ?
		ORDER BY trading_date DESC
	`

	rows, err := s.db.QueryContext(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query price_bar table: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// LatestBar returns the most recent bar for symbol, or nil if none exists.
func (s *PriceRepository) LatestBar(ctx context.Context, symbol string) (*model.PriceBar, error) {
	query := `
		SELECT ` + priceBarColumns + `
		FROM price_bar
		WHERE symbol = ?
		ORDER BY trading_date DESC
		LIMIT 1
	`

	rows, err := s.db.QueryContext(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query price_bar table: %w", err)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, nil
	}
	return &bars[0], nil
}

// LatestBarBefore returns the most recent bar for symbol dated strictly
// before the given date, or nil if none exists. Used to seed the running
// lastClose for change calculations.
func (s *PriceRepository) LatestBarBefore(ctx context.Context, symbol string, before time.Time) (*model.PriceBar, error) {
	query := `
		SELECT ` + priceBarColumns + `
		FROM price_bar
		WHERE symbol = ?
		AND trading_date < ?
		ORDER BY trading_date DESC
		LIMIT 1
	`

	rows, err := s.db.QueryContext(ctx, query, symbol, day(before))
	if err != nil {
		return nil, fmt.Errorf("failed to query price_bar table: %w", err)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, nil
	}
	return &bars[0], nil
}

// InsertBars persists bars with duplicate-insert tolerance: a bar whose
// (symbol, trading_date) already exists is skipped, never overwritten.
// Returns the number of rows actually inserted.
func (s *PriceRepository) InsertBars(ctx context.Context, bars []model.PriceBar) (int64, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	query := `
		INSERT OR IGNORE INTO price_bar (` + priceBarColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var inserted int64
	for _, b := range bars {
		res, err := s.db.ExecContext(ctx, query,
			b.Symbol,
			day(b.TradingDate),
			b.Open,
			b.High,
			b.Low,
			b.Close,
			b.Change,
			b.PercentChange,
			b.VolumeShares.String(),
			b.VolumeValue.String(),
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert price bar: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to read rows affected: %w", err)
		}
		inserted += n
	}

	return inserted, nil
}

// scanBars reads price bar rows, parsing dates and decimal volume counters.
func scanBars(rows *sql.Rows) ([]model.PriceBar, error) {
	bars := []model.PriceBar{}

	for rows.Next() {
		var dateStr, volShares, volValue string
		var b model.PriceBar

		err := rows.Scan(
			&b.Symbol,
			&dateStr,
			&b.Open,
			&b.High,
			&b.Low,
			&b.Close,
			&b.Change,
			&b.PercentChange,
			&volShares,
			&volValue,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price_bar table results: %w", err)
		}

		b.TradingDate, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}

		b.VolumeShares, err = decimal.NewFromString(volShares)
		if err != nil {
			return nil, fmt.Errorf("failed to parse volume_shares: %w", err)
		}
		b.VolumeValue, err = decimal.NewFromString(volValue)
		if err != nil {
			return nil, fmt.Errorf("failed to parse volume_value: %w", err)
		}

		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price_bar table: %w", err)
	}

	return bars, nil
}
