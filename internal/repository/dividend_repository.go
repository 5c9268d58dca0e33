package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
)

// DividendRepository provides data access methods for the dividend table.
type DividendRepository struct {
	db *sql.DB
}

// NewDividendRepository creates a new DividendRepository with the provided database connection.
func NewDividendRepository(db *sql.DB) *DividendRepository {
	return &DividendRepository{db: db}
}

const dividendColumns = `
	id, symbol, announcement_date, ex_dividend_date, record_date, payment_date,
	dividend_per_share, COALESCE(source_of_dividend, ''), calculation_status, calculated_at, created_at
`

// GetDividend retrieves a dividend declaration by ID. q may be a *sql.Tx so
// the entitlement engine reads the status inside its own transaction.
func (s *DividendRepository) GetDividend(ctx context.Context, q Querier, dividendID string) (model.DividendDeclaration, error) {
	if q == nil {
		q = s.db
	}
	query := `
		SELECT ` + dividendColumns + `
		FROM dividend
		WHERE id = ?
	`

	rows, err := q.QueryContext(ctx, query, dividendID)
	if err != nil {
		return model.DividendDeclaration{}, fmt.Errorf("failed to query dividend table: %w", err)
	}
	defer rows.Close()

	dividends, err := scanDividends(rows)
	if err != nil {
		return model.DividendDeclaration{}, err
	}
	if len(dividends) == 0 {
		return model.DividendDeclaration{}, fmt.Errorf("%w: %s", apperrors.ErrDividendNotFound, dividendID)
	}

	return dividends[0], nil
}

// SetCalculationStatus transitions a dividend's calculation status.
// calculatedAt is recorded when non-nil (terminal transition) and cleared when
// nil (reset back to PENDING).
func (s *DividendRepository) SetCalculationStatus(ctx context.Context, q Querier, dividendID, status string, calculatedAt *time.Time) error {
	if q == nil {
		q = s.db
	}
	query := `
		UPDATE dividend
		SET calculation_status = ?, calculated_at = ?
		WHERE id = ?
	`

	var ts any
	if calculatedAt != nil {
		ts = stamp(*calculatedAt)
	}

	res, err := q.ExecContext(ctx, query, status, ts, dividendID)
	if err != nil {
		return fmt.Errorf("failed to update dividend status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrDividendNotFound, dividendID)
	}

	return nil
}

// CreateDividend inserts a new dividend declaration.
func (s *DividendRepository) CreateDividend(ctx context.Context, d *model.DividendDeclaration) error {
	query := `
		INSERT INTO dividend (` + dividendColumnsInsert + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		d.ID,
		d.Symbol,
		day(d.AnnouncementDate),
		day(d.ExDividendDate),
		day(d.RecordDate),
		day(d.PaymentDate),
		d.DividendPerShare,
		d.SourceOfDividend,
		d.CalculationStatus,
		stamp(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert dividend: %w", err)
	}

	return nil
}

const dividendColumnsInsert = `
	id, symbol, announcement_date, ex_dividend_date, record_date, payment_date,
	dividend_per_share, source_of_dividend, calculation_status, created_at
`

// ListDividends retrieves dividend declarations, newest ex-date first,
// optionally filtered by symbol.
func (s *DividendRepository) ListDividends(ctx context.Context, symbol string) ([]model.DividendDeclaration, error) {
	query := `
		SELECT ` + dividendColumns + `
		FROM dividend
	`
	var args []any
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY ex_dividend_date DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend table: %w", err)
	}
	defer rows.Close()

	return scanDividends(rows)
}

// ListUpcoming retrieves declarations with ex-date on or after ref, soonest
// first, capped at limit.
func (s *DividendRepository) ListUpcoming(ctx context.Context, ref time.Time, limit int) ([]model.DividendDeclaration, error) {
	query := `
		SELECT ` + dividendColumns + `
		FROM dividend
		WHERE ex_dividend_date >= ?
		ORDER BY ex_dividend_date ASC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, day(ref), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend table: %w", err)
	}
	defer rows.Close()

	return scanDividends(rows)
}

// ListInRange retrieves declarations whose ex-date falls within [from,to],
// ascending, for the dividend calendar.
func (s *DividendRepository) ListInRange(ctx context.Context, from, to time.Time) ([]model.DividendDeclaration, error) {
	query := `
		SELECT ` + dividendColumns + `
		FROM dividend
		WHERE ex_dividend_date >= ?
		AND ex_dividend_date <= ?
		ORDER BY ex_dividend_date ASC, symbol ASC
	`

	rows, err := s.db.QueryContext(ctx, query, day(from), day(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend table: %w", err)
	}
	defer rows.Close()

	return scanDividends(rows)
}

// NextAfter returns the symbol's earliest declaration with ex-date strictly
// after ref, or nil if none is scheduled.
func (s *DividendRepository) NextAfter(ctx context.Context, symbol string, ref time.Time) (*model.DividendDeclaration, error) {
	query := `
		SELECT ` + dividendColumns + `
		FROM dividend
		WHERE symbol = ?
		AND ex_dividend_date > ?
		ORDER BY ex_dividend_date ASC
		LIMIT 1
	`

	rows, err := s.db.QueryContext(ctx, query, symbol, day(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend table: %w", err)
	}
	defer rows.Close()

	dividends, err := scanDividends(rows)
	if err != nil {
		return nil, err
	}
	if len(dividends) == 0 {
		return nil, nil
	}
	return &dividends[0], nil
}

func scanDividends(rows *sql.Rows) ([]model.DividendDeclaration, error) {
	dividends := []model.DividendDeclaration{}

	for rows.Next() {
		var announceStr, exStr, recordStr, payStr, createdStr string
		var calculatedAt sql.NullString
		var d model.DividendDeclaration

		err := rows.Scan(
			&d.ID,
			&d.Symbol,
			&announceStr,
			&exStr,
			&recordStr,
			&payStr,
			&d.DividendPerShare,
			&d.SourceOfDividend,
			&d.CalculationStatus,
			&calculatedAt,
			&createdStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dividend table results: %w", err)
		}

		dates := []struct {
			dst *time.Time
			src string
		}{
			{&d.AnnouncementDate, announceStr},
			{&d.ExDividendDate, exStr},
			{&d.RecordDate, recordStr},
			{&d.PaymentDate, payStr},
			{&d.CreatedAt, createdStr},
		}
		for _, f := range dates {
			*f.dst, err = ParseTime(f.src)
			if err != nil {
				return nil, err
			}
		}

		if calculatedAt.Valid {
			ts, err := ParseTime(calculatedAt.String)
			if err != nil {
				return nil, err
			}
			d.CalculatedAt = &ts
		}

		dividends = append(dividends, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dividend table: %w", err)
	}

	return dividends, nil
}
