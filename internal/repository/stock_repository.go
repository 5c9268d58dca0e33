package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
)

// StockRepository provides data access methods for the stock table.
type StockRepository struct {
	db *sql.DB
}

// NewStockRepository creates a new StockRepository with the provided database connection.
func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{db: db}
}

// GetStock retrieves a stock by symbol. Returns apperrors.ErrStockNotFound if
// the symbol is unknown.
func (s *StockRepository) GetStock(ctx context.Context, symbol string) (model.Stock, error) {
	query := `
		SELECT symbol, name, COALESCE(sector, ''), corporate_tax_rate, boi_support
		FROM stock
		WHERE symbol = ?
	`

	var st model.Stock
	var taxRate sql.NullFloat64

	err := s.db.QueryRowContext(ctx, query, symbol).Scan(
		&st.Symbol,
		&st.Name,
		&st.Sector,
		&taxRate,
		&st.BOISupport,
	)
	if err == sql.ErrNoRows {
		return model.Stock{}, fmt.Errorf("%w: %s", apperrors.ErrStockNotFound, symbol)
	}
	if err != nil {
		return model.Stock{}, fmt.Errorf("failed to query stock table: %w", err)
	}

	if taxRate.Valid {
		st.CorporateTaxRate = &taxRate.Float64
	}

	return st, nil
}

// ListStocks retrieves all stocks ordered by symbol, optionally filtered by sector.
func (s *StockRepository) ListStocks(ctx context.Context, sector string) ([]model.Stock, error) {
	query := `
		SELECT symbol, name, COALESCE(sector, ''), corporate_tax_rate, boi_support
		FROM stock
	`
	var args []any
	if sector != "" {
		query += ` WHERE sector = ?`
		args = append(args, sector)
	}
	query += ` ORDER BY symbol ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock table: %w", err)
	}
	defer rows.Close()

	stocks := []model.Stock{}
	for rows.Next() {
		var st model.Stock
		var taxRate sql.NullFloat64
		if err := rows.Scan(&st.Symbol, &st.Name, &st.Sector, &taxRate, &st.BOISupport); err != nil {
			return nil, fmt.Errorf("failed to scan stock table results: %w", err)
		}
		if taxRate.Valid {
			st.CorporateTaxRate = &taxRate.Float64
		}
		stocks = append(stocks, st)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock table: %w", err)
	}

	return stocks, nil
}

// CreateStock inserts a new stock.
func (s *StockRepository) CreateStock(ctx context.Context, st model.Stock) error {
	query := `
		INSERT INTO stock (symbol, name, sector, corporate_tax_rate, boi_support)
		VALUES (?, ?, ?, ?, ?)
	`

	var taxRate any
	if st.CorporateTaxRate != nil {
		taxRate = *st.CorporateTaxRate
	}

	if _, err := s.db.ExecContext(ctx, query, st.Symbol, st.Name, st.Sector, taxRate, st.BOISupport); err != nil {
		return fmt.Errorf("failed to insert stock: %w", err)
	}

	return nil
}
