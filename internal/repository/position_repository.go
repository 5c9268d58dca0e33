package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
)

// PositionRepository provides data access methods for the position table,
// the materialized view of current holdings. Rows here are derived: the
// transaction log remains the source of truth.
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository creates a new PositionRepository with the provided database connection.
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

const positionColumns = `
	user_id, symbol, current_quantity, total_invested, average_cost, last_transaction_date
`

// GetPosition retrieves the cached position for (user, symbol), or nil if the
// user holds no position in the symbol.
func (s *PositionRepository) GetPosition(ctx context.Context, q Querier, userID, symbol string) (*model.Position, error) {
	if q == nil {
		q = s.db
	}
	query := `
		SELECT ` + positionColumns + `
		FROM position
		WHERE user_id = ? AND symbol = ?
	`

	var dateStr string
	var p model.Position

	err := q.QueryRowContext(ctx, query, userID, symbol).Scan(
		&p.UserID,
		&p.Symbol,
		&p.CurrentQuantity,
		&p.TotalInvested,
		&p.AverageCost,
		&dateStr,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query position table: %w", err)
	}

	p.LastTransactionDate, err = ParseTime(dateStr)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// ListPositions retrieves all open positions for a user, ordered by symbol.
func (s *PositionRepository) ListPositions(ctx context.Context, userID string) ([]model.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM position
		WHERE user_id = ?
		AND current_quantity > 0
		ORDER BY symbol ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query position table: %w", err)
	}
	defer rows.Close()

	positions := []model.Position{}
	for rows.Next() {
		var dateStr string
		var p model.Position

		err := rows.Scan(
			&p.UserID,
			&p.Symbol,
			&p.CurrentQuantity,
			&p.TotalInvested,
			&p.AverageCost,
			&dateStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position table results: %w", err)
		}

		p.LastTransactionDate, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}

		positions = append(positions, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position table: %w", err)
	}

	return positions, nil
}

// UpsertPosition writes the recomputed position for (user, symbol).
func (s *PositionRepository) UpsertPosition(ctx context.Context, q Querier, p model.Position) error {
	if q == nil {
		q = s.db
	}
	query := `
		INSERT INTO position (` + positionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, symbol) DO UPDATE SET
			current_quantity = excluded.current_quantity,
			total_invested = excluded.total_invested,
			average_cost = excluded.average_cost,
			last_transaction_date = excluded.last_transaction_date
	`

	_, err := q.ExecContext(ctx, query,
		p.UserID,
		p.Symbol,
		p.CurrentQuantity,
		p.TotalInvested,
		p.AverageCost,
		day(p.LastTransactionDate),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}

	return nil
}

// DeletePosition removes the cached position for (user, symbol). Called when
// a sale closes the position entirely.
func (s *PositionRepository) DeletePosition(ctx context.Context, q Querier, userID, symbol string) error {
	if q == nil {
		q = s.db
	}
	query := `DELETE FROM position WHERE user_id = ? AND symbol = ?`

	if _, err := q.ExecContext(ctx, query, userID, symbol); err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}

	return nil
}
