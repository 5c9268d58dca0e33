package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
)

// TransactionRepository provides data access methods for the transaction
// table. The table is append-only: this repository exposes no update or
// delete.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	id, user_id, symbol, date, type, quantity, price_per_share, commission, total_amount, created_at
`

// InsertTransaction appends a transaction. q may be a *sql.Tx when the insert
// participates in a larger atomic unit (trade creation), or nil to use the
// repository's own connection.
func (s *TransactionRepository) InsertTransaction(ctx context.Context, q Querier, t *model.Transaction) error {
	if q == nil {
		q = s.db
	}
	query := `
		INSERT INTO "transaction" (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		t.ID,
		t.UserID,
		t.Symbol,
		day(t.Date),
		t.Type,
		t.Quantity,
		t.PricePerShare,
		t.Commission,
		t.TotalAmount,
		stamp(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// GetTransactionsUntil retrieves all transactions for (user, symbol) dated on
// or before the target date, ascending. This is the read the position
// reconstructor replays.
func (s *TransactionRepository) GetTransactionsUntil(ctx context.Context, q Querier, userID, symbol string, until time.Time) ([]model.Transaction, error) {
	if q == nil {
		q = s.db
	}
	query := `
		SELECT ` + transactionColumns + `
		FROM "transaction"
		WHERE user_id = ?
		AND symbol = ?
		AND date <= ?
		ORDER BY date ASC, created_at ASC
	`

	rows, err := q.QueryContext(ctx, query, userID, symbol, day(until))
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetUsersWithSymbol returns the distinct users having at least one
// transaction in the given symbol. This is the affected-user set for a
// dividend-triggered batch calculation.
func (s *TransactionRepository) GetUsersWithSymbol(ctx context.Context, q Querier, symbol string) ([]string, error) {
	if q == nil {
		q = s.db
	}
	query := `
		SELECT DISTINCT user_id
		FROM "transaction"
		WHERE symbol = ?
		ORDER BY user_id ASC
	`

	rows, err := q.QueryContext(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	users := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}
		users = append(users, userID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return users, nil
}

// GetTransactionsForUser retrieves a user's transactions, newest first,
// optionally filtered by symbol and type.
func (s *TransactionRepository) GetTransactionsForUser(ctx context.Context, userID, symbol, txType string) ([]model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM "transaction"
		WHERE user_id = ?
	`
	args := []any{userID}

	if symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, symbol)
	}
	if txType != "" {
		query += ` AND type = ?`
		args = append(args, txType)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetTransaction retrieves a single transaction owned by the given user.
func (s *TransactionRepository) GetTransaction(ctx context.Context, transactionID, userID string) (model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM "transaction"
		WHERE id = ? AND user_id = ?
	`

	rows, err := s.db.QueryContext(ctx, query, transactionID, userID)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactions, err := scanTransactions(rows)
	if err != nil {
		return model.Transaction{}, err
	}
	if len(transactions) == 0 {
		return model.Transaction{}, fmt.Errorf("%w: %s", apperrors.ErrTransactionNotFound, transactionID)
	}

	return transactions[0], nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	transactions := []model.Transaction{}

	for rows.Next() {
		var dateStr, createdAtStr string
		var t model.Transaction

		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Symbol,
			&dateStr,
			&t.Type,
			&t.Quantity,
			&t.PricePerShare,
			&t.Commission,
			&t.TotalAmount,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}

		t.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}

		t.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil {
			return nil, err
		}

		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactions, nil
}
