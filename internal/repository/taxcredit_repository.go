package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
)

// TaxCreditRepository provides data access methods for the tax_credit table.
// Rows are 1:1 with entitlements and cascade-deleted with them.
type TaxCreditRepository struct {
	db *sql.DB
}

// NewTaxCreditRepository creates a new TaxCreditRepository with the provided database connection.
func NewTaxCreditRepository(db *sql.DB) *TaxCreditRepository {
	return &TaxCreditRepository{db: db}
}

const taxCreditColumns = `
	entitlement_id, user_id, tax_year, corporate_tax_rate, tax_credit_amount, taxable_income, created_at
`

// GetForEntitlement retrieves the tax credit derived from an entitlement, or
// nil if none was computed.
func (s *TaxCreditRepository) GetForEntitlement(ctx context.Context, q Querier, entitlementID string) (*model.TaxCredit, error) {
	if q == nil {
		q = s.db
	}
	query := `
		SELECT ` + taxCreditColumns + `
		FROM tax_credit
		WHERE entitlement_id = ?
	`

	var createdStr string
	var tc model.TaxCredit

	err := q.QueryRowContext(ctx, query, entitlementID).Scan(
		&tc.EntitlementID,
		&tc.UserID,
		&tc.TaxYear,
		&tc.CorporateTaxRate,
		&tc.TaxCreditAmount,
		&tc.TaxableIncome,
		&createdStr,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tax_credit table: %w", err)
	}

	tc.CreatedAt, err = ParseTime(createdStr)
	if err != nil {
		return nil, err
	}

	return &tc, nil
}

// ListForUserYear retrieves a user's tax credits for one tax year.
func (s *TaxCreditRepository) ListForUserYear(ctx context.Context, userID string, taxYear int) ([]model.TaxCredit, error) {
	query := `
		SELECT ` + taxCreditColumns + `
		FROM tax_credit
		WHERE user_id = ? AND tax_year = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, taxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax_credit table: %w", err)
	}
	defer rows.Close()

	credits := []model.TaxCredit{}
	for rows.Next() {
		var createdStr string
		var tc model.TaxCredit

		err := rows.Scan(
			&tc.EntitlementID,
			&tc.UserID,
			&tc.TaxYear,
			&tc.CorporateTaxRate,
			&tc.TaxCreditAmount,
			&tc.TaxableIncome,
			&createdStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tax_credit table results: %w", err)
		}

		tc.CreatedAt, err = ParseTime(createdStr)
		if err != nil {
			return nil, err
		}

		credits = append(credits, tc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tax_credit table: %w", err)
	}

	return credits, nil
}

// UpsertTaxCredit writes the tax credit for an entitlement, replacing any
// previous calculation.
func (s *TaxCreditRepository) UpsertTaxCredit(ctx context.Context, q Querier, tc model.TaxCredit) error {
	if q == nil {
		q = s.db
	}
	query := `
		INSERT INTO tax_credit (` + taxCreditColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entitlement_id) DO UPDATE SET
			tax_year = excluded.tax_year,
			corporate_tax_rate = excluded.corporate_tax_rate,
			tax_credit_amount = excluded.tax_credit_amount,
			taxable_income = excluded.taxable_income
	`

	_, err := q.ExecContext(ctx, query,
		tc.EntitlementID,
		tc.UserID,
		tc.TaxYear,
		tc.CorporateTaxRate,
		tc.TaxCreditAmount,
		tc.TaxableIncome,
		stamp(tc.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert tax credit: %w", err)
	}

	return nil
}

// DeleteForEntitlement removes the tax credit attached to an entitlement.
func (s *TaxCreditRepository) DeleteForEntitlement(ctx context.Context, q Querier, entitlementID string) error {
	if q == nil {
		q = s.db
	}
	query := `DELETE FROM tax_credit WHERE entitlement_id = ?`

	if _, err := q.ExecContext(ctx, query, entitlementID); err != nil {
		return fmt.Errorf("failed to delete tax credit: %w", err)
	}

	return nil
}
