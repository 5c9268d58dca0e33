package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
)

// EntitlementRepository provides data access methods for the
// dividend_entitlement table. Write methods accept a Querier because the
// entitlement engine performs all its writes inside a single transaction.
type EntitlementRepository struct {
	db *sql.DB
}

// NewEntitlementRepository creates a new EntitlementRepository with the provided database connection.
func NewEntitlementRepository(db *sql.DB) *EntitlementRepository {
	return &EntitlementRepository{db: db}
}

const entitlementColumns = `
	id, user_id, status, dividend_id, predicted_symbol, predicted_ex_date,
	shares_held, gross_dividend, withholding_tax, net_dividend, payment_received_date, created_at
`

// GetEntitlement retrieves an entitlement by ID.
func (s *EntitlementRepository) GetEntitlement(ctx context.Context, q Querier, entitlementID string) (model.DividendEntitlement, error) {
	if q == nil {
		q = s.db
	}
	query := `
		SELECT ` + entitlementColumns + `
		FROM dividend_entitlement
		WHERE id = ?
	`

	rows, err := q.QueryContext(ctx, query, entitlementID)
	if err != nil {
		return model.DividendEntitlement{}, fmt.Errorf("failed to query dividend_entitlement table: %w", err)
	}
	defer rows.Close()

	entitlements, err := scanEntitlements(rows)
	if err != nil {
		return model.DividendEntitlement{}, err
	}
	if len(entitlements) == 0 {
		return model.DividendEntitlement{}, fmt.Errorf("%w: %s", apperrors.ErrEntitlementNotFound, entitlementID)
	}

	return entitlements[0], nil
}

// GetForUserAndDividend retrieves a user's confirmed entitlement for a
// dividend, or nil if none exists.
func (s *EntitlementRepository) GetForUserAndDividend(ctx context.Context, q Querier, userID, dividendID string) (*model.DividendEntitlement, error) {
	if q == nil {
		q = s.db
	}
	query := `
		SELECT ` + entitlementColumns + `
		FROM dividend_entitlement
		WHERE user_id = ? AND dividend_id = ?
	`

	rows, err := q.QueryContext(ctx, query, userID, dividendID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend_entitlement table: %w", err)
	}
	defer rows.Close()

	entitlements, err := scanEntitlements(rows)
	if err != nil {
		return nil, err
	}
	if len(entitlements) == 0 {
		return nil, nil
	}
	return &entitlements[0], nil
}

// GetForUserAndPrediction retrieves a user's predicted entitlement keyed by
// (symbol, predicted ex-date), or nil if none exists.
func (s *EntitlementRepository) GetForUserAndPrediction(ctx context.Context, q Querier, userID, symbol string, exDate time.Time) (*model.DividendEntitlement, error) {
	if q == nil {
		q = s.db
	}
	query := `
		SELECT ` + entitlementColumns + `
		FROM dividend_entitlement
		WHERE user_id = ? AND predicted_symbol = ? AND predicted_ex_date = ?
	`

	rows, err := q.QueryContext(ctx, query, userID, symbol, day(exDate))
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend_entitlement table: %w", err)
	}
	defer rows.Close()

	entitlements, err := scanEntitlements(rows)
	if err != nil {
		return nil, err
	}
	if len(entitlements) == 0 {
		return nil, nil
	}
	return &entitlements[0], nil
}

// UpsertEntitlement writes an entitlement, overwriting the computed amounts of
// any existing row sharing the same logical key. The existing row's ID is
// preserved so its tax credit row stays attached.
func (s *EntitlementRepository) UpsertEntitlement(ctx context.Context, q Querier, e *model.DividendEntitlement) error {
	if q == nil {
		q = s.db
	}

	var existing *model.DividendEntitlement
	var err error

	if e.DividendID != nil {
		existing, err = s.GetForUserAndDividend(ctx, q, e.UserID, *e.DividendID)
	} else {
		existing, err = s.GetForUserAndPrediction(ctx, q, e.UserID, *e.PredictedSymbol, *e.PredictedExDate)
	}
	if err != nil {
		return err
	}

	if existing != nil {
		e.ID = existing.ID
		query := `
			UPDATE dividend_entitlement
			SET status = ?, shares_held = ?, gross_dividend = ?, withholding_tax = ?, net_dividend = ?
			WHERE id = ?
		`
		_, err := q.ExecContext(ctx, query,
			e.Status, e.SharesHeld, e.GrossDividend, e.WithholdingTax, e.NetDividend, e.ID)
		if err != nil {
			return fmt.Errorf("failed to update entitlement: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO dividend_entitlement (` + entitlementColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var predictedExDate, paymentReceived any
	if e.PredictedExDate != nil {
		predictedExDate = day(*e.PredictedExDate)
	}
	if e.PaymentReceivedDate != nil {
		paymentReceived = day(*e.PaymentReceivedDate)
	}

	_, err = q.ExecContext(ctx, query,
		e.ID,
		e.UserID,
		e.Status,
		e.DividendID,
		e.PredictedSymbol,
		predictedExDate,
		e.SharesHeld,
		e.GrossDividend,
		e.WithholdingTax,
		e.NetDividend,
		paymentReceived,
		stamp(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entitlement: %w", err)
	}

	return nil
}

// DeleteEntitlement removes an entitlement by ID. The attached tax credit row
// cascades via the foreign key.
func (s *EntitlementRepository) DeleteEntitlement(ctx context.Context, q Querier, entitlementID string) error {
	if q == nil {
		q = s.db
	}
	query := `DELETE FROM dividend_entitlement WHERE id = ?`

	if _, err := q.ExecContext(ctx, query, entitlementID); err != nil {
		return fmt.Errorf("failed to delete entitlement: %w", err)
	}

	return nil
}

// DeletePredictedForDividend removes a user's predicted entitlement sharing
// the confirmed dividend's logical key (symbol, ex-date), so the confirmed row
// replaces it rather than coexisting with it.
func (s *EntitlementRepository) DeletePredictedForDividend(ctx context.Context, q Querier, userID, symbol string, exDate time.Time) error {
	if q == nil {
		q = s.db
	}
	query := `
		DELETE FROM dividend_entitlement
		WHERE user_id = ?
		AND predicted_symbol = ?
		AND predicted_ex_date = ?
	`

	if _, err := q.ExecContext(ctx, query, userID, symbol, day(exDate)); err != nil {
		return fmt.Errorf("failed to delete predicted entitlement: %w", err)
	}

	return nil
}

// ListForDividend retrieves all entitlements created from one dividend
// declaration.
func (s *EntitlementRepository) ListForDividend(ctx context.Context, dividendID string) ([]model.DividendEntitlement, error) {
	query := `
		SELECT ` + entitlementColumns + `
		FROM dividend_entitlement
		WHERE dividend_id = ?
		ORDER BY user_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, dividendID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend_entitlement table: %w", err)
	}
	defer rows.Close()

	return scanEntitlements(rows)
}

// ListForUser retrieves a user's entitlement history joined with source
// dividend details and tax credits, newest ex-date first.
func (s *EntitlementRepository) ListForUser(ctx context.Context, userID string) ([]model.EntitlementRecord, error) {
	query := `
		SELECT
			e.id, e.user_id, e.status, e.dividend_id, e.predicted_symbol, e.predicted_ex_date,
			e.shares_held, e.gross_dividend, e.withholding_tax, e.net_dividend,
			e.payment_received_date, e.created_at,
			COALESCE(d.symbol, e.predicted_symbol, ''),
			COALESCE(d.ex_dividend_date, e.predicted_ex_date),
			COALESCE(d.dividend_per_share, 0),
			tc.entitlement_id, tc.tax_year, tc.corporate_tax_rate,
			tc.tax_credit_amount, tc.taxable_income
		FROM dividend_entitlement e
		LEFT JOIN dividend d ON d.id = e.dividend_id
		LEFT JOIN tax_credit tc ON tc.entitlement_id = e.id
		WHERE e.user_id = ?
		ORDER BY COALESCE(d.ex_dividend_date, e.predicted_ex_date) DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend_entitlement table: %w", err)
	}
	defer rows.Close()

	records := []model.EntitlementRecord{}
	for rows.Next() {
		var r model.EntitlementRecord
		var dividendID, predictedSymbol, predictedExStr, paymentStr, exDateStr sql.NullString
		var createdStr string
		var tcID sql.NullString
		var tcYear sql.NullInt64
		var tcRate, tcAmount, tcIncome sql.NullFloat64

		err := rows.Scan(
			&r.ID, &r.UserID, &r.Status, &dividendID, &predictedSymbol, &predictedExStr,
			&r.SharesHeld, &r.GrossDividend, &r.WithholdingTax, &r.NetDividend,
			&paymentStr, &createdStr,
			&r.Symbol,
			&exDateStr,
			&r.DividendPerShare,
			&tcID, &tcYear, &tcRate, &tcAmount, &tcIncome,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dividend_entitlement table results: %w", err)
		}

		if dividendID.Valid {
			r.DividendID = &dividendID.String
		}
		if predictedSymbol.Valid {
			r.PredictedSymbol = &predictedSymbol.String
		}
		if predictedExStr.Valid {
			d, err := ParseTime(predictedExStr.String)
			if err != nil {
				return nil, err
			}
			r.PredictedExDate = &d
		}
		if paymentStr.Valid {
			d, err := ParseTime(paymentStr.String)
			if err != nil {
				return nil, err
			}
			r.PaymentReceivedDate = &d
		}
		if exDateStr.Valid {
			d, err := ParseTime(exDateStr.String)
			if err != nil {
				return nil, err
			}
			r.ExDividendDate = &d
		}

		r.CreatedAt, err = ParseTime(createdStr)
		if err != nil {
			return nil, err
		}

		if tcID.Valid {
			r.TaxCredit = &model.TaxCredit{
				EntitlementID:    tcID.String,
				UserID:           r.UserID,
				TaxYear:          int(tcYear.Int64),
				CorporateTaxRate: tcRate.Float64,
				TaxCreditAmount:  tcAmount.Float64,
				TaxableIncome:    tcIncome.Float64,
			}
		}

		records = append(records, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dividend_entitlement table: %w", err)
	}

	return records, nil
}

// MarkPaymentReceived records the date a user actually received the payout.
func (s *EntitlementRepository) MarkPaymentReceived(ctx context.Context, entitlementID string, received time.Time) error {
	query := `
		UPDATE dividend_entitlement
		SET payment_received_date = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query, day(received), entitlementID)
	if err != nil {
		return fmt.Errorf("failed to update entitlement: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrEntitlementNotFound, entitlementID)
	}

	return nil
}

func scanEntitlements(rows *sql.Rows) ([]model.DividendEntitlement, error) {
	entitlements := []model.DividendEntitlement{}

	for rows.Next() {
		var e model.DividendEntitlement
		var dividendID, predictedSymbol, predictedExStr, paymentStr sql.NullString
		var createdStr string

		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Status,
			&dividendID,
			&predictedSymbol,
			&predictedExStr,
			&e.SharesHeld,
			&e.GrossDividend,
			&e.WithholdingTax,
			&e.NetDividend,
			&paymentStr,
			&createdStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dividend_entitlement table results: %w", err)
		}

		if dividendID.Valid {
			e.DividendID = &dividendID.String
		}
		if predictedSymbol.Valid {
			e.PredictedSymbol = &predictedSymbol.String
		}
		if predictedExStr.Valid {
			d, err := ParseTime(predictedExStr.String)
			if err != nil {
				return nil, err
			}
			e.PredictedExDate = &d
		}
		if paymentStr.Valid {
			d, err := ParseTime(paymentStr.String)
			if err != nil {
				return nil, err
			}
			e.PaymentReceivedDate = &d
		}

		e.CreatedAt, err = ParseTime(createdStr)
		if err != nil {
			return nil, err
		}

		entitlements = append(entitlements, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dividend_entitlement table: %w", err)
	}

	return entitlements, nil
}
