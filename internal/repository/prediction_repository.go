package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
)

// PredictionRepository provides data access methods for the prediction table.
// Predictions come from the forecasting pipeline; this side only upserts and
// reads them.
type PredictionRepository struct {
	db *sql.DB
}

// NewPredictionRepository creates a new PredictionRepository with the provided database connection.
func NewPredictionRepository(db *sql.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

const predictionColumns = `
	symbol, prediction_date, predicted_ex_dividend_date, predicted_record_date,
	predicted_payment_date, predicted_dividend_per_share, confidence_score, prediction_horizon_days
`

// GetPrediction retrieves the prediction keyed by (symbol, predicted ex-date).
func (s *PredictionRepository) GetPrediction(ctx context.Context, symbol string, exDate time.Time) (model.DividendPrediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM prediction
		WHERE symbol = ? AND predicted_ex_dividend_date = ?
	`

	rows, err := s.db.QueryContext(ctx, query, symbol, day(exDate))
	if err != nil {
		return model.DividendPrediction{}, fmt.Errorf("failed to query prediction table: %w", err)
	}
	defer rows.Close()

	predictions, err := scanPredictions(rows)
	if err != nil {
		return model.DividendPrediction{}, err
	}
	if len(predictions) == 0 {
		return model.DividendPrediction{}, fmt.Errorf("%w: %s/%s", apperrors.ErrPredictionNotFound, symbol, day(exDate))
	}

	return predictions[0], nil
}

// UpsertPrediction writes a prediction, replacing any previous forecast for
// the same (symbol, predicted ex-date).
func (s *PredictionRepository) UpsertPrediction(ctx context.Context, p model.DividendPrediction) error {
	query := `
		INSERT INTO prediction (` + predictionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, predicted_ex_dividend_date) DO UPDATE SET
			prediction_date = excluded.prediction_date,
			predicted_record_date = excluded.predicted_record_date,
			predicted_payment_date = excluded.predicted_payment_date,
			predicted_dividend_per_share = excluded.predicted_dividend_per_share,
			confidence_score = excluded.confidence_score,
			prediction_horizon_days = excluded.prediction_horizon_days
	`

	var recordDate, paymentDate, confidence any
	if p.PredictedRecordDate != nil {
		recordDate = day(*p.PredictedRecordDate)
	}
	if p.PredictedPaymentDate != nil {
		paymentDate = day(*p.PredictedPaymentDate)
	}
	if p.ConfidenceScore != nil {
		confidence = *p.ConfidenceScore
	}

	_, err := s.db.ExecContext(ctx, query,
		p.Symbol,
		stamp(p.PredictionDate),
		day(p.PredictedExDividendDate),
		recordDate,
		paymentDate,
		p.PredictedDividendPerShare,
		confidence,
		p.PredictionHorizonDays,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert prediction: %w", err)
	}

	return nil
}

// ListInRange retrieves predictions with ex-date within [from,to], ascending,
// for the dividend calendar.
func (s *PredictionRepository) ListInRange(ctx context.Context, from, to time.Time) ([]model.DividendPrediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM prediction
		WHERE predicted_ex_dividend_date >= ?
		AND predicted_ex_dividend_date <= ?
		ORDER BY predicted_ex_dividend_date ASC, symbol ASC
	`

	rows, err := s.db.QueryContext(ctx, query, day(from), day(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction table: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// NextAfter returns the symbol's earliest prediction with ex-date strictly
// after ref, or nil if none exists.
func (s *PredictionRepository) NextAfter(ctx context.Context, symbol string, ref time.Time) (*model.DividendPrediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM prediction
		WHERE symbol = ?
		AND predicted_ex_dividend_date > ?
		ORDER BY predicted_ex_dividend_date ASC
		LIMIT 1
	`

	rows, err := s.db.QueryContext(ctx, query, symbol, day(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction table: %w", err)
	}
	defer rows.Close()

	predictions, err := scanPredictions(rows)
	if err != nil {
		return nil, err
	}
	if len(predictions) == 0 {
		return nil, nil
	}
	return &predictions[0], nil
}

func scanPredictions(rows *sql.Rows) ([]model.DividendPrediction, error) {
	predictions := []model.DividendPrediction{}

	for rows.Next() {
		var predictionStr, exStr string
		var recordStr, payStr sql.NullString
		var confidence sql.NullFloat64
		var p model.DividendPrediction

		err := rows.Scan(
			&p.Symbol,
			&predictionStr,
			&exStr,
			&recordStr,
			&payStr,
			&p.PredictedDividendPerShare,
			&confidence,
			&p.PredictionHorizonDays,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction table results: %w", err)
		}

		p.PredictionDate, err = ParseTime(predictionStr)
		if err != nil {
			return nil, err
		}
		p.PredictedExDividendDate, err = ParseTime(exStr)
		if err != nil {
			return nil, err
		}

		if recordStr.Valid {
			d, err := ParseTime(recordStr.String)
			if err != nil {
				return nil, err
			}
			p.PredictedRecordDate = &d
		}
		if payStr.Valid {
			d, err := ParseTime(payStr.String)
			if err != nil {
				return nil, err
			}
			p.PredictedPaymentDate = &d
		}
		if confidence.Valid {
			p.ConfidenceScore = &confidence.Float64
		}

		predictions = append(predictions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction table: %w", err)
	}

	return predictions, nil
}
