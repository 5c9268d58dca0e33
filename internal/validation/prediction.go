package validation

import (
	"github.com/pattarads/set-dividend-tracker-backend/internal/api/request"
)

// ValidateUpsertPrediction validates a forecast ingest request.
//
// Required fields:
//   - symbol: valid SET symbol
//   - predictedExDividendDate: YYYY-MM-DD
//   - predictedDividendPerShare: non-negative
//
// Optional fields (validated if provided):
//   - predictionDate, predictedRecordDate, predictedPaymentDate: YYYY-MM-DD
//   - confidenceScore: within [0,1]
//
// Returns a validation Error with field-specific messages if validation fails.
func ValidateUpsertPrediction(req request.UpsertPredictionRequest) error {
	errors := make(map[string]string)

	if err := ValidateSymbol(req.Symbol); err != nil {
		errors["symbol"] = err.Error()
	}

	if !validDate(req.PredictedExDividendDate) {
		errors["predictedExDividendDate"] = "predictedExDividendDate must be YYYY-MM-DD"
	}

	if req.PredictedDividendPerShare < 0 {
		errors["predictedDividendPerShare"] = "predictedDividendPerShare cannot be negative"
	}

	// optionals

	if req.PredictionDate != "" && !validDate(req.PredictionDate) {
		errors["predictionDate"] = "predictionDate must be YYYY-MM-DD"
	}

	if req.PredictedRecordDate != "" && !validDate(req.PredictedRecordDate) {
		errors["predictedRecordDate"] = "predictedRecordDate must be YYYY-MM-DD"
	}

	if req.PredictedPaymentDate != "" && !validDate(req.PredictedPaymentDate) {
		errors["predictedPaymentDate"] = "predictedPaymentDate must be YYYY-MM-DD"
	}

	if req.ConfidenceScore != nil && (*req.ConfidenceScore < 0 || *req.ConfidenceScore > 1) {
		errors["confidenceScore"] = "confidenceScore must be within [0,1]"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
