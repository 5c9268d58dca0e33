package model

import "time"

// DividendPrediction is a forecast of an upcoming dividend produced by the
// external forecasting service. Keyed by (symbol, predicted ex-dividend
// date); refreshed by upsert. Read-only from the core's perspective apart
// from that upsert.
type DividendPrediction struct {
	Symbol                    string     `json:"symbol"`
	PredictionDate            time.Time  `json:"predictionDate"`
	PredictedExDividendDate   time.Time  `json:"predictedExDividendDate"`
	PredictedRecordDate       *time.Time `json:"predictedRecordDate,omitempty"`
	PredictedPaymentDate      *time.Time `json:"predictedPaymentDate,omitempty"`
	PredictedDividendPerShare float64    `json:"predictedDividendPerShare"`
	ConfidenceScore           *float64   `json:"confidenceScore,omitempty"`
	PredictionHorizonDays     int        `json:"predictionHorizonDays"`
}
