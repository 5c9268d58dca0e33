package request

// UpsertPredictionRequest represents a forecast pushed by the prediction
// pipeline, keyed by symbol and predicted ex-dividend date.
type UpsertPredictionRequest struct {
	Symbol                    string   `json:"symbol"`
	PredictionDate            string   `json:"predictionDate,omitempty"`
	PredictedExDividendDate   string   `json:"predictedExDividendDate"`
	PredictedRecordDate       string   `json:"predictedRecordDate,omitempty"`
	PredictedPaymentDate      string   `json:"predictedPaymentDate,omitempty"`
	PredictedDividendPerShare float64  `json:"predictedDividendPerShare"`
	ConfidenceScore           *float64 `json:"confidenceScore,omitempty"`
	PredictionHorizonDays     int      `json:"predictionHorizonDays,omitempty"`
}
