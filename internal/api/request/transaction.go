package request

// CreateTransactionRequest represents the request body for recording a trade.
// All fields are required except commission, which defaults to zero.
type CreateTransactionRequest struct {
	UserID        string  `json:"userId"`
	Symbol        string  `json:"symbol"`
	Date          string  `json:"date"`
	Type          string  `json:"type"`
	Quantity      int64   `json:"quantity"`
	PricePerShare float64 `json:"pricePerShare"`
	Commission    float64 `json:"commission,omitempty"`
}
