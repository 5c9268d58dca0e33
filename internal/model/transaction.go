package model

import "time"

// Transaction types. The transaction log is append-only; rows are never
// mutated or deleted by the core.
const (
	TransactionBuy  = "BUY"
	TransactionSell = "SELL"
)

// Transaction represents a buy or sell of a stock by a user.
type Transaction struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Symbol        string    `json:"symbol"`
	Date          time.Time `json:"date"`
	Type          string    `json:"type"`
	Quantity      int64     `json:"quantity"`
	PricePerShare float64   `json:"pricePerShare"`
	Commission    float64   `json:"commission"`
	TotalAmount   float64   `json:"totalAmount"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}
