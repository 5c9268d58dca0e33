package model

import "time"

// Position is the materialized view of a user's holding in one symbol,
// maintained incrementally on every trade. It is never the source of truth:
// it is always reconstructable from the transaction log.
type Position struct {
	UserID              string    `json:"userId"`
	Symbol              string    `json:"symbol"`
	CurrentQuantity     int64     `json:"currentQuantity"`
	TotalInvested       float64   `json:"totalInvested"`
	AverageCost         float64   `json:"averageCost"`
	LastTransactionDate time.Time `json:"lastTransactionDate"`
}

// CostBasisPoint is one step of the cost-basis curve produced by replaying a
// user's transaction log forward in time.
type CostBasisPoint struct {
	Date          time.Time `json:"date"`
	Quantity      int64     `json:"quantity"`
	TotalInvested float64   `json:"totalInvested"`
	AverageCost   float64   `json:"averageCost"`
}

// PositionValuation is a position enriched with the latest known close price.
type PositionValuation struct {
	Position
	LatestClose    float64 `json:"latestClose"`
	MarketValue    float64 `json:"marketValue"`
	UnrealizedGain float64 `json:"unrealizedGain"`
}
