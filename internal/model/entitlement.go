package model

import "time"

// Entitlement status values. PREDICTED rows come from the prediction path and
// may later be overwritten by the confirmed dividend sharing the same logical
// key; CONFIRMED rows come from an actual declaration.
const (
	EntitlementPredicted = "PREDICTED"
	EntitlementConfirmed = "CONFIRMED"
)

// DividendEntitlement is a user's computed right to a dividend amount based on
// shares held at the record date.
//
// Exactly one of the two key shapes is populated per row: DividendID for a
// confirmed entitlement, or (PredictedSymbol, PredictedExDate) for a predicted
// one. Invariants: GrossDividend = SharesHeld x dividend per share,
// NetDividend = GrossDividend x 0.9.
type DividendEntitlement struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"userId"`
	Status              string     `json:"status"`
	DividendID          *string    `json:"dividendId,omitempty"`
	PredictedSymbol     *string    `json:"predictedSymbol,omitempty"`
	PredictedExDate     *time.Time `json:"predictedExDate,omitempty"`
	SharesHeld          int64      `json:"sharesHeld"`
	GrossDividend       float64    `json:"grossDividend"`
	WithholdingTax      float64    `json:"withholdingTax"`
	NetDividend         float64    `json:"netDividend"`
	PaymentReceivedDate *time.Time `json:"paymentReceivedDate,omitempty"`
	CreatedAt           time.Time  `json:"createdAt,omitempty"`
}

// EntitlementRecord is an entitlement enriched with its source dividend
// details and the derived tax credit, for history listings.
type EntitlementRecord struct {
	DividendEntitlement
	Symbol           string     `json:"symbol"`
	ExDividendDate   *time.Time `json:"exDividendDate,omitempty"`
	DividendPerShare float64    `json:"dividendPerShare"`
	TaxCredit        *TaxCredit `json:"taxCredit,omitempty"`
}
