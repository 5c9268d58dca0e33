package model

import "time"

// TaxCredit is the imputation tax credit derived from one dividend
// entitlement (1:1, cascade-deleted with it).
//
// Invariants: TaxCreditAmount = gross x T/(1-T) where T is the issuer's
// corporate tax rate, and TaxableIncome = gross + TaxCreditAmount.
type TaxCredit struct {
	EntitlementID    string    `json:"entitlementId"`
	UserID           string    `json:"userId"`
	TaxYear          int       `json:"taxYear"`
	CorporateTaxRate float64   `json:"corporateTaxRate"`
	TaxCreditAmount  float64   `json:"taxCreditAmount"`
	TaxableIncome    float64   `json:"taxableIncome"`
	CreatedAt        time.Time `json:"createdAt,omitempty"`
}
