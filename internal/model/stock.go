package model

// Stock represents a listed equity from the database.
// CorporateTaxRate is the issuer's corporate income tax rate as a fraction
// (e.g. 0.20); it is nil when the rate is unknown. BOI-supported issuers pay
// dividends from tax-exempt profits, so no imputation credit applies.
type Stock struct {
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Sector           string   `json:"sector,omitempty"`
	CorporateTaxRate *float64 `json:"corporateTaxRate,omitempty"`
	BOISupport       bool     `json:"boiSupport"`
}
