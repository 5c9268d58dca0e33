package request

// CreateStockRequest represents the request body for registering a stock.
type CreateStockRequest struct {
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Sector           string   `json:"sector,omitempty"`
	CorporateTaxRate *float64 `json:"corporateTaxRate,omitempty"`
	BOISupport       bool     `json:"boiSupport,omitempty"`
}
