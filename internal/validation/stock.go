package validation

import (
	"strings"

	"github.com/pattarads/set-dividend-tracker-backend/internal/api/request"
)

// ValidateCreateStock validates a stock registration request.
//
// Required fields:
//   - symbol: valid SET symbol
//   - name: non-empty
//
// Optional fields (validated if provided):
//   - corporateTaxRate: strictly between 0 and 1
//
// Returns a validation Error with field-specific messages if validation fails.
func ValidateCreateStock(req request.CreateStockRequest) error {
	errors := make(map[string]string)

	if err := ValidateSymbol(req.Symbol); err != nil {
		errors["symbol"] = err.Error()
	}

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	}

	if req.CorporateTaxRate != nil && (*req.CorporateTaxRate <= 0 || *req.CorporateTaxRate >= 1) {
		errors["corporateTaxRate"] = "corporateTaxRate must be strictly between 0 and 1"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
