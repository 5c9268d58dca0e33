package validation

import (
	"strings"

	"github.com/pattarads/set-dividend-tracker-backend/internal/api/request"
	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
)

// ValidateCreateTransaction validates a trade submission.
//
// Required fields:
//   - userId: non-empty
//   - symbol: valid SET symbol
//   - date: YYYY-MM-DD
//   - type: BUY or SELL
//   - quantity: positive
//   - pricePerShare: positive
//
// Optional fields:
//   - commission: non-negative
//
// Returns a validation Error with field-specific messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.UserID) == "" {
		errors["userId"] = "userId is required"
	}

	if err := ValidateSymbol(req.Symbol); err != nil {
		errors["symbol"] = err.Error()
	}

	if !validDate(req.Date) {
		errors["date"] = "date must be YYYY-MM-DD"
	}

	if req.Type != model.TransactionBuy && req.Type != model.TransactionSell {
		errors["type"] = "type must be BUY or SELL"
	}

	if req.Quantity <= 0 {
		errors["quantity"] = "quantity must be positive"
	}

	if req.PricePerShare <= 0 {
		errors["pricePerShare"] = "pricePerShare must be positive"
	}

	if req.Commission < 0 {
		errors["commission"] = "commission cannot be negative"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
