package validation

import (
	"github.com/pattarads/set-dividend-tracker-backend/internal/api/request"
)

// ValidateCreateDividend validates a dividend declaration request.
//
// Required fields:
//   - symbol: valid SET symbol
//   - exDividendDate: YYYY-MM-DD
//   - paymentDate: YYYY-MM-DD
//   - dividendPerShare: positive
//
// Optional fields (validated if provided):
//   - announcementDate: YYYY-MM-DD
//   - recordDate: YYYY-MM-DD
//
// Returns a validation Error with field-specific messages if validation fails.
func ValidateCreateDividend(req request.CreateDividendRequest) error {
	errors := make(map[string]string)

	if err := ValidateSymbol(req.Symbol); err != nil {
		errors["symbol"] = err.Error()
	}

	if !validDate(req.ExDividendDate) {
		errors["exDividendDate"] = "exDividendDate must be YYYY-MM-DD"
	}

	if !validDate(req.PaymentDate) {
		errors["paymentDate"] = "paymentDate must be YYYY-MM-DD"
	}

	if req.DividendPerShare <= 0 {
		errors["dividendPerShare"] = "dividendPerShare must be positive"
	}

	// optionals

	if req.AnnouncementDate != "" && !validDate(req.AnnouncementDate) {
		errors["announcementDate"] = "announcementDate must be YYYY-MM-DD"
	}

	if req.RecordDate != "" && !validDate(req.RecordDate) {
		errors["recordDate"] = "recordDate must be YYYY-MM-DD"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
