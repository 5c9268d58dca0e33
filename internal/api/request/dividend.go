package request

// CreateDividendRequest represents the request body for recording a dividend
// declaration. RecordDate is optional and defaults to the day after the
// ex-dividend date.
type CreateDividendRequest struct {
	Symbol           string  `json:"symbol"`
	AnnouncementDate string  `json:"announcementDate,omitempty"`
	ExDividendDate   string  `json:"exDividendDate"`
	RecordDate       string  `json:"recordDate,omitempty"`
	PaymentDate      string  `json:"paymentDate"`
	DividendPerShare float64 `json:"dividendPerShare"`
	SourceOfDividend string  `json:"sourceOfDividend,omitempty"`
}

// MarkPaymentReceivedRequest records the date a dividend payout arrived.
type MarkPaymentReceivedRequest struct {
	ReceivedDate string `json:"receivedDate"`
}
