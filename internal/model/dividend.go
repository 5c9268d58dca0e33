package model

import "time"

// Calculation status values for a dividend declaration. The status is
// monotonic: PENDING -> PROCESSING -> COMPLETED, and COMPLETED is terminal.
const (
	CalculationPending    = "PENDING"
	CalculationProcessing = "PROCESSING"
	CalculationCompleted  = "COMPLETED"
)

// DividendDeclaration represents a declared (actual) dividend for a stock.
type DividendDeclaration struct {
	ID                string     `json:"id"`
	Symbol            string     `json:"symbol"`
	AnnouncementDate  time.Time  `json:"announcementDate"`
	ExDividendDate    time.Time  `json:"exDividendDate"`
	RecordDate        time.Time  `json:"recordDate"`
	PaymentDate       time.Time  `json:"paymentDate"`
	DividendPerShare  float64    `json:"dividendPerShare"`
	SourceOfDividend  string     `json:"sourceOfDividend,omitempty"`
	CalculationStatus string     `json:"calculationStatus"`
	CalculatedAt      *time.Time `json:"calculatedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt,omitempty"`
}

// CalendarEvent is one dividend event (actual or predicted) on the dividend
// calendar. Predicted events carry a confidence score and a synthetic ID.
type CalendarEvent struct {
	DividendID       string     `json:"dividendId"`
	Symbol           string     `json:"symbol"`
	Name             string     `json:"name,omitempty"`
	Type             string     `json:"type"` // "XD" or "XD-PREDICT"
	ExDividendDate   time.Time  `json:"exDividendDate"`
	RecordDate       *time.Time `json:"recordDate,omitempty"`
	PaymentDate      *time.Time `json:"paymentDate,omitempty"`
	DividendPerShare float64    `json:"dividendPerShare"`
	ConfidenceScore  *float64   `json:"confidenceScore,omitempty"`
}

// CalendarDay groups the dividend events falling on one calendar date.
type CalendarDay struct {
	Date   string          `json:"date"`
	Events []CalendarEvent `json:"events"`
}

// EstimatedBenefit previews what a buyer would receive from the nearest
// upcoming dividend (actual or predicted) if they hold through its ex-date.
type EstimatedBenefit struct {
	Type             string  `json:"type"` // "ACTUAL" or "PREDICTED"
	Symbol           string  `json:"symbol"`
	DividendPerShare float64 `json:"dividendPerShare"`
	Shares           int64   `json:"shares"`
	GrossDividend    float64 `json:"grossDividend"`
	WithholdingTax   float64 `json:"withholdingTax"`
	NetDividend      float64 `json:"netDividend"`
	AppliedTaxRate   float64 `json:"appliedTaxRate"`
	TaxCreditFactor  float64 `json:"taxCreditFactor"`
	EstimatedCredit  float64 `json:"estimatedCredit"`
	TotalWithCredit  float64 `json:"totalWithCredit"`
}
