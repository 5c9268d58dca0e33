package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pattarads/set-dividend-tracker-backend/internal/model"
)

// MakeID returns a fresh UUID string for test fixtures.
func MakeID() string {
	return uuid.NewString()
}

// Day builds a normalized calendar date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StockBuilder provides a fluent interface for creating test stocks.
//
// Example usage:
//
//	stock := testutil.NewStock("PTT").WithTaxRate(0.20).Build(t, db)
type StockBuilder struct {
	Symbol           string
	Name             string
	Sector           string
	CorporateTaxRate *float64
	BOISupport       bool
}

// NewStock creates a StockBuilder with sensible defaults.
func NewStock(symbol string) *StockBuilder {
	return &StockBuilder{
		Symbol: symbol,
		Name:   symbol + " Public Company Limited",
		Sector: "ENERG",
	}
}

// WithTaxRate sets the issuer's corporate tax rate.
func (b *StockBuilder) WithTaxRate(rate float64) *StockBuilder {
	b.CorporateTaxRate = &rate
	return b
}

// WithBOISupport marks the issuer as distributing BOI-exempt profits.
func (b *StockBuilder) WithBOISupport() *StockBuilder {
	b.BOISupport = true
	return b
}

// Build creates the stock in the database and returns it.
func (b *StockBuilder) Build(t *testing.T, db *sql.DB) model.Stock {
	t.Helper()

	query := `
		INSERT INTO stock (symbol, name, sector, corporate_tax_rate, boi_support)
		VALUES (?, ?, ?, ?, ?)
	`

	var rate any
	if b.CorporateTaxRate != nil {
		rate = *b.CorporateTaxRate
	}

	if _, err := db.Exec(query, b.Symbol, b.Name, b.Sector, rate, b.BOISupport); err != nil {
		t.Fatalf("Failed to create test stock: %v", err)
	}

	return model.Stock{
		Symbol:           b.Symbol,
		Name:             b.Name,
		Sector:           b.Sector,
		CorporateTaxRate: b.CorporateTaxRate,
		BOISupport:       b.BOISupport,
	}
}

// TransactionBuilder provides a fluent interface for creating test trades.
type TransactionBuilder struct {
	ID            string
	UserID        string
	Symbol        string
	Date          time.Time
	Type          string
	Quantity      int64
	PricePerShare float64
	Commission    float64
}

// NewTransaction creates a TransactionBuilder for a BUY with sensible defaults.
func NewTransaction(userID, symbol string, date time.Time) *TransactionBuilder {
	return &TransactionBuilder{
		ID:            MakeID(),
		UserID:        userID,
		Symbol:        symbol,
		Date:          date,
		Type:          model.TransactionBuy,
		Quantity:      100,
		PricePerShare: 30,
	}
}

// Sell marks the trade as a SELL.
func (b *TransactionBuilder) Sell() *TransactionBuilder {
	b.Type = model.TransactionSell
	return b
}

// WithQuantity sets the share quantity.
func (b *TransactionBuilder) WithQuantity(quantity int64) *TransactionBuilder {
	b.Quantity = quantity
	return b
}

// WithPrice sets the price per share.
func (b *TransactionBuilder) WithPrice(price float64) *TransactionBuilder {
	b.PricePerShare = price
	return b
}

// WithCommission sets the commission.
func (b *TransactionBuilder) WithCommission(commission float64) *TransactionBuilder {
	b.Commission = commission
	return b
}

// Build creates the trade in the database and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	total := float64(b.Quantity) * b.PricePerShare
	if b.Type == model.TransactionBuy {
		total += b.Commission
	} else {
		total -= b.Commission
	}
	createdAt := time.Now().UTC()

	query := `
		INSERT INTO "transaction" (id, user_id, symbol, date, type, quantity, price_per_share, commission, total_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID, b.UserID, b.Symbol, b.Date.Format("2006-01-02"), b.Type,
		b.Quantity, b.PricePerShare, b.Commission, total, createdAt.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return model.Transaction{
		ID:            b.ID,
		UserID:        b.UserID,
		Symbol:        b.Symbol,
		Date:          b.Date,
		Type:          b.Type,
		Quantity:      b.Quantity,
		PricePerShare: b.PricePerShare,
		Commission:    b.Commission,
		TotalAmount:   total,
		CreatedAt:     createdAt,
	}
}

// DividendBuilder provides a fluent interface for creating test declarations.
type DividendBuilder struct {
	ID               string
	Symbol           string
	ExDividendDate   time.Time
	DividendPerShare float64
	Status           string
}

// NewDividend creates a DividendBuilder in the PENDING state.
func NewDividend(symbol string, exDate time.Time) *DividendBuilder {
	return &DividendBuilder{
		ID:               MakeID(),
		Symbol:           symbol,
		ExDividendDate:   exDate,
		DividendPerShare: 1.5,
		Status:           model.CalculationPending,
	}
}

// WithPerShare sets the dividend per share.
func (b *DividendBuilder) WithPerShare(dps float64) *DividendBuilder {
	b.DividendPerShare = dps
	return b
}

// WithStatus sets the calculation status.
func (b *DividendBuilder) WithStatus(status string) *DividendBuilder {
	b.Status = status
	return b
}

// Build creates the declaration in the database and returns it. The record
// date is the day after the ex-date and payment follows three weeks later.
func (b *DividendBuilder) Build(t *testing.T, db *sql.DB) model.DividendDeclaration {
	t.Helper()

	d := model.DividendDeclaration{
		ID:                b.ID,
		Symbol:            b.Symbol,
		AnnouncementDate:  b.ExDividendDate.AddDate(0, 0, -14),
		ExDividendDate:    b.ExDividendDate,
		RecordDate:        b.ExDividendDate.AddDate(0, 0, 1),
		PaymentDate:       b.ExDividendDate.AddDate(0, 0, 21),
		DividendPerShare:  b.DividendPerShare,
		CalculationStatus: b.Status,
		CreatedAt:         time.Now().UTC(),
	}

	query := `
		INSERT INTO dividend (id, symbol, announcement_date, ex_dividend_date, record_date, payment_date,
			dividend_per_share, source_of_dividend, calculation_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		d.ID, d.Symbol,
		d.AnnouncementDate.Format("2006-01-02"),
		d.ExDividendDate.Format("2006-01-02"),
		d.RecordDate.Format("2006-01-02"),
		d.PaymentDate.Format("2006-01-02"),
		d.DividendPerShare, d.SourceOfDividend, d.CalculationStatus,
		d.CreatedAt.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test dividend: %v", err)
	}

	return d
}

// CreatePrediction inserts a forecast for (symbol, exDate) with the given
// dividend per share.
func CreatePrediction(t *testing.T, db *sql.DB, symbol string, exDate time.Time, dps float64) model.DividendPrediction {
	t.Helper()

	p := model.DividendPrediction{
		Symbol:                    symbol,
		PredictionDate:            time.Now().UTC(),
		PredictedExDividendDate:   exDate,
		PredictedDividendPerShare: dps,
		PredictionHorizonDays:     90,
	}

	query := `
		INSERT INTO prediction (symbol, prediction_date, predicted_ex_dividend_date,
			predicted_dividend_per_share, prediction_horizon_days)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, p.Symbol,
		p.PredictionDate.Format(time.RFC3339),
		p.PredictedExDividendDate.Format("2006-01-02"),
		p.PredictedDividendPerShare, p.PredictionHorizonDays)
	if err != nil {
		t.Fatalf("Failed to create test prediction: %v", err)
	}

	return p
}

// CreatePriceBar inserts one stored price bar.
func CreatePriceBar(t *testing.T, db *sql.DB, symbol string, date time.Time, close float64) model.PriceBar {
	t.Helper()

	b := model.PriceBar{
		Symbol:       symbol,
		TradingDate:  date,
		Open:         close,
		High:         close,
		Low:          close,
		Close:        close,
		VolumeShares: decimal.NewFromInt(1000),
		VolumeValue:  decimal.NewFromFloat(close * 1000),
	}

	query := `
		INSERT INTO price_bar (symbol, trading_date, open_price, high_price, low_price, close_price,
			price_change, percent_change, volume_shares, volume_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.Symbol, b.TradingDate.Format("2006-01-02"),
		b.Open, b.High, b.Low, b.Close, b.Change, b.PercentChange,
		b.VolumeShares.String(), b.VolumeValue.String())
	if err != nil {
		t.Fatalf("Failed to create test price bar: %v", err)
	}

	return b
}
