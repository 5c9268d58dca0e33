package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar represents one daily OHLCV bar for a symbol. Keyed by
// (symbol, trading date) and immutable once written.
//
// TradingDate is always a timezone-free calendar date (UTC midnight).
// Volume counters are unbounded integers carried as decimals so they
// round-trip across JSON without floating-point precision loss; the decimal
// type serializes them as quoted strings.
type PriceBar struct {
	Symbol        string          `json:"symbol"`
	TradingDate   time.Time       `json:"tradingDate"`
	Open          float64         `json:"open"`
	High          float64         `json:"high"`
	Low           float64         `json:"low"`
	Close         float64         `json:"close"`
	Change        float64         `json:"change"`
	PercentChange float64         `json:"percentChange"`
	VolumeShares  decimal.Decimal `json:"volumeShares"`
	VolumeValue   decimal.Decimal `json:"volumeValue"`
}

// MarketHoliday represents an inferred non-trading weekday. It is not
// authoritative; it only prevents re-querying the provider for days known to
// yield no data.
type MarketHoliday struct {
	HolidayDate time.Time `json:"holidayDate"`
	Description string    `json:"description"`
}
