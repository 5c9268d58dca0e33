// Package apperrors defines the sentinel errors shared across the service
// layer and the stable error kinds exposed at the API boundary.
package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrStockNotFound indicates that a stock with the given symbol does not exist.
	ErrStockNotFound = errors.New("stock not found")

	// ErrDividendNotFound indicates that a dividend declaration with the given ID does not exist.
	ErrDividendNotFound = errors.New("dividend not found")

	// ErrPredictionNotFound indicates that no prediction exists for the given
	// (symbol, predicted ex-dividend date) key.
	ErrPredictionNotFound = errors.New("dividend prediction not found")

	// ErrEntitlementNotFound indicates that a dividend entitlement record does not exist.
	ErrEntitlementNotFound = errors.New("dividend entitlement not found")

	// ErrPriceNotFound indicates no price bar exists for a symbol/date combination,
	// typically because the date is a non-trading day.
	ErrPriceNotFound = errors.New("price not found for date")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Validation errors represent malformed or out-of-range input.
// They are surfaced immediately and are never retried.
var (
	// ErrInvalidDate indicates a date that failed to parse as YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date format")

	// ErrInvalidQuantity indicates a non-positive share quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidPrice indicates a non-positive price per share.
	ErrInvalidPrice = errors.New("price per share must be positive")

	// ErrNegativeCommission indicates a negative commission amount.
	ErrNegativeCommission = errors.New("commission cannot be negative")

	// ErrInvalidTransactionType indicates a transaction type other than BUY or SELL.
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrInvalidTaxRate indicates a corporate tax rate that is missing or outside
	// the open interval (0,1). No tax credit can be computed for such an issuer.
	ErrInvalidTaxRate = errors.New("invalid corporate tax rate")

	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrPriceOutOfTolerance indicates that a submitted trade price deviates from
	// the market close on the trade date by more than the accepted tolerance.
	ErrPriceOutOfTolerance = errors.New("price per share outside market price tolerance")
)

// Conflict errors represent state-machine or business-rule violations.
// Callers must not retry these blindly.
var (
	// ErrCalculationCompleted indicates that entitlement calculation for a dividend
	// declaration has already run to completion and may not run again.
	ErrCalculationCompleted = errors.New("dividend calculation already completed")

	// ErrCalculationNotStuck indicates a reset was requested for a declaration
	// that is not in the PROCESSING state.
	ErrCalculationNotStuck = errors.New("dividend calculation is not processing")

	// ErrInsufficientShares indicates that a sell transaction cannot be completed
	// because the user does not hold enough shares as of the transaction date.
	ErrInsufficientShares = errors.New("insufficient shares for sale")
)

// External provider errors.
var (
	// ErrRateLimited indicates the external price provider rejected a request due
	// to rate limiting. Price sync degrades gracefully and returns partial data.
	ErrRateLimited = errors.New("market data provider rate limited")
)

// Data integrity errors represent inconsistencies in stored data.
var (
	// ErrDataInconsistency indicates that stored data is in an inconsistent state
	// (e.g., a negative reconstructed share count). Logged, never surfaced to callers.
	ErrDataInconsistency = errors.New("data inconsistency detected")
)

// Kind classifies an error into the stable kind string carried in API error
// responses. Unknown errors classify as "internal".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrStockNotFound),
		errors.Is(err, ErrDividendNotFound),
		errors.Is(err, ErrPredictionNotFound),
		errors.Is(err, ErrEntitlementNotFound),
		errors.Is(err, ErrPriceNotFound),
		errors.Is(err, ErrTransactionNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrNegativeCommission),
		errors.Is(err, ErrInvalidTransactionType),
		errors.Is(err, ErrInvalidTaxRate),
		errors.Is(err, ErrInvalidDateRange),
		errors.Is(err, ErrPriceOutOfTolerance):
		return "validation"
	case errors.Is(err, ErrCalculationCompleted),
		errors.Is(err, ErrCalculationNotStuck),
		errors.Is(err, ErrInsufficientShares):
		return "conflict"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "internal"
	}
}
