// Package validation checks API request payloads before they reach the
// service layer. Field-level failures are collected into a single Error so
// the caller sees every problem at once.
package validation

import (
	"fmt"
	"regexp"
	"time"
)

// Common validation errors
var (
	ErrInvalidSymbol = fmt.Errorf("invalid SET symbol")
)

// symbolPattern matches SET ticker symbols: 1-10 upper-case letters, digits
// or ampersand (e.g. PTT, SCB, S&P).
var symbolPattern = regexp.MustCompile(`^[A-Z0-9&]{1,10}$`)

// ValidateSymbol checks that a string looks like a SET ticker symbol.
func ValidateSymbol(symbol string) error {
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}

// validDate reports whether s parses as YYYY-MM-DD.
func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
