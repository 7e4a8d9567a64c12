package exchange

import (
	"errors"
	"fmt"
)

// Common exchange rate errors
var (
	// ErrRateUnavailable is returned when the provider could not produce a TWD rate.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrUnknownCurrency is returned when the fixed rate table has no entry for the code.
	ErrUnknownCurrency = errors.New("no configured rate for currency")

	// ErrInvalidCurrency is returned when the currency code is empty.
	ErrInvalidCurrency = errors.New("invalid currency code")
)

// RateError describes a failed rate lookup.
type RateError struct {
	// Op is the operation that failed (e.g., "ExchangeRateAPIProvider.RateToTWD").
	Op string

	// Currency is the base currency that was looked up.
	Currency string

	// Provider is the name of the provider that failed.
	Provider string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *RateError) Error() string {
	msg := fmt.Sprintf("exchange: %s failed for %s via %s", e.Op, e.Currency, e.Provider)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RateError) Unwrap() error {
	return e.Err
}
