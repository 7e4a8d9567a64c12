package services

import (
	"context"
	"time"
)

// RateProvider defines the contract for exchange rate sources
type RateProvider interface {
	// RateToTWD returns how many TWD one unit of the base currency buys.
	RateToTWD(ctx context.Context, baseCurrency string) (*RateQuote, error)

	// Name identifies the provider in logs and metrics ("exchangerate-api", "fixed")
	Name() string
}

// RateQuote is a single conversion rate returned by a RateProvider
type RateQuote struct {
	BaseCurrency  string    `json:"base_currency"`  // ISO code the rate converts from
	QuoteCurrency string    `json:"quote_currency"` // Always TWD
	Rate          float64   `json:"rate"`           // Units of QuoteCurrency per unit of BaseCurrency
	Provider      string    `json:"provider"`       // Provider name
	FetchedAt     time.Time `json:"fetched_at"`     // When the quote was obtained
}
