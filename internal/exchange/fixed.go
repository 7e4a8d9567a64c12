package exchange

import (
	"context"
	"time"

	"invoicehub/pkg/services"
)

// FixedRateName identifies the fixed table provider in logs and metrics.
const FixedRateName = "fixed"

// FixedRateProvider serves rates from a configured table, for offline and
// development use. Codes missing from the table are errors.
type FixedRateProvider struct {
	rates map[string]float64
}

// NewFixedRateProvider creates a provider over rates, keyed by upper-case ISO code.
func NewFixedRateProvider(rates map[string]float64) *FixedRateProvider {
	copied := make(map[string]float64, len(rates))
	for code, rate := range rates {
		copied[normalizeCode(code)] = rate
	}
	return &FixedRateProvider{rates: copied}
}

// Name implements services.RateProvider.
func (p *FixedRateProvider) Name() string {
	return FixedRateName
}

// RateToTWD implements services.RateProvider.
func (p *FixedRateProvider) RateToTWD(_ context.Context, baseCurrency string) (*services.RateQuote, error) {
	rate, ok := p.rates[baseCurrency]
	if !ok {
		return nil, &RateError{
			Op:       "FixedRateProvider.RateToTWD",
			Currency: baseCurrency,
			Provider: p.Name(),
			Err:      ErrUnknownCurrency,
		}
	}
	return &services.RateQuote{
		BaseCurrency:  baseCurrency,
		QuoteCurrency: "TWD",
		Rate:          rate,
		Provider:      p.Name(),
		FetchedAt:     time.Now(),
	}, nil
}
