// Package exchange converts invoice currencies to TWD.
//
// TWD converts at exactly 1.0 without consulting any provider. Every other
// code is looked up on the configured services.RateProvider: the live
// exchangerate-api.com client or a fixed table. Which one is used is an
// explicit configuration switch; a failed live lookup never falls back to the
// table.
package exchange

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"invoicehub/internal/logger"
	"invoicehub/pkg/services"
)

// HomeCurrency is the currency every amount is converted into.
const HomeCurrency = "TWD"

// LookupObserver is notified of every provider lookup.
type LookupObserver interface {
	ObserveRateLookup(provider string, err error)
}

// Converter resolves the TWD rate of a currency code.
type Converter struct {
	provider services.RateProvider
	observer LookupObserver
	log      zerolog.Logger
}

// NewConverter creates a converter over provider. observer may be nil.
func NewConverter(provider services.RateProvider, observer LookupObserver) *Converter {
	return &Converter{
		provider: provider,
		observer: observer,
		log:      logger.WithComponent("exchange"),
	}
}

// Rate returns how many TWD one unit of code is worth.
func (c *Converter) Rate(ctx context.Context, code string) (float64, error) {
	code = normalizeCode(code)
	if code == HomeCurrency {
		return 1.0, nil
	}
	if code == "" {
		return 0, &RateError{Op: "Converter.Rate", Provider: c.provider.Name(), Err: ErrInvalidCurrency}
	}

	quote, err := c.provider.RateToTWD(ctx, code)
	if c.observer != nil {
		c.observer.ObserveRateLookup(c.provider.Name(), err)
	}
	if err != nil {
		c.log.Warn().Err(err).Str("currency", code).Str("provider", c.provider.Name()).Msg("Exchange rate lookup failed")
		return 0, err
	}

	c.log.Debug().
		Str("currency", code).
		Float64("rate", quote.Rate).
		Str("provider", quote.Provider).
		Msg("Exchange rate resolved")
	return quote.Rate, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
