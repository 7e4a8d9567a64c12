package invoice

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoicehub/internal/dateparse"
	"invoicehub/internal/extract"
	"invoicehub/internal/logger"
	"invoicehub/pkg/models"
)

// RateSource resolves how many TWD one unit of a currency is worth.
type RateSource interface {
	Rate(ctx context.Context, code string) (float64, error)
}

// Store is the persistence collaborator of the invoice services.
type Store interface {
	// Upsert creates inv or overwrites the row with the same invoice number.
	Upsert(ctx context.Context, inv *models.Invoice) (created bool, err error)

	// List returns every invoice, newest invoice date first, undated last.
	List(ctx context.Context) ([]models.Invoice, error)

	// FindByNumber returns the invoice with the given number.
	FindByNumber(ctx context.Context, number string) (*models.Invoice, error)

	// DeleteAll removes every invoice and returns the number removed.
	DeleteAll(ctx context.Context) (int64, error)
}

// Reconciler turns a RawExtraction into a persisted invoice. Every step is a
// gate; the first failure aborts and nothing is written.
type Reconciler struct {
	rates RateSource
	store Store
	log   zerolog.Logger
}

// NewReconciler creates a reconciler converting with rates and writing to store.
func NewReconciler(rates RateSource, store Store) *Reconciler {
	return &Reconciler{
		rates: rates,
		store: store,
		log:   logger.WithComponent("reconciler"),
	}
}

// Reconcile validates raw, converts its amount to TWD, normalizes its date and
// upserts the result by invoice number. A later reconcile of the same number
// overwrites every field.
func (r *Reconciler) Reconcile(ctx context.Context, raw *extract.RawExtraction) (*models.Invoice, error) {
	const op = "Reconciler.Reconcile"

	if raw == nil {
		return nil, NewProcessingError(KindMissingField, op, &extract.MissingFieldError{Field: "invoice_number"}, "")
	}
	log := logger.ForRequest(ctx, r.log).With().
		Str("invoice_number", raw.InvoiceNumber).
		Str("source", raw.Source.String()).
		Logger()

	if err := raw.Validate(); err != nil {
		log.Warn().Err(err).Msg("Required invoice field missing")
		return nil, NewProcessingError(KindMissingField, op, err, raw.InvoiceNumber)
	}

	rate, err := r.rates.Rate(ctx, raw.Currency)
	if err != nil {
		log.Error().Err(err).Str("currency", raw.Currency).Msg("Exchange rate unavailable")
		return nil, NewProcessingError(KindRateService, op, err, raw.Currency)
	}

	amount, err := ParseAmount(raw.TotalAmount)
	if err != nil {
		log.Warn().Err(err).Str("amount", raw.TotalAmount).Msg("Amount is not a number")
		return nil, NewProcessingError(KindMalformedAmount, op, err, raw.TotalAmount)
	}

	converted, _ := amount.Mul(decimal.NewFromFloat(rate)).Float64()

	dateISO := dateparse.NormalizeISO(raw.InvoiceDateRaw)
	if dateISO == nil && raw.InvoiceDateRaw != nil {
		log.Warn().Str("raw_date", *raw.InvoiceDateRaw).Msg("Invoice date could not be normalized, storing without date")
	}

	inv := &models.Invoice{
		Type:             raw.Source.Label(),
		InvoiceNumber:    raw.InvoiceNumber,
		TotalAmount:      raw.TotalAmount,
		Currency:         strings.ToUpper(strings.TrimSpace(raw.Currency)),
		InvoiceDateISO:   dateISO,
		TotalAmountTWD:   &converted,
		ExchangeRateUsed: &rate,
		CompanyName:      raw.VendorName,
		ItemDescription:  raw.ItemDescription,
	}

	created, err := r.store.Upsert(ctx, inv)
	if err != nil {
		log.Error().Err(err).Msg("Invoice write failed, rolled back")
		return nil, NewProcessingError(KindStorage, op, err, raw.InvoiceNumber)
	}

	log.Info().
		Uint("id", inv.ID).
		Bool("created", created).
		Str("currency", inv.Currency).
		Float64("rate", rate).
		Float64("total_twd", converted).
		Msg("Invoice reconciled")

	return inv, nil
}

// ParseAmount parses a recognized amount. Thousands separators are ignored.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero, ErrMalformedAmount
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errors.Join(ErrMalformedAmount, err)
	}
	return amount, nil
}
