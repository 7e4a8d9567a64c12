package store

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"invoicehub/internal/logger"
	"invoicehub/pkg/models"
)

// InvoiceRepository stores invoices keyed by invoice number.
type InvoiceRepository struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewInvoiceRepository creates a repository over db.
func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{
		db:  db,
		log: logger.WithComponent("invoice-repository"),
	}
}

// Upsert creates inv, or overwrites every field of the row with the same
// invoice number. The lookup and the write share one transaction. When a
// concurrent writer created the row first, the unique index rejects the
// insert and the upsert is retried once, this time as an update.
//
// On success inv carries the store-assigned ID and timestamps.
func (r *InvoiceRepository) Upsert(ctx context.Context, inv *models.Invoice) (created bool, err error) {
	const op = "InvoiceRepository.Upsert"

	created, err = r.upsertOnce(ctx, inv)
	if IsDuplicateKeyErr(err) {
		r.log.Warn().
			Str("invoice_number", inv.InvoiceNumber).
			Msg("Concurrent create detected, retrying as update")
		created, err = r.upsertOnce(ctx, inv)
	}
	if err != nil {
		return false, &StoreError{Op: op, Err: err, Details: "invoice " + inv.InvoiceNumber}
	}
	return created, nil
}

func (r *InvoiceRepository) upsertOnce(ctx context.Context, inv *models.Invoice) (created bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Invoice
		lookup := tx.Where("invoice_number = ?", inv.InvoiceNumber).Take(&existing)

		switch {
		case errors.Is(lookup.Error, gorm.ErrRecordNotFound):
			inv.ID = 0
			created = true
			return tx.Create(inv).Error
		case lookup.Error != nil:
			return lookup.Error
		}

		inv.ID = existing.ID
		inv.CreatedAt = existing.CreatedAt
		created = false
		return tx.Save(inv).Error
	})
	return created, err
}

// List returns every invoice, newest invoice date first, undated invoices last.
func (r *InvoiceRepository) List(ctx context.Context) ([]models.Invoice, error) {
	const op = "InvoiceRepository.List"

	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Order("invoice_date_iso IS NULL").
		Order("invoice_date_iso DESC").
		Order("id DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}
	return invoices, nil
}

// FindByNumber returns the invoice with the given number, or ErrNotFound.
func (r *InvoiceRepository) FindByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	const op = "InvoiceRepository.FindByNumber"

	var inv models.Invoice
	err := r.db.WithContext(ctx).Where("invoice_number = ?", number).Take(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &StoreError{Op: op, Err: ErrNotFound, Details: number}
	}
	if err != nil {
		return nil, &StoreError{Op: op, Err: err, Details: number}
	}
	return &inv, nil
}

// DeleteAll removes every invoice and returns how many rows were deleted.
func (r *InvoiceRepository) DeleteAll(ctx context.Context) (int64, error) {
	const op = "InvoiceRepository.DeleteAll"

	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Invoice{})
	if result.Error != nil {
		return 0, &StoreError{Op: op, Err: result.Error}
	}

	r.log.Info().Int64("deleted", result.RowsAffected).Msg("All invoices deleted")
	return result.RowsAffected, nil
}
