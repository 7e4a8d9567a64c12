package models

import (
	"strconv"
	"time"
)

// Invoice is the persisted record of one recognized invoice. A row is identified
// by InvoiceNumber; every successful recognition of the same number overwrites
// all derived fields (last write wins).
type Invoice struct {
	// Identity
	ID            uint   `gorm:"primaryKey" json:"id"`                               // Store-assigned, never changed
	Type          string `gorm:"index" json:"type"`                                  // Recognizer label, e.g. "Online (PDF)"
	InvoiceNumber string `gorm:"uniqueIndex;not null;size:64" json:"invoice_number"` // Natural key

	// Amounts
	TotalAmount      string   `json:"total_amount"`       // Raw amount as recognized, kept for audit
	Currency         string   `json:"currency"`           // Original ISO currency code
	TotalAmountTWD   *float64 `json:"total_amount_twd"`   // Converted amount in the reference currency
	ExchangeRateUsed *float64 `json:"exchange_rate_used"` // Rate applied at write time, never recomputed

	// Dates
	InvoiceDateISO *string `gorm:"index" json:"invoice_date_iso"` // YYYY-MM-DD, nil when unparseable or absent

	// Optional metadata
	CompanyName     *string   `json:"company_name"`
	ItemDescription *string   `json:"item_description"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName pins the table name used by the store.
func (Invoice) TableName() string {
	return "invoices"
}

// Identifier returns the most useful label for logs and diagnostics.
func (i *Invoice) Identifier() string {
	if i.InvoiceNumber != "" {
		return i.InvoiceNumber
	}
	return "id:" + strconv.FormatUint(uint64(i.ID), 10)
}
