// Package extract turns uploaded invoice documents into RawExtraction records.
//
// Three recognizers share one output shape:
//   - PDF: regex cascades over the PDF text layer, one strategy per known vendor template
//   - QR: the fixed-width header of a Taiwan e-invoice QR code found in an image
//   - OCR: a smaller regex cascade over OCR text when an image carries no e-invoice QR code
//
// Recognizers fail closed. A pattern that does not match leaves its field
// absent instead of guessing, and the record is rejected later by Validate.
// An engine failure (unreadable PDF, undecodable image, OCR unavailable) is
// reported as an error instead of a record.
package extract

import "fmt"

// SourceKind identifies the recognizer that produced a RawExtraction.
type SourceKind int

const (
	SourcePDF SourceKind = iota + 1
	SourceQR
	SourceOCR
)

// Label returns the recognizer label persisted as the invoice type.
func (k SourceKind) Label() string {
	switch k {
	case SourcePDF:
		return "Online (PDF)"
	case SourceQR:
		return "Electronic (QR Code)"
	case SourceOCR:
		return "Traditional (OCR)"
	default:
		return "Unknown"
	}
}

func (k SourceKind) String() string {
	switch k {
	case SourcePDF:
		return "pdf"
	case SourceQR:
		return "qr"
	case SourceOCR:
		return "ocr"
	default:
		return "unknown"
	}
}

// RawExtraction is the recognizer output consumed by the reconciler.
type RawExtraction struct {
	Source SourceKind

	// Required; "" means the recognizer found nothing.
	InvoiceNumber string
	TotalAmount   string // Decimal digits without thousands separators
	Currency      string

	// Optional; nil means absent.
	VendorName      *string
	ItemDescription *string
	InvoiceDateRaw  *string // Any encoding understood by dateparse
}

// Validate returns a *MissingFieldError naming the first absent required field.
func (r *RawExtraction) Validate() error {
	switch {
	case r.InvoiceNumber == "":
		return &MissingFieldError{Field: "invoice_number", Source: r.Source}
	case r.TotalAmount == "":
		return &MissingFieldError{Field: "total_amount", Source: r.Source}
	case r.Currency == "":
		return &MissingFieldError{Field: "currency", Source: r.Source}
	}
	return nil
}

// MissingFieldError reports a required field the recognizer could not find.
type MissingFieldError struct {
	Field  string
	Source SourceKind
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s recognizer found no %s", e.Source, e.Field)
}

func stringPtr(s string) *string {
	return &s
}
