package invoice

import (
	"errors"
	"fmt"

	"invoicehub/internal/store"
)

// Kind classifies why processing an upload failed.
type Kind string

const (
	KindUnsupportedFormat Kind = "unsupported_format"
	KindExtractionEngine  Kind = "extraction_engine"
	KindMissingField      Kind = "missing_field"
	KindMalformedAmount   Kind = "malformed_amount"
	KindRateService       Kind = "rate_service"
	KindStorage           Kind = "storage"
)

// Common invoice processing errors
var (
	// ErrMalformedAmount is returned when the recognized amount is not a decimal number.
	ErrMalformedAmount = errors.New("malformed amount")

	// ErrDocumentTooLarge is returned when the upload exceeds the configured size limit.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size limit")

	// ErrEmptyDocument is returned when the upload has no content.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrNotFound is returned when no invoice carries the requested number.
	ErrNotFound = store.ErrNotFound
)

// ProcessingError wraps errors with the failure kind and the upload they concern.
type ProcessingError struct {
	// Kind is the failure class surfaced to the uploader.
	Kind Kind

	// Op is the operation that failed (e.g., "Reconciler.Reconcile").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ProcessingError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("invoice: %s failed (%s): %s: %v", e.Op, e.Kind, e.Details, e.Err)
	}
	return fmt.Sprintf("invoice: %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ProcessingError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// Message is the human-readable reason shown to the uploader.
func (e *ProcessingError) Message() string {
	switch e.Kind {
	case KindUnsupportedFormat:
		if errors.Is(e.Err, ErrDocumentTooLarge) {
			return "file too large"
		}
		return "unsupported file format"
	case KindExtractionEngine:
		return fmt.Sprintf("recognition failed: %v", e.Err)
	case KindMissingField:
		return fmt.Sprintf("recognition failed: %v", e.Err)
	case KindMalformedAmount:
		return fmt.Sprintf("recognition failed: malformed amount (%s)", e.Details)
	case KindRateService:
		return fmt.Sprintf("exchange rate service failed: %v", e.Err)
	case KindStorage:
		return "database write failed"
	default:
		return e.Error()
	}
}

// NewProcessingError creates a new ProcessingError.
func NewProcessingError(kind Kind, op string, err error, details string) *ProcessingError {
	return &ProcessingError{
		Kind:    kind,
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapProcessingError wraps an error as a ProcessingError if it isn't already one.
func WrapProcessingError(kind Kind, op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var procErr *ProcessingError
	if errors.As(err, &procErr) {
		return err // Already wrapped
	}

	return NewProcessingError(kind, op, err, details)
}

// KindOf returns the failure kind carried by err, or "" when err is not a ProcessingError.
func KindOf(err error) Kind {
	var procErr *ProcessingError
	if errors.As(err, &procErr) {
		return procErr.Kind
	}
	return ""
}
