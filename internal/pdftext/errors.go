package pdftext

import (
	"errors"
	"fmt"
)

// Common PDF text errors
var (
	// ErrInvalidPDF is returned when the data is not a PDF or its structure cannot be parsed.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrDocumentTooLarge is returned when the PDF exceeds the synchronous processing limit.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size limit")

	// ErrProcessingFailed is returned when Document AI processing fails.
	ErrProcessingFailed = errors.New("document AI processing failed")

	// ErrMissingCredentials is returned when Google Cloud credentials are not configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials")

	// ErrInvalidCredentials is returned when credentials lack Document AI permissions.
	ErrInvalidCredentials = errors.New("invalid Google Cloud credentials")

	// ErrInvalidConfiguration is returned when the Document AI configuration is incomplete.
	ErrInvalidConfiguration = errors.New("invalid Document AI configuration")

	// ErrProcessorNotFound is returned when the configured processor does not exist.
	ErrProcessorNotFound = errors.New("Document AI processor not found")

	// ErrQuotaExceeded is returned when Document AI API quota limits are exceeded.
	ErrQuotaExceeded = errors.New("Document AI API quota exceeded")
)

// PDFTextError wraps errors with the operation that produced them.
type PDFTextError struct {
	// Op is the operation that failed (e.g., "TextLayer.PageTexts").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *PDFTextError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("pdftext: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("pdftext: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *PDFTextError) Unwrap() error {
	return e.Err
}

// WrapPDFTextError wraps err as a PDFTextError if it isn't already one.
func WrapPDFTextError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var textErr *PDFTextError
	if errors.As(err, &textErr) {
		return err
	}

	return &PDFTextError{Op: op, Err: err, Details: details}
}
