package extract

import (
	"errors"
	"fmt"
)

// Common extraction errors
var (
	// ErrUnsupportedType is returned when the declared media type has no recognizer.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrTextLayer is returned when the PDF text layer cannot be read.
	ErrTextLayer = errors.New("PDF text extraction failed")

	// ErrImageDecode is returned when image bytes cannot be decoded into pixels.
	ErrImageDecode = errors.New("cannot decode image")

	// ErrOCRNotConfigured is returned when an image needs OCR but no OCR engine is configured.
	ErrOCRNotConfigured = errors.New("OCR engine not configured")

	// ErrOCRFailed is returned when the OCR engine fails on an image.
	ErrOCRFailed = errors.New("OCR engine failed")

	// ErrRecognizerPanic is returned when a recognizer panics; the panic is contained.
	ErrRecognizerPanic = errors.New("recognizer crashed")
)

// ExtractionError wraps an engine failure with the operation that hit it.
type ExtractionError struct {
	// Op is the operation that failed (e.g., "PDFExtractor.Extract").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("extract: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("extract: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}
