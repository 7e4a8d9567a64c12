// Package ocr recognizes text in photographed and scanned invoice images using
// Google Cloud Vision API document text detection.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//
// Language hints (BCP-47, e.g. "zh-Hant", "en") steer recognition towards the
// scripts printed on Taiwanese receipts. Images are sent inline; the API
// accepts up to 20MB per request.
package ocr

import (
	"context"
	"time"
)

// OCRService defines the interface for image text recognition.
type OCRService interface {
	// RecognizeText returns the full text detected in an encoded image.
	RecognizeText(ctx context.Context, imageData []byte, languages []string) (string, error)

	// RecognizeTextWithMetadata returns the detected text with confidence and language information.
	RecognizeTextWithMetadata(ctx context.Context, imageData []byte, languages []string) (*OCRResult, error)
}

// OCRResult contains the results of OCR processing with metadata.
type OCRResult struct {
	// Text is the detected text in reading order, lines separated by "\n".
	Text string `json:"text"`

	// Confidence is the average page confidence (0.0 to 1.0).
	Confidence float32 `json:"confidence"`

	// LanguageCodes contains the languages detected in the image.
	LanguageCodes []string `json:"language_codes,omitempty"`

	// ProcessedAt is the timestamp when the OCR processing completed.
	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingDuration is how long the OCR processing took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}
