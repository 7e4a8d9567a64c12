package extract

import (
	"context"
	"image"
)

// PDFTextSource returns the text layer of a PDF, one string per page.
type PDFTextSource interface {
	PageTexts(ctx context.Context, pdfData []byte) ([]string, error)
}

// TextRecognizer runs OCR over encoded image bytes using the given language hints.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, imageData []byte, languages []string) (string, error)
}

// BarcodeScanner returns every barcode payload found in img, possibly none.
type BarcodeScanner interface {
	Scan(img image.Image) ([]string, error)
}

// Extractor is implemented by each document-format recognizer.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*RawExtraction, error)
}
