package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"regexp"
	"strings"

	// Registered image decoders.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/rs/zerolog"

	"invoicehub/internal/einvoice"
	"invoicehub/internal/logger"
)

const (
	qrItemMarker  = "N/A (QR code carries no item detail)"
	ocrItemMarker = "N/A (OCR does not extract item detail)"
)

// Traditional invoices print the number as "AB-12345678"; OCR often splits 總計 with a space.
var (
	ocrNumberStrategies = []fieldStrategy{
		{name: "hyphenated-track-number", pattern: regexp.MustCompile(`([A-Z]{2}-\d{8})`)},
	}
	ocrAmountStrategies = []fieldStrategy{
		{name: "spaced-total", pattern: regexp.MustCompile(`(?:總\s*計|合\s*計)\s*([\d,]+)`)},
	}
)

// ImageExtractor recognizes invoice fields in photographed or scanned invoices.
// An accepted e-invoice QR code wins; otherwise the image goes through OCR.
type ImageExtractor struct {
	barcodes  BarcodeScanner
	ocr       TextRecognizer
	languages []string
	logger    zerolog.Logger
}

// NewImageExtractor creates an image recognizer. recognizer may be nil, in
// which case images without an e-invoice QR code fail with ErrOCRNotConfigured.
func NewImageExtractor(barcodes BarcodeScanner, recognizer TextRecognizer, languages []string) *ImageExtractor {
	return &ImageExtractor{
		barcodes:  barcodes,
		ocr:       recognizer,
		languages: languages,
		logger:    logger.WithComponent("image-extractor"),
	}
}

// Extract decodes imageData, tries the QR path, then falls back to OCR.
func (e *ImageExtractor) Extract(ctx context.Context, imageData []byte) (raw *RawExtraction, err error) {
	const op = "ImageExtractor.Extract"

	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = &ExtractionError{Op: op, Err: ErrRecognizerPanic, Details: fmt.Sprint(r)}
		}
	}()

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, &ExtractionError{Op: op, Err: ErrImageDecode, Details: err.Error()}
	}

	if raw, ok := e.fromBarcodes(img); ok {
		e.logger.Debug().Str("op", op).Str("format", format).Str("invoice_number", raw.InvoiceNumber).Msg("e-invoice QR code accepted")
		return raw, nil
	}

	if e.ocr == nil {
		return nil, &ExtractionError{Op: op, Err: ErrOCRNotConfigured, Details: "image carries no e-invoice QR code"}
	}

	text, err := e.ocr.RecognizeText(ctx, imageData, e.languages)
	if err != nil {
		return nil, &ExtractionError{Op: op, Err: fmt.Errorf("%w: %w", ErrOCRFailed, err)}
	}

	return ParseOCRText(text), nil
}

func (e *ImageExtractor) fromBarcodes(img image.Image) (*RawExtraction, bool) {
	if e.barcodes == nil {
		return nil, false
	}

	payloads, err := e.barcodes.Scan(img)
	if err != nil {
		e.logger.Warn().Err(err).Msg("barcode scan failed, falling back to OCR")
		return nil, false
	}

	p, ok := einvoice.FirstAccepted(payloads)
	if !ok {
		return nil, false
	}
	return FromQRPayload(p), true
}

// FromQRPayload maps a decoded e-invoice QR header onto a RawExtraction.
func FromQRPayload(p einvoice.Payload) *RawExtraction {
	raw := &RawExtraction{
		Source:          SourceQR,
		InvoiceNumber:   p.InvoiceNumber,
		TotalAmount:     p.TotalAmount,
		Currency:        "TWD",
		ItemDescription: stringPtr(qrItemMarker),
		InvoiceDateRaw:  stringPtr(p.DateROC),
	}
	if p.SellerID != "" && strings.Trim(p.SellerID, "0") != "" {
		raw.VendorName = stringPtr("BAN " + p.SellerID)
	}
	return raw
}

// ParseOCRText runs the OCR field cascades over recognized text.
func ParseOCRText(text string) *RawExtraction {
	raw := &RawExtraction{
		Source:          SourceOCR,
		Currency:        "TWD",
		ItemDescription: stringPtr(ocrItemMarker),
	}

	if number, _, ok := firstMatch(ocrNumberStrategies, text); ok {
		raw.InvoiceNumber = number
	}
	if amount, _, ok := firstMatch(ocrAmountStrategies, text); ok {
		raw.TotalAmount = cleanAmount(amount)
	}

	firstLine, _, _ := strings.Cut(text, "\n")
	if vendor := strings.TrimSpace(firstLine); vendor != "" {
		raw.VendorName = stringPtr(vendor)
	}

	return raw
}
