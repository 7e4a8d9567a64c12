package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"invoicehub/internal/logger"
)

// Number cascade. Adobe and Shentong print a bare track number; OpenAI labels it.
var pdfNumberStrategies = []fieldStrategy{
	{name: "two-letters-eight-digits", pattern: regexp.MustCompile(`([A-Z]{2}\d{8})`)},
	{name: "invoice-hash-label", pattern: regexp.MustCompile(`Invoice #:\s*([A-Z0-9]+)`)},
}

// Amount cascade. A foreign amount wins; TWD patterns run from most to least specific.
var pdfAmountStrategies = []amountStrategy{
	{name: "international", pattern: regexp.MustCompile(`(USD|EUR)\s*([\d,]+\.?\d*)`)},
	{name: "adobe-total", pattern: regexp.MustCompile(`發票總金額\s*([\d,]+)`), currency: "TWD"},
	{name: "total-before-seller", pattern: regexp.MustCompile(`總計\s*([\d,]+)\s*賣方:`), currency: "TWD"},
	{name: "nt-dollar-total", pattern: regexp.MustCompile(`(?:總計|合計)\s*NT\$\s*([\d,]+)`), currency: "TWD"},
	{name: "bare-total", pattern: regexp.MustCompile(`(?:總計|合計)\s*([\d,]+)`), currency: "TWD"},
}

var adobeTrailingPrice = regexp.MustCompile(`\s*\d+\.\d+.*`)

// Vendor cascade. The first strategy that recognizes its vendor stops the cascade.
var pdfVendorStrategies = []vendorStrategy{
	{
		name:    "openai",
		company: regexp.MustCompile(`Provided by:\s*(OpenA[IL] LLC)`),
		item:    regexp.MustCompile(`(?is)DESCRIPTION\s*QUANTITY\s*PRICE\s*TAX\s*TOTAL\s*(\d+\s*x\s*.*?)\s*\(at \$[\d.]+/month\)`),
	},
	{
		name:    "adobe",
		company: regexp.MustCompile(`\d{8}\s*(Adobe Systems Software Ireland Limited)`),
		item:    regexp.MustCompile(`(?s)品名\s*(.*?)\s*稅別`),
		cleanItem: func(s string) string {
			return adobeTrailingPrice.ReplaceAllString(strings.ReplaceAll(s, "\n", " "), "")
		},
	},
	{
		name:            "shentong",
		company:         regexp.MustCompile(`(?s)賣方:\s*(.*?)\s*統一編號:`),
		item:            regexp.MustCompile(`(?s)品名\s*數量\s*單價\s*金額\s*備註\s*1:(.*?)\s*銷售額合計`),
		optionalCompany: true,
	},
}

var pdfDateStrategies = []fieldStrategy{
	{name: "iso-or-slash", pattern: regexp.MustCompile(`(\d{4}[/-]\d{2}[/-]\d{2})`)},
	{name: "invoice-date-label", pattern: regexp.MustCompile(`Invoice date:\s*([\d/]+)`)},
}

// PDFExtractor recognizes invoice fields in digitally generated PDF invoices.
type PDFExtractor struct {
	text   PDFTextSource
	logger zerolog.Logger
}

// NewPDFExtractor creates a PDF recognizer reading page text from source.
func NewPDFExtractor(source PDFTextSource) *PDFExtractor {
	return &PDFExtractor{
		text:   source,
		logger: logger.WithComponent("pdf-extractor"),
	}
}

// Extract reads the text layer of pdfData and runs the field cascades over it.
func (e *PDFExtractor) Extract(ctx context.Context, pdfData []byte) (raw *RawExtraction, err error) {
	const op = "PDFExtractor.Extract"

	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = &ExtractionError{Op: op, Err: ErrRecognizerPanic, Details: fmt.Sprint(r)}
		}
	}()

	pages, err := e.text.PageTexts(ctx, pdfData)
	if err != nil {
		return nil, &ExtractionError{Op: op, Err: fmt.Errorf("%w: %w", ErrTextLayer, err)}
	}

	text := JoinPages(pages)
	if strings.TrimSpace(text) == "" {
		e.logger.Warn().Str("op", op).Int("pages", len(pages)).Msg("PDF has no text layer")
	}

	raw = ParsePDFText(text)
	e.logger.Debug().
		Str("op", op).
		Str("invoice_number", raw.InvoiceNumber).
		Str("currency", raw.Currency).
		Msg("PDF fields extracted")

	return raw, nil
}

// JoinPages normalizes page text the way the PDF cascades expect it: double
// quotes removed, each page terminated by a newline, runs of blanks collapsed
// to one space. Line breaks are kept.
func JoinPages(pages []string) string {
	var b strings.Builder
	for _, page := range pages {
		if page == "" {
			continue
		}
		b.WriteString(strings.ReplaceAll(page, `"`, ""))
		b.WriteByte('\n')
	}
	return blankRun.ReplaceAllString(b.String(), " ")
}

// ParsePDFText runs the PDF field cascades over normalized text.
func ParsePDFText(text string) *RawExtraction {
	raw := &RawExtraction{Source: SourcePDF}

	if number, _, ok := firstMatch(pdfNumberStrategies, text); ok {
		raw.InvoiceNumber = number
	}

	for _, s := range pdfAmountStrategies {
		if amount, currency, ok := s.match(text); ok {
			raw.TotalAmount = amount
			raw.Currency = currency
			break
		}
	}

	for _, s := range pdfVendorStrategies {
		if company, item, ok := s.match(text); ok {
			raw.VendorName = company
			raw.ItemDescription = item
			break
		}
	}

	if date, strategy, ok := firstMatch(pdfDateStrategies, text); ok {
		if strategy == "iso-or-slash" {
			date = strings.ReplaceAll(date, "/", "-")
		}
		raw.InvoiceDateRaw = stringPtr(date)
	}

	return raw
}
