package pdftext_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicehub/internal/extract"
	"invoicehub/internal/pdftext"
)

// Standard 14 font without width metrics, as most generators embed Helvetica.
const bareFont = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"

// Same font with every printable glyph 500 units wide.
var metricFont = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /FirstChar 32 /LastChar 126 /Widths [" +
	strings.TrimSpace(strings.Repeat("500 ", 95)) + "] >>"

// buildPDF writes a one-page PDF whose content stream is content.
func buildPDF(font, content string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		font,
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n", len(objects)+1, xref)
	b.WriteString("%%EOF\n")
	return b.Bytes()
}

func readPages(t *testing.T, data []byte) []string {
	t.Helper()
	pages, err := pdftext.NewTextLayer().PageTexts(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	return pages
}

func TestTextLayerPlainText(t *testing.T) {
	data := buildPDF(bareFont, "BT /F1 12 Tf 50 700 Td (Invoice #: AB12345678) Tj 0 -20 Td (Amount due USD 1,234.50) Tj ET")

	pages := readPages(t, data)
	assert.Equal(t, "Invoice #: AB12345678\nAmount due USD 1,234.50\n", pages[0])

	raw := extract.ParsePDFText(extract.JoinPages(pages))
	assert.Equal(t, "AB12345678", raw.InvoiceNumber)
	assert.Equal(t, "1,234.50", raw.TotalAmount)
	assert.Equal(t, "USD", raw.Currency)
}

func TestTextLayerKernedText(t *testing.T) {
	tests := []struct {
		name string
		font string
	}{
		{name: "without width metrics", font: bareFont},
		{name: "with width metrics", font: metricFont},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildPDF(tt.font,
				"BT /F1 12 Tf 50 700 Td [(Invoice #: AB12)-15(345678)] TJ 0 -20 Td [(USD 1,2)-20(34.50)] TJ ET")

			pages := readPages(t, data)
			assert.Equal(t, "Invoice #: AB12345678\nUSD 1,234.50\n", pages[0])

			raw := extract.ParsePDFText(extract.JoinPages(pages))
			assert.Equal(t, "AB12345678", raw.InvoiceNumber)
			assert.Equal(t, "1,234.50", raw.TotalAmount)
			assert.Equal(t, "USD", raw.Currency)
		})
	}
}

func TestTextLayerPositionedWordGap(t *testing.T) {
	data := buildPDF(metricFont, "BT /F1 12 Tf 50 700 Td [(Total)-250(USD)-250(99.00)] TJ ET")

	pages := readPages(t, data)
	assert.Equal(t, "Total USD 99.00\n", pages[0])
}

func TestTextLayerSeparatelyPlacedWords(t *testing.T) {
	data := buildPDF(bareFont, "BT /F1 12 Tf 50 700 Td (Total) Tj 120 0 Td (EUR 42.00) Tj ET")

	pages := readPages(t, data)
	assert.Equal(t, "Total EUR 42.00\n", pages[0])
}
