// Package pdftext reads the text of PDF invoices page by page.
//
// TextLayer reads the embedded text layer with github.com/ledongthuc/pdf.
// DocumentAIReader runs the Google Document AI OCR processor and is used as
// a fallback for scanned PDFs whose text layer is empty.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxDocumentSizeBytes is the maximum document size for processing (20MB)
const MaxDocumentSizeBytes = 20 * 1024 * 1024

// TextLayer extracts the embedded text of a PDF without OCR.
type TextLayer struct{}

// NewTextLayer creates a text layer reader.
func NewTextLayer() *TextLayer {
	return &TextLayer{}
}

// PageTexts returns the text of every page, lines separated by newlines.
// Lines and word breaks are rebuilt from glyph positions, so kerned text
// stays in one token. Pages without content yield "".
func (l *TextLayer) PageTexts(ctx context.Context, pdfData []byte) (pages []string, err error) {
	const op = "TextLayer.PageTexts"

	if err := checkPDF(op, pdfData); err != nil {
		return nil, err
	}

	// The parser panics on some malformed object streams.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = WrapPDFTextError(op, ErrInvalidPDF, fmt.Sprintf("parser panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return nil, WrapPDFTextError(op, ErrInvalidPDF, err.Error())
	}

	numPages := reader.NumPage()
	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, WrapPDFTextError(op, err, "")
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		pages = append(pages, layoutText(page.Content().Text))
	}

	return pages, nil
}

func checkPDF(op string, pdfData []byte) error {
	if len(pdfData) > MaxDocumentSizeBytes {
		return WrapPDFTextError(op, ErrDocumentTooLarge, fmt.Sprintf("file size: %d bytes", len(pdfData)))
	}
	if len(pdfData) < 4 || string(pdfData[:4]) != "%PDF" {
		return WrapPDFTextError(op, ErrInvalidPDF, "missing PDF header")
	}
	return nil
}

// Glyphs whose baselines differ by less than lineTolerance of the font size
// share a line. A horizontal gap wider than wordTolerance of the font size
// between the end of one glyph and the start of the next is a word break.
const (
	lineTolerance = 0.5
	wordTolerance = 0.2
	minTolerance  = 1.0
)

type textLine struct {
	y      float64
	glyphs []pdf.Text
}

// layoutText groups glyphs into lines top to bottom and writes each line left
// to right. Fonts without width metrics report W == 0 and do not advance X
// within a show-text operator, so glyphs sharing an X keep their stream order.
func layoutText(glyphs []pdf.Text) string {
	var lines []*textLine
	for _, g := range glyphs {
		if g.S == "" || g.S == "\n" || g.S == "\r" {
			continue
		}
		line := lineFor(lines, g)
		if line == nil {
			line = &textLine{y: g.Y}
			lines = append(lines, line)
		}
		line.glyphs = append(line.glyphs, g)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].y > lines[j].y
	})

	var b strings.Builder
	for _, line := range lines {
		sort.SliceStable(line.glyphs, func(i, j int) bool {
			return line.glyphs[i].X < line.glyphs[j].X
		})
		writeLine(&b, line.glyphs)
		b.WriteByte('\n')
	}
	return b.String()
}

func lineFor(lines []*textLine, g pdf.Text) *textLine {
	tolerance := math.Max(g.FontSize*lineTolerance, minTolerance)
	for _, line := range lines {
		if math.Abs(line.y-g.Y) <= tolerance {
			return line
		}
	}
	return nil
}

func writeLine(b *strings.Builder, glyphs []pdf.Text) {
	spaced := true
	for i, g := range glyphs {
		blank := strings.TrimSpace(g.S) == ""
		if i > 0 && !spaced && !blank {
			prev := glyphs[i-1]
			gap := g.X - (prev.X + prev.W)
			if math.Abs(gap) > math.Max(g.FontSize*wordTolerance, minTolerance) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
		spaced = blank
	}
}
