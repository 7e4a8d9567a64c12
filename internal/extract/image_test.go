package extract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicehub/internal/einvoice"
)

type fakeScanner struct {
	payloads []string
	err      error
}

func (f *fakeScanner) Scan(image.Image) ([]string, error) {
	return f.payloads, f.err
}

type fakeRecognizer struct {
	text      string
	err       error
	languages []string
	calls     int
}

func (f *fakeRecognizer) RecognizeText(_ context.Context, _ []byte, languages []string) (string, error) {
	f.calls++
	f.languages = languages
	return f.text, f.err
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// 1200 before tax, 1260 total, seller 24549210.
const qrPayload = "AB12345678" + "1141014" + "5798" + "000004B0" + "000004EC" +
	"00000000" + "24549210" + "dYPtSp8KeMkRA0tFqJL/Zw==" + ":**********:1:1:1:咖啡豆:1:1260"

const receiptText = "全家便利商店\n統一編號 12345678\nOT-12345678\n總 計 1,050\n"

func TestImageExtractorPrefersQR(t *testing.T) {
	ocr := &fakeRecognizer{text: receiptText}
	e := NewImageExtractor(&fakeScanner{payloads: []string{"**:item:1", qrPayload}}, ocr, []string{"zh-Hant"})

	raw, err := e.Extract(context.Background(), testPNG(t))
	require.NoError(t, err)

	assert.Equal(t, SourceQR, raw.Source)
	assert.Equal(t, "Electronic (QR Code)", raw.Source.Label())
	assert.Equal(t, "AB12345678", raw.InvoiceNumber)
	assert.Equal(t, "1260", raw.TotalAmount)
	assert.Equal(t, "TWD", raw.Currency)
	require.NotNil(t, raw.InvoiceDateRaw)
	assert.Equal(t, "1141014", *raw.InvoiceDateRaw)
	require.NotNil(t, raw.VendorName)
	assert.Equal(t, "BAN 24549210", *raw.VendorName)
	require.NotNil(t, raw.ItemDescription)
	assert.Equal(t, qrItemMarker, *raw.ItemDescription)
	assert.Zero(t, ocr.calls)
}

func TestImageExtractorFallsBackToOCR(t *testing.T) {
	ocr := &fakeRecognizer{text: receiptText}
	e := NewImageExtractor(&fakeScanner{payloads: []string{"https://example.com"}}, ocr, []string{"zh-Hant", "en"})

	raw, err := e.Extract(context.Background(), testPNG(t))
	require.NoError(t, err)

	assert.Equal(t, SourceOCR, raw.Source)
	assert.Equal(t, "OT-12345678", raw.InvoiceNumber)
	assert.Equal(t, "1050", raw.TotalAmount)
	assert.Equal(t, "TWD", raw.Currency)
	require.NotNil(t, raw.VendorName)
	assert.Equal(t, "全家便利商店", *raw.VendorName)
	assert.Nil(t, raw.InvoiceDateRaw)
	assert.Equal(t, []string{"zh-Hant", "en"}, ocr.languages)
}

func TestImageExtractorScanErrorFallsBackToOCR(t *testing.T) {
	ocr := &fakeRecognizer{text: receiptText}
	e := NewImageExtractor(&fakeScanner{err: errors.New("binarizer failed")}, ocr, nil)

	raw, err := e.Extract(context.Background(), testPNG(t))
	require.NoError(t, err)
	assert.Equal(t, SourceOCR, raw.Source)
	assert.Equal(t, 1, ocr.calls)
}

func TestImageExtractorWithoutOCR(t *testing.T) {
	e := NewImageExtractor(&fakeScanner{}, nil, nil)

	raw, err := e.Extract(context.Background(), testPNG(t))
	assert.Nil(t, raw)
	assert.ErrorIs(t, err, ErrOCRNotConfigured)
}

func TestImageExtractorOCRFailure(t *testing.T) {
	e := NewImageExtractor(&fakeScanner{}, &fakeRecognizer{err: errors.New("quota exceeded")}, nil)

	_, err := e.Extract(context.Background(), testPNG(t))
	assert.ErrorIs(t, err, ErrOCRFailed)
}

func TestImageExtractorUndecodableImage(t *testing.T) {
	e := NewImageExtractor(&fakeScanner{}, &fakeRecognizer{}, nil)

	_, err := e.Extract(context.Background(), []byte("ftypheic not really"))
	assert.ErrorIs(t, err, ErrImageDecode)

	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, "ImageExtractor.Extract", extractErr.Op)
}

func TestParseOCRTextFailsClosed(t *testing.T) {
	raw := ParseOCRText("")

	assert.Empty(t, raw.InvoiceNumber)
	assert.Empty(t, raw.TotalAmount)
	assert.Nil(t, raw.VendorName)

	var missing *MissingFieldError
	require.ErrorAs(t, raw.Validate(), &missing)
	assert.Equal(t, "invoice_number", missing.Field)
}

func TestParseOCRTextWithoutTotal(t *testing.T) {
	raw := ParseOCRText("AB-12345678")

	var missing *MissingFieldError
	require.ErrorAs(t, raw.Validate(), &missing)
	assert.Equal(t, "total_amount", missing.Field)
}

func TestFromQRPayloadWithoutSellerOrAmount(t *testing.T) {
	raw := FromQRPayload(einvoice.Payload{InvoiceNumber: "AB12345678", DateROC: "1141014", SellerID: "00000000"})

	assert.Nil(t, raw.VendorName)
	assert.Empty(t, raw.TotalAmount)

	var missing *MissingFieldError
	require.ErrorAs(t, raw.Validate(), &missing)
	assert.Equal(t, "total_amount", missing.Field)
}
