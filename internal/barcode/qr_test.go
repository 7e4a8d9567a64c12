package barcode

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	leftPayload  = "AB1234567811410145798000004B0000004EC0000000024549210dYPtSp8KeMkRA0tFqJL/Zw==:**********:1:1:1"
	rightPayload = "**:coffee:1:1260"
)

func encode(t *testing.T, contents string, size int) image.Image {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(contents, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	require.NoError(t, err)
	return matrix
}

func TestScanSingleCode(t *testing.T) {
	payloads, err := NewQRScanner().Scan(encode(t, leftPayload, 300))
	require.NoError(t, err)
	assert.Equal(t, []string{leftPayload}, payloads)
}

func TestScanSideBySideCodes(t *testing.T) {
	const size = 300
	canvas := image.NewRGBA(image.Rect(0, 0, 2*size, size))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, size, size), encode(t, leftPayload, size), image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(size, 0, 2*size, size), encode(t, rightPayload, size), image.Point{}, draw.Src)

	payloads, err := NewQRScanner().Scan(canvas)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{leftPayload, rightPayload}, payloads)
}

func TestScanBlankImage(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 120, 120))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	payloads, err := NewQRScanner().Scan(canvas)
	require.NoError(t, err)
	assert.Empty(t, payloads)
}
