// Package barcode finds QR codes in invoice images.
//
// Taiwan e-invoice proofs print two QR codes side by side. The decoder tries
// the whole image and then each half, so both codes are returned even when
// the reader locks onto only one of them in the full frame.
package barcode

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/rs/zerolog"

	"invoicehub/internal/logger"
)

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// QRScanner decodes QR code payloads with gozxing.
type QRScanner struct {
	hints map[gozxing.DecodeHintType]interface{}
	log   zerolog.Logger
}

// NewQRScanner creates a scanner that spends extra effort on hard images.
func NewQRScanner() *QRScanner {
	return &QRScanner{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
		log: logger.WithComponent("qr-scanner"),
	}
}

// Scan returns the distinct QR payloads found in img, in discovery order.
// An image without a readable QR code yields an empty slice.
func (s *QRScanner) Scan(img image.Image) ([]string, error) {
	regions := []image.Image{img}
	if sub, ok := img.(subImager); ok {
		b := img.Bounds()
		mid := b.Min.X + b.Dx()/2
		regions = append(regions,
			sub.SubImage(image.Rect(b.Min.X, b.Min.Y, mid, b.Max.Y)),
			sub.SubImage(image.Rect(mid, b.Min.Y, b.Max.X, b.Max.Y)),
		)
	}

	seen := make(map[string]bool)
	var payloads []string
	for i, region := range regions {
		text, err := s.decode(region)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			continue
		}
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		payloads = append(payloads, text)
	}

	s.log.Debug().Int("found", len(payloads)).Msg("QR scan completed")
	return payloads, nil
}

// decode returns "" when region holds no readable QR code. Only bitmap
// construction failures are errors.
func (s *QRScanner) decode(region image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(region)
	if err != nil {
		return "", fmt.Errorf("barcode: binarize image: %w", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, s.hints)
	if err != nil {
		return "", nil
	}
	return result.GetText(), nil
}
