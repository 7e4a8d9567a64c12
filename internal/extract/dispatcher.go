package extract

import (
	"context"
	"mime"
	"strings"
)

// PDFContentType is the media type routed to the PDF recognizer.
const PDFContentType = "application/pdf"

// imageContentTypes are the media types routed to the image recognizer.
var imageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/heic": true,
	"image/webp": true,
}

// Dispatcher routes a document to the recognizer for its declared media type.
type Dispatcher struct {
	pdf   Extractor
	image Extractor
}

// NewDispatcher creates a dispatcher over the PDF and image recognizers.
func NewDispatcher(pdf, image Extractor) *Dispatcher {
	return &Dispatcher{pdf: pdf, image: image}
}

// Supported reports whether contentType has a recognizer.
func Supported(contentType string) bool {
	mediaType := normalizeMediaType(contentType)
	return mediaType == PDFContentType || imageContentTypes[mediaType]
}

// Extract runs the recognizer matching contentType over data.
func (d *Dispatcher) Extract(ctx context.Context, contentType string, data []byte) (*RawExtraction, error) {
	const op = "Dispatcher.Extract"

	mediaType := normalizeMediaType(contentType)
	switch {
	case mediaType == PDFContentType:
		return d.pdf.Extract(ctx, data)
	case imageContentTypes[mediaType]:
		return d.image.Extract(ctx, data)
	default:
		return nil, &ExtractionError{Op: op, Err: ErrUnsupportedType, Details: contentType}
	}
}

func normalizeMediaType(contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
