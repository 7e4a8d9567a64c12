package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExtractor struct {
	source SourceKind
	calls  int
}

func (r *recordingExtractor) Extract(context.Context, []byte) (*RawExtraction, error) {
	r.calls++
	return &RawExtraction{Source: r.source}, nil
}

func TestDispatcherRoutes(t *testing.T) {
	cases := map[string]SourceKind{
		"application/pdf":                 SourcePDF,
		"application/pdf; charset=binary": SourcePDF,
		"image/jpeg":                      SourceOCR,
		"IMAGE/PNG":                       SourceOCR,
		"image/heic":                      SourceOCR,
		"image/webp":                      SourceOCR,
	}

	for contentType, want := range cases {
		t.Run(contentType, func(t *testing.T) {
			pdf := &recordingExtractor{source: SourcePDF}
			img := &recordingExtractor{source: SourceOCR}
			d := NewDispatcher(pdf, img)

			raw, err := d.Extract(context.Background(), contentType, nil)
			require.NoError(t, err)
			assert.Equal(t, want, raw.Source)
			assert.Equal(t, 1, pdf.calls+img.calls)
			assert.True(t, Supported(contentType))
		})
	}
}

func TestDispatcherRejectsUnsupportedType(t *testing.T) {
	pdf := &recordingExtractor{}
	img := &recordingExtractor{}
	d := NewDispatcher(pdf, img)

	for _, contentType := range []string{"text/plain", "image/gif", ""} {
		raw, err := d.Extract(context.Background(), contentType, []byte("x"))
		assert.Nil(t, raw)
		assert.ErrorIs(t, err, ErrUnsupportedType)
		assert.False(t, Supported(contentType))
	}
	assert.Zero(t, pdf.calls+img.calls)
}
