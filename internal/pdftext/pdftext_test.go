package pdftext

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	pages []string
	err   error
	calls int
}

func (f *fakeReader) PageTexts(context.Context, []byte) ([]string, error) {
	f.calls++
	return f.pages, f.err
}

func TestTextLayerRejectsNonPDF(t *testing.T) {
	_, err := NewTextLayer().PageTexts(context.Background(), []byte("PK\x03\x04 zip archive"))
	assert.ErrorIs(t, err, ErrInvalidPDF)

	var textErr *PDFTextError
	require.ErrorAs(t, err, &textErr)
	assert.Equal(t, "TextLayer.PageTexts", textErr.Op)
	assert.Equal(t, "missing PDF header", textErr.Details)
}

func TestTextLayerRejectsOversizedDocument(t *testing.T) {
	data := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte{' '}, MaxDocumentSizeBytes)...)

	_, err := NewTextLayer().PageTexts(context.Background(), data)
	assert.ErrorIs(t, err, ErrDocumentTooLarge)
}

func TestTextLayerRejectsCorruptStructure(t *testing.T) {
	_, err := NewTextLayer().PageTexts(context.Background(), []byte("%PDF-1.4\nthis is not a cross-reference table\n"))
	assert.ErrorIs(t, err, ErrInvalidPDF)
}

func TestSourceUsesTextLayerWhenPresent(t *testing.T) {
	primary := &fakeReader{pages: []string{"Invoice #: TC59ABCD01\n"}}
	fallback := &fakeReader{pages: []string{"ocr"}}

	pages, err := NewSource(primary, fallback).PageTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice #: TC59ABCD01\n"}, pages)
	assert.Zero(t, fallback.calls)
}

func TestSourceFallsBackOnBlankTextLayer(t *testing.T) {
	primary := &fakeReader{pages: []string{"", " \n"}}
	fallback := &fakeReader{pages: []string{"總計 1,309 賣方:"}}

	pages, err := NewSource(primary, fallback).PageTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"總計 1,309 賣方:"}, pages)
	assert.Equal(t, 1, fallback.calls)
}

func TestSourceWithoutFallbackReturnsBlankPages(t *testing.T) {
	primary := &fakeReader{pages: []string{""}}

	pages, err := NewSource(primary, nil).PageTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, pages)
}

func TestSourcePropagatesTextLayerError(t *testing.T) {
	primary := &fakeReader{err: errors.New("broken")}
	fallback := &fakeReader{}

	_, err := NewSource(primary, fallback).PageTexts(context.Background(), nil)
	assert.Error(t, err)
	assert.Zero(t, fallback.calls)
}

func TestDocumentPages(t *testing.T) {
	doc := &documentaipb.Document{
		Text: "電子發票\nNX47000123\nPage two\n",
		Pages: []*documentaipb.Document_Page{
			{Layout: &documentaipb.Document_Page_Layout{TextAnchor: &documentaipb.Document_TextAnchor{
				TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: 0, EndIndex: 16}},
			}}},
			{Layout: &documentaipb.Document_Page_Layout{TextAnchor: &documentaipb.Document_TextAnchor{
				TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: 16, EndIndex: 999}},
			}}},
			{},
		},
	}

	assert.Equal(t, []string{"電子發票\nNX47000123\n", "Page two\n", ""}, DocumentPages(doc))
}

func TestDocumentPagesWithoutLayout(t *testing.T) {
	assert.Equal(t, []string{"AB12345678"}, DocumentPages(&documentaipb.Document{Text: "AB12345678"}))
	assert.Nil(t, DocumentPages(&documentaipb.Document{}))
}
