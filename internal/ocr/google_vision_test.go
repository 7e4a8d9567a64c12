package ocr

import (
	"context"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/status"
)

func TestBuildRequest(t *testing.T) {
	req := BuildRequest([]byte{0xff, 0xd8}, []string{"zh-Hant", "en"})

	require.Len(t, req.Requests, 1)
	r := req.Requests[0]
	assert.Equal(t, []byte{0xff, 0xd8}, r.GetImage().GetContent())
	require.Len(t, r.Features, 1)
	assert.Equal(t, visionpb.Feature_DOCUMENT_TEXT_DETECTION, r.Features[0].Type)
	assert.Equal(t, []string{"zh-Hant", "en"}, r.GetImageContext().GetLanguageHints())

	assert.Nil(t, BuildRequest([]byte{1}, nil).Requests[0].ImageContext)
}

func TestParseResponse(t *testing.T) {
	resp := &visionpb.AnnotateImageResponse{
		FullTextAnnotation: &visionpb.TextAnnotation{
			Text: "全家便利商店\nOT-12345678\n總計 1,050\n",
			Pages: []*visionpb.Page{
				{
					Confidence: 0.9,
					Property: &visionpb.TextAnnotation_TextProperty{
						DetectedLanguages: []*visionpb.TextAnnotation_DetectedLanguage{
							{LanguageCode: "zh-Hant"}, {LanguageCode: "en"},
						},
					},
				},
				{Confidence: 0.7},
			},
		},
	}

	result, err := ParseResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "全家便利商店\nOT-12345678\n總計 1,050\n", result.Text)
	assert.InDelta(t, 0.8, result.Confidence, 1e-6)
	assert.Equal(t, []string{"en", "zh-Hant"}, result.LanguageCodes)
}

func TestParseResponseWithoutText(t *testing.T) {
	result, err := ParseResponse(&visionpb.AnnotateImageResponse{})
	require.NoError(t, err)
	assert.Empty(t, result.Text)
}

func TestParseResponseAPIError(t *testing.T) {
	_, err := ParseResponse(&visionpb.AnnotateImageResponse{
		Error: &status.Status{Code: 3, Message: "Bad image data."},
	})
	assert.ErrorIs(t, err, ErrOCRFailed)
	assert.Contains(t, err.Error(), "Bad image data.")
}

func TestRecognizeTextValidatesInput(t *testing.T) {
	svc := NewGoogleVisionOCRServiceWithClient(nil)

	_, err := svc.RecognizeText(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = svc.RecognizeText(context.Background(), make([]byte, MaxImageSizeBytes+1), nil)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	var ocrErr *OCRError
	require.ErrorAs(t, err, &ocrErr)
	assert.Equal(t, "RecognizeTextWithMetadata", ocrErr.Op)
}
