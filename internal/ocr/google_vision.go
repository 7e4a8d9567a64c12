package ocr

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"invoicehub/internal/logger"
)

// MaxImageSizeBytes is the maximum inline image size for one request (20MB)
const MaxImageSizeBytes = 20 * 1024 * 1024

// GoogleVisionOCRService implements OCRService using Google Cloud Vision API.
type GoogleVisionOCRService struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewGoogleVisionOCRService creates a new OCR service with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVisionOCRService(ctx context.Context) (*GoogleVisionOCRService, error) {
	const op = "NewGoogleVisionOCRService"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return NewGoogleVisionOCRServiceWithClient(client), nil
}

// NewGoogleVisionOCRServiceWithClient creates a new OCR service with an explicit client (for testing).
func NewGoogleVisionOCRServiceWithClient(client *vision.ImageAnnotatorClient) *GoogleVisionOCRService {
	return &GoogleVisionOCRService{
		client: client,
		log:    logger.WithComponent("vision-ocr"),
	}
}

// RecognizeText returns the full text detected in imageData.
func (g *GoogleVisionOCRService) RecognizeText(ctx context.Context, imageData []byte, languages []string) (string, error) {
	result, err := g.RecognizeTextWithMetadata(ctx, imageData, languages)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// RecognizeTextWithMetadata runs document text detection over imageData.
func (g *GoogleVisionOCRService) RecognizeTextWithMetadata(ctx context.Context, imageData []byte, languages []string) (*OCRResult, error) {
	const op = "RecognizeTextWithMetadata"
	startTime := time.Now()

	if len(imageData) == 0 {
		return nil, WrapOCRError(op, ErrEmptyImage, "")
	}
	if len(imageData) > MaxImageSizeBytes {
		return nil, WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(imageData)))
	}

	resp, err := g.client.BatchAnnotateImages(ctx, BuildRequest(imageData, languages))
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	result, err := ParseResponse(resp.Responses[0])
	if err != nil {
		return nil, WrapOCRError(op, err, "")
	}

	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	g.log.Debug().
		Int("chars", len(result.Text)).
		Float32("confidence", result.Confidence).
		Strs("languages", result.LanguageCodes).
		Dur("duration", result.ProcessingDuration).
		Msg("Vision OCR completed")

	return result, nil
}

// BuildRequest builds a document text detection request for one inline image.
func BuildRequest(imageData []byte, languages []string) *visionpb.BatchAnnotateImagesRequest {
	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: imageData},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
		},
	}
	if len(languages) > 0 {
		req.ImageContext = &visionpb.ImageContext{LanguageHints: languages}
	}
	return &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	}
}

// ParseResponse extracts text, average page confidence and detected languages.
// An image without text yields an empty result, not an error.
func ParseResponse(resp *visionpb.AnnotateImageResponse) (*OCRResult, error) {
	if resp.GetError() != nil && resp.GetError().GetMessage() != "" {
		return nil, fmt.Errorf("%w: Vision API error: %s", ErrOCRFailed, resp.GetError().GetMessage())
	}

	annotation := resp.GetFullTextAnnotation()
	if annotation == nil {
		return &OCRResult{}, nil
	}

	var confidenceSum float32
	languageSet := make(map[string]bool)
	for _, page := range annotation.GetPages() {
		confidenceSum += page.GetConfidence()
		for _, lang := range page.GetProperty().GetDetectedLanguages() {
			if lang.GetLanguageCode() != "" {
				languageSet[lang.GetLanguageCode()] = true
			}
		}
	}

	var avgConfidence float32
	if n := len(annotation.GetPages()); n > 0 {
		avgConfidence = confidenceSum / float32(n)
	}

	languages := make([]string, 0, len(languageSet))
	for lang := range languageSet {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	return &OCRResult{
		Text:          annotation.GetText(),
		Confidence:    avgConfidence,
		LanguageCodes: languages,
	}, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionOCRService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
