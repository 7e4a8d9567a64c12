package pdftext

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"invoicehub/internal/logger"
)

// DocumentAIConfig holds configuration for the Document AI OCR processor.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	Location string

	// ProcessorID is the ID of a Document OCR processor.
	ProcessorID string

	// Timeout is the maximum time to wait for one document. Default: 60 seconds.
	Timeout time.Duration
}

// DocumentAIReader returns page text recognized by a Document AI OCR processor.
type DocumentAIReader struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIReader creates a reader with credentials from the environment:
// GOOGLE_CREDENTIALS (inline JSON) or GOOGLE_APPLICATION_CREDENTIALS (file path),
// else application default credentials.
func NewDocumentAIReader(ctx context.Context, config DocumentAIConfig) (*DocumentAIReader, error) {
	const op = "NewDocumentAIReader"

	if config.ProjectID == "" || config.ProcessorID == "" {
		return nil, WrapPDFTextError(op, ErrInvalidConfiguration, "project ID and processor ID are required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	var clientOptions []option.ClientOption
	if config.Location != "us" {
		clientOptions = append(clientOptions, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)))
	}
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapPDFTextError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapPDFTextError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return NewDocumentAIReaderWithClient(config, client), nil
}

// NewDocumentAIReaderWithClient creates a reader with an explicit client (for testing).
func NewDocumentAIReaderWithClient(config DocumentAIConfig, client *documentai.DocumentProcessorClient) *DocumentAIReader {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &DocumentAIReader{
		client: client,
		config: config,
		log:    logger.WithComponent("document-ai"),
	}
}

// PageTexts sends the PDF to the OCR processor and returns the text of each page.
func (r *DocumentAIReader) PageTexts(ctx context.Context, pdfData []byte) ([]string, error) {
	const op = "DocumentAIReader.PageTexts"

	if err := checkPDF(op, pdfData); err != nil {
		return nil, err
	}

	processCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.client.ProcessDocument(processCtx, &documentaipb.ProcessRequest{
		Name: r.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdfData,
				MimeType: "application/pdf",
			},
		},
	})
	if err != nil {
		return nil, r.handleProcessingError(op, err)
	}
	if resp.Document == nil {
		return nil, WrapPDFTextError(op, ErrProcessingFailed, "no document in response")
	}

	pages := DocumentPages(resp.Document)
	r.log.Debug().
		Int("pages", len(pages)).
		Dur("duration", time.Since(start)).
		Msg("Document AI OCR completed")

	return pages, nil
}

// DocumentPages slices the document text into per-page strings using each
// page layout's text anchor. A document without page layout yields its full
// text as a single page.
func DocumentPages(doc *documentaipb.Document) []string {
	text := []rune(doc.GetText())
	if len(doc.GetPages()) == 0 {
		if len(text) == 0 {
			return nil
		}
		return []string{string(text)}
	}

	pages := make([]string, 0, len(doc.GetPages()))
	for _, page := range doc.GetPages() {
		var b strings.Builder
		for _, seg := range page.GetLayout().GetTextAnchor().GetTextSegments() {
			start, end := clampIndex(seg.GetStartIndex(), len(text)), clampIndex(seg.GetEndIndex(), len(text))
			if start < end {
				b.WriteString(string(text[start:end]))
			}
		}
		pages = append(pages, b.String())
	}
	return pages
}

func clampIndex(i int64, n int) int {
	switch {
	case i < 0:
		return 0
	case i > int64(n):
		return n
	default:
		return int(i)
	}
}

func (r *DocumentAIReader) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		r.config.ProjectID, r.config.Location, r.config.ProcessorID)
}

// handleProcessingError converts Document AI errors to package errors.
func (r *DocumentAIReader) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"), strings.Contains(errStr, "PermissionDenied"):
		return WrapPDFTextError(op, ErrInvalidCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "QUOTA_EXCEEDED"), strings.Contains(errStr, "ResourceExhausted"):
		return WrapPDFTextError(op, ErrQuotaExceeded, "Document AI API quota exceeded")
	case strings.Contains(errStr, "NOT_FOUND"), strings.Contains(errStr, "NotFound"):
		return WrapPDFTextError(op, ErrProcessorNotFound, fmt.Sprintf("processor not found: %s", r.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"), strings.Contains(errStr, "InvalidArgument"):
		return WrapPDFTextError(op, ErrInvalidPDF, "document format not supported or corrupted")
	case strings.Contains(errStr, "DeadlineExceeded"), strings.Contains(errStr, "context deadline exceeded"):
		return WrapPDFTextError(op, context.DeadlineExceeded, "processing timeout")
	default:
		return WrapPDFTextError(op, ErrProcessingFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// Close closes the underlying Document AI client.
func (r *DocumentAIReader) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
