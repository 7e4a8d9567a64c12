// Package invoice turns uploaded invoice documents into stored, TWD-converted
// invoice records and reports on them.
//
// Upload pipeline:
//   - the upload is spooled to a temporary file that is removed on every exit path
//   - the extract.Dispatcher picks the PDF or image recognizer by media type
//   - the Reconciler converts the amount, normalizes the date and upserts by invoice number
//
// Failure kinds surfaced to the uploader:
//   - KindUnsupportedFormat: media type without a recognizer, or an oversized file
//   - KindExtractionEngine: PDF text, barcode or OCR engine failed or is not configured
//   - KindMissingField: no invoice number, amount or currency was recognized
//   - KindMalformedAmount: the recognized amount is not a number
//   - KindRateService: the exchange rate could not be obtained
//   - KindStorage: the database write failed and was rolled back
package invoice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"invoicehub/internal/extract"
	"invoicehub/internal/logger"
	"invoicehub/pkg/models"
)

// DefaultMaxUploadBytes is the upload size limit used when none is configured (20MB)
const DefaultMaxUploadBytes = 20 * 1024 * 1024

// Recognizer extracts raw invoice fields from a document of the given media type.
type Recognizer interface {
	Extract(ctx context.Context, contentType string, data []byte) (*extract.RawExtraction, error)
}

// Observer is notified of processed uploads and computed summaries.
type Observer interface {
	ObserveInvoice(source, kind string, elapsed time.Duration)
	SetSummaryFailed(n int)
}

// Upload is one document submitted for processing.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ServiceConfig holds the upload handling settings.
type ServiceConfig struct {
	// TempDir receives the spooled uploads. Created if missing.
	TempDir string

	// MaxUploadBytes caps the size of one upload. Default: 20MB.
	MaxUploadBytes int64
}

// Service implements the upload, list, summary and delete operations.
type Service struct {
	recognizer Recognizer
	reconciler *Reconciler
	store      Store
	observer   Observer
	config     ServiceConfig
	log        zerolog.Logger
}

// NewService creates the invoice service. observer may be nil.
func NewService(config ServiceConfig, recognizer Recognizer, reconciler *Reconciler, store Store, observer Observer) *Service {
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Service{
		recognizer: recognizer,
		reconciler: reconciler,
		store:      store,
		observer:   observer,
		config:     config,
		log:        logger.WithComponent("invoice-service"),
	}
}

// Process recognizes one uploaded document and stores the resulting invoice.
func (s *Service) Process(ctx context.Context, up Upload) (inv *models.Invoice, err error) {
	const op = "Service.Process"

	start := time.Now()
	source := ""
	log := logger.ForRequest(ctx, s.log).With().
		Str("file", up.Filename).
		Str("content_type", up.ContentType).
		Logger()

	defer func() {
		if err != nil {
			log.Error().Err(err).Str("kind", string(KindOf(err))).Msg("Invoice processing failed")
		}
		if s.observer != nil {
			s.observer.ObserveInvoice(source, string(KindOf(err)), time.Since(start))
		}
	}()

	if !extract.Supported(up.ContentType) {
		return nil, NewProcessingError(KindUnsupportedFormat, op, extract.ErrUnsupportedType, up.ContentType)
	}

	data, err := s.spool(up, log)
	if err != nil {
		return nil, err
	}

	raw, err := s.recognizer.Extract(ctx, up.ContentType, data)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			return nil, NewProcessingError(KindUnsupportedFormat, op, err, up.ContentType)
		}
		return nil, NewProcessingError(KindExtractionEngine, op, err, up.Filename)
	}
	source = raw.Source.String()

	log.Debug().
		Str("source", source).
		Str("invoice_number", raw.InvoiceNumber).
		Str("amount", raw.TotalAmount).
		Str("currency", raw.Currency).
		Msg("Document recognized")

	return s.reconciler.Reconcile(ctx, raw)
}

// spool copies the upload into a temporary file and returns its content. The
// file is removed before spool returns, whatever the outcome.
func (s *Service) spool(up Upload, log zerolog.Logger) ([]byte, error) {
	const op = "Service.spool"

	if err := os.MkdirAll(s.config.TempDir, 0o755); err != nil {
		return nil, NewProcessingError(KindExtractionEngine, op, err, "create temp dir")
	}

	tmp, err := os.CreateTemp(s.config.TempDir, "upload-*"+filepath.Ext(filepath.Base(up.Filename)))
	if err != nil {
		return nil, NewProcessingError(KindExtractionEngine, op, err, "create temp file")
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			log.Warn().Err(closeErr).Str("temp_file", tmp.Name()).Msg("Failed to close temp file")
		}
		if rmErr := os.Remove(tmp.Name()); rmErr != nil {
			log.Warn().Err(rmErr).Str("temp_file", tmp.Name()).Msg("Failed to remove temp file")
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(up.Body, s.config.MaxUploadBytes+1))
	if err != nil {
		return nil, NewProcessingError(KindExtractionEngine, op, err, "write temp file")
	}
	if n > s.config.MaxUploadBytes {
		return nil, NewProcessingError(KindUnsupportedFormat, op, ErrDocumentTooLarge,
			fmt.Sprintf("more than %d bytes", s.config.MaxUploadBytes))
	}
	if n == 0 {
		return nil, NewProcessingError(KindExtractionEngine, op, ErrEmptyDocument, up.Filename)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, NewProcessingError(KindExtractionEngine, op, err, "rewind temp file")
	}
	data, err := io.ReadAll(tmp)
	if err != nil {
		return nil, NewProcessingError(KindExtractionEngine, op, err, "read temp file")
	}
	return data, nil
}

// List returns every stored invoice, newest invoice date first, undated last.
func (s *Service) List(ctx context.Context) ([]models.Invoice, error) {
	invoices, err := s.store.List(ctx)
	if err != nil {
		return nil, NewProcessingError(KindStorage, "Service.List", err, "")
	}
	return invoices, nil
}

// Get returns the invoice with the given number; ErrNotFound when there is none.
func (s *Service) Get(ctx context.Context, number string) (*models.Invoice, error) {
	inv, err := s.store.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, NewProcessingError(KindStorage, "Service.Get", err, number)
	}
	return inv, nil
}

// DeleteAll removes every stored invoice and returns how many were removed.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, NewProcessingError(KindStorage, "Service.DeleteAll", err, "")
	}
	log := logger.ForRequest(ctx, s.log)
	log.Info().Int64("deleted", n).Msg("Invoices purged")
	return n, nil
}

// Summary aggregates every stored invoice by month. Records that cannot be
// aggregated are reported in Summary.Failed; only a failed read is an error.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	invoices, err := s.store.List(ctx)
	if err != nil {
		return nil, NewProcessingError(KindStorage, "Service.Summary", err, "")
	}

	summary := Summarize(invoices)

	log := logger.ForRequest(ctx, s.log)
	for _, f := range summary.Failed {
		log.Warn().
			Str("invoice", f.Identifier).
			Str("reason", f.Reason).
			Msg("Invoice left out of summary")
	}
	if s.observer != nil {
		s.observer.SetSummaryFailed(len(summary.Failed))
	}

	return &summary, nil
}
