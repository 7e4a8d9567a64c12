package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"invoicehub/internal/barcode"
	"invoicehub/internal/config"
	"invoicehub/internal/exchange"
	"invoicehub/internal/extract"
	"invoicehub/internal/invoice"
	"invoicehub/internal/metrics"
	"invoicehub/internal/ocr"
	"invoicehub/internal/pdftext"
	"invoicehub/internal/store"
	"invoicehub/pkg/services"
)

// application holds the components shared by the subcommands.
type application struct {
	config  *config.Config
	db      *gorm.DB
	metrics *metrics.Metrics
	store   *store.InvoiceRepository
	service *invoice.Service
	closers []func() error
}

// newApplication wires the invoice pipeline from cfg. Google-backed engines
// are created only when configured.
func newApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*application, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded; check the environment and .env file")
	}

	app := &application{config: cfg, metrics: metrics.New()}

	db, err := store.Open(cfg.GetStoreConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, func() error { return store.Close(db) })
	app.store = store.NewInvoiceRepository(db)

	var fallback pdftext.PageReader
	if cfg.DocumentAIProcessorID != "" {
		reader, err := pdftext.NewDocumentAIReader(ctx, cfg.GetDocumentAIConfig())
		if err != nil {
			app.Close(log)
			return nil, handleEngineError("Document AI", err, log)
		}
		fallback = reader
		app.closers = append(app.closers, reader.Close)
	}

	var recognizer extract.TextRecognizer
	if cfg.OCREnabled {
		vision, err := ocr.NewGoogleVisionOCRService(ctx)
		if err != nil {
			app.Close(log)
			return nil, handleEngineError("Cloud Vision", err, log)
		}
		recognizer = vision
		app.closers = append(app.closers, vision.Close)
	} else {
		log.Info().Msg("OCR disabled; images without an e-invoice QR code will be rejected")
	}

	dispatcher := extract.NewDispatcher(
		extract.NewPDFExtractor(pdftext.NewSource(pdftext.NewTextLayer(), fallback)),
		extract.NewImageExtractor(barcode.NewQRScanner(), recognizer, cfg.OCRLanguages),
	)

	converter := exchange.NewConverter(newRateProvider(cfg), app.metrics)
	reconciler := invoice.NewReconciler(converter, app.store)

	app.service = invoice.NewService(invoice.ServiceConfig{
		TempDir:        cfg.TempDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, dispatcher, reconciler, app.store, app.metrics)

	log.Debug().
		Str("rate_mode", cfg.ExchangeRateMode).
		Bool("ocr", cfg.OCREnabled).
		Bool("document_ai", fallback != nil).
		Msg("Invoice pipeline ready")

	return app, nil
}

func newRateProvider(cfg *config.Config) services.RateProvider {
	if cfg.ExchangeRateMode == config.RateModeLive {
		return exchange.NewExchangeRateAPIProvider(cfg.ExchangeRateBaseURL, cfg.ExchangeRateAPIKey, cfg.ExchangeRateTimeout)
	}
	return exchange.NewFixedRateProvider(cfg.FixedRates)
}

// Close releases every client and the database, in reverse creation order.
func (a *application) Close(log zerolog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Failed to release resource")
		}
	}
}

// createContextWithTimeout creates a context with timeout and signal handling.
// A non-positive timeout only cancels on signals.
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeoutSecs > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}

// handleEngineError provides user-friendly messages for Google client setup failures.
func handleEngineError(engine string, err error, log zerolog.Logger) error {
	log.Error().Err(err).Str("engine", engine).Msg("Failed to create recognition engine")

	switch {
	case errors.Is(err, ocr.ErrMissingCredentials), errors.Is(err, pdftext.ErrMissingCredentials):
		return fmt.Errorf("%s: Google Cloud credentials not configured. Please set one of:\n"+
			"  GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n"+
			"  GOOGLE_CREDENTIALS='<json-credentials>'\n"+
			"or disable the engine (OCR_ENABLED=false, DOCUMENT_AI_PROCESSOR_ID unset).\n"+
			"Original error: %w", engine, err)
	case errors.Is(err, pdftext.ErrInvalidConfiguration):
		return fmt.Errorf("%s: invalid configuration. Please check your .env file:\n"+
			"  GOOGLE_CLOUD_PROJECT - your Google Cloud project ID\n"+
			"  GOOGLE_CLOUD_LOCATION - processing location (us, eu, etc.)\n"+
			"  DOCUMENT_AI_PROCESSOR_ID - your Document AI OCR processor ID\n"+
			"Original error: %w", engine, err)
	default:
		return fmt.Errorf("failed to create %s client: %w", engine, err)
	}
}
