package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"invoicehub/internal/invoice"
	"invoicehub/internal/logger"
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Recognize an invoice file and store it",
	Long: `Recognize one invoice document, convert its total to TWD and store it,
overwriting any stored invoice with the same number. The stored record is
printed as JSON.

Supported files: PDF invoices with a text layer (application/pdf) and
JPEG, PNG or WebP photos of Taiwan e-invoices or traditional receipts.
The media type is guessed from the file extension and content unless
--type is given.`,
	Example: `  # Process a PDF invoice
  invoicehub process invoice.pdf

  # Process a receipt photo whose extension is missing
  invoicehub process receipt --type image/jpeg`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().String("type", "", "Media type of the file (default: detected)")
	processCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	contentType, _ := cmd.Flags().GetString("type")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	path := args[0]

	file, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Failed to open invoice file")
		return fmt.Errorf("failed to open invoice file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close invoice file")
		}
	}()

	if contentType == "" {
		contentType, err = detectContentType(file, path)
		if err != nil {
			return err
		}
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	app, err := newApplication(ctx, appConfig, log)
	if err != nil {
		return err
	}
	defer app.Close(log)

	log.Info().
		Str("file", path).
		Str("content_type", contentType).
		Msg("Processing invoice")

	inv, err := app.service.Process(ctx, invoice.Upload{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Body:        file,
	})
	if err != nil {
		return handleProcessError(err, log)
	}

	return printJSON(inv, log)
}

// detectContentType uses the extension first and falls back to content sniffing.
func detectContentType(file *os.File, path string) (string, error) {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		return byExt, nil
	}

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && n == 0 {
		return "", fmt.Errorf("failed to read invoice file: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return "", fmt.Errorf("failed to rewind invoice file: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}

// handleProcessError provides user-friendly messages per failure kind
func handleProcessError(err error, log zerolog.Logger) error {
	var procErr *invoice.ProcessingError
	if !errors.As(err, &procErr) {
		log.Error().Err(err).Msg("Invoice processing failed")
		return fmt.Errorf("invoice processing failed: %w", err)
	}

	switch procErr.Kind {
	case invoice.KindUnsupportedFormat:
		return fmt.Errorf("%s. Supported: PDF, JPEG, PNG, WebP (use --type to override detection)", procErr.Message())
	case invoice.KindExtractionEngine:
		return fmt.Errorf("%s. For photos without an e-invoice QR code set OCR_ENABLED=true and Google Cloud credentials", procErr.Message())
	case invoice.KindRateService:
		return fmt.Errorf("%s. Check EXCHANGE_RATE_API_KEY or use EXCHANGE_RATE_MODE=fixed", procErr.Message())
	default:
		return errors.New(procErr.Message())
	}
}

func printJSON(v any, log zerolog.Logger) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal output to JSON")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if _, err := os.Stdout.Write(jsonData); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}
