package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"invoicehub/internal/barcode"
	"invoicehub/internal/einvoice"
	"invoicehub/internal/extract"
	"invoicehub/internal/logger"
	"invoicehub/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [image-file]",
	Short: "Show what the image recognizer sees in an invoice photo",
	Long: `Decode the QR codes in an invoice photo and run Google Cloud Vision OCR on
it, without storing anything. Useful to check why a receipt is rejected.

Every QR payload is listed together with its decoded e-invoice header when
it is one. OCR runs unless --qr-only is set and is followed by the fields the
OCR recognizer would extract.

Required environment variables (OCR only):
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # QR codes and OCR text of a receipt photo
  invoicehub ocr receipt.jpg

  # Only decode the QR codes (no Google credentials needed)
  invoicehub ocr einvoice.png --qr-only

  # Save everything as JSON
  invoicehub ocr receipt.jpg --json -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	FileName      string            `json:"file_name"`
	FileSize      int64             `json:"file_size"`
	QRPayloads    []QRPayloadOutput `json:"qr_payloads"`
	Text          string            `json:"text,omitempty"`
	Confidence    float32           `json:"confidence,omitempty"`
	LanguageCodes []string          `json:"language_codes,omitempty"`
	OCRDuration   string            `json:"ocr_duration,omitempty"`
	OCRExtraction *OCRFields        `json:"ocr_extraction,omitempty"`
	ProcessedAt   time.Time         `json:"processed_at"`
}

// QRPayloadOutput is one decoded QR code
type QRPayloadOutput struct {
	Raw      string            `json:"raw"`
	EInvoice *einvoice.Payload `json:"einvoice,omitempty"`
}

// OCRFields are the fields the OCR recognizer extracts from the text
type OCRFields struct {
	InvoiceNumber string `json:"invoice_number"`
	TotalAmount   string `json:"total_amount"`
	Vendor        string `json:"vendor"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Bool("qr-only", false, "Skip OCR, only decode QR codes")
	ocrCmd.Flags().StringSlice("languages", nil, "OCR language hints (default: OCR_LANGUAGES)")
	ocrCmd.Flags().Int("timeout", 60, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	qrOnly, _ := cmd.Flags().GetBool("qr-only")
	languages, _ := cmd.Flags().GetStringSlice("languages")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]
	if len(languages) == 0 && appConfig != nil {
		languages = appConfig.OCRLanguages
	}

	log.Info().
		Str("file", imagePath).
		Bool("qr_only", qrOnly).
		Strs("languages", languages).
		Msg("Starting image inspection")

	fileInfo, err := validateImageFile(imagePath, log)
	if err != nil {
		return err
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		log.Error().Err(err).Str("file", imagePath).Msg("Failed to read image file")
		return fmt.Errorf("failed to read image file: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		log.Error().Err(err).Str("file", imagePath).Msg("Failed to decode image")
		return fmt.Errorf("cannot decode image (supported: JPEG, PNG, WebP): %w", err)
	}
	log.Debug().Str("format", format).Msg("Image decoded")

	output := OCROutput{
		FileName:    filepath.Base(fileInfo.Name()),
		FileSize:    fileInfo.Size(),
		QRPayloads:  []QRPayloadOutput{},
		ProcessedAt: time.Now(),
	}

	payloads, err := barcode.NewQRScanner().Scan(img)
	if err != nil {
		log.Warn().Err(err).Msg("QR scan failed")
	}
	for _, raw := range payloads {
		entry := QRPayloadOutput{Raw: raw}
		if p, ok := einvoice.Decode(raw); ok {
			entry.EInvoice = &p
		}
		output.QRPayloads = append(output.QRPayloads, entry)
	}

	if !qrOnly {
		ctx, cancel := createContextWithTimeout(timeoutSecs, log)
		defer cancel()

		ocrService, err := createOCRService(ctx, log)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := ocrService.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close OCR client")
			}
		}()

		result, err := ocrService.RecognizeTextWithMetadata(ctx, imageData, languages)
		if err != nil {
			return handleOCRError(err, log)
		}

		fields := extract.ParseOCRText(result.Text)
		output.Text = result.Text
		output.Confidence = result.Confidence
		output.LanguageCodes = result.LanguageCodes
		output.OCRDuration = result.ProcessingDuration.String()
		output.OCRExtraction = &OCRFields{
			InvoiceNumber: fields.InvoiceNumber,
			TotalAmount:   fields.TotalAmount,
			Vendor:        orDash(fields.VendorName),
		}

		log.Info().
			Float32("confidence", result.Confidence).
			Dur("duration", result.ProcessingDuration).
			Int("text_length", len(result.Text)).
			Msg("OCR processing completed successfully")
	}

	return outputResults(output, outputPath, jsonOutput, log)
}

// validateImageFile checks that the file exists, is readable and within the size limit
func validateImageFile(imagePath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", imagePath).
				Msg("Image file not found")
			return nil, fmt.Errorf("image file not found: %s", imagePath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", imagePath).
				Msg("Permission denied accessing image file")
			return nil, fmt.Errorf("permission denied accessing image file: %s", imagePath)
		}
		return nil, fmt.Errorf("error accessing image file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", imagePath).
			Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", imagePath)
	}

	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", imagePath).
			Msg("Image file is empty")
		return nil, fmt.Errorf("image file is empty: %s", imagePath)
	}

	if fileInfo.Size() > ocr.MaxImageSizeBytes {
		log.Error().
			Str("file", imagePath).
			Int64("size", fileInfo.Size()).
			Int64("max_size", ocr.MaxImageSizeBytes).
			Msg("Image file exceeds maximum size limit")
		return nil, fmt.Errorf("image file too large (%d bytes). Maximum size is %d bytes (20MB)",
			fileInfo.Size(), ocr.MaxImageSizeBytes)
	}

	return fileInfo, nil
}

// createOCRService creates and configures the OCR service
func createOCRService(ctx context.Context, log zerolog.Logger) (*ocr.GoogleVisionOCRService, error) {
	ocrService, err := ocr.NewGoogleVisionOCRService(ctx)
	if err != nil {
		return nil, handleEngineError("Cloud Vision", err, log)
	}

	log.Debug().Msg("OCR service created successfully")
	return ocrService, nil
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrImageTooLarge):
		return fmt.Errorf("image is too large (maximum 20MB). Try a smaller resolution")
	case errors.Is(err, ocr.ErrEmptyImage):
		return fmt.Errorf("image file is empty")
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "auth:"):
		return fmt.Errorf("Google Cloud authentication failed. Please check GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.\n"+
			"Original error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return fmt.Errorf("permission denied. Please ensure your service account has the 'Cloud Vision API User' role")
	case strings.Contains(errStr, "QUOTA_EXCEEDED"):
		return fmt.Errorf("Google Cloud Vision API quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR processing failed. This may be due to network issues or service unavailability: %w", err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}

// outputResults formats and writes the inspection results
func outputResults(output OCROutput, outputPath string, jsonOutput bool, log zerolog.Logger) error {
	var outputData []byte

	if jsonOutput {
		data, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		outputData = data
	} else {
		var b strings.Builder
		fmt.Fprintf(&b, "=== %s (%d bytes) ===\n", output.FileName, output.FileSize)
		fmt.Fprintf(&b, "\nQR codes: %d\n", len(output.QRPayloads))
		for i, p := range output.QRPayloads {
			fmt.Fprintf(&b, "  [%d] %s\n", i+1, p.Raw)
			if p.EInvoice != nil {
				fmt.Fprintf(&b, "      e-invoice %s dated %s, total %s (pre-tax %s), seller %s\n",
					p.EInvoice.InvoiceNumber, p.EInvoice.DateROC, p.EInvoice.TotalAmount,
					p.EInvoice.SalesAmount, p.EInvoice.SellerID)
			}
		}
		if output.OCRExtraction != nil {
			fmt.Fprintf(&b, "\nOCR confidence: %.1f%%", output.Confidence*100)
			if len(output.LanguageCodes) > 0 {
				fmt.Fprintf(&b, ", languages: %s", strings.Join(output.LanguageCodes, ", "))
			}
			fmt.Fprintf(&b, "\nOCR fields: number=%q amount=%q vendor=%q\n",
				output.OCRExtraction.InvoiceNumber, output.OCRExtraction.TotalAmount, output.OCRExtraction.Vendor)
			b.WriteString("\n=== Extracted Text ===\n\n")
			b.WriteString(output.Text)
			b.WriteString("\n")
		}
		outputData = []byte(b.String())
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}

		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(outputData)).
			Msg("Results written to file")
		return nil
	}

	if _, err := os.Stdout.Write(outputData); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}
	if jsonOutput {
		fmt.Println()
	}
	return nil
}
