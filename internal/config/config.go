package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"invoicehub/internal/logger"
	"invoicehub/internal/pdftext"
	"invoicehub/internal/store"
)

// Exchange rate modes
const (
	RateModeLive  = "live"
	RateModeFixed = "fixed"
)

// Supported database drivers
const (
	DriverSQLite   = store.DriverSQLite
	DriverPostgres = store.DriverPostgres
)

type Config struct {
	// HTTP Configuration
	HTTPAddr       string
	StaticDir      string
	TempDir        string
	MaxUploadBytes int64

	// Database Configuration
	DBDriver  string
	DBDSN     string
	DBMetrics bool

	// Exchange Rate Configuration
	ExchangeRateMode    string
	ExchangeRateAPIKey  string
	ExchangeRateBaseURL string
	ExchangeRateTimeout time.Duration
	FixedRates          map[string]float64

	// OCR Configuration (Google Cloud Vision)
	OCREnabled   bool
	OCRLanguages []string

	// Scanned PDF fallback (Google Document AI OCR processor, optional)
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the configuration from the environment. It is called once at
// startup and the result is passed explicitly to every component.
func Load() (*Config, error) {
	config := &Config{
		HTTPAddr:              getEnv("HTTP_ADDR", ":8000"),
		StaticDir:             getEnv("STATIC_DIR", ""),
		TempDir:               getEnv("TEMP_DIR", "temp_files"),
		DBDriver:              strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBDSN:                 getEnv("DB_DSN", "invoice_app.db"),
		ExchangeRateMode:      strings.ToLower(getEnv("EXCHANGE_RATE_MODE", RateModeFixed)),
		ExchangeRateAPIKey:    getEnv("EXCHANGE_RATE_API_KEY", ""),
		ExchangeRateBaseURL:   getEnv("EXCHANGE_RATE_BASE_URL", "https://v6.exchangerate-api.com"),
		OCRLanguages:          splitList(getEnv("OCR_LANGUAGES", "zh-Hant,en")),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stdout"),
	}

	var err error
	if config.MaxUploadBytes, err = getInt64Env("MAX_UPLOAD_BYTES", 20*1024*1024); err != nil {
		return nil, err
	}
	if config.DBMetrics, err = getBoolEnv("DB_METRICS", false); err != nil {
		return nil, err
	}
	if config.OCREnabled, err = getBoolEnv("OCR_ENABLED", false); err != nil {
		return nil, err
	}
	if config.ExchangeRateTimeout, err = getDurationEnv("EXCHANGE_RATE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.FixedRates, err = ParseRateTable(getEnv("EXCHANGE_FIXED_RATES", "USD:32.0,EUR:35.0")); err != nil {
		return nil, fmt.Errorf("EXCHANGE_FIXED_RATES: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.ExchangeRateMode {
	case RateModeLive:
		if c.ExchangeRateAPIKey == "" {
			return fmt.Errorf("EXCHANGE_RATE_API_KEY is required when EXCHANGE_RATE_MODE=live")
		}
	case RateModeFixed:
	default:
		return fmt.Errorf("EXCHANGE_RATE_MODE must be %q or %q, got %q", RateModeLive, RateModeFixed, c.ExchangeRateMode)
	}
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.ExchangeRateTimeout <= 0 {
		return fmt.Errorf("EXCHANGE_RATE_TIMEOUT must be positive")
	}
	if c.DocumentAIProcessorID != "" && c.GoogleCloudProject == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required when DOCUMENT_AI_PROCESSOR_ID is set")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetStoreConfig returns the database configuration from the main config
func (c *Config) GetStoreConfig() store.Config {
	return store.Config{
		Driver:  c.DBDriver,
		DSN:     c.DBDSN,
		Metrics: c.DBMetrics,
	}
}

// GetDocumentAIConfig returns the scanned-PDF fallback configuration from the main config
func (c *Config) GetDocumentAIConfig() pdftext.DocumentAIConfig {
	return pdftext.DocumentAIConfig{
		ProjectID:   c.GoogleCloudProject,
		Location:    c.GoogleCloudLocation,
		ProcessorID: c.DocumentAIProcessorID,
	}
}

// ParseRateTable parses "USD:32.0,EUR:35.0" into a code → rate map.
func ParseRateTable(raw string) (map[string]float64, error) {
	rates := make(map[string]float64)
	for _, entry := range splitList(raw) {
		code, value, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("entry %q is not CODE:RATE", entry)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("entry %q has an invalid rate", entry)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func getInt64Env(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
