package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"invoicehub/pkg/services"
)

// ExchangeRateAPIName identifies the live provider in logs and metrics.
const ExchangeRateAPIName = "exchangerate-api"

type latestRatesResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// ExchangeRateAPIProvider fetches live rates from exchangerate-api.com (v6).
type ExchangeRateAPIProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewExchangeRateAPIProvider creates a live provider whose requests are bounded by timeout.
func NewExchangeRateAPIProvider(baseURL, apiKey string, timeout time.Duration) *ExchangeRateAPIProvider {
	return NewExchangeRateAPIProviderWithClient(baseURL, apiKey, &http.Client{Timeout: timeout})
}

// NewExchangeRateAPIProviderWithClient creates a live provider with an explicit client (for testing).
func NewExchangeRateAPIProviderWithClient(baseURL, apiKey string, client *http.Client) *ExchangeRateAPIProvider {
	return &ExchangeRateAPIProvider{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

// Name implements services.RateProvider.
func (p *ExchangeRateAPIProvider) Name() string {
	return ExchangeRateAPIName
}

// RateToTWD implements services.RateProvider.
func (p *ExchangeRateAPIProvider) RateToTWD(ctx context.Context, baseCurrency string) (*services.RateQuote, error) {
	const op = "ExchangeRateAPIProvider.RateToTWD"

	fail := func(details string, err error) error {
		return &RateError{Op: op, Currency: baseCurrency, Provider: p.Name(), Err: err, Details: details}
	}

	endpoint := fmt.Sprintf("%s/v6/%s/latest/%s", p.baseURL, url.PathEscape(p.apiKey), url.PathEscape(baseCurrency))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fail("build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fail("request failed", fmt.Errorf("%w: %w", ErrRateUnavailable, redactKey(err, p.apiKey)))
	}
	defer resp.Body.Close()

	var payload latestRatesResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		details := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if payload.ErrorType != "" {
			details += " " + payload.ErrorType
		}
		return nil, fail(details, ErrRateUnavailable)
	}
	if decodeErr != nil {
		return nil, fail("decode response", fmt.Errorf("%w: %w", ErrRateUnavailable, decodeErr))
	}
	if payload.Result != "success" {
		return nil, fail(fmt.Sprintf("result %q error-type %q", payload.Result, payload.ErrorType), ErrRateUnavailable)
	}

	rate, ok := payload.ConversionRates["TWD"]
	if !ok || rate <= 0 {
		return nil, fail("response has no TWD rate", ErrRateUnavailable)
	}

	return &services.RateQuote{
		BaseCurrency:  baseCurrency,
		QuoteCurrency: "TWD",
		Rate:          rate,
		Provider:      p.Name(),
		FetchedAt:     time.Now(),
	}, nil
}

// redactKey keeps the API key, which is part of the request path, out of error messages.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), key, "***"))
}
