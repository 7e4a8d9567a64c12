package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicehub/pkg/services"
)

type countingProvider struct {
	rate  float64
	err   error
	calls int
	codes []string
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) RateToTWD(_ context.Context, code string) (*services.RateQuote, error) {
	p.calls++
	p.codes = append(p.codes, code)
	if p.err != nil {
		return nil, p.err
	}
	return &services.RateQuote{BaseCurrency: code, QuoteCurrency: "TWD", Rate: p.rate, Provider: p.Name()}, nil
}

type recordingObserver struct {
	providers []string
	errs      []error
}

func (o *recordingObserver) ObserveRateLookup(provider string, err error) {
	o.providers = append(o.providers, provider)
	o.errs = append(o.errs, err)
}

func TestConverterTWDIsIdentity(t *testing.T) {
	provider := &countingProvider{err: errors.New("must not be called")}
	c := NewConverter(provider, nil)

	for _, code := range []string{"TWD", "twd", " TWD "} {
		rate, err := c.Rate(context.Background(), code)
		require.NoError(t, err)
		assert.Equal(t, 1.0, rate)
	}
	assert.Zero(t, provider.calls)
}

func TestConverterNormalizesCode(t *testing.T) {
	provider := &countingProvider{rate: 32}
	observer := &recordingObserver{}
	c := NewConverter(provider, observer)

	rate, err := c.Rate(context.Background(), " usd")
	require.NoError(t, err)
	assert.Equal(t, 32.0, rate)
	assert.Equal(t, []string{"USD"}, provider.codes)
	assert.Equal(t, []string{"counting"}, observer.providers)
	assert.Nil(t, observer.errs[0])
}

func TestConverterPropagatesProviderError(t *testing.T) {
	providerErr := &RateError{Op: "test", Currency: "USD", Provider: "counting", Err: ErrRateUnavailable}
	observer := &recordingObserver{}
	c := NewConverter(&countingProvider{err: providerErr}, observer)

	_, err := c.Rate(context.Background(), "USD")
	assert.ErrorIs(t, err, ErrRateUnavailable)
	require.Len(t, observer.errs, 1)
	assert.Error(t, observer.errs[0])
}

func TestConverterRejectsEmptyCode(t *testing.T) {
	provider := &countingProvider{rate: 1}
	_, err := NewConverter(provider, nil).Rate(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
	assert.Zero(t, provider.calls)
}

func TestFixedRateProvider(t *testing.T) {
	p := NewFixedRateProvider(map[string]float64{"usd": 32.0, "EUR": 35.0})
	c := NewConverter(p, nil)

	rate, err := c.Rate(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, 32.0, rate)

	rate, err = c.Rate(context.Background(), "eur")
	require.NoError(t, err)
	assert.Equal(t, 35.0, rate)

	_, err = c.Rate(context.Background(), "JPY")
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	var rateErr *RateError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, "JPY", rateErr.Currency)
	assert.Equal(t, FixedRateName, rateErr.Provider)
}

func newAPIServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v6/test-key/latest/USD", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExchangeRateAPIProviderSuccess(t *testing.T) {
	srv := newAPIServer(t, http.StatusOK, `{"result":"success","base_code":"USD","conversion_rates":{"USD":1,"TWD":32.5}}`)
	p := NewExchangeRateAPIProvider(srv.URL+"/", "test-key", 5*time.Second)

	quote, err := p.RateToTWD(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, 32.5, quote.Rate)
	assert.Equal(t, "USD", quote.BaseCurrency)
	assert.Equal(t, "TWD", quote.QuoteCurrency)
	assert.Equal(t, ExchangeRateAPIName, quote.Provider)
}

func TestExchangeRateAPIProviderFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"api error":   {http.StatusOK, `{"result":"error","error-type":"invalid-key"}`},
		"missing TWD": {http.StatusOK, `{"result":"success","conversion_rates":{"USD":1}}`},
		"http 500":    {http.StatusInternalServerError, `oops`},
		"http 404":    {http.StatusNotFound, `{"result":"error","error-type":"unsupported-code"}`},
		"not json":    {http.StatusOK, `<html>`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newAPIServer(t, tc.status, tc.body)
			p := NewExchangeRateAPIProvider(srv.URL, "test-key", 5*time.Second)

			quote, err := p.RateToTWD(context.Background(), "USD")
			assert.Nil(t, quote)
			assert.ErrorIs(t, err, ErrRateUnavailable)

			var rateErr *RateError
			require.ErrorAs(t, err, &rateErr)
			assert.Equal(t, ExchangeRateAPIName, rateErr.Provider)
		})
	}
}

func TestExchangeRateAPIProviderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	p := NewExchangeRateAPIProvider(srv.URL, "secret-key", 50*time.Millisecond)

	_, err := p.RateToTWD(context.Background(), "USD")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateUnavailable)
	assert.NotContains(t, err.Error(), "secret-key")
}
