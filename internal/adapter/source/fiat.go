package source

import (
	"context"
	"fmt"
	"time"

	"currency-rates-service/pkg/logger"

	"currency-rates-service/internal/domain/model"
)

const (
	FiatSourceName        = "exchangerate"
	fiatSourceDisplayName = "ExchangeRate-API"
)

// FiatRateSource pulls fiat rates in bulk from an ExchangeRate-API style
// "latest rates" endpoint and emits CCY_BASE pairs for each configured
// currency against the fixed base.
type FiatRateSource struct {
	baseURL    string
	apiKey     string
	base       string
	currencies []string
	fetcher    *httpFetcher
	log        *logger.Logger
}

type latestRatesResponse struct {
	Result          string             `json:"result"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func NewFiatRateSource(baseURL, apiKey, base string, currencies []string, timeout time.Duration, maxRetries int, log *logger.Logger) *FiatRateSource {
	return &FiatRateSource{
		baseURL:    baseURL,
		apiKey:     apiKey,
		base:       base,
		currencies: currencies,
		fetcher:    newHTTPFetcher(timeout, maxRetries, log),
		log:        log,
	}
}

func (s *FiatRateSource) Name() string        { return FiatSourceName }
func (s *FiatRateSource) DisplayName() string { return fiatSourceDisplayName }

func (s *FiatRateSource) FetchRates(ctx context.Context) (map[string]float64, error) {
	s.log.Info("Fetching fiat rates", "source", s.DisplayName(), "base", s.base)

	url := fmt.Sprintf("%s/%s/latest/%s", s.baseURL, s.apiKey, s.base)

	var resp latestRatesResponse
	if err := s.fetcher.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	// Check the provider's own verdict first: an error body also lacks
	// conversion_rates, and "result=error" is the better diagnosis.
	if resp.Result != "" && resp.Result != "success" {
		return nil, fmt.Errorf("%w: provider reported result=%q", model.ErrMalformedResponse, resp.Result)
	}
	if resp.ConversionRates == nil {
		return nil, fmt.Errorf("%w: missing conversion_rates", model.ErrMalformedResponse)
	}

	rates := make(map[string]float64, len(s.currencies))
	for _, currency := range s.currencies {
		if currency == s.base {
			continue
		}
		rate, ok := resp.ConversionRates[currency]
		if !ok {
			continue
		}
		rates[currency+"_"+s.base] = rate
	}

	s.log.Info("Fiat rates retrieved", "source", s.DisplayName(), "count", len(rates))
	return rates, nil
}

func (s *FiatRateSource) Metadata(pairKey string) map[string]string {
	return map[string]string{"base_currency": s.base}
}
