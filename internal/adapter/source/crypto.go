package source

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"currency-rates-service/pkg/logger"

	"currency-rates-service/internal/domain/model"
)

const (
	CryptoSourceName        = "coingecko"
	cryptoSourceDisplayName = "CoinGecko"
)

// CryptoRateSource pulls crypto prices from a CoinGecko style price-lookup
// endpoint keyed by provider asset IDs, and maps them back to internal
// currency codes as CCY_BASE pairs.
type CryptoRateSource struct {
	endpoint string
	base     string
	// assets maps internal currency codes to provider asset IDs,
	// e.g. BTC -> bitcoin.
	assets  map[string]string
	fetcher *httpFetcher
	log     *logger.Logger
}

func NewCryptoRateSource(endpoint, base string, assets map[string]string, timeout time.Duration, maxRetries int, log *logger.Logger) *CryptoRateSource {
	return &CryptoRateSource{
		endpoint: endpoint,
		base:     base,
		assets:   assets,
		fetcher:  newHTTPFetcher(timeout, maxRetries, log),
		log:      log,
	}
}

func (s *CryptoRateSource) Name() string        { return CryptoSourceName }
func (s *CryptoRateSource) DisplayName() string { return cryptoSourceDisplayName }

func (s *CryptoRateSource) FetchRates(ctx context.Context) (map[string]float64, error) {
	s.log.Info("Fetching crypto rates", "source", s.DisplayName(), "assets", len(s.assets))

	ids := make([]string, 0, len(s.assets))
	for _, id := range s.assets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")

	var resp map[string]map[string]float64
	if err := s.fetcher.getJSON(ctx, s.endpoint+"?"+query.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty price response", model.ErrMalformedResponse)
	}

	rates := make(map[string]float64, len(s.assets))
	for code, assetID := range s.assets {
		prices, ok := resp[assetID]
		if !ok {
			continue
		}
		price, ok := prices["usd"]
		if !ok {
			continue
		}
		rates[code+"_"+s.base] = price
	}

	s.log.Info("Crypto rates retrieved", "source", s.DisplayName(), "count", len(rates))
	return rates, nil
}

func (s *CryptoRateSource) Metadata(pairKey string) map[string]string {
	code, _, found := strings.Cut(pairKey, "_")
	if !found {
		return nil
	}
	assetID, ok := s.assets[code]
	if !ok {
		return nil
	}
	return map[string]string{"crypto_id": assetID}
}
