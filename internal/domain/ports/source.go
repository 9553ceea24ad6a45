package ports

import (
	"context"
)

// RateSource fetches current rates from one external provider. Each variant
// is pre-configured with its own target currencies and endpoint; the returned
// map is keyed by "BASE_QUOTE" pair keys.
type RateSource interface {
	// Name is the registry key used for per-source enable/disable and
	// subset selection, e.g. "coingecko".
	Name() string

	// DisplayName is the label written into journal and snapshot records,
	// e.g. "CoinGecko".
	DisplayName() string

	// FetchRates performs the network request with bounded timeout and
	// retry. A malformed response aborts immediately; exhausted retries
	// yield a source-unavailable error.
	FetchRates(ctx context.Context) (map[string]float64, error)

	// Metadata returns the provider-specific journal metadata for one pair.
	Metadata(pairKey string) map[string]string
}
