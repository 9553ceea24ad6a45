package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/pkg/logger"
)

func fixedSource(name, display string, rates map[string]float64, err error) *MockRateSource {
	return &MockRateSource{
		NameValue:        name,
		DisplayNameValue: display,
		FetchRatesFunc: func(ctx context.Context) (map[string]float64, error) {
			return rates, err
		},
	}
}

func TestUpdateService_RunUpdate_MergesSources(t *testing.T) {
	fiat := fixedSource("exchangerate", "ExchangeRate-API", map[string]float64{"EUR_USD": 0.927, "GBP_USD": 0.79}, nil)
	crypto := fixedSource("coingecko", "CoinGecko", map[string]float64{"BTC_USD": 64000.5}, nil)

	var journaled []model.RateObservation
	var written *model.CacheSnapshot
	store := &MockRatesStore{
		AppendObservationFunc: func(obs model.RateObservation) error {
			journaled = append(journaled, obs)
			return nil
		},
		ReplaceSnapshotFunc: func(snap model.CacheSnapshot) error {
			written = &snap
			return nil
		},
	}

	u := NewUpdateService([]ports.RateSource{fiat, crypto}, store, logger.NewNop(), nil)

	result, err := u.RunUpdate(context.Background(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"exchangerate", "coingecko"}, result.SuccessfulSources)
	assert.Empty(t, result.FailedSources)
	assert.Equal(t, 3, result.TotalRates)

	require.NotNil(t, written)
	require.Len(t, written.Pairs, 3)
	assert.Equal(t, "CoinGecko", written.Pairs["BTC_USD"].Source)
	for key, entry := range written.Pairs {
		assert.True(t, entry.UpdatedAt.Equal(written.LastRefresh), "entry %s must carry the run timestamp", key)
	}

	require.Len(t, journaled, 3)
	for _, obs := range journaled {
		assert.Equal(t, result.RunID, obs.Metadata["run_id"])
	}
}

func TestUpdateService_RunUpdate_FailureIsolation(t *testing.T) {
	failing := fixedSource("exchangerate", "ExchangeRate-API", nil,
		errors.New("upstream timeout"))
	crypto := fixedSource("coingecko", "CoinGecko", map[string]float64{"BTC_USD": 64000.5}, nil)

	var written *model.CacheSnapshot
	store := &MockRatesStore{
		ReplaceSnapshotFunc: func(snap model.CacheSnapshot) error {
			written = &snap
			return nil
		},
	}

	u := NewUpdateService([]ports.RateSource{failing, crypto}, store, logger.NewNop(), nil)

	result, err := u.RunUpdate(context.Background(), nil)
	require.NoError(t, err, "one healthy source is a (partial) success")

	assert.Equal(t, []string{"coingecko"}, result.SuccessfulSources)
	require.Len(t, result.FailedSources, 1)
	assert.Equal(t, "exchangerate", result.FailedSources[0].Source)
	assert.Contains(t, result.FailedSources[0].Error, "upstream timeout")
	assert.Equal(t, 1, result.TotalRates)

	require.NotNil(t, written, "healthy source's rates still published")
	assert.Contains(t, written.Pairs, "BTC_USD")
}

func TestUpdateService_RunUpdate_AllSourcesFail(t *testing.T) {
	a := fixedSource("exchangerate", "ExchangeRate-API", nil, errors.New("down"))
	b := fixedSource("coingecko", "CoinGecko", nil, errors.New("also down"))

	store := &MockRatesStore{
		ReplaceSnapshotFunc: func(snap model.CacheSnapshot) error {
			t.Fatal("snapshot must not be replaced when no source succeeded")
			return nil
		},
	}

	u := NewUpdateService([]ports.RateSource{a, b}, store, logger.NewNop(), nil)

	result, err := u.RunUpdate(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)

	require.NotNil(t, result, "result still carries the per-source breakdown")
	assert.Empty(t, result.SuccessfulSources)
	assert.Len(t, result.FailedSources, 2)
	assert.Equal(t, 0, result.TotalRates)
}

func TestUpdateService_RunUpdate_StorageFailure(t *testing.T) {
	crypto := fixedSource("coingecko", "CoinGecko", map[string]float64{"BTC_USD": 64000.5}, nil)

	store := &MockRatesStore{
		ReplaceSnapshotFunc: func(snap model.CacheSnapshot) error {
			return errors.New("disk full")
		},
	}

	u := NewUpdateService([]ports.RateSource{crypto}, store, logger.NewNop(), nil)

	result, err := u.RunUpdate(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrPersistence)

	require.NotNil(t, result)
	assert.Equal(t, []string{"coingecko"}, result.SuccessfulSources)
	require.Len(t, result.FailedSources, 1)
	assert.Equal(t, "storage", result.FailedSources[0].Source)
}

func TestUpdateService_RunUpdate_SelectsRequestedSubset(t *testing.T) {
	fiatCalled := false
	fiat := &MockRateSource{
		NameValue:        "exchangerate",
		DisplayNameValue: "ExchangeRate-API",
		FetchRatesFunc: func(ctx context.Context) (map[string]float64, error) {
			fiatCalled = true
			return map[string]float64{"EUR_USD": 0.927}, nil
		},
	}
	crypto := fixedSource("coingecko", "CoinGecko", map[string]float64{"BTC_USD": 64000.5}, nil)

	u := NewUpdateService([]ports.RateSource{fiat, crypto}, &MockRatesStore{}, logger.NewNop(), nil)

	result, err := u.RunUpdate(context.Background(), []string{"COINGECKO", "unknown"})
	require.NoError(t, err)

	assert.False(t, fiatCalled, "unrequested source must not be fetched")
	assert.Equal(t, []string{"coingecko"}, result.SuccessfulSources)
	assert.Equal(t, 1, result.TotalRates)
}

func TestUpdateService_RunUpdate_ConcurrentCallersShareOneRun(t *testing.T) {
	var fetches atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	crypto := &MockRateSource{
		NameValue:        "coingecko",
		DisplayNameValue: "CoinGecko",
		FetchRatesFunc: func(ctx context.Context) (map[string]float64, error) {
			if fetches.Add(1) == 1 {
				close(started)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-release:
				return map[string]float64{"BTC_USD": 64000.5}, nil
			}
		},
	}

	u := NewUpdateService([]ports.RateSource{crypto}, &MockRatesStore{}, logger.NewNop(), nil)

	type outcome struct {
		result *model.UpdateResult
		err    error
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()

	first := make(chan outcome, 1)
	go func() {
		result, err := u.RunUpdate(firstCtx, nil)
		first <- outcome{result, err}
	}()

	<-started

	second := make(chan outcome, 1)
	go func() {
		result, err := u.RunUpdate(context.Background(), nil)
		second <- outcome{result, err}
	}()

	// Let the second caller join the in-flight run, then cancel the caller
	// that started it. The shared run must outlive its initiator.
	time.Sleep(50 * time.Millisecond)
	cancelFirst()
	close(release)

	a := <-first
	b := <-second

	require.NoError(t, a.err)
	require.NoError(t, b.err, "joiners must not inherit the initiator's cancellation")
	assert.Equal(t, a.result.RunID, b.result.RunID, "both callers share one run")
	assert.Equal(t, int32(1), fetches.Load(), "the source is fetched once, not per caller")
	assert.Equal(t, 1, a.result.TotalRates)
}

func TestUpdateService_RunUpdate_JournalErrorDoesNotAbortRun(t *testing.T) {
	crypto := fixedSource("coingecko", "CoinGecko", map[string]float64{"BTC_USD": 64000.5}, nil)

	var written *model.CacheSnapshot
	store := &MockRatesStore{
		AppendObservationFunc: func(obs model.RateObservation) error {
			return errors.New("journal write failed")
		},
		ReplaceSnapshotFunc: func(snap model.CacheSnapshot) error {
			written = &snap
			return nil
		},
	}

	u := NewUpdateService([]ports.RateSource{crypto}, store, logger.NewNop(), nil)

	result, err := u.RunUpdate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalRates)
	require.NotNil(t, written, "snapshot publish proceeds despite journal errors")
}
