package service

import (
	"context"
	"time"

	"currency-rates-service/internal/domain/model"
)

type MockRateSource struct {
	NameValue        string
	DisplayNameValue string
	FetchRatesFunc   func(ctx context.Context) (map[string]float64, error)
	MetadataFunc     func(pairKey string) map[string]string
}

func (m *MockRateSource) Name() string        { return m.NameValue }
func (m *MockRateSource) DisplayName() string { return m.DisplayNameValue }

func (m *MockRateSource) FetchRates(ctx context.Context) (map[string]float64, error) {
	return m.FetchRatesFunc(ctx)
}

func (m *MockRateSource) Metadata(pairKey string) map[string]string {
	if m.MetadataFunc == nil {
		return nil
	}
	return m.MetadataFunc(pairKey)
}

type MockRatesStore struct {
	AppendObservationFunc func(obs model.RateObservation) error
	ReplaceSnapshotFunc   func(snap model.CacheSnapshot) error
	LoadSnapshotFunc      func() (*model.CacheSnapshot, error)
	LoadJournalFunc       func() ([]model.RateObservation, error)
	JournalSizeFunc       func() (int, error)
	IsStaleFunc           func(ttl time.Duration) bool
}

func (m *MockRatesStore) AppendObservation(obs model.RateObservation) error {
	if m.AppendObservationFunc == nil {
		return nil
	}
	return m.AppendObservationFunc(obs)
}

func (m *MockRatesStore) ReplaceSnapshot(snap model.CacheSnapshot) error {
	if m.ReplaceSnapshotFunc == nil {
		return nil
	}
	return m.ReplaceSnapshotFunc(snap)
}

func (m *MockRatesStore) LoadSnapshot() (*model.CacheSnapshot, error) {
	return m.LoadSnapshotFunc()
}

func (m *MockRatesStore) LoadJournal() ([]model.RateObservation, error) {
	if m.LoadJournalFunc == nil {
		return []model.RateObservation{}, nil
	}
	return m.LoadJournalFunc()
}

func (m *MockRatesStore) JournalSize() (int, error) {
	if m.JournalSizeFunc == nil {
		return 0, nil
	}
	return m.JournalSizeFunc()
}

func (m *MockRatesStore) IsStale(ttl time.Duration) bool {
	if m.IsStaleFunc == nil {
		return false
	}
	return m.IsStaleFunc(ttl)
}

type MockUpdater struct {
	RunUpdateFunc func(ctx context.Context, sources []string) (*model.UpdateResult, error)
}

func (m *MockUpdater) RunUpdate(ctx context.Context, sources []string) (*model.UpdateResult, error) {
	return m.RunUpdateFunc(ctx, sources)
}
