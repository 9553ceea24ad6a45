package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/pkg/logger"
)

// RateService answers rate(from->to) queries against the snapshot. A stale
// snapshot triggers a synchronous refresh before the lookup; a missing direct
// quote is triangulated through the bridge currency when both legs exist.
type RateService struct {
	store   ports.RatesStore
	updater ports.Updater
	ttl     time.Duration
	bridge  string
	log     *logger.Logger

	now func() time.Time
}

func NewRateService(store ports.RatesStore, updater ports.Updater, ttl time.Duration, bridge string, log *logger.Logger) *RateService {
	return &RateService{
		store:   store,
		updater: updater,
		ttl:     ttl,
		bridge:  bridge,
		log:     log,
		now:     time.Now,
	}
}

func (s *RateService) GetRate(ctx context.Context, from, to string) (*model.Quote, error) {
	pair, err := model.NewCurrencyPair(from, to)
	if err != nil {
		return nil, err
	}

	if s.store.IsStale(s.ttl) {
		s.log.Info("Snapshot stale, refreshing before lookup", "pair", pair.Key())
		if _, err := s.updater.RunUpdate(ctx, nil); err != nil {
			// Still answer from whatever snapshot exists.
			s.log.Error("Refresh-on-read failed", "pair", pair.Key(), "error", err)
		}
	}

	snap, err := s.store.LoadSnapshot()
	if err != nil {
		if errors.Is(err, model.ErrNoSnapshot) {
			return nil, fmt.Errorf("%w for pair %s", model.ErrRateUnavailable, pair)
		}
		return nil, err
	}

	if entry, ok := snap.Pairs[pair.Key()]; ok {
		return &model.Quote{Pair: pair, Rate: entry.Rate, UpdatedAt: entry.UpdatedAt}, nil
	}

	// Single-hop triangulation through the bridge currency. The result is
	// computed, not cached: it is not written back to the snapshot.
	if pair.Base != s.bridge && pair.Quote != s.bridge {
		left, lok := snap.Pairs[pair.Base+"_"+s.bridge]
		right, rok := snap.Pairs[s.bridge+"_"+pair.Quote]
		if lok && rok {
			rate := left.Rate * right.Rate
			s.log.Info("Triangulated rate", "pair", pair.Key(), "bridge", s.bridge, "rate", rate)
			return &model.Quote{Pair: pair, Rate: rate, UpdatedAt: s.now()}, nil
		}
	}

	return nil, fmt.Errorf("%w for pair %s", model.ErrRateUnavailable, pair)
}

// Status reports the cache and journal state for the status endpoint. The
// scheduler flag is filled in by the caller.
func (s *RateService) Status() *model.Status {
	status := &model.Status{
		IsStale: s.store.IsStale(s.ttl),
	}

	if n, err := s.store.JournalSize(); err == nil {
		status.JournalRecords = n
	} else {
		s.log.Error("Failed to read journal size", "error", err)
	}

	snap, err := s.store.LoadSnapshot()
	if err != nil {
		if !errors.Is(err, model.ErrNoSnapshot) {
			s.log.Error("Failed to load snapshot for status", "error", err)
		}
		return status
	}

	status.CacheExists = true
	status.LastRefresh = snap.LastRefresh
	status.CachedPairs = len(snap.Pairs)
	return status
}
