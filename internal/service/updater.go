package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/internal/metrics"
	"currency-rates-service/pkg/logger"
)

// UpdateService runs one refresh cycle across the configured sources, merges
// the results and writes them through the store. Concurrent callers
// (scheduler tick and stale-triggered reads) are collapsed into a single
// in-flight run per source subset; late callers receive the shared result.
type UpdateService struct {
	sources []ports.RateSource
	byName  map[string]ports.RateSource
	store   ports.RatesStore
	log     *logger.Logger
	metrics *metrics.Metrics

	group singleflight.Group
	now   func() time.Time
}

func NewUpdateService(sources []ports.RateSource, store ports.RatesStore, log *logger.Logger, m *metrics.Metrics) *UpdateService {
	byName := make(map[string]ports.RateSource, len(sources))
	for _, src := range sources {
		byName[src.Name()] = src
	}
	return &UpdateService{
		sources: sources,
		byName:  byName,
		store:   store,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

func (u *UpdateService) RunUpdate(ctx context.Context, names []string) (*model.UpdateResult, error) {
	selected := u.selectSources(names)

	keys := make([]string, 0, len(selected))
	for _, src := range selected {
		keys = append(keys, src.Name())
	}
	flightKey := strings.Join(keys, ",")

	// The run is shared by every joiner, so it must not die with the
	// caller that happened to start it.
	runCtx := context.WithoutCancel(ctx)
	v, _, shared := u.group.Do(flightKey, func() (any, error) {
		return u.runUpdate(runCtx, selected), nil
	})
	result := v.(*model.UpdateResult)

	if shared {
		u.log.Debug("Joined in-flight update run", "run_id", result.RunID)
	}

	if len(result.SuccessfulSources) == 0 {
		return result, fmt.Errorf("%w: no rates retrieved from any source", model.ErrSourceUnavailable)
	}
	for _, failure := range result.FailedSources {
		if failure.Source == "storage" {
			return result, fmt.Errorf("%w: %s", model.ErrPersistence, failure.Error)
		}
	}
	return result, nil
}

// selectSources resolves a requested subset against the registry, keeping
// configured order. Unknown names are logged and skipped; an empty subset
// selects everything.
func (u *UpdateService) selectSources(names []string) []ports.RateSource {
	if len(names) == 0 {
		return u.sources
	}

	requested := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := u.byName[name]; !ok {
			u.log.Warn("Unknown source requested", "source", name)
			continue
		}
		requested[name] = true
	}

	selected := make([]ports.RateSource, 0, len(requested))
	for _, src := range u.sources {
		if requested[src.Name()] {
			selected = append(selected, src)
		}
	}
	return selected
}

func (u *UpdateService) runUpdate(ctx context.Context, selected []ports.RateSource) *model.UpdateResult {
	start := u.now()
	result := &model.UpdateResult{
		RunID:             uuid.NewString(),
		SuccessfulSources: []string{},
		FailedSources:     []model.SourceFailure{},
		LastRefresh:       start,
	}

	u.log.Info("Starting rates update", "run_id", result.RunID, "sources", len(selected))

	merged := make(map[string]model.CacheEntry)
	for _, src := range selected {
		rates, err := src.FetchRates(ctx)
		if err != nil {
			result.FailedSources = append(result.FailedSources, model.SourceFailure{
				Source: src.Name(),
				Error:  err.Error(),
			})
			if u.metrics != nil {
				u.metrics.SourceFailuresTotal.WithLabelValues(src.Name()).Inc()
			}
			u.log.Error("Source failed", "run_id", result.RunID, "source", src.Name(), "error", err)
			continue
		}

		result.SuccessfulSources = append(result.SuccessfulSources, src.Name())
		u.log.Info("Source fetched", "run_id", result.RunID, "source", src.Name(), "rates", len(rates))

		for pairKey, rate := range rates {
			merged[pairKey] = model.CacheEntry{
				Rate:      rate,
				UpdatedAt: start,
				Source:    src.DisplayName(),
			}

			// Journal immediately so a partially-failed run still
			// captures whatever succeeded.
			meta := map[string]string{"run_id": result.RunID}
			for k, v := range src.Metadata(pairKey) {
				meta[k] = v
			}
			obs := model.NewRateObservation(pairKey, rate, start, src.DisplayName(), meta)
			if err := u.store.AppendObservation(obs); err != nil {
				u.log.Error("Failed to journal observation", "run_id", result.RunID, "id", obs.ID, "error", err)
			}
		}
	}

	result.TotalRates = len(merged)

	if len(merged) > 0 {
		snap := model.CacheSnapshot{Pairs: merged, LastRefresh: start}
		if err := u.store.ReplaceSnapshot(snap); err != nil {
			result.FailedSources = append(result.FailedSources, model.SourceFailure{
				Source: "storage",
				Error:  err.Error(),
			})
			u.log.Error("Failed to replace snapshot", "run_id", result.RunID, "error", err)
		}
	} else {
		u.log.Warn("No rates retrieved, snapshot left untouched", "run_id", result.RunID)
	}

	if u.metrics != nil {
		u.metrics.ObserveRun(len(result.SuccessfulSources), len(result.FailedSources))
		if n, err := u.store.JournalSize(); err == nil {
			u.metrics.JournalRecords.Set(float64(n))
		}
	}

	u.log.Info("Update completed",
		"run_id", result.RunID,
		"total_rates", result.TotalRates,
		"successful_sources", len(result.SuccessfulSources),
		"failed_sources", len(result.FailedSources),
	)
	return result
}
