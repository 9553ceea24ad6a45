package model

import (
	"time"
)

// RateObservation is one immutable record in the append-only journal.
// Identity is (pair, source, observed_at); records are never mutated or
// deleted.
type RateObservation struct {
	ID         string            `json:"id"`
	Pair       string            `json:"pair"`
	Rate       float64           `json:"rate"`
	ObservedAt time.Time         `json:"observed_at"`
	Source     string            `json:"source"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NewRateObservation stamps the journal record identity used on disk:
// "BASE_QUOTE_<RFC3339 timestamp>".
func NewRateObservation(pairKey string, rate float64, observedAt time.Time, source string, metadata map[string]string) RateObservation {
	return RateObservation{
		ID:         pairKey + "_" + observedAt.UTC().Format(time.RFC3339),
		Pair:       pairKey,
		Rate:       rate,
		ObservedAt: observedAt,
		Source:     source,
		Metadata:   metadata,
	}
}

// CacheEntry is the derived, replaceable best-known rate for one pair.
type CacheEntry struct {
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    string    `json:"source"`
}

// CacheSnapshot is the single current-rates document. It is replaced as a
// whole on every successful run; every entry's UpdatedAt equals LastRefresh,
// so a reader never sees entries from two different refresh runs mixed.
type CacheSnapshot struct {
	Pairs       map[string]CacheEntry `json:"pairs"`
	LastRefresh time.Time             `json:"last_refresh"`
}

// Age reports how long ago the snapshot was refreshed.
func (s *CacheSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.LastRefresh)
}

// SourceFailure records one source's failure within a run.
type SourceFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// UpdateResult summarizes one aggregator run. It is returned and logged, not
// persisted.
type UpdateResult struct {
	RunID             string          `json:"run_id"`
	SuccessfulSources []string        `json:"successful_sources"`
	FailedSources     []SourceFailure `json:"failed_sources"`
	TotalRates        int             `json:"total_rates"`
	LastRefresh       time.Time       `json:"last_refresh"`
}

// Quote is the answer to a rate query. Triangulated quotes carry the
// computation time, not a cache timestamp.
type Quote struct {
	Pair      CurrencyPair `json:"pair"`
	Rate      float64      `json:"rate"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Status is the operator-facing view of the subsystem.
type Status struct {
	SchedulerRunning bool      `json:"scheduler_running"`
	CacheExists      bool      `json:"cache_exists"`
	LastRefresh      time.Time `json:"last_refresh,omitempty"`
	CachedPairs      int       `json:"cached_pairs"`
	JournalRecords   int       `json:"journal_records"`
	IsStale          bool      `json:"is_stale"`
}
