package ports

import (
	"time"

	"currency-rates-service/internal/domain/model"
)

// RatesStore owns the durable append-only observation journal and the
// replaceable snapshot cache. No other component writes those artifacts.
type RatesStore interface {
	// AppendObservation adds one record to the journal's durable end.
	// History is never rewritten.
	AppendObservation(obs model.RateObservation) error

	// ReplaceSnapshot atomically replaces the entire cached-rates document.
	// Concurrent readers see either the fully-old or fully-new snapshot.
	ReplaceSnapshot(snap model.CacheSnapshot) error

	// LoadSnapshot returns the current snapshot, or model.ErrNoSnapshot if
	// none has ever been written.
	LoadSnapshot() (*model.CacheSnapshot, error)

	// LoadJournal returns the full ordered history. Diagnostics only.
	LoadJournal() ([]model.RateObservation, error)

	// JournalSize reports the number of journal records.
	JournalSize() (int, error)

	// IsStale reports whether no snapshot exists or its age is >= ttl.
	IsStale(ttl time.Duration) bool
}
