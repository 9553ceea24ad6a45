package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/pkg/logger"
)

// FileStore keeps the append-only observation journal and the current
// snapshot as two JSON documents on disk. Every write goes through a
// write-to-temp-then-rename publish, so a concurrent reader sees either the
// fully-old or fully-new document, never a torn one.
type FileStore struct {
	journalPath  string
	snapshotPath string
	log          *logger.Logger

	mu sync.RWMutex
	// snap caches the last snapshot read or written, so rate queries do not
	// re-read the file on every lookup.
	snap *model.CacheSnapshot

	now func() time.Time
}

func NewFileStore(journalPath, snapshotPath string, log *logger.Logger) (*FileStore, error) {
	for _, path := range []string{journalPath, snapshotPath} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%w: failed to create data directory: %v", model.ErrPersistence, err)
			}
		}
	}

	return &FileStore{
		journalPath:  journalPath,
		snapshotPath: snapshotPath,
		log:          log,
		now:          time.Now,
	}, nil
}

func (s *FileStore) AppendObservation(obs model.RateObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readJournal()
	if err != nil {
		return err
	}

	records = append(records, obs)
	if err := writeFileAtomic(s.journalPath, records); err != nil {
		return err
	}

	s.log.Debug("Journaled observation", "id", obs.ID, "source", obs.Source)
	return nil
}

func (s *FileStore) ReplaceSnapshot(snap model.CacheSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeFileAtomic(s.snapshotPath, &snap); err != nil {
		return err
	}

	s.snap = &snap
	s.log.Info("Snapshot replaced", "pairs", len(snap.Pairs), "last_refresh", snap.LastRefresh)
	return nil
}

func (s *FileStore) LoadSnapshot() (*model.CacheSnapshot, error) {
	s.mu.RLock()
	if s.snap != nil {
		snap := s.snap
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil {
		return s.snap, nil
	}

	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.ErrNoSnapshot
		}
		return nil, fmt.Errorf("%w: failed to read snapshot: %v", model.ErrPersistence, err)
	}

	var snap model.CacheSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: failed to decode snapshot: %v", model.ErrPersistence, err)
	}

	s.snap = &snap
	return s.snap, nil
}

func (s *FileStore) LoadJournal() ([]model.RateObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readJournal()
}

func (s *FileStore) JournalSize() (int, error) {
	records, err := s.LoadJournal()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func (s *FileStore) IsStale(ttl time.Duration) bool {
	snap, err := s.LoadSnapshot()
	if err != nil {
		return true
	}
	return snap.Age(s.now()) >= ttl
}

func (s *FileStore) readJournal() ([]model.RateObservation, error) {
	data, err := os.ReadFile(s.journalPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.RateObservation{}, nil
		}
		return nil, fmt.Errorf("%w: failed to read journal: %v", model.ErrPersistence, err)
	}

	var records []model.RateObservation
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: failed to decode journal: %v", model.ErrPersistence, err)
	}
	return records, nil
}

// writeFileAtomic marshals v into a temporary file in the target directory
// and renames it over path. If anything fails, the previous file is left
// untouched.
func writeFileAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %v", model.ErrPersistence, filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", model.ErrPersistence, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to write temp file: %v", model.ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to sync temp file: %v", model.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to close temp file: %v", model.ErrPersistence, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to publish %s: %v", model.ErrPersistence, filepath.Base(path), err)
	}

	return nil
}
