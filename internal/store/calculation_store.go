package store

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"taxi/internal/model"

	"go.uber.org/zap"
)

// CalculationStore owns the persisted calculation results, keyed by
// "{group}_{year}". Finalization records are merged into the same record.
type CalculationStore struct {
	mu      sync.RWMutex
	path    string
	results map[string]model.CalculationResult
	log     *zap.Logger
}

// NewCalculationStore loads the calculation file at path, starting empty
// when the file is missing or unreadable.
func NewCalculationStore(path string, logger *zap.Logger) *CalculationStore {
	s := &CalculationStore{path: path, log: logger}
	s.load()
	return s
}

func (s *CalculationStore) load() {
	results := map[string]model.CalculationResult{}
	err := loadJSON(s.path, &results)
	switch {
	case err == nil:
		s.results = results
		return
	case errors.Is(err, os.ErrNotExist):
		s.log.Info("calculation file not found, starting empty", zap.String("path", s.path))
	default:
		s.log.Warn("failed to load calculation file, starting empty",
			zap.String("path", s.path), zap.Error(err))
	}
	s.results = map[string]model.CalculationResult{}
	if err := saveJSON(s.path, s.results); err != nil {
		s.log.Warn("failed to write empty calculation file", zap.String("path", s.path), zap.Error(err))
	}
}

// Save upserts one result and persists the whole table. An existing
// finalization for the same key is kept unless the new result carries its
// own.
func (s *CalculationStore) Save(result model.CalculationResult) error {
	if result.CalcKey == "" {
		return fmt.Errorf("calculation result has no key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.results[result.CalcKey]; ok && result.Finalization == nil {
		result.Finalization = existing.Finalization
	}

	next := make(map[string]model.CalculationResult, len(s.results)+1)
	for key, r := range s.results {
		next[key] = r
	}
	next[result.CalcKey] = result

	if err := saveJSON(s.path, next); err != nil {
		return fmt.Errorf("failed to save calculation results: %w", err)
	}
	s.results = next
	return nil
}

// Get returns one result by key.
func (s *CalculationStore) Get(calcKey string) (model.CalculationResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[calcKey]
	return result, ok
}

// History returns results matching the optional year and group filters,
// newest first.
func (s *CalculationStore) History(year *int, groupID string) []model.CalculationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CalculationResult, 0, len(s.results))
	for _, result := range s.results {
		if year != nil && result.Year != *year {
			continue
		}
		if groupID != "" && result.GroupID != groupID {
			continue
		}
		out = append(out, result)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ComputedAt.After(out[j].ComputedAt) })
	return out
}

// KeysWithYear returns the keys of stored results referencing a year, for
// delete-year dependency checks.
func (s *CalculationStore) KeysWithYear(year int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for key, result := range s.results {
		if result.Year == year {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
