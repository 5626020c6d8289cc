package memory

import (
	"context"
	"sync"

	"github.com/mgriffith/spindial/internal/game/engine"
)

// HistoryStore is the in-memory history service for the dev server.
type HistoryStore struct {
	mu      sync.Mutex
	records map[historyKey]engine.HistorySummary
}

type historyKey struct {
	playerID   string
	locationID string
}

var _ engine.HistoryService = (*HistoryStore)(nil)

// NewHistoryStore creates an empty HistoryStore.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{records: make(map[historyKey]engine.HistorySummary)}
}

// RecordOutcome updates the pair's counters and returns the new summary.
// A victory extends the current streak; a defeat resets it.
func (s *HistoryStore) RecordOutcome(_ context.Context, playerID, locationID string, victory bool) (engine.HistorySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := historyKey{playerID, locationID}
	rec := s.records[key]
	rec.Attempts++
	if victory {
		rec.Victories++
		rec.CurrentStreak++
		if rec.CurrentStreak > rec.LongestStreak {
			rec.LongestStreak = rec.CurrentStreak
		}
	} else {
		rec.Defeats++
		rec.CurrentStreak = 0
	}
	s.records[key] = rec
	return rec, nil
}
