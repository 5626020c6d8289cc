package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mgriffith/spindial/internal/game/engine"
)

// ErrPlayerNotFound is returned when a player lookup yields no results. It
// wraps the engine sentinel so transport code can map it without importing
// the storage layer.
var ErrPlayerNotFound = fmt.Errorf("memory: %w", engine.ErrPlayerNotFound)

// PlayerProfile is one seeded dev player.
type PlayerProfile struct {
	Stats          engine.PlayerStats
	Equipment      []engine.EquippedItem
	WeaponID       string
	WeaponAccuracy float64
	Gold           int
	XP             int
}

// PlayerStore is the in-memory player service for the dev server.
type PlayerStore struct {
	mu      sync.Mutex
	players map[string]*PlayerProfile
}

var _ engine.PlayerService = (*PlayerStore)(nil)

// NewPlayerStore creates an empty PlayerStore.
func NewPlayerStore() *PlayerStore {
	return &PlayerStore{players: make(map[string]*PlayerProfile)}
}

// Seed registers a player profile, replacing any existing one.
func (s *PlayerStore) Seed(playerID string, profile PlayerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := profile
	s.players[playerID] = &p
}

// Stats returns the player's combat stats.
func (s *PlayerStore) Stats(_ context.Context, playerID string) (engine.PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return engine.PlayerStats{}, ErrPlayerNotFound
	}
	return p.Stats, nil
}

// Equipment returns the player's equipped-item snapshot.
func (s *PlayerStore) Equipment(_ context.Context, playerID string) ([]engine.EquippedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	out := make([]engine.EquippedItem, len(p.Equipment))
	copy(out, p.Equipment)
	return out, nil
}

// EquippedWeapon resolves the player's weapon id and accuracy. ok is false
// when the player fights bare-handed.
func (s *PlayerStore) EquippedWeapon(_ context.Context, playerID string) (string, float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return "", 0, false, ErrPlayerNotFound
	}
	if p.WeaponID == "" {
		return "", 0, false, nil
	}
	return p.WeaponID, p.WeaponAccuracy, true, nil
}

// CreditGold adds to the player's gold balance.
func (s *PlayerStore) CreditGold(_ context.Context, playerID string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	p.Gold += amount
	return nil
}

// CreditXP adds to the player's experience total.
func (s *PlayerStore) CreditXP(_ context.Context, playerID string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	p.XP += amount
	return nil
}

// Balance returns the player's current gold and XP totals.
func (s *PlayerStore) Balance(playerID string) (gold, xp int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return 0, 0, ErrPlayerNotFound
	}
	return p.Gold, p.XP, nil
}
