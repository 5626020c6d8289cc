package memory

import (
	"context"
	"sync"

	"github.com/mgriffith/spindial/internal/game/engine"
	"github.com/mgriffith/spindial/internal/game/loot"
)

// InventoryStore is the in-memory inventory service for the dev server.
type InventoryStore struct {
	mu        sync.Mutex
	materials map[string]map[materialKey]int
	items     map[string][]loot.ItemResult
}

type materialKey struct {
	materialID string
	styleID    string
}

var _ engine.InventoryService = (*InventoryStore)(nil)

// NewInventoryStore creates an empty InventoryStore.
func NewInventoryStore() *InventoryStore {
	return &InventoryStore{
		materials: make(map[string]map[materialKey]int),
		items:     make(map[string][]loot.ItemResult),
	}
}

// AddMaterials adds one unit per drop to the player's material stacks.
func (s *InventoryStore) AddMaterials(_ context.Context, playerID string, materials []loot.MaterialResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stacks, ok := s.materials[playerID]
	if !ok {
		stacks = make(map[materialKey]int)
		s.materials[playerID] = stacks
	}
	for _, m := range materials {
		stacks[materialKey{m.MaterialID, m.StyleID}]++
	}
	return nil
}

// CreateItems appends the generated items to the player's inventory.
func (s *InventoryStore) CreateItems(_ context.Context, playerID string, items []loot.ItemResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[playerID] = append(s.items[playerID], items...)
	return nil
}

// MaterialCount returns how many units of the material the player holds.
func (s *InventoryStore) MaterialCount(playerID, materialID, styleID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.materials[playerID][materialKey{materialID, styleID}]
}

// Items returns a copy of the player's item list.
func (s *InventoryStore) Items(playerID string) []loot.ItemResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]loot.ItemResult, len(s.items[playerID]))
	copy(out, s.items[playerID])
	return out
}
