package engine

import (
	"context"

	"github.com/mgriffith/spindial/internal/game/loot"
)

// SessionStore is the external keyed store backing sessions. It owns TTL
// enforcement and per-player uniqueness; the engine treats a missing and an
// expired session identically.
//
// Implementations must provide read-after-write consistency per session id.
type SessionStore interface {
	// Create persists a new session. Returns ErrActiveSessionExists when the
	// owning player already has an active session; the check must be atomic
	// (a uniqueness constraint backstop is required where check-then-insert
	// can race).
	Create(ctx context.Context, s *Session) error
	// Get returns the session, or ErrSessionNotFound when missing or expired.
	Get(ctx context.Context, sessionID string) (*Session, error)
	// AppendTurn durably appends one log entry to the session's log.
	AppendTurn(ctx context.Context, sessionID string, entry LogEntry) error
	// Delete removes the session. Deleting an absent session returns
	// ErrSessionNotFound.
	Delete(ctx context.Context, sessionID string) error
}

// PlayerService provides the player-profile collaborator boundary: resolved
// combat stats, the equipped-item snapshot, and the currency/XP ledger.
type PlayerService interface {
	Stats(ctx context.Context, playerID string) (PlayerStats, error)
	Equipment(ctx context.Context, playerID string) ([]EquippedItem, error)
	CreditGold(ctx context.Context, playerID string, amount int) error
	CreditXP(ctx context.Context, playerID string, amount int) error
}

// EnemyService resolves enemy types into realized stats and reward tiers.
type EnemyService interface {
	// RealizedStats returns the enemy's stats for the chosen combat level.
	RealizedStats(ctx context.Context, enemyTypeID string, level int) (EnemyStats, error)
	Tier(ctx context.Context, enemyTypeID string) (EnemyTier, error)
}

// WeaponService returns a player's accuracy-adjusted dial configuration.
// Implementations fall back to the documented default bands when the player
// has no weapon equipped.
type WeaponService interface {
	DialFor(ctx context.Context, playerID string) (WeaponDial, error)
}

// PoolMember is one weighted enemy entry in a spawn pool.
type PoolMember struct {
	PoolID      string  `yaml:"-"`
	EnemyTypeID string  `yaml:"enemy"`
	Weight      float64 `yaml:"weight"`
}

// PoolService provides the location collaborator boundary: spawn pools
// eligible for a (location, combat level) pair and per-enemy loot tables.
type PoolService interface {
	// EnemyPool returns the weighted members eligible for the location and
	// level, or ErrPoolNotFound when the location has no pool at all.
	EnemyPool(ctx context.Context, locationID string, level int) ([]PoolMember, error)
	LootTable(ctx context.Context, enemyTypeID string) (loot.Table, error)
}

// InventoryService applies material and item mutations on reward payout.
type InventoryService interface {
	AddMaterials(ctx context.Context, playerID string, materials []loot.MaterialResult) error
	CreateItems(ctx context.Context, playerID string, items []loot.ItemResult) error
}

// HistorySummary is the per (player, location) combat record returned with
// every completion.
type HistorySummary struct {
	Attempts      int `json:"attempts"`
	Victories     int `json:"victories"`
	Defeats       int `json:"defeats"`
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}

// HistoryService updates and returns the combat-history counters for a
// (player, location) pair.
type HistoryService interface {
	RecordOutcome(ctx context.Context, playerID, locationID string, victory bool) (HistorySummary, error)
}
