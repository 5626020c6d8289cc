package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mgriffith/spindial/internal/game/engine"
)

// ErrPlayerNotFound is returned when a player lookup yields no results. It
// wraps the engine sentinel so transport code can map it without importing
// the storage layer.
var ErrPlayerNotFound = fmt.Errorf("postgres: %w", engine.ErrPlayerNotFound)

// PlayerRepository provides player profile persistence: resolved combat
// stats, the equipped-item set, and the gold/XP ledger.
type PlayerRepository struct {
	db *pgxpool.Pool
}

var _ engine.PlayerService = (*PlayerRepository)(nil)

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Stats returns the player's resolved combat stats.
//
// Postcondition: Returns the stats row or ErrPlayerNotFound.
func (r *PlayerRepository) Stats(ctx context.Context, playerID string) (engine.PlayerStats, error) {
	var stats engine.PlayerStats
	err := r.db.QueryRow(ctx,
		`SELECT attack_power, attack_accuracy, defense_power, defense_accuracy, max_hp
		 FROM players WHERE id = $1`,
		playerID,
	).Scan(&stats.AttackPower, &stats.AttackAccuracy, &stats.DefensePower, &stats.DefenseAccuracy, &stats.MaxHP)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return engine.PlayerStats{}, ErrPlayerNotFound
		}
		return engine.PlayerStats{}, fmt.Errorf("querying player stats: %w", err)
	}
	return stats, nil
}

// Equipment returns the player's currently equipped items.
//
// Postcondition: Returns an empty slice for a player with nothing equipped.
func (r *PlayerRepository) Equipment(ctx context.Context, playerID string) ([]engine.EquippedItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT e.slot, i.instance_id, i.item_type, i.rarity
		 FROM player_equipment e
		 JOIN player_items i ON i.instance_id = e.instance_id
		 WHERE e.player_id = $1
		 ORDER BY e.slot`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying equipment: %w", err)
	}
	defer rows.Close()

	var items []engine.EquippedItem
	for rows.Next() {
		var it engine.EquippedItem
		if err := rows.Scan(&it.Slot, &it.InstanceID, &it.ItemType, &it.Rarity); err != nil {
			return nil, fmt.Errorf("scanning equipment row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading equipment rows: %w", err)
	}
	return items, nil
}

// EquippedWeapon resolves the player's equipped weapon id and accuracy
// rating. ok is false when the player fights bare-handed.
func (r *PlayerRepository) EquippedWeapon(ctx context.Context, playerID string) (string, float64, bool, error) {
	var weaponID *string
	var accuracy float64
	err := r.db.QueryRow(ctx,
		`SELECT weapon_id, weapon_accuracy FROM players WHERE id = $1`,
		playerID,
	).Scan(&weaponID, &accuracy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, false, ErrPlayerNotFound
		}
		return "", 0, false, fmt.Errorf("querying equipped weapon: %w", err)
	}
	if weaponID == nil {
		return "", 0, false, nil
	}
	return *weaponID, accuracy, true, nil
}

// CreditGold adds the given amount to the player's gold balance.
//
// Precondition: amount must be >= 0.
// Postcondition: The balance is incremented, or ErrPlayerNotFound is returned.
func (r *PlayerRepository) CreditGold(ctx context.Context, playerID string, amount int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET gold = gold + $2 WHERE id = $1`,
		playerID, amount,
	)
	if err != nil {
		return fmt.Errorf("crediting gold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// CreditXP adds the given amount to the player's experience total.
//
// Precondition: amount must be >= 0.
// Postcondition: The total is incremented, or ErrPlayerNotFound is returned.
func (r *PlayerRepository) CreditXP(ctx context.Context, playerID string, amount int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET xp = xp + $2 WHERE id = $1`,
		playerID, amount,
	)
	if err != nil {
		return fmt.Errorf("crediting xp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}
