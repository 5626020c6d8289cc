package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mgriffith/spindial/internal/game/engine"
	"github.com/mgriffith/spindial/internal/game/loot"
)

// InventoryRepository persists material stacks and item instances awarded by
// combat victories.
type InventoryRepository struct {
	db *pgxpool.Pool
}

var _ engine.InventoryService = (*InventoryRepository)(nil)

// NewInventoryRepository creates an InventoryRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// AddMaterials upserts one unit per drop into the player's material stacks.
// Drops of the same material and style within a batch accumulate.
//
// Postcondition: Every drop is applied, or none are and an error is returned.
func (r *InventoryRepository) AddMaterials(ctx context.Context, playerID string, materials []loot.MaterialResult) error {
	if len(materials) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning material transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range materials {
		_, err := tx.Exec(ctx,
			`INSERT INTO player_materials (player_id, material_id, style_id, quantity)
			 VALUES ($1, $2, $3, 1)
			 ON CONFLICT (player_id, material_id, style_id)
			 DO UPDATE SET quantity = player_materials.quantity + 1`,
			playerID, m.MaterialID, m.StyleID,
		)
		if err != nil {
			return fmt.Errorf("upserting material %s: %w", m.MaterialID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing materials: %w", err)
	}
	return nil
}

// CreateItems inserts newly generated item instances into the player's
// inventory.
//
// Precondition: Every item must carry a unique instance id.
func (r *InventoryRepository) CreateItems(ctx context.Context, playerID string, items []loot.ItemResult) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning item transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, it := range items {
		_, err := tx.Exec(ctx,
			`INSERT INTO player_items (instance_id, player_id, item_type, rarity, style_id)
			 VALUES ($1, $2, $3, $4, $5)`,
			it.InstanceID, playerID, it.ItemType, it.Rarity, it.StyleID,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("item instance %s already exists", it.InstanceID)
			}
			return fmt.Errorf("inserting item %s: %w", it.InstanceID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing items: %w", err)
	}
	return nil
}
