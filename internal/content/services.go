package content

import (
	"context"

	"github.com/mgriffith/spindial/internal/game/dial"
	"github.com/mgriffith/spindial/internal/game/engine"
	"github.com/mgriffith/spindial/internal/game/loot"
)

var (
	_ engine.EnemyService = (*Catalog)(nil)
	_ engine.PoolService  = (*Catalog)(nil)
)

// RealizedStats returns the enemy's stats scaled to the given combat level.
func (c *Catalog) RealizedStats(_ context.Context, enemyTypeID string, level int) (engine.EnemyStats, error) {
	e, ok := c.enemies[enemyTypeID]
	if !ok {
		return engine.EnemyStats{}, engine.ErrEnemyNotFound
	}
	return e.RealizedStats(level), nil
}

// Tier returns the reward multipliers for the enemy's tier.
func (c *Catalog) Tier(_ context.Context, enemyTypeID string) (engine.EnemyTier, error) {
	e, ok := c.enemies[enemyTypeID]
	if !ok {
		return engine.EnemyTier{}, engine.ErrEnemyNotFound
	}
	t := c.tiers[e.TierID]
	return engine.EnemyTier{
		GoldMultiplier: t.GoldMultiplier,
		XPMultiplier:   t.XPMultiplier,
	}, nil
}

// EnemyPool returns the weighted members of every pool covering the location
// and level. A location with no pool at any level is ErrPoolNotFound; a
// covered location with no pool at this level returns an empty slice so the
// caller can distinguish the two.
func (c *Catalog) EnemyPool(_ context.Context, locationID string, level int) ([]engine.PoolMember, error) {
	known := false
	var members []engine.PoolMember
	for _, p := range c.pools {
		if p.LocationID != locationID {
			continue
		}
		known = true
		if !p.Covers(locationID, level) {
			continue
		}
		for _, m := range p.Members {
			m.PoolID = p.ID
			members = append(members, m)
		}
	}
	if !known {
		return nil, engine.ErrPoolNotFound
	}
	return members, nil
}

// LootTable returns the loot table of the given enemy type.
func (c *Catalog) LootTable(_ context.Context, enemyTypeID string) (loot.Table, error) {
	e, ok := c.enemies[enemyTypeID]
	if !ok {
		return loot.Table{}, engine.ErrEnemyNotFound
	}
	return e.Loot, nil
}

// WeaponLookup resolves a player's equipped weapon id. Implementations
// return ok=false when the player fights bare-handed.
type WeaponLookup func(ctx context.Context, playerID string) (weaponID string, accuracy float64, ok bool, err error)

// WeaponResolver implements the weapon collaborator on top of the catalog's
// weapon definitions and an equipped-weapon lookup. Accuracy widens the
// favorable bands at the expense of the graze band before the dial snapshot
// is taken.
type WeaponResolver struct {
	catalog *Catalog
	lookup  WeaponLookup
}

var _ engine.WeaponService = (*WeaponResolver)(nil)

// NewWeaponResolver builds a resolver over the catalog's weapons.
func NewWeaponResolver(catalog *Catalog, lookup WeaponLookup) *WeaponResolver {
	return &WeaponResolver{catalog: catalog, lookup: lookup}
}

// DialFor returns the player's adjusted dial, or the default dial when no
// weapon is equipped or the equipped weapon id is unknown.
func (r *WeaponResolver) DialFor(ctx context.Context, playerID string) (engine.WeaponDial, error) {
	weaponID, accuracy, ok, err := r.lookup(ctx, playerID)
	if err != nil {
		return engine.WeaponDial{}, err
	}
	if !ok {
		return defaultDial(), nil
	}
	w, found := r.catalog.weapons[weaponID]
	if !found {
		return engine.WeaponDial{}, engine.ErrWeaponNotFound
	}
	return engine.WeaponDial{
		Pattern:          w.Pattern,
		SpinDegPerSecond: w.SpinDegPerSecond,
		Bands:            AdjustBands(w.Bands, accuracy),
	}, nil
}

// AdjustBands shifts width from the graze band into the crit and normal
// bands in proportion to accuracy, capped so the graze band never shrinks
// below half its configured width. The total stays 360.
func AdjustBands(b dial.Bands, accuracy float64) dial.Bands {
	if accuracy <= 0 {
		return b
	}
	if accuracy > 1 {
		accuracy = 1
	}
	shift := b.Graze * 0.5 * accuracy
	b.Graze -= shift
	b.Crit += shift * 0.25
	b.Normal += shift * 0.75
	return b
}

func defaultDial() engine.WeaponDial {
	return engine.WeaponDial{
		Pattern:          "steady",
		SpinDegPerSecond: 180,
		Bands:            dial.DefaultBands(),
	}
}
