// Package content loads the static game data backing the combat
// collaborators: enemy templates, reward tiers, spawn pools, and weapon
// dials, all defined in YAML.
package content

import (
	"fmt"
	"math"

	"github.com/mgriffith/spindial/internal/game/dial"
	"github.com/mgriffith/spindial/internal/game/engine"
	"github.com/mgriffith/spindial/internal/game/loot"
)

// EnemyTemplate defines one enemy type. Base stats are level-1 values; the
// per-level growth factors realize the stats for a chosen combat level.
type EnemyTemplate struct {
	ID                string     `yaml:"id"`
	Name              string     `yaml:"name"`
	Attack            int        `yaml:"attack"`
	Defense           int        `yaml:"defense"`
	HP                int        `yaml:"hp"`
	AttackPerLevel    float64    `yaml:"attack_per_level"`
	DefensePerLevel   float64    `yaml:"defense_per_level"`
	HPPerLevel        float64    `yaml:"hp_per_level"`
	TierID            string     `yaml:"tier"`
	StyleID           string     `yaml:"style"`
	DialogueTone      string     `yaml:"dialogue_tone"`
	PersonalityTraits []string   `yaml:"personality_traits"`
	Loot              loot.Table `yaml:"loot"`
}

// Validate checks the template invariants.
func (t EnemyTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("enemy template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("enemy template %q: name must not be empty", t.ID)
	}
	if t.Attack < 1 || t.Defense < 0 || t.HP < 1 {
		return fmt.Errorf("enemy template %q: attack and hp must be >= 1, defense >= 0", t.ID)
	}
	if t.TierID == "" {
		return fmt.Errorf("enemy template %q: tier must not be empty", t.ID)
	}
	if t.StyleID == "" {
		return fmt.Errorf("enemy template %q: style must not be empty", t.ID)
	}
	if err := t.Loot.Validate(); err != nil {
		return fmt.Errorf("enemy template %q: %w", t.ID, err)
	}
	return nil
}

// Tier is a named reward multiplier set referenced by enemy templates.
type Tier struct {
	ID             string  `yaml:"id"`
	GoldMultiplier float64 `yaml:"gold_multiplier"`
	XPMultiplier   float64 `yaml:"xp_multiplier"`
}

// Validate checks that both multipliers are > 0.
func (t Tier) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("tier: id must not be empty")
	}
	if t.GoldMultiplier <= 0 || t.XPMultiplier <= 0 {
		return fmt.Errorf("tier %q: multipliers must be > 0", t.ID)
	}
	return nil
}

// Pool is a weighted enemy spawn pool bound to a location and level range.
type Pool struct {
	ID         string              `yaml:"id"`
	LocationID string              `yaml:"location"`
	MinLevel   int                 `yaml:"min_level"`
	MaxLevel   int                 `yaml:"max_level"`
	Members    []engine.PoolMember `yaml:"members"`
}

// Validate checks the pool invariants, including member weights.
func (p Pool) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("pool: id must not be empty")
	}
	if p.LocationID == "" {
		return fmt.Errorf("pool %q: location must not be empty", p.ID)
	}
	if p.MinLevel < 1 || p.MaxLevel < p.MinLevel {
		return fmt.Errorf("pool %q: level range [%d, %d] is invalid", p.ID, p.MinLevel, p.MaxLevel)
	}
	if len(p.Members) == 0 {
		return fmt.Errorf("pool %q: must have at least one member", p.ID)
	}
	for i, m := range p.Members {
		if m.EnemyTypeID == "" {
			return fmt.Errorf("pool %q: members[%d] enemy must not be empty", p.ID, i)
		}
		if m.Weight <= 0 {
			return fmt.Errorf("pool %q: members[%d] weight must be > 0, got %v", p.ID, i, m.Weight)
		}
	}
	return nil
}

// Covers reports whether the pool serves the given location and level.
func (p Pool) Covers(locationID string, level int) bool {
	return p.LocationID == locationID && level >= p.MinLevel && level <= p.MaxLevel
}

// Weapon defines one weapon's dial configuration before accuracy adjustment.
type Weapon struct {
	ID               string     `yaml:"id"`
	Name             string     `yaml:"name"`
	Pattern          string     `yaml:"pattern"`
	SpinDegPerSecond float64    `yaml:"spin_deg_per_second"`
	Bands            dial.Bands `yaml:"bands"`
}

// Validate checks that the weapon's bands cover the dial.
func (w Weapon) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("weapon: id must not be empty")
	}
	if w.SpinDegPerSecond <= 0 {
		return fmt.Errorf("weapon %q: spin_deg_per_second must be > 0", w.ID)
	}
	if err := w.Bands.Validate(); err != nil {
		return fmt.Errorf("weapon %q: %w", w.ID, err)
	}
	return nil
}

// realizeStat scales a base stat linearly with level above 1.
func realizeStat(base int, perLevel float64, level int) int {
	return base + int(math.Floor(perLevel*float64(level-1)))
}

// RealizedStats returns the template's stats at the given combat level.
func (t EnemyTemplate) RealizedStats(level int) engine.EnemyStats {
	return engine.EnemyStats{
		Attack:            realizeStat(t.Attack, t.AttackPerLevel, level),
		Defense:           realizeStat(t.Defense, t.DefensePerLevel, level),
		HP:                realizeStat(t.HP, t.HPPerLevel, level),
		StyleID:           t.StyleID,
		DialogueTone:      t.DialogueTone,
		PersonalityTraits: t.PersonalityTraits,
	}
}
