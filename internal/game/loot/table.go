package loot

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mgriffith/spindial/internal/game/rng"
)

// MaterialDrop is one crafting-material entry in an enemy's loot table.
type MaterialDrop struct {
	MaterialID string  `yaml:"material"`
	Weight     float64 `yaml:"weight"`
	// StyleID is the material's fixed visual style. Empty means the drop
	// inherits the defeated enemy's style.
	StyleID string `yaml:"style,omitempty"`
}

// ItemDrop is one equipment entry in an enemy's loot table. The rolled
// rarity comes from the table's rarity rates, not the entry itself.
type ItemDrop struct {
	ItemType string  `yaml:"item"`
	Weight   float64 `yaml:"weight"`
}

// RarityRate is a base drop rate for one rarity tier, before combat-level scaling.
type RarityRate struct {
	Rarity string  `yaml:"rarity"`
	Rate   float64 `yaml:"rate"`
}

// Table is the full loot configuration for one enemy type.
type Table struct {
	Materials []MaterialDrop `yaml:"materials"`
	Items     []ItemDrop     `yaml:"items"`
	// ItemChance is the probability in (0, 1] that a victory yields an item
	// drop at all. Zero disables item drops for this table.
	ItemChance float64      `yaml:"item_chance"`
	Rarities   []RarityRate `yaml:"rarities"`
}

// Validate checks that the loot table satisfies its invariants.
//
// Postcondition: Returns nil iff all weights and rates are > 0, ItemChance is
// in [0, 1], and rarity rates are present whenever items are. A table with no
// materials is invalid: every victory must yield at least one material drop.
func (t Table) Validate() error {
	if len(t.Materials) == 0 {
		return fmt.Errorf("loot table: must define at least one material drop")
	}
	for i, m := range t.Materials {
		if m.MaterialID == "" {
			return fmt.Errorf("loot table: materials[%d] must have a non-empty material id", i)
		}
		if m.Weight <= 0 {
			return fmt.Errorf("loot table: materials[%d] weight must be > 0, got %v", i, m.Weight)
		}
	}
	for i, it := range t.Items {
		if it.ItemType == "" {
			return fmt.Errorf("loot table: items[%d] must have a non-empty item type", i)
		}
		if it.Weight <= 0 {
			return fmt.Errorf("loot table: items[%d] weight must be > 0, got %v", i, it.Weight)
		}
	}
	if t.ItemChance < 0 || t.ItemChance > 1 {
		return fmt.Errorf("loot table: item_chance must be in [0, 1], got %v", t.ItemChance)
	}
	if len(t.Items) > 0 && len(t.Rarities) == 0 {
		return fmt.Errorf("loot table: rarities must be defined when items are present")
	}
	for i, r := range t.Rarities {
		if r.Rarity == "" {
			return fmt.Errorf("loot table: rarities[%d] must have a non-empty rarity", i)
		}
		if r.Rate <= 0 {
			return fmt.Errorf("loot table: rarities[%d] rate must be > 0, got %v", i, r.Rate)
		}
	}
	return nil
}

// MaterialResult is one dropped material with its resolved style.
type MaterialResult struct {
	MaterialID string
	StyleID    string
}

// ItemResult is one dropped item instance.
type ItemResult struct {
	InstanceID string
	ItemType   string
	Rarity     string
	StyleID    string
}

// Drops holds the generated loot from a single victory.
type Drops struct {
	Materials []MaterialResult
	Items     []ItemResult
}

// rarityLevelScale is the per-level factor applied to rarity base rates.
const rarityLevelScale = 0.05

// ScaledRarityWeights applies the combat-level scaling to the table's rarity
// base rates: rate × (1 + level × 0.05). The scaled weights feed PickIndex
// for the rarity roll.
func ScaledRarityWeights(rates []RarityRate, combatLevel int) []float64 {
	weights := make([]float64, len(rates))
	factor := 1 + float64(combatLevel)*rarityLevelScale
	for i, r := range rates {
		weights[i] = r.Rate * factor
	}
	return weights
}

// GenerateDrops rolls loot for a victory at the given combat level against an
// enemy with the given style: 1–3 weighted material drops (with replacement)
// and at most one weighted item drop gated by ItemChance. A material without
// a fixed style inherits enemyStyleID; items always inherit it.
//
// Precondition: t must have passed Validate(); src must be non-nil.
// Postcondition: Returns 1–3 materials and 0–1 items, or an error from the
// weighted selector on bad table data.
func GenerateDrops(t Table, enemyStyleID string, combatLevel int, src rng.Source) (Drops, error) {
	var drops Drops

	materialWeights := make([]float64, len(t.Materials))
	for i, m := range t.Materials {
		materialWeights[i] = m.Weight
	}
	count := 1 + src.Intn(3)
	picks, err := PickIndices(materialWeights, count, src)
	if err != nil {
		return Drops{}, fmt.Errorf("rolling material drops: %w", err)
	}
	for _, idx := range picks {
		m := t.Materials[idx]
		style := m.StyleID
		if style == "" {
			style = enemyStyleID
		}
		drops.Materials = append(drops.Materials, MaterialResult{
			MaterialID: m.MaterialID,
			StyleID:    style,
		})
	}

	if len(t.Items) > 0 && t.ItemChance > 0 && src.Float64() < t.ItemChance {
		itemWeights := make([]float64, len(t.Items))
		for i, it := range t.Items {
			itemWeights[i] = it.Weight
		}
		idx, err := PickIndex(itemWeights, src)
		if err != nil {
			return Drops{}, fmt.Errorf("rolling item drop: %w", err)
		}
		rarityIdx, err := PickIndex(ScaledRarityWeights(t.Rarities, combatLevel), src)
		if err != nil {
			return Drops{}, fmt.Errorf("rolling item rarity: %w", err)
		}
		drops.Items = append(drops.Items, ItemResult{
			InstanceID: uuid.New().String(),
			ItemType:   t.Items[idx].ItemType,
			Rarity:     t.Rarities[rarityIdx].Rarity,
			StyleID:    enemyStyleID,
		})
	}

	return drops, nil
}
