package content

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type enemiesFile struct {
	Enemies []EnemyTemplate `yaml:"enemies"`
}

type tiersFile struct {
	Tiers []Tier `yaml:"tiers"`
}

type poolsFile struct {
	Pools []Pool `yaml:"pools"`
}

type weaponsFile struct {
	Weapons []Weapon `yaml:"weapons"`
}

// Catalog holds the loaded game data and implements the engine's enemy and
// pool collaborator interfaces.
type Catalog struct {
	enemies map[string]EnemyTemplate
	tiers   map[string]Tier
	weapons map[string]Weapon
	pools   []Pool
}

// Load reads enemies.yaml, tiers.yaml, pools.yaml, and weapons.yaml from
// dir, validates each entry, and cross-checks references between files.
//
// Postcondition: on success every enemy tier reference and every pool member
// reference resolves within the catalog.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{
		enemies: make(map[string]EnemyTemplate),
		tiers:   make(map[string]Tier),
		weapons: make(map[string]Weapon),
	}

	var tf tiersFile
	if err := loadFile(filepath.Join(dir, "tiers.yaml"), &tf); err != nil {
		return nil, err
	}
	for _, t := range tf.Tiers {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.tiers[t.ID]; ok {
			return nil, fmt.Errorf("content: duplicate tier id %q", t.ID)
		}
		c.tiers[t.ID] = t
	}

	var ef enemiesFile
	if err := loadFile(filepath.Join(dir, "enemies.yaml"), &ef); err != nil {
		return nil, err
	}
	for _, e := range ef.Enemies {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.enemies[e.ID]; ok {
			return nil, fmt.Errorf("content: duplicate enemy id %q", e.ID)
		}
		if _, ok := c.tiers[e.TierID]; !ok {
			return nil, fmt.Errorf("content: enemy %q references unknown tier %q", e.ID, e.TierID)
		}
		c.enemies[e.ID] = e
	}

	var pf poolsFile
	if err := loadFile(filepath.Join(dir, "pools.yaml"), &pf); err != nil {
		return nil, err
	}
	for _, p := range pf.Pools {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		for _, m := range p.Members {
			if _, ok := c.enemies[m.EnemyTypeID]; !ok {
				return nil, fmt.Errorf("content: pool %q references unknown enemy %q", p.ID, m.EnemyTypeID)
			}
		}
		c.pools = append(c.pools, p)
	}

	var wf weaponsFile
	if err := loadFile(filepath.Join(dir, "weapons.yaml"), &wf); err != nil {
		return nil, err
	}
	for _, w := range wf.Weapons {
		if err := w.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.weapons[w.ID]; ok {
			return nil, fmt.Errorf("content: duplicate weapon id %q", w.ID)
		}
		c.weapons[w.ID] = w
	}

	return c, nil
}

func loadFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("content: read %s: %w", filepath.Base(path), err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("content: parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Enemy returns the template for the given enemy type id.
func (c *Catalog) Enemy(enemyTypeID string) (EnemyTemplate, bool) {
	e, ok := c.enemies[enemyTypeID]
	return e, ok
}

// Weapon returns the weapon definition for the given weapon id.
func (c *Catalog) Weapon(weaponID string) (Weapon, bool) {
	w, ok := c.weapons[weaponID]
	return w, ok
}

// EnemyCount reports how many enemy templates were loaded.
func (c *Catalog) EnemyCount() int { return len(c.enemies) }
