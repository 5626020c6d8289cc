// Package dial implements the timing-dial hit resolution for Spindial combat:
// mapping a tap position on the 360° dial to a hit zone, and turning zones
// into attack damage or defensive mitigation.
package dial

import (
	"fmt"
	"math"
)

// Zone is the discrete outcome of a timing input on the dial.
type Zone int

const (
	ZoneCrit Zone = iota
	ZoneNormal
	ZoneGraze
	ZoneMiss
	ZoneInjure
)

// String returns the zone label used in logs and API payloads.
func (z Zone) String() string {
	switch z {
	case ZoneCrit:
		return "crit"
	case ZoneNormal:
		return "normal"
	case ZoneGraze:
		return "graze"
	case ZoneMiss:
		return "miss"
	case ZoneInjure:
		return "injure"
	default:
		return "unknown"
	}
}

// bandSumEpsilon absorbs floating-point drift when accuracy adjustment
// rebalances band widths upstream.
const bandSumEpsilon = 1e-6

// Bands holds the five arc widths of a weapon's dial, in degrees.
// The arcs are laid out clockwise from 0° in the fixed order
// crit, normal, graze, miss, injure. The layout order is part of the
// client contract (the dial artwork is drawn in this order) and must
// not be reordered.
type Bands struct {
	Crit   float64 `yaml:"crit"`
	Normal float64 `yaml:"normal"`
	Graze  float64 `yaml:"graze"`
	Miss   float64 `yaml:"miss"`
	Injure float64 `yaml:"injure"`
}

// DefaultBands returns the unarmed dial used when a player has no weapon
// equipped: a sliver of crit, a thin normal arc, and wide graze/miss/injure arcs.
func DefaultBands() Bands {
	return Bands{Crit: 10, Normal: 20, Graze: 110, Miss: 110, Injure: 110}
}

// Sum returns the total width of all five arcs.
func (b Bands) Sum() float64 {
	return b.Crit + b.Normal + b.Graze + b.Miss + b.Injure
}

// Validate checks that every arc is non-negative and the arcs cover the
// full dial.
//
// Postcondition: Returns nil iff all widths are >= 0 and Sum() == 360
// within bandSumEpsilon.
func (b Bands) Validate() error {
	for _, arc := range []struct {
		name  string
		width float64
	}{
		{"crit", b.Crit},
		{"normal", b.Normal},
		{"graze", b.Graze},
		{"miss", b.Miss},
		{"injure", b.Injure},
	} {
		if arc.width < 0 {
			return fmt.Errorf("dial: %s band must be >= 0, got %v", arc.name, arc.width)
		}
	}
	if math.Abs(b.Sum()-360) > bandSumEpsilon {
		return fmt.Errorf("dial: bands must sum to 360, got %v", b.Sum())
	}
	return nil
}

// ResolveZone maps a tap position to the zone whose arc contains it.
// Arcs are consumed in the fixed order crit → normal → graze → miss →
// injure, each starting where the previous one ended. The injure arm is
// an unconditional else so that accumulated float drift in the first four
// arcs can never leave a degree unmapped.
//
// Precondition: bands must have passed Validate().
// Postcondition: Returns exactly one zone for every tapDegrees in [0, 360];
// tapDegrees outside that range is a caller error, not clamped.
func ResolveZone(tapDegrees float64, bands Bands) (Zone, error) {
	if tapDegrees < 0 || tapDegrees > 360 {
		return 0, fmt.Errorf("dial: tap degrees must be in [0, 360], got %v", tapDegrees)
	}

	upper := bands.Crit
	if tapDegrees < upper {
		return ZoneCrit, nil
	}
	upper += bands.Normal
	if tapDegrees < upper {
		return ZoneNormal, nil
	}
	upper += bands.Graze
	if tapDegrees < upper {
		return ZoneGraze, nil
	}
	upper += bands.Miss
	if tapDegrees < upper {
		return ZoneMiss, nil
	}
	return ZoneInjure, nil
}
