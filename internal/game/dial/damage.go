package dial

import (
	"math"

	"github.com/mgriffith/spindial/internal/game/rng"
)

// Attack multipliers by zone. Injure is a self-damage sentinel: the
// negative sign marks the damage as applying to the attacker, and its
// magnitude scales the attacker's own power.
const (
	critMultiplier   = 1.6
	normalMultiplier = 1.0
	grazeMultiplier  = 0.6
	missMultiplier   = 0.0
	injureMultiplier = -0.5
)

// Mitigation fractions by zone for the defend action. These are
// deliberately distinct from the attack multipliers: a crit block stops
// 90% of the hit, while a fumbled (injure) block amplifies the incoming
// damage by half — defending badly is punished harder than missing.
const (
	critMitigation   = 0.9
	normalMitigation = 0.7
	grazeMitigation  = 0.3
	missMitigation   = 0.0
	injureMitigation = -0.5
)

// AttackMultiplier returns the base damage multiplier for a zone.
func AttackMultiplier(zone Zone) float64 {
	switch zone {
	case ZoneCrit:
		return critMultiplier
	case ZoneNormal:
		return normalMultiplier
	case ZoneGraze:
		return grazeMultiplier
	case ZoneMiss:
		return missMultiplier
	default:
		return injureMultiplier
	}
}

// DamageResult holds the computed damage for one attack input, with the
// multiplier audit trail kept for the combat log.
type DamageResult struct {
	// Damage is the final damage figure, always >= 1 except for miss (0 multiplier
	// still floors to 1 — a glancing hit always costs at least a point).
	Damage int
	// Multiplier is the realized total multiplier including any crit bonus.
	Multiplier float64
	// CritBonus is the extra uniform [0,1) multiplier rolled on a crit; zero
	// for every other zone.
	CritBonus float64
	// SelfInflicted is true when the damage applies to the attacker (injure zone).
	SelfInflicted bool
}

// AttackDamage computes the damage produced by landing in zone.
//
// Crit draws an additional uniform bonus in [0, 1.0), so a realized crit
// multiplier ranges 1.6–2.6. The injure zone ignores the defender entirely
// and applies |multiplier| against the attacker's own power. Every other
// zone subtracts defenderPower after the multiplier. Damage never drops
// below 1 regardless of how lopsided the stats are.
//
// Precondition: attackerPower >= 0; defenderPower >= 0; src non-nil.
// Postcondition: result.Damage >= 1.
func AttackDamage(attackerPower, defenderPower int, zone Zone, src rng.Source) DamageResult {
	multiplier := AttackMultiplier(zone)

	var critBonus float64
	if zone == ZoneCrit {
		critBonus = src.Float64()
		multiplier += critBonus
	}

	if zone == ZoneInjure {
		dmg := int(math.Floor(float64(attackerPower) * math.Abs(multiplier)))
		if dmg < 1 {
			dmg = 1
		}
		return DamageResult{Damage: dmg, Multiplier: multiplier, SelfInflicted: true}
	}

	dmg := int(math.Floor(float64(attackerPower)*multiplier)) - defenderPower
	if dmg < 1 {
		dmg = 1
	}
	return DamageResult{Damage: dmg, Multiplier: multiplier, CritBonus: critBonus}
}

// DefenseResult holds the mitigation outcome of one defend input.
type DefenseResult struct {
	// Blocked is floor(base × mitigation). Negative on an injure-zone block,
	// representing amplification of the incoming hit.
	Blocked int
	// Taken is the damage the player actually receives, always >= 1.
	Taken int
}

// BaseEnemyDamage is the raw incoming hit before mitigation.
//
// Postcondition: Returns max(1, enemyAttackPower - playerDefensePower).
func BaseEnemyDamage(enemyAttackPower, playerDefensePower int) int {
	dmg := enemyAttackPower - playerDefensePower
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// Mitigation returns the blocked fraction for a zone on the defend action.
func Mitigation(zone Zone) float64 {
	switch zone {
	case ZoneCrit:
		return critMitigation
	case ZoneNormal:
		return normalMitigation
	case ZoneGraze:
		return grazeMitigation
	case ZoneMiss:
		return missMitigation
	default:
		return injureMitigation
	}
}

// ResolveDefense applies a zone's mitigation to an incoming hit.
//
// Precondition: baseEnemyDamage >= 1 (from BaseEnemyDamage).
// Postcondition: result.Taken >= 1; Taken == max(1, base - Blocked).
func ResolveDefense(baseEnemyDamage int, zone Zone) DefenseResult {
	blocked := int(math.Floor(float64(baseEnemyDamage) * Mitigation(zone)))
	taken := baseEnemyDamage - blocked
	if taken < 1 {
		taken = 1
	}
	return DefenseResult{Blocked: blocked, Taken: taken}
}
