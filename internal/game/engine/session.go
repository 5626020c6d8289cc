package engine

import (
	"time"

	"github.com/mgriffith/spindial/internal/game/dial"
)

// ActionKind distinguishes the two player actions recorded in the combat log.
type ActionKind int

const (
	ActionAttack ActionKind = iota
	ActionDefend
)

// String returns the action label used in logs and persistence.
func (a ActionKind) String() string {
	if a == ActionAttack {
		return "attack"
	}
	return "defend"
}

// Status is the lifecycle state of a combat session. Victory and Defeat are
// transient: they exist only long enough to run the reward transaction, after
// which the session record is deleted.
type Status int

const (
	StatusActive Status = iota
	StatusVictory
	StatusDefeat
)

// String returns the status label exposed to callers.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusVictory:
		return "victory"
	case StatusDefeat:
		return "defeat"
	default:
		return "unknown"
	}
}

// PlayerStats is the player's resolved combat snapshot, consumed verbatim
// from the player collaborator at session creation.
type PlayerStats struct {
	AttackPower     int `json:"attack_power"`
	AttackAccuracy  int `json:"attack_accuracy"`
	DefensePower    int `json:"defense_power"`
	DefenseAccuracy int `json:"defense_accuracy"`
	MaxHP           int `json:"max_hp"`
}

// EnemyStats is the enemy's realized combat snapshot for the chosen level.
type EnemyStats struct {
	Attack            int      `json:"attack"`
	Defense           int      `json:"defense"`
	HP                int      `json:"hp"`
	StyleID           string   `json:"style_id"`
	DialogueTone      string   `json:"dialogue_tone"`
	PersonalityTraits []string `json:"personality_traits,omitempty"`
}

// EnemyTier is a per-enemy-type difficulty multiplier set for reward scaling.
type EnemyTier struct {
	GoldMultiplier float64 `json:"gold_multiplier" yaml:"gold_multiplier"`
	XPMultiplier   float64 `json:"xp_multiplier" yaml:"xp_multiplier"`
}

// WeaponDial is a weapon's accuracy-adjusted dial configuration.
type WeaponDial struct {
	Pattern          string     `json:"pattern"`
	SpinDegPerSecond float64    `json:"spin_deg_per_second"`
	Bands            dial.Bands `json:"bands"`
}

// EquippedItem is one entry of the equipped-item snapshot kept for
// analytics and client recovery.
type EquippedItem struct {
	Slot       string `json:"slot"`
	InstanceID string `json:"instance_id"`
	ItemType   string `json:"item_type"`
	Rarity     string `json:"rarity"`
}

// LogEntry records one player action. Entries are append-only and never
// mutated after append; the log is the authoritative source of both HP values.
type LogEntry struct {
	// Turn is 1-based and monotonically increasing per session.
	Turn       int        `json:"turn"`
	Action     ActionKind `json:"action"`
	TapDegrees float64    `json:"tap_degrees"`
	Zone       dial.Zone  `json:"zone"`
	// Damage is the attack damage dealt (to the enemy, or to the player on
	// an injure roll). Zero for defend turns.
	Damage int `json:"damage"`
	// Blocked and Taken are the defend-turn mitigation figures. Zero for
	// attack turns.
	Blocked int `json:"blocked"`
	Taken   int `json:"taken"`
	// PlayerHP and EnemyHP are the resulting HP values after this turn.
	PlayerHP  int       `json:"player_hp"`
	EnemyHP   int       `json:"enemy_hp"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one live encounter. Everything except Log is immutable after
// creation; Log grows by exactly one entry per attack/defend call.
type Session struct {
	ID          string `json:"id"`
	PlayerID    string `json:"player_id"`
	LocationID  string `json:"location_id"`
	EnemyTypeID string `json:"enemy_type_id"`
	// Level is the player-chosen combat level in [1, 100]. It is not derived
	// from player power: players may pick harder fights for better rewards
	// at their own risk.
	Level int `json:"level"`

	PlayerStats PlayerStats    `json:"player_stats"`
	Equipment   []EquippedItem `json:"equipment,omitempty"`
	EnemyStats  EnemyStats     `json:"enemy_stats"`
	Dial        WeaponDial     `json:"dial"`
	// PoolIDs records the spawn/loot pools that were eligible at creation time.
	PoolIDs []string `json:"pool_ids,omitempty"`

	Log []LogEntry `json:"log"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PlayerHP returns the player's current HP: the last log entry's value, or
// max HP when no turn has been taken yet. The log stays authoritative; this
// accessor is the single place the derivation lives.
func (s *Session) PlayerHP() int {
	if len(s.Log) == 0 {
		return s.PlayerStats.MaxHP
	}
	return s.Log[len(s.Log)-1].PlayerHP
}

// EnemyHP returns the enemy's current HP, derived the same way as PlayerHP.
func (s *Session) EnemyHP() int {
	if len(s.Log) == 0 {
		return s.EnemyStats.HP
	}
	return s.Log[len(s.Log)-1].EnemyHP
}

// TurnCount returns the number of turns taken so far.
func (s *Session) TurnCount() int {
	return len(s.Log)
}

// View projects the session into the read-only shape served to clients.
func (s *Session) View() SessionView {
	return SessionView{
		ID:                s.ID,
		PlayerID:          s.PlayerID,
		LocationID:        s.LocationID,
		EnemyTypeID:       s.EnemyTypeID,
		Level:             s.Level,
		Turn:              s.TurnCount(),
		PlayerHP:          s.PlayerHP(),
		PlayerMaxHP:       s.PlayerStats.MaxHP,
		EnemyHP:           s.EnemyHP(),
		EnemyMaxHP:        s.EnemyStats.HP,
		EnemyStyleID:      s.EnemyStats.StyleID,
		DialogueTone:      s.EnemyStats.DialogueTone,
		PersonalityTraits: s.EnemyStats.PersonalityTraits,
		Dial:              s.Dial,
		CreatedAt:         s.CreatedAt,
		ExpiresAt:         s.ExpiresAt,
	}
}

// SessionView is the read-only projection of a session used by reconnecting
// clients and by collaborators needing enemy context (dialogue generation).
type SessionView struct {
	ID                string     `json:"id"`
	PlayerID          string     `json:"player_id"`
	LocationID        string     `json:"location_id"`
	EnemyTypeID       string     `json:"enemy_type_id"`
	Level             int        `json:"level"`
	Turn              int        `json:"turn"`
	PlayerHP          int        `json:"player_hp"`
	PlayerMaxHP       int        `json:"player_max_hp"`
	EnemyHP           int        `json:"enemy_hp"`
	EnemyMaxHP        int        `json:"enemy_max_hp"`
	EnemyStyleID      string     `json:"enemy_style_id"`
	DialogueTone      string     `json:"dialogue_tone,omitempty"`
	PersonalityTraits []string   `json:"personality_traits,omitempty"`
	Dial              WeaponDial `json:"dial"`
	CreatedAt         time.Time  `json:"created_at"`
	ExpiresAt         time.Time  `json:"expires_at"`
}
