package engine

import "errors"

// Validation errors: always caller-fixable, never retried internally.
var (
	// ErrInvalidTapDegrees is returned when a tap position lies outside [0, 360].
	ErrInvalidTapDegrees = errors.New("engine: tap degrees must be in [0, 360]")
	// ErrInvalidLevel is returned when a chosen combat level lies outside [1, 100].
	ErrInvalidLevel = errors.New("engine: combat level must be in [1, 100]")
	// ErrInvalidResult is returned when a completion result literal is neither
	// "victory" nor "defeat".
	ErrInvalidResult = errors.New("engine: result must be victory or defeat")
)

// Conflict errors.
var (
	// ErrActiveSessionExists is returned when a player starts combat while
	// already holding an active session. At most one active session per
	// player exists at any time.
	ErrActiveSessionExists = errors.New("engine: player already has an active combat session")
)

// NotFound errors. An expired session is indistinguishable from a deleted
// one: both surface ErrSessionNotFound.
var (
	ErrSessionNotFound = errors.New("engine: combat session not found")
	ErrPlayerNotFound  = errors.New("engine: player not found")
	ErrEnemyNotFound   = errors.New("engine: enemy type not found")
	ErrWeaponNotFound  = errors.New("engine: weapon not found")
	ErrPoolNotFound    = errors.New("engine: no spawn pool for location")
)

// BusinessLogic errors: bad game-data configuration, surfaced to the operator.
var (
	// ErrNoEligibleEnemies is returned when a location's spawn pool exists but
	// has no members for the requested combat level.
	ErrNoEligibleEnemies = errors.New("engine: spawn pool has no eligible enemies")
)
