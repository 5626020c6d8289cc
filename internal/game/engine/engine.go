// Package engine implements the combat session state machine and reward
// transaction coordinator for Spindial encounters.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mgriffith/spindial/internal/game/dial"
	"github.com/mgriffith/spindial/internal/game/loot"
	"github.com/mgriffith/spindial/internal/game/rng"
)

// DefaultSessionTTL is how long a session may idle before the backing store
// expires it.
const DefaultSessionTTL = 15 * time.Minute

const (
	minCombatLevel = 1
	maxCombatLevel = 100
)

// Engine drives combat encounters from start to resolution. It holds no
// state of its own beyond its collaborators: the backing session store is
// the sole piece of shared mutable state, and serialization of concurrent
// calls against the same session id is the store's responsibility.
type Engine struct {
	store     SessionStore
	players   PlayerService
	enemies   EnemyService
	weapons   WeaponService
	pools     PoolService
	inventory InventoryService
	history   HistoryService
	src       rng.Source
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time
}

// NewEngine constructs an Engine with explicit collaborators.
//
// Precondition: all arguments must be non-nil; ttl must be > 0.
// Postcondition: Returns a non-nil Engine.
func NewEngine(
	store SessionStore,
	players PlayerService,
	enemies EnemyService,
	weapons WeaponService,
	pools PoolService,
	inventory InventoryService,
	history HistoryService,
	src rng.Source,
	logger *zap.Logger,
	ttl time.Duration,
) *Engine {
	return &Engine{
		store:     store,
		players:   players,
		enemies:   enemies,
		weapons:   weapons,
		pools:     pools,
		inventory: inventory,
		history:   history,
		src:       src,
		logger:    logger,
		ttl:       ttl,
		now:       time.Now,
	}
}

// WithClock replaces the engine's time source. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Start creates a new combat session for the player at the given location
// and player-chosen level: selects an enemy from the eligible spawn pool by
// weight, snapshots player stats, equipment, and the weapon dial, and
// persists the session with a TTL.
//
// Postcondition: Returns the initial session view, ErrInvalidLevel,
// ErrActiveSessionExists when the player already has an active session, or a
// NotFound/BusinessLogic error from the collaborators.
func (e *Engine) Start(ctx context.Context, playerID, locationID string, level int) (SessionView, error) {
	if level < minCombatLevel || level > maxCombatLevel {
		return SessionView{}, fmt.Errorf("%w: got %d", ErrInvalidLevel, level)
	}

	stats, err := e.players.Stats(ctx, playerID)
	if err != nil {
		return SessionView{}, fmt.Errorf("resolving player stats: %w", err)
	}
	equipment, err := e.players.Equipment(ctx, playerID)
	if err != nil {
		return SessionView{}, fmt.Errorf("snapshotting equipment: %w", err)
	}
	weaponDial, err := e.weapons.DialFor(ctx, playerID)
	if err != nil {
		return SessionView{}, fmt.Errorf("resolving weapon dial: %w", err)
	}
	if err := weaponDial.Bands.Validate(); err != nil {
		return SessionView{}, fmt.Errorf("weapon dial for player %q: %w", playerID, err)
	}

	members, err := e.pools.EnemyPool(ctx, locationID, level)
	if err != nil {
		return SessionView{}, fmt.Errorf("resolving spawn pool: %w", err)
	}
	if len(members) == 0 {
		return SessionView{}, fmt.Errorf("%w: location %q level %d", ErrNoEligibleEnemies, locationID, level)
	}

	weights := make([]float64, len(members))
	poolIDs := make([]string, 0, 1)
	seen := make(map[string]bool)
	for i, m := range members {
		weights[i] = m.Weight
		if m.PoolID != "" && !seen[m.PoolID] {
			seen[m.PoolID] = true
			poolIDs = append(poolIDs, m.PoolID)
		}
	}
	idx, err := loot.PickIndex(weights, e.src)
	if err != nil {
		return SessionView{}, fmt.Errorf("selecting enemy: %w", err)
	}
	enemyTypeID := members[idx].EnemyTypeID

	enemyStats, err := e.enemies.RealizedStats(ctx, enemyTypeID, level)
	if err != nil {
		return SessionView{}, fmt.Errorf("resolving enemy stats: %w", err)
	}

	created := e.now()
	sess := &Session{
		ID:          uuid.New().String(),
		PlayerID:    playerID,
		LocationID:  locationID,
		EnemyTypeID: enemyTypeID,
		Level:       level,
		PlayerStats: stats,
		Equipment:   equipment,
		EnemyStats:  enemyStats,
		Dial:        weaponDial,
		PoolIDs:     poolIDs,
		CreatedAt:   created,
		ExpiresAt:   created.Add(e.ttl),
	}

	if err := e.store.Create(ctx, sess); err != nil {
		return SessionView{}, err
	}

	e.logger.Info("combat session started",
		zap.String("session_id", sess.ID),
		zap.String("player_id", playerID),
		zap.String("location_id", locationID),
		zap.String("enemy_type_id", enemyTypeID),
		zap.Int("level", level),
	)
	return sess.View(), nil
}

// AttackOutcome is the result of one attack turn.
type AttackOutcome struct {
	Zone       dial.Zone `json:"-"`
	ZoneLabel  string    `json:"zone"`
	Damage     int       `json:"damage"`
	CritBonus  float64   `json:"crit_bonus,omitempty"`
	PlayerHP   int       `json:"player_hp"`
	EnemyHP    int       `json:"enemy_hp"`
	Status     Status    `json:"-"`
	StatusName string    `json:"status"`
	// Rewards is non-nil only when this turn ended the encounter.
	Rewards *Rewards `json:"rewards,omitempty"`
}

// Attack applies one attack turn: resolve the tap to a zone, compute damage,
// and append a log entry. An injure roll damages the attacker and never the
// enemy; the enemy never counter-attacks on an attack turn, so Defeat is
// reachable here only through self-injury. A terminal HP value hands off to
// the reward transaction before returning; a reward failure propagates and
// leaves the session active for retry.
func (e *Engine) Attack(ctx context.Context, sessionID string, tapDegrees float64) (AttackOutcome, error) {
	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return AttackOutcome{}, err
	}

	zone, err := e.resolveZone(tapDegrees, sess)
	if err != nil {
		return AttackOutcome{}, err
	}

	result := dial.AttackDamage(sess.PlayerStats.AttackPower, sess.EnemyStats.Defense, zone, e.src)

	playerHP := sess.PlayerHP()
	enemyHP := sess.EnemyHP()
	if result.SelfInflicted {
		playerHP -= result.Damage
	} else {
		enemyHP -= result.Damage
	}

	entry := LogEntry{
		Turn:       sess.TurnCount() + 1,
		Action:     ActionAttack,
		TapDegrees: tapDegrees,
		Zone:       zone,
		Damage:     result.Damage,
		PlayerHP:   playerHP,
		EnemyHP:    enemyHP,
		Timestamp:  e.now(),
	}
	if err := e.store.AppendTurn(ctx, sessionID, entry); err != nil {
		return AttackOutcome{}, fmt.Errorf("appending attack turn: %w", err)
	}
	sess.Log = append(sess.Log, entry)

	outcome := AttackOutcome{
		Zone:      zone,
		ZoneLabel: zone.String(),
		Damage:    result.Damage,
		CritBonus: result.CritBonus,
		PlayerHP:  playerHP,
		EnemyHP:   enemyHP,
		Status:    StatusActive,
	}

	switch {
	case enemyHP <= 0:
		outcome.Status = StatusVictory
	case playerHP <= 0:
		outcome.Status = StatusDefeat
	}
	if outcome.Status != StatusActive {
		rewards, err := e.complete(ctx, sess, outcome.Status == StatusVictory)
		if err != nil {
			return AttackOutcome{}, err
		}
		outcome.Rewards = rewards
	}
	outcome.StatusName = outcome.Status.String()
	return outcome, nil
}

// DefenseOutcome is the result of one defend turn.
type DefenseOutcome struct {
	Zone       dial.Zone `json:"-"`
	ZoneLabel  string    `json:"zone"`
	Blocked    int       `json:"blocked"`
	Taken      int       `json:"taken"`
	PlayerHP   int       `json:"player_hp"`
	EnemyHP    int       `json:"enemy_hp"`
	Status     Status    `json:"-"`
	StatusName string    `json:"status"`
	Rewards    *Rewards  `json:"rewards,omitempty"`
}

// Defend applies one defend turn: the enemy strikes, the tap's zone decides
// how much is blocked. Enemy HP is never affected, so a defend turn can only
// produce ongoing or Defeat, never Victory.
func (e *Engine) Defend(ctx context.Context, sessionID string, tapDegrees float64) (DefenseOutcome, error) {
	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return DefenseOutcome{}, err
	}

	zone, err := e.resolveZone(tapDegrees, sess)
	if err != nil {
		return DefenseOutcome{}, err
	}

	base := dial.BaseEnemyDamage(sess.EnemyStats.Attack, sess.PlayerStats.DefensePower)
	mitigation := dial.ResolveDefense(base, zone)

	playerHP := sess.PlayerHP() - mitigation.Taken
	enemyHP := sess.EnemyHP()

	entry := LogEntry{
		Turn:       sess.TurnCount() + 1,
		Action:     ActionDefend,
		TapDegrees: tapDegrees,
		Zone:       zone,
		Blocked:    mitigation.Blocked,
		Taken:      mitigation.Taken,
		PlayerHP:   playerHP,
		EnemyHP:    enemyHP,
		Timestamp:  e.now(),
	}
	if err := e.store.AppendTurn(ctx, sessionID, entry); err != nil {
		return DefenseOutcome{}, fmt.Errorf("appending defend turn: %w", err)
	}
	sess.Log = append(sess.Log, entry)

	outcome := DefenseOutcome{
		Zone:      zone,
		ZoneLabel: zone.String(),
		Blocked:   mitigation.Blocked,
		Taken:     mitigation.Taken,
		PlayerHP:  playerHP,
		EnemyHP:   enemyHP,
		Status:    StatusActive,
	}
	if playerHP <= 0 {
		outcome.Status = StatusDefeat
		rewards, err := e.complete(ctx, sess, false)
		if err != nil {
			return DefenseOutcome{}, err
		}
		outcome.Rewards = rewards
	}
	outcome.StatusName = outcome.Status.String()
	return outcome, nil
}

// Abandon deletes the session unconditionally: no rewards, no history update.
func (e *Engine) Abandon(ctx context.Context, sessionID string) error {
	if err := e.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	e.logger.Info("combat session abandoned", zap.String("session_id", sessionID))
	return nil
}

// Get returns the read-only projection of a session.
func (e *Engine) Get(ctx context.Context, sessionID string) (SessionView, error) {
	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return sess.View(), nil
}

// GetForRecovery is the ownership-checked variant of Get used by reconnect
// flows. A session owned by a different player reads as ErrSessionNotFound,
// deliberately indistinguishable from absence so existence never leaks.
func (e *Engine) GetForRecovery(ctx context.Context, sessionID, playerID string) (SessionView, error) {
	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if sess.PlayerID != playerID {
		return SessionView{}, ErrSessionNotFound
	}
	return sess.View(), nil
}

// resolveZone validates the tap position and maps it through the session's
// dial bands.
func (e *Engine) resolveZone(tapDegrees float64, sess *Session) (dial.Zone, error) {
	if tapDegrees < 0 || tapDegrees > 360 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidTapDegrees, tapDegrees)
	}
	zone, err := dial.ResolveZone(tapDegrees, sess.Dial.Bands)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTapDegrees, err)
	}
	return zone, nil
}
