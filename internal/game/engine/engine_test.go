package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mgriffith/spindial/internal/game/dial"
	"github.com/mgriffith/spindial/internal/game/engine"
	"github.com/mgriffith/spindial/internal/game/loot"
	"github.com/mgriffith/spindial/internal/storage/memory"
)

// zeroSource makes every probabilistic choice deterministic: the first pool
// member, no crit bonus, one material drop, the first item and rarity.
type zeroSource struct{}

func (zeroSource) Intn(int) int   { return 0 }
func (zeroSource) Float64() float64 { return 0 }

type fakePlayers struct {
	stats        engine.PlayerStats
	equipment    []engine.EquippedItem
	statsErr     error
	gold, xp     int
	goldErr      error
	xpErr        error
	goldFailures int
}

func (f *fakePlayers) Stats(_ context.Context, _ string) (engine.PlayerStats, error) {
	if f.statsErr != nil {
		return engine.PlayerStats{}, f.statsErr
	}
	return f.stats, nil
}

func (f *fakePlayers) Equipment(_ context.Context, _ string) ([]engine.EquippedItem, error) {
	return f.equipment, nil
}

func (f *fakePlayers) CreditGold(_ context.Context, _ string, amount int) error {
	if f.goldFailures > 0 {
		f.goldFailures--
		return f.goldErr
	}
	f.gold += amount
	return nil
}

func (f *fakePlayers) CreditXP(_ context.Context, _ string, amount int) error {
	if f.xpErr != nil {
		return f.xpErr
	}
	f.xp += amount
	return nil
}

type fakeEnemies struct {
	stats engine.EnemyStats
	tier  engine.EnemyTier
}

func (f *fakeEnemies) RealizedStats(_ context.Context, _ string, _ int) (engine.EnemyStats, error) {
	return f.stats, nil
}

func (f *fakeEnemies) Tier(_ context.Context, _ string) (engine.EnemyTier, error) {
	return f.tier, nil
}

type fakeWeapons struct{ d engine.WeaponDial }

func (f *fakeWeapons) DialFor(_ context.Context, _ string) (engine.WeaponDial, error) {
	return f.d, nil
}

type fakePools struct {
	members []engine.PoolMember
	poolErr error
	table   loot.Table
}

func (f *fakePools) EnemyPool(_ context.Context, _ string, _ int) ([]engine.PoolMember, error) {
	if f.poolErr != nil {
		return nil, f.poolErr
	}
	return f.members, nil
}

func (f *fakePools) LootTable(_ context.Context, _ string) (loot.Table, error) {
	return f.table, nil
}

type fakeInventory struct {
	materials []loot.MaterialResult
	items     []loot.ItemResult
	addErr    error
}

func (f *fakeInventory) AddMaterials(_ context.Context, _ string, ms []loot.MaterialResult) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.materials = append(f.materials, ms...)
	return nil
}

func (f *fakeInventory) CreateItems(_ context.Context, _ string, items []loot.ItemResult) error {
	f.items = append(f.items, items...)
	return nil
}

type fakeHistory struct {
	summary engine.HistorySummary
	calls   int
}

func (f *fakeHistory) RecordOutcome(_ context.Context, _, _ string, victory bool) (engine.HistorySummary, error) {
	f.calls++
	f.summary.Attempts++
	if victory {
		f.summary.Victories++
		f.summary.CurrentStreak++
		if f.summary.CurrentStreak > f.summary.LongestStreak {
			f.summary.LongestStreak = f.summary.CurrentStreak
		}
	} else {
		f.summary.Defeats++
		f.summary.CurrentStreak = 0
	}
	return f.summary, nil
}

type harness struct {
	engine    *engine.Engine
	store     *memory.SessionStore
	players   *fakePlayers
	enemies   *fakeEnemies
	pools     *fakePools
	inventory *fakeInventory
	history   *fakeHistory
}

// wideNormal makes every tap at 50° land in the normal zone.
var wideNormal = dial.Bands{Crit: 10, Normal: 90, Graze: 100, Miss: 100, Injure: 60}

func newHarness() *harness {
	players := &fakePlayers{
		stats: engine.PlayerStats{AttackPower: 20, AttackAccuracy: 10, DefensePower: 5, DefenseAccuracy: 10, MaxHP: 100},
		equipment: []engine.EquippedItem{
			{Slot: "weapon", InstanceID: "inst-1", ItemType: "sword", Rarity: "common"},
		},
	}
	enemies := &fakeEnemies{
		stats: engine.EnemyStats{Attack: 15, Defense: 2, HP: 50, StyleID: "style-moss", DialogueTone: "gruff"},
		tier:  engine.EnemyTier{GoldMultiplier: 1.5, XPMultiplier: 2},
	}
	pools := &fakePools{
		members: []engine.PoolMember{{PoolID: "pool-wood", EnemyTypeID: "moss-golem", Weight: 1}},
		table: loot.Table{
			Materials:  []loot.MaterialDrop{{MaterialID: "moss-clump", Weight: 1}},
			Items:      []loot.ItemDrop{{ItemType: "staff", Weight: 1}},
			ItemChance: 0.5,
			Rarities:   []loot.RarityRate{{Rarity: "common", Rate: 80}, {Rarity: "rare", Rate: 20}},
		},
	}
	inventory := &fakeInventory{}
	history := &fakeHistory{}
	store := memory.NewSessionStore()

	eng := engine.NewEngine(
		store, players, enemies, &fakeWeapons{d: engine.WeaponDial{Pattern: "steady", SpinDegPerSecond: 180, Bands: wideNormal}},
		pools, inventory, history,
		zeroSource{}, zap.NewNop(), engine.DefaultSessionTTL,
	)
	return &harness{engine: eng, store: store, players: players, enemies: enemies, pools: pools, inventory: inventory, history: history}
}

func TestStart_CreatesSessionWithSnapshots(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	view, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	require.NoError(t, err)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "p1", view.PlayerID)
	assert.Equal(t, "loc-forest", view.LocationID)
	assert.Equal(t, "moss-golem", view.EnemyTypeID)
	assert.Equal(t, 5, view.Level)
	assert.Equal(t, 0, view.Turn)
	assert.Equal(t, 100, view.PlayerHP)
	assert.Equal(t, 100, view.PlayerMaxHP)
	assert.Equal(t, 50, view.EnemyHP)
	assert.Equal(t, wideNormal, view.Dial.Bands)
	assert.Equal(t, view.CreatedAt.Add(15*time.Minute), view.ExpiresAt)
}

func TestStart_InvalidLevel(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	for _, level := range []int{0, -1, 101} {
		_, err := h.engine.Start(ctx, "p1", "loc-forest", level)
		assert.ErrorIs(t, err, engine.ErrInvalidLevel, "level=%d", level)
	}
}

func TestStart_ConflictWhileSessionActive(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	_, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	require.NoError(t, err)

	// Conflict regardless of location/level arguments.
	_, err = h.engine.Start(ctx, "p1", "loc-desert", 80)
	assert.ErrorIs(t, err, engine.ErrActiveSessionExists)
}

func TestStart_EmptyPool(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.pools.members = nil

	_, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	assert.ErrorIs(t, err, engine.ErrNoEligibleEnemies)
}

func TestStart_PoolNotFoundPropagates(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.pools.poolErr = engine.ErrPoolNotFound

	_, err := h.engine.Start(ctx, "p1", "loc-nowhere", 5)
	assert.ErrorIs(t, err, engine.ErrPoolNotFound)
}

func TestStart_BadPoolWeightFailsLoudly(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.pools.members = []engine.PoolMember{{EnemyTypeID: "moss-golem", Weight: 0}}

	_, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	assert.ErrorIs(t, err, loot.ErrNonPositiveWeight)
}

func TestAttack_NormalZoneDamagesEnemyOnly(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	view, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	require.NoError(t, err)

	// 50° lands in normal; damage = max(1, 20×1.0 − 2) = 18.
	out, err := h.engine.Attack(ctx, view.ID, 50)
	require.NoError(t, err)

	assert.Equal(t, dial.ZoneNormal, out.Zone)
	assert.Equal(t, 18, out.Damage)
	assert.Equal(t, 100, out.PlayerHP)
	assert.Equal(t, 32, out.EnemyHP)
	assert.Equal(t, engine.StatusActive, out.Status)
	assert.Nil(t, out.Rewards)
}

func TestAttack_InjureDamagesAttackerNeverEnemy(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	view, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	require.NoError(t, err)

	// 350° is inside the injure arc; self-damage = max(1, floor(20 × 0.5)) = 10.
	out, err := h.engine.Attack(ctx, view.ID, 350)
	require.NoError(t, err)

	assert.Equal(t, dial.ZoneInjure, out.Zone)
	assert.Equal(t, 50, out.EnemyHP, "enemy HP untouched on injure")
	assert.Equal(t, 90, out.PlayerHP)
	assert.GreaterOrEqual(t, 100-out.PlayerHP, 1)
}

func TestAttack_InvalidTapDegrees(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	view, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	require.NoError(t, err)

	_, err = h.engine.Attack(ctx, view.ID, -1)
	assert.ErrorIs(t, err, engine.ErrInvalidTapDegrees)
	_, err = h.engine.Attack(ctx, view.ID, 360.5)
	assert.ErrorIs(t, err, engine.ErrInvalidTapDegrees)

	// Invalid input must not consume a turn.
	got, err := h.engine.Get(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Turn)
}

func TestAttack_SessionNotFound(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	_, err := h.engine.Attack(ctx, "missing", 50)
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)
}

func TestDefend_ReducesPlayerOnlyAndNeverWins(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	view, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	require.NoError(t, err)

	// base = max(1, 15 − 5) = 10; normal block: blocked 7, taken 3.
	out, err := h.engine.Defend(ctx, view.ID, 50)
	require.NoError(t, err)

	assert.Equal(t, dial.ZoneNormal, out.Zone)
	assert.Equal(t, 7, out.Blocked)
	assert.Equal(t, 3, out.Taken)
	assert.Equal(t, 97, out.PlayerHP)
	assert.Equal(t, 50, out.EnemyHP, "defend never touches enemy HP")
	assert.Equal(t, engine.StatusActive, out.Status)
}

func TestDefend_DefeatRunsCompletionWithoutRewards(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.players.stats.MaxHP = 4 // one fumbled block ends it
	view, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	require.NoError(t, err)

	// 350° fumbles the block: base 10, blocked −5, taken 15 ≥ 4 HP.
	out, err := h.engine.Defend(ctx, view.ID, 350)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusDefeat, out.Status)
	require.NotNil(t, out.Rewards)
	assert.Equal(t, engine.ResultDefeat, out.Rewards.Result)
	assert.Zero(t, out.Rewards.Gold)
	assert.Empty(t, out.Rewards.Materials)
	assert.Zero(t, out.Rewards.XP)
	assert.Equal(t, 1, out.Rewards.History.Attempts)
	assert.Equal(t, 1, out.Rewards.History.Defeats)

	_, err = h.engine.Get(ctx, view.ID)
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)
	assert.Zero(t, h.players.gold)
}

func TestFullEncounter_VictoryDistributesRewardsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	view, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	require.NoError(t, err)

	// 18 damage per normal hit against 50 HP: third hit is terminal.
	var out engine.AttackOutcome
	for i := 0; i < 3; i++ {
		out, err = h.engine.Attack(ctx, view.ID, 50)
		require.NoError(t, err)
	}

	assert.Equal(t, engine.StatusVictory, out.Status)
	assert.LessOrEqual(t, out.EnemyHP, 0)
	require.NotNil(t, out.Rewards)

	// gold = floor(10 × 5 × 1.5) = 75; xp = floor(20 × 5 × 2) = 200.
	assert.Equal(t, engine.ResultVictory, out.Rewards.Result)
	assert.Equal(t, 75, out.Rewards.Gold)
	assert.Equal(t, 200, out.Rewards.XP)
	assert.NotEmpty(t, out.Rewards.Materials)
	assert.Equal(t, 1, out.Rewards.History.Victories)
	assert.Equal(t, 1, out.Rewards.History.Attempts)

	// Rewards were applied to the collaborators.
	assert.Equal(t, 75, h.players.gold)
	assert.Equal(t, 200, h.players.xp)
	assert.NotEmpty(t, h.inventory.materials)
	assert.Equal(t, "style-moss", h.inventory.materials[0].StyleID, "material inherits enemy style")

	// The session is unreachable on any subsequent call.
	_, err = h.engine.Get(ctx, view.ID)
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)
	_, err = h.engine.Attack(ctx, view.ID, 50)
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)

	// The player slot is free again.
	_, err = h.engine.Start(ctx, "p1", "loc-forest", 5)
	assert.NoError(t, err)
}

func TestRewardFailure_LeavesSessionActiveForRetry(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.players.goldErr = errors.New("ledger unavailable")
	h.players.goldFailures = 1

	view, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	require.NoError(t, err)

	var lastErr error
	for i := 0; i < 3; i++ {
		_, lastErr = h.engine.Attack(ctx, view.ID, 50)
		if lastErr != nil {
			break
		}
	}
	require.Error(t, lastErr, "gold credit failure must propagate")

	// The session survived the failed payout.
	got, err := h.engine.Get(ctx, view.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, got.EnemyHP, 0)

	// Retrying completion succeeds and finishes the transaction.
	rewards, err := h.engine.Complete(ctx, view.ID, engine.ResultVictory)
	require.NoError(t, err)
	assert.Equal(t, 75, rewards.Gold)
	assert.Equal(t, 75, h.players.gold)

	_, err = h.engine.Get(ctx, view.ID)
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)
}

func TestComplete_SessionNotFound(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	_, err := h.engine.Complete(ctx, "missing", engine.ResultVictory)
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)
}

func TestAbandon_DeletesWithoutHistoryOrRewards(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	view, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	require.NoError(t, err)

	require.NoError(t, h.engine.Abandon(ctx, view.ID))

	_, err = h.engine.Get(ctx, view.ID)
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)
	assert.Zero(t, h.history.calls)
	assert.Zero(t, h.players.gold)

	assert.ErrorIs(t, h.engine.Abandon(ctx, view.ID), engine.ErrSessionNotFound)
}

func TestGetForRecovery_OwnershipMismatchReadsAsNotFound(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	view, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	require.NoError(t, err)

	got, err := h.engine.GetForRecovery(ctx, view.ID, "p1")
	require.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)

	_, err = h.engine.GetForRecovery(ctx, view.ID, "p2")
	assert.ErrorIs(t, err, engine.ErrSessionNotFound, "wrong owner must be indistinguishable from absence")
}

func TestGet_DerivesHPFromLog(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	view, err := h.engine.Start(ctx, "p1", "loc-forest", 5)
	require.NoError(t, err)

	_, err = h.engine.Attack(ctx, view.ID, 50)
	require.NoError(t, err)
	_, err = h.engine.Defend(ctx, view.ID, 50)
	require.NoError(t, err)

	got, err := h.engine.Get(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Turn)
	assert.Equal(t, 32, got.EnemyHP)
	assert.Equal(t, 97, got.PlayerHP)
}

func TestParseResult(t *testing.T) {
	r, err := engine.ParseResult("victory")
	require.NoError(t, err)
	assert.Equal(t, engine.ResultVictory, r)

	r, err = engine.ParseResult("defeat")
	require.NoError(t, err)
	assert.Equal(t, engine.ResultDefeat, r)

	_, err = engine.ParseResult("draw")
	assert.ErrorIs(t, err, engine.ErrInvalidResult)
}
