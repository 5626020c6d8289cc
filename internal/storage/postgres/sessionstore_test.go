package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgriffith/spindial/internal/game/dial"
	"github.com/mgriffith/spindial/internal/game/engine"
	"github.com/mgriffith/spindial/internal/storage/postgres"
	"github.com/mgriffith/spindial/internal/testutil"
)

func makeTestSession(playerID string, ttl time.Duration) *engine.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &engine.Session{
		ID:          uuid.New().String(),
		PlayerID:    playerID,
		LocationID:  "scrapyard",
		EnemyTypeID: "rust-golem",
		Level:       5,
		PlayerStats: engine.PlayerStats{AttackPower: 20, DefensePower: 5, MaxHP: 30},
		EnemyStats:  engine.EnemyStats{Attack: 10, Defense: 2, HP: 54, StyleID: "scrapyard"},
		Dial: engine.WeaponDial{
			Pattern:          "steady",
			SpinDegPerSecond: 180,
			Bands:            dial.DefaultBands(),
		},
		PoolIDs:   []string{"scrapyard-low"},
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	pool := testutil.NewPool(t)
	testutil.SeedPlayer(t, pool, "p1", 20, 5, 30)
	store := postgres.NewSessionStore(pool)
	ctx := context.Background()

	sess := makeTestSession("p1", time.Hour)
	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "rust-golem", got.EnemyTypeID)
	assert.Equal(t, 30, got.PlayerHP())
	assert.Equal(t, 54, got.EnemyHP())
	assert.Empty(t, got.Log)
	assert.Equal(t, []string{"scrapyard-low"}, got.PoolIDs)
}

func TestSessionStore_GetUnknown(t *testing.T) {
	pool := testutil.NewPool(t)
	store := postgres.NewSessionStore(pool)

	_, err := store.Get(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)
}

func TestSessionStore_DuplicatePlayer(t *testing.T) {
	pool := testutil.NewPool(t)
	testutil.SeedPlayer(t, pool, "p1", 20, 5, 30)
	store := postgres.NewSessionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, makeTestSession("p1", time.Hour)))

	err := store.Create(ctx, makeTestSession("p1", time.Hour))
	assert.ErrorIs(t, err, engine.ErrActiveSessionExists)
}

func TestSessionStore_ExpiredSessionFreesSlot(t *testing.T) {
	pool := testutil.NewPool(t)
	testutil.SeedPlayer(t, pool, "p1", 20, 5, 30)
	store := postgres.NewSessionStore(pool)
	ctx := context.Background()

	stale := makeTestSession("p1", -time.Minute)
	require.NoError(t, store.Create(ctx, stale))

	// expired rows read as absent
	_, err := store.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)

	// and do not block a new session for the same player
	fresh := makeTestSession("p1", time.Hour)
	require.NoError(t, store.Create(ctx, fresh))

	got, err := store.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, got.ID)
}

func TestSessionStore_AppendTurn(t *testing.T) {
	pool := testutil.NewPool(t)
	testutil.SeedPlayer(t, pool, "p1", 20, 5, 30)
	store := postgres.NewSessionStore(pool)
	ctx := context.Background()

	sess := makeTestSession("p1", time.Hour)
	require.NoError(t, store.Create(ctx, sess))

	entry := engine.LogEntry{
		Turn:       1,
		Action:     engine.ActionAttack,
		TapDegrees: 50,
		Zone:       dial.ZoneNormal,
		Damage:     18,
		PlayerHP:   30,
		EnemyHP:    36,
		Timestamp:  time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.AppendTurn(ctx, sess.ID, entry))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Log, 1)
	assert.Equal(t, 18, got.Log[0].Damage)
	assert.Equal(t, 36, got.EnemyHP())

	entry.Turn = 2
	entry.EnemyHP = 18
	require.NoError(t, store.AppendTurn(ctx, sess.ID, entry))

	got, err = store.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Log, 2)
	assert.Equal(t, 18, got.EnemyHP())
}

func TestSessionStore_AppendTurnUnknown(t *testing.T) {
	pool := testutil.NewPool(t)
	store := postgres.NewSessionStore(pool)

	err := store.AppendTurn(context.Background(), uuid.New().String(), engine.LogEntry{Turn: 1})
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	pool := testutil.NewPool(t)
	testutil.SeedPlayer(t, pool, "p1", 20, 5, 30)
	store := postgres.NewSessionStore(pool)
	ctx := context.Background()

	sess := makeTestSession("p1", time.Hour)
	require.NoError(t, store.Create(ctx, sess))

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err := store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)

	// deleting again reads as absent
	assert.ErrorIs(t, store.Delete(ctx, sess.ID), engine.ErrSessionNotFound)
}
