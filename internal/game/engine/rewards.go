package engine

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/mgriffith/spindial/internal/game/loot"
)

// Reward scaling constants. Gold and XP grow linearly with the chosen combat
// level, multiplied by the enemy tier.
const (
	goldPerLevel = 10
	xpPerLevel   = 20
)

// Result is a terminal encounter outcome.
type Result int

const (
	ResultVictory Result = iota
	ResultDefeat
)

// String returns the result literal used on the wire.
func (r Result) String() string {
	if r == ResultVictory {
		return "victory"
	}
	return "defeat"
}

// ParseResult parses a result literal.
//
// Postcondition: Returns ErrInvalidResult for anything other than
// "victory" or "defeat".
func ParseResult(s string) (Result, error) {
	switch s {
	case "victory":
		return ResultVictory, nil
	case "defeat":
		return ResultDefeat, nil
	default:
		return 0, fmt.Errorf("%w: got %q", ErrInvalidResult, s)
	}
}

// Rewards is the completion payload. Result tags which fields are populated:
// Gold, Materials, Items, and XP are set only on victory; History is always
// present.
type Rewards struct {
	Result     Result                `json:"-"`
	ResultName string                `json:"result"`
	Gold       int                   `json:"gold,omitempty"`
	Materials  []loot.MaterialResult `json:"materials,omitempty"`
	Items      []loot.ItemResult     `json:"items,omitempty"`
	XP         int                   `json:"xp,omitempty"`
	History    HistorySummary        `json:"history"`
}

// Complete is the public re-entry point for finishing an encounter whose
// outcome the caller already knows: it reloads the session and runs the same
// completion path the attack/defend terminal transitions use, so a caller
// retrying after a reward failure gets identical behavior.
func (e *Engine) Complete(ctx context.Context, sessionID string, result Result) (*Rewards, error) {
	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return e.complete(ctx, sess, result == ResultVictory)
}

// complete runs the reward transaction for a terminal session: update the
// combat history, compute victory rewards, and apply them via applyRewards.
// If anything fails before the final delete the session remains active so
// the exact same completion call can be retried.
func (e *Engine) complete(ctx context.Context, sess *Session, victory bool) (*Rewards, error) {
	history, err := e.history.RecordOutcome(ctx, sess.PlayerID, sess.LocationID, victory)
	if err != nil {
		return nil, fmt.Errorf("recording combat history: %w", err)
	}

	if !victory {
		if err := e.store.Delete(ctx, sess.ID); err != nil {
			return nil, fmt.Errorf("deleting defeated session: %w", err)
		}
		e.logger.Info("combat session completed",
			zap.String("session_id", sess.ID),
			zap.String("result", ResultDefeat.String()),
		)
		return &Rewards{Result: ResultDefeat, ResultName: ResultDefeat.String(), History: history}, nil
	}

	tier, err := e.enemies.Tier(ctx, sess.EnemyTypeID)
	if err != nil {
		return nil, fmt.Errorf("resolving enemy tier: %w", err)
	}
	table, err := e.pools.LootTable(ctx, sess.EnemyTypeID)
	if err != nil {
		return nil, fmt.Errorf("resolving loot table: %w", err)
	}
	drops, err := loot.GenerateDrops(table, sess.EnemyStats.StyleID, sess.Level, e.src)
	if err != nil {
		return nil, fmt.Errorf("generating drops: %w", err)
	}

	rewards := &Rewards{
		Result:     ResultVictory,
		ResultName: ResultVictory.String(),
		Gold:       int(math.Floor(goldPerLevel * float64(sess.Level) * tier.GoldMultiplier)),
		Materials:  drops.Materials,
		Items:      drops.Items,
		XP:         int(math.Floor(xpPerLevel * float64(sess.Level) * tier.XPMultiplier)),
		History:    history,
	}

	if err := e.applyRewards(ctx, sess, rewards); err != nil {
		return nil, err
	}

	e.logger.Info("combat session completed",
		zap.String("session_id", sess.ID),
		zap.String("result", ResultVictory.String()),
		zap.Int("gold", rewards.Gold),
		zap.Int("xp", rewards.XP),
		zap.Int("materials", len(rewards.Materials)),
		zap.Int("items", len(rewards.Items)),
	)
	return rewards, nil
}

// applyRewards applies a victory payout as one ordered unit:
// gold, then materials, then items, then XP, then the session delete.
// The order is load-bearing for partial-failure reasoning: the delete is
// deliberately last, so a failure at any earlier step leaves the session
// active and the caller can retry completion without losing the payout.
// Do not reorder these steps.
func (e *Engine) applyRewards(ctx context.Context, sess *Session, rewards *Rewards) error {
	if rewards.Gold > 0 {
		if err := e.players.CreditGold(ctx, sess.PlayerID, rewards.Gold); err != nil {
			return fmt.Errorf("crediting gold: %w", err)
		}
	}
	if len(rewards.Materials) > 0 {
		if err := e.inventory.AddMaterials(ctx, sess.PlayerID, rewards.Materials); err != nil {
			return fmt.Errorf("adding materials: %w", err)
		}
	}
	if len(rewards.Items) > 0 {
		if err := e.inventory.CreateItems(ctx, sess.PlayerID, rewards.Items); err != nil {
			return fmt.Errorf("creating items: %w", err)
		}
	}
	if rewards.XP > 0 {
		if err := e.players.CreditXP(ctx, sess.PlayerID, rewards.XP); err != nil {
			return fmt.Errorf("crediting xp: %w", err)
		}
	}
	if err := e.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("deleting completed session: %w", err)
	}
	return nil
}
