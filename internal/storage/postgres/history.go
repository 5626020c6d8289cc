package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mgriffith/spindial/internal/game/engine"
)

// HistoryRepository persists the per (player, location) combat record.
type HistoryRepository struct {
	db *pgxpool.Pool
}

var _ engine.HistoryService = (*HistoryRepository)(nil)

// NewHistoryRepository creates a HistoryRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// RecordOutcome increments the attempt counters for the pair and updates the
// victory streak. A victory extends the current streak; a defeat resets it.
//
// Postcondition: Returns the summary after the update. The upsert is a
// single statement so concurrent completions for the same pair serialize on
// the row.
func (r *HistoryRepository) RecordOutcome(ctx context.Context, playerID, locationID string, victory bool) (engine.HistorySummary, error) {
	var summary engine.HistorySummary
	err := r.db.QueryRow(ctx,
		`INSERT INTO combat_history
		     (player_id, location_id, attempts, victories, defeats, current_streak, longest_streak)
		 VALUES ($1, $2, 1,
		         CASE WHEN $3 THEN 1 ELSE 0 END,
		         CASE WHEN $3 THEN 0 ELSE 1 END,
		         CASE WHEN $3 THEN 1 ELSE 0 END,
		         CASE WHEN $3 THEN 1 ELSE 0 END)
		 ON CONFLICT (player_id, location_id) DO UPDATE SET
		     attempts       = combat_history.attempts + 1,
		     victories      = combat_history.victories + CASE WHEN $3 THEN 1 ELSE 0 END,
		     defeats        = combat_history.defeats   + CASE WHEN $3 THEN 0 ELSE 1 END,
		     current_streak = CASE WHEN $3 THEN combat_history.current_streak + 1 ELSE 0 END,
		     longest_streak = GREATEST(combat_history.longest_streak,
		                               CASE WHEN $3 THEN combat_history.current_streak + 1 ELSE 0 END)
		 RETURNING attempts, victories, defeats, current_streak, longest_streak`,
		playerID, locationID, victory,
	).Scan(&summary.Attempts, &summary.Victories, &summary.Defeats, &summary.CurrentStreak, &summary.LongestStreak)
	if err != nil {
		return engine.HistorySummary{}, fmt.Errorf("recording combat outcome: %w", err)
	}
	return summary, nil
}
