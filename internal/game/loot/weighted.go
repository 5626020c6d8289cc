// Package loot implements weighted random selection and drop generation for
// Spindial. One selection primitive serves enemy spawns, material drops, and
// rarity rolls.
package loot

import (
	"errors"
	"fmt"

	"github.com/mgriffith/spindial/internal/game/rng"
)

// ErrNoEntries is returned when a selection is attempted against an empty set.
var ErrNoEntries = errors.New("loot: no entries to select from")

// ErrNonPositiveWeight is returned when any entry carries a weight <= 0.
// A zero weight is a data-integrity error in the content tables, not a
// zero-probability outcome, so selection fails loudly instead of silently
// excluding the entry.
var ErrNonPositiveWeight = errors.New("loot: entry weight must be > 0")

// PickIndex selects one index from weights, with probability proportional
// to each weight: sample r uniform in [0, total), then walk the entries
// accumulating weight and return the first index whose cumulative weight
// exceeds r.
//
// Precondition: src must be non-nil.
// Postcondition: Returns an index in [0, len(weights)), or ErrNoEntries /
// ErrNonPositiveWeight.
func PickIndex(weights []float64, src rng.Source) (int, error) {
	if len(weights) == 0 {
		return 0, ErrNoEntries
	}

	var total float64
	for i, w := range weights {
		if w <= 0 {
			return 0, fmt.Errorf("%w: index %d has weight %v", ErrNonPositiveWeight, i, w)
		}
		total += w
	}

	r := src.Float64() * total
	var cumulative float64
	for i, w := range weights {
		cumulative += w
		if r < cumulative {
			return i, nil
		}
	}
	// r can equal total only through float rounding at the upper edge.
	return len(weights) - 1, nil
}

// PickIndices performs count independent with-replacement draws.
//
// Precondition: count >= 0; src must be non-nil.
// Postcondition: Returns exactly count indices, each in [0, len(weights)).
func PickIndices(weights []float64, count int, src rng.Source) ([]int, error) {
	if count < 0 {
		return nil, fmt.Errorf("loot: count must be >= 0, got %d", count)
	}
	picks := make([]int, 0, count)
	for i := 0; i < count; i++ {
		idx, err := PickIndex(weights, src)
		if err != nil {
			return nil, err
		}
		picks = append(picks, idx)
	}
	return picks, nil
}
