package dialogue_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgriffith/spindial/internal/dialogue"
)

type fixedSource struct {
	intn int
}

func (f fixedSource) Intn(int) int     { return f.intn }
func (f fixedSource) Float64() float64 { return 0 }

func TestBuildPromptIncludesContext(t *testing.T) {
	prompt := dialogue.BuildPrompt(dialogue.Request{
		EnemyTypeID:       "rust-golem",
		Tone:              "menacing",
		PersonalityTraits: []string{"slow", "relentless"},
		Moment:            dialogue.MomentPlayerHit,
	})

	assert.Contains(t, prompt, "rust-golem")
	assert.Contains(t, prompt, "menacing")
	assert.Contains(t, prompt, "slow, relentless")
	assert.Contains(t, prompt, "landed a hit on the player")
}

func TestBuildPromptOmitsEmptyTraits(t *testing.T) {
	prompt := dialogue.BuildPrompt(dialogue.Request{
		EnemyTypeID: "gear-wraith",
		Tone:        "mocking",
		Moment:      dialogue.MomentEncounter,
	})

	assert.NotContains(t, prompt, "Traits")
	assert.Contains(t, prompt, "just starting")
}

func TestCannedKnownTone(t *testing.T) {
	g := dialogue.NewCanned(fixedSource{intn: 0})
	line, err := g.Taunt(context.Background(), dialogue.Request{Tone: "menacing"})
	require.NoError(t, err)
	assert.Equal(t, "You should not have come here.", line)
}

func TestCannedUnknownToneFallsBack(t *testing.T) {
	g := dialogue.NewCanned(fixedSource{intn: 1})
	line, err := g.Taunt(context.Background(), dialogue.Request{Tone: "melancholic"})
	require.NoError(t, err)
	assert.NotEmpty(t, line)
}
