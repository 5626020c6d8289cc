// Package dialogue generates short in-combat enemy lines from the enemy's
// dialogue tone and personality traits.
package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/mgriffith/spindial/internal/game/rng"
)

// Moment identifies where in the fight a line is spoken.
type Moment string

const (
	MomentEncounter Moment = "encounter"
	MomentPlayerHit Moment = "player_hit"
	MomentEnemyHit  Moment = "enemy_hit"
	MomentVictory   Moment = "victory"
	MomentDefeat    Moment = "defeat"
)

// Request carries the enemy context for one generated line.
type Request struct {
	EnemyTypeID       string
	Tone              string
	PersonalityTraits []string
	Moment            Moment
}

// Generator produces one enemy line per request.
type Generator interface {
	Taunt(ctx context.Context, req Request) (string, error)
}

// Client generates lines through the Anthropic Messages API.
type Client struct {
	api       anthropic.Client
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
	logger    *zap.Logger
}

var _ Generator = (*Client)(nil)

// NewClient builds a Client. The API key is read from the standard
// ANTHROPIC_API_KEY environment variable by the SDK.
//
// Precondition: model must be non-empty; maxTokens must be >= 1.
func NewClient(model string, maxTokens int, timeout time.Duration, logger *zap.Logger, opts ...option.RequestOption) *Client {
	return &Client{
		api:       anthropic.NewClient(opts...),
		model:     anthropic.Model(model),
		maxTokens: int64(maxTokens),
		timeout:   timeout,
		logger:    logger,
	}
}

// Taunt generates one line for the request.
//
// Postcondition: Returns a single non-empty line, or an error when the API
// call fails or produces no text.
func (c *Client) Taunt(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(req))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("generating taunt: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	line := strings.TrimSpace(sb.String())
	if line == "" {
		return "", fmt.Errorf("generating taunt: empty response")
	}

	c.logger.Debug("taunt generated",
		zap.String("enemy_type", req.EnemyTypeID),
		zap.String("moment", string(req.Moment)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return line, nil
}

const systemPrompt = "You voice monsters in a fast-paced mobile RPG. " +
	"Reply with exactly one short in-character line, at most fifteen words. " +
	"No quotation marks, no stage directions, no explanations."

// BuildPrompt renders the enemy context into the user prompt.
func BuildPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Enemy: %s. Tone: %s.", req.EnemyTypeID, req.Tone)
	if len(req.PersonalityTraits) > 0 {
		fmt.Fprintf(&sb, " Traits: %s.", strings.Join(req.PersonalityTraits, ", "))
	}
	switch req.Moment {
	case MomentEncounter:
		sb.WriteString(" The fight is just starting.")
	case MomentPlayerHit:
		sb.WriteString(" The enemy just landed a hit on the player.")
	case MomentEnemyHit:
		sb.WriteString(" The player just landed a hit on the enemy.")
	case MomentVictory:
		sb.WriteString(" The enemy has been defeated and speaks its last words.")
	case MomentDefeat:
		sb.WriteString(" The enemy has beaten the player and gloats.")
	}
	return sb.String()
}

// Canned is the no-API fallback generator. Lines are picked per tone from a
// fixed set so combat never blocks on dialogue.
type Canned struct {
	src rng.Source
}

var _ Generator = (*Canned)(nil)

// NewCanned builds a Canned generator drawing from src.
func NewCanned(src rng.Source) *Canned {
	return &Canned{src: src}
}

var cannedLines = map[string][]string{
	"menacing": {
		"You should not have come here.",
		"I will grind you to dust.",
		"Another one for the pile.",
	},
	"mocking": {
		"Is that really your best swing?",
		"I have been hit harder by the wind.",
		"Try again. Slower this time, for my amusement.",
	},
	"": {
		"...",
		"Grrah!",
	},
}

// Taunt returns a canned line for the request's tone.
func (c *Canned) Taunt(_ context.Context, req Request) (string, error) {
	lines, ok := cannedLines[req.Tone]
	if !ok {
		lines = cannedLines[""]
	}
	return lines[c.src.Intn(len(lines))], nil
}
