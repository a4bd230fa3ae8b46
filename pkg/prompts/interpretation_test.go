package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tarotlab/tarot-engine/pkg/models"
)

func testCards() []models.DrawnCard {
	return []models.DrawnCard{
		{
			Card: models.Card{
				ID: "tower", Name: "The Tower", Arcana: models.ArcanaMajor,
				Keywords: map[models.Orientation][]string{models.Reversed: {"averted disaster", "fear of change"}},
			},
			Orientation: models.Reversed,
			Position:    models.SpreadPosition{Position: 1, Name: "Past"},
		},
		{
			Card: models.Card{
				ID: "ace_of_cups", Name: "Ace of Cups", Arcana: models.ArcanaMinor, Suit: models.SuitCups,
				Keywords: map[models.Orientation][]string{models.Upright: {"new love"}},
			},
			Orientation: models.Upright,
			Position:    models.SpreadPosition{Position: 2, Name: "Present"},
		},
	}
}

func TestBuildInterpretationPrompt(t *testing.T) {
	patterns := []models.Pattern{{Name: "Rising significance", Description: "The stakes are rising."}}
	in := NewPromptInput(testCards(), patterns, models.TopicLove, "Three Card", "  Will we reconcile?  ")

	prompt := BuildInterpretationPrompt(in)

	assert.Contains(t, prompt, "Topic: love and relationships")
	assert.Contains(t, prompt, "strictly in the context of love and relationships")
	assert.Contains(t, prompt, "Do NOT bring in other life areas")
	assert.Contains(t, prompt, "1. Past: The Tower (reversed, major arcana) - averted disaster, fear of change")
	assert.Contains(t, prompt, "2. Present: Ace of Cups (upright, cups) - new love")
	assert.Contains(t, prompt, "- **Rising significance**: The stakes are rising.")
	assert.Contains(t, prompt, `The querent asks: "Will we reconcile?"`)
	assert.Contains(t, prompt, "`interpretation`")
	assert.Less(t, strings.Index(prompt, "1. Past"), strings.Index(prompt, "2. Present"))
}

func TestBuildInterpretationPrompt_OmitsEmptySections(t *testing.T) {
	in := NewPromptInput(testCards()[:1], nil, models.TopicCareer, "", "")

	prompt := BuildInterpretationPrompt(in)

	assert.NotContains(t, prompt, "## Detected Patterns")
	assert.NotContains(t, prompt, "## Question")
	assert.NotContains(t, prompt, "Spread:")
	assert.Contains(t, prompt, "career and work")
}

func TestBuildInterpretationPrompt_UnnamedPosition(t *testing.T) {
	cards := testCards()[:1]
	cards[0].Position.Name = ""

	prompt := BuildInterpretationPrompt(NewPromptInput(cards, nil, models.TopicGeneral, "", ""))

	assert.Contains(t, prompt, "1. Position 1: The Tower")
}

func TestInterpretationSystemMessage(t *testing.T) {
	assert.Contains(t, InterpretationSystemMessage(models.TopicFinance), "focused only on money and finances")
	assert.Contains(t, InterpretationSystemMessage(models.Topic("unknown")), "general life guidance")
}
