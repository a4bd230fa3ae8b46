package interpretation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/deck"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

func TestSynthesize_SingleUprightFool(t *testing.T) {
	cards := deal(t, "single", placed{"fool", false, 1})

	result, err := NewSynthesizer(nil, HashPicker{}).Synthesize(cards, spreadFor(t, "single"), models.TopicGeneral)
	require.NoError(t, err)

	fool, _ := loadTestDeck(t)
	meaning := fool["fool"].Meanings[models.Upright][models.TopicGeneral]
	require.NotEmpty(t, meaning)
	assert.Contains(t, result.OverallMessage, meaning)
	assert.Contains(t, result.OverallMessage, "The Fool appears upright")

	require.Len(t, result.PerCard, 1)
	assert.Equal(t, meaning, result.PerCard[0].Meaning)
	assert.Equal(t, "fool", result.PerCard[0].CardID)
	assert.Equal(t, 1, result.PerCard[0].Position)
	assert.NotEmpty(t, result.PerCard[0].Advice)
}

func TestSynthesize_ThreeCardSkeleton(t *testing.T) {
	cards := deal(t, "three_card",
		placed{"empress", false, 1},
		placed{"five_of_swords", true, 2},
		placed{"star", false, 3},
	)

	result, err := NewSynthesizer(nil, HashPicker{}).Synthesize(cards, spreadFor(t, "three_card"), models.TopicCareer)
	require.NoError(t, err)

	msg := result.OverallMessage
	assert.Contains(t, msg, "In the past, The Empress (a major life force) laid a supportive foundation.")
	assert.Contains(t, msg, "Right now, Five of Swords reversed (an everyday influence) reveals friction")
	assert.Contains(t, msg, "Ahead, The Star (a major life force) promises a constructive turn.")
	assert.Less(t, strings.Index(msg, "In the past"), strings.Index(msg, "Right now"))
	assert.Less(t, strings.Index(msg, "Right now"), strings.Index(msg, "Ahead"))
}

func TestSynthesize_ClosingBands(t *testing.T) {
	synth := NewSynthesizer(nil, HashPicker{})
	spread := spreadFor(t, "three_card")

	upright := deal(t, "three_card",
		placed{"ace_of_wands", false, 1},
		placed{"two_of_cups", false, 2},
		placed{"three_of_swords", false, 3},
	)
	result, err := synth.Synthesize(upright, spread, models.TopicCareer)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.OverallMessage, "Your work is on a rising path. Seize the opportunities in front of you."))

	reversed := deal(t, "three_card",
		placed{"ace_of_wands", true, 1},
		placed{"two_of_cups", true, 2},
		placed{"three_of_swords", true, 3},
	)
	result, err = synth.Synthesize(reversed, spread, models.TopicCareer)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.OverallMessage, "Rethink your strategy rather than your worth."))

	mixed := deal(t, "three_card",
		placed{"ace_of_wands", false, 1},
		placed{"two_of_cups", true, 2},
		placed{"three_of_swords", false, 3},
	)
	result, err = synth.Synthesize(mixed, spread, models.TopicHealth)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.OverallMessage, "listen to what your body asks for."))
}

func TestSynthesize_PatternsParagraph(t *testing.T) {
	cards := deal(t, "three_card",
		placed{"sun", false, 1},
		placed{"four_of_cups", true, 2},
		placed{"moon", false, 3},
	)

	result, err := NewSynthesizer(nil, HashPicker{}).Synthesize(cards, spreadFor(t, "three_card"), models.TopicGeneral)
	require.NoError(t, err)

	assert.Contains(t, result.OverallMessage, "Patterns in this spread:\n- Destiny turning point:")
	assert.Contains(t, result.OverallMessage, "- Light and shadow:")
	assert.NotEmpty(t, patternsOfKind(result.Patterns, KindSpecialPair))
	assert.Len(t, strings.Split(result.OverallMessage, "\n\n"), 3)
}

func TestSynthesize_SlotNarrative(t *testing.T) {
	cards := deal(t, "celtic_cross",
		placed{"chariot", false, 1},
		placed{"ten_of_wands", true, 2},
		placed{"ace_of_cups", false, 3},
		placed{"six_of_swords", false, 4},
		placed{"page_of_pentacles", false, 5},
		placed{"star", false, 6},
		placed{"strength", true, 7},
		placed{"two_of_wands", false, 8},
		placed{"nine_of_cups", false, 9},
		placed{"world", false, 10},
	)

	result, err := NewSynthesizer(nil, HashPicker{}).Synthesize(cards, spreadFor(t, "celtic_cross"), models.TopicGeneral)
	require.NoError(t, err)

	msg := result.OverallMessage
	assert.Contains(t, msg, "At the core of the matter, The Chariot appears upright.")
	assert.Contains(t, msg, "Crossing you is Ten of Wands, reversed.")
	assert.Contains(t, msg, "From the past, Six of Swords (upright) still shapes events.")
	assert.Contains(t, msg, "In the near future, The Star appears upright.")
	assert.Contains(t, msg, "Your hopes and fears are mirrored by Nine of Cups, upright.")
	assert.Contains(t, msg, "The likely outcome is The World, upright.")
	assert.Len(t, result.PerCard, 10)
}

func TestSynthesize_MalformedSpreadOmitsClauses(t *testing.T) {
	cards := deal(t, "celtic_cross",
		placed{"chariot", false, 1},
		placed{"ten_of_wands", true, 2},
		placed{"ace_of_cups", false, 3},
	)

	result, err := NewSynthesizer(nil, HashPicker{}).Synthesize(cards, spreadFor(t, "celtic_cross"), models.TopicGeneral)
	require.NoError(t, err)

	msg := result.OverallMessage
	assert.Contains(t, msg, "At the core of the matter")
	assert.Contains(t, msg, "Crossing you is")
	assert.NotContains(t, msg, "The likely outcome is")
	assert.NotContains(t, msg, "From the past")
	assert.NotEmpty(t, msg)
}

func TestSynthesize_UnknownSpreadListsCards(t *testing.T) {
	byID, _ := loadTestDeck(t)
	spread := &models.Spread{
		ID:        "custom",
		CardCount: 2,
		Positions: []models.SpreadPosition{{Position: 1, Name: "You"}, {Position: 2, Name: "Them"}},
	}
	cards := []models.DrawnCard{
		{Card: byID["lovers"], Orientation: models.Upright, Position: spread.Positions[0]},
		{Card: byID["knight_of_cups"], Orientation: models.Reversed, Position: spread.Positions[1]},
	}

	result, err := NewSynthesizer(nil, HashPicker{}).Synthesize(cards, spread, models.TopicLove)
	require.NoError(t, err)

	assert.Contains(t, result.OverallMessage, "You: The Lovers, upright.")
	assert.Contains(t, result.OverallMessage, "Them: Knight of Cups, reversed.")
}

func TestSynthesize_NilSpread(t *testing.T) {
	cards := deal(t, "three_card",
		placed{"hermit", false, 1},
		placed{"ace_of_pentacles", false, 2},
	)

	result, err := NewSynthesizer(nil, nil).Synthesize(cards, nil, models.TopicFinance)
	require.NoError(t, err)
	assert.NotEmpty(t, result.OverallMessage)
}

func TestSynthesize_EveryCardEveryTopicNonEmpty(t *testing.T) {
	byID, _ := loadTestDeck(t)
	synth := NewSynthesizer(nil, HashPicker{})
	single := spreadFor(t, "single")

	for _, card := range byID {
		for _, o := range []models.Orientation{models.Upright, models.Reversed} {
			for _, topic := range models.Topics {
				drawn := []models.DrawnCard{{Card: card, Orientation: o, Position: single.Positions[0]}}
				result, err := synth.Synthesize(drawn, single, topic)
				require.NoError(t, err)
				assert.NotEmpty(t, result.OverallMessage, "%s %s %s", card.ID, o, topic)
				require.Len(t, result.PerCard, 1)
				assert.NotEmpty(t, result.PerCard[0].Meaning, "%s %s %s", card.ID, o, topic)
			}
		}
	}
}

func TestSynthesize_TopicFallsBackToGeneral(t *testing.T) {
	cards := deal(t, "single", placed{"three_of_wands", true, 1})
	byID, _ := loadTestDeck(t)
	general := byID["three_of_wands"].Meanings[models.Reversed][models.TopicGeneral]

	result, err := NewSynthesizer(nil, HashPicker{}).Synthesize(cards, spreadFor(t, "single"), models.TopicHealth)
	require.NoError(t, err)
	assert.Equal(t, general, result.PerCard[0].Meaning)
}

func TestSynthesize_GenericMeaningWhenCardHasNoText(t *testing.T) {
	blank := models.Card{ID: "blank", Name: "The Blank", Arcana: models.ArcanaMajor}
	cards := []models.DrawnCard{{Card: blank, Orientation: models.Reversed, Position: models.SpreadPosition{Position: 1}}}

	result, err := NewSynthesizer(nil, HashPicker{}).Synthesize(cards, nil, models.TopicLove)
	require.NoError(t, err)
	assert.Equal(t, "The Blank appears reversed. Reflect on how its energy touches your situation.", result.PerCard[0].Meaning)
}

func TestSynthesize_HashPickerIsReproducible(t *testing.T) {
	cards := deal(t, "horseshoe",
		placed{"magician", false, 1},
		placed{"two_of_pentacles", true, 2},
		placed{"queen_of_cups", false, 3},
		placed{"five_of_wands", true, 4},
		placed{"justice", false, 5},
		placed{"six_of_cups", false, 6},
		placed{"ace_of_swords", true, 7},
	)
	spread := spreadFor(t, "horseshoe")

	first, err := NewSynthesizer(nil, HashPicker{}).Synthesize(cards, spread, models.TopicLove)
	require.NoError(t, err)
	second, err := NewSynthesizer(nil, HashPicker{}).Synthesize(cards, spread, models.TopicLove)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSynthesize_RandomPickerKeepsMeaningsStable(t *testing.T) {
	cards := deal(t, "three_card",
		placed{"death", true, 1},
		placed{"ace_of_cups", false, 2},
		placed{"judgement", false, 3},
	)
	spread := spreadFor(t, "three_card")
	templates := DefaultTemplates()

	first, err := NewSynthesizer(nil, NewRandomPicker(deck.NewSeededRNG(1))).Synthesize(cards, spread, models.TopicGeneral)
	require.NoError(t, err)
	second, err := NewSynthesizer(nil, NewRandomPicker(deck.NewSeededRNG(99))).Synthesize(cards, spread, models.TopicGeneral)
	require.NoError(t, err)

	assert.Equal(t, first.OverallMessage, second.OverallMessage)
	for i := range first.PerCard {
		assert.Equal(t, first.PerCard[i].Meaning, second.PerCard[i].Meaning)
		o := models.Orientation(first.PerCard[i].Orientation)
		assert.Contains(t, templates.Advice[o], first.PerCard[i].Advice)
		assert.Contains(t, templates.Advice[o], second.PerCard[i].Advice)
	}
}

func TestSynthesize_NoCards(t *testing.T) {
	_, err := NewSynthesizer(nil, nil).Synthesize(nil, spreadFor(t, "single"), models.TopicGeneral)
	assert.ErrorIs(t, err, apperrors.ErrNoCards)
}

func TestHashPicker_EmptyOptions(t *testing.T) {
	assert.Equal(t, "", HashPicker{}.Pick(models.DrawnCard{}, nil))
}

func TestNewAdvicePicker(t *testing.T) {
	assert.IsType(t, HashPicker{}, NewAdvicePicker(AdviceHash))
	assert.IsType(t, &RandomPicker{}, NewAdvicePicker(AdviceRandom))
	assert.IsType(t, &RandomPicker{}, NewAdvicePicker("unknown"))
}
