package deck

import "github.com/tarotlab/tarot-engine/pkg/models"

// DefaultCards is the built-in set used when the data source is unavailable.
// It keeps the engine usable offline.
func DefaultCards() []models.Card {
	return []models.Card{
		defaultMajor("fool", "The Fool", 0, models.ElementAir,
			"A new chapter opens. Step forward with curiosity and trust that the path will reveal itself as you walk it.",
			"You may be rushing ahead without looking, or holding back out of fear. Pause and check the ground before the jump."),
		defaultMajor("magician", "The Magician", 1, models.ElementAir,
			"Everything you need is already in your hands. Focus your will and turn intention into action.",
			"Energy is scattered or talents lie unused. Watch for trickery, including the stories you tell yourself."),
		defaultMajor("high_priestess", "The High Priestess", 2, models.ElementWater,
			"Quiet your mind and listen inward. The answer you seek is known to you on a deeper level.",
			"You are tuning out your inner voice, or something is being kept from you. Make space for reflection."),
		defaultMajor("star", "The Star", 17, models.ElementAir,
			"Hope returns after difficulty. Healing and inspiration light the way ahead.",
			"Discouragement dims your light. Reconnect with what gives you hope."),
		defaultMajor("sun", "The Sun", 19, models.ElementFire,
			"Joy, success, and clarity shine on you. This is a time of warmth and achievement.",
			"Clouds briefly cover the sun. Optimism is still warranted, though delayed."),
	}
}

func defaultMajor(id, name string, number int, element models.Element, upright, reversed string) models.Card {
	return models.Card{
		ID:      id,
		Name:    name,
		Arcana:  models.ArcanaMajor,
		Number:  number,
		Element: element,
		Meanings: map[models.Orientation]map[models.Topic]string{
			models.Upright:  {models.TopicGeneral: upright},
			models.Reversed: {models.TopicGeneral: reversed},
		},
	}
}

// DefaultSpreads is the built-in spread set paired with DefaultCards.
func DefaultSpreads() []models.Spread {
	return []models.Spread{
		{
			ID:          "single",
			Name:        "Single Card",
			Description: "One card for a quick focus on the question at hand.",
			CardCount:   1,
			Positions: []models.SpreadPosition{
				{Position: 1, Name: "Focus", Description: "The heart of the matter", X: 0.5, Y: 0.5},
			},
		},
		{
			ID:          "three_card",
			Name:        "Past, Present, Future",
			Description: "A three-card timeline of how the situation developed and where it is heading.",
			CardCount:   3,
			Positions: []models.SpreadPosition{
				{Position: 1, Name: "Past", Description: "Influences that shaped the situation", X: 0.2, Y: 0.5},
				{Position: 2, Name: "Present", Description: "Where things stand now", X: 0.5, Y: 0.5},
				{Position: 3, Name: "Future", Description: "Where the current path leads", X: 0.8, Y: 0.5},
			},
		},
	}
}
