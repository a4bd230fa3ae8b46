package models

import "fmt"

// Arcana classifies a card as one of the 22 major or 56 minor cards.
type Arcana string

const (
	ArcanaMajor Arcana = "major"
	ArcanaMinor Arcana = "minor"
)

// Suit applies to minor arcana only.
type Suit string

const (
	SuitWands     Suit = "wands"
	SuitCups      Suit = "cups"
	SuitSwords    Suit = "swords"
	SuitPentacles Suit = "pentacles"
)

// Suits lists the suits in their canonical evaluation order.
var Suits = []Suit{SuitWands, SuitCups, SuitSwords, SuitPentacles}

// Element returns the classical element traditionally tied to the suit.
func (s Suit) Element() Element {
	switch s {
	case SuitWands:
		return ElementFire
	case SuitCups:
		return ElementWater
	case SuitSwords:
		return ElementAir
	case SuitPentacles:
		return ElementEarth
	default:
		return ""
	}
}

// Element is the elemental association of a card.
type Element string

const (
	ElementFire  Element = "fire"
	ElementWater Element = "water"
	ElementAir   Element = "air"
	ElementEarth Element = "earth"
)

// Orientation is how a card landed when drawn.
type Orientation string

const (
	Upright  Orientation = "upright"
	Reversed Orientation = "reversed"
)

// IsValid reports whether o is a known orientation.
func (o Orientation) IsValid() bool {
	return o == Upright || o == Reversed
}

// Topic is the life area a reading is focused on.
type Topic string

const (
	TopicGeneral Topic = "general"
	TopicLove    Topic = "love"
	TopicCareer  Topic = "career"
	TopicFinance Topic = "finance"
	TopicHealth  Topic = "health"
)

// Topics lists every supported topic.
var Topics = []Topic{TopicGeneral, TopicLove, TopicCareer, TopicFinance, TopicHealth}

// ParseTopic validates a topic string. An empty string maps to the general topic.
func ParseTopic(s string) (Topic, error) {
	if s == "" {
		return TopicGeneral, nil
	}
	for _, t := range Topics {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown topic %q", s)
}

// Card is immutable reference data loaded once per process.
type Card struct {
	ID            string                           `json:"id" yaml:"id"`
	Name          string                           `json:"name" yaml:"name"`
	LocalizedName string                           `json:"localized_name,omitempty" yaml:"localized_name,omitempty"`
	Arcana        Arcana                           `json:"arcana" yaml:"arcana"`
	Suit          Suit                             `json:"suit,omitempty" yaml:"suit,omitempty"`
	Number        int                              `json:"number" yaml:"number"`
	Keywords      map[Orientation][]string         `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Meanings      map[Orientation]map[Topic]string `json:"meanings,omitempty" yaml:"meanings,omitempty"`
	Element       Element                          `json:"element,omitempty" yaml:"element,omitempty"`
	Astrology     string                           `json:"astrology,omitempty" yaml:"astrology,omitempty"`
	ImageRef      string                           `json:"image_ref,omitempty" yaml:"image_ref,omitempty"`
}

// IsMajor reports whether the card belongs to the major arcana.
func (c *Card) IsMajor() bool {
	return c.Arcana == ArcanaMajor
}

// Meaning returns the meaning text for the orientation and topic,
// falling back to the general topic. ok is false when neither exists.
func (c *Card) Meaning(o Orientation, topic Topic) (string, bool) {
	byTopic := c.Meanings[o]
	if byTopic == nil {
		return "", false
	}
	if text := byTopic[topic]; text != "" {
		return text, true
	}
	if text := byTopic[TopicGeneral]; text != "" {
		return text, true
	}
	return "", false
}

// DisplayName prefers the localized name when one is set.
func (c *Card) DisplayName() string {
	if c.LocalizedName != "" {
		return c.LocalizedName
	}
	return c.Name
}
