package interpretation

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tarotlab/tarot-engine/pkg/models"
)

//go:embed data/templates.yaml
var templatesFS embed.FS

// Closing tone bands, selected by the share of upright cards.
const (
	BandAffirming = "affirming"
	BandBalanced  = "balanced"
	BandGrowth    = "growth"
)

// Narrative slots used by the larger spreads.
const (
	SlotCore      = "core"
	SlotChallenge = "challenge"
	SlotPast      = "past"
	SlotPresent   = "present"
	SlotFuture    = "future"
	SlotHope      = "hope"
	SlotOutcome   = "outcome"
)

// NamedText is a pattern name with its description.
type NamedText struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// SuitEnergy holds the suit pattern name and its per-topic descriptions.
type SuitEnergy struct {
	Name    string `yaml:"name"`
	General string `yaml:"general"`
	Love    string `yaml:"love"`
	Career  string `yaml:"career"`
	Finance string `yaml:"finance"`
}

// ForTopic returns the description for topic, falling back to general.
func (s SuitEnergy) ForTopic(topic models.Topic) string {
	var text string
	switch topic {
	case models.TopicLove:
		text = s.Love
	case models.TopicCareer:
		text = s.Career
	case models.TopicFinance:
		text = s.Finance
	}
	if text == "" {
		return s.General
	}
	return text
}

// SpecialPair is a notable pair of major arcana.
type SpecialPair struct {
	Cards       []string `yaml:"cards"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
}

// Recommendation is one score band.
type Recommendation struct {
	Min  int    `yaml:"min"`
	Text string `yaml:"text"`
}

// Favorable lists cards and suits that lift the score for a topic.
type Favorable struct {
	Cards []string      `yaml:"cards"`
	Suits []models.Suit `yaml:"suits"`
}

// RecurringNumber describes repeated minor arcana ranks.
type RecurringNumber struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Themes      map[int]string `yaml:"themes"`
}

// Templates is the immutable text data behind the interpreter.
type Templates struct {
	GenericMeaning     string                                   `yaml:"generic_meaning"`
	SingleFraming      map[models.Orientation]string            `yaml:"single_framing"`
	ArcanaWeight       map[models.Arcana]string                 `yaml:"arcana_weight"`
	ThreeCard          map[string]map[models.Orientation]string `yaml:"three_card"`
	Slots              map[string]string                        `yaml:"slots"`
	CardLine           string                                   `yaml:"card_line"`
	PatternsIntro      string                                   `yaml:"patterns_intro"`
	Advice             map[models.Orientation][]string          `yaml:"advice"`
	Closings           map[models.Topic]map[string]string       `yaml:"closings"`
	Recommend          []Recommendation                         `yaml:"recommendations"`
	Favorable          map[models.Topic]Favorable               `yaml:"favorable"`
	MajorDominance     NamedText                                `yaml:"major_dominance"`
	SuitEnergy         map[models.Suit]SuitEnergy               `yaml:"suit_energy"`
	Recurring          RecurringNumber                          `yaml:"recurring_number"`
	SpecialPairs       []SpecialPair                            `yaml:"special_pairs"`
	UniformOrientation map[models.Orientation]NamedText         `yaml:"uniform_orientation"`
	Timeline           map[string]NamedText                     `yaml:"timeline"`
	ElementalBalance   NamedText                                `yaml:"elemental_balance"`
}

// LoadTemplates parses and validates a templates document.
func LoadTemplates(raw []byte) (*Templates, error) {
	var t Templates
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Templates) validate() error {
	if t.GenericMeaning == "" {
		return fmt.Errorf("templates: generic_meaning is required")
	}
	for _, o := range []models.Orientation{models.Upright, models.Reversed} {
		if len(t.Advice[o]) == 0 {
			return fmt.Errorf("templates: advice for %s is empty", o)
		}
		if t.SingleFraming[o] == "" {
			return fmt.Errorf("templates: single_framing for %s is missing", o)
		}
	}
	if t.Closings[models.TopicGeneral] == nil {
		return fmt.Errorf("templates: general closings are required")
	}
	for _, band := range []string{BandAffirming, BandBalanced, BandGrowth} {
		if t.Closings[models.TopicGeneral][band] == "" {
			return fmt.Errorf("templates: general closing %q is missing", band)
		}
	}
	if len(t.Recommend) != 4 {
		return fmt.Errorf("templates: expected 4 recommendation bands, got %d", len(t.Recommend))
	}
	for i := 1; i < len(t.Recommend); i++ {
		if t.Recommend[i].Min >= t.Recommend[i-1].Min {
			return fmt.Errorf("templates: recommendation bands must be in descending order")
		}
	}
	for _, p := range t.SpecialPairs {
		if len(p.Cards) != 2 {
			return fmt.Errorf("templates: special pair %q must name two cards", p.Name)
		}
	}
	return nil
}

var (
	defaultTemplates     *Templates
	defaultTemplatesOnce sync.Once
)

// DefaultTemplates returns the embedded templates. It panics if the embedded
// document is invalid, which only a broken build can cause.
func DefaultTemplates() *Templates {
	defaultTemplatesOnce.Do(func() {
		raw, err := templatesFS.ReadFile("data/templates.yaml")
		if err != nil {
			panic(fmt.Sprintf("read embedded templates: %v", err))
		}
		t, err := LoadTemplates(raw)
		if err != nil {
			panic(err)
		}
		defaultTemplates = t
	})
	return defaultTemplates
}

// Closing returns the closing line for topic and band, falling back to general.
func (t *Templates) Closing(topic models.Topic, band string) string {
	if text := t.Closings[topic][band]; text != "" {
		return text
	}
	return t.Closings[models.TopicGeneral][band]
}

// render substitutes {key} placeholders. vars alternates keys and values.
func render(tmpl string, vars ...string) string {
	pairs := make([]string, 0, len(vars))
	for i := 0; i+1 < len(vars); i += 2 {
		pairs = append(pairs, "{"+vars[i]+"}", vars[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
