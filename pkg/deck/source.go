// Package deck holds tarot card and spread reference data and the draw routine.
package deck

import (
	"context"
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tarotlab/tarot-engine/pkg/models"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Source bulk-fetches card and spread reference data.
type Source interface {
	FetchCards(ctx context.Context) ([]models.Card, error)
	FetchSpreads(ctx context.Context) ([]models.Spread, error)
}

// EmbeddedSource serves the deck compiled into the binary.
type EmbeddedSource struct{}

var _ Source = EmbeddedSource{}

// FetchCards implements Source.
func (EmbeddedSource) FetchCards(ctx context.Context) ([]models.Card, error) {
	raw, err := dataFS.ReadFile("data/cards.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded cards: %w", err)
	}
	return ParseCards(raw)
}

// FetchSpreads implements Source.
func (EmbeddedSource) FetchSpreads(ctx context.Context) ([]models.Spread, error) {
	raw, err := dataFS.ReadFile("data/spreads.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded spreads: %w", err)
	}
	return ParseSpreads(raw)
}

// ParseCards decodes a YAML document with a top-level "cards" list.
func ParseCards(raw []byte) ([]models.Card, error) {
	var doc struct {
		Cards []models.Card `yaml:"cards"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse cards: %w", err)
	}
	for i := range doc.Cards {
		if err := validateCard(&doc.Cards[i]); err != nil {
			return nil, err
		}
	}
	return doc.Cards, nil
}

// ParseSpreads decodes a YAML document with a top-level "spreads" list.
func ParseSpreads(raw []byte) ([]models.Spread, error) {
	var doc struct {
		Spreads []models.Spread `yaml:"spreads"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse spreads: %w", err)
	}
	for i := range doc.Spreads {
		if err := validateSpread(&doc.Spreads[i]); err != nil {
			return nil, err
		}
	}
	return doc.Spreads, nil
}

func validateCard(c *models.Card) error {
	if c.ID == "" {
		return fmt.Errorf("card %q has no id", c.Name)
	}
	switch c.Arcana {
	case models.ArcanaMajor:
		if c.Number < 0 || c.Number > 21 {
			return fmt.Errorf("major card %s has number %d outside 0-21", c.ID, c.Number)
		}
	case models.ArcanaMinor:
		if c.Suit.Element() == "" {
			return fmt.Errorf("minor card %s has unknown suit %q", c.ID, c.Suit)
		}
		if c.Number < 1 || c.Number > 14 {
			return fmt.Errorf("minor card %s has number %d outside 1-14", c.ID, c.Number)
		}
	default:
		return fmt.Errorf("card %s has unknown arcana %q", c.ID, c.Arcana)
	}
	return nil
}

func validateSpread(s *models.Spread) error {
	if s.ID == "" {
		return fmt.Errorf("spread %q has no id", s.Name)
	}
	if s.CardCount != len(s.Positions) {
		return fmt.Errorf("spread %s declares %d cards but %d positions", s.ID, s.CardCount, len(s.Positions))
	}
	seen := make(map[int]bool, len(s.Positions))
	for _, p := range s.Positions {
		if p.Position < 1 {
			return fmt.Errorf("spread %s has non-positive position %d", s.ID, p.Position)
		}
		if seen[p.Position] {
			return fmt.Errorf("spread %s repeats position %d", s.ID, p.Position)
		}
		seen[p.Position] = true
	}
	return nil
}
