package interpretation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tarotlab/tarot-engine/pkg/deck"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

var (
	testDeck     map[string]models.Card
	testSpreads  map[string]models.Spread
	testDeckErr  error
	testDeckOnce sync.Once
)

func loadTestDeck(t *testing.T) (map[string]models.Card, map[string]models.Spread) {
	t.Helper()
	testDeckOnce.Do(func() {
		ctx := context.Background()
		cards, err := deck.EmbeddedSource{}.FetchCards(ctx)
		if err != nil {
			testDeckErr = err
			return
		}
		spreads, err := deck.EmbeddedSource{}.FetchSpreads(ctx)
		if err != nil {
			testDeckErr = err
			return
		}
		testDeck = make(map[string]models.Card, len(cards))
		for _, c := range cards {
			testDeck[c.ID] = c
		}
		testSpreads = make(map[string]models.Spread, len(spreads))
		for _, s := range spreads {
			testSpreads[s.ID] = s
		}
	})
	require.NoError(t, testDeckErr)
	return testDeck, testSpreads
}

// placed describes one card for deal: id, orientation, position.
type placed struct {
	id       string
	reversed bool
	position int
}

// deal binds cards to positions of spreadID, in the order given.
func deal(t *testing.T, spreadID string, cards ...placed) []models.DrawnCard {
	t.Helper()
	byID, spreads := loadTestDeck(t)
	spread := spreads[spreadID]

	out := make([]models.DrawnCard, 0, len(cards))
	for _, p := range cards {
		card, ok := byID[p.id]
		require.True(t, ok, "unknown card %s", p.id)
		pos, ok := spread.Position(p.position)
		if !ok {
			pos = models.SpreadPosition{Position: p.position}
		}
		o := models.Upright
		if p.reversed {
			o = models.Reversed
		}
		out = append(out, models.DrawnCard{Card: card, Orientation: o, Position: pos})
	}
	return out
}

func spreadFor(t *testing.T, id string) *models.Spread {
	t.Helper()
	_, spreads := loadTestDeck(t)
	s, ok := spreads[id]
	require.True(t, ok, "unknown spread %s", id)
	return &s
}

func patternsOfKind(patterns []models.Pattern, kind string) []models.Pattern {
	var out []models.Pattern
	for _, p := range patterns {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}
