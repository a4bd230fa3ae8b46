package interpretation

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

// Pattern kinds.
const (
	KindMajorDominance     = "major_dominance"
	KindSuitEnergy         = "suit_energy"
	KindRecurringNumber    = "recurring_number"
	KindSpecialPair        = "special_pair"
	KindUniformOrientation = "uniform_orientation"
	KindTimelineFlow       = "timeline_flow"
	KindElementalBalance   = "elemental_balance"
)

// timelineSlots designates the past, present and future positions of a spread.
type timelineSlots struct {
	Past, Present, Future int
}

var timelines = map[string]timelineSlots{
	"three_card":   {Past: 1, Present: 2, Future: 3},
	"five_card":    {Past: 3, Present: 1, Future: 4},
	"horseshoe":    {Past: 1, Present: 2, Future: 3},
	"celtic_cross": {Past: 4, Present: 1, Future: 6},
}

// PatternAnalyzer detects combination patterns across drawn cards.
type PatternAnalyzer struct {
	templates *Templates
}

// NewPatternAnalyzer creates an analyzer. A nil templates argument uses the
// embedded defaults.
func NewPatternAnalyzer(templates *Templates) *PatternAnalyzer {
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &PatternAnalyzer{templates: templates}
}

// Analyze evaluates every rule in a fixed order and returns the matches.
// The result is deterministic for a given input.
func (a *PatternAnalyzer) Analyze(cards []models.DrawnCard, spreadID string, topic models.Topic) ([]models.Pattern, error) {
	if len(cards) == 0 {
		return nil, apperrors.ErrNoCards
	}

	var patterns []models.Pattern
	patterns = append(patterns, a.majorDominance(cards)...)
	patterns = append(patterns, a.suitConcentration(cards, topic)...)
	patterns = append(patterns, a.recurringNumbers(cards)...)
	patterns = append(patterns, a.specialPairs(cards)...)
	patterns = append(patterns, a.uniformOrientation(cards)...)
	patterns = append(patterns, a.timelineFlow(cards, spreadID)...)
	patterns = append(patterns, a.elementalBalance(cards)...)
	return patterns, nil
}

func (a *PatternAnalyzer) majorDominance(cards []models.DrawnCard) []models.Pattern {
	var positions []int
	for _, c := range cards {
		if c.Card.IsMajor() {
			positions = append(positions, c.Position.Position)
		}
	}
	// ceil(0.6 * n) in integer arithmetic
	threshold := (6*len(cards) + 9) / 10
	if len(positions) == 0 || len(positions) < threshold {
		return nil
	}
	t := a.templates.MajorDominance
	return []models.Pattern{{
		Name: t.Name,
		Kind: KindMajorDominance,
		Description: render(t.Description,
			"count", strconv.Itoa(len(positions)),
			"total", strconv.Itoa(len(cards))),
		Positions: positions,
	}}
}

func (a *PatternAnalyzer) suitConcentration(cards []models.DrawnCard, topic models.Topic) []models.Pattern {
	bySuit := groupPositions(cards, func(c models.DrawnCard) (models.Suit, bool) {
		return c.Card.Suit, !c.Card.IsMajor() && c.Card.Suit != ""
	})

	var patterns []models.Pattern
	for _, suit := range models.Suits {
		positions := bySuit[suit]
		if len(positions) < 3 {
			continue
		}
		t, ok := a.templates.SuitEnergy[suit]
		if !ok {
			continue
		}
		patterns = append(patterns, models.Pattern{
			Name:        t.Name,
			Kind:        KindSuitEnergy,
			Description: render(t.ForTopic(topic), "count", strconv.Itoa(len(positions))),
			Positions:   positions,
		})
	}
	return patterns
}

func (a *PatternAnalyzer) recurringNumbers(cards []models.DrawnCard) []models.Pattern {
	byRank := groupPositions(cards, func(c models.DrawnCard) (int, bool) {
		return c.Card.Number, !c.Card.IsMajor()
	})

	ranks := make([]int, 0, len(byRank))
	for rank, positions := range byRank {
		if len(positions) >= 2 {
			ranks = append(ranks, rank)
		}
	}
	sort.Ints(ranks)

	t := a.templates.Recurring
	patterns := make([]models.Pattern, 0, len(ranks))
	for _, rank := range ranks {
		positions := byRank[rank]
		patterns = append(patterns, models.Pattern{
			Name: render(t.Name, "ranks", rankPlural(rank)),
			Kind: KindRecurringNumber,
			Description: render(t.Description,
				"rank", rankName(rank),
				"count", strconv.Itoa(len(positions)),
				"theme", t.Themes[rank]),
			Positions: positions,
		})
	}
	return patterns
}

func (a *PatternAnalyzer) specialPairs(cards []models.DrawnCard) []models.Pattern {
	positionOf := make(map[string]int, len(cards))
	for _, c := range cards {
		if c.Card.IsMajor() {
			positionOf[c.Card.ID] = c.Position.Position
		}
	}

	var patterns []models.Pattern
	for _, pair := range a.templates.SpecialPairs {
		first, ok1 := positionOf[pair.Cards[0]]
		second, ok2 := positionOf[pair.Cards[1]]
		if !ok1 || !ok2 {
			continue
		}
		positions := []int{first, second}
		sort.Ints(positions)
		patterns = append(patterns, models.Pattern{
			Name:        pair.Name,
			Kind:        KindSpecialPair,
			Description: pair.Description,
			Positions:   positions,
		})
	}
	return patterns
}

func (a *PatternAnalyzer) uniformOrientation(cards []models.DrawnCard) []models.Pattern {
	if len(cards) < 2 {
		return nil
	}
	first := cards[0].Orientation
	for _, c := range cards[1:] {
		if c.Orientation != first {
			return nil
		}
	}
	t, ok := a.templates.UniformOrientation[first]
	if !ok {
		return nil
	}
	return []models.Pattern{{
		Name:        t.Name,
		Kind:        KindUniformOrientation,
		Description: t.Description,
		Positions:   allPositions(cards),
	}}
}

func (a *PatternAnalyzer) timelineFlow(cards []models.DrawnCard, spreadID string) []models.Pattern {
	slots, ok := timelines[spreadID]
	if !ok {
		return nil
	}
	byPos := indexByPosition(cards)
	past, okPast := byPos[slots.Past]
	present, okPresent := byPos[slots.Present]
	future, okFuture := byPos[slots.Future]
	if !okPast || !okPresent || !okFuture {
		return nil
	}
	positions := []int{slots.Past, slots.Present, slots.Future}

	allMinor := !past.Card.IsMajor() && !present.Card.IsMajor() && !future.Card.IsMajor()
	if allMinor && past.Card.Suit == present.Card.Suit && present.Card.Suit == future.Card.Suit {
		t := a.templates.Timeline["suit_continuity"]
		name := suitName(past.Card.Suit)
		return []models.Pattern{{
			Name:        render(t.Name, "suit", name),
			Kind:        KindTimelineFlow,
			Description: render(t.Description, "suit", name),
			Positions:   positions,
		}}
	}

	var key string
	switch {
	case !past.Card.IsMajor() && future.Card.IsMajor():
		key = "escalation"
	case past.Card.IsMajor() && !future.Card.IsMajor():
		key = "deescalation"
	default:
		return nil
	}
	t, ok := a.templates.Timeline[key]
	if !ok {
		return nil
	}
	return []models.Pattern{{
		Name:        t.Name,
		Kind:        KindTimelineFlow,
		Description: t.Description,
		Positions:   positions,
	}}
}

func (a *PatternAnalyzer) elementalBalance(cards []models.DrawnCard) []models.Pattern {
	bySuit := groupPositions(cards, func(c models.DrawnCard) (models.Suit, bool) {
		return c.Card.Suit, !c.Card.IsMajor() && c.Card.Suit != ""
	})
	for _, suit := range models.Suits {
		if len(bySuit[suit]) == 0 {
			return nil
		}
	}

	var positions []int
	for _, c := range cards {
		if !c.Card.IsMajor() {
			positions = append(positions, c.Position.Position)
		}
	}
	t := a.templates.ElementalBalance
	return []models.Pattern{{
		Name:        t.Name,
		Kind:        KindElementalBalance,
		Description: t.Description,
		Positions:   positions,
	}}
}

// groupPositions buckets position numbers by key, keeping draw order within a bucket.
func groupPositions[K comparable](cards []models.DrawnCard, key func(models.DrawnCard) (K, bool)) map[K][]int {
	out := make(map[K][]int)
	for _, c := range cards {
		k, ok := key(c)
		if !ok {
			continue
		}
		out[k] = append(out[k], c.Position.Position)
	}
	return out
}

func indexByPosition(cards []models.DrawnCard) map[int]models.DrawnCard {
	out := make(map[int]models.DrawnCard, len(cards))
	for _, c := range cards {
		out[c.Position.Position] = c
	}
	return out
}

func allPositions(cards []models.DrawnCard) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = c.Position.Position
	}
	return out
}

// patternBullets renders patterns as "- Name: description" lines.
func patternBullets(patterns []models.Pattern) string {
	lines := make([]string, 0, len(patterns))
	for _, p := range patterns {
		lines = append(lines, "- "+p.Name+": "+p.Description)
	}
	return strings.Join(lines, "\n")
}
