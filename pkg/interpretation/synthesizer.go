package interpretation

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/deck"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

// Advice selection modes.
const (
	AdviceRandom = "random"
	AdviceHash   = "hash"
)

// AdvicePicker chooses one advice line for a drawn card.
type AdvicePicker interface {
	Pick(card models.DrawnCard, options []string) string
}

// RandomPicker picks uniformly at random.
type RandomPicker struct {
	rng deck.RNG
}

// NewRandomPicker creates a picker backed by rng, or the process generator when nil.
func NewRandomPicker(rng deck.RNG) *RandomPicker {
	if rng == nil {
		rng = deck.DefaultRNG()
	}
	return &RandomPicker{rng: rng}
}

func (p *RandomPicker) Pick(_ models.DrawnCard, options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[p.rng.IntN(len(options))]
}

// HashPicker picks by an FNV-1a hash of card id and position, so the same
// card in the same position always gets the same line.
type HashPicker struct{}

func (HashPicker) Pick(card models.DrawnCard, options []string) string {
	if len(options) == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(card.Card.ID + ":" + strconv.Itoa(card.Position.Position)))
	return options[h.Sum32()%uint32(len(options))]
}

// NewAdvicePicker returns the picker for a configured mode. Unknown modes
// fall back to random selection.
func NewAdvicePicker(mode string) AdvicePicker {
	if mode == AdviceHash {
		return HashPicker{}
	}
	return NewRandomPicker(nil)
}

// slot binds a narrative slot to a spread position.
type slot struct {
	Name     string
	Position int
}

var slotTables = map[string][]slot{
	"five_card": {
		{SlotCore, 1}, {SlotChallenge, 2}, {SlotPast, 3}, {SlotFuture, 4}, {SlotOutcome, 5},
	},
	"horseshoe": {
		{SlotPast, 1}, {SlotCore, 2}, {SlotFuture, 3}, {SlotChallenge, 4}, {SlotHope, 6}, {SlotOutcome, 7},
	},
	"celtic_cross": {
		{SlotCore, 1}, {SlotChallenge, 2}, {SlotPast, 4}, {SlotFuture, 6}, {SlotHope, 9}, {SlotOutcome, 10},
	},
}

var threeCardSlots = []slot{{SlotPast, 1}, {SlotPresent, 2}, {SlotFuture, 3}}

// Synthesis is the template-only interpretation of a set of drawn cards.
type Synthesis struct {
	OverallMessage string
	PerCard        []models.PerCardInterpretation
	Patterns       []models.Pattern
}

// Synthesizer composes deterministic narrative text from drawn cards.
type Synthesizer struct {
	templates *Templates
	analyzer  *PatternAnalyzer
	picker    AdvicePicker
}

// NewSynthesizer creates a synthesizer. Nil arguments select the embedded
// templates and random advice selection.
func NewSynthesizer(templates *Templates, picker AdvicePicker) *Synthesizer {
	if templates == nil {
		templates = DefaultTemplates()
	}
	if picker == nil {
		picker = NewRandomPicker(nil)
	}
	return &Synthesizer{
		templates: templates,
		analyzer:  NewPatternAnalyzer(templates),
		picker:    picker,
	}
}

// Analyzer exposes the pattern analyzer sharing this synthesizer's templates.
func (s *Synthesizer) Analyzer() *PatternAnalyzer {
	return s.analyzer
}

// Synthesize builds per-card text and the overall message. A nil or
// malformed spread degrades to fewer clauses; it never fails.
func (s *Synthesizer) Synthesize(cards []models.DrawnCard, spread *models.Spread, topic models.Topic) (*Synthesis, error) {
	if len(cards) == 0 {
		return nil, apperrors.ErrNoCards
	}
	spreadID := ""
	if spread != nil {
		spreadID = spread.ID
	}

	perCard := make([]models.PerCardInterpretation, 0, len(cards))
	for _, c := range cards {
		perCard = append(perCard, models.PerCardInterpretation{
			Position:    c.Position.Position,
			CardID:      c.Card.ID,
			Meaning:     s.CardMeaning(c.Card, c.Orientation, topic),
			Advice:      s.picker.Pick(c, s.templates.Advice[c.Orientation]),
			Orientation: string(c.Orientation),
		})
	}

	patterns, err := s.analyzer.Analyze(cards, spreadID, topic)
	if err != nil {
		return nil, err
	}

	return &Synthesis{
		OverallMessage: s.overallMessage(cards, spreadID, topic, patterns),
		PerCard:        perCard,
		Patterns:       patterns,
	}, nil
}

// CardMeaning returns the topic meaning, the general meaning, or a generic
// sentence naming the card. The result is never empty.
func (s *Synthesizer) CardMeaning(card models.Card, o models.Orientation, topic models.Topic) string {
	if text, ok := card.Meaning(o, topic); ok {
		return text
	}
	return render(s.templates.GenericMeaning, "card", card.DisplayName(), "orientation", string(o))
}

func (s *Synthesizer) overallMessage(cards []models.DrawnCard, spreadID string, topic models.Topic, patterns []models.Pattern) string {
	if len(cards) == 1 {
		c := cards[0]
		framing := render(s.templates.SingleFraming[c.Orientation], "card", c.Card.DisplayName())
		return joinSentences(framing, s.CardMeaning(c.Card, c.Orientation, topic))
	}

	var paragraphs []string
	if narrative := s.narrative(cards, spreadID, topic); narrative != "" {
		paragraphs = append(paragraphs, narrative)
	}
	if len(patterns) > 0 {
		paragraphs = append(paragraphs, s.templates.PatternsIntro+"\n"+patternBullets(patterns))
	}
	paragraphs = append(paragraphs, s.templates.Closing(topic, closingBand(cards)))
	return strings.Join(paragraphs, "\n\n")
}

func (s *Synthesizer) narrative(cards []models.DrawnCard, spreadID string, topic models.Topic) string {
	byPos := indexByPosition(cards)

	if spreadID == "three_card" {
		var clauses []string
		for _, sl := range threeCardSlots {
			c, ok := byPos[sl.Position]
			if !ok {
				continue
			}
			tmpl := s.templates.ThreeCard[sl.Name][c.Orientation]
			if tmpl == "" {
				continue
			}
			clauses = append(clauses, render(tmpl,
				"card", c.Card.DisplayName(),
				"weight", s.templates.ArcanaWeight[c.Card.Arcana],
				"meaning", s.CardMeaning(c.Card, c.Orientation, topic)))
		}
		return strings.Join(clauses, " ")
	}

	if table, ok := slotTables[spreadID]; ok {
		var clauses []string
		for _, sl := range table {
			c, ok := byPos[sl.Position]
			if !ok {
				continue
			}
			tmpl := s.templates.Slots[sl.Name]
			if tmpl == "" {
				continue
			}
			clauses = append(clauses, render(tmpl,
				"card", c.Card.DisplayName(),
				"orientation", string(c.Orientation),
				"meaning", s.CardMeaning(c.Card, c.Orientation, topic)))
		}
		return strings.Join(clauses, " ")
	}

	lines := make([]string, 0, len(cards))
	for _, c := range cards {
		name := c.Position.Name
		if name == "" {
			name = "Position " + strconv.Itoa(c.Position.Position)
		}
		lines = append(lines, render(s.templates.CardLine,
			"position", name,
			"card", c.Card.DisplayName(),
			"orientation", string(c.Orientation),
			"meaning", s.CardMeaning(c.Card, c.Orientation, topic)))
	}
	return strings.Join(lines, "\n")
}

// closingBand maps the share of upright cards to a closing tone.
func closingBand(cards []models.DrawnCard) string {
	upright := 0
	for _, c := range cards {
		if c.IsUpright() {
			upright++
		}
	}
	ratio := float64(upright) / float64(len(cards))
	switch {
	case ratio > 0.7:
		return BandAffirming
	case ratio < 0.3:
		return BandGrowth
	default:
		return BandBalanced
	}
}

func joinSentences(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
