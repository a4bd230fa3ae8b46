package interpretation

import (
	"math"
	"slices"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

const (
	successMin   = 10
	successMax   = 90
	challengeMin = 10
	challengeMax = 70

	uprightWeight  = 70.0
	majorWeight    = 15.0
	favorableBonus = 10.0
)

// Scorer derives a coarse favorability score from the orientation and
// arcana mix of a reading.
type Scorer struct {
	templates *Templates
}

// NewScorer creates a scorer. A nil templates argument uses the embedded defaults.
func NewScorer(templates *Templates) *Scorer {
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &Scorer{templates: templates}
}

// Score returns success, challenge and uncertainty values that always sum to 100.
func (s *Scorer) Score(cards []models.DrawnCard, topic models.Topic) (models.Probability, error) {
	if len(cards) == 0 {
		return models.Probability{}, apperrors.ErrNoCards
	}

	n := float64(len(cards))
	upright, majors := 0, 0
	for _, c := range cards {
		if c.IsUpright() {
			upright++
		}
		if c.Card.IsMajor() {
			majors++
		}
	}
	uprightRatio := float64(upright) / n
	majorRatio := float64(majors) / n

	raw := uprightWeight*uprightRatio + majorWeight*majorRatio
	if s.hasFavorable(cards, topic) {
		raw += favorableBonus
	}
	success := clamp(int(math.Round(raw)), successMin, successMax)
	challenge := clamp(int(math.Round(uprightWeight*(1-uprightRatio))), challengeMin, challengeMax)

	uncertainty := 100 - success - challenge
	if uncertainty < 0 {
		// Challenge gives way first, then success, keeping both within bounds where possible.
		cut := min(-uncertainty, challenge-challengeMin)
		challenge -= cut
		uncertainty += cut
		if uncertainty < 0 {
			success += uncertainty
			uncertainty = 0
		}
	}

	return models.Probability{
		SuccessProbability:   success,
		ChallengeProbability: challenge,
		UncertaintyLevel:     uncertainty,
		Recommendation:       s.recommendation(success),
	}, nil
}

func (s *Scorer) hasFavorable(cards []models.DrawnCard, topic models.Topic) bool {
	fav, ok := s.templates.Favorable[topic]
	if !ok {
		return false
	}
	for _, c := range cards {
		if slices.Contains(fav.Cards, c.Card.ID) {
			return true
		}
		if !c.Card.IsMajor() && slices.Contains(fav.Suits, c.Card.Suit) {
			return true
		}
	}
	return false
}

func (s *Scorer) recommendation(success int) string {
	for _, band := range s.templates.Recommend {
		if success >= band.Min {
			return band.Text
		}
	}
	return s.templates.Recommend[len(s.templates.Recommend)-1].Text
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
