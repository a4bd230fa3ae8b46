package deck

import (
	"math/rand/v2"
	"sync"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

// RNG is the randomness a draw needs. *rand.Rand satisfies it, which lets
// tests pass a seeded generator.
type RNG interface {
	IntN(n int) int
}

type globalRNG struct{}

func (globalRNG) IntN(n int) int { return rand.IntN(n) }

// DefaultRNG uses the process-wide generator from math/rand/v2.
func DefaultRNG() RNG { return globalRNG{} }

// NewSeededRNG returns a reproducible generator that is safe to share
// between goroutines.
func NewSeededRNG(seed uint64) RNG {
	return &lockedRNG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type lockedRNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRNG) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// Draw deals len(spread.Positions) distinct cards into the spread's positions
// in declaration order, each with a uniformly random orientation.
func Draw(cards []models.Card, spread *models.Spread, rng RNG) ([]models.DrawnCard, error) {
	if rng == nil {
		rng = DefaultRNG()
	}
	n := len(spread.Positions)
	if n == 0 {
		return nil, apperrors.ErrNoCards
	}
	if len(cards) < n {
		return nil, apperrors.ErrNotEnoughCards
	}

	// Partial Fisher-Yates over an index permutation; the caller's slice is untouched.
	idx := make([]int, len(cards))
	for i := range idx {
		idx[i] = i
	}
	drawn := make([]models.DrawnCard, 0, n)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]

		orientation := models.Upright
		if rng.IntN(2) == 1 {
			orientation = models.Reversed
		}
		drawn = append(drawn, models.DrawnCard{
			Card:        cards[idx[i]],
			Orientation: orientation,
			Position:    spread.Positions[i],
		})
	}
	return drawn, nil
}

// DrawOne draws a single card with a random orientation.
func DrawOne(cards []models.Card, rng RNG) (models.DrawnCard, error) {
	single := &models.Spread{
		ID:        "single",
		CardCount: 1,
		Positions: []models.SpreadPosition{{Position: 1, Name: "Focus"}},
	}
	drawn, err := Draw(cards, single, rng)
	if err != nil {
		return models.DrawnCard{}, err
	}
	return drawn[0], nil
}

// ValidatePositions checks that every card sits in a position the spread
// declares and that no position is used twice.
func ValidatePositions(cards []models.DrawnCard, spread *models.Spread) error {
	seen := make(map[int]bool, len(cards))
	for _, c := range cards {
		if _, ok := spread.Position(c.Position.Position); !ok {
			return apperrors.ErrPositionMismatch
		}
		if seen[c.Position.Position] {
			return apperrors.ErrPositionMismatch
		}
		seen[c.Position.Position] = true
	}
	return nil
}
