package models

// SpreadPosition is one slot of a spread layout. Positions are 1-based.
type SpreadPosition struct {
	Position    int     `json:"position" yaml:"position"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	X           float64 `json:"x" yaml:"x"`
	Y           float64 `json:"y" yaml:"y"`
}

// Spread is a named layout of positions cards are dealt into.
type Spread struct {
	ID            string           `json:"id" yaml:"id"`
	Name          string           `json:"name" yaml:"name"`
	LocalizedName string           `json:"localized_name,omitempty" yaml:"localized_name,omitempty"`
	Description   string           `json:"description,omitempty" yaml:"description,omitempty"`
	CardCount     int              `json:"card_count" yaml:"card_count"`
	Positions     []SpreadPosition `json:"positions" yaml:"positions"`
	IsPremium     bool             `json:"is_premium" yaml:"is_premium"`
	Topics        []Topic          `json:"topics,omitempty" yaml:"topics,omitempty"`
}

// Position returns the declared position with the given index.
func (s *Spread) Position(n int) (SpreadPosition, bool) {
	for _, p := range s.Positions {
		if p.Position == n {
			return p, true
		}
	}
	return SpreadPosition{}, false
}

// SupportsTopic reports whether the spread may be used for topic.
// A spread with no declared topics accepts any topic.
func (s *Spread) SupportsTopic(t Topic) bool {
	if len(s.Topics) == 0 {
		return true
	}
	for _, st := range s.Topics {
		if st == t {
			return true
		}
	}
	return false
}
