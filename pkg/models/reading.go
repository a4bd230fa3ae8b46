package models

import (
	"time"

	"github.com/google/uuid"
)

// Interpretation sources recorded on a reading.
const (
	SourceTemplate = "template" // Deterministic template text
	SourceAI       = "ai"       // Fresh remote generation
	SourceCache    = "cache"    // Previously generated text served from cache
)

// PerCardInterpretation is the synthesized text for one drawn card.
type PerCardInterpretation struct {
	Position    int    `json:"position"`
	CardID      string `json:"card_id"`
	Meaning     string `json:"meaning"`
	Advice      string `json:"advice,omitempty"`
	Orientation string `json:"orientation"`
}

// Text joins the meaning and the advice line.
func (p *PerCardInterpretation) Text() string {
	if p.Advice == "" {
		return p.Meaning
	}
	return p.Meaning + " " + p.Advice
}

// DrawnCard is a card bound to an orientation and a spread position for one reading.
type DrawnCard struct {
	Card           Card                   `json:"card"`
	Orientation    Orientation            `json:"orientation"`
	Position       SpreadPosition         `json:"position"`
	Interpretation *PerCardInterpretation `json:"interpretation,omitempty"`
}

// IsUpright reports whether the card was drawn upright.
func (d *DrawnCard) IsUpright() bool {
	return d.Orientation == Upright
}

// Pattern is a structural fact detected across a set of drawn cards.
// Positions holds spread position numbers, not slice indexes.
type Pattern struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Positions   []int  `json:"positions"`
}

// Probability is the auxiliary favorability score. The three values sum to 100.
type Probability struct {
	SuccessProbability   int    `json:"success_probability"`
	ChallengeProbability int    `json:"challenge_probability"`
	UncertaintyLevel     int    `json:"uncertainty_level"`
	Recommendation       string `json:"recommendation"`
}

// Reading is the aggregate produced by one draw. It is immutable after
// creation apart from the rating.
type Reading struct {
	ID               uuid.UUID    `json:"id"`
	UserID           *string      `json:"user_id,omitempty"`
	SpreadID         string       `json:"spread_id"`
	Topic            Topic        `json:"topic"`
	Question         string       `json:"question,omitempty"`
	Cards            []DrawnCard  `json:"cards"`
	OverallMessage   string       `json:"overall_message"`
	CreatedAt        time.Time    `json:"created_at"`
	IsPremium        bool         `json:"is_premium"`
	Patterns         []Pattern    `json:"patterns,omitempty"`
	Probability      *Probability `json:"probability,omitempty"`
	AIText           string       `json:"ai_text,omitempty"`
	AICached         bool         `json:"ai_cached"`
	InterpretationID string       `json:"interpretation_id,omitempty"`
	Source           string       `json:"source"`
	Rating           *int         `json:"rating,omitempty"`
}

// ReadingRating is user feedback on a completed reading.
type ReadingRating struct {
	ID        uuid.UUID `json:"id"`
	ReadingID uuid.UUID `json:"reading_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyCard is the single card drawn for a user on a calendar day.
type DailyCard struct {
	UserID      string      `json:"user_id"`
	Date        string      `json:"date"` // YYYY-MM-DD
	Card        Card        `json:"card"`
	Orientation Orientation `json:"orientation"`
	Message     string      `json:"message"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Event names recorded to the event log.
const (
	EventReadingCreated = "reading_created"
	EventReadingRated   = "reading_rated"
	EventDailyCardDrawn = "daily_card_drawn"
	EventAIFallback     = "ai_fallback"
	EventMCPToolCall    = "mcp_tool_call"
	EventMCPToolError   = "mcp_tool_error"
)

// Event is an append-only usage record.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	UserID     *string        `json:"user_id,omitempty"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// CacheEntry is previously generated AI text stored under a request fingerprint.
type CacheEntry struct {
	Fingerprint      string    `json:"fingerprint"`
	Text             string    `json:"text"`
	InterpretationID string    `json:"interpretation_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
