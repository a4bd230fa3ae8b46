package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

// MemoryStore backs every repository in process memory. The server uses it
// when no database is configured; tests use it as a fake.
type MemoryStore struct {
	mu       sync.RWMutex
	readings map[uuid.UUID]*models.Reading
	ratings  map[string]*models.ReadingRating // readingID|userID
	daily    map[string]*models.DailyCard     // userID|date
	events   []models.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		readings: make(map[uuid.UUID]*models.Reading),
		ratings:  make(map[string]*models.ReadingRating),
		daily:    make(map[string]*models.DailyCard),
	}
}

// clone deep-copies through JSON so callers cannot mutate stored values.
func clone[T any](v *T) (*T, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Readings returns the reading repository view of the store.
func (s *MemoryStore) Readings() ReadingRepository {
	return memoryReadings{s}
}

func (s *MemoryStore) Ratings() RatingRepository {
	return memoryRatings{s}
}

func (s *MemoryStore) DailyCards() DailyCardRepository {
	return memoryDailyCards{s}
}

func (s *MemoryStore) Events() EventRepository {
	return memoryEvents{s}
}

// RecordedEvents returns a copy of every event in insertion order.
func (s *MemoryStore) RecordedEvents() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

type memoryReadings struct{ s *MemoryStore }

func (m memoryReadings) Save(_ context.Context, reading *models.Reading) error {
	if reading.ID == uuid.Nil {
		reading.ID = uuid.New()
	}
	stored, err := clone(reading)
	if err != nil {
		return fmt.Errorf("failed to copy reading: %w", err)
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, exists := m.s.readings[reading.ID]; exists {
		return fmt.Errorf("save reading: %w", apperrors.ErrConflict)
	}
	m.s.readings[reading.ID] = stored
	return nil
}

func (m memoryReadings) GetByID(_ context.Context, id uuid.UUID) (*models.Reading, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	stored, ok := m.s.readings[id]
	if !ok {
		return nil, fmt.Errorf("get reading: %w", apperrors.ErrNotFound)
	}
	return clone(stored)
}

func (m memoryReadings) ListByUser(_ context.Context, userID string, limit int) ([]*models.Reading, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var matched []*models.Reading
	for _, r := range m.s.readings {
		if r.UserID != nil && *r.UserID == userID {
			matched = append(matched, r)
		}
	}

	slices.SortFunc(matched, func(a, b *models.Reading) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if n := normalizeLimit(limit); len(matched) > n {
		matched = matched[:n]
	}

	out := make([]*models.Reading, 0, len(matched))
	for _, r := range matched {
		cp, err := clone(r)
		if err != nil {
			return nil, fmt.Errorf("failed to copy reading: %w", err)
		}
		out = append(out, cp)
	}
	return out, nil
}

func (m memoryReadings) UpdateRating(_ context.Context, id uuid.UUID, rating int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.readings[id]
	if !ok {
		return fmt.Errorf("update reading rating: %w", apperrors.ErrNotFound)
	}
	stored.Rating = &rating
	return nil
}

type memoryRatings struct{ s *MemoryStore }

func (m memoryRatings) Save(_ context.Context, rating *models.ReadingRating) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	key := rating.ReadingID.String() + "|" + rating.UserID
	if existing, ok := m.s.ratings[key]; ok {
		rating.ID = existing.ID
	} else if rating.ID == uuid.Nil {
		rating.ID = uuid.New()
	}
	cp := *rating
	m.s.ratings[key] = &cp
	return nil
}

type memoryDailyCards struct{ s *MemoryStore }

func (m memoryDailyCards) Get(_ context.Context, userID, date string) (*models.DailyCard, error) {
	m.s.mu.RLock()
	stored, ok := m.s.daily[userID+"|"+date]
	m.s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get daily card: %w", apperrors.ErrNotFound)
	}
	return clone(stored)
}

func (m memoryDailyCards) Save(_ context.Context, card *models.DailyCard) error {
	if _, err := time.Parse(time.DateOnly, card.Date); err != nil {
		return fmt.Errorf("invalid date %q: %w", card.Date, err)
	}
	stored, err := clone(card)
	if err != nil {
		return fmt.Errorf("failed to copy daily card: %w", err)
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	key := card.UserID + "|" + card.Date
	if _, exists := m.s.daily[key]; exists {
		return fmt.Errorf("save daily card: %w", apperrors.ErrConflict)
	}
	m.s.daily[key] = stored
	return nil
}

type memoryEvents struct{ s *MemoryStore }

func (m memoryEvents) Record(_ context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.events = append(m.s.events, *event)
	return nil
}

var (
	_ ReadingRepository   = memoryReadings{}
	_ RatingRepository    = memoryRatings{}
	_ DailyCardRepository = memoryDailyCards{}
	_ EventRepository     = memoryEvents{}
)
