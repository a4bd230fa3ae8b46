package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

func testReading(userID string, createdAt time.Time) *models.Reading {
	return &models.Reading{
		UserID:         &userID,
		SpreadID:       "three_card",
		Topic:          models.TopicLove,
		Cards:          []models.DrawnCard{{Card: models.Card{ID: "the_fool", Name: "The Fool"}, Orientation: models.Upright, Position: models.SpreadPosition{Position: 1}}},
		OverallMessage: "message",
		CreatedAt:      createdAt,
		Source:         models.SourceTemplate,
	}
}

func TestMemoryReadings_SaveAndGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Readings()
	reading := testReading("u1", time.Now().UTC())

	require.NoError(t, repo.Save(ctx, reading))
	require.NotEqual(t, uuid.Nil, reading.ID)

	reading.OverallMessage = "mutated after save"
	got, err := repo.GetByID(ctx, reading.ID)
	require.NoError(t, err)
	assert.Equal(t, "message", got.OverallMessage)

	got.Cards[0].Card.Name = "mutated after get"
	again, err := repo.GetByID(ctx, reading.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Fool", again.Cards[0].Card.Name)
}

func TestMemoryReadings_SaveTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Readings()
	reading := testReading("u1", time.Now())

	require.NoError(t, repo.Save(ctx, reading))
	err := repo.Save(ctx, reading)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestMemoryReadings_GetMissing(t *testing.T) {
	_, err := NewMemoryStore().Readings().GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMemoryReadings_ListByUserNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Readings()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r := testReading("u1", base.Add(time.Duration(i)*time.Hour))
		r.Question = fmt.Sprintf("q%d", i)
		require.NoError(t, repo.Save(ctx, r))
	}
	require.NoError(t, repo.Save(ctx, testReading("someone-else", base)))

	got, err := repo.ListByUser(ctx, "u1", 3)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "q4", got[0].Question)
	assert.Equal(t, "q3", got[1].Question)
	assert.Equal(t, "q2", got[2].Question)
}

func TestMemoryReadings_UpdateRating(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Readings()
	reading := testReading("u1", time.Now())
	require.NoError(t, repo.Save(ctx, reading))

	require.NoError(t, repo.UpdateRating(ctx, reading.ID, 4))
	got, err := repo.GetByID(ctx, reading.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4, *got.Rating)

	assert.ErrorIs(t, repo.UpdateRating(ctx, uuid.New(), 4), apperrors.ErrNotFound)
}

func TestMemoryRatings_SecondRatingReplacesFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Ratings()
	readingID := uuid.New()

	first := &models.ReadingRating{ReadingID: readingID, UserID: "u1", Rating: 2}
	require.NoError(t, repo.Save(ctx, first))
	second := &models.ReadingRating{ReadingID: readingID, UserID: "u1", Rating: 5}
	require.NoError(t, repo.Save(ctx, second))

	assert.Equal(t, first.ID, second.ID)
}

func TestMemoryDailyCards(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().DailyCards()

	_, err := repo.Get(ctx, "u1", "2026-03-01")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	card := &models.DailyCard{UserID: "u1", Date: "2026-03-01", Card: models.Card{ID: "the_star"}, Orientation: models.Reversed}
	require.NoError(t, repo.Save(ctx, card))
	assert.ErrorIs(t, repo.Save(ctx, card), apperrors.ErrConflict)

	got, err := repo.Get(ctx, "u1", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, "the_star", got.Card.ID)
	assert.Equal(t, models.Reversed, got.Orientation)

	err = repo.Save(ctx, &models.DailyCard{UserID: "u1", Date: "March 1st"})
	assert.Error(t, err)
}

func TestMemoryEvents_RecordAssignsIdentity(t *testing.T) {
	store := NewMemoryStore()
	event := &models.Event{Name: models.EventReadingCreated}

	require.NoError(t, store.Events().Record(context.Background(), event))

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	events := store.RecordedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventReadingCreated, events[0].Name)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, defaultListLimit, normalizeLimit(0))
	assert.Equal(t, defaultListLimit, normalizeLimit(-3))
	assert.Equal(t, 7, normalizeLimit(7))
	assert.Equal(t, maxListLimit, normalizeLimit(1000))
}
