//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/deck"
	"github.com/tarotlab/tarot-engine/pkg/models"
	"github.com/tarotlab/tarot-engine/pkg/testhelpers"
)

func setupRepoTest(t *testing.T) *testhelpers.TestDB {
	t.Helper()
	testDB := testhelpers.GetTestDB(t)
	testDB.Truncate(t, "reading_ratings", "readings", "daily_cards", "events", "cards", "spreads")
	return testDB
}

func TestReadingRepository_RoundTrip(t *testing.T) {
	testDB := setupRepoTest(t)
	ctx := context.Background()
	repo := NewReadingRepository(testDB.DB)

	created := time.Now().UTC().Truncate(time.Microsecond)
	reading := testReading("user-1", created)
	reading.Question = "Should I move?"
	reading.Patterns = []models.Pattern{{Name: "Major Arcana Dominance", Kind: "major_dominance", Positions: []int{1}}}
	reading.Probability = &models.Probability{SuccessProbability: 60, ChallengeProbability: 25, UncertaintyLevel: 15, Recommendation: "go"}
	reading.AIText = "ai text"
	reading.InterpretationID = uuid.NewString()
	reading.Source = models.SourceAI
	reading.IsPremium = true

	require.NoError(t, repo.Save(ctx, reading))

	got, err := repo.GetByID(ctx, reading.ID)
	require.NoError(t, err)
	assert.Equal(t, reading.ID, got.ID)
	assert.Equal(t, "user-1", *got.UserID)
	assert.Equal(t, models.TopicLove, got.Topic)
	assert.Equal(t, "Should I move?", got.Question)
	assert.Equal(t, reading.Cards, got.Cards)
	assert.Equal(t, reading.Patterns, got.Patterns)
	assert.Equal(t, reading.Probability, got.Probability)
	assert.Equal(t, models.SourceAI, got.Source)
	assert.True(t, got.IsPremium)
	assert.Nil(t, got.Rating)
	assert.WithinDuration(t, created, got.CreatedAt, time.Millisecond)

	assert.ErrorIs(t, repo.Save(ctx, reading), apperrors.ErrConflict)
}

func TestReadingRepository_GetMissing(t *testing.T) {
	testDB := setupRepoTest(t)

	_, err := NewReadingRepository(testDB.DB).GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReadingRepository_ListByUserAndRating(t *testing.T) {
	testDB := setupRepoTest(t)
	ctx := context.Background()
	readings := NewReadingRepository(testDB.DB)
	ratings := NewRatingRepository(testDB.DB)

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		r := testReading("user-2", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, readings.Save(ctx, r))
		ids = append(ids, r.ID)
	}

	list, err := readings.ListByUser(ctx, "user-2", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)

	first := &models.ReadingRating{ID: uuid.New(), ReadingID: ids[0], UserID: "user-2", Rating: 2, CreatedAt: base}
	require.NoError(t, ratings.Save(ctx, first))
	second := &models.ReadingRating{ID: uuid.New(), ReadingID: ids[0], UserID: "user-2", Rating: 5, Comment: "spot on", CreatedAt: base}
	require.NoError(t, ratings.Save(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, readings.UpdateRating(ctx, ids[0], 5))
	got, err := readings.GetByID(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 5, *got.Rating)

	assert.ErrorIs(t, readings.UpdateRating(ctx, uuid.New(), 3), apperrors.ErrNotFound)
}

func TestDailyCardRepository(t *testing.T) {
	testDB := setupRepoTest(t)
	ctx := context.Background()
	repo := NewDailyCardRepository(testDB.DB)

	_, err := repo.Get(ctx, "user-3", "2026-05-04")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	card := &models.DailyCard{
		UserID:      "user-3",
		Date:        "2026-05-04",
		Card:        deck.DefaultCards()[0],
		Orientation: models.Upright,
		Message:     "A fresh start.",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Save(ctx, card))
	assert.ErrorIs(t, repo.Save(ctx, card), apperrors.ErrConflict)

	got, err := repo.Get(ctx, "user-3", "2026-05-04")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-04", got.Date)
	assert.Equal(t, card.Card.ID, got.Card.ID)
	assert.Equal(t, "A fresh start.", got.Message)
}

func TestEventRepository_Record(t *testing.T) {
	testDB := setupRepoTest(t)
	ctx := context.Background()
	userID := "user-4"

	event := &models.Event{UserID: &userID, Name: models.EventAIFallback, Properties: map[string]any{"reason": "circuit_open"}}
	require.NoError(t, NewEventRepository(testDB.DB).Record(ctx, event))
	assert.NotEqual(t, uuid.Nil, event.ID)

	var name, reason string
	err := testDB.DB.QueryRow(ctx, `SELECT name, properties->>'reason' FROM events WHERE id = $1`, event.ID).Scan(&name, &reason)
	require.NoError(t, err)
	assert.Equal(t, models.EventAIFallback, name)
	assert.Equal(t, "circuit_open", reason)
}

func TestCatalogRepository_ReplaceAndFetch(t *testing.T) {
	testDB := setupRepoTest(t)
	ctx := context.Background()
	repo := NewCatalogRepository(testDB.DB)

	cards := deck.DefaultCards()
	spreads := deck.DefaultSpreads()
	require.NoError(t, repo.ReplaceCatalog(ctx, cards, spreads))

	gotCards, err := repo.FetchCards(ctx)
	require.NoError(t, err)
	assert.Equal(t, cards, gotCards)

	gotSpreads, err := repo.FetchSpreads(ctx)
	require.NoError(t, err)
	assert.Equal(t, spreads, gotSpreads)

	require.NoError(t, repo.ReplaceCatalog(ctx, cards[:2], spreads[:1]))
	gotCards, err = repo.FetchCards(ctx)
	require.NoError(t, err)
	assert.Len(t, gotCards, 2)
}

func TestCatalogRepository_SeedIfEmpty(t *testing.T) {
	testDB := setupRepoTest(t)
	ctx := context.Background()
	repo := NewCatalogRepository(testDB.DB)

	seeded, err := repo.SeedIfEmpty(ctx, deck.EmbeddedSource{})
	require.NoError(t, err)
	assert.True(t, seeded)

	cards, err := repo.FetchCards(ctx)
	require.NoError(t, err)
	assert.Len(t, cards, 78)
	spreads, err := repo.FetchSpreads(ctx)
	require.NoError(t, err)
	assert.Len(t, spreads, 5)

	// An operator-managed catalog is never overwritten.
	require.NoError(t, repo.ReplaceCatalog(ctx, cards[:3], spreads[:1]))
	seeded, err = repo.SeedIfEmpty(ctx, deck.EmbeddedSource{})
	require.NoError(t, err)
	assert.False(t, seeded)

	cards, err = repo.FetchCards(ctx)
	require.NoError(t, err)
	assert.Len(t, cards, 3)
}
