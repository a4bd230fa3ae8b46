package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/deck"
	"github.com/tarotlab/tarot-engine/pkg/interpretation"
	"github.com/tarotlab/tarot-engine/pkg/models"
	"github.com/tarotlab/tarot-engine/pkg/repositories"
)

func newDailyCardFixture(seed uint64) (*dailyCardService, *repositories.MemoryStore) {
	store := repositories.NewMemoryStore()
	svc := NewDailyCardService(
		deck.NewCatalog(deck.EmbeddedSource{}, zap.NewNop()),
		interpretation.NewSynthesizer(nil, interpretation.HashPicker{}),
		store.DailyCards(),
		store.Events(),
		deck.NewSeededRNG(seed),
		zap.NewNop(),
	).(*dailyCardService)
	return svc, store
}

func TestGetDailyCard_DrawsOncePerDay(t *testing.T) {
	svc, store := newDailyCardFixture(7)
	ctx := context.Background()

	first, err := svc.GetDailyCard(ctx, "user-1", "2026-06-01")
	require.NoError(t, err)
	assert.Equal(t, "user-1", first.UserID)
	assert.Equal(t, "2026-06-01", first.Date)
	assert.NotEmpty(t, first.Card.ID)
	assert.True(t, first.Orientation.IsValid())
	assert.NotEmpty(t, first.Message)

	for i := 0; i < 3; i++ {
		again, err := svc.GetDailyCard(ctx, "user-1", "2026-06-01")
		require.NoError(t, err)
		assert.Equal(t, first.Card.ID, again.Card.ID)
		assert.Equal(t, first.Orientation, again.Orientation)
		assert.Equal(t, first.Message, again.Message)
	}

	events := store.RecordedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventDailyCardDrawn, events[0].Name)
	assert.Equal(t, first.Card.ID, events[0].Properties["card_id"])
}

func TestGetDailyCard_EmptyDateMeansTodayUTC(t *testing.T) {
	svc, _ := newDailyCardFixture(8)
	svc.now = func() time.Time {
		return time.Date(2026, 12, 31, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))
	}

	card, err := svc.GetDailyCard(context.Background(), "user-2", "")

	require.NoError(t, err)
	assert.Equal(t, "2027-01-01", card.Date)
}

func TestGetDailyCard_DifferentDaysAreIndependent(t *testing.T) {
	svc, store := newDailyCardFixture(9)
	ctx := context.Background()

	_, err := svc.GetDailyCard(ctx, "user-3", "2026-06-01")
	require.NoError(t, err)
	_, err = svc.GetDailyCard(ctx, "user-3", "2026-06-02")
	require.NoError(t, err)
	_, err = svc.GetDailyCard(ctx, "someone-else", "2026-06-01")
	require.NoError(t, err)

	assert.Len(t, store.RecordedEvents(), 3)
}

func TestGetDailyCard_ConcurrentRequestsAgree(t *testing.T) {
	svc, _ := newDailyCardFixture(10)
	ctx := context.Background()

	const n = 8
	results := make([]*models.DailyCard, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			card, err := svc.GetDailyCard(ctx, "racer", "2026-07-07")
			assert.NoError(t, err)
			results[i] = card
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, results[0].Card.ID, r.Card.ID)
		assert.Equal(t, results[0].Orientation, r.Orientation)
	}
}

func TestGetDailyCard_Validation(t *testing.T) {
	svc, _ := newDailyCardFixture(11)

	_, err := svc.GetDailyCard(context.Background(), "", "2026-06-01")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.GetDailyCard(context.Background(), "user", "06/01/2026")
	assert.ErrorIs(t, err, apperrors.ErrInvalidDate)
}
