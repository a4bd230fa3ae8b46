package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/tarotlab/tarot-engine/pkg/models"
	"github.com/tarotlab/tarot-engine/pkg/services"
)

// mockReadingService is a configurable mock for handler tests.
type mockReadingService struct {
	reading  *models.Reading
	readings []*models.Reading
	rating   *models.ReadingRating
	err      error

	lastCreate services.CreateReadingRequest
	lastUserID string
	lastLimit  int
}

func (m *mockReadingService) CreateReading(ctx context.Context, req services.CreateReadingRequest) (*models.Reading, error) {
	m.lastCreate = req
	if m.err != nil {
		return nil, m.err
	}
	return m.reading, nil
}

func (m *mockReadingService) GetReading(ctx context.Context, id uuid.UUID) (*models.Reading, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.reading, nil
}

func (m *mockReadingService) ListReadings(ctx context.Context, userID string, limit int) ([]*models.Reading, error) {
	m.lastUserID = userID
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.readings, nil
}

func (m *mockReadingService) RateReading(ctx context.Context, readingID uuid.UUID, userID string, rating int, comment string) (*models.ReadingRating, error) {
	m.lastUserID = userID
	if m.err != nil {
		return nil, m.err
	}
	if m.rating != nil {
		return m.rating, nil
	}
	return &models.ReadingRating{
		ID:        uuid.New(),
		ReadingID: readingID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	}, nil
}

var _ services.ReadingService = (*mockReadingService)(nil)

// mockDailyCardService returns a fixed card or error.
type mockDailyCardService struct {
	card     *models.DailyCard
	err      error
	lastDate string
}

func (m *mockDailyCardService) GetDailyCard(ctx context.Context, userID, date string) (*models.DailyCard, error) {
	m.lastDate = date
	if m.err != nil {
		return nil, m.err
	}
	return m.card, nil
}

var _ services.DailyCardService = (*mockDailyCardService)(nil)
