package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/deck"
	"github.com/tarotlab/tarot-engine/pkg/interpretation"
	"github.com/tarotlab/tarot-engine/pkg/models"
	"github.com/tarotlab/tarot-engine/pkg/repositories"
)

const dailySpreadID = "single"

// DailyCardService hands out one card per user per calendar day.
type DailyCardService interface {
	// GetDailyCard returns the card already drawn for date, or draws and
	// stores one. An empty date means today in UTC.
	GetDailyCard(ctx context.Context, userID, date string) (*models.DailyCard, error)
}

type dailyCardService struct {
	catalog     *deck.Catalog
	synthesizer *interpretation.Synthesizer
	cards       repositories.DailyCardRepository
	events      repositories.EventRepository
	rng         deck.RNG
	now         func() time.Time
	logger      *zap.Logger
}

func NewDailyCardService(
	catalog *deck.Catalog,
	synthesizer *interpretation.Synthesizer,
	cards repositories.DailyCardRepository,
	events repositories.EventRepository,
	rng deck.RNG,
	logger *zap.Logger,
) DailyCardService {
	if rng == nil {
		rng = deck.DefaultRNG()
	}
	return &dailyCardService{
		catalog:     catalog,
		synthesizer: synthesizer,
		cards:       cards,
		events:      events,
		rng:         rng,
		now:         time.Now,
		logger:      logger.Named("daily-card"),
	}
}

var _ DailyCardService = (*dailyCardService)(nil)

func (s *dailyCardService) GetDailyCard(ctx context.Context, userID, date string) (*models.DailyCard, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", apperrors.ErrNotFound)
	}
	if date == "" {
		date = s.now().UTC().Format(time.DateOnly)
	} else if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, fmt.Errorf("%w: %q is not YYYY-MM-DD", apperrors.ErrInvalidDate, date)
	}

	existing, err := s.cards.Get(ctx, userID, date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to get daily card: %w", err)
	}

	daily, err := s.draw(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	if err := s.cards.Save(ctx, daily); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("failed to save daily card: %w", err)
		}
		// A concurrent request drew first; its card wins.
		stored, getErr := s.cards.Get(ctx, userID, date)
		if getErr != nil {
			return nil, fmt.Errorf("failed to get daily card: %w", getErr)
		}
		return stored, nil
	}

	if s.events != nil {
		uid := userID
		if err := s.events.Record(context.WithoutCancel(ctx), &models.Event{
			UserID:     &uid,
			Name:       models.EventDailyCardDrawn,
			Properties: map[string]any{"card_id": daily.Card.ID, "date": date, "orientation": string(daily.Orientation)},
		}); err != nil {
			s.logger.Warn("Failed to record event", zap.String("event", models.EventDailyCardDrawn), zap.Error(err))
		}
	}

	s.logger.Debug("Daily card drawn",
		zap.String("card_id", daily.Card.ID),
		zap.String("date", date))
	return daily, nil
}

func (s *dailyCardService) draw(ctx context.Context, userID, date string) (*models.DailyCard, error) {
	cards := s.catalog.Cards(ctx)

	var drawn []models.DrawnCard
	spread, err := s.catalog.Spread(ctx, dailySpreadID)
	if err == nil && spread.CardCount == 1 {
		drawn, err = deck.Draw(cards, spread, s.rng)
	} else {
		spread = nil
		var one models.DrawnCard
		one, err = deck.DrawOne(cards, s.rng)
		drawn = []models.DrawnCard{one}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to draw daily card: %w", err)
	}

	synthesis, err := s.synthesizer.Synthesize(drawn, spread, models.TopicGeneral)
	if err != nil {
		return nil, fmt.Errorf("failed to interpret daily card: %w", err)
	}

	return &models.DailyCard{
		UserID:      userID,
		Date:        date,
		Card:        drawn[0].Card,
		Orientation: drawn[0].Orientation,
		Message:     synthesis.OverallMessage,
		CreatedAt:   s.now().UTC(),
	}, nil
}
