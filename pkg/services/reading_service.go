package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/deck"
	"github.com/tarotlab/tarot-engine/pkg/interpretation"
	"github.com/tarotlab/tarot-engine/pkg/models"
	"github.com/tarotlab/tarot-engine/pkg/repositories"
	"github.com/tarotlab/tarot-engine/pkg/retry"
)

// CreateReadingRequest asks for a new reading.
type CreateReadingRequest struct {
	UserID    *string
	SpreadID  string
	Topic     string
	Question  string
	IsPremium bool
}

// ReadingService draws, interprets and stores readings.
type ReadingService interface {
	CreateReading(ctx context.Context, req CreateReadingRequest) (*models.Reading, error)
	GetReading(ctx context.Context, id uuid.UUID) (*models.Reading, error)
	ListReadings(ctx context.Context, userID string, limit int) ([]*models.Reading, error)
	// RateReading records 1-5 feedback and mirrors it on the reading.
	RateReading(ctx context.Context, readingID uuid.UUID, userID string, rating int, comment string) (*models.ReadingRating, error)
}

// ReadingServiceConfig holds the tunables that do not come from collaborators.
type ReadingServiceConfig struct {
	QuestionMaxLength int
	RNG               deck.RNG // nil uses the process-wide generator
}

type readingService struct {
	catalog     *deck.Catalog
	synthesizer *interpretation.Synthesizer
	scorer      *interpretation.Scorer
	gateway     EnrichmentGateway
	readings    repositories.ReadingRepository
	ratings     repositories.RatingRepository
	events      repositories.EventRepository
	cfg         ReadingServiceConfig
	now         func() time.Time
	logger      *zap.Logger
}

func NewReadingService(
	catalog *deck.Catalog,
	synthesizer *interpretation.Synthesizer,
	scorer *interpretation.Scorer,
	gateway EnrichmentGateway,
	readings repositories.ReadingRepository,
	ratings repositories.RatingRepository,
	events repositories.EventRepository,
	cfg ReadingServiceConfig,
	logger *zap.Logger,
) ReadingService {
	if cfg.RNG == nil {
		cfg.RNG = deck.DefaultRNG()
	}
	if scorer == nil {
		scorer = interpretation.NewScorer(nil)
	}
	return &readingService{
		catalog:     catalog,
		synthesizer: synthesizer,
		scorer:      scorer,
		gateway:     gateway,
		readings:    readings,
		ratings:     ratings,
		events:      events,
		cfg:         cfg,
		now:         time.Now,
		logger:      logger.Named("readings"),
	}
}

var _ ReadingService = (*readingService)(nil)

func (s *readingService) CreateReading(ctx context.Context, req CreateReadingRequest) (*models.Reading, error) {
	topic, err := models.ParseTopic(req.Topic)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidTopic, err.Error())
	}
	question, err := ValidateQuestion(req.Question, s.cfg.QuestionMaxLength)
	if err != nil {
		return nil, err
	}
	spread, err := s.catalog.Spread(ctx, req.SpreadID)
	if err != nil {
		return nil, err
	}
	if spread.IsPremium && !req.IsPremium {
		return nil, apperrors.ErrPremiumRequired
	}
	if !spread.SupportsTopic(topic) {
		return nil, fmt.Errorf("%w: spread %s does not support topic %s", apperrors.ErrInvalidTopic, spread.ID, topic)
	}

	cards, err := deck.Draw(s.catalog.Cards(ctx), spread, s.cfg.RNG)
	if err != nil {
		return nil, fmt.Errorf("failed to draw cards: %w", err)
	}

	synthesis, err := s.synthesizer.Synthesize(cards, spread, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize interpretation: %w", err)
	}
	for i := range cards {
		perCard := synthesis.PerCard[i]
		cards[i].Interpretation = &perCard
	}

	enriched, err := s.gateway.Enrich(ctx, EnrichRequest{
		Cards:         cards,
		Topic:         topic,
		SpreadType:    spread.ID,
		Spread:        spread,
		Question:      question,
		IsPremiumUser: req.IsPremium,
		UserID:        req.UserID,
		Kind:          interpretation.KindReading,
		Synthesis:     synthesis,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enrich interpretation: %w", err)
	}

	probability, err := s.scorer.Score(cards, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to score reading: %w", err)
	}

	reading := &models.Reading{
		ID:               uuid.New(),
		UserID:           req.UserID,
		SpreadID:         spread.ID,
		Topic:            topic,
		Question:         question,
		Cards:            cards,
		OverallMessage:   synthesis.OverallMessage,
		CreatedAt:        s.now().UTC(),
		IsPremium:        req.IsPremium,
		Patterns:         synthesis.Patterns,
		Probability:      &probability,
		InterpretationID: enriched.InterpretationID,
		AICached:         enriched.Cached,
		Source:           enriched.Source,
	}
	if enriched.Source != models.SourceTemplate {
		reading.AIText = enriched.Text
	}

	saves := 0
	err = retry.DoIfRetryable(ctx, retry.DefaultConfig(), func() error {
		saves++
		err := s.readings.Save(ctx, reading)
		if saves > 1 && errors.Is(err, apperrors.ErrConflict) {
			// An earlier attempt landed before its connection failed.
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save reading: %w", err)
	}

	s.record(ctx, req.UserID, models.EventReadingCreated, map[string]any{
		"reading_id": reading.ID.String(),
		"spread_id":  spread.ID,
		"topic":      string(topic),
		"source":     reading.Source,
		"premium":    req.IsPremium,
	})

	s.logger.Info("Reading created",
		zap.String("reading_id", reading.ID.String()),
		zap.String("spread_id", spread.ID),
		zap.String("topic", string(topic)),
		zap.String("source", reading.Source),
		zap.Int("patterns", len(reading.Patterns)))

	return reading, nil
}

func (s *readingService) GetReading(ctx context.Context, id uuid.UUID) (*models.Reading, error) {
	reading, err := s.readings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reading: %w", err)
	}
	return reading, nil
}

func (s *readingService) ListReadings(ctx context.Context, userID string, limit int) ([]*models.Reading, error) {
	readings, err := s.readings.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	return readings, nil
}

func (s *readingService) RateReading(ctx context.Context, readingID uuid.UUID, userID string, rating int, comment string) (*models.ReadingRating, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.ErrInvalidRating
	}
	reading, err := s.readings.GetByID(ctx, readingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reading: %w", err)
	}
	if reading.UserID != nil && *reading.UserID != userID {
		// Readings owned by someone else look missing.
		return nil, fmt.Errorf("failed to get reading: %w", apperrors.ErrNotFound)
	}

	r := &models.ReadingRating{
		ID:        uuid.New(),
		ReadingID: readingID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: s.now().UTC(),
	}
	if err := s.ratings.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}
	if err := s.readings.UpdateRating(ctx, readingID, rating); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to update reading rating: %w", err)
	}

	var uid *string
	if userID != "" {
		uid = &userID
	}
	s.record(ctx, uid, models.EventReadingRated, map[string]any{
		"reading_id": readingID.String(),
		"rating":     rating,
	})
	return r, nil
}

// record writes a usage event. Event failures never fail the operation.
func (s *readingService) record(ctx context.Context, userID *string, name string, props map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(context.WithoutCancel(ctx), &models.Event{
		UserID:     userID,
		Name:       name,
		Properties: props,
	}); err != nil {
		s.logger.Warn("Failed to record event", zap.String("event", name), zap.Error(err))
	}
}
