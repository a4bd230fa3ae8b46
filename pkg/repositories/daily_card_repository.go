package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/tarotlab/tarot-engine/pkg/database"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

// DailyCardRepository stores one card per user per date.
type DailyCardRepository interface {
	// Get returns apperrors.ErrNotFound when nothing was drawn that day.
	Get(ctx context.Context, userID, date string) (*models.DailyCard, error)
	// Save returns apperrors.ErrConflict when the day already has a card.
	Save(ctx context.Context, card *models.DailyCard) error
}

type dailyCardRepository struct {
	db *database.DB
}

func NewDailyCardRepository(db *database.DB) DailyCardRepository {
	return &dailyCardRepository{db: db}
}

var _ DailyCardRepository = (*dailyCardRepository)(nil)

func (r *dailyCardRepository) Get(ctx context.Context, userID, date string) (*models.DailyCard, error) {
	param, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	var (
		card        models.DailyCard
		day         time.Time
		cardJSON    []byte
		orientation string
	)
	err = r.db.QueryRow(ctx, `
		SELECT user_id, card_date, card, orientation, message, created_at
		FROM daily_cards WHERE user_id = $1 AND card_date = $2`, userID, param,
	).Scan(&card.UserID, &day, &cardJSON, &orientation, &card.Message, &card.CreatedAt)
	if err != nil {
		return nil, mapError(err, "get daily card")
	}

	card.Date = day.Format(time.DateOnly)
	card.Orientation = models.Orientation(orientation)
	if err := unmarshalJSONB(cardJSON, &card.Card); err != nil {
		return nil, fmt.Errorf("failed to unmarshal daily card: %w", err)
	}
	return &card, nil
}

func (r *dailyCardRepository) Save(ctx context.Context, card *models.DailyCard) error {
	day, err := time.Parse(time.DateOnly, card.Date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", card.Date, err)
	}
	cardJSON, err := marshalJSONB(card.Card)
	if err != nil {
		return fmt.Errorf("failed to marshal card: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO daily_cards (user_id, card_date, card_id, card, orientation, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		card.UserID,
		day,
		card.Card.ID,
		cardJSON,
		string(card.Orientation),
		card.Message,
		card.CreatedAt,
	)
	if err != nil {
		return mapError(err, "save daily card")
	}
	return nil
}
