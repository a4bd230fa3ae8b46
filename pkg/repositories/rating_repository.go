package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/tarotlab/tarot-engine/pkg/database"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

// RatingRepository stores reading feedback. One rating per user per reading;
// a second rating replaces the first.
type RatingRepository interface {
	Save(ctx context.Context, rating *models.ReadingRating) error
}

type ratingRepository struct {
	db *database.DB
}

func NewRatingRepository(db *database.DB) RatingRepository {
	return &ratingRepository{db: db}
}

var _ RatingRepository = (*ratingRepository)(nil)

func (r *ratingRepository) Save(ctx context.Context, rating *models.ReadingRating) error {
	if rating.ID == uuid.Nil {
		rating.ID = uuid.New()
	}

	query := `
		INSERT INTO reading_ratings (id, reading_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (reading_id, user_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, created_at = EXCLUDED.created_at
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		rating.ID,
		rating.ReadingID,
		rating.UserID,
		rating.Rating,
		rating.Comment,
		rating.CreatedAt,
	).Scan(&rating.ID)
	if err != nil {
		return mapError(err, "save rating")
	}
	return nil
}
