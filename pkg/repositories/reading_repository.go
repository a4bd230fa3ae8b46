package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tarotlab/tarot-engine/pkg/database"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

// ReadingRepository stores completed readings.
type ReadingRepository interface {
	Save(ctx context.Context, reading *models.Reading) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reading, error)
	// ListByUser returns the user's readings, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Reading, error)
	UpdateRating(ctx context.Context, id uuid.UUID, rating int) error
}

type readingRepository struct {
	db *database.DB
}

func NewReadingRepository(db *database.DB) ReadingRepository {
	return &readingRepository{db: db}
}

var _ ReadingRepository = (*readingRepository)(nil)

const readingColumns = `id, user_id, spread_id, topic, question, cards, overall_message,
	patterns, probability, ai_text, ai_cached, interpretation_id, source, is_premium,
	rating, created_at`

func (r *readingRepository) Save(ctx context.Context, reading *models.Reading) error {
	if reading.ID == uuid.Nil {
		reading.ID = uuid.New()
	}

	cardsJSON, err := marshalJSONB(reading.Cards)
	if err != nil {
		return fmt.Errorf("failed to marshal cards: %w", err)
	}
	patternsJSON, err := marshalJSONB(reading.Patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}
	var probabilityJSON []byte
	if reading.Probability != nil {
		if probabilityJSON, err = marshalJSONB(reading.Probability); err != nil {
			return fmt.Errorf("failed to marshal probability: %w", err)
		}
	}

	query := `
		INSERT INTO readings (` + readingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = r.db.Exec(ctx, query,
		reading.ID,
		reading.UserID,
		reading.SpreadID,
		string(reading.Topic),
		reading.Question,
		cardsJSON,
		reading.OverallMessage,
		patternsJSON,
		probabilityJSON,
		reading.AIText,
		reading.AICached,
		reading.InterpretationID,
		reading.Source,
		reading.IsPremium,
		reading.Rating,
		reading.CreatedAt,
	)
	if err != nil {
		return mapError(err, "save reading")
	}
	return nil
}

func (r *readingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reading, error) {
	row := r.db.QueryRow(ctx, `SELECT `+readingColumns+` FROM readings WHERE id = $1`, id)
	reading, err := scanReading(row)
	if err != nil {
		return nil, mapError(err, "get reading")
	}
	return reading, nil
}

func (r *readingRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Reading, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+readingColumns+` FROM readings WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, normalizeLimit(limit))
	if err != nil {
		return nil, mapError(err, "list readings")
	}
	defer rows.Close()

	var readings []*models.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}
	return readings, nil
}

func (r *readingRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating int) error {
	tag, err := r.db.Exec(ctx, `UPDATE readings SET rating = $2 WHERE id = $1`, id, rating)
	if err != nil {
		return mapError(err, "update reading rating")
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "update reading rating")
	}
	return nil
}

func scanReading(row pgx.Row) (*models.Reading, error) {
	var (
		reading         models.Reading
		topic           string
		cardsJSON       []byte
		patternsJSON    []byte
		probabilityJSON []byte
	)
	err := row.Scan(
		&reading.ID,
		&reading.UserID,
		&reading.SpreadID,
		&topic,
		&reading.Question,
		&cardsJSON,
		&reading.OverallMessage,
		&patternsJSON,
		&probabilityJSON,
		&reading.AIText,
		&reading.AICached,
		&reading.InterpretationID,
		&reading.Source,
		&reading.IsPremium,
		&reading.Rating,
		&reading.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	reading.Topic = models.Topic(topic)

	if err := unmarshalJSONB(cardsJSON, &reading.Cards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cards: %w", err)
	}
	if err := unmarshalJSONB(patternsJSON, &reading.Patterns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal patterns: %w", err)
	}
	if len(probabilityJSON) > 0 {
		reading.Probability = &models.Probability{}
		if err := unmarshalJSONB(probabilityJSON, reading.Probability); err != nil {
			return nil, fmt.Errorf("failed to unmarshal probability: %w", err)
		}
	}
	return &reading, nil
}
