package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tarotlab/tarot-engine/pkg/database"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

// EventRepository appends usage events.
type EventRepository interface {
	Record(ctx context.Context, event *models.Event) error
}

type eventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) EventRepository {
	return &eventRepository{db: db}
}

var _ EventRepository = (*eventRepository)(nil)

func (r *eventRepository) Record(ctx context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	propsJSON, err := marshalJSONB(event.Properties)
	if err != nil {
		return fmt.Errorf("failed to marshal properties: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO events (id, user_id, name, properties, created_at) VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.UserID, event.Name, propsJSON, event.CreatedAt)
	if err != nil {
		return mapError(err, "record event")
	}
	return nil
}
