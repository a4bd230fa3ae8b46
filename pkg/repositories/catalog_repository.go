package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tarotlab/tarot-engine/pkg/database"
	"github.com/tarotlab/tarot-engine/pkg/deck"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

// CatalogRepository serves card and spread reference data from Postgres.
// It satisfies deck.Source.
type CatalogRepository interface {
	deck.Source
	// ReplaceCatalog swaps the stored data for cards and spreads in one transaction.
	ReplaceCatalog(ctx context.Context, cards []models.Card, spreads []models.Spread) error
	// SeedIfEmpty loads source into an empty cards table and reports whether
	// it wrote anything. A populated table is left alone.
	SeedIfEmpty(ctx context.Context, source deck.Source) (bool, error)
}

type catalogRepository struct {
	db *database.DB
}

func NewCatalogRepository(db *database.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

var _ CatalogRepository = (*catalogRepository)(nil)

func (r *catalogRepository) FetchCards(ctx context.Context) ([]models.Card, error) {
	return fetchOrdered[models.Card](ctx, r.db, `SELECT data FROM cards ORDER BY sort_order`)
}

func (r *catalogRepository) FetchSpreads(ctx context.Context) ([]models.Spread, error) {
	return fetchOrdered[models.Spread](ctx, r.db, `SELECT data FROM spreads ORDER BY sort_order`)
}

func fetchOrdered[T any](ctx context.Context, db *database.DB, query string) ([]T, error) {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, mapError(err, "fetch catalog")
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		var item T
		if err := unmarshalJSONB(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal catalog row: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog: %w", err)
	}
	return out, nil
}

func (r *catalogRepository) ReplaceCatalog(ctx context.Context, cards []models.Card, spreads []models.Spread) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM cards`); err != nil {
			return fmt.Errorf("failed to clear cards: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM spreads`); err != nil {
			return fmt.Errorf("failed to clear spreads: %w", err)
		}

		batch := &pgx.Batch{}
		for i, c := range cards {
			raw, err := marshalJSONB(c)
			if err != nil {
				return fmt.Errorf("failed to marshal card %s: %w", c.ID, err)
			}
			batch.Queue(`INSERT INTO cards (id, sort_order, data) VALUES ($1, $2, $3)`, c.ID, i, raw)
		}
		for i, s := range spreads {
			raw, err := marshalJSONB(s)
			if err != nil {
				return fmt.Errorf("failed to marshal spread %s: %w", s.ID, err)
			}
			batch.Queue(`INSERT INTO spreads (id, sort_order, data) VALUES ($1, $2, $3)`, s.ID, i, raw)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return mapError(err, "insert catalog")
		}
		return nil
	})
}

func (r *catalogRepository) SeedIfEmpty(ctx context.Context, source deck.Source) (bool, error) {
	var populated bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cards)`).Scan(&populated); err != nil {
		return false, mapError(err, "check catalog")
	}
	if populated {
		return false, nil
	}

	cards, err := source.FetchCards(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read seed cards: %w", err)
	}
	spreads, err := source.FetchSpreads(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read seed spreads: %w", err)
	}
	if err := r.ReplaceCatalog(ctx, cards, spreads); err != nil {
		return false, err
	}
	return true, nil
}
