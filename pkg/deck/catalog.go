package deck

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

var errEmptyData = errors.New("data source returned no records")

// Catalog caches card and spread data for the life of the process.
// A failed or empty fetch is replaced with the built-in defaults; callers
// never see the fetch error.
type Catalog struct {
	source Source
	logger *zap.Logger

	mu            sync.Mutex
	loaded        bool
	usingDefaults bool
	cards         []models.Card
	cardIndex     map[string]int
	spreads       []models.Spread
	spreadIndex   map[string]int
}

// NewCatalog creates a catalog backed by source. Nothing is fetched until first use.
func NewCatalog(source Source, logger *zap.Logger) *Catalog {
	return &Catalog{
		source: source,
		logger: logger.Named("catalog"),
	}
}

// Load fetches the data if it has not been fetched yet.
func (c *Catalog) Load(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)
}

func (c *Catalog) loadLocked(ctx context.Context) {
	if c.loaded {
		return
	}

	cards, spreads, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("Card data unavailable, using built-in defaults", zap.Error(err))
		cards, spreads = DefaultCards(), DefaultSpreads()
		c.usingDefaults = true
	}

	c.cards = cards
	c.cardIndex = make(map[string]int, len(cards))
	for i := range cards {
		c.cardIndex[cards[i].ID] = i
	}
	c.spreads = spreads
	c.spreadIndex = make(map[string]int, len(spreads))
	for i := range spreads {
		c.spreadIndex[spreads[i].ID] = i
	}
	c.loaded = true

	c.logger.Info("Catalog loaded",
		zap.Int("cards", len(cards)),
		zap.Int("spreads", len(spreads)),
		zap.Bool("defaults", c.usingDefaults))
}

func (c *Catalog) fetch(ctx context.Context) ([]models.Card, []models.Spread, error) {
	if c.source == nil {
		return nil, nil, errEmptyData
	}
	cards, err := c.source.FetchCards(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch cards: %w", err)
	}
	spreads, err := c.source.FetchSpreads(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch spreads: %w", err)
	}
	if len(cards) == 0 || len(spreads) == 0 {
		return nil, nil, errEmptyData
	}
	return cards, spreads, nil
}

// Cards returns every card in deck order.
func (c *Catalog) Cards(ctx context.Context) []models.Card {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)
	return append([]models.Card(nil), c.cards...)
}

// Card looks up a card by id.
func (c *Catalog) Card(ctx context.Context, id string) (*models.Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)
	i, ok := c.cardIndex[id]
	if !ok {
		return nil, apperrors.ErrCardNotFound
	}
	card := c.cards[i]
	return &card, nil
}

// Spreads returns every spread in declaration order.
func (c *Catalog) Spreads(ctx context.Context) []models.Spread {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)
	return append([]models.Spread(nil), c.spreads...)
}

// Spread looks up a spread by id.
func (c *Catalog) Spread(ctx context.Context, id string) (*models.Spread, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)
	i, ok := c.spreadIndex[id]
	if !ok {
		return nil, apperrors.ErrSpreadNotFound
	}
	spread := c.spreads[i]
	return &spread, nil
}

// UsingDefaults reports whether the built-in set replaced the source data.
func (c *Catalog) UsingDefaults(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)
	return c.usingDefaults
}
