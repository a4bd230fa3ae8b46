package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/deck"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

// CatalogHandler serves the read-only card and spread reference data.
type CatalogHandler struct {
	catalog *deck.Catalog
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *deck.Catalog, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger.Named("catalog-handler"),
	}
}

// RegisterRoutes registers the catalog routes on the given mux.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/spreads", h.ListSpreads)
	mux.HandleFunc("GET /api/spreads/{id}", h.GetSpread)
	mux.HandleFunc("GET /api/cards", h.ListCards)
	mux.HandleFunc("GET /api/cards/{id}", h.GetCard)
}

// ListSpreads handles GET /api/spreads.
// Optional query: topic (only spreads usable for that topic).
func (h *CatalogHandler) ListSpreads(w http.ResponseWriter, r *http.Request) {
	spreads := h.catalog.Spreads(r.Context())

	if raw := r.URL.Query().Get("topic"); raw != "" {
		topic, err := models.ParseTopic(raw)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "invalid_topic", err.Error())
			return
		}
		filtered := spreads[:0]
		for _, s := range spreads {
			if s.SupportsTopic(topic) {
				filtered = append(filtered, s)
			}
		}
		spreads = filtered
	}

	writeData(w, h.logger, http.StatusOK, spreads)
}

// GetSpread handles GET /api/spreads/{id}.
func (h *CatalogHandler) GetSpread(w http.ResponseWriter, r *http.Request) {
	spread, err := h.catalog.Spread(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, h.logger, "get spread")
		return
	}
	writeData(w, h.logger, http.StatusOK, spread)
}

// ListCards handles GET /api/cards.
// Optional queries: arcana (major|minor) and suit.
func (h *CatalogHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	arcana := models.Arcana(q.Get("arcana"))
	suit := models.Suit(q.Get("suit"))

	if arcana != "" && arcana != models.ArcanaMajor && arcana != models.ArcanaMinor {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_arcana", "arcana must be major or minor")
		return
	}
	if suit != "" && suit.Element() == "" {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_suit", "suit must be wands, cups, swords or pentacles")
		return
	}

	cards := h.catalog.Cards(r.Context())
	filtered := cards[:0]
	for _, c := range cards {
		if arcana != "" && c.Arcana != arcana {
			continue
		}
		if suit != "" && c.Suit != suit {
			continue
		}
		filtered = append(filtered, c)
	}

	writeData(w, h.logger, http.StatusOK, filtered)
}

// GetCard handles GET /api/cards/{id}.
func (h *CatalogHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.catalog.Card(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, h.logger, "get card")
		return
	}
	writeData(w, h.logger, http.StatusOK, card)
}

