package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/services"
)

// DailyCardHandler serves the once-per-day card.
type DailyCardHandler struct {
	daily  services.DailyCardService
	logger *zap.Logger
}

// NewDailyCardHandler creates a new DailyCardHandler.
func NewDailyCardHandler(daily services.DailyCardService, logger *zap.Logger) *DailyCardHandler {
	return &DailyCardHandler{
		daily:  daily,
		logger: logger.Named("daily-card-handler"),
	}
}

// RegisterRoutes registers the daily card route on the given mux.
func (h *DailyCardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users/{uid}/daily-card", h.Get)
}

// Get handles GET /api/users/{uid}/daily-card.
// Optional query: date (YYYY-MM-DD, default today in UTC).
func (h *DailyCardHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	card, err := h.daily.GetDailyCard(r.Context(), uid, r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, err, h.logger, "get daily card")
		return
	}
	writeData(w, h.logger, http.StatusOK, card)
}
