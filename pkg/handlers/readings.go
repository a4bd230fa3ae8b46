package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/deck"
	"github.com/tarotlab/tarot-engine/pkg/export"
	"github.com/tarotlab/tarot-engine/pkg/models"
	"github.com/tarotlab/tarot-engine/pkg/services"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// CreateReadingRequest is the body of POST /api/readings. Identity and
// entitlement are asserted by the calling application.
type CreateReadingRequest struct {
	UserID    *string `json:"user_id,omitempty"`
	SpreadID  string  `json:"spread_id"`
	Topic     string  `json:"topic,omitempty"`
	Question  string  `json:"question,omitempty"`
	IsPremium bool    `json:"is_premium"`
}

// RateReadingRequest is the body of POST /api/readings/{id}/rating.
type RateReadingRequest struct {
	UserID  string `json:"user_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// ReadingHandler handles reading creation, lookup, rating and export.
type ReadingHandler struct {
	readings services.ReadingService
	catalog  *deck.Catalog
	logger   *zap.Logger
}

// NewReadingHandler creates a new ReadingHandler.
func NewReadingHandler(readings services.ReadingService, catalog *deck.Catalog, logger *zap.Logger) *ReadingHandler {
	return &ReadingHandler{
		readings: readings,
		catalog:  catalog,
		logger:   logger.Named("reading-handler"),
	}
}

// RegisterRoutes registers the reading routes on the given mux.
func (h *ReadingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/readings", h.Create)
	mux.HandleFunc("GET /api/readings/{id}", h.Get)
	mux.HandleFunc("GET /api/readings/{id}/pdf", h.ExportPDF)
	mux.HandleFunc("POST /api/readings/{id}/rating", h.Rate)
	mux.HandleFunc("GET /api/users/{uid}/readings", h.ListForUser)
}

// Create handles POST /api/readings.
func (h *ReadingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReadingRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if req.SpreadID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "missing_spread_id", "spread_id is required")
		return
	}
	if req.UserID != nil && (*req.UserID == "" || len(*req.UserID) > maxUserIDLength) {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_user_id", "Invalid user ID")
		return
	}

	reading, err := h.readings.CreateReading(r.Context(), services.CreateReadingRequest{
		UserID:    req.UserID,
		SpreadID:  req.SpreadID,
		Topic:     req.Topic,
		Question:  req.Question,
		IsPremium: req.IsPremium,
	})
	if err != nil {
		writeServiceError(w, err, h.logger, "create reading")
		return
	}

	w.Header().Set("Location", "/api/readings/"+reading.ID.String())
	writeData(w, h.logger, http.StatusCreated, reading)
}

// Get handles GET /api/readings/{id}.
func (h *ReadingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseReadingID(w, r, h.logger)
	if !ok {
		return
	}

	reading, err := h.readings.GetReading(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger, "get reading")
		return
	}
	writeData(w, h.logger, http.StatusOK, reading)
}

// Rate handles POST /api/readings/{id}/rating.
func (h *ReadingHandler) Rate(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseReadingID(w, r, h.logger)
	if !ok {
		return
	}

	var req RateReadingRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if req.UserID == "" || len(req.UserID) > maxUserIDLength {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_user_id", "user_id is required")
		return
	}

	rating, err := h.readings.RateReading(r.Context(), id, req.UserID, req.Rating, req.Comment)
	if err != nil {
		writeServiceError(w, err, h.logger, "rate reading")
		return
	}
	writeData(w, h.logger, http.StatusCreated, rating)
}

// ListForUser handles GET /api/users/{uid}/readings.
// Optional query: limit (default 20, max 100).
func (h *ReadingHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	uid, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}
	limit, ok := parseLimit(r, defaultListLimit, maxListLimit)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
		return
	}

	readings, err := h.readings.ListReadings(r.Context(), uid, limit)
	if err != nil {
		writeServiceError(w, err, h.logger, "list readings")
		return
	}
	if readings == nil {
		readings = []*models.Reading{}
	}
	writeData(w, h.logger, http.StatusOK, readings)
}

// ExportPDF handles GET /api/readings/{id}/pdf.
func (h *ReadingHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseReadingID(w, r, h.logger)
	if !ok {
		return
	}

	reading, err := h.readings.GetReading(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger, "get reading")
		return
	}

	var spread *models.Spread
	if h.catalog != nil {
		// A spread removed from the catalog still exports, just without its name.
		spread, _ = h.catalog.Spread(r.Context(), reading.SpreadID)
	}

	var buf bytes.Buffer
	if err := export.WriteReadingPDF(&buf, reading, spread); err != nil {
		writeServiceError(w, fmt.Errorf("failed to render pdf: %w", err), h.logger, "export reading")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="reading-`+id.String()+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Debug("Failed to write pdf", zap.Error(err))
	}
}
