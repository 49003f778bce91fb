package handlers

import (
	"net/http"
	"strconv"

	"github.com/wonny/campaign-scorer/internal/history"
	"github.com/wonny/campaign-scorer/internal/inference"
	"github.com/wonny/campaign-scorer/pkg/logger"
)

// HistoryHandler serves persisted predictions
type HistoryHandler struct {
	service *inference.Service
	logger  *logger.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(service *inference.Service, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  log.Component("api.history"),
	}
}

// HistoryResponse is returned by GET /api/predictions
type HistoryResponse struct {
	Count       int             `json:"count"`
	Predictions []history.Entry `json:"predictions"`
}

// Recent handles GET /api/predictions?limit=N
func (h *HistoryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Ctx(r.Context()).WithError(err).Error("Failed to read prediction history")
		respondError(w, http.StatusInternalServerError, "Failed to read prediction history")
		return
	}

	respondJSON(w, http.StatusOK, HistoryResponse{
		Count:       len(entries),
		Predictions: entries,
	})
}

// Summary handles GET /api/predictions/summary?recent=N
func (h *HistoryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	recent := history.SummaryRecent
	if s := r.URL.Query().Get("recent"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "recent must be a positive integer")
			return
		}
		recent = n
	}

	sum, err := h.service.Summary(r.Context(), recent)
	if err != nil {
		h.logger.Ctx(r.Context()).WithError(err).Error("Failed to summarize prediction history")
		respondError(w, http.StatusInternalServerError, "Failed to summarize prediction history")
		return
	}

	respondJSON(w, http.StatusOK, sum)
}
