package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/insider-edge/internal/analysis"
	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/logger"
)

// SignalHandler handles signal API endpoints
// ⭐ SSOT: signal API handlers live in this struct only
type SignalHandler struct {
	signalRepo contracts.SignalRepository
	allocator  *analysis.Allocator
	cfg        *config.Config
	logger     *logger.Logger
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(
	signalRepo contracts.SignalRepository,
	allocator *analysis.Allocator,
	cfg *config.Config,
	log *logger.Logger,
) *SignalHandler {
	return &SignalHandler{
		signalRepo: signalRepo,
		allocator:  allocator,
		cfg:        cfg,
		logger:     log,
	}
}

// GetActive returns unexpired signals, strongest first
// GET /api/signals?min_confidence=0.5&limit=20
func (h *SignalHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	minConfidence := h.cfg.Signals.MinConfidence
	if v := r.URL.Query().Get("min_confidence"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			respondError(w, http.StatusBadRequest, "min_confidence must be a number between 0 and 1")
			return
		}
		minConfidence = parsed
	}

	limit := h.cfg.Signals.MaxSignalsPerRun
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	signals, err := h.signalRepo.GetActive(r.Context(), minConfidence, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get active signals")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve signals")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(signals),
		"signals": signals,
	})
}

// GetByTicker returns the most recent signals for one ticker
// GET /api/signals/{ticker}
func (h *SignalHandler) GetByTicker(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	signals, err := h.signalRepo.GetByTicker(r.Context(), ticker, 10)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get signals by ticker")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve signals")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  ticker,
		"count":   len(signals),
		"signals": signals,
	})
}

// GetRecommendations generates fresh signals and allocates them for a
// risk profile
// GET /api/recommendations?profile=moderate&days=90
func (h *SignalHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	profile := r.URL.Query().Get("profile")
	if profile == "" {
		profile = "moderate"
	}

	days := h.cfg.Detection.LookbackDays
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	recommendation, err := h.allocator.Recommend(r.Context(), days, profile)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build recommendation")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, recommendation)
}
