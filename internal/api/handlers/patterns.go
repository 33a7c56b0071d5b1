package handlers

import (
	"net/http"
	"strconv"

	"github.com/wonny/insider-edge/internal/analysis"
	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/logger"
)

// PatternHandler handles pattern detection API endpoints
type PatternHandler struct {
	detector *analysis.Detector
	cfg      *config.Config
	logger   *logger.Logger
}

// NewPatternHandler creates a new pattern handler
func NewPatternHandler(detector *analysis.Detector, cfg *config.Config, log *logger.Logger) *PatternHandler {
	return &PatternHandler{
		detector: detector,
		cfg:      cfg,
		logger:   log,
	}
}

// Detect runs pattern detection over the lookback window
// GET /api/patterns?days=90
func (h *PatternHandler) Detect(w http.ResponseWriter, r *http.Request) {
	days := h.cfg.Detection.LookbackDays
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	patterns, err := h.detector.DetectAll(r.Context(), days)
	if err != nil {
		h.logger.WithError(err).Error("Pattern detection failed")
		respondError(w, http.StatusInternalServerError, "Pattern detection failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lookback_days": days,
		"count":         len(patterns),
		"patterns":      patterns,
	})
}
