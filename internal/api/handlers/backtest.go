package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wonny/insider-edge/internal/backtest"
	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/internal/strategy"
	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/logger"
)

// BacktestHandler handles backtest API endpoints
type BacktestHandler struct {
	engine *backtest.Engine
	alpha  *backtest.AlphaBacktester
	cfg    *config.Config
	logger *logger.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(
	engine *backtest.Engine,
	alpha *backtest.AlphaBacktester,
	cfg *config.Config,
	log *logger.Logger,
) *BacktestHandler {
	return &BacktestHandler{
		engine: engine,
		alpha:  alpha,
		cfg:    cfg,
		logger: log,
	}
}

// RunRequest is the backtest trigger payload
type RunRequest struct {
	From string `json:"from"` // YYYY-MM-DD, default one year back
	To   string `json:"to"`   // YYYY-MM-DD, default today
}

// Run replays the standard strategies over the requested range
// POST /api/backtest/run
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"from": start.Format("2006-01-02"),
		"to":   end.Format("2006-01-02"),
	}).Info("Backtest triggered")

	results, err := h.engine.Compare(r.Context(), strategy.Standard(h.cfg.Strategy), start, end)
	if err != nil {
		h.logger.WithError(err).Error("Backtest failed")
		respondError(w, http.StatusInternalServerError, "Backtest failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"from":    start.Format("2006-01-02"),
		"to":      end.Format("2006-01-02"),
		"results": trimDailyValues(results),
	})
}

// RunAlpha runs the event-driven alpha studies over the requested
// range
// POST /api/backtest/alpha
func (h *BacktestHandler) RunAlpha(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	results, err := h.alpha.RunAll(r.Context(), start, end)
	if err != nil {
		h.logger.WithError(err).Error("Alpha studies failed")
		respondError(w, http.StatusInternalServerError, "Alpha studies failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"from":    start.Format("2006-01-02"),
		"to":      end.Format("2006-01-02"),
		"results": results,
	})
}

func (h *BacktestHandler) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	var req RunRequest
	if r.Body != nil {
		// an empty body means defaults
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	end := time.Now()
	start := end.AddDate(-1, 0, 0)
	var err error

	if req.From != "" {
		start, err = time.Parse("2006-01-02", req.From)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
			return time.Time{}, time.Time{}, false
		}
	}
	if req.To != "" {
		end, err = time.Parse("2006-01-02", req.To)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
			return time.Time{}, time.Time{}, false
		}
	}
	if !start.Before(end) {
		respondError(w, http.StatusBadRequest, "'from' must be before 'to'")
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}

// trimDailyValues drops the daily value series from API responses,
// which would otherwise dominate the payload
func trimDailyValues(results map[string]*contracts.BacktestResult) map[string]*contracts.BacktestResult {
	for _, result := range results {
		result.DailyValues = nil
	}
	return results
}
