package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mkweon/athena/internal/backtest"
	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/store"
	"github.com/mkweon/athena/pkg/logger"
)

// BacktestHandler handles backtest API endpoints
type BacktestHandler struct {
	entities contracts.EntityRepository
	driver   *backtest.Driver
	reports  *store.ReportRepository
	logger   *logger.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(entities contracts.EntityRepository, driver *backtest.Driver, reports *store.ReportRepository, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		entities: entities,
		driver:   driver,
		reports:  reports,
		logger:   log,
	}
}

// BacktestRequest represents a backtest run request
type BacktestRequest struct {
	Name  string `json:"name"`
	Start string `json:"start"` // YYYY-MM-DD
	End   string `json:"end"`   // YYYY-MM-DD
}

// Run executes a backtest and persists its report
// POST /api/backtest/run
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Missing 'name'")
		return
	}

	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'start' date format (expected YYYY-MM-DD)")
		return
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'end' date format (expected YYYY-MM-DD)")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"name":  req.Name,
		"start": req.Start,
		"end":   req.End,
	}).Info("Backtest triggered via API")

	active, err := h.entities.ListActive(ctx, end)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list entities")
		respondError(w, http.StatusInternalServerError, "Failed to load universe")
		return
	}
	universe := make([]contracts.Entity, 0, len(active))
	for _, entity := range active {
		universe = append(universe, *entity)
	}

	result, err := h.driver.Run(ctx, start, end, universe)
	if err != nil {
		h.logger.WithError(err).Error("Backtest failed")
		respondError(w, http.StatusInternalServerError, "Backtest failed")
		return
	}

	if err := h.reports.SaveReport(ctx, req.Name, result.Report); err != nil {
		h.logger.WithError(err).Error("Failed to persist report")
		respondError(w, http.StatusInternalServerError, "Failed to persist report")
		return
	}
	if err := h.reports.SavePeriods(ctx, req.Name, result.Periods); err != nil {
		h.logger.WithError(err).Error("Failed to persist periods")
		respondError(w, http.StatusInternalServerError, "Failed to persist periods")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"name":    req.Name,
		"periods": len(result.Periods),
		"report":  result.Report,
	})
}

// GetReport returns a stored performance report
// GET /api/backtest/reports/{name}
func (h *BacktestHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	report, err := h.reports.GetReport(ctx, name)
	if err != nil {
		if errors.Is(err, contracts.ErrDataUnavailable) {
			respondError(w, http.StatusNotFound, "Report not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get report")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve report")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetPeriods returns a stored run's per-period returns
// GET /api/backtest/reports/{name}/periods
func (h *BacktestHandler) GetPeriods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	periods, err := h.reports.GetPeriods(ctx, name)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get periods")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve periods")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":    name,
		"count":   len(periods),
		"periods": periods,
	})
}
