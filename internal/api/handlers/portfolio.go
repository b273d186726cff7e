package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/pkg/logger"
)

// PortfolioHandler handles portfolio API endpoints
type PortfolioHandler struct {
	portfolios contracts.PortfolioRepository
	logger     *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(portfolios contracts.PortfolioRepository, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios: portfolios,
		logger:     log,
	}
}

// GetByDate returns the holdings snapshot at a rebalance date
// GET /api/portfolio?date=YYYY-MM-DD
func (h *PortfolioHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, ok := parseDateParam(w, r, "date", time.Now())
	if !ok {
		return
	}

	portfolio, err := h.portfolios.GetByDate(ctx, date)
	if err != nil {
		if errors.Is(err, contracts.ErrDataUnavailable) {
			respondError(w, http.StatusNotFound, "No snapshot at that date")
			return
		}
		h.logger.WithError(err).Error("Failed to get portfolio")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve portfolio")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio":   portfolio,
		"total_value": portfolio.TotalValue().String(),
	})
}

// GetHistory returns all snapshots inside a date range
// GET /api/portfolio/history?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *PortfolioHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, ok := parseDateParam(w, r, "from", time.Now().AddDate(-1, 0, 0))
	if !ok {
		return
	}
	to, ok := parseDateParam(w, r, "to", time.Now())
	if !ok {
		return
	}

	portfolios, err := h.portfolios.Query(ctx, from, to)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query portfolio history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(portfolios),
		"portfolios": portfolios,
	})
}
