package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/pit"
	"github.com/mkweon/athena/internal/screen"
	"github.com/mkweon/athena/pkg/logger"
)

// ScreenHandler handles screening API endpoints
// ⭐ SSOT: screening API surface is defined on this struct only
type ScreenHandler struct {
	entities contracts.EntityRepository
	scores   contracts.ScoreRepository
	view     *pit.View
	pipeline *screen.Pipeline
	logger   *logger.Logger
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(entities contracts.EntityRepository, scores contracts.ScoreRepository, view *pit.View, pipeline *screen.Pipeline, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		entities: entities,
		scores:   scores,
		view:     view,
		pipeline: pipeline,
		logger:   log,
	}
}

// GetPool returns the investable pool at a date
// GET /api/screen/pool?date=YYYY-MM-DD&min_score=60
func (h *ScreenHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, ok := parseDateParam(w, r, "date", time.Now())
	if !ok {
		return
	}

	minScore := 0.0
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'min_score' parameter")
			return
		}
		minScore = parsed
	}

	pool, err := h.scores.GetPool(ctx, date, minScore)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get pool")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve pool")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":  date.Format("2006-01-02"),
		"count": len(pool),
		"pool":  pool,
	})
}

// GetScores returns the score history for one entity
// GET /api/screen/scores/{entity}?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ScreenHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entity := mux.Vars(r)["entity"]

	from, ok := parseDateParam(w, r, "from", time.Now().AddDate(-1, 0, 0))
	if !ok {
		return
	}
	to, ok := parseDateParam(w, r, "to", time.Now())
	if !ok {
		return
	}

	records, err := h.scores.Query(ctx, entity, from, to)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query scores")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve scores")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entity":  entity,
		"count":   len(records),
		"records": records,
	})
}

// RunRequest represents an on-demand screen request
type RunRequest struct {
	Date string `json:"date"` // Optional: as-of date (YYYY-MM-DD), default today
}

// Run triggers an on-demand screen and persists the results
// POST /api/screen/run
func (h *ScreenHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RunRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	asOf := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
			return
		}
		asOf = parsed
	}

	h.logger.WithField("as_of", asOf.Format("2006-01-02")).Info("Screen triggered via API")

	h.view.Reset()

	active, err := h.entities.ListActive(ctx, asOf)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list entities")
		respondError(w, http.StatusInternalServerError, "Failed to load universe")
		return
	}

	universe := make([]contracts.Entity, 0, len(active))
	for _, entity := range active {
		universe = append(universe, *entity)
	}

	records, err := h.pipeline.ScreenAt(ctx, asOf, universe)
	if err != nil {
		h.logger.WithError(err).Error("Screen failed")
		respondError(w, http.StatusInternalServerError, "Screen failed")
		return
	}

	saved := make([]*contracts.ScoreRecord, 0, len(records))
	var inPool int
	for i := range records {
		if records[i].InPool() {
			inPool++
		}
		saved = append(saved, &records[i])
	}
	if err := h.scores.SaveBatch(ctx, saved); err != nil {
		h.logger.WithError(err).Error("Failed to persist score records")
		respondError(w, http.StatusInternalServerError, "Failed to persist results")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"date":     asOf.Format("2006-01-02"),
		"screened": len(records),
		"in_pool":  inPool,
	})
}

// Helper functions

func parseDateParam(w http.ResponseWriter, r *http.Request, name string, fallback time.Time) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid '"+name+"' date format (expected YYYY-MM-DD)")
		return time.Time{}, false
	}
	return parsed, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
