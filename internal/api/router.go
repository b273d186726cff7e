package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mkweon/athena/internal/api/handlers"
	"github.com/mkweon/athena/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routing configuration lives in this function only
func NewRouter(screenHandler *handlers.ScreenHandler, portfolioHandler *handlers.PortfolioHandler, backtestHandler *handlers.BacktestHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Screening endpoints
	api.HandleFunc("/screen/pool", screenHandler.GetPool).Methods("GET")
	api.HandleFunc("/screen/scores/{entity}", screenHandler.GetScores).Methods("GET")
	api.HandleFunc("/screen/run", screenHandler.Run).Methods("POST")

	// Portfolio endpoints
	api.HandleFunc("/portfolio", portfolioHandler.GetByDate).Methods("GET")
	api.HandleFunc("/portfolio/history", portfolioHandler.GetHistory).Methods("GET")

	// Backtest endpoints
	api.HandleFunc("/backtest/run", backtestHandler.Run).Methods("POST")
	api.HandleFunc("/backtest/reports/{name}", backtestHandler.GetReport).Methods("GET")
	api.HandleFunc("/backtest/reports/{name}/periods", backtestHandler.GetPeriods).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "athena-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
