package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkweon/athena/pkg/config"
	"github.com/mkweon/athena/pkg/logger"
)

func TestHealthEndpoint(t *testing.T) {
	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	router := NewRouter(nil, nil, nil, log)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), "athena-api")
}

func TestUnknownRouteReturns404(t *testing.T) {
	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	router := NewRouter(nil, nil, nil, log)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
