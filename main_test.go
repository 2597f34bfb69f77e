package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/folioledger/backend/src/config"
	"github.com/username/folioledger/backend/src/logger"
)

func TestMain(m *testing.M) {
	config.Cfg = &config.AppConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func newCORSHandler() (http.Handler, *bool) {
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	return enableCORS(next), &reached
}

func TestEnableCORSAllowsConfiguredOrigin(t *testing.T) {
	handler, reached := newCORSHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/lots", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, *reached)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "ETag")
}

func TestEnableCORSPreflightShortCircuits(t *testing.T) {
	handler, reached := newCORSHandler()

	req := httptest.NewRequest(http.MethodOptions, "/api/import", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, *reached)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestEnableCORSUnknownOriginGetsNoGrant(t *testing.T) {
	handler, reached := newCORSHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/lots", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// The request itself still runs; the browser enforces the missing grant.
	assert.True(t, *reached)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestEnableCORSNonBrowserRequest(t *testing.T) {
	handler, reached := newCORSHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, *reached)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
