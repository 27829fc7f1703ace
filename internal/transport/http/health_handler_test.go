package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agronexus/internal/services"
)

func TestHealthEndpoints(t *testing.T) {
	hs := services.NewHealthService("test", nil, nil, discardLogger())
	h := NewHealthHandler(hs, discardLogger())

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus string
	}{
		{"health", h.HealthCheck, "ok"},
		{"liveness", h.LivenessCheck, "alive"},
		{"readiness", h.ReadinessCheck, "ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()
			tt.handler(w, req)

			require.Equal(t, http.StatusOK, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, "test", body["version"])
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	hs := services.NewHealthService("1.0.0", nil, nil, discardLogger())
	h := NewHealthHandler(hs, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	w := httptest.NewRecorder()
	h.Version(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "1.0.0", body["version"])
	assert.NotEmpty(t, body["go_version"])
}
