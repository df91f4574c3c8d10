package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_ReportsInjectedState(t *testing.T) {
	healthy := false
	h := NewHealthHandler(func() bool { return healthy }, func() map[string]bool {
		return map[string]bool{"store": healthy}
	})

	for _, want := range []string{"unhealthy", "healthy"} {
		w := httptest.NewRecorder()
		h.CheckHealth(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Status     string          `json:"status"`
			Timestamp  string          `json:"timestamp"`
			Components map[string]bool `json:"components"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, want, body.Status)
		assert.NotEmpty(t, body.Timestamp)
		assert.Equal(t, healthy, body.Components["store"])
		healthy = true
	}
}

func TestHealthHandler_NilSourceIsHealthy(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler(nil, nil).CheckHealth(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Contains(t, w.Body.String(), `"healthy"`)
	assert.NotContains(t, w.Body.String(), "components")
}
