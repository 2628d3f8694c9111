package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Conversly/design-assistant/internal/config"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fixedCount int

func (n fixedCount) Count() int { return int(n) }

func get(t *testing.T, h gin.HandlerFunc) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthWithoutDatabase(t *testing.T) {
	h := NewHealthController(nil, fixedCount(3))
	code, body := get(t, h.HealthCheck)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "disabled", body["database"])
	require.Equal(t, float64(3), body["sessions"])
}

func TestHealthDatabaseDown(t *testing.T) {
	h := NewHealthController(fakePinger{err: errors.New("refused")}, fixedCount(0))
	code, body := get(t, h.Readiness)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "down", body["database"])

	code, _ = get(t, h.Liveness)
	require.Equal(t, http.StatusOK, code)
}

func TestSystemInfo(t *testing.T) {
	cfg := &config.Config{ServiceName: "design-assistant", GeminiAPIKeys: []string{"a", "b"}, RelayTimeout: 30 * time.Second}
	s := NewSystemController(cfg, fixedCount(1))
	_, body := get(t, s.Info)
	require.Equal(t, "design-assistant", body["service"])
	require.Equal(t, float64(2), body["api_keys"])
	require.Equal(t, "30s", body["relay_timeout"])
}
