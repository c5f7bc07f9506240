package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("down") }

func TestCheck(t *testing.T) {
	h := NewChecker("mafia")
	h.Register("redis", up, true)
	h.Register("database", down, false)

	status := h.Check(context.Background())
	assert.True(t, status.Healthy, "可选依赖断开不影响健康")
	assert.Equal(t, StateUp, status.Components["redis"])
	assert.Equal(t, StateDown, status.Components["database"])

	h.Register("nats", down, true)
	assert.False(t, h.IsHealthy(context.Background()))
}

func TestNATSProbeNilConn(t *testing.T) {
	assert.Error(t, NATSProbe(nil)(context.Background()))
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewChecker("mafia")
	h.Register("redis", down, true)

	r := gin.New()
	r.GET("/health", h.Handler)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var status Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "mafia", status.Service)
	assert.False(t, status.Healthy)
}
