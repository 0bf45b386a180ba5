package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandler_Health(t *testing.T) {
	h := NewSystemHandler("Procurement API", "1.2.0", nil)
	r := newTestRouter(nil)
	r.GET("/health", h.Health)

	w := performJSON(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSystemHandler_Ready(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("all dependencies up", func(t *testing.T) {
		h := NewSystemHandler("Procurement API", "1.2.0", map[string]Pinger{"database": up, "redis": nil})
		r := newTestRouter(nil)
		r.GET("/ready", h.Ready)

		w := performJSON(r, http.MethodGet, "/ready", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, map[string]string{"database": "ok"}, resp.Checks)
	})

	t.Run("a dependency down", func(t *testing.T) {
		h := NewSystemHandler("Procurement API", "1.2.0", map[string]Pinger{"database": up, "redis": down})
		r := newTestRouter(nil)
		r.GET("/ready", h.Ready)

		w := performJSON(r, http.MethodGet, "/ready", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "unavailable", resp.Status)
		assert.Equal(t, "unavailable", resp.Checks["redis"])
		assert.Equal(t, "ok", resp.Checks["database"])
	})
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("Procurement API", "1.2.0", nil)
	r := newTestRouter(nil)
	r.GET("/system/info", h.GetSystemInfo)

	w := performJSON(r, http.MethodGet, "/system/info", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "Procurement API", data["name"])
	assert.Equal(t, "1.2.0", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}
