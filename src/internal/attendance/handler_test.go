package attendance

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smartroll-attendance-svc/src/internal/config"
	"smartroll-attendance-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(f *fixture) *gin.Engine {
	cfg := &config.Configuration{App: config.Application{Timeout: 5}}
	h := NewHandler(cfg, f.service)

	router := gin.New()
	router.POST("/attendance/check_in", h.CheckIn)
	router.POST("/attendance/router_push", h.RouterPush)
	router.GET("/attendance/status", h.GetStatus)
	router.GET("/attendance/session/:session_id", h.GetSessionLogs)
	return router
}

func do(router *gin.Engine, method, target, body, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCheckInHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(at(9, 36))
		router := newTestRouter(f)

		w := do(router, http.MethodPost, "/attendance/check_in",
			`{"device_address":"aa:aa:aa:aa:aa:01","session_id":"s-1"}`, "192.168.0.20:51515")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		body := decode(t, w)
		assert.Equal(t, "check_in_recorded", body["message"])
		assert.Equal(t, "Ada Lovelace", body["student_name"])
		assert.Equal(t, true, body["checked_in"])
		assert.Equal(t, "active", body["reason"])
		assert.Equal(t, float64(7), body["time_until_expiry"])
		assert.NotEmpty(t, body["last_heartbeat"])
	})

	t.Run("forwarded header is ignored", func(t *testing.T) {
		f := newFixture(at(9, 30))
		router := newTestRouter(f)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/attendance/check_in",
			bytes.NewBufferString(`{"device_address":"AA:AA:AA:AA:AA:01","session_id":"s-1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "192.168.0.20")
		req.RemoteAddr = "203.0.113.9:4000"
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "forbidden", decode(t, w)["error"])
		assert.Equal(t, 0, f.heartbeats.count())
	})

	t.Run("claimed source address", func(t *testing.T) {
		f := newFixture(at(9, 30))
		w := do(newTestRouter(f), http.MethodPost, "/attendance/check_in",
			`{"device_address":"AA:AA:AA:AA:AA:01","session_id":"s-1","claimed_source_address":"192.168.0.77"}`,
			"203.0.113.9:4000")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		f := newFixture(at(9, 30))
		w := do(newTestRouter(f), http.MethodPost, "/attendance/check_in", "", "192.168.0.20:1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "missing_fields", decode(t, w)["error"])
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newFixture(at(9, 30))
		w := do(newTestRouter(f), http.MethodPost, "/attendance/check_in", "not json", "192.168.0.20:1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", decode(t, w)["error"])
	})

	t.Run("unknown device", func(t *testing.T) {
		f := newFixture(at(9, 30))
		w := do(newTestRouter(f), http.MethodPost, "/attendance/check_in",
			`{"device_address":"FF:FF:FF:FF:FF:FF","session_id":"s-1"}`, "192.168.0.20:1")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "unknown_device", decode(t, w)["error"])
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(at(9, 30))
		w := do(newTestRouter(f), http.MethodPost, "/attendance/check_in",
			`{"device_address":"AA:AA:AA:AA:AA:01","session_id":"s-9"}`, "192.168.0.20:1")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "session_not_found", decode(t, w)["error"])
	})

	t.Run("session not started", func(t *testing.T) {
		f := newFixture(at(8, 30))
		w := do(newTestRouter(f), http.MethodPost, "/attendance/check_in",
			`{"device_address":"AA:AA:AA:AA:AA:01","session_id":"s-1"}`, "192.168.0.20:1")
		require.Equal(t, http.StatusBadRequest, w.Code)

		body := decode(t, w)
		assert.Equal(t, "session_not_started", body["error"])
		assert.Equal(t, "2026-03-02T09:00:00Z", body["session_start_time"])
	})

	t.Run("session ended", func(t *testing.T) {
		f := newFixture(at(10, 30))
		w := do(newTestRouter(f), http.MethodPost, "/attendance/check_in",
			`{"device_address":"AA:AA:AA:AA:AA:01","session_id":"s-1"}`, "192.168.0.20:1")
		require.Equal(t, http.StatusBadRequest, w.Code)

		body := decode(t, w)
		assert.Equal(t, "session_ended", body["error"])
		assert.Equal(t, "2026-03-02T10:00:00Z", body["session_end_time"])
	})

	t.Run("commit failure", func(t *testing.T) {
		f := newFixture(at(9, 30))
		f.heartbeats.appendErr = models.ErrDatabaseInsert
		w := do(newTestRouter(f), http.MethodPost, "/attendance/check_in",
			`{"device_address":"AA:AA:AA:AA:AA:01","session_id":"s-1"}`, "192.168.0.20:1")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "db_commit_failed", decode(t, w)["error"])
	})
}

func TestRouterPushHandler(t *testing.T) {
	f := newFixture(at(9, 30))
	router := newTestRouter(f)

	w := do(router, http.MethodPost, "/attendance/router_push",
		`{"session_id":"s-1","device_list":[{"address":"aa:aa:aa:aa:aa:01"},{"address":"11:22:33:44:55:66"}]}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "router_data_ingested", body["message"])
	assert.Equal(t, float64(1), body["count"])

	w = do(router, http.MethodPost, "/attendance/router_push", `{"session_id":"s-9","device_list":[]}`, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodPost, "/attendance/router_push", `{"device_list":[{"address":"aa:aa:aa:aa:aa:01"}]}`, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "session_not_found", decode(t, w)["error"])
}

func TestStatusHandler(t *testing.T) {
	f := newFixture(at(9, 30))
	router := newTestRouter(f)

	w := do(router, http.MethodGet, "/attendance/status?device_address=AA:AA:AA:AA:AA:02&session_id=s-1", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "st-2", body["student_id"])
	assert.Equal(t, "Alan Turing", body["student_name"])
	assert.Equal(t, "s-1", body["session_id"])
	assert.Equal(t, false, body["checked_in"])
	assert.Equal(t, "no_heartbeat_recorded", body["reason"])
	assert.Nil(t, body["last_heartbeat"])
	assert.Nil(t, body["time_until_expiry"])

	w = do(router, http.MethodGet, "/attendance/status?session_id=s-1", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/attendance/status?device_address=FF:FF:FF:FF:FF:FF&session_id=s-1", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_device", decode(t, w)["error"])
}

func TestSessionLogsHandler(t *testing.T) {
	f := newFixture(at(9, 30))
	router := newTestRouter(f)

	w := do(router, http.MethodGet, "/attendance/session/s-1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	_, err := f.service.RouterPush(context.Background(), &RouterPushRequest{
		SessionID:  "s-1",
		DeviceList: []Device{{Address: "AA:AA:AA:AA:AA:01"}},
	})
	require.NoError(t, err)

	w = do(router, http.MethodGet, "/attendance/session/s-1", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var entries []LogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "st-1", entries[0].StudentID)
	assert.Equal(t, "AA:AA:AA:AA:AA:01", entries[0].Address)
	assert.Equal(t, "Heartbeat", entries[0].Status)
	assert.True(t, at(9, 30).Equal(entries[0].Timestamp))
	assert.Equal(t, time.UTC, entries[0].Timestamp.Location())
}
