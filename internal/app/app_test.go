package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharetube/embed/pkg/ytapi"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type call struct {
	RequestId string `json:"request_id"`
	PlayerId  string `json:"player_id"`
	Method    string `json:"method"`
	Args      []any  `json:"args"`
}

func newTestServer(t *testing.T, cfg *AppConfig) *httptest.Server {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	handler, embedService := newHandler(cfg, rc, slog.Default())
	srv := httptest.NewServer(handler)
	t.Cleanup(embedService.Wait)
	t.Cleanup(srv.Close)

	return srv
}

func doJSON(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestValidate(t *testing.T) {
	cfg := AppConfig{Port: 80, LogLevel: "info", StatusExp: time.Hour, CallTimeout: time.Second}
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.LogLevel = "loud"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.AutoLoad = true
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.CallTimeout = 0
	assert.Error(t, bad.Validate())
}

func TestPageLifecycle(t *testing.T) {
	srv := newTestServer(t, &AppConfig{StatusExp: time.Hour, CallTimeout: 2 * time.Second})
	api := srv.URL + "/api/v1"

	status, body := doJSON(t, http.MethodPost, api+"/pages", map[string]any{
		"title":   "demo",
		"players": []map[string]any{{"element_id": "main", "video_id": "M7lc1UVf-VE"}},
	})
	require.Equal(t, http.StatusCreated, status)
	page := body["data"].(map[string]any)
	pageId := page["id"].(string)
	assert.Equal(t, true, page["inserted"])
	assert.Equal(t, float64(1), page["pending"])

	resp, err := http.Get(srv.URL + "/pages/" + pageId)
	require.NoError(t, err)
	html, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(html), `data-page-id="`+pageId+`"`)
	assert.Contains(t, string(html), ytapi.ScriptURL)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/pages/" + pageId
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	f := readFrame(t, conn)
	require.Equal(t, "INSERT_SCRIPT", f.Type)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "API_READY", "payload": nil}))

	f = readFrame(t, conn)
	require.Equal(t, "CREATE_PLAYER", f.Type)
	var created struct {
		Id      string         `json:"id"`
		Options map[string]any `json:"options"`
	}
	require.NoError(t, json.Unmarshal(f.Payload, &created))
	assert.Equal(t, "main", created.Id)
	assert.Equal(t, "M7lc1UVf-VE", created.Options["videoId"])
	assert.Equal(t, map[string]any{"autoplay": float64(0), "mute": float64(0)}, created.Options["playerVars"])

	toggled := make(chan int, 1)
	go func() {
		resp, err := http.Post(api+"/pages/"+pageId+"/players/main/toggle-play", "application/json", nil)
		if err != nil {
			toggled <- 0
			return
		}
		resp.Body.Close()
		toggled <- resp.StatusCode
	}()

	var c call
	require.NoError(t, json.Unmarshal(readFrame(t, conn).Payload, &c))
	require.Equal(t, "getPlayerState", c.Method)
	require.NotEmpty(t, c.RequestId)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "RESULT",
		"payload": map[string]any{"request_id": c.RequestId, "value": 1},
	}))

	require.NoError(t, json.Unmarshal(readFrame(t, conn).Payload, &c))
	assert.Equal(t, "pauseVideo", c.Method)
	assert.Equal(t, http.StatusOK, <-toggled)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "EVENT",
		"payload": map[string]any{"player_id": "main", "kind": "onStateChange", "data": 2},
	}))
	require.NoError(t, json.Unmarshal(readFrame(t, conn).Payload, &c))
	require.Equal(t, "getCurrentTime", c.Method)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "RESULT",
		"payload": map[string]any{"request_id": c.RequestId, "value": 42.5},
	}))

	require.Eventually(t, func() bool {
		status, body := doJSON(t, http.MethodGet, api+"/pages/"+pageId+"/players/main", nil)
		if status != http.StatusOK {
			return false
		}
		data := body["data"].(map[string]any)
		return data["state_name"] == "PAUSED" && data["current_time"] == 42.5
	}, 3*time.Second, 20*time.Millisecond)

	status, _ = doJSON(t, http.MethodDelete, api+"/pages/"+pageId, nil)
	assert.Equal(t, http.StatusNoContent, status)

	require.NoError(t, json.Unmarshal(readFrame(t, conn).Payload, &c))
	assert.Equal(t, "destroy", c.Method)

	status, _ = doJSON(t, http.MethodGet, api+"/pages/"+pageId, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &AppConfig{StatusExp: time.Hour, CallTimeout: time.Second})

	status, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/pages", nil)
	require.Equal(t, http.StatusOK, status)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "embed_http_requests_total")
}
