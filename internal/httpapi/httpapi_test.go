package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toasty/internal/countdown"
	"github.com/jmylchreest/toasty/internal/display"
	"github.com/jmylchreest/toasty/internal/events"
	"github.com/jmylchreest/toasty/internal/metrics"
	"github.com/jmylchreest/toasty/internal/notify"
)

type env struct {
	bus     *events.Bus
	regions *display.Regions
	stream  *Stream
	srv     *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()

	bus := events.NewBus(nil)
	clock := countdown.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	regions := display.NewRegions(bus, clock, nil)

	ops := display.DefaultOptions()
	ops.Group = "ops"
	ops.PauseOnHover = true
	regions.Apply([]display.Options{display.DefaultOptions(), ops})

	stream := NewStream(nil)
	stream.Attach(bus)

	reg := prometheus.NewRegistry()
	metrics.New(reg).Attach(bus)

	srv := httptest.NewServer(NewRouter(Deps{
		Notifier: notify.New(bus, nil),
		Regions:  regions,
		Stream:   stream,
		Gatherer: reg,

		AllowedOrigins: []string{"http://localhost:*"},
	}))
	t.Cleanup(srv.Close)

	return &env{bus: bus, regions: regions, stream: stream, srv: srv}
}

func (e *env) post(t *testing.T, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(e.srv.URL+"/api/v1/notifications", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *env) delete(t *testing.T, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, e.srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Get(e.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndDismiss(t *testing.T) {
	e := newEnv(t)

	resp := e.post(t, `{"group":"ops","title":"deploy","text":"done","type":"success","duration":"-1"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var created map[string]uint64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotZero(t, created["id"])

	ops, _ := e.regions.Get("ops")
	items := ops.Active()
	require.Len(t, items, 1)
	assert.Equal(t, created["id"], items[0].ID)
	assert.True(t, items[0].Sticky())

	del := e.delete(t, "/api/v1/notifications/"+jsonNumber(created["id"]))
	assert.Equal(t, http.StatusNoContent, del.StatusCode)
	assert.Empty(t, ops.Active())
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, http.StatusBadRequest, e.post(t, `{not json`).StatusCode)
	assert.Equal(t, http.StatusUnprocessableEntity, e.post(t, `{"group":"ops"}`).StatusCode)
	assert.Equal(t, http.StatusNotFound, e.post(t, `{"group":"nope","text":"x"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, e.post(t, `{"text":"x","duration":"soon"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, e.delete(t, "/api/v1/notifications/abc").StatusCode)
}

func TestClearGroup(t *testing.T) {
	e := newEnv(t)
	e.post(t, `{"text":"a"}`)
	e.post(t, `{"text":"b"}`)

	def, _ := e.regions.Get("")
	require.Len(t, def.Active(), 2)

	assert.Equal(t, http.StatusNoContent, e.delete(t, "/api/v1/notifications").StatusCode)
	assert.Empty(t, def.Active())
	assert.Equal(t, http.StatusNotFound, e.delete(t, "/api/v1/notifications?group=nope").StatusCode)
}

func TestListRegions(t *testing.T) {
	e := newEnv(t)
	e.post(t, `{"group":"ops","title":"hello","duration":"2s"}`)

	ops, _ := e.regions.Get("ops")
	ops.PauseTimeout(ops.Active()[0].ID)

	resp, err := http.Get(e.srv.URL + "/api/v1/regions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var regions []struct {
		Group    string            `json:"group"`
		Position string            `json:"position"`
		Styles   map[string]string `json:"styles"`
		Items    []struct {
			Title       string `json:"title"`
			RemainingMS *int64 `json:"remaining_ms"`
			Paused      bool   `json:"paused"`
		} `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regions))
	require.Len(t, regions, 2)

	assert.Equal(t, "", regions[0].Group)
	assert.Empty(t, regions[0].Items)
	assert.Equal(t, "top right", regions[1].Position)
	assert.Equal(t, "300px", regions[1].Styles["width"])
	require.Len(t, regions[1].Items, 1)
	assert.Equal(t, "hello", regions[1].Items[0].Title)
	assert.True(t, regions[1].Items[0].Paused)
	require.NotNil(t, regions[1].Items[0].RemainingMS)
	assert.Equal(t, int64(2600), *regions[1].Items[0].RemainingMS)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t)
	e.post(t, `{"text":"counted"}`)

	resp, err := http.Get(e.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `toasty_created_total{group="default",type="none"} 1`)
}

func TestEventStream(t *testing.T) {
	e := newEnv(t)

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/api/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return e.stream.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	e.post(t, `{"title":"streamed"}`)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, events.EventCreated, msg.Event)
	require.NotNil(t, msg.Item)
	assert.Equal(t, "streamed", msg.Item.Title)

	def, _ := e.regions.Get("")
	def.Destroy(msg.Item.ID)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, events.EventDestroy, msg.Event)
	assert.Equal(t, string(display.ReasonDismissed), msg.Reason)
}

func TestEventStream_ChecksOrigin(t *testing.T) {
	e := newEnv(t)
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/api/v1/events"

	tests := []struct {
		name   string
		origin string
		ok     bool
	}{
		{"no origin", "", true},
		{"allowed", "http://localhost:5173", true},
		{"foreign", "https://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tt.ok {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestMatchOrigin(t *testing.T) {
	assert.True(t, matchOrigin("*", "https://any.example"))
	assert.True(t, matchOrigin("http://localhost:*", "http://localhost:8080"))
	assert.True(t, matchOrigin("https://app.example", "https://app.example"))
	assert.False(t, matchOrigin("http://localhost:*", "http://localhost.evil.example"))
	assert.False(t, matchOrigin("https://*.example", "https://example"))
}

func TestStream_SameOriginWithoutList(t *testing.T) {
	s := NewStream(nil)
	s.SetAllowedOrigins(nil)

	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:7777/api/v1/events", nil)
	r.Header.Set("Origin", "http://127.0.0.1:7777")
	assert.True(t, s.checkOrigin(r))

	r.Header.Set("Origin", "http://elsewhere.example")
	assert.False(t, s.checkOrigin(r))
}

func TestToMessageSkipsInputs(t *testing.T) {
	_, ok := toMessage(events.Event{Name: events.EventAdd})
	assert.False(t, ok)
	_, ok = toMessage(events.Event{Name: events.EventCreated, Payload: "bad"})
	assert.False(t, ok)
}

func jsonNumber(n uint64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestCORS(t *testing.T) {
	e := newEnv(t)

	req, err := http.NewRequest(http.MethodOptions, e.srv.URL+"/api/v1/notifications", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}
