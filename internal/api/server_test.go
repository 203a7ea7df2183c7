package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/char5742/remote-input/internal/config"
	"github.com/char5742/remote-input/internal/device"
	"github.com/char5742/remote-input/internal/protocol"
)

func newTestAPI(t *testing.T) (*Server, *InputService, *Hub) {
	t.Helper()
	hub := NewHub(testLogger())
	svc, _ := newTestService(t, hub)
	s := NewServer(svc.cfg, svc, hub, testLogger())
	s.listDevices = func(ownName string) ([]device.InputNode, error) {
		return []device.InputNode{
			{Name: "AT Translated Set 2 keyboard", Path: "/dev/input/event0"},
			{Name: ownName, Path: "/dev/input/event7", Own: true},
		}, nil
	}
	return s, svc, hub
}

func TestHealthCheck(t *testing.T) {
	s, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","running":false}`, rec.Body.String())
}

func TestCORSOnlyOnReads(t *testing.T) {
	s, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET", rec.Header().Get("Access-Control-Allow-Methods"))

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/device/release", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestServerAddrFollowsListen(t *testing.T) {
	tests := []struct {
		listen string
		want   string
	}{
		{"127.0.0.1", "127.0.0.1:8080"},
		{"::1", "[::1]:8080"},
		{"", ":8080"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Server.Listen = tt.listen
			cfg.API.Port = 8080
			s := NewServer(cfg, nil, nil, testLogger())
			assert.Equal(t, tt.want, s.addr())
		})
	}
}

func TestStatusBeforeOpen(t *testing.T) {
	s, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var st Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.False(t, st.Running)
	assert.Nil(t, st.Device)
}

func TestStatusWhileRunning(t *testing.T) {
	s, svc, _ := newTestAPI(t)
	startService(t, svc)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var st Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.True(t, st.Running)
	assert.Equal(t, svc.Addr().String(), st.Listen)
	require.NotNil(t, st.Device)
	assert.Equal(t, "ui_dev_setup", st.Device.Setup)
}

func TestGetConfig(t *testing.T) {
	s, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Port":4004`)
}

func TestGetDevices(t *testing.T) {
	s, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var nodes []device.InputNode
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "remote-input", nodes[1].Name)
	assert.True(t, nodes[1].Own)
}

type stubNodes struct {
	nodes []device.InputNode
	ready bool
}

func (s stubNodes) Nodes() ([]device.InputNode, bool) { return s.nodes, s.ready }

func TestGetDevicesFromMonitor(t *testing.T) {
	s, _, _ := newTestAPI(t)
	s.UseMonitor(stubNodes{
		nodes: []device.InputNode{{Name: "remote-input", Path: "/dev/input/event9", Own: true}},
		ready: true,
	})
	s.listDevices = func(string) ([]device.InputNode, error) {
		t.Error("listDevices called while the monitor is ready")
		return nil, nil
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var nodes []device.InputNode
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&nodes))
	assert.Equal(t, []device.InputNode{{Name: "remote-input", Path: "/dev/input/event9", Own: true}}, nodes)
}

func TestGetDevicesMonitorNotReady(t *testing.T) {
	s, _, _ := newTestAPI(t)
	s.UseMonitor(stubNodes{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var nodes []device.InputNode
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&nodes))
	assert.Len(t, nodes, 2)
}

func TestStatusCountsSubscribers(t *testing.T) {
	s, _, hub := newTestAPI(t)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 1, st.Subscribers)
}

func TestGetDevicesError(t *testing.T) {
	s, _, _ := newTestAPI(t)
	s.listDevices = func(string) ([]device.InputNode, error) {
		return nil, errors.New("no /dev/input")
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "no /dev/input")
}

func TestReleaseKeysNotRunning(t *testing.T) {
	s, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/device/release", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReleaseKeys(t *testing.T) {
	s, svc, _ := newTestAPI(t)
	require.NoError(t, svc.Open())
	defer svc.Close()
	require.NoError(t, svc.device.InjectKey(30, true))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/device/release", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"released":1}`, rec.Body.String())
}

func TestReleaseKeysWrongMethod(t *testing.T) {
	s, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/device/release", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestEventsStream(t *testing.T) {
	s, svc, hub := newTestAPI(t)
	startService(t, svc)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	conn, err := net.Dial("tcp", svc.Addr().String())
	require.NoError(t, err)
	require.NoError(t, protocol.NewWriter(conn).WriteFrame(protocol.Frame{Kind: protocol.Disconnect}))
	conn.Close()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var started, ended Event
	require.NoError(t, ws.ReadJSON(&started))
	require.NoError(t, ws.ReadJSON(&ended))

	assert.Equal(t, EventSessionStarted, started.Type)
	assert.Equal(t, EventSessionEnded, ended.Type)
	require.NotNil(t, started.Session)
	require.NotNil(t, ended.Session)
	assert.Nil(t, started.Device)
	assert.Equal(t, started.Session.ID, ended.Session.ID)
	assert.Equal(t, "127.0.0.1", ended.Session.Peer)
}

func TestEventsDeviceChanged(t *testing.T) {
	s, _, hub := newTestAPI(t)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	hub.DeviceChanged(device.NodeEvent{
		Type: device.NodeRemoved,
		Node: device.InputNode{Name: "Logitech USB Receiver", Path: "/dev/input/event4"},
	})

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, EventDeviceRemoved, ev.Type)
	assert.Nil(t, ev.Session)
	require.NotNil(t, ev.Device)
	assert.Equal(t, "/dev/input/event4", ev.Device.Path)
}

func TestHubCloseDisconnectsSubscribers(t *testing.T) {
	s, _, hub := newTestAPI(t)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Subscribers())

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestServeAndStop(t *testing.T) {
	s, _, _ := newTestAPI(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + l.Addr().String() + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop(t.Context()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}
