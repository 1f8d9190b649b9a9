package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-home/internal/application"
	"voice-home/internal/domain"
	"voice-home/internal/infra/api"
)

type idleSource struct{}

func (idleSource) Start(_ context.Context) error { return nil }
func (idleSource) Stop() error                   { return nil }
func (idleSource) Name() string                  { return "idle" }

func (idleSource) NextTranscript(ctx context.Context) (domain.Transcript, error) {
	<-ctx.Done()
	return domain.Transcript{}, ctx.Err()
}

type fixture struct {
	server    *api.Server
	stream    *api.Stream
	home      *application.Home
	assistant *application.Assistant
	monitor   *application.Monitor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stream := api.NewStream(logger)

	home, err := application.NewHome(domain.DefaultDevices(), stream, logger)
	require.NoError(t, err)
	assistant := application.NewAssistant(idleSource{}, home, domain.NewHistory(0), nil, nil, stream, logger)
	monitor := application.NewMonitor(5*time.Millisecond, 0, stream, logger)
	t.Cleanup(monitor.Stop)

	return &fixture{
		server:    api.NewServer(":0", assistant, home, monitor, stream, logger),
		stream:    stream,
		home:      home,
		assistant: assistant,
		monitor:   monitor,
	}
}

func (f *fixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_Devices(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/devices")
	require.Equal(t, http.StatusOK, rec.Code)

	var devices []domain.Device
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	assert.Equal(t, domain.DefaultDevices(), devices)
}

func TestServer_ToggleRequiresConnection(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/devices/2/toggle")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/connection/on")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"connected":true}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/devices/2/toggle")
	require.Equal(t, http.StatusOK, rec.Code)

	var d domain.Device
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "2", d.ID)
	assert.True(t, d.Status)

	rec = f.do(t, http.MethodPost, "/api/devices/99/toggle")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_AllDevices(t *testing.T) {
	f := newFixture(t)
	f.home.SetConnected(true)

	rec := f.do(t, http.MethodPost, "/api/devices/all/on")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, d := range f.home.Devices() {
		assert.True(t, d.Status)
	}

	rec = f.do(t, http.MethodPost, "/api/devices/all/maybe")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListeningAndHistory(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/listening/on")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.assistant.Listening())

	_, err := f.assistant.Process(context.Background(), "turn on the tv", 0.75)
	require.NoError(t, err)

	rec = f.do(t, http.MethodGet, "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)

	var history []domain.Command
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, domain.ActionTurnOn, history[0].Action)
	assert.Equal(t, "5", history[0].Device)

	rec = f.do(t, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, true, status["listening"])
	assert.Equal(t, "TV turned on", status["feedback"])
	assert.Equal(t, false, status["monitoring"])

	rec = f.do(t, http.MethodPost, "/api/listening/off")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.assistant.Listening())
}

func TestServer_Monitor(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/monitor/on")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"monitoring":true}`, rec.Body.String())

	assert.Eventually(t, func() bool { return len(f.monitor.Readings()) >= 2 }, 5*time.Second, 5*time.Millisecond)

	rec = f.do(t, http.MethodGet, "/api/readings")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Readings []domain.Reading `json:"readings"`
		Trend    string           `json:"trend"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.GreaterOrEqual(t, len(body.Readings), 2)
	assert.Contains(t, []string{"rising", "falling", "stable"}, body.Trend)

	rec = f.do(t, http.MethodPost, "/api/monitor/off")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"monitoring":false}`, rec.Body.String())
}

func TestStream_DeliversEvents(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool { return f.stream.Clients() == 1 }, 5*time.Second, 5*time.Millisecond)

	_, err = f.home.Apply(context.Background(), "1", domain.ActionTurnOn)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev application.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, application.EventDevice, ev.Kind)
	require.NotNil(t, ev.Device)
	assert.Equal(t, "1", ev.Device.ID)
	assert.True(t, ev.Device.Status)

	conn.Close()
	assert.Eventually(t, func() bool { return f.stream.Clients() == 0 }, 5*time.Second, 5*time.Millisecond)
}
