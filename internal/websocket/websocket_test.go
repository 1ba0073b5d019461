package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "dropoutlens/internal/errors"
	"dropoutlens/internal/infrastructure"
	"dropoutlens/pkg/contracts/domain"
)

type fakeSource struct {
	calls atomic.Int64

	// when set, views for k == 3 wait until hold is closed
	hold     chan struct{}
	released atomic.Int64
}

func (f *fakeSource) DefaultK() int { return 3 }

func (f *fakeSource) Clusters(ctx context.Context, k int) (*domain.ClusterView, error) {
	f.calls.Add(1)
	if f.hold != nil && k == 3 {
		select {
		case <-f.hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		defer f.released.Add(1)
	}
	if k < 2 || k > 10 {
		return nil, apierrors.NewInvalidClusterCountError(k, 2, 10)
	}
	return &domain.ClusterView{K: k, WCSS: float64(10 - k)}, nil
}

type frame struct {
	Type    string          `json:"type"`
	K       int             `json:"k"`
	Data    json.RawMessage `json:"data"`
	TraceID string          `json:"trace_id"`
}

func startHub(t *testing.T) (*Hub, *fakeSource, string) {
	t.Helper()
	return startHubWith(t, &fakeSource{})
}

func startHubWith(t *testing.T, source *fakeSource) (*Hub, *fakeSource, string) {
	t.Helper()

	logger := infrastructure.NewLogger(io.Discard, "error")
	hub := NewHub(HubConfig{PingPeriod: time.Second, PongWait: 2 * time.Second}, source, nil, nil, logger)
	hub.Start()
	t.Cleanup(hub.Stop)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, "trace-ws")
	}))
	t.Cleanup(srv.Close)

	return hub, source, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// readUntil skips frames until one of the wanted type arrives
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) frame {
	t.Helper()
	for i := 0; i < 10; i++ {
		f := readFrame(t, conn)
		if f.Type == msgType {
			return f
		}
	}
	t.Fatalf("no %s frame received", msgType)
	return frame{}
}

func TestSliderRoundTrip(t *testing.T) {
	hub, _, url := startHub(t)
	conn := dial(t, url)

	hello := readFrame(t, conn)
	assert.Equal(t, TypeConnection, hello.Type)
	assert.Equal(t, 3, hello.K)
	assert.Equal(t, "trace-ws", hello.TraceID)

	initial := readUntil(t, conn, TypeClusters)
	assert.Equal(t, 3, initial.K)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"k":5}`)))
	moved := readUntil(t, conn, TypeClusters)
	assert.Equal(t, 5, moved.K)

	var view domain.ClusterView
	require.NoError(t, json.Unmarshal(moved.Data, &view))
	assert.Equal(t, 5, view.K)
	assert.Equal(t, 5.0, view.WCSS)

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestSliderErrors(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus int
		wantType   string
	}{
		{name: "k out of range", payload: `{"k":11}`, wantStatus: http.StatusBadRequest, wantType: apierrors.TypeInvalidClusterCount},
		{name: "k missing", payload: `{}`, wantStatus: http.StatusBadRequest, wantType: apierrors.TypeValidation},
		{name: "not json", payload: `k=3`, wantStatus: http.StatusBadRequest, wantType: apierrors.TypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, url := startHub(t)
			conn := dial(t, url)
			readUntil(t, conn, TypeClusters)

			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.payload)))
			f := readUntil(t, conn, TypeError)

			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(f.Data, &problem))
			assert.Equal(t, float64(tt.wantStatus), problem["status"])
			assert.Equal(t, tt.wantType, problem["type"])
			assert.Equal(t, Path, problem["instance"])
		})
	}
}

func TestSliderReplyNotOvertakenBySlowInitialView(t *testing.T) {
	source := &fakeSource{hold: make(chan struct{})}
	_, _, url := startHubWith(t, source)
	conn := dial(t, url)

	hello := readFrame(t, conn)
	require.Equal(t, TypeConnection, hello.Type)

	// the initial k=3 view is still computing when the slider moves
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"k":5}`)))
	moved := readUntil(t, conn, TypeClusters)
	assert.Equal(t, 5, moved.K)

	close(source.hold)
	assert.Eventually(t, func() bool { return source.released.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"k":6}`)))
	next := readFrame(t, conn)
	assert.Equal(t, TypeClusters, next.Type)
	assert.Equal(t, 6, next.K, "a view for an earlier k was delivered after the reply for k=5")
}

func TestSliderRejectedKeepsCurrentK(t *testing.T) {
	hub, _, url := startHub(t)
	conn := dial(t, url)
	readUntil(t, conn, TypeClusters)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"k":4}`)))
	readUntil(t, conn, TypeClusters)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"k":11}`)))
	rejected := readUntil(t, conn, TypeError)
	assert.Equal(t, 11, rejected.K)
	assert.Eventually(t, func() bool {
		clients := hub.snapshot()
		return len(clients) == 1 && clients[0].K() == 4
	}, time.Second, 10*time.Millisecond)

	hub.Refresh("v2")
	pushed := readUntil(t, conn, TypeClusters)
	assert.Equal(t, 4, pushed.K)
}

func TestHubRefreshPushesCurrentK(t *testing.T) {
	hub, source, url := startHub(t)
	conn := dial(t, url)
	readUntil(t, conn, TypeClusters)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"k":4}`)))
	readUntil(t, conn, TypeClusters)
	before := source.calls.Load()

	hub.Refresh("v2")
	pushed := readUntil(t, conn, TypeClusters)
	assert.Equal(t, 4, pushed.K)
	assert.Greater(t, source.calls.Load(), before)
}

func TestHubStopClosesSessions(t *testing.T) {
	hub, _, url := startHub(t)
	conn := dial(t, url)
	readUntil(t, conn, TypeClusters)

	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestHubConfigNormalized(t *testing.T) {
	cfg := HubConfig{PingPeriod: time.Minute, PongWait: 30 * time.Second}.normalized()
	assert.Less(t, cfg.PingPeriod, cfg.PongWait)
	assert.Equal(t, int64(512), cfg.MaxMessageSize)
	assert.Equal(t, 16, cfg.SendBuffer)
}
