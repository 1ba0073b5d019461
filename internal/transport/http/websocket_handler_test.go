package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dropoutlens/internal/config"
	"dropoutlens/internal/infrastructure"
	ws "dropoutlens/internal/websocket"
	"dropoutlens/pkg/contracts/domain"
)

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no origin header", allowed: []string{"http://localhost:3000"}, origin: "", want: true},
		{name: "empty allow list", allowed: nil, origin: "http://any.example", want: true},
		{name: "wildcard", allowed: []string{"*"}, origin: "http://any.example", want: true},
		{name: "listed", allowed: []string{"http://localhost:3000"}, origin: "http://LOCALHOST:3000", want: true},
		{name: "not listed", allowed: []string{"http://localhost:3000"}, origin: "http://evil.example", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws/clusters", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, originChecker(tt.allowed)(r))
		})
	}
}

func TestWebSocketHandler_RoundTrip(t *testing.T) {
	logger := infrastructure.NewLogger(io.Discard, "error")

	svc := new(MockAnalysisService)
	svc.On("DefaultK").Return(3)
	svc.On("Clusters", 3).Return(&domain.ClusterView{K: 3}, nil).Maybe()
	svc.On("Clusters", 4).Return(&domain.ClusterView{K: 4}, nil)

	hub := ws.NewHub(ws.HubConfigFrom(config.Default()), svc, nil, nil, logger)
	hub.Start()
	t.Cleanup(hub.Stop)

	handler := NewWebSocketHandler(hub, config.Default().WebSocket, nil, logger)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]int{"k": 4}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg ws.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == ws.TypeClusters && msg.K == 4 {
			break
		}
	}
}
