package websocket

import (
	"context"
	"time"

	"dropoutlens/pkg/contracts/domain"
)

// Connection is the subset of *websocket.Conn used by a session. It
// allows sessions to run against fake connections in tests.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
}

// ClusterSource computes the cluster view for a cluster count
type ClusterSource interface {
	Clusters(ctx context.Context, k int) (*domain.ClusterView, error)
	DefaultK() int
}
