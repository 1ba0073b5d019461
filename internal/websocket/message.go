package websocket

import (
	"time"
)

// Message types sent to slider clients
const (
	TypeConnection = "connection"
	TypeClusters   = "clusters"
	TypeError      = "error"
)

// Request is a slider move sent by the client
type Request struct {
	K *int `json:"k" validate:"required"`
}

// Message is the envelope of every server to client frame. Data holds a
// domain.ClusterView for clusters frames and an RFC 7807 problem for
// error frames.
type Message struct {
	Type      string      `json:"type"`
	K         int         `json:"k,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
