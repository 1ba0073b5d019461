package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

// EnsureTraceID returns ctx carrying a trace id along with that id. An id
// already on ctx is kept; otherwise a new one is minted. Entry points that
// bypass the RequestID middleware (CLI runs, websocket sessions) call it
// so their log lines still correlate.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if traceID := GetTraceID(ctx); traceID != "" {
		return ctx, traceID
	}
	traceID := uuid.NewString()
	return WithTraceID(ctx, traceID), traceID
}
