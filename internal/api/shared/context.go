package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// ContextKey is the type for values this package stores in contexts.
type ContextKey string

const (
	// UserIDContextKey holds the authenticated user's ID, set by the
	// auth middleware.
	UserIDContextKey ContextKey = "userID"

	// TraceIDKey holds the per-request trace ID.
	TraceIDKey ContextKey = "traceID"

	traceIDBytes = 16
)

// SetTraceID attaches a fresh random trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID returns the trace ID from the context, or "" if absent.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

func generateTraceID() string {
	b := make([]byte, traceIDBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is unrecoverable for this process.
		panic("failed to read random bytes for trace ID: " + err.Error())
	}
	return hex.EncodeToString(b)
}
