package services

import "context"

type contextKey string

const (
	slotKey      contextKey = "slot"
	attemptIDKey contextKey = "attempt_id"
	requestIDKey contextKey = "request_id"
)

// WithSlot annotates context with the HH:MM upload slot being processed.
func WithSlot(ctx context.Context, slot string) context.Context {
	if slot == "" {
		return ctx
	}
	return context.WithValue(ctx, slotKey, slot)
}

// SlotFromContext returns the upload slot if present.
func SlotFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(slotKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithAttemptID annotates context with the upload attempt identifier.
func WithAttemptID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, attemptIDKey, id)
}

// AttemptIDFromContext extracts the upload attempt identifier if present.
func AttemptIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(attemptIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
