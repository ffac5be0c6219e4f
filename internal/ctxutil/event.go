// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// EventKey is the context key for the ID of the update being handled.
type EventKey struct{}

// WithEventID returns a context with the event ID embedded.
func WithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, EventKey{}, eventID)
}

// EventIDFromContext returns the event ID from context, or empty string if not set.
func EventIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(EventKey{}).(string); ok {
		return v
	}
	return ""
}
