// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"

	"github.com/manyidi1774/LegalBuddy/internal/model"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// OwnerIDKey is the context key for the session owner.
	OwnerIDKey ContextKey = "owner_id"
	// CorrelationIDKey is the context key for correlation ID.
	CorrelationIDKey ContextKey = "correlation_id"
)

// WithOwnerID returns a copy of ctx carrying the owner identity.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, OwnerIDKey, ownerID)
}

// OwnerID returns the owner attached by the session middleware, or
// model.AnonymousOwner when the request has no session. Every handler
// resolves the owner through this function.
func OwnerID(ctx context.Context) string {
	if v, ok := ctx.Value(OwnerIDKey).(string); ok && v != "" {
		return v
	}
	return model.AnonymousOwner
}

// WithCorrelationID returns a copy of ctx carrying the correlation ID.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// GetCorrelationID gets correlation ID from context.
func GetCorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return v
	}
	return ""
}
