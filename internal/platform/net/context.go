// Package net holds the request scoped values and the reply envelope shared by the HTTP layers
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const (
	keySessionKey ctxKey = iota
	keyUserID
)

// WithRequestID stores id where chi's middleware.GetReqID finds it
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, id)
}

// WithPrincipal stores the resolved caller and the session key it came from.
// Anonymous callers have no session key
func WithPrincipal(ctx context.Context, who, sessionKey string) context.Context {
	if who != "" {
		ctx = context.WithValue(ctx, keyUserID, who)
	}
	if sessionKey != "" {
		ctx = context.WithValue(ctx, keySessionKey, sessionKey)
	}
	return ctx
}

// RequestID returns the request id, "" when none was assigned
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// SessionKey returns the caller's bearer session key
func SessionKey(ctx context.Context) string {
	s, _ := ctx.Value(keySessionKey).(string)
	return s
}

// UserID returns the caller's principal name
func UserID(ctx context.Context) string {
	s, _ := ctx.Value(keyUserID).(string)
	return s
}
