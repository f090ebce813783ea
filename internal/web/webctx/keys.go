// Package webctx stores per-request values on the request context.
package webctx

import "context"

type contextKey int

const (
	requestIDKey contextKey = iota
	orgIDKey
	subjectKey
)

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// SetRequestID adds the request ID to the context
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetOrgID returns the authenticated organization, if any
func GetOrgID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(orgIDKey).(int64)
	return id, ok
}

// SetOrgID adds the authenticated organization to the context
func SetOrgID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, orgIDKey, id)
}

// GetSubject returns the token subject (user or service name)
func GetSubject(ctx context.Context) string {
	if sub, ok := ctx.Value(subjectKey).(string); ok {
		return sub
	}
	return ""
}

// SetSubject adds the token subject to the context
func SetSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey, sub)
}
