package http

import "context"

type contextKey string

const (
	requestIDContextKey contextKey = "portfolio/request-id"
	demoSlugContextKey  contextKey = "portfolio/demo-slug"
)

// RequestIDFromContext extracts the request identifier from the context when available.
func RequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestIDContextKey)
}

// DemoSlugFromContext returns the slug of the demo a request targets, or "" for
// routes that are not about a single demo.
func DemoSlugFromContext(ctx context.Context) string {
	return stringFromContext(ctx, demoSlugContextKey)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(key).(string); ok {
		return value
	}
	return ""
}
