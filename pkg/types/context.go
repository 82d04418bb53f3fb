package types

// contextKey is a private type for context values defined by this package.
type contextKey string

// Context keys attached by the HTTP layer and consumed by telemetry.
const (
	ContextKeyRequestID     contextKey = "request_id"
	ContextKeyRequestSource contextKey = "request_source"
)
