package middleware

// HTTP header constants.
const (
	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"

	// HeaderRetryAfter is the Retry-After header name.
	HeaderRetryAfter = "Retry-After"

	// HeaderOrigin is the Origin header name.
	HeaderOrigin = "Origin"

	// RequestIDHeader is the header name for request ID.
	RequestIDHeader = "X-Request-ID"
)

// Gin context keys.
const (
	// RequestIDKey is the gin context key for request ID.
	RequestIDKey = "requestID"

	// SpanKey is the gin context key for the server span.
	SpanKey = "otel-span"
)

// Error messages written by middleware.
const (
	msgInternalError   = "Internal server error"
	msgTooManyRequests = "Rate limit exceeded"
	msgBodyTooLarge    = "Request body too large"
)
