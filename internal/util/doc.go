// Package util provides utility functions and types for the
// Bazar gateway.
//
// # Context Helpers
//
// Context utilities for request-scoped data:
//
//	ctx = util.ContextWithRequestID(ctx, "req-123")
//	requestID := util.RequestIDFromContext(ctx)
//
// # Error Types
//
// Structured error types for consistent error handling:
//
//   - ConfigError: configuration validation errors
//   - BackendError: a service family could not be reached
//   - RouteNotFoundError: no route prefix matched the request path
//
// # Validation
//
// Input validation helpers used by the configuration layer:
//
//	err := util.ValidateURL("http://catalog-service:8080")
//	err := util.ValidateNonNegativePort(9090)
package util
