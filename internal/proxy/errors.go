package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Sentinel errors for proxy operations.
var (
	// ErrNoHost indicates that no backend host was supplied.
	ErrNoHost = errors.New("no backend host")

	// ErrUpstreamTimeout indicates that the upstream request timed out.
	ErrUpstreamTimeout = errors.New("upstream request timed out")

	// ErrUpstreamUnavailable indicates that the upstream could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Error type labels used for metrics.
const (
	errorTypeConnectionRefused = "connection_refused"
	errorTypeTimeout           = "timeout"
	errorTypeCanceled          = "canceled"
	errorTypeReadBody          = "read_body"
	errorTypeOther             = "other"
)

// ProxyError represents a failed forwarding operation.
type ProxyError struct {
	Op      string // Operation that failed
	Family  string // Service family ("catalog", "order")
	Target  string // Backend instance URL
	Message string // Human-readable message
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *ProxyError) Error() string {
	if e.Target != "" {
		return e.formatWithTarget()
	}
	return e.formatBasic()
}

func (e *ProxyError) formatWithTarget() string {
	if e.Cause != nil {
		return fmt.Sprintf("proxy error [%s] family=%s target=%s: %s: %v",
			e.Op, e.Family, e.Target, e.Message, e.Cause)
	}
	return fmt.Sprintf("proxy error [%s] family=%s target=%s: %s",
		e.Op, e.Family, e.Target, e.Message)
}

func (e *ProxyError) formatBasic() string {
	if e.Cause != nil {
		return fmt.Sprintf("proxy error [%s] family=%s: %s: %v", e.Op, e.Family, e.Message, e.Cause)
	}
	return fmt.Sprintf("proxy error [%s] family=%s: %s", e.Op, e.Family, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProxyError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ProxyError) Is(target error) bool {
	_, ok := target.(*ProxyError)
	return ok || errors.Is(e.Cause, target)
}

// NewProxyError creates a new ProxyError.
func NewProxyError(op, family, target, message string, cause error) *ProxyError {
	return &ProxyError{
		Op:      op,
		Family:  family,
		Target:  target,
		Message: message,
		Cause:   cause,
	}
}

// IsProxyError checks if an error is a ProxyError.
func IsProxyError(err error) bool {
	var proxyErr *ProxyError
	return errors.As(err, &proxyErr)
}

// classifyError maps a transport error to a metrics label.
func classifyError(err error) string {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return errorTypeConnectionRefused
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrUpstreamTimeout):
		return errorTypeTimeout
	case errors.Is(err, context.Canceled):
		return errorTypeCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errorTypeTimeout
	}
	return errorTypeOther
}
