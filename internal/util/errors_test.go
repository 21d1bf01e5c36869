package util

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		field          string
		message        string
		cause          error
		expectedString string
	}{
		{
			name:           "with field",
			field:          "catalog.urls",
			message:        "at least one backend URL required",
			expectedString: "config error at catalog.urls: at least one backend URL required",
		},
		{
			name:           "without field",
			message:        "invalid configuration",
			expectedString: "config error: invalid configuration",
		},
		{
			name:           "with cause",
			field:          "port",
			message:        "invalid port",
			cause:          errors.New("port out of range"),
			expectedString: "config error at port: invalid port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var err *ConfigError
			if tt.cause != nil {
				err = NewConfigErrorWithCause(tt.field, tt.message, tt.cause)
			} else {
				err = NewConfigError(tt.field, tt.message)
			}

			assert.Equal(t, tt.expectedString, err.Error())
			assert.Equal(t, tt.field, err.Field)
			assert.Equal(t, tt.cause, err.Unwrap())
		})
	}
}

func TestConfigError_Is(t *testing.T) {
	t.Parallel()

	err := NewConfigError("field", "message")

	assert.True(t, err.Is(&ConfigError{}))
	assert.True(t, errors.Is(err, ErrConfigInvalid))
	assert.False(t, err.Is(errors.New("other error")))

	cause := errors.New("bad level")
	errWithCause := NewConfigErrorWithCause("field", "message", cause)
	assert.True(t, errors.Is(errWithCause, cause))
}

func TestRouteNotFoundError(t *testing.T) {
	t.Parallel()

	err := NewRouteNotFoundError("GET", "/nonexistent")

	assert.Equal(t, "no route found for GET /nonexistent", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, err.Is(&RouteNotFoundError{}))
	assert.False(t, errors.Is(err, ErrBackendUnavail))
}

func TestBackendError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewBackendErrorWithCause("catalog", "http://catalog-1:8080", "unavailable", cause)

	assert.Equal(t, "backend catalog error: unavailable: connection refused", err.Error())
	assert.Equal(t, "http://catalog-1:8080", err.Target)
	assert.True(t, errors.Is(err, ErrBackendUnavail))
	assert.True(t, errors.Is(err, cause))

	plain := NewBackendError("order", "no hosts")
	assert.Equal(t, "backend order error: no hosts", plain.Error())
	assert.Nil(t, plain.Unwrap())

	wrapped := fmt.Errorf("dispatch: %w", plain)
	var be *BackendError
	assert.True(t, errors.As(wrapped, &be))
	assert.Equal(t, "order", be.Backend)
}
