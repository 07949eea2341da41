// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package networking

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPError(t *testing.T) {
	t.Parallel()

	err := NewHTTPError(404, "http://example.com/api", "not found")

	require.Error(t, err)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 404, httpErr.StatusCode)
	assert.Equal(t, "http://example.com/api", httpErr.URL)
	assert.Equal(t, "not found", httpErr.Body)
	assert.Equal(t, "HTTP request to http://example.com/api failed with status 404", err.Error())
}

func TestIsHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   bool
	}{
		{
			name:       "matching HTTPError",
			err:        &HTTPError{StatusCode: 404, URL: "http://example.com"},
			statusCode: 404,
			expected:   true,
		},
		{
			name:       "non-matching status code",
			err:        &HTTPError{StatusCode: 404, URL: "http://example.com"},
			statusCode: 500,
			expected:   false,
		},
		{
			name:       "any HTTPError with statusCode 0",
			err:        &HTTPError{StatusCode: 403, URL: "http://example.com"},
			statusCode: 0,
			expected:   true,
		},
		{
			name:       "wrapped HTTPError",
			err:        fmt.Errorf("listing: %w", &HTTPError{StatusCode: 502}),
			statusCode: 502,
			expected:   true,
		},
		{
			name:       "non-HTTPError",
			err:        errors.New("some other error"),
			statusCode: 0,
			expected:   false,
		},
		{
			name:       "nil error",
			err:        nil,
			statusCode: 0,
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsHTTPError(tt.err, tt.statusCode))
		})
	}
}

func TestHTTPErrorClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUnauthorized(&HTTPError{StatusCode: 401}))
	assert.True(t, IsUnauthorized(&HTTPError{StatusCode: 403}))
	assert.False(t, IsUnauthorized(&HTTPError{StatusCode: 404}))

	assert.True(t, IsServerError(&HTTPError{StatusCode: 503}))
	assert.False(t, IsServerError(&HTTPError{StatusCode: 499}))
	assert.False(t, IsServerError(errors.New("plain")))
}
