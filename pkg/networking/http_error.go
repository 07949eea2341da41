// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package networking

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError represents a non-200 HTTP response.
type HTTPError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Body is a preview of the response body.
	Body string

	// URL is the requested URL without its query string.
	URL string
}

// Error implements the error interface. The body is left out so that
// remote error pages never end up in log lines.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP request to %s failed with status %d", e.URL, e.StatusCode)
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, url, body string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Body:       body,
	}
}

// IsHTTPError checks if an error is an HTTPError with the specified status code.
// If statusCode is 0, it matches any HTTPError.
func IsHTTPError(err error, statusCode int) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	if statusCode == 0 {
		return true
	}
	return httpErr.StatusCode == statusCode
}

// IsUnauthorized reports whether err is a 401 or 403 HTTPError.
func IsUnauthorized(err error) bool {
	return IsHTTPError(err, http.StatusUnauthorized) || IsHTTPError(err, http.StatusForbidden)
}

// IsServerError reports whether err is an HTTPError with a 5xx status.
func IsServerError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode >= http.StatusInternalServerError
}
