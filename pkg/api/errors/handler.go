// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package errors provides HTTP error handling utilities for the API.
package errors

import (
	"net/http"

	"github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/logger"
)

// HandlerWithError is an HTTP handler that can return an error.
// This signature allows handlers to return errors instead of manually
// writing error responses, enabling centralized error handling.
type HandlerWithError func(http.ResponseWriter, *http.Request) error

// StatusCode maps a collaborator error onto the HTTP status returned to
// dashboard clients. Failures of the upstream APIs are reported as gateway
// errors since the dashboard itself is working.
func StatusCode(err error) int {
	switch {
	case errors.IsInvalidArgument(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsAuthentication(err), errors.IsRemoteAPI(err):
		return http.StatusBadGateway
	case errors.IsTransport(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler wraps a HandlerWithError and converts returned errors
// into appropriate HTTP responses.
//
// The decorator:
//   - Returns early if no error is returned (handler already wrote response)
//   - Maps the error type to an HTTP status code with StatusCode
//   - For 500 errors: logs full error details, returns generic message to client
//   - Otherwise: returns error message to client
//
// Usage:
//
//	r.Get("/", apierrors.ErrorHandler(routes.getReport))
func ErrorHandler(fn HandlerWithError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			// No error returned, handler already wrote the response
			return
		}

		code := StatusCode(err)
		if code == http.StatusInternalServerError {
			logger.Errorf("Internal server error: %v", err)
			http.Error(w, http.StatusText(code), code)
			return
		}

		logger.Warnf("Request %s %s failed: %v", r.Method, r.URL.Path, err)
		http.Error(w, err.Error(), code)
	}
}
