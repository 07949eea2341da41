// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package networking

import (
	"errors"
	"net/http"

	pserrors "github.com/nasops/proxysync/pkg/errors"
)

// ClassifyError maps a fetch failure onto the typed collaborator errors.
// Errors that are already typed are returned unchanged; HTTP status errors
// become authentication, not-found or remote API errors; anything else is
// treated as a transport failure.
func ClassifyError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var typed *pserrors.Error
	if errors.As(err, &typed) {
		return err
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return pserrors.NewTransportError(msg, err)
	}
	switch {
	case IsUnauthorized(err):
		return pserrors.NewAuthenticationError(msg, err)
	case httpErr.StatusCode == http.StatusNotFound:
		return pserrors.NewNotFoundError(msg, err)
	default:
		return pserrors.NewRemoteAPIError(msg, httpErr.StatusCode, err)
	}
}
