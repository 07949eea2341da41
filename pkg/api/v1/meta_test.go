// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthcheckRouter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	HealthcheckRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len(), "the health check never reaches the collaborators")
}

func TestVersionRouter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	VersionRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got versionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	// Unreleased builds report the commit they were built from.
	assert.Contains(t, got.Version, "build-")

	rec = httptest.NewRecorder()
	VersionRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
