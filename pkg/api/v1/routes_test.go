// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/inventory"
	"github.com/nasops/proxysync/pkg/reconcile"
	"github.com/nasops/proxysync/pkg/rules"
	"github.com/nasops/proxysync/pkg/syncer"
	"github.com/nasops/proxysync/pkg/validation"
)

type fakeService struct {
	snap syncer.Snapshot
	err  error
}

func (f *fakeService) Services(context.Context) ([]inventory.ServiceRecord, error) {
	return f.snap.Services, f.err
}

func (f *fakeService) Snapshot(context.Context) (syncer.Snapshot, error) {
	return f.snap, f.err
}

func (*fakeService) ReportFor(snap syncer.Snapshot) reconcile.Report {
	return reconcile.Reconcile(snap.Services, snap.Rules, "home.example.com")
}

func (f *fakeService) Validate(_ context.Context, candidate rules.ProxyRule) (validation.Result, error) {
	if f.err != nil {
		return validation.Result{}, f.err
	}
	return validation.ValidateRule(candidate, f.snap.Rules, 8000), nil
}

func testSnapshot() syncer.Snapshot {
	return syncer.Snapshot{
		Services: []inventory.ServiceRecord{
			{Name: "sonarr", State: inventory.StateRunning, Ports: []int{8989}, ResolvedPort: 8989, NeedsProxy: true},
			{Name: "radarr", State: inventory.StateRunning, Ports: []int{7878}, ResolvedPort: 7878, NeedsProxy: true},
			{Name: "redis", State: inventory.StateRunning, Ports: []int{6379}, ResolvedPort: 6379},
			{Name: "lidarr", State: inventory.StateStopped, Ports: []int{8686}, ResolvedPort: 8686, NeedsProxy: true},
		},
		Rules: []rules.ProxyRule{
			{
				ID: "a", Description: "sonarr", FrontendDomain: "sonarr.home.example.com", FrontendPort: 443,
				BackendHost: "localhost", BackendPort: 8989,
			},
		},
	}
}

func TestListServices(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantNames  []string
	}{
		{name: "no filter", wantStatus: http.StatusOK, wantNames: []string{"sonarr", "radarr", "redis", "lidarr"}},
		{name: "running", query: "?state=running", wantStatus: http.StatusOK, wantNames: []string{"sonarr", "radarr", "redis"}},
		{name: "needs proxy", query: "?needs_proxy=false", wantStatus: http.StatusOK, wantNames: []string{"redis"}},
		{name: "search", query: "?search=ARR&state=stopped", wantStatus: http.StatusOK, wantNames: []string{"lidarr"}},
		{name: "bad state", query: "?state=paused", wantStatus: http.StatusBadRequest},
		{name: "bad needs_proxy", query: "?needs_proxy=maybe", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeService{snap: testSnapshot()}
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			rec := httptest.NewRecorder()
			InventoryRouter(svc).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp inventoryResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			names := make([]string, 0, len(resp.Services))
			for _, s := range resp.Services {
				names = append(names, s.Name)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, 4, resp.Stats.Total, "stats cover the unfiltered inventory")
			assert.NotNil(t, resp.Conflicts)
		})
	}
}

func TestListServices_SourceError(t *testing.T) {
	t.Parallel()

	svc := &fakeService{err: errors.NewTransportError("portainer unreachable", nil)}
	rec := httptest.NewRecorder()
	InventoryRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "portainer unreachable")
}

func TestGetReport(t *testing.T) {
	t.Parallel()

	svc := &fakeService{snap: testSnapshot()}
	rec := httptest.NewRecorder()
	ReportRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp reportResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, reconcile.Summary{Missing: 1, InSync: 1}, resp.Summary)
	require.Len(t, resp.Report.Missing, 1)
	assert.Equal(t, "radarr", resp.Report.Missing[0].Service.Name)
	assert.Equal(t, "radarr.home.example.com", resp.Report.Missing[0].Suggested.FrontendDomain)
	assert.Empty(t, resp.SharedPorts)
}

func TestGetReport_Error(t *testing.T) {
	t.Parallel()

	svc := &fakeService{err: errors.NewAuthenticationError("bad credentials", nil)}
	rec := httptest.NewRecorder()
	ReportRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestValidateRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantValid  bool
	}{
		{
			name: "valid rule",
			body: `{"description":"radarr","frontend_domain":"radarr.home.example.com",` +
				`"backend_host":"localhost","backend_port":7878}`,
			wantStatus: http.StatusOK,
			wantValid:  true,
		},
		{
			name: "duplicate description",
			body: `{"description":"Sonarr","frontend_domain":"tv.home.example.com",` +
				`"backend_host":"localhost","backend_port":7000}`,
			wantStatus: http.StatusOK,
			wantValid:  false,
		},
		{
			name:       "malformed json",
			body:       `{"description":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"descr":"radarr"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeService{snap: testSnapshot()}
			req := httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			RulesRouter(svc).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			var result validation.Result
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
			assert.Equal(t, tt.wantValid, result.IsValid, result.Errors)
		})
	}
}
