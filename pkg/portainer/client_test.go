// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package portainer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pserrors "github.com/nasops/proxysync/pkg/errors"
)

// fakePortainer serves the subset of the Portainer API the client uses.
type fakePortainer struct {
	password   string
	endpoints  string
	stacks     string
	containers map[string]string
	failing    map[string]int
	authCalls  atomic.Int32
	expireOnce atomic.Bool
}

func (f *fakePortainer) handler(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if f.expireOnce.CompareAndSwap(true, false) || r.Header.Get("Authorization") != "Bearer token-123" {
			writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthorized"}`)
			return false
		}
		return true
	}

	mux.HandleFunc("POST /api/auth", func(w http.ResponseWriter, r *http.Request) {
		f.authCalls.Add(1)
		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, `{"message":"Invalid request payload"}`)
			return
		}
		if req.Username != "admin" || req.Password != f.password {
			writeJSON(w, http.StatusUnprocessableEntity, `{"message":"Invalid credentials"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"jwt":"token-123"}`)
	})
	mux.HandleFunc("GET /api/endpoints", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			writeJSON(w, http.StatusOK, f.endpoints)
		}
	})
	mux.HandleFunc("GET /api/stacks", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			writeJSON(w, http.StatusOK, f.stacks)
		}
	})
	mux.HandleFunc("GET /api/endpoints/{id}/docker/containers/json", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		assert.Equal(t, "true", r.URL.Query().Get("all"))
		id := r.PathValue("id")
		if status, ok := f.failing[id]; ok {
			writeJSON(w, status, `{"message":"environment unreachable"}`)
			return
		}
		writeJSON(w, http.StatusOK, f.containers[id])
	})
	return mux
}

const containersEndpoint1 = `[
  {"Id":"a1","Names":["/portainer"],"Image":"portainer/portainer-ce","State":"running",
   "Labels":{},"Ports":[{"PrivatePort":9000,"PublicPort":9000,"Type":"tcp"},{"PrivatePort":8000,"PublicPort":8000,"Type":"tcp"},{"PrivatePort":9000,"PublicPort":9000,"Type":"tcp","IP":"::"}]},
  {"Id":"a2","Names":["/media-sonarr-1"],"Image":"lscr.io/linuxserver/sonarr","State":"exited",
   "Labels":{"com.docker.compose.project":"media","com.docker.compose.service":"sonarr"},"Ports":[]},
  {"Id":"a3","Names":[],"Image":"busybox","State":"created"}
]`

const containersEndpoint2 = `[
  {"Id":"b1","Names":["/gitea"],"Image":"gitea/gitea","State":"running",
   "Labels":{"com.docker.compose.project":"dev"},"Ports":[{"PrivatePort":3000,"PublicPort":3000,"Type":"tcp"}]}
]`

func newFakePortainer() *fakePortainer {
	return &fakePortainer{
		password:  "secret",
		endpoints: `[{"Id":1,"Name":"local","Status":1},{"Id":2,"Name":"edge","Status":1}]`,
		stacks:    `[{"Id":10,"Name":"media","EndpointId":1},{"Id":11,"Name":"dev","EndpointId":2}]`,
		containers: map[string]string{
			"1": containersEndpoint1,
			"2": containersEndpoint2,
		},
		failing: map[string]int{},
	}
}

func startServer(t *testing.T, f *fakePortainer) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ListContainers(t *testing.T) {
	t.Parallel()

	f := newFakePortainer()
	srv := startServer(t, f)
	c := NewClient(srv.URL+"/", "admin", "secret", srv.Client())

	raw, err := c.ListContainers(context.Background())
	require.NoError(t, err)
	require.Len(t, raw, 3)

	assert.Equal(t, "portainer", raw[0].Name)
	assert.Equal(t, []int{8000, 9000}, raw[0].Ports)
	assert.Equal(t, "local", raw[0].Endpoint)
	assert.Empty(t, raw[0].Stack)

	assert.Equal(t, "media-sonarr-1", raw[1].Name)
	assert.Equal(t, "media", raw[1].Stack)
	assert.Equal(t, "sonarr", raw[1].Service)
	assert.Equal(t, "exited", raw[1].State)

	assert.Equal(t, "gitea", raw[2].Name)
	assert.Equal(t, "edge", raw[2].Endpoint)
	assert.Equal(t, int32(1), f.authCalls.Load())
}

func TestClient_ListContainers_EndpointFilter(t *testing.T) {
	t.Parallel()

	srv := startServer(t, newFakePortainer())
	c := NewClient(srv.URL, "admin", "secret", srv.Client(), WithEndpointIDs(2))

	raw, err := c.ListContainers(context.Background())
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, "gitea", raw[0].Name)
}

func TestClient_ListContainers_SkipsFailedEndpoint(t *testing.T) {
	t.Parallel()

	f := newFakePortainer()
	f.failing["2"] = http.StatusBadGateway
	srv := startServer(t, f)
	c := NewClient(srv.URL, "admin", "secret", srv.Client())

	raw, err := c.ListContainers(context.Background())
	require.NoError(t, err)
	assert.Len(t, raw, 2)
}

func TestClient_ListContainers_AllEndpointsFail(t *testing.T) {
	t.Parallel()

	f := newFakePortainer()
	f.failing["1"] = http.StatusBadGateway
	f.failing["2"] = http.StatusBadGateway
	srv := startServer(t, f)
	c := NewClient(srv.URL, "admin", "secret", srv.Client())

	_, err := c.ListContainers(context.Background())
	require.Error(t, err)
	assert.True(t, pserrors.IsRemoteAPI(err))
	assert.Equal(t, http.StatusBadGateway, pserrors.Code(err))
}

func TestClient_ListContainers_NoEndpoints(t *testing.T) {
	t.Parallel()

	f := newFakePortainer()
	f.endpoints = `[]`
	srv := startServer(t, f)
	c := NewClient(srv.URL, "admin", "secret", srv.Client())

	raw, err := c.ListContainers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, raw)
	assert.Empty(t, raw)
}

func TestClient_Authenticate_BadCredentials(t *testing.T) {
	t.Parallel()

	srv := startServer(t, newFakePortainer())
	c := NewClient(srv.URL, "admin", "wrong", srv.Client())

	_, err := c.ListContainers(context.Background())
	require.Error(t, err)
	assert.True(t, pserrors.IsAuthentication(err))
	assert.Contains(t, err.Error(), "(422): Invalid credentials")
}

func TestClient_ReauthenticatesOnExpiredToken(t *testing.T) {
	t.Parallel()

	f := newFakePortainer()
	srv := startServer(t, f)
	c := NewClient(srv.URL, "admin", "secret", srv.Client())
	require.NoError(t, c.Authenticate(context.Background()))

	f.expireOnce.Store(true)
	endpoints, err := c.Endpoints(context.Background())
	require.NoError(t, err)
	assert.Len(t, endpoints, 2)
	assert.Equal(t, int32(2), f.authCalls.Load())
}

func TestClient_Stacks(t *testing.T) {
	t.Parallel()

	srv := startServer(t, newFakePortainer())
	c := NewClient(srv.URL, "admin", "secret", srv.Client())

	stacks, err := c.Stacks(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stacks, 1)
	assert.Equal(t, "media", stacks[0].Name)
}

func TestClient_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "admin", "secret", http.DefaultClient)
	err := c.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, pserrors.IsTransport(err))
}

func TestEndpoint_Label(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "local", Endpoint{ID: 1, Name: "local"}.Label())
	assert.Equal(t, "7", Endpoint{ID: 7}.Label())
}
