// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package docker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/inventory"
)

func TestFromSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		summary container.Summary
		want    inventory.RawContainer
		wantOK  bool
	}{
		{
			name: "compose container",
			summary: container.Summary{
				Names: []string{"/sonarr"},
				Image: "lscr.io/linuxserver/sonarr:latest",
				State: "running",
				Labels: map[string]string{
					LabelComposeProject: "media",
					LabelComposeService: "sonarr",
				},
				Ports: []container.Port{
					{PrivatePort: 9898, PublicPort: 9898, Type: "tcp"},
					{PrivatePort: 8989, PublicPort: 8989, Type: "tcp"},
					{PrivatePort: 8989, PublicPort: 8989, Type: "tcp", IP: "::"},
					{PrivatePort: 9898, Type: "tcp"},
				},
			},
			want: inventory.RawContainer{
				Name:     "sonarr",
				Stack:    "media",
				Service:  "sonarr",
				State:    "running",
				Ports:    []int{8989, 9898},
				Image:    "lscr.io/linuxserver/sonarr:latest",
				Endpoint: "2",
			},
			wantOK: true,
		},
		{
			name: "standalone container without ports",
			summary: container.Summary{
				Names: []string{"/redis"},
				Image: "redis:7",
				State: "exited",
			},
			want: inventory.RawContainer{
				Name:     "redis",
				State:    "exited",
				Image:    "redis:7",
				Endpoint: "2",
			},
			wantOK: true,
		},
		{
			name:    "no names",
			summary: container.Summary{Image: "busybox"},
		},
		{
			name:    "empty name",
			summary: container.Summary{Names: []string{"/"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := FromSummary(tt.summary, "2")
			assert.Equal(t, tt.wantOK, ok)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FromSummary mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClient_ListContainers(t *testing.T) {
	t.Parallel()

	var gotOptions container.ListOptions
	api := &fakeDockerAPI{
		listFunc: func(_ context.Context, options container.ListOptions) ([]container.Summary, error) {
			gotOptions = options
			return []container.Summary{
				{Names: []string{"/portainer"}, Image: "portainer/portainer-ce", State: "running",
					Ports: []container.Port{{PrivatePort: 9000, PublicPort: 9000, Type: "tcp"}}},
				{Image: "dangling"},
			}, nil
		},
	}
	c := &Client{api: api, socketPath: "/var/run/docker.sock"}

	raw, err := c.ListContainers(context.Background())
	require.NoError(t, err)
	assert.True(t, gotOptions.All, "stopped containers must be listed too")
	require.Len(t, raw, 1)
	assert.Equal(t, "portainer", raw[0].Name)
	assert.Equal(t, []int{9000}, raw[0].Ports)
	assert.Equal(t, LocalEndpoint, raw[0].Endpoint)
}

func TestClient_ListContainersError(t *testing.T) {
	t.Parallel()

	api := &fakeDockerAPI{
		listFunc: func(context.Context, container.ListOptions) ([]container.Summary, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}
	c := &Client{api: api}

	_, err := c.ListContainers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

func TestClient_Ping(t *testing.T) {
	t.Parallel()

	c := &Client{api: &fakeDockerAPI{
		pingFunc: func(context.Context) (types.Ping, error) {
			return types.Ping{}, fmt.Errorf("no such host")
		},
	}, socketPath: "/nope.sock"}

	err := c.ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
	assert.Contains(t, err.Error(), "/nope.sock")
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cause error
		check func(error) bool
	}{
		{"permission denied", fmt.Errorf("dial: %w", errdefs.ErrPermissionDenied), errors.IsAuthentication},
		{"unauthorized", errdefs.ErrUnauthenticated, errors.IsAuthentication},
		{"not found", errdefs.ErrNotFound, errors.IsNotFound},
		{"anything else", fmt.Errorf("connection reset"), errors.IsTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := classifyError("failed to list containers", tt.cause)
			assert.True(t, tt.check(err), "unexpected classification: %v", err)
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestFindSocket(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	present := filepath.Join(dir, "docker.sock")
	require.NoError(t, os.WriteFile(present, nil, 0600))

	got, err := findSocket([]string{filepath.Join(dir, "podman.sock"), present})
	require.NoError(t, err)
	assert.Equal(t, present, got)

	_, err = findSocket([]string{filepath.Join(dir, "missing.sock")})
	assert.ErrorIs(t, err, ErrSocketNotFound)
}

func TestCandidateSockets(t *testing.T) { //nolint:paralleltest // sets environment variables
	t.Setenv(SocketEnv, "/custom/docker.sock")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	t.Setenv("HOME", "/home/nas")

	want := []string{
		"/custom/docker.sock",
		PodmanSocketPath,
		"/run/user/1000/podman/podman.sock",
		"/home/nas/.local/share/containers/podman/machine/podman.sock",
		DockerSocketPath,
		"/home/nas/.docker/run/docker.sock",
	}
	assert.Equal(t, want, candidateSockets())
}
