// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package docker reads the container inventory from a local Docker or Podman
// socket, as an alternative to going through Portainer.
package docker

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/inventory"
	"github.com/nasops/proxysync/pkg/logger"
)

// LocalEndpoint is the endpoint label attached to containers read from the
// local socket.
const LocalEndpoint = "local"

// dockerAPI is the subset of the Docker client used here.
type dockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// Client lists containers from the local container runtime.
type Client struct {
	api        dockerAPI
	socketPath string
}

// NewClient locates a container socket and verifies the runtime answers.
func NewClient(ctx context.Context) (*Client, error) {
	socketPath, err := findSocket(candidateSockets())
	if err != nil {
		return nil, errors.NewTransportError("no Docker or Podman socket found", err)
	}
	return NewClientWithSocketPath(ctx, socketPath)
}

// NewClientWithSocketPath creates a client for the socket at socketPath.
func NewClientWithSocketPath(ctx context.Context, socketPath string) (*Client, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
	}

	api, err := client.NewClientWithOpts(
		client.WithAPIVersionNegotiation(),
		client.WithHTTPClient(httpClient),
		client.WithHost("unix://"+socketPath),
	)
	if err != nil {
		return nil, errors.NewTransportError(fmt.Sprintf("failed to create client for %s", socketPath), err)
	}

	c := &Client{api: api, socketPath: socketPath}
	if err := c.ping(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// SocketPath returns the socket the client talks to.
func (c *Client) SocketPath() string {
	return c.socketPath
}

func (c *Client) ping(ctx context.Context) error {
	if _, err := c.api.Ping(ctx); err != nil {
		return classifyError(fmt.Sprintf("failed to ping container runtime at %s", c.socketPath), err)
	}
	return nil
}

// ListContainers returns every container, running or not, as raw inventory
// descriptors.
func (c *Client) ListContainers(ctx context.Context) ([]inventory.RawContainer, error) {
	summaries, err := c.api.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, classifyError("failed to list containers", err)
	}

	raw := FromSummaries(summaries, LocalEndpoint)
	logger.Debugf("Listed %d containers from %s", len(raw), c.socketPath)
	return raw, nil
}

// classifyError maps a Docker SDK error onto the error kinds callers branch on.
func classifyError(message string, err error) error {
	switch {
	case errdefs.IsUnauthorized(err), errdefs.IsPermissionDenied(err):
		return errors.NewAuthenticationError(message, err)
	case errdefs.IsNotFound(err):
		return errors.NewNotFoundError(message, err)
	default:
		return errors.NewTransportError(message, err)
	}
}
