// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package portainer reads the container inventory of every Docker
// environment managed by a Portainer instance.
package portainer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/docker/docker/api/types/container"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/nasops/proxysync/pkg/container/docker"
	pserrors "github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/inventory"
	"github.com/nasops/proxysync/pkg/logger"
	"github.com/nasops/proxysync/pkg/networking"
)

// maxConcurrentEndpoints bounds the number of environments queried at once.
const maxConcurrentEndpoints = 4

// Endpoint is a Docker environment managed by Portainer.
type Endpoint struct {
	ID     int    `json:"Id"`
	Name   string `json:"Name"`
	URL    string `json:"URL"`
	Status int    `json:"Status"`
}

// Label returns the name used to tag containers found in the endpoint.
func (e Endpoint) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return strconv.Itoa(e.ID)
}

// Stack is a compose stack deployed through Portainer.
type Stack struct {
	ID         int    `json:"Id"`
	Name       string `json:"Name"`
	EndpointID int    `json:"EndpointId"`
	Status     int    `json:"Status"`
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	JWT string `json:"jwt"`
}

// Client talks to the Portainer HTTP API.
type Client struct {
	baseURL     string
	username    string
	password    string
	httpClient  networking.HTTPClient
	endpointIDs []int

	mu    sync.Mutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithEndpointIDs restricts the inventory to the given environments.
func WithEndpointIDs(ids ...int) Option {
	return func(c *Client) {
		c.endpointIDs = ids
	}
}

// NewClient creates a Portainer client. No request is made until the first call.
func NewClient(baseURL, username, password string, httpClient networking.HTTPClient, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate exchanges the credentials for a JWT used on every later request.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(authRequest{Username: c.username, Password: c.password})
	if err != nil {
		return fmt.Errorf("failed to encode auth request: %w", err)
	}

	logger.Debugf("Authenticating to Portainer at %s as %s", c.baseURL, c.username)
	result, err := networking.FetchJSON[authResponse](ctx, c.httpClient, c.baseURL+"/api/auth",
		networking.WithMethod(http.MethodPost),
		networking.WithJSONBody(body),
		networking.WithErrorHandler(authErrorHandler),
	)
	if err != nil {
		return networking.ClassifyError(err, "Portainer authentication failed")
	}
	if result.Data.JWT == "" {
		return pserrors.NewAuthenticationError("Portainer authentication failed: no token in response", nil)
	}

	c.mu.Lock()
	c.token = result.Data.JWT
	c.mu.Unlock()
	return nil
}

func authErrorHandler(resp *http.Response, body []byte) error {
	msg := gjson.GetBytes(body, "message").String()
	if msg == "" {
		msg = "Unknown error"
	}
	text := fmt.Sprintf("Portainer authentication failed (%d): %s", resp.StatusCode, msg)
	if resp.StatusCode >= http.StatusInternalServerError {
		return pserrors.NewRemoteAPIError(text, resp.StatusCode, nil)
	}
	return pserrors.NewAuthenticationError(text, nil)
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) ensureAuthenticated(ctx context.Context) error {
	if c.currentToken() != "" {
		return nil
	}
	return c.Authenticate(ctx)
}

// getJSON performs an authenticated GET. An expired token is renewed once.
func getJSON[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var zero T
	if err := c.ensureAuthenticated(ctx); err != nil {
		return zero, err
	}

	fetch := func() (*networking.FetchResult[T], error) {
		opts := []networking.FetchOption{networking.WithBearerToken(c.currentToken())}
		if len(query) > 0 {
			opts = append(opts, networking.WithQuery(query))
		}
		return networking.FetchJSON[T](ctx, c.httpClient, c.baseURL+path, opts...)
	}

	result, err := fetch()
	if err != nil && networking.IsHTTPError(err, http.StatusUnauthorized) {
		logger.Debugf("Portainer token rejected, re-authenticating")
		if authErr := c.Authenticate(ctx); authErr != nil {
			return zero, authErr
		}
		result, err = fetch()
	}
	if err != nil {
		return zero, networking.ClassifyError(err, fmt.Sprintf("Portainer request %s failed", path))
	}
	return result.Data, nil
}

// Endpoints lists every environment visible to the user.
func (c *Client) Endpoints(ctx context.Context) ([]Endpoint, error) {
	return getJSON[[]Endpoint](ctx, c, "/api/endpoints", nil)
}

// Stacks lists the stacks deployed to the given environment. Portainer
// returns every stack, so the list is filtered here.
func (c *Client) Stacks(ctx context.Context, endpointID int) ([]Stack, error) {
	all, err := getJSON[[]Stack](ctx, c, "/api/stacks", nil)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(s Stack) bool { return s.EndpointID != endpointID }), nil
}

// Containers lists all containers of an environment, stopped ones included.
func (c *Client) Containers(ctx context.Context, endpointID int) ([]container.Summary, error) {
	path := fmt.Sprintf("/api/endpoints/%d/docker/containers/json", endpointID)
	return getJSON[[]container.Summary](ctx, c, path, url.Values{"all": []string{"true"}})
}

// ListContainers returns the containers of every selected environment as raw
// inventory descriptors. An environment that cannot be read is skipped with
// a warning; an error is returned only when none could be read.
func (c *Client) ListContainers(ctx context.Context) ([]inventory.RawContainer, error) {
	endpoints, err := c.Endpoints(ctx)
	if err != nil {
		return nil, err
	}
	if len(c.endpointIDs) > 0 {
		endpoints = slices.DeleteFunc(endpoints, func(e Endpoint) bool {
			return !slices.Contains(c.endpointIDs, e.ID)
		})
	}
	if len(endpoints) == 0 {
		logger.Warnf("Portainer at %s has no matching endpoints", c.baseURL)
		return []inventory.RawContainer{}, nil
	}

	perEndpoint := make([][]inventory.RawContainer, len(endpoints))
	failures := make([]error, len(endpoints))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentEndpoints)
	for i, ep := range endpoints {
		g.Go(func() error {
			summaries, err := c.Containers(gCtx, ep.ID)
			if err != nil {
				logger.Warnf("Skipping Portainer endpoint %s: %v", ep.Label(), err)
				failures[i] = err
				return nil
			}
			perEndpoint[i] = docker.FromSummaries(summaries, ep.Label())
			logger.Debugf("Listed %d containers from Portainer endpoint %s", len(perEndpoint[i]), ep.Label())
			return nil
		})
	}
	_ = g.Wait()

	var raw []inventory.RawContainer
	failed := 0
	for i := range endpoints {
		if failures[i] != nil {
			failed++
			continue
		}
		raw = append(raw, perEndpoint[i]...)
	}
	if failed == len(endpoints) {
		return nil, failures[0]
	}
	if raw == nil {
		raw = []inventory.RawContainer{}
	}
	return raw, nil
}
