// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package synology manages the reverse proxy rules of a Synology DSM
// gateway through its web API.
package synology

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	pserrors "github.com/nasops/proxysync/pkg/errors"
	"github.com/nasops/proxysync/pkg/logger"
	"github.com/nasops/proxysync/pkg/networking"
	"github.com/nasops/proxysync/pkg/rules"
)

const (
	authPath        = "/webapi/auth.cgi"
	reverseProxyAPI = "SYNO.Core.AppPortal.ReverseProxy"
	reverseProxyURL = "/webapi/entry.cgi/" + reverseProxyAPI
	sessionName     = "ReverseProxy"
	tokenHeader     = "X-SYNO-TOKEN"
	formContentType = "application/x-www-form-urlencoded; charset=UTF-8"
)

// DSM error codes.
const (
	CodeInvalidParameter     = 101
	CodePermissionDenied     = 105
	CodeSessionTimeout       = 106
	CodeDuplicateLogin       = 107
	CodeSessionNotFound      = 119
	CodeIncorrectCredentials = 400
	CodeAccountDisabled      = 401
	CodeLoginDenied          = 402
	CodeOTPRequired          = 403
	CodeOTPFailed            = 404
	CodeDomainRejected       = 4154
)

var codeMessages = map[int]string{
	CodeInvalidParameter:     "invalid parameter format",
	CodePermissionDenied:     "permission denied",
	CodeSessionTimeout:       "session timed out",
	CodeDuplicateLogin:       "session interrupted by a duplicate login",
	CodeSessionNotFound:      "session not found",
	CodeIncorrectCredentials: "no such account or incorrect password",
	CodeAccountDisabled:      "account disabled",
	CodeLoginDenied:          "permission denied",
	CodeOTPRequired:          "2-step verification code required",
	CodeOTPFailed:            "failed to authenticate 2-step verification code",
	CodeDomainRejected:       "domain may already exist, be invalid, or not under your Synology account",
}

// CodeMessage returns a readable description of a DSM error code.
func CodeMessage(code int) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("error code %d", code)
}

func isSessionError(code int) bool {
	return code == CodeSessionTimeout || code == CodeDuplicateLogin || code == CodeSessionNotFound
}

// Client talks to the DSM web API. The login session lives in a cookie, so
// the HTTP client must carry a cookie jar (see
// networking.HttpClientBuilder.WithCookieJar).
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient networking.HTTPClient

	mu       sync.Mutex
	token    string
	loggedIn bool
}

// NewClient creates a DSM client. No request is made until the first call.
func NewClient(baseURL, username, password string, httpClient networking.HTTPClient) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: httpClient,
	}
}

// Login opens a session and stores the anti-CSRF token sent on later calls.
func (c *Client) Login(ctx context.Context) error {
	query := url.Values{
		"api":     []string{"SYNO.API.Auth"},
		"version": []string{"7"},
		"method":  []string{"login"},
		"account": []string{c.username},
		"passwd":  []string{c.password},
		"session": []string{sessionName},
		"format":  []string{"cookie"},
	}

	logger.Debugf("Logging in to DSM at %s as %s", c.baseURL, c.username)
	result, err := networking.FetchBytes(ctx, c.httpClient, c.baseURL+authPath, networking.WithQuery(query))
	if err != nil {
		return networking.ClassifyError(err, "DSM login failed")
	}

	env, err := parseEnvelope(result.Data)
	if err != nil {
		return err
	}
	if !env.Get("success").Bool() {
		code := int(env.Get("error.code").Int())
		e := pserrors.NewAuthenticationError("DSM login failed: "+CodeMessage(code), nil)
		e.Code = code
		return e
	}

	c.mu.Lock()
	c.token = env.Get("data.synotoken").String()
	c.loggedIn = true
	c.mu.Unlock()
	return nil
}

// Logout ends the session. It is a no-op when not logged in.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	loggedIn := c.loggedIn
	c.loggedIn = false
	c.token = ""
	c.mu.Unlock()
	if !loggedIn {
		return nil
	}

	query := url.Values{
		"api":     []string{"SYNO.API.Auth"},
		"version": []string{"7"},
		"method":  []string{"logout"},
		"session": []string{sessionName},
	}
	if _, err := networking.FetchBytes(ctx, c.httpClient, c.baseURL+authPath, networking.WithQuery(query)); err != nil {
		return networking.ClassifyError(err, "DSM logout failed")
	}
	return nil
}

func (c *Client) session() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.loggedIn
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.loggedIn = false
	c.token = ""
	c.mu.Unlock()
}

func parseEnvelope(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, pserrors.NewRemoteAPIError("DSM returned a malformed response", 0, nil)
	}
	return gjson.ParseBytes(body), nil
}

// call invokes a method of the reverse proxy API and returns the data
// member of the reply. An expired session is renewed once.
func (c *Client) call(ctx context.Context, method string, params url.Values) (gjson.Result, error) {
	data, code, err := c.callOnce(ctx, method, params)
	if err != nil && isSessionError(code) {
		logger.Debugf("DSM session expired (code %d), logging in again", code)
		c.invalidate()
		data, _, err = c.callOnce(ctx, method, params)
	}
	return data, err
}

func (c *Client) callOnce(ctx context.Context, method string, params url.Values) (gjson.Result, int, error) {
	token, loggedIn := c.session()
	if !loggedIn {
		if err := c.Login(ctx); err != nil {
			return gjson.Result{}, 0, err
		}
		token, _ = c.session()
	}

	form := url.Values{
		"api":     []string{reverseProxyAPI},
		"version": []string{"1"},
		"method":  []string{method},
	}
	for k, vs := range params {
		form[k] = vs
	}

	opts := []networking.FetchOption{
		networking.WithMethod(http.MethodPost),
		networking.WithHeader("Content-Type", formContentType),
		networking.WithBody(strings.NewReader(form.Encode())),
	}
	if token != "" {
		opts = append(opts, networking.WithHeader(tokenHeader, token))
	}

	logger.Debugf("Calling DSM %s.%s", reverseProxyAPI, method)
	result, err := networking.FetchBytes(ctx, c.httpClient, c.baseURL+reverseProxyURL, opts...)
	if err != nil {
		return gjson.Result{}, 0, networking.ClassifyError(err, fmt.Sprintf("DSM %s request failed", method))
	}

	env, err := parseEnvelope(result.Data)
	if err != nil {
		return gjson.Result{}, 0, err
	}
	if !env.Get("success").Bool() {
		code := int(env.Get("error.code").Int())
		msg := fmt.Sprintf("DSM %s failed: %s", method, CodeMessage(code))
		if code == CodePermissionDenied {
			e := pserrors.NewAuthenticationError(msg, nil)
			e.Code = code
			return gjson.Result{}, code, e
		}
		return gjson.Result{}, code, pserrors.NewRemoteAPIError(msg, code, nil)
	}
	return env.Get("data"), 0, nil
}

// ListRules returns every reverse proxy rule configured on the gateway.
// Malformed entries are skipped with a warning.
func (c *Client) ListRules(ctx context.Context) ([]rules.RawRule, error) {
	data, err := c.call(ctx, "list", nil)
	if err != nil {
		return nil, err
	}

	entries := data.Get("entries").Array()
	out := make([]rules.RawRule, 0, len(entries))
	for i, e := range entries {
		raw, ok := fromEntry(e)
		if !ok {
			logger.Warnf("Skipping malformed reverse proxy entry %d", i)
			continue
		}
		out = append(out, raw)
	}
	logger.Debugf("Listed %d reverse proxy rules", len(out))
	return out, nil
}

// CreateRule creates a reverse proxy rule. WebSocket rules get the upgrade
// headers; the frontend always terminates HTTPS.
func (c *Client) CreateRule(ctx context.Context, rule rules.ProxyRule) error {
	body, err := json.Marshal(toEntry(rule))
	if err != nil {
		return fmt.Errorf("failed to encode rule %q: %w", rule.Description, err)
	}
	if _, err := c.call(ctx, "create", url.Values{"entry": []string{string(body)}}); err != nil {
		return err
	}
	logger.Infof("Created reverse proxy rule %q (%s -> %s)", rule.Description, rule.Frontend(), rule.Backend())
	return nil
}

// DeleteRules deletes the rules with the given identifiers in one call.
func (c *Client) DeleteRules(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return pserrors.NewInvalidArgumentError("no rule identifiers given", nil)
	}

	encoded, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode rule identifiers: %w", err)
	}
	key := "uuids"
	if len(ids) == 1 {
		key = "id"
	}
	if _, err := c.call(ctx, "delete", url.Values{key: []string{string(encoded)}}); err != nil {
		return err
	}
	logger.Infof("Deleted %d reverse proxy rule(s)", len(ids))
	return nil
}
