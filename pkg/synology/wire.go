// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package synology

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nasops/proxysync/pkg/rules"
)

// Defaults DSM applies to rules created from its own UI.
const (
	defaultProxyTimeout     = 60
	defaultProxyHTTPVersion = 1
	protocolHTTP            = 0
	protocolHTTPS           = 1
)

type entry struct {
	Description          string         `json:"description"`
	ProxyConnectTimeout  int            `json:"proxy_connect_timeout"`
	ProxyReadTimeout     int            `json:"proxy_read_timeout"`
	ProxySendTimeout     int            `json:"proxy_send_timeout"`
	ProxyHTTPVersion     int            `json:"proxy_http_version"`
	ProxyInterceptErrors bool           `json:"proxy_intercept_errors"`
	Frontend             frontend       `json:"frontend"`
	Backend              backend        `json:"backend"`
	CustomizeHeaders     []rules.Header `json:"customize_headers"`
}

type frontend struct {
	ACL      *string `json:"acl"`
	FQDN     string  `json:"fqdn"`
	Port     int     `json:"port"`
	Protocol int     `json:"protocol"`
	HTTPS    https   `json:"https"`
}

type https struct {
	HSTS bool `json:"hsts"`
}

type backend struct {
	FQDN     string `json:"fqdn"`
	Port     int    `json:"port"`
	Protocol int    `json:"protocol"`
}

// toEntry converts a rule into the entry the create call expects. The
// frontend always terminates HTTPS and the backend is plain HTTP.
func toEntry(r rules.ProxyRule) entry {
	port := r.FrontendPort
	if port <= 0 {
		port = rules.DefaultFrontendPort
	}
	headers := []rules.Header{}
	if r.WebSocket {
		headers = rules.WebSocketHeaders()
	}
	return entry{
		Description:         r.Description,
		ProxyConnectTimeout: defaultProxyTimeout,
		ProxyReadTimeout:    defaultProxyTimeout,
		ProxySendTimeout:    defaultProxyTimeout,
		ProxyHTTPVersion:    defaultProxyHTTPVersion,
		Frontend: frontend{
			FQDN:     r.FrontendDomain,
			Port:     port,
			Protocol: protocolHTTPS,
			HTTPS:    https{HSTS: r.HSTS},
		},
		Backend: backend{
			FQDN:     r.BackendHost,
			Port:     r.BackendPort,
			Protocol: protocolHTTP,
		},
		CustomizeHeaders: headers,
	}
}

// fromEntry reads a listed entry. DSM has used several spellings for the
// rule identifier across releases, and reports ports as numbers or strings.
func fromEntry(e gjson.Result) (rules.RawRule, bool) {
	if !e.IsObject() {
		return rules.RawRule{}, false
	}

	var id string
	for _, key := range []string{"UUID", "uuid", "id"} {
		if v := e.Get(key); v.Exists() && v.String() != "" {
			id = v.String()
			break
		}
	}

	raw := rules.RawRule{
		ID:             id,
		Description:    e.Get("description").String(),
		FrontendDomain: e.Get("frontend.fqdn").String(),
		FrontendPort:   portValue(e.Get("frontend.port")),
		BackendHost:    e.Get("backend.fqdn").String(),
		BackendPort:    portValue(e.Get("backend.port")),
		HSTS:           e.Get("frontend.https.hsts").Bool(),
	}
	for _, h := range e.Get("customize_headers").Array() {
		raw.CustomHeaders = append(raw.CustomHeaders, rules.Header{
			Name:  h.Get("name").String(),
			Value: h.Get("value").String(),
		})
	}
	return raw, true
}

// portValue returns 0 for anything that is not a whole number.
func portValue(v gjson.Result) int {
	switch v.Type {
	case gjson.Number:
		if v.Num != float64(int(v.Num)) {
			return 0
		}
		return int(v.Num)
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
