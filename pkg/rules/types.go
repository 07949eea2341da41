// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package rules defines the canonical reverse-proxy rule and the conversion
// from the raw rule descriptors returned by a gateway.
package rules

import (
	"fmt"
	"strings"
)

// DefaultFrontendPort is the frontend port used when a rule does not specify one.
const DefaultFrontendPort = 443

// ProxyRule maps a frontend domain and port onto a backend host and port.
type ProxyRule struct {
	// ID is the gateway's identifier for the rule. It is opaque and only
	// passed back to the gateway when deleting the rule.
	ID             string `json:"id,omitempty"`
	Description    string `json:"description"`
	FrontendDomain string `json:"frontend_domain"`
	FrontendPort   int    `json:"frontend_port"`
	BackendHost    string `json:"backend_host"`
	BackendPort    int    `json:"backend_port"`
	HSTS           bool   `json:"hsts"`
	WebSocket      bool   `json:"websocket"`
}

// Frontend returns the "domain:port" form of the rule's frontend.
func (r ProxyRule) Frontend() string {
	return fmt.Sprintf("%s:%d", r.FrontendDomain, r.FrontendPort)
}

// Backend returns the "host:port" form of the rule's backend.
func (r ProxyRule) Backend() string {
	return fmt.Sprintf("%s:%d", r.BackendHost, r.BackendPort)
}

// SameDescription reports whether two rules share a description, ignoring case.
func (r ProxyRule) SameDescription(other ProxyRule) bool {
	return strings.EqualFold(strings.TrimSpace(r.Description), strings.TrimSpace(other.Description))
}

// SameFrontend reports whether two rules share a frontend domain and port.
func (r ProxyRule) SameFrontend(other ProxyRule) bool {
	return strings.EqualFold(r.FrontendDomain, other.FrontendDomain) && r.FrontendPort == other.FrontendPort
}

// SameBackendHost reports whether two rules point at the same backend host, ignoring case.
func (r ProxyRule) SameBackendHost(other ProxyRule) bool {
	return strings.EqualFold(r.BackendHost, other.BackendHost)
}

// Header is a custom header attached to a rule.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RawRule is a rule descriptor as supplied by a gateway client, after the
// client has decoded its wire format.
type RawRule struct {
	ID             string
	Description    string
	FrontendDomain string
	FrontendPort   int
	BackendHost    string
	BackendPort    int
	HSTS           bool
	WebSocket      bool
	CustomHeaders  []Header
}
