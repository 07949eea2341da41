// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"strings"
)

const maxPort = 65535

// WebSocketHeaders returns the custom headers a gateway needs to pass
// WebSocket upgrades through to the backend.
func WebSocketHeaders() []Header {
	return []Header{
		{Name: "Upgrade", Value: "$http_upgrade"},
		{Name: "Connection", Value: "$connection_upgrade"},
	}
}

// Normalize converts raw rule descriptors into ProxyRules, preserving order.
// Missing or invalid values are replaced by safe defaults: an absent
// frontend port becomes 443 and an out-of-range backend port becomes 0,
// which never matches a service.
func Normalize(raw []RawRule) []ProxyRule {
	out := make([]ProxyRule, 0, len(raw))
	for _, r := range raw {
		out = append(out, NormalizeOne(r))
	}
	return out
}

// NormalizeOne converts a single raw rule.
func NormalizeOne(r RawRule) ProxyRule {
	rule := ProxyRule{
		ID:             strings.TrimSpace(r.ID),
		Description:    strings.TrimSpace(r.Description),
		FrontendDomain: strings.TrimSpace(r.FrontendDomain),
		FrontendPort:   r.FrontendPort,
		BackendHost:    strings.TrimSpace(r.BackendHost),
		BackendPort:    r.BackendPort,
		HSTS:           r.HSTS,
		// Any custom header on a rule has so far only ever been the upgrade pair.
		WebSocket: r.WebSocket || len(r.CustomHeaders) > 0,
	}
	if rule.FrontendPort <= 0 || rule.FrontendPort > maxPort {
		rule.FrontendPort = DefaultFrontendPort
	}
	if rule.BackendPort < 0 || rule.BackendPort > maxPort {
		rule.BackendPort = 0
	}
	return rule
}

// BackendPorts returns the distinct backend ports used by rules, in first-seen order.
func BackendPorts(ruleSet []ProxyRule) []int {
	seen := make(map[int]struct{}, len(ruleSet))
	var ports []int
	for _, r := range ruleSet {
		if r.BackendPort <= 0 {
			continue
		}
		if _, ok := seen[r.BackendPort]; ok {
			continue
		}
		seen[r.BackendPort] = struct{}{}
		ports = append(ports, r.BackendPort)
	}
	return ports
}

// ByBackendPort returns the rules whose backend port equals port, in input order.
func ByBackendPort(ruleSet []ProxyRule, port int) []ProxyRule {
	var out []ProxyRule
	for _, r := range ruleSet {
		if r.BackendPort == port {
			out = append(out, r)
		}
	}
	return out
}
