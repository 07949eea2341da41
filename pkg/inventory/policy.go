// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"slices"
	"strings"
)

// PortOverride pins the proxy port for services whose name contains Keyword.
type PortOverride struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Port    int    `yaml:"port" json:"port"`
}

// Policy holds the keyword tables that drive port resolution and exposure
// classification. All matching is a case-insensitive substring match.
type Policy struct {
	PortOverrides     []PortOverride `yaml:"port_overrides,omitempty" json:"port_overrides,omitempty"`
	InternalKeywords  []string       `yaml:"internal_keywords,omitempty" json:"internal_keywords,omitempty"`
	WebSocketKeywords []string       `yaml:"websocket_keywords,omitempty" json:"websocket_keywords,omitempty"`
}

// DefaultPortOverrides returns the built-in multi-port overrides.
// Portainer serves its UI on 9000 while 8000 is the edge agent tunnel.
func DefaultPortOverrides() []PortOverride {
	return []PortOverride{
		{Keyword: "portainer", Port: 9000},
	}
}

// DefaultInternalKeywords returns the built-in list of backend-only service keywords.
func DefaultInternalKeywords() []string {
	return []string{
		"database", "db", "postgres", "mysql", "mariadb", "mongo",
		"redis", "cache", "rabbitmq", "kafka", "zookeeper",
		"elasticsearch", "logstash",
	}
}

// DefaultWebSocketKeywords returns the built-in list of services that need WebSocket upgrades.
func DefaultWebSocketKeywords() []string {
	return []string{
		"plex", "portainer", "qbittorrent", "immich",
		"jellyfin", "home-assistant", "grafana", "netdata",
	}
}

// DefaultPolicy returns a policy populated with the built-in tables.
func DefaultPolicy() Policy {
	return Policy{
		PortOverrides:     DefaultPortOverrides(),
		InternalKeywords:  DefaultInternalKeywords(),
		WebSocketKeywords: DefaultWebSocketKeywords(),
	}
}

// Extend returns a copy of p with the entries of extra appended.
// Keywords already present are not duplicated; overrides from extra take
// precedence over existing overrides with the same keyword.
func (p Policy) Extend(extra Policy) Policy {
	out := Policy{
		InternalKeywords:  appendUnique(slices.Clone(p.InternalKeywords), extra.InternalKeywords),
		WebSocketKeywords: appendUnique(slices.Clone(p.WebSocketKeywords), extra.WebSocketKeywords),
	}

	overridden := make(map[string]struct{}, len(extra.PortOverrides))
	for _, o := range extra.PortOverrides {
		overridden[strings.ToLower(o.Keyword)] = struct{}{}
	}
	out.PortOverrides = append(out.PortOverrides, extra.PortOverrides...)
	for _, o := range p.PortOverrides {
		if _, ok := overridden[strings.ToLower(o.Keyword)]; !ok {
			out.PortOverrides = append(out.PortOverrides, o)
		}
	}
	return out
}

// ResolvePort picks the single port of a service that is relevant for
// reverse-proxy matching. It returns false when ports is empty.
//
// An override applies only when its port is actually published; otherwise
// the first published port is used.
func (p Policy) ResolvePort(name string, ports []int) (int, bool) {
	if len(ports) == 0 {
		return 0, false
	}
	lower := strings.ToLower(name)
	for _, o := range p.PortOverrides {
		if o.Keyword == "" || !strings.Contains(lower, strings.ToLower(o.Keyword)) {
			continue
		}
		if slices.Contains(ports, o.Port) {
			return o.Port, true
		}
	}
	return ports[0], true
}

// NeedsProxy reports whether a service should be exposed through the reverse
// proxy. Services whose name or image matches an internal keyword are excluded.
func (p Policy) NeedsProxy(name, image string) bool {
	return !matchesAny(p.InternalKeywords, name, image)
}

// NeedsWebSocket reports whether a service is known to require WebSocket upgrades.
func (p Policy) NeedsWebSocket(name, image string) bool {
	return matchesAny(p.WebSocketKeywords, name, image)
}

func matchesAny(keywords []string, fields ...string) bool {
	lowered := make([]string, len(fields))
	for i, f := range fields {
		lowered[i] = strings.ToLower(f)
	}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		for _, f := range lowered {
			if strings.Contains(f, kw) {
				return true
			}
		}
	}
	return false
}

func appendUnique(dst []string, src []string) []string {
	seen := make(map[string]struct{}, len(dst)+len(src))
	for _, s := range dst {
		seen[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range src {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}
