// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Filter selects services for display. The zero value selects everything.
type Filter struct {
	// State keeps only services in this state when set.
	State State
	// NeedsProxy keeps only services whose classification matches when set.
	NeedsProxy *bool
	// Search keeps services whose name or container contains it, ignoring case.
	Search string
}

// Matches reports whether svc passes the filter.
func (f Filter) Matches(svc ServiceRecord) bool {
	if f.State != "" && svc.State != f.State {
		return false
	}
	if f.NeedsProxy != nil && svc.NeedsProxy != *f.NeedsProxy {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(svc.Name), q) && !strings.Contains(strings.ToLower(svc.Container), q) {
			return false
		}
	}
	return true
}

// Apply returns the services that pass the filter, in input order.
func (f Filter) Apply(services []ServiceRecord) []ServiceRecord {
	out := make([]ServiceRecord, 0, len(services))
	for _, svc := range services {
		if f.Matches(svc) {
			out = append(out, svc)
		}
	}
	return out
}

// PortsLabel renders the published ports, marking the resolved port when
// the service publishes more than one.
func (s ServiceRecord) PortsLabel() string {
	if len(s.Ports) == 0 {
		return "N/A"
	}
	parts := make([]string, len(s.Ports))
	for i, p := range s.Ports {
		parts[i] = strconv.Itoa(p)
	}
	label := strings.Join(parts, ", ")
	if len(s.Ports) > 1 && slices.Contains(s.Ports, s.ResolvedPort) {
		label = fmt.Sprintf("%s (→%d)", label, s.ResolvedPort)
	}
	return label
}

// ImageName returns the image reference without its tag or digest.
func (s ServiceRecord) ImageName() string {
	if s.Image == "" {
		return "N/A"
	}
	name, _, _ := strings.Cut(s.Image, "@")
	// A colon after the last slash starts the tag; earlier ones belong to a registry port.
	if i := strings.LastIndex(name, ":"); i > strings.LastIndex(name, "/") {
		name = name[:i]
	}
	return name
}
