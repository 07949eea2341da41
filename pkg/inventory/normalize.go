// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package inventory

import "strings"

// maxPort is the highest valid TCP port.
const maxPort = 65535

// Normalizer converts raw container descriptors into ServiceRecords.
type Normalizer struct {
	policy Policy
}

// NewNormalizer creates a Normalizer that classifies services with the given policy.
func NewNormalizer(policy Policy) *Normalizer {
	return &Normalizer{policy: policy}
}

// Normalize converts a batch of raw containers. Containers without a usable
// name are dropped; every other record is normalized independently so one
// malformed descriptor never affects the rest of the batch. Input order is kept.
func (n *Normalizer) Normalize(raw []RawContainer) []ServiceRecord {
	services := make([]ServiceRecord, 0, len(raw))
	for _, rc := range raw {
		svc, ok := n.NormalizeOne(rc)
		if !ok {
			continue
		}
		services = append(services, svc)
	}
	return services
}

// NormalizeOne converts a single raw container. It returns false when the
// descriptor has no name to identify it by.
func (n *Normalizer) NormalizeOne(rc RawContainer) (ServiceRecord, bool) {
	container := strings.TrimPrefix(strings.TrimSpace(rc.Name), "/")
	service := strings.TrimSpace(rc.Service)
	if container == "" && service == "" {
		return ServiceRecord{}, false
	}
	if service == "" {
		service = container
	}
	if container == "" {
		container = service
	}

	stack := strings.TrimSpace(rc.Stack)
	if stack == "" {
		stack = StandaloneStack
	}

	svc := ServiceRecord{
		Name:      service,
		Container: container,
		Stack:     stack,
		State:     ParseState(rc.State),
		Ports:     cleanPorts(rc.Ports),
		Image:     strings.TrimSpace(rc.Image),
		Endpoint:  rc.Endpoint,
	}

	// Overrides are keyed on the container name, which carries the
	// distribution name even when the compose service was renamed.
	if port, ok := n.policy.ResolvePort(container, svc.Ports); ok {
		svc.ResolvedPort = port
	}
	svc.NeedsProxy = n.policy.NeedsProxy(svc.Name, svc.Image)

	return svc, true
}

// Normalize converts raw containers using the given policy.
func Normalize(raw []RawContainer, policy Policy) []ServiceRecord {
	return NewNormalizer(policy).Normalize(raw)
}

// cleanPorts drops out-of-range ports and repeated ports while keeping the
// first-seen order. Runtimes report one entry per bound address family, so
// the same host port commonly appears twice.
func cleanPorts(ports []int) []int {
	out := make([]int, 0, len(ports))
	seen := make(map[int]struct{}, len(ports))
	for _, p := range ports {
		if p <= 0 || p > maxPort {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
