// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package docker

import (
	"slices"
	"strings"

	"github.com/docker/docker/api/types/container"

	"github.com/nasops/proxysync/pkg/inventory"
)

// Compose labels set on every container started by docker compose or a
// Portainer stack.
const (
	LabelComposeProject = "com.docker.compose.project"
	LabelComposeService = "com.docker.compose.service"
)

// FromSummary converts a container list entry into a raw inventory
// descriptor. Published ports are sorted and de-duplicated. It returns
// false for containers without a name.
//
// The Portainer Docker proxy returns the same JSON as the Engine API, so
// this is used for both sources.
func FromSummary(s container.Summary, endpoint string) (inventory.RawContainer, bool) {
	if len(s.Names) == 0 {
		return inventory.RawContainer{}, false
	}
	name := strings.TrimPrefix(s.Names[0], "/")
	if name == "" {
		return inventory.RawContainer{}, false
	}

	var ports []int
	for _, p := range s.Ports {
		if p.PublicPort == 0 {
			continue
		}
		ports = append(ports, int(p.PublicPort))
	}
	// One entry is reported per bound address family.
	slices.Sort(ports)
	ports = slices.Compact(ports)

	return inventory.RawContainer{
		Name:     name,
		Stack:    s.Labels[LabelComposeProject],
		Service:  s.Labels[LabelComposeService],
		State:    s.State,
		Ports:    ports,
		Image:    s.Image,
		Endpoint: endpoint,
	}, true
}

// FromSummaries converts a container list, skipping unnamed entries.
func FromSummaries(summaries []container.Summary, endpoint string) []inventory.RawContainer {
	out := make([]inventory.RawContainer, 0, len(summaries))
	for _, s := range summaries {
		if rc, ok := FromSummary(s, endpoint); ok {
			out = append(out, rc)
		}
	}
	return out
}
