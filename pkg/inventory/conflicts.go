// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package inventory

import "sort"

// PortConflict is a resolved port claimed by more than one service.
type PortConflict struct {
	Port     int      `json:"port"`
	Services []string `json:"services"`
}

// PortConflicts returns every resolved port shared by two or more services,
// ordered by port. Services are listed by container name in input order.
// Stopped services are included since they still hold the port mapping.
func PortConflicts(services []ServiceRecord) []PortConflict {
	byPort := make(map[int][]string)
	for _, svc := range services {
		if !svc.HasResolvedPort() {
			continue
		}
		byPort[svc.ResolvedPort] = append(byPort[svc.ResolvedPort], svc.Container)
	}

	var conflicts []PortConflict
	for port, names := range byPort {
		if len(names) > 1 {
			conflicts = append(conflicts, PortConflict{Port: port, Services: names})
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].Port < conflicts[j].Port
	})
	return conflicts
}

// NextAvailablePort returns the first port in [start, end) that no service
// uses as its resolved port.
func NextAvailablePort(services []ServiceRecord, start, end int) (int, bool) {
	used := make(map[int]struct{}, len(services))
	for _, svc := range services {
		if svc.HasResolvedPort() {
			used[svc.ResolvedPort] = struct{}{}
		}
	}
	if start < 1 {
		start = 1
	}
	if end > maxPort+1 {
		end = maxPort + 1
	}
	for port := start; port < end; port++ {
		if _, ok := used[port]; !ok {
			return port, true
		}
	}
	return 0, false
}

// Stats summarizes an inventory.
type Stats struct {
	Total         int `json:"total_services"`
	Running       int `json:"running_services"`
	WithPorts     int `json:"services_with_ports"`
	NeedingProxy  int `json:"services_needing_proxy"`
	PortConflicts int `json:"port_conflicts"`
}

// ComputeStats counts services by state and classification.
func ComputeStats(services []ServiceRecord) Stats {
	stats := Stats{Total: len(services)}
	for _, svc := range services {
		if svc.IsRunning() {
			stats.Running++
			if svc.NeedsProxy {
				stats.NeedingProxy++
			}
		}
		if svc.HasResolvedPort() {
			stats.WithPorts++
		}
	}
	stats.PortConflicts = len(PortConflicts(services))
	return stats
}

// GroupByStack groups services by stack, returning stack names sorted
// alphabetically and services within a stack in input order.
func GroupByStack(services []ServiceRecord) ([]string, map[string][]ServiceRecord) {
	groups := make(map[string][]ServiceRecord)
	for _, svc := range services {
		groups[svc.Stack] = append(groups[svc.Stack], svc)
	}
	stacks := make([]string, 0, len(groups))
	for name := range groups {
		stacks = append(stacks, name)
	}
	sort.Strings(stacks)
	return stacks, groups
}
